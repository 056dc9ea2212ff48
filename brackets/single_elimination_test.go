package brackets

import (
	"errors"
	"testing"

	"github.com/anleague/tournament-engine/models"
)

func TestSeedQuarterfinals(t *testing.T) {
	ids := []int{10, 20, 30, 40, 50, 60, 70, 80}

	pairings, err := SeedQuarterfinals(ids)
	if err != nil {
		t.Fatalf("SeedQuarterfinals returned error: %v", err)
	}
	if len(pairings) != 4 {
		t.Fatalf("expected 4 pairings, got %d", len(pairings))
	}
	want := []Pairing{{10, 20}, {30, 40}, {50, 60}, {70, 80}}
	for i, p := range pairings {
		if p != want[i] {
			t.Errorf("pairing %d: got %+v, want %+v", i, p, want[i])
		}
	}
}

func TestSeedQuarterfinalsWrongCount(t *testing.T) {
	for _, n := range []int{0, 4, 7, 9, 16} {
		ids := make([]int, n)
		for i := range ids {
			ids[i] = i + 1
		}
		if _, err := SeedQuarterfinals(ids); !errors.Is(err, ErrWrongTeamCount) {
			t.Errorf("with %d teams: got %v, want ErrWrongTeamCount", n, err)
		}
	}
}

func TestPairWinners(t *testing.T) {
	pairings, err := PairWinners([]int{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("PairWinners returned error: %v", err)
	}
	want := []Pairing{{1, 2}, {3, 4}}
	for i, p := range pairings {
		if p != want[i] {
			t.Errorf("pairing %d: got %+v, want %+v", i, p, want[i])
		}
	}
}

func TestPairWinnersErrors(t *testing.T) {
	if _, err := PairWinners(nil); !errors.Is(err, ErrNoWinnersToPair) {
		t.Errorf("empty winners: got %v, want ErrNoWinnersToPair", err)
	}
	if _, err := PairWinners([]int{1, 2, 3}); !errors.Is(err, ErrOddWinnerCount) {
		t.Errorf("odd winners: got %v, want ErrOddWinnerCount", err)
	}
}

func TestNextStage(t *testing.T) {
	if next, err := NextStage(models.StageQuarterfinal); err != nil || next != models.StageSemifinal {
		t.Errorf("quarterfinal: got %q, %v", next, err)
	}
	if next, err := NextStage(models.StageSemifinal); err != nil || next != models.StageFinal {
		t.Errorf("semifinal: got %q, %v", next, err)
	}
	if _, err := NextStage(models.StageFinal); !errors.Is(err, ErrUnknownNextStage) {
		t.Errorf("final: got %v, want ErrUnknownNextStage", err)
	}
}

func TestStageForStatus(t *testing.T) {
	cases := []struct {
		status models.TournamentStatus
		stage  models.Stage
		ok     bool
	}{
		{models.StatusQuarterfinals, models.StageQuarterfinal, true},
		{models.StatusSemifinals, models.StageSemifinal, true},
		{models.StatusFinal, models.StageFinal, true},
		{models.StatusCompleted, "", false},
	}
	for _, c := range cases {
		stage, ok := StageForStatus(c.status)
		if stage != c.stage || ok != c.ok {
			t.Errorf("%s: got (%q, %v), want (%q, %v)", c.status, stage, ok, c.stage, c.ok)
		}
	}
}

func TestRoundSize(t *testing.T) {
	if got := RoundSize(models.StageQuarterfinal); got != 4 {
		t.Errorf("quarterfinal round size: got %d", got)
	}
	if got := RoundSize(models.StageSemifinal); got != 2 {
		t.Errorf("semifinal round size: got %d", got)
	}
	if got := RoundSize(models.StageFinal); got != 1 {
		t.Errorf("final round size: got %d", got)
	}
}
