package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/anleague/tournament-engine/models"
)

func newTeamFixture(t *testing.T) (TeamService, *fakeTeamRepo, *fakeUploader) {
	t.Helper()
	teamRepo := newFakeTeamRepo()
	uploader := newFakeUploader()
	return NewTeamService(teamRepo, uploader), teamRepo, uploader
}

func TestCreateTeamDerivesRatingAndCaptain(t *testing.T) {
	svc, _, _ := newTeamFixture(t)
	ctx := context.Background()

	squad := fullSquad()
	squad[4].IsCaptain = true
	team, err := svc.CreateTeam(ctx, CreateTeamInput{
		Country:          "Ghana",
		Manager:          "K. Mensah",
		RepresentativeID: 1,
		Squad:            squad,
	})
	if err != nil {
		t.Fatalf("CreateTeam returned error: %v", err)
	}
	if team.Rating != 70 {
		t.Errorf("rating: got %v, want 70", team.Rating)
	}
	if team.CaptainName != "Player 5" {
		t.Errorf("captain: got %q, want %q", team.CaptainName, "Player 5")
	}
	if team.ID == 0 {
		t.Error("team should receive an id")
	}
}

func TestCreateTeamValidation(t *testing.T) {
	svc, _, _ := newTeamFixture(t)
	ctx := context.Background()

	if _, err := svc.CreateTeam(ctx, CreateTeamInput{Manager: "M", Squad: fullSquad()}); !errors.Is(err, ErrCountryRequired) {
		t.Errorf("missing country: got %v, want ErrCountryRequired", err)
	}
	if _, err := svc.CreateTeam(ctx, CreateTeamInput{Country: "Mali", Squad: fullSquad()}); !errors.Is(err, ErrManagerRequired) {
		t.Errorf("missing manager: got %v, want ErrManagerRequired", err)
	}
	if _, err := svc.CreateTeam(ctx, CreateTeamInput{Country: "Mali", Manager: "M", Squad: fullSquad()[:10]}); !errors.Is(err, ErrSquadSizeInvalid) {
		t.Errorf("short squad: got %v, want ErrSquadSizeInvalid", err)
	}

	badSquad := fullSquad()
	badSquad[3].NaturalPosition = "XX"
	if _, err := svc.CreateTeam(ctx, CreateTeamInput{Country: "Mali", Manager: "M", Squad: badSquad}); !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("bad position: got %v, want ErrInvalidPosition", err)
	}
}

func TestCreateTeamCountryConflict(t *testing.T) {
	svc, _, _ := newTeamFixture(t)
	ctx := context.Background()

	input := CreateTeamInput{Country: "Egypt", Manager: "H. Salah", Squad: fullSquad()}
	if _, err := svc.CreateTeam(ctx, input); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.CreateTeam(ctx, input); !errors.Is(err, ErrCountryConflict) {
		t.Errorf("duplicate country: got %v, want ErrCountryConflict", err)
	}
}

func TestGetTeamByRepresentative(t *testing.T) {
	svc, _, _ := newTeamFixture(t)
	ctx := context.Background()

	created, err := svc.CreateTeam(ctx, CreateTeamInput{
		Country:          "Senegal",
		Manager:          "A. Cisse",
		RepresentativeID: 42,
		Squad:            fullSquad(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	team, err := svc.GetTeamByRepresentative(ctx, 42)
	if err != nil {
		t.Fatalf("GetTeamByRepresentative returned error: %v", err)
	}
	if team.ID != created.ID {
		t.Errorf("team: got id %d, want %d", team.ID, created.ID)
	}

	if _, err := svc.GetTeamByRepresentative(ctx, 43); !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("unknown representative: got %v, want ErrTeamNotFound", err)
	}
}

func TestRenamePlayerRederivesCaptain(t *testing.T) {
	svc, _, _ := newTeamFixture(t)
	ctx := context.Background()

	team, err := svc.CreateTeam(ctx, CreateTeamInput{Country: "Morocco", Manager: "W. Regragui", Squad: fullSquad()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Slot 0 is the default captain, renaming them must update the
	// derived captain name.
	updated, err := svc.RenamePlayer(ctx, team.ID, 0, "Achraf")
	if err != nil {
		t.Fatalf("RenamePlayer returned error: %v", err)
	}
	if updated.Squad[0].Name != "Achraf" {
		t.Errorf("player name: got %q", updated.Squad[0].Name)
	}
	if updated.CaptainName != "Achraf" {
		t.Errorf("captain name: got %q, want %q", updated.CaptainName, "Achraf")
	}
}

func TestUpdatePlayerRatingsRecomputesTeamRating(t *testing.T) {
	svc, _, _ := newTeamFixture(t)
	ctx := context.Background()

	team, err := svc.CreateTeam(ctx, CreateTeamInput{Country: "Algeria", Manager: "D. Belmadi", Squad: fullSquad()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.UpdatePlayerRatings(ctx, team.ID, 0, PlayerRatingsInput{
		NaturalPosition: models.PositionAttacker,
		Ratings:         models.PositionRatings{AT: 93},
	})
	if err != nil {
		t.Fatalf("UpdatePlayerRatings returned error: %v", err)
	}
	// (93 + 22*70) / 23 = 71, exactly.
	if updated.Rating != 71 {
		t.Errorf("rating: got %v, want 71", updated.Rating)
	}
	if updated.Squad[0].NaturalPosition != models.PositionAttacker {
		t.Errorf("natural position: got %q", updated.Squad[0].NaturalPosition)
	}
}

func TestUpdatePlayerRatingsRejectsBadSlot(t *testing.T) {
	svc, _, _ := newTeamFixture(t)
	ctx := context.Background()

	team, err := svc.CreateTeam(ctx, CreateTeamInput{Country: "Tunisia", Manager: "J. Kadri", Squad: fullSquad()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = svc.UpdatePlayerRatings(ctx, team.ID, 23, PlayerRatingsInput{
		NaturalPosition: models.PositionDefender,
	})
	if !errors.Is(err, ErrPlayerNotInSquad) {
		t.Errorf("got %v, want ErrPlayerNotInSquad", err)
	}
}

func TestSetCaptainMovesArmband(t *testing.T) {
	svc, _, _ := newTeamFixture(t)
	ctx := context.Background()

	team, err := svc.CreateTeam(ctx, CreateTeamInput{Country: "Cameroon", Manager: "R. Song", Squad: fullSquad()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.SetCaptain(ctx, team.ID, 10)
	if err != nil {
		t.Fatalf("SetCaptain returned error: %v", err)
	}
	if updated.CaptainName != "Player 11" {
		t.Errorf("captain: got %q, want %q", updated.CaptainName, "Player 11")
	}
	captains := 0
	for _, p := range updated.Squad {
		if p.IsCaptain {
			captains++
		}
	}
	if captains != 1 {
		t.Errorf("captains flagged: got %d, want 1", captains)
	}
}

func TestUploadFlagReplacesPreviousObject(t *testing.T) {
	svc, teamRepo, uploader := newTeamFixture(t)
	ctx := context.Background()

	team, err := svc.CreateTeam(ctx, CreateTeamInput{Country: "Ivory Coast", Manager: "E. Fae", Squad: fullSquad()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := svc.UploadFlag(ctx, team.ID, "image/png", strings.NewReader("png-one"))
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	if first.FlagURL == nil || !strings.Contains(*first.FlagURL, "flags/") {
		t.Fatalf("flag url: got %v", first.FlagURL)
	}
	stored, _ := teamRepo.GetByID(ctx, team.ID)
	firstKey := *stored.FlagKey

	second, err := svc.UploadFlag(ctx, team.ID, "image/png", strings.NewReader("png-two"))
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	stored, _ = teamRepo.GetByID(ctx, team.ID)
	if *stored.FlagKey == firstKey {
		t.Error("flag key should change on re-upload")
	}
	if len(uploader.deleted) != 1 || uploader.deleted[0] != firstKey {
		t.Errorf("previous object not cleaned up: %v", uploader.deleted)
	}
	if second.FlagURL == nil {
		t.Error("second upload should carry a flag url")
	}
}

func TestTopScorersSortedAndLimited(t *testing.T) {
	svc, teamRepo, _ := newTeamFixture(t)
	ctx := context.Background()

	squad1 := fullSquad()
	squad1[0].Goals = 5
	squad1[1].Goals = 1
	team1 := &models.Team{Country: "Kenya", Manager: "M1", Squad: squad1}
	if err := teamRepo.Create(ctx, team1); err != nil {
		t.Fatalf("create team1: %v", err)
	}

	squad2 := fullSquad()
	squad2[0].Goals = 3
	team2 := &models.Team{Country: "Zambia", Manager: "M2", Squad: squad2}
	if err := teamRepo.Create(ctx, team2); err != nil {
		t.Fatalf("create team2: %v", err)
	}

	scorers, err := svc.TopScorers(ctx, 2)
	if err != nil {
		t.Fatalf("TopScorers returned error: %v", err)
	}
	if len(scorers) != 2 {
		t.Fatalf("scorers: got %d, want 2", len(scorers))
	}
	if scorers[0].Goals != 5 || scorers[0].Country != "Kenya" {
		t.Errorf("first scorer: %+v", scorers[0])
	}
	if scorers[1].Goals != 3 || scorers[1].Country != "Zambia" {
		t.Errorf("second scorer: %+v", scorers[1])
	}
}
