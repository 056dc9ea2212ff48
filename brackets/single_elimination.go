// Package brackets holds the pure single-elimination structure of the
// eight-team competition and the websocket hub that streams bracket updates.
package brackets

import (
	"errors"
	"fmt"

	"github.com/anleague/tournament-engine/models"
)

// TournamentSize is the number of teams in the competition. The bracket shape
// is fixed: 4 quarterfinals, 2 semifinals, 1 final.
const TournamentSize = 8

var (
	ErrWrongTeamCount   = fmt.Errorf("exactly %d teams are required to seed a bracket", TournamentSize)
	ErrOddWinnerCount   = errors.New("cannot pair an odd number of winners")
	ErrNoWinnersToPair  = errors.New("no winners to pair")
	ErrUnknownNextStage = errors.New("no stage follows the final")
)

// Pairing is a pre-match fixture: two team ids in bracket order.
type Pairing struct {
	Team1ID int
	Team2ID int
}

// SeedQuarterfinals pairs eight already-shuffled teams sequentially:
// 0v1, 2v3, 4v5, 6v7. The caller owns the shuffle.
func SeedQuarterfinals(teamIDs []int) ([]Pairing, error) {
	if len(teamIDs) != TournamentSize {
		return nil, ErrWrongTeamCount
	}
	pairings := make([]Pairing, 0, TournamentSize/2)
	for i := 0; i < TournamentSize; i += 2 {
		pairings = append(pairings, Pairing{Team1ID: teamIDs[i], Team2ID: teamIDs[i+1]})
	}
	return pairings, nil
}

// PairWinners collapses a round's winners, taken two at a time in bracket
// order, into the next round's fixtures: winner-of-2i vs winner-of-2i+1.
func PairWinners(winnerIDs []int) ([]Pairing, error) {
	if len(winnerIDs) == 0 {
		return nil, ErrNoWinnersToPair
	}
	if len(winnerIDs)%2 != 0 {
		return nil, ErrOddWinnerCount
	}
	pairings := make([]Pairing, 0, len(winnerIDs)/2)
	for i := 0; i < len(winnerIDs); i += 2 {
		pairings = append(pairings, Pairing{Team1ID: winnerIDs[i], Team2ID: winnerIDs[i+1]})
	}
	return pairings, nil
}

// NextStage maps a round to the stage its winners advance into.
func NextStage(stage models.Stage) (models.Stage, error) {
	switch stage {
	case models.StageQuarterfinal:
		return models.StageSemifinal, nil
	case models.StageSemifinal:
		return models.StageFinal, nil
	}
	return "", ErrUnknownNextStage
}

// StageForStatus maps a tournament status to the stage of its current round.
func StageForStatus(status models.TournamentStatus) (models.Stage, bool) {
	switch status {
	case models.StatusQuarterfinals:
		return models.StageQuarterfinal, true
	case models.StatusSemifinals:
		return models.StageSemifinal, true
	case models.StatusFinal:
		return models.StageFinal, true
	}
	return "", false
}

// RoundSize returns how many fixtures a complete round of the given stage has.
func RoundSize(stage models.Stage) int {
	switch stage {
	case models.StageQuarterfinal:
		return 4
	case models.StageSemifinal:
		return 2
	case models.StageFinal:
		return 1
	}
	return 0
}
