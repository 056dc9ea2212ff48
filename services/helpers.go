package services

import (
	"github.com/anleague/tournament-engine/models"
)

// stageTransitions is the exhaustive table of valid forward transitions.
// Anything not listed is rejected.
var stageTransitions = map[models.TournamentStatus]models.TournamentStatus{
	models.StatusQuarterfinals: models.StatusSemifinals,
	models.StatusSemifinals:    models.StatusFinal,
	models.StatusFinal:         models.StatusCompleted,
}

func nextStatus(current models.TournamentStatus) (models.TournamentStatus, bool) {
	next, ok := stageTransitions[current]
	return next, ok
}

func teamToView(t *models.Team) *models.TeamView {
	if t == nil {
		return nil
	}
	return &models.TeamView{
		ID:      t.ID,
		Country: t.Country,
		Rating:  t.Rating,
		FlagURL: t.FlagURL,
	}
}
