package services

import (
	"context"

	"github.com/anleague/tournament-engine/models"
)

// CommentaryGenerator produces free-text narrative for a played match. The
// narrative is cosmetic: scores and scorers always come from the resolver,
// and any generator failure falls back to algorithmic commentary.
type CommentaryGenerator interface {
	Generate(ctx context.Context, team1, team2 *models.Team) (string, error)
}

// ResultNotifier delivers a final result to the two teams' representatives.
// Delivery failures are logged by callers and never fail a resolution.
type ResultNotifier interface {
	NotifyResult(ctx context.Context, match *models.Match, team1, team2 *models.Team) error
}
