package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/anleague/tournament-engine/brackets"
	"github.com/anleague/tournament-engine/models"
	"github.com/anleague/tournament-engine/repositories"
)

type ArchiveService interface {
	// Restart archives the active tournament and deletes the live document,
	// clearing the way for a fresh start. Matches are kept for history reads.
	// Without an active tournament it is a no-op and returns nil, nil.
	Restart(ctx context.Context) (*models.PastTournament, error)
	// Archive snapshots an already-loaded tournament and deletes the live
	// document. The snapshot write always precedes the delete.
	Archive(ctx context.Context, tournament *models.Tournament) (*models.PastTournament, error)
	ListHistory(ctx context.Context) ([]*models.PastTournament, error)
}

type archiveService struct {
	tournamentRepo repositories.TournamentRepository
	pastRepo       repositories.PastTournamentRepository
	hub            *brackets.Hub
	clock          clockwork.Clock
	logger         *slog.Logger
}

func NewArchiveService(
	tournamentRepo repositories.TournamentRepository,
	pastRepo repositories.PastTournamentRepository,
	hub *brackets.Hub,
	clock clockwork.Clock,
	logger *slog.Logger,
) ArchiveService {
	return &archiveService{
		tournamentRepo: tournamentRepo,
		pastRepo:       pastRepo,
		hub:            hub,
		clock:          clock,
		logger:         logger,
	}
}

func (s *archiveService) Restart(ctx context.Context) (*models.PastTournament, error) {
	tournament, err := s.tournamentRepo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrNoActiveTournament) {
			s.logger.Info("restart requested with no active tournament, nothing to do")
			return nil, nil
		}
		return nil, err
	}
	return s.Archive(ctx, tournament)
}

func (s *archiveService) Archive(ctx context.Context, tournament *models.Tournament) (*models.PastTournament, error) {
	year := s.clock.Now().UTC().Year()
	shape := repositories.BracketShape{
		Quarterfinals: len(tournament.Bracket.Quarterfinals),
		Semifinals:    len(tournament.Bracket.Semifinals),
		Final:         len(tournament.Bracket.Final),
	}

	// A re-run of a failed restart must not archive the same bracket twice.
	past, err := s.pastRepo.FindByYearAndShape(ctx, year, shape)
	switch {
	case err == nil:
		s.logger.Info("tournament already archived, skipping snapshot",
			slog.Int("tournament_id", tournament.ID), slog.Int("past_id", past.ID))
	case errors.Is(err, repositories.ErrPastTournamentNotFound):
		past = &models.PastTournament{
			Year:    year,
			TeamIDs: tournament.TeamIDs,
			Bracket: tournament.Bracket,
			Status:  tournament.Status,
		}
		if err := s.pastRepo.Create(ctx, past); err != nil {
			return nil, fmt.Errorf("failed to archive tournament %d: %w", tournament.ID, err)
		}
	default:
		return nil, fmt.Errorf("failed to check archive for duplicates: %w", err)
	}

	// Delete strictly after the snapshot exists; a failure here leaves the
	// live tournament in place and the restart retryable.
	if err := s.tournamentRepo.Delete(ctx, tournament.ID); err != nil {
		return nil, fmt.Errorf("failed to delete tournament %d after archiving: %w", tournament.ID, err)
	}

	s.logger.Info("tournament archived",
		slog.Int("tournament_id", tournament.ID),
		slog.Int("past_id", past.ID),
		slog.Int("year", year))
	if s.hub != nil {
		s.hub.BroadcastToRoom(brackets.RoomForTournament(tournament.ID), brackets.EventTournamentArchived, past)
	}
	return past, nil
}

func (s *archiveService) ListHistory(ctx context.Context) ([]*models.PastTournament, error) {
	past, err := s.pastRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournament history: %w", err)
	}
	return past, nil
}
