package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/anleague/tournament-engine/models"
	"github.com/anleague/tournament-engine/repositories"
	"github.com/anleague/tournament-engine/storage"
)

type AdminService interface {
	// DataOverview loads every collection for the admin data page.
	DataOverview(ctx context.Context) (*models.AdminDataOverview, error)
	// ExportSnapshot serializes the full data overview and uploads it to
	// object storage, returning the public URL of the snapshot.
	ExportSnapshot(ctx context.Context) (string, error)
	DeleteMatch(ctx context.Context, id int) error
	DeleteTeam(ctx context.Context, id int) error
	DeleteUser(ctx context.Context, id int) error
	// PurgeTournamentMatches removes every match of a tournament, returning
	// how many were deleted. Used to reclaim history after an archive.
	PurgeTournamentMatches(ctx context.Context, tournamentID int) (int, error)
}

type adminService struct {
	userRepo       repositories.UserRepository
	teamRepo       repositories.TeamRepository
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	pastRepo       repositories.PastTournamentRepository
	uploader       storage.FileUploader
	logger         *slog.Logger
}

func NewAdminService(
	userRepo repositories.UserRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	pastRepo repositories.PastTournamentRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) AdminService {
	return &adminService{
		userRepo:       userRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		pastRepo:       pastRepo,
		uploader:       uploader,
		logger:         logger,
	}
}

func (s *adminService) DataOverview(ctx context.Context) (*models.AdminDataOverview, error) {
	overview := &models.AdminDataOverview{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		users, err := s.userRepo.List(gctx)
		if err != nil {
			return fmt.Errorf("failed to load users: %w", err)
		}
		overview.Users = make([]models.User, len(users))
		for i, u := range users {
			u.PasswordHash = ""
			overview.Users[i] = *u
		}
		return nil
	})
	g.Go(func() error {
		teams, err := s.teamRepo.List(gctx)
		if err != nil {
			return fmt.Errorf("failed to load teams: %w", err)
		}
		overview.Teams = make([]models.Team, len(teams))
		for i, t := range teams {
			overview.Teams[i] = *t
		}
		return nil
	})
	g.Go(func() error {
		tournament, err := s.tournamentRepo.GetActive(gctx)
		if err != nil {
			if errors.Is(err, repositories.ErrNoActiveTournament) {
				return nil
			}
			return fmt.Errorf("failed to load active tournament: %w", err)
		}
		overview.Tournament = tournament
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.List(gctx)
		if err != nil {
			return fmt.Errorf("failed to load matches: %w", err)
		}
		overview.Matches = make([]models.Match, len(matches))
		for i, m := range matches {
			overview.Matches[i] = *m
		}
		return nil
	})
	g.Go(func() error {
		past, err := s.pastRepo.List(gctx)
		if err != nil {
			return fmt.Errorf("failed to load past tournaments: %w", err)
		}
		overview.PastTournaments = make([]models.PastTournament, len(past))
		for i, p := range past {
			overview.PastTournaments[i] = *p
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return overview, nil
}

func (s *adminService) ExportSnapshot(ctx context.Context) (string, error) {
	if s.uploader == nil {
		return "", ErrStorageUnavailable
	}
	overview, err := s.DataOverview(ctx)
	if err != nil {
		return "", err
	}

	doc, err := json.MarshalIndent(overview, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	key := fmt.Sprintf("exports/%s.json", uuid.NewString())
	result, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(doc))
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot: %w", err)
	}

	s.logger.Info("data snapshot exported",
		slog.String("key", result.Key), slog.Int("bytes", len(doc)))
	return result.Location, nil
}

func (s *adminService) DeleteMatch(ctx context.Context, id int) error {
	if err := s.matchRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return fmt.Errorf("failed to delete match %d: %w", id, err)
	}
	return nil
}

func (s *adminService) DeleteTeam(ctx context.Context, id int) error {
	if err := s.teamRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to delete team %d: %w", id, err)
	}
	return nil
}

func (s *adminService) DeleteUser(ctx context.Context, id int) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	return nil
}

func (s *adminService) PurgeTournamentMatches(ctx context.Context, tournamentID int) (int, error) {
	deleted, err := s.matchRepo.DeleteByTournament(ctx, tournamentID)
	if err != nil {
		return 0, fmt.Errorf("failed to purge matches of tournament %d: %w", tournamentID, err)
	}
	s.logger.Info("tournament matches purged",
		slog.Int("tournament_id", tournamentID), slog.Int("deleted", deleted))
	return deleted, nil
}
