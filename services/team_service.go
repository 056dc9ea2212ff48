package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/anleague/tournament-engine/models"
	"github.com/anleague/tournament-engine/repositories"
	"github.com/anleague/tournament-engine/storage"
	"github.com/google/uuid"
)

type CreateTeamInput struct {
	Country          string          `json:"country"`
	Manager          string          `json:"manager"`
	RepresentativeID int             `json:"representative_id"`
	Squad            []models.Player `json:"squad"`
}

type PlayerRatingsInput struct {
	NaturalPosition models.Position        `json:"natural_position"`
	Ratings         models.PositionRatings `json:"ratings"`
}

type TeamService interface {
	CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error)
	GetTeam(ctx context.Context, id int) (*models.Team, error)
	// GetTeamByRepresentative looks up the team registered by a user.
	GetTeamByRepresentative(ctx context.Context, userID int) (*models.Team, error)
	ListTeams(ctx context.Context) ([]*models.Team, error)
	UpdateManager(ctx context.Context, teamID int, manager string) (*models.Team, error)
	RenamePlayer(ctx context.Context, teamID, slot int, name string) (*models.Team, error)
	UpdatePlayerRatings(ctx context.Context, teamID, slot int, input PlayerRatingsInput) (*models.Team, error)
	SetCaptain(ctx context.Context, teamID, slot int) (*models.Team, error)
	UploadFlag(ctx context.Context, teamID int, contentType string, r io.Reader) (*models.Team, error)
	TopScorers(ctx context.Context, limit int) ([]models.TopScorer, error)
}

type teamService struct {
	teamRepo repositories.TeamRepository
	uploader storage.FileUploader
}

func NewTeamService(teamRepo repositories.TeamRepository, uploader storage.FileUploader) TeamService {
	return &teamService{teamRepo: teamRepo, uploader: uploader}
}

func (s *teamService) CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	if strings.TrimSpace(input.Country) == "" {
		return nil, ErrCountryRequired
	}
	if strings.TrimSpace(input.Manager) == "" {
		return nil, ErrManagerRequired
	}
	for _, p := range input.Squad {
		if !p.NaturalPosition.Valid() {
			return nil, fmt.Errorf("%w: %q for player %q", ErrInvalidPosition, p.NaturalPosition, p.Name)
		}
	}

	squad := make([]models.Player, len(input.Squad))
	copy(squad, input.Squad)
	NormalizeCaptain(squad)

	derived, err := DeriveSquadFields(squad)
	if err != nil {
		return nil, err
	}

	team := &models.Team{
		Country:          strings.TrimSpace(input.Country),
		Manager:          strings.TrimSpace(input.Manager),
		RepresentativeID: input.RepresentativeID,
		Squad:            squad,
		CaptainName:      derived.CaptainName,
		Rating:           derived.Rating,
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamCountryConflict) {
			return nil, ErrCountryConflict
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	s.populateFlagURL(team)
	return team, nil
}

func (s *teamService) GetTeam(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	s.populateFlagURL(team)
	return team, nil
}

func (s *teamService) GetTeamByRepresentative(ctx context.Context, userID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByRepresentative(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	s.populateFlagURL(team)
	return team, nil
}

func (s *teamService) ListTeams(ctx context.Context) ([]*models.Team, error) {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	for _, t := range teams {
		s.populateFlagURL(t)
	}
	return teams, nil
}

func (s *teamService) UpdateManager(ctx context.Context, teamID int, manager string) (*models.Team, error) {
	if strings.TrimSpace(manager) == "" {
		return nil, ErrManagerRequired
	}
	if err := s.teamRepo.UpdateManager(ctx, teamID, strings.TrimSpace(manager)); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return s.GetTeam(ctx, teamID)
}

func (s *teamService) RenamePlayer(ctx context.Context, teamID, slot int, name string) (*models.Team, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: player name is required", ErrValidationFailed)
	}
	return s.mutateSquad(ctx, teamID, slot, func(p *models.Player) error {
		p.Name = strings.TrimSpace(name)
		return nil
	})
}

func (s *teamService) UpdatePlayerRatings(ctx context.Context, teamID, slot int, input PlayerRatingsInput) (*models.Team, error) {
	if !input.NaturalPosition.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPosition, input.NaturalPosition)
	}
	return s.mutateSquad(ctx, teamID, slot, func(p *models.Player) error {
		p.NaturalPosition = input.NaturalPosition
		p.Ratings = input.Ratings
		return nil
	})
}

func (s *teamService) SetCaptain(ctx context.Context, teamID, slot int) (*models.Team, error) {
	team, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if slot < 0 || slot >= len(team.Squad) {
		return nil, ErrPlayerNotInSquad
	}
	for i := range team.Squad {
		team.Squad[i].IsCaptain = i == slot
	}
	return s.persistSquad(ctx, team)
}

func (s *teamService) UploadFlag(ctx context.Context, teamID int, contentType string, r io.Reader) (*models.Team, error) {
	if s.uploader == nil {
		return nil, ErrStorageUnavailable
	}
	team, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("flags/%d/%s", teamID, uuid.NewString())
	if _, err := s.uploader.Upload(ctx, key, contentType, r); err != nil {
		return nil, fmt.Errorf("failed to upload team flag: %w", err)
	}

	// Best effort cleanup of the previous flag object.
	oldKey := team.FlagKey
	if err := s.teamRepo.UpdateFlagKey(ctx, teamID, &key); err != nil {
		return nil, err
	}
	if oldKey != nil && *oldKey != "" {
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	return s.GetTeam(ctx, teamID)
}

func (s *teamService) TopScorers(ctx context.Context, limit int) ([]models.TopScorer, error) {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for scorer chart: %w", err)
	}

	scorers := make([]models.TopScorer, 0)
	for _, t := range teams {
		for _, p := range t.Squad {
			if p.Goals > 0 {
				scorers = append(scorers, models.TopScorer{
					PlayerName: p.Name,
					Country:    t.Country,
					Goals:      p.Goals,
				})
			}
		}
	}
	sort.SliceStable(scorers, func(i, j int) bool {
		return scorers[i].Goals > scorers[j].Goals
	})
	if limit > 0 && len(scorers) > limit {
		scorers = scorers[:limit]
	}
	return scorers, nil
}

// mutateSquad applies one player edit and re-derives the dependent fields
// before persisting, keeping rating and captain consistent with the roster.
func (s *teamService) mutateSquad(ctx context.Context, teamID, slot int, mutate func(*models.Player) error) (*models.Team, error) {
	team, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if slot < 0 || slot >= len(team.Squad) {
		return nil, ErrPlayerNotInSquad
	}
	if err := mutate(&team.Squad[slot]); err != nil {
		return nil, err
	}
	return s.persistSquad(ctx, team)
}

func (s *teamService) persistSquad(ctx context.Context, team *models.Team) (*models.Team, error) {
	NormalizeCaptain(team.Squad)
	derived, err := DeriveSquadFields(team.Squad)
	if err != nil {
		return nil, err
	}
	team.Rating = derived.Rating
	team.CaptainName = derived.CaptainName

	if err := s.teamRepo.UpdateSquad(ctx, nil, team.ID, team.Squad, team.Rating, team.CaptainName); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}

func (s *teamService) populateFlagURL(team *models.Team) {
	if team == nil || team.FlagKey == nil || *team.FlagKey == "" || s.uploader == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*team.FlagKey); url != "" {
		team.FlagURL = &url
	}
}
