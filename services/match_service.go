package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/anleague/tournament-engine/brackets"
	"github.com/anleague/tournament-engine/models"
	"github.com/anleague/tournament-engine/repositories"
)

// ScoreBounds are the inclusive upper bounds of the random goal counts.
// The two paths are configured independently; their difference is product
// policy, not a correctness constraint.
type ScoreBounds struct {
	SimulatedMax int
	PlayedMax    int
}

type MatchService interface {
	// ResolveMatch loads a pending match and its teams and resolves it.
	ResolveMatch(ctx context.Context, matchID int, mode models.MatchType) (*models.Match, error)
	// ResolveLoaded resolves a match whose team documents the caller already
	// holds, mutating match in place and persisting the result.
	ResolveLoaded(ctx context.Context, match *models.Match, team1, team2 *models.Team, mode models.MatchType) error
	// EditScore is the manual admin override: it force-sets the score and
	// completes the match without touching the resolver's randomization.
	EditScore(ctx context.Context, matchID, score1, score2 int) (*models.Match, error)
	GetMatch(ctx context.Context, matchID int) (*models.Match, error)
}

type matchService struct {
	matchRepo  repositories.MatchRepository
	teamRepo   repositories.TeamRepository
	commentary CommentaryGenerator
	notifier   ResultNotifier
	hub        *brackets.Hub
	logger     *slog.Logger
	bounds     ScoreBounds

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	commentary CommentaryGenerator,
	notifier ResultNotifier,
	hub *brackets.Hub,
	logger *slog.Logger,
	bounds ScoreBounds,
	rng *rand.Rand,
) MatchService {
	return &matchService{
		matchRepo:  matchRepo,
		teamRepo:   teamRepo,
		commentary: commentary,
		notifier:   notifier,
		hub:        hub,
		logger:     logger,
		bounds:     bounds,
		rng:        rng,
	}
}

func (s *matchService) ResolveMatch(ctx context.Context, matchID int, mode models.MatchType) (*models.Match, error) {
	match, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	team1, err := s.loadTeam(ctx, match.Team1ID)
	if err != nil {
		return nil, err
	}
	team2, err := s.loadTeam(ctx, match.Team2ID)
	if err != nil {
		return nil, err
	}

	if err := s.ResolveLoaded(ctx, match, team1, team2, mode); err != nil {
		return nil, err
	}
	return match, nil
}

func (s *matchService) ResolveLoaded(ctx context.Context, match *models.Match, team1, team2 *models.Team, mode models.MatchType) error {
	if match.Status != models.MatchStatusPending {
		return fmt.Errorf("%w: match %d is %s", ErrMatchNotPending, match.ID, match.Status)
	}

	maxGoals := s.bounds.SimulatedMax
	if mode == models.MatchTypePlayed {
		maxGoals = s.bounds.PlayedMax
	}

	score := models.Score{
		Team1: s.intn(maxGoals + 1),
		Team2: s.intn(maxGoals + 1),
	}

	scorers := make([]models.GoalEvent, 0, score.Team1+score.Team2)
	scorers = append(scorers, s.attributeGoals(team1, score.Team1, models.GoalSideTeam1, "T1")...)
	scorers = append(scorers, s.attributeGoals(team2, score.Team2, models.GoalSideTeam2, "T2")...)

	commentary := fmt.Sprintf("Match %s: %s %d-%d %s with %d goals",
		mode, team1.Country, score.Team1, score.Team2, team2.Country, len(scorers))

	if mode == models.MatchTypePlayed && s.commentary != nil {
		narrative, err := s.commentary.Generate(ctx, team1, team2)
		if err != nil {
			s.logger.Warn("commentary generation failed, using algorithmic summary",
				slog.Int("match_id", match.ID), slog.Any("error", err))
		} else if narrative != "" {
			// Narrative is stored verbatim; it never decides the outcome.
			commentary = narrative
		}
	}

	match.Score = score
	match.GoalScorers = scorers
	match.Type = mode
	match.Commentary = commentary
	match.Status = models.MatchStatusCompleted

	result := repositories.MatchResult{
		Score:          match.Score,
		ExtraTimeScore: match.ExtraTimeScore,
		PenaltyScore:   match.PenaltyScore,
		GoalScorers:    match.GoalScorers,
		Type:           match.Type,
		Commentary:     match.Commentary,
		Status:         match.Status,
	}
	if err := s.matchRepo.UpdateResult(ctx, nil, match.ID, result); err != nil {
		return fmt.Errorf("failed to persist result for match %d: %w", match.ID, err)
	}

	// The scorer tallies were incremented on the in-memory squads during
	// attribution; write both teams back.
	if err := s.persistTallies(ctx, team1, score.Team1); err != nil {
		return err
	}
	if err := s.persistTallies(ctx, team2, score.Team2); err != nil {
		return err
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyResult(ctx, match, team1, team2); err != nil {
			s.logger.Warn("result notification failed",
				slog.Int("match_id", match.ID), slog.Any("error", err))
		}
	}
	if s.hub != nil {
		s.hub.BroadcastToRoom(brackets.RoomForTournament(match.TournamentID), brackets.EventMatchUpdated, match)
	}
	return nil
}

func (s *matchService) EditScore(ctx context.Context, matchID, score1, score2 int) (*models.Match, error) {
	if score1 < 0 || score2 < 0 {
		return nil, ErrInvalidScore
	}
	match, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	match.Score = models.Score{Team1: score1, Team2: score2}
	match.Status = models.MatchStatusCompleted
	match.Type = models.MatchTypePlayed
	match.Commentary = fmt.Sprintf("Score updated manually: %d-%d", score1, score2)

	result := repositories.MatchResult{
		Score:          match.Score,
		ExtraTimeScore: match.ExtraTimeScore,
		PenaltyScore:   match.PenaltyScore,
		GoalScorers:    match.GoalScorers,
		Type:           match.Type,
		Commentary:     match.Commentary,
		Status:         match.Status,
	}
	if err := s.matchRepo.UpdateResult(ctx, nil, match.ID, result); err != nil {
		return nil, fmt.Errorf("failed to persist manual score for match %d: %w", matchID, err)
	}

	if s.hub != nil {
		s.hub.BroadcastToRoom(brackets.RoomForTournament(match.TournamentID), brackets.EventMatchUpdated, match)
	}
	return match, nil
}

func (s *matchService) GetMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

// attributeGoals picks a scorer per goal uniformly from the squad and bumps
// the scorer's tally in place. An empty squad yields synthesized placeholder
// names; attribution never fails a resolution.
func (s *matchService) attributeGoals(team *models.Team, goals int, side, placeholderSuffix string) []models.GoalEvent {
	events := make([]models.GoalEvent, 0, goals)
	for i := 0; i < goals; i++ {
		name := fmt.Sprintf("Player%d_%s", i+1, placeholderSuffix)
		if len(team.Squad) > 0 {
			idx := s.intn(len(team.Squad))
			name = team.Squad[idx].Name
			team.Squad[idx].Goals++
		}
		events = append(events, models.GoalEvent{
			PlayerName: name,
			Minute:     s.intn(90) + 1,
			Side:       side,
		})
	}
	return events
}

func (s *matchService) persistTallies(ctx context.Context, team *models.Team, goals int) error {
	if goals == 0 || len(team.Squad) == 0 {
		return nil
	}
	err := s.teamRepo.UpdateSquad(ctx, nil, team.ID, team.Squad, team.Rating, team.CaptainName)
	if err != nil {
		return fmt.Errorf("failed to persist goal tallies for team %d: %w", team.ID, err)
	}
	return nil
}

func (s *matchService) loadTeam(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrTeamNotFound, teamID)
		}
		return nil, err
	}
	return team, nil
}

func (s *matchService) intn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}
