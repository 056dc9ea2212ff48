package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/anleague/tournament-engine/brackets"
	"github.com/anleague/tournament-engine/models"
	"github.com/anleague/tournament-engine/repositories"
	"github.com/anleague/tournament-engine/storage"
)

type TournamentService interface {
	// StartTournament seeds a new eight-team bracket from the registered
	// teams and creates the quarterfinal fixtures.
	StartTournament(ctx context.Context) (*models.Tournament, error)
	GetActiveTournament(ctx context.Context) (*models.Tournament, error)
	// GetCurrentBracket joins the active bracket's fixture references to the
	// current team and match documents. Fixtures whose match was deleted are
	// dropped from the view.
	GetCurrentBracket(ctx context.Context) (*models.BracketView, error)
	// ResolvePendingFixtures resolves every pending match of the current
	// round concurrently.
	ResolvePendingFixtures(ctx context.Context, mode models.MatchType) ([]*models.Match, error)
	// AdvanceStage moves the tournament to its next round once every match
	// of the current round is completed, breaking ties first.
	AdvanceStage(ctx context.Context) (*models.Tournament, error)
}

type tournamentService struct {
	tx             Transactor
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	teamRepo       repositories.TeamRepository
	matchSvc       MatchService
	archiver       ArchiveService
	hub            *brackets.Hub
	uploader       storage.FileUploader
	logger         *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewTournamentService(
	tx Transactor,
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	matchSvc MatchService,
	archiver ArchiveService,
	hub *brackets.Hub,
	uploader storage.FileUploader,
	logger *slog.Logger,
	rng *rand.Rand,
) TournamentService {
	return &tournamentService{
		tx:             tx,
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		teamRepo:       teamRepo,
		matchSvc:       matchSvc,
		archiver:       archiver,
		hub:            hub,
		uploader:       uploader,
		logger:         logger,
		rng:            rng,
	}
}

func (s *tournamentService) StartTournament(ctx context.Context) (*models.Tournament, error) {
	if _, err := s.tournamentRepo.GetActive(ctx); err == nil {
		return nil, ErrTournamentActive
	} else if !errors.Is(err, repositories.ErrNoActiveTournament) {
		return nil, err
	}

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for seeding: %w", err)
	}
	if len(teams) < brackets.TournamentSize {
		return nil, fmt.Errorf("%w: have %d", ErrNotEnoughTeams, len(teams))
	}

	teamIDs := make([]int, len(teams))
	for i, t := range teams {
		teamIDs[i] = t.ID
	}
	s.shuffle(teamIDs)
	teamIDs = teamIDs[:brackets.TournamentSize]

	pairings, err := brackets.SeedQuarterfinals(teamIDs)
	if err != nil {
		return nil, err
	}

	tournament := &models.Tournament{
		Status:  models.StatusQuarterfinals,
		TeamIDs: teamIDs,
	}
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.tournamentRepo.Create(ctx, exec, tournament); err != nil {
			if errors.Is(err, repositories.ErrActiveTournamentExists) {
				return ErrTournamentActive
			}
			return err
		}
		fixtures, err := s.createFixtures(ctx, exec, tournament.ID, models.StageQuarterfinal, pairings)
		if err != nil {
			return err
		}
		tournament.Bracket.Quarterfinals = fixtures
		return s.tournamentRepo.UpdateBracketStatus(ctx, exec, tournament)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tournament started",
		slog.Int("tournament_id", tournament.ID), slog.Any("teams", teamIDs))
	s.broadcastBracket(tournament, brackets.EventBracketUpdated)
	return tournament, nil
}

func (s *tournamentService) GetActiveTournament(ctx context.Context) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrNoActiveTournament) {
			return nil, ErrNoActiveTournament
		}
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) GetCurrentBracket(ctx context.Context) (*models.BracketView, error) {
	tournament, err := s.GetActiveTournament(ctx)
	if err != nil {
		return nil, err
	}

	var (
		matches []*models.Match
		teams   []*models.Team
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListByTournament(gctx, tournament.ID)
		return err
	})
	g.Go(func() error {
		var err error
		teams, err = s.teamRepo.ListByIDs(gctx, tournament.TeamIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load bracket documents: %w", err)
	}

	matchByID := make(map[int]*models.Match, len(matches))
	for _, m := range matches {
		matchByID[m.ID] = m
	}
	teamByID := make(map[int]*models.Team, len(teams))
	for _, t := range teams {
		if s.uploader != nil && t.FlagKey != nil && *t.FlagKey != "" {
			if url := s.uploader.GetPublicURL(*t.FlagKey); url != "" {
				t.FlagURL = &url
			}
		}
		teamByID[t.ID] = t
	}

	view := &models.BracketView{
		TournamentID: tournament.ID,
		Status:       tournament.Status,
	}
	view.Quarterfinals = s.joinRound(tournament.Bracket.Quarterfinals, matchByID, teamByID)
	view.Semifinals = s.joinRound(tournament.Bracket.Semifinals, matchByID, teamByID)
	view.Final = s.joinRound(tournament.Bracket.Final, matchByID, teamByID)
	return view, nil
}

func (s *tournamentService) ResolvePendingFixtures(ctx context.Context, mode models.MatchType) ([]*models.Match, error) {
	tournament, err := s.GetActiveTournament(ctx)
	if err != nil {
		return nil, err
	}

	round := tournament.Bracket.Round(tournament.Status)
	matchIDs := make([]int, 0, len(round))
	for _, f := range round {
		matchIDs = append(matchIDs, f.MatchID)
	}
	matches, err := s.matchRepo.ListByIDs(ctx, matchIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load round matches: %w", err)
	}

	pending := make([]*models.Match, 0, len(matches))
	for _, m := range matches {
		if m.Status == models.MatchStatusPending {
			pending = append(pending, m)
		}
	}
	if len(pending) == 0 {
		return nil, ErrNoPendingMatches
	}

	resolved := make([]*models.Match, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range pending {
		g.Go(func() error {
			out, err := s.matchSvc.ResolveMatch(gctx, m.ID, mode)
			if err != nil {
				return err
			}
			resolved[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resolved, nil
}

func (s *tournamentService) AdvanceStage(ctx context.Context) (*models.Tournament, error) {
	tournament, err := s.GetActiveTournament(ctx)
	if err != nil {
		return nil, err
	}

	stage, ok := brackets.StageForStatus(tournament.Status)
	if !ok {
		return nil, ErrTournamentCompleted
	}
	round := tournament.Bracket.Round(tournament.Status)
	if len(round) != brackets.RoundSize(stage) {
		return nil, fmt.Errorf("%w: round has %d of %d fixtures",
			ErrRoundNotCompleted, len(round), brackets.RoundSize(stage))
	}

	matchIDs := make([]int, 0, len(round))
	for _, f := range round {
		matchIDs = append(matchIDs, f.MatchID)
	}
	matches, err := s.matchRepo.ListByIDs(ctx, matchIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load round matches: %w", err)
	}
	matchByID := make(map[int]*models.Match, len(matches))
	for _, m := range matches {
		matchByID[m.ID] = m
	}

	next, ok := nextStatus(tournament.Status)
	if !ok {
		return nil, fmt.Errorf("%w: from %s", ErrInvalidStageTransition, tournament.Status)
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		winners := make([]int, 0, len(round))
		for _, f := range round {
			m, found := matchByID[f.MatchID]
			if !found || m.Status != models.MatchStatusCompleted {
				return fmt.Errorf("%w: match %d is unresolved", ErrRoundNotCompleted, f.MatchID)
			}
			winnerID, err := s.decideWinner(ctx, exec, m)
			if err != nil {
				return err
			}
			winners = append(winners, winnerID)
		}

		if next != models.StatusCompleted {
			nextStage, err := brackets.NextStage(stage)
			if err != nil {
				return err
			}
			pairings, err := brackets.PairWinners(winners)
			if err != nil {
				return err
			}
			fixtures, err := s.createFixtures(ctx, exec, tournament.ID, nextStage, pairings)
			if err != nil {
				return err
			}
			switch nextStage {
			case models.StageSemifinal:
				tournament.Bracket.Semifinals = fixtures
			case models.StageFinal:
				tournament.Bracket.Final = fixtures
			}
			tournament.Status = next
		}

		// Out of the final this write is a version bump only: the live row
		// keeps its final status until the archive snapshot exists, and the
		// archive delete is what retires it.
		if err := s.tournamentRepo.UpdateBracketStatus(ctx, exec, tournament); err != nil {
			if errors.Is(err, repositories.ErrTournamentVersionConflict) {
				return ErrConcurrentTransition
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if next == models.StatusCompleted {
		// A failed archive leaves the tournament active so the advance can
		// be retried until the snapshot exists.
		tournament.Status = models.StatusCompleted
		if s.archiver != nil {
			if _, err := s.archiver.Archive(ctx, tournament); err != nil {
				tournament.Status = models.StatusFinal
				return nil, fmt.Errorf("tournament %d finished but could not be archived: %w", tournament.ID, err)
			}
		}
		s.logger.Info("tournament completed", slog.Int("tournament_id", tournament.ID))
		s.broadcastBracket(tournament, brackets.EventTournamentCompleted)
		return tournament, nil
	}

	s.logger.Info("tournament advanced",
		slog.Int("tournament_id", tournament.ID), slog.String("status", string(tournament.Status)))
	s.broadcastBracket(tournament, brackets.EventBracketUpdated)
	return tournament, nil
}

// decideWinner returns the advancing team of a completed match. A drawn
// regulation score is broken here and never earlier: a coin flip picks the
// mechanism, extra time or penalties, and a second flip picks the winner.
// The tie-break scores and a commentary clause are persisted with the match.
func (s *tournamentService) decideWinner(ctx context.Context, exec repositories.SQLExecutor, m *models.Match) (int, error) {
	if !m.Drawn() {
		if m.Score.Team1 > m.Score.Team2 {
			return m.Team1ID, nil
		}
		return m.Team2ID, nil
	}

	// A retried advance reuses the persisted tie-break instead of rolling
	// a second one.
	if tb := m.ExtraTimeScore; tb != nil {
		if tb.Team1 > tb.Team2 {
			return m.Team1ID, nil
		}
		return m.Team2ID, nil
	}
	if tb := m.PenaltyScore; tb != nil {
		if tb.Team1 > tb.Team2 {
			return m.Team1ID, nil
		}
		return m.Team2ID, nil
	}

	team1Wins := s.coinFlip()
	winnerID := m.Team2ID
	if team1Wins {
		winnerID = m.Team1ID
	}

	var clause string
	if s.coinFlip() {
		extra := &models.Score{}
		if team1Wins {
			extra.Team1 = 1
		} else {
			extra.Team2 = 1
		}
		m.ExtraTimeScore = extra
		clause = fmt.Sprintf(" Decided in extra time %d-%d.", extra.Team1, extra.Team2)
	} else {
		loserPens := s.intn(5)
		pens := &models.Score{Team1: loserPens, Team2: loserPens + 1}
		if team1Wins {
			pens.Team1, pens.Team2 = pens.Team2, pens.Team1
		}
		m.PenaltyScore = pens
		clause = fmt.Sprintf(" Decided on penalties %d-%d.", pens.Team1, pens.Team2)
	}

	result := repositories.MatchResult{
		Score:          m.Score,
		ExtraTimeScore: m.ExtraTimeScore,
		PenaltyScore:   m.PenaltyScore,
		GoalScorers:    m.GoalScorers,
		Type:           m.Type,
		Commentary:     m.Commentary,
		Status:         m.Status,
	}
	if err := s.matchRepo.UpdateResult(ctx, exec, m.ID, result); err != nil {
		return 0, fmt.Errorf("failed to persist tie-break for match %d: %w", m.ID, err)
	}
	if err := s.matchRepo.AppendCommentary(ctx, exec, m.ID, clause); err != nil {
		return 0, fmt.Errorf("failed to append tie-break commentary for match %d: %w", m.ID, err)
	}
	m.Commentary += clause
	return winnerID, nil
}

func (s *tournamentService) createFixtures(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, stage models.Stage, pairings []brackets.Pairing) ([]models.FixtureRef, error) {
	fixtures := make([]models.FixtureRef, 0, len(pairings))
	for _, p := range pairings {
		match := &models.Match{
			TournamentID: tournamentID,
			Stage:        stage,
			Team1ID:      p.Team1ID,
			Team2ID:      p.Team2ID,
			GoalScorers:  []models.GoalEvent{},
			Type:         models.MatchTypeSimulated,
			Status:       models.MatchStatusPending,
		}
		if err := s.matchRepo.Create(ctx, exec, match); err != nil {
			return nil, fmt.Errorf("failed to create %s fixture: %w", stage, err)
		}
		fixtures = append(fixtures, models.FixtureRef{
			MatchID: match.ID,
			Team1ID: p.Team1ID,
			Team2ID: p.Team2ID,
		})
	}
	return fixtures, nil
}

func (s *tournamentService) joinRound(round []models.FixtureRef, matchByID map[int]*models.Match, teamByID map[int]*models.Team) []models.FixtureView {
	views := make([]models.FixtureView, 0, len(round))
	for _, f := range round {
		match, ok := matchByID[f.MatchID]
		if !ok {
			// Match was purged by an admin; the fixture is not shown.
			continue
		}
		views = append(views, models.FixtureView{
			Match: match,
			Team1: teamToView(teamByID[f.Team1ID]),
			Team2: teamToView(teamByID[f.Team2ID]),
		})
	}
	return views
}

func (s *tournamentService) broadcastBracket(t *models.Tournament, event string) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(brackets.RoomForTournament(t.ID), event, t)
}

func (s *tournamentService) shuffle(ids []int) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	s.rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}

func (s *tournamentService) coinFlip() bool {
	return s.intn(2) == 0
}

func (s *tournamentService) intn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}
