package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/anleague/tournament-engine/models"
	"github.com/anleague/tournament-engine/repositories"
	"github.com/anleague/tournament-engine/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// passthroughTransactor runs the unit of work without a real transaction.
type passthroughTransactor struct{}

func (passthroughTransactor) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakeTeamRepo struct {
	mu     sync.Mutex
	nextID int
	teams  map[int]models.Team
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{nextID: 1, teams: make(map[int]models.Team)}
}

func (r *fakeTeamRepo) Create(ctx context.Context, t *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.teams {
		if existing.Country == t.Country {
			return repositories.ErrTeamCountryConflict
		}
	}
	t.ID = r.nextID
	t.CreatedAt = time.Now()
	r.nextID++
	r.teams[t.ID] = cloneTeam(*t)
	return nil
}

func (r *fakeTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copy := cloneTeam(t)
	return &copy, nil
}

func (r *fakeTeamRepo) GetByRepresentative(ctx context.Context, userID int) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.teams {
		if t.RepresentativeID == userID {
			copy := cloneTeam(t)
			return &copy, nil
		}
	}
	return nil, repositories.ErrTeamNotFound
}

func (r *fakeTeamRepo) List(ctx context.Context) ([]*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	teams := make([]*models.Team, 0, len(r.teams))
	for id := 1; id < r.nextID; id++ {
		if t, ok := r.teams[id]; ok {
			copy := cloneTeam(t)
			teams = append(teams, &copy)
		}
	}
	return teams, nil
}

func (r *fakeTeamRepo) ListByIDs(ctx context.Context, ids []int) ([]*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	teams := make([]*models.Team, 0, len(ids))
	for _, id := range ids {
		if t, ok := r.teams[id]; ok {
			copy := cloneTeam(t)
			teams = append(teams, &copy)
		}
	}
	return teams, nil
}

func (r *fakeTeamRepo) UpdateSquad(ctx context.Context, exec repositories.SQLExecutor, id int, squad []models.Player, rating float64, captainName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	t.Squad = append([]models.Player(nil), squad...)
	t.Rating = rating
	t.CaptainName = captainName
	r.teams[id] = t
	return nil
}

func (r *fakeTeamRepo) UpdateManager(ctx context.Context, id int, manager string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	t.Manager = manager
	r.teams[id] = t
	return nil
}

func (r *fakeTeamRepo) UpdateFlagKey(ctx context.Context, id int, flagKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	t.FlagKey = flagKey
	r.teams[id] = t
	return nil
}

func (r *fakeTeamRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	delete(r.teams, id)
	return nil
}

func (r *fakeTeamRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.teams), nil
}

func cloneTeam(t models.Team) models.Team {
	t.Squad = append([]models.Player(nil), t.Squad...)
	return t
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	nextID  int
	matches map[int]models.Match
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{nextID: 1, matches: make(map[int]models.Match)}
}

func (r *fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = r.nextID
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	r.nextID++
	r.matches[m.ID] = cloneMatch(*m)
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copy := cloneMatch(m)
	return &copy, nil
}

func (r *fakeMatchRepo) ListByIDs(ctx context.Context, ids []int) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matches := make([]*models.Match, 0, len(ids))
	for _, id := range ids {
		if m, ok := r.matches[id]; ok {
			copy := cloneMatch(m)
			matches = append(matches, &copy)
		}
	}
	return matches, nil
}

func (r *fakeMatchRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matches := make([]*models.Match, 0)
	for id := 1; id < r.nextID; id++ {
		if m, ok := r.matches[id]; ok && m.TournamentID == tournamentID {
			copy := cloneMatch(m)
			matches = append(matches, &copy)
		}
	}
	return matches, nil
}

func (r *fakeMatchRepo) List(ctx context.Context) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matches := make([]*models.Match, 0, len(r.matches))
	for id := 1; id < r.nextID; id++ {
		if m, ok := r.matches[id]; ok {
			copy := cloneMatch(m)
			matches = append(matches, &copy)
		}
	}
	return matches, nil
}

func (r *fakeMatchRepo) UpdateResult(ctx context.Context, exec repositories.SQLExecutor, id int, result repositories.MatchResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Score = result.Score
	m.ExtraTimeScore = result.ExtraTimeScore
	m.PenaltyScore = result.PenaltyScore
	m.GoalScorers = append([]models.GoalEvent(nil), result.GoalScorers...)
	m.Type = result.Type
	m.Commentary = result.Commentary
	m.Status = result.Status
	m.UpdatedAt = time.Now()
	r.matches[id] = m
	return nil
}

func (r *fakeMatchRepo) AppendCommentary(ctx context.Context, exec repositories.SQLExecutor, id int, clause string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Commentary += clause
	r.matches[id] = m
	return nil
}

func (r *fakeMatchRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.matches[id]; !ok {
		return repositories.ErrMatchNotFound
	}
	delete(r.matches, id)
	return nil
}

func (r *fakeMatchRepo) DeleteByTournament(ctx context.Context, tournamentID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := 0
	for id, m := range r.matches {
		if m.TournamentID == tournamentID {
			delete(r.matches, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeMatchRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matches), nil
}

func cloneMatch(m models.Match) models.Match {
	m.GoalScorers = append([]models.GoalEvent(nil), m.GoalScorers...)
	if m.ExtraTimeScore != nil {
		extra := *m.ExtraTimeScore
		m.ExtraTimeScore = &extra
	}
	if m.PenaltyScore != nil {
		pens := *m.PenaltyScore
		m.PenaltyScore = &pens
	}
	return m
}

type fakeTournamentRepo struct {
	mu          sync.Mutex
	nextID      int
	tournaments map[int]models.Tournament

	// beforeUpdate fires once at the start of the next UpdateBracketStatus,
	// letting a test interleave a competing write.
	beforeUpdate func()
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{nextID: 1, tournaments: make(map[int]models.Tournament)}
}

func (r *fakeTournamentRepo) Create(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tournaments {
		if existing.Status != models.StatusCompleted {
			return repositories.ErrActiveTournamentExists
		}
	}
	t.ID = r.nextID
	t.Version = 1
	t.CreatedAt = time.Now()
	r.nextID++
	r.tournaments[t.ID] = *t
	return nil
}

func (r *fakeTournamentRepo) GetActive(ctx context.Context) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := r.nextID - 1; id >= 1; id-- {
		if t, ok := r.tournaments[id]; ok && t.Status != models.StatusCompleted {
			copy := t
			return &copy, nil
		}
	}
	return nil, repositories.ErrNoActiveTournament
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copy := t
	return &copy, nil
}

func (r *fakeTournamentRepo) UpdateBracketStatus(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	if hook := r.beforeUpdate; hook != nil {
		r.beforeUpdate = nil
		hook()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tournaments[t.ID]
	if !ok || stored.Version != t.Version {
		return repositories.ErrTournamentVersionConflict
	}
	t.Version++
	r.tournaments[t.ID] = *t
	return nil
}

func (r *fakeTournamentRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	return nil
}

func (r *fakeTournamentRepo) CountActive(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, t := range r.tournaments {
		if t.Status != models.StatusCompleted {
			count++
		}
	}
	return count, nil
}

type fakePastTournamentRepo struct {
	mu     sync.Mutex
	nextID int
	past   []models.PastTournament

	// createErr fails the next Create once, simulating a flaky archive store.
	createErr error
}

func newFakePastTournamentRepo() *fakePastTournamentRepo {
	return &fakePastTournamentRepo{nextID: 1}
}

func (r *fakePastTournamentRepo) Create(ctx context.Context, p *models.PastTournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.createErr; err != nil {
		r.createErr = nil
		return err
	}
	p.ID = r.nextID
	p.ArchivedAt = time.Now()
	r.nextID++
	r.past = append(r.past, *p)
	return nil
}

func (r *fakePastTournamentRepo) List(ctx context.Context) ([]*models.PastTournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.PastTournament, 0, len(r.past))
	for i := len(r.past) - 1; i >= 0; i-- {
		copy := r.past[i]
		out = append(out, &copy)
	}
	return out, nil
}

func (r *fakePastTournamentRepo) FindByYearAndShape(ctx context.Context, year int, shape repositories.BracketShape) (*models.PastTournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.past {
		if p.Year == year &&
			len(p.Bracket.Quarterfinals) == shape.Quarterfinals &&
			len(p.Bracket.Semifinals) == shape.Semifinals &&
			len(p.Bracket.Final) == shape.Final {
			copy := p
			return &copy, nil
		}
	}
	return nil, repositories.ErrPastTournamentNotFound
}

func (r *fakePastTournamentRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.past), nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[int]models.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	u.ID = r.nextID
	u.CreatedAt = time.Now()
	r.nextID++
	r.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copy := u
	return &copy, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copy := u
			return &copy, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) List(ctx context.Context) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]*models.User, 0, len(r.users))
	for id := 1; id < r.nextID; id++ {
		if u, ok := r.users[id]; ok {
			copy := u
			users = append(users, &copy)
		}
	}
	return users, nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repositories.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: make(map[string][]byte)}
}

func (u *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = data
	return &storage.UploadResult{Key: key, Location: "https://cdn.test/" + key}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

type fakeCommentary struct {
	narrative string
	err       error
	calls     int
}

func (c *fakeCommentary) Generate(ctx context.Context, team1, team2 *models.Team) (string, error) {
	c.calls++
	return c.narrative, c.err
}

type fakeNotifier struct {
	mu      sync.Mutex
	calls   int
	lastErr error
}

func (n *fakeNotifier) NotifyResult(ctx context.Context, match *models.Match, team1, team2 *models.Team) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	return n.lastErr
}
