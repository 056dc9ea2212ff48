package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/anleague/tournament-engine/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrNoActiveTournament = errors.New("no active tournament")
	// ErrTournamentVersionConflict signals a lost optimistic concurrency race:
	// another transition committed between read and write.
	ErrTournamentVersionConflict = errors.New("tournament was modified concurrently")
	ErrActiveTournamentExists    = errors.New("an active tournament already exists")
)

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error
	GetActive(ctx context.Context) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	// UpdateBracketStatus persists a state transition guarded by the version
	// read at transition start; on success the in-memory version is bumped.
	UpdateBracketStatus(ctx context.Context, exec SQLExecutor, t *models.Tournament) error
	Delete(ctx context.Context, id int) error
	CountActive(ctx context.Context) (int, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	if exec == nil {
		exec = r.db
	}
	bracketDoc, err := marshalJSONB(t.Bracket)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tournaments (status, teams, bracket, version)
		VALUES ($1, $2, $3, 1)
		RETURNING id, created_at`

	err = exec.QueryRowContext(ctx, query, t.Status, pq.Array(t.TeamIDs), bracketDoc).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "tournaments_single_active_idx" {
			return ErrActiveTournamentExists
		}
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	t.Version = 1
	return nil
}

func (r *postgresTournamentRepository) GetActive(ctx context.Context) (*models.Tournament, error) {
	query := `
		SELECT id, status, teams, bracket, version, created_at
		FROM tournaments
		WHERE status <> $1
		ORDER BY id DESC
		LIMIT 1`
	return r.scanTournament(r.db.QueryRowContext(ctx, query, models.StatusCompleted), ErrNoActiveTournament)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `
		SELECT id, status, teams, bracket, version, created_at
		FROM tournaments
		WHERE id = $1`
	return r.scanTournament(r.db.QueryRowContext(ctx, query, id), ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateBracketStatus(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	if exec == nil {
		exec = r.db
	}
	bracketDoc, err := marshalJSONB(t.Bracket)
	if err != nil {
		return err
	}

	query := `
		UPDATE tournaments
		SET status = $1, bracket = $2, version = version + 1
		WHERE id = $3 AND version = $4`

	result, err := exec.ExecContext(ctx, query, t.Status, bracketDoc, t.ID, t.Version)
	if err != nil {
		return fmt.Errorf("failed to update tournament %d: %w", t.ID, err)
	}
	if err := checkAffectedRows(result, ErrTournamentVersionConflict); err != nil {
		return err
	}
	t.Version++
	return nil
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tournaments WHERE status <> $1`, models.StatusCompleted,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active tournaments: %w", err)
	}
	return count, nil
}

func (r *postgresTournamentRepository) scanTournament(row *sql.Row, notFound error) (*models.Tournament, error) {
	t := &models.Tournament{}
	var bracketDoc []byte
	var teamIDs pq.Int64Array
	err := row.Scan(&t.ID, &t.Status, &teamIDs, &bracketDoc, &t.Version, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound
		}
		return nil, fmt.Errorf("failed to scan tournament: %w", err)
	}
	t.TeamIDs = make([]int, len(teamIDs))
	for i, id := range teamIDs {
		t.TeamIDs[i] = int(id)
	}
	if err := unmarshalJSONB(bracketDoc, &t.Bracket); err != nil {
		return nil, err
	}
	return t, nil
}
