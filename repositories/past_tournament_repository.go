package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/anleague/tournament-engine/models"
	"github.com/lib/pq"
)

var ErrPastTournamentNotFound = errors.New("past tournament not found")

// BracketShape describes an archived bracket by its per-round fixture counts.
// Restart dedupes on shape + year before inserting a new archive entry.
type BracketShape struct {
	Quarterfinals int
	Semifinals    int
	Final         int
}

type PastTournamentRepository interface {
	Create(ctx context.Context, past *models.PastTournament) error
	List(ctx context.Context) ([]*models.PastTournament, error)
	FindByYearAndShape(ctx context.Context, year int, shape BracketShape) (*models.PastTournament, error)
	Count(ctx context.Context) (int, error)
}

type postgresPastTournamentRepository struct {
	db *sql.DB
}

func NewPostgresPastTournamentRepository(db *sql.DB) PastTournamentRepository {
	return &postgresPastTournamentRepository{db: db}
}

func (r *postgresPastTournamentRepository) Create(ctx context.Context, p *models.PastTournament) error {
	bracketDoc, err := marshalJSONB(p.Bracket)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO past_tournaments (year, teams, bracket, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, archived_at`

	err = r.db.QueryRowContext(ctx, query, p.Year, pq.Array(p.TeamIDs), bracketDoc, p.Status).
		Scan(&p.ID, &p.ArchivedAt)
	if err != nil {
		return fmt.Errorf("failed to create past tournament: %w", err)
	}
	return nil
}

func (r *postgresPastTournamentRepository) List(ctx context.Context) ([]*models.PastTournament, error) {
	query := `
		SELECT id, year, teams, bracket, status, archived_at
		FROM past_tournaments
		ORDER BY year DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query past tournaments: %w", err)
	}
	defer rows.Close()

	past := make([]*models.PastTournament, 0)
	for rows.Next() {
		p, err := scanPastTournament(rows)
		if err != nil {
			return nil, err
		}
		past = append(past, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during past tournament rows iteration: %w", err)
	}
	return past, nil
}

func (r *postgresPastTournamentRepository) FindByYearAndShape(ctx context.Context, year int, shape BracketShape) (*models.PastTournament, error) {
	query := `
		SELECT id, year, teams, bracket, status, archived_at
		FROM past_tournaments
		WHERE year = $1
		  AND jsonb_array_length(bracket->'quarterfinals') = $2
		  AND jsonb_array_length(bracket->'semifinals') = $3
		  AND jsonb_array_length(bracket->'final') = $4
		LIMIT 1`

	rows, err := r.db.QueryContext(ctx, query, year, shape.Quarterfinals, shape.Semifinals, shape.Final)
	if err != nil {
		return nil, fmt.Errorf("failed to query past tournament by shape: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrPastTournamentNotFound
	}
	return scanPastTournament(rows)
}

func (r *postgresPastTournamentRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM past_tournaments`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count past tournaments: %w", err)
	}
	return count, nil
}

func scanPastTournament(rows *sql.Rows) (*models.PastTournament, error) {
	p := &models.PastTournament{}
	var bracketDoc []byte
	var teamIDs pq.Int64Array
	if err := rows.Scan(&p.ID, &p.Year, &teamIDs, &bracketDoc, &p.Status, &p.ArchivedAt); err != nil {
		return nil, fmt.Errorf("failed to scan past tournament row: %w", err)
	}
	p.TeamIDs = make([]int, len(teamIDs))
	for i, id := range teamIDs {
		p.TeamIDs[i] = int(id)
	}
	if err := unmarshalJSONB(bracketDoc, &p.Bracket); err != nil {
		return nil, err
	}
	return p, nil
}
