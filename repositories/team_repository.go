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
	ErrTeamNotFound        = errors.New("team not found")
	ErrTeamCountryConflict = errors.New("a team for this country already exists")
	ErrTeamInvalidRep      = errors.New("invalid representative reference")
)

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	GetByRepresentative(ctx context.Context, userID int) (*models.Team, error)
	List(ctx context.Context) ([]*models.Team, error)
	ListByIDs(ctx context.Context, ids []int) ([]*models.Team, error)
	// UpdateSquad overwrites the squad document together with the fields
	// derived from it. The three always change as one unit.
	UpdateSquad(ctx context.Context, exec SQLExecutor, id int, squad []models.Player, rating float64, captainName string) error
	UpdateManager(ctx context.Context, id int, manager string) error
	UpdateFlagKey(ctx context.Context, id int, flagKey *string) error
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

const teamColumns = `id, country, manager, representative_id, squad, captain_name, rating, flag_key, created_at`

func (r *postgresTeamRepository) Create(ctx context.Context, t *models.Team) error {
	squadDoc, err := marshalJSONB(t.Squad)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO teams (country, manager, representative_id, squad, captain_name, rating, flag_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err = r.db.QueryRowContext(ctx, query,
		t.Country, t.Manager, t.RepresentativeID, squadDoc, t.CaptainName, t.Rating, t.FlagKey,
	).Scan(&t.ID, &t.CreatedAt)

	return r.handleTeamError(err)
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`
	return r.scanTeam(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresTeamRepository) GetByRepresentative(ctx context.Context, userID int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE representative_id = $1`
	return r.scanTeam(r.db.QueryRowContext(ctx, query, userID))
}

func (r *postgresTeamRepository) List(ctx context.Context) ([]*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams ORDER BY country ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()
	return r.collectTeams(rows)
}

func (r *postgresTeamRepository) ListByIDs(ctx context.Context, ids []int) ([]*models.Team, error) {
	if len(ids) == 0 {
		return []*models.Team{}, nil
	}
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query teams by ids: %w", err)
	}
	defer rows.Close()
	return r.collectTeams(rows)
}

func (r *postgresTeamRepository) UpdateSquad(ctx context.Context, exec SQLExecutor, id int, squad []models.Player, rating float64, captainName string) error {
	if exec == nil {
		exec = r.db
	}
	squadDoc, err := marshalJSONB(squad)
	if err != nil {
		return err
	}
	query := `UPDATE teams SET squad = $1, rating = $2, captain_name = $3 WHERE id = $4`
	result, err := exec.ExecContext(ctx, query, squadDoc, rating, captainName, id)
	if err != nil {
		return r.handleTeamError(err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) UpdateManager(ctx context.Context, id int, manager string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE teams SET manager = $1 WHERE id = $2`, manager, id)
	if err != nil {
		return r.handleTeamError(err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) UpdateFlagKey(ctx context.Context, id int, flagKey *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE teams SET flag_key = $1 WHERE id = $2`, flagKey, id)
	if err != nil {
		return r.handleTeamError(err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM teams`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count teams: %w", err)
	}
	return count, nil
}

func (r *postgresTeamRepository) scanTeam(row *sql.Row) (*models.Team, error) {
	t := &models.Team{}
	var squadDoc []byte
	err := row.Scan(
		&t.ID, &t.Country, &t.Manager, &t.RepresentativeID,
		&squadDoc, &t.CaptainName, &t.Rating, &t.FlagKey, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team: %w", err)
	}
	if err := unmarshalJSONB(squadDoc, &t.Squad); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *postgresTeamRepository) collectTeams(rows *sql.Rows) ([]*models.Team, error) {
	teams := make([]*models.Team, 0)
	for rows.Next() {
		t := &models.Team{}
		var squadDoc []byte
		if err := rows.Scan(
			&t.ID, &t.Country, &t.Manager, &t.RepresentativeID,
			&squadDoc, &t.CaptainName, &t.Rating, &t.FlagKey, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", err)
		}
		if err := unmarshalJSONB(squadDoc, &t.Squad); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during team rows iteration: %w", err)
	}
	return teams, nil
}

func (r *postgresTeamRepository) handleTeamError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "teams_country_key":
			return ErrTeamCountryConflict
		case "teams_representative_id_fkey":
			return ErrTeamInvalidRep
		}
	}
	return err
}
