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
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchTournamentInvalid = errors.New("match tournament conflict or invalid")
	ErrMatchTeamInvalid       = errors.New("match team conflict or invalid")
)

// MatchResult carries everything a resolution writes back to a match in one
// statement, so a fixture is never persisted half-resolved.
type MatchResult struct {
	Score          models.Score
	ExtraTimeScore *models.Score
	PenaltyScore   *models.Score
	GoalScorers    []models.GoalEvent
	Type           models.MatchType
	Commentary     string
	Status         models.MatchStatus
}

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByIDs(ctx context.Context, ids []int) ([]*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error)
	List(ctx context.Context) ([]*models.Match, error)
	UpdateResult(ctx context.Context, exec SQLExecutor, id int, result MatchResult) error
	AppendCommentary(ctx context.Context, exec SQLExecutor, id int, clause string) error
	Delete(ctx context.Context, id int) error
	DeleteByTournament(ctx context.Context, tournamentID int) (int, error)
	Count(ctx context.Context) (int, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, tournament_id, stage, team1_id, team2_id, score, extra_time_score,
	penalty_score, goal_scorers, type, commentary, status, created_at, updated_at`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	if exec == nil {
		exec = r.db
	}
	scoreDoc, err := marshalJSONB(m.Score)
	if err != nil {
		return err
	}
	scorersDoc, err := marshalJSONB(m.GoalScorers)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO matches (tournament_id, stage, team1_id, team2_id, score, goal_scorers, type, commentary, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err = exec.QueryRowContext(ctx, query,
		m.TournamentID, m.Stage, m.Team1ID, m.Team2ID, scoreDoc, scorersDoc, m.Type, m.Commentary, m.Status,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query match %d: %w", id, err)
	}
	defer rows.Close()

	matches, err := r.collectMatches(rows)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ErrMatchNotFound
	}
	return matches[0], nil
}

func (r *postgresMatchRepository) ListByIDs(ctx context.Context, ids []int) ([]*models.Match, error) {
	if len(ids) == 0 {
		return []*models.Match{}, nil
	}
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query matches by ids: %w", err)
	}
	defer rows.Close()
	return r.collectMatches(rows)
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1 ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()
	return r.collectMatches(rows)
}

func (r *postgresMatchRepository) List(ctx context.Context) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()
	return r.collectMatches(rows)
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, id int, result MatchResult) error {
	if exec == nil {
		exec = r.db
	}
	scoreDoc, err := marshalJSONB(result.Score)
	if err != nil {
		return err
	}
	scorersDoc, err := marshalJSONB(result.GoalScorers)
	if err != nil {
		return err
	}
	var extraDoc, penaltyDoc []byte
	if result.ExtraTimeScore != nil {
		if extraDoc, err = marshalJSONB(result.ExtraTimeScore); err != nil {
			return err
		}
	}
	if result.PenaltyScore != nil {
		if penaltyDoc, err = marshalJSONB(result.PenaltyScore); err != nil {
			return err
		}
	}

	query := `
		UPDATE matches
		SET score = $1, extra_time_score = $2, penalty_score = $3, goal_scorers = $4,
		    type = $5, commentary = $6, status = $7, updated_at = NOW()
		WHERE id = $8`

	res, err := exec.ExecContext(ctx, query,
		scoreDoc, extraDoc, penaltyDoc, scorersDoc,
		result.Type, result.Commentary, result.Status, id,
	)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(res, ErrMatchNotFound)
}

func (r *postgresMatchRepository) AppendCommentary(ctx context.Context, exec SQLExecutor, id int, clause string) error {
	if exec == nil {
		exec = r.db
	}
	query := `UPDATE matches SET commentary = commentary || $1, updated_at = NOW() WHERE id = $2`
	res, err := exec.ExecContext(ctx, query, clause, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(res, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(res, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteByTournament(ctx context.Context, tournamentID int) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE tournament_id = $1`, tournamentID)
	if err != nil {
		return 0, err
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return int(deleted), nil
}

func (r *postgresMatchRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return count, nil
}

func (r *postgresMatchRepository) collectMatches(rows *sql.Rows) ([]*models.Match, error) {
	matches := make([]*models.Match, 0)
	for rows.Next() {
		m := &models.Match{}
		var scoreDoc, extraDoc, penaltyDoc, scorersDoc []byte
		if err := rows.Scan(
			&m.ID, &m.TournamentID, &m.Stage, &m.Team1ID, &m.Team2ID,
			&scoreDoc, &extraDoc, &penaltyDoc, &scorersDoc,
			&m.Type, &m.Commentary, &m.Status, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		if err := unmarshalJSONB(scoreDoc, &m.Score); err != nil {
			return nil, err
		}
		if len(extraDoc) > 0 {
			m.ExtraTimeScore = &models.Score{}
			if err := unmarshalJSONB(extraDoc, m.ExtraTimeScore); err != nil {
				return nil, err
			}
		}
		if len(penaltyDoc) > 0 {
			m.PenaltyScore = &models.Score{}
			if err := unmarshalJSONB(penaltyDoc, m.PenaltyScore); err != nil {
				return nil, err
			}
		}
		if err := unmarshalJSONB(scorersDoc, &m.GoalScorers); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "matches_tournament_id_fkey":
			return ErrMatchTournamentInvalid
		case "matches_team1_id_fkey", "matches_team2_id_fkey":
			return ErrMatchTeamInvalid
		}
	}
	return err
}
