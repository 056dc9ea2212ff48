package models

import "time"

type Stage string

const (
	StageQuarterfinal Stage = "quarterfinal"
	StageSemifinal    Stage = "semifinal"
	StageFinal        Stage = "final"
)

type MatchStatus string

const (
	MatchStatusPending    MatchStatus = "pending"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusCompleted  MatchStatus = "completed"
)

// MatchType distinguishes algorithmic scoring from narrative-backed scoring.
type MatchType string

const (
	MatchTypeSimulated MatchType = "simulated"
	MatchTypePlayed    MatchType = "played"
)

type Score struct {
	Team1 int `json:"team1"`
	Team2 int `json:"team2"`
}

// GoalEvent attributes a single goal to a player of one of the two sides.
// Side is "team1" or "team2", Minute is within [1,120].
type GoalEvent struct {
	PlayerName string `json:"player_name"`
	Minute     int    `json:"minute"`
	Side       string `json:"team"`
}

const (
	GoalSideTeam1 = "team1"
	GoalSideTeam2 = "team2"
)

type Match struct {
	ID             int         `json:"id" db:"id"`
	TournamentID   int         `json:"tournament_id" db:"tournament_id"`
	Stage          Stage       `json:"stage" db:"stage"`
	Team1ID        int         `json:"team1_id" db:"team1_id"`
	Team2ID        int         `json:"team2_id" db:"team2_id"`
	Score          Score       `json:"score" db:"score"`
	ExtraTimeScore *Score      `json:"extra_time_score,omitempty" db:"extra_time_score"`
	PenaltyScore   *Score      `json:"penalty_score,omitempty" db:"penalty_score"`
	GoalScorers    []GoalEvent `json:"goal_scorers" db:"goal_scorers"`
	Type           MatchType   `json:"type" db:"type"`
	Commentary     string      `json:"commentary" db:"commentary"`
	Status         MatchStatus `json:"status" db:"status"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`

	Team1 *Team `json:"team1,omitempty" db:"-"`
	Team2 *Team `json:"team2,omitempty" db:"-"`
}

// Drawn reports whether the regulation score is level.
func (m *Match) Drawn() bool {
	return m.Score.Team1 == m.Score.Team2
}
