package models

import "time"

// TournamentStatus tracks which round the tournament is currently in.
type TournamentStatus string

const (
	StatusQuarterfinals TournamentStatus = "quarterfinals"
	StatusSemifinals    TournamentStatus = "semifinals"
	StatusFinal         TournamentStatus = "final"
	StatusCompleted     TournamentStatus = "completed"
)

// FixtureRef pairs two teams within a round and references the match that
// decides it. References only; team and match documents are joined at read
// time and never stored denormalized in the bracket.
type FixtureRef struct {
	MatchID int `json:"match_id"`
	Team1ID int `json:"team1_id"`
	Team2ID int `json:"team2_id"`
}

type Bracket struct {
	Quarterfinals []FixtureRef `json:"quarterfinals"`
	Semifinals    []FixtureRef `json:"semifinals"`
	Final         []FixtureRef `json:"final"`
}

// Round returns the fixtures of the round a tournament in the given status
// is playing. Completed tournaments have no playable round.
func (b Bracket) Round(status TournamentStatus) []FixtureRef {
	switch status {
	case StatusQuarterfinals:
		return b.Quarterfinals
	case StatusSemifinals:
		return b.Semifinals
	case StatusFinal:
		return b.Final
	}
	return nil
}

// Tournament is the singular live competition. Version guards every state
// transition with an optimistic concurrency check.
type Tournament struct {
	ID        int              `json:"id" db:"id"`
	Status    TournamentStatus `json:"status" db:"status"`
	TeamIDs   []int            `json:"teams" db:"teams"`
	Bracket   Bracket          `json:"bracket" db:"bracket"`
	Version   int              `json:"-" db:"version"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

// TeamView is the joined, display-ready form of a team reference.
type TeamView struct {
	ID      int     `json:"id"`
	Country string  `json:"country"`
	Rating  float64 `json:"rating"`
	FlagURL *string `json:"flag_url,omitempty"`
}

// FixtureView is a fixture joined to its current team and match documents.
type FixtureView struct {
	Match *Match    `json:"match"`
	Team1 *TeamView `json:"team1"`
	Team2 *TeamView `json:"team2"`
}

// BracketView is the read model of a tournament: every fixture resolved to
// current documents, fixtures with deleted matches filtered out.
type BracketView struct {
	TournamentID  int              `json:"tournament_id"`
	Status        TournamentStatus `json:"status"`
	Quarterfinals []FixtureView    `json:"quarterfinals"`
	Semifinals    []FixtureView    `json:"semifinals"`
	Final         []FixtureView    `json:"final"`
}
