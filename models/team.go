package models

import "time"

// SquadSize is the mandatory roster size for every national team.
const SquadSize = 23

// DefaultPositionRating substitutes a missing or unset position rating
// when the team rating is derived.
const DefaultPositionRating = 50

type Position string

const (
	PositionGoalkeeper Position = "GK"
	PositionDefender   Position = "DF"
	PositionMidfielder Position = "MD"
	PositionAttacker   Position = "AT"
)

func (p Position) Valid() bool {
	switch p {
	case PositionGoalkeeper, PositionDefender, PositionMidfielder, PositionAttacker:
		return true
	}
	return false
}

// PositionRatings holds a player's rating for each of the four positions.
// A zero value means the rating was never set.
type PositionRatings struct {
	GK float64 `json:"GK"`
	DF float64 `json:"DF"`
	MD float64 `json:"MD"`
	AT float64 `json:"AT"`
}

// For returns the rating at the given position, or 0 when unset.
func (r PositionRatings) For(pos Position) float64 {
	switch pos {
	case PositionGoalkeeper:
		return r.GK
	case PositionDefender:
		return r.DF
	case PositionMidfielder:
		return r.MD
	case PositionAttacker:
		return r.AT
	}
	return 0
}

type Player struct {
	Name            string          `json:"name"`
	NaturalPosition Position        `json:"natural_position"`
	Ratings         PositionRatings `json:"ratings"`
	IsCaptain       bool            `json:"is_captain"`
	Goals           int             `json:"goals"`
}

// Team is a national side. Rating and CaptainName are derived from the squad
// and overwritten on every squad mutation, never set directly.
type Team struct {
	ID               int       `json:"id" db:"id"`
	Country          string    `json:"country" db:"country"`
	Manager          string    `json:"manager" db:"manager"`
	RepresentativeID int       `json:"representative_id" db:"representative_id"`
	Squad            []Player  `json:"squad" db:"squad"`
	CaptainName      string    `json:"captain_name" db:"captain_name"`
	Rating           float64   `json:"rating" db:"rating"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`

	FlagKey *string `json:"-" db:"flag_key"`
	FlagURL *string `json:"flag_url,omitempty" db:"-"`
}
