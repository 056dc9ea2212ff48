package models

import "time"

// PastTournament is an immutable snapshot of a tournament bracket taken at
// archival time. Only bare identifiers are stored; it is never mutated after
// creation.
type PastTournament struct {
	ID         int              `json:"id" db:"id"`
	Year       int              `json:"year" db:"year"`
	TeamIDs    []int            `json:"teams" db:"teams"`
	Bracket    Bracket          `json:"bracket" db:"bracket"`
	Status     TournamentStatus `json:"status" db:"status"`
	ArchivedAt time.Time        `json:"archived_at" db:"archived_at"`
}
