package models

// AdminDataOverview aggregates every collection for the admin data page and
// for snapshot exports.
type AdminDataOverview struct {
	Users           []User           `json:"users"`
	Teams           []Team           `json:"teams"`
	Tournament      *Tournament      `json:"tournament"`
	Matches         []Match          `json:"matches"`
	PastTournaments []PastTournament `json:"past_tournaments"`
}

// TopScorer is a ranked entry of the public scorer chart.
type TopScorer struct {
	PlayerName string `json:"player_name"`
	Country    string `json:"country"`
	Goals      int    `json:"goals"`
}
