package services

import (
	"fmt"
	"math"

	"github.com/anleague/tournament-engine/models"
)

// SquadFields are the team fields derived from the squad. They are recomputed
// and overwritten on every squad mutation, never set directly.
type SquadFields struct {
	Rating      float64
	CaptainName string
}

// DeriveSquadFields computes the team rating and captain name from a full
// squad. The rating is the mean of each player's rating at their natural
// position, rounded to two decimals; an unset rating counts as the default,
// never as zero. The captain is the flagged player, or squad slot 0 when
// nobody is flagged.
func DeriveSquadFields(squad []models.Player) (SquadFields, error) {
	if len(squad) != models.SquadSize {
		return SquadFields{}, fmt.Errorf("%w: got %d", ErrSquadSizeInvalid, len(squad))
	}

	var total float64
	for _, p := range squad {
		r := p.Ratings.For(p.NaturalPosition)
		if r <= 0 {
			r = models.DefaultPositionRating
		}
		total += r
	}
	rating := math.Round(total/models.SquadSize*100) / 100

	captain := squad[0].Name
	for _, p := range squad {
		if p.IsCaptain {
			captain = p.Name
			break
		}
	}

	return SquadFields{Rating: rating, CaptainName: captain}, nil
}

// NormalizeCaptain enforces the single-captain invariant in place: the first
// flagged player keeps the armband and every later flag is cleared; with no
// flag at all, slot 0 gets it.
func NormalizeCaptain(squad []models.Player) {
	if len(squad) == 0 {
		return
	}
	found := false
	for i := range squad {
		if squad[i].IsCaptain {
			if found {
				squad[i].IsCaptain = false
			}
			found = true
		}
	}
	if !found {
		squad[0].IsCaptain = true
	}
}
