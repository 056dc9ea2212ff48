package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/anleague/tournament-engine/middleware"
	"github.com/anleague/tournament-engine/models"
	"github.com/anleague/tournament-engine/services"
)

type MatchHandler struct {
	matchService services.MatchService
	teamService  services.TeamService
}

func NewMatchHandler(matchService services.MatchService, teamService services.TeamService) *MatchHandler {
	return &MatchHandler{
		matchService: matchService,
		teamService:  teamService,
	}
}

func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Resolve settles a single pending match. Admins may resolve any match in
// either mode; a representative may only play a match their own team is in.
func (h *MatchHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Mode models.MatchType `json:"mode"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	switch input.Mode {
	case models.MatchTypeSimulated, models.MatchTypePlayed:
	default:
		badRequestResponse(w, r, fmt.Errorf("mode must be %q or %q",
			models.MatchTypeSimulated, models.MatchTypePlayed))
		return
	}

	role, err := middleware.GetUserRoleFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	if role != models.RoleAdmin {
		if input.Mode != models.MatchTypePlayed {
			forbiddenResponse(w, r, "only admins may simulate matches")
			return
		}
		if err := h.checkRepresentativeOwnsSide(w, r, matchID); err != nil {
			return
		}
	}

	match, err := h.matchService.ResolveMatch(r.Context(), matchID, input.Mode)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) EditScore(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		Team1 int `json:"team1"`
		Team2 int `json:"team2"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.EditScore(r.Context(), matchID, input.Team1, input.Team2)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) checkRepresentativeOwnsSide(w http.ResponseWriter, r *http.Request, matchID int) error {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return err
	}
	match, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return err
	}
	for _, teamID := range []int{match.Team1ID, match.Team2ID} {
		team, err := h.teamService.GetTeam(r.Context(), teamID)
		if err != nil {
			continue
		}
		if team.RepresentativeID == userID {
			return nil
		}
	}
	forbiddenResponse(w, r, "you may only play matches your own team is in")
	return errors.New("forbidden")
}
