package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/anleague/tournament-engine/middleware"
	"github.com/anleague/tournament-engine/models"
	"github.com/anleague/tournament-engine/services"
)

const maxFlagUploadBytes = 5 << 20

type TeamHandler struct {
	teamService services.TeamService
}

func NewTeamHandler(teamService services.TeamService) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTeamInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	// A representative always registers the team under their own account.
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	role, _ := middleware.GetUserRoleFromContext(r.Context())
	if role != models.RoleAdmin || input.RepresentativeID == 0 {
		input.RepresentativeID = userID
	}

	team, err := h.teamService.CreateTeam(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	teamID, err := idParam(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	team, err := h.teamService.GetTeam(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MyTeam returns the team registered by the authenticated representative.
func (h *TeamHandler) MyTeam(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	team, err := h.teamService.GetTeamByRepresentative(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teamService.ListTeams(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) UpdateManager(w http.ResponseWriter, r *http.Request) {
	teamID, err := h.authorizeTeamMutation(w, r)
	if err != nil {
		return
	}
	var input struct {
		Manager string `json:"manager"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	team, err := h.teamService.UpdateManager(r.Context(), teamID, input.Manager)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) RenamePlayer(w http.ResponseWriter, r *http.Request) {
	teamID, err := h.authorizeTeamMutation(w, r)
	if err != nil {
		return
	}
	slot, err := idParamAllowZero(r, "slot")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		Name string `json:"name"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	team, err := h.teamService.RenamePlayer(r.Context(), teamID, slot, input.Name)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) UpdatePlayerRatings(w http.ResponseWriter, r *http.Request) {
	teamID, err := h.authorizeTeamMutation(w, r)
	if err != nil {
		return
	}
	slot, err := idParamAllowZero(r, "slot")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.PlayerRatingsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	team, err := h.teamService.UpdatePlayerRatings(r.Context(), teamID, slot, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) SetCaptain(w http.ResponseWriter, r *http.Request) {
	teamID, err := h.authorizeTeamMutation(w, r)
	if err != nil {
		return
	}
	slot, err := idParamAllowZero(r, "slot")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	team, err := h.teamService.SetCaptain(r.Context(), teamID, slot)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) UploadFlag(w http.ResponseWriter, r *http.Request) {
	teamID, err := h.authorizeTeamMutation(w, r)
	if err != nil {
		return
	}
	if err := r.ParseMultipartForm(maxFlagUploadBytes); err != nil {
		badRequestResponse(w, r, errors.New("invalid multipart form"))
		return
	}
	file, header, err := r.FormFile("flag")
	if err != nil {
		badRequestResponse(w, r, errors.New("flag file is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	team, err := h.teamService.UploadFlag(r.Context(), teamID, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) TopScorers(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			badRequestResponse(w, r, errors.New("limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	scorers, err := h.teamService.TopScorers(r.Context(), limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"top_scorers": scorers}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// authorizeTeamMutation checks that the caller is the team's representative
// or an admin. On failure it writes the response and returns a non-nil error.
func (h *TeamHandler) authorizeTeamMutation(w http.ResponseWriter, r *http.Request) (int, error) {
	teamID, err := idParam(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return 0, err
	}
	role, err := middleware.GetUserRoleFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return 0, err
	}
	if role == models.RoleAdmin {
		return teamID, nil
	}

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return 0, err
	}
	team, err := h.teamService.GetTeam(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return 0, err
	}
	if team.RepresentativeID != userID {
		forbiddenResponse(w, r, "only the team representative may modify this team")
		return 0, errors.New("forbidden")
	}
	return teamID, nil
}

func idParam(r *http.Request, name string) (int, error) {
	id, err := idParamAllowZero(r, name)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, errors.New("invalid " + name + " parameter")
	}
	return id, nil
}

func idParamAllowZero(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		return 0, errors.New("invalid " + name + " parameter")
	}
	return id, nil
}
