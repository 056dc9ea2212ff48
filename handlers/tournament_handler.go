package handlers

import (
	"errors"
	"net/http"

	"github.com/anleague/tournament-engine/models"
	"github.com/anleague/tournament-engine/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
	archiveService    services.ArchiveService
}

func NewTournamentHandler(tournamentService services.TournamentService, archiveService services.ArchiveService) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: tournamentService,
		archiveService:    archiveService,
	}
}

func (h *TournamentHandler) Start(w http.ResponseWriter, r *http.Request) {
	tournament, err := h.tournamentService.StartTournament(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) Bracket(w http.ResponseWriter, r *http.Request) {
	bracket, err := h.tournamentService.GetCurrentBracket(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": bracket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SimulateRound resolves every pending fixture of the current round.
func (h *TournamentHandler) SimulateRound(w http.ResponseWriter, r *http.Request) {
	matches, err := h.tournamentService.ResolvePendingFixtures(r.Context(), models.MatchTypeSimulated)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) Advance(w http.ResponseWriter, r *http.Request) {
	tournament, err := h.tournamentService.AdvanceStage(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) Restart(w http.ResponseWriter, r *http.Request) {
	past, err := h.archiveService.Restart(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if past == nil {
		// Restart with nothing running is a successful no-op.
		if err := writeJSON(w, http.StatusOK, jsonResponse{"archived": nil, "message": "no active tournament to restart"}, nil); err != nil {
			serverErrorResponse(w, r, err)
		}
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"archived": past}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) History(w http.ResponseWriter, r *http.Request) {
	past, err := h.archiveService.ListHistory(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"past_tournaments": past}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) Active(w http.ResponseWriter, r *http.Request) {
	tournament, err := h.tournamentService.GetActiveTournament(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrNoActiveTournament) {
			// The landing page polls this; an empty body is not an error.
			if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": nil}, nil); err != nil {
				serverErrorResponse(w, r, err)
			}
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
