package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/anleague/tournament-engine/brackets"
	"github.com/anleague/tournament-engine/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS is enforced at the router; the bracket stream is public.
		return true
	},
}

type WSHandler struct {
	hub               *brackets.Hub
	tournamentService services.TournamentService
	logger            *slog.Logger
}

func NewWSHandler(hub *brackets.Hub, tournamentService services.TournamentService, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		hub:               hub,
		tournamentService: tournamentService,
		logger:            logger,
	}
}

// Subscribe upgrades the connection and joins the active tournament's room.
func (h *WSHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	tournament, err := h.tournamentService.GetActiveTournament(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrNoActiveTournament) {
			notFoundResponse(w, r)
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := &brackets.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: brackets.RoomForTournament(tournament.ID),
	}
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
