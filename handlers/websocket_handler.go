package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/Dosada05/tournament-bracket/brackets"
	"github.com/Dosada05/tournament-bracket/services"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub               *brackets.Hub
	tournamentService services.TournamentService
	upgrader          websocket.Upgrader
	logger            *slog.Logger
}

// NewWebSocketHandler принимает список разрешённых Origin; "*" разрешает все.
func NewWebSocketHandler(hub *brackets.Hub, ts services.TournamentService, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	allowAll := len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*")
	return &WebSocketHandler{
		hub:               hub,
		tournamentService: ts,
		logger:            logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// ServeWs обрабатывает WebSocket запросы для конкретного турнира.
// Клиент должен подключаться к /ws/tournaments/{tournamentID}
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if _, err := h.tournamentService.GetByID(r.Context(), tournamentID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader.Upgrade сам отправляет HTTP ошибку клиенту, так что здесь просто логируем.
		h.logger.WarnContext(r.Context(), "websocket upgrade failed",
			slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return
	}

	// Подписка до чтения снимка: обновления, пришедшие после, не теряются.
	client := h.hub.NewClient(conn, brackets.TournamentRoom(tournamentID))
	if !h.hub.Subscribe(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()

	if err := h.sendSnapshot(r.Context(), client, tournamentID); err != nil {
		h.logger.WarnContext(r.Context(), "bracket snapshot not delivered",
			slog.Int("tournament_id", tournamentID), slog.Any("error", err))
	}
	h.logger.DebugContext(r.Context(), "websocket client subscribed", slog.Int("tournament_id", tournamentID))
}

var errSnapshotDropped = errors.New("client closed or send buffer full")

// sendSnapshot loads the current bracket and queues it to the client.
func (h *WebSocketHandler) sendSnapshot(ctx context.Context, client *brackets.Client, tournamentID int) error {
	view, err := h.tournamentService.BracketView(ctx, tournamentID)
	if err != nil {
		return err
	}
	if !client.Deliver(brackets.NewEvent(brackets.EventBracketSnapshot, tournamentID, view)) {
		return errSnapshotDropped
	}
	return nil
}
