package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	ws "github.com/gorilla/websocket"
	"github.com/skillshare/skillshare-backend/internal/domain"
	"github.com/skillshare/skillshare-backend/internal/service"
	"github.com/skillshare/skillshare-backend/internal/websocket"
)

type WebSocketHandler struct {
	hub         *websocket.Hub
	authService *service.AuthService
	upgrader    ws.Upgrader
	logger      *slog.Logger
}

// NewWebSocketHandler serves the live story feed. Upgrades are accepted from
// allowedOrigin only, or from any origin when it is "*".
func NewWebSocketHandler(hub *websocket.Hub, authService *service.AuthService, allowedOrigin string, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		authService: authService,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowedOrigin == "*" || origin == allowedOrigin
			},
		},
		logger: logger.With("component", "handlers.websocket"),
	}
}

func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	// Browsers cannot set headers on a websocket handshake.
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Token required", http.StatusUnauthorized)
		return
	}

	user, err := h.authService.Authenticate(r.Context(), token)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) || errors.Is(err, domain.ErrStaleToken) || errors.Is(err, domain.ErrAccountDeactivated) {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		writeServiceError(w, r, h.logger, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	client := websocket.NewClient(h.hub, conn, user.ID)
	h.hub.Register(client)

	// A logout-all or deactivation that landed during the upgrade swept the
	// hub before this client joined it.
	if _, err := h.authService.Authenticate(r.Context(), token); err != nil {
		h.logger.InfoContext(r.Context(), "session revoked during websocket upgrade", "user_id", user.ID)
		h.hub.Unregister(client)
	}

	go client.WritePump()
	go client.ReadPump()
}
