package websocket

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	apperrors "acaipulse/internal/errors"
	"acaipulse/internal/infrastructure"
)

// ErrorHandler renders a failed upgrade.
type ErrorHandler interface {
	HandleError(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerConfig configures the upgrade endpoint.
type HandlerConfig struct {
	// AllowedOrigins lists browser origins permitted to connect. "*"
	// allows any. Same-host requests and requests without an Origin header
	// are always allowed.
	AllowedOrigins  []string
	ReadBufferSize  int
	WriteBufferSize int
}

// Handler upgrades HTTP requests and attaches the connections to a hub.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	origins  map[string]bool
	errors   ErrorHandler
	logger   *slog.Logger
}

// NewHandler creates the upgrade handler. errorHandler may be nil, in
// which case upgrade failures get a plain status response.
func NewHandler(hub *Hub, cfg HandlerConfig, logger *slog.Logger, errorHandler ErrorHandler) *Handler {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = 1024
	}
	if cfg.WriteBufferSize <= 0 {
		cfg.WriteBufferSize = 1024
	}

	h := &Handler{
		hub:     hub,
		origins: make(map[string]bool, len(cfg.AllowedOrigins)),
		errors:  errorHandler,
		logger:  logger.With(slog.String("component", "websocket.handler")),
	}
	for _, o := range cfg.AllowedOrigins {
		h.origins[strings.TrimRight(strings.ToLower(o), "/")] = true
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
		Error:           h.upgradeError,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.origins["*"] {
		return true
	}
	if h.origins[strings.TrimRight(strings.ToLower(origin), "/")] {
		return true
	}

	u, err := url.Parse(origin)
	if err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}

	h.logger.WarnContext(r.Context(), "WebSocket origin rejected",
		slog.String("origin", origin),
		slog.String("host", r.Host))
	return false
}

func (h *Handler) upgradeError(w http.ResponseWriter, r *http.Request, status int, reason error) {
	apiErr := apperrors.NewWithDetails(status, apperrors.ErrWebSocketUpgrade.ErrorCode,
		apperrors.ErrWebSocketUpgrade.Message, reason.Error())
	if h.errors == nil {
		http.Error(w, apiErr.Message, status)
		return
	}
	h.errors.HandleError(w, r, apiErr)
}

// ServeHTTP upgrades the request and serves the client until it
// disconnects.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	traceID := infrastructure.GetTraceID(r.Context())
	if traceID == "" {
		traceID = infrastructure.TraceIDFromContext(r.Context())
	}
	if traceID == "" {
		traceID = infrastructure.GenerateTraceID()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already replied through upgradeError
		h.logger.ErrorContext(r.Context(), "WebSocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr))
		return
	}

	client := NewClient(h.hub, WrapConn(conn), traceID, h.logger)
	h.logger.InfoContext(r.Context(), "WebSocket connection established",
		slog.String("client_id", client.ID()),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("user_agent", r.UserAgent()))

	client.Serve()
}
