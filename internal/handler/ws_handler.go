package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/echoexam/echo-backend/internal/model"
	"github.com/echoexam/echo-backend/internal/response"
	"github.com/echoexam/echo-backend/internal/service"
	ws "github.com/echoexam/echo-backend/internal/websocket"
)

// progressInterval is how often the stream re-checks the session for
// changes. Snapshots are only written when something changed.
const progressInterval = time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams live session progress to the exam UI.
type WSHandler struct {
	sessions *service.SessionService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessions *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// ProgressStream godoc
// WS /ws/v1/sessions/:id/progress
// Pushes a snapshot on connect and again whenever the session changes:
// the index moves, grading tasks start or land, audio preparation
// finishes, the session completes. Closes normally once the session is
// completed with no grading left in flight.
func (h *WSHandler) ProgressStream(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	// Reject unknown sessions before upgrading.
	if _, err := h.sessions.Status(id); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("session_id", id.String()).Logger()
	wsLog.Info().Msg("Progress stream connected")

	// The reader goroutine never writes to the connection: gorilla
	// allows a single writer, so pings are answered from the push loop.
	done := make(chan struct{})
	pings := make(chan struct{}, 1)
	go func() {
		defer close(done)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			switch msg.Action {
			case ws.ActionPing:
				select {
				case pings <- struct{}{}:
				default:
				}
			default:
				wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			}
		}
	}()

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	var last *model.SessionStatusInfo
	push := func() bool {
		snap, err := h.sessions.Status(id)
		if err != nil {
			_ = ws.WriteError(conn, "session no longer available")
			return false
		}
		if last == nil || *snap != *last {
			if err := ws.WriteTyped(conn, ws.ProgressEvent{Event: ws.EventProgress, Snapshot: snap}); err != nil {
				return false
			}
			last = snap
		}
		if snap.Status == model.SessionStatusCompleted && !snap.Processing {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session completed")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			wsLog.Info().Msg("Progress stream finished")
			return false
		}
		return true
	}

	if !push() {
		return
	}
	for {
		select {
		case <-done:
			wsLog.Debug().Msg("Progress stream disconnected")
			return
		case <-pings:
			if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
				return
			}
		case <-ticker.C:
			if !push() {
				return
			}
		}
	}
}
