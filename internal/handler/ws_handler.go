package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/examportal/examportal-backend/internal/clock"
	"github.com/examportal/examportal-backend/internal/middleware"
	"github.com/examportal/examportal-backend/internal/model"
	"github.com/examportal/examportal-backend/internal/service"
	ws "github.com/examportal/examportal-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const tickInterval = 1 * time.Second

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

// WSHandler streams the server clock for a running attempt and accepts
// autosave and submit actions over the same connection. The server clock
// is authoritative: when it reaches the deadline the handler fires a
// timeout submission itself instead of trusting the client.
type WSHandler struct {
	attemptService *service.AttemptService
	clk            clock.Clock
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(attemptService *service.AttemptService, clk clock.Clock, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		attemptService: attemptService,
		clk:            clk,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// AttemptStream godoc
// WS /ws/v1/portal/attempts/:attempt_id/stream
// Upgrades to WebSocket for clock ticks, autosave, and submission.
func (h *WSHandler) AttemptStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attempt ID"})
		return
	}

	attempt, err := h.attemptService.Get(c.Request.Context(), attemptID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "attempt not found"})
		return
	}
	if attempt.UserID != claims.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your attempt"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("user_id", claims.UserID).
		Str("attempt_id", attemptID.String()).
		Logger()

	wsLog.Info().Msg("Participant connected")

	// Reads run in their own goroutine so the tick loop below owns every
	// write to the connection. The loop can return without draining msgs
	// (timeout or manual submit), and closing the conn does not unblock a
	// channel send, so every send also selects on done.
	msgs := make(chan ws.RequestPayload)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(msgs)
		for {
			var msg ws.RequestPayload
			if err := ws.Read(conn, &msg); err != nil {
				readErr <- err
				return
			}
			select {
			case msgs <- msg:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	deadline := attempt.Deadline
	for {
		select {
		case <-ticker.C:
			remaining := deadline.Sub(h.clk.Now()).Seconds()
			if remaining <= 0 {
				h.finish(conn, wsLog, attemptID, model.SubmitTriggerTimeout)
				return
			}
			ws.Send(conn, ws.TickResponse{Event: ws.EventTick, RemainingSeconds: remaining})

		case msg, open := <-msgs:
			if !open {
				select {
				case err := <-readErr:
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
						wsLog.Warn().Err(err).Msg("Unexpected close")
					} else {
						wsLog.Debug().Msg("Connection closed")
					}
				default:
				}
				return
			}

			switch msg.Action {
			case ws.ActionAutosave:
				h.handleAutosave(conn, wsLog, attemptID, &msg)
			case ws.ActionSubmit:
				h.finish(conn, wsLog, attemptID, model.SubmitTriggerManual)
				return
			case ws.ActionPing:
				ws.Send(conn, ws.PongResponse{Event: ws.EventPong})
			default:
				wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
				ws.SendError(conn, "unknown action: "+string(msg.Action))
			}
		}
	}
}

func (h *WSHandler) handleAutosave(conn *websocket.Conn, wsLog zerolog.Logger, attemptID uuid.UUID, msg *ws.RequestPayload) {
	if msg.QID == "" || msg.Answer == "" {
		ws.SendError(conn, "q_id and ans are required")
		return
	}

	questionID, err := uuid.Parse(msg.QID)
	if err != nil {
		ws.SendError(conn, "invalid q_id format")
		return
	}

	err = h.attemptService.RecordAnswer(context.Background(), attemptID, questionID, msg.Answer)
	if err != nil {
		if errors.Is(err, service.ErrSessionClosed) {
			ws.SendError(conn, "session closed")
			return
		}
		wsLog.Error().Err(err).Msg("Autosave failed")
		ws.SendError(conn, "save failed")
		return
	}

	ws.Send(conn, ws.SavedResponse{Event: ws.EventSaved, QID: msg.QID})
}

// finish submits the attempt and sends the finalized score before closing.
// Submission is idempotent, so a tick racing a manual submit still reports
// the stored result.
func (h *WSHandler) finish(conn *websocket.Conn, wsLog zerolog.Logger, attemptID uuid.UUID, trigger model.SubmitTrigger) {
	result, err := h.attemptService.Submit(context.Background(), attemptID, trigger)
	if err != nil {
		wsLog.Error().Err(err).Str("trigger", string(trigger)).Msg("Submit failed")
		ws.SendError(conn, "submit failed")
		return
	}

	wsLog.Info().
		Str("trigger", string(result.Trigger)).
		Int("raw_score", result.RawScore).
		Float64("percentage", result.Percentage).
		Msg("Attempt finalized")

	ws.Send(conn, ws.SubmittedResponse{
		Event:      ws.EventSubmitted,
		Trigger:    string(result.Trigger),
		RawScore:   result.RawScore,
		TotalMarks: result.TotalMarks,
		Percentage: result.Percentage,
	})
}
