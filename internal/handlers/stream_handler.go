package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"drinklog/internal/drinkstats"
	apperrors "drinklog/internal/errors"
	"drinklog/internal/logger"
	"drinklog/internal/services"
)

const (
	streamHeartbeat = 15 * time.Second
	streamRetry     = 2000
	wsWriteWait     = 10 * time.Second
	wsPongWait      = 60 * time.Second
)

// Stream message kinds, used as SSE event names and WebSocket "type".
const (
	streamSnapshot = "snapshot"
	streamError    = "error"
	streamEnd      = "end"
)

// StreamMessage is one WebSocket frame of a snapshot stream.
type StreamMessage struct {
	Type  string           `json:"type"`
	View  *drinkstats.View `json:"view,omitempty"`
	Error *ErrorDetail     `json:"error,omitempty"`
}

// StreamHandler pushes a fresh overview to the client after every change.
type StreamHandler struct {
	drinkService services.DrinkServicer
	userService  services.UserServicer
	settings     DrinkSettings
	upgrader     websocket.Upgrader
}

// NewStreamHandler creates a new StreamHandler. The user service is used to
// refuse streams for users that have signed out.
func NewStreamHandler(drinkService services.DrinkServicer, userService services.UserServicer, settings DrinkSettings) *StreamHandler {
	return &StreamHandler{
		drinkService: drinkService,
		userService:  userService,
		settings:     settings,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Streams authenticate with the access token, not cookies.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// streamStep classifies one snapshot. The not-ready condition is skipped
// silently; the store reports it until its tables exist.
func (h *StreamHandler) streamStep(r drinkstats.DateRange, snap services.Snapshot) StreamMessage {
	switch {
	case snap.Err == nil:
		view := drinkstats.BuildView(snap.Records, r, h.settings.viewOptions())
		return StreamMessage{Type: streamSnapshot, View: &view}
	case errors.Is(snap.Err, apperrors.ErrSessionEnded):
		return StreamMessage{Type: streamEnd}
	case errors.Is(snap.Err, apperrors.ErrSnapshotNotReady):
		return StreamMessage{}
	default:
		detail := errorDetail(snap.Err)
		return StreamMessage{Type: streamError, Error: &detail}
	}
}

// checkSession rejects users without a live refresh token. Access tokens
// outlive a sign-out, streams must not.
func (h *StreamHandler) checkSession(userID string) error {
	hash, err := h.userService.GetRefreshTokenHash(userID)
	if err != nil {
		return err
	}
	if hash == "" {
		return apperrors.ErrSessionEnded
	}
	return nil
}

func (h *StreamHandler) subscribe(ctx context.Context, c *gin.Context) (drinkstats.DateRange, *services.SnapshotSubscription, string, bool) {
	r, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return r, nil, "", false
	}
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return r, nil, "", false
	}
	if err := h.checkSession(userID); err != nil {
		respondWithError(c, err)
		return r, nil, "", false
	}
	sub, err := h.drinkService.Subscribe(ctx, userID)
	if err != nil {
		respondWithError(c, err)
		return r, nil, "", false
	}
	return r, sub, userID, true
}

// StreamDrinks streams overviews as server-sent events
// @Summary     Stream drink overviews (SSE)
// @Description Sends a "snapshot" event with the overview on connect and after every change, "error" events for failed loads and "end" when the user signs out. The access token may be passed as the access_token query parameter.
// @Tags        drinks
// @Produce     text/event-stream
// @Security    BearerAuth
// @Param       start_date query string false "First date (YYYY-MM-DD), inclusive"
// @Param       end_date   query string false "Last date (YYYY-MM-DD), inclusive"
// @Success     200 {string} string "Event stream"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Live updates unavailable"
// @Router      /drinks/stream [get]
func (h *StreamHandler) StreamDrinks(c *gin.Context) {
	ctx := c.Request.Context()
	r, sub, userID, ok := h.subscribe(ctx, c)
	if !ok {
		return
	}
	defer sub.Close()

	writer := c.Writer
	flusher, ok := writer.(http.Flusher)
	if !ok {
		respondWithError(c, apperrors.ErrServiceUnavailable)
		return
	}

	headers := writer.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	if _, err := fmt.Fprintf(writer, "retry: %d\n\n", streamRetry); err != nil {
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, open := <-sub.Updates():
			if !open {
				return
			}
			msg := h.streamStep(r, snap)
			if msg.Type == "" {
				continue
			}
			if err := writeStreamEvent(writer, msg); err != nil {
				logger.Get().Debugw("snapshot stream closed", "user_id", userID, "error", err)
				return
			}
			flusher.Flush()
			if msg.Type == streamEnd {
				return
			}
		case <-heartbeat.C:
			if _, err := io.WriteString(writer, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeStreamEvent(w io.Writer, msg StreamMessage) error {
	var payload interface{} = struct{}{}
	switch {
	case msg.View != nil:
		payload = msg.View
	case msg.Error != nil:
		payload = msg.Error
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, data)
	return err
}

// StreamDrinksWS streams overviews over a WebSocket
// @Summary     Stream drink overviews (WebSocket)
// @Description Same stream as /drinks/stream, framed as JSON messages {"type","view","error"}. The access token is passed as the access_token query parameter.
// @Tags        drinks
// @Security    BearerAuth
// @Param       start_date query string false "First date (YYYY-MM-DD), inclusive"
// @Param       end_date   query string false "Last date (YYYY-MM-DD), inclusive"
// @Success     101 {string} string "Switching protocols"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /drinks/ws [get]
func (h *StreamHandler) StreamDrinksWS(c *gin.Context) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	r, sub, userID, ok := h.subscribe(ctx, c)
	if !ok {
		return
	}
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Get().Warnw("websocket upgrade failed", "user_id", userID, "error", err)
		return
	}
	defer conn.Close()

	// The reader only handles control frames; it ends the stream when the
	// client goes away.
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamHeartbeat)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, open := <-sub.Updates():
			if !open {
				return
			}
			msg := h.streamStep(r, snap)
			if msg.Type == "" {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
			if msg.Type == streamEnd {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "signed out"),
					time.Now().Add(wsWriteWait))
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
