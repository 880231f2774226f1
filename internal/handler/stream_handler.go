package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"focustimer/backend/internal/middleware"
	"focustimer/backend/internal/prefs"
	"focustimer/backend/internal/projection"
)

// StreamHandler serves the live subscription surface over server-sent
// events. Each connection registers a listener with the change notifier
// and tears it down when the client goes away.
type StreamHandler struct {
	projector    *projection.Projector
	prefsService *prefs.Service
}

func NewStreamHandler(projector *projection.Projector, prefsService *prefs.Service) *StreamHandler {
	return &StreamHandler{projector: projector, prefsService: prefsService}
}

// Stats streams re-folded range projections: one immediately, then one per
// committed recording.
func (h *StreamHandler) Stats(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_range", "message": "from and to query parameters are required"},
		})
		return
	}

	userID := middleware.UserID(c)
	// Validate once before upgrading to a stream so gate and range errors
	// surface as normal JSON responses.
	if _, apiErr := h.projector.Range(c.Request.Context(), userID, from, to); apiErr != nil {
		writeError(c, apiErr)
		return
	}

	updates, dispose := h.projector.StreamRange(userID, from, to)
	defer dispose()
	serveEvents(c, func() (interface{}, bool) {
		update, ok := <-updates
		return update, ok
	})
}

// Preferences streams the preference document: the current snapshot first,
// then every stored change.
func (h *StreamHandler) Preferences(c *gin.Context) {
	userID := middleware.UserID(c)

	snapshots, dispose := h.prefsService.Subscribe(userID)
	defer dispose()
	serveEvents(c, func() (interface{}, bool) {
		snapshot, ok := <-snapshots
		return snapshot, ok
	})
}

func serveEvents(c *gin.Context, next func() (interface{}, bool)) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.String(http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ctx := c.Request.Context()
	payloads := make(chan []byte)
	go func() {
		defer close(payloads)
		for {
			value, ok := next()
			if !ok {
				return
			}
			data, err := json.Marshal(value)
			if err != nil {
				continue
			}
			select {
			case payloads <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case data, ok := <-payloads:
			if !ok {
				return
			}
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			flusher.Flush()
		case <-heartbeat.C:
			_, _ = c.Writer.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}
