package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"focustimer/backend/internal/middleware"
	"focustimer/backend/internal/model"
	"focustimer/backend/internal/prefs"
	"focustimer/backend/internal/projection"
	"focustimer/backend/internal/recorder"
)

type RecordsHandler struct {
	recorder  *recorder.Recorder
	projector *projection.Projector
	prefs     *prefs.Service
}

type manualEntryRequest struct {
	StartTime       time.Time `json:"startTime"`
	DurationMinutes float64   `json:"durationMinutes"`
}

func NewRecordsHandler(rec *recorder.Recorder, projector *projection.Projector, prefsService *prefs.Service) *RecordsHandler {
	return &RecordsHandler{recorder: rec, projector: projector, prefs: prefsService}
}

// Manual records a past session the user entered by hand.
func (h *RecordsHandler) Manual(c *gin.Context) {
	var req manualEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.StartTime.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "startTime and durationMinutes are required"},
		})
		return
	}

	apiErr := h.recorder.RecordManual(c.Request.Context(), middleware.UserID(c), req.StartTime, req.DurationMinutes)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"recorded": true})
}

func (h *RecordsHandler) Hourly(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().UTC().Format(model.DateFormat)
	}

	buckets, apiErr := h.projector.Hourly(c.Request.Context(), middleware.UserID(c), date)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "hourlyMinutes": buckets})
}

// Range serves the date-range series. Without explicit bounds it covers
// the current week, starting on the user's configured weekday.
func (h *RecordsHandler) Range(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")
	if from == "" && to == "" {
		preferences, apiErr := h.prefs.Get(c.Request.Context(), middleware.UserID(c))
		if apiErr != nil {
			writeError(c, apiErr)
			return
		}
		from, to = projection.WeekWindow(time.Now().UTC(), preferences.WeekStartsOn)
	} else if from == "" || to == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_range", "message": "from and to must be supplied together"},
		})
		return
	}

	series, apiErr := h.projector.Range(c.Request.Context(), middleware.UserID(c), from, to)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"series": series})
}

func (h *RecordsHandler) Overall(c *gin.Context) {
	totals, apiErr := h.projector.Overall(c.Request.Context(), middleware.UserID(c), c.Query("from"), c.Query("to"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"totals": totals})
}

func (h *RecordsHandler) Sessions(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().UTC().Format(model.DateFormat)
	}

	entries, apiErr := h.projector.Sessions(c.Request.Context(), middleware.UserID(c), date)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "sessions": entries})
}
