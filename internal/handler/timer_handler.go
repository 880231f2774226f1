package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"focustimer/backend/internal/middleware"
	"focustimer/backend/internal/timer"
)

type TimerHandler struct {
	timers *timer.Manager
}

type modeRequest struct {
	Mode string `json:"mode"`
}

type deltaRequest struct {
	DeltaSeconds int `json:"deltaSeconds"`
}

func NewTimerHandler(timers *timer.Manager) *TimerHandler {
	return &TimerHandler{timers: timers}
}

func stateResponse(c *gin.Context, snap timer.Snapshot) {
	c.JSON(http.StatusOK, gin.H{
		"state":      snap,
		"serverTime": time.Now().UTC(),
	})
}

func (h *TimerHandler) State(c *gin.Context) {
	stateResponse(c, h.timers.State(middleware.UserID(c)))
}

func (h *TimerHandler) Start(c *gin.Context) {
	snap := h.timers.Start(middleware.UserID(c), time.Now().UTC())
	stateResponse(c, snap)
}

func (h *TimerHandler) Pause(c *gin.Context) {
	stateResponse(c, h.timers.Pause(middleware.UserID(c)))
}

func (h *TimerHandler) SwitchMode(c *gin.Context) {
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}

	snap, ok := h.timers.SetMode(middleware.UserID(c), req.Mode)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{
			"error": gin.H{
				"code":    "mode_change_rejected",
				"message": "mode cannot change while the timer is running",
				"details": gin.H{"state": snap},
			},
		})
		return
	}
	stateResponse(c, snap)
}

func (h *TimerHandler) AddTime(c *gin.Context) {
	var req deltaRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.DeltaSeconds <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_delta", "message": "deltaSeconds must be a positive integer"},
		})
		return
	}
	stateResponse(c, h.timers.AddTime(middleware.UserID(c), req.DeltaSeconds))
}

func (h *TimerHandler) SubtractTime(c *gin.Context) {
	var req deltaRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.DeltaSeconds <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_delta", "message": "deltaSeconds must be a positive integer"},
		})
		return
	}
	stateResponse(c, h.timers.SubtractTime(middleware.UserID(c), req.DeltaSeconds))
}

// Finish ends the run early and records the partial session first. The
// response reports whether the recording committed; the timer resets
// either way.
func (h *TimerHandler) Finish(c *gin.Context) {
	snap, recorded := h.timers.Finish(c.Request.Context(), middleware.UserID(c))
	c.JSON(http.StatusOK, gin.H{
		"state":      snap,
		"recorded":   recorded,
		"serverTime": time.Now().UTC(),
	})
}

// Cancel discards the run without recording anything.
func (h *TimerHandler) Cancel(c *gin.Context) {
	stateResponse(c, h.timers.Cancel(middleware.UserID(c)))
}
