package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"focustimer/backend/internal/middleware"
	"focustimer/backend/internal/prefs"
)

type PrefsHandler struct {
	prefsService *prefs.Service
}

func NewPrefsHandler(prefsService *prefs.Service) *PrefsHandler {
	return &PrefsHandler{prefsService: prefsService}
}

func (h *PrefsHandler) Get(c *gin.Context) {
	preferences, apiErr := h.prefsService.Get(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"preferences": preferences})
}

// Update applies a partial preference change. The durable write is
// non-blocking: the merged document is returned immediately and the write
// settles in the background.
func (h *PrefsHandler) Update(c *gin.Context) {
	var req prefs.Update
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}

	merged, _, apiErr := h.prefsService.Apply(c.Request.Context(), middleware.UserID(c), req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"preferences": merged})
}
