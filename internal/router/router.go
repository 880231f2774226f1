package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"focustimer/backend/internal/handler"
	"focustimer/backend/internal/identity"
	"focustimer/backend/internal/middleware"
)

func New(
	identityService *identity.Service,
	authHandler *handler.AuthHandler,
	timerHandler *handler.TimerHandler,
	recordsHandler *handler.RecordsHandler,
	prefsHandler *handler.PrefsHandler,
	streamHandler *handler.StreamHandler,
	corsOrigins []string,
) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/anonymous", authHandler.Anonymous)
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// The timer itself works for any authenticated identity, anonymous
	// included; only recording and ledger reads require registration.
	timer := api.Group("/timer")
	timer.Use(middleware.Auth(identityService))
	timer.GET("/state", timerHandler.State)
	timer.POST("/start", timerHandler.Start)
	timer.POST("/pause", timerHandler.Pause)
	timer.POST("/mode", timerHandler.SwitchMode)
	timer.POST("/add-time", timerHandler.AddTime)
	timer.POST("/subtract-time", timerHandler.SubtractTime)
	timer.POST("/finish", timerHandler.Finish)
	timer.POST("/cancel", timerHandler.Cancel)

	records := api.Group("/records")
	records.Use(middleware.Auth(identityService), middleware.RequireRegistered())
	records.POST("/manual", recordsHandler.Manual)
	records.GET("/stats/hourly", recordsHandler.Hourly)
	records.GET("/stats/range", recordsHandler.Range)
	records.GET("/stats/overall", recordsHandler.Overall)
	records.GET("/sessions", recordsHandler.Sessions)

	preferences := api.Group("/preferences")
	preferences.Use(middleware.Auth(identityService))
	preferences.GET("", prefsHandler.Get)
	preferences.PUT("", middleware.RequireRegistered(), prefsHandler.Update)

	stream := api.Group("/stream")
	stream.Use(middleware.Auth(identityService), middleware.RequireRegistered())
	stream.GET("/stats", streamHandler.Stats)
	stream.GET("/preferences", streamHandler.Preferences)

	return engine
}
