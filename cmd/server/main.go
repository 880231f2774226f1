package main

import (
	"context"
	"log"

	"focustimer/backend/internal/config"
	"focustimer/backend/internal/db"
	"focustimer/backend/internal/handler"
	"focustimer/backend/internal/identity"
	"focustimer/backend/internal/model"
	"focustimer/backend/internal/prefs"
	"focustimer/backend/internal/projection"
	"focustimer/backend/internal/recorder"
	"focustimer/backend/internal/router"
	"focustimer/backend/internal/store"
	"focustimer/backend/internal/timer"
)

func main() {
	cfg := config.Load()

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	notifier := store.NewNotifier()
	userRepo := store.NewUserRepository(database)
	recordRepo := store.NewRecordRepository(database)
	prefsRepo := store.NewPreferencesRepository(database)

	identityService := identity.NewService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	sessionRecorder := recorder.New(recordRepo, userRepo, identityService, notifier)

	timers := timer.NewManager(cfg.TickInterval, sessionRecorder.RecordSession, func(userID string) timer.Durations {
		stored, err := prefsRepo.Get(context.Background(), userID)
		if err != nil {
			defaults := model.DefaultPreferences(userID)
			stored = &defaults
		}
		return timer.Durations{
			PomodoroSeconds:   stored.PomodoroDurationSeconds,
			ShortBreakSeconds: stored.ShortBreakDurationSeconds,
			LongBreakSeconds:  stored.LongBreakDurationSeconds,
		}
	})
	defer timers.StopAll()

	prefsService := prefs.NewService(prefsRepo, identityService, notifier, timers)
	projector := projection.New(recordRepo, identityService, notifier)

	authHandler := handler.NewAuthHandler(identityService)
	timerHandler := handler.NewTimerHandler(timers)
	recordsHandler := handler.NewRecordsHandler(sessionRecorder, projector, prefsService)
	prefsHandler := handler.NewPrefsHandler(prefsService)
	streamHandler := handler.NewStreamHandler(projector, prefsService)

	engine := router.New(
		identityService,
		authHandler,
		timerHandler,
		recordsHandler,
		prefsHandler,
		streamHandler,
		cfg.CORSOrigins,
	)

	log.Printf("backend listening on :%s", cfg.Port)
	if err := engine.Run(":" + cfg.Port); err != nil {
		log.Fatalf("run server: %v", err)
	}
}
