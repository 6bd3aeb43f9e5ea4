package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"notebins/config"
	"notebins/config/database"
	"notebins/handler"
	"notebins/internal/savednote/repository"
	"notebins/internal/savednote/service"
	"notebins/middleware"
	"notebins/pkg/logger"
	"notebins/router"
	"notebins/socket"
	"notebins/store"
)

type savedNoteStore interface {
	service.Repository
	handler.Pinger
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.Sugar.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Init(cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Live notes are kept in a snapshot file unless none is configured.
	var notes store.NoteStore
	if cfg.DataFile != "" {
		notes = store.NewFileStore(cfg.DataFile)
	} else {
		logger.Sugar.Warn("DATA_FILE is empty, live notes will not survive a restart")
		notes = store.NewMemoryStore()
	}

	var saved savedNoteStore
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Sugar.Fatalf("Could not connect to database: %v", err)
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			logger.Sugar.Fatalf("Failed to migrate database: %v", err)
		}
		saved = repository.NewSavedNoteRepository(db)
	} else {
		logger.Sugar.Warn("DATABASE_URL is empty, saved notes are held in memory")
		saved = repository.NewMemoryRepository()
	}

	hub := socket.NewHub(notes)
	go hub.Run(ctx)
	go service.NewSweeper(saved, cfg.SweepInterval).Run(ctx)

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: router.Setup(router.Deps{
			Hub:         hub,
			Notes:       notes,
			SavedNotes:  saved,
			DB:          saved,
			Origins:     middleware.OriginPolicy{Allowed: cfg.AllowedOrigins, Production: cfg.Production()},
			Environment: cfg.Environment,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("HTTP server shutdown failed", zap.Error(err))
		}
	}()

	logger.Log.Info("Server listening",
		zap.String("addr", cfg.Addr),
		zap.String("environment", cfg.Environment),
		zap.Int("liveNotes", notes.Len()),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Sugar.Fatalf("HTTP server error: %v", err)
	}
	logger.Sugar.Info("Server stopped")
}
