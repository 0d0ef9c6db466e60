package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/db"
	"github.com/monocle-dev/taskboard/internal/auth"
	"github.com/monocle-dev/taskboard/internal/comments"
	"github.com/monocle-dev/taskboard/internal/config"
	"github.com/monocle-dev/taskboard/internal/handlers"
	"github.com/monocle-dev/taskboard/internal/logging"
	"github.com/monocle-dev/taskboard/internal/projects"
	"github.com/monocle-dev/taskboard/internal/realtime"
	"github.com/monocle-dev/taskboard/internal/router"
	"github.com/monocle-dev/taskboard/internal/scheduler"
	"github.com/monocle-dev/taskboard/internal/tasks"
	"github.com/monocle-dev/taskboard/internal/users"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logger, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer logger.Sync()

	conn, err := db.Open(cfg, logger)
	if err != nil {
		logger.Fatalw("failed to connect to database", "error", err)
	}
	defer func() {
		if err := db.Close(conn); err != nil {
			logger.Errorw("failed to close database", "error", err)
		}
	}()

	if err := db.Migrate(conn); err != nil {
		logger.Fatalw("failed to migrate database", "error", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	origins := cfg.Origins()
	hub := realtime.NewHub(logger, origins)
	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	userService := users.NewService(conn, logger, tokens)

	sweeper := scheduler.NewSweeper(conn, logger, hub, cfg.OverdueSweepInterval)

	h := handlers.New(handlers.Deps{
		Log:      logger,
		Tasks:    tasks.NewService(conn, logger, hub),
		Projects: projects.NewService(conn, logger),
		Users:    userService,
		Comments: comments.NewService(conn, logger),
		Hub:      hub,
		Sweeper:  sweeper,
	})

	r := router.NewRouter(router.Options{
		Log:            logger,
		AllowedOrigins: origins,
		Tokens:         tokens,
		Users:          userService,
		Handler:        h,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweeper.Start(context.Background())

	go func() {
		logger.Infow("server listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorw("server shutdown failed", "error", err)
	}

	sweeper.Stop()
	logger.Info("server stopped")
}
