package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hservice/internal/api"
	"hservice/internal/app"
	"hservice/internal/auth"
	"hservice/internal/config"
	"hservice/internal/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load(os.Getenv(config.EnvConfigPath))
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Env:   cfg.BasicConfig.Env,
		Level: cfg.BasicConfig.LogLevel,
	})
	log.Info().
		Str("env", cfg.BasicConfig.Env).
		Str("processor", cfg.BasicConfig.Processor).
		Msg("starting hservice")

	ctx := context.Background()
	repo, closeCatalog, err := app.OpenCatalog(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open catalog")
	}
	defer closeCatalog()

	processor, err := app.BuildProcessor(ctx, cfg, repo, log)
	if err != nil {
		log.Fatal().Err(err).Msg("build dialogue processor")
	}

	turns, closeTurns, err := app.OpenTurnLog(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open turn log")
	}
	defer closeTurns()

	authService := auth.NewService(cfg.Auth, auth.DefaultTokenTTL)
	if !authService.Enabled() {
		log.Warn().Msg("auth.secret not set, /chat is unauthenticated")
	}

	handlers := api.NewHandler(api.Deps{
		Processor:     processor,
		ProcessorName: cfg.BasicConfig.Processor,
		Catalog:       repo,
		Turns:         turns,
		Auth:          authService,
		Logger:        log,
	})
	if cfg.BasicConfig.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(log)
	handlers.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.BasicConfig.ServerAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
	}
}
