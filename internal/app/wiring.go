package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hservice/internal/catalog"
	"hservice/internal/config"
	"hservice/internal/dialogue"
	"hservice/internal/llm"
	"hservice/internal/redis"
	"hservice/internal/storage"
	"hservice/internal/turnlog"

	"github.com/rs/zerolog"
)

// OpenCatalog returns the configured product catalog and a close func.
// Without a database it serves the built-in product list.
func OpenCatalog(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (catalog.Repository, func(), error) {
	name := cfg.BasicConfig.Database
	if name == "" {
		return catalog.NewMemoryRepository(catalog.MockProducts()), func() {}, nil
	}
	db, driver, err := storage.Open(name, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := storage.Migrate(db, driver); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	seeded, err := catalog.Seed(ctx, db, driver, catalog.MockProducts())
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	if seeded > 0 {
		logger.Info().Int("rows", seeded).Str("driver", driver).Msg("seeded product catalog")
	}
	return catalog.NewSQLRepository(db, driver), func() { db.Close() }, nil
}

// BuildProcessor selects the dialogue backend named by basic_config.processor.
func BuildProcessor(ctx context.Context, cfg *config.Config, repo catalog.Repository, logger zerolog.Logger) (dialogue.Processor, error) {
	switch strings.ToLower(cfg.BasicConfig.Processor) {
	case "mock":
		seed := cfg.BasicConfig.MockSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return dialogue.NewMockProcessor(seed), nil
	case "llm":
		chatModel, err := llm.FromConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		pacer := dialogue.NewPacer(cfg.BasicConfig.PacingInterval())
		opts := []dialogue.LLMOption{
			dialogue.WithPacer(pacer),
			dialogue.WithTimeout(cfg.BasicConfig.RequestTimeout()),
			dialogue.WithLogger(logger.With().Str("provider", cfg.BasicConfig.Provider).Logger()),
		}
		if cfg.BasicConfig.ProductAware && repo != nil {
			opts = append(opts, dialogue.WithCatalog(repo))
		}
		processor, err := dialogue.NewLLMProcessor(chatModel, opts...)
		if err != nil {
			return nil, err
		}
		logger.Info().
			Str("provider", cfg.BasicConfig.Provider).
			Dur("pacing", pacer.Interval()).
			Dur("timeout", cfg.BasicConfig.RequestTimeout()).
			Bool("product_aware", cfg.BasicConfig.ProductAware).
			Msg("llm processor ready")
		return processor, nil
	default:
		return nil, fmt.Errorf("unknown processor %q", cfg.BasicConfig.Processor)
	}
}

// OpenTurnLog uses redis when enabled and falls back to memory.
func OpenTurnLog(cfg *config.Config, logger zerolog.Logger) (turnlog.Recorder, func(), error) {
	if !cfg.Redis.Enabled {
		return turnlog.NewMemoryRecorder(0), func() {}, nil
	}
	client, err := redis.NewRedisClient(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create redis client: %w", err)
	}
	logger.Info().Str("host", cfg.Redis.Host).Int("port", cfg.Redis.Port).Msg("turn log backed by redis")
	return turnlog.NewRedisRecorder(client, turnlog.DefaultTicketTTL), func() { client.Close() }, nil
}
