package app

import (
	"context"
	"testing"

	"hservice/internal/catalog"
	"hservice/internal/config"
	"hservice/internal/dialogue"
	"hservice/internal/turnlog"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCatalogDefaultsToMemory(t *testing.T) {
	repo, closeFn, err := OpenCatalog(context.Background(), &config.Config{}, zerolog.Nop())
	require.NoError(t, err)
	defer closeFn()
	_, ok := repo.(*catalog.MemoryRepository)
	assert.True(t, ok)
}

func TestOpenCatalogSQLiteSeeds(t *testing.T) {
	cfg := &config.Config{
		BasicConfig: config.BasicConfig{Database: "sqlite3"},
		Databases:   map[string]config.DatabaseConfig{"sqlite3": {DSN: ":memory:"}},
	}
	repo, closeFn, err := OpenCatalog(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer closeFn()

	products, err := repo.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 4)
}

func TestBuildProcessor(t *testing.T) {
	cfg := &config.Config{BasicConfig: config.BasicConfig{Processor: "mock", MockSeed: 5}}
	p, err := BuildProcessor(context.Background(), cfg, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &dialogue.MockProcessor{}, p)

	cfg = &config.Config{
		BasicConfig: config.BasicConfig{Processor: "llm", Provider: "mistral", ProductAware: true},
		Providers:   map[string]config.ProviderConfig{"mistral": {APIKey: "test-key"}},
	}
	p, err = BuildProcessor(context.Background(), cfg, catalog.NewMemoryRepository(nil), zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &dialogue.LLMProcessor{}, p)

	cfg.BasicConfig.Processor = "oracle"
	_, err = BuildProcessor(context.Background(), cfg, nil, zerolog.Nop())
	assert.Error(t, err)
}

func TestOpenTurnLogWithoutRedis(t *testing.T) {
	rec, closeFn, err := OpenTurnLog(&config.Config{}, zerolog.Nop())
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &turnlog.MemoryRecorder{}, rec)
}
