package container

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/travelx-planner/config"
	generativeAI "github.com/FACorreiaa/travelx-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/travelx-planner/internal/api/session"
	"github.com/FACorreiaa/travelx-planner/internal/types"
)

func baseConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Session = config.SessionConfig{
		SecretKey:       "secret",
		Store:           "memory",
		TTL:             time.Hour,
		CleanupInterval: time.Minute,
		CookieName:      "travelx_session",
	}
	cfg.Itinerary.Provider = "ollama"
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewContainer(t *testing.T) {
	ctx := context.Background()

	t.Run("memory store by default", func(t *testing.T) {
		c, err := NewContainer(ctx, baseConfig(), discardLogger(), Overrides{})
		require.NoError(t, err)
		defer c.Close()
		assert.IsType(t, &session.MemoryStore{}, c.SessionStore)
		assert.NotNil(t, c.TripHandler)
		assert.NotNil(t, c.Handler())
	})

	t.Run("redis store", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := baseConfig()
		cfg.Session.Store = "redis"
		cfg.Session.Redis.Addr = mr.Addr()
		cfg.Session.Redis.KeyPrefix = "travelx:plan:"

		c, err := NewContainer(ctx, cfg, discardLogger(), Overrides{})
		require.NoError(t, err)
		defer c.Close()
		require.IsType(t, &session.RedisStore{}, c.SessionStore)

		require.NoError(t, c.SessionStore.Save(ctx, "sid", &types.TripPlan{Destination: "Pune"}))
		assert.True(t, mr.Exists("travelx:plan:sid"))
	})

	t.Run("unreachable redis fails startup", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Session.Store = "redis"
		cfg.Session.Redis.Addr = "127.0.0.1:1"
		_, err := NewContainer(ctx, cfg, discardLogger(), Overrides{})
		assert.Error(t, err)
	})

	t.Run("unknown store", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Session.Store = "etcd"
		_, err := NewContainer(ctx, cfg, discardLogger(), Overrides{})
		assert.ErrorContains(t, err, `unknown session store "etcd"`)
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Itinerary.Provider = "gpt"
		_, err := NewContainer(ctx, cfg, discardLogger(), Overrides{})
		assert.ErrorContains(t, err, `unknown itinerary provider "gpt"`)
	})

	t.Run("gemini requires a key", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Itinerary.Provider = "gemini"
		_, err := NewContainer(ctx, cfg, discardLogger(), Overrides{})
		assert.ErrorIs(t, err, generativeAI.ErrMissingAPIKey)
	})
}

func TestGenerationOptions(t *testing.T) {
	got := generationOptions(config.ItineraryConfig{})
	assert.Equal(t, types.GenerationOptions{Model: "phi3", Temperature: 0.9, TopP: 0.95, MaxTokens: 400}, got)

	got = generationOptions(config.ItineraryConfig{Model: "llama3", Temperature: 0.2, TopP: 0.5, MaxTokens: 800})
	assert.Equal(t, types.GenerationOptions{Model: "llama3", Temperature: 0.2, TopP: 0.5, MaxTokens: 800}, got)
}
