package container

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"

	appMiddleware "github.com/FACorreiaa/travelx-planner/app/middleware"
	"github.com/FACorreiaa/travelx-planner/config"
	generativeAI "github.com/FACorreiaa/travelx-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/travelx-planner/internal/api/geocode"
	"github.com/FACorreiaa/travelx-planner/internal/api/itinerary"
	"github.com/FACorreiaa/travelx-planner/internal/api/route"
	"github.com/FACorreiaa/travelx-planner/internal/api/session"
	"github.com/FACorreiaa/travelx-planner/internal/api/trip"
	"github.com/FACorreiaa/travelx-planner/internal/api/weather"
	"github.com/FACorreiaa/travelx-planner/internal/router"
	"github.com/FACorreiaa/travelx-planner/internal/types"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *slog.Logger
	SessionStore session.Store
	TripService  *trip.ServiceImpl
	TripHandler  *trip.HandlerImpl

	redis *redis.Client
}

// Overrides replaces collaborators; tests use it to inject a deterministic
// randomizer or a custom LLM client.
type Overrides struct {
	LLM        itinerary.LLMClient
	Randomizer itinerary.Randomizer
	Store      session.Store
}

// NewContainer initializes and returns a new dependency container
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, o Overrides) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	store, err := c.sessionStore(ctx, o.Store)
	if err != nil {
		return nil, err
	}
	c.SessionStore = store

	llm, backend, err := newLLMClient(ctx, cfg.Itinerary, o.LLM)
	if err != nil {
		return nil, err
	}

	geocoder := geocode.NewServiceImpl(geocode.Options{
		BaseURL:   cfg.Geocoder.BaseURL,
		UserAgent: cfg.Geocoder.UserAgent,
		Timeout:   cfg.Geocoder.Timeout,
	}, logger)
	routeService := route.NewServiceImpl(geocoder, route.Options{
		BaseURL: cfg.Router.BaseURL,
		Timeout: cfg.Router.Timeout,
	}, logger)
	weatherService := weather.NewServiceImpl(weather.Options{
		APIKey:  cfg.Weather.APIKey,
		BaseURL: cfg.Weather.BaseURL,
		Timeout: cfg.Weather.Timeout,
	}, logger)
	if !weatherService.Configured() {
		logger.Warn("WEATHER_API_KEY not set, plans will not include weather")
	}

	itineraryService := itinerary.NewServiceImpl(llm, backend, generationOptions(cfg.Itinerary), o.Randomizer, logger)

	c.TripService = trip.NewServiceImpl(itineraryService, weatherService, routeService, store, cfg.Planner.ParallelLookups, logger)
	c.TripHandler = trip.NewHandlerImpl(c.TripService, logger)
	return c, nil
}

// Handler returns the API router with session handling attached.
func (c *Container) Handler() http.Handler {
	return router.SetupRouter(&router.Config{
		TripHandler: c.TripHandler,
		SessionMiddleware: appMiddleware.Session(appMiddleware.SessionOptions{
			Secret:     []byte(c.Config.Session.SecretKey),
			CookieName: c.Config.Session.CookieName,
			TTL:        c.Config.Session.TTL,
			Secure:     c.Config.Session.SecureCookie,
		}, c.Logger),
		AllowedOrigins: c.Config.Server.AllowedOrigins,
	})
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.redis != nil {
		_ = c.redis.Close()
	}
}

func (c *Container) sessionStore(ctx context.Context, override session.Store) (session.Store, error) {
	if override != nil {
		return override, nil
	}
	sc := c.Config.Session
	switch strings.ToLower(sc.Store) {
	case "", "memory":
		c.Logger.Info("Using in-memory session store", slog.Duration("ttl", sc.TTL))
		return session.NewMemoryStore(sc.TTL, sc.CleanupInterval), nil
	case "redis":
		c.redis = session.NewRedisClient(sc.Redis.Addr, sc.Redis.Password, sc.Redis.DB)
		store := session.NewRedisStore(c.redis, sc.Redis.KeyPrefix, sc.TTL)
		if err := store.Ping(ctx); err != nil {
			return nil, fmt.Errorf("connect session redis at %s: %w", sc.Redis.Addr, err)
		}
		c.Logger.Info("Using redis session store", slog.String("addr", sc.Redis.Addr), slog.Duration("ttl", sc.TTL))
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session store %q", sc.Store)
	}
}

func newLLMClient(ctx context.Context, ic config.ItineraryConfig, override itinerary.LLMClient) (itinerary.LLMClient, string, error) {
	if override != nil {
		return override, "custom", nil
	}
	switch strings.ToLower(ic.Provider) {
	case "", "ollama":
		return itinerary.NewOllamaClient(ic.OllamaURL, ic.Timeout), "ollama", nil
	case "gemini":
		client, err := generativeAI.NewAIClient(ctx, ic.GeminiAPIKey, ic.GeminiModel, "")
		if err != nil {
			return nil, "", err
		}
		return client, "gemini", nil
	default:
		return nil, "", fmt.Errorf("unknown itinerary provider %q", ic.Provider)
	}
}

func generationOptions(ic config.ItineraryConfig) types.GenerationOptions {
	opts := itinerary.DefaultGenerationOptions
	if ic.Model != "" {
		opts.Model = ic.Model
	}
	if ic.Temperature > 0 {
		opts.Temperature = ic.Temperature
	}
	if ic.TopP > 0 {
		opts.TopP = ic.TopP
	}
	if ic.MaxTokens > 0 {
		opts.MaxTokens = ic.MaxTokens
	}
	return opts
}
