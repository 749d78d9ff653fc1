package itinerary

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/travelx-planner/app/observability/metrics"
	"github.com/FACorreiaa/travelx-planner/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// ErrEmptyCompletion marks a completion that is blank after trimming.
var ErrEmptyCompletion = errors.New("model returned no text")

// Service produces free-text itineraries for a validated trip.
type Service interface {
	Generate(ctx context.Context, req types.ItineraryRequest) types.Result[string]
}

// DefaultGenerationOptions are the sampling parameters for itinerary prompts.
var DefaultGenerationOptions = types.GenerationOptions{
	Model:       "phi3",
	Temperature: 0.9,
	TopP:        0.95,
	MaxTokens:   400,
}

type ServiceImpl struct {
	logger  *slog.Logger
	llm     LLMClient
	backend string
	opts    types.GenerationOptions

	// rng is not safe for concurrent use; mu guards it.
	mu  sync.Mutex
	rng Randomizer
}

// NewServiceImpl builds the generator. A nil rng uses a clock-seeded PCG.
func NewServiceImpl(llm LLMClient, backend string, opts types.GenerationOptions, rng Randomizer, logger *slog.Logger) *ServiceImpl {
	if rng == nil {
		rng = NewRandomizer()
	}
	return &ServiceImpl{
		logger:  logger,
		llm:     llm,
		backend: backend,
		opts:    opts,
		rng:     rng,
	}
}

func (s *ServiceImpl) variant() PromptVariant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pickVariant(s.rng)
}

// Generate returns the trimmed model text. Any transport, status or decoding
// failure is call_failed; a blank completion is no_data.
func (s *ServiceImpl) Generate(ctx context.Context, req types.ItineraryRequest) types.Result[string] {
	v := s.variant()
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "Generate", trace.WithAttributes(
		attribute.String("llm.backend", s.backend),
		attribute.String("llm.model", s.opts.Model),
		attribute.String("itinerary.destination", req.Destination),
		attribute.Int("itinerary.days", req.Days),
		attribute.String("itinerary.style", v.Style),
		attribute.Int("itinerary.seed", v.Seed),
	))
	defer span.End()

	l := s.logger.With(
		slog.String("method", "Generate"),
		slog.String("backend", s.backend),
		slog.String("style", v.Style),
		slog.Int("seed", v.Seed),
	)
	l.DebugContext(ctx, "Requesting itinerary", slog.String("destination", req.Destination), slog.Int("days", req.Days))

	start := time.Now()
	text, err := s.llm.Generate(ctx, BuildPrompt(req, v), s.opts)
	text = strings.TrimSpace(text)

	var res types.Result[string]
	switch {
	case err != nil:
		l.ErrorContext(ctx, "Itinerary generation failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "llm call failed")
		res = types.Absent[string](types.AbsenceCallFailed, err)
	case text == "":
		l.WarnContext(ctx, "Model returned an empty itinerary")
		span.SetStatus(codes.Error, "empty completion")
		res = types.Absent[string](types.AbsenceNoData, ErrEmptyCompletion)
	default:
		span.SetAttributes(attribute.Int("itinerary.length", len(text)))
		span.SetStatus(codes.Ok, "itinerary generated")
		l.InfoContext(ctx, "Itinerary generated", slog.Duration("latency", time.Since(start)))
		res = types.Found(text)
	}

	metrics.Get().RecordUpstream(ctx, "llm", time.Since(start), res.Status())
	return res
}
