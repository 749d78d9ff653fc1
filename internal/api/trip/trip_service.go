package trip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/travelx-planner/app/observability/metrics"
	"github.com/FACorreiaa/travelx-planner/internal/api/itinerary"
	"github.com/FACorreiaa/travelx-planner/internal/api/route"
	"github.com/FACorreiaa/travelx-planner/internal/api/session"
	"github.com/FACorreiaa/travelx-planner/internal/api/weather"
	"github.com/FACorreiaa/travelx-planner/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service is the trip planning pipeline and its session handoff.
type Service interface {
	Plan(ctx context.Context, req types.TripRequest) (*types.TripPlan, error)
	PlanForSession(ctx context.Context, sessionID string, req types.TripRequest) (*types.TripPlan, error)
	SessionPlan(ctx context.Context, sessionID string) (*types.TripPlan, error)
	ClearSession(ctx context.Context, sessionID string) error
}

type ServiceImpl struct {
	logger    *slog.Logger
	itinerary itinerary.Service
	weather   weather.Service
	router    route.Service
	store     session.Store
	parallel  bool
	now       func() time.Time
}

// NewServiceImpl wires the pipeline. With parallel set, weather and route
// lookups run concurrently once the itinerary exists.
func NewServiceImpl(
	itinerarySvc itinerary.Service,
	weatherSvc weather.Service,
	routeSvc route.Service,
	store session.Store,
	parallel bool,
	logger *slog.Logger,
) *ServiceImpl {
	return &ServiceImpl{
		logger:    logger,
		itinerary: itinerarySvc,
		weather:   weatherSvc,
		router:    routeSvc,
		store:     store,
		parallel:  parallel,
		now:       time.Now,
	}
}

// Plan validates the request, generates the itinerary and attaches weather
// and route data. Only validation and itinerary failures are errors; missing
// weather or route is reported through the plan's status fields.
func (s *ServiceImpl) Plan(ctx context.Context, req types.TripRequest) (*types.TripPlan, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "Plan", trace.WithAttributes(
		attribute.String("trip.source", req.Source),
		attribute.String("trip.destination", req.Destination),
		attribute.Bool("trip.parallel_lookups", s.parallel),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Plan"))
	start := time.Now()
	outcome := "ok"
	defer func() {
		metrics.Get().RecordPlan(ctx, time.Since(start), outcome)
	}()

	trip, err := Validate(req)
	if err != nil {
		outcome = "rejected"
		l.InfoContext(ctx, "Rejected trip request", slog.Any("error", err))
		span.SetStatus(codes.Error, "invalid request")
		return nil, err
	}
	span.SetAttributes(attribute.Int("trip.days", trip.Days))
	l = l.With(slog.String("source", trip.Source), slog.String("destination", trip.Destination), slog.Int("days", trip.Days))

	itin := s.itinerary.Generate(ctx, trip)
	if !itin.Ok() {
		outcome = "itinerary_failed"
		l.ErrorContext(ctx, "Aborting plan, no itinerary",
			slog.String("reason", itin.Status()),
			slog.Any("error", itin.Err))
		span.RecordError(ErrItineraryGenerationFailed)
		span.SetStatus(codes.Error, "itinerary generation failed")
		return nil, fmt.Errorf("%w: %s", ErrItineraryGenerationFailed, itin.Status())
	}

	forecast, directions := s.lookups(ctx, trip)

	plan := &types.TripPlan{
		Itinerary:     itinerary.FormatItinerary(itin.Value),
		Source:        trip.Source,
		Destination:   trip.Destination,
		StartDate:     trip.StartDate,
		EndDate:       trip.EndDate,
		Days:          trip.Days,
		Weather:       forecast.Ptr(),
		WeatherStatus: forecast.Status(),
		Route:         directions.Ptr(),
		RouteStatus:   directions.Status(),
		CreatedAt:     s.now().UTC(),
	}

	span.SetAttributes(
		attribute.String("trip.weather_status", plan.WeatherStatus),
		attribute.String("trip.route_status", plan.RouteStatus),
	)
	span.SetStatus(codes.Ok, "plan assembled")
	l.InfoContext(ctx, "Trip planned",
		slog.String("weather_status", plan.WeatherStatus),
		slog.String("route_status", plan.RouteStatus))
	return plan, nil
}

// lookups runs the two best-effort calls. Each result lands in its own
// variable, so completion order never affects the plan.
func (s *ServiceImpl) lookups(ctx context.Context, trip types.ItineraryRequest) (types.Result[types.WeatherResult], types.Result[types.RouteResult]) {
	var forecast types.Result[types.WeatherResult]
	var directions types.Result[types.RouteResult]

	if !s.parallel {
		forecast = s.weather.Fetch(ctx, trip.Destination, trip.StartDate, trip.EndDate)
		directions = s.router.Route(ctx, trip.Source, trip.Destination)
		return forecast, directions
	}

	var g errgroup.Group
	g.Go(func() error {
		forecast = s.weather.Fetch(ctx, trip.Destination, trip.StartDate, trip.EndDate)
		return nil
	})
	g.Go(func() error {
		directions = s.router.Route(ctx, trip.Source, trip.Destination)
		return nil
	})
	_ = g.Wait()
	return forecast, directions
}

// PlanForSession plans the trip and replaces the session's stored plan.
// Nothing is stored when planning fails.
func (s *ServiceImpl) PlanForSession(ctx context.Context, sessionID string, req types.TripRequest) (*types.TripPlan, error) {
	plan, err := s.Plan(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, sessionID, plan); err != nil {
		s.logger.ErrorContext(ctx, "Failed to store plan in session",
			slog.String("session_id", sessionID),
			slog.Any("error", err))
		return nil, fmt.Errorf("store plan: %w", err)
	}
	metrics.Get().SessionWritesTotal.Add(ctx, 1)
	return plan, nil
}

// SessionPlan is the dashboard read. A missing or expired plan is ErrSessionExpired.
func (s *ServiceImpl) SessionPlan(ctx context.Context, sessionID string) (*types.TripPlan, error) {
	plan, err := s.store.Load(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	return plan, nil
}

func (s *ServiceImpl) ClearSession(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("clear plan: %w", err)
	}
	return nil
}
