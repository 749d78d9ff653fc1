package route

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/umahmood/haversine"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/travelx-planner/app/observability/metrics"
	"github.com/FACorreiaa/travelx-planner/internal/api"
	"github.com/FACorreiaa/travelx-planner/internal/api/geocode"
	"github.com/FACorreiaa/travelx-planner/internal/types"
)

const (
	DefaultBaseURL = "https://router.project-osrm.org"
	DefaultTimeout = 15 * time.Second
)

var (
	errNoRoute       = errors.New("routing service returned no routes")
	errMalformedLeg  = errors.New("route candidate is malformed")
	nullGeometryJSON = []byte("null")
)

var _ Service = (*ServiceImpl)(nil)

// Service computes driving routes between two named places.
type Service interface {
	Route(ctx context.Context, source, destination string) types.Result[types.RouteResult]
}

type Options struct {
	BaseURL string
	Timeout time.Duration
}

// ServiceImpl geocodes both ends and asks an OSRM server for the driving route.
type ServiceImpl struct {
	logger   *slog.Logger
	client   *http.Client
	baseURL  string
	geocoder geocode.Service
}

func NewServiceImpl(geocoder geocode.Service, opts Options, logger *slog.Logger) *ServiceImpl {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &ServiceImpl{
		logger:   logger,
		client:   api.NewHTTPClient(opts.Timeout),
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		geocoder: geocoder,
	}
}

type osrmResponse struct {
	Code   string      `json:"code"`
	Routes []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Distance *float64       `json:"distance"`
	Duration *float64       `json:"duration"`
	Geometry json.RawMessage `json:"geometry"`
}

// Route resolves both names and returns the best-ranked driving route.
// If either name cannot be resolved the result is absent with the geocoder's reason.
func (s *ServiceImpl) Route(ctx context.Context, source, destination string) types.Result[types.RouteResult] {
	ctx, span := otel.Tracer("RouteService").Start(ctx, "Route", trace.WithAttributes(
		attribute.String("route.source", source),
		attribute.String("route.destination", destination),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Route"), slog.String("source", source), slog.String("destination", destination))

	from := s.geocoder.Resolve(ctx, source)
	to := s.geocoder.Resolve(ctx, destination)
	if !from.Ok() || !to.Ok() {
		miss := from
		if from.Ok() {
			miss = to
		}
		l.WarnContext(ctx, "Route skipped, endpoint could not be geocoded",
			slog.String("source_status", from.Status()),
			slog.String("destination_status", to.Status()))
		span.SetStatus(codes.Error, "geocoding failed")
		return types.Absent[types.RouteResult](miss.Reason, miss.Err)
	}

	start := time.Now()
	var res types.Result[types.RouteResult]
	result, err := s.fetch(ctx, from.Value, to.Value)
	switch {
	case errors.Is(err, errNoRoute):
		l.WarnContext(ctx, "No driving route found")
		span.SetStatus(codes.Error, "no route")
		res = types.Absent[types.RouteResult](types.AbsenceNoData, err)
	case err != nil:
		l.ErrorContext(ctx, "Routing failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "routing failed")
		res = types.Absent[types.RouteResult](types.AbsenceCallFailed, err)
	default:
		span.SetAttributes(
			attribute.Float64("route.distance_km", result.DistanceKm),
			attribute.Float64("route.duration_hr", result.DurationHr),
		)
		span.SetStatus(codes.Ok, "route computed")
		res = types.Found(result)
	}

	metrics.Get().RecordUpstream(ctx, "router", time.Since(start), res.Status())
	return res
}

func (s *ServiceImpl) fetch(ctx context.Context, from, to types.GeoPoint) (types.RouteResult, error) {
	endpoint := fmt.Sprintf("%s/route/v1/driving/%s;%s?overview=full&geometries=geojson",
		s.baseURL, from.LonLat(), to.LonLat())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return types.RouteResult{}, fmt.Errorf("build route request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var body osrmResponse
	if err := api.DoJSON(s.client, req, &body); err != nil {
		return types.RouteResult{}, fmt.Errorf("route: %w", err)
	}
	if len(body.Routes) == 0 {
		return types.RouteResult{}, errNoRoute
	}

	best := body.Routes[0]
	if best.Distance == nil || best.Duration == nil || *best.Distance < 0 || *best.Duration < 0 {
		return types.RouteResult{}, fmt.Errorf("%w: missing or negative distance/duration", errMalformedLeg)
	}
	if len(best.Geometry) == 0 || bytes.Equal(best.Geometry, nullGeometryJSON) {
		return types.RouteResult{}, fmt.Errorf("%w: missing geometry", errMalformedLeg)
	}

	_, straightKm := haversine.Distance(
		haversine.Coord{Lat: from.Lat, Lon: from.Lon},
		haversine.Coord{Lat: to.Lat, Lon: to.Lon},
	)

	return types.RouteResult{
		Source:         from,
		Destination:    to,
		DistanceKm:     roundOneDecimal(*best.Distance / 1000),
		DurationHr:     roundOneDecimal(*best.Duration / 3600),
		StraightLineKm: roundOneDecimal(straightKm),
		Geometry:       best.Geometry,
	}, nil
}

func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
