package geocode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/travelx-planner/app/observability/metrics"
	"github.com/FACorreiaa/travelx-planner/internal/api"
	"github.com/FACorreiaa/travelx-planner/internal/types"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org/search"
	DefaultUserAgent = "TravelX-AI/1.0"
	DefaultTimeout   = 10 * time.Second
)

var errNoMatch = errors.New("geocoder returned no matches")

var _ Service = (*ServiceImpl)(nil)

// Service resolves free-text place names to coordinates.
type Service interface {
	Resolve(ctx context.Context, placeName string) types.Result[types.GeoPoint]
}

type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// ServiceImpl talks to a Nominatim-compatible search endpoint.
type ServiceImpl struct {
	logger    *slog.Logger
	client    *http.Client
	baseURL   string
	userAgent string
}

func NewServiceImpl(opts Options, logger *slog.Logger) *ServiceImpl {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &ServiceImpl{
		logger:    logger,
		client:    api.NewHTTPClient(opts.Timeout),
		baseURL:   opts.BaseURL,
		userAgent: opts.UserAgent,
	}
}

type nominatimMatch struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Resolve returns the first match for placeName. Failures are never errors:
// zero matches is no_data, everything else is call_failed.
func (s *ServiceImpl) Resolve(ctx context.Context, placeName string) types.Result[types.GeoPoint] {
	ctx, span := otel.Tracer("GeocodeService").Start(ctx, "Resolve", trace.WithAttributes(
		attribute.String("geocode.query", placeName),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Resolve"), slog.String("place", placeName))
	start := time.Now()

	var res types.Result[types.GeoPoint]
	point, err := s.lookup(ctx, placeName)
	switch {
	case errors.Is(err, errNoMatch):
		l.WarnContext(ctx, "No geocoding match")
		span.SetStatus(codes.Error, "no match")
		res = types.Absent[types.GeoPoint](types.AbsenceNoData, err)
	case err != nil:
		l.ErrorContext(ctx, "Geocoding failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "geocoding failed")
		res = types.Absent[types.GeoPoint](types.AbsenceCallFailed, err)
	default:
		span.SetAttributes(
			attribute.Float64("geocode.lat", point.Lat),
			attribute.Float64("geocode.lon", point.Lon),
		)
		span.SetStatus(codes.Ok, "resolved")
		res = types.Found(point)
	}

	metrics.Get().RecordUpstream(ctx, "geocoder", time.Since(start), res.Status())
	return res
}

func (s *ServiceImpl) lookup(ctx context.Context, placeName string) (types.GeoPoint, error) {
	q := url.Values{}
	q.Set("q", placeName)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return types.GeoPoint{}, fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")

	var matches []nominatimMatch
	if err := api.DoJSON(s.client, req, &matches); err != nil {
		return types.GeoPoint{}, fmt.Errorf("geocode %q: %w", placeName, err)
	}
	if len(matches) == 0 {
		return types.GeoPoint{}, errNoMatch
	}

	lat, err := strconv.ParseFloat(matches[0].Lat, 64)
	if err != nil {
		return types.GeoPoint{}, fmt.Errorf("parse latitude %q: %w", matches[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(matches[0].Lon, 64)
	if err != nil {
		return types.GeoPoint{}, fmt.Errorf("parse longitude %q: %w", matches[0].Lon, err)
	}
	return types.GeoPoint{Lat: lat, Lon: lon}, nil
}
