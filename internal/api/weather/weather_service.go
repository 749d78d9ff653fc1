package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
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
	DefaultBaseURL = "https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/timeline"
	DefaultTimeout = 10 * time.Second
)

var errNotConfigured = errors.New("weather API key not configured")

var _ Service = (*ServiceImpl)(nil)

// Service fetches a daily forecast for a location and date range.
type Service interface {
	Fetch(ctx context.Context, location, startDate, endDate string) types.Result[types.WeatherResult]
}

type Options struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// ServiceImpl calls the Visual Crossing timeline API.
type ServiceImpl struct {
	logger  *slog.Logger
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewServiceImpl(opts Options, logger *slog.Logger) *ServiceImpl {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &ServiceImpl{
		logger:  logger,
		client:  api.NewHTTPClient(opts.Timeout),
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  strings.TrimSpace(opts.APIKey),
	}
}

// Configured reports whether an API key is set.
func (s *ServiceImpl) Configured() bool {
	return s.apiKey != ""
}

// Fetch returns the provider payload for [startDate, endDate] at location.
// Dates are YYYY-MM-DD. Without an API key no request is made.
func (s *ServiceImpl) Fetch(ctx context.Context, location, startDate, endDate string) types.Result[types.WeatherResult] {
	ctx, span := otel.Tracer("WeatherService").Start(ctx, "Fetch", trace.WithAttributes(
		attribute.String("weather.location", location),
		attribute.String("weather.start_date", startDate),
		attribute.String("weather.end_date", endDate),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Fetch"), slog.String("location", location))

	if !s.Configured() {
		l.DebugContext(ctx, "Weather lookup skipped, no API key")
		span.SetStatus(codes.Ok, "not configured")
		return types.Absent[types.WeatherResult](types.AbsenceNotConfigured, errNotConfigured)
	}

	start := time.Now()
	var res types.Result[types.WeatherResult]
	forecast, err := s.fetch(ctx, location, startDate, endDate)
	if err != nil {
		l.ErrorContext(ctx, "Weather API error", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "weather fetch failed")
		res = types.Absent[types.WeatherResult](types.AbsenceCallFailed, err)
	} else {
		span.SetAttributes(attribute.Int("weather.days", len(forecast.Days)))
		span.SetStatus(codes.Ok, "forecast fetched")
		res = types.Found(*forecast)
	}

	metrics.Get().RecordUpstream(ctx, "weather", time.Since(start), res.Status())
	return res
}

func (s *ServiceImpl) fetch(ctx context.Context, location, startDate, endDate string) (*types.WeatherResult, error) {
	q := url.Values{}
	q.Set("unitGroup", "metric")
	q.Set("include", "days")
	q.Set("key", s.apiKey)
	q.Set("contentType", "json")

	endpoint := fmt.Sprintf("%s/%s/%s/%s?%s",
		s.baseURL, url.PathEscape(location), url.PathEscape(startDate), url.PathEscape(endDate), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build weather request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := api.Do(s.client, req)
	if err != nil {
		// The key travels in the query string; never log the raw URL.
		return nil, fmt.Errorf("weather for %q: %w", location, redactKey(err, s.apiKey))
	}
	forecast, err := types.ParseWeatherResult(body)
	if err != nil {
		return nil, fmt.Errorf("weather for %q: %w", location, err)
	}
	return forecast, nil
}

type redactedError struct {
	msg   string
	cause error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.cause }

// redactKey strips the API key from transport errors, which embed the request URL.
func redactKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), key, "REDACTED"), cause: err}
}
