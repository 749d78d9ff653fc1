package metrics

import (
	"context"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the planner's metric instruments.
type AppMetrics struct {
	PlanRequestsTotal       metric.Int64Counter
	PlanDurationSeconds     metric.Float64Histogram
	UpstreamDurationSeconds metric.Float64Histogram
	UpstreamAbsencesTotal   metric.Int64Counter
	SessionWritesTotal      metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics creates the instruments once from the global MeterProvider.
// Instruments created before the provider is installed are forwarded to it afterwards.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("TravelX")
		var err error
		m := &AppMetrics{}

		m.PlanRequestsTotal, err = meter.Int64Counter(
			"plan_requests_total",
			metric.WithDescription("Trip planning requests by outcome"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create plan_requests_total: %v", err)
		}

		m.PlanDurationSeconds, err = meter.Float64Histogram(
			"plan_duration_seconds",
			metric.WithDescription("End-to-end duration of the planning pipeline"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create plan_duration_seconds: %v", err)
		}

		m.UpstreamDurationSeconds, err = meter.Float64Histogram(
			"upstream_call_duration_seconds",
			metric.WithDescription("Duration of calls to geocoding, routing, weather and LLM services"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create upstream_call_duration_seconds: %v", err)
		}

		m.UpstreamAbsencesTotal, err = meter.Int64Counter(
			"upstream_absences_total",
			metric.WithDescription("Upstream results converted to an absence, by reason"),
			metric.WithUnit("{result}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create upstream_absences_total: %v", err)
		}

		m.SessionWritesTotal, err = meter.Int64Counter(
			"session_writes_total",
			metric.WithDescription("Trip plans written to the session store"),
			metric.WithUnit("{write}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create session_writes_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the instruments, creating them on first use.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}

// RecordUpstream records one upstream call. status is "ok" or an absence reason.
func (m *AppMetrics) RecordUpstream(ctx context.Context, service string, elapsed time.Duration, status string) {
	attrs := metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("status", status),
	)
	m.UpstreamDurationSeconds.Record(ctx, elapsed.Seconds(), attrs)
	if status != "ok" {
		m.UpstreamAbsencesTotal.Add(ctx, 1, attrs)
	}
}

// RecordPlan records one finished planning run.
func (m *AppMetrics) RecordPlan(ctx context.Context, elapsed time.Duration, outcome string) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.PlanRequestsTotal.Add(ctx, 1, attrs)
	m.PlanDurationSeconds.Record(ctx, elapsed.Seconds(), attrs)
}
