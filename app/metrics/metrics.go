package metrics

import (
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	LoginRequestsTotal        metric.Int64Counter
	SignupRequestsTotal       metric.Int64Counter
	StoreQueryDurationSeconds metric.Float64Histogram
	StoreQueryErrorsTotal     metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// SetupMeterProvider wires the otel meter provider to a dedicated
// prometheus registry and returns the registry for the /metrics handler.
func SetupMeterProvider() (*prometheus.Registry, error) {
	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	return registry, nil
}

// InitAppMetrics initializes the global metric instruments once.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("devfolio-api")
		var err error
		m := &AppMetrics{}

		m.LoginRequestsTotal, err = meter.Int64Counter(
			"login_requests_total",
			metric.WithDescription("Total number of login requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create login_requests_total: %v", err)
		}

		m.SignupRequestsTotal, err = meter.Int64Counter(
			"signup_requests_total",
			metric.WithDescription("Total number of signup requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create signup_requests_total: %v", err)
		}

		m.StoreQueryDurationSeconds, err = meter.Float64Histogram(
			"store_query_duration_seconds",
			metric.WithDescription("Duration of credential store queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create store_query_duration_seconds: %v", err)
		}

		m.StoreQueryErrorsTotal, err = meter.Int64Counter(
			"store_query_errors_total",
			metric.WithDescription("Total number of credential store query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create store_query_errors_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance. InitAppMetrics
// must have been called at startup.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics.InitAppMetrics must be called before metrics.Get")
	}
	return appMetrics
}

// Handler serves the prometheus registry over HTTP.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
