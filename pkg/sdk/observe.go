package sdk

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for the calls counter.
const (
	outcomeOK          = "ok"
	outcomeClientError = "client_error"
	outcomeServerError = "server_error"
	outcomeTransport   = "transport_error"
)

type callMetrics struct {
	calls    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

func newCallMetrics(reg prometheus.Registerer) (*callMetrics, error) {
	m := &callMetrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "searchlang",
			Subsystem: "sdk",
			Name:      "calls_total",
			Help:      "SDK calls by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "searchlang",
			Subsystem: "sdk",
			Name:      "call_duration_seconds",
			Help:      "SDK call latency including the HTTP round-trip.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"endpoint"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "searchlang",
			Subsystem: "sdk",
			Name:      "calls_in_flight",
			Help:      "SDK calls currently waiting on the server.",
		}),
	}
	if err := reuseOrRegister(reg, &m.calls); err != nil {
		return nil, err
	}
	if err := reuseOrRegister(reg, &m.latency); err != nil {
		return nil, err
	}
	if err := reuseOrRegister(reg, &m.inFlight); err != nil {
		return nil, err
	}
	return m, nil
}

// reuseOrRegister lets several clients share one registry.
func reuseOrRegister[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("searchlang sdk: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("searchlang sdk: %T already registered under this name", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// observer logs and counts SDK calls. A nil observer is a no-op.
type observer struct {
	logger  *slog.Logger
	metrics *callMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newCallMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// begin marks a call to endpoint as started. The returned func must be
// called exactly once with the call's result.
func (o *observer) begin(endpoint string) func(err error) {
	if o == nil {
		return func(error) {}
	}
	start := time.Now()
	if o.metrics != nil {
		o.metrics.inFlight.Inc()
	}

	return func(err error) {
		dur := time.Since(start)
		out := outcome(err)

		if o.metrics != nil {
			o.metrics.inFlight.Dec()
			o.metrics.calls.WithLabelValues(endpoint, out).Inc()
			o.metrics.latency.WithLabelValues(endpoint).Observe(dur.Seconds())
		}
		if o.logger == nil {
			return
		}
		if err != nil {
			o.logger.Warn("searchlang call failed",
				slog.String("endpoint", endpoint),
				slog.String("outcome", out),
				slog.Int("status", statusCode(err)),
				slog.Duration("duration", dur),
				slog.Any("error", err),
			)
			return
		}
		o.logger.Debug("searchlang call completed",
			slog.String("endpoint", endpoint),
			slog.Duration("duration", dur),
		)
	}
}

func outcome(err error) string {
	if err == nil {
		return outcomeOK
	}
	switch code := statusCode(err); {
	case code == 0:
		return outcomeTransport
	case code >= http.StatusInternalServerError:
		return outcomeServerError
	default:
		return outcomeClientError
	}
}
