package sdk

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	httpClient *http.Client
	sessionKey string
	namespace  string
	owner      string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithSessionKey sends key as "Authorization: Splunk <key>" on every request.
func WithSessionKey(key string) Option {
	return optionFunc(func(c *clientConfig) {
		c.sessionKey = key
	})
}

// WithScope sets the app namespace and owner sent with parse requests.
func WithScope(namespace, owner string) Option {
	return optionFunc(func(c *clientConfig) {
		c.namespace = namespace
		c.owner = owner
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
