package searchlang

import "go.uber.org/zap"

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	resolver TimeResolver
	logger   *zap.Logger
}

// WithTimeResolver sets how earliest/latest modifiers are resolved.
// A nil resolver leaves them unresolved.
func WithTimeResolver(r TimeResolver) Option {
	return func(c *clientConfig) {
		c.resolver = r
	}
}

// WithLogger sets the logger used for non-fatal failures.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
