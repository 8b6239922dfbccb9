package health

import "context"

// Pinger checks availability of a storage component (parse cache, history DB).
type Pinger interface {
	Ping(ctx context.Context) error
}

// BackendChecker checks availability of the search backend.
type BackendChecker interface {
	HealthCheck(ctx context.Context) error
}
