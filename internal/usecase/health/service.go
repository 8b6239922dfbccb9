package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the parse cache is down.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names used as report keys.
const (
	ComponentCache   = "cache"
	ComponentBackend = "backend"
	ComponentHistory = "history"
)

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Service coordinates health checks.
type Service struct {
	cache   Pinger
	backend BackendChecker
	history Pinger
}

// New creates a Service. backend and history can be nil.
func New(cache Pinger, backend BackendChecker, history Pinger) *Service {
	return &Service{cache: cache, backend: backend, history: history}
}

// Check runs health checks against all components. Parsing works without the
// backend and the history store, so their failures only degrade the report.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks[ComponentCache] = result(s.cache.Ping(ctx))
	if s.backend != nil {
		checks[ComponentBackend] = result(s.backend.HealthCheck(ctx))
	}
	if s.history != nil {
		checks[ComponentHistory] = result(s.history.Ping(ctx))
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks[ComponentCache] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
