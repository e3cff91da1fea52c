package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Routes int
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	store  StorePinger
	corpus CorpusChecker
}

// New creates a Service. store can be nil when the cache store is disabled.
func New(store StorePinger, corpus CorpusChecker) *Service {
	return &Service{store: store, corpus: corpus}
}

// Check runs health checks against all components. An empty corpus is a
// degradation: the service is up but cannot answer anything.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	routes := s.corpus.Size()
	if routes > 0 {
		checks["corpus"] = CheckOK
	} else {
		checks["corpus"] = CheckError
	}

	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			checks["store"] = CheckError
		} else {
			checks["store"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Routes: routes, Checks: checks}
}
