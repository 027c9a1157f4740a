package service

import (
	"context"
	"fmt"
	"time"

	"github.com/deppfellow/trialbroker/internal/errs"
	"github.com/deppfellow/trialbroker/internal/repository"
)

const (
	// maxProbeCollections caps the collection names reported by diagnostics.
	maxProbeCollections = 10

	// maxProbeReason caps the error text reported by diagnostics.
	maxProbeReason = 80
)

// Diagnostics labels, rendered verbatim to clients.
const (
	labelRunning        = "✅ Running"
	labelSet            = "✅ Set"
	labelNotSet         = "❌ Not Set"
	labelWorking        = "✅ Connected & Working"
	labelNotInitialized = "⚠️ Available but not initialized"
	labelConnectedError = "⚠️ Connected but Error: "
	labelError          = "❌ Error: "

	statusConnected    = "Connected"
	statusNotConnected = "Not Connected"
)

// ProbeOutcome tells how a store probe ended.
type ProbeOutcome int

const (
	// ProbeOK means the store answered.
	ProbeOK ProbeOutcome = iota
	// ProbeNotConfigured means there is no store to ask.
	ProbeNotConfigured
	// ProbeFailed means the store returned an error.
	ProbeFailed
	// ProbeCrashed means the probe itself panicked.
	ProbeCrashed
)

// ProbeResult is the explicit result of a store probe. Collections is set
// only for ProbeOK, Err for every other outcome.
type ProbeResult struct {
	Outcome     ProbeOutcome
	Collections []string
	Err         error
}

// DiagnosticsReport is the body of GET /test.
type DiagnosticsReport struct {
	Backend          string   `json:"backend"`
	Database         string   `json:"database"`
	DatabaseURL      string   `json:"database_url"`
	DatabaseName     string   `json:"database_name"`
	ConnectionStatus string   `json:"connection_status"`
	Collections      []string `json:"collections"`
}

// DiagnosticsService reports store connectivity. It never fails.
type DiagnosticsService struct {
	repo           *repository.SystemRepository
	storeErr       error
	databaseURLSet bool
	timeout        time.Duration
}

// NewDiagnosticsService builds the service. storeErr is why the store could
// not be opened, nil when it was.
func NewDiagnosticsService(repo *repository.SystemRepository, storeErr error, databaseURLSet bool, timeout time.Duration) *DiagnosticsService {
	return &DiagnosticsService{
		repo:           repo,
		storeErr:       storeErr,
		databaseURLSet: databaseURLSet,
		timeout:        timeout,
	}
}

// unavailable returns why there is no store.
func (s *DiagnosticsService) unavailable() error {
	if s.storeErr != nil {
		return s.storeErr
	}
	return errs.ErrNotConfigured
}

// Probe lists the store's collections within the probe timeout. A panic
// inside the store call is recovered into a ProbeCrashed result.
func (s *DiagnosticsService) Probe(ctx context.Context) (result ProbeResult) {
	if !s.repo.Configured() {
		return ProbeResult{Outcome: ProbeNotConfigured, Err: s.unavailable()}
	}

	defer func() {
		if r := recover(); r != nil {
			result = ProbeResult{Outcome: ProbeCrashed, Err: fmt.Errorf("%v", r)}
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	names, err := s.repo.ListCollectionNames(ctx)
	if err != nil {
		return ProbeResult{Outcome: ProbeFailed, Err: err}
	}

	if len(names) > maxProbeCollections {
		names = names[:maxProbeCollections]
	}
	if names == nil {
		names = []string{}
	}

	return ProbeResult{Outcome: ProbeOK, Collections: names}
}

// Report probes the store and renders the result.
func (s *DiagnosticsService) Report(ctx context.Context) DiagnosticsReport {
	return s.Render(s.Probe(ctx))
}

// Render turns a probe result into the diagnostics body.
func (s *DiagnosticsService) Render(result ProbeResult) DiagnosticsReport {
	report := DiagnosticsReport{
		Backend:          labelRunning,
		DatabaseURL:      labelNotSet,
		DatabaseName:     labelNotSet,
		ConnectionStatus: statusNotConnected,
		Collections:      []string{},
	}

	if result.Outcome == ProbeNotConfigured {
		report.Database = labelNotInitialized
		return report
	}

	if s.databaseURLSet {
		report.DatabaseURL = labelSet
	}

	if name := s.repo.DatabaseName(); name != "" {
		report.DatabaseName = name
	}
	report.ConnectionStatus = statusConnected

	switch result.Outcome {
	case ProbeOK:
		report.Database = labelWorking
		report.Collections = result.Collections
	case ProbeFailed:
		report.Database = labelConnectedError + errs.Truncate(result.Err.Error(), maxProbeReason)
	default:
		report.Database = labelError + errs.Truncate(result.Err.Error(), maxProbeReason)
	}

	return report
}

// Health pings the store within the probe timeout. Without a store it
// returns the reason the store could not be opened.
func (s *DiagnosticsService) Health(ctx context.Context) error {
	if !s.repo.Configured() {
		return s.unavailable()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.repo.Ping(ctx)
}
