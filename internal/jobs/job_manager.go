package jobs

import (
	"fmt"
	"log/slog"
	"time"

	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/pkg/metrics"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	staleClaimJob *StaleClaimJob
}

// JobsConfig holds the scheduling knobs of the jobs.
type JobsConfig struct {
	StaleClaimAfter    time.Duration
	StaleClaimSchedule string
}

// NewJobManager creates a new job manager with all required jobs.
func NewJobManager(
	staleClaimsHandler queries.GetStaleClaimsQueryHandler,
	cfg JobsConfig,
	m *metrics.Metrics,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		staleClaimJob: NewStaleClaimJob(staleClaimsHandler, cfg.StaleClaimAfter, cfg.StaleClaimSchedule, m, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.staleClaimJob.Start(); err != nil {
		return fmt.Errorf("failed to start stale claim job: %w", err)
	}
	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.staleClaimJob.Stop()
}
