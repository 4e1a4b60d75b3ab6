package jobs

import (
	"context"
	"log/slog"
	"time"

	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/pkg/metrics"

	"github.com/robfig/cron/v3"
)

const DefaultStaleClaimSchedule = "@every 1m"

// StaleClaimJob periodically looks for orders that have been in separation
// longer than a threshold. It only reports them: claims are never released
// automatically.
type StaleClaimJob struct {
	handler   queries.GetStaleClaimsQueryHandler
	olderThan time.Duration
	schedule  string
	metrics   *metrics.Metrics
	cron      *cron.Cron
	logger    *slog.Logger
}

// NewStaleClaimJob creates the job. An empty schedule means DefaultStaleClaimSchedule.
func NewStaleClaimJob(
	handler queries.GetStaleClaimsQueryHandler,
	olderThan time.Duration,
	schedule string,
	m *metrics.Metrics,
	logger *slog.Logger,
) *StaleClaimJob {
	if schedule == "" {
		schedule = DefaultStaleClaimSchedule
	}
	return &StaleClaimJob{
		handler:   handler,
		olderThan: olderThan,
		schedule:  schedule,
		metrics:   m,
		cron:      cron.New(cron.WithSeconds()),
		logger:    logger.With("component", "stale_claim_job"),
	}
}

// Start registers the check on the cron schedule and starts the scheduler.
func (j *StaleClaimJob) Start() error {
	query, err := queries.NewGetStaleClaimsQuery(j.olderThan)
	if err != nil {
		return err
	}

	if _, err := j.cron.AddFunc(j.schedule, func() {
		j.check(context.Background(), query)
	}); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Stale claim job started",
		"schedule", j.schedule, "older_than", j.olderThan)
	return nil
}

// Stop stops the scheduler and waits for a running check to finish.
func (j *StaleClaimJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Stale claim job stopped")
}

func (j *StaleClaimJob) check(ctx context.Context, query queries.GetStaleClaimsQuery) int {
	stale, err := j.handler.Handle(ctx, query)
	if err != nil {
		j.logger.ErrorContext(ctx, "Stale claim check failed", "error", err)
		return 0
	}

	j.metrics.SetStaleClaims(len(stale))
	for _, o := range stale {
		j.logger.WarnContext(ctx, "Order separation looks abandoned",
			"order_id", o.ID(),
			"claimed_by", o.ClaimedBy().String(),
			"claimed_at", o.ClaimedAt(),
		)
	}
	return len(stale)
}
