// Package jobs provides scheduled background tasks for the fulfillment service.
//
// Jobs are built on github.com/robfig/cron/v3 (seconds-enabled parser, so
// both "*/30 * * * * *" and descriptors like "@every 1m" work).
//
// # Available Jobs
//
// StaleClaimJob lists in_separation orders whose claim is older than
// STALE_CLAIM_AFTER, publishes the count on the fulfillment_stale_claims gauge
// and logs one warning per order. It never changes an order.
//
// # Usage
//
//	jobManager := jobs.NewJobManager(staleClaimsHandler, jobs.JobsConfig{
//		StaleClaimAfter:    30 * time.Minute,
//		StaleClaimSchedule: "@every 1m",
//	}, m, logger)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
package jobs
