package tasks

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/BidyutOffice/cinescope/internal/scheduler"
)

const RateLimitCleanupTaskID = "rate-limit-cleanup"

// Cleaner forgets idle rate-limit buckets and reports how many it removed.
type Cleaner interface {
	Cleanup() int
}

// RegisterRateLimitCleanupTask registers a task that drops idle per-IP
// buckets every interval.
func RegisterRateLimitCleanupTask(sched *scheduler.Scheduler, limiter Cleaner, interval time.Duration, logger zerolog.Logger) error {
	log := logger.With().Str("task", RateLimitCleanupTaskID).Logger()

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          RateLimitCleanupTaskID,
		Name:        "Rate Limit Cleanup",
		Description: "Forgets request limits for clients that have gone idle",
		Interval:    interval,
		Func: func(ctx context.Context) error {
			if removed := limiter.Cleanup(); removed > 0 {
				log.Debug().Int("removed", removed).Msg("Dropped idle rate limit buckets")
			}
			return nil
		},
	})
}
