package tasks

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/BidyutOffice/cinescope/internal/scheduler"
)

const (
	TMDBHealthTaskID = "tmdb-health-check"
	TMDBHealthItemID = "tmdb"
)

// Tester checks connectivity to an upstream.
type Tester interface {
	Test(ctx context.Context) error
}

// HealthRecorder receives the outcome of a connectivity check.
type HealthRecorder interface {
	SetError(id, message string)
	ClearStatus(id string)
}

// RegisterTMDBHealthTask registers a task that probes TMDB every interval
// and records the result. It also runs once at startup.
func RegisterTMDBHealthTask(sched *scheduler.Scheduler, upstream Tester, health HealthRecorder, interval time.Duration, logger zerolog.Logger) error {
	log := logger.With().Str("task", TMDBHealthTaskID).Logger()

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          TMDBHealthTaskID,
		Name:        "TMDB Health Check",
		Description: "Verifies that the TMDB API is reachable",
		Interval:    interval,
		RunOnStart:  true,
		Func: func(ctx context.Context) error {
			if err := upstream.Test(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Debug().Err(err).Msg("TMDB check failed")
				health.SetError(TMDBHealthItemID, err.Error())
				return err
			}
			health.ClearStatus(TMDBHealthItemID)
			return nil
		},
	})
}
