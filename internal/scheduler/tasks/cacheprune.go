// Package tasks registers cinescope's scheduled maintenance tasks.
package tasks

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/BidyutOffice/cinescope/internal/scheduler"
)

const CachePruneTaskID = "metadata-cache-prune"

// Pruner drops expired entries and reports how many were removed.
type Pruner interface {
	Prune() int
}

type CachePruneTask struct {
	cache  Pruner
	logger zerolog.Logger
}

func NewCachePruneTask(cache Pruner, logger zerolog.Logger) *CachePruneTask {
	return &CachePruneTask{
		cache:  cache,
		logger: logger.With().Str("task", CachePruneTaskID).Logger(),
	}
}

func (t *CachePruneTask) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if removed := t.cache.Prune(); removed > 0 {
		t.logger.Debug().Int("removed", removed).Msg("Pruned expired metadata")
	}
	return nil
}

// RegisterCachePruneTask registers the metadata cache prune task. It runs
// every interval and never on startup.
func RegisterCachePruneTask(sched *scheduler.Scheduler, cache Pruner, interval time.Duration, logger zerolog.Logger) error {
	task := NewCachePruneTask(cache, logger)

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          CachePruneTaskID,
		Name:        "Metadata Cache Prune",
		Description: "Removes expired entries from the in-memory metadata cache",
		Interval:    interval,
		Func:        task.Run,
	})
}
