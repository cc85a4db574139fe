package main

import (
	"context"
	"fmt"
	"time"

	"github.com/BidyutOffice/cinescope/internal/api"
	"github.com/BidyutOffice/cinescope/internal/config"
	"github.com/BidyutOffice/cinescope/internal/health"
	"github.com/BidyutOffice/cinescope/internal/logger"
	"github.com/BidyutOffice/cinescope/internal/retry"
	"github.com/BidyutOffice/cinescope/internal/scheduler"
	"github.com/BidyutOffice/cinescope/internal/scheduler/tasks"
	"github.com/BidyutOffice/cinescope/internal/websocket"
)

const (
	logBufferSize   = 1000
	shutdownTimeout = 10 * time.Second
	limiterCleanup  = 5 * time.Minute
	healthInterval  = 10 * time.Minute
)

func runServe(ctx context.Context, e *env, args []string) error {
	var opts options
	fs := newFlagSet("serve", e, &opts)
	addr := fs.String("addr", "", "Listen address, overrides server.host and server.port")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: cinescope serve [flags]")
		fs.PrintDefaults()
	}
	if err := parse(fs, &opts, args); err != nil {
		return err
	}
	// Servers log at the configured level.
	opts.verbose = true

	logs := logger.NewLogBroadcaster(nil, logBufferSize)
	a, err := newApp(e, &opts, logs)
	if err != nil {
		return err
	}
	defer a.close()

	log := a.log.WithComponent("server")
	log.Info().
		Str("version", config.Version).
		Str("logLevel", a.cfg.Logging.Level).
		Str("region", a.cfg.Detail.Region).
		Bool("mock", opts.mock).
		Msg("Starting cinescope")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := websocket.NewHub(a.log.Logger)
	go hub.Run(ctx)
	logs.SetHub(hub)

	healthSvc := health.NewService(a.log.Logger)
	healthSvc.SetBroadcaster(hub)
	healthSvc.RegisterItem(tasks.TMDBHealthItemID, "TMDB")

	sched, err := scheduler.New(a.log.Logger)
	if err != nil {
		return err
	}

	server := api.NewServer(api.Deps{
		Config:    a.cfg,
		Source:    a.source,
		Hub:       hub,
		Logs:      logs,
		Scheduler: sched,
		Health:    healthSvc,
		Logger:    a.log.Logger,
	})

	pruneEvery := time.Duration(a.cfg.Cache.PruneIntervalMinutes) * time.Minute
	if pruneEvery <= 0 {
		pruneEvery = 5 * time.Minute
	}
	if err := tasks.RegisterCachePruneTask(sched, a.source.Cache(), pruneEvery, a.log.Logger); err != nil {
		return err
	}
	if err := tasks.RegisterRateLimitCleanupTask(sched, server.Limiter(), limiterCleanup, a.log.Logger); err != nil {
		return err
	}
	if err := tasks.RegisterTMDBHealthTask(sched, a.source, healthSvc, healthInterval, a.log.Logger); err != nil {
		return err
	}
	sched.Start()
	defer func() {
		if err := sched.Stop(); err != nil {
			log.Error().Err(err).Msg("Scheduler shutdown error")
		}
	}()

	// Check TMDB in the background; the server is useful before the network
	// is up and every detail request reports its own failure.
	go func() {
		err := retry.Do(ctx, "tmdb connectivity check", retry.DefaultConfig(), a.source.Test, log)
		if err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("TMDB is unreachable; detail requests will fail until it recovers")
		}
	}()

	address := a.cfg.Server.Address()
	if *addr != "" {
		address = *addr
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("Received shutdown signal")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Server stopped")
	return nil
}
