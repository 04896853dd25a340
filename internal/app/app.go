package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/chrissnell/gardensim/internal/clock"
	"github.com/chrissnell/gardensim/internal/garden"
	"github.com/chrissnell/gardensim/internal/managers"
	"github.com/chrissnell/gardensim/internal/report"
	"github.com/chrissnell/gardensim/internal/weather"
	"github.com/chrissnell/gardensim/pkg/config"
	"github.com/chrissnell/gardensim/pkg/livestats"
	"go.uber.org/zap"
)

// App represents the main application
type App struct {
	cfg    *config.ConfigData
	logger *zap.SugaredLogger

	reportOut io.Writer
	liveOut   io.Writer
}

// New creates a new application instance
func New(cfg *config.ConfigData, logger *zap.SugaredLogger) *App {
	return &App{
		cfg:       cfg,
		logger:    logger,
		reportOut: os.Stdout,
	}
}

// SetOutputs redirects the end-of-run report and the live stats stream. A
// nil live writer falls back to the configured path.
func (a *App) SetOutputs(report, live io.Writer) {
	a.reportOut = report
	a.liveOut = live
}

// Run starts the simulation and blocks until the configured run length is
// reached, ctx is cancelled or a shutdown signal arrives.
func (a *App) Run(ctx context.Context) error {
	plan, err := Build(a.cfg, a.logger)
	if err != nil {
		return err
	}

	// Storage outlives the simulation context so that snapshots emitted
	// before shutdown are still written.
	storeCtx, storeCancel := context.WithCancel(context.Background())
	defer storeCancel()
	var storeWG sync.WaitGroup

	sm, err := managers.NewStorageManager(storeCtx, &storeWG, a.cfg.Storage, a.logger)
	if err != nil {
		return err
	}
	collector := report.NewCollector(a.logger)
	sm.AddEngine(storeCtx, &storeWG, "report", collector)
	sm.Start(&storeWG)

	stopStorage := func() {
		sm.Close()
		storeWG.Wait()
		if err := sm.Release(); err != nil {
			a.logger.Warnw("could not release storage backends", "error", err)
		}
	}

	sim, err := garden.New(garden.Config{
		Beds:      plan.Beds,
		Provider:  plan.Provider,
		Registry:  plan.Registry,
		Snapshots: sm.GetSnapshotDistributor(),
		Override:  plan.Override,
		Options:   plan.Options,
		Logger:    a.logger,
	})
	if err != nil {
		stopStorage()
		return err
	}

	live, closeLive, err := a.liveFormatter()
	if err != nil {
		stopStorage()
		return err
	}
	defer closeLive()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	clk := clock.NewController(ctx, plan.Start, plan.Period)

	a.logger.Infow("simulation started",
		"start", plan.Start.Format(time.RFC3339),
		"mode", plan.Mode.String(),
		"period", plan.Period,
		"beds", len(plan.Beds))

	a.tick(ctx, sim, plan.Start, live)
	clk.SetMode(plan.Mode)

loop:
	for {
		select {
		case t := <-clk.Ticks():
			a.tick(ctx, sim, t, live)
			if !plan.End.IsZero() && !t.Before(plan.End) {
				a.logger.Infow("run length reached", "at", t.Format(time.RFC3339))
				break loop
			}
		case <-sigs:
			a.logger.Info("shutdown signal received, initiating graceful shutdown...")
			break loop
		case <-ctx.Done():
			a.logger.Info("context cancelled, shutting down...")
			break loop
		}
	}

	clk.Close()
	sim.Close()
	cancel()

	a.logger.Info("waiting for storage engines to drain...")
	stopStorage()
	a.logger.Info("shutdown complete")

	return report.Write(a.reportOut, collector.Summary())
}

func (a *App) tick(ctx context.Context, sim *garden.Simulation, t time.Time, live *livestats.Formatter) {
	stats, err := sim.Tick(ctx, t)
	switch {
	case errors.Is(err, weather.ErrSuperseded):
		return
	case err != nil:
		a.logger.Warnw("tick completed with errors", "time", t.Format(time.RFC3339), "error", err)
	}

	if live == nil {
		return
	}
	if err := live.Write(stats); err != nil {
		a.logger.Warnw("could not write live stats", "error", err)
	}
}

// liveFormatter opens the live stats stream, or returns nil when disabled.
func (a *App) liveFormatter() (*livestats.Formatter, func(), error) {
	noop := func() {}
	ls := a.cfg.LiveStats
	if !ls.Enabled {
		return nil, noop, nil
	}

	w, closer := a.liveOut, noop
	if w == nil {
		switch ls.Path {
		case "", "-":
			w = os.Stdout
		default:
			f, err := os.Create(ls.Path)
			if err != nil {
				return nil, noop, fmt.Errorf("could not open live stats output: %w", err)
			}
			w = f
			closer = func() {
				if err := f.Close(); err != nil {
					a.logger.Warnw("could not close live stats output", "path", ls.Path, "error", err)
				}
			}
		}
	}

	f, err := livestats.NewFormatter(w, ls.Format)
	if err != nil {
		closer()
		return nil, noop, err
	}
	return f, closer, nil
}
