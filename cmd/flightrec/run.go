package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vitalis-app/flightrec/internal/collector"
	"github.com/vitalis-app/flightrec/internal/config"
	"github.com/vitalis-app/flightrec/internal/governor"
	"github.com/vitalis-app/flightrec/internal/recorder"
	"github.com/vitalis-app/flightrec/internal/scheduler"
	"github.com/vitalis-app/flightrec/internal/service"
	"github.com/vitalis-app/flightrec/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

// errNoSource is returned when no telemetry source is configured.
var errNoSource = errors.New("no telemetry source configured (enable simulation.enabled or pass --simulate)")

func runRecorderCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Starting flightrec",
		zap.String("version", version),
		zap.Stringer("interval", cfg.Recording.Interval),
		zap.Bool("simulation", cfg.Simulation.Enabled))

	if service.IsWindowsService() {
		logger.Info("Running as Windows service")
		return service.New(logger, func(ctx context.Context) error {
			return runRecorder(ctx, cfg, logger)
		}).Run()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = runRecorder(ctx, cfg, logger)
	if err != nil {
		logger.Error("Recorder failed", zap.Error(err))
		return err
	}
	logger.Info("Recorder stopped")
	return nil
}

// runRecorder wires the recorder to its telemetry source and blocks until
// ctx is cancelled or the recorder worker fails.
func runRecorder(ctx context.Context, cfg *config.Config, logger *zap.Logger) (err error) {
	if !cfg.Simulation.Enabled {
		return errNoSource
	}
	sim := telemetry.NewSimulator()

	opts := []recorder.Option{
		recorder.WithLogger(logger.Named("recorder")),
		recorder.WithSamplingInterval(cfg.Recording.Interval),
		recorder.WithTotalWindowSeconds(cfg.Recording.WindowSeconds),
		recorder.WithWarmup(cfg.Recording.Warmup.Duration),
		recorder.WithListenerCadence(cfg.Listeners.Cadence.Duration),
		recorder.WithWorkQueue(scheduler.NewWorkQueue(logger.Named("workqueue"))),
		recorder.WithGovernorOptions(
			governor.WithMargin(cfg.Recording.ProcessingMargin.Duration),
			governor.WithIdlePark(cfg.Recording.IdlePark.Duration),
			governor.WithIdleMargin(cfg.Recording.IdleMargin.Duration),
		),
	}
	if cfg.Diagnostics.Enabled {
		opts = append(opts, recorder.WithDiagnostics(newDiagnostics(cfg, logger.Named("diagnostics"))))
	}

	rec := recorder.New(sim, opts...)
	sim.Subscribe(rec.Signal)
	sim.Subscribe(autoRecord(rec, cfg.Recording.StopDelay.Duration, logger))
	rec.RegisterListener(newStatusReporter(rec, logger.Named("status"), cfg.Listeners.StatusInterval.Duration))

	g, gctx := errgroup.WithContext(ctx)
	if err := rec.Init(gctx); err != nil {
		return fmt.Errorf("initializing recorder: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = multierr.Append(err, rec.Shutdown(shutdownCtx))
	}()

	g.Go(func() error {
		select {
		case <-rec.Done():
			return fmt.Errorf("recorder worker terminated: %w", rec.Err())
		case <-gctx.Done():
			return nil
		}
	})

	g.Go(func() error {
		return simulateLink(gctx, sim, cfg.Simulation, logger)
	})

	return g.Wait()
}

// newDiagnostics builds the host diagnostics poller.
func newDiagnostics(cfg *config.Config, logger *zap.Logger) *scheduler.Poller {
	registry := collector.NewRegistry(logger)
	registry.Register(collector.NewCPUCollector())
	registry.Register(collector.NewMemoryCollector())
	registry.Register(collector.NewNetworkCollector())
	registry.Register(collector.NewTemperatureCollector(logger))

	dir := "."
	if cfg.Logging.File != "" {
		dir = filepath.Dir(cfg.Logging.File)
	}
	registry.Register(collector.NewDiskCollector(dir))

	return scheduler.NewPoller(registry, cfg.Diagnostics.Interval.Duration, logger)
}

// autoRecord starts a session when the vehicle arms and ends it stopDelay
// after it disarms.
func autoRecord(rec *recorder.Service, stopDelay time.Duration, logger *zap.Logger) func(telemetry.Event) {
	return func(ev telemetry.Event) {
		switch ev {
		case telemetry.EventArmed:
			if !rec.Start() {
				logger.Warn("Auto-record could not start")
			}
		case telemetry.EventDisarmed:
			rec.StopAfter(stopDelay)
		}
	}
}

// simulateLink brings the simulated vehicle online after the configured
// delay and takes it offline when ctx ends.
func simulateLink(ctx context.Context, sim *telemetry.Simulator, cfg config.SimulationConfig, logger *zap.Logger) error {
	select {
	case <-time.After(cfg.ConnectAfter.Duration):
	case <-ctx.Done():
		return nil
	}

	logger.Info("Simulated vehicle connected", zap.Bool("armed", cfg.Armed))
	sim.SetConnected(true)
	sim.SetArmed(cfg.Armed)
	sim.Post("Simulated vehicle ready", 6)

	<-ctx.Done()
	sim.SetArmed(false)
	sim.SetConnected(false)
	return nil
}
