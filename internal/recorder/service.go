// Package recorder converts the live telemetry stream into an ordered,
// timestamped history of key-figure snapshots.
//
// A Service owns one dedicated worker goroutine for its whole lifetime. The
// worker is the only writer of the live snapshot, the collection state
// while collecting, and the timeline. External triggers reach it through
// Signal and wake it when it is parked idle.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/vitalis-app/flightrec/internal/governor"
	"github.com/vitalis-app/flightrec/internal/lifecycle"
	"github.com/vitalis-app/flightrec/internal/listener"
	"github.com/vitalis-app/flightrec/internal/models"
	"github.com/vitalis-app/flightrec/internal/scheduler"
	"github.com/vitalis-app/flightrec/internal/telemetry"
	"github.com/vitalis-app/flightrec/internal/timeline"
)

const (
	defaultWindowSeconds = 30
	defaultWarmup        = 600 * time.Millisecond
	replayPark           = 100 * time.Millisecond
)

var (
	// ErrNotStopped is returned by operations that require the Stopped state.
	ErrNotStopped = errors.New("recorder: collection is not stopped")

	// ErrInvalidInterval is returned for a non-positive sampling interval.
	ErrInvalidInterval = errors.New("recorder: sampling interval must be positive")

	// ErrInvalidWindow is returned for a non-positive display window.
	ErrInvalidWindow = errors.New("recorder: window must be positive")

	// ErrOutOfOrder is returned when loaded snapshots are not chronological.
	ErrOutOfOrder = timeline.ErrOutOfOrder

	// ErrAlreadyInitialized is returned by a second call to Init.
	ErrAlreadyInitialized = errors.New("recorder: already initialized")

	// ErrNotInitialized is returned by Shutdown before Init.
	ErrNotInitialized = errors.New("recorder: not initialized")
)

// WorkQueue runs the deferred stop of a grace period. Stop cancels
// whatever is still pending.
type WorkQueue interface {
	lifecycle.Deferrer
	Stop()
}

// Service is the recording engine.
type Service struct {
	src    telemetry.Source
	reader telemetry.LogReader
	logger *zap.Logger

	clock    governor.Clock
	gov      *governor.Governor
	govOpts  []governor.Option
	queue    WorkQueue
	machine  *lifecycle.Machine
	timeline *timeline.Timeline
	current  *liveSnapshot

	listeners *listener.Registry
	cadence   time.Duration
	poller    *scheduler.Poller
	hostDiag  atomic.Pointer[models.KeyFigures]

	virtual []models.VirtualFigure
	warmup  time.Duration

	interval      atomic.Int64
	windowSeconds atomic.Int64

	wake               chan struct{}
	skipFirst          atomic.Bool
	recordingAvailable atomic.Bool
	converterRunning   atomic.Bool

	// Owned by the worker goroutine.
	record    models.Snapshot
	lastState lifecycle.State
	session   uint64
	originNs  int64
	lastTms   int64
	// lastRefreshUs is the monotonic time of the last refresh while stopped.
	lastRefreshUs int64
	perf          float64
	initAt        int64

	runMu  sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}
	err    error
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithLogReader attaches a log stream whose records replace the live values
// in appended snapshots while it is logging.
func WithLogReader(r telemetry.LogReader) Option {
	return func(s *Service) { s.reader = r }
}

// WithClock replaces the monotonic clock used for pacing and timestamps.
func WithClock(c governor.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithGovernorOptions tunes the rate governor.
func WithGovernorOptions(opts ...governor.Option) Option {
	return func(s *Service) { s.govOpts = append(s.govOpts, opts...) }
}

// WithWarmup sets how long after Init the worker waits before sampling.
func WithWarmup(d time.Duration) Option {
	return func(s *Service) { s.warmup = d }
}

// WithSamplingInterval sets the initial sampling interval.
func WithSamplingInterval(i models.SamplingInterval) Option {
	return func(s *Service) { s.interval.Store(int64(i)) }
}

// WithTotalWindowSeconds sets the initial display window.
func WithTotalWindowSeconds(sec int) Option {
	return func(s *Service) { s.windowSeconds.Store(int64(sec)) }
}

// WithListenerCadence sets the listener refresh period.
func WithListenerCadence(d time.Duration) Option {
	return func(s *Service) { s.cadence = d }
}

// WithDiagnostics attaches a host diagnostics poller whose readings are
// written to the live snapshot.
func WithDiagnostics(p *scheduler.Poller) Option {
	return func(s *Service) { s.poller = p }
}

// WithVirtualFigures replaces the derived key figures.
func WithVirtualFigures(figures []models.VirtualFigure) Option {
	return func(s *Service) { s.virtual = figures }
}

// WithWorkQueue sets the scheduler used for the deferred stop. The default
// is a scheduler.WorkQueue.
func WithWorkQueue(q WorkQueue) Option {
	return func(s *Service) { s.queue = q }
}

// New creates a stopped Service reading from src. Call Init to start the
// worker.
func New(src telemetry.Source, opts ...Option) *Service {
	s := &Service{
		src:      src,
		logger:   zap.NewNop(),
		timeline: timeline.New(),
		current:  newLiveSnapshot(),
		record:   models.NewSnapshot(),
		virtual:  models.DefaultVirtualFigures,
		warmup:   defaultWarmup,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	s.interval.Store(int64(models.IntervalDefault))
	s.windowSeconds.Store(defaultWindowSeconds)

	for _, opt := range opts {
		opt(s)
	}

	if s.clock == nil {
		s.clock = governor.NewMonotonicClock()
	}
	if s.queue == nil {
		s.queue = scheduler.NewWorkQueue(s.logger)
	}
	s.gov = governor.New(s.clock, s.govOpts...)
	s.machine = lifecycle.NewMachine(s.queue, s.logger)
	s.listeners = listener.NewRegistry(s.logger)
	s.initAt = s.clock.Nanotime()
	return s
}

// Init starts the worker, the listener driver and, if configured, the
// diagnostics poller. They run until Shutdown or until ctx is cancelled.
func (s *Service) Init(ctx context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyInitialized
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.initAt = s.clock.Nanotime()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(s.done)
		if err := s.run(ctx); err != nil {
			s.logger.Error("Converter terminated", zap.Error(err))
			s.setErr(err)
		}
	}()

	driver := listener.NewDriver(s.listeners, s.cadence, listener.WithNanotime(s.clock.Nanotime))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		driver.Run(ctx)
	}()

	if s.poller != nil {
		s.poller.OnCollected(func(k models.KeyFigures) { s.hostDiag.Store(&k) })
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.poller.Start(ctx)
		}()
	}

	s.logger.Info("Recorder initialized",
		zap.Stringer("interval", s.SamplingInterval()),
		zap.Int("window_seconds", s.TotalWindowSeconds()))
	return nil
}

// Shutdown stops collection and all background goroutines and waits for
// them to exit or for ctx to expire.
func (s *Service) Shutdown(ctx context.Context) error {
	s.runMu.Lock()
	cancel := s.cancel
	s.runMu.Unlock()
	if cancel == nil {
		return ErrNotInitialized
	}

	s.machine.Stop()
	s.queue.Stop()
	cancel()

	var errs error
	exited := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(exited)
	}()
	select {
	case <-exited:
	case <-ctx.Done():
		errs = multierr.Append(errs, fmt.Errorf("waiting for recorder goroutines: %w", ctx.Err()))
	}

	if s.reader != nil && s.reader.IsLogging() {
		s.reader.EnableLogging(false)
	}
	errs = multierr.Append(errs, s.Err())

	s.logger.Info("Recorder stopped", zap.Int("snapshots", s.Size()))
	return errs
}

// Done is closed when the worker exits. Outside of Shutdown this only
// happens on a fatal fault; see Err.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// Err returns the fault that terminated the worker, or nil.
func (s *Service) Err() error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.err
}

func (s *Service) setErr(err error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	s.err = err
}

// Signal delivers an asynchronous link or vehicle event. It never blocks.
func (s *Service) Signal(ev telemetry.Event) {
	s.logger.Debug("Telemetry event", zap.Stringer("event", ev))
	if ev == telemetry.EventReplayStarted {
		return
	}
	s.wakeUp()
}

func (s *Service) wakeUp() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// RegisterListener adds a display consumer refreshed at the listener
// cadence.
func (s *Service) RegisterListener(l listener.Listener) {
	s.listeners.Register(l)
}

// OnStateChange registers an observer of collection state changes.
func (s *Service) OnStateChange(fn func(old, new lifecycle.State)) {
	s.machine.OnChange(fn)
}
