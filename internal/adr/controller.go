package adr

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/adr-core/internal/infrastructure/config"
	"github.com/nerrad567/adr-core/internal/infrastructure/metrics"
	"github.com/nerrad567/adr-core/internal/instrument"
	"github.com/nerrad567/adr-core/internal/peripheral"
	"github.com/nerrad567/adr-core/internal/recording"
	"github.com/nerrad567/adr-core/internal/state"
)

// Default timings for units that leave them unset.
const (
	defaultSleepInterval     = time.Second
	defaultReconcileInterval = 30 * time.Second
	defaultOutputOffDelay    = 500 * time.Millisecond
)

// Logger defines the structured logging interface used by the Controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Peripherals is the reconciliation surface of a unit's peripheral
// registry. *peripheral.Registry implements it.
type Peripherals interface {
	Refresh(ctx context.Context) error
	Attempt(ctx context.Context, name string) (bool, error)
	RetryOrphans(ctx context.Context) int
	Known() []peripheral.Declaration
	Connected() []peripheral.Binding
	Orphans() []peripheral.Declaration
}

// Notifier receives status changes and log entries as they happen.
type Notifier interface {
	StatusChanged(unit string, status state.Status, at time.Time)
	LogAppended(unit string, e state.Entry)
}

// Deps holds everything a Controller needs.
type Deps struct {
	// Unit is the unit's configuration as loaded at startup.
	Unit config.UnitConfig

	// Source re-reads the unit's configuration for revert.
	Source config.Source

	// Facade reaches the unit's instruments. It is wrapped in an
	// instrument.HandsOff when Unit.HandsOff is set.
	Facade instrument.Facade

	// Peripherals resolves the unit's peripherals. Required.
	Peripherals Peripherals

	// Sink stores recorded datasets. Required.
	Sink recording.Sink

	// LogSink is the durable log. Optional.
	LogSink state.LogSink

	// Notifiers are told about status changes and log entries. Optional.
	Notifiers []Notifier

	// Metrics may be nil.
	Metrics *metrics.Metrics

	// Logger may be nil.
	Logger Logger
}

// Controller runs one ADR unit.
//
// Thread Safety:
//   - All exported methods are safe for concurrent use. The cycle loop
//     and the recording loop share the store, whose per-key reads and
//     writes are atomic; last writer wins.
type Controller struct {
	name        string
	unit        config.UnitConfig
	source      config.Source
	facade      instrument.Facade
	peripherals Peripherals
	store       *state.Store
	log         *state.Log
	logSink     state.LogSink
	logFile     *logFile
	notifiers   []Notifier
	metrics     *metrics.Metrics
	logger      Logger
	recorder    *recording.Scheduler

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	// ctx is cancelled by Close and bounds every instrument call.
	ctx    context.Context
	cancel context.CancelFunc

	reconcileNow chan struct{}
	wake         chan struct{}

	mu      sync.Mutex
	started bool
	closed  bool
	wg      sync.WaitGroup
	done    chan struct{}
}

// New builds a controller in status cooling down with the unit's default
// parameters. Call Start to run it.
func New(deps Deps) (*Controller, error) {
	if deps.Peripherals == nil {
		return nil, errors.New("adr: peripherals are required")
	}
	if deps.Facade == nil {
		return nil, errors.New("adr: facade is required")
	}
	if deps.Sink == nil {
		return nil, errors.New("adr: dataset sink is required")
	}

	store, err := state.NewStore(state.Defaults(deps.Unit))
	if err != nil {
		return nil, fmt.Errorf("initialising parameters of %s: %w", deps.Unit.Name, err)
	}

	logger := deps.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	unit := deps.Unit
	if unit.SleepInterval <= 0 {
		unit.SleepInterval = defaultSleepInterval
	}
	if unit.ReconcileInterval <= 0 {
		unit.ReconcileInterval = defaultReconcileInterval
	}
	if unit.OutputOffDelay < 0 {
		unit.OutputOffDelay = defaultOutputOffDelay
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Controller{
		name:         unit.Name,
		unit:         unit,
		source:       deps.Source,
		peripherals:  deps.Peripherals,
		store:        store,
		log:          state.NewLog(int(store.Float(state.LogLimit))),
		logSink:      deps.LogSink,
		logFile:      newLogFile(),
		notifiers:    deps.Notifiers,
		metrics:      deps.Metrics,
		logger:       logger,
		now:          time.Now,
		sleep:        sleepCtx,
		ctx:          ctx,
		cancel:       cancel,
		reconcileNow: make(chan struct{}, 1),
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
	}

	c.facade = deps.Facade
	if unit.HandsOff {
		c.facade = instrument.NewHandsOff(deps.Facade, c.name, c.logf)
	}

	c.recorder = recording.NewScheduler(recording.Config{
		Unit:     c.name,
		Store:    store,
		Sampler:  c.sample,
		Sink:     deps.Sink,
		Logf:     c.logf,
		OnSample: func() { c.metrics.Sample(c.name) },
	})

	c.registerHooks()
	c.logFile.open(store.Text(state.LogFile))
	c.metrics.SetStatus(c.name, string(store.Status()), state.StatusNames())
	return c, nil
}

// Name returns the unit name.
func (c *Controller) Name() string {
	return c.name
}

// Start refreshes the peripherals and starts the cycle and reconcile
// loops. It returns once both loops are running.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.mu.Unlock()

	if err := c.peripherals.Refresh(ctx); err != nil {
		c.logger.Warn("initial peripheral refresh failed", "unit", c.name, "error", err)
	}
	c.metrics.Orphans(c.name, len(c.peripherals.Orphans()))

	_ = c.store.Set(state.Alive, state.BoolValue(true)) //nolint:errcheck // kind is fixed
	c.logf("Initialization completed. Beginning cycle.")

	c.wg.Add(2)
	go c.run()
	go c.reconcileLoop()
	return nil
}

// Stop clears the alive flag. The tick in progress finishes, then the
// cycle loop exits. Recording is not affected.
func (c *Controller) Stop() {
	_ = c.store.Set(state.Alive, state.BoolValue(false)) //nolint:errcheck // kind is fixed
}

// Done is closed when the cycle loop has exited.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Close stops the cycle, cancels in-flight instrument calls, ends any
// recording session and waits for every goroutine to exit.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	started := c.started
	c.mu.Unlock()

	c.Stop()
	c.cancel()
	if !started {
		close(c.done)
	}
	c.wg.Wait()
	c.recorder.Wait()
	return c.logFile.Close()
}

// Store exposes the unit's parameter store.
func (c *Controller) Store() *state.Store {
	return c.store
}

// TriggerReconcile asks the reconcile loop to retry orphans now.
// It never blocks.
func (c *Controller) TriggerReconcile() {
	select {
	case c.reconcileNow <- struct{}{}:
	default:
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
