package recording

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/adr-core/internal/instrument"
	"github.com/nerrad567/adr-core/internal/state"
)

// IndependentColumn is the independent variable of every dataset.
const IndependentColumn = "time [s]"

// defaultInterval replaces a non-positive record interval.
const defaultInterval = 30 * time.Second

// Sink stores datasets. *dataset.SQLiteStore and *dataset.Tee implement it.
type Sink interface {
	CreateDataset(ctx context.Context, name, independent string, dependents []string) (string, error)
	AppendRow(ctx context.Context, handle string, at time.Time, values []float64) error
}

// Sample is one reading of the unit's thermometry and magnet supply.
type Sample struct {
	At            time.Time
	Temperatures  []float64
	Voltages      []float64
	RuoxTemp      float64
	RuoxRes       float64
	MagnetCurrent float64
	MagnetVoltage float64
}

// Sampler takes one sample. An error means the temperature bridge could
// not be read; errors wrapping instrument.ErrUnavailable count as the
// bridge being absent.
type Sampler func(ctx context.Context) (Sample, error)

// Config wires a Scheduler to its unit.
type Config struct {
	Unit    string
	Store   *state.Store
	Sampler Sampler
	Sink    Sink

	// Logf receives controller log lines.
	Logf func(msg string)

	// OnSample is called after every stored sample. Optional.
	OnSample func()
}

// Info describes the scheduler state.
type Info struct {
	Active     bool      `json:"active"`
	Dataset    string    `json:"dataset,omitempty"`
	Samples    int       `json:"samples"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	LastSample time.Time `json:"last_sample,omitempty"`
}

type session struct {
	stop      chan struct{}
	stopOnce  sync.Once
	startedAt time.Time

	// Written only by the session goroutine, read under Scheduler.mu.
	handle     string
	name       string
	samples    int
	lastSample time.Time
}

func (s *session) halt() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *session) stopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// Scheduler runs recording sessions for one unit.
//
// Thread Safety:
//   - Start, Stop, Info and Wait are safe for concurrent use. Session
//     parameters (interval, auto-record, thresholds) are read from the
//     store on every iteration.
type Scheduler struct {
	cfg Config

	mu      sync.Mutex
	current *session
	wg      sync.WaitGroup
}

// NewScheduler creates an idle Scheduler.
func NewScheduler(cfg Config) *Scheduler {
	if cfg.Logf == nil {
		cfg.Logf = func(string) {}
	}
	if cfg.OnSample == nil {
		cfg.OnSample = func() {}
	}
	return &Scheduler{cfg: cfg}
}

// Start begins a session. The session runs until Stop, until ctx ends,
// or until the auto-record stop predicate fires.
//
// Returns ErrAlreadyRecording if a session is active.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.current != nil {
		s.mu.Unlock()
		return ErrAlreadyRecording
	}
	sess := &session{
		stop:      make(chan struct{}),
		startedAt: time.Now(),
	}
	s.current = sess
	s.wg.Add(1)
	s.mu.Unlock()

	s.setActive(true)
	s.cfg.Logf("Recording started.")

	go s.run(ctx, sess)
	return nil
}

// Stop ends the active session. The session goroutine observes the stop
// at its next check, including partway through the inter-sample wait.
//
// Returns ErrNotRecording if no session is active.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	sess := s.current
	s.mu.Unlock()
	if sess == nil {
		return ErrNotRecording
	}
	s.finish(sess, "Recording stopped.")
	return nil
}

// Active reports whether a session is running.
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Info returns the state of the active session, or an inactive Info.
func (s *Scheduler) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Info{}
	}
	return Info{
		Active:     true,
		Dataset:    s.current.name,
		Samples:    s.current.samples,
		StartedAt:  s.current.startedAt,
		LastSample: s.current.lastSample,
	}
}

// Wait blocks until every session goroutine has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// finish clears sess if it is still the active session.
func (s *Scheduler) finish(sess *session, msg string) {
	sess.halt()

	s.mu.Lock()
	if s.current != sess {
		s.mu.Unlock()
		return
	}
	s.current = nil
	s.cfg.Store.Clear(state.DatasetName)
	s.mu.Unlock()

	s.setActive(false)
	s.cfg.Logf(msg)
}

func (s *Scheduler) setActive(on bool) {
	_ = s.cfg.Store.Set(state.RecordingActive, state.BoolValue(on)) //nolint:errcheck // kind is fixed
}

func (s *Scheduler) run(ctx context.Context, sess *session) {
	defer s.wg.Done()

	for {
		select {
		case <-sess.stop:
			return
		case <-ctx.Done():
			s.finish(sess, "Recording stopped: controller shut down.")
			return
		default:
		}

		sample, err := s.cfg.Sampler(ctx)
		if sess.stopped() {
			return
		}
		if err != nil {
			s.cfg.Logf(fmt.Sprintf("Recording sample failed: %v", err))
		} else if err := s.store(ctx, sess, sample); err != nil {
			s.cfg.Logf(fmt.Sprintf("Recording write failed: %v", err))
		}

		if s.cfg.Store.Flag(state.AutoRecord) {
			unavailable := errors.Is(err, instrument.ErrUnavailable)
			temp, ok := stageTemp(sample, s.cfg.Store)
			if !ok && err == nil {
				unavailable = true
			}
			if ShouldStop(temp, s.cfg.Store.Float(state.RecordingStopTemp), unavailable) {
				s.finish(sess, "Recording stopped automatically.")
				return
			}
		}

		interval := s.cfg.Store.Interval(state.RecordInterval)
		if interval <= 0 {
			interval = defaultInterval
		}
		timer := time.NewTimer(interval)
		select {
		case <-sess.stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			s.finish(sess, "Recording stopped: controller shut down.")
			return
		case <-timer.C:
		}
	}
}

// store appends sample to the session dataset, creating it first if needed.
func (s *Scheduler) store(ctx context.Context, sess *session, sample Sample) error {
	row := Row(sample, sess.startedAt)

	if sess.handle == "" {
		name := fmt.Sprintf("%s %s", s.cfg.Unit, sample.At.Format(state.StampLayout))
		handle, err := s.cfg.Sink.CreateDataset(ctx, name, IndependentColumn, Columns(sample))
		if err != nil {
			return fmt.Errorf("creating dataset: %w", err)
		}
		s.mu.Lock()
		sess.handle = handle
		sess.name = name
		if s.current == sess {
			_ = s.cfg.Store.Set(state.DatasetName, state.StringValue(name)) //nolint:errcheck // kind is fixed
		}
		s.mu.Unlock()
		s.cfg.Logf(fmt.Sprintf("Recording to dataset %q.", name))
	}

	if err := s.cfg.Sink.AppendRow(ctx, sess.handle, sample.At, row); err != nil {
		return err
	}

	s.mu.Lock()
	sess.samples++
	sess.lastSample = sample.At
	s.mu.Unlock()
	s.cfg.OnSample()
	return nil
}

// stageTemp returns the temperature of the recording channel.
func stageTemp(sample Sample, store *state.Store) (float64, bool) {
	ch := int(store.Float(state.RecordingChannel))
	if ch < 0 || ch >= len(sample.Temperatures) {
		return 0, false
	}
	return sample.Temperatures[ch], true
}

// Columns returns the dependent column names of a sample.
func Columns(sample Sample) []string {
	cols := make([]string, 0, len(sample.Temperatures)+len(sample.Voltages)+4)
	for i := range sample.Temperatures {
		cols = append(cols, fmt.Sprintf("T%d [K]", i+1))
	}
	for i := range sample.Voltages {
		cols = append(cols, fmt.Sprintf("V%d [V]", i+1))
	}
	return append(cols, "RuOx [K]", "RuOx [Ohm]", "Magnet [A]", "Magnet [V]")
}

// Row flattens a sample into dataset values, seconds since start first.
func Row(sample Sample, start time.Time) []float64 {
	row := make([]float64, 0, 1+len(sample.Temperatures)+len(sample.Voltages)+4)
	row = append(row, sample.At.Sub(start).Seconds())
	row = append(row, sample.Temperatures...)
	row = append(row, sample.Voltages...)
	return append(row, sample.RuoxTemp, sample.RuoxRes, sample.MagnetCurrent, sample.MagnetVoltage)
}
