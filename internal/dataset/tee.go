package dataset

import (
	"context"
	"sync"
	"time"
)

// Sink is the dataset storage contract shared by every backend.
type Sink interface {
	CreateDataset(ctx context.Context, name, independent string, dependents []string) (string, error)
	AppendRow(ctx context.Context, handle string, at time.Time, values []float64) error
}

// Logger defines the logging interface used by Tee.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Tee writes to a primary sink and mirrors every call to secondary sinks.
//
// Only the primary decides success: its handle is returned and its errors
// propagate. Mirror failures are logged; a mirror that failed to create a
// dataset is skipped for that dataset's rows.
//
// Thread Safety:
//   - Safe for concurrent use.
type Tee struct {
	primary Sink
	mirrors []Sink
	logger  Logger

	mu      sync.Mutex
	handles map[string][]string
}

// NewTee creates a Tee. Nil mirrors are ignored.
func NewTee(primary Sink, mirrors ...Sink) *Tee {
	t := &Tee{
		primary: primary,
		logger:  noopLogger{},
		handles: make(map[string][]string),
	}
	for _, m := range mirrors {
		if m != nil {
			t.mirrors = append(t.mirrors, m)
		}
	}
	return t
}

// SetLogger sets the logger for mirror failures.
func (t *Tee) SetLogger(logger Logger) {
	t.logger = logger
}

// CreateDataset implements Sink.
func (t *Tee) CreateDataset(ctx context.Context, name, independent string, dependents []string) (string, error) {
	handle, err := t.primary.CreateDataset(ctx, name, independent, dependents)
	if err != nil {
		return "", err
	}

	mirrored := make([]string, len(t.mirrors))
	for i, m := range t.mirrors {
		h, err := m.CreateDataset(ctx, name, independent, dependents)
		if err != nil {
			t.logger.Warn("dataset mirror create failed", "dataset", name, "error", err)
			continue
		}
		mirrored[i] = h
	}

	t.mu.Lock()
	t.handles[handle] = mirrored
	t.mu.Unlock()
	return handle, nil
}

// AppendRow implements Sink.
func (t *Tee) AppendRow(ctx context.Context, handle string, at time.Time, values []float64) error {
	if err := t.primary.AppendRow(ctx, handle, at, values); err != nil {
		return err
	}

	t.mu.Lock()
	mirrored := t.handles[handle]
	t.mu.Unlock()

	for i, h := range mirrored {
		if h == "" {
			continue
		}
		if err := t.mirrors[i].AppendRow(ctx, h, at, values); err != nil {
			t.logger.Warn("dataset mirror append failed", "handle", h, "error", err)
		}
	}
	return nil
}
