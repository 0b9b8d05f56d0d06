package influxdb

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

type recordingWriter struct {
	mu     sync.Mutex
	points []*write.Point
}

func (w *recordingWriter) WritePoint(p *write.Point) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.points = append(w.points, p)
}

func TestDatasetMirror_AppendRow(t *testing.T) {
	w := &recordingWriter{}
	m := NewDatasetMirror(w, "adr1")
	ctx := context.Background()

	handle, err := m.CreateDataset(ctx, "adr1 cooldown", "time_s", []string{"ruox_k", "magnet_a"})
	if err != nil {
		t.Fatalf("CreateDataset() error = %v", err)
	}

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	if err := m.AppendRow(ctx, handle, at, []float64{30, 3.85, 0.01}); err != nil {
		t.Fatalf("AppendRow() error = %v", err)
	}

	if len(w.points) != 1 {
		t.Fatalf("points = %d, want 1", len(w.points))
	}
	p := w.points[0]
	if p.Name() != MeasurementRecording {
		t.Errorf("measurement = %q", p.Name())
	}
	if !p.Time().Equal(at) {
		t.Errorf("time = %v, want %v", p.Time(), at)
	}

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	if tags["unit"] != "adr1" || tags["dataset"] != "adr1 cooldown" {
		t.Errorf("tags = %v", tags)
	}

	fields := map[string]interface{}{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	if fields["ruox_k"] != 3.85 || len(fields) != 3 {
		t.Errorf("fields = %v", fields)
	}
}

func TestDatasetMirror_Errors(t *testing.T) {
	m := NewDatasetMirror(&recordingWriter{}, "adr1")
	ctx := context.Background()

	if _, err := m.CreateDataset(ctx, "", "t", nil); !errors.Is(err, ErrInvalidDataset) {
		t.Errorf("CreateDataset(\"\") error = %v, want ErrInvalidDataset", err)
	}
	if err := m.AppendRow(ctx, "missing", time.Now(), nil); !errors.Is(err, ErrInvalidDataset) {
		t.Errorf("AppendRow(unknown) error = %v, want ErrInvalidDataset", err)
	}

	handle, _ := m.CreateDataset(ctx, "d", "a", []string{"b"}) //nolint:errcheck // checked above
	if err := m.AppendRow(ctx, handle, time.Now(), []float64{1}); !errors.Is(err, ErrInvalidDataset) {
		t.Errorf("AppendRow(short) error = %v, want ErrInvalidDataset", err)
	}
}
