package influxdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementRecording is the measurement recorded samples are written to.
const MeasurementRecording = "adr_recording"

// PointWriter accepts points for asynchronous delivery.
// *Client implements it.
type PointWriter interface {
	WritePoint(p *write.Point)
}

// DatasetMirror mirrors recorded datasets into InfluxDB.
//
// Each dataset keeps its column names so rows, which arrive as plain value
// slices, can be written as named fields. Points are tagged with the unit
// and dataset name so a dashboard can select one cooldown.
//
// Thread Safety:
//   - Safe for concurrent use.
type DatasetMirror struct {
	w    PointWriter
	unit string

	mu       sync.Mutex
	datasets map[string][]string
}

// NewDatasetMirror creates a mirror writing for one ADR unit.
func NewDatasetMirror(w PointWriter, unit string) *DatasetMirror {
	return &DatasetMirror{
		w:        w,
		unit:     unit,
		datasets: make(map[string][]string),
	}
}

// CreateDataset registers the columns of a dataset: the independent
// variable first, then the dependents. The dataset name is the handle.
func (m *DatasetMirror) CreateDataset(_ context.Context, name, independent string, dependents []string) (string, error) {
	if name == "" {
		return "", ErrInvalidDataset
	}

	columns := make([]string, 0, len(dependents)+1)
	columns = append(columns, independent)
	columns = append(columns, dependents...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.datasets[name] = columns
	return name, nil
}

// AppendRow writes one sample as a point. values must hold one entry per
// column given to CreateDataset, independent variable first.
func (m *DatasetMirror) AppendRow(_ context.Context, handle string, at time.Time, values []float64) error {
	m.mu.Lock()
	columns, ok := m.datasets[handle]
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: unknown dataset %q", ErrInvalidDataset, handle)
	}
	if len(values) != len(columns) {
		return fmt.Errorf("%w: %d values for %d columns", ErrInvalidDataset, len(values), len(columns))
	}

	fields := make(map[string]interface{}, len(values))
	for i, col := range columns {
		fields[col] = values[i]
	}

	m.w.WritePoint(write.NewPoint(
		MeasurementRecording,
		map[string]string{"unit": m.unit, "dataset": handle},
		fields,
		at,
	))
	return nil
}
