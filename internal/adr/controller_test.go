package adr

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/adr-core/internal/infrastructure/config"
	"github.com/nerrad567/adr-core/internal/instrument"
	"github.com/nerrad567/adr-core/internal/peripheral"
	"github.com/nerrad567/adr-core/internal/state"
)

const testUnit = "adr1"

// testClock is a settable clock.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// memSink is a recording.Sink holding rows in memory.
type memSink struct {
	mu   sync.Mutex
	rows map[string][][]float64
}

func newMemSink() *memSink {
	return &memSink{rows: make(map[string][][]float64)}
}

func (m *memSink) CreateDataset(_ context.Context, name, _ string, _ []string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[name] = nil
	return name, nil
}

func (m *memSink) AppendRow(_ context.Context, handle string, _ time.Time, values []float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[handle] = append(m.rows[handle], values)
	return nil
}

func (m *memSink) Datasets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// recordingNotifier captures notifications.
type recordingNotifier struct {
	mu       sync.Mutex
	statuses []state.Status
	logs     []string
}

func (n *recordingNotifier) StatusChanged(_ string, s state.Status, _ time.Time) {
	n.mu.Lock()
	n.statuses = append(n.statuses, s)
	n.mu.Unlock()
}

func (n *recordingNotifier) LogAppended(_ string, e state.Entry) {
	n.mu.Lock()
	n.logs = append(n.logs, e.Message)
	n.mu.Unlock()
}

type harness struct {
	c        *Controller
	fake     *instrument.Fake
	clock    *testClock
	sink     *memSink
	notifier *recordingNotifier
	unit     config.UnitConfig
}

func testUnitConfig() config.UnitConfig {
	return config.UnitConfig{
		Name:              testUnit,
		SleepInterval:     10 * time.Millisecond,
		ReconcileInterval: time.Hour,
		Peripherals: map[string]config.PeripheralConfig{
			"lakeshore": {Service: "ls218", Device: "LS218"},
			"magnet":    {Service: "ps", Device: "Agilent 6641A"},
		},
		Parameters:  config.DefaultParameters(),
		Calibration: config.DefaultCalibration(),
	}
}

// newHarness builds an unstarted controller at base temperature.
func newHarness(t *testing.T, mutate func(u *config.UnitConfig)) *harness {
	t.Helper()

	unit := testUnitConfig()
	if mutate != nil {
		mutate(&unit)
	}
	source := config.StaticSource{unit.Name: unit}
	dir := peripheral.NewStaticDirectory(map[string][]string{
		"ls218": {"LS218"},
		"ps":    {"Agilent 6641A"},
	})

	fake := instrument.NewFake()
	fake.Temperatures = []float64{3.5, 3.5, 3.5, 3.5, 3.5, 3.5, 3.5, 3.5}

	h := &harness{
		fake:     fake,
		clock:    &testClock{t: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)},
		sink:     newMemSink(),
		notifier: &recordingNotifier{},
		unit:     unit,
	}

	c, err := New(Deps{
		Unit:        unit,
		Source:      source,
		Facade:      fake,
		Peripherals: peripheral.NewRegistry(unit.Name, source, dir),
		Sink:        h.sink,
		Notifiers:   []Notifier{h.notifier},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	c.now = h.clock.Now
	c.sleep = func(context.Context, time.Duration) error { return nil }
	t.Cleanup(func() { c.Close() }) //nolint:errcheck // test cleanup

	h.c = c
	return h
}

func (h *harness) warm() {
	h.fake.Update(func(f *instrument.Fake) {
		for i := range f.Temperatures {
			f.Temperatures[i] = 300
		}
	})
}

func (h *harness) tick() {
	h.c.tick(context.Background())
}

func (h *harness) setTime(k state.Key, at time.Time) {
	if err := h.c.store.Set(k, state.TimeValue(at)); err != nil {
		panic(err)
	}
}

func (h *harness) setFlag(k state.Key, on bool) {
	if err := h.c.store.Set(k, state.BoolValue(on)); err != nil {
		panic(err)
	}
}

func (h *harness) logContains(substr string) bool {
	for _, e := range h.c.RecentLog() {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func (h *harness) countLog(substr string) int {
	n := 0
	for _, e := range h.c.RecentLog() {
		if strings.Contains(e.Message, substr) {
			n++
		}
	}
	return n
}

func TestNew_Validation(t *testing.T) {
	unit := testUnitConfig()
	source := config.StaticSource{testUnit: unit}
	reg := peripheral.NewRegistry(testUnit, source, peripheral.NewStaticDirectory(nil))

	tests := []struct {
		name string
		deps Deps
	}{
		{"no peripherals", Deps{Unit: unit, Facade: instrument.NewFake(), Sink: newMemSink()}},
		{"no facade", Deps{Unit: unit, Peripherals: reg, Sink: newMemSink()}},
		{"no sink", Deps{Unit: unit, Facade: instrument.NewFake(), Peripherals: reg}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.deps); err == nil {
				t.Error("New() error = nil, want error")
			}
		})
	}
}

func TestNew_InitialState(t *testing.T) {
	h := newHarness(t, nil)

	if got := h.c.Status(); got != state.CoolingDown {
		t.Errorf("Status() = %q, want %q", got, state.CoolingDown)
	}
	if h.c.store.Flag(state.Alive) {
		t.Error("alive set before Start")
	}
	if got := h.c.store.Float(state.QuenchLimit); got != 4.0 {
		t.Errorf("quenchLimit = %v, want 4", got)
	}
	if got := len(h.c.Statuses()); got != 7 {
		t.Errorf("len(Statuses()) = %d, want 7", got)
	}
}

func TestMaxCurrent(t *testing.T) {
	tests := []struct {
		configured float64
		want       float64
	}{
		{9, 9},
		{7.5, 7.5},
		{12, 9},
		{-1, 9},
		{0, 0},
	}
	for _, tt := range tests {
		if got := maxCurrent(tt.configured); got != tt.want {
			t.Errorf("maxCurrent(%v) = %v, want %v", tt.configured, got, tt.want)
		}
	}
}

func TestMagDownAt(t *testing.T) {
	up := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if got, want := magDownAt(up, 2.5), up.Add(150*time.Second); !got.Equal(want) {
		t.Errorf("magDownAt() = %v, want %v", got, want)
	}
}

func TestController_StartStop(t *testing.T) {
	h := newHarness(t, nil)

	if err := h.c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := h.c.Start(context.Background()); err == nil {
		t.Error("second Start() error = nil, want ErrAlreadyStarted")
	}

	deadline := time.Now().Add(2 * time.Second)
	for h.c.Status() != state.Ready {
		if time.Now().After(deadline) {
			t.Fatalf("status = %q, want ready within 2s", h.c.Status())
		}
		time.Sleep(5 * time.Millisecond)
	}

	if got := len(h.c.ConnectedPeripherals()); got != 2 {
		t.Errorf("connected peripherals = %d, want 2", got)
	}

	h.c.Stop()
	select {
	case <-h.c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("cycle did not exit after Stop")
	}
	if !h.logContains("Cycle stopped.") {
		t.Error("log missing stop line")
	}

	if err := h.c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := h.c.Start(context.Background()); err == nil {
		t.Error("Start() after Close error = nil, want ErrClosed")
	}
}

func TestController_CloseWithoutStart(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	select {
	case <-h.c.Done():
	default:
		t.Error("Done() not closed after Close on an unstarted controller")
	}
}

func TestController_HandsOff(t *testing.T) {
	h := newHarness(t, func(u *config.UnitConfig) { u.HandsOff = true })

	if err := h.c.SetStatus(context.Background(), string(state.MaggingUp)); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if calls := h.fake.Calls(); len(calls) != 0 {
		t.Errorf("hands-off controller sent writes: %v", calls)
	}
	for _, want := range []string{"adr1 magnet current -> 9", "adr1 magnet output_state -> true"} {
		if !h.logContains(want) {
			t.Errorf("log missing %q", want)
		}
	}
}
