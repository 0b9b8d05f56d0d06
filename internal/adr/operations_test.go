package adr

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/adr-core/internal/instrument"
	"github.com/nerrad567/adr-core/internal/recording"
	"github.com/nerrad567/adr-core/internal/state"
)

func TestSetStatus_Invalid(t *testing.T) {
	h := newHarness(t, nil)

	err := h.c.SetStatus(context.Background(), "warming up")
	if !errors.Is(err, state.ErrInvalidStatus) {
		t.Fatalf("SetStatus() error = %v, want ErrInvalidStatus", err)
	}
	if got := h.c.Status(); got != state.CoolingDown {
		t.Errorf("status = %q, want unchanged", got)
	}
	if !h.logContains("ERROR: status warming up not in possible statuses") {
		t.Error("log missing invalid status line")
	}
}

func TestSetStatus_Idempotent(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := h.c.SetStatus(ctx, string(state.MaggingUp)); err != nil {
			t.Fatalf("SetStatus() error = %v", err)
		}
	}

	if got := h.countLog("ADR adr1 status is now: magging up"); got != 1 {
		t.Errorf("status log lines = %d, want 1", got)
	}
	if got := len(h.fake.Calls()); got != 2 {
		t.Errorf("calls = %v, want entry actions once", h.fake.Calls())
	}
	if got := len(h.notifier.statuses); got != 1 {
		t.Errorf("notifications = %d, want 1", got)
	}
}

// cancelAfterCurrent cancels the caller's context once the supply current
// has been written, as a client dropping its request would.
type cancelAfterCurrent struct {
	instrument.Facade
	cancel context.CancelFunc
}

func (f cancelAfterCurrent) SetMagnetCurrent(ctx context.Context, amps float64) error {
	err := f.Facade.SetMagnetCurrent(ctx, amps)
	f.cancel()
	return err
}

func TestSetStatus_EntryActionsOutliveCaller(t *testing.T) {
	h := newHarness(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.c.facade = cancelAfterCurrent{Facade: h.fake, cancel: cancel}

	if err := h.c.SetStatus(ctx, string(state.MaggingUp)); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if ctx.Err() == nil {
		t.Fatal("caller context not cancelled during entry actions")
	}

	var on bool
	h.fake.Update(func(f *instrument.Fake) { on = f.OutputOn })
	if !on {
		t.Errorf("supply output off after caller went away; calls = %v", h.fake.Calls())
	}
}

func TestSetStatus_CancelledCaller(t *testing.T) {
	h := newHarness(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := h.c.SetStatus(ctx, string(state.MaggingUp)); !errors.Is(err, context.Canceled) {
		t.Fatalf("SetStatus() error = %v, want context.Canceled", err)
	}
	if got := h.c.Status(); got != state.CoolingDown {
		t.Errorf("status = %q, want unchanged", got)
	}
	if got := len(h.fake.Calls()); got != 0 {
		t.Errorf("calls = %v, want none", h.fake.Calls())
	}
}

func TestParameters_SetAndGet(t *testing.T) {
	h := newHarness(t, nil)

	if err := h.c.SetParameter("quenchLimit", json.RawMessage(`4.5`)); err != nil {
		t.Fatalf("SetParameter() error = %v", err)
	}
	v, err := h.c.Parameter("quenchLimit")
	if err != nil {
		t.Fatalf("Parameter() error = %v", err)
	}
	if v.Float64() != 4.5 {
		t.Errorf("quenchLimit = %v, want 4.5", v.Float64())
	}

	if err := h.c.SetParameter("quenchLimit", json.RawMessage(`true`)); !errors.Is(err, state.ErrInvalidValue) {
		t.Errorf("wrong kind error = %v, want ErrInvalidValue", err)
	}
	if err := h.c.SetParameter("fluxCapacitor", json.RawMessage(`1`)); !errors.Is(err, state.ErrUnknownKey) {
		t.Errorf("unknown key error = %v, want ErrUnknownKey", err)
	}
	if _, err := h.c.Parameter("fluxCapacitor"); !errors.Is(err, state.ErrUnknownKey) {
		t.Errorf("unknown key error = %v, want ErrUnknownKey", err)
	}

	for _, raw := range []string{`null`, `0`, `-0.5`} {
		if err := h.c.SetParameter("rampWaitTime", json.RawMessage(raw)); !errors.Is(err, state.ErrInvalidValue) {
			t.Errorf("rampWaitTime %s error = %v, want ErrInvalidValue", raw, err)
		}
	}
	if v, _ := h.c.Parameter("rampWaitTime"); v.Duration() <= 0 {
		t.Errorf("rampWaitTime = %v after rejected writes", v)
	}

	params := h.c.Parameters()
	if _, ok := params["cooldownLimit"]; !ok {
		t.Error("Parameters() missing cooldownLimit")
	}
	if _, ok := params["scheduledMagUpTime"]; ok {
		t.Error("Parameters() lists an unset parameter")
	}
}

func TestHook_ScheduledMagUpActivatesScheduling(t *testing.T) {
	h := newHarness(t, nil)

	if err := h.c.SetParameter("scheduledMagUpTime", json.RawMessage(`"2026-03-01T12:00:00Z"`)); err != nil {
		t.Fatalf("SetParameter() error = %v", err)
	}
	if !h.c.store.Flag(state.SchedulingActive) {
		t.Error("schedulingActive not set by scheduling a mag up")
	}

	h.setFlag(state.SchedulingActive, false)
	h.c.store.Clear(state.ScheduledMagUpTime)
	if h.c.store.Flag(state.SchedulingActive) {
		t.Error("clearing the mag up time activated scheduling")
	}
}

func TestHook_FieldWaitMovesMagDown(t *testing.T) {
	h := newHarness(t, nil)
	up := h.clock.Now()
	if _, _, err := h.c.store.SwapStatus(state.WaitingAtField); err != nil {
		t.Fatal(err)
	}
	h.setTime(state.TimeMaggedUp, up)
	h.setTime(state.ScheduledMagDownTime, up.Add(2*time.Minute))

	if err := h.c.SetParameter("fieldWaitTime", json.RawMessage(`10`)); err != nil {
		t.Fatalf("SetParameter() error = %v", err)
	}

	got, _ := h.c.store.Timestamp(state.ScheduledMagDownTime)
	if want := up.Add(10 * time.Minute); !got.Equal(want) {
		t.Errorf("scheduledMagDownTime = %v, want %v", got, want)
	}
}

func TestHook_SchedulingReleasesHeldField(t *testing.T) {
	h := newHarness(t, nil)
	if _, _, err := h.c.store.SwapStatus(state.ReadyToMagDown); err != nil {
		t.Fatal(err)
	}

	h.setFlag(state.SchedulingActive, true)

	if got := h.c.Status(); got != state.MaggingDown {
		t.Errorf("status = %q, want magging down", got)
	}
}

func TestHook_LogLimit(t *testing.T) {
	h := newHarness(t, nil)
	for i := 0; i < 10; i++ {
		h.c.logf("line " + string(rune('a'+i)))
	}

	if err := h.c.SetParameter("logLimit", json.RawMessage(`3`)); err != nil {
		t.Fatalf("SetParameter() error = %v", err)
	}

	entries := h.c.RecentLog()
	if len(entries) != 3 {
		t.Fatalf("len(RecentLog()) = %d, want 3", len(entries))
	}
	if entries[2].Message != "line j" {
		t.Errorf("newest entry = %q, want line j", entries[2].Message)
	}
}

func TestHook_RecordingActiveToggles(t *testing.T) {
	h := newHarness(t, nil)

	h.setFlag(state.RecordingActive, true)
	if !h.c.RecordingInfo().Active {
		t.Fatal("recording not started by recordingActive")
	}
	if err := h.c.StartRecording(); !errors.Is(err, recording.ErrAlreadyRecording) {
		t.Errorf("StartRecording() error = %v, want ErrAlreadyRecording", err)
	}

	h.setFlag(state.RecordingActive, false)
	if h.c.RecordingInfo().Active {
		t.Error("recording still active after clearing recordingActive")
	}
	if err := h.c.StopRecording(); !errors.Is(err, recording.ErrNotRecording) {
		t.Errorf("StopRecording() error = %v, want ErrNotRecording", err)
	}
}

func TestHook_LogFile(t *testing.T) {
	h := newHarness(t, nil)
	path := filepath.Join(t.TempDir(), "adr1.log")

	if err := h.c.SetParameter("logFile", json.RawMessage(`"`+path+`"`)); err != nil {
		t.Fatalf("SetParameter() error = %v", err)
	}
	if got := h.c.logFile.Path(); got != path {
		t.Errorf("log file = %q, want %q", got, path)
	}
}

func TestRevertDefaults(t *testing.T) {
	h := newHarness(t, nil)
	magUp := h.clock.Now().Add(time.Hour)
	h.setTime(state.ScheduledMagUpTime, magUp)
	if err := h.c.SetParameter("quenchLimit", json.RawMessage(`6`)); err != nil {
		t.Fatal(err)
	}

	if err := h.c.RevertDefaults(context.Background()); err != nil {
		t.Fatalf("RevertDefaults() error = %v", err)
	}

	if got := h.c.store.Float(state.QuenchLimit); got != 4.0 {
		t.Errorf("quenchLimit = %v, want 4", got)
	}
	if got, ok := h.c.store.Timestamp(state.ScheduledMagUpTime); !ok || !got.Equal(magUp) {
		t.Errorf("scheduledMagUpTime = %v (set %v), want it kept", got, ok)
	}
	if !h.c.store.Flag(state.SchedulingActive) {
		t.Error("schedulingActive lost by revert")
	}
	if !h.logContains("Parameters reverted to defaults.") {
		t.Error("log missing revert line")
	}
}

func TestReadings(t *testing.T) {
	h := newHarness(t, nil)
	h.fake.Update(func(f *instrument.Fake) {
		f.Voltages[3] = 1500 * 26.03
		f.MagnetCurrent = 4
		f.CompressorOn = true
	})

	r := h.c.Readings(context.Background())

	if len(r.Errors) != 0 {
		t.Fatalf("Errors = %v", r.Errors)
	}
	if r.MagnetCurrent != 4 {
		t.Errorf("MagnetCurrent = %v, want 4", r.MagnetCurrent)
	}
	if !r.CompressorRunning {
		t.Error("CompressorRunning not reported")
	}
	if math.Abs(r.RuoxResistance-1500) > 1e-6 {
		t.Errorf("RuoxResistance = %v, want 1500", r.RuoxResistance)
	}
	if math.Abs(r.RuoxTemperature-3.0521728893) > 1e-6 {
		t.Errorf("RuoxTemperature = %v, want 3.0522", r.RuoxTemperature)
	}
}

func TestReadings_PartialFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.fake.Update(func(f *instrument.Fake) { f.MagnetErr = errors.New("supply offline") })

	r := h.c.Readings(context.Background())

	if len(r.Errors) != 2 {
		t.Errorf("Errors = %v, want magnet current and voltage", r.Errors)
	}
	if r.Temperatures == nil {
		t.Error("temperatures dropped by a magnet failure")
	}
}

func TestReadings_Unavailable(t *testing.T) {
	h := newHarness(t, nil)
	h.fake.Update(func(f *instrument.Fake) { f.Unavailable = true })

	r := h.c.Readings(context.Background())

	if len(r.Errors) != 5 {
		t.Errorf("Errors = %v, want one per instrument", r.Errors)
	}
	if len(r.Temperatures) != 8 || len(r.Voltages) != 8 {
		t.Fatalf("channels = %d temperatures, %d voltages, want 8 zeroed each", len(r.Temperatures), len(r.Voltages))
	}
	for i := range r.Temperatures {
		if r.Temperatures[i] != 0 || r.Voltages[i] != 0 {
			t.Errorf("channel %d = (%v, %v), want zeros", i, r.Temperatures[i], r.Voltages[i])
		}
	}
	if r.MagnetCurrent != 0 || r.MagnetVoltage != 0 || r.CompressorRunning {
		t.Errorf("supply = (%v, %v, %v), want zero values", r.MagnetCurrent, r.MagnetVoltage, r.CompressorRunning)
	}
}

func TestRuoxStatus_Unavailable(t *testing.T) {
	h := newHarness(t, nil)
	h.fake.Update(func(f *instrument.Fake) { f.Unavailable = true })

	temp, res := h.c.RuoxStatus(context.Background())
	if temp != 0 || res != 0 {
		t.Errorf("RuoxStatus() = (%v, %v), want (0, 0)", temp, res)
	}
}

func TestCommands(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	steps := []struct {
		name string
		run  func(context.Context) error
		log  string
	}{
		{"open heat switch", h.c.OpenHeatSwitch, "Heat switch opened."},
		{"close heat switch", h.c.CloseHeatSwitch, "Heat switch closed."},
		{"start compressor", h.c.StartCompressor, "Compressor started."},
		{"stop compressor", h.c.StopCompressor, "Compressor stopped."},
	}
	for _, s := range steps {
		if err := s.run(ctx); err != nil {
			t.Fatalf("%s: error = %v", s.name, err)
		}
		if !h.logContains(s.log) {
			t.Errorf("%s: log missing %q", s.name, s.log)
		}
	}

	h.fake.Update(func(f *instrument.Fake) { f.Unavailable = true })
	if err := h.c.OpenHeatSwitch(ctx); !errors.Is(err, instrument.ErrUnavailable) {
		t.Errorf("OpenHeatSwitch() error = %v, want ErrUnavailable", err)
	}
}

func TestPeripheralOperations(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	if err := h.c.RefreshPeripherals(ctx); err != nil {
		t.Fatalf("RefreshPeripherals() error = %v", err)
	}
	if got := len(h.c.Peripherals()); got != 2 {
		t.Errorf("len(Peripherals()) = %d, want 2", got)
	}
	if got := len(h.c.OrphanedPeripherals()); got != 0 {
		t.Errorf("orphans = %v, want none", h.c.OrphanedPeripherals())
	}

	ok, err := h.c.ConnectPeripheral(ctx, "magnet")
	if err != nil || !ok {
		t.Errorf("ConnectPeripheral(magnet) = %v, %v, want true, nil", ok, err)
	}
	if _, err := h.c.ConnectPeripheral(ctx, "gauge"); err == nil {
		t.Error("ConnectPeripheral(gauge) error = nil, want unknown peripheral")
	}
}

func TestFullLog_MemoryFallback(t *testing.T) {
	h := newHarness(t, nil)
	h.c.logf("hello")

	entries, err := h.c.FullLog(context.Background())
	if err != nil {
		t.Fatalf("FullLog() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Message != "hello" {
		t.Errorf("FullLog() = %v", entries)
	}
	if got := h.notifier.logs; len(got) != 1 || got[0] != "hello" {
		t.Errorf("notified logs = %v", got)
	}
}

func TestSample_MagnetFailureRecordsZeros(t *testing.T) {
	h := newHarness(t, nil)
	h.fake.Update(func(f *instrument.Fake) {
		f.MagnetErr = errors.New("supply offline")
	})

	s, err := h.c.sample(context.Background())
	if err != nil {
		t.Fatalf("sample() error = %v", err)
	}
	if s.MagnetCurrent != 0 || s.MagnetVoltage != 0 {
		t.Errorf("magnet = (%v, %v), want zeros", s.MagnetCurrent, s.MagnetVoltage)
	}
	if len(s.Temperatures) != 8 {
		t.Errorf("temperatures = %v", s.Temperatures)
	}

	h.fake.Update(func(f *instrument.Fake) { f.Unavailable = true })
	if _, err := h.c.sample(context.Background()); !errors.Is(err, instrument.ErrUnavailable) {
		t.Errorf("sample() error = %v, want ErrUnavailable", err)
	}
}
