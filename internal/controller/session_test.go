package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/leandrodaf/midictl/internal/testutil"
	"github.com/leandrodaf/midictl/sdk/contracts"
	"github.com/leandrodaf/midictl/sdk/profile"
	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest/observer"
)

func newTestSession(t *testing.T, drv *testutil.FakeDriver, opts *contracts.ClientOptions) (*Session, *observer.ObservedLogs) {
	t.Helper()
	log, logs := testutil.NewObservedLogger()
	if opts == nil {
		opts = &contracts.ClientOptions{}
	}
	opts.Logger = log
	if opts.Profile == nil {
		opts.Profile = profile.XTouch()
	}
	s, err := Open(drv, "X-Touch", 0, 0, opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, logs
}

func xtouchDriver() *testutil.FakeDriver {
	return testutil.NewFakeDriver(contracts.DeviceInfo{Name: "X-Touch", IsInput: true, IsOutput: true})
}

func TestOpenDefaults(t *testing.T) {
	drv := xtouchDriver()
	s, _ := newTestSession(t, drv, nil)

	if !s.InputOpen() || !s.OutputOpen() {
		t.Fatal("both directions should be open")
	}
	if drv.Inputs[0].BufferSize != DefaultStreamBufferSize || drv.Outputs[0].BufferSize != DefaultStreamBufferSize {
		t.Fatalf("buffer sizes %d/%d", drv.Inputs[0].BufferSize, drv.Outputs[0].BufferSize)
	}
	if s.Name() != "X-Touch" || s.InputID() != 0 || s.OutputID() != 0 {
		t.Fatalf("unexpected identity %q %d %d", s.Name(), s.InputID(), s.OutputID())
	}
}

func TestProcessInputLogsNoteOn(t *testing.T) {
	drv := xtouchDriver()
	drv.Reads = []testutil.ReadResult{
		{Events: []contracts.Event{testutil.NoteOn(0, 36, 100)}},
		{Err: testutil.ErrInjected},
	}
	s, logs := newTestSession(t, drv, nil)

	err := s.ProcessInput(context.Background())
	if !errors.Is(err, contracts.ErrStreamRead) || !errors.Is(err, testutil.ErrInjected) {
		t.Fatalf("ProcessInput = %v", err)
	}

	notes := logs.FilterMessage("Note On").All()
	if len(notes) != 1 {
		t.Fatalf("expected 1 Note On entry, got %d", len(notes))
	}
	ctx := notes[0].ContextMap()
	if ctx["note"] != uint8(36) || ctx["velocity"] != uint8(100) || ctx["channel"] != uint8(0) {
		t.Fatalf("unexpected fields %v", ctx)
	}
}

func TestProcessInputLogsControlChangeAndCallsHandler(t *testing.T) {
	drv := xtouchDriver()
	drv.Reads = []testutil.ReadResult{
		{Events: []contracts.Event{
			testutil.ControlChange(2, 16, 65),
			{Message: contracts.NewMessage(0xC0, 3, 0)},
			testutil.NoteOn(1, 5, 127),
		}},
		{Err: testutil.ErrInjected},
	}
	var got []contracts.ControlEvent
	s, logs := newTestSession(t, drv, &contracts.ClientOptions{
		EventHandler: func(ev contracts.ControlEvent) { got = append(got, ev) },
	})

	_ = s.ProcessInput(context.Background())

	if len(got) != 2 {
		t.Fatalf("handler received %d events, want 2", len(got))
	}
	if got[0].Kind != contracts.KindControlChange || got[0].Channel != 2 || got[0].Data1 != 16 {
		t.Fatalf("first event %+v", got[0])
	}
	if got[1].Kind != contracts.KindNoteOn || got[1].Channel != 1 || got[1].Data1 != 5 {
		t.Fatalf("second event %+v", got[1])
	}
	cc := logs.FilterMessage("Control Change").All()
	if len(cc) != 1 || cc[0].ContextMap()["controller"] != uint8(16) || cc[0].ContextMap()["value"] != uint8(65) {
		t.Fatalf("control change log %v", cc)
	}
}

func TestProcessInputFilter(t *testing.T) {
	drv := xtouchDriver()
	drv.Reads = []testutil.ReadResult{
		{Events: []contracts.Event{testutil.ControlChange(0, 1, 1), testutil.NoteOn(0, 2, 2)}},
		{Err: testutil.ErrInjected},
	}
	var got []contracts.ControlEvent
	s, _ := newTestSession(t, drv, &contracts.ClientOptions{
		EventHandler:    func(ev contracts.ControlEvent) { got = append(got, ev) },
		MIDIEventFilter: &contracts.MIDIEventFilter{Commands: []contracts.MIDICommand{contracts.NoteOn}},
	})

	_ = s.ProcessInput(context.Background())
	if len(got) != 1 || got[0].Kind != contracts.KindNoteOn {
		t.Fatalf("filtered events %+v", got)
	}
}

func TestProcessInputStopsAfterReadError(t *testing.T) {
	drv := xtouchDriver()
	drv.Reads = []testutil.ReadResult{
		{Err: testutil.ErrInjected},
		{Events: []contracts.Event{testutil.NoteOn(0, 1, 1)}},
	}
	s, logs := newTestSession(t, drv, nil)

	if err := s.ProcessInput(context.Background()); !errors.Is(err, contracts.ErrStreamRead) {
		t.Fatalf("ProcessInput = %v", err)
	}
	if n := drv.Inputs[0].ReadCount(); n != 1 {
		t.Fatalf("read %d times after the error, want 1", n)
	}
	if logs.FilterMessage("Error processing MIDI input").Len() != 1 {
		t.Fatal("read error not logged")
	}
}

func TestProcessInputReadBatchSize(t *testing.T) {
	drv := xtouchDriver()
	events := make([]contracts.Event, 5)
	for i := range events {
		events[i] = testutil.NoteOn(0, byte(i), 1)
	}
	drv.Reads = []testutil.ReadResult{{Events: events}, {Err: testutil.ErrInjected}}
	var count int
	s, _ := newTestSession(t, drv, &contracts.ClientOptions{
		ReadBatchSize: 2,
		EventHandler:  func(contracts.ControlEvent) { count++ },
	})

	_ = s.ProcessInput(context.Background())
	if count != 5 {
		t.Fatalf("handled %d events, want 5", count)
	}
	// three batches of at most two events, then the failing read
	if n := drv.Inputs[0].ReadCount(); n != 4 {
		t.Fatalf("read %d times, want 4", n)
	}
}

func TestProcessInputReadBatchSizeClamped(t *testing.T) {
	drv := xtouchDriver()
	drv.Reads = []testutil.ReadResult{{Err: testutil.ErrInjected}}
	s, _ := newTestSession(t, drv, &contracts.ClientOptions{ReadBatchSize: 4096})

	_ = s.ProcessInput(context.Background())
	if got := drv.Inputs[0].LargestRead(); got != MaxReadBatchSize {
		t.Fatalf("read max %d, want %d", got, MaxReadBatchSize)
	}
}

func TestProcessInputCancellation(t *testing.T) {
	drv := xtouchDriver()
	s, _ := newTestSession(t, drv, &contracts.ClientOptions{PollInterval: time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.ProcessInput(ctx) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("ProcessInput = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("poll loop did not stop on cancellation")
	}
	if drv.Inputs[0].ReadCount() < 2 {
		t.Fatalf("expected repeated polling, got %d reads", drv.Inputs[0].ReadCount())
	}
}

func TestSetLight(t *testing.T) {
	drv := xtouchDriver()
	s, _ := newTestSession(t, drv, nil)

	if err := s.SetLight(42, contracts.StatusOn); err != nil {
		t.Fatalf("SetLight: %v", err)
	}
	written := drv.Outputs[0].Events()
	if len(written) != 1 {
		t.Fatalf("written %d events", len(written))
	}
	ev := written[0]
	if ev.Timestamp != 0 || ev.Message.Status() != 0x90 || ev.Message.Data1() != 42 || ev.Message.Data2() != 127 {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestSetLightValidates(t *testing.T) {
	drv := xtouchDriver()
	s, _ := newTestSession(t, drv, nil)

	if err := s.SetLight(-1, 1); !errors.Is(err, contracts.ErrButtonOutOfRange) {
		t.Fatalf("SetLight(-1) = %v", err)
	}
	if err := s.SetLight(profile.XTouchButtons, 1); !errors.Is(err, contracts.ErrButtonOutOfRange) {
		t.Fatalf("SetLight(count) = %v", err)
	}
	if err := s.SetLight(0, 128); !errors.Is(err, contracts.ErrInvalidStatus) {
		t.Fatalf("SetLight(status 128) = %v", err)
	}
	if n := len(drv.Outputs[0].Events()); n != 0 {
		t.Fatalf("invalid commands reached the driver: %d writes", n)
	}
}

func TestSetAllLights(t *testing.T) {
	drv := xtouchDriver()
	s, _ := newTestSession(t, drv, nil)

	if err := s.SetAllLights(contracts.StatusBlink); err != nil {
		t.Fatalf("SetAllLights: %v", err)
	}
	out := drv.Outputs[0]
	if out.WriteCalls != profile.XTouchButtons {
		t.Fatalf("write calls %d, want %d", out.WriteCalls, profile.XTouchButtons)
	}
	for i, ev := range out.Events() {
		if int(ev.Message.Data1()) != i || ev.Message.Data2() != contracts.StatusBlink {
			t.Fatalf("event %d = note %d velocity %d", i, ev.Message.Data1(), ev.Message.Data2())
		}
	}
}

func TestColourGroups(t *testing.T) {
	helpers := map[contracts.Color]func(*Session, int) error{
		contracts.Red:    (*Session).AllLightsRed,
		contracts.Blue:   (*Session).AllLightsBlue,
		contracts.Green:  (*Session).AllLightsGreen,
		contracts.Yellow: (*Session).AllLightsYellow,
	}
	for c, set := range helpers {
		t.Run(string(c), func(t *testing.T) {
			drv := xtouchDriver()
			s, _ := newTestSession(t, drv, nil)

			if err := set(s, contracts.StatusOn); err != nil {
				t.Fatalf("set %s: %v", c, err)
			}
			group, _ := s.Profile().Group(c)
			written := drv.Outputs[0].Events()
			if drv.Outputs[0].WriteCalls != len(group) || len(written) != len(group) {
				t.Fatalf("wrote %d events, want %d", len(written), len(group))
			}
			for i, b := range group {
				if int(written[i].Message.Data1()) != b {
					t.Fatalf("write %d addressed button %d, want %d", i, written[i].Message.Data1(), b)
				}
			}
		})
	}
}

func TestSetGroupUnknown(t *testing.T) {
	s, _ := newTestSession(t, xtouchDriver(), nil)
	if err := s.SetGroup("purple", 1); !errors.Is(err, contracts.ErrUnknownGroup) {
		t.Fatalf("SetGroup(purple) = %v", err)
	}
}

func TestSetLightsContinuesAfterFailures(t *testing.T) {
	drv := xtouchDriver()
	drv.WriteErr = map[byte]error{1: testutil.ErrInjected}
	s, logs := newTestSession(t, drv, nil)

	err := s.SetLights([]int{0, 1, 200, 2}, contracts.StatusOn)
	if len(multierr.Errors(err)) != 2 {
		t.Fatalf("expected 2 combined errors, got %v", err)
	}
	if !errors.Is(err, contracts.ErrStreamWrite) || !errors.Is(err, contracts.ErrButtonOutOfRange) {
		t.Fatalf("unexpected errors %v", err)
	}
	written := drv.Outputs[0].Events()
	if len(written) != 2 || written[0].Message.Data1() != 0 || written[1].Message.Data1() != 2 {
		t.Fatalf("written %+v", written)
	}
	if logs.FilterMessage("Error writing MIDI output").Len() != 1 {
		t.Fatal("write failure not logged")
	}
}

func TestOpenPartialFailure(t *testing.T) {
	drv := xtouchDriver()
	drv.OpenInputErr = map[contracts.DeviceID]error{0: testutil.ErrInjected}
	log, logs := testutil.NewObservedLogger()

	s, err := Open(drv, "X-Touch", 0, 0, &contracts.ClientOptions{Logger: log, Profile: profile.XTouch()})
	if !errors.Is(err, testutil.ErrInjected) {
		t.Fatalf("Open error = %v", err)
	}
	if s == nil {
		t.Fatal("session must be returned even when a direction fails")
	}
	if s.InputOpen() || !s.OutputOpen() {
		t.Fatalf("input=%v output=%v", s.InputOpen(), s.OutputOpen())
	}
	if logs.FilterMessage("Error opening MIDI input").Len() != 1 {
		t.Fatal("open failure not logged")
	}
	if err := s.ProcessInput(context.Background()); !errors.Is(err, contracts.ErrStreamNotOpen) {
		t.Fatalf("ProcessInput on failed input = %v", err)
	}
	if err := s.SetLight(0, 1); err != nil {
		t.Fatalf("output should still work: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(drv.Inputs) != 0 {
		t.Fatal("no input stream should exist")
	}
	if drv.Outputs[0].CloseCalls != 1 {
		t.Fatalf("output closed %d times", drv.Outputs[0].CloseCalls)
	}
}

func TestOpenBothFail(t *testing.T) {
	drv := xtouchDriver()
	drv.OpenInputErr = map[contracts.DeviceID]error{0: testutil.ErrInjected}
	drv.OpenOutputErr = map[contracts.DeviceID]error{0: testutil.ErrInjected}
	log, _ := testutil.NewObservedLogger()

	s, err := Open(drv, "X-Touch", 0, 0, &contracts.ClientOptions{Logger: log, Profile: profile.XTouch()})
	if len(multierr.Errors(err)) != 2 {
		t.Fatalf("expected both failures, got %v", err)
	}
	if err := s.SetLight(0, 1); !errors.Is(err, contracts.ErrStreamNotOpen) {
		t.Fatalf("SetLight on failed output = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close of a session without streams: %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	drv := xtouchDriver()
	s, _ := newTestSession(t, drv, nil)

	for i := 0; i < 3; i++ {
		if err := s.Close(); err != nil {
			t.Fatalf("Close #%d: %v", i, err)
		}
	}
	if drv.Inputs[0].CloseCalls != 1 || drv.Outputs[0].CloseCalls != 1 {
		t.Fatalf("close calls in=%d out=%d", drv.Inputs[0].CloseCalls, drv.Outputs[0].CloseCalls)
	}
	if s.InputOpen() || s.OutputOpen() {
		t.Fatal("directions still reported open")
	}
	if err := s.SetLight(0, 1); !errors.Is(err, contracts.ErrStreamNotOpen) {
		t.Fatalf("SetLight after Close = %v", err)
	}
}

func TestConcurrentWritesWhilePolling(t *testing.T) {
	drv := xtouchDriver()
	s, _ := newTestSession(t, drv, nil)

	ctx, cancel := context.WithCancel(context.Background())
	loop := make(chan error, 1)
	go func() { loop <- s.ProcessInput(ctx) }()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.AllLightsGreen(contracts.StatusOn)
		}()
	}
	wg.Wait()
	cancel()
	if err := <-loop; !errors.Is(err, context.Canceled) {
		t.Fatalf("ProcessInput = %v", err)
	}

	green, _ := s.Profile().Group(contracts.Green)
	if n := len(drv.Outputs[0].Events()); n != 4*len(green) {
		t.Fatalf("written %d events, want %d", n, 4*len(green))
	}
}
