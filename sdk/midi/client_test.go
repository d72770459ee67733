package midi

import (
	"errors"
	"testing"
	"time"

	"github.com/leandrodaf/midictl/internal/testutil"
	"github.com/leandrodaf/midictl/sdk/contracts"
	"github.com/leandrodaf/midictl/sdk/profile"
)

func newFakeClient(t *testing.T, drv *testutil.FakeDriver, opts ...contracts.Option) contracts.ClientMIDI {
	t.Helper()
	log, _ := testutil.NewObservedLogger()
	opts = append([]contracts.Option{contracts.WithLogger(log), contracts.WithDriver(drv)}, opts...)
	client, err := NewMIDIClient(opts...)
	if err != nil {
		t.Fatalf("NewMIDIClient: %v", err)
	}
	t.Cleanup(func() { _ = client.Stop() })
	return client
}

func TestApplyDefaultOptions(t *testing.T) {
	log, _ := testutil.NewObservedLogger()
	opts, err := applyDefaultOptions(contracts.WithLogger(log))
	if err != nil {
		t.Fatalf("applyDefaultOptions: %v", err)
	}
	if opts.DriverName != DefaultDriverName {
		t.Fatalf("driver=%q", opts.DriverName)
	}
	if opts.Profile == nil || opts.Profile.Name != profile.XTouchName {
		t.Fatalf("profile=%+v", opts.Profile)
	}
	if opts.ReadBatchSize != 1024 || opts.PollInterval != time.Millisecond || opts.StreamBufferSize != 1 {
		t.Fatalf("batch=%d interval=%s buffer=%d", opts.ReadBatchSize, opts.PollInterval, opts.StreamBufferSize)
	}
}

func TestApplyDefaultOptionsClampsReadBatchSize(t *testing.T) {
	log, _ := testutil.NewObservedLogger()
	opts, err := applyDefaultOptions(contracts.WithLogger(log), contracts.WithReadBatchSize(5000))
	if err != nil {
		t.Fatalf("applyDefaultOptions: %v", err)
	}
	if opts.ReadBatchSize != 1024 {
		t.Fatalf("batch=%d, want 1024", opts.ReadBatchSize)
	}
}

func TestApplyDefaultOptionsRejectsInvalidProfile(t *testing.T) {
	log, _ := testutil.NewObservedLogger()
	_, err := applyDefaultOptions(contracts.WithLogger(log), contracts.WithProfile(&contracts.Profile{Name: "broken"}))
	if !errors.Is(err, contracts.ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}
}

func TestNewDriverUnknown(t *testing.T) {
	log, _ := testutil.NewObservedLogger()
	_, err := NewDriver(&contracts.ClientOptions{Logger: log, DriverName: "jack"})
	if !errors.Is(err, contracts.ErrUnsupportedDriver) {
		t.Fatalf("expected ErrUnsupportedDriver, got %v", err)
	}
}

func TestDriverNames(t *testing.T) {
	names := DriverNames()
	want := []string{"coremidi", "portmidi", "rtmidi", "winmm"}
	if len(names) != len(want) {
		t.Fatalf("names=%v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names=%v", names)
		}
	}
}

func TestClientLifecycle(t *testing.T) {
	drv := testutil.NewFakeDriver(
		contracts.DeviceInfo{Name: "X-Touch", IsInput: true},
		contracts.DeviceInfo{Name: "X-Touch", IsOutput: true},
	)
	client := newFakeClient(t, drv)
	if !drv.Initialized {
		t.Fatal("driver not initialized")
	}

	ctrl, err := client.OpenController("")
	if err != nil {
		t.Fatalf("OpenController: %v", err)
	}
	if ctrl.Name() != "X-Touch" || !ctrl.InputOpen() || !ctrl.OutputOpen() {
		t.Fatalf("controller %q in=%v out=%v", ctrl.Name(), ctrl.InputOpen(), ctrl.OutputOpen())
	}
	if drv.Inputs[0].ID != 0 || drv.Outputs[0].ID != 1 {
		t.Fatalf("opened in=%d out=%d", drv.Inputs[0].ID, drv.Outputs[0].ID)
	}
	if err := ctrl.AllLightsYellow(contracts.StatusOn); err != nil {
		t.Fatalf("AllLightsYellow: %v", err)
	}

	if err := client.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !drv.Terminated {
		t.Fatal("driver not terminated")
	}
	if drv.Inputs[0].CloseCalls != 1 || drv.Outputs[0].CloseCalls != 1 {
		t.Fatal("controller streams not closed by Stop")
	}
	if err := client.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestOpenControllerNotFound(t *testing.T) {
	drv := testutil.NewFakeDriver(contracts.DeviceInfo{Name: "X-Touch", IsInput: true})
	client := newFakeClient(t, drv)

	if _, err := client.OpenController("X-Touch"); !errors.Is(err, contracts.ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
	if len(drv.Inputs) != 0 || len(drv.Outputs) != 0 {
		t.Fatal("streams opened for a missing controller")
	}
}

func TestOpenControllerPartial(t *testing.T) {
	drv := testutil.NewFakeDriver(contracts.DeviceInfo{Name: "X-Touch", IsInput: true, IsOutput: true})
	drv.OpenOutputErr = map[contracts.DeviceID]error{0: testutil.ErrInjected}
	client := newFakeClient(t, drv)

	ctrl, err := client.OpenController("X-Touch")
	if !errors.Is(err, testutil.ErrInjected) || ctrl == nil {
		t.Fatalf("OpenController = %v, %v", ctrl, err)
	}
	if err := ctrl.SetAllLights(contracts.StatusOff); !errors.Is(err, contracts.ErrStreamNotOpen) {
		t.Fatalf("SetAllLights on failed output = %v", err)
	}
}

func TestListDevices(t *testing.T) {
	client := newFakeClient(t, testutil.NewFakeDriver())
	if _, err := client.ListDevices(); !errors.Is(err, ErrNoMIDIDevices) {
		t.Fatalf("expected ErrNoMIDIDevices, got %v", err)
	}

	client = newFakeClient(t, testutil.NewFakeDriver(contracts.DeviceInfo{Name: "X-Touch", IsInput: true}))
	devices, err := client.ListDevices()
	if err != nil || len(devices) != 1 || devices[0].Name != "X-Touch" {
		t.Fatalf("ListDevices = %+v, %v", devices, err)
	}
}
