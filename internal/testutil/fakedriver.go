// Package testutil provides an in-memory MIDI driver and logging helpers for tests.
package testutil

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/midictl/internal/logger"
	"github.com/leandrodaf/midictl/sdk/contracts"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// ErrInjected is returned by fake streams configured to fail.
var ErrInjected = errors.New("injected failure")

// FakeDriver is an in-memory contracts.Driver.
type FakeDriver struct {
	mu sync.Mutex

	Devices []contracts.DeviceInfo

	// Failures injected on open, keyed by device ID.
	OpenInputErr  map[contracts.DeviceID]error
	OpenOutputErr map[contracts.DeviceID]error

	// Batches returned by successive reads of input streams. A batch with a
	// non-nil Err ends the read with that error.
	Reads []ReadResult

	// WriteErr makes writes of the listed notes fail.
	WriteErr map[byte]error

	Initialized bool
	Terminated  bool
	Inputs      []*FakeInput
	Outputs     []*FakeOutput
}

// ReadResult is one scripted result of InputStream.Read.
type ReadResult struct {
	Events []contracts.Event
	Err    error
}

// NewFakeDriver returns a driver exposing the given devices. Device IDs are
// assigned from their position.
func NewFakeDriver(devices ...contracts.DeviceInfo) *FakeDriver {
	for i := range devices {
		devices[i].ID = contracts.DeviceID(i)
	}
	return &FakeDriver{Devices: devices}
}

func (d *FakeDriver) Name() string { return "fake" }

func (d *FakeDriver) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Initialized = true
	return nil
}

func (d *FakeDriver) Terminate() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Terminated = true
	return nil
}

func (d *FakeDriver) CountDevices() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Devices)
}

func (d *FakeDriver) DeviceInfo(id contracts.DeviceID) (contracts.DeviceInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if int(id) < 0 || int(id) >= len(d.Devices) {
		return contracts.DeviceInfo{}, fmt.Errorf("%w: %d", contracts.ErrDeviceNotFound, id)
	}
	return d.Devices[id], nil
}

func (d *FakeDriver) OpenInput(id contracts.DeviceID, bufferSize int) (contracts.InputStream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.OpenInputErr[id]; err != nil {
		return nil, err
	}
	in := &FakeInput{driver: d, ID: id, BufferSize: bufferSize}
	d.Inputs = append(d.Inputs, in)
	return in, nil
}

func (d *FakeDriver) OpenOutput(id contracts.DeviceID, bufferSize int) (contracts.OutputStream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.OpenOutputErr[id]; err != nil {
		return nil, err
	}
	out := &FakeOutput{driver: d, ID: id, BufferSize: bufferSize}
	d.Outputs = append(d.Outputs, out)
	return out, nil
}

// FakeInput replays the driver's scripted reads.
type FakeInput struct {
	driver     *FakeDriver
	ID         contracts.DeviceID
	BufferSize int

	mu         sync.Mutex
	ReadCalls  int
	MaxRead    int // largest max requested by Read
	CloseCalls int
}

func (in *FakeInput) Read(max int) ([]contracts.Event, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.ReadCalls++
	if max > in.MaxRead {
		in.MaxRead = max
	}

	in.driver.mu.Lock()
	defer in.driver.mu.Unlock()
	if len(in.driver.Reads) == 0 {
		return nil, nil
	}
	next := in.driver.Reads[0]
	in.driver.Reads = in.driver.Reads[1:]
	if next.Err != nil {
		return nil, next.Err
	}
	if len(next.Events) > max {
		in.driver.Reads = append([]ReadResult{{Events: next.Events[max:]}}, in.driver.Reads...)
		return next.Events[:max], nil
	}
	return next.Events, nil
}

func (in *FakeInput) Close() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.CloseCalls++
	return nil
}

// ReadCount returns how many times Read was called.
func (in *FakeInput) ReadCount() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.ReadCalls
}

// LargestRead returns the largest max passed to Read.
func (in *FakeInput) LargestRead() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.MaxRead
}

// FakeOutput records every written event.
type FakeOutput struct {
	driver     *FakeDriver
	ID         contracts.DeviceID
	BufferSize int

	mu         sync.Mutex
	Written    []contracts.Event
	WriteCalls int
	CloseCalls int
}

func (out *FakeOutput) Write(events []contracts.Event) error {
	out.mu.Lock()
	defer out.mu.Unlock()
	out.WriteCalls++
	for _, ev := range events {
		out.driver.mu.Lock()
		err := out.driver.WriteErr[ev.Message.Data1()]
		out.driver.mu.Unlock()
		if err != nil {
			return err
		}
		out.Written = append(out.Written, ev)
	}
	return nil
}

func (out *FakeOutput) Close() error {
	out.mu.Lock()
	defer out.mu.Unlock()
	out.CloseCalls++
	return nil
}

// Events returns a copy of the written events.
func (out *FakeOutput) Events() []contracts.Event {
	out.mu.Lock()
	defer out.mu.Unlock()
	return append([]contracts.Event(nil), out.Written...)
}

// NewObservedLogger returns a logger whose entries are captured by the returned observer.
func NewObservedLogger() (contracts.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logger.NewZapLoggerWithCore(core), logs
}

// NoteOn builds an input event.
func NoteOn(channel, note, velocity byte) contracts.Event {
	return contracts.Event{Message: contracts.NewMessage(byte(contracts.NoteOn)|channel, note, velocity)}
}

// ControlChange builds an input event.
func ControlChange(channel, controller, value byte) contracts.Event {
	return contracts.Event{Message: contracts.NewMessage(byte(contracts.ControlChange)|channel, controller, value)}
}
