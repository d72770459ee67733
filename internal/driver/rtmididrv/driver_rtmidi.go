//go:build cgo
// +build cgo

// Package rtmididrv exposes RtMidi ports, through gomidi, as a contracts.Driver.
//
// RtMidi enumerates input and output ports separately. Inputs take the IDs
// [0, len(ins)) and outputs follow, so a controller appears twice with the
// same name, once per direction.
package rtmididrv

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/midictl/internal/driver/queue"
	"github.com/leandrodaf/midictl/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	rtmidi "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Name is the registry key of this driver.
const Name = "rtmidi"

var errNotInitialized = errors.New("rtmidi driver not initialized")

// Driver enumerates RtMidi ports.
type Driver struct {
	logger contracts.Logger
	mu     sync.Mutex
	drv    *rtmidi.Driver
	ins    []drivers.In
	outs   []drivers.Out
}

// New creates an RtMidi driver. The native library is opened by Initialize.
func New(options *contracts.ClientOptions) (contracts.Driver, error) {
	return &Driver{logger: options.Logger}, nil
}

func (d *Driver) Name() string { return Name }

func (d *Driver) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.drv != nil {
		return nil
	}
	drv, err := rtmidi.New()
	if err != nil {
		return fmt.Errorf("rtmididrv.New: %w", err)
	}
	d.drv = drv
	return d.refresh()
}

func (d *Driver) Terminate() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.drv == nil {
		return nil
	}
	err := d.drv.Close()
	d.drv, d.ins, d.outs = nil, nil, nil
	return err
}

// refresh re-enumerates the ports. Callers hold d.mu.
func (d *Driver) refresh() error {
	ins, err := d.drv.Ins()
	if err != nil {
		return fmt.Errorf("listing MIDI inputs: %w", err)
	}
	outs, err := d.drv.Outs()
	if err != nil {
		return fmt.Errorf("listing MIDI outputs: %w", err)
	}
	d.ins, d.outs = ins, outs
	return nil
}

// CountDevices re-enumerates the ports and returns inputs plus outputs.
func (d *Driver) CountDevices() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.drv == nil {
		return 0
	}
	if err := d.refresh(); err != nil {
		d.logger.Warn("failed to enumerate RtMidi ports", d.logger.Field().Error("error", err))
	}
	return len(d.ins) + len(d.outs)
}

func (d *Driver) DeviceInfo(id contracts.DeviceID) (contracts.DeviceInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if in, ok := d.in(id); ok {
		return contracts.DeviceInfo{ID: id, Name: in.String(), Interface: Name, IsInput: true, IsOpened: in.IsOpen()}, nil
	}
	if out, ok := d.out(id); ok {
		return contracts.DeviceInfo{ID: id, Name: out.String(), Interface: Name, IsOutput: true, IsOpened: out.IsOpen()}, nil
	}
	return contracts.DeviceInfo{}, fmt.Errorf("%w: no RtMidi port %d", contracts.ErrDeviceNotFound, id)
}

func (d *Driver) in(id contracts.DeviceID) (drivers.In, bool) {
	i := int(id)
	if i < 0 || i >= len(d.ins) {
		return nil, false
	}
	return d.ins[i], true
}

func (d *Driver) out(id contracts.DeviceID) (drivers.Out, bool) {
	i := int(id) - len(d.ins)
	if i < 0 || i >= len(d.outs) {
		return nil, false
	}
	return d.outs[i], true
}

func (d *Driver) OpenInput(id contracts.DeviceID, bufferSize int) (contracts.InputStream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.drv == nil {
		return nil, errNotInitialized
	}
	in, ok := d.in(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d is not an RtMidi input", contracts.ErrDeviceNotFound, id)
	}
	if err := in.Open(); err != nil {
		return nil, fmt.Errorf("opening %q: %w", in.String(), err)
	}

	q := queue.New(bufferSize)
	stop, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		q.PushRaw(msg, int64(timestampms))
	})
	if err != nil {
		_ = in.Close()
		return nil, fmt.Errorf("listening to %q: %w", in.String(), err)
	}
	return &inputStream{in: in, stop: stop, q: q}, nil
}

func (d *Driver) OpenOutput(id contracts.DeviceID, bufferSize int) (contracts.OutputStream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.drv == nil {
		return nil, errNotInitialized
	}
	out, ok := d.out(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d is not an RtMidi output", contracts.ErrDeviceNotFound, id)
	}
	if err := out.Open(); err != nil {
		return nil, fmt.Errorf("opening %q: %w", out.String(), err)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		_ = out.Close()
		return nil, fmt.Errorf("sending to %q: %w", out.String(), err)
	}
	return &outputStream{out: out, send: send}, nil
}

type inputStream struct {
	in   drivers.In
	stop func()
	q    *queue.Queue
	once sync.Once
}

func (s *inputStream) Read(max int) ([]contracts.Event, error) {
	if !s.in.IsOpen() {
		return nil, fmt.Errorf("%w: %s", contracts.ErrStreamNotOpen, s.in.String())
	}
	return s.q.Drain(max), nil
}

func (s *inputStream) Close() error {
	var err error
	s.once.Do(func() {
		s.stop()
		err = s.in.Close()
	})
	return err
}

type outputStream struct {
	out  drivers.Out
	send func(midi.Message) error
}

// Write sends each event immediately; timestamps are ignored.
func (s *outputStream) Write(events []contracts.Event) error {
	for _, ev := range events {
		if err := s.send(midi.Message(ev.Message.Bytes())); err != nil {
			return err
		}
	}
	return nil
}

func (s *outputStream) Close() error { return s.out.Close() }
