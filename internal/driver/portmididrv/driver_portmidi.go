//go:build cgo
// +build cgo

// Package portmididrv exposes PortMidi devices through contracts.Driver.
package portmididrv

import (
	"fmt"
	"sync"

	"github.com/leandrodaf/midictl/sdk/contracts"
	"github.com/rakyll/portmidi"
)

// Name is the registry key of this driver.
const Name = "portmidi"

// Driver wraps the process-wide PortMidi library.
type Driver struct {
	logger      contracts.Logger
	mu          sync.Mutex
	initialized bool
}

// New creates a PortMidi driver. The library is not touched until Initialize.
func New(options *contracts.ClientOptions) (contracts.Driver, error) {
	return &Driver{logger: options.Logger}, nil
}

func (d *Driver) Name() string { return Name }

// Initialize starts PortMidi. Calling it twice is a no-op.
func (d *Driver) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return nil
	}
	if err := portmidi.Initialize(); err != nil {
		return fmt.Errorf("portmidi initialize: %w", err)
	}
	d.initialized = true
	d.logger.Debug("PortMidi initialized")
	return nil
}

// Terminate shuts PortMidi down. Streams must be closed before.
func (d *Driver) Terminate() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return nil
	}
	d.initialized = false
	if err := portmidi.Terminate(); err != nil {
		return fmt.Errorf("portmidi terminate: %w", err)
	}
	d.logger.Debug("PortMidi terminated")
	return nil
}

func (d *Driver) CountDevices() int {
	return portmidi.CountDevices()
}

func (d *Driver) DeviceInfo(id contracts.DeviceID) (contracts.DeviceInfo, error) {
	info := portmidi.Info(portmidi.DeviceID(id))
	if info == nil {
		return contracts.DeviceInfo{}, fmt.Errorf("%w: no PortMidi device %d", contracts.ErrDeviceNotFound, id)
	}
	return contracts.DeviceInfo{
		ID:        id,
		Name:      info.Name,
		Interface: info.Interface,
		IsInput:   info.IsInputAvailable,
		IsOutput:  info.IsOutputAvailable,
		IsOpened:  info.IsOpened,
	}, nil
}

func (d *Driver) OpenInput(id contracts.DeviceID, bufferSize int) (contracts.InputStream, error) {
	s, err := portmidi.NewInputStream(portmidi.DeviceID(id), int64(bufferSize))
	if err != nil {
		return nil, err
	}
	return &inputStream{s: s}, nil
}

// OpenOutput opens an output stream with zero latency, so timestamps are ignored
// and every write is delivered immediately.
func (d *Driver) OpenOutput(id contracts.DeviceID, bufferSize int) (contracts.OutputStream, error) {
	s, err := portmidi.NewOutputStream(portmidi.DeviceID(id), int64(bufferSize), 0)
	if err != nil {
		return nil, err
	}
	return &outputStream{s: s}, nil
}

type inputStream struct {
	s *portmidi.Stream
}

const maxRead = 1024

func (in *inputStream) Read(max int) ([]contracts.Event, error) {
	// portmidi rejects reads above its own buffer limit
	if max > maxRead {
		max = maxRead
	}
	events, err := in.s.Read(max)
	if err != nil {
		return nil, err
	}
	out := make([]contracts.Event, len(events))
	for i, ev := range events {
		out[i] = contracts.Event{
			Timestamp: int64(ev.Timestamp),
			Message:   contracts.NewMessage(byte(ev.Status), byte(ev.Data1), byte(ev.Data2)),
		}
	}
	return out, nil
}

func (in *inputStream) Close() error { return in.s.Close() }

type outputStream struct {
	s *portmidi.Stream
}

func (out *outputStream) Write(events []contracts.Event) error {
	pm := make([]portmidi.Event, len(events))
	for i, ev := range events {
		pm[i] = portmidi.Event{
			Timestamp: portmidi.Timestamp(ev.Timestamp),
			Status:    int64(ev.Message.Status()),
			Data1:     int64(ev.Message.Data1()),
			Data2:     int64(ev.Message.Data2()),
		}
	}
	return out.s.Write(pm)
}

func (out *outputStream) Close() error { return out.s.Close() }
