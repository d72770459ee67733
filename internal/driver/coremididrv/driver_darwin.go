//go:build darwin
// +build darwin

// Package coremididrv exposes CoreMIDI endpoints as a contracts.Driver.
//
// Sources (inputs) take the IDs [0, len(sources)) and destinations (outputs)
// follow them.
package coremididrv

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/midictl/internal/driver/queue"
	"github.com/leandrodaf/midictl/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// Name is the registry key of this driver.
const Name = "coremidi"

// Error definitions for CoreMIDI connection and handling issues.
var (
	ErrNotInitialized      = errors.New("CoreMIDI client not initialized")
	ErrCreateInputPort     = errors.New("error creating input port")
	ErrCreateOutputPort    = errors.New("error creating output port")
	ErrMIDIConnectionError = errors.New("error connecting to MIDI source")
)

// internalPortConnection is an interface for handling disconnection from a MIDI port.
type internalPortConnection interface {
	Disconnect()
}

// Driver manages a CoreMIDI client and enumerates its endpoints.
type Driver struct {
	logger       contracts.Logger
	clientName   string
	mu           sync.Mutex
	client       *coremidi.Client
	sources      []coremidi.Source
	destinations []coremidi.Destination
}

// New creates a CoreMIDI driver. The client is registered by Initialize.
func New(options *contracts.ClientOptions) (contracts.Driver, error) {
	name := "midictl"
	if options.CoreMIDIConfig != nil && options.CoreMIDIConfig.ClientName != "" {
		name = options.CoreMIDIConfig.ClientName
	}
	return &Driver{logger: options.Logger, clientName: name}, nil
}

func (d *Driver) Name() string { return Name }

func (d *Driver) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.client != nil {
		return nil
	}
	client, err := coremidi.NewClient(d.clientName)
	if err != nil {
		return fmt.Errorf("creating CoreMIDI client: %w", err)
	}
	d.client = &client
	d.logger.Info("CoreMIDI client successfully created", d.logger.Field().String("client", d.clientName))
	return d.refresh()
}

// Terminate forgets the client; CoreMIDI releases it with the process.
func (d *Driver) Terminate() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.client, d.sources, d.destinations = nil, nil, nil
	return nil
}

func (d *Driver) refresh() error {
	sources, err := coremidi.AllSources()
	if err != nil {
		return fmt.Errorf("error listing MIDI sources: %w", err)
	}
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return fmt.Errorf("error listing MIDI destinations: %w", err)
	}
	d.sources, d.destinations = sources, destinations
	return nil
}

func (d *Driver) CountDevices() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.client == nil {
		return 0
	}
	if err := d.refresh(); err != nil {
		d.logger.Warn("failed to enumerate CoreMIDI endpoints", d.logger.Field().Error("error", err))
	}
	return len(d.sources) + len(d.destinations)
}

func (d *Driver) DeviceInfo(id contracts.DeviceID) (contracts.DeviceInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := int(id)
	if i >= 0 && i < len(d.sources) {
		src := d.sources[i]
		return contracts.DeviceInfo{ID: id, Name: src.Name(), Interface: src.Entity().Manufacturer(), IsInput: true}, nil
	}
	i -= len(d.sources)
	if i >= 0 && i < len(d.destinations) {
		return contracts.DeviceInfo{ID: id, Name: d.destinations[i].Name(), Interface: Name, IsOutput: true}, nil
	}
	return contracts.DeviceInfo{}, fmt.Errorf("%w: no CoreMIDI endpoint %d", contracts.ErrDeviceNotFound, id)
}

func (d *Driver) OpenInput(id contracts.DeviceID, bufferSize int) (contracts.InputStream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.client == nil {
		return nil, ErrNotInitialized
	}
	i := int(id)
	if i < 0 || i >= len(d.sources) {
		return nil, fmt.Errorf("%w: %d is not a CoreMIDI source", contracts.ErrDeviceNotFound, id)
	}
	source := d.sources[i]

	s := &inputStream{q: queue.New(bufferSize)}
	port, err := coremidi.NewInputPort(*d.client, "midictl input", s.handleMIDIMessage)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateInputPort, err)
	}
	conn, err := port.Connect(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMIDIConnectionError, err)
	}
	s.conn = conn
	return s, nil
}

func (d *Driver) OpenOutput(id contracts.DeviceID, bufferSize int) (contracts.OutputStream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.client == nil {
		return nil, ErrNotInitialized
	}
	i := int(id) - len(d.sources)
	if i < 0 || i >= len(d.destinations) {
		return nil, fmt.Errorf("%w: %d is not a CoreMIDI destination", contracts.ErrDeviceNotFound, id)
	}
	port, err := coremidi.NewOutputPort(*d.client, "midictl output")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateOutputPort, err)
	}
	return &outputStream{port: port, destination: d.destinations[i]}, nil
}

type inputStream struct {
	mu   sync.Mutex
	conn internalPortConnection
	q    *queue.Queue
}

// handleMIDIMessage runs on a CoreMIDI thread and only enqueues.
func (s *inputStream) handleMIDIMessage(source coremidi.Source, packet coremidi.Packet) {
	s.q.PushRaw(packet.Data, int64(packet.TimeStamp))
}

func (s *inputStream) Read(max int) ([]contracts.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil, contracts.ErrStreamNotOpen
	}
	return s.q.Drain(max), nil
}

func (s *inputStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Disconnect()
		s.conn = nil
	}
	return nil
}

type outputStream struct {
	mu          sync.Mutex
	port        coremidi.OutputPort
	destination coremidi.Destination
	closed      bool
}

func (s *outputStream) Write(events []contracts.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return contracts.ErrStreamNotOpen
	}
	for _, ev := range events {
		packet := coremidi.NewPacket(ev.Message.Bytes(), uint64(ev.Timestamp))
		if err := packet.Send(&s.port, &s.destination); err != nil {
			return err
		}
	}
	return nil
}

func (s *outputStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
