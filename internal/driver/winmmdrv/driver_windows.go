//go:build windows
// +build windows

// Package winmmdrv exposes the Windows multimedia MIDI API (winmm.dll) as a
// contracts.Driver.
//
// Input devices take the IDs [0, midiInGetNumDevs) and output devices follow.
package winmmdrv

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/leandrodaf/midictl/internal/driver/queue"
	"github.com/leandrodaf/midictl/sdk/contracts"
	"golang.org/x/sys/windows"
)

// Name is the registry key of this driver.
const Name = "winmm"

// Type definitions for MIDI handles
type (
	HMIDIIN  windows.Handle
	HMIDIOUT windows.Handle
)

// Constants for callback flags
const (
	CALLBACK_NULL     = 0x00000000 // No callback
	CALLBACK_FUNCTION = 0x00030000 // Indicates that the callback is a function
	MIDI_IO_STATUS    = 0x00000020 // MIDI input/output status
)

// Constants for MIDI message types
const (
	MIM_OPEN      = 0x3C1 // MIDI device opened
	MIM_CLOSE     = 0x3C2 // MIDI device closed
	MIM_DATA      = 0x3C3 // MIDI data received
	MIM_ERROR     = 0x3C5 // MIDI error
	MIM_LONGERROR = 0x3C6 // Long MIDI error
	MIM_MOREDATA  = 0x3CC // More MIDI data available
)

const maxErrorLength = 256

// Struct representing MIDI input device capabilities
type midiInCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	dwSupport      uint32
}

// Struct representing MIDI output device capabilities
type midiOutCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	wTechnology    uint16
	wVoices        uint16
	wNotes         uint16
	wChannelMask   uint16
	dwSupport      uint32
}

// Load the winmm.dll library and required functions
var (
	winmm                  = windows.NewLazySystemDLL("winmm.dll")
	procMidiInGetNumDevs   = winmm.NewProc("midiInGetNumDevs")
	procMidiInGetDevCaps   = winmm.NewProc("midiInGetDevCapsW")
	procMidiInGetErrorText = winmm.NewProc("midiInGetErrorTextW")
	procMidiInOpen         = winmm.NewProc("midiInOpen")
	procMidiInStart        = winmm.NewProc("midiInStart")
	procMidiInStop         = winmm.NewProc("midiInStop")
	procMidiInClose        = winmm.NewProc("midiInClose")
	procMidiOutGetNumDevs  = winmm.NewProc("midiOutGetNumDevs")
	procMidiOutGetDevCaps  = winmm.NewProc("midiOutGetDevCapsW")
	procMidiOutOpen        = winmm.NewProc("midiOutOpen")
	procMidiOutShortMsg    = winmm.NewProc("midiOutShortMsg")
	procMidiOutClose       = winmm.NewProc("midiOutClose")
)

// Open input streams, keyed by the instance value handed to midiInOpen. The
// callback looks streams up here instead of receiving Go pointers.
var (
	streams    sync.Map
	nextStream atomic.Uintptr
	callback   = sync.OnceValue(func() uintptr { return windows.NewCallback(midiInCallback) })
)

// Driver talks to winmm.dll.
type Driver struct {
	logger contracts.Logger
}

// New creates a winmm driver.
func New(options *contracts.ClientOptions) (contracts.Driver, error) {
	options.Logger.Info("MIDI driver created for Windows")
	return &Driver{logger: options.Logger}, nil
}

func (d *Driver) Name() string { return Name }

// Initialize loads winmm.dll.
func (d *Driver) Initialize() error {
	if err := winmm.Load(); err != nil {
		return fmt.Errorf("loading winmm.dll: %w", err)
	}
	return nil
}

func (d *Driver) Terminate() error { return nil }

func numInputs() int {
	r0, _, _ := procMidiInGetNumDevs.Call()
	return int(uint32(r0))
}

func numOutputs() int {
	r0, _, _ := procMidiOutGetNumDevs.Call()
	return int(uint32(r0))
}

func (d *Driver) CountDevices() int {
	return numInputs() + numOutputs()
}

func (d *Driver) DeviceInfo(id contracts.DeviceID) (contracts.DeviceInfo, error) {
	nIn := numInputs()
	if i := int(id); i >= 0 && i < nIn {
		var caps midiInCaps
		r1, _, _ := procMidiInGetDevCaps.Call(uintptr(i), uintptr(unsafe.Pointer(&caps)), unsafe.Sizeof(caps))
		if r1 != 0 {
			return contracts.DeviceInfo{}, fmt.Errorf("failed to get information for MIDI input %d: %s", i, errorText(r1))
		}
		return contracts.DeviceInfo{
			ID:        id,
			Name:      windows.UTF16ToString(caps.szPname[:]),
			Interface: fmt.Sprintf("MMSystem MID: %d PID: %d", caps.wMid, caps.wPid),
			IsInput:   true,
		}, nil
	}
	i := int(id) - nIn
	if i >= 0 && i < numOutputs() {
		var caps midiOutCaps
		r1, _, _ := procMidiOutGetDevCaps.Call(uintptr(i), uintptr(unsafe.Pointer(&caps)), unsafe.Sizeof(caps))
		if r1 != 0 {
			return contracts.DeviceInfo{}, fmt.Errorf("failed to get information for MIDI output %d: %s", i, errorText(r1))
		}
		return contracts.DeviceInfo{
			ID:        id,
			Name:      windows.UTF16ToString(caps.szPname[:]),
			Interface: fmt.Sprintf("MMSystem MID: %d PID: %d", caps.wMid, caps.wPid),
			IsOutput:  true,
		}, nil
	}
	return contracts.DeviceInfo{}, fmt.Errorf("%w: no winmm device %d", contracts.ErrDeviceNotFound, id)
}

func (d *Driver) OpenInput(id contracts.DeviceID, bufferSize int) (contracts.InputStream, error) {
	i := int(id)
	if i < 0 || i >= numInputs() {
		return nil, fmt.Errorf("%w: %d is not a winmm input", contracts.ErrDeviceNotFound, id)
	}

	s := &inputStream{logger: d.logger, q: queue.New(bufferSize), key: nextStream.Add(1)}
	streams.Store(s.key, s)

	r1, _, _ := procMidiInOpen.Call(
		uintptr(unsafe.Pointer(&s.handle)),
		uintptr(i),
		callback(),
		s.key,
		uintptr(CALLBACK_FUNCTION|MIDI_IO_STATUS),
	)
	if r1 != 0 {
		streams.Delete(s.key)
		return nil, fmt.Errorf("failed to open MIDI input %d: %s", i, errorText(r1))
	}
	r1, _, _ = procMidiInStart.Call(uintptr(s.handle))
	if r1 != 0 {
		procMidiInClose.Call(uintptr(s.handle))
		streams.Delete(s.key)
		return nil, fmt.Errorf("failed to start MIDI input %d: %s", i, errorText(r1))
	}
	return s, nil
}

func (d *Driver) OpenOutput(id contracts.DeviceID, bufferSize int) (contracts.OutputStream, error) {
	i := int(id) - numInputs()
	if i < 0 || i >= numOutputs() {
		return nil, fmt.Errorf("%w: %d is not a winmm output", contracts.ErrDeviceNotFound, id)
	}
	s := &outputStream{}
	r1, _, _ := procMidiOutOpen.Call(
		uintptr(unsafe.Pointer(&s.handle)),
		uintptr(i),
		0,
		0,
		uintptr(CALLBACK_NULL),
	)
	if r1 != 0 {
		return nil, fmt.Errorf("failed to open MIDI output %d: %s", i, errorText(r1))
	}
	return s, nil
}

// midiInCallback processes incoming MIDI messages
func midiInCallback(hMidiIn, wMsg, dwInstance, dwParam1, dwParam2 uintptr) uintptr {
	v, ok := streams.Load(dwInstance)
	if !ok {
		return 0
	}
	s := v.(*inputStream)

	switch wMsg {
	case MIM_DATA:
		msg := contracts.NewMessage(byte(dwParam1&0xFF), byte((dwParam1>>8)&0xFF), byte((dwParam1>>16)&0xFF))
		if msg.Status() >= 0xF0 {
			return 0
		}
		if !s.q.Push(contracts.Event{Timestamp: int64(dwParam2), Message: msg}) {
			s.logger.Warn("MIDI input queue is full; event discarded")
		}
	case MIM_ERROR, MIM_LONGERROR:
		s.logger.Error(fmt.Sprintf("MIDI error: msg=0x%X", wMsg))
	case MIM_OPEN, MIM_CLOSE, MIM_MOREDATA:
	default:
		s.logger.Debug(fmt.Sprintf("Unknown MIDI message: 0x%X", wMsg))
	}
	return 0
}

// errorText maps an MMRESULT to the system's description.
func errorText(code uintptr) string {
	buf := make([]uint16, maxErrorLength)
	r1, _, _ := procMidiInGetErrorText.Call(code, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if r1 != 0 {
		return fmt.Sprintf("MMRESULT %d", code)
	}
	return windows.UTF16ToString(buf)
}

type inputStream struct {
	logger contracts.Logger
	mu     sync.Mutex
	handle HMIDIIN
	key    uintptr
	q      *queue.Queue
}

func (s *inputStream) Read(max int) ([]contracts.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == 0 {
		return nil, contracts.ErrStreamNotOpen
	}
	return s.q.Drain(max), nil
}

// Close stops the capture and releases the device.
func (s *inputStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == 0 {
		return nil
	}
	defer streams.Delete(s.key)

	if r1, _, _ := procMidiInStop.Call(uintptr(s.handle)); r1 != 0 {
		return fmt.Errorf("failed to stop MIDI capture: %s", errorText(r1))
	}
	if r1, _, _ := procMidiInClose.Call(uintptr(s.handle)); r1 != 0 {
		return fmt.Errorf("failed to close MIDI device: %s", errorText(r1))
	}
	s.handle = 0
	return nil
}

type outputStream struct {
	mu     sync.Mutex
	handle HMIDIOUT
}

// Write sends each event as a short message; timestamps are ignored.
func (s *outputStream) Write(events []contracts.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == 0 {
		return contracts.ErrStreamNotOpen
	}
	for _, ev := range events {
		if r1, _, _ := procMidiOutShortMsg.Call(uintptr(s.handle), uintptr(ev.Message)); r1 != 0 {
			return fmt.Errorf("midiOutShortMsg: %s", errorText(r1))
		}
	}
	return nil
}

func (s *outputStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == 0 {
		return nil
	}
	if r1, _, _ := procMidiOutClose.Call(uintptr(s.handle)); r1 != 0 {
		return fmt.Errorf("failed to close MIDI output: %s", errorText(r1))
	}
	s.handle = 0
	return nil
}
