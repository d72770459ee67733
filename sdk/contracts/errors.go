package contracts

import "errors"

// Errors reported by sessions, drivers and the client.
var (
	ErrDeviceNotFound    = errors.New("MIDI controller not found")
	ErrStreamNotOpen     = errors.New("MIDI stream is not open")
	ErrStreamRead        = errors.New("error reading MIDI input")
	ErrStreamWrite       = errors.New("error writing MIDI output")
	ErrButtonOutOfRange  = errors.New("button index out of range")
	ErrInvalidStatus     = errors.New("invalid light status")
	ErrUnknownGroup      = errors.New("unknown button group")
	ErrUnsupportedDriver = errors.New("unsupported MIDI driver")
	ErrDriverUnavailable = errors.New("MIDI driver is not available in this build")
	ErrInvalidProfile    = errors.New("invalid device profile")
)
