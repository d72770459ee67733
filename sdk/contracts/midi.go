package contracts

// MIDICommand is the high nibble of a channel message status byte.
type MIDICommand byte

const (
	// NoteOff is the MIDI command for a Note Off event (0x80).
	NoteOff MIDICommand = 0x80
	// NoteOn is the MIDI command for a Note On event (0x90).
	NoteOn MIDICommand = 0x90
	// ControlChange is the MIDI command for a Control Change event (0xB0).
	ControlChange MIDICommand = 0xB0
)

const (
	commandMask = 0xF0
	channelMask = 0x0F
)

// Message packs a status byte and two data bytes into one integer.
// The status byte occupies the low byte, data1 the next one and data2 the third.
type Message uint32

// NewMessage packs status, data1 and data2 into a Message.
func NewMessage(status, data1, data2 byte) Message {
	return Message(uint32(data2)<<16 | uint32(data1)<<8 | uint32(status))
}

// MessageFromBytes packs up to the first three bytes of b. Missing data bytes are zero.
func MessageFromBytes(b []byte) Message {
	var status, data1, data2 byte
	switch {
	case len(b) >= 3:
		data2 = b[2]
		fallthrough
	case len(b) == 2:
		data1 = b[1]
		fallthrough
	case len(b) == 1:
		status = b[0]
	}
	return NewMessage(status, data1, data2)
}

// Status returns the status byte.
func (m Message) Status() byte { return byte(m & 0xFF) }

// Data1 returns the first data byte.
func (m Message) Data1() byte { return byte((m >> 8) & 0xFF) }

// Data2 returns the second data byte.
func (m Message) Data2() byte { return byte((m >> 16) & 0xFF) }

// Command returns the message type (status & 0xF0).
func (m Message) Command() MIDICommand { return MIDICommand(m.Status() & commandMask) }

// Channel returns the zero-based channel (status & 0x0F).
func (m Message) Channel() uint8 { return m.Status() & channelMask }

// Bytes returns the wire form of the message.
func (m Message) Bytes() []byte {
	return []byte{m.Status(), m.Data1(), m.Data2()}
}

// Event is a timestamped MIDI message as delivered by a driver.
type Event struct {
	Timestamp int64   // Driver clock, in milliseconds. Zero means "now" on output.
	Message   Message // Packed status and data bytes.
}

// ControlKind discriminates the decoded events a session reports.
type ControlKind int

const (
	// KindNoteOn is a note-on message: Data1 is the note, Data2 the velocity.
	KindNoteOn ControlKind = iota + 1
	// KindControlChange is a control change: Data1 is the controller, Data2 the value.
	KindControlChange
)

func (k ControlKind) String() string {
	switch k {
	case KindNoteOn:
		return "note_on"
	case KindControlChange:
		return "control_change"
	}
	return "unknown"
}

// ControlEvent is an input event decoded by a controller session.
type ControlEvent struct {
	Kind      ControlKind
	Channel   uint8 // 0-15
	Data1     uint8 // Note number or controller number.
	Data2     uint8 // Velocity or controller value.
	Timestamp int64
}

// EventHandler receives every decoded event of a session poll loop.
type EventHandler func(ControlEvent)
