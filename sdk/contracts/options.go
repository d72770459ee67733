package contracts

import "time"

// MIDIEventFilter allows users to specify which MIDI commands a session reports.
type MIDIEventFilter struct {
	Commands []MIDICommand // List of MIDI commands to keep.
}

// Allows reports whether the command passes the filter. A nil filter allows everything.
func (f *MIDIEventFilter) Allows(c MIDICommand) bool {
	if f == nil {
		return true
	}
	for _, allowed := range f.Commands {
		if allowed == c {
			return true
		}
	}
	return false
}

// CoreMIDIConfig holds configuration for CoreMIDI.
type CoreMIDIConfig struct {
	ClientName string // Name of the MIDI client.
}

// ClientOptions defines the configuration options for the MIDI client and its sessions.
type ClientOptions struct {
	Logger           Logger           // Logger for logging events and errors.
	LogLevel         LogLevel         // Level of logging to use.
	LogFilePath      string           // File path for logging if file logging is enabled.
	DriverName       string           // Registered driver to use when Driver is nil.
	Driver           Driver           // Explicit driver, overrides DriverName.
	Profile          *Profile         // Lighting layout of the controller.
	StreamBufferSize int              // Buffer depth requested when opening streams.
	ReadBatchSize    int              // Maximum events read per poll iteration.
	PollInterval     time.Duration    // Sleep between empty reads.
	EventHandler     EventHandler     // Optional receiver of decoded input events.
	MIDIEventFilter  *MIDIEventFilter // Optional filter for reported input events.
	CoreMIDIConfig   *CoreMIDIConfig  // Configuration specific to CoreMIDI.
}

// Option is a function that modifies ClientOptions.
type Option func(*ClientOptions)

// WithLogger sets the logger for the MIDI client.
func WithLogger(l Logger) Option {
	return func(opts *ClientOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level for the MIDI client.
func WithLogLevel(level LogLevel) Option {
	return func(opts *ClientOptions) {
		opts.LogLevel = level
	}
}

// WithLogFile directs logs to the given file.
func WithLogFile(path string) Option {
	return func(opts *ClientOptions) {
		opts.LogFilePath = path
	}
}

// WithDriverName selects a registered driver ("portmidi", "rtmidi", "coremidi", "winmm").
func WithDriverName(name string) Option {
	return func(opts *ClientOptions) {
		opts.DriverName = name
	}
}

// WithDriver uses d instead of a registered driver.
func WithDriver(d Driver) Option {
	return func(opts *ClientOptions) {
		opts.Driver = d
	}
}

// WithProfile sets the lighting layout used by sessions.
func WithProfile(p *Profile) Option {
	return func(opts *ClientOptions) {
		opts.Profile = p
	}
}

// WithStreamBufferSize sets the buffer depth requested when opening streams.
func WithStreamBufferSize(n int) Option {
	return func(opts *ClientOptions) {
		opts.StreamBufferSize = n
	}
}

// WithReadBatchSize sets how many events a poll iteration reads at most.
func WithReadBatchSize(n int) Option {
	return func(opts *ClientOptions) {
		opts.ReadBatchSize = n
	}
}

// WithPollInterval sets the sleep between empty reads of the poll loop.
func WithPollInterval(d time.Duration) Option {
	return func(opts *ClientOptions) {
		opts.PollInterval = d
	}
}

// WithEventHandler registers a receiver for decoded input events.
func WithEventHandler(h EventHandler) Option {
	return func(opts *ClientOptions) {
		opts.EventHandler = h
	}
}

// WithMIDIEventFilter sets the MIDI event filter for sessions.
func WithMIDIEventFilter(filter MIDIEventFilter) Option {
	return func(opts *ClientOptions) {
		opts.MIDIEventFilter = &filter
	}
}

// WithCoreMIDIConfig sets the CoreMIDI configuration for the MIDI client.
func WithCoreMIDIConfig(config CoreMIDIConfig) Option {
	return func(opts *ClientOptions) {
		opts.CoreMIDIConfig = &config
	}
}
