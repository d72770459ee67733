package contracts

// Driver is the boundary to a MIDI I/O library.
//
// Initialize and Terminate bracket the lifetime of the library in the process.
// Device IDs are valid between the two calls and index the range [0, CountDevices()).
type Driver interface {
	Name() string
	Initialize() error
	Terminate() error
	CountDevices() int
	DeviceInfo(id DeviceID) (DeviceInfo, error)
	// OpenInput opens a polling input stream; no callback is exposed to the caller.
	OpenInput(id DeviceID, bufferSize int) (InputStream, error)
	OpenOutput(id DeviceID, bufferSize int) (OutputStream, error)
}

// InputStream is an open input direction of a device.
type InputStream interface {
	// Read returns up to max pending events without blocking. An empty slice
	// means nothing was pending.
	Read(max int) ([]Event, error)
	Close() error
}

// OutputStream is an open output direction of a device.
type OutputStream interface {
	Write(events []Event) error
	Close() error
}
