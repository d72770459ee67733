package contracts

// DeviceID is the handle a driver assigns to a device during enumeration.
// It is only meaningful for the driver that produced it.
type DeviceID int

// DeviceInfo contains information about a MIDI device.
type DeviceInfo struct {
	ID        DeviceID // Position of the device in the driver enumeration.
	Name      string   // Device name as reported by the driver.
	Interface string   // Host API or backend that exposes the device.
	IsInput   bool     // Device can be opened as an input stream.
	IsOutput  bool     // Device can be opened as an output stream.
	IsOpened  bool     // Device is already opened by this process.
}

// Direction returns "in", "out" or "in/out" for display purposes.
func (d DeviceInfo) Direction() string {
	switch {
	case d.IsInput && d.IsOutput:
		return "in/out"
	case d.IsInput:
		return "in"
	case d.IsOutput:
		return "out"
	}
	return "-"
}
