package contracts

import "context"

// Controller is an open session with a control surface.
type Controller interface {
	Name() string                              // Display name of the controller.
	InputOpen() bool                           // Input stream is usable.
	OutputOpen() bool                          // Output stream is usable.
	Profile() *Profile                         // Lighting layout in use.
	ProcessInput(ctx context.Context) error    // Polls input events until ctx is done or a read fails.
	SetLight(button, status int) error         // Lights one button.
	SetLights(buttons []int, status int) error // Lights each listed button, in order.
	SetAllLights(status int) error             // Lights every button of the profile.
	SetGroup(c Color, status int) error        // Lights every button of a colour group.
	AllLightsRed(status int) error
	AllLightsBlue(status int) error
	AllLightsGreen(status int) error
	AllLightsYellow(status int) error
	Close() error // Closes both streams.
}

// ClientMIDI defines an interface for MIDI client operations.
type ClientMIDI interface {
	Stop() error                                              // Closes open controllers and releases the driver.
	ListDevices() ([]DeviceInfo, error)                       // Lists all available MIDI devices.
	FindController(name string) (in, out DeviceID, err error) // Locates the input and output of a named device.
	OpenController(name string) (Controller, error)           // Locates and opens a named device.
	Profile() *Profile                                        // Lighting layout given to controllers.
	Driver() Driver                                           // Driver in use.
}
