package midi

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/midictl/internal/controller"
	"github.com/leandrodaf/midictl/sdk/contracts"
	"go.uber.org/multierr"
)

var (
	_ contracts.ClientMIDI = (*Client)(nil)
	_ contracts.Controller = (*controller.Session)(nil)
)

// ErrNoMIDIDevices is returned by ListDevices when the driver reports no device.
var ErrNoMIDIDevices = errors.New("no MIDI devices found")

// Client binds a driver to the process: the driver is initialized when the
// client is created and terminated by Stop, after the controllers opened
// through the client are closed.
type Client struct {
	options contracts.ClientOptions
	driver  contracts.Driver
	logger  contracts.Logger

	mu       sync.Mutex
	sessions []*controller.Session
	stopOnce sync.Once
	stopErr  error
}

// NewMIDIClient creates a new MIDI client with the specified options.
// It applies default options and initializes the selected driver.
//
// opts ...contracts.Option: A variadic list of option functions to customize the client configuration.
//
// Returns:
//   - contracts.ClientMIDI: An instance of the MIDI client.
//   - error: An error, if any occurred during the creation of the client.
func NewMIDIClient(opts ...contracts.Option) (contracts.ClientMIDI, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}
	return NewClient(&options)
}

// NewClient initializes the driver selected by options, which must already
// carry defaults.
func NewClient(options *contracts.ClientOptions) (*Client, error) {
	drv, err := NewDriver(options)
	if err != nil {
		return nil, err
	}
	if err := drv.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing %s driver: %w", drv.Name(), err)
	}
	options.Logger.Info("MIDI client successfully created", options.Logger.Field().String("driver", drv.Name()))

	return &Client{options: *options, driver: drv, logger: options.Logger}, nil
}

// Driver returns the driver in use.
func (c *Client) Driver() contracts.Driver { return c.driver }

// Profile returns the lighting layout given to controllers.
func (c *Client) Profile() *contracts.Profile { return c.options.Profile }

// ListDevices retrieves and returns available MIDI devices.
// If no devices are found, a warning is logged and ErrNoMIDIDevices returned.
func (c *Client) ListDevices() ([]contracts.DeviceInfo, error) {
	devices := controller.ListDevices(c.driver, c.logger)
	if len(devices) == 0 {
		c.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}
	return devices, nil
}

// FindController locates the input and output of the device called name.
// An empty name uses the profile's device name.
func (c *Client) FindController(name string) (in, out contracts.DeviceID, err error) {
	name = c.deviceName(name)
	in, out, found := controller.FindController(c.driver, name, c.logger)
	if !found {
		return 0, 0, fmt.Errorf("%w: %q needs an input and an output", contracts.ErrDeviceNotFound, name)
	}
	return in, out, nil
}

// OpenController locates and opens the device called name. When only one
// direction opens, the controller is returned together with the error; it
// is closed by Stop either way.
func (c *Client) OpenController(name string) (contracts.Controller, error) {
	name = c.deviceName(name)
	in, out, err := c.FindController(name)
	if err != nil {
		return nil, err
	}

	opts := c.options
	s, err := controller.Open(c.driver, name, in, out, &opts)

	c.mu.Lock()
	c.sessions = append(c.sessions, s)
	c.mu.Unlock()

	return s, err
}

func (c *Client) deviceName(name string) string {
	if name == "" && c.options.Profile != nil {
		return c.options.Profile.DeviceName
	}
	return name
}

// Stop closes every controller opened by the client and terminates the driver.
// This function ensures it only executes once, even if called multiple times.
func (c *Client) Stop() error {
	c.stopOnce.Do(func() {
		c.logger.Info("Stopping MIDI client")

		c.mu.Lock()
		sessions := c.sessions
		c.sessions = nil
		c.mu.Unlock()

		for _, s := range sessions {
			c.stopErr = multierr.Append(c.stopErr, s.Close())
		}
		c.stopErr = multierr.Append(c.stopErr, c.driver.Terminate())
		c.logger.Info("MIDI client stopped")
	})
	return c.stopErr
}
