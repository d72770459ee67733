package midi

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leandrodaf/midictl/internal/driver/coremididrv"
	"github.com/leandrodaf/midictl/internal/driver/portmididrv"
	"github.com/leandrodaf/midictl/internal/driver/rtmididrv"
	"github.com/leandrodaf/midictl/internal/driver/winmmdrv"
	"github.com/leandrodaf/midictl/sdk/contracts"
)

// DefaultDriverName is the driver used when none is configured.
const DefaultDriverName = portmididrv.Name

// driverInitializers maps driver names to their constructors.
var driverInitializers = map[string]func(*contracts.ClientOptions) (contracts.Driver, error){
	portmididrv.Name: portmididrv.New, // PortMidi, every platform with cgo.
	rtmididrv.Name:   rtmididrv.New,   // RtMidi through gomidi, every platform with cgo.
	coremididrv.Name: coremididrv.New, // macOS CoreMIDI.
	winmmdrv.Name:    winmmdrv.New,    // Windows multimedia API.
}

// DriverNames lists the registered driver names in alphabetical order.
func DriverNames() []string {
	names := make([]string, 0, len(driverInitializers))
	for name := range driverInitializers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewDriver builds the driver selected by the options. An explicit
// options.Driver wins over options.DriverName.
func NewDriver(opts *contracts.ClientOptions) (contracts.Driver, error) {
	if opts.Driver != nil {
		return opts.Driver, nil
	}
	if initializer, exists := driverInitializers[strings.ToLower(opts.DriverName)]; exists {
		return initializer(opts)
	}
	return nil, fmt.Errorf("%w: %q (available: %s)", contracts.ErrUnsupportedDriver, opts.DriverName, strings.Join(DriverNames(), ", "))
}
