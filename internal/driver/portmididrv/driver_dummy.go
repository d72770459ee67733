//go:build !cgo
// +build !cgo

package portmididrv

import (
	"fmt"

	"github.com/leandrodaf/midictl/sdk/contracts"
)

// Name is the registry key of this driver.
const Name = "portmidi"

// New reports that PortMidi needs cgo.
func New(options *contracts.ClientOptions) (contracts.Driver, error) {
	options.Logger.Warn("PortMidi driver requested in a build without cgo")
	return nil, fmt.Errorf("%w: %s requires cgo", contracts.ErrDriverUnavailable, Name)
}
