//go:build !darwin
// +build !darwin

package coremididrv

import (
	"fmt"

	"github.com/leandrodaf/midictl/sdk/contracts"
)

// Name is the registry key of this driver.
const Name = "coremidi"

// New reports that CoreMIDI only exists on macOS.
func New(options *contracts.ClientOptions) (contracts.Driver, error) {
	options.Logger.Warn("CoreMIDI driver requested on a non-macOS system")
	return nil, fmt.Errorf("%w: %s is only available on darwin", contracts.ErrDriverUnavailable, Name)
}
