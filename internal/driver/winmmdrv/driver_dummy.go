//go:build !windows
// +build !windows

package winmmdrv

import (
	"fmt"

	"github.com/leandrodaf/midictl/sdk/contracts"
)

// Name is the registry key of this driver.
const Name = "winmm"

// New reports that winmm only exists on Windows.
func New(options *contracts.ClientOptions) (contracts.Driver, error) {
	options.Logger.Warn("winmm driver requested on a non-Windows system")
	return nil, fmt.Errorf("%w: %s is only available on windows", contracts.ErrDriverUnavailable, Name)
}
