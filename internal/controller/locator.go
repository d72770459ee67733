package controller

import (
	"github.com/leandrodaf/midictl/sdk/contracts"
)

// FindController scans every device of drv for ones named exactly name. A
// matching device is recorded as the input candidate if it can be opened as
// an input, and as the output candidate if it can be opened as an output; the
// same device may fill both roles and the last match wins for each. found is
// true only when both roles were filled.
func FindController(drv contracts.Driver, name string, log contracts.Logger) (in, out contracts.DeviceID, found bool) {
	var hasIn, hasOut bool
	count := drv.CountDevices()
	log.Info("Searching for MIDI controller",
		log.Field().String("name", name),
		log.Field().Int("devices", count))

	for i := 0; i < count; i++ {
		id := contracts.DeviceID(i)
		info, err := drv.DeviceInfo(id)
		if err != nil {
			log.Warn("Skipping unreadable MIDI device",
				log.Field().Int("deviceID", i),
				log.Field().Error("error", err))
			continue
		}
		if info.Name != name {
			continue
		}
		if info.IsInput {
			log.Info("Input found", log.Field().Int("deviceID", i))
			in, hasIn = id, true
		}
		if info.IsOutput {
			log.Info("Output found", log.Field().Int("deviceID", i))
			out, hasOut = id, true
		}
	}
	return in, out, hasIn && hasOut
}

// ListDevices returns the readable devices of drv in enumeration order.
func ListDevices(drv contracts.Driver, log contracts.Logger) []contracts.DeviceInfo {
	count := drv.CountDevices()
	devices := make([]contracts.DeviceInfo, 0, count)
	for i := 0; i < count; i++ {
		info, err := drv.DeviceInfo(contracts.DeviceID(i))
		if err != nil {
			log.Warn("Failed to get information for MIDI device",
				log.Field().Int("deviceID", i),
				log.Field().Error("error", err))
			continue
		}
		devices = append(devices, info)
	}
	return devices
}
