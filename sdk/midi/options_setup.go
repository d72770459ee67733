package midi

import (
	"fmt"

	"github.com/leandrodaf/midictl/internal/controller"
	"github.com/leandrodaf/midictl/internal/logger"
	"github.com/leandrodaf/midictl/sdk/contracts"
	"github.com/leandrodaf/midictl/sdk/profile"
)

// applyDefaultOptions sets default values for ClientOptions if not explicitly provided.
//
// opts ...contracts.Option: A variadic list of option functions that can modify ClientOptions.
//
// Returns:
//   - contracts.ClientOptions: A structure containing the finalized client options with defaults applied.
//   - error: An error if the configured profile is invalid.
func applyDefaultOptions(opts ...contracts.Option) (contracts.ClientOptions, error) {
	options := &contracts.ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	// Set defaults if options are not provided
	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	options.Logger.SetLevel(options.LogLevel)
	if options.LogFilePath != "" {
		options.Logger.SetDestination(contracts.FileLog, options.LogFilePath)
	}

	if options.DriverName == "" {
		options.DriverName = DefaultDriverName
	}
	if options.Profile == nil {
		options.Profile = profile.XTouch()
	}
	if err := options.Profile.Validate(); err != nil {
		return contracts.ClientOptions{}, fmt.Errorf("profile %q: %w", options.Profile.Name, err)
	}
	if options.StreamBufferSize <= 0 {
		options.StreamBufferSize = controller.DefaultStreamBufferSize
	}
	if options.ReadBatchSize <= 0 {
		options.ReadBatchSize = controller.DefaultReadBatchSize
	}
	if options.ReadBatchSize > controller.MaxReadBatchSize {
		options.ReadBatchSize = controller.MaxReadBatchSize
	}
	if options.PollInterval <= 0 {
		options.PollInterval = controller.DefaultPollInterval
	}
	if options.CoreMIDIConfig == nil {
		options.CoreMIDIConfig = &contracts.CoreMIDIConfig{ClientName: "GO MIDI Client"}
	}
	return *options, nil
}
