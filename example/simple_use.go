package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/leandrodaf/midictl/internal/logger"
	"github.com/leandrodaf/midictl/sdk/contracts"
	"github.com/leandrodaf/midictl/sdk/midi"
)

func main() {
	log := logger.NewZapLogger()

	client, err := midi.NewMIDIClient(
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.InfoLevel),
		contracts.WithMIDIEventFilter(contracts.MIDIEventFilter{
			Commands: []contracts.MIDICommand{contracts.NoteOn},
		}),
	)
	if err != nil {
		log.Error("Failed to initialize MIDI client", log.Field().Error("error", err))
		return
	}
	defer client.Stop()

	devices, err := client.ListDevices()
	if err != nil {
		log.Error("No MIDI devices found or error listing devices", log.Field().Error("error", err))
		return
	}
	fmt.Println("Available MIDI devices:", devices)

	ctrl, err := client.OpenController("")
	if err != nil {
		log.Error("Failed to open MIDI controller", log.Field().Error("error", err))
		return
	}

	ctrl.SetAllLights(contracts.StatusOff)
	ctrl.AllLightsRed(contracts.StatusOn)
	ctrl.SetLights([]int{91, 92, 93}, contracts.StatusBlink)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("Capturing MIDI events... Press Ctrl+C to exit.")
	if err := ctrl.ProcessInput(ctx); err != nil && ctx.Err() == nil {
		log.Error("MIDI input stopped", log.Field().Error("error", err))
	}
	ctrl.SetAllLights(contracts.StatusOff)
}
