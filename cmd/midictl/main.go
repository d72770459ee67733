// Command midictl lists MIDI devices, watches a control surface and drives its button lights.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/leandrodaf/midictl/internal/config"
	"github.com/leandrodaf/midictl/sdk/contracts"
	"github.com/leandrodaf/midictl/sdk/midi"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "devices", "ls-devices", "list":
		err = runDevices(args)
	case "watch":
		err = runWatch(ctx, args)
	case "light":
		err = runLight(args)
	case "all":
		err = runAll(args)
	case "group":
		err = runGroup(args)
	case "demo":
		err = runDemo(ctx, args)
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "midictl %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: midictl <command> [flags]

commands:
  devices                     list MIDI devices of the driver
  watch                       log note-on and control change events until interrupted
  light  -button N -status S  light one or more buttons (-button 1,2,8-15)
  all    -status S            light every button of the profile
  group  -color C -status S   light a colour group (red, blue, green, yellow)
  demo                        cycle the colour groups and echo pressed buttons

common flags:
  -config FILE     YAML configuration (default midictl.yaml)
  -device NAME     controller name (default from the profile)
  -driver NAME     MIDI driver: %v
  -profile P       built-in profile name or YAML file (default x-touch)
  -log-level L     debug, info, warn, error
  -log-file FILE   write logs to FILE

statuses are 0..127 or a profile preset (off, blink, on)
`, midi.DriverNames())
}

// commonFlags registers the flags shared by every command.
type commonFlags struct {
	configPath string
	cfg        config.Config
	handler    contracts.EventHandler
}

func newFlagSet(name string) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet("midictl "+name, flag.ExitOnError)
	c := &commonFlags{}
	fs.StringVar(&c.configPath, "config", "midictl.yaml", "YAML configuration file")
	fs.StringVar(&c.cfg.Device, "device", "", "controller device name")
	fs.StringVar(&c.cfg.Driver, "driver", "", "MIDI driver")
	fs.StringVar(&c.cfg.Profile, "profile", "", "built-in profile name or YAML file")
	fs.StringVar(&c.cfg.LogLevel, "log-level", "", "log level")
	fs.StringVar(&c.cfg.LogFile, "log-file", "", "log file")
	fs.DurationVar(&c.cfg.PollInterval, "poll-interval", 0, "sleep between empty input reads")
	fs.Usage = usage
	return fs, c
}

// resolve loads the configuration file and applies the flags over it.
func (c *commonFlags) resolve() (config.Config, error) {
	file, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	cfg := file.Merge(c.cfg)
	return cfg, cfg.Validate()
}

// newClient builds a client from the resolved configuration.
func (c *commonFlags) newClient() (contracts.ClientMIDI, config.Config, error) {
	cfg, err := c.resolve()
	if err != nil {
		return nil, cfg, err
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, cfg, err
	}
	if c.handler != nil {
		opts = append(opts, contracts.WithEventHandler(c.handler))
	}
	client, err := midi.NewMIDIClient(opts...)
	return client, cfg, err
}

// openController builds a client and opens the configured controller. The
// returned client must be stopped by the caller.
func (c *commonFlags) openController() (contracts.ClientMIDI, contracts.Controller, error) {
	client, cfg, err := c.newClient()
	if err != nil {
		return nil, nil, err
	}
	ctrl, err := client.OpenController(cfg.DeviceName())
	if ctrl == nil {
		_ = client.Stop()
		return nil, nil, err
	}
	return client, ctrl, err
}
