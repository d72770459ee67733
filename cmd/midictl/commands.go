package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/leandrodaf/midictl/sdk/contracts"
)

func runDevices(args []string) error {
	fs, common := newFlagSet("devices")
	_ = fs.Parse(args)

	client, _, err := common.newClient()
	if err != nil {
		return err
	}
	defer client.Stop()

	devices, err := client.ListDevices()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDIRECTION\tINTERFACE\tNAME")
	for _, d := range devices {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", d.ID, d.Direction(), d.Interface, d.Name)
	}
	return w.Flush()
}

func runWatch(ctx context.Context, args []string) error {
	fs, common := newFlagSet("watch")
	_ = fs.Parse(args)

	client, ctrl, err := common.openController()
	if err := requireOpen(client, ctrl, err, contracts.Controller.InputOpen); err != nil {
		return err
	}
	defer client.Stop()

	return ignoreCancel(ctrl.ProcessInput(ctx))
}

func runLight(args []string) error {
	fs, common := newFlagSet("light")
	buttons := fs.String("button", "", "button indices, e.g. 3 or 0,2,8-15")
	status := fs.String("status", "on", "light status (0..127 or preset)")
	_ = fs.Parse(args)

	list, err := parseButtons(*buttons)
	if err != nil {
		return err
	}
	return withOutput(common, func(ctrl contracts.Controller) error {
		s, err := parseStatus(*status, ctrl.Profile())
		if err != nil {
			return err
		}
		return ctrl.SetLights(list, s)
	})
}

func runAll(args []string) error {
	fs, common := newFlagSet("all")
	status := fs.String("status", "off", "light status (0..127 or preset)")
	_ = fs.Parse(args)

	return withOutput(common, func(ctrl contracts.Controller) error {
		s, err := parseStatus(*status, ctrl.Profile())
		if err != nil {
			return err
		}
		return ctrl.SetAllLights(s)
	})
}

func runGroup(args []string) error {
	fs, common := newFlagSet("group")
	color := fs.String("color", "", "colour group: red, blue, green or yellow")
	status := fs.String("status", "on", "light status (0..127 or preset)")
	_ = fs.Parse(args)

	return withOutput(common, func(ctrl contracts.Controller) error {
		s, err := parseStatus(*status, ctrl.Profile())
		if err != nil {
			return err
		}
		return ctrl.SetGroup(contracts.Color(strings.ToLower(*color)), s)
	})
}

// runDemo lights each colour group in turn and lights every pressed button
// until interrupted.
func runDemo(ctx context.Context, args []string) error {
	fs, common := newFlagSet("demo")
	step := fs.Duration("step", 500*time.Millisecond, "time each colour group stays lit")
	_ = fs.Parse(args)

	pressed := make(chan uint8, 16)
	common.handler = func(ev contracts.ControlEvent) {
		if ev.Kind != contracts.KindNoteOn || ev.Data2 == 0 {
			return
		}
		select {
		case pressed <- ev.Data1:
		default:
		}
	}

	client, ctrl, err := common.openController()
	if err := requireOpen(client, ctrl, err, contracts.Controller.OutputOpen); err != nil {
		return err
	}
	defer client.Stop()
	defer ctrl.SetAllLights(contracts.StatusOff)

	if ctrl.InputOpen() {
		go func() {
			_ = ctrl.ProcessInput(ctx)
		}()
	}

	ticker := time.NewTicker(*step)
	defer ticker.Stop()
	for i := 0; ; i++ {
		c := contracts.Colors[i%len(contracts.Colors)]
		if err := ctrl.SetAllLights(contracts.StatusOff); err != nil {
			return err
		}
		if err := ctrl.SetGroup(c, contracts.StatusOn); err != nil && !errors.Is(err, contracts.ErrUnknownGroup) {
			return err
		}
	wait:
		for {
			select {
			case <-ctx.Done():
				return nil
			case note := <-pressed:
				if int(note) < ctrl.Profile().ButtonCount {
					_ = ctrl.SetLight(int(note), contracts.StatusBlink)
				}
			case <-ticker.C:
				break wait
			}
		}
	}
}

// withOutput opens the controller, runs fn when its output is usable and stops the client.
func withOutput(common *commonFlags, fn func(contracts.Controller) error) error {
	client, ctrl, err := common.openController()
	if err := requireOpen(client, ctrl, err, contracts.Controller.OutputOpen); err != nil {
		return err
	}
	defer client.Stop()
	return fn(ctrl)
}

// requireOpen keeps a partially opened controller when the direction a
// command needs is usable. Otherwise it stops the client and returns err.
func requireOpen(client contracts.ClientMIDI, ctrl contracts.Controller, err error, isOpen func(contracts.Controller) bool) error {
	if err == nil || (ctrl != nil && isOpen(ctrl)) {
		return nil
	}
	if client != nil {
		_ = client.Stop()
	}
	return err
}

// parseButtons parses "3", "0,2,4" and ranges like "8-15".
func parseButtons(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("-button is required")
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		from, to, isRange := strings.Cut(part, "-")
		lo, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil {
			return nil, fmt.Errorf("invalid button %q", part)
		}
		hi := lo
		if isRange {
			if hi, err = strconv.Atoi(strings.TrimSpace(to)); err != nil || hi < lo {
				return nil, fmt.Errorf("invalid button range %q", part)
			}
		}
		for b := lo; b <= hi; b++ {
			out = append(out, b)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("-button is required")
	}
	return out, nil
}

// parseStatus accepts a number or the name of a profile status preset.
func parseStatus(s string, p *contracts.Profile) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	if p != nil {
		if v, ok := p.StatusValue(s); ok {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", contracts.ErrInvalidStatus, s)
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
