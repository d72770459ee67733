package contracts

import (
	"fmt"
	"sort"
)

// Color names a group of buttons sharing a physical LED colour.
type Color string

const (
	Red    Color = "red"
	Blue   Color = "blue"
	Green  Color = "green"
	Yellow Color = "yellow"
)

// Colors lists the known button groups in display order.
var Colors = []Color{Red, Blue, Green, Yellow}

// Light status values understood by most control surfaces.
const (
	StatusOff   = 0
	StatusBlink = 1
	StatusOn    = 127
)

// Profile describes the lighting layout of a control surface.
type Profile struct {
	Name        string
	DeviceName  string
	ButtonCount int
	Channel     uint8
	Groups      map[Color][]int
	Status      map[string]int
}

// Group returns the button indices of the given colour, in their defined order.
func (p *Profile) Group(c Color) ([]int, error) {
	buttons, ok := p.Groups[c]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, c)
	}
	return buttons, nil
}

// StatusValue resolves a named status preset.
func (p *Profile) StatusValue(name string) (int, bool) {
	v, ok := p.Status[name]
	return v, ok
}

// Validate checks that the profile can address its own buttons.
func (p *Profile) Validate() error {
	if p.ButtonCount <= 0 || p.ButtonCount > 128 {
		return fmt.Errorf("%w: button count %d not in 1..128", ErrInvalidProfile, p.ButtonCount)
	}
	if p.Channel > 15 {
		return fmt.Errorf("%w: channel %d not in 0..15", ErrInvalidProfile, p.Channel)
	}
	names := make([]string, 0, len(p.Groups))
	for c := range p.Groups {
		names = append(names, string(c))
	}
	sort.Strings(names)
	for _, name := range names {
		c := Color(name)
		if !knownColor(c) {
			return fmt.Errorf("%w: unknown group %q", ErrInvalidProfile, c)
		}
		for _, b := range p.Groups[c] {
			if b < 0 || b >= p.ButtonCount {
				return fmt.Errorf("%w: group %s has button %d outside 0..%d", ErrInvalidProfile, c, b, p.ButtonCount-1)
			}
		}
	}
	presets := make([]string, 0, len(p.Status))
	for name := range p.Status {
		presets = append(presets, name)
	}
	sort.Strings(presets)
	for _, name := range presets {
		if v := p.Status[name]; v < 0 || v > 127 {
			return fmt.Errorf("%w: status %q value %d not in 0..127", ErrInvalidProfile, name, v)
		}
	}
	return nil
}

func knownColor(c Color) bool {
	for _, k := range Colors {
		if k == c {
			return true
		}
	}
	return false
}
