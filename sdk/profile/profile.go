// Package profile provides lighting layouts of control surfaces: a built-in
// Behringer X-Touch layout and YAML-described custom layouts.
package profile

import (
	"fmt"
	"os"
	"strings"

	"github.com/leandrodaf/midictl/sdk/contracts"
	"gopkg.in/yaml.v3"
)

// XTouchName is the name of the built-in X-Touch profile.
const XTouchName = "x-touch"

// XTouchButtons is the number of addressable buttons of an X-Touch in MCU mode.
const XTouchButtons = 104

// XTouch returns the built-in Behringer X-Touch profile.
func XTouch() *contracts.Profile {
	return &contracts.Profile{
		Name:        XTouchName,
		DeviceName:  "X-Touch",
		ButtonCount: XTouchButtons,
		Channel:     0,
		Groups: map[contracts.Color][]int{
			// REC and MUTE strips, transport record
			contracts.Red: concat(span(0, 7), span(16, 23), []int{95}),
			// fader bank, flip, displays, function and view sections
			contracts.Blue: concat(span(46, 53), span(54, 61), span(62, 69)),
			// SELECT strip, encoder assign, play
			contracts.Green: concat(span(24, 31), span(40, 45), []int{94}),
			// SOLO strip, marker to solo section
			contracts.Yellow: concat(span(8, 15), span(84, 90)),
		},
		Status: map[string]int{
			"off":   contracts.StatusOff,
			"blink": contracts.StatusBlink,
			"on":    contracts.StatusOn,
		},
	}
}

// Builtin returns a copy of a built-in profile by name.
func Builtin(name string) (*contracts.Profile, bool) {
	switch strings.ToLower(name) {
	case XTouchName, "xtouch":
		return XTouch(), true
	}
	return nil, false
}

// Resolve returns the built-in profile called nameOrPath, or loads it from
// the YAML file at that path. An empty value selects the X-Touch.
func Resolve(nameOrPath string) (*contracts.Profile, error) {
	if nameOrPath == "" {
		return XTouch(), nil
	}
	if p, ok := Builtin(nameOrPath); ok {
		return p, nil
	}
	return Load(nameOrPath)
}

// document is the YAML form of a profile.
type document struct {
	Name    string           `yaml:"name"`
	Device  string           `yaml:"device"`
	Buttons int              `yaml:"buttons"`
	Channel uint8            `yaml:"channel"`
	Groups  map[string][]int `yaml:"groups"`
	Status  map[string]int   `yaml:"status"`
}

// Load reads and validates a YAML profile.
func Load(path string) (*contracts.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes and validates a YAML profile. Missing status presets default
// to off=0, blink=1 and on=127.
func Parse(data []byte) (*contracts.Profile, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrInvalidProfile, err)
	}
	p := &contracts.Profile{
		Name:        doc.Name,
		DeviceName:  doc.Device,
		ButtonCount: doc.Buttons,
		Channel:     doc.Channel,
		Groups:      make(map[contracts.Color][]int, len(doc.Groups)),
		Status:      map[string]int{"off": contracts.StatusOff, "blink": contracts.StatusBlink, "on": contracts.StatusOn},
	}
	for name, buttons := range doc.Groups {
		p.Groups[contracts.Color(strings.ToLower(name))] = buttons
	}
	for name, v := range doc.Status {
		p.Status[strings.ToLower(name)] = v
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Marshal encodes a profile in the form Parse reads.
func Marshal(p *contracts.Profile) ([]byte, error) {
	doc := document{
		Name:    p.Name,
		Device:  p.DeviceName,
		Buttons: p.ButtonCount,
		Channel: p.Channel,
		Groups:  make(map[string][]int, len(p.Groups)),
		Status:  p.Status,
	}
	for c, buttons := range p.Groups {
		doc.Groups[string(c)] = buttons
	}
	return yaml.Marshal(doc)
}

func span(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func concat(parts ...[]int) []int {
	var out []int
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
