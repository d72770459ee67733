// Package controller implements a lighting control session over one MIDI
// control surface: device lookup, a polling input loop and note-on based
// button lighting.
package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/midictl/internal/logger"
	"github.com/leandrodaf/midictl/sdk/contracts"
	"go.uber.org/multierr"
)

// Defaults applied to zero-valued options.
const (
	DefaultStreamBufferSize = 1
	DefaultReadBatchSize    = 1024
	DefaultPollInterval     = time.Millisecond
)

// MaxReadBatchSize is the largest batch a poll iteration may request.
const MaxReadBatchSize = 1024

// Session owns the input and output streams of one controller. Both streams
// are closed together by Close; a direction that failed to open is never closed.
type Session struct {
	name    string
	inID    contracts.DeviceID
	outID   contracts.DeviceID
	logger  contracts.Logger
	profile *contracts.Profile

	batchSize    int
	pollInterval time.Duration
	handler      contracts.EventHandler
	filter       *contracts.MIDIEventFilter

	inMu   sync.Mutex
	in     contracts.InputStream
	inOpen bool

	outMu   sync.Mutex
	out     contracts.OutputStream
	outOpen bool

	closeOnce sync.Once
	closeErr  error
}

// Open requests an input stream for in and an output stream for out. Each
// failure is logged on its own and does not prevent the session from being
// returned: the failed direction reports contracts.ErrStreamNotOpen on use.
// The returned error combines both failures and is nil when both opened.
func Open(drv contracts.Driver, name string, in, out contracts.DeviceID, opts *contracts.ClientOptions) (*Session, error) {
	if opts == nil {
		opts = &contracts.ClientOptions{}
	}
	s := &Session{
		name:         name,
		inID:         in,
		outID:        out,
		logger:       opts.Logger,
		profile:      opts.Profile,
		batchSize:    opts.ReadBatchSize,
		pollInterval: opts.PollInterval,
		handler:      opts.EventHandler,
		filter:       opts.MIDIEventFilter,
	}
	if s.logger == nil {
		s.logger = logger.NewZapLogger()
	}
	if s.batchSize <= 0 {
		s.batchSize = DefaultReadBatchSize
	}
	if s.batchSize > MaxReadBatchSize {
		s.batchSize = MaxReadBatchSize
	}
	if s.pollInterval <= 0 {
		s.pollInterval = DefaultPollInterval
	}
	bufferSize := opts.StreamBufferSize
	if bufferSize <= 0 {
		bufferSize = DefaultStreamBufferSize
	}

	var errs error
	inStream, err := drv.OpenInput(in, bufferSize)
	if err != nil {
		s.logger.Error("Error opening MIDI input",
			s.logger.Field().String("controller", name),
			s.logger.Field().Int("deviceID", int(in)),
			s.logger.Field().Error("error", err))
		errs = multierr.Append(errs, fmt.Errorf("opening %s input: %w", name, err))
	} else {
		s.in, s.inOpen = inStream, true
	}

	outStream, err := drv.OpenOutput(out, bufferSize)
	if err != nil {
		s.logger.Error("Error opening MIDI output",
			s.logger.Field().String("controller", name),
			s.logger.Field().Int("deviceID", int(out)),
			s.logger.Field().Error("error", err))
		errs = multierr.Append(errs, fmt.Errorf("opening %s output: %w", name, err))
	} else {
		s.out, s.outOpen = outStream, true
	}

	s.logger.Info("MIDI controller session opened",
		s.logger.Field().String("controller", name),
		s.logger.Field().Bool("input", s.inOpen),
		s.logger.Field().Bool("output", s.outOpen))
	return s, errs
}

// Name returns the display name of the controller.
func (s *Session) Name() string { return s.name }

// InputID returns the device handle of the input direction.
func (s *Session) InputID() contracts.DeviceID { return s.inID }

// OutputID returns the device handle of the output direction.
func (s *Session) OutputID() contracts.DeviceID { return s.outID }

// Profile returns the lighting layout used by the session.
func (s *Session) Profile() *contracts.Profile { return s.profile }

// InputOpen reports whether the input stream is open.
func (s *Session) InputOpen() bool {
	s.inMu.Lock()
	defer s.inMu.Unlock()
	return s.inOpen
}

// OutputOpen reports whether the output stream is open.
func (s *Session) OutputOpen() bool {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	return s.outOpen
}

// ProcessInput polls the input stream until ctx is done. Each iteration
// reads up to the batch size of pending events, logs every note-on and
// control change and passes it to the event handler. Empty reads are
// followed by a sleep of the poll interval.
//
// A read error ends the loop for good: it is logged and returned wrapped in
// contracts.ErrStreamRead. Cancellation returns ctx.Err().
func (s *Session) ProcessInput(ctx context.Context) error {
	if !s.InputOpen() {
		return fmt.Errorf("%w: %s input", contracts.ErrStreamNotOpen, s.name)
	}

	timer := time.NewTimer(s.pollInterval)
	defer timer.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		events, err := s.read()
		if err != nil {
			s.logger.Error("Error processing MIDI input",
				s.logger.Field().String("controller", s.name),
				s.logger.Field().Error("error", err))
			return fmt.Errorf("%w: %w", contracts.ErrStreamRead, err)
		}

		for _, ev := range events {
			s.handle(ev)
		}
		if len(events) > 0 {
			continue
		}

		timer.Reset(s.pollInterval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (s *Session) read() ([]contracts.Event, error) {
	s.inMu.Lock()
	defer s.inMu.Unlock()
	if !s.inOpen {
		return nil, contracts.ErrStreamNotOpen
	}
	return s.in.Read(s.batchSize)
}

func (s *Session) handle(ev contracts.Event) {
	if !s.filter.Allows(ev.Message.Command()) {
		return
	}
	decoded, ok := Decode(ev)
	if !ok {
		return
	}

	switch decoded.Kind {
	case contracts.KindNoteOn:
		s.logger.Info("Note On",
			s.logger.Field().Uint8("channel", decoded.Channel),
			s.logger.Field().Uint8("note", decoded.Data1),
			s.logger.Field().Uint8("velocity", decoded.Data2))
	case contracts.KindControlChange:
		s.logger.Info("Control Change",
			s.logger.Field().Uint8("channel", decoded.Channel),
			s.logger.Field().Uint8("controller", decoded.Data1),
			s.logger.Field().Uint8("value", decoded.Data2))
	}

	if s.handler != nil {
		s.handler(decoded)
	}
}

// SetLight lights one button: a note-on with the button as note and status
// as velocity, written immediately.
func (s *Session) SetLight(button, status int) error {
	if s.profile == nil {
		return fmt.Errorf("%w: session has no profile", contracts.ErrInvalidProfile)
	}
	if button < 0 || button >= s.profile.ButtonCount {
		return fmt.Errorf("%w: %d not in 0..%d", contracts.ErrButtonOutOfRange, button, s.profile.ButtonCount-1)
	}
	if status < 0 || status > 127 {
		return fmt.Errorf("%w: %d not in 0..127", contracts.ErrInvalidStatus, status)
	}

	ev := contracts.Event{Timestamp: 0, Message: lightMessage(s.profile.Channel, button, status)}

	s.outMu.Lock()
	defer s.outMu.Unlock()
	if !s.outOpen {
		return fmt.Errorf("%w: %s output", contracts.ErrStreamNotOpen, s.name)
	}
	if err := s.out.Write([]contracts.Event{ev}); err != nil {
		s.logger.Warn("Error writing MIDI output",
			s.logger.Field().String("controller", s.name),
			s.logger.Field().Int("button", button),
			s.logger.Field().Error("error", err))
		return fmt.Errorf("%w: button %d: %w", contracts.ErrStreamWrite, button, err)
	}
	return nil
}

// SetLights lights every button of buttons in order. Each write is
// independent: a failing button does not stop the remaining ones, and all
// failures are returned together.
func (s *Session) SetLights(buttons []int, status int) error {
	var errs error
	for _, b := range buttons {
		errs = multierr.Append(errs, s.SetLight(b, status))
	}
	return errs
}

// SetAllLights lights every button of the profile, from 0 to ButtonCount-1.
func (s *Session) SetAllLights(status int) error {
	if s.profile == nil {
		return fmt.Errorf("%w: session has no profile", contracts.ErrInvalidProfile)
	}
	var errs error
	for i := 0; i < s.profile.ButtonCount; i++ {
		errs = multierr.Append(errs, s.SetLight(i, status))
	}
	return errs
}

// SetGroup lights every button of a colour group in the group's order.
func (s *Session) SetGroup(c contracts.Color, status int) error {
	if s.profile == nil {
		return fmt.Errorf("%w: session has no profile", contracts.ErrInvalidProfile)
	}
	buttons, err := s.profile.Group(c)
	if err != nil {
		return err
	}
	return s.SetLights(buttons, status)
}

// AllLightsRed lights the red group.
func (s *Session) AllLightsRed(status int) error { return s.SetGroup(contracts.Red, status) }

// AllLightsBlue lights the blue group.
func (s *Session) AllLightsBlue(status int) error { return s.SetGroup(contracts.Blue, status) }

// AllLightsGreen lights the green group.
func (s *Session) AllLightsGreen(status int) error { return s.SetGroup(contracts.Green, status) }

// AllLightsYellow lights the yellow group.
func (s *Session) AllLightsYellow(status int) error { return s.SetGroup(contracts.Yellow, status) }

// Close closes the directions that were opened. Later calls return the
// result of the first one.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.inMu.Lock()
		if s.inOpen {
			s.closeErr = multierr.Append(s.closeErr, s.in.Close())
			s.inOpen = false
		}
		s.inMu.Unlock()

		s.outMu.Lock()
		if s.outOpen {
			s.closeErr = multierr.Append(s.closeErr, s.out.Close())
			s.outOpen = false
		}
		s.outMu.Unlock()

		s.logger.Info("MIDI controller session closed", s.logger.Field().String("controller", s.name))
	})
	return s.closeErr
}
