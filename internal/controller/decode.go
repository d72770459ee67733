package controller

import (
	"github.com/leandrodaf/midictl/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
)

// Decode interprets note-on and control-change events. The channel is the
// low nibble of the status byte. Other messages report ok == false.
func Decode(ev contracts.Event) (contracts.ControlEvent, bool) {
	msg := midi.Message(ev.Message.Bytes())
	var channel, data1, data2 uint8

	switch {
	case msg.GetNoteOn(&channel, &data1, &data2):
		return contracts.ControlEvent{
			Kind: contracts.KindNoteOn, Channel: channel, Data1: data1, Data2: data2, Timestamp: ev.Timestamp,
		}, true
	case msg.GetControlChange(&channel, &data1, &data2):
		return contracts.ControlEvent{
			Kind: contracts.KindControlChange, Channel: channel, Data1: data1, Data2: data2, Timestamp: ev.Timestamp,
		}, true
	}
	return contracts.ControlEvent{}, false
}

// lightMessage encodes a lighting command: a note-on whose note is the button
// and whose velocity is the status.
func lightMessage(channel uint8, button, status int) contracts.Message {
	return contracts.MessageFromBytes(midi.NoteOn(channel, uint8(button), uint8(status)))
}
