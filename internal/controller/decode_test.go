package controller

import (
	"testing"

	"github.com/leandrodaf/midictl/internal/testutil"
	"github.com/leandrodaf/midictl/sdk/contracts"
)

func TestDecode(t *testing.T) {
	ev := testutil.NoteOn(3, 60, 90)
	ev.Timestamp = 17
	got, ok := Decode(ev)
	if !ok {
		t.Fatal("note on not decoded")
	}
	want := contracts.ControlEvent{Kind: contracts.KindNoteOn, Channel: 3, Data1: 60, Data2: 90, Timestamp: 17}
	if got != want {
		t.Fatalf("Decode = %+v, want %+v", got, want)
	}

	got, ok = Decode(testutil.ControlChange(15, 7, 64))
	if !ok || got.Kind != contracts.KindControlChange || got.Channel != 15 || got.Data1 != 7 || got.Data2 != 64 {
		t.Fatalf("Decode(cc) = %+v, %v", got, ok)
	}
}

func TestDecodeIgnoresOtherMessages(t *testing.T) {
	for _, m := range []contracts.Message{
		contracts.NewMessage(0x80, 60, 0),  // note off
		contracts.NewMessage(0xC0, 1, 0),   // program change
		contracts.NewMessage(0xE0, 0, 64),  // pitch bend
		contracts.NewMessage(0xA0, 60, 10), // aftertouch
	} {
		if _, ok := Decode(contracts.Event{Message: m}); ok {
			t.Fatalf("message %#x should not decode", uint32(m))
		}
	}
}

func TestLightMessage(t *testing.T) {
	m := lightMessage(0, 42, 127)
	if m.Status() != 0x90 || m.Data1() != 42 || m.Data2() != 127 {
		t.Fatalf("lightMessage = %#x", uint32(m))
	}
	if m := lightMessage(2, 1, 1); m.Status() != 0x92 {
		t.Fatalf("channel not encoded: %#x", m.Status())
	}
}
