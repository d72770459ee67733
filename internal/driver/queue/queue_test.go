package queue

import (
	"testing"

	"github.com/leandrodaf/midictl/sdk/contracts"
)

func TestQueueDropsWhenFull(t *testing.T) {
	q := New(2)
	for i := 0; i < 3; i++ {
		q.Push(contracts.Event{Message: contracts.NewMessage(0x90, byte(i), 1)})
	}
	if q.Dropped() != 1 {
		t.Fatalf("dropped=%d", q.Dropped())
	}
	got := q.Drain(10)
	if len(got) != 2 || got[0].Message.Data1() != 0 || got[1].Message.Data1() != 1 {
		t.Fatalf("drained %v", got)
	}
	if len(q.Drain(10)) != 0 {
		t.Fatal("queue should be empty")
	}
}

func TestQueueDrainHonoursMax(t *testing.T) {
	q := New(8)
	for i := 0; i < 5; i++ {
		q.Push(contracts.Event{})
	}
	if got := q.Drain(3); len(got) != 3 {
		t.Fatalf("drained %d", len(got))
	}
	if q.Len() != 2 {
		t.Fatalf("len=%d", q.Len())
	}
}

func TestSplit(t *testing.T) {
	data := []byte{
		0x90, 60, 100, // note on
		62, 90, // running status
		0xF8,                   // clock, skipped
		0xF0, 0x01, 0x02, 0xF7, // sysex, skipped
		0xC2, 5, // program change
		0xB0, 7, // truncated
	}
	got := Split(data)
	want := []contracts.Message{
		contracts.NewMessage(0x90, 60, 100),
		contracts.NewMessage(0x90, 62, 90),
		contracts.NewMessage(0xC2, 5, 0),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d messages, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("message %d = %#x, want %#x", i, uint32(got[i]), uint32(want[i]))
		}
	}
}

func TestSplitInterleavedBytes(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want []contracts.Message
	}{
		{
			name: "clock between data bytes",
			data: []byte{0x90, 0x3C, 0xF8, 0x64},
			want: []contracts.Message{contracts.NewMessage(0x90, 0x3C, 0x64)},
		},
		{
			name: "status byte ends a truncated message",
			data: []byte{0x90, 0x3C, 0x80, 0x3C, 0x00},
			want: []contracts.Message{contracts.NewMessage(0x80, 0x3C, 0x00)},
		},
		{
			name: "running status kept across real-time bytes",
			data: []byte{0x90, 0x3C, 0x64, 0xFE, 0x3E, 0xF8, 0x50},
			want: []contracts.Message{
				contracts.NewMessage(0x90, 0x3C, 0x64),
				contracts.NewMessage(0x90, 0x3E, 0x50),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.data)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d messages, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("message %d = %#x, want %#x", i, uint32(got[i]), uint32(tt.want[i]))
				}
			}
		})
	}
}

func TestPushRawTimestamps(t *testing.T) {
	q := New(4)
	q.PushRaw([]byte{0xB1, 10, 20}, 42)
	got := q.Drain(4)
	if len(got) != 1 || got[0].Timestamp != 42 || got[0].Message.Channel() != 1 {
		t.Fatalf("got %+v", got)
	}
}
