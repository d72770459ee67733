// Package queue buffers events delivered by callback-based MIDI libraries so
// they can be consumed by polling reads.
package queue

import (
	"sync/atomic"

	"github.com/leandrodaf/midictl/sdk/contracts"
)

// DefaultDepth is used when a stream is opened with a smaller buffer.
const DefaultDepth = 1024

// Queue is a bounded FIFO of events. Push never blocks: when the queue is
// full the event is dropped and counted.
type Queue struct {
	ch      chan contracts.Event
	dropped atomic.Uint64
}

// New creates a queue holding at most depth events (DefaultDepth if depth < 1).
func New(depth int) *Queue {
	if depth < 1 {
		depth = DefaultDepth
	}
	return &Queue{ch: make(chan contracts.Event, depth)}
}

// Push enqueues ev and reports whether it was kept.
func (q *Queue) Push(ev contracts.Event) bool {
	select {
	case q.ch <- ev:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// PushRaw splits raw MIDI bytes into channel messages and enqueues them.
// System messages (0xF0 and above) are skipped.
func (q *Queue) PushRaw(data []byte, timestamp int64) {
	for _, m := range Split(data) {
		q.Push(contracts.Event{Timestamp: timestamp, Message: m})
	}
}

// Drain returns up to max queued events without blocking.
func (q *Queue) Drain(max int) []contracts.Event {
	var out []contracts.Event
	for len(out) < max {
		select {
		case ev := <-q.ch:
			out = append(out, ev)
		default:
			return out
		}
	}
	return out
}

// Len returns the number of queued events.
func (q *Queue) Len() int { return len(q.ch) }

// Dropped returns how many events were discarded because the queue was full.
func (q *Queue) Dropped() uint64 { return q.dropped.Load() }

// Split parses a byte stream of channel messages, honouring running status.
func Split(data []byte) []contracts.Message {
	var (
		out     []contracts.Message
		running byte
	)
	for i := 0; i < len(data); {
		b := data[i]
		if b >= 0xF0 {
			if b < 0xF8 {
				running = 0
			}
			if b == 0xF0 {
				// skip the whole SysEx block
				for i < len(data) && data[i] != 0xF7 {
					i++
				}
			}
			i++
			continue
		}
		if b&0x80 != 0 {
			running = b
			i++
		}
		if running == 0 {
			i++
			continue
		}
		n := dataLen(running)
		msg := make([]byte, 0, 3)
		msg = append(msg, running)
		for len(msg) <= n && i < len(data) {
			d := data[i]
			if d >= 0xF8 {
				// real-time bytes may sit between data bytes
				i++
				continue
			}
			if d&0x80 != 0 {
				break
			}
			msg = append(msg, d)
			i++
		}
		if len(msg) <= n {
			// truncated; a following status byte starts the next message
			continue
		}
		out = append(out, contracts.MessageFromBytes(msg))
	}
	return out
}

func dataLen(status byte) int {
	switch status & 0xF0 {
	case 0xC0, 0xD0:
		return 1
	default:
		return 2
	}
}
