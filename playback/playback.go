// Package playback implements the three-stage video playback pipeline: a
// single reader thread that downsamples and resizes decoded frames, a pool
// of encoder workers that format them into terminal payloads, a reorder
// buffer that restores source order after out-of-order parallel encoding,
// and a pacing writer that emits frames on a wall-clock schedule and drops
// stale ones under load.
//
// The three-stage structure and its pacing/dropping algorithm are
// unchanged from the design this module implements; the mutex+condvar FIFOs
// of that design are re-expressed as buffered Go channels, and the reorder
// buffer's contention point becomes a single dedicated publisher goroutine
// woken by a buffered "doorbell" channel instead of a broadcast condition
// variable, per this module's own design notes on acceptable reorder-buffer
// strategies.
package playback

import (
	"sync"
	"sync/atomic"
)

// EncodedFrame is a formatted frame payload ready for the writer, tagged
// with its source index for staleness comparisons and its pixel dimensions
// so the writer can detect a shrinking frame.
type EncodedFrame struct {
	Payload []byte
	Index   uint64
	W, H    int
}

// Stats accumulates counters over one playback job's lifetime. All fields
// are safe for concurrent use.
type Stats struct {
	Read     atomic.Uint64
	Rendered atomic.Uint64
	Dropped  atomic.Uint64
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() (read, rendered, dropped uint64) {
	return s.Read.Load(), s.Rendered.Load(), s.Dropped.Load()
}

// State is a playback job's lifecycle stage.
type State int

// Playback states, in the order a healthy job moves through them. Failed is
// orthogonal: any stage may transition there on an unrecoverable error, and
// every path still runs the shutdown protocol down to Finished.
const (
	Starting State = iota
	Prebuffering
	Playing
	Draining
	Finished
	Failed
)

// String implements [fmt.Stringer].
func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Prebuffering:
		return "prebuffering"
	case Playing:
		return "playing"
	case Draining:
		return "draining"
	case Finished:
		return "finished"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// stateBox holds the current State behind a mutex; playback progress is
// observed rarely enough (state transitions, not per-frame) that a mutex is
// simpler than atomics over an int32 here.
type stateBox struct {
	mu    sync.Mutex
	state State
}

func (b *stateBox) set(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

func (b *stateBox) get() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

// reorderBuffer maps source index to completed EncodedFrame until a
// contiguous prefix starting at nextEmit can be flushed downstream. Encoder
// workers insert; a single publisher goroutine drains, per the design
// notes' preferred contention-avoidance strategy.
type reorderBuffer struct {
	mu       sync.Mutex
	pending  map[uint64]EncodedFrame
	nextEmit uint64
}

func newReorderBuffer() *reorderBuffer {
	return &reorderBuffer{pending: make(map[uint64]EncodedFrame)}
}

// insert stores ef under its source index; the caller then rings the
// publisher's doorbell.
func (r *reorderBuffer) insert(ef EncodedFrame) {
	r.mu.Lock()
	r.pending[ef.Index] = ef
	r.mu.Unlock()
}

// skip marks index as resolved with no payload, letting drainReady advance
// past a frame an encoder dropped instead of stalling the contiguous run
// forever.
func (r *reorderBuffer) skip(index uint64) {
	r.mu.Lock()
	r.pending[index] = EncodedFrame{Index: index}
	r.mu.Unlock()
}

// drainReady removes and returns every frame in the contiguous run starting
// at nextEmit, advancing nextEmit past them, in index order. Skipped
// (payload-less) entries advance nextEmit without being returned.
func (r *reorderBuffer) drainReady() []EncodedFrame {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ready []EncodedFrame

	for {
		ef, ok := r.pending[r.nextEmit]
		if !ok {
			break
		}

		delete(r.pending, r.nextEmit)
		r.nextEmit++

		if ef.Payload == nil {
			continue
		}

		ready = append(ready, ef)
	}

	return ready
}

// reset discards all buffered content, used by the shutdown protocol's
// drain step.
func (r *reorderBuffer) reset() {
	r.mu.Lock()
	r.pending = make(map[uint64]EncodedFrame)
	r.mu.Unlock()
}
