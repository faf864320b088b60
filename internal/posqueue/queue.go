// Package posqueue is a single-producer/single-consumer FIFO of
// timestamped playback positions. The producer is a position source
// (timecode decoder or simulated motor); the consumer is the player's
// render path, which must never block or allocate, so the ring is
// lock-free with atomic cursors.
package posqueue

import "sync/atomic"

// Sample is one timestamped position report from the position source.
type Sample struct {
	Timestamp float64 // seconds, position-source clock
	Position  float64 // seconds into the track
}

// Queue is a fixed-capacity SPSC ring. Exactly one goroutine may call
// Push and exactly one may call Pull.
type Queue struct {
	buf  []Sample
	mask uint32
	head atomic.Uint32 // next slot to read
	tail atomic.Uint32 // next slot to write
}

// New returns a queue holding at least capacity samples. Capacity is
// rounded up to a power of two; minimum 2.
func New(capacity int) *Queue {
	n := uint32(2)
	for int(n) < capacity {
		n <<= 1
	}
	return &Queue{
		buf:  make([]Sample, n),
		mask: n - 1,
	}
}

// Push appends a sample. Returns false when the ring is full; the
// producer drops rather than waits.
func (q *Queue) Push(s Sample) bool {
	head := q.head.Load()
	tail := q.tail.Load()
	if tail-head > q.mask {
		return false
	}
	q.buf[tail&q.mask] = s
	q.tail.Store(tail + 1)
	return true
}

// Pull removes the oldest sample. An empty queue is not an error; the
// consumer falls back to dead reckoning.
func (q *Queue) Pull() (Sample, bool) {
	head := q.head.Load()
	if head == q.tail.Load() {
		return Sample{}, false
	}
	s := q.buf[head&q.mask]
	q.head.Store(head + 1)
	return s, true
}

// Len reports the number of buffered samples. Advisory only; it races
// with concurrent Push and Pull.
func (q *Queue) Len() int {
	return int(q.tail.Load() - q.head.Load())
}
