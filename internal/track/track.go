// Package track holds immutable PCM audio for playback. A Track is
// shared between decks by reference counting: the render path keeps a
// non-owning pointer and the owning side balances Acquire/Release.
package track

import (
	"errors"
	"sync/atomic"
)

// Channels is the fixed channel count of every track. Mono sources are
// up-mixed on load.
const Channels = 2

var (
	ErrZeroRate  = errors.New("track: sample rate must be positive")
	ErrShortPCM  = errors.New("track: PCM data is not whole frames")
	ErrNoSamples = errors.New("track: no samples")
)

// Track is an immutable interleaved stereo 16-bit sample buffer with a
// known native sample rate. All fields are set at construction; only
// the reference count mutates afterwards.
type Track struct {
	refs atomic.Int32
	rate int
	pcm  []int16 // interleaved, len = frames*Channels
}

// New wraps interleaved stereo PCM in a track. The caller holds the
// initial reference.
func New(rate int, pcm []int16) (*Track, error) {
	if rate <= 0 {
		return nil, ErrZeroRate
	}
	if len(pcm) == 0 {
		return nil, ErrNoSamples
	}
	if len(pcm)%Channels != 0 {
		return nil, ErrShortPCM
	}
	t := &Track{rate: rate, pcm: pcm}
	t.refs.Store(1)
	return t, nil
}

// Acquire takes an additional reference.
func (t *Track) Acquire() {
	t.refs.Add(1)
}

// Release drops a reference. The sample data is garbage collected once
// unreachable; the count exists so callers can assert ownership
// transfer the same way the players do.
func (t *Track) Release() {
	if t.refs.Add(-1) < 0 {
		panic("track: release without matching acquire")
	}
}

// Refs reports the current reference count.
func (t *Track) Refs() int {
	return int(t.refs.Load())
}

// Length returns the track length in frames.
func (t *Track) Length() int {
	return len(t.pcm) / Channels
}

// Rate returns the native sample rate in Hz.
func (t *Track) Rate() int {
	return t.rate
}

// At returns the sample at the given frame and channel. The frame must
// be in [0, Length()); out-of-range silence is the player's concern,
// not the track's.
func (t *Track) At(frame, ch int) int16 {
	return t.pcm[frame*Channels+ch]
}
