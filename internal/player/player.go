// Package player renders interleaved 16-bit PCM for a soundcard
// callback while keeping the playback position locked to an external
// timing reference. Position reports arrive on a single-consumer queue;
// between reports the read head is advanced by dead reckoning from the
// last observed pitch, so gaps in the input stream play through smoothly
// instead of stalling.
//
// Two scheduling domains touch a player: the audio callback (Collect,
// which must never block) and the control/I-O side (everything else).
// The only shared resource needing a lock is the track reference; the
// render side takes it with TryLock and degrades to silence on
// contention.
package player

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"

	"github.com/platterkit/platter-go/internal/posqueue"
	"github.com/platterkit/platter-go/internal/track"
)

// Channels is the interleaved channel count of every rendered block.
const Channels = track.Channels

// Bend playback speed to compensate for the difference between our
// current position and that given by the timecode.
const (
	syncTime     = 1.0 / 2 // time taken to reach sync
	syncPitchMin = 0.05    // don't sync at low pitches
)

// SkipThreshold is the position error beyond which we recover by
// jumping straight to the reported position rather than bending pitch.
// The jump is audible; that is the intended needle-drop behavior.
const SkipThreshold = 1.0 / 8

// baseVolume leaves headroom for records played faster than 1.0.
const baseVolume = 7.0 / 8

// queueDepth covers several callback periods of position reports at
// typical timecode rates.
const queueDepth = 512

// Player owns playback position and pitch state and a non-owning
// reference to the current track.
type Player struct {
	mu sync.Mutex // guards track against the render path

	sampleDt float64
	track    *track.Track
	queue    *posqueue.Queue

	// Render/sync state. position is the read-head time in seconds;
	// offset shifts the externally visible elapsed time;
	// targetPosition is the last authoritative position from the
	// timing reference. Mutated only on the render path and by the
	// explicit seek/recue/clone/sync operations.
	position       float64
	lastPosition   float64
	offset         float64
	targetPosition float64
	lastDiff       float64

	pitch     float64 // seconds advanced per output sample
	syncPitch float64 // advisory corrective ratio, consumed externally
	volume    float64

	timestamp float64 // virtual playback-domain clock

	recalibrate     bool
	timecodeControl bool

	nominal atomic.Uint64 // Float64bits; controller thread writes

	dither *dither
	cond   *Conditioner
}

// New constructs a player rendering at the given output sample rate.
// It takes ownership of the caller's reference on tr.
func New(sampleRate int, tr *track.Track) (*Player, error) {
	if tr == nil {
		return nil, errors.New("player: track must not be nil")
	}
	if sampleRate <= 0 {
		return nil, errors.New("player: sample rate must be positive")
	}
	p := &Player{
		sampleDt:  1.0 / float64(sampleRate),
		track:     tr,
		queue:     posqueue.New(queueDepth),
		syncPitch: 1.0,
		volume:    baseVolume,
		dither:    newDither(),
		cond:      newConditioner(),
	}
	p.nominal.Store(math.Float64bits(1.0))
	return p, nil
}

// Close releases the player's track reference. The audio callback must
// no longer be invoking Collect.
func (p *Player) Close() {
	p.mu.Lock()
	tr := p.track
	p.track = nil
	p.mu.Unlock()
	if tr != nil {
		tr.Release()
	}
}

// Queue returns the position input queue. Exactly one producer may
// push to it.
func (p *Player) Queue() *posqueue.Queue {
	return p.queue
}

// SampleDt returns the output sample period in seconds.
func (p *Player) SampleDt() float64 {
	return p.sampleDt
}

// Conditioner returns the optional low-pass conditioning stage for
// position/pitch signals. It is not applied in the render path; a
// position source may run its reports through it before queueing.
func (p *Player) Conditioner() *Conditioner {
	return p.cond
}

// Position returns the current read-head time in seconds.
func (p *Player) Position() float64 {
	return p.position
}

// Elapsed returns the time since the zero point.
func (p *Player) Elapsed() float64 {
	return p.position - p.offset
}

// Remain returns the seconds of track left after the read head.
func (p *Player) Remain() float64 {
	return float64(p.track.Length())/float64(p.track.Rate()) + p.offset - p.position
}

// IsActive reports whether the deck is moving at an audible speed.
func (p *Player) IsActive() bool {
	return math.Abs(p.pitch) > 0.01
}

// Pitch returns the instantaneous playback speed in seconds advanced
// per output sample. Negative is reverse.
func (p *Player) Pitch() float64 {
	return p.pitch
}

// SyncPitch returns the advisory corrective ratio computed by the last
// synchronization pass. It is consumed by an external rate-modulation
// stage, never applied here.
func (p *Player) SyncPitch() float64 {
	return p.syncPitch
}

// LastDifference returns the drift seen by the last synchronization
// pass, for display.
func (p *Player) LastDifference() float64 {
	return p.lastDiff
}

// Volume returns the render gain.
func (p *Player) Volume() float64 {
	return p.volume
}

// SetVolume sets the render gain. 1.0 leaves no headroom above unity
// pitch.
func (p *Player) SetVolume(v float64) {
	p.volume = v
}

// NominalPitch returns the controller-set playback-rate multiplier.
func (p *Player) NominalPitch() float64 {
	return math.Float64frombits(p.nominal.Load())
}

// SetNominalPitch sets the playback-rate multiplier directly, bypassing
// the timecode-derived pitch. Safe to call from the controller thread.
func (p *Player) SetNominalPitch(mult float64) {
	p.nominal.Store(math.Float64bits(mult))
}

// SetTimecodeControl enables or disables slaving to the timing
// reference. Enabling forces the next synchronization pass to snap to
// the reported position instead of correcting gradually.
func (p *Player) SetTimecodeControl(on bool) {
	if on && !p.timecodeControl {
		p.recalibrate = true
	}
	p.timecodeControl = on
}

// ToggleTimecodeControl flips timecode control and returns the new
// state.
func (p *Player) ToggleTimecodeControl() bool {
	p.SetTimecodeControl(!p.timecodeControl)
	return p.timecodeControl
}

// TimecodeControl reports whether playback is slaved to the timing
// reference.
func (p *Player) TimecodeControl() bool {
	return p.timecodeControl
}

// SetInternalPlayback detaches the player from the timing reference.
func (p *Player) SetInternalPlayback() {
	p.timecodeControl = false
}

// Recue defines "now" as the zero point.
func (p *Player) Recue() {
	p.offset = p.position
}

// SeekTo moves the zero-point relationship so the read head is at the
// given elapsed time. Track identity is unchanged, so no lock is
// needed.
func (p *Player) SeekTo(seconds float64) {
	p.offset = p.position - seconds
}

// SetTrack swaps the playback track. It takes ownership of the
// caller's reference on tr and releases the reference on the old
// track. The lock is held only for the pointer swap.
func (p *Player) SetTrack(tr *track.Track) {
	p.mu.Lock()
	x := p.track
	p.track = tr
	p.mu.Unlock()

	x.Release()
}

// Clone sets this player to match another: same track, same elapsed
// time, possibly different read-head position ("instant doubles").
func (p *Player) Clone(from *Player) {
	elapsed := from.position - from.offset
	p.offset = p.position - elapsed

	t := from.track
	t.Acquire()

	p.mu.Lock()
	x := p.track
	p.track = t
	p.mu.Unlock()

	x.Release()
}

// Synchronize records an authoritative (timestamp, position) pair from
// the timing reference and applies the retarget policy. The position
// source calls this before each report is applied; it must not be
// called from the render path.
func (p *Player) Synchronize(timestamp, target float64) {
	p.timestamp = timestamp
	p.targetPosition = target
	p.retarget()
}

// retarget computes the pitch compensation required to get back on
// track with the absolute reference position.
func (p *Player) retarget() {
	if p.recalibrate {
		// Snap without affecting the audible position-in-track
		// relationship: elapsed time is continuous across the jump.
		p.offset += p.targetPosition - p.position
		p.position = p.targetPosition
		p.recalibrate = false
	}

	diff := p.position - p.targetPosition
	p.lastDiff = diff

	if math.Abs(diff) > SkipThreshold {
		// Too far out; jump the track to the reported time.
		p.position = p.targetPosition
	} else if math.Abs(p.pitch) > syncPitchMin {
		p.syncPitch = p.pitch / (diff/syncTime + p.pitch)
	}
}

// Collect renders one block of interleaved PCM, len(pcm)/Channels
// samples. It is called from the audio callback and never blocks: if
// the track is being swapped the block is zeroed and skipped, and the
// return value reports whether rendering happened.
func (p *Player) Collect(pcm []int16) bool {
	if !p.mu.TryLock() {
		// Contention means a track swap is in progress. Hand the
		// driver defined silence rather than stale memory.
		for i := range pcm {
			pcm[i] = 0
		}
		return false
	}
	p.renderBlock(pcm, len(pcm)/Channels)
	p.mu.Unlock()
	return true
}

// renderBlock synthesizes samples into pcm. The playback clock is
// decoupled from the clock of the timing reference: each queued report
// overrides accumulated drift, and an empty queue extrapolates at the
// last known pitch.
func (p *Player) renderBlock(pcm []int16, samples int) {
	tr := p.track
	rate := float64(tr.Rate())
	length := tr.Length()

	for s := 0; s < samples; s++ {
		if in, ok := p.queue.Pull(); ok {
			p.position = in.Position
			p.pitch = p.position - p.lastPosition
			p.lastPosition = p.position
			p.timestamp += p.sampleDt
		} else {
			// Keep playing if we haven't got data.
			p.position += p.pitch
		}

		// 4-sample window for audio interpolation.
		coord := p.position * rate
		sa := int(math.Floor(coord))
		f := coord - float64(sa)
		sa--

		var window [Channels][4]int16
		for q := 0; q < 4; q++ {
			idx := sa + q
			if idx < 0 || idx >= length {
				continue // out-of-range taps stay silent
			}
			for c := 0; c < Channels; c++ {
				window[c][q] = tr.At(idx, c)
			}
		}

		for c := 0; c < Channels; c++ {
			v := p.volume*cubicInterpolate(window[c], f) + p.dither.next()

			sp := &pcm[Channels*s+c]
			switch {
			case v > math.MaxInt16:
				*sp = math.MaxInt16
			case v < math.MinInt16:
				*sp = math.MinInt16
			default:
				*sp = int16(v)
			}
		}
	}
}

// cubicInterpolate evaluates, at position 1+mu, the unique cubic
// through four consecutive samples. At mu=0 it reproduces y[1] exactly.
func cubicInterpolate(y [4]int16, mu float64) float64 {
	a0 := int32(y[3]) - int32(y[2]) - int32(y[0]) + int32(y[1])
	a1 := int32(y[0]) - int32(y[1]) - a0
	a2 := int32(y[2]) - int32(y[0])
	a3 := int32(y[1])

	mu2 := mu * mu
	return mu*mu2*float64(a0) + mu2*float64(a1) + mu*float64(a2) + float64(a3)
}
