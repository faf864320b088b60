// Package controller defines the uniform operation set every physical
// control surface implements, and the deck operations a controller may
// dispatch. The owning runtime holds a collection of Controller values,
// waits on their descriptors, and drives Realtime from its I/O thread.
package controller

import "errors"

// ErrShortBuffer is returned by Descriptors when the caller's slice
// cannot hold the controller's readiness handles.
var ErrShortBuffer = errors.New("controller: descriptor buffer too small")

// Direction is the readiness direction of a descriptor.
type Direction int

const (
	In Direction = iota
	Out
)

// Descriptor is a pollable readiness handle: the channel pulses when
// the transport may make progress in the given direction.
type Descriptor struct {
	Ready <-chan struct{}
	Dir   Direction
}

// Deck is the set of operations a controller dispatches to. Implemented
// by the deck layer; controllers never reach into player state except
// through it.
type Deck interface {
	// Cue sets the labelled cue point if unset, otherwise jumps to it.
	Cue(button int)
	// UnsetCue clears the labelled cue point.
	UnsetCue(button int)
	// PunchIn enters a temporary loop at the labelled cue point.
	PunchIn(button int)
	// PunchOut leaves the loop, resuming as if never interrupted.
	PunchOut()
	// SetNominalPitch sets the deck's playback-rate multiplier.
	SetNominalPitch(mult float64)
}

// Controller is one physical device. Lifecycle: AddDeck, then
// Descriptors/Realtime from the runtime's I/O thread, then Close
// exactly once after Realtime can no longer be called.
type Controller interface {
	// AddDeck binds the deck this controller dispatches to. A second
	// call rebinds; controllers hold at most one deck.
	AddDeck(d Deck) error

	// Descriptors fills dst with the transport's readiness handles and
	// returns how many were written, or ErrShortBuffer.
	Descriptors(dst []Descriptor) (int, error)

	// Realtime drains pending device events, returning nil when the
	// transport has no more data. An error is fatal to this controller
	// only.
	Realtime() error

	// Close releases the transport and controller-local state.
	Close() error
}
