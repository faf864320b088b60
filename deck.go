package platter

import (
	"math"

	"github.com/platterkit/platter-go/internal/controller"
	"github.com/platterkit/platter-go/internal/player"
	"github.com/platterkit/platter-go/internal/track"
)

// MaxCues is the number of cue labels per deck.
const MaxCues = 16

// Cue labels and the punch anchor use +Inf as the unset marker, so any
// real position compares sanely.
var unset = math.Inf(1)

// Deck wraps a player with cue points and a single punch (temporary
// loop) region. Deck operations are invoked from the controller I/O
// thread; they mutate only seek state, which the player handles without
// locking.
type Deck struct {
	pl    *player.Player
	cues  [MaxCues]float64
	punch float64 // displacement to restore on punch-out
}

var _ controller.Deck = (*Deck)(nil)

// NewDeck builds a deck playing tr at the given output sample rate. It
// takes ownership of the caller's reference on tr.
func NewDeck(sampleRate int, tr *track.Track) (*Deck, error) {
	pl, err := player.New(sampleRate, tr)
	if err != nil {
		return nil, err
	}
	d := &Deck{pl: pl, punch: unset}
	for i := range d.cues {
		d.cues[i] = unset
	}
	return d, nil
}

// Player exposes the underlying render/sync engine.
func (d *Deck) Player() *player.Player {
	return d.pl
}

// Collect renders one block of interleaved PCM; the deck is the block
// source handed to the audio output.
func (d *Deck) Collect(pcm []int16) bool {
	return d.pl.Collect(pcm)
}

// Cue sets the labelled cue point to the current elapsed time if it is
// unset, otherwise jumps to it.
func (d *Deck) Cue(button int) {
	if button < 0 || button >= MaxCues {
		return
	}
	if d.cues[button] == unset {
		d.cues[button] = d.pl.Elapsed()
	} else {
		d.pl.SeekTo(d.cues[button])
	}
}

// UnsetCue clears the labelled cue point.
func (d *Deck) UnsetCue(button int) {
	if button < 0 || button >= MaxCues {
		return
	}
	d.cues[button] = unset
}

// CuePoint returns the labelled cue point, if set.
func (d *Deck) CuePoint(button int) (float64, bool) {
	if button < 0 || button >= MaxCues || d.cues[button] == unset {
		return 0, false
	}
	return d.cues[button], true
}

// PunchIn jumps to the labelled cue point (setting it first if unset)
// and remembers the displacement, so PunchOut can resume playback as if
// it had never been interrupted. One punch region at a time.
func (d *Deck) PunchIn(button int) {
	if button < 0 || button >= MaxCues {
		return
	}
	e := d.pl.Elapsed()
	p := d.cues[button]
	if p == unset {
		d.cues[button] = e
		p = e
	}
	if d.punch != unset {
		return
	}
	d.pl.SeekTo(p)
	d.punch = e - p
}

// PunchOut leaves the punch region. The button used to enter is
// irrelevant; a deck holds one region.
func (d *Deck) PunchOut() {
	if d.punch == unset {
		return
	}
	d.pl.SeekTo(d.pl.Elapsed() + d.punch)
	d.punch = unset
}

// SetNominalPitch sets the playback-rate multiplier directly.
func (d *Deck) SetNominalPitch(mult float64) {
	d.pl.SetNominalPitch(mult)
}

// NominalPitch returns the controller-set playback-rate multiplier.
func (d *Deck) NominalPitch() float64 {
	return d.pl.NominalPitch()
}

// Clone makes this deck play the same track at the same elapsed time as
// another ("instant doubles").
func (d *Deck) Clone(from *Deck) {
	d.pl.Clone(from.pl)
}

// Close releases the deck's track reference. The audio output must no
// longer be collecting from it.
func (d *Deck) Close() {
	d.pl.Close()
}
