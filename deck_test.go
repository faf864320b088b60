package platter

import (
	"math"
	"testing"

	"github.com/platterkit/platter-go/internal/posqueue"
	"github.com/platterkit/platter-go/internal/track"
)

const testRate = 44100

func newTestDeck(t *testing.T) *Deck {
	t.Helper()
	tr, err := track.New(testRate, make([]int16, 30*testRate*Channels))
	if err != nil {
		t.Fatalf("track.New: %v", err)
	}
	d, err := NewDeck(testRate, tr)
	if err != nil {
		t.Fatalf("NewDeck: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

// seekHead places the read head at an absolute position by queueing a
// report and rendering one frame to consume it.
func seekHead(t *testing.T, d *Deck, pos float64) {
	t.Helper()
	p := d.Player()
	if !p.Queue().Push(posqueue.Sample{Position: pos}) {
		t.Fatal("queue full")
	}
	buf := make([]int16, Channels)
	if !p.Collect(buf) {
		t.Fatal("collect skipped")
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCueSetsThenJumps(t *testing.T) {
	d := newTestDeck(t)

	seekHead(t, d, 1.0)
	d.Cue(0)
	if got, ok := d.CuePoint(0); !ok || !near(got, 1.0) {
		t.Fatalf("cue 0 = %v, %v; want 1.0, true", got, ok)
	}

	seekHead(t, d, 5.0)
	d.Cue(0)
	if e := d.Player().Elapsed(); !near(e, 1.0) {
		t.Errorf("elapsed after cue jump = %v, want 1.0", e)
	}
}

func TestCueDoesNotMoveOnFirstPress(t *testing.T) {
	d := newTestDeck(t)
	seekHead(t, d, 2.5)
	d.Cue(3)
	if e := d.Player().Elapsed(); !near(e, 2.5) {
		t.Errorf("elapsed = %v, want 2.5 (setting a cue must not seek)", e)
	}
}

func TestUnsetCue(t *testing.T) {
	d := newTestDeck(t)
	seekHead(t, d, 1.0)
	d.Cue(2)
	d.UnsetCue(2)
	if _, ok := d.CuePoint(2); ok {
		t.Fatal("cue 2 still set after UnsetCue")
	}

	// Next press sets again rather than jumping.
	seekHead(t, d, 4.0)
	d.Cue(2)
	if e := d.Player().Elapsed(); !near(e, 4.0) {
		t.Errorf("elapsed = %v, want 4.0", e)
	}
}

func TestPunchResumesAsIfUninterrupted(t *testing.T) {
	d := newTestDeck(t)

	seekHead(t, d, 1.0)
	d.Cue(1)

	seekHead(t, d, 5.0)
	d.PunchIn(1)
	if e := d.Player().Elapsed(); !near(e, 1.0) {
		t.Fatalf("elapsed after punch-in = %v, want 1.0", e)
	}

	// Play half a second inside the loop, then leave.
	seekHead(t, d, d.Player().Position()+0.5)
	d.PunchOut()
	if e := d.Player().Elapsed(); !near(e, 5.5) {
		t.Errorf("elapsed after punch-out = %v, want 5.5", e)
	}
}

func TestPunchInWithUnsetCue(t *testing.T) {
	d := newTestDeck(t)
	seekHead(t, d, 3.0)
	d.PunchIn(0)
	if got, ok := d.CuePoint(0); !ok || !near(got, 3.0) {
		t.Fatalf("cue 0 = %v, %v; want 3.0, true", got, ok)
	}
	if e := d.Player().Elapsed(); !near(e, 3.0) {
		t.Errorf("elapsed = %v, want 3.0 (zero displacement)", e)
	}
	d.PunchOut()
	if e := d.Player().Elapsed(); !near(e, 3.0) {
		t.Errorf("elapsed after punch-out = %v, want 3.0", e)
	}
}

func TestSecondPunchInIgnored(t *testing.T) {
	d := newTestDeck(t)
	seekHead(t, d, 1.0)
	d.Cue(0)
	seekHead(t, d, 2.0)
	d.Cue(1)

	seekHead(t, d, 5.0)
	d.PunchIn(0)
	d.PunchIn(1) // already punched in; must not re-anchor
	if e := d.Player().Elapsed(); !near(e, 1.0) {
		t.Fatalf("elapsed = %v, want 1.0", e)
	}
	d.PunchOut()
	if e := d.Player().Elapsed(); !near(e, 5.0) {
		t.Errorf("elapsed after punch-out = %v, want 5.0", e)
	}
}

func TestPunchOutWithoutPunchIn(t *testing.T) {
	d := newTestDeck(t)
	seekHead(t, d, 2.0)
	d.PunchOut()
	if e := d.Player().Elapsed(); !near(e, 2.0) {
		t.Errorf("elapsed = %v, want 2.0 (punch-out with no region is a no-op)", e)
	}
}

func TestDeckButtonBounds(t *testing.T) {
	d := newTestDeck(t)
	d.Cue(-1)
	d.Cue(MaxCues)
	d.UnsetCue(-1)
	d.UnsetCue(MaxCues)
	d.PunchIn(-1)
	d.PunchIn(MaxCues)
	if _, ok := d.CuePoint(-1); ok {
		t.Error("CuePoint(-1) reported set")
	}
	if _, ok := d.CuePoint(MaxCues); ok {
		t.Error("CuePoint(MaxCues) reported set")
	}
}

func TestDeckNominalPitch(t *testing.T) {
	d := newTestDeck(t)
	if got := d.NominalPitch(); got != 1.0 {
		t.Fatalf("default nominal pitch = %v, want 1.0", got)
	}
	d.SetNominalPitch(2.0)
	if got := d.NominalPitch(); got != 2.0 {
		t.Errorf("nominal pitch = %v, want 2.0", got)
	}
}

func TestDeckClone(t *testing.T) {
	a := newTestDeck(t)
	b := newTestDeck(t)
	seekHead(t, a, 7.0)

	b.Clone(a)
	if e := b.Player().Elapsed(); !near(e, 7.0) {
		t.Errorf("cloned elapsed = %v, want 7.0", e)
	}
}
