// Package dicer drives a Novation Dicer button controller. The Dicer is
// an ordinary MIDI device; this package decodes its 3-byte messages into
// (action, shift, button, pressed) tuples and dispatches deck actions.
package dicer

import (
	"math"

	"github.com/platterkit/platter-go/internal/controller"
	"github.com/platterkit/platter-go/internal/midi"
)

// Action classes a decoded event can carry.
type Action int

const (
	ActionCue Action = iota
	ActionLoop
	ActionNote
)

// Status bytes the unit emits. Anything else is ignored.
const (
	statusNote = 0x90
	statusCue  = 0x91
)

// cueButtons maps the cue-page data1 byte to (button, shift). The
// shifted codes are the literal values this firmware emits: two
// non-contiguous pairs, folded onto buttons 0-3. Validate against real
// hardware before trusting them on another firmware revision.
var cueButtons = map[byte]struct {
	button byte
	shift  bool
}{
	0x24: {0, false},
	0x25: {1, false},
	0x26: {2, false},
	0x27: {3, false},
	0x28: {0, true},
	0x29: {1, true},
	0x30: {2, true},
	0x31: {3, true},
}

// transport is the slice of midi.Transport the decoder needs; tests
// substitute a scripted fake.
type transport interface {
	Read() (midi.Message, bool, error)
	Ready() <-chan struct{}
	Port() string
	Close() error
}

// Dicer is a controller.Controller over one physical unit.
type Dicer struct {
	t    transport
	deck controller.Deck
}

// Open attaches to the named MIDI port.
func Open(port string) (*Dicer, error) {
	t, err := midi.Open(port)
	if err != nil {
		return nil, err
	}
	return &Dicer{t: t}, nil
}

func newWithTransport(t transport) *Dicer {
	return &Dicer{t: t}
}

// Port reports the resolved MIDI port name.
func (d *Dicer) Port() string {
	return d.t.Port()
}

// AddDeck binds the deck dispatched to. Single slot: a second call
// rebinds. The hardware pairs two units per device, which would want a
// deck per unit; that is not supported here.
func (d *Dicer) AddDeck(k controller.Deck) error {
	d.deck = k
	return nil
}

// Descriptors exposes the transport's readiness handle.
func (d *Dicer) Descriptors(dst []controller.Descriptor) (int, error) {
	if len(dst) < 1 {
		return 0, controller.ErrShortBuffer
	}
	dst[0] = controller.Descriptor{Ready: d.t.Ready(), Dir: controller.In}
	return 1, nil
}

// Realtime drains pending messages. Runs on the realtime I/O thread; a
// transport error is fatal to this controller only.
func (d *Dicer) Realtime() error {
	for {
		msg, ok, err := d.t.Read()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		d.event(msg)
	}
}

// Close releases the transport. Call exactly once, after Realtime is no
// longer being invoked.
func (d *Dicer) Close() error {
	return d.t.Close()
}

// event decodes one message. Decoding is best-effort: unrecognized
// status or data bytes are discarded without error.
func (d *Dicer) event(buf midi.Message) {
	var action Action
	var button byte
	shift := false

	switch buf[0] {
	case statusNote:
		action = ActionNote
		button = buf[1]
	case statusCue:
		action = ActionCue
		c, ok := cueButtons[buf[1]]
		if !ok {
			return
		}
		button = c.button
		shift = c.shift
	default:
		return
	}

	on := buf[2] != 0

	if d.deck != nil {
		dispatch(d.deck, action, shift, button, on)
	}
}

// dispatch acts on a decoded event. Shift suppresses ordinary dispatch
// unconditionally: a shifted press clears the cue point, a shifted
// release does nothing.
func dispatch(k controller.Deck, action Action, shift bool, button byte, on bool) {
	if shift && on {
		k.UnsetCue(int(button))
	}
	if shift {
		return
	}

	switch action {
	case ActionCue:
		if on {
			k.Cue(int(button))
		}
	case ActionLoop:
		if on {
			k.PunchIn(int(button))
		} else {
			k.PunchOut()
		}
	case ActionNote:
		// Equal temperament around middle C.
		k.SetNominalPitch(math.Pow(2, (float64(button)-60)/12))
	}
}
