package platter

import (
	"time"

	"github.com/platterkit/platter-go/internal/player"
	"github.com/platterkit/platter-go/internal/posqueue"
)

// Motor is the simulated position source used when no timecode decoder
// is attached: it feeds the player's input queue with one position
// report per output sample, advancing at the deck's nominal pitch. It
// is the queue's single producer.
type Motor struct {
	pl  *player.Player
	pos float64
	ts  float64
}

// NewMotor builds a motor for the deck, starting from the read head's
// current position.
func NewMotor(d *Deck) *Motor {
	pl := d.Player()
	return &Motor{pl: pl, pos: pl.Position()}
}

// Feed pushes up to frames position reports and returns how many were
// accepted. When the queue fills, the motor stops advancing rather than
// skipping ahead of what the player will consume.
func (m *Motor) Feed(frames int) int {
	dt := m.pl.SampleDt()
	q := m.pl.Queue()
	pushed := 0
	for i := 0; i < frames; i++ {
		next := m.pos + m.pl.NominalPitch()*dt
		if !q.Push(posqueue.Sample{Timestamp: m.ts + dt, Position: next}) {
			break
		}
		m.pos = next
		m.ts += dt
		pushed++
	}
	return pushed
}

// Run feeds the queue in small batches until stop closes. Batches are
// sized to the tick so the queue stays a few callback periods deep.
func (m *Motor) Run(stop <-chan struct{}) {
	const tick = 5 * time.Millisecond
	batch := int(tick.Seconds() / m.pl.SampleDt())

	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			m.Feed(batch)
		}
	}
}
