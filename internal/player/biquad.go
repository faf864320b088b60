package player

// Biquad is a direct-form I second-order IIR section.
type Biquad struct {
	b0, b1, b2 float64 // numerator
	a1, a2     float64 // denominator, a0 normalized to 1
	x1, x2     float64
	y1, y2     float64
}

// SetNum sets the numerator coefficients.
func (f *Biquad) SetNum(b0, b1, b2 float64) {
	f.b0, f.b1, f.b2 = b0, b1, b2
}

// SetDen sets the denominator coefficients a1, a2 (a0 is implied 1).
func (f *Biquad) SetDen(a1, a2 float64) {
	f.a1, f.a2 = a1, a2
}

// Process advances the filter by one sample.
func (f *Biquad) Process(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

// Reset zeros the filter state.
func (f *Biquad) Reset() {
	f.x1, f.x2, f.y1, f.y2 = 0, 0, 0, 0
}

// Conditioner is two cascaded low-pass biquad stages available for
// smoothing position or pitch signals before they reach the queue.
// The render path itself never runs it.
type Conditioner struct {
	stages [2]Biquad
}

// Very low cutoff relative to the sample rate; tuned against 48 kHz
// position reports.
const (
	condB0 = 0.0000008870817623267249
	condB1 = 0.0000017741635246534498
	condB2 = 0.0000008870817623267249
	condA1 = -1.997334246315892
	condA2 = 0.9973377946429413
)

func newConditioner() *Conditioner {
	c := &Conditioner{}
	for i := range c.stages {
		c.stages[i].SetNum(condB0, condB1, condB2)
		c.stages[i].SetDen(condA1, condA2)
	}
	return c
}

// Process runs one sample through both stages.
func (c *Conditioner) Process(x float64) float64 {
	return c.stages[1].Process(c.stages[0].Process(x))
}

// Reset zeros both stages.
func (c *Conditioner) Reset() {
	for i := range c.stages {
		c.stages[i].Reset()
	}
}
