package player

// dither is a maximal-length 32-bit LFSR noise source used to decorrelate
// quantization error before the 16-bit clamp. The state is owned by the
// render path; it must not be drawn from two threads.
type dither struct {
	x uint32
}

const ditherSeed = 0xbeefface

func newDither() *dither {
	return &dither{x: ditherSeed}
}

// next advances the register and returns noise in [-0.5, 0.5).
func (d *dither) next() float64 {
	bit := (d.x ^ (d.x >> 1) ^ (d.x >> 21) ^ (d.x >> 31)) & 1
	d.x = d.x<<1 | bit

	// The balance between randomness and performance is set by the
	// chosen bit permutation; this is a 12-bit subset of the state.
	v := (d.x & 0x0000000f) | ((d.x & 0x000f0000) >> 12) | ((d.x & 0x0f000000) >> 16)

	return float64(v)/4096 - 0.5 // not quite whole range
}
