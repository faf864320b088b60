package player

import "testing"

func TestDitherRange(t *testing.T) {
	d := newDither()
	for i := 0; i < 100000; i++ {
		v := d.next()
		if v < -0.5 || v >= 0.5 {
			t.Fatalf("draw %d = %v, want [-0.5, 0.5)", i, v)
		}
	}
}

func TestDitherDeterministic(t *testing.T) {
	a, b := newDither(), newDither()
	for i := 0; i < 4096; i++ {
		if va, vb := a.next(), b.next(); va != vb {
			t.Fatalf("draw %d diverged: %v vs %v", i, va, vb)
		}
	}
}

func TestDitherIsNotConstant(t *testing.T) {
	d := newDither()
	first := d.next()
	for i := 0; i < 64; i++ {
		if d.next() != first {
			return
		}
	}
	t.Error("64 identical draws; LFSR is not advancing")
}

func TestDitherMeanNearZero(t *testing.T) {
	d := newDither()
	var sum float64
	const n = 1 << 20
	for i := 0; i < n; i++ {
		sum += d.next()
	}
	if mean := sum / n; mean > 0.01 || mean < -0.01 {
		t.Errorf("mean over %d draws = %v, want near 0", n, mean)
	}
}
