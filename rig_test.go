package platter

import (
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/platterkit/platter-go/internal/controller"
)

type fakeController struct {
	readys   []chan struct{}
	realtime chan struct{} // one pulse per Realtime entry
	failOn   int           // call number at which Realtime errors; 0 never
	calls    atomic.Int32
	closes   atomic.Int32
	deck     controller.Deck
}

func newFakeController(descs, failOn int) *fakeController {
	f := &fakeController{
		realtime: make(chan struct{}, 64),
		failOn:   failOn,
	}
	for i := 0; i < descs; i++ {
		f.readys = append(f.readys, make(chan struct{}))
	}
	return f
}

func (f *fakeController) AddDeck(d controller.Deck) error {
	f.deck = d
	return nil
}

func (f *fakeController) Descriptors(dst []controller.Descriptor) (int, error) {
	if len(dst) < len(f.readys) {
		return 0, controller.ErrShortBuffer
	}
	for i, ch := range f.readys {
		dst[i] = controller.Descriptor{Ready: ch, Dir: controller.In}
	}
	return len(f.readys), nil
}

func (f *fakeController) Realtime() error {
	n := int(f.calls.Add(1))
	f.realtime <- struct{}{}
	if f.failOn != 0 && n >= f.failOn {
		return errors.New("device unplugged")
	}
	return nil
}

func (f *fakeController) Close() error {
	f.closes.Add(1)
	return nil
}

func quietRig() *Rig {
	return NewRig(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func waitPulse(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func waitClosed(t *testing.T, f *fakeController) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for f.closes.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("controller never closed")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRigServicesControllers(t *testing.T) {
	f := newFakeController(1, 0)
	r := quietRig()
	r.AddController(f)
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop()

	waitPulse(t, f.realtime, "initial realtime pass")
	f.readys[0] <- struct{}{}
	waitPulse(t, f.realtime, "realtime after readiness pulse")
}

func TestRigControllerErrorIsIsolated(t *testing.T) {
	good := newFakeController(1, 0)
	bad := newFakeController(1, 2)
	r := quietRig()
	r.AddController(good)
	r.AddController(bad)
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitPulse(t, good.realtime, "good initial pass")
	waitPulse(t, bad.realtime, "bad initial pass")

	bad.readys[0] <- struct{}{}
	waitPulse(t, bad.realtime, "bad second pass")
	waitClosed(t, bad)

	// The failing controller must not take the healthy one down.
	good.readys[0] <- struct{}{}
	waitPulse(t, good.realtime, "good pass after peer failure")

	r.Stop()
	if n := good.closes.Load(); n != 1 {
		t.Errorf("good controller closed %d times, want 1", n)
	}
	if n := bad.closes.Load(); n != 1 {
		t.Errorf("failed controller closed %d times, want 1", n)
	}
}

func TestRigStopClosesOnce(t *testing.T) {
	f := newFakeController(1, 0)
	r := quietRig()
	r.AddController(f)
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	r.Stop()
	if n := f.closes.Load(); n != 1 {
		t.Errorf("closed %d times, want 1", n)
	}
}

func TestRigStopBeforeStart(t *testing.T) {
	f := newFakeController(1, 0)
	r := quietRig()
	r.AddController(f)
	r.Stop()
	if n := f.closes.Load(); n != 0 {
		t.Errorf("closed %d times before start, want 0", n)
	}
}

func TestRigStartTwice(t *testing.T) {
	r := quietRig()
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop()
	if err := r.Start(); err == nil {
		t.Error("second Start succeeded, want error")
	}
}

func TestRigMergesManyDescriptors(t *testing.T) {
	f := newFakeController(6, 0) // forces a descriptor buffer regrow
	r := quietRig()
	r.AddController(f)
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop()

	waitPulse(t, f.realtime, "initial realtime pass")
	f.readys[5] <- struct{}{}
	waitPulse(t, f.realtime, "realtime after pulse on last descriptor")
}
