package platter

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/platterkit/platter-go/internal/controller"
)

// RigOption configures a Rig.
type RigOption func(*Rig)

// WithLogger routes rig events through the given logger.
func WithLogger(log *slog.Logger) RigOption {
	return func(r *Rig) {
		r.log = log
	}
}

type slot struct {
	ctrl   controller.Controller
	closed bool
}

// Rig owns the realtime I/O side: it waits on each controller's
// descriptors and drives its Realtime entry point from a dedicated
// goroutine. A controller error is fatal to that controller only; the
// rest of the rig keeps running.
type Rig struct {
	log *slog.Logger

	mu    sync.Mutex
	slots []*slot

	stop    chan struct{}
	wg      sync.WaitGroup
	started bool
}

func NewRig(opts ...RigOption) *Rig {
	r := &Rig{
		log:  slog.Default(),
		stop: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddController registers a controller. Call before Start.
func (r *Rig) AddController(c controller.Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots = append(r.slots, &slot{ctrl: c})
}

// Start launches one serving goroutine per controller. It fails without
// starting anything if any controller cannot expose its descriptors.
func (r *Rig) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return fmt.Errorf("rig: already started")
	}

	wakes := make([]<-chan struct{}, len(r.slots))
	for i, s := range r.slots {
		descs, err := fetchDescriptors(s.ctrl)
		if err != nil {
			return fmt.Errorf("rig: controller descriptors: %w", err)
		}
		wakes[i] = r.mergeReady(descs)
	}

	r.started = true
	for i, s := range r.slots {
		r.wg.Add(1)
		go r.serve(s, wakes[i])
	}
	return nil
}

// Stop ceases waking the controllers, waits for serving goroutines to
// drain, then releases every controller that has not already failed.
// Shutdown is cooperative; Realtime is never interrupted mid-call.
func (r *Rig) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	close(r.stop)
	r.wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.slots {
		r.closeSlotLocked(s)
	}
}

func (r *Rig) serve(s *slot, wake <-chan struct{}) {
	defer r.wg.Done()
	for {
		if err := s.ctrl.Realtime(); err != nil {
			r.log.Error("controller failed, detaching", "err", err)
			r.mu.Lock()
			r.closeSlotLocked(s)
			r.mu.Unlock()
			return
		}
		select {
		case <-r.stop:
			return
		case <-wake:
		}
	}
}

func (r *Rig) closeSlotLocked(s *slot) {
	if s.closed {
		return
	}
	s.closed = true
	if err := s.ctrl.Close(); err != nil {
		r.log.Error("controller close", "err", err)
	}
}

// fetchDescriptors retries with a larger buffer until the controller's
// handles fit.
func fetchDescriptors(c controller.Controller) ([]controller.Descriptor, error) {
	for size := 4; ; size *= 2 {
		buf := make([]controller.Descriptor, size)
		n, err := c.Descriptors(buf)
		if err == controller.ErrShortBuffer {
			continue
		}
		if err != nil {
			return nil, err
		}
		return buf[:n], nil
	}
}

// mergeReady folds multiple readiness channels into one wake channel.
func (r *Rig) mergeReady(descs []controller.Descriptor) <-chan struct{} {
	if len(descs) == 1 {
		return descs[0].Ready
	}
	out := make(chan struct{}, 1)
	for _, d := range descs {
		ch := d.Ready
		go func() {
			for {
				select {
				case <-r.stop:
					return
				case <-ch:
					select {
					case out <- struct{}{}:
					default:
					}
				}
			}
		}()
	}
	return out
}
