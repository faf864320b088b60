// Package midi provides a raw-message MIDI input transport on top of
// rtmidi. The driver delivers messages on its own listener thread; the
// transport buffers them so a realtime consumer can take exactly one
// 3-byte message per non-blocking read.
package midi

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Message is one raw 3-byte MIDI message (status, data1, data2).
type Message [3]byte

const msgBacklog = 128

// Transport owns an open MIDI input port and its driver.
type Transport struct {
	drv  *rtmididrv.Driver
	in   drivers.In
	stop func()

	msgs  chan Message
	ready chan struct{}

	errMu   sync.Mutex
	lastErr error

	closeOnce sync.Once
	closeErr  error
}

// Open opens the named MIDI input port. An empty name, or a name that
// is a case-insensitive substring of exactly one port, selects that
// port. On any failure the partially acquired resources are unwound in
// reverse order.
func Open(name string) (*Transport, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("midi: driver: %w", err)
	}

	in, err := findIn(drv, name)
	if err != nil {
		drv.Close()
		return nil, err
	}
	if err := in.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("midi: open %q: %w", in.String(), err)
	}

	t := &Transport{
		drv:   drv,
		in:    in,
		msgs:  make(chan Message, msgBacklog),
		ready: make(chan struct{}, 1),
	}

	stop, err := in.Listen(t.onMessage, drivers.ListenConfig{
		OnErr: t.onError,
	})
	if err != nil {
		in.Close()
		drv.Close()
		return nil, fmt.Errorf("midi: listen on %q: %w", in.String(), err)
	}
	t.stop = stop
	return t, nil
}

func findIn(drv *rtmididrv.Driver, name string) (drivers.In, error) {
	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("midi: list inputs: %w", err)
	}
	if len(ins) == 0 {
		return nil, errors.New("midi: no input ports")
	}
	if name == "" {
		return ins[0], nil
	}
	for _, in := range ins {
		if strings.Contains(strings.ToLower(in.String()), strings.ToLower(name)) {
			return in, nil
		}
	}
	return nil, fmt.Errorf("midi: no input port matching %q", name)
}

// onMessage runs on the driver's listener thread. Shorter messages are
// padded with zero bytes; longer ones (sysex) are dropped.
func (t *Transport) onMessage(data []byte, _ int32) {
	if len(data) == 0 || len(data) > 3 {
		return
	}
	var m Message
	copy(m[:], data)
	select {
	case t.msgs <- m:
	default:
		// Consumer is behind; dropping is better than blocking the
		// driver thread.
	}
	select {
	case t.ready <- struct{}{}:
	default:
	}
}

func (t *Transport) onError(err error) {
	t.errMu.Lock()
	if t.lastErr == nil {
		t.lastErr = err
	}
	t.errMu.Unlock()
	select {
	case t.ready <- struct{}{}:
	default:
	}
}

// Read takes one buffered message without blocking. ok is false when no
// message is pending; a latched listener error is returned once data is
// drained.
func (t *Transport) Read() (m Message, ok bool, err error) {
	select {
	case m = <-t.msgs:
		return m, true, nil
	default:
	}
	t.errMu.Lock()
	err = t.lastErr
	t.errMu.Unlock()
	return Message{}, false, err
}

// Ready returns the readiness channel; it pulses when a message or
// error arrives.
func (t *Transport) Ready() <-chan struct{} {
	return t.ready
}

// Port returns the open port's display name.
func (t *Transport) Port() string {
	return t.in.String()
}

// Close stops the listener and releases the port and driver.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		if t.stop != nil {
			t.stop()
		}
		errIn := t.in.Close()
		errDrv := t.drv.Close()
		if errIn != nil {
			t.closeErr = errIn
		} else {
			t.closeErr = errDrv
		}
	})
	return t.closeErr
}
