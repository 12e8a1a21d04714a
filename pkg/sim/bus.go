// Package sim simulates sensors on the bus for tests and development
// without hardware.
package sim

import (
	"errors"
	"sync"

	"periph.io/x/conn/v3/gpio"

	"github.com/robotalks/negicon/pkg/bus"
)

var (
	// ErrInjected is returned by exchanges failed on purpose.
	ErrInjected = errors.New("injected failure")
)

// Responder answers a frame on the simulated bus.
type Responder interface {
	Respond(req bus.Frame) bus.Frame
}

// Bus is a simulated bus. It implements bus.Transceiver and routes
// exchanges to the responder whose select line is low.
type Bus struct {
	slots    []Responder
	selected int
	failures int
	lock     sync.Mutex
}

// Line is the select line of one slot.
type Line struct {
	bus  *Bus
	slot int
}

// NewBus creates a Bus.
func NewBus() *Bus {
	return &Bus{selected: -1}
}

// Attach adds a slot with a responder, nil for an empty slot.
func (b *Bus) Attach(r Responder) *Line {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.slots = append(b.slots, r)
	return &Line{bus: b, slot: len(b.slots) - 1}
}

// Plug replaces the responder of a slot, nil unplugs.
func (b *Bus) Plug(l *Line, r Responder) {
	b.lock.Lock()
	b.slots[l.slot] = r
	b.lock.Unlock()
}

// FailNext fails the next n exchanges.
func (b *Bus) FailNext(n int) {
	b.lock.Lock()
	b.failures = n
	b.lock.Unlock()
}

// Tx implements bus.Transceiver. An empty slot reads all ones.
func (b *Bus) Tx(w, r []byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.failures > 0 {
		b.failures--
		return ErrInjected
	}
	var resp Responder
	if b.selected >= 0 {
		resp = b.slots[b.selected]
	}
	if resp == nil {
		for n := range r {
			r[n] = 0xff
		}
		return nil
	}
	var req bus.Frame
	copy(req[:], w)
	out := resp.Respond(req)
	copy(r, out[:])
	return nil
}

// Out implements bus.SelectLine.
func (l *Line) Out(level gpio.Level) error {
	l.bus.lock.Lock()
	defer l.bus.lock.Unlock()
	if level == gpio.Low {
		l.bus.selected = l.slot
	} else if l.bus.selected == l.slot {
		l.bus.selected = -1
	}
	return nil
}
