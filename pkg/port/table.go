package port

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/negicon/pkg/event"
	fx "github.com/robotalks/negicon/pkg/framework"
	"github.com/robotalks/negicon/pkg/metrics"
)

// Table owns the ports in index order.
type Table struct {
	Ports []*Port
	Group uint8

	seq uint8
}

// Status is a snapshot of one port.
type Status struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	State  string `json:"state"`
	Device string `json:"device,omitempty"`
}

// NewTable creates a Table stamping events with a group id.
func NewTable(group uint8) *Table {
	return &Table{Group: group}
}

// Add appends a port and returns its index.
func (t *Table) Add(p *Port) int {
	t.Ports = append(t.Ports, p)
	return len(t.Ports) - 1
}

// Port returns the port at index.
func (t *Table) Port(index int) (*Port, error) {
	if index < 0 || index >= len(t.Ports) {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchPort, index)
	}
	return t.Ports[index], nil
}

// Tick ticks every port once in index order. Produced events are
// stamped with the group id and a rolling sequence number.
func (t *Table) Tick() ([]*event.Event, error) {
	var events []*event.Event
	var errs fx.AggregatedError
	ready := 0
	for _, p := range t.Ports {
		ev, err := p.Tick()
		if err != nil {
			errs.Add(err)
		}
		if p.State() == Initialized {
			ready++
		}
		if ev == nil {
			continue
		}
		ev.Group, ev.Seq = t.Group, t.seq
		t.seq++
		glog.V(3).Infof("port %s: %s", p.Name, ev)
		metrics.EventsProduced.Inc()
		events = append(events, ev)
	}
	metrics.PortsReady.Set(float64(ready))
	return events, errs.Aggregate()
}

// WriteMemory implements event.MemoryWriter.
func (t *Table) WriteMemory(index int, addr uint8, data uint16) error {
	p, err := t.Port(index)
	if err != nil {
		return err
	}
	if err = p.WriteMemory(addr, data); err != nil {
		return fmt.Errorf("port %s: %w", p.Name, err)
	}
	return nil
}

// Status reports the state of all ports.
func (t *Table) Status() []Status {
	res := make([]Status, len(t.Ports))
	for n, p := range t.Ports {
		res[n] = Status{Index: n, Name: p.Name, State: p.State().String()}
		if dev := p.Device(); dev != nil {
			res[n].Device = dev.Name()
		}
	}
	return res
}

// StatusReporter receives port status when it changes.
type StatusReporter interface {
	ReportStatus([]Status) error
}

// StatusChanged tells if two snapshots differ.
func StatusChanged(a, b []Status) bool {
	if len(a) != len(b) {
		return true
	}
	for n := range a {
		if a[n] != b[n] {
			return true
		}
	}
	return false
}
