package event

import (
	"errors"
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/negicon/pkg/metrics"
)

var (
	// ErrUnsupported indicates an inbound event type with no handler.
	ErrUnsupported = errors.New("unsupported")
)

// MemoryWriter writes sensor memory behind a port.
type MemoryWriter interface {
	WriteMemory(port int, addr uint8, data uint16) error
}

// Resetter resets the system.
type Resetter interface {
	Reset() error
}

// Router routes inbound events.
type Router struct {
	Memory   MemoryWriter
	Resetter Resetter
}

// Route handles one inbound event.
// A MemWrite event addresses the port by Target, the memory address by
// Seq and carries the data in Value.
func (r *Router) Route(ev *Event) (err error) {
	switch ev.Type {
	case MemWrite:
		if r.Memory == nil {
			err = ErrUnsupported
			break
		}
		glog.Infof("write port %d address 0x%02x = 0x%04x", ev.Target, ev.Seq, uint16(ev.Value))
		err = r.Memory.WriteMemory(int(ev.Target), ev.Seq, uint16(ev.Value))
	case Reboot:
		if r.Resetter == nil {
			err = ErrUnsupported
			break
		}
		glog.Info("reboot requested")
		err = r.Resetter.Reset()
	default:
		err = ErrUnsupported
	}
	if err != nil {
		metrics.InboundEvents.WithLabelValues(ev.Type.String(), metrics.ResultError).Inc()
		return fmt.Errorf("route %s: %w", ev, err)
	}
	metrics.InboundEvents.WithLabelValues(ev.Type.String(), metrics.ResultOK).Inc()
	return nil
}
