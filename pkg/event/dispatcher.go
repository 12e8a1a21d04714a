package event

import (
	"errors"
	"fmt"

	"github.com/golang/glog"

	fx "github.com/robotalks/negicon/pkg/framework"
	"github.com/robotalks/negicon/pkg/metrics"
)

// Dispatcher drains the queue toward sinks, one report per call.
type Dispatcher struct {
	Queue *Queue
	Sinks []Sink

	delivered []bool
	headGen   uint64
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(q *Queue, sinks ...Sink) *Dispatcher {
	return &Dispatcher{Queue: q, Sinks: sinks}
}

// AddSink adds a sink.
func (d *Dispatcher) AddSink(sinks ...Sink) *Dispatcher {
	d.Sinks = append(d.Sinks, sinks...)
	return d
}

// Dispatch offers the head report to every sink which hasn't taken it.
// The head stays queued while any sink would block. An offline sink or
// a sink failing with another error won't see the report again.
func (d *Dispatcher) Dispatch() error {
	r, ok := d.Queue.Peek()
	if !ok {
		return nil
	}
	if gen := d.Queue.Generation(); len(d.delivered) != len(d.Sinks) || gen != d.headGen {
		d.delivered = make([]bool, len(d.Sinks))
		d.headGen = gen
	}
	var errs fx.AggregatedError
	blocked := false
	for n, sink := range d.Sinks {
		if d.delivered[n] {
			continue
		}
		err := sink.Send(r)
		switch {
		case err == nil:
			metrics.SinkSends.WithLabelValues(sink.Name(), metrics.ResultOK).Inc()
		case errors.Is(err, ErrWouldBlock):
			metrics.SinkSends.WithLabelValues(sink.Name(), metrics.ResultBlocked).Inc()
			blocked = true
			continue
		case errors.Is(err, ErrOffline):
			metrics.SinkSends.WithLabelValues(sink.Name(), metrics.ResultOffline).Inc()
		default:
			metrics.SinkSends.WithLabelValues(sink.Name(), metrics.ResultError).Inc()
			glog.Warningf("sink %s: send error: %v", sink.Name(), err)
			errs.Add(fmt.Errorf("sink %s: %w", sink.Name(), err))
		}
		d.delivered[n] = true
	}
	if !blocked {
		d.Queue.Discard()
		d.headGen = d.Queue.Generation()
		for n := range d.delivered {
			d.delivered[n] = false
		}
	}
	return errs.Aggregate()
}

// Receive polls every sink once and decodes inbound reports.
func (d *Dispatcher) Receive() ([]*Event, error) {
	var events []*Event
	var errs fx.AggregatedError
	for _, sink := range d.Sinks {
		r, err := sink.Receive()
		if err != nil {
			if !errors.Is(err, ErrWouldBlock) && !errors.Is(err, ErrOffline) {
				errs.Add(fmt.Errorf("sink %s: %w", sink.Name(), err))
			}
			continue
		}
		if r == nil {
			continue
		}
		ev, err := Decode(*r)
		if err != nil {
			glog.Warningf("sink %s: bad report % x: %v", sink.Name(), r[:], err)
			errs.Add(err)
			continue
		}
		events = append(events, ev)
	}
	return events, errs.Aggregate()
}
