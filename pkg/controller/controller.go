// Package controller runs the ports, the event queue and the upstream
// sinks on the framework loop.
package controller

import (
	"errors"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/negicon/pkg/event"
	fx "github.com/robotalks/negicon/pkg/framework"
	"github.com/robotalks/negicon/pkg/port"
)

// Controller moves events from the ports to the sinks and inbound
// events from the sinks to the router.
type Controller struct {
	Table      *port.Table
	Queue      *event.Queue
	Dispatcher *event.Dispatcher
	Router     *event.Router
	Reporters  []port.StatusReporter

	senseErr string

	lock   sync.RWMutex
	status []port.Status
}

// New creates a Controller. Memory writes are routed to the table.
func New(table *port.Table, queue *event.Queue, resetter event.Resetter) *Controller {
	return &Controller{
		Table:      table,
		Queue:      queue,
		Dispatcher: event.NewDispatcher(queue),
		Router:     &event.Router{Memory: table, Resetter: resetter},
	}
}

// AddSink adds upstream sinks. Sinks reporting port status are
// registered as reporters as well.
func (c *Controller) AddSink(sinks ...event.Sink) *Controller {
	c.Dispatcher.AddSink(sinks...)
	for _, s := range sinks {
		if r, ok := s.(port.StatusReporter); ok {
			c.Reporters = append(c.Reporters, r)
		}
	}
	return c
}

// AddToLoop implements framework.LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvSense, fx.ControlFunc(c.Sense))
	loop.AddController(fx.PrLvControl, fx.ControlFunc(c.Route))
	loop.AddController(fx.PrLvPostProc, fx.ControlFunc(c.Dispatch))
}

// Status returns the latest port status.
func (c *Controller) Status() []port.Status {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return append([]port.Status(nil), c.status...)
}

// Sense ticks the ports and queues produced events.
func (c *Controller) Sense(fx.ControlContext) error {
	events, err := c.Table.Tick()
	c.logSenseError(err)
	for _, ev := range events {
		if err := c.Queue.Push(ev.Encode()); errors.Is(err, event.ErrOverflow) {
			glog.V(1).Infof("queue full, evicted %d", c.Queue.Evicted())
		}
	}
	c.updateStatus()
	return nil
}

// Route handles inbound events from the sinks.
func (c *Controller) Route(fx.ControlContext) error {
	events, err := c.Dispatcher.Receive()
	var errs fx.AggregatedError
	errs.Add(err)
	for _, ev := range events {
		errs.Add(c.Router.Route(ev))
	}
	return errs.Aggregate()
}

// Dispatch delivers the head of the queue.
func (c *Controller) Dispatch(fx.ControlContext) error {
	return c.Dispatcher.Dispatch()
}

func (c *Controller) logSenseError(err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if msg != c.senseErr && msg != "" {
		glog.Warning(msg)
	}
	c.senseErr = msg
}

func (c *Controller) updateStatus() {
	status := c.Table.Status()
	c.lock.Lock()
	changed := port.StatusChanged(c.status, status)
	if changed {
		c.status = status
	}
	c.lock.Unlock()
	if !changed {
		return
	}
	for _, r := range c.Reporters {
		if err := r.ReportStatus(status); err != nil {
			glog.Warningf("report status: %v", err)
		}
	}
}
