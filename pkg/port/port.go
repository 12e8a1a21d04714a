package port

import (
	"errors"
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/negicon/pkg/bus"
	"github.com/robotalks/negicon/pkg/event"
	"github.com/robotalks/negicon/pkg/metrics"
	"github.com/robotalks/negicon/pkg/mlx"
)

// State is the state of a port.
type State int

// Port states.
const (
	Uninitialized State = iota
	Initialized
)

// String implements fmt.Stringer.
func (s State) String() string {
	if s == Initialized {
		return "initialized"
	}
	return "uninitialized"
}

// DetectChallenge is the challenge of detection pings.
const DetectChallenge = mlx.PingChallenge

// Port is one chip-select slot on the bus.
type Port struct {
	Name     string
	Endpoint bus.Exchanger
	Classes  Classes

	device      Device
	unsupported string
}

// New creates a Port.
func New(name string, ep bus.Exchanger, classes Classes) *Port {
	return &Port{Name: name, Endpoint: ep, Classes: classes}
}

// State returns the current state.
func (p *Port) State() State {
	if p.device != nil {
		return Initialized
	}
	return Uninitialized
}

// Device returns the initialized device, or nil.
func (p *Port) Device() Device {
	return p.device
}

// Detect issues one liveness exchange and identifies the responder.
// No answer is not an error; the port stays uninitialized.
func (p *Port) Detect() error {
	in, err := p.Endpoint.Exchange(mlx.Nop(DetectChallenge))
	if err != nil {
		glog.V(4).Infof("port %s: no device: %v", p.Name, err)
		metrics.Detections.WithLabelValues(p.Name, metrics.ResultEmpty).Inc()
		return nil
	}
	if mlx.Marker(in.Marker()) == mlx.MarkerIrregular {
		if class, ok := p.Classes[in.Opcode()]; ok {
			return p.identify(class, &in)
		}
	}
	// a sensor still answering an earlier request.
	var devErr *mlx.DeviceError
	if _, err = mlx.Decode(in); err == nil || errors.As(err, &devErr) {
		glog.V(2).Infof("port %s: pending reply %v", p.Name, in)
		metrics.Detections.WithLabelValues(p.Name, metrics.ResultEmpty).Inc()
		return nil
	}
	metrics.Detections.WithLabelValues(p.Name, metrics.ResultUnknown).Inc()
	return fmt.Errorf("port %s: %w: %v", p.Name, ErrUnknownDevice, in)
}

func (p *Port) identify(class Class, in *bus.Frame) error {
	if err := mlx.ParseNopEcho(in).Verify(DetectChallenge); err != nil {
		metrics.Detections.WithLabelValues(p.Name, metrics.ResultMismatch).Inc()
		return fmt.Errorf("port %s: %s: %w", p.Name, class.Name, err)
	}
	if !class.Supported() {
		if p.unsupported != class.Name {
			glog.Infof("port %s: %s detected, not supported", p.Name, class.Name)
			p.unsupported = class.Name
		}
		metrics.Detections.WithLabelValues(p.Name, metrics.ResultUnknown).Inc()
		return nil
	}
	p.unsupported = ""
	p.device = class.New(p.Endpoint)
	glog.Infof("port %s: %s detected", p.Name, class.Name)
	metrics.Detections.WithLabelValues(p.Name, metrics.ResultOK).Inc()
	return nil
}

// Tick detects a device when uninitialized, or polls the device.
// A device failing to poll is discarded.
func (p *Port) Tick() (*event.Event, error) {
	if p.device == nil {
		return nil, p.Detect()
	}
	ev, err := p.device.Poll()
	if err != nil {
		glog.Warningf("port %s: %s reset: %v", p.Name, p.device.Name(), err)
		metrics.PortResets.WithLabelValues(p.Name).Inc()
		p.Reset()
		return nil, nil
	}
	return ev, nil
}

// Reset discards the device.
func (p *Port) Reset() {
	p.device = nil
}

// WriteMemory forwards a memory write to the device.
func (p *Port) WriteMemory(addr uint8, data uint16) error {
	if p.device == nil {
		return ErrNotReady
	}
	return p.device.WriteMemory(addr, data)
}
