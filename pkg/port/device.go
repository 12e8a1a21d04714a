// Package port manages the ports on the sensor bus: detection of the
// device behind each chip-select line, and recovery by re-detection.
package port

import (
	"errors"

	"github.com/robotalks/negicon/pkg/bus"
	"github.com/robotalks/negicon/pkg/event"
)

var (
	// ErrUnknownDevice indicates an unrecognized responder class.
	ErrUnknownDevice = errors.New("unknown device")
	// ErrNotReady indicates the port has no initialized device.
	ErrNotReady = errors.New("port not ready")
	// ErrNoSuchPort indicates a port index out of range.
	ErrNoSuchPort = errors.New("no such port")
)

// Device is the driver of an identified device on a port.
type Device interface {
	Name() string
	// Poll performs one step of the device and optionally yields an event.
	// Any error discards the device.
	Poll() (*event.Event, error)
	// WriteMemory writes device memory.
	WriteMemory(addr uint8, data uint16) error
}

// Class describes a responder class identified during detection.
type Class struct {
	Name string
	// New creates the driver, nil if the class is recognized but unsupported.
	New func(bus.Exchanger) Device
}

// Supported tells if a driver exists for the class.
func (c Class) Supported() bool {
	return c.New != nil
}

// Classes maps a class identifier to Class.
type Classes map[byte]Class

// Known responder classes.
const (
	ClassMLX90363 byte = 0x11
	ClassSTM32    byte = 0x33
	ClassRP2040   byte = 0x02
)

// DefaultClasses returns the recognized classes without drivers.
func DefaultClasses() Classes {
	return Classes{
		ClassMLX90363: {Name: "MLX90363"},
		ClassSTM32:    {Name: "STM32"},
		ClassRP2040:   {Name: "RP2040"},
	}
}
