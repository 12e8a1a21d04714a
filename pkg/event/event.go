// Package event defines controller events, their wire form and the
// delivery of events to upstream sinks.
package event

import (
	"errors"
	"fmt"
)

// ReportSize is the size of the wire form of an event.
const ReportSize = 8

// Report is the wire form of an event.
type Report [ReportSize]byte

// Type is the event type.
type Type byte

// Event types.
const (
	Input    Type = 0
	Output   Type = 1
	MemWrite Type = 2
	Reboot   Type = 3
)

// String implements fmt.Stringer.
func (t Type) String() string {
	switch t {
	case Input:
		return "input"
	case Output:
		return "output"
	case MemWrite:
		return "memwrite"
	case Reboot:
		return "reboot"
	}
	return fmt.Sprintf("type%d", byte(t))
}

var (
	// ErrUnknownType indicates a report with an undefined event type.
	ErrUnknownType = errors.New("unknown event type")
)

// Event is a controller event.
type Event struct {
	Type   Type
	Target uint16
	Value  int16
	Group  uint8
	Seq    uint8
}

// NewInput creates an input event.
func NewInput(target uint16, value int16) *Event {
	return &Event{Type: Input, Target: target, Value: value}
}

// Encode returns the wire form.
func (e *Event) Encode() (r Report) {
	r[0] = byte(e.Type)
	r[1], r[2] = byte(e.Target>>8), byte(e.Target)
	r[3], r[4] = byte(uint16(e.Value)>>8), byte(e.Value)
	r[5] = e.Group
	r[6] = e.Seq
	return
}

// Decode parses the wire form.
func Decode(r Report) (*Event, error) {
	if Type(r[0]) > Reboot {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, r[0])
	}
	return &Event{
		Type:   Type(r[0]),
		Target: uint16(r[1])<<8 | uint16(r[2]),
		Value:  int16(uint16(r[3])<<8 | uint16(r[4])),
		Group:  r[5],
		Seq:    r[6],
	}, nil
}

// String implements fmt.Stringer.
func (e *Event) String() string {
	return fmt.Sprintf("%s[%d/%d]=%d #%d", e.Type, e.Group, e.Target, e.Value, e.Seq)
}
