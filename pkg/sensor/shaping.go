package sensor

import (
	"errors"
	"fmt"
)

// Mode selects how angles map to event values.
type Mode int

// Modes.
const (
	// ModeRelative emits the wrapped delta from the previous sample.
	ModeRelative Mode = iota
	// ModeAbsolute maps the angle into [0, 16383] using min and max.
	ModeAbsolute
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m == ModeAbsolute {
		return "absolute"
	}
	return "relative"
}

// ParseMode parses a Mode from its name.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "relative":
		return ModeRelative, nil
	case "absolute":
		return ModeAbsolute, nil
	}
	return ModeRelative, fmt.Errorf("invalid mode %q", s)
}

// Angle arithmetic of the 14-bit sensor.
const (
	AngleRange   = 16384
	AngleFull    = AngleRange - 1
	HalfRange    = AngleRange / 2
	ButtonOffset = 1
)

var (
	// ErrInvalidRange indicates max <= min in absolute mode.
	ErrInvalidRange = errors.New("invalid absolute range")
)

// Relative wraps the delta between two samples into [-8192, 8192].
func Relative(last, input uint16) int16 {
	diff := int32(input) - int32(last)
	if diff > HalfRange {
		diff -= AngleRange
	} else if diff < -HalfRange {
		diff += AngleRange
	}
	return int16(diff)
}

// Absolute maps input within [min, max] onto [0, 16383]. Input outside
// the range saturates.
func Absolute(input, min, max uint16) (int16, error) {
	if max <= min {
		return 0, fmt.Errorf("%w: min %d max %d", ErrInvalidRange, min, max)
	}
	out := (int32(input) - int32(min)) * AngleFull / (int32(max) - int32(min))
	if out < 0 {
		out = 0
	} else if out > AngleFull {
		out = AngleFull
	}
	return int16(out), nil
}

// Moved tells if input is outside the deadzone around last.
func Moved(last, input uint16, deadzone int32) bool {
	diff := int32(input) - int32(last)
	if diff < 0 {
		diff = -diff
	}
	return diff > deadzone
}
