package sensor

import "fmt"

// ParamState is the lifecycle state of a parameter read from the sensor.
type ParamState int

// Parameter states.
const (
	ParamUninitialized ParamState = iota
	ParamRequested
	ParamInitialized
)

// Param is a sensor parameter with a default used until it's read.
type Param[T any] struct {
	State ParamState
	Value T
}

// NewParam creates an uninitialized parameter with a default value.
func NewParam[T any](def T) Param[T] {
	return Param[T]{Value: def}
}

// Get returns the value, which is the default until initialized.
func (p *Param[T]) Get() T {
	return p.Value
}

// Ready tells if the value was read from the sensor.
func (p *Param[T]) Ready() bool {
	return p.State == ParamInitialized
}

// Request marks the read as issued.
func (p *Param[T]) Request() {
	p.State = ParamRequested
}

// Resolve stores the value read.
func (p *Param[T]) Resolve(v T) {
	p.State, p.Value = ParamInitialized, v
}

// Invalidate forces the parameter to be read again.
func (p *Param[T]) Invalidate() {
	p.State = ParamUninitialized
}

// Abandon drops an issued read whose answer won't arrive.
func (p *Param[T]) Abandon() {
	if p.State == ParamRequested {
		p.State = ParamUninitialized
	}
}

// String implements fmt.Stringer.
func (p Param[T]) String() string {
	switch p.State {
	case ParamRequested:
		return fmt.Sprintf("requested(%v)", p.Value)
	case ParamInitialized:
		return fmt.Sprintf("%v", p.Value)
	}
	return fmt.Sprintf("uninitialized(%v)", p.Value)
}
