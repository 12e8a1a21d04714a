package bus

import (
	"errors"
	"fmt"
)

var (
	// ErrCRCMismatch indicates the CRC of a received frame is wrong.
	ErrCRCMismatch = errors.New("crc mismatch")
)

// LinkError wraps a failure of the underlying duplex exchange
// or the select line.
type LinkError struct {
	Op  string
	Err error
}

// Error implements error.
func (e *LinkError) Error() string {
	return fmt.Sprintf("bus %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *LinkError) Unwrap() error {
	return e.Err
}
