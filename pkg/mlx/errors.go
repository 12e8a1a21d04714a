package mlx

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat indicates an unrecognized marker/opcode combination.
	ErrFormat = errors.New("unrecognized frame")
	// ErrChallengeMismatch indicates a challenge echo doesn't match.
	ErrChallengeMismatch = errors.New("challenge mismatch")
	// ErrUnexpectedReply indicates a valid but unexpected reply.
	ErrUnexpectedReply = errors.New("unexpected reply")
)

// DeviceErrorCode is the code carried by an error frame.
type DeviceErrorCode byte

// Device error codes.
const (
	ErrCodeUnknown                 DeviceErrorCode = 0
	ErrCodeIncorrectBitCount       DeviceErrorCode = 1
	ErrCodeIncorrectCRC            DeviceErrorCode = 2
	ErrCodeAnswerTimeoutOrNotReady DeviceErrorCode = 3
	ErrCodeInvalidRequestOpcode    DeviceErrorCode = 4
)

// String implements fmt.Stringer.
func (c DeviceErrorCode) String() string {
	switch c {
	case ErrCodeIncorrectBitCount:
		return "IncorrectBitCount"
	case ErrCodeIncorrectCRC:
		return "IncorrectCRC"
	case ErrCodeAnswerTimeoutOrNotReady:
		return "AnswerTimeoutOrNotReady"
	case ErrCodeInvalidRequestOpcode:
		return "InvalidRequestOpcode"
	}
	return "Unknown"
}

func deviceErrorCode(b byte) DeviceErrorCode {
	switch c := DeviceErrorCode(b); c {
	case ErrCodeIncorrectBitCount, ErrCodeIncorrectCRC, ErrCodeAnswerTimeoutOrNotReady, ErrCodeInvalidRequestOpcode:
		return c
	}
	return ErrCodeUnknown
}

// DeviceError is an error frame reported by the sensor.
type DeviceError struct {
	Code DeviceErrorCode
}

// Error implements error.
func (e *DeviceError) Error() string {
	return fmt.Sprintf("device error %s", e.Code)
}

// WriteStep identifies a step of the write sequence.
type WriteStep int

// Write sequence steps.
const (
	StepPing WriteStep = iota + 1
	StepWrite
	StepChallenge
	StepAnswer
	StepStatus
)

// String implements fmt.Stringer.
func (s WriteStep) String() string {
	switch s {
	case StepPing:
		return "ping"
	case StepWrite:
		return "write"
	case StepChallenge:
		return "challenge"
	case StepAnswer:
		return "answer"
	case StepStatus:
		return "status"
	}
	return fmt.Sprintf("step%d", int(s))
}

// WriteError aborts a write sequence at a step.
type WriteError struct {
	Step WriteStep
	Err  error
}

// Error implements error.
func (e *WriteError) Error() string {
	return fmt.Sprintf("memory write aborted at %s: %v", e.Step, e.Err)
}

// Unwrap returns the underlying error.
func (e *WriteError) Unwrap() error {
	return e.Err
}

// WriteStatusError is a completed write sequence with a failure status.
type WriteStatusError struct {
	Addr   uint8
	Status WriteStatusCode
}

// Error implements error.
func (e *WriteStatusError) Error() string {
	return fmt.Sprintf("memory write 0x%02x: %s", e.Addr, e.Status)
}
