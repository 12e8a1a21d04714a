package mlx

import (
	"fmt"

	"github.com/robotalks/negicon/pkg/bus"
)

// Reply is a decoded sensor reply.
type Reply interface {
	Opcode() Opcode
}

// Diag is the 2-bit diagnostic status of an angle sample.
type Diag byte

// Diagnostic states.
const (
	DiagPending  Diag = 0
	DiagFail     Diag = 1
	DiagPass     Diag = 2
	DiagNewCycle Diag = 3
)

// Angle is a 14-bit angle sample.
type Angle struct {
	Data    uint16
	Diag    Diag
	VG      byte
	Counter byte
}

// MemoryReadAnswer carries two memory words.
type MemoryReadAnswer struct {
	Data0 uint16
	Data1 uint16
}

// WriteChallenge carries the challenge of a write sequence.
type WriteChallenge struct {
	Challenge uint16
}

// ReadAnswer acknowledges a challenge solution.
type ReadAnswer struct{}

// WriteStatusCode is the outcome of an EEPROM write.
type WriteStatusCode byte

// Write status codes.
const (
	WriteSuccess                 WriteStatusCode = 1
	WriteEraseWriteFail          WriteStatusCode = 2
	WriteEepromCrcEraseWriteFail WriteStatusCode = 4
	WriteKeyInvalid              WriteStatusCode = 6
	WriteChallengeFail           WriteStatusCode = 7
	WriteOddAddress              WriteStatusCode = 8
)

// String implements fmt.Stringer.
func (c WriteStatusCode) String() string {
	switch c {
	case WriteSuccess:
		return "Success"
	case WriteEraseWriteFail:
		return "EraseWriteFail"
	case WriteEepromCrcEraseWriteFail:
		return "EepromCrcEraseWriteFail"
	case WriteKeyInvalid:
		return "KeyInvalid"
	case WriteChallengeFail:
		return "ChallengeFail"
	case WriteOddAddress:
		return "OddAddress"
	}
	return fmt.Sprintf("WriteStatus(%d)", byte(c))
}

// WriteStatus reports the result of an EEPROM write.
type WriteStatus struct {
	Code WriteStatusCode
}

// Ready is sent after the sensor boots.
type Ready struct {
	HW byte
	FW byte
}

// NothingToTransmit is sent when no answer is pending.
type NothingToTransmit struct{}

// NopEcho answers a liveness request.
type NopEcho struct {
	Challenge uint16
	Inverted  uint16
}

// Opcode implements Reply.
func (Angle) Opcode() Opcode { return OpGet1 }

// Opcode implements Reply.
func (MemoryReadAnswer) Opcode() Opcode { return OpMemoryReadAnswer }

// Opcode implements Reply.
func (WriteChallenge) Opcode() Opcode { return OpEEWriteChallenge }

// Opcode implements Reply.
func (ReadAnswer) Opcode() Opcode { return OpEEReadAnswer }

// Opcode implements Reply.
func (WriteStatus) Opcode() Opcode { return OpEEWriteStatus }

// Opcode implements Reply.
func (Ready) Opcode() Opcode { return OpReadyMessage }

// Opcode implements Reply.
func (NothingToTransmit) Opcode() Opcode { return OpNothingToTransmit }

// Opcode implements Reply.
func (NopEcho) Opcode() Opcode { return OpNopAnswer }

// Verify checks the echo against the challenge sent.
func (e NopEcho) Verify(challenge uint16) error {
	if e.Challenge != challenge || e.Inverted != ^challenge {
		return ErrChallengeMismatch
	}
	return nil
}

// ParseNopEcho extracts the challenge echo of a liveness reply without
// looking at the opcode, which identifies the responder class.
func ParseNopEcho(f *bus.Frame) NopEcho {
	return NopEcho{Challenge: f.Uint16(2), Inverted: f.Uint16(4)}
}

// Decode decodes a verified frame.
// Error frames are returned as *DeviceError.
func Decode(f bus.Frame) (Reply, error) {
	switch Marker(f.Marker()) {
	case MarkerAlpha:
		return Angle{
			Data:    uint16(f[0]) | uint16(f[1]&0x3f)<<8,
			Diag:    Diag(f[1] >> 6),
			VG:      f[4],
			Counter: f.Opcode(),
		}, nil
	case MarkerIrregular:
		switch Opcode(f.Opcode()) {
		case OpMemoryReadAnswer:
			return MemoryReadAnswer{Data0: f.Uint16(0), Data1: f.Uint16(2)}, nil
		case OpEEWriteChallenge:
			return WriteChallenge{Challenge: f.Uint16(2)}, nil
		case OpEEReadAnswer:
			return ReadAnswer{}, nil
		case OpEEWriteStatus:
			return WriteStatus{Code: WriteStatusCode(f[0])}, nil
		case OpReadyMessage:
			return Ready{HW: f[0], FW: f[1]}, nil
		case OpNothingToTransmit:
			return NothingToTransmit{}, nil
		case OpNopAnswer:
			return ParseNopEcho(&f), nil
		case OpErrorFrame:
			return nil, &DeviceError{Code: deviceErrorCode(f[0])}
		}
	}
	return nil, fmt.Errorf("%w: marker %d opcode 0x%02x", ErrFormat, f.Marker(), f.Opcode())
}
