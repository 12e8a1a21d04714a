package sim

import (
	"sync"

	"github.com/robotalks/negicon/pkg/bus"
	"github.com/robotalks/negicon/pkg/mlx"
)

// Simulated gain of a released and a pressed knob.
const (
	ReleasedVG byte = 60
	PressedVG  byte = 20
)

// Sensor simulates an MLX90363. Like the real sensor it answers a
// request during the next exchange.
type Sensor struct {
	// Class is the opcode of liveness answers, identifying the responder.
	Class byte
	HW   byte
	FW   byte

	angle     Angle
	vg        byte
	memory    map[uint16]uint16
	pending   bus.Frame
	counter   byte
	challenge uint16
	write     *eepromWrite
	lock      sync.Mutex
}

type eepromWrite struct {
	addr   uint8
	data   uint16
	status mlx.WriteStatusCode
}

// NewSensor creates a Sensor with the id stored in EEPROM.
func NewSensor(id uint16) *Sensor {
	s := &Sensor{
		Class:     byte(mlx.OpNopAnswer),
		HW:        1,
		FW:        1,
		vg:        ReleasedVG,
		memory:    map[uint16]uint16{mlx.AddrID: id},
		challenge: 0x7a3c,
	}
	s.pending = s.ready()
	return s
}

// NewResponder creates a responder of another class which only answers
// liveness requests.
func NewResponder(class byte) *Sensor {
	s := NewSensor(0)
	s.Class = class
	return s
}

// Angle returns the current angle.
func (s *Sensor) Angle() Angle {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.angle
}

// SetRaw sets the angle from a 14-bit reading.
func (s *Sensor) SetRaw(raw uint16) {
	s.lock.Lock()
	s.angle = AngleFromRaw(raw)
	s.lock.Unlock()
}

// Turn rotates the knob.
func (s *Sensor) Turn(degrees float64) {
	s.lock.Lock()
	s.angle = s.angle.AddDegrees(degrees)
	s.lock.Unlock()
}

// SetVG sets the gain byte reported with angles.
func (s *Sensor) SetVG(vg byte) {
	s.lock.Lock()
	s.vg = vg
	s.lock.Unlock()
}

// Press presses or releases the knob.
func (s *Sensor) Press(pressed bool) {
	if pressed {
		s.SetVG(PressedVG)
	} else {
		s.SetVG(ReleasedVG)
	}
}

// Memory reads a memory word.
func (s *Sensor) Memory(addr uint16) uint16 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.memory[addr]
}

// SetMemory writes a memory word.
func (s *Sensor) SetMemory(addr, value uint16) {
	s.lock.Lock()
	s.memory[addr] = value
	s.lock.Unlock()
}

// Respond implements Responder.
func (s *Sensor) Respond(req bus.Frame) bus.Frame {
	s.lock.Lock()
	defer s.lock.Unlock()
	out := s.pending
	out.Stamp()
	if req.Verify() != nil {
		s.pending = s.errorFrame(mlx.ErrCodeIncorrectCRC)
		return out
	}
	if s.Class != byte(mlx.OpNopAnswer) {
		s.pending = s.nopAnswer(req)
		return out
	}
	s.pending = s.handle(req)
	return out
}

func (s *Sensor) handle(req bus.Frame) bus.Frame {
	switch mlx.Marker(req.Marker()) {
	case mlx.MarkerAlpha:
		if mlx.Opcode(req.Opcode()) == mlx.OpGet1 {
			return s.alpha()
		}
	case mlx.MarkerIrregular:
		switch mlx.Opcode(req.Opcode()) {
		case mlx.OpNopChallenge:
			return s.nopAnswer(req)
		case mlx.OpMemoryRead:
			f := irregular(mlx.OpMemoryReadAnswer)
			f.PutUint16(0, s.memory[req.Uint16(0)])
			f.PutUint16(2, s.memory[req.Uint16(2)])
			return f
		case mlx.OpEEWrite:
			return s.eeWrite(req)
		case mlx.OpEEReadChallenge:
			if s.write == nil {
				return s.errorFrame(mlx.ErrCodeInvalidRequestOpcode)
			}
			return irregular(mlx.OpEEReadAnswer)
		case mlx.OpEEChallengeAns:
			return s.eeChallengeAnswer(req)
		case mlx.OpReboot:
			s.write = nil
			return s.ready()
		}
	}
	return s.errorFrame(mlx.ErrCodeInvalidRequestOpcode)
}

func irregular(op mlx.Opcode) bus.Frame {
	return bus.MakeFrame([6]byte{}, byte(mlx.MarkerIrregular), byte(op))
}

func (s *Sensor) ready() bus.Frame {
	f := irregular(mlx.OpReadyMessage)
	f[0], f[1] = s.HW, s.FW
	return f
}

func (s *Sensor) errorFrame(code mlx.DeviceErrorCode) bus.Frame {
	f := irregular(mlx.OpErrorFrame)
	f[0] = byte(code)
	return f
}

func (s *Sensor) nopAnswer(req bus.Frame) bus.Frame {
	f := bus.MakeFrame([6]byte{}, byte(mlx.MarkerIrregular), s.Class)
	f.PutUint16(2, req.Uint16(2))
	f.PutUint16(4, ^req.Uint16(2))
	return f
}

func (s *Sensor) alpha() bus.Frame {
	raw := s.angle.Raw()
	f := bus.MakeFrame([6]byte{
		byte(raw),
		byte(raw>>8)&0x3f | byte(mlx.DiagPass)<<6,
		0, 0,
		s.vg,
		0,
	}, byte(mlx.MarkerAlpha), s.counter)
	s.counter = (s.counter + 1) & 0x3f
	return f
}

func (s *Sensor) eeWrite(req bus.Frame) bus.Frame {
	addr := req[1] & 0x3f
	w := &eepromWrite{addr: addr, data: req.Uint16(4)}
	switch {
	case addr&1 != 0:
		w.status = mlx.WriteOddAddress
	case req.Uint16(2) != mlx.Key(addr):
		w.status = mlx.WriteKeyInvalid
	}
	s.write = w
	s.challenge = s.challenge*31 + 17
	f := irregular(mlx.OpEEWriteChallenge)
	f.PutUint16(2, s.challenge)
	return f
}

func (s *Sensor) eeChallengeAnswer(req bus.Frame) bus.Frame {
	w := s.write
	if w == nil {
		return s.errorFrame(mlx.ErrCodeInvalidRequestOpcode)
	}
	answer := mlx.SolveChallenge(s.challenge)
	if w.status == 0 {
		if req.Uint16(2) != answer || req.Uint16(4) != ^answer {
			w.status = mlx.WriteChallengeFail
		} else {
			s.memory[mlx.EEPROMBase|uint16(w.addr)] = w.data
			w.status = mlx.WriteSuccess
		}
	}
	return s.writeStatus()
}

func (s *Sensor) writeStatus() bus.Frame {
	f := irregular(mlx.OpEEWriteStatus)
	f[0] = byte(s.write.status)
	s.write = nil
	return f
}
