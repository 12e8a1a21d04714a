package mlx

import "github.com/robotalks/negicon/pkg/bus"

// DefaultTimeout is the angle query timeout used by the driver.
const DefaultTimeout uint16 = 0xffff

func request(marker Marker, op Opcode) bus.Frame {
	return bus.MakeFrame([6]byte{}, byte(marker), byte(op))
}

// Get1 builds an angle query.
func Get1(reset bool, timeout uint16) bus.Frame {
	f := request(MarkerAlpha, OpGet1)
	if reset {
		f[1] = 1
	}
	f.PutUint16(2, timeout)
	return f
}

// MemoryRead builds a read of two memory words.
func MemoryRead(addr0, addr1 uint16) bus.Frame {
	f := request(MarkerIrregular, OpMemoryRead)
	f.PutUint16(0, addr0)
	f.PutUint16(2, addr1)
	return f
}

// EEWrite builds an EEPROM write request carrying the address key.
func EEWrite(addr uint8, data uint16) bus.Frame {
	f := request(MarkerIrregular, OpEEWrite)
	f[1] = addr & 0x3f
	f.PutUint16(2, Key(addr))
	f.PutUint16(4, data)
	return f
}

// EEReadChallenge builds the write challenge request.
func EEReadChallenge() bus.Frame {
	return request(MarkerIrregular, OpEEReadChallenge)
}

// EEChallengeAnswer builds the solution of a write challenge.
func EEChallengeAnswer(challenge uint16) bus.Frame {
	f := request(MarkerIrregular, OpEEChallengeAns)
	answer := SolveChallenge(challenge)
	f.PutUint16(2, answer)
	f.PutUint16(4, ^answer)
	return f
}

// Nop builds a liveness request with a challenge.
func Nop(challenge uint16) bus.Frame {
	f := request(MarkerIrregular, OpNopChallenge)
	f.PutUint16(2, challenge)
	f.PutUint16(4, ^challenge)
	return f
}
