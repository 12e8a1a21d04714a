package bus

import "fmt"

// FrameSize is the fixed size of a frame on the bus.
const FrameSize = 8

// Frame is a raw frame exchanged on the bus.
// Byte 6 carries the marker (bits 7-6) and the opcode (bits 5-0),
// byte 7 carries the CRC.
type Frame [FrameSize]byte

// MakeFrame builds an unstamped frame from payload bytes, marker and opcode.
func MakeFrame(payload [6]byte, marker, opcode byte) (f Frame) {
	copy(f[:6], payload[:])
	f[6] = (marker&0x03)<<6 | opcode&0x3f
	return
}

// Marker returns the 2-bit marker.
func (f *Frame) Marker() byte {
	return f[6] >> 6
}

// Opcode returns the 6-bit opcode.
func (f *Frame) Opcode() byte {
	return f[6] & 0x3f
}

// Stamp computes and stores the CRC.
func (f *Frame) Stamp() *Frame {
	f[FrameSize-1] = Checksum(f)
	return f
}

// Verify checks the stored CRC.
func (f *Frame) Verify() error {
	if f[FrameSize-1] != Checksum(f) {
		return ErrCRCMismatch
	}
	return nil
}

// Uint16 reads a little-endian word at offset.
func (f *Frame) Uint16(offset int) uint16 {
	return uint16(f[offset]) | uint16(f[offset+1])<<8
}

// PutUint16 writes a little-endian word at offset.
func (f *Frame) PutUint16(offset int, v uint16) {
	f[offset], f[offset+1] = byte(v), byte(v>>8)
}

// String implements fmt.Stringer.
func (f Frame) String() string {
	return fmt.Sprintf("% x", f[:])
}
