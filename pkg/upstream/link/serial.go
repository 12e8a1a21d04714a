package link

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate of serial ports.
const DefaultBaudRate = 115200

// serialReadTimeout bounds each Read so Run can observe the sync timer.
const serialReadTimeout = 10 * time.Millisecond

// SerialStream wraps an opened serial port.
type SerialStream struct {
	*Stream
	Port serial.Port
}

// OpenSerial opens a serial port as a Stream.
func OpenSerial(path string, baudRate int) (*SerialStream, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	port, err := serial.Open(path, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := port.SetReadTimeout(serialReadTimeout); err != nil {
		port.Close()
		return nil, err
	}
	s := NewStream(port)
	s.ReadTimeout = true
	return &SerialStream{Stream: s, Port: port}, nil
}

// Close closes the serial port.
func (s *SerialStream) Close() error {
	return s.Port.Close()
}
