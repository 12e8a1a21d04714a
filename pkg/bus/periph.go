package bus

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// DefaultFrequency is the default SPI clock for the sensors.
const DefaultFrequency = 2500 * physic.KiloHertz

// Port is an opened SPI port with its connection.
type Port struct {
	spi.PortCloser
	Conn spi.Conn
}

// OpenSPI opens an SPI port by name in mode 1 with 8-bit words.
// An empty name opens the first available port.
func OpenSPI(name string, freq physic.Frequency) (*Port, error) {
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", name, err)
	}
	if freq == 0 {
		freq = DefaultFrequency
	}
	conn, err := p.Connect(freq, spi.Mode1, 8)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("connect spi %q: %w", name, err)
	}
	return &Port{PortCloser: p, Conn: conn}, nil
}

// Tx implements Transceiver.
func (p *Port) Tx(w, r []byte) error {
	return p.Conn.Tx(w, r)
}

// OpenSelectLine looks up a GPIO by name and drives it high (deselected).
func OpenSelectLine(name string) (gpio.PinOut, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("gpio %q not found", name)
	}
	if err := pin.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("gpio %q: %w", name, err)
	}
	return pin, nil
}
