package bus

import (
	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"

	"github.com/robotalks/negicon/pkg/metrics"
)

// Transceiver performs a full-duplex exchange on the bus.
// periph.io spi.Conn satisfies it.
type Transceiver interface {
	Tx(w, r []byte) error
}

// SelectLine drives the chip-select of one port.
// The line is active low. periph.io gpio.PinOut satisfies it.
type SelectLine interface {
	Out(l gpio.Level) error
}

// Exchanger exchanges one frame with a single peer.
type Exchanger interface {
	Exchange(Frame) (Frame, error)
}

// Transport exchanges frames on a shared bus.
type Transport struct {
	Conn Transceiver
}

// NewTransport creates a Transport.
func NewTransport(conn Transceiver) *Transport {
	return &Transport{Conn: conn}
}

// Exchange stamps the frame, performs one duplex exchange with the
// peer behind sel and verifies the received frame.
// The select line is always released before returning.
func (t *Transport) Exchange(sel SelectLine, out Frame) (in Frame, err error) {
	out.Stamp()
	if err = sel.Out(gpio.Low); err != nil {
		sel.Out(gpio.High)
		metrics.BusExchanges.WithLabelValues(metrics.ResultLinkError).Inc()
		return in, &LinkError{Op: "select", Err: err}
	}
	err = t.Conn.Tx(out[:], in[:])
	if e := sel.Out(gpio.High); e != nil && err == nil {
		err = e
	}
	if err != nil {
		metrics.BusExchanges.WithLabelValues(metrics.ResultLinkError).Inc()
		return in, &LinkError{Op: "exchange", Err: err}
	}
	if glog.V(4) {
		glog.Infof("SPI %v -> %v", out, in)
	}
	if err = in.Verify(); err != nil {
		metrics.BusExchanges.WithLabelValues(metrics.ResultCRCError).Inc()
		return
	}
	metrics.BusExchanges.WithLabelValues(metrics.ResultOK).Inc()
	return
}

// Endpoint binds a Transport to the select line of one port.
type Endpoint struct {
	Transport *Transport
	Select    SelectLine
}

// NewEndpoint creates an Endpoint.
func (t *Transport) NewEndpoint(sel SelectLine) *Endpoint {
	return &Endpoint{Transport: t, Select: sel}
}

// Exchange implements Exchanger.
func (e *Endpoint) Exchange(out Frame) (Frame, error) {
	return e.Transport.Exchange(e.Select, out)
}
