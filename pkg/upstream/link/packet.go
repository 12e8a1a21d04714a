package link

import (
	"fmt"
	"io"
	"time"

	"github.com/robotalks/negicon/pkg/event"
)

// Packet codes.
const (
	// CodeReport carries an outbound report.
	CodeReport byte = 0x81
	// CodeCommand carries an inbound report.
	CodeCommand byte = 0x02

	codeMask    byte = 0x8f
	lenMask     byte = 0x70
	maxShortLen byte = 7
)

// Seq is a packet sequence number.
type Seq byte

// NewSeq picks a random starting sequence number.
func NewSeq() Seq {
	return Seq(byte(time.Now().UnixNano())).Next()
}

// Next returns the following sequence number.
func (s Seq) Next() Seq {
	n := byte(s) + 1
	if n == 0 || n >= 0xf0 {
		n = 1
	}
	return Seq(n)
}

// Valid tells if s can appear on the wire as a sequence number.
func (s Seq) Valid() bool {
	return s > 0 && s < 0xf0
}

// Packet is a decoded packet.
type Packet struct {
	Seq  Seq
	Code byte
	Data []byte
}

// ReportPacket wraps a report for sending.
func ReportPacket(r event.Report) *Packet {
	return &Packet{Code: CodeReport, Data: r[:]}
}

// Report extracts the report carried by the packet.
func (p *Packet) Report() (*event.Report, error) {
	if len(p.Data) != event.ReportSize {
		return nil, fmt.Errorf("packet %02x: report size %d", p.Code, len(p.Data))
	}
	var r event.Report
	copy(r[:], p.Data)
	return &r, nil
}

func (p *Packet) header() []byte {
	h := []byte{byte(p.Seq), p.Code & codeMask, byte(len(p.Data))}
	if h[2] < maxShortLen {
		h[1] |= (h[2] << 4) & lenMask
		return h[:2]
	}
	h[1] |= lenMask
	return h
}

// Bytes encodes the packet.
func (p *Packet) Bytes() []byte {
	return append(p.header(), p.Data...)
}

// WriteTo writes the encoded packet in a single write.
func (p *Packet) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(p.Bytes())
	return int64(n), err
}
