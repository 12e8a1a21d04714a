// Package hidg delivers reports to the host through a Linux USB HID
// gadget function (/dev/hidgN).
package hidg

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/robotalks/negicon/pkg/event"
)

// USB identity of the gadget.
const (
	VendorID  uint16 = 0x1209
	ProductID uint16 = 0x3939
)

// ReportDescriptor describes one 8-byte vendor input report and one
// 8-byte vendor output report, for configuring the gadget function.
var ReportDescriptor = []byte{
	0x06, 0x00, 0xff, // Usage Page (Vendor Defined 0xFF00)
	0x09, 0x01, //       Usage (0x01)
	0xa1, 0x01, //       Collection (Application)
	0x15, 0x00, //         Logical Minimum (0)
	0x26, 0xff, 0x00, //   Logical Maximum (255)
	0x75, 0x08, //         Report Size (8)
	0x95, 0x08, //         Report Count (8)
	0x09, 0x02, //         Usage (0x02)
	0x81, 0x02, //         Input (Data,Var,Abs)
	0x95, 0x08, //         Report Count (8)
	0x09, 0x03, //         Usage (0x03)
	0x91, 0x02, //         Output (Data,Var,Abs)
	0xc0, //             End Collection
}

// Sink exchanges reports over a HID gadget device without blocking.
type Sink struct {
	Path string

	fd int
}

// Open opens the gadget device in non-blocking mode.
func Open(path string) (*Sink, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Sink{Path: path, fd: fd}, nil
}

// Close closes the device.
func (s *Sink) Close() error {
	return unix.Close(s.fd)
}

// Name implements event.Sink.
func (s *Sink) Name() string {
	return "hid"
}

// Send implements event.Sink.
func (s *Sink) Send(r event.Report) error {
	n, err := unix.Write(s.fd, r[:])
	if err != nil {
		return mapError(err)
	}
	if n != len(r) {
		return fmt.Errorf("short write %d", n)
	}
	return nil
}

// Receive implements event.Sink.
func (s *Sink) Receive() (*event.Report, error) {
	var r event.Report
	n, err := unix.Read(s.fd, r[:])
	if err != nil {
		if err = mapError(err); errors.Is(err, event.ErrWouldBlock) || errors.Is(err, event.ErrOffline) {
			return nil, nil
		}
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return &r, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
		return event.ErrWouldBlock
	case errors.Is(err, unix.ESHUTDOWN):
		// host not connected.
		return event.ErrOffline
	}
	return err
}
