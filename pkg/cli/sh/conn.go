package sh

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/robotalks/negicon/pkg/event"
	"github.com/robotalks/negicon/pkg/upstream/hidg"
)

var (
	// ErrTimeout indicates no report arrived in time.
	ErrTimeout = errors.New("timeout")
)

// Conn exchanges reports with a controller over USB HID.
type Conn struct {
	Name   string
	Device io.ReadWriteCloser

	reports chan event.Report
	lock    sync.Mutex
	err     error
	once    sync.Once
}

// Enumerate lists attached controllers.
func Enumerate() []hid.DeviceInfo {
	return hid.Enumerate(hidg.VendorID, hidg.ProductID)
}

// FormatDevice prints DeviceInfo for display.
func FormatDevice(info hid.DeviceInfo) string {
	return fmt.Sprintf("%s %s %s (%04x:%04x)", info.Path, info.Manufacturer, info.Product, info.VendorID, info.ProductID)
}

// Open opens an enumerated device.
func Open(info hid.DeviceInfo) (*Conn, error) {
	dev, err := info.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", info.Path, err)
	}
	return NewConn(info.Path, dev), nil
}

// NewConn starts reading reports from dev.
func NewConn(name string, dev io.ReadWriteCloser) *Conn {
	c := &Conn{Name: name, Device: dev, reports: make(chan event.Report, 64)}
	go c.readLoop()
	return c
}

// Send writes an event as an output report without report id.
func (c *Conn) Send(ev *event.Event) error {
	r := ev.Encode()
	_, err := c.Device.Write(append([]byte{0}, r[:]...))
	return err
}

// Next waits for the next input event.
func (c *Conn) Next(timeout time.Duration) (*event.Event, error) {
	select {
	case r, ok := <-c.reports:
		if !ok {
			return nil, c.readErr()
		}
		return event.Decode(r)
	case <-time.After(timeout):
		return nil, ErrTimeout
	}
}

// Close closes the device.
func (c *Conn) Close() (err error) {
	c.once.Do(func() {
		err = c.Device.Close()
	})
	return
}

func (c *Conn) readErr() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.err
}

func (c *Conn) readLoop() {
	defer close(c.reports)
	buf := make([]byte, event.ReportSize)
	for {
		n, err := c.Device.Read(buf)
		if err != nil {
			c.lock.Lock()
			c.err = err
			c.lock.Unlock()
			return
		}
		if n != event.ReportSize {
			continue
		}
		var r event.Report
		copy(r[:], buf)
		select {
		case c.reports <- r:
		default:
		}
	}
}
