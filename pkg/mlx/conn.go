package mlx

import (
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/negicon/pkg/bus"
	"github.com/robotalks/negicon/pkg/metrics"
)

// Timing of the write sequence.
const (
	StepDelay   = 150 * time.Microsecond
	SettleDelay = 33 * time.Millisecond
)

// PingChallenge is the literal challenge of liveness pings.
const PingChallenge uint16 = 0x3939

// Sleeper blocks for a duration.
type Sleeper interface {
	Sleep(time.Duration)
}

// SleepFunc is the func form of Sleeper.
type SleepFunc func(time.Duration)

// Sleep implements Sleeper.
func (f SleepFunc) Sleep(d time.Duration) {
	f(d)
}

// Conn talks to one sensor.
type Conn struct {
	Exchanger bus.Exchanger
	Sleeper   Sleeper
}

// NewConn creates a Conn which sleeps with time.Sleep.
func NewConn(ex bus.Exchanger) *Conn {
	return &Conn{Exchanger: ex, Sleeper: SleepFunc(time.Sleep)}
}

// Transfer sends a request and decodes the reply of the previous request.
func (c *Conn) Transfer(req bus.Frame) (Reply, error) {
	in, err := c.Exchanger.Exchange(req)
	if err != nil {
		return nil, err
	}
	return Decode(in)
}

// Nop sends a liveness request.
func (c *Conn) Nop(challenge uint16) (Reply, error) {
	return c.Transfer(Nop(challenge))
}

// ReadMemory sends a memory read request.
func (c *Conn) ReadMemory(addr0, addr1 uint16) (Reply, error) {
	return c.Transfer(MemoryRead(addr0, addr1))
}

// GetAngle sends an angle query.
func (c *Conn) GetAngle() (Reply, error) {
	return c.Transfer(Get1(false, DefaultTimeout))
}

// WriteMemory runs the authenticated EEPROM write sequence.
// The sequence is attempted once and aborted on the first deviation.
func (c *Conn) WriteMemory(addr uint8, data uint16) error {
	err := c.writeMemory(addr, data)
	switch err.(type) {
	case nil:
		metrics.MemoryWrites.WithLabelValues(metrics.ResultOK).Inc()
	case *WriteStatusError:
		metrics.MemoryWrites.WithLabelValues(metrics.ResultError).Inc()
	default:
		metrics.MemoryWrites.WithLabelValues(metrics.ResultAborted).Inc()
	}
	return err
}

func (c *Conn) writeMemory(addr uint8, data uint16) error {
	// the reply answers whatever was sent before the ping.
	if _, err := c.Exchanger.Exchange(Nop(PingChallenge)); err != nil {
		return &WriteError{Step: StepPing, Err: err}
	}
	c.Sleeper.Sleep(StepDelay)

	reply, err := c.Transfer(EEWrite(addr, data))
	if err != nil {
		return &WriteError{Step: StepWrite, Err: err}
	}
	echo, ok := reply.(NopEcho)
	if !ok {
		return &WriteError{Step: StepWrite, Err: ErrUnexpectedReply}
	}
	if err = echo.Verify(PingChallenge); err != nil {
		return &WriteError{Step: StepWrite, Err: err}
	}
	c.Sleeper.Sleep(StepDelay)

	if reply, err = c.Transfer(EEReadChallenge()); err != nil {
		return &WriteError{Step: StepChallenge, Err: err}
	}
	challenge, ok := reply.(WriteChallenge)
	if !ok {
		return &WriteError{Step: StepChallenge, Err: ErrUnexpectedReply}
	}
	c.Sleeper.Sleep(StepDelay)

	if reply, err = c.Transfer(EEChallengeAnswer(challenge.Challenge)); err != nil {
		return &WriteError{Step: StepAnswer, Err: err}
	}
	if _, ok = reply.(ReadAnswer); !ok {
		return &WriteError{Step: StepAnswer, Err: ErrUnexpectedReply}
	}
	c.Sleeper.Sleep(SettleDelay)

	if reply, err = c.Nop(PingChallenge); err != nil {
		return &WriteError{Step: StepStatus, Err: err}
	}
	status, ok := reply.(WriteStatus)
	if !ok {
		return &WriteError{Step: StepStatus, Err: ErrUnexpectedReply}
	}
	glog.Infof("memory write 0x%02x=0x%04x status %s", addr, data, status.Code)
	if status.Code != WriteSuccess {
		return &WriteStatusError{Addr: addr, Status: status.Code}
	}
	return nil
}
