// Package sensor implements the MLX90363 rotary sensor driver.
package sensor

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/negicon/pkg/event"
	"github.com/robotalks/negicon/pkg/mlx"
)

// Options tunes the driver.
type Options struct {
	Mode            Mode
	Deadzone        int32
	ButtonThreshold byte
	SettleTicks     int16
}

// DefaultOptions are used by New when no options are given.
var DefaultOptions = Options{
	Mode:            ModeRelative,
	Deadzone:        64,
	ButtonThreshold: 35,
	SettleTicks:     100,
}

type buttonState int

const (
	buttonUp buttonState = iota
	buttonDown
)

// latched suppresses movement until the button is released.
const latched int16 = -1

// Driver turns angle samples of one MLX90363 into events.
type Driver struct {
	Conn    *mlx.Conn
	Options Options

	id  Param[uint16]
	min Param[uint16]
	max Param[uint16]

	last      uint16
	button    buttonState
	countdown int16
}

// New creates a Driver.
func New(conn *mlx.Conn, opts Options) *Driver {
	return &Driver{
		Conn:      conn,
		Options:   opts,
		id:        NewParam[uint16](0),
		min:       NewParam[uint16](0),
		max:       NewParam[uint16](0),
		countdown: opts.SettleTicks,
	}
}

// Name implements port.Device.
func (d *Driver) Name() string {
	return "MLX90363"
}

// ID returns the event id of the sensor.
func (d *Driver) ID() uint16 {
	return d.id.Get()
}

// Ready tells if all parameters are read.
func (d *Driver) Ready() bool {
	return d.id.Ready() && d.min.Ready() && d.max.Ready()
}

// String implements fmt.Stringer.
func (d *Driver) String() string {
	return fmt.Sprintf("%s{id=%v min=%v max=%v mode=%s}", d.Name(), d.id, d.min, d.max, d.Options.Mode)
}

// Poll performs exactly one exchange with the sensor.
// Until all parameters are read, each poll advances the bootstrap by
// one step and returns no event.
func (d *Driver) Poll() (*event.Event, error) {
	if !d.Ready() {
		return nil, d.bootstrap()
	}
	reply, err := d.Conn.GetAngle()
	if err != nil {
		return nil, err
	}
	angle, ok := reply.(mlx.Angle)
	if !ok {
		glog.V(2).Infof("%s: angle query answered with %T", d.Name(), reply)
		return nil, nil
	}
	if ev := d.checkButton(angle.VG); ev != nil {
		return ev, nil
	}
	switch {
	case d.countdown == latched:
		d.last = angle.Data
		return nil, nil
	case d.countdown > 0:
		d.last = angle.Data
		d.countdown--
		return nil, nil
	}
	if !Moved(d.last, angle.Data, d.Options.Deadzone) {
		return nil, nil
	}
	value, err := d.output(angle.Data)
	if err != nil {
		return nil, err
	}
	return event.NewInput(d.id.Get(), value), nil
}

// WriteMemory runs the authenticated write. Parameters stored at the
// written address are read again afterwards. The write consumes the
// pipelined answer of a pending parameter read, so that read restarts.
func (d *Driver) WriteMemory(addr uint8, data uint16) error {
	err := d.Conn.WriteMemory(addr, data)
	d.id.Abandon()
	d.min.Abandon()
	d.max.Abandon()
	if err != nil {
		return err
	}
	switch mlx.EEPROMBase | uint16(addr&0x3e) {
	case mlx.AddrID:
		d.id.Invalidate()
	case mlx.AddrMin:
		d.min.Invalidate()
	case mlx.AddrMax:
		d.max.Invalidate()
	}
	return nil
}

func (d *Driver) bootstrap() error {
	for _, p := range []struct {
		param *Param[uint16]
		addr  uint16
	}{
		{&d.id, mlx.AddrID},
		{&d.min, mlx.AddrMin},
		{&d.max, mlx.AddrMax},
	} {
		if p.param.Ready() {
			continue
		}
		reply, err := d.Conn.ReadMemory(p.addr, p.addr)
		if err != nil {
			return err
		}
		if p.param.State == ParamUninitialized {
			p.param.Request()
			return nil
		}
		answer, ok := reply.(mlx.MemoryReadAnswer)
		if !ok {
			return fmt.Errorf("%w: read 0x%04x answered with %T", mlx.ErrUnexpectedReply, p.addr, reply)
		}
		p.param.Resolve(answer.Data1)
		if d.Ready() {
			glog.Infof("initialized %s", d)
		}
		return nil
	}
	return nil
}

func (d *Driver) output(input uint16) (int16, error) {
	last := d.last
	d.last = input
	if d.Options.Mode == ModeAbsolute {
		return Absolute(input, d.min.Get(), d.max.Get())
	}
	return Relative(last, input), nil
}

func (d *Driver) checkButton(vg byte) *event.Event {
	threshold := d.Options.ButtonThreshold
	switch {
	case d.button == buttonUp && vg < threshold:
		d.button, d.countdown = buttonDown, latched
		return event.NewInput(d.id.Get()+ButtonOffset, 1)
	case d.button == buttonDown && vg > threshold:
		d.button, d.countdown = buttonUp, d.Options.SettleTicks
		return event.NewInput(d.id.Get()+ButtonOffset, -1)
	}
	return nil
}
