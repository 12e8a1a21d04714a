// Package sensor provides shell commands talking to the sensors of a
// connected controller.
package sensor

import (
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/negicon/pkg/cli/sh"
	"github.com/robotalks/negicon/pkg/event"
)

// DefaultMonitorDuration is how long monitor prints events by default.
const DefaultMonitorDuration = 10 * time.Second

// ParseMemWrite parses PORT ADDR DATA into a MemWrite event.
func ParseMemWrite(args []string) (*event.Event, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("PORT ADDR DATA required")
	}
	port, err := strconv.ParseUint(args[0], 0, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}
	addr, err := strconv.ParseUint(args[1], 0, 8)
	if err != nil {
		return nil, fmt.Errorf("invalid ADDR: %w", err)
	}
	if addr&1 != 0 {
		return nil, fmt.Errorf("ADDR 0x%02x is not word aligned", addr)
	}
	data, err := strconv.ParseUint(args[2], 0, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid DATA: %w", err)
	}
	return &event.Event{
		Type:   event.MemWrite,
		Target: uint16(port),
		Seq:    uint8(addr),
		Value:  int16(uint16(data)),
	}, nil
}

// ParseDuration parses an optional duration argument.
func ParseDuration(args []string, def time.Duration) (time.Duration, error) {
	if len(args) == 0 {
		return def, nil
	}
	return time.ParseDuration(args[0])
}

// Monitor prints input events until d passes or the connection fails.
func Monitor(conn *sh.Conn, d time.Duration, print func(*event.Event)) error {
	deadline := time.Now().Add(d)
	for {
		left := time.Until(deadline)
		if left <= 0 {
			return nil
		}
		ev, err := conn.Next(left)
		if err == sh.ErrTimeout {
			return nil
		}
		if err != nil {
			return err
		}
		print(ev)
	}
}

func send(c *ishell.Context, ev *event.Event) {
	if err := sh.ShellFrom(c).Conn.Send(ev); err != nil {
		c.Err(err)
		return
	}
	sh.Print(c, ev, "OK")
}

var (
	// WriteCmd writes a word into sensor EEPROM.
	WriteCmd = ishell.Cmd{
		Name:    "write",
		Aliases: []string{"w"},
		Help:    "PORT ADDR DATA",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			ev, err := ParseMemWrite(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			send(c, ev)
		}),
	}

	// RebootCmd restarts the controller.
	RebootCmd = ishell.Cmd{
		Name: "reboot",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			send(c, &event.Event{Type: event.Reboot})
		}),
	}

	// MonitorCmd prints input events.
	MonitorCmd = ishell.Cmd{
		Name:    "monitor",
		Aliases: []string{"m"},
		Help:    "[DURATION]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			d, err := ParseDuration(c.Args, DefaultMonitorDuration)
			if err != nil {
				c.Err(err)
				return
			}
			err = Monitor(sh.ShellFrom(c).Conn, d, func(ev *event.Event) {
				sh.Print(c, ev, ev.String())
			})
			if err != nil {
				c.Err(err)
			}
		}),
	}
)

func init() {
	sh.AddCmds(
		&WriteCmd,
		&RebootCmd,
		&MonitorCmd,
	)
}
