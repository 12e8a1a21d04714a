// Package sh provides the interactive shell of the host tool.
package sh

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/karalabe/hid"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell *ishell.Shell
	Conn  *Conn
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// ErrNotConnected indicates no device is connected.
	ErrNotConnected = errors.New("not connected")

	evalOnly   bool
	outputJSON bool

	commands = []*ishell.Cmd{
		&ListCmd,
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New() *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Shell:       ishell.New(),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(ErrNotConnected)
			return
		}
		fn(c)
	}
}

// Print prints v as JSON in JSON mode, or text otherwise.
func Print(c *ishell.Context, v interface{}, text string) {
	if ShellFrom(c).OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(text)
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// SelectDevice enumerates controllers and asks for a choice. sel picks
// by index or path.
func (s *Shell) SelectDevice(sel string) (*hid.DeviceInfo, error) {
	infos := Enumerate()
	if len(infos) == 0 {
		return nil, fmt.Errorf("no controller found")
	}
	if sel != "" {
		if n, err := strconv.Atoi(sel); err == nil && n >= 0 && n < len(infos) {
			return &infos[n], nil
		}
		for n := range infos {
			if infos[n].Path == sel {
				return &infos[n], nil
			}
		}
		return nil, fmt.Errorf("controller %q not found", sel)
	}
	if len(infos) == 1 {
		return &infos[0], nil
	}
	if !s.Interactive {
		return nil, fmt.Errorf("more than 1 controllers found in non-interactive mode")
	}
	items := make([]string, len(infos))
	for n, info := range infos {
		items[n] = FormatDevice(info)
	}
	return &infos[s.Shell.MultiChoice(items, "Which one to connect?")], nil
}

// Connect opens a controller.
func (s *Shell) Connect(info hid.DeviceInfo) error {
	conn, err := Open(info)
	if err != nil {
		return err
	}
	s.Disconnect()
	s.Conn = conn
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", info.Path))
	return nil
}

// Disconnect closes the current controller.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Close()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect {
		if info, err := s.SelectDevice(""); err == nil {
			if err = s.Connect(*info); err != nil {
				log.Fatalf("connect %s failed: %v", info.Path, err)
			}
		} else if !s.Interactive {
			log.Fatalln(err)
		}
	}
	defer s.Disconnect()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// ListCmd lists attached controllers.
	ListCmd = ishell.Cmd{
		Name:    "list",
		Aliases: []string{"l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			infos := Enumerate()
			if infos == nil {
				infos = []hid.DeviceInfo{}
			}
			lines := make([]string, len(infos))
			for n, info := range infos {
				lines[n] = fmt.Sprintf("%d: %s", n, FormatDevice(info))
			}
			if len(lines) == 0 {
				lines = append(lines, "No controllers found")
			}
			Print(c, infos, strings.Join(lines, "\n"))
		},
	}

	// ConnectCmd connects a controller.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[INDEX|PATH]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var sel string
			if len(c.Args) > 0 {
				sel = c.Args[0]
			}
			info, err := s.SelectDevice(sel)
			if err != nil {
				c.Err(err)
				return
			}
			if err := s.Connect(*info); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects the current controller.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New().WithAutoConnect(true).Run(flag.Args()...)
}
