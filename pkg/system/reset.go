// Package system provides system control used by inbound commands.
package system

import (
	"fmt"
	"os"

	"github.com/golang/glog"
	"golang.org/x/sys/unix"
)

// Exec restarts the process in place.
type Exec struct {
	// Before is called before exec to release resources.
	Before func()

	executable func() (string, error)
	execve     func(argv0 string, argv []string, envv []string) error
	exit       func(code int)
}

// Reset implements event.Resetter.
// Once Before has released resources the process never continues:
// if exec fails, it exits.
func (e *Exec) Reset() error {
	executable, execve, exit := os.Executable, unix.Exec, os.Exit
	if e.executable != nil {
		executable = e.executable
	}
	if e.execve != nil {
		execve = e.execve
	}
	if e.exit != nil {
		exit = e.exit
	}

	exe, err := executable()
	if err != nil {
		return err
	}
	if err = unix.Access(exe, unix.X_OK); err != nil {
		return fmt.Errorf("%s: %w", exe, err)
	}
	glog.Warningf("restarting %s", exe)
	glog.Flush()
	if e.Before != nil {
		e.Before()
	}
	err = execve(exe, os.Args, os.Environ())
	glog.Errorf("exec %s: %v", exe, err)
	glog.Flush()
	exit(1)
	return err
}

// ResetFunc is the func form of event.Resetter.
type ResetFunc func() error

// Reset implements event.Resetter.
func (f ResetFunc) Reset() error {
	return f()
}
