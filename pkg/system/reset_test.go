package system

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestResetFunc(t *testing.T) {
	failure := errors.New("failure")
	calls := 0
	r := ResetFunc(func() error {
		calls++
		return failure
	})
	require.ErrorIs(t, r.Reset(), failure)
	require.Equal(t, 1, calls)
}

func TestExecFailureExits(t *testing.T) {
	failure := errors.New("exec failed")
	var released bool
	code := -1
	e := &Exec{
		Before:     func() { released = true },
		executable: os.Executable,
		execve:     func(string, []string, []string) error { return failure },
		exit:       func(c int) { code = c },
	}
	require.ErrorIs(t, e.Reset(), failure)
	require.True(t, released)
	require.Equal(t, 1, code)
}

func TestExecNotExecutable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing")
	var released, exited bool
	e := &Exec{
		Before:     func() { released = true },
		executable: func() (string, error) { return path, nil },
		execve:     func(string, []string, []string) error { return nil },
		exit:       func(int) { exited = true },
	}
	require.ErrorIs(t, e.Reset(), unix.ENOENT)
	require.False(t, released)
	require.False(t, exited)
}
