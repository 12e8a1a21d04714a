package hidg

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/robotalks/negicon/pkg/event"
)

func TestSinkOverFIFO(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hidg0")
	require.NoError(t, unix.Mkfifo(path, 0600))
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()
	require.Equal(t, "hid", s.Name())

	r, err := s.Receive()
	require.NoError(t, err)
	require.Nil(t, r)

	out := event.NewInput(1, -1).Encode()
	require.NoError(t, s.Send(out))
	r, err = s.Receive()
	require.NoError(t, err)
	require.Equal(t, out, *r)
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "none"))
	require.ErrorIs(t, err, unix.ENOENT)
}

func TestMapError(t *testing.T) {
	require.ErrorIs(t, mapError(unix.EAGAIN), event.ErrWouldBlock)
	require.ErrorIs(t, mapError(unix.EINTR), event.ErrWouldBlock)
	require.ErrorIs(t, mapError(unix.ESHUTDOWN), event.ErrOffline)
	other := errors.New("other")
	require.Equal(t, other, mapError(other))
}

func TestReportDescriptor(t *testing.T) {
	require.Equal(t, byte(0x06), ReportDescriptor[0])
	require.Equal(t, byte(0xc0), ReportDescriptor[len(ReportDescriptor)-1])
}
