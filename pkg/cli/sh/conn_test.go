package sh

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/negicon/pkg/event"
)

type fakeDevice struct {
	*io.PipeReader
	written bytes.Buffer
}

func (d *fakeDevice) Write(p []byte) (int, error) {
	return d.written.Write(p)
}

func TestConn(t *testing.T) {
	r, w := io.Pipe()
	dev := &fakeDevice{PipeReader: r}
	conn := NewConn("test", dev)

	ev := &event.Event{Type: event.Reboot}
	require.NoError(t, conn.Send(ev))
	rep := ev.Encode()
	require.Equal(t, append([]byte{0}, rep[:]...), dev.written.Bytes())

	_, err := conn.Next(10 * time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)

	in := event.NewInput(3, 9).Encode()
	go w.Write(in[:])
	got, err := conn.Next(time.Second)
	require.NoError(t, err)
	require.Equal(t, event.NewInput(3, 9), got)

	w.CloseWithError(io.ErrUnexpectedEOF)
	_, err = conn.Next(time.Second)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.NoError(t, conn.Close())
}
