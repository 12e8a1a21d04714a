package bus

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
)

type testLine struct {
	levels []gpio.Level
	err    error
}

func (l *testLine) Out(level gpio.Level) error {
	l.levels = append(l.levels, level)
	if level == gpio.Low {
		return l.err
	}
	return nil
}

type testConn struct {
	sent  [][]byte
	reply Frame
	err   error
}

func (c *testConn) Tx(w, r []byte) error {
	c.sent = append(c.sent, append([]byte(nil), w...))
	if c.err != nil {
		return c.err
	}
	copy(r, c.reply[:])
	return nil
}

func stamped(f Frame) Frame {
	f.Stamp()
	return f
}

func requireChecksum(t *testing.T, f Frame, name string) {
	f.Stamp()
	require.NoErrorf(t, f.Verify(), "%s", name)
	for bit := 0; bit < 7*8; bit++ {
		flipped := f
		flipped[bit/8] ^= 1 << uint(bit%8)
		require.Equalf(t, ErrCRCMismatch, flipped.Verify(), "%s bit %d", name, bit)
	}
	flipped := f
	flipped[7] ^= 0x01
	require.Equalf(t, ErrCRCMismatch, flipped.Verify(), "%s crc bit", name)
}

func TestChecksum(t *testing.T) {
	testCases := []Frame{
		{},
		{0x00, 0x00, 0xff, 0xff, 0x00, 0x00, 0x13},
		{0x39, 0x39, 0x39, 0x39, 0x39, 0x39, 0xd0},
		{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07},
	}
	for n, f := range testCases {
		requireChecksum(t, f, fmt.Sprintf("frame[%d]", n))
	}

	rnd := rand.New(rand.NewSource(90363))
	for n := 0; n < 4096; n++ {
		var f Frame
		rnd.Read(f[:7])
		requireChecksum(t, f, fmt.Sprintf("random % x", f[:7]))
	}
}

func TestMakeFrame(t *testing.T) {
	f := MakeFrame([6]byte{1, 2, 3, 4, 5, 6}, 3, 0x10)
	require.Equal(t, byte(0xd0), f[6])
	require.Equal(t, byte(3), f.Marker())
	require.Equal(t, byte(0x10), f.Opcode())
	f.PutUint16(2, 0x1234)
	require.Equal(t, byte(0x34), f[2])
	require.Equal(t, byte(0x12), f[3])
	require.Equal(t, uint16(0x1234), f.Uint16(2))
}

func TestExchange(t *testing.T) {
	reply := stamped(Frame{1, 2, 3, 4, 5, 6, 0xd1})

	t.Run("ok", func(t *testing.T) {
		conn, line := &testConn{reply: reply}, &testLine{}
		in, err := NewTransport(conn).Exchange(line, Frame{0, 0, 0x39, 0x39, 0, 0, 0xd0})
		require.NoError(t, err)
		require.Equal(t, reply, in)
		require.Equal(t, []gpio.Level{gpio.Low, gpio.High}, line.levels)
		require.Len(t, conn.sent, 1)
		sent := Frame{}
		copy(sent[:], conn.sent[0])
		require.NoError(t, sent.Verify())
	})

	t.Run("crc mismatch", func(t *testing.T) {
		bad := reply
		bad[0] ^= 0x80
		conn, line := &testConn{reply: bad}, &testLine{}
		_, err := NewTransport(conn).Exchange(line, Frame{})
		require.Equal(t, ErrCRCMismatch, err)
		require.Equal(t, []gpio.Level{gpio.Low, gpio.High}, line.levels)
	})

	t.Run("link failure", func(t *testing.T) {
		txErr := errors.New("tx failed")
		conn, line := &testConn{err: txErr}, &testLine{}
		_, err := NewTransport(conn).Exchange(line, Frame{})
		var linkErr *LinkError
		require.True(t, errors.As(err, &linkErr))
		require.True(t, errors.Is(err, txErr))
		require.Equal(t, []gpio.Level{gpio.Low, gpio.High}, line.levels)
	})

	t.Run("select failure", func(t *testing.T) {
		conn, line := &testConn{reply: reply}, &testLine{err: errors.New("gpio")}
		_, err := NewTransport(conn).Exchange(line, Frame{})
		var linkErr *LinkError
		require.True(t, errors.As(err, &linkErr))
		require.Equal(t, "select", linkErr.Op)
		require.Empty(t, conn.sent)
		require.Equal(t, gpio.High, line.levels[len(line.levels)-1])
	})

	t.Run("endpoint", func(t *testing.T) {
		conn, line := &testConn{reply: reply}, &testLine{}
		ep := NewTransport(conn).NewEndpoint(line)
		in, err := ep.Exchange(Frame{})
		require.NoError(t, err)
		require.Equal(t, reply, in)
	})
}
