package sensor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/negicon/pkg/bus"
	"github.com/robotalks/negicon/pkg/event"
	"github.com/robotalks/negicon/pkg/mlx"
)

type scriptedExchanger struct {
	sent    []bus.Frame
	replies []bus.Frame
	err     error
}

func (s *scriptedExchanger) Exchange(out bus.Frame) (bus.Frame, error) {
	s.sent = append(s.sent, out)
	if s.err != nil {
		return bus.Frame{}, s.err
	}
	if len(s.replies) == 0 {
		return irregular(mlx.OpNothingToTransmit), nil
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r, nil
}

func (s *scriptedExchanger) reply(frames ...bus.Frame) *scriptedExchanger {
	s.replies = append(s.replies, frames...)
	return s
}

func irregular(op mlx.Opcode, payload ...byte) bus.Frame {
	var p [6]byte
	copy(p[:], payload)
	return bus.MakeFrame(p, byte(mlx.MarkerIrregular), byte(op))
}

func memAnswer(value uint16) bus.Frame {
	f := irregular(mlx.OpMemoryReadAnswer)
	f.PutUint16(0, value)
	f.PutUint16(2, value)
	return f
}

func angle(data uint16, vg byte) bus.Frame {
	return bus.MakeFrame([6]byte{byte(data), byte(data>>8) & 0x3f, 0, 0, vg, 0}, byte(mlx.MarkerAlpha), 0)
}

func newTestDriver(ex bus.Exchanger, opts Options) *Driver {
	conn := &mlx.Conn{Exchanger: ex, Sleeper: mlx.SleepFunc(func(time.Duration) {})}
	return New(conn, opts)
}

// readyDriver returns a bootstrapped driver with movement unlocked.
func readyDriver(ex *scriptedExchanger, opts Options, id, min, max uint16) *Driver {
	d := newTestDriver(ex, opts)
	d.id.Resolve(id)
	d.min.Resolve(min)
	d.max.Resolve(max)
	d.countdown = 0
	return d
}

func TestBootstrapOrder(t *testing.T) {
	ex := (&scriptedExchanger{}).reply(
		irregular(mlx.OpNothingToTransmit), memAnswer(7),
		memAnswer(7), memAnswer(100),
		memAnswer(100), memAnswer(9000),
	)
	d := newTestDriver(ex, DefaultOptions)

	expect := []struct {
		id, min, max ParamState
	}{
		{ParamRequested, ParamUninitialized, ParamUninitialized},
		{ParamInitialized, ParamUninitialized, ParamUninitialized},
		{ParamInitialized, ParamRequested, ParamUninitialized},
		{ParamInitialized, ParamInitialized, ParamUninitialized},
		{ParamInitialized, ParamInitialized, ParamRequested},
		{ParamInitialized, ParamInitialized, ParamInitialized},
	}
	for n, e := range expect {
		ev, err := d.Poll()
		require.NoErrorf(t, err, "poll[%d]", n)
		require.Nilf(t, ev, "poll[%d]", n)
		require.Equalf(t, e.id, d.id.State, "poll[%d] id", n)
		require.Equalf(t, e.min, d.min.State, "poll[%d] min", n)
		require.Equalf(t, e.max, d.max.State, "poll[%d] max", n)
	}
	require.True(t, d.Ready())
	require.Equal(t, uint16(7), d.ID())
	require.Equal(t, uint16(100), d.min.Get())
	require.Equal(t, uint16(9000), d.max.Get())
	require.Equal(t, []bus.Frame{
		mlx.MemoryRead(mlx.AddrID, mlx.AddrID),
		mlx.MemoryRead(mlx.AddrID, mlx.AddrID),
		mlx.MemoryRead(mlx.AddrMin, mlx.AddrMin),
		mlx.MemoryRead(mlx.AddrMin, mlx.AddrMin),
		mlx.MemoryRead(mlx.AddrMax, mlx.AddrMax),
		mlx.MemoryRead(mlx.AddrMax, mlx.AddrMax),
	}, ex.sent)
}

func TestBootstrapFailures(t *testing.T) {
	t.Run("unexpected reply", func(t *testing.T) {
		ex := (&scriptedExchanger{}).reply(irregular(mlx.OpNothingToTransmit), irregular(mlx.OpNothingToTransmit))
		d := newTestDriver(ex, DefaultOptions)
		_, err := d.Poll()
		require.NoError(t, err)
		_, err = d.Poll()
		require.True(t, errors.Is(err, mlx.ErrUnexpectedReply))
	})

	t.Run("transport", func(t *testing.T) {
		ex := &scriptedExchanger{err: bus.ErrCRCMismatch}
		_, err := newTestDriver(ex, DefaultOptions).Poll()
		require.Equal(t, bus.ErrCRCMismatch, err)
	})
}

func TestSettleAfterBootstrap(t *testing.T) {
	ex := &scriptedExchanger{}
	d := readyDriver(ex, DefaultOptions, 1, 0, 0)
	d.countdown = DefaultOptions.SettleTicks
	for n := 0; n < int(DefaultOptions.SettleTicks); n++ {
		ex.reply(angle(uint16(n*200)%AngleRange, 100))
		ev, err := d.Poll()
		require.NoError(t, err)
		require.Nilf(t, ev, "poll[%d]", n)
	}
	require.Equal(t, int16(0), d.countdown)
	ex.reply(angle(d.last+1000, 100))
	ev, err := d.Poll()
	require.NoError(t, err)
	require.Equal(t, event.NewInput(1, 1000), ev)
}

func TestRelativeWrap(t *testing.T) {
	require.Equal(t, int16(484), Relative(16000, 100))
	require.Equal(t, int16(-484), Relative(100, 16000))
	require.Equal(t, int16(100), Relative(1000, 1100))
	require.Equal(t, int16(8192), Relative(0, 8192))
	require.Equal(t, int16(-8191), Relative(0, 8193))

	ex := (&scriptedExchanger{}).reply(angle(100, 100))
	d := readyDriver(ex, DefaultOptions, 3, 0, 0)
	d.last = 16000
	ev, err := d.Poll()
	require.NoError(t, err)
	require.Equal(t, event.NewInput(3, 484), ev)
	require.Equal(t, uint16(100), d.last)
}

func TestAbsolute(t *testing.T) {
	for _, tc := range []struct {
		input, expect int
	}{
		{0, 0},
		{16383, 16383},
		{8192, 8192},
		{4096, 4096},
	} {
		out, err := Absolute(uint16(tc.input), 0, 16383)
		require.NoError(t, err)
		require.Equalf(t, int16(tc.expect), out, "input %d", tc.input)
	}
	out, err := Absolute(150, 100, 200)
	require.NoError(t, err)
	require.Equal(t, int16(8191), out)
	out, err = Absolute(16383, 0, 100)
	require.NoError(t, err)
	require.Equal(t, int16(AngleFull), out)
	out, err = Absolute(50, 100, 200)
	require.NoError(t, err)
	require.Equal(t, int16(0), out)

	for _, r := range [][2]uint16{{100, 100}, {200, 100}} {
		_, err = Absolute(150, r[0], r[1])
		require.True(t, errors.Is(err, ErrInvalidRange))
	}

	opts := DefaultOptions
	opts.Mode = ModeAbsolute
	ex := (&scriptedExchanger{}).reply(angle(200, 100), angle(1000, 100))
	d := readyDriver(ex, opts, 3, 100, 300)
	ev, err := d.Poll()
	require.NoError(t, err)
	require.Equal(t, event.NewInput(3, 8191), ev)
	d.max.Resolve(100)
	_, err = d.Poll()
	require.True(t, errors.Is(err, ErrInvalidRange))
}

func TestDeadzone(t *testing.T) {
	require.False(t, Moved(1000, 1064, 64))
	require.True(t, Moved(1000, 1065, 64))
	require.True(t, Moved(1000, 935, 64))

	ex := (&scriptedExchanger{}).reply(angle(1050, 100), angle(1100, 100))
	d := readyDriver(ex, DefaultOptions, 5, 0, 0)
	d.last = 1000
	ev, err := d.Poll()
	require.NoError(t, err)
	require.Nil(t, ev)
	require.Equal(t, uint16(1000), d.last)
	ev, err = d.Poll()
	require.NoError(t, err)
	require.Equal(t, event.NewInput(5, 100), ev)
}

func TestButtonDebounce(t *testing.T) {
	ex := (&scriptedExchanger{}).reply(
		angle(1000, 40),
		angle(1000, 30),
		angle(5000, 30),
		angle(1000, 40),
		angle(5000, 40),
	)
	d := readyDriver(ex, DefaultOptions, 10, 0, 0)
	d.last = 1000

	var events []*event.Event
	var countdowns []int16
	for n := 0; n < 5; n++ {
		ev, err := d.Poll()
		require.NoErrorf(t, err, "poll[%d]", n)
		if ev != nil {
			events = append(events, ev)
		}
		countdowns = append(countdowns, d.countdown)
	}
	require.Equal(t, []*event.Event{event.NewInput(11, 1), event.NewInput(11, -1)}, events)
	require.Equal(t, []int16{0, latched, latched, 100, 99}, countdowns)
	require.Equal(t, uint16(5000), d.last)
}

func TestNonAngleReply(t *testing.T) {
	ex := (&scriptedExchanger{}).reply(irregular(mlx.OpReadyMessage, 1, 2))
	d := readyDriver(ex, DefaultOptions, 1, 0, 0)
	ev, err := d.Poll()
	require.NoError(t, err)
	require.Nil(t, ev)
	require.Equal(t, []bus.Frame{mlx.Get1(false, mlx.DefaultTimeout)}, ex.sent)
}

func TestDeviceErrorOnAngle(t *testing.T) {
	ex := (&scriptedExchanger{}).reply(irregular(mlx.OpErrorFrame, 3))
	d := readyDriver(ex, DefaultOptions, 1, 0, 0)
	_, err := d.Poll()
	var devErr *mlx.DeviceError
	require.True(t, errors.As(err, &devErr))
}

func writeReplies(status mlx.WriteStatusCode) []bus.Frame {
	ch := irregular(mlx.OpEEWriteChallenge)
	ch.PutUint16(2, 0x4242)
	echo := irregular(mlx.OpNopAnswer)
	echo.PutUint16(2, mlx.PingChallenge)
	echo.PutUint16(4, ^mlx.PingChallenge)
	return []bus.Frame{
		irregular(mlx.OpNothingToTransmit),
		echo,
		ch,
		irregular(mlx.OpEEReadAnswer),
		irregular(mlx.OpEEWriteStatus, byte(status)),
	}
}

func TestWriteMemoryInvalidates(t *testing.T) {
	ex := (&scriptedExchanger{}).reply(writeReplies(mlx.WriteSuccess)...)
	d := readyDriver(ex, DefaultOptions, 1, 0, 0)
	require.NoError(t, d.WriteMemory(0x3a, 500))
	require.True(t, d.id.Ready())
	require.Equal(t, ParamUninitialized, d.min.State)
	require.True(t, d.max.Ready())
	require.False(t, d.Ready())
}

func TestWriteMemoryDuringBootstrap(t *testing.T) {
	for _, status := range []mlx.WriteStatusCode{mlx.WriteSuccess, mlx.WriteKeyInvalid} {
		ex := &scriptedExchanger{}
		d := newTestDriver(ex, DefaultOptions)
		_, err := d.Poll()
		require.NoError(t, err)
		require.Equal(t, ParamRequested, d.id.State)

		ex.reply(writeReplies(status)...)
		err = d.WriteMemory(0x30, 7)
		if status == mlx.WriteSuccess {
			require.NoError(t, err)
		} else {
			require.Error(t, err)
		}
		require.Equalf(t, ParamUninitialized, d.id.State, "status %d", status)

		ex.reply(irregular(mlx.OpEEWriteStatus, byte(status)), memAnswer(9))
		_, err = d.Poll()
		require.NoError(t, err)
		require.Equal(t, ParamRequested, d.id.State)
		_, err = d.Poll()
		require.NoError(t, err)
		require.True(t, d.id.Ready())
		require.Equal(t, uint16(9), d.ID())
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("absolute")
	require.NoError(t, err)
	require.Equal(t, ModeAbsolute, m)
	m, err = ParseMode("")
	require.NoError(t, err)
	require.Equal(t, ModeRelative, m)
	_, err = ParseMode("other")
	require.Error(t, err)
}
