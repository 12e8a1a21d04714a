package event

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	testCases := []struct {
		name   string
		event  Event
		expect Report
	}{
		{"input", Event{Type: Input, Target: 0x0102, Value: 484}, Report{0, 1, 2, 0x01, 0xe4, 0, 0, 0}},
		{"negative", Event{Type: Input, Target: 7, Value: -1, Group: 2, Seq: 9}, Report{0, 0, 7, 0xff, 0xff, 2, 9, 0}},
		{"memwrite", Event{Type: MemWrite, Target: 1, Value: 0x1234, Seq: 0x3a}, Report{2, 0, 1, 0x12, 0x34, 0, 0x3a, 0}},
		{"reboot", Event{Type: Reboot}, Report{3, 0, 0, 0, 0, 0, 0, 0}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, tc.event.Encode())
			ev, err := Decode(tc.expect)
			require.NoError(t, err)
			require.Equal(t, tc.event, *ev)
		})
	}
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := Decode(Report{4})
	require.True(t, errors.Is(err, ErrUnknownType))
	_, err = Decode(Report{0x39})
	require.True(t, errors.Is(err, ErrUnknownType))
}

func TestQueue(t *testing.T) {
	t.Run("fifo", func(t *testing.T) {
		q := NewQueue(0)
		require.Equal(t, DefaultQueueSize, q.Cap())
		for _, v := range []int16{1, 2, 3} {
			require.NoError(t, q.Push(NewInput(0, v).Encode()))
		}
		for _, v := range []int16{1, 2, 3} {
			r, ok := q.Pop()
			require.True(t, ok)
			require.Equal(t, NewInput(0, v).Encode(), r)
		}
		_, ok := q.Pop()
		require.False(t, ok)
		q.Discard()
		require.Equal(t, 0, q.Len())
	})

	t.Run("evicts oldest", func(t *testing.T) {
		q := NewQueue(3)
		for v := int16(0); v < 3; v++ {
			require.NoError(t, q.Push(NewInput(0, v).Encode()))
		}
		require.Equal(t, ErrOverflow, q.Push(NewInput(0, 3).Encode()))
		require.Equal(t, ErrOverflow, q.Push(NewInput(0, 4).Encode()))
		require.Equal(t, 3, q.Len())
		require.Equal(t, uint64(2), q.Evicted())
		for _, v := range []int16{2, 3, 4} {
			r, ok := q.Pop()
			require.True(t, ok)
			require.Equal(t, NewInput(0, v).Encode(), r)
		}
	})
}
