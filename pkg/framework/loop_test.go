package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type orderAdder struct {
	order *[]string
}

func (a orderAdder) AddToLoop(l *Loop) {
	record := func(name string) Controller {
		return ControlFunc(func(cc ControlContext) error {
			*a.order = append(*a.order, name)
			return nil
		})
	}
	l.AddController(PrLvPostProc, record("dispatch"))
	l.AddController(PrLvSense, record("poll"))
	l.AddController(PrLvControl, record("route"))
	l.AddController(PrLvSense, record("poll2"))
}

func TestLoopStepOrder(t *testing.T) {
	var order []string
	l := NewLoop().Add(orderAdder{order: &order})
	l.Step(context.Background())
	require.Equal(t, []string{"poll", "poll2", "route", "dispatch"}, order)
	require.Equal(t, uint64(1), l.Ticks())
}

func TestLoopContinuesOnError(t *testing.T) {
	var ticks []uint64
	l := NewLoop()
	l.AddController(PrLvSense, ControlFunc(func(cc ControlContext) error {
		return errors.New("failed")
	}))
	l.AddController(PrLvIdle, ControlFunc(func(cc ControlContext) error {
		ticks = append(ticks, cc.Tick())
		require.Equal(t, PrLvIdle, cc.PriorityLevel())
		return nil
	}))
	l.Step(context.Background())
	l.Step(context.Background())
	require.Equal(t, []uint64{1, 2}, ticks)
}

func TestLoopRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	l := NewLoop()
	l.Interval = time.Millisecond
	l.AddRunnable(RunFunc(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))
	l.AddController(PrLvNormal, ControlFunc(func(cc ControlContext) error {
		if cc.Tick() >= 3 {
			cancel()
		}
		return nil
	}))
	require.Equal(t, context.Canceled, l.Run(ctx))
	<-started
	require.True(t, l.Ticks() >= 3)
}

func TestRunnerWait(t *testing.T) {
	failure := errors.New("failed")
	r := NewRunner()
	r.Go(
		NamedRun("ok", RunFunc(func(context.Context) error { return nil })),
		RunFunc(func(context.Context) error { return failure }),
		RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
	)
	r.Cancel()
	err := r.Wait()
	require.True(t, errors.Is(err, failure))
}
