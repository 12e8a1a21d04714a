package sim

import (
	"context"
	"math/rand"
	"time"
)

// Motion turns and presses simulated knobs randomly.
type Motion struct {
	Sensors  []*Sensor
	Interval time.Duration
	Rand     *rand.Rand
}

// NewMotion creates a Motion.
func NewMotion(sensors ...*Sensor) *Motion {
	return &Motion{
		Sensors:  sensors,
		Interval: 50 * time.Millisecond,
		Rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Name implements framework.Named.
func (m *Motion) Name() string {
	return "sim-motion"
}

// Run implements framework.Runnable.
func (m *Motion) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Step()
		}
	}
}

// Step moves every knob once.
func (m *Motion) Step() {
	for _, s := range m.Sensors {
		s.Turn(m.Rand.Float64()*20 - 10)
		switch n := m.Rand.Intn(100); {
		case n < 2:
			s.Press(true)
		case n < 10:
			s.Press(false)
		}
	}
}
