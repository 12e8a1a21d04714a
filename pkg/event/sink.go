package event

import "errors"

var (
	// ErrWouldBlock indicates a sink can't take or give a report now.
	ErrWouldBlock = errors.New("would block")
	// ErrOffline indicates a sink has no peer to deliver to.
	ErrOffline = errors.New("sink offline")
)

// Sink is an upstream endpoint exchanging reports with the host.
type Sink interface {
	// Name identifies the sink in logs and metrics.
	Name() string
	// Send delivers one report. ErrWouldBlock asks for a retry later,
	// ErrOffline skips the report for this sink.
	Send(Report) error
	// Receive returns one inbound report, or nil if none is available.
	Receive() (*Report, error)
}

// ChanSink adapts a pair of channels to a Sink.
// It is the hand-over point of sinks running their I/O in background.
type ChanSink struct {
	SinkName string
	Out      chan<- Report
	In       <-chan Report
}

// Name implements Sink.
func (s *ChanSink) Name() string {
	return s.SinkName
}

// Send implements Sink.
func (s *ChanSink) Send(r Report) error {
	if s.Out == nil {
		return nil
	}
	select {
	case s.Out <- r:
		return nil
	default:
		return ErrWouldBlock
	}
}

// Receive implements Sink.
func (s *ChanSink) Receive() (*Report, error) {
	select {
	case r, ok := <-s.In:
		if !ok {
			return nil, nil
		}
		return &r, nil
	default:
		return nil, nil
	}
}
