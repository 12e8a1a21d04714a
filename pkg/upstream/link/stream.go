package link

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/negicon/pkg/event"
)

// Defaults of Stream.
const (
	DefaultSyncTimeout = 100 * time.Millisecond
	DefaultInboundSize = 16
)

// Stream runs the packet protocol over a byte stream and exposes it
// as an event.Sink.
type Stream struct {
	Port io.ReadWriter
	// SyncTimeout is the time to wait for the peer to complete a sync
	// or a packet.
	SyncTimeout time.Duration
	// ReadTimeout is set when Port.Read returns periodically with
	// nothing read, so the stream can run without a reader goroutine.
	ReadTimeout bool
	// StateChanged is called from Run when the sync state changes.
	StateChanged func(SyncState)

	seq     Seq
	state   SyncState
	lock    sync.Mutex
	inbound chan event.Report
	timer   <-chan time.Time
	parser  Parser
}

// NewStream creates a Stream.
func NewStream(port io.ReadWriter) *Stream {
	return &Stream{
		Port:        port,
		SyncTimeout: DefaultSyncTimeout,
		seq:         NewSeq(),
		inbound:     make(chan event.Report, DefaultInboundSize),
	}
}

// Name implements event.Sink.
func (s *Stream) Name() string {
	return "link"
}

// State returns the current sync state.
func (s *Stream) State() SyncState {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.state
}

// Send implements event.Sink.
func (s *Stream) Send(r event.Report) error {
	return s.SendPacket(ReportPacket(r))
}

// SendPacket sends a packet with the next sequence number.
func (s *Stream) SendPacket(pkt *Packet) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if !s.state.Ready() {
		return event.ErrOffline
	}
	pkt.Seq = s.seq
	if _, err := pkt.WriteTo(s.Port); err != nil {
		return err
	}
	s.seq = s.seq.Next()
	return nil
}

// Receive implements event.Sink.
func (s *Stream) Receive() (*event.Report, error) {
	select {
	case r := <-s.inbound:
		return &r, nil
	default:
		return nil, nil
	}
}

// Run processes inbound bytes until ctx is done or the port fails.
func (s *Stream) Run(ctx context.Context) error {
	if err := s.apply(s.parser.Reset()); err != nil {
		return err
	}
	if s.ReadTimeout {
		return s.poll(ctx)
	}
	byteCh, errCh := make(chan byte), make(chan error, 1)
	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.readLoop(readCtx, byteCh, errCh)
	for {
		var err error
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err = <-errCh:
			return err
		case b := <-byteCh:
			err = s.apply(s.parser.Parse(b))
		case <-s.timer:
			err = s.apply(s.parser.Timeout())
		}
		if err != nil {
			return err
		}
	}
}

func (s *Stream) poll(ctx context.Context) error {
	buf := make([]byte, 1)
	for {
		var err error
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.timer:
			err = s.apply(s.parser.Timeout())
		default:
			var n int
			n, err = s.Port.Read(buf)
			switch {
			case err != nil && os.IsTimeout(err):
				err = s.apply(s.parser.Timeout())
			case err != nil:
			case n == 0:
				err = s.apply(s.parser.Timeout())
			default:
				err = s.apply(s.parser.Parse(buf[0]))
			}
		}
		if err != nil {
			return err
		}
	}
}

func (s *Stream) readLoop(ctx context.Context, byteCh chan<- byte, errCh chan<- error) {
	buf := make([]byte, 1)
	for {
		if _, err := s.Port.Read(buf); err != nil {
			errCh <- err
			return
		}
		select {
		case byteCh <- buf[0]:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Stream) apply(r Result) (err error) {
	s.lock.Lock()
	changed := s.state != r.State
	s.state = r.State
	if r.Sync != 0 {
		_, err = s.Port.Write([]byte{r.Sync, byte(s.seq)})
	}
	s.lock.Unlock()
	if err != nil {
		return err
	}

	if s.ReadTimeout {
		if r.Sync == syncREQ {
			s.timer = time.After(s.SyncTimeout)
		} else {
			s.timer = nil
		}
	} else {
		switch r.Timer() {
		case TimerRestart:
			s.timer = time.After(s.SyncTimeout)
		case TimerStop:
			s.timer = nil
		}
	}

	if changed {
		glog.V(1).Infof("link %s", r.State)
		if fn := s.StateChanged; fn != nil {
			fn(r.State)
		}
	}
	if r.Packet != nil {
		s.accept(r.Packet)
	}
	return nil
}

func (s *Stream) accept(pkt *Packet) {
	if pkt.Code != CodeCommand {
		glog.V(1).Infof("link: ignore packet %02x", pkt.Code)
		return
	}
	rep, err := pkt.Report()
	if err != nil {
		glog.Warningf("link: %v", err)
		return
	}
	select {
	case s.inbound <- *rep:
	default:
		glog.Warningf("link: inbound full, drop %v", rep)
	}
}
