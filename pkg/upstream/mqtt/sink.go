package mqtt

import (
	"sync"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/negicon/pkg/event"
	"github.com/robotalks/negicon/pkg/port"
)

// Topic suffixes under <prefix><id>/.
const (
	TopicEvent     = "event"
	TopicTelemetry = "telemetry"
	TopicMeta      = "meta"
	TopicCommand   = "cmd"
)

// DefaultInboundSize is the number of commands buffered.
const DefaultInboundSize = 16

// Sink publishes reports and takes commands over MQTT.
type Sink struct {
	Client  *Client
	ID      string
	Version string
	Now     func() time.Time

	connected atomic.Bool
	inbound   chan event.Report
	sub       *Subscription

	lock   sync.Mutex
	status []port.Status
}

// NewSink creates a Sink on the client and subscribes to commands.
// It must be created before connecting.
func NewSink(c *Client, id string) *Sink {
	s := &Sink{
		Client:  c,
		ID:      id,
		Now:     time.Now,
		inbound: make(chan event.Report, DefaultInboundSize),
	}
	onConnect, onDisconnect := c.OnConnect, c.OnDisconnect
	c.OnConnect = func(c *Client) {
		s.connected.Store(true)
		s.publishMeta()
		if onConnect != nil {
			onConnect(c)
		}
	}
	c.OnDisconnect = func(c *Client) {
		s.connected.Store(false)
		if onDisconnect != nil {
			onDisconnect(c)
		}
	}
	s.sub = c.Sub(s.Topic(TopicCommand), s.handleCommand)
	return s
}

// Topic returns the topic of the controller with suffix.
func (s *Sink) Topic(suffix string) string {
	return s.ID + "/" + suffix
}

// Name implements event.Sink.
func (s *Sink) Name() string {
	return "mqtt"
}

// Connected tells if the broker is connected.
func (s *Sink) Connected() bool {
	return s.connected.Load()
}

// Send implements event.Sink.
func (s *Sink) Send(r event.Report) error {
	if !s.Connected() {
		return event.ErrOffline
	}
	s.publish(s.Topic(TopicEvent), r[:], false)
	ev, err := event.Decode(r)
	if err != nil {
		return err
	}
	payload, err := proto.Marshal(NewEventMsg(ev, s.Now().UnixNano()))
	if err != nil {
		return err
	}
	s.publish(s.Topic(TopicTelemetry), payload, false)
	return nil
}

// Receive implements event.Sink.
func (s *Sink) Receive() (*event.Report, error) {
	select {
	case r := <-s.inbound:
		return &r, nil
	default:
		return nil, nil
	}
}

// ReportStatus implements port.StatusReporter.
func (s *Sink) ReportStatus(status []port.Status) error {
	s.lock.Lock()
	s.status = append(s.status[:0], status...)
	s.lock.Unlock()
	if !s.Connected() {
		return nil
	}
	return s.publishMeta()
}

// Close unsubscribes commands.
func (s *Sink) Close() error {
	return s.sub.Close()
}

func (s *Sink) publishMeta() error {
	s.lock.Lock()
	msg := NewMetaMsg(s.ID, s.Version, s.status)
	s.lock.Unlock()
	payload, err := proto.Marshal(msg)
	if err != nil {
		return err
	}
	s.publish(s.Topic(TopicMeta), payload, true)
	return nil
}

func (s *Sink) publish(topic string, payload []byte, retain bool) {
	var qos byte
	if retain {
		qos = 1
	}
	token := s.Client.PubWith(topic, payload, qos, retain)
	go func(token paho.Token) {
		if token.Wait() && token.Error() != nil {
			glog.Warningf("mqtt publish %s: %v", topic, token.Error())
		}
	}(token)
}

func (s *Sink) handleCommand(topic string, payload []byte) {
	if len(payload) != event.ReportSize {
		glog.Warningf("mqtt %s: bad command size %d", topic, len(payload))
		return
	}
	var r event.Report
	copy(r[:], payload)
	select {
	case s.inbound <- r:
	default:
		glog.Warningf("mqtt %s: inbound full, drop %v", topic, r)
	}
}
