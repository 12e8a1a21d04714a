// Package ws fans reports out to websocket clients.
package ws

import (
	"io"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/negicon/pkg/event"
)

// Defaults of Hub.
const (
	DefaultClientBuffer = 64
	DefaultInboundSize  = 16
)

type client struct {
	conn *websocket.Conn
	out  chan event.Report
}

// Hub broadcasts binary reports to all connected clients. Binary
// messages from clients are taken as inbound reports.
type Hub struct {
	ClientBuffer int

	lock    sync.Mutex
	clients map[*client]struct{}
	inbound chan event.Report
}

// NewHub creates a Hub.
func NewHub() *Hub {
	return &Hub{
		ClientBuffer: DefaultClientBuffer,
		clients:      make(map[*client]struct{}),
		inbound:      make(chan event.Report, DefaultInboundSize),
	}
}

// Name implements event.Sink.
func (h *Hub) Name() string {
	return "ws"
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

// Send implements event.Sink. The report is queued to every client,
// or to none if any client is full.
func (h *Hub) Send(r event.Report) error {
	h.lock.Lock()
	defer h.lock.Unlock()
	for c := range h.clients {
		if len(c.out) >= cap(c.out) {
			return event.ErrWouldBlock
		}
	}
	for c := range h.clients {
		c.out <- r
	}
	return nil
}

// Receive implements event.Sink.
func (h *Hub) Receive() (*event.Report, error) {
	select {
	case r := <-h.inbound:
		return &r, nil
	default:
		return nil, nil
	}
}

// Handler serves websocket connections.
func (h *Hub) Handler() websocket.Handler {
	return h.serve
}

func (h *Hub) serve(conn *websocket.Conn) {
	conn.PayloadType = websocket.BinaryFrame
	c := &client{conn: conn, out: make(chan event.Report, h.ClientBuffer)}
	h.lock.Lock()
	h.clients[c] = struct{}{}
	h.lock.Unlock()
	glog.Infof("ws %s connected", conn.Request().RemoteAddr)

	done := make(chan struct{})
	go h.write(c, done)
	for {
		var msg []byte
		if err := websocket.Message.Receive(conn, &msg); err != nil {
			if err != io.EOF {
				glog.Warningf("ws %s: %v", conn.Request().RemoteAddr, err)
			}
			break
		}
		if len(msg) != event.ReportSize {
			glog.Warningf("ws %s: bad report size %d", conn.Request().RemoteAddr, len(msg))
			continue
		}
		var r event.Report
		copy(r[:], msg)
		select {
		case h.inbound <- r:
		default:
			glog.Warningf("ws: inbound full, drop %v", r)
		}
	}

	h.lock.Lock()
	delete(h.clients, c)
	h.lock.Unlock()
	close(done)
	conn.Close()
	glog.Infof("ws %s disconnected", conn.Request().RemoteAddr)
}

func (h *Hub) write(c *client, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case r := <-c.out:
			if err := websocket.Message.Send(c.conn, r[:]); err != nil {
				glog.Warningf("ws send: %v", err)
				c.conn.Close()
				return
			}
		}
	}
}
