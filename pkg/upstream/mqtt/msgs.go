package mqtt

import (
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/negicon/pkg/event"
	"github.com/robotalks/negicon/pkg/port"
)

// EventMsg is the telemetry form of an event.
type EventMsg struct {
	Type      uint32 `protobuf:"varint,1,opt,name=type,proto3" json:"type,omitempty"`
	Target    uint32 `protobuf:"varint,2,opt,name=target,proto3" json:"target,omitempty"`
	Value     int32  `protobuf:"zigzag32,3,opt,name=value,proto3" json:"value,omitempty"`
	Group     uint32 `protobuf:"varint,4,opt,name=group,proto3" json:"group,omitempty"`
	Seq       uint32 `protobuf:"varint,5,opt,name=seq,proto3" json:"seq,omitempty"`
	Timestamp int64  `protobuf:"varint,6,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

// Reset implements proto.Message.
func (m *EventMsg) Reset() { *m = EventMsg{} }

// String implements proto.Message.
func (m *EventMsg) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*EventMsg) ProtoMessage() {}

// NewEventMsg converts an event, timestamped in unix nanoseconds.
func NewEventMsg(ev *event.Event, ts int64) *EventMsg {
	return &EventMsg{
		Type:      uint32(ev.Type),
		Target:    uint32(ev.Target),
		Value:     int32(ev.Value),
		Group:     uint32(ev.Group),
		Seq:       uint32(ev.Seq),
		Timestamp: ts,
	}
}

// Event converts back to an event.
func (m *EventMsg) Event() *event.Event {
	return &event.Event{
		Type:   event.Type(m.Type),
		Target: uint16(m.Target),
		Value:  int16(m.Value),
		Group:  uint8(m.Group),
		Seq:    uint8(m.Seq),
	}
}

// PortMsg is the status of one port.
type PortMsg struct {
	Index  uint32 `protobuf:"varint,1,opt,name=index,proto3" json:"index,omitempty"`
	Name   string `protobuf:"bytes,2,opt,name=name,proto3" json:"name,omitempty"`
	State  string `protobuf:"bytes,3,opt,name=state,proto3" json:"state,omitempty"`
	Device string `protobuf:"bytes,4,opt,name=device,proto3" json:"device,omitempty"`
}

// Reset implements proto.Message.
func (m *PortMsg) Reset() { *m = PortMsg{} }

// String implements proto.Message.
func (m *PortMsg) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*PortMsg) ProtoMessage() {}

// MetaMsg describes the controller, published retained.
type MetaMsg struct {
	Id      string     `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
	Version string     `protobuf:"bytes,2,opt,name=version,proto3" json:"version,omitempty"`
	Ports   []*PortMsg `protobuf:"bytes,3,rep,name=ports,proto3" json:"ports,omitempty"`
}

// Reset implements proto.Message.
func (m *MetaMsg) Reset() { *m = MetaMsg{} }

// String implements proto.Message.
func (m *MetaMsg) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*MetaMsg) ProtoMessage() {}

// NewMetaMsg builds a MetaMsg from port status.
func NewMetaMsg(id, version string, status []port.Status) *MetaMsg {
	m := &MetaMsg{Id: id, Version: version, Ports: make([]*PortMsg, len(status))}
	for n, st := range status {
		m.Ports[n] = &PortMsg{
			Index:  uint32(st.Index),
			Name:   st.Name,
			State:  st.State,
			Device: st.Device,
		}
	}
	return m
}
