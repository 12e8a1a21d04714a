package link

// SyncState is the state of the link.
type SyncState int

// Flags of SyncState.
const (
	SyncStateSyncing   SyncState = 0
	SyncStateReady     SyncState = 0x01
	SyncStateReceiving SyncState = 0x02
)

// Ready tells if packets can be exchanged.
func (s SyncState) Ready() bool {
	return s&SyncStateReady != 0
}

// Receiving tells if a sync or a packet is partially received.
func (s SyncState) Receiving() bool {
	return s&SyncStateReceiving != 0
}

func (s SyncState) String() string {
	switch {
	case s.Ready():
		return "ready"
	case s.Receiving():
		return "syncing"
	default:
		return "unsynced"
	}
}

// TimerAction tells what to do with the sync timer.
type TimerAction int

// Timer actions.
const (
	TimerKeep TimerAction = iota
	TimerRestart
	TimerStop
)

// Result is the outcome of feeding the parser.
type Result struct {
	// Sync is the sync byte to send back, if not 0.
	Sync   byte
	State  SyncState
	Packet *Packet
}

// Timer decides what to do with the sync timer.
func (r Result) Timer() TimerAction {
	if r.State.Receiving() || r.Sync == syncREQ {
		return TimerRestart
	}
	if r.State.Ready() {
		return TimerStop
	}
	return TimerKeep
}

const (
	syncREQ byte = 0xff
	syncACK byte = 0xfe
)

type phase int

const (
	phaseUnsynced phase = iota
	phaseReqSeq
	phaseAckSeq
	phaseIdle
	phaseIdleAckSeq
	phaseCode
	phaseLen
	phaseData
)

// Parser decodes the inbound byte stream.
type Parser struct {
	peer   Seq
	phase  phase
	packet *Packet
	filled int
}

// State returns the current sync state.
func (p *Parser) State() SyncState {
	switch {
	case p.phase == phaseUnsynced:
		return SyncStateSyncing
	case p.phase == phaseIdle:
		return SyncStateReady
	case p.phase > phaseIdle:
		return SyncStateReady | SyncStateReceiving
	default:
		return SyncStateSyncing | SyncStateReceiving
	}
}

// Reset drops everything and requests a sync.
func (p *Parser) Reset() Result {
	p.packet = nil
	return p.result(p.resync())
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) Result {
	return p.result(p.feed(b))
}

// Timeout tells the parser the sync timer fired.
func (p *Parser) Timeout() Result {
	if p.phase == phaseIdle {
		return p.result(0, nil)
	}
	return p.result(p.resync())
}

func (p *Parser) result(sync byte, pkt *Packet) Result {
	return Result{Sync: sync, State: p.State(), Packet: pkt}
}

func (p *Parser) feed(b byte) (byte, *Packet) {
	switch p.phase {
	case phaseUnsynced:
		switch b {
		case syncREQ:
			p.phase = phaseReqSeq
		case syncACK:
			p.phase = phaseAckSeq
		}
	case phaseReqSeq, phaseAckSeq:
		seq := Seq(b)
		if !seq.Valid() {
			return p.resync()
		}
		reply := byte(0)
		if p.phase == phaseReqSeq {
			reply = syncACK
		}
		p.peer, p.phase = seq, phaseIdle
		return reply, nil
	case phaseIdle:
		switch {
		case b == syncREQ:
			p.phase = phaseReqSeq
		case b == syncACK:
			p.phase = phaseIdleAckSeq
		case Seq(b) != p.peer:
			return p.resync()
		default:
			p.packet = &Packet{Seq: p.peer}
			p.peer = p.peer.Next()
			p.phase = phaseCode
		}
	case phaseIdleAckSeq:
		if Seq(b) != p.peer {
			return p.resync()
		}
		p.phase = phaseIdle
	case phaseCode:
		p.packet.Code = b & codeMask
		switch n := (b & lenMask) >> 4; n {
		case 0:
			return p.complete()
		case maxShortLen:
			p.phase = phaseLen
		default:
			p.expect(int(n))
		}
	case phaseLen:
		if b >= 0x80 {
			return p.resync()
		}
		if b == 0 {
			return p.complete()
		}
		p.expect(int(b))
	case phaseData:
		p.packet.Data[p.filled] = b
		p.filled++
		if p.filled >= len(p.packet.Data) {
			return p.complete()
		}
	}
	return 0, nil
}

func (p *Parser) expect(n int) {
	p.packet.Data, p.filled = make([]byte, n), 0
	p.phase = phaseData
}

func (p *Parser) resync() (byte, *Packet) {
	p.phase = phaseUnsynced
	return syncREQ, nil
}

func (p *Parser) complete() (byte, *Packet) {
	pkt := p.packet
	p.packet, p.phase = nil, phaseIdle
	return 0, pkt
}
