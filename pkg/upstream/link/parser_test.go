package link

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type parseStep struct {
	in     []byte
	expect Result
	final  Result
}

type parseSteps struct {
	steps []parseStep
}

func steps() *parseSteps {
	return &parseSteps{}
}

func (b *parseSteps) on(state SyncState, in ...byte) *parseSteps {
	s := parseStep{in: in, expect: Result{State: state}}
	s.final = s.expect
	b.steps = append(b.steps, s)
	return b
}

func (b *parseSteps) onSyncing(in ...byte) *parseSteps {
	return b.on(SyncStateSyncing|SyncStateReceiving, in...)
}

func (b *parseSteps) onReceiving(in ...byte) *parseSteps {
	return b.on(SyncStateReady|SyncStateReceiving, in...)
}

func (b *parseSteps) timeout() *parseSteps {
	b.steps = append(b.steps, parseStep{})
	return b
}

func (b *parseSteps) final(r Result) *parseSteps {
	b.steps[len(b.steps)-1].final = r
	return b
}

func (b *parseSteps) synced() *parseSteps {
	return b.final(Result{State: SyncStateReady})
}

func (b *parseSteps) packet(seq Seq, code byte, data ...byte) *parseSteps {
	return b.final(Result{State: SyncStateReady, Packet: &Packet{Seq: seq, Code: code, Data: data}})
}

func (b *parseSteps) resync() *parseSteps {
	return b.final(Result{Sync: syncREQ, State: SyncStateSyncing})
}

func (b *parseSteps) syncedWithAck() *parseSteps {
	return b.final(Result{Sync: syncACK, State: SyncStateReady})
}

func TestParser(t *testing.T) {
	testCases := []struct {
		name  string
		steps *parseSteps
	}{
		{
			name: "sync and receive",
			steps: steps().
				onSyncing(syncACK, 1).synced().
				onReceiving(1, 0x02).packet(1, 2).
				onReceiving(2, 0x72, 0).packet(2, 2).
				onReceiving(3, 0x92, 0x03).packet(3, 0x82, 3).
				onReceiving(4, 0x72, 0x08, 1, 2, 3, 4, 5, 6, 7, 8).packet(4, CodeCommand, 1, 2, 3, 4, 5, 6, 7, 8),
		},
		{
			name: "sync timeout",
			steps: steps().
				timeout().resync().
				onSyncing(syncACK).
				timeout().resync(),
		},
		{
			name: "sync skips invalid bytes",
			steps: steps().
				on(SyncStateSyncing, 1, 2, 3, 4, 0x80, 0x81, 0xf0, 0xf1).
				onSyncing(syncACK, 1).synced(),
		},
		{
			name: "req in sync",
			steps: steps().
				onSyncing(syncREQ, 1).syncedWithAck(),
		},
		{
			name: "req in sync with invalid seq",
			steps: steps().
				onSyncing(syncREQ, syncREQ).resync().
				onSyncing(syncACK, 1).synced(),
		},
		{
			name: "req after sync",
			steps: steps().
				onSyncing(syncACK, 1).synced().
				onSyncing(syncREQ, 1).syncedWithAck().
				onReceiving(1, 0x02).packet(1, 2),
		},
		{
			name: "req after sync with invalid seq",
			steps: steps().
				onSyncing(syncACK, 1).synced().
				onSyncing(syncREQ, syncACK).resync().
				onSyncing(syncACK, 1).synced(),
		},
		{
			name: "ack after sync",
			steps: steps().
				onSyncing(syncACK, 1).synced().
				onReceiving(syncACK, 1).synced().
				onReceiving(1, 0x02).packet(1, 2),
		},
		{
			name: "ack with invalid seq after sync",
			steps: steps().
				onSyncing(syncACK, 1).synced().
				onReceiving(syncACK, 2).resync().
				onSyncing(syncACK, 2).synced().
				onReceiving(2, 0x02).packet(2, 2),
		},
		{
			name: "out of order seq",
			steps: steps().
				onSyncing(syncACK, 1).synced().
				onReceiving(1, 2).packet(1, 2).
				onSyncing(1).resync().
				on(SyncStateSyncing, 0x92, 3).
				onSyncing(syncACK, 3).synced(),
		},
		{
			name: "invalid data len",
			steps: steps().
				onSyncing(syncACK, 1).synced().
				onReceiving(1, 0x70, 0x80).resync().
				on(SyncStateSyncing, 1, 2, 3, 4).
				onSyncing(syncACK, 1).synced(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var parser Parser
			for n, s := range tc.steps.steps {
				var r Result
				if len(s.in) == 0 {
					r = parser.Timeout()
				}
				for i, b := range s.in {
					r = parser.Parse(b)
					if i+1 < len(s.in) {
						require.Equalf(t, s.expect, r, "step %d byte %d", n, i)
					}
				}
				require.Equalf(t, s.final, r, "step %d", n)
			}
		})
	}
}

func TestParserReset(t *testing.T) {
	var parser Parser
	parser.Parse(syncACK)
	parser.Parse(1)
	r := parser.Reset()
	require.Equal(t, syncREQ, r.Sync)
	require.Equal(t, SyncStateSyncing, r.State)
	require.Nil(t, r.Packet)
}

func TestSyncState(t *testing.T) {
	require.False(t, SyncStateSyncing.Ready())
	require.False(t, SyncStateSyncing.Receiving())
	require.True(t, SyncStateReady.Ready())
	require.False(t, SyncStateReady.Receiving())
	require.False(t, SyncStateReceiving.Ready())
	require.True(t, SyncStateReceiving.Receiving())
	require.True(t, (SyncStateReady | SyncStateReceiving).Ready())
	require.Equal(t, "ready", SyncStateReady.String())
	require.Equal(t, "syncing", SyncStateReceiving.String())
	require.Equal(t, "unsynced", SyncStateSyncing.String())
}

func TestResultTimer(t *testing.T) {
	testCases := []struct {
		state  SyncState
		sync   byte
		action TimerAction
	}{
		{SyncStateSyncing, 0, TimerKeep},
		{SyncStateSyncing, syncACK, TimerKeep},
		{SyncStateSyncing, syncREQ, TimerRestart},
		{SyncStateReceiving, 0, TimerRestart},
		{SyncStateReady, 0, TimerStop},
		{SyncStateReady, syncACK, TimerStop},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%x %x", tc.state, tc.sync), func(t *testing.T) {
			require.Equal(t, tc.action, Result{Sync: tc.sync, State: tc.state}.Timer())
		})
	}
}
