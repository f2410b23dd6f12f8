package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/journal"
	"github.com/pockerhead/VOIDRUN-sub000/internal/telemetry"
)

func died(tick uint64, id contract.EntityID) []contract.Outbound {
	return []contract.Outbound{{Tick: tick, Kind: contract.OutboundEntityDied, Died: &contract.EntityDied{Entity: id}}}
}

func newServer(t *testing.T, j *journal.Journal) (*Hub, *telemetry.Counters, string) {
	t.Helper()
	metrics := telemetry.NewCounters()
	hub := NewHub(j, Config{Metrics: metrics})
	srv := httptest.NewServer(NewHandler(hub))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, metrics, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if resp != nil {
		resp.Body.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(payload, &msg))
	require.Equal(t, ProtocolVersion, msg.Ver)
	return msg
}

func waitForObservers(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Observers() == n }, 2*time.Second, 5*time.Millisecond)
}

func TestObserverGetsLatestKeyframeThenBatches(t *testing.T) {
	j := journal.New(journal.Config{KeyframeCapacity: 4}, nil)
	j.RecordKeyframe(journal.Keyframe{Tick: 64, Checksum: "abc", Entities: 2, State: json.RawMessage(`{"tick":64}`)})
	hub, metrics, url := newServer(t, j)

	conn := dial(t, url)
	first := read(t, conn)
	require.Equal(t, TypeKeyframe, first.Type)
	require.Equal(t, uint64(1), first.Sequence)
	require.Equal(t, "abc", first.Keyframe.Checksum)
	require.Equal(t, uint64(1), metrics.Get(telemetry.MetricObserversCurrent))

	j.Append(65, died(65, 7))
	j.Append(66, died(66, 8))
	require.Equal(t, 2, hub.Flush())

	batch := read(t, conn)
	require.Equal(t, TypeBatch, batch.Type)
	require.Equal(t, uint64(65), batch.Tick)
	require.Len(t, batch.Events, 1)
	require.Equal(t, contract.EntityID(7), batch.Events[0].Died.Entity)
	require.Equal(t, uint64(66), read(t, conn).Tick)

	require.Equal(t, 0, hub.Flush())
}

func TestDroppedBatchesTriggerResync(t *testing.T) {
	j := journal.New(journal.Config{MaxPendingBatches: 1, KeyframeCapacity: 2}, nil)
	hub, _, url := newServer(t, j)
	conn := dial(t, url)
	waitForObservers(t, hub, 1)

	j.RecordKeyframe(journal.Keyframe{Tick: 2, Checksum: "k2", State: json.RawMessage(`{}`)})
	j.Append(1, died(1, 1))
	j.Append(2, died(2, 2))
	j.Append(3, died(3, 3))
	require.Equal(t, 1, hub.Flush())

	resync := read(t, conn)
	require.Equal(t, TypeResync, resync.Type)
	require.Equal(t, uint64(2), resync.Resync.DroppedBatches)
	require.Equal(t, uint64(1), resync.Resync.FirstDropped)

	frame := read(t, conn)
	require.Equal(t, TypeKeyframe, frame.Type)
	require.Equal(t, "k2", frame.Keyframe.Checksum)

	batch := read(t, conn)
	require.Equal(t, uint64(3), batch.Tick)
}

func TestKeyframeRequests(t *testing.T) {
	j := journal.New(journal.Config{KeyframeCapacity: 4}, nil)
	j.RecordKeyframe(journal.Keyframe{Tick: 10, Checksum: "a", State: json.RawMessage(`{}`)})
	j.RecordKeyframe(journal.Keyframe{Tick: 20, Checksum: "b", State: json.RawMessage(`{}`)})
	_, _, url := newServer(t, j)
	conn := dial(t, url)
	require.Equal(t, "b", read(t, conn).Keyframe.Checksum)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "keyframeRequest", "sequence": 1}))
	reply := read(t, conn)
	require.Equal(t, TypeKeyframe, reply.Type)
	require.Equal(t, "a", reply.Keyframe.Checksum)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "keyframeRequest", "sequence": 9}))
	nack := read(t, conn)
	require.Equal(t, TypeNack, nack.Type)
	require.Equal(t, uint64(9), nack.Sequence)
	require.Equal(t, "expired", nack.Reason)
}

func TestDisconnectUnsubscribes(t *testing.T) {
	j := journal.New(journal.Config{}, nil)
	hub, metrics, url := newServer(t, j)
	conn := dial(t, url)
	waitForObservers(t, hub, 1)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()
	waitForObservers(t, hub, 0)
	require.Equal(t, uint64(0), metrics.Get(telemetry.MetricObserversCurrent))

	j.Append(1, died(1, 1))
	require.Equal(t, 1, hub.Flush())
}

func TestAttachSwitchesJournal(t *testing.T) {
	hub := NewHub(nil, Config{})
	require.Equal(t, 0, hub.Flush())

	first := journal.New(journal.Config{}, nil)
	first.Append(1, died(1, 1))
	hub.Attach(first)
	require.Equal(t, 1, hub.Flush())

	second := journal.New(journal.Config{}, nil)
	second.Append(1, died(1, 1))
	second.Append(2, died(2, 2))
	hub.Attach(second)
	require.Equal(t, 2, hub.Flush())
}
