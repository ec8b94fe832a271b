package realtime

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nextFrame(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case frame, ok := <-c.Send():
		require.True(t, ok, "queue closed")
		var msg Message
		require.NoError(t, json.Unmarshal(frame, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
	}
	return Message{}
}

func assertNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case frame := <-c.Send():
		t.Fatalf("unexpected frame %s", frame)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRegisterGreets(t *testing.T) {
	hub := NewHub(HubOptions{})
	c := hub.Register()

	msg := nextFrame(t, c)
	assert.Equal(t, EventConnected, msg.Event)
	assert.JSONEq(t, `{"data":"Connected to hydroponics system"}`, string(msg.Data))
	assert.Equal(t, 1, hub.ConnectionCount())

	hub.Unregister(c)
	hub.Unregister(c)
	assert.Equal(t, 0, hub.ConnectionCount())
	_, ok := <-c.Send()
	assert.False(t, ok)
}

func TestRoomBroadcastOnlyReachesSubscribers(t *testing.T) {
	hub := NewHub(HubOptions{})
	a, b := hub.Register(), hub.Register()
	nextFrame(t, a)
	nextFrame(t, b)

	hub.Join(a, "DWC1")
	joined := nextFrame(t, a)
	assert.Equal(t, EventJoined, joined.Event)
	assert.JSONEq(t, `{"unit_id":"DWC1"}`, string(joined.Data))
	assert.Equal(t, 1, hub.RoomSize("DWC1"))

	hub.BroadcastRoom("DWC1", EventRelayUpdate, map[string]string{"unit_id": "DWC1"})
	assert.Equal(t, EventRelayUpdate, nextFrame(t, a).Event)
	assertNoFrame(t, b)

	hub.BroadcastGlobal(EventSensorUpdate, map[string]interface{}{"timestamp": 30})
	assert.Equal(t, EventSensorUpdate, nextFrame(t, a).Event)
	assert.Equal(t, EventSensorUpdate, nextFrame(t, b).Event)

	hub.Leave(a, "DWC1")
	assert.Equal(t, EventLeft, nextFrame(t, a).Event)
	assert.Equal(t, 0, hub.RoomSize("DWC1"))

	hub.BroadcastRoom("DWC1", EventRelayUpdate, nil)
	assertNoFrame(t, a)
}

func TestUnregisterLeavesRooms(t *testing.T) {
	hub := NewHub(HubOptions{})
	c := hub.Register()
	hub.Join(c, "NFT")
	hub.Join(c, "AERO")
	hub.Unregister(c)

	assert.Equal(t, 0, hub.RoomSize("NFT"))
	assert.Equal(t, 0, hub.RoomSize("AERO"))
	hub.BroadcastGlobal(EventSensorUpdate, nil)
}

func TestSlowClientDoesNotBlockPublisher(t *testing.T) {
	drops := 0
	hub := NewHub(HubOptions{SendBuffer: 2, OnDrop: func() { drops++ }})
	slow := hub.Register()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			hub.BroadcastGlobal(EventSensorUpdate, i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a slow client")
	}

	// the greeting plus one broadcast fit into the queue
	assert.EqualValues(t, 9, hub.Dropped())
	assert.Equal(t, 9, drops)
	assert.Equal(t, EventConnected, nextFrame(t, slow).Event)
}

func TestRedisRelayFansOutAcrossHubs(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	newRelayedHub := func() *Hub {
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })
		hub := NewHub(HubOptions{})
		require.NoError(t, NewRedisRelay(client, "hydrohub:test", hub, nil).Run(ctx))
		return hub
	}
	left, right := newRelayedHub(), newRelayedHub()

	local := left.Register()
	nextFrame(t, local)
	remote := right.Register()
	nextFrame(t, remote)
	right.Join(remote, "DWC2")
	nextFrame(t, remote)

	left.BroadcastRoom("DWC2", EventRelayUpdate, map[string]string{"unit_id": "DWC2"})

	msg := nextFrame(t, remote)
	assert.Equal(t, EventRelayUpdate, msg.Event)
	assert.JSONEq(t, `{"unit_id":"DWC2"}`, string(msg.Data))
	assertNoFrame(t, local)

	left.BroadcastGlobal(EventSensorUpdate, map[string]int{"timestamp": 60})
	assert.Equal(t, EventSensorUpdate, nextFrame(t, local).Event)
	assert.Equal(t, EventSensorUpdate, nextFrame(t, remote).Event)
	assertNoFrame(t, local)
}

func TestWebsocketJoinAndReceive(t *testing.T) {
	hub := NewHub(HubOptions{})
	srv := httptest.NewServer(NewHandler(hub, time.Second))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, EventConnected, msg.Event)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"event": EventJoinUnit,
		"data":  map[string]string{"unit_id": "TROUGH"},
	}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, EventJoined, msg.Event)
	assert.JSONEq(t, `{"unit_id":"TROUGH"}`, string(msg.Data))

	hub.BroadcastRoom("TROUGH", EventRelayUpdate, map[string]string{"unit_id": "TROUGH"})
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, EventRelayUpdate, msg.Event)

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
