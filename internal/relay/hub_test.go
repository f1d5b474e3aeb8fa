package relay

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func startHub(t *testing.T, opts ...Option) *Hub {
	t.Helper()
	opts = append([]Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	h := NewHub(opts...)

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h
}

func connect(t *testing.T, h *Hub, buffer int) *Client {
	t.Helper()
	c := NewClient(h, nil, JSON, buffer)
	require.NoError(t, h.Register(c))
	return c
}

func join(t *testing.T, c *Client, room, username, publicKey string) {
	t.Helper()
	require.NoError(t, c.Hub.Submit(&Request{
		Type:    EventJoinRoom,
		Payload: RequestPayload{Room: room, Username: username, PublicKey: publicKey},
		client:  c,
	}))
}

func sendEncrypted(t *testing.T, c *Client, room, username, payload, timestamp string) {
	t.Helper()
	require.NoError(t, c.Hub.Submit(&Request{
		Type: EventEncryptedMessage,
		Payload: RequestPayload{
			Room:             room,
			Username:         username,
			EncryptedMessage: payload,
			Timestamp:        timestamp,
		},
		client: c,
	}))
}

// settle waits until the hub has handled everything submitted so far. The
// hub takes one event at a time, so answering a snapshot query means every
// earlier event is done.
func settle(t *testing.T, h *Hub) Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s, err := h.Snapshot(ctx)
	require.NoError(t, err)
	return s
}

func next(t *testing.T, c *Client) *Message {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
		return nil
	}
}

func requireNothing(t *testing.T, c *Client) {
	t.Helper()
	require.Len(t, c.Send, 0)
}

func TestHub_LobbyScenario(t *testing.T) {
	req := require.New(t)
	h := startHub(t)
	a := connect(t, h, 16)
	b := connect(t, h, 16)

	// Given A joins an empty lobby
	join(t, a, "lobby", "alice", "kA")
	settle(t, h)

	msg := next(t, a)
	req.Equal(EventExistingKeys, msg.Type)
	req.Equal([]KeyEntry{}, msg.Payload)

	// When B joins
	join(t, b, "lobby", "bob", "kB")
	settle(t, h)

	// Then B gets A's key and A hears about B
	msg = next(t, b)
	req.Equal(EventExistingKeys, msg.Type)
	req.Equal([]KeyEntry{{Username: "alice", PublicKey: "kA"}}, msg.Payload)

	msg = next(t, a)
	req.Equal(EventNewPublicKey, msg.Type)
	req.Equal(NewPublicKeyPayload{Username: "bob", PublicKey: "kB", ConnectionID: b.ID}, msg.Payload)

	msg = next(t, a)
	req.Equal(EventUserJoined, msg.Type)
	req.Equal(PresencePayload{Username: "bob", Timestamp: "2024-05-01T12:00:00.000Z"}, msg.Payload)

	// When A sends an encrypted message
	sendEncrypted(t, a, "lobby", "alice", "m", "2024-05-01T12:00:01Z")
	settle(t, h)

	// Then only B receives it, verbatim
	msg = next(t, b)
	req.Equal(EventEncryptedMessage, msg.Type)
	req.Equal(EncryptedMessagePayload{
		Username:         "alice",
		EncryptedMessage: "m",
		Timestamp:        "2024-05-01T12:00:01Z",
		ConnectionID:     a.ID,
	}, msg.Payload)
	requireNothing(t, a)

	// When B disconnects
	h.Unregister(b)
	s := settle(t, h)

	// Then A is told and the lobby only holds A
	msg = next(t, a)
	req.Equal(EventUserLeft, msg.Type)
	req.Equal(PresencePayload{Username: "bob", Timestamp: "2024-05-01T12:00:00.000Z"}, msg.Payload)
	req.Equal(map[string]int{"lobby": 1}, s.RoomSizes)
	req.Equal(1, s.Connections)

	_, ok := <-b.Send
	req.False(ok, "send channel of a disconnected client is closed")
}

func TestHub_ExistingKeysFiltersByDisplayName(t *testing.T) {
	req := require.New(t)
	h := startHub(t)
	first := connect(t, h, 16)
	twin := connect(t, h, 16)
	other := connect(t, h, 16)

	join(t, first, "r", "sam", "k1")
	join(t, twin, "r", "sam", "k2")
	join(t, other, "r", "max", "k3")
	settle(t, h)

	next(t, first) // existing-keys
	msg := next(t, twin)
	req.Equal(EventExistingKeys, msg.Type)
	req.Equal([]KeyEntry{}, msg.Payload, "a participant sharing the joiner's name is not listed")

	msg = next(t, other)
	req.Equal([]KeyEntry{
		{Username: "sam", PublicKey: "k1"},
		{Username: "sam", PublicKey: "k2"},
	}, msg.Payload)
}

func TestHub_RoomDeletedWhenLastParticipantLeaves(t *testing.T) {
	req := require.New(t)
	h := startHub(t)
	a := connect(t, h, 16)
	b := connect(t, h, 16)

	join(t, a, "r1", "a", "ka")
	join(t, b, "r2", "b", "kb")
	s := settle(t, h)
	req.Equal(2, s.Rooms)
	req.Equal(2, s.Participants)

	h.Unregister(a)
	s = settle(t, h)
	req.Equal(map[string]int{"r2": 1}, s.RoomSizes)

	h.Unregister(b)
	s = settle(t, h)
	req.Empty(s.RoomSizes)
	req.Zero(s.Rooms)
	req.Zero(s.Connections)
}

func TestHub_DisconnectWithoutJoinIsNoop(t *testing.T) {
	req := require.New(t)
	h := startHub(t)
	a := connect(t, h, 16)
	idle := connect(t, h, 16)

	join(t, a, "r", "a", "ka")
	settle(t, h)
	next(t, a)

	h.Unregister(idle)
	h.Unregister(idle)
	s := settle(t, h)

	requireNothing(t, a)
	req.Equal(map[string]int{"r": 1}, s.RoomSizes)
}

func TestHub_EmptyFieldsJoinAndCleanup(t *testing.T) {
	req := require.New(t)
	h := startHub(t)
	a := connect(t, h, 16)
	b := connect(t, h, 16)

	// Nothing is validated: an empty room, name and key form a real room.
	join(t, a, "", "", "")
	join(t, b, "", "", "")
	s := settle(t, h)
	req.Equal(map[string]int{"": 2}, s.RoomSizes)

	msg := next(t, a)
	req.Equal([]KeyEntry{}, msg.Payload)
	// b shares a's (empty) name, so the name filter hides a's key.
	msg = next(t, b)
	req.Equal(EventExistingKeys, msg.Type)
	req.Equal([]KeyEntry{}, msg.Payload)

	msg = next(t, a)
	req.Equal(NewPublicKeyPayload{ConnectionID: b.ID}, msg.Payload)
	msg = next(t, a)
	req.Equal(PresencePayload{Timestamp: "2024-05-01T12:00:00.000Z"}, msg.Payload)

	sendEncrypted(t, a, "", "", "", "")
	settle(t, h)
	msg = next(t, b)
	req.Equal(EncryptedMessagePayload{ConnectionID: a.ID}, msg.Payload)

	// Cleanup keys on having joined, not on non-empty room or name.
	h.Unregister(b)
	s = settle(t, h)
	msg = next(t, a)
	req.Equal(EventUserLeft, msg.Type)
	req.Equal(PresencePayload{Timestamp: "2024-05-01T12:00:00.000Z"}, msg.Payload)
	req.Equal(map[string]int{"": 1}, s.RoomSizes)

	h.Unregister(a)
	s = settle(t, h)
	req.Equal(0, s.Rooms)
	req.Equal(0, s.Participants)
}

func TestHub_EncryptedMessageFanOut(t *testing.T) {
	req := require.New(t)
	h := startHub(t)
	a := connect(t, h, 16)
	b := connect(t, h, 16)
	c := connect(t, h, 16)
	outsider := connect(t, h, 16)

	for _, m := range []struct {
		client *Client
		name   string
	}{{a, "a"}, {b, "b"}, {c, "c"}} {
		join(t, m.client, "r", m.name, "k"+m.name)
	}
	settle(t, h)
	for _, cl := range []*Client{a, b, c} {
		for len(cl.Send) > 0 {
			<-cl.Send
		}
	}

	payload := "\x00\xffciphertext with \"quotes\" and ünïcode"
	sendEncrypted(t, a, "r", "a", payload, "t1")
	// The named room is used, membership of the sender is not required.
	sendEncrypted(t, outsider, "r", "ghost", "p2", "t2")
	// Nobody lives here.
	sendEncrypted(t, a, "nowhere", "a", "p3", "t3")
	settle(t, h)

	for _, cl := range []*Client{b, c} {
		msg := next(t, cl)
		req.Equal(payload, msg.Payload.(EncryptedMessagePayload).EncryptedMessage)
		msg = next(t, cl)
		req.Equal("ghost", msg.Payload.(EncryptedMessagePayload).Username)
		req.Equal(outsider.ID, msg.Payload.(EncryptedMessagePayload).ConnectionID)
		requireNothing(t, cl)
	}

	msg := next(t, a)
	req.Equal("p2", msg.Payload.(EncryptedMessagePayload).EncryptedMessage)
	requireNothing(t, a)
	requireNothing(t, outsider)
}

func TestHub_RejoinLeavesPreviousRoom(t *testing.T) {
	req := require.New(t)
	h := startHub(t, WithLeaveOnRejoin(true))
	a := connect(t, h, 16)
	b := connect(t, h, 16)

	join(t, a, "old", "alice", "kA")
	join(t, b, "old", "bob", "kB")
	settle(t, h)
	next(t, a)
	next(t, a)
	next(t, a)
	next(t, b)

	join(t, a, "new", "alice", "kA")
	s := settle(t, h)

	msg := next(t, b)
	req.Equal(EventUserLeft, msg.Type)
	req.Equal("alice", msg.Payload.(PresencePayload).Username)
	req.Equal(map[string]int{"old": 1, "new": 1}, s.RoomSizes)

	msg = next(t, a)
	req.Equal(EventExistingKeys, msg.Type)
	req.Equal([]KeyEntry{}, msg.Payload)

	// Disconnecting now only concerns the new room.
	h.Unregister(a)
	s = settle(t, h)
	req.Equal(map[string]int{"old": 1}, s.RoomSizes)
	requireNothing(t, b)
}

func TestHub_RejoinKeepsStaleRecordByDefault(t *testing.T) {
	req := require.New(t)
	h := startHub(t)
	a := connect(t, h, 16)
	b := connect(t, h, 16)

	join(t, a, "old", "alice", "kA")
	join(t, a, "new", "alice", "kA")
	s := settle(t, h)
	req.Equal(map[string]int{"old": 1, "new": 1}, s.RoomSizes)

	h.Unregister(a)
	s = settle(t, h)
	req.Equal(map[string]int{"old": 1}, s.RoomSizes, "stale record outlives the connection")

	// The stale key is still handed out, but nothing is sent to the gone client.
	join(t, b, "old", "bob", "kB")
	settle(t, h)
	msg := next(t, b)
	req.Equal([]KeyEntry{{Username: "alice", PublicKey: "kA"}}, msg.Payload)
}

func TestHub_FullQueueDropsWithoutBlocking(t *testing.T) {
	req := require.New(t)
	h := startHub(t)
	slow := connect(t, h, 1)
	a := connect(t, h, 16)

	join(t, slow, "r", "slow", "ks")
	// slow's only slot now holds existing-keys.
	for i := 0; i < 10; i++ {
		sendEncrypted(t, a, "r", "a", "m", "t")
	}
	join(t, a, "r", "a", "ka")
	s := settle(t, h)

	req.Equal(map[string]int{"r": 2}, s.RoomSizes)
	msg := next(t, slow)
	req.Equal(EventExistingKeys, msg.Type)
	requireNothing(t, slow)
}

func TestHub_UnknownEventIgnored(t *testing.T) {
	req := require.New(t)
	h := startHub(t)
	a := connect(t, h, 16)

	req.NoError(h.Submit(&Request{Type: "leave-room", client: a}))
	s := settle(t, h)

	requireNothing(t, a)
	req.Zero(s.Rooms)
}

func TestHub_StopClosesClients(t *testing.T) {
	req := require.New(t)
	h := NewHub(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()

	a := connect(t, h, 4)
	cancel()
	<-stopped

	_, ok := <-a.Send
	req.False(ok)
	req.ErrorIs(h.Submit(&Request{Type: EventJoinRoom, client: a}), ErrHubStopped)
	req.ErrorIs(h.Register(NewClient(h, nil, JSON, 1)), ErrHubStopped)
	_, err := h.Snapshot(context.Background())
	req.ErrorIs(err, ErrHubStopped)

	// Unregister after stop must not block.
	h.Unregister(a)
}
