package relay

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/lo"
)

// timestampLayout renders ISO 8601 in UTC with millisecond precision,
// e.g. 2024-05-01T12:00:00.000Z.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

var ErrHubStopped = errors.New("hub stopped")

// Hub is the central brain of the relay.
// It owns the room registry and every connection's room association; all of
// it is read and written only from the goroutine running Run.
type Hub struct {
	// rooms maps room names to Room instances.
	rooms map[string]*Room

	// clients is the set of registered connections.
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client

	// requests carries decoded inbound frames from the read pumps.
	requests chan *Request

	snapshots chan chan Snapshot

	// done is closed when Run returns.
	done chan struct{}

	logger        *slog.Logger
	now           func() time.Time
	leaveOnRejoin bool
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the logger used by the hub and its clients.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) { h.logger = logger }
}

// WithClock replaces the clock used for user-joined and user-left timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) { h.now = now }
}

// WithLeaveOnRejoin controls what a second join on the same connection does.
// By default the room association is overwritten and the previous record
// stays behind. When enabled the connection leaves its previous room first.
func WithLeaveOnRejoin(enabled bool) Option {
	return func(h *Hub) { h.leaveOnRejoin = enabled }
}

// NewHub creates a new Hub instance.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		rooms:      make(map[string]*Room),
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		requests:   make(chan *Request),
		snapshots:  make(chan chan Snapshot),
		done:       make(chan struct{}),
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register hands a new connection to the hub.
func (h *Hub) Register(c *Client) error {
	select {
	case h.register <- c:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// Unregister is the disconnect event. It is safe to call after the hub
// stopped.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Submit queues an inbound request for processing.
func (h *Hub) Submit(req *Request) error {
	select {
	case h.requests <- req:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// Snapshot asks the hub loop for a consistent view of the registry.
func (h *Hub) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	select {
	case h.snapshots <- reply:
	case <-h.done:
		return Snapshot{}, ErrHubStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Run starts the hub's main processing loop.
// This is the single goroutine that manages all state (rooms, clients); each
// event is handled to completion before the next one is taken.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.logger.Debug("client registered", "conn", client.ID, "codec", client.Codec.Name())

		case client := <-h.unregister:
			if _, ok := h.clients[client]; !ok {
				continue
			}
			h.leave(client)
			delete(h.clients, client)
			client.close()
			h.logger.Debug("client unregistered", "conn", client.ID)

		case req := <-h.requests:
			h.dispatch(req)

		case reply := <-h.snapshots:
			reply <- h.snapshot()
		}
	}
}

func (h *Hub) dispatch(req *Request) {
	if req.client == nil || req.client.closed {
		return
	}

	switch req.Type {
	case EventJoinRoom:
		h.join(req.client, req.Payload)
	case EventEncryptedMessage:
		h.relayEncryptedMessage(req.client, req.Payload)
	default:
		h.logger.Debug("unknown event type", "type", req.Type, "conn", req.client.ID)
	}
}

// join registers c in the requested room, sends it the keys already there
// and announces it to everyone else.
func (h *Hub) join(c *Client, p RequestPayload) {
	if c.joined && h.leaveOnRejoin {
		h.leave(c)
	}

	room, ok := h.rooms[p.Room]
	if !ok {
		room = newRoom(p.Room)
		h.rooms[p.Room] = room
	}
	room.add(c, Participant{
		ConnectionID: c.ID,
		Username:     p.Username,
		PublicKey:    p.PublicKey,
	})
	c.room = p.Room
	c.username = p.Username
	c.joined = true

	h.logger.Info("user joined room", "user", p.Username, "room", p.Room, "conn", c.ID)

	c.deliver(&Message{
		Type:    EventExistingKeys,
		Payload: room.existingKeys(p.Username),
	})

	room.broadcast(c, &Message{
		Type: EventNewPublicKey,
		Payload: NewPublicKeyPayload{
			Username:     p.Username,
			PublicKey:    p.PublicKey,
			ConnectionID: c.ID,
		},
	})
	room.broadcast(c, &Message{
		Type: EventUserJoined,
		Payload: PresencePayload{
			Username:  p.Username,
			Timestamp: h.timestamp(),
		},
	})
}

// relayEncryptedMessage fans the ciphertext out to the named room. The sender
// does not need to be a member and never gets its own message back.
func (h *Hub) relayEncryptedMessage(c *Client, p RequestPayload) {
	room, ok := h.rooms[p.Room]
	if !ok {
		h.logger.Debug("encrypted message for empty room", "room", p.Room, "conn", c.ID)
		return
	}

	delivered := room.broadcast(c, &Message{
		Type: EventEncryptedMessage,
		Payload: EncryptedMessagePayload{
			Username:         p.Username,
			EncryptedMessage: p.EncryptedMessage,
			Timestamp:        p.Timestamp,
			ConnectionID:     c.ID,
		},
	})

	h.logger.Info("encrypted message relayed", "user", p.Username, "room", p.Room, "recipients", delivered)
}

// leave removes c from its current room. Connections that never joined are
// ignored.
func (h *Hub) leave(c *Client) {
	if !c.joined {
		return
	}
	c.joined = false

	room, ok := h.rooms[c.room]
	if !ok {
		return
	}
	room.remove(c.ID)
	if room.Len() == 0 {
		delete(h.rooms, room.ID)
		h.logger.Debug("room deleted", "room", room.ID)
	}

	room.broadcast(c, &Message{
		Type: EventUserLeft,
		Payload: PresencePayload{
			Username:  c.username,
			Timestamp: h.timestamp(),
		},
	})

	h.logger.Info("user left room", "user", c.username, "room", c.room, "conn", c.ID)
}

func (h *Hub) timestamp() string {
	return h.now().UTC().Format(timestampLayout)
}

// shutdown closes every connection's send queue so the write pumps say
// goodbye to their peers.
func (h *Hub) shutdown() {
	for client := range h.clients {
		client.close()
	}
	clear(h.clients)
	clear(h.rooms)
	h.logger.Info("hub stopped")
}

// Snapshot is a point-in-time view of the registry.
type Snapshot struct {
	Rooms        int `json:"rooms"`
	Participants int `json:"participants"`
	Connections  int `json:"connections"`

	// RoomSizes maps room names to participant counts. Room names are
	// capabilities (knowing one is enough to join) so they stay off the wire.
	RoomSizes map[string]int `json:"-"`
}

func (h *Hub) snapshot() Snapshot {
	sizes := lo.MapValues(h.rooms, func(r *Room, _ string) int { return r.Len() })
	return Snapshot{
		Rooms:        len(h.rooms),
		Participants: lo.Sum(lo.Values(sizes)),
		Connections:  len(h.clients),
		RoomSizes:    sizes,
	}
}
