package relay

import "github.com/samber/lo"

// Participant is a connection's membership record within a room.
type Participant struct {
	ConnectionID string
	Username     string
	PublicKey    string
}

type member struct {
	client      *Client
	participant Participant
}

// Room is a caller-named broadcast group together with the public keys of
// its members. Rooms are only touched from the hub goroutine.
type Room struct {
	// ID is the name the clients joined with.
	ID string

	members map[string]*member

	// order keeps connection IDs in first-join order so existing-keys is
	// deterministic.
	order []string
}

func newRoom(id string) *Room {
	return &Room{
		ID:      id,
		members: make(map[string]*member),
	}
}

// add records c under the room. Joining again with the same connection
// replaces the record but keeps its position.
func (r *Room) add(c *Client, p Participant) {
	if _, ok := r.members[c.ID]; !ok {
		r.order = append(r.order, c.ID)
	}
	r.members[c.ID] = &member{client: c, participant: p}
}

// remove deletes the record of connectionID. It reports whether one existed.
func (r *Room) remove(connectionID string) bool {
	if _, ok := r.members[connectionID]; !ok {
		return false
	}
	delete(r.members, connectionID)
	r.order = lo.Without(r.order, connectionID)
	return true
}

// Len returns the number of participants.
func (r *Room) Len() int {
	return len(r.members)
}

// Participants returns the records in join order.
func (r *Room) Participants() []Participant {
	return lo.Map(r.order, func(id string, _ int) Participant {
		return r.members[id].participant
	})
}

// existingKeys lists the keys a joiner called username should receive.
// Participants are filtered by name, not by connection, so two users sharing
// a name never see each other's key.
func (r *Room) existingKeys(username string) []KeyEntry {
	keys := lo.FilterMap(r.Participants(), func(p Participant, _ int) (KeyEntry, bool) {
		return KeyEntry{Username: p.Username, PublicKey: p.PublicKey}, p.Username != username
	})
	if keys == nil {
		// existing-keys is always an array on the wire.
		keys = []KeyEntry{}
	}
	return keys
}

// broadcast queues msg for every member except sender and returns how many
// queues accepted it.
func (r *Room) broadcast(sender *Client, msg *Message) int {
	delivered := 0
	for _, id := range r.order {
		m := r.members[id]
		if m.client == sender {
			continue
		}
		if m.client.deliver(msg) {
			delivered++
		}
	}
	return delivered
}
