package client

import "github.com/Ambarees369/chat-blindado/internal/relay"

// Event is a decoded server event. Exactly one of the payload fields is set,
// matching Type.
type Event struct {
	Type string

	ExistingKeys []relay.KeyEntry
	NewPublicKey *relay.NewPublicKeyPayload
	Presence     *relay.PresencePayload
	Message      *relay.EncryptedMessagePayload
}
