package relay

// Event types accepted from clients.
const (
	EventJoinRoom         = "join-room"
	EventEncryptedMessage = "encrypted-message"
)

// Event types emitted by the relay. EventEncryptedMessage is used in both
// directions.
const (
	EventExistingKeys = "existing-keys"
	EventNewPublicKey = "new-public-key"
	EventUserJoined   = "user-joined"
	EventUserLeft     = "user-left"
)

// Message is the envelope for every S2C (server to client) frame.
type Message struct {
	Type    string `json:"type" msgpack:"type"`
	Payload any    `json:"payload" msgpack:"payload"`
}

// Request is a decoded C2S (client to server) frame.
//
// Both inbound events carry a subset of the same fields, so one payload
// struct covers them. Missing fields decode to empty strings and are relayed
// as-is.
type Request struct {
	Type    string         `json:"type" msgpack:"type"`
	Payload RequestPayload `json:"payload" msgpack:"payload"`

	// client is the connection that sent the request.
	// It's used internally by the Hub and never decoded from the wire.
	client *Client
}

// RequestPayload holds the fields of join-room and encrypted-message.
type RequestPayload struct {
	Room             string `json:"room" msgpack:"room"`
	Username         string `json:"username" msgpack:"username"`
	PublicKey        string `json:"publicKey,omitempty" msgpack:"publicKey,omitempty"`
	EncryptedMessage string `json:"encryptedMessage,omitempty" msgpack:"encryptedMessage,omitempty"`
	Timestamp        string `json:"timestamp,omitempty" msgpack:"timestamp,omitempty"`
}

// KeyEntry is one element of the existing-keys list.
type KeyEntry struct {
	Username  string `json:"username" msgpack:"username"`
	PublicKey string `json:"publicKey" msgpack:"publicKey"`
}

// NewPublicKeyPayload announces a joiner's key to the rest of the room.
type NewPublicKeyPayload struct {
	Username     string `json:"username" msgpack:"username"`
	PublicKey    string `json:"publicKey" msgpack:"publicKey"`
	ConnectionID string `json:"connectionId" msgpack:"connectionId"`
}

// PresencePayload is shared by user-joined and user-left.
type PresencePayload struct {
	Username  string `json:"username" msgpack:"username"`
	Timestamp string `json:"timestamp" msgpack:"timestamp"`
}

// EncryptedMessagePayload is the relayed ciphertext. EncryptedMessage is
// forwarded byte-for-byte.
type EncryptedMessagePayload struct {
	Username         string `json:"username" msgpack:"username"`
	EncryptedMessage string `json:"encryptedMessage" msgpack:"encryptedMessage"`
	Timestamp        string `json:"timestamp" msgpack:"timestamp"`
	ConnectionID     string `json:"connectionId" msgpack:"connectionId"`
}
