package client

import (
	"fmt"
	"log/slog"

	"github.com/Ambarees369/chat-blindado/internal/relay"
)

// Handler turns raw server frames into typed events, preserving arrival order.
type Handler struct {
	client *Client
	Events chan *Event
}

// NewHandler creates a new event handler for client.
func NewHandler(client *Client) *Handler {
	return &Handler{
		client: client,
		Events: make(chan *Event, 64),
	}
}

// Start routes incoming frames until the connection ends or the client is
// closed, then closes Events.
func (h *Handler) Start() {
	defer close(h.Events)

	for {
		select {
		case msg, ok := <-h.client.incoming:
			if !ok {
				return
			}
			evt, err := Decode(h.client.codec, msg)
			if err != nil {
				slog.Debug("skipping server event", "type", msg.Type, "err", err)
				continue
			}
			select {
			case h.Events <- evt:
			case <-h.client.done:
				return
			}

		case <-h.client.done:
			return
		}
	}
}

// Decode converts an envelope into an Event. The payload arrives as a generic
// value, so it is re-encoded with the same codec and decoded into its type.
func Decode(codec relay.Codec, msg *relay.Message) (*Event, error) {
	evt := &Event{Type: msg.Type}

	var err error
	switch msg.Type {
	case relay.EventExistingKeys:
		evt.ExistingKeys = []relay.KeyEntry{}
		err = decodePayload(codec, msg.Payload, &evt.ExistingKeys)
	case relay.EventNewPublicKey:
		evt.NewPublicKey = &relay.NewPublicKeyPayload{}
		err = decodePayload(codec, msg.Payload, evt.NewPublicKey)
	case relay.EventUserJoined, relay.EventUserLeft:
		evt.Presence = &relay.PresencePayload{}
		err = decodePayload(codec, msg.Payload, evt.Presence)
	case relay.EventEncryptedMessage:
		evt.Message = &relay.EncryptedMessagePayload{}
		err = decodePayload(codec, msg.Payload, evt.Message)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedEvent, msg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", msg.Type, err)
	}
	return evt, nil
}

func decodePayload(codec relay.Codec, payload, v any) error {
	if payload == nil {
		return nil
	}
	data, err := codec.Marshal(payload)
	if err != nil {
		return err
	}
	return codec.Unmarshal(data, v)
}
