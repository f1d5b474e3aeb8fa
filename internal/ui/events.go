package ui

import (
	"fmt"

	"github.com/Ambarees369/chat-blindado/internal/client"
	"github.com/Ambarees369/chat-blindado/internal/relay"
)

// EventLine renders one server event as a single line. existing-keys is
// rendered as a table by RenderKeys instead and yields "".
func EventLine(evt *client.Event) string {
	switch evt.Type {
	case relay.EventNewPublicKey:
		return fmt.Sprintf("%s %s shared a key %s",
			IconKey, UserStyle.Render(evt.NewPublicKey.Username),
			MutedStyle.Render(Fingerprint(evt.NewPublicKey.PublicKey)))
	case relay.EventUserJoined:
		return fmt.Sprintf("%s %s joined %s",
			IconPeer, UserStyle.Render(evt.Presence.Username),
			MutedStyle.Render(evt.Presence.Timestamp))
	case relay.EventUserLeft:
		return fmt.Sprintf("%s %s left %s",
			IconLeft, UserStyle.Render(evt.Presence.Username),
			MutedStyle.Render(evt.Presence.Timestamp))
	case relay.EventEncryptedMessage:
		return fmt.Sprintf("%s %s %s %s",
			IconLock, UserStyle.Render(evt.Message.Username),
			MutedStyle.Render(evt.Message.Timestamp), evt.Message.EncryptedMessage)
	default:
		return ""
	}
}
