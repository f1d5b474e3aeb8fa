package relay

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// DefaultMaxMessageSize is the read limit used when none is configured.
	// Public keys and ciphertexts are small; 64 KB leaves plenty of room.
	DefaultMaxMessageSize = 64 * 1024

	// DefaultSendBuffer is the outbound queue length per connection.
	DefaultSendBuffer = 256
)

// Client is a wrapper for a single websocket connection (a participant).
type Client struct {
	// ID is the connection identifier handed to other room members.
	ID string

	// Hub is the hub that manages this client.
	Hub *Hub

	// Conn is the websocket connection.
	Conn *websocket.Conn

	// Codec encodes and decodes frames for this connection.
	Codec Codec

	// Send is a buffered channel for all outbound messages.
	// The hub writes to it and WritePump drains it to the websocket.
	Send chan *Message

	// MaxMessageSize is the read limit for inbound frames.
	MaxMessageSize int64

	// Owned by the hub goroutine.
	room     string
	username string
	joined   bool
	closed   bool
}

// NewClient wraps conn with a fresh connection ID.
func NewClient(hub *Hub, conn *websocket.Conn, codec Codec, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	return &Client{
		ID:             uuid.NewString(),
		Hub:            hub,
		Conn:           conn,
		Codec:          codec,
		Send:           make(chan *Message, sendBuffer),
		MaxMessageSize: DefaultMaxMessageSize,
	}
}

// deliver queues msg without blocking the hub. A full queue drops the
// message for this client only.
func (c *Client) deliver(msg *Message) bool {
	if c.closed {
		return false
	}
	select {
	case c.Send <- msg:
		return true
	default:
		c.Hub.logger.Warn("send queue full, dropping event", "conn", c.ID, "type", msg.Type)
		return false
	}
}

func (c *Client) close() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// ReadPump pumps frames from the websocket connection to the hub.
//
// The application runs ReadPump in a per-connection goroutine. The application
// ensures that there is at most one reader on a connection by executing all
// reads from this goroutine.
func (c *Client) ReadPump() {
	// Leaving the loop is the disconnect event.
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("read failed", "conn", c.ID, "err", err)
			}
			return
		}

		var req Request
		if err := c.Codec.Unmarshal(data, &req); err != nil {
			c.Hub.logger.Warn("dropping undecodable frame", "conn", c.ID, "codec", c.Codec.Name(), "err", err)
			continue
		}
		req.client = c

		if err := c.Hub.Submit(&req); err != nil {
			return
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection.
//
// A goroutine running WritePump is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := c.Codec.Marshal(message)
			if err != nil {
				c.Hub.logger.Error("encode failed", "conn", c.ID, "type", message.Type, "err", err)
				continue
			}
			if err := c.Conn.WriteMessage(c.Codec.FrameType(), data); err != nil {
				c.Hub.logger.Debug("write failed", "conn", c.ID, "err", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
