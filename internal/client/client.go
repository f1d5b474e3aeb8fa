package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Ambarees369/chat-blindado/internal/relay"
)

const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMessageSize   = 1024 * 1024
	handshakeTimeout = 10 * time.Second
)

// Client manages the websocket connection to the relay.
type Client struct {
	conn      *websocket.Conn
	serverURL string
	codec     relay.Codec
	incoming  chan *relay.Message
	outgoing  chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// maxFrameSize is the largest frame the relay will read.
	maxFrameSize int
}

// NewClient creates a client that will talk to serverURL using codec.
func NewClient(serverURL string, codec relay.Codec) *Client {
	return &Client{
		serverURL: serverURL,
		codec:     codec,
		incoming:  make(chan *relay.Message, 64),
		outgoing:  make(chan []byte, 16),
		done:      make(chan struct{}),

		maxFrameSize: relay.DefaultMaxMessageSize,
	}
}

// Connect establishes the websocket connection and starts the pumps.
func (c *Client) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
		Subprotocols:     []string{c.codec.Name()},
		NetDialContext:   dialContext,
	}

	conn, _, err := dialer.DialContext(ctx, c.serverURL, nil)
	if err != nil {
		return NewError("dial "+c.serverURL, err)
	}

	negotiated, err := relay.CodecFor(conn.Subprotocol())
	if err != nil || negotiated.Name() != c.codec.Name() {
		conn.Close()
		return WrapError("negotiate codec", ErrCodecMismatch, "asked for "+c.codec.Name())
	}

	c.conn = conn
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.readPump()
	go c.writePump()

	return nil
}

// readPump reads frames from the websocket connection.
func (c *Client) readPump() {
	defer func() {
		c.conn.Close()
		close(c.incoming)
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg relay.Message
		if err := c.codec.Unmarshal(data, &msg); err != nil {
			continue
		}

		select {
		case c.incoming <- &msg:
		case <-c.done:
			return
		}
	}
}

// writePump writes requests to the websocket connection and sends periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.outgoing:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(c.codec.FrameType(), data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Join asks the relay to add us to room under username with publicKey.
func (c *Client) Join(room, username, publicKey string) error {
	return c.send(&relay.Request{
		Type: relay.EventJoinRoom,
		Payload: relay.RequestPayload{
			Room:      room,
			Username:  username,
			PublicKey: publicKey,
		},
	})
}

// SendEncrypted relays an already encrypted payload to the rest of room.
func (c *Client) SendEncrypted(room, username, encryptedMessage string, at time.Time) error {
	return c.send(&relay.Request{
		Type: relay.EventEncryptedMessage,
		Payload: relay.RequestPayload{
			Room:             room,
			Username:         username,
			EncryptedMessage: encryptedMessage,
			Timestamp:        at.UTC().Format(time.RFC3339Nano),
		},
	})
}

// send encodes req and queues the frame. Frames the relay would refuse are
// rejected here, since the relay drops the connection on oversized reads.
func (c *Client) send(req *relay.Request) error {
	op := "send " + req.Type
	if c.conn == nil {
		return NewError(op, ErrNotConnected)
	}
	select {
	case <-c.done:
		return NewError(op, ErrConnectionClosed)
	default:
	}

	data, err := c.codec.Marshal(req)
	if err != nil {
		return NewError(op, err)
	}
	if len(data) > c.maxFrameSize {
		return WrapError(op, ErrFrameTooLarge, fmt.Sprintf("%d > %d bytes", len(data), c.maxFrameSize))
	}

	select {
	case c.outgoing <- data:
		return nil
	case <-c.done:
		return NewError(op, ErrConnectionClosed)
	}
}

// Close closes the websocket connection and cleans up resources.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
