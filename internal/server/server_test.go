package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestServe_ShutdownClosesConnections(t *testing.T) {
	req := require.New(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	req.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ln, testConfig(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	req.NoError(err)
	defer conn.Close()

	// A reply proves the hub has the connection.
	req.NoError(conn.WriteJSON(map[string]any{"type": "join-room", "payload": map[string]string{"room": "r"}}))
	req.NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, _, err = conn.ReadMessage()
	req.NoError(err)

	cancel()

	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(3 * time.Second):
		req.Fail("server did not stop")
	}

	req.NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, _, err = conn.ReadMessage()
	req.True(websocket.IsCloseError(err, websocket.CloseNoStatusReceived), "expected a close frame, got %v", err)
}
