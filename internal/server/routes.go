package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"github.com/Ambarees369/chat-blindado/internal/config"
	"github.com/Ambarees369/chat-blindado/internal/relay"
)

// NewUpgrader configures the websocket upgrader. A nil origins list accepts
// every origin. Requests without an Origin header come from non-browser
// clients and are always accepted.
func NewUpgrader(origins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  16 * 1024,
		WriteBufferSize: 16 * 1024,
		Subprotocols:    relay.Subprotocols,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origins == nil || origin == "" {
				return true
			}
			return lo.Contains(origins, origin)
		},
	}
}

// NewRouter wires every HTTP route of the relay.
func NewRouter(hub *relay.Hub, cfg *config.Server, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthCheckHandler)
	mux.HandleFunc("GET /stats", statsHandler(hub, logger))
	mux.HandleFunc("/ws", ServeWs(hub, NewUpgrader(cfg.Origins()), cfg, logger))

	if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	} else {
		logger.Info("static directory not found, serving no assets", "dir", cfg.StaticDir)
	}

	return mux
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Relay is healthy."))
}

func statsHandler(hub *relay.Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := hub.Snapshot(r.Context())
		if err != nil {
			logger.Warn("stats unavailable", "err", err)
			http.Error(w, "stats unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snapshot); err != nil {
			logger.Debug("write stats", "err", err)
		}
	}
}

// ServeWs returns an http.HandlerFunc that upgrades the request and hands
// the connection to the hub.
func ServeWs(hub *relay.Hub, upgrader *websocket.Upgrader, cfg *config.Server, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the HTTP error.
			logger.Debug("failed to upgrade connection", "remote", r.RemoteAddr, "err", err)
			return
		}

		codec, err := relay.CodecFor(conn.Subprotocol())
		if err != nil {
			logger.Warn("closing connection", "remote", r.RemoteAddr, "err", err)
			conn.Close()
			return
		}

		client := relay.NewClient(hub, conn, codec, cfg.SendBuffer)
		client.MaxMessageSize = int64(cfg.MaxMessageSize)

		if err := hub.Register(client); err != nil {
			conn.Close()
			return
		}
		logger.Info("connection established", "conn", client.ID, "remote", r.RemoteAddr, "codec", codec.Name())

		go client.WritePump()
		go client.ReadPump()
	}
}
