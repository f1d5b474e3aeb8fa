package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

// Default configuration values
const (
	DefaultPort      = 3000
	DefaultServerURL = "ws://localhost:3000/ws"
	DefaultCodec     = "json"
)

// Server holds the relay server configuration.
type Server struct {
	Host      string `env:"HOST"`
	Port      int    `env:"PORT,default=3000"`
	StaticDir string `env:"STATIC_DIR,default=public"`

	// AllowedOrigins is a comma separated list of origins allowed to open a
	// websocket, or "*" for any.
	AllowedOrigins string `env:"RELAY_ALLOWED_ORIGINS,default=*"`

	MaxMessageSize  int           `env:"RELAY_MAX_MESSAGE_SIZE,default=65536"`
	SendBuffer      int           `env:"RELAY_SEND_BUFFER,default=256"`
	LeaveOnRejoin   bool          `env:"RELAY_LEAVE_ON_REJOIN,default=false"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s"`
	LogLevel        string        `env:"LOG_LEVEL,default=info"`
}

// ServerOptions carries CLI flag overrides. Zero values mean "not set".
type ServerOptions struct {
	Host      string
	Port      int
	StaticDir string
	Origins   string
}

// LoadServer reads configuration with the following priority:
// 1. CLI flags (passed via ServerOptions) - highest priority
// 2. Environment variables, including a .env file in the working directory
// 3. Defaults - lowest priority
func LoadServer(opts ServerOptions) (*Server, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	var cfg Server
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if opts.Host != "" {
		cfg.Host = opts.Host
	}
	if opts.Port != 0 {
		cfg.Port = opts.Port
	}
	if opts.StaticDir != "" {
		cfg.StaticDir = opts.StaticDir
	}
	if opts.Origins != "" {
		cfg.AllowedOrigins = opts.Origins
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.MaxMessageSize <= 0 {
		return nil, fmt.Errorf("invalid RELAY_MAX_MESSAGE_SIZE %d", cfg.MaxMessageSize)
	}

	return &cfg, nil
}

// Addr returns the listen address.
func (c *Server) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Origins returns the allowed origins, or nil when any origin is accepted.
func (c *Server) Origins() []string {
	origins := lo.Compact(lo.Map(strings.Split(c.AllowedOrigins, ","), func(o string, _ int) string {
		return strings.TrimSpace(o)
	}))
	if len(origins) == 0 || lo.Contains(origins, "*") {
		return nil
	}
	return origins
}

// Client holds the terminal client configuration.
type Client struct {
	// ServerURL is the relay websocket endpoint.
	ServerURL string

	// Codec is "json" or "msgpack".
	Codec string
}

// ClientOptions carries CLI flag overrides.
type ClientOptions struct {
	ServerURL string
	Codec     string
}

// LoadClient resolves client settings: CLI flag > env > default.
func LoadClient(opts ClientOptions) (*Client, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	serverURL := opts.ServerURL
	if serverURL == "" {
		serverURL = os.Getenv("CHAT_SERVER_URL")
	}
	if serverURL == "" {
		serverURL = DefaultServerURL
	}

	codec := opts.Codec
	if codec == "" {
		codec = os.Getenv("CHAT_CODEC")
	}
	if codec == "" {
		codec = DefaultCodec
	}
	if codec != "json" && codec != "msgpack" {
		return nil, fmt.Errorf("unsupported codec %q (want json or msgpack)", codec)
	}

	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be ws or wss", serverURL)
	}

	return &Client{ServerURL: serverURL, Codec: codec}, nil
}

// StatsURL returns the HTTP stats endpoint served next to the websocket.
func (c *Client) StatsURL() string {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return ""
	}
	if u.Scheme == "wss" {
		u.Scheme = "https"
	} else {
		u.Scheme = "http"
	}
	u.Path = "/stats"
	u.RawQuery = ""
	return u.String()
}

func loadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}
