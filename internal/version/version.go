package version

// Version is the current version of chat-blindado.
// This value can be overridden at build time using:
//   go build -ldflags="-X 'github.com/Ambarees369/chat-blindado/internal/version.Version=v1.0.0'"
var Version = "dev"
