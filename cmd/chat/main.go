package main

import (
	"log/slog"
	"os"

	"github.com/Ambarees369/chat-blindado/internal/commands"
	"github.com/Ambarees369/chat-blindado/internal/logging"
)

func main() {
	// Quiet by default; `serve` re-initialises from its own config.
	logging.Init(os.Getenv("LOG_LEVEL"), slog.LevelError)
	commands.Execute()
}
