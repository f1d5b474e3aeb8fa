package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Ambarees369/chat-blindado/internal/config"
	"github.com/Ambarees369/chat-blindado/internal/logging"
	"github.com/Ambarees369/chat-blindado/internal/server"
)

var (
	flagServeHost      string
	flagServePort      int
	flagServeStaticDir string
	flagServeOrigins   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay server",
	Long: `Run the relay server. Settings come from flags, then environment
variables (a .env file is read if present), then defaults.

Examples:
  chat serve
  chat serve --port 8080 --origins https://chat.example.com
  PORT=4000 RELAY_LEAVE_ON_REJOIN=true chat serve`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadServer(config.ServerOptions{
			Host:      flagServeHost,
			Port:      flagServePort,
			StaticDir: flagServeStaticDir,
			Origins:   flagServeOrigins,
		})
		if err != nil {
			return err
		}
		logger := logging.Init(cfg.LogLevel, slog.LevelInfo)
		return server.Run(cmd.Context(), cfg, logger)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagServeHost, "host", "", "interface to listen on (env HOST)")
	serveCmd.Flags().IntVarP(&flagServePort, "port", "p", 0, "port to listen on (env PORT, default 3000)")
	serveCmd.Flags().StringVar(&flagServeStaticDir, "static-dir", "", "directory of static assets (env STATIC_DIR, default public)")
	serveCmd.Flags().StringVar(&flagServeOrigins, "origins", "", "comma separated allowed origins, * for any (env RELAY_ALLOWED_ORIGINS)")
}
