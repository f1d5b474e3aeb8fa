package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Ambarees369/chat-blindado/internal/ui"
	"github.com/Ambarees369/chat-blindado/internal/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "chat",
	Short:   "Relay for end-to-end encrypted chat rooms",
	Long:    `chat runs and talks to a relay that brokers room membership and forwards public keys and encrypted messages between participants. The relay never sees plaintext: everything it forwards is opaque.`,
	Version: version.Version,
}

func init() {
	rootCmd.AddCommand(serveCmd, joinCmd, statsCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError(err.Error())
		stop()
		os.Exit(1)
	}
}
