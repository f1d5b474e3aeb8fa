package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ambarees369/chat-blindado/internal/client"
	"github.com/Ambarees369/chat-blindado/internal/config"
	"github.com/Ambarees369/chat-blindado/internal/relay"
	"github.com/Ambarees369/chat-blindado/internal/ui"
)

var flagStatsServer string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how many rooms and participants a relay holds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadClient(config.ClientOptions{ServerURL: flagStatsServer})
		if err != nil {
			return err
		}
		snapshot, err := fetchStats(cmd.Context(), cfg.StatsURL())
		if err != nil {
			return err
		}
		fmt.Fprintln(ui.Out, ui.StatsView(snapshot))
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVarP(&flagStatsServer, "server", "s", "", "relay websocket URL (env CHAT_SERVER_URL)")
}

func fetchStats(ctx context.Context, url string) (relay.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return relay.Snapshot{}, client.NewError("build stats request", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return relay.Snapshot{}, client.NewError("fetch stats", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return relay.Snapshot{}, client.WrapError("fetch stats", fmt.Errorf("unexpected status %d", resp.StatusCode), url)
	}

	var snapshot relay.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return relay.Snapshot{}, client.NewError("decode stats", err)
	}
	return snapshot, nil
}
