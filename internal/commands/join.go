package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ambarees369/chat-blindado/internal/client"
	"github.com/Ambarees369/chat-blindado/internal/config"
	"github.com/Ambarees369/chat-blindado/internal/relay"
	"github.com/Ambarees369/chat-blindado/internal/roomname"
	"github.com/Ambarees369/chat-blindado/internal/ui"
)

var (
	flagJoinName   string
	flagJoinKey    string
	flagJoinServer string
	flagJoinCodec  string
)

var joinCmd = &cobra.Command{
	Use:   "join [room]",
	Short: "Join a room and watch its traffic",
	Long: `Join a room with a display name and a public key, print the keys
and events the relay sends, and relay every line read from stdin as an
encrypted-message payload.

Without a room argument a memorable room name is generated; share it with
the people you want to talk to.

Nothing is encrypted here: lines are forwarded exactly as typed, so pipe in
ciphertext produced by your own tooling. A line whose frame would exceed the
relay's 64 KB read limit is skipped with a warning.

Examples:
  chat join --name alice --key @alice.pub
  chat join lobby --name alice --key @alice.pub
  encrypt-tool | chat join lobby --name bob --key "$(cat bob.pub)" --codec msgpack`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadClient(config.ClientOptions{
			ServerURL: flagJoinServer,
			Codec:     flagJoinCodec,
		})
		if err != nil {
			return err
		}
		publicKey, err := readPublicKey(flagJoinKey)
		if err != nil {
			return err
		}
		var room string
		if len(args) == 1 {
			room = args[0]
		} else {
			room = roomname.Generate()
			ui.PrintInfof("%s New room: %s", ui.IconRoom, ui.TitleStyle.Render(room))
		}
		return joinRoom(cmd.Context(), cfg, room, flagJoinName, publicKey, cmd.InOrStdin())
	},
}

func init() {
	joinCmd.Flags().StringVarP(&flagJoinName, "name", "n", "", "display name shown to the room")
	joinCmd.Flags().StringVarP(&flagJoinKey, "key", "k", "", "public key, or @path to read it from a file")
	joinCmd.Flags().StringVarP(&flagJoinServer, "server", "s", "", "relay websocket URL (env CHAT_SERVER_URL)")
	joinCmd.Flags().StringVar(&flagJoinCodec, "codec", "", "wire codec: json or msgpack (env CHAT_CODEC)")
	joinCmd.MarkFlagRequired("name")
}

// readPublicKey returns value, or the contents of the file when value starts
// with @. The key itself is opaque and only trimmed of surrounding whitespace
// when read from a file.
func readPublicKey(value string) (string, error) {
	path, ok := strings.CutPrefix(value, "@")
	if !ok {
		return value, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read public key: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func codecByName(name string) relay.Codec {
	if name == "msgpack" {
		return relay.Msgpack
	}
	return relay.JSON
}

func joinRoom(ctx context.Context, cfg *config.Client, room, name, publicKey string, in io.Reader) error {
	c := client.NewClient(cfg.ServerURL, codecByName(cfg.Codec))

	sp := ui.NewConnectionSpinner("Connecting to " + cfg.ServerURL)
	sp.Start()
	if err := c.Connect(ctx); err != nil {
		sp.Error("Connection failed")
		return err
	}
	sp.Success(fmt.Sprintf("Connected (%s)", cfg.Codec))
	defer c.Close()

	handler := client.NewHandler(c)
	go handler.Start()

	if err := c.Join(room, name, publicKey); err != nil {
		return err
	}
	ui.PrintInfof("%s Joined %s as %s", ui.IconRoom, ui.TitleStyle.Render(room), ui.UserStyle.Render(name))

	sendErr := make(chan error, 1)
	go func() {
		sendErr <- pumpStdin(c, in, room, name)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-sendErr:
			if err != nil {
				return err
			}
			// stdin is done; keep listening until interrupted.
			sendErr = nil

		case evt, ok := <-handler.Events:
			if !ok {
				return client.NewError("listen", errors.New("relay closed the connection"))
			}
			if evt.Type == relay.EventExistingKeys {
				ui.RenderKeys(evt.ExistingKeys)
				continue
			}
			fmt.Fprintln(ui.Out, ui.EventLine(evt))
		}
	}
}

// maxLineSize bounds a single stdin line. Lines that fit here but not in a
// relay frame are skipped, longer ones end the pump.
const maxLineSize = 4 * relay.DefaultMaxMessageSize

// pumpStdin relays each non-empty line of in as an encrypted message.
func pumpStdin(c *client.Client, in io.Reader, room, name string) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		err := c.SendEncrypted(room, name, line, time.Now())
		if errors.Is(err, client.ErrFrameTooLarge) {
			ui.PrintWarning(fmt.Sprintf("Skipped a %d byte line: %v", len(line), err))
			continue
		}
		if err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	return nil
}
