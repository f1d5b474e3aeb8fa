package ui

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	prettytable "github.com/jedib0t/go-pretty/v6/table"

	"github.com/Ambarees369/chat-blindado/internal/relay"
)

// Fingerprint returns a short hex fingerprint of an opaque public key.
//
// It hashes with SHA-256 and truncates to 10 bytes (20 hex chars).
func Fingerprint(publicKey string) string {
	sum := sha256.Sum256([]byte(publicKey))
	return hex.EncodeToString(sum[:10])
}

// KeysView renders the existing-keys list of a room.
func KeysView(keys []relay.KeyEntry) string {
	if len(keys) == 0 {
		return MutedStyle.Render("No other participants yet")
	}

	rows := make([][]string, 0, len(keys))
	for i, k := range keys {
		rows = append(rows, []string{strconv.Itoa(i + 1), k.Username, Fingerprint(k.PublicKey)})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers("#", "User", "Key fingerprint").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})

	return tbl.Render()
}

// StatsView renders a relay snapshot.
func StatsView(s relay.Snapshot) string {
	t := prettytable.NewWriter()
	t.SetTitle("Relay stats")
	t.AppendHeader(prettytable.Row{"Metric", "Value"})
	t.AppendRows([]prettytable.Row{
		{"Rooms", s.Rooms},
		{"Participants", s.Participants},
		{"Connections", s.Connections},
	})
	t.SetStyle(prettytable.StyleRounded)
	return t.Render()
}

// RenderKeys prints KeysView.
func RenderKeys(keys []relay.KeyEntry) {
	fmt.Fprintln(Out, KeysView(keys))
}
