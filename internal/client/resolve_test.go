package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveHost_LiteralIP(t *testing.T) {
	req := require.New(t)

	ip, err := resolveHost(context.Background(), "127.0.0.1")
	req.NoError(err)
	req.Equal("127.0.0.1", ip)

	ip, err = resolveHost(context.Background(), "::1")
	req.NoError(err)
	req.Equal("::1", ip)
}

func TestResolveHost_Localhost(t *testing.T) {
	ip, err := resolveHost(context.Background(), "localhost")
	require.NoError(t, err)
	require.Contains(t, []string{"127.0.0.1", "::1"}, ip)
}

func TestRaceResolvers_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := raceResolvers(ctx, "relay.invalid", []string{"192.0.2.1"})
	require.Error(t, err)
}
