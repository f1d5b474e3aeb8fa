package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// fallbackResolvers are queried directly when the system resolver fails.
var fallbackResolvers = []string{
	"1.1.1.1",         // Cloudflare
	"1.0.0.1",         // Cloudflare
	"8.8.8.8",         // Google
	"8.8.4.4",         // Google
	"9.9.9.9",         // Quad9
	"149.112.112.112", // Quad9
}

const (
	localLookupTimeout  = 1 * time.Second
	remoteLookupTimeout = 2 * time.Second
)

// dialContext resolves the relay host with fallback and dials the result.
// It is plugged into the websocket dialer.
func dialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}

	ip, err := resolveHost(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("dns lookup failed: %w", err)
	}

	var d net.Dialer
	return d.DialContext(ctx, network, net.JoinHostPort(ip, port))
}

// resolveHost returns one address for host, preferring IPv4. Literal IPs are
// returned as-is. The system resolver goes first; if it fails the public
// resolvers are raced and the first answer wins.
func resolveHost(ctx context.Context, host string) (string, error) {
	if net.ParseIP(host) != nil {
		return host, nil
	}

	localCtx, cancel := context.WithTimeout(ctx, localLookupTimeout)
	ip, err := lookup(localCtx, net.DefaultResolver, host)
	cancel()
	if err == nil {
		return ip, nil
	}

	return raceResolvers(ctx, host, fallbackResolvers)
}

func raceResolvers(ctx context.Context, host string, servers []string) (string, error) {
	type result struct {
		ip  string
		err error
	}

	ctx, cancel := context.WithTimeout(ctx, remoteLookupTimeout)
	defer cancel()

	results := make(chan result, len(servers))
	for _, server := range servers {
		go func(server string) {
			ip, err := lookup(ctx, resolverFor(server), host)
			results <- result{ip: ip, err: err}
		}(server)
	}

	var errs []error
	for range servers {
		select {
		case res := <-results:
			if res.err == nil {
				return res.ip, nil
			}
			errs = append(errs, res.err)
		case <-ctx.Done():
			return "", fmt.Errorf("resolve %s: %w", host, ctx.Err())
		}
	}
	return "", fmt.Errorf("resolve %s: all %d resolvers failed: %w", host, len(servers), errors.Join(errs...))
}

// resolverFor forces lookups through server on port 53.
func resolverFor(server string) *net.Resolver {
	return &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, net.JoinHostPort(server, "53"))
		},
	}
}

func lookup(ctx context.Context, r *net.Resolver, host string) (string, error) {
	ips, err := r.LookupHost(ctx, host)
	if err != nil {
		return "", err
	}
	if len(ips) == 0 {
		return "", errors.New("no addresses returned")
	}
	for _, ip := range ips {
		if parsed := net.ParseIP(ip); parsed != nil && parsed.To4() != nil {
			return ip, nil
		}
	}
	return ips[0], nil
}
