// Package wol wakes a sleeping database host before its backup runs.
package wol

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/fgeck/dbbackup/internal/models"
	"github.com/mdlayher/wol"
	"github.com/rs/zerolog"
)

// Service defines the interface for Wake-on-LAN operations.
type Service interface {
	Wake(ctx context.Context, cfg models.WOLConfig) (*models.WOLResult, error)
}

// Client wraps the wol library for mocking.
type Client interface {
	Wake(broadcastIP string, mac net.HardwareAddr) error
}

// HTTPClient allows mocking HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Dialer allows mocking TCP readiness checks.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// DefaultClient is the default implementation using mdlayher/wol.
type DefaultClient struct{}

// Wake sends a magic packet to the specified MAC address.
func (c *DefaultClient) Wake(broadcastIP string, mac net.HardwareAddr) error {
	client, err := wol.NewClient()
	if err != nil {
		return fmt.Errorf("failed to create WOL client: %w", err)
	}
	defer func() { _ = client.Close() }()

	ip := net.ParseIP(broadcastIP)
	if ip == nil {
		return fmt.Errorf("invalid broadcast IP: %s", broadcastIP)
	}

	if err := client.Wake(net.JoinHostPort(ip.String(), "9"), mac); err != nil {
		return fmt.Errorf("failed to send WOL packet: %w", err)
	}

	return nil
}

// Impl implements the WOL Service interface.
type Impl struct {
	wolClient  Client
	httpClient HTTPClient
	dialer     Dialer
	logger     zerolog.Logger
}

// New creates a new WOL service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{
		wolClient: &DefaultClient{},
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		dialer: &net.Dialer{Timeout: 5 * time.Second},
		logger: logger,
	}
}

// NewWithClients creates a new WOL service with custom clients (for testing).
func NewWithClients(logger zerolog.Logger, wolClient Client, httpClient HTTPClient, dialer Dialer) *Impl {
	return &Impl{
		wolClient:  wolClient,
		httpClient: httpClient,
		dialer:     dialer,
		logger:     logger,
	}
}

// Wake sends a WOL packet and, when a poll URL is set, waits until the host
// answers on it. tcp://host:port URLs are checked with a plain connect, which
// suits database ports; http(s) URLs accept any HTTP response.
func (s *Impl) Wake(ctx context.Context, cfg models.WOLConfig) (*models.WOLResult, error) {
	result := &models.WOLResult{}
	start := time.Now()

	mac, err := net.ParseMAC(cfg.MACAddress)
	if err != nil {
		result.Error = fmt.Errorf("invalid MAC address %q: %w", cfg.MACAddress, err)
		return result, nil
	}

	var probe func(context.Context) error
	if cfg.PollURL != "" {
		probe, err = s.probeFor(cfg.PollURL)
		if err != nil {
			result.Error = err
			return result, nil
		}
	}

	s.logger.Info().
		Str("mac", cfg.MACAddress).
		Str("broadcast", cfg.BroadcastIP).
		Msg("sending WOL packet")

	if err := s.wolClient.Wake(cfg.BroadcastIP, mac); err != nil {
		result.Error = err
		return result, nil //nolint:nilerr // error is stored in result struct by design
	}
	result.PacketSent = true

	if probe == nil {
		result.WaitDuration = time.Since(start)
		result.TargetReady = true
		return result, nil
	}

	s.logger.Info().
		Str("url", cfg.PollURL).
		Dur("timeout", cfg.Timeout).
		Msg("waiting for database host")

	if err := s.waitForTarget(ctx, cfg, probe); err != nil {
		result.WaitDuration = time.Since(start)
		result.Error = err
		return result, nil //nolint:nilerr // error is stored in result struct by design
	}

	if cfg.StabilizeWait > 0 {
		s.logger.Debug().Dur("wait", cfg.StabilizeWait).Msg("waiting for database host to settle")
		select {
		case <-ctx.Done():
			result.WaitDuration = time.Since(start)
			result.Error = ctx.Err()
			return result, nil
		case <-time.After(cfg.StabilizeWait):
		}
	}

	result.TargetReady = true
	result.WaitDuration = time.Since(start)

	s.logger.Info().Dur("duration", result.WaitDuration).Msg("database host is ready")

	return result, nil
}

func (s *Impl) probeFor(rawURL string) (func(context.Context) error, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid poll URL %q: %w", rawURL, err)
	}

	switch u.Scheme {
	case "tcp":
		if u.Port() == "" {
			return nil, fmt.Errorf("poll URL %q needs a port", rawURL)
		}
		return func(ctx context.Context) error {
			conn, err := s.dialer.DialContext(ctx, "tcp", u.Host)
			if err != nil {
				return err
			}
			return conn.Close()
		}, nil
	case "http", "https":
		return func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if err != nil {
				return err
			}
			resp, err := s.httpClient.Do(req)
			if err != nil {
				return err
			}
			return resp.Body.Close()
		}, nil
	default:
		return nil, fmt.Errorf("unsupported poll URL scheme %q", u.Scheme)
	}
}

func (s *Impl) waitForTarget(ctx context.Context, cfg models.WOLConfig, probe func(context.Context) error) error {
	deadline := time.Now().Add(cfg.Timeout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for database host at %s", cfg.PollURL)
		}

		err := probe(ctx)
		if err == nil {
			return nil
		}

		s.logger.Debug().Err(err).Msg("database host not ready yet")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.PollInterval):
		}
	}
}
