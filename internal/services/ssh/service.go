// Package ssh shuts a database host down over SSH once its backup is done.
package ssh

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/fgeck/dbbackup/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
)

// Service defines the interface for SSH operations.
type Service interface {
	Shutdown(ctx context.Context, cfg models.SSHShutdownConfig) (*models.SSHResult, error)
	TestConnection(ctx context.Context, cfg models.SSHShutdownConfig) (*models.SSHResult, error)
}

// SSHClient wraps ssh.Client for mocking.
type SSHClient interface {
	NewSession() (SSHSession, error)
	Close() error
}

// SSHSession wraps ssh.Session for mocking.
type SSHSession interface {
	CombinedOutput(cmd string) ([]byte, error)
	Close() error
}

// ClientFactory creates SSH clients.
type ClientFactory interface {
	NewClient(network, addr string, config *ssh.ClientConfig) (SSHClient, error)
}

// DefaultClientFactory is the default SSH client factory.
type DefaultClientFactory struct{}

// NewClient creates a new SSH client.
func (f *DefaultClientFactory) NewClient(network, addr string, config *ssh.ClientConfig) (SSHClient, error) {
	client, err := ssh.Dial(network, addr, config)
	if err != nil {
		return nil, err
	}
	return &defaultSSHClient{client: client}, nil
}

type defaultSSHClient struct {
	client *ssh.Client
}

func (c *defaultSSHClient) NewSession() (SSHSession, error) {
	session, err := c.client.NewSession()
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (c *defaultSSHClient) Close() error {
	return c.client.Close()
}

// Impl implements the SSH Service interface.
type Impl struct {
	clientFactory ClientFactory
	logger        zerolog.Logger
}

// New creates a new SSH service.
func New(logger zerolog.Logger) *Impl {
	return NewWithClientFactory(logger, &DefaultClientFactory{})
}

// NewWithClientFactory creates a new SSH service with a custom client factory (for testing).
func NewWithClientFactory(logger zerolog.Logger, factory ClientFactory) *Impl {
	return &Impl{
		clientFactory: factory,
		logger:        logger,
	}
}

func (s *Impl) buildConfig(cfg models.SSHShutdownConfig) (*ssh.ClientConfig, error) {
	key := cfg.PrivateKey
	if len(key) == 0 {
		if cfg.KeyPath == "" {
			return nil, fmt.Errorf("no private key provided")
		}
		var err error
		key, err = os.ReadFile(cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key from %s: %w", cfg.KeyPath, err)
		}
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return &ssh.ClientConfig{
		User:            cfg.Username,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // homelab environment
		Timeout:         30 * time.Second,
	}, nil
}

// ShutdownCommand returns the command that powers the host off.
func ShutdownCommand(cfg models.SSHShutdownConfig) string {
	if cfg.OS == "windows" {
		seconds := cfg.ShutdownDelay * 60
		if seconds == 0 {
			seconds = 60
		}
		return fmt.Sprintf("shutdown /s /t %d", seconds)
	}
	if cfg.ShutdownDelay == 0 {
		return "sudo shutdown -h now"
	}
	return fmt.Sprintf("sudo shutdown -h +%d", cfg.ShutdownDelay)
}

type dialResult struct {
	client SSHClient
	err    error
}

// run connects and executes cmd. Connection problems end up in result.Error
// with CommandRun false; the command's own error is returned separately.
func (s *Impl) run(ctx context.Context, cfg models.SSHShutdownConfig, cmd string) (*models.SSHResult, error) {
	result := &models.SSHResult{}

	sshConfig, err := s.buildConfig(cfg)
	if err != nil {
		result.Error = err
		return result, nil
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	dialed := make(chan dialResult, 1)
	go func() {
		client, err := s.clientFactory.NewClient("tcp", addr, sshConfig)
		dialed <- dialResult{client: client, err: err}
	}()

	var client SSHClient
	select {
	case <-ctx.Done():
		result.Error = ctx.Err()
		return result, nil
	case res := <-dialed:
		if res.err != nil {
			result.Error = fmt.Errorf("failed to connect: %w", res.err)
			return result, nil
		}
		client = res.client
	}
	defer func() { _ = client.Close() }()

	session, err := client.NewSession()
	if err != nil {
		result.Error = fmt.Errorf("failed to create session: %w", err)
		return result, nil
	}
	defer func() { _ = session.Close() }()

	s.logger.Debug().Str("host", cfg.Host).Str("command", cmd).Msg("executing remote command")

	output, cmdErr := session.CombinedOutput(cmd)
	result.Output = string(output)
	result.CommandRun = true

	return result, cmdErr
}

// Shutdown powers off the database host.
func (s *Impl) Shutdown(ctx context.Context, cfg models.SSHShutdownConfig) (*models.SSHResult, error) {
	s.logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("user", cfg.Username).
		Int("delay", cfg.ShutdownDelay).
		Msg("initiating remote shutdown")

	result, cmdErr := s.run(ctx, cfg, ShutdownCommand(cfg))
	if cmdErr != nil {
		// The host may drop the connection while shutting down.
		if ctx.Err() != nil {
			result.Error = ctx.Err()
		} else {
			s.logger.Warn().Err(cmdErr).Str("output", result.Output).Msg("shutdown command returned error (may be expected)")
		}
	}

	if result.CommandRun {
		s.logger.Info().Str("output", result.Output).Msg("shutdown command completed")
	}

	return result, nil
}

// TestConnection verifies SSH connectivity without shutting anything down.
func (s *Impl) TestConnection(ctx context.Context, cfg models.SSHShutdownConfig) (*models.SSHResult, error) {
	s.logger.Debug().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Msg("testing SSH connection")

	result, cmdErr := s.run(ctx, cfg, "echo OK")
	if cmdErr != nil {
		result.Error = fmt.Errorf("test command failed: %w", cmdErr)
	}

	return result, nil
}
