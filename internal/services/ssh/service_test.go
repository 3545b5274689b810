package ssh

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fgeck/dbbackup/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

type mockSSHSession struct {
	combinedOutputFunc func(cmd string) ([]byte, error)
	closeFunc          func() error
}

func (m *mockSSHSession) CombinedOutput(cmd string) ([]byte, error) {
	if m.combinedOutputFunc != nil {
		return m.combinedOutputFunc(cmd)
	}
	return []byte(""), nil
}

func (m *mockSSHSession) Close() error {
	if m.closeFunc != nil {
		return m.closeFunc()
	}
	return nil
}

type mockSSHClient struct {
	newSessionFunc func() (SSHSession, error)
	closeFunc      func() error
}

func (m *mockSSHClient) NewSession() (SSHSession, error) {
	if m.newSessionFunc != nil {
		return m.newSessionFunc()
	}
	return &mockSSHSession{}, nil
}

func (m *mockSSHClient) Close() error {
	if m.closeFunc != nil {
		return m.closeFunc()
	}
	return nil
}

type mockClientFactory struct {
	newClientFunc func(network, addr string, config *ssh.ClientConfig) (SSHClient, error)
}

func (m *mockClientFactory) NewClient(network, addr string, config *ssh.ClientConfig) (SSHClient, error) {
	if m.newClientFunc != nil {
		return m.newClientFunc(network, addr, config)
	}
	return &mockSSHClient{}, nil
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func generateTestKey(t *testing.T) []byte {
	t.Helper()

	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	block, err := ssh.MarshalPrivateKey(privateKey, "")
	require.NoError(t, err)

	return pem.EncodeToMemory(block)
}

func dbHostConfig(t *testing.T) models.SSHShutdownConfig {
	t.Helper()
	return models.SSHShutdownConfig{
		Host:          "db01.lan",
		Port:          22,
		Username:      "backup",
		PrivateKey:    generateTestKey(t),
		ShutdownDelay: 1,
		OS:            "linux",
	}
}

// sessionRecorder returns a factory whose sessions record the executed command.
func sessionRecorder(executed *string, addr *string) *mockClientFactory {
	return &mockClientFactory{
		newClientFunc: func(network, a string, config *ssh.ClientConfig) (SSHClient, error) {
			if addr != nil {
				*addr = a
			}
			return &mockSSHClient{
				newSessionFunc: func() (SSHSession, error) {
					return &mockSSHSession{
						combinedOutputFunc: func(cmd string) ([]byte, error) {
							*executed = cmd
							return []byte("Shutdown scheduled"), nil
						},
					}, nil
				},
			}, nil
		},
	}
}

func TestShutdown_Success(t *testing.T) {
	var executed, addr string
	svc := NewWithClientFactory(testLogger(), sessionRecorder(&executed, &addr))

	result, err := svc.Shutdown(context.Background(), dbHostConfig(t))

	require.NoError(t, err)
	assert.True(t, result.CommandRun)
	assert.Nil(t, result.Error)
	assert.Equal(t, "sudo shutdown -h +1", executed)
	assert.Equal(t, "db01.lan:22", addr)
	assert.Equal(t, "Shutdown scheduled", result.Output)
}

func TestShutdown_Immediate(t *testing.T) {
	var executed string
	svc := NewWithClientFactory(testLogger(), sessionRecorder(&executed, nil))

	cfg := dbHostConfig(t)
	cfg.ShutdownDelay = 0

	result, err := svc.Shutdown(context.Background(), cfg)

	require.NoError(t, err)
	assert.True(t, result.CommandRun)
	assert.Equal(t, "sudo shutdown -h now", executed)
}

func TestShutdown_Windows(t *testing.T) {
	var executed string
	svc := NewWithClientFactory(testLogger(), sessionRecorder(&executed, nil))

	cfg := dbHostConfig(t)
	cfg.OS = "windows"
	cfg.ShutdownDelay = 2

	_, err := svc.Shutdown(context.Background(), cfg)

	require.NoError(t, err)
	assert.Equal(t, "shutdown /s /t 120", executed)
}

func TestShutdownCommand(t *testing.T) {
	tests := []struct {
		name string
		cfg  models.SSHShutdownConfig
		want string
	}{
		{"linux delayed", models.SSHShutdownConfig{OS: "linux", ShutdownDelay: 5}, "sudo shutdown -h +5"},
		{"linux now", models.SSHShutdownConfig{OS: "linux"}, "sudo shutdown -h now"},
		{"empty os is linux", models.SSHShutdownConfig{ShutdownDelay: 3}, "sudo shutdown -h +3"},
		{"windows zero delay", models.SSHShutdownConfig{OS: "windows"}, "shutdown /s /t 60"},
		{"windows delayed", models.SSHShutdownConfig{OS: "windows", ShutdownDelay: 10}, "shutdown /s /t 600"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShutdownCommand(tt.cfg))
		})
	}
}

func TestShutdown_ConnectionFailed(t *testing.T) {
	factory := &mockClientFactory{
		newClientFunc: func(network, addr string, config *ssh.ClientConfig) (SSHClient, error) {
			return nil, errors.New("connection refused")
		},
	}

	svc := NewWithClientFactory(testLogger(), factory)

	result, err := svc.Shutdown(context.Background(), dbHostConfig(t))

	require.NoError(t, err)
	assert.False(t, result.CommandRun)
	require.Error(t, result.Error)
	assert.Contains(t, result.Error.Error(), "failed to connect")
}

func TestShutdown_SessionFailed(t *testing.T) {
	closed := false
	factory := &mockClientFactory{
		newClientFunc: func(network, addr string, config *ssh.ClientConfig) (SSHClient, error) {
			return &mockSSHClient{
				newSessionFunc: func() (SSHSession, error) {
					return nil, errors.New("session error")
				},
				closeFunc: func() error {
					closed = true
					return nil
				},
			}, nil
		},
	}

	svc := NewWithClientFactory(testLogger(), factory)

	result, err := svc.Shutdown(context.Background(), dbHostConfig(t))

	require.NoError(t, err)
	assert.False(t, result.CommandRun)
	require.Error(t, result.Error)
	assert.Contains(t, result.Error.Error(), "failed to create session")
	assert.True(t, closed, "client is closed after a session error")
}

func TestShutdown_DroppedConnectionIsTolerated(t *testing.T) {
	factory := &mockClientFactory{
		newClientFunc: func(network, addr string, config *ssh.ClientConfig) (SSHClient, error) {
			return &mockSSHClient{
				newSessionFunc: func() (SSHSession, error) {
					return &mockSSHSession{
						combinedOutputFunc: func(cmd string) ([]byte, error) {
							return nil, errors.New("wait: remote command exited without exit status")
						},
					}, nil
				},
			}, nil
		},
	}

	svc := NewWithClientFactory(testLogger(), factory)

	result, err := svc.Shutdown(context.Background(), dbHostConfig(t))

	require.NoError(t, err)
	assert.True(t, result.CommandRun)
	assert.Nil(t, result.Error)
}

func TestShutdown_NoPrivateKey(t *testing.T) {
	svc := NewWithClientFactory(testLogger(), &mockClientFactory{})

	cfg := dbHostConfig(t)
	cfg.PrivateKey = nil

	result, err := svc.Shutdown(context.Background(), cfg)

	require.NoError(t, err)
	require.Error(t, result.Error)
	assert.Contains(t, result.Error.Error(), "no private key provided")
}

func TestShutdown_InvalidPrivateKey(t *testing.T) {
	svc := NewWithClientFactory(testLogger(), &mockClientFactory{})

	cfg := dbHostConfig(t)
	cfg.PrivateKey = []byte("not a key")

	result, err := svc.Shutdown(context.Background(), cfg)

	require.NoError(t, err)
	require.Error(t, result.Error)
	assert.Contains(t, result.Error.Error(), "failed to parse private key")
}

func TestShutdown_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	factory := &mockClientFactory{
		newClientFunc: func(network, addr string, config *ssh.ClientConfig) (SSHClient, error) {
			<-release
			return &mockSSHClient{}, nil
		},
	}

	svc := NewWithClientFactory(testLogger(), factory)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := svc.Shutdown(ctx, dbHostConfig(t))

	require.NoError(t, err)
	assert.False(t, result.CommandRun)
	assert.Equal(t, context.Canceled, result.Error)
}

func TestTestConnection_Success(t *testing.T) {
	var executed string
	factory := &mockClientFactory{
		newClientFunc: func(network, addr string, config *ssh.ClientConfig) (SSHClient, error) {
			return &mockSSHClient{
				newSessionFunc: func() (SSHSession, error) {
					return &mockSSHSession{
						combinedOutputFunc: func(cmd string) ([]byte, error) {
							executed = cmd
							return []byte("OK\n"), nil
						},
					}, nil
				},
			}, nil
		},
	}

	svc := NewWithClientFactory(testLogger(), factory)

	result, err := svc.TestConnection(context.Background(), dbHostConfig(t))

	require.NoError(t, err)
	assert.True(t, result.CommandRun)
	assert.Nil(t, result.Error)
	assert.Equal(t, "echo OK", executed)
	assert.Equal(t, "OK\n", result.Output)
}

func TestTestConnection_CommandFailed(t *testing.T) {
	factory := &mockClientFactory{
		newClientFunc: func(network, addr string, config *ssh.ClientConfig) (SSHClient, error) {
			return &mockSSHClient{
				newSessionFunc: func() (SSHSession, error) {
					return &mockSSHSession{
						combinedOutputFunc: func(cmd string) ([]byte, error) {
							return nil, errors.New("permission denied")
						},
					}, nil
				},
			}, nil
		},
	}

	svc := NewWithClientFactory(testLogger(), factory)

	result, err := svc.TestConnection(context.Background(), dbHostConfig(t))

	require.NoError(t, err)
	require.Error(t, result.Error)
	assert.Contains(t, result.Error.Error(), "test command failed")
}

func TestBuildConfig_KeyFromPath(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(keyPath, generateTestKey(t), 0o600))

	svc := NewWithClientFactory(testLogger(), &mockClientFactory{})

	cfg, err := svc.buildConfig(models.SSHShutdownConfig{Username: "backup", KeyPath: keyPath})

	require.NoError(t, err)
	assert.Equal(t, "backup", cfg.User)
	assert.Len(t, cfg.Auth, 1)
}

func TestBuildConfig_KeyPathNotFound(t *testing.T) {
	svc := NewWithClientFactory(testLogger(), &mockClientFactory{})

	_, err := svc.buildConfig(models.SSHShutdownConfig{KeyPath: "/nonexistent/id_ed25519"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read private key")
}
