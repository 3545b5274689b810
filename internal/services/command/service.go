// Package command runs rendered backup commands through the system shell.
package command

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/fgeck/dbbackup/internal/models"
	"github.com/rs/zerolog"
)

// maxLoggedOutput caps how much command output ends up in a log line.
const maxLoggedOutput = 4096

// Service defines the interface for running backup commands.
type Service interface {
	Run(ctx context.Context, command string) (*models.CommandResult, error)
}

// CommandExecutor allows mocking exec.Command in tests.
type CommandExecutor interface {
	Execute(ctx context.Context, name string, args ...string) ([]byte, error)
}

// DefaultExecutor is the default command executor using os/exec.
type DefaultExecutor struct{}

// Execute runs a command and returns its combined output.
func (e *DefaultExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// Impl implements the command Service interface.
type Impl struct {
	executor CommandExecutor
	logger   zerolog.Logger
	shell    []string
}

// New creates a new command service.
func New(logger zerolog.Logger) *Impl {
	return NewWithExecutor(logger, &DefaultExecutor{})
}

// NewWithExecutor creates a new command service with a custom executor (for testing).
func NewWithExecutor(logger zerolog.Logger, executor CommandExecutor) *Impl {
	return &Impl{
		executor: executor,
		logger:   logger,
		shell:    defaultShell(),
	}
}

func defaultShell() []string {
	if runtime.GOOS == "windows" {
		return []string{"cmd", "/C"}
	}
	return []string{"/bin/sh", "-c"}
}

// Run executes command in the shell. A command that fails to start or exits
// non-zero is reported through the result's Error field.
func (s *Impl) Run(ctx context.Context, command string) (*models.CommandResult, error) {
	if strings.TrimSpace(command) == "" {
		return nil, fmt.Errorf("empty command")
	}

	start := time.Now()
	result := &models.CommandResult{Command: command}

	args := append(append([]string{}, s.shell[1:]...), command)
	output, err := s.executor.Execute(ctx, s.shell[0], args...)
	result.Output = string(output)
	result.Duration = time.Since(start)

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
		result.Error = fmt.Errorf("command failed: %w, output: %s", err, truncate(result.Output))
		return result, nil //nolint:nilerr // error is stored in result struct by design
	}

	s.logger.Debug().
		Dur("duration", result.Duration).
		Str("output", truncate(result.Output)).
		Msg("command completed")

	return result, nil
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxLoggedOutput {
		return s
	}
	return s[:maxLoggedOutput] + "..."
}
