// Package storage lists and removes backup files in a backup directory.
package storage

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Service defines the filesystem operations used by the backup runner.
type Service interface {
	EnsureDir(dir string) error
	List(dir string) ([]string, error)
	Size(path string) (int64, error)
	Remove(path string) error
}

// Impl implements the storage Service interface.
type Impl struct {
	fs     afero.Fs
	logger zerolog.Logger
}

// New creates a storage service backed by the OS filesystem.
func New(logger zerolog.Logger) *Impl {
	return NewWithFs(logger, afero.NewOsFs())
}

// NewWithFs creates a storage service over a custom filesystem (for testing).
func NewWithFs(logger zerolog.Logger, fs afero.Fs) *Impl {
	return &Impl{
		fs:     fs,
		logger: logger,
	}
}

// EnsureDir creates dir and its parents if needed.
func (s *Impl) EnsureDir(dir string) error {
	if err := s.fs.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}
	return nil
}

// List returns the names of the regular files in dir, sorted.
func (s *Impl) List(dir string) ([]string, error) {
	infos, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if !info.Mode().IsRegular() {
			continue
		}
		names = append(names, info.Name())
	}
	sort.Strings(names)

	s.logger.Debug().Str("dir", dir).Int("count", len(names)).Msg("backup directory listed")
	return names, nil
}

// Size returns the size of the file at path.
func (s *Impl) Size(path string) (int64, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return info.Size(), nil
}

// Remove deletes the file at path.
func (s *Impl) Remove(path string) error {
	if err := s.fs.Remove(filepath.Clean(path)); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	s.logger.Debug().Str("path", path).Msg("backup deleted")
	return nil
}
