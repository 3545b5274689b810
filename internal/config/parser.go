// Package config provides configuration file parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fgeck/dbbackup/internal/models"
	"gopkg.in/ini.v1"
)

// ConfigurationMissingError is returned when the configuration file does not
// exist.
type ConfigurationMissingError struct {
	Path string
}

func (e *ConfigurationMissingError) Error() string {
	return fmt.Sprintf("missing config file: %s", e.Path)
}

// Parser handles configuration file parsing.
type Parser struct {
	opts ini.LoadOptions
}

// NewParser creates a new configuration parser.
func NewParser() *Parser {
	return &Parser{
		opts: ini.LoadOptions{
			// passwords may contain '#' or ';'
			IgnoreInlineComment: true,
		},
	}
}

// LoadFile loads configuration from a file path.
func (p *Parser) LoadFile(path string) (*models.Config, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ConfigurationMissingError{Path: path}
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	f, err := ini.LoadSources(p.opts, path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return p.parse(f)
}

// LoadReader loads configuration from a string (useful for testing).
func (p *Parser) LoadReader(content string) (*models.Config, error) {
	f, err := ini.LoadSources(p.opts, []byte(content))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return p.parse(f)
}

func (p *Parser) parse(f *ini.File) (*models.Config, error) {
	cfg := &models.Config{
		Global: map[string]string{},
	}

	// Keys above the first section header behave like Global keys.
	for _, k := range f.Section(ini.DefaultSection).Keys() {
		cfg.Global[k.Name()] = k.Value()
	}

	for _, sec := range f.Sections() {
		switch sec.Name() {
		case ini.DefaultSection:
			continue
		case models.GlobalSection:
			for _, k := range sec.Keys() {
				cfg.Global[k.Name()] = k.Value()
			}
			continue
		}

		values := make(map[string]string, len(sec.Keys()))
		for _, k := range sec.Keys() {
			values[k.Name()] = k.Value()
		}
		cfg.Sections = append(cfg.Sections, models.Section{
			Name:     sec.Name(),
			Settings: values,
		})
	}

	return cfg, nil
}

// Validate checks the structure of the loaded configuration. Per-section
// settings are checked when the section is planned, so one broken section
// does not stop the others.
func Validate(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if len(cfg.Sections) == 0 {
		return fmt.Errorf("no backup sections configured")
	}

	for _, sec := range cfg.Sections {
		if strings.TrimSpace(sec.Name) == "" {
			return fmt.Errorf("section name must not be empty")
		}
	}

	return nil
}
