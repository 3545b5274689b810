package runner

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fgeck/dbbackup/internal/config"
	"github.com/fgeck/dbbackup/internal/models"
	"github.com/fgeck/dbbackup/internal/retention"
	"github.com/fgeck/dbbackup/internal/settings"
)

const pathSeparator = string(filepath.Separator)

// Plan is a fully resolved backup section, ready to execute.
type Plan struct {
	Section    string
	Resolver   *settings.Resolver
	BackupPath string // always ends in a path separator
	FileBase   string
	Extension  string
	Location   *time.Location
	FileName   string
	FilePath   string
	Command    string
	Policy     retention.Policy
	Wake       *models.WOLConfig
	Shutdown   *models.SSHShutdownConfig
	Warnings   []string // settings that were ignored
}

// Matcher returns the matcher for this section's backup files.
func (p *Plan) Matcher() *retention.Matcher {
	return retention.NewMatcher(p.FileBase, p.Extension, p.Location)
}

// NewPlan resolves the settings of sec for a run started at now. The
// computed values section, timestamp, backup_filename and backup_file_path
// are available to every other setting.
func NewPlan(global map[string]string, sec models.Section, now time.Time) (*Plan, error) {
	r := settings.New(config.SectionSettings(global, sec.Settings)).
		With(config.KeySection, sec.Name)

	p := &Plan{Section: sec.Name, Location: time.Local}

	tz, err := r.ResolveOr(config.KeyTimezone, "")
	if err != nil {
		return nil, err
	}
	if tz = strings.TrimSpace(tz); tz != "" {
		if p.Location, err = time.LoadLocation(tz); err != nil {
			return nil, fmt.Errorf("%s: %w", config.KeyTimezone, err)
		}
	}
	stamp := now.In(p.Location)
	r = r.With(config.KeyTimestamp, stamp.Format(retention.TimestampLayout))

	if !r.Has(config.KeyBackupPath) {
		return nil, fmt.Errorf("%s is required", config.KeyBackupPath)
	}
	if p.BackupPath, err = r.Resolve(config.KeyBackupPath); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.BackupPath) == "" {
		return nil, fmt.Errorf("%s is empty", config.KeyBackupPath)
	}
	if !strings.HasSuffix(p.BackupPath, "/") && !strings.HasSuffix(p.BackupPath, `\`) {
		p.BackupPath += pathSeparator
	}

	if p.Extension, err = r.ResolveOr(config.KeyFileExtension, ""); err != nil {
		return nil, err
	}
	if p.FileBase, err = r.ResolveOr(config.KeyFileBase, ""); err != nil {
		return nil, err
	}
	if p.FileBase == "" {
		p.FileBase = config.DefaultFileBase(sec.Name)
	}
	if p.FileBase == "" {
		return nil, fmt.Errorf("%s is required when the section name has no letters", config.KeyFileBase)
	}

	p.FileName = retention.FileName(p.FileBase, p.Extension, stamp)
	p.FilePath = p.BackupPath + p.FileName
	r = r.With(config.KeyBackupFileName, p.FileName).
		With(config.KeyBackupFilePath, p.FilePath)

	if p.Command, err = r.Resolve(config.KeyCommand); err != nil {
		return nil, err
	}

	limits := []struct {
		key string
		dst *retention.Limit
	}{
		{config.KeyKeepYearly, &p.Policy.Yearly},
		{config.KeyKeepMonthly, &p.Policy.Monthly},
		{config.KeyKeepWeekly, &p.Policy.Weekly},
		{config.KeyKeepDaily, &p.Policy.Daily},
	}
	for _, l := range limits {
		v, err := r.ResolveWildcardNumeric(l.key, "")
		if err != nil {
			return nil, err
		}
		if v == "" {
			raw, err := r.ResolveOr(l.key, "")
			if err != nil {
				return nil, err
			}
			if raw = strings.TrimSpace(raw); raw != "" {
				p.Warnings = append(p.Warnings,
					fmt.Sprintf("%s = %q is neither a number nor %q, limit disabled", l.key, raw, settings.Wildcard))
			}
		}
		*l.dst = retention.ParseLimit(v)
	}

	if p.Wake, err = config.WOLConfig(r); err != nil {
		return nil, err
	}
	if p.Shutdown, err = config.SSHShutdownConfig(r); err != nil {
		return nil, err
	}

	p.Resolver = r
	return p, nil
}
