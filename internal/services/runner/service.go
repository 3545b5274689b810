// Package runner orchestrates the backup workflow.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fgeck/dbbackup/internal/config"
	"github.com/fgeck/dbbackup/internal/models"
	"github.com/fgeck/dbbackup/internal/retention"
	"github.com/fgeck/dbbackup/internal/services/command"
	"github.com/fgeck/dbbackup/internal/services/metrics"
	"github.com/fgeck/dbbackup/internal/services/ssh"
	"github.com/fgeck/dbbackup/internal/services/storage"
	"github.com/fgeck/dbbackup/internal/services/telegram"
	"github.com/fgeck/dbbackup/internal/services/wol"
	"github.com/fgeck/dbbackup/internal/settings"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Steps reported in SectionResult.FailedStep.
const (
	StepResolve  = "resolve"
	StepWake     = "wake"
	StepCommand  = "command"
	StepPrune    = "prune"
	StepShutdown = "shutdown"
)

// Service defines the interface for the backup runner.
type Service interface {
	Run(ctx context.Context, cfg *models.Config, opts Options) (models.RunSummary, error)
}

// Options control a single run.
type Options struct {
	// DryRun prints what would happen without executing commands, deleting
	// files or touching hosts.
	DryRun bool
	// MetricsFile, when set, receives a Prometheus textfile after the run.
	MetricsFile string
	// Out receives the command and verdict lines. Defaults to os.Stdout.
	Out io.Writer
}

// Impl implements the runner Service interface.
type Impl struct {
	commandSvc  command.Service
	storageSvc  storage.Service
	wolSvc      wol.Service
	sshSvc      ssh.Service
	telegramSvc telegram.Service
	metricsSvc  metrics.Service
	logger      zerolog.Logger
	now         func() time.Time
}

// New creates a new runner service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{
		commandSvc:  command.New(logger),
		storageSvc:  storage.New(logger),
		wolSvc:      wol.New(logger),
		sshSvc:      ssh.New(logger),
		telegramSvc: telegram.New(logger),
		metricsSvc:  metrics.New(logger),
		logger:      logger,
		now:         time.Now,
	}
}

// NewWithServices creates a new runner service with custom services (for testing).
func NewWithServices(
	logger zerolog.Logger,
	commandSvc command.Service,
	storageSvc storage.Service,
	wolSvc wol.Service,
	sshSvc ssh.Service,
	telegramSvc telegram.Service,
	metricsSvc metrics.Service,
	now func() time.Time,
) *Impl {
	return &Impl{
		commandSvc:  commandSvc,
		storageSvc:  storageSvc,
		wolSvc:      wolSvc,
		sshSvc:      sshSvc,
		telegramSvc: telegramSvc,
		metricsSvc:  metricsSvc,
		logger:      logger,
		now:         now,
	}
}

// Run processes every section of cfg in order. A failing section does not
// stop the ones after it; the returned error reports how many failed.
func (s *Impl) Run(ctx context.Context, cfg *models.Config, opts Options) (models.RunSummary, error) {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	startTime := s.now()
	summary := models.RunSummary{
		RunID:     uuid.NewString(),
		StartTime: startTime,
		DryRun:    opts.DryRun,
	}
	summary.Host, _ = os.Hostname()

	logger := s.logger.With().Str("run_id", summary.RunID).Logger()
	logger.Info().
		Int("sections", len(cfg.Sections)).
		Bool("dry_run", opts.DryRun).
		Msg("starting backup run")

	for _, sec := range cfg.Sections {
		if ctx.Err() != nil {
			summary.Sections = append(summary.Sections, models.SectionResult{
				Name:       sec.Name,
				FailedStep: StepResolve,
				Error:      ctx.Err(),
			})
			continue
		}
		result := s.runSection(ctx, logger, cfg.Global, sec, startTime, opts)
		summary.Sections = append(summary.Sections, result)
	}

	summary.Duration = s.now().Sub(startTime)

	s.notify(ctx, logger, cfg, summary)

	if opts.MetricsFile != "" {
		s.metricsSvc.Record(summary)
		if err := s.metricsSvc.WriteTextfile(opts.MetricsFile); err != nil {
			logger.Error().Err(err).Str("path", opts.MetricsFile).Msg("failed to write metrics")
		}
	}

	failed := summary.Failed()
	if len(failed) > 0 {
		names := make([]string, 0, len(failed))
		for _, r := range failed {
			names = append(names, r.Name)
		}
		logger.Error().
			Strs("failed", names).
			Dur("duration", summary.Duration).
			Msg("backup run completed with failures")
		return summary, fmt.Errorf("%d of %d sections failed: %s", len(failed), len(summary.Sections), strings.Join(names, ", "))
	}

	logger.Info().
		Dur("duration", summary.Duration).
		Msg("backup run completed successfully")

	return summary, nil
}

//nolint:gocognit // section workflow has multiple steps by design
func (s *Impl) runSection(
	ctx context.Context,
	logger zerolog.Logger,
	global map[string]string,
	sec models.Section,
	now time.Time,
	opts Options,
) models.SectionResult {
	start := s.now()
	result := models.SectionResult{Name: sec.Name}
	logger = logger.With().Str("section", sec.Name).Logger()

	fail := func(step string, err error) models.SectionResult {
		result.FailedStep = step
		result.Error = err
		result.Duration = s.now().Sub(start)
		logger.Error().Err(err).Str("step", step).Msg("section failed")
		return result
	}

	plan, err := NewPlan(global, sec, now)
	if err != nil {
		return fail(StepResolve, err)
	}
	result.Command = plan.Command
	result.BackupFile = plan.FileName
	for _, w := range plan.Warnings {
		logger.Warn().Msg(w)
	}

	if opts.DryRun {
		_, _ = fmt.Fprintf(opts.Out, "[%s]\n     ", sec.Name)
	}
	_, _ = fmt.Fprintf(opts.Out, "Run Command: %s\n", plan.Command)
	if opts.DryRun {
		printSettings(opts.Out, plan)
	}

	if plan.Wake != nil && !opts.DryRun {
		if err := s.runWake(ctx, logger, plan.Wake); err != nil {
			return fail(StepWake, err)
		}
	}

	// The shutdown hook runs once the host was reachable, even when the
	// backup itself failed.
	shutdown := func() {
		if plan.Shutdown == nil || opts.DryRun {
			return
		}
		err := s.runShutdown(ctx, logger, plan.Shutdown)
		if err == nil {
			return
		}
		logger.Error().Err(err).Msg("shutdown hook failed")
		if result.Error == nil {
			result.FailedStep = StepShutdown
			result.Error = err
		}
	}

	if !opts.DryRun {
		if err := s.runCommand(ctx, logger, plan, &result); err != nil {
			fail(StepCommand, err)
			shutdown()
			return result
		}
	}

	if err := s.prune(logger, plan, &result, now, opts); err != nil {
		fail(StepPrune, err)
		shutdown()
		return result
	}

	shutdown()
	result.Duration = s.now().Sub(start)

	if result.Error == nil {
		logger.Info().
			Str("file", result.BackupFile).
			Int64("size", result.BackupSize).
			Int("kept", result.FilesKept).
			Int("deleted", result.FilesDeleted).
			Dur("duration", result.Duration).
			Msg("section completed")
	}

	return result
}

func (s *Impl) runCommand(ctx context.Context, logger zerolog.Logger, plan *Plan, result *models.SectionResult) error {
	if err := s.storageSvc.EnsureDir(plan.BackupPath); err != nil {
		return err
	}

	logger.Info().Str("file", plan.FilePath).Msg("running backup command")

	res, err := s.commandSvc.Run(ctx, plan.Command)
	if err != nil {
		return err
	}
	if res.Error != nil {
		return res.Error
	}

	size, err := s.storageSvc.Size(plan.FilePath)
	if err != nil {
		// Commands may write elsewhere; the size is informational.
		logger.Warn().Err(err).Msg("backup file not found after command")
		return nil
	}
	result.BackupSize = size
	return nil
}

func (s *Impl) prune(logger zerolog.Logger, plan *Plan, result *models.SectionResult, now time.Time, opts Options) error {
	names, err := s.storageSvc.List(plan.BackupPath)
	if err != nil {
		if opts.DryRun && errors.Is(err, os.ErrNotExist) {
			names = nil
		} else {
			return err
		}
	}

	others := names[:0:0]
	for _, name := range names {
		if name != plan.FileName {
			others = append(others, name)
		}
	}

	candidates, malformed := plan.Matcher().Candidates(others, now)
	for _, err := range malformed {
		var mte *retention.MalformedTimestampError
		if errors.As(err, &mte) {
			result.Skipped = append(result.Skipped, mte.Name)
		}
		logger.Warn().Err(err).Msg("skipping backup file")
	}

	for _, d := range retention.Evaluate(candidates, plan.Policy) {
		verdict := models.FileVerdict{
			Name:      d.Name,
			AgeYears:  d.Age.Years,
			AgeMonths: d.Age.Months,
			AgeWeeks:  d.Age.Weeks,
			AgeDays:   d.Age.Days,
			Keep:      d.Keep(),
		}
		for _, r := range d.Reasons {
			verdict.Reasons = append(verdict.Reasons, string(r))
		}

		_, _ = fmt.Fprintln(opts.Out, verdictLine(verdict))

		switch {
		case verdict.Keep:
			result.FilesKept++
		case opts.DryRun:
		default:
			if err := s.storageSvc.Remove(plan.BackupPath + d.Name); err != nil {
				verdict.Error = err
				result.DeleteFailures++
				logger.Error().Err(err).Str("file", d.Name).Msg("failed to delete backup")
			} else {
				verdict.Deleted = true
				result.FilesDeleted++
			}
		}

		result.Verdicts = append(result.Verdicts, verdict)
	}

	logger.Debug().
		Str("policy", fmt.Sprintf("yearly=%s monthly=%s weekly=%s daily=%s",
			plan.Policy.Yearly, plan.Policy.Monthly, plan.Policy.Weekly, plan.Policy.Daily)).
		Int("candidates", len(candidates)).
		Msg("retention evaluated")

	return nil
}

func (s *Impl) runWake(ctx context.Context, logger zerolog.Logger, cfg *models.WOLConfig) error {
	result, err := s.wolSvc.Wake(ctx, *cfg)
	if err != nil {
		return fmt.Errorf("WOL failed: %w", err)
	}
	if result.Error != nil {
		return fmt.Errorf("WOL failed: %w", result.Error)
	}
	if !result.TargetReady && cfg.PollURL != "" {
		return fmt.Errorf("database host did not become ready after WOL")
	}

	logger.Info().
		Bool("packet_sent", result.PacketSent).
		Dur("wait_duration", result.WaitDuration).
		Msg("WOL completed")

	return nil
}

func (s *Impl) runShutdown(ctx context.Context, logger zerolog.Logger, cfg *models.SSHShutdownConfig) error {
	result, err := s.sshSvc.Shutdown(ctx, *cfg)
	if err != nil {
		return fmt.Errorf("SSH shutdown failed: %w", err)
	}
	if result.Error != nil && !result.CommandRun {
		return fmt.Errorf("SSH shutdown failed: %w", result.Error)
	}

	logger.Info().
		Str("host", cfg.Host).
		Str("output", result.Output).
		Msg("SSH shutdown command sent")

	return nil
}

func (s *Impl) notify(ctx context.Context, logger zerolog.Logger, cfg *models.Config, summary models.RunSummary) {
	r := settings.New(config.Merge(config.Defaults(), cfg.Global))
	tgCfg, err := config.TelegramConfig(r)
	if err != nil {
		logger.Error().Err(err).Msg("invalid Telegram configuration")
		return
	}
	if tgCfg == nil {
		return
	}

	msg := models.TelegramMessage{
		Success:   len(summary.Failed()) == 0,
		DryRun:    summary.DryRun,
		Host:      summary.Host,
		RunID:     summary.RunID,
		StartTime: summary.StartTime,
		Duration:  summary.Duration,
	}
	for _, r := range summary.Sections {
		sec := models.TelegramSection{
			Name:         r.Name,
			BackupFile:   r.BackupFile,
			BackupSize:   r.BackupSize,
			FilesKept:    r.FilesKept,
			FilesDeleted: r.FilesDeleted,
			FailedStep:   r.FailedStep,
		}
		if r.Error != nil {
			sec.ErrorMessage = r.Error.Error()
		}
		msg.Sections = append(msg.Sections, sec)
	}

	result, err := s.telegramSvc.SendNotification(ctx, *tgCfg, msg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to send Telegram notification")
		return
	}
	if result.Error != nil {
		logger.Error().Err(result.Error).Msg("failed to send Telegram notification")
		return
	}

	logger.Info().Msg("Telegram notification sent")
}

func printSettings(w io.Writer, plan *Plan) {
	values, errs := plan.Resolver.ResolveAll()
	for _, key := range plan.Resolver.Keys() {
		if err, ok := errs[key]; ok {
			_, _ = fmt.Fprintf(w, "     %s => <%v>\n", key, err)
			continue
		}
		_, _ = fmt.Fprintf(w, "     %s => %s\n", key, values[key])
	}
}

func verdictLine(v models.FileVerdict) string {
	keep, why := "NO", "delete"
	if v.Keep {
		keep, why = "YES", strings.Join(v.Reasons, ", ")
	}
	return fmt.Sprintf("File: %s; Age Years: %d; Age Months: %d; Age Weeks: %d; Age Days: %d; Keep: %s (%s)",
		v.Name, v.AgeYears, v.AgeMonths, v.AgeWeeks, v.AgeDays, keep, why)
}
