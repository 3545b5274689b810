// Package metrics exports run results as a Prometheus textfile, for the
// node_exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/fgeck/dbbackup/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const namespace = "dbbackup"

// Service defines the interface for recording run metrics.
type Service interface {
	Record(summary models.RunSummary)
	WriteTextfile(path string) error
}

// Impl implements the metrics Service interface on a private registry.
type Impl struct {
	registry *prometheus.Registry
	logger   zerolog.Logger

	sectionSuccess  *prometheus.GaugeVec
	sectionDuration *prometheus.GaugeVec
	backupSize      *prometheus.GaugeVec
	filesKept       *prometheus.GaugeVec
	filesDeleted    *prometheus.GaugeVec
	deleteFailures  *prometheus.GaugeVec
	lastRun         prometheus.Gauge
	runDuration     prometheus.Gauge
}

// New creates a metrics service with its own registry.
func New(logger zerolog.Logger) *Impl {
	return NewWithRegistry(logger, prometheus.NewRegistry())
}

// NewWithRegistry creates a metrics service registering into registry.
func NewWithRegistry(logger zerolog.Logger, registry *prometheus.Registry) *Impl {
	sectionLabels := []string{"section"}
	s := &Impl{
		registry: registry,
		logger:   logger,
		sectionSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "section_success",
			Help:      "1 if the last run of the section succeeded, 0 otherwise.",
		}, sectionLabels),
		sectionDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "section_duration_seconds",
			Help:      "Duration of the last run of the section.",
		}, sectionLabels),
		backupSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backup_size_bytes",
			Help:      "Size of the backup file written by the last run.",
		}, sectionLabels),
		filesKept: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "files_kept",
			Help:      "Backup files kept by the retention policy in the last run.",
		}, sectionLabels),
		filesDeleted: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "files_deleted",
			Help:      "Backup files deleted by the retention policy in the last run.",
		}, sectionLabels),
		deleteFailures: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "delete_failures",
			Help:      "Backup files that could not be deleted in the last run.",
		}, sectionLabels),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Start time of the last run.",
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last run over all sections.",
		}),
	}

	registry.MustRegister(
		s.sectionSuccess,
		s.sectionDuration,
		s.backupSize,
		s.filesKept,
		s.filesDeleted,
		s.deleteFailures,
		s.lastRun,
		s.runDuration,
	)

	return s
}

// Record stores the results of a run.
func (s *Impl) Record(summary models.RunSummary) {
	s.lastRun.Set(float64(summary.StartTime.Unix()))
	s.runDuration.Set(summary.Duration.Seconds())

	for _, r := range summary.Sections {
		success := 0.0
		if r.Succeeded() {
			success = 1
		}
		s.sectionSuccess.WithLabelValues(r.Name).Set(success)
		s.sectionDuration.WithLabelValues(r.Name).Set(r.Duration.Seconds())
		s.backupSize.WithLabelValues(r.Name).Set(float64(r.BackupSize))
		s.filesKept.WithLabelValues(r.Name).Set(float64(r.FilesKept))
		s.filesDeleted.WithLabelValues(r.Name).Set(float64(r.FilesDeleted))
		s.deleteFailures.WithLabelValues(r.Name).Set(float64(r.DeleteFailures))
	}
}

// WriteTextfile atomically writes the registry in text exposition format.
func (s *Impl) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, s.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	s.logger.Debug().Str("path", path).Msg("metrics written")
	return nil
}
