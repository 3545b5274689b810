package models

import "time"

// CommandResult holds the result of running a backup command.
type CommandResult struct {
	Command  string
	Output   string
	ExitCode int
	Duration time.Duration
	Error    error
}

// FileVerdict is the keep/delete verdict for one backup file.
type FileVerdict struct {
	Name      string
	AgeYears  int
	AgeMonths int
	AgeWeeks  int
	AgeDays   int
	Keep      bool
	Reasons   []string
	Deleted   bool
	Error     error // set when deletion failed
}

// SectionResult holds the outcome of one backup section.
type SectionResult struct {
	Name           string
	Command        string
	BackupFile     string
	BackupSize     int64
	Verdicts       []FileVerdict
	FilesKept      int
	FilesDeleted   int
	DeleteFailures int
	Skipped        []string // candidate names excluded for a malformed timestamp
	Duration       time.Duration
	FailedStep     string
	Error          error
}

// Succeeded reports whether the section completed without error.
func (r SectionResult) Succeeded() bool {
	return r.Error == nil
}

// RunSummary aggregates one run over all sections.
type RunSummary struct {
	RunID     string
	Host      string
	StartTime time.Time
	Duration  time.Duration
	DryRun    bool
	Sections  []SectionResult
}

// Failed returns the sections that did not succeed.
func (s RunSummary) Failed() []SectionResult {
	var failed []SectionResult
	for _, r := range s.Sections {
		if !r.Succeeded() {
			failed = append(failed, r)
		}
	}
	return failed
}
