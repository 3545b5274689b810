package models

import "time"

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// TelegramMessage holds the data for a run notification.
type TelegramMessage struct {
	Success   bool
	DryRun    bool
	Host      string
	RunID     string
	StartTime time.Time
	Duration  time.Duration
	Sections  []TelegramSection
}

// TelegramSection is the per-section part of a notification.
type TelegramSection struct {
	Name         string
	BackupFile   string
	BackupSize   int64
	FilesKept    int
	FilesDeleted int
	FailedStep   string
	ErrorMessage string
}

// TelegramResult holds the result of a Telegram notification.
type TelegramResult struct {
	MessageSent bool
	Error       error
}
