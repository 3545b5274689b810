// Package telegram sends the run summary to a Telegram chat.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fgeck/dbbackup/internal/models"
	"github.com/rs/zerolog"
)

// Service defines the interface for Telegram notification operations.
type Service interface {
	SendNotification(ctx context.Context, cfg models.TelegramConfig, msg models.TelegramMessage) (*models.TelegramResult, error)
}

// HTTPClient allows mocking HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Impl implements the Telegram Service interface.
type Impl struct {
	httpClient HTTPClient
	logger     zerolog.Logger
	baseURL    string
}

// New creates a new Telegram service.
func New(logger zerolog.Logger) *Impl {
	return NewWithClient(logger, &http.Client{Timeout: 30 * time.Second}, "https://api.telegram.org")
}

// NewWithClient creates a new Telegram service with a custom HTTP client (for testing).
func NewWithClient(logger zerolog.Logger, httpClient HTTPClient, baseURL string) *Impl {
	return &Impl{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendNotification posts the run summary.
func (s *Impl) SendNotification(ctx context.Context, cfg models.TelegramConfig, msg models.TelegramMessage) (*models.TelegramResult, error) {
	result := &models.TelegramResult{}

	if cfg.BotToken == "" || cfg.ChatID == "" {
		result.Error = fmt.Errorf("telegram bot token and chat id are required")
		return result, nil
	}

	s.logger.Info().
		Str("chat_id", cfg.ChatID).
		Bool("success", msg.Success).
		Int("sections", len(msg.Sections)).
		Msg("sending Telegram notification")

	jsonBody, err := json.Marshal(sendMessageRequest{
		ChatID:    cfg.ChatID,
		Text:      formatMessage(msg),
		ParseMode: "HTML",
	})
	if err != nil {
		result.Error = fmt.Errorf("failed to marshal request: %w", err)
		return result, nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, cfg.BotToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		result.Error = fmt.Errorf("failed to create request: %w", err)
		return result, nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		result.Error = fmt.Errorf("failed to send request: %w", err)
		return result, nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		result.Error = fmt.Errorf("telegram API returned status %d", resp.StatusCode)
		return result, nil
	}

	result.MessageSent = true
	s.logger.Info().Msg("Telegram notification sent successfully")

	return result, nil
}

func formatMessage(msg models.TelegramMessage) string {
	var b strings.Builder

	switch {
	case msg.DryRun:
		b.WriteString("🔎 <b>Database Backup Dry Run</b>\n\n")
	case msg.Success:
		b.WriteString("✅ <b>Database Backup Successful</b>\n\n")
	default:
		b.WriteString("❌ <b>Database Backup Failed</b>\n\n")
	}

	fmt.Fprintf(&b, "🖥 <b>Host:</b> %s\n", escapeHTML(msg.Host))
	if msg.RunID != "" {
		fmt.Fprintf(&b, "🏷 <b>Run:</b> <code>%s</code>\n", escapeHTML(msg.RunID))
	}
	fmt.Fprintf(&b, "⏰ <b>Started:</b> %s\n", msg.StartTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "⏱ <b>Duration:</b> %s\n", msg.Duration.Round(time.Second))

	for _, sec := range msg.Sections {
		b.WriteString("\n")
		if sec.ErrorMessage == "" {
			fmt.Fprintf(&b, "✅ <b>%s</b>\n", escapeHTML(sec.Name))
			if sec.BackupFile != "" {
				fmt.Fprintf(&b, "  • File: <code>%s</code> (%s)\n", escapeHTML(sec.BackupFile), formatBytes(sec.BackupSize))
			}
			fmt.Fprintf(&b, "  • Kept: %d, deleted: %d\n", sec.FilesKept, sec.FilesDeleted)
			continue
		}
		fmt.Fprintf(&b, "❌ <b>%s</b>\n", escapeHTML(sec.Name))
		fmt.Fprintf(&b, "  • Failed step: %s\n", escapeHTML(sec.FailedStep))
		fmt.Fprintf(&b, "  • Error: <code>%s</code>\n", escapeHTML(sec.ErrorMessage))
	}

	return b.String()
}

func escapeHTML(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '&':
			b.WriteString("&amp;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
