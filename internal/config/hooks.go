package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fgeck/dbbackup/internal/models"
	"github.com/fgeck/dbbackup/internal/settings"
)

// WOLConfig reads the wake hook of a section. It returns nil when wakemac is
// not set.
func WOLConfig(r *settings.Resolver) (*models.WOLConfig, error) {
	mac, err := r.ResolveOr(KeyWakeMAC, "")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(mac) == "" {
		return nil, nil
	}

	cfg := &models.WOLConfig{MACAddress: strings.TrimSpace(mac)}

	if cfg.BroadcastIP, err = r.ResolveOr(KeyWakeBroadcast, ""); err != nil {
		return nil, err
	}
	if cfg.PollURL, err = r.ResolveOr(KeyWakePollURL, ""); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = resolveDuration(r, KeyWakeTimeout); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = resolveDuration(r, KeyWakePollInterval); err != nil {
		return nil, err
	}
	if cfg.StabilizeWait, err = resolveDuration(r, KeyWakeStabilize); err != nil {
		return nil, err
	}

	// Set defaults.
	if cfg.BroadcastIP == "" {
		cfg.BroadcastIP = "255.255.255.255"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.StabilizeWait == 0 {
		cfg.StabilizeWait = 10 * time.Second
	}

	return cfg, nil
}

// SSHShutdownConfig reads the shutdown hook of a section. It returns nil when
// shutdownhost is not set.
func SSHShutdownConfig(r *settings.Resolver) (*models.SSHShutdownConfig, error) {
	host, err := r.ResolveOr(KeyShutdownHost, "")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(host) == "" {
		return nil, nil
	}

	cfg := &models.SSHShutdownConfig{Host: strings.TrimSpace(host)}

	if cfg.Port, err = r.ResolveNumeric(KeyShutdownPort, 22); err != nil {
		return nil, err
	}
	if cfg.Username, err = r.ResolveOr(KeyShutdownUser, "root"); err != nil {
		return nil, err
	}
	if cfg.KeyPath, err = r.ResolveOr(KeyShutdownKey, ""); err != nil {
		return nil, err
	}
	if cfg.ShutdownDelay, err = r.ResolveNumeric(KeyShutdownDelay, 1); err != nil {
		return nil, err
	}
	if cfg.OS, err = r.ResolveOr(KeyShutdownOS, "linux"); err != nil {
		return nil, err
	}

	if cfg.KeyPath == "" {
		return nil, fmt.Errorf("%s is required when %s is configured", KeyShutdownKey, KeyShutdownHost)
	}
	if cfg.Username == "" {
		cfg.Username = "root"
	}
	if cfg.OS == "" {
		cfg.OS = "linux"
	}
	validOS := map[string]bool{"linux": true, "windows": true}
	if !validOS[cfg.OS] {
		return nil, fmt.Errorf("%s must be one of: linux, windows", KeyShutdownOS)
	}

	return cfg, nil
}

// TelegramConfig reads the notification settings from the Global section.
// It returns nil when no bot token is set.
func TelegramConfig(r *settings.Resolver) (*models.TelegramConfig, error) {
	token, err := r.ResolveOr(KeyTelegramBotToken, "")
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, nil
	}

	chatID, err := r.ResolveOr(KeyTelegramChatID, "")
	if err != nil {
		return nil, err
	}
	if chatID == "" {
		return nil, fmt.Errorf("%s is required when %s is configured", KeyTelegramChatID, KeyTelegramBotToken)
	}

	return &models.TelegramConfig{BotToken: token, ChatID: chatID}, nil
}

func resolveDuration(r *settings.Resolver, key string) (time.Duration, error) {
	v, err := r.ResolveOr(key, "")
	if err != nil {
		return 0, err
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
