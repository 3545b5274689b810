package config

import (
	"regexp"
)

// Setting keys read by the backup runner.
const (
	KeyBackupPath     = "backuppath"
	KeyFileExtension  = "fileextension"
	KeyFileBase       = "filebase"
	KeyCommand        = "command"
	KeyHost           = "host"
	KeyDatabase       = "database"
	KeyUsername       = "username"
	KeyPassword       = "password"
	KeyArguments      = "arguments"
	KeyKeepYearly     = "keepyearly"
	KeyKeepMonthly    = "keepmonthly"
	KeyKeepWeekly     = "keepweekly"
	KeyKeepDaily      = "keepdaily"
	KeyTimezone       = "timezone"
	KeyBackupFileName = "backup_filename"
	KeyBackupFilePath = "backup_file_path"
	KeySection        = "section"
	KeyTimestamp      = "timestamp"
)

// Hook setting keys.
const (
	KeyWakeMAC          = "wakemac"
	KeyWakeBroadcast    = "wakebroadcast"
	KeyWakePollURL      = "wakepollurl"
	KeyWakeTimeout      = "waketimeout"
	KeyWakePollInterval = "wakepollinterval"
	KeyWakeStabilize    = "wakestabilize"
	KeyShutdownHost     = "shutdownhost"
	KeyShutdownPort     = "shutdownport"
	KeyShutdownUser     = "shutdownuser"
	KeyShutdownKey      = "shutdownkey"
	KeyShutdownDelay    = "shutdowndelay"
	KeyShutdownOS       = "shutdownos"
	KeyTelegramBotToken = "telegrambottoken"
	KeyTelegramChatID   = "telegramchatid"
)

// DefaultCommand dumps a MySQL database through gzip.
const DefaultCommand = "mysqldump -h $host -u $username -p$password $arguments $database | gzip > $backup_file_path"

var nonLetters = regexp.MustCompile(`[^a-zA-Z]+`)

// Defaults returns the built-in settings every section starts from.
func Defaults() map[string]string {
	return map[string]string{
		KeyFileExtension: ".sql.gz",
		KeyCommand:       DefaultCommand,
		KeyHost:          "localhost",
		KeyArguments:     "",
	}
}

// Merge layers setting maps; later maps win by key. The inputs are not
// modified.
func Merge(layers ...map[string]string) map[string]string {
	merged := make(map[string]string)
	for _, layer := range layers {
		for k, v := range layer {
			merged[k] = v
		}
	}
	return merged
}

// SectionSettings returns the effective settings of sec: built-in defaults,
// then Global, then the section itself.
func SectionSettings(global map[string]string, sec map[string]string) map[string]string {
	return Merge(Defaults(), global, sec)
}

// DefaultFileBase derives a file base from a section name by dropping every
// character that is not a letter.
func DefaultFileBase(section string) string {
	return nonLetters.ReplaceAllString(section, "")
}
