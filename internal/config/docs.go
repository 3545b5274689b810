package config

// SettingDoc documents one setting for the help output.
type SettingDoc struct {
	Key         string
	Label       string
	Description string
	Default     string // empty means none
}

// SettingDocs lists the documented settings in display order.
func SettingDocs() []SettingDoc {
	d := Defaults()
	return []SettingDoc{
		{
			Key:         KeyBackupPath,
			Label:       "Backup Path",
			Description: "The directory where backups are written and old backups are pruned.",
		},
		{
			Key:         KeyFileExtension,
			Label:       "File Extension",
			Description: "The extension of the dumped file, including the leading dot.",
			Default:     d[KeyFileExtension],
		},
		{
			Key:         KeyCommand,
			Label:       "Backup Command",
			Description: "The shell command run to back up the database. Can use any values in the form $settingname that are calculated for the section, including $backup_filename and $backup_file_path.",
			Default:     d[KeyCommand],
		},
		{
			Key:         KeyHost,
			Label:       "Host",
			Description: "The host that we will be connecting to in order to download the database.",
			Default:     d[KeyHost],
		},
		{
			Key:         KeyDatabase,
			Label:       "Database",
			Description: "The name of the database being backed up.",
		},
		{
			Key:         KeyUsername,
			Label:       "Username",
			Description: "The username used to connect to the database.",
		},
		{
			Key:         KeyPassword,
			Label:       "Password",
			Description: "The password for connecting to the database.",
		},
		{
			Key:         KeyArguments,
			Label:       "Arguments",
			Description: "Extra arguments passed to the dump command.",
		},
		{
			Key:         KeyFileBase,
			Label:       "File name base",
			Description: "The file base name used for the backup file name.",
			Default:     "The section name without non-letters",
		},
		{
			Key:         KeyKeepYearly,
			Label:       "Keep Yearly",
			Description: "Keep the oldest backup of each year for this many years. Use * for no limit.",
		},
		{
			Key:         KeyKeepMonthly,
			Label:       "Keep Monthly",
			Description: "Keep the oldest backup of each month for this many months. Use * for no limit.",
		},
		{
			Key:         KeyKeepWeekly,
			Label:       "Keep Weekly",
			Description: "Keep the oldest backup of each week for this many weeks. Use * for no limit.",
		},
		{
			Key:         KeyKeepDaily,
			Label:       "Keep Daily",
			Description: "Keep the oldest backup of each day for this many days. Use * for no limit. When no keep setting is given, nothing is deleted.",
		},
		{
			Key:         KeyTimezone,
			Label:       "Timezone",
			Description: "IANA zone used for backup file timestamps.",
			Default:     "Local",
		},
		{
			Key:         KeyWakeMAC,
			Label:       "Wake MAC",
			Description: "MAC address to send a Wake-on-LAN packet to before the backup. Related: wakebroadcast, wakepollurl, waketimeout, wakepollinterval, wakestabilize.",
		},
		{
			Key:         KeyShutdownHost,
			Label:       "Shutdown Host",
			Description: "Host to shut down over SSH after the backup. Related: shutdownport, shutdownuser, shutdownkey, shutdowndelay, shutdownos.",
		},
		{
			Key:         KeyTelegramBotToken,
			Label:       "Telegram Bot Token",
			Description: "Global only. Send a run summary to telegramchatid with this bot.",
		},
	}
}
