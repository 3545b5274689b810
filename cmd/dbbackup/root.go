package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time.
var Version = "dev"

// Flag names, also read from DBBACKUP_* environment variables.
const (
	flagConfig      = "config"
	flagDebug       = "debug"
	flagVerbose     = "verbose"
	flagQuiet       = "quiet"
	flagJSON        = "json"
	flagMetricsFile = "metrics-file"
)

const defaultConfigName = "dbbackup.conf"

var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "dbbackup [config-path]",
	Short: "Database backups with generational retention",
	Long: `dbbackup runs one backup command per section of an INI configuration file
and prunes old backup files with a yearly/monthly/weekly/daily retention policy.

Use as a one-shot command with an external scheduler (cron, systemd timer, etc.)`,
	Args: cobra.MaximumNArgs(1),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
	RunE:         runBackup,
	SilenceUsage: true,
	Version:      Version,
}

func init() {
	rootCmd.PersistentFlags().StringP(flagConfig, "c", "", "config file (default: "+defaultConfigName+" next to the executable)")
	rootCmd.PersistentFlags().BoolP(flagVerbose, "v", false, "enable verbose (debug) output")
	rootCmd.PersistentFlags().BoolP(flagQuiet, "q", false, "enable quiet mode (errors only)")
	rootCmd.PersistentFlags().Bool(flagJSON, false, "output logs in JSON format")

	rootCmd.PersistentFlags().Bool(flagDebug, false, "print commands, settings and verdicts without running or deleting anything")
	rootCmd.PersistentFlags().String(flagMetricsFile, "", "write Prometheus metrics to this textfile after the run")

	v.SetEnvPrefix("DBBACKUP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(rootCmd.PersistentFlags())

	defaultHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		defaultHelp(cmd, args)
		if cmd == rootCmd {
			writeSettingsHelp(cmd.OutOrStdout())
		}
	})

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}

func setupLogging() {
	if v.GetBool(flagJSON) {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
		output.FormatLevel = func(i interface{}) string {
			if s, ok := i.(string); ok {
				return strings.ToUpper(s)
			}
			return ""
		}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	switch {
	case v.GetBool(flagQuiet):
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case v.GetBool(flagVerbose):
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// configPath picks the config file: positional argument, then --config or
// DBBACKUP_CONFIG, then dbbackup.conf next to the executable.
func configPath(args []string) string {
	if len(args) > 0 && args[len(args)-1] != "" {
		return args[len(args)-1]
	}
	if p := v.GetString(flagConfig); p != "" {
		return p
	}
	exe, err := os.Executable()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(filepath.Dir(exe), defaultConfigName)
}

// Execute runs the root command with args.
func Execute(args []string) error {
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}
