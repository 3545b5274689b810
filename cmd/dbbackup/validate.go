package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fgeck/dbbackup/internal/config"
	"github.com/fgeck/dbbackup/internal/services/runner"
	"github.com/fgeck/dbbackup/internal/services/ssh"
	"github.com/fgeck/dbbackup/internal/settings"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var testSSH bool

var validateCmd = &cobra.Command{
	Use:   "validate [config-path]",
	Short: "Validate configuration file",
	Long: `Validate the configuration file and resolve every section without running
any command or deleting any file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: validateConfig,
}

func init() {
	validateCmd.Flags().BoolVar(&testSSH, "test-ssh", false, "also test the SSH connection of every shutdown hook")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	path := configPath(args)

	cfg, err := config.NewParser().LoadFile(path)
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("failed to parse config")
		return err
	}

	if err := config.Validate(cfg); err != nil {
		log.Error().Err(err).Msg("configuration validation failed")
		return err
	}

	tg, err := config.TelegramConfig(settings.New(config.Merge(config.Defaults(), cfg.Global)))
	if err != nil {
		log.Error().Err(err).Msg("configuration validation failed")
		return err
	}

	out := cmd.OutOrStdout()
	now := time.Now()
	sshSvc := ssh.New(log.Logger)
	failed := 0

	fmt.Fprintf(out, "Configuration: %s\n", path)
	fmt.Fprintf(out, "Telegram: %v\n", tg != nil)

	for _, sec := range cfg.Sections {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "[%s]\n", sec.Name)

		plan, err := runner.NewPlan(cfg.Global, sec, now)
		if err != nil {
			failed++
			fmt.Fprintf(out, "  Error: %v\n", err)
			continue
		}

		for _, w := range plan.Warnings {
			fmt.Fprintf(out, "  Warning: %s\n", w)
		}
		fmt.Fprintf(out, "  Backup Path: %s\n", plan.BackupPath)
		fmt.Fprintf(out, "  Next File: %s\n", plan.FileName)
		fmt.Fprintf(out, "  Timezone: %s\n", plan.Location)
		fmt.Fprintln(out, "  Retention Policy:")
		fmt.Fprintf(out, "    Keep yearly: %s\n", plan.Policy.Yearly)
		fmt.Fprintf(out, "    Keep monthly: %s\n", plan.Policy.Monthly)
		fmt.Fprintf(out, "    Keep weekly: %s\n", plan.Policy.Weekly)
		fmt.Fprintf(out, "    Keep daily: %s\n", plan.Policy.Daily)
		if !plan.Policy.Configured() {
			fmt.Fprintln(out, "    (no limit set, nothing will be deleted)")
		}

		if plan.Wake != nil {
			fmt.Fprintln(out, "  Wake-on-LAN:")
			fmt.Fprintf(out, "    MAC Address: %s\n", plan.Wake.MACAddress)
			fmt.Fprintf(out, "    Broadcast IP: %s\n", plan.Wake.BroadcastIP)
			if plan.Wake.PollURL != "" {
				fmt.Fprintf(out, "    Poll URL: %s\n", plan.Wake.PollURL)
			}
		}

		if plan.Shutdown != nil {
			fmt.Fprintln(out, "  SSH Shutdown:")
			fmt.Fprintf(out, "    Host: %s\n", plan.Shutdown.Host)
			fmt.Fprintf(out, "    Port: %d\n", plan.Shutdown.Port)
			fmt.Fprintf(out, "    Username: %s\n", plan.Shutdown.Username)
			fmt.Fprintf(out, "    OS: %s\n", plan.Shutdown.OS)
			fmt.Fprintf(out, "    Shutdown Delay: %d minute(s)\n", plan.Shutdown.ShutdownDelay)

			if testSSH {
				res, _ := sshSvc.TestConnection(context.Background(), *plan.Shutdown)
				if res.Error != nil {
					failed++
					fmt.Fprintf(out, "    Connection: FAILED (%v)\n", res.Error)
				} else {
					fmt.Fprintln(out, "    Connection: OK")
				}
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d section(s) failed validation", failed)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration is valid!")
	return nil
}
