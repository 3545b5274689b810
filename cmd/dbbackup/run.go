package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fgeck/dbbackup/internal/config"
	"github.com/fgeck/dbbackup/internal/services/runner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [config-path]",
	Short: "Execute the backup workflow (same as running dbbackup without a subcommand)",
	Long: `Execute the backup workflow for every section, in file order:
1. Wake-on-LAN (if wakemac is set)
2. Run the backup command
3. Prune old backup files with the retention policy
4. SSH shutdown (if shutdownhost is set)
Then send a Telegram summary (if configured) and write metrics (if requested).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBackup,
}

func runBackup(cmd *cobra.Command, args []string) error {
	path := configPath(args)

	cfg, err := config.NewParser().LoadFile(path)
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("failed to load config")
		return err
	}

	if err := config.Validate(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return err
	}

	log.Info().
		Str("config", path).
		Int("sections", len(cfg.Sections)).
		Msg("configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			log.Warn().Str("signal", sig.String()).Msg("received signal, shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	runnerSvc := runner.New(log.Logger)
	_, err = runnerSvc.Run(ctx, cfg, runner.Options{
		DryRun:      v.GetBool(flagDebug),
		MetricsFile: v.GetString(flagMetricsFile),
		Out:         cmd.OutOrStdout(),
	})
	if err != nil {
		log.Error().Err(err).Msg("backup failed")
		return err
	}

	log.Info().Msg("backup completed successfully")
	return nil
}
