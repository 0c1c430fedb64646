package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	fivenine "github.com/burtcorp/fivenine-tracker-go"
	"github.com/burtcorp/fivenine-tracker-go/internal/config"
	"github.com/burtcorp/fivenine-tracker-go/journal"
)

type rootFlags struct {
	configPath  string
	debugMode   bool
	journalPath string

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "fivenine",
		Short: "fivenine - send custom events to richmetrics",
		Example: `  fivenine track signup --entity FOOBARBAZQUX --prop plan=pro
  fivenine journal list --limit 10
  fivenine device-id`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelInfo
			if flags.debugMode {
				level = slog.LevelDebug
			}
			flags.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("journal") {
				cfg.JournalPath = flags.journalPath
			}
			flags.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", os.Getenv("FIVENINE_CONFIG"), "Path to a YAML config file")
	cmd.PersistentFlags().BoolVarP(&flags.debugMode, "debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&flags.journalPath, "journal", "", "Directory of the local event journal")

	cmd.AddCommand(newTrackCmd(flags))
	cmd.AddCommand(newJournalCmd(flags))
	cmd.AddCommand(newDeviceIDCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// openJournal opens the configured journal and applies its retention
// policy.
func (f *rootFlags) openJournal() (*journal.DB, error) {
	if f.cfg.JournalPath == "" {
		return nil, fmt.Errorf("no journal configured (use --journal or %s)", config.EnvJournalPath)
	}

	db, err := journal.OpenWithOptions(journal.Options{Path: f.cfg.JournalPath, Logger: f.logger})
	if err != nil {
		return nil, err
	}
	if f.cfg.JournalMaxAge > 0 {
		if _, err := db.DeleteBefore(time.Now().Add(-f.cfg.JournalMaxAge)); err != nil {
			f.logger.Warn("Journal retention failed", "error", err)
		}
	}
	return db, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fivenine version %s\n", fivenine.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "User-Agent: %s\n", fivenine.UserAgent())
		},
	}
}
