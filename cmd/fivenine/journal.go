package main

import (
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/burtcorp/fivenine-tracker-go/journal"
)

type journalQueryFlags struct {
	names  []string
	since  time.Duration
	limit  int
	failed bool
	asc    bool
}

func (f *journalQueryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.names, "name", nil, "Only entries with these event names")
	cmd.Flags().DurationVar(&f.since, "since", 0, "Only entries newer than this (e.g. 24h)")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Maximum number of entries (0 means no limit)")
	cmd.Flags().BoolVar(&f.failed, "failed", false, "Only entries whose request failed")
	cmd.Flags().BoolVar(&f.asc, "asc", false, "Oldest entries first")
}

func (f *journalQueryFlags) query() journal.Query {
	q := journal.Query{
		Names:      f.names,
		Limit:      f.limit,
		FailedOnly: f.failed,
		Descending: !f.asc,
	}
	if f.since > 0 {
		start := time.Now().Add(-f.since)
		q.Start = &start
	}
	return q
}

func newJournalCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the local record of sent events",
	}

	cmd.AddCommand(newJournalListCmd(root))
	cmd.AddCommand(newJournalExportCmd(root))
	cmd.AddCommand(newJournalStatsCmd(root))
	cmd.AddCommand(newJournalPruneCmd(root))

	return cmd
}

func newJournalListCmd(root *rootFlags) *cobra.Command {
	var qf journalQueryFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := root.openJournal()
			if err != nil {
				return err
			}
			defer db.Close()

			entries, err := db.Query(cmd.Context(), qf.query())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tEVENT\tEVENT ID\tSTATUS\tERROR")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					e.Timestamp.Format(time.RFC3339), e.EventName, e.EventID, e.Status, e.Error)
			}
			return w.Flush()
		},
	}

	qf.register(cmd)
	return cmd
}

func newJournalExportCmd(root *rootFlags) *cobra.Command {
	var (
		qf     journalQueryFlags
		format string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export recorded events as JSON or CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, ok := journal.ParseExportFormat(format)
			if !ok {
				return fmt.Errorf("unknown format %q (want json or csv)", format)
			}

			db, err := root.openJournal()
			if err != nil {
				return err
			}
			defer db.Close()

			q := qf.query()
			q.Descending = false
			return db.Export(cmd.Context(), cmd.OutOrStdout(), q, f)
		},
	}

	qf.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or csv")
	return cmd
}

func newJournalStatsCmd(root *rootFlags) *cobra.Command {
	var qf journalQueryFlags

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise recorded events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := root.openJournal()
			if err != nil {
				return err
			}
			defer db.Close()

			stats, err := db.Stats(cmd.Context(), qf.query())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "events: %d (failed: %d)\n", stats.Count, stats.Failed)
			if stats.Count == 0 {
				return nil
			}
			fmt.Fprintf(out, "first:  %s\nlast:   %s\n", stats.First.Format(time.RFC3339), stats.Last.Format(time.RFC3339))

			names := make([]string, 0, len(stats.ByName))
			for name := range stats.ByName {
				names = append(names, name)
			}
			sort.Strings(names)

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "EVENT\tCOUNT")
			for _, name := range names {
				fmt.Fprintf(w, "%s\t%d\n", name, stats.ByName[name])
			}
			return w.Flush()
		},
	}

	qf.register(cmd)
	return cmd
}

func newJournalPruneCmd(root *rootFlags) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete recorded events older than a given age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}

			db, err := root.openJournal()
			if err != nil {
				return err
			}
			defer db.Close()

			deleted, err := db.DeleteBefore(time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d entries\n", deleted)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Delete entries older than this")
	return cmd
}
