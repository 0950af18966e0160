package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	moodanalysis "github.com/zhouzirui/mindbloom/backend/internal/analysis/mood"
	"github.com/zhouzirui/mindbloom/backend/internal/config"
	moodmodel "github.com/zhouzirui/mindbloom/backend/internal/model/mood"
	moodservice "github.com/zhouzirui/mindbloom/backend/internal/service/mood"
	"github.com/zhouzirui/mindbloom/backend/internal/storage"
)

// storeOpener builds the store the commands work on; the returned func
// releases it.
type storeOpener func(opts rootOptions) (*moodservice.Store, func() error, error)

type rootOptions struct {
	driver   string
	path     string
	timezone string
}

func openStore(opts rootOptions) (*moodservice.Store, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	storageCfg := cfg.Storage
	if opts.driver != "" {
		storageCfg.Driver = opts.driver
	}
	if opts.path != "" {
		storageCfg.Path = opts.path
	}
	loc := cfg.Mood.Location
	if opts.timezone != "" {
		if loc, err = time.LoadLocation(opts.timezone); err != nil {
			return nil, nil, fmt.Errorf("invalid timezone %q: %w", opts.timezone, err)
		}
	}

	kv, closer, err := storage.Open(storageCfg)
	if err != nil {
		return nil, nil, err
	}
	return moodservice.NewStore(kv, moodservice.WithLocation(loc)), closer.Close, nil
}

func newRootCmd(open storeOpener) *cobra.Command {
	var opts rootOptions

	root := &cobra.Command{
		Use:   "moodctl",
		Short: "Inspect and edit the MindBloom mood journal",
		Long: `moodctl works on the same durable store as the API server
(STORAGE_DRIVER / STORAGE_PATH, or the flags below).

Examples:
  # Show this month's entries
  moodctl list --month 2024-03

  # Log today's mood
  moodctl log --level 3 --note "long walk"

  # Dump everything as JSON
  moodctl export > moods.json`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.driver, "driver", "", "storage driver: file, sqlite or memory")
	root.PersistentFlags().StringVar(&opts.path, "path", "", "storage path")
	root.PersistentFlags().StringVar(&opts.timezone, "timezone", "", "calendar-day time zone (IANA name)")

	withStore := func(run func(cmd *cobra.Command, store *moodservice.Store) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			store, closeFn, err := open(opts)
			if err != nil {
				return err
			}
			defer closeFn()
			return run(cmd, store)
		}
	}

	root.AddCommand(newListCmd(withStore), newLogCmd(withStore), newStatsCmd(withStore), newExportCmd(withStore))
	return root
}

type storeRunner func(run func(cmd *cobra.Command, store *moodservice.Store) error) func(*cobra.Command, []string) error

func newListCmd(withStore storeRunner) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List mood entries",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, store *moodservice.Store) error {
			logs, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if month != "" {
				start, err := time.ParseInLocation("2006-01", month, store.Location())
				if err != nil {
					return fmt.Errorf("invalid --month %q, want YYYY-MM", month)
				}
				logs = moodanalysis.Monthly(logs, start.Year(), start.Month(), store.Location()).Logs
			}
			return printLogs(cmd.OutOrStdout(), logs, store.Location())
		}),
	}
	cmd.Flags().StringVar(&month, "month", "", "only show YYYY-MM")
	return cmd
}

func newLogCmd(withStore storeRunner) *cobra.Command {
	var (
		level int
		note  string
	)
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Record today's mood (replaces an existing entry for today)",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, store *moodservice.Store) error {
			entry, err := store.Record(cmd.Context(), level, note)
			if err != nil {
				return err
			}
			label := moodmodel.LabelFor(entry.Level)
			fmt.Fprintf(cmd.OutOrStdout(), "logged %s (%d) for %s\n", label.Name, entry.Level, entry.Date.In(store.Location()).Format(time.DateOnly))
			return nil
		}),
	}
	cmd.Flags().IntVar(&level, "level", -1, "mood level 0 (awful) .. 4 (rad)")
	cmd.Flags().StringVar(&note, "note", "", "optional reflection")
	_ = cmd.MarkFlagRequired("level")
	return cmd
}

func newStatsCmd(withStore storeRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show streaks, level and distribution",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, store *moodservice.Store) error {
			logs, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			stats := moodanalysis.Summarize(logs, store.Now(), store.Location())
			dist := moodanalysis.Distribution(logs)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "current streak\t%d\n", stats.CurrentStreak)
			fmt.Fprintf(w, "best streak\t%d\n", stats.BestStreak)
			fmt.Fprintf(w, "level\t%d\n", stats.Level)
			fmt.Fprintf(w, "total\t%d\n", stats.Total)
			for _, label := range moodmodel.Labels {
				fmt.Fprintf(w, "%s\t%d\n", label.Name, dist[label.Level])
			}
			return w.Flush()
		}),
	}
}

func newExportCmd(withStore storeRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write all entries as a JSON array",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, store *moodservice.Store) error {
			logs, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(logs)
		}),
	}
}

func printLogs(out io.Writer, logs []moodmodel.Log, loc *time.Location) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tLEVEL\tMOOD\tNOTE")
	for _, entry := range logs {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
			entry.Date.In(loc).Format(time.DateOnly),
			entry.Level,
			moodmodel.LabelFor(entry.Level).Name,
			entry.Note)
	}
	return w.Flush()
}
