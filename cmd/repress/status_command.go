package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"repress/internal/config"
	"repress/internal/journal"
	"repress/internal/preflight"
)

func newStatusCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show environment readiness and the most recent run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.Load(*configFlag)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			results := preflight.RunAll(cmd.Context(), cfg)
			fmt.Fprintln(out, renderPreflight(results))

			store, err := journal.Open(filepath.Join(cfg.Paths.LogDir, "history.db"))
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.LastRun(cmd.Context())
			if err != nil {
				return err
			}
			if run == nil {
				fmt.Fprintln(out, "No runs recorded yet.")
				return nil
			}

			rows := [][]string{
				{"Run", run.ID},
				{"Started", run.StartedAt.Local().Format(time.DateTime)},
				{"Duration", runDuration(run)},
				{"Outcome", string(run.Outcome)},
				{"Discovered", strconv.Itoa(run.Discovered)},
				{"Transcoded", strconv.Itoa(run.Transcoded)},
				{"Skipped", strconv.Itoa(run.Skipped)},
				{"Failed", strconv.Itoa(run.Failed)},
				{"Dry run", strconv.FormatBool(run.DryRun)},
			}
			fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))

			if run.Failed > 0 {
				failed, err := store.FailedItems(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				failRows := make([][]string, 0, len(failed))
				for _, item := range failed {
					failRows = append(failRows, []string{item.SourcePath, item.ErrorMessage})
				}
				fmt.Fprintln(out, "Failures:")
				fmt.Fprintln(out, renderTable([]string{"Source", "Error"}, failRows, nil))
			}
			return nil
		},
	}
}
