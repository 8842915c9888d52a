package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"trackplan/internal/history"
	"trackplan/internal/plan"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded analysis runs",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))
	return historyCmd
}

func openHistory(ctx *commandContext) (*history.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return history.Open(cfg)
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var file string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			var runs []history.Run
			if file != "" {
				runs, err = store.ListByFile(cmd.Context(), file)
			} else {
				runs, err = store.List(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				if runs == nil {
					runs = []history.Run{}
				}
				return writeJSON(out, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					run.CreatedAt.Local().Format(time.DateTime),
					string(run.Status),
					strconv.Itoa(run.Changes),
					strconv.Itoa(run.Anomalies),
					run.File,
				})
			}
			fmt.Fprintln(out, renderTable("",
				[]string{"Run", "Created", "Status", "Changes", "Anomalies", "File"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	cmd.Flags().StringVar(&file, "file", "", "Only list runs for this file path")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print runs as JSON")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show the plan recorded by a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, run)
			}

			colorize := shouldColorize(out)
			fmt.Fprintf(out, "Run:     %s\n", run.ID)
			fmt.Fprintf(out, "File:    %s\n", run.File)
			fmt.Fprintf(out, "Created: %s\n", run.CreatedAt.Local().Format(time.DateTime))
			fmt.Fprintf(out, "Status:  %s\n", run.Status)
			if run.Error != "" {
				fmt.Fprintln(out, renderStatusLine("Error", statusError, run.Error, colorize))
			}
			if len(run.Plan) == 0 {
				return nil
			}
			var p plan.Plan
			if err := json.Unmarshal(run.Plan, &p); err != nil {
				return fmt.Errorf("decode recorded plan: %w", err)
			}
			rows := make([][]string, 0, len(p.Decisions))
			for _, d := range p.Decisions {
				rows = append(rows, []string{
					strconv.Itoa(d.ID),
					d.KindName,
					dispositionLabel(d.Disposition, colorize),
					p.Reason(d.ID),
				})
			}
			fmt.Fprintln(out, renderTable("", []string{"ID", "Kind", "Action", "Reason"}, rows, []columnAlignment{alignRight}))
			for _, r := range p.Relabels {
				fmt.Fprintln(out, renderStatusLine("Relabel", statusInfo, fmt.Sprintf("track %d %s -> %s", r.ID, r.From, r.To), colorize))
			}
			for _, a := range p.Anomalies {
				fmt.Fprintln(out, renderStatusLine("Anomaly", statusWarn, a.Error(), colorize))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run as JSON")
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete runs older than a duration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d runs\n", removed)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age of runs to delete")
	return cmd
}
