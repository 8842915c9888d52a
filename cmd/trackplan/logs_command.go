package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"trackplan/internal/logging"
	"trackplan/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var raw bool
	var lines int
	var runID string
	var level string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display the trackplan log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			filter := logs.Filter{RunID: strings.TrimSpace(runID)}
			if err := filter.MinLevel.UnmarshalText([]byte(level)); err != nil {
				return fmt.Errorf("invalid --level %q: %w", level, err)
			}
			path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)

			limit := lines
			if limit < 0 {
				limit = 0
			}
			offset := int64(-1)
			if limit == 0 {
				offset = 0
			}

			runCtx := cmd.Context()
			out := cmd.OutOrStdout()
			printed := false
			for {
				chunk, err := logs.Tail(runCtx, path, logs.TailOptions{
					Offset: offset,
					Limit:  limit,
					Follow: follow,
					Wait:   time.Second,
				})
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return fmt.Errorf("tail logs: %w", err)
				}
				for _, entry := range logs.Entries(chunk.Lines, filter) {
					if raw {
						fmt.Fprintln(out, entry.Raw)
					} else {
						fmt.Fprintln(out, entry.Format())
					}
					printed = true
				}
				offset = chunk.Offset
				limit = 0
				if !follow {
					if !printed {
						fmt.Fprintln(out, "No log entries available")
					}
					return nil
				}
				select {
				case <-runCtx.Done():
					return nil
				default:
				}
			}
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print JSON lines unchanged")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to read (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "Only show entries for this run ID or prefix")
	cmd.Flags().StringVar(&level, "level", slog.LevelInfo.String(), "Minimum level to show (debug, info, warn, error)")
	return cmd
}
