package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"trackplan/internal/config"
	"trackplan/internal/history"
	"trackplan/internal/logging"
	"trackplan/internal/media/bitrate"
	"trackplan/internal/media/ffprobe"
	"trackplan/internal/media/tracks"
	"trackplan/internal/plan"
	"trackplan/internal/preflight"
	"trackplan/internal/services"
)

// analysis is the per-file result printed by analyze.
type analysis struct {
	RunID      string           `json:"run_id"`
	File       string           `json:"file"`
	Status     history.Status   `json:"status"`
	Containers []tracks.Summary `json:"containers,omitempty"`
	Tracks     []trackView      `json:"tracks,omitempty"`
	Plan       *plan.Plan       `json:"plan,omitempty"`
	Bitrate    *bitrateReport   `json:"bitrate,omitempty"`
	Error      string           `json:"error,omitempty"`
}

type trackView struct {
	ID          int                `json:"id"`
	Kind        string             `json:"kind"`
	Codec       string             `json:"codec"`
	Format      string             `json:"format"`
	Language    string             `json:"language"`
	Title       string             `json:"title,omitempty"`
	Default     bool               `json:"default"`
	Forced      bool               `json:"forced"`
	Disposition tracks.Disposition `json:"disposition"`
	Reason      string             `json:"reason,omitempty"`
}

type bitrateReport struct {
	VideoStream int                 `json:"video_stream"`
	AudioStream int                 `json:"audio_stream"`
	Info        *bitrate.Info       `json:"info,omitempty"`
	Verdict     plan.BitrateVerdict `json:"verdict"`
}

type analyzeOptions struct {
	jsonOutput bool
	noHistory  bool
	bitrate    bool
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Probe media files and print the planned track actions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), cfg, logger, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print results as JSON")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "Do not record runs in the history database")
	cmd.Flags().BoolVar(&opts.bitrate, "bitrate", false, "Verify bitrate even when disabled in the configuration")
	return cmd
}

func runAnalyze(ctx context.Context, out io.Writer, cfg *config.Config, logger *slog.Logger, files []string, opts analyzeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger = logging.NewComponentLogger(logger, "analyze")

	if failed := preflight.Failed(preflight.RunAll(ctx, cfg)); len(failed) > 0 {
		names := make([]string, 0, len(failed))
		for _, f := range failed {
			names = append(names, fmt.Sprintf("%s: %s", f.Name, f.Detail))
		}
		return fmt.Errorf("%w: preflight failed: %s", services.ErrConfiguration, strings.Join(names, "; "))
	}

	lock, err := history.AcquireLock(cfg.Paths.StateDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("failed to release state lock", logging.Error(err))
		}
	}()

	var store *history.Store
	if !opts.noHistory {
		store, err = history.Open(cfg)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()
	}

	planOpts := plan.FromConfig(cfg)
	if opts.bitrate {
		planOpts.VerifyBitrate = true
	}

	results := make([]analysis, 0, len(files))
	failures := 0
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		result := analyzeFile(ctx, cfg, logger, file, planOpts)
		if result.Status == history.StatusFailed {
			failures++
		}
		if store != nil {
			if err := store.Record(ctx, historyRun(result)); err != nil {
				logging.WarnWithContext(logger, "failed to record run", "history_write_failed",
					logging.String(logging.FieldRunID, result.RunID),
					logging.Error(err),
					logging.String(logging.FieldImpact, "run is missing from history"),
				)
			}
		}
		results = append(results, result)
	}

	if opts.jsonOutput {
		if err := writeJSON(out, results); err != nil {
			return err
		}
	} else {
		colorize := shouldColorize(out)
		for i, result := range results {
			if i > 0 {
				fmt.Fprintln(out)
			}
			printAnalysis(out, result, colorize)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d files failed analysis", failures, len(files))
	}
	return nil
}

func analyzeFile(ctx context.Context, cfg *config.Config, logger *slog.Logger, file string, opts plan.Options) analysis {
	runID := history.NewRunID()
	path, err := config.ExpandPath(file)
	if err != nil {
		path = file
	}
	if abs, absErr := filepath.Abs(path); absErr == nil {
		path = abs
	}

	ctx = services.WithRunID(ctx, runID)
	ctx = services.WithFile(ctx, path)
	result := analysis{RunID: runID, File: path}
	fileLogger := logging.WithContext(ctx, logger)
	fail := func(stage string, err error) analysis {
		result.Status = history.StatusFailed
		result.Error = err.Error()
		logging.ErrorWithContext(logging.WithContext(services.WithStage(ctx, stage), logger), "analysis failed", "analysis_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "verify the file is readable and the probe tools work"),
		)
		return result
	}

	snaps, err := probeFile(ctx, cfg, fileLogger, path)
	if err != nil {
		return fail("probe", err)
	}
	for _, c := range []*tracks.Container{snaps.FFprobe, snaps.MkvMerge, snaps.MediaInfo} {
		if c != nil {
			result.Containers = append(result.Containers, c.Summary())
		}
	}

	p, err := plan.Build(snaps, opts)
	if err != nil {
		return fail("plan", err)
	}
	result.Plan = p
	result.Tracks = trackViews(primaryTracks(snaps), p)
	logPlan(logging.WithContext(services.WithStage(ctx, "plan"), logger), p, result.Tracks)

	if opts.VerifyBitrate {
		report, err := verifyBitrate(ctx, cfg, *snaps.FFprobe, path, opts)
		if err != nil {
			if !errors.Is(err, services.ErrNotFound) {
				return fail("bitrate", err)
			}
			logging.WarnWithContext(fileLogger, "bitrate verification skipped", "bitrate_skipped",
				logging.Error(err),
				logging.String(logging.FieldImpact, "bitrate limits were not checked"),
			)
		} else {
			result.Bitrate = report
			if report.Verdict.Exceeded {
				logging.WarnWithContext(fileLogger, "bitrate exceeds configured maximum", "bitrate_exceeded",
					logging.Int64("maximum_bytes", report.Verdict.MaximumBytes),
					logging.Int64("threshold_bytes", report.Verdict.ThresholdBytes),
					logging.Int("exceeded_seconds", report.Verdict.ExceededSeconds),
					logging.String(logging.FieldImpact, "playback may stall on constrained clients"),
				)
			}
		}
	}

	result.Status = history.StatusNoAction
	if p.Changed() || (result.Bitrate != nil && result.Bitrate.Verdict.Exceeded) {
		result.Status = history.StatusPlanned
	}
	fileLogger.Info("analysis complete",
		logging.String(logging.FieldEventType, "analysis_complete"),
		logging.String("status", string(result.Status)),
		logging.Int("remove", p.Count(tracks.DispositionRemove)),
		logging.Int("reencode", p.Count(tracks.DispositionReEncode)),
		logging.Int("remux", p.Count(tracks.DispositionReMux)),
		logging.Int("relabel", len(p.Relabels)),
		logging.Int("anomalies", len(p.Anomalies)),
	)
	return result
}

func verifyBitrate(ctx context.Context, cfg *config.Config, c tracks.Container, path string, opts plan.Options) (*bitrateReport, error) {
	videoStream, audioStream, ok := plan.BitrateStreams(c)
	if !ok {
		return nil, fmt.Errorf("%w: bitrate needs one video and one audio stream", services.ErrNotFound)
	}
	toolCtx, cancel := toolContext(ctx, cfg)
	defer cancel()
	packets, err := ffprobe.Packets(toolCtx, cfg.Tools.FFprobe, path)
	if err != nil {
		return nil, err
	}
	info, err := bitrate.Calculate(packets, videoStream, audioStream, opts.ThresholdBytes())
	if err != nil {
		return nil, err
	}
	verdict, err := plan.EvaluateBitrate(info, opts)
	if err != nil {
		return nil, err
	}
	return &bitrateReport{VideoStream: videoStream, AudioStream: audioStream, Info: info, Verdict: verdict}, nil
}

func trackViews(list []tracks.Track, p *plan.Plan) []trackView {
	views := make([]trackView, 0, len(list))
	for _, t := range list {
		d, _ := p.Disposition(t.ID)
		views = append(views, trackView{
			ID:          t.ID,
			Kind:        t.Kind.String(),
			Codec:       t.Codec,
			Format:      t.Format,
			Language:    t.Language,
			Title:       t.Title,
			Default:     t.Default,
			Forced:      t.Forced,
			Disposition: d,
			Reason:      p.Reason(t.ID),
		})
	}
	return views
}

func logPlan(logger *slog.Logger, p *plan.Plan, views []trackView) {
	for _, v := range views {
		logger.Debug("track decision", logging.Args(logging.DecisionAttrs(v.ID, v.Kind, v.Disposition.String(), v.Reason)...)...)
	}
	for _, a := range p.Anomalies {
		logging.WarnWithContext(logger, "data anomaly", "data_anomaly",
			logging.Alert(a.Op),
			logging.String("detail", a.Detail),
			logging.String(logging.FieldImpact, "decisions may be incomplete"),
		)
	}
}

func historyRun(result analysis) *history.Run {
	run := &history.Run{
		ID:     result.RunID,
		File:   result.File,
		Status: result.Status,
		Error:  result.Error,
	}
	if result.Plan != nil {
		run.Changes = len(result.Plan.Relabels)
		for _, d := range result.Plan.Decisions {
			if d.Disposition != tracks.DispositionKeep {
				run.Changes++
			}
		}
		run.Anomalies = len(result.Plan.Anomalies)
		if data, err := json.Marshal(result.Plan); err == nil {
			run.Plan = data
		}
	}
	if result.Bitrate != nil {
		if data, err := json.Marshal(result.Bitrate.Verdict); err == nil {
			run.Bitrate = data
		}
	}
	return run
}

func printAnalysis(out io.Writer, result analysis, colorize bool) {
	fmt.Fprintf(out, "%s\n", result.File)
	if result.Error != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, result.Error, colorize))
		return
	}

	rows := make([][]string, 0, len(result.Tracks))
	for _, v := range result.Tracks {
		rows = append(rows, []string{
			strconv.Itoa(v.ID),
			v.Kind,
			v.Format,
			v.Language,
			v.Title,
			trackFlags(v),
			dispositionLabel(v.Disposition, colorize),
			v.Reason,
		})
	}
	fmt.Fprintln(out, renderTable(
		fmt.Sprintf("Run %s", shortID(result.RunID)),
		[]string{"ID", "Kind", "Format", "Language", "Title", "Flags", "Action", "Reason"},
		rows,
		[]columnAlignment{alignRight},
	))

	if result.Plan != nil {
		for _, r := range result.Plan.Relabels {
			fmt.Fprintln(out, renderStatusLine("Relabel", statusInfo, fmt.Sprintf("track %d %s -> %s", r.ID, r.From, r.To), colorize))
		}
		for _, a := range result.Plan.Anomalies {
			fmt.Fprintln(out, renderStatusLine("Anomaly", statusWarn, a.Error(), colorize))
		}
	}
	if result.Bitrate != nil {
		v := result.Bitrate.Verdict
		kind, msg := statusOK, fmt.Sprintf("peak %d B/s within %d B/s", v.MaximumBytes, v.ThresholdBytes)
		if v.Exceeded {
			kind = statusWarn
			msg = fmt.Sprintf("peak %d B/s exceeds %d B/s for %d s", v.MaximumBytes, v.ThresholdBytes, v.ExceededSeconds)
		}
		fmt.Fprintln(out, renderStatusLine("Bitrate", kind, msg, colorize))
	}
	status := statusOK
	if result.Status == history.StatusPlanned {
		status = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Status", status, string(result.Status), colorize))
}

func trackFlags(v trackView) string {
	var flags []string
	if v.Default {
		flags = append(flags, "default")
	}
	if v.Forced {
		flags = append(flags, "forced")
	}
	return strings.Join(flags, ",")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
