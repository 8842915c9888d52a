package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"trackplan/internal/config"
	"trackplan/internal/media/bitrate"
	"trackplan/internal/media/ffprobe"
	"trackplan/internal/plan"
)

func newBitrateCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "bitrate FILE",
		Short: "Measure per-second bitrate of the first video and audio streams",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runBitrate(cmd.Context(), cmd.OutOrStdout(), cfg, args[0], jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the full per-second series as JSON")
	return cmd
}

func runBitrate(ctx context.Context, out io.Writer, cfg *config.Config, file string, jsonOutput bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	path, err := config.ExpandPath(file)
	if err != nil {
		return err
	}

	toolCtx, cancel := toolContext(ctx, cfg)
	result, err := ffprobe.Inspect(toolCtx, cfg.Tools.FFprobe, path)
	cancel()
	if err != nil {
		return err
	}

	opts := plan.FromConfig(cfg)
	opts.VerifyBitrate = true
	report, err := verifyBitrate(ctx, cfg, result.Container(), path, opts)
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(out, report)
	}

	colorize := shouldColorize(out)
	info := report.Info
	rows := [][]string{
		seriesRow("video", report.VideoStream, info.VideoPackets, info.Video),
		seriesRow("audio", report.AudioStream, info.AudioPackets, info.Audio),
		seriesRow("combined", -1, info.VideoPackets+info.AudioPackets, info.Combined),
	}
	fmt.Fprintln(out, renderTable(
		fmt.Sprintf("%s (%d s)", path, info.Duration),
		[]string{"Series", "Stream", "Packets", "Min B/s", "Max B/s", "Avg B/s", "Exceeded"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	))
	for _, a := range info.Anomalies {
		fmt.Fprintln(out, renderStatusLine("Anomaly", statusWarn, a.Error(), colorize))
	}
	v := report.Verdict
	if v.Exceeded {
		fmt.Fprintln(out, renderStatusLine("Bitrate", statusWarn,
			fmt.Sprintf("exceeds %d B/s for %d s (%.1f%%)", v.ThresholdBytes, v.ExceededSeconds, v.ExceededRatio*100), colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Bitrate", statusOK, fmt.Sprintf("within %d B/s", v.ThresholdBytes), colorize))
	}
	return nil
}

func seriesRow(name string, stream int, packets int64, s bitrate.Series) []string {
	streamLabel := "-"
	if stream >= 0 {
		streamLabel = strconv.Itoa(stream)
	}
	return []string{
		name,
		streamLabel,
		strconv.FormatInt(packets, 10),
		strconv.FormatInt(s.Minimum, 10),
		strconv.FormatInt(s.Maximum, 10),
		strconv.FormatFloat(s.Average, 'f', 0, 64),
		strconv.Itoa(s.Exceeded),
	}
}
