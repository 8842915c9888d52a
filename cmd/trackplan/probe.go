package main

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"

	"trackplan/internal/config"
	"trackplan/internal/logging"
	"trackplan/internal/media/ffprobe"
	"trackplan/internal/media/tracks"
	"trackplan/internal/plan"
	"trackplan/internal/services/mediainfo"
	"trackplan/internal/services/mkvmerge"
)

// probeFile collects the snapshots of every available backend. ffprobe
// failures are fatal; the optional backends are skipped with a warning.
func probeFile(ctx context.Context, cfg *config.Config, logger *slog.Logger, path string) (plan.Snapshots, error) {
	var snaps plan.Snapshots

	ffCtx, cancel := toolContext(ctx, cfg)
	result, err := ffprobe.Inspect(ffCtx, cfg.Tools.FFprobe, path)
	cancel()
	if err != nil {
		return snaps, err
	}
	ff := result.Container()
	snaps.FFprobe = &ff
	logger.Debug("ffprobe snapshot", logging.Any("summary", ff.Summary()))

	if available(cfg.Tools.MkvMerge) {
		mkvCtx, cancel := toolContext(ctx, cfg)
		id, err := mkvmerge.Identify(mkvCtx, cfg.Tools.MkvMerge, path)
		cancel()
		if err != nil {
			logging.WarnWithContext(logger, "mkvmerge identification failed", "probe_failed",
				logging.String("tool", "mkvmerge"),
				logging.Error(err),
				logging.String(logging.FieldImpact, "language and duplicate decisions fall back to ffprobe"),
			)
		} else {
			c := id.Container()
			snaps.MkvMerge = &c
			logger.Debug("mkvmerge snapshot", logging.Any("summary", c.Summary()))
		}
	}

	if available(cfg.Tools.MediaInfo) {
		miCtx, cancel := toolContext(ctx, cfg)
		report, err := mediainfo.Inspect(miCtx, cfg.Tools.MediaInfo, path)
		cancel()
		if err != nil {
			logging.WarnWithContext(logger, "mediainfo inspection failed", "probe_failed",
				logging.String("tool", "mediainfo"),
				logging.Error(err),
				logging.String(logging.FieldImpact, "VOBSUB remux detection is skipped"),
			)
		} else {
			c := report.Container()
			snaps.MediaInfo = &c
			logger.Debug("mediainfo snapshot", logging.Any("summary", c.Summary()))
		}
	}
	return snaps, nil
}

func toolContext(ctx context.Context, cfg *config.Config) (context.Context, context.CancelFunc) {
	if timeout := cfg.ToolTimeout(); timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

func available(binary string) bool {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return false
	}
	_, err := exec.LookPath(binary)
	return err == nil
}

// primaryTracks returns the tracks shown to the user, taken from the ffprobe
// snapshot since plan decisions are keyed by its IDs.
func primaryTracks(snaps plan.Snapshots) []tracks.Track {
	if snaps.FFprobe == nil {
		return nil
	}
	return snaps.FFprobe.Tracks()
}
