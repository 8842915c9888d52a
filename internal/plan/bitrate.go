package plan

import (
	"trackplan/internal/media/bitrate"
	"trackplan/internal/media/tracks"
	"trackplan/internal/services"
)

// BitrateVerdict is the outcome of checking a bitrate calculation against the
// configured maximum.
type BitrateVerdict struct {
	Checked bool `json:"checked"`
	// ThresholdBytes is the per-second limit in bytes.
	ThresholdBytes  int64   `json:"threshold_bytes"`
	Exceeded        bool    `json:"exceeded"`
	ExceededSeconds int     `json:"exceeded_seconds"`
	ExceededRatio   float64 `json:"exceeded_ratio"`
	MaximumBytes    int64   `json:"maximum_bytes"`
	AverageBytes    float64 `json:"average_bytes"`
}

// EvaluateBitrate checks the combined series of info against opts. When
// verification is disabled or no maximum is configured the verdict is
// unchecked.
func EvaluateBitrate(info *bitrate.Info, opts Options) (BitrateVerdict, error) {
	if info == nil {
		return BitrateVerdict{}, services.InvalidArgument("evaluate bitrate", "bitrate info")
	}
	threshold := opts.ThresholdBytes()
	if !opts.VerifyBitrate || threshold <= 0 {
		return BitrateVerdict{ThresholdBytes: threshold}, nil
	}
	combined := info.Combined
	return BitrateVerdict{
		Checked:         true,
		ThresholdBytes:  threshold,
		Exceeded:        combined.Maximum > threshold,
		ExceededSeconds: len(combined.ExceededSeconds()),
		ExceededRatio:   combined.ExceededRatio(),
		MaximumBytes:    combined.Maximum,
		AverageBytes:    combined.Average,
	}, nil
}

// BitrateStreams picks the stream indexes measured by the bitrate check: the
// first video and first audio track of c. ok is false when either is missing.
func BitrateStreams(c tracks.Container) (videoStream, audioStream int, ok bool) {
	if len(c.Video) == 0 || len(c.Audio) == 0 {
		return -1, -1, false
	}
	return c.Video[0].ID, c.Audio[0].ID, true
}
