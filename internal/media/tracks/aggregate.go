package tracks

import "time"

// Aggregate recomputes the container-level flags from the per-track results.
// formatHasTags reports tags found on the container itself.
func (c *Container) Aggregate(formatHasTags bool, duration time.Duration) {
	c.HasErrors = false
	c.HasTags = formatHasTags
	for _, t := range c.Tracks() {
		if t.HasErrors {
			c.HasErrors = true
		}
		if t.HasTags {
			c.HasTags = true
		}
	}
	if duration > 0 {
		c.Duration = duration
	}
}

// RemoveCoverArt drops video tracks that are attached pictures. Cover art is
// stored as a video stream by some muxers and must not take part in video
// track decisions.
func (c *Container) RemoveCoverArt() int {
	kept := make([]Track, 0, len(c.Video))
	removed := 0
	for _, t := range c.Video {
		if v, ok := t.Video(); ok && v.AttachedPic {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	c.Video = kept
	return removed
}

// Summary reports per-kind track counts.
type Summary struct {
	Parser    string `json:"parser"`
	Video     int    `json:"video"`
	Audio     int    `json:"audio"`
	Subtitle  int    `json:"subtitle"`
	HasErrors bool   `json:"has_errors"`
	HasTags   bool   `json:"has_tags"`
	Seconds   int64  `json:"duration_seconds"`
}

// Summary returns per-kind counts and the aggregate flags.
func (c Container) Summary() Summary {
	return Summary{
		Parser:    c.Parser.String(),
		Video:     len(c.Video),
		Audio:     len(c.Audio),
		Subtitle:  len(c.Subtitle),
		HasErrors: c.HasErrors,
		HasTags:   c.HasTags,
		Seconds:   int64(c.Duration / time.Second),
	}
}
