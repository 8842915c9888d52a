// Package mediainfo wraps the MediaInfo command line tool's JSON report.
//
// MediaInfo is the only backend that reports scan type and subtitle muxing
// mode, so its container feeds the interlace and VOBSUB checks.
package mediainfo

import (
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"trackplan/internal/media/tracks"
	"trackplan/internal/services"
)

// DefaultBinary is used when no mediainfo path is configured.
const DefaultBinary = "mediainfo"

// Report is the top level `mediainfo --Output=JSON` document.
type Report struct {
	Media Media `json:"media"`
}

// Media holds the per-file track list.
type Media struct {
	Ref    string  `json:"@ref"`
	Tracks []Track `json:"track"`
}

// Track is one MediaInfo track entry. MediaInfo emits every value as a
// string; nested objects such as "extra" are ignored.
type Track struct {
	Type          string `json:"@type"`
	StreamOrder   string `json:"StreamOrder"`
	ID            string `json:"ID"`
	Format        string `json:"Format"`
	FormatProfile string `json:"Format_Profile"`
	CodecID       string `json:"CodecID"`
	Language      string `json:"Language"`
	Title         string `json:"Title"`
	Default       string `json:"Default"`
	Forced        string `json:"Forced"`
	ScanType      string `json:"ScanType"`
	MuxingMode    string `json:"MuxingMode"`
	Channels      string `json:"Channels"`
	Duration      string `json:"Duration"`
}

// Inspect runs mediainfo against path.
func Inspect(ctx context.Context, binary, path string) (Report, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = DefaultBinary
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Report{}, services.InvalidArgument("mediainfo inspect", "path")
	}

	cmd := exec.CommandContext(ctx, binary, "--Output=JSON", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Report{}, services.ToolFailure(ctx, "mediainfo", "inspect", strings.TrimSpace(string(output)), err)
	}
	return Parse(output)
}

// Parse decodes a MediaInfo JSON report.
func Parse(data []byte) (Report, error) {
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return Report{}, services.Wrap(services.ErrValidation, "mediainfo", "parse", "decode json", err)
	}
	return report, nil
}

// Container maps the report onto the shared track model. StreamOrder becomes
// the track ID so that IDs line up with ffprobe indexes and mkvmerge IDs.
func (r Report) Container() tracks.Container {
	c := tracks.New(tracks.ParserMediaInfo)
	var duration time.Duration

	for i, t := range r.Media.Tracks {
		if strings.EqualFold(t.Type, "General") {
			c.FormatName = t.Format
			duration = parseSeconds(t.Duration)
			continue
		}
		kind, ok := tracks.ParseKind(t.Type)
		if !ok {
			continue
		}
		base := tracks.Track{
			ID:       t.order(i),
			Codec:    strings.TrimSpace(t.CodecID),
			Format:   strings.TrimSpace(t.Format),
			Profile:  strings.TrimSpace(t.FormatProfile),
			Language: t.Language,
			Title:    strings.TrimSpace(t.Title),
			Default:  yes(t.Default),
			Forced:   yes(t.Forced),
		}
		if base.Format == "" {
			base.HasErrors = true
		}
		switch kind {
		case tracks.KindVideo:
			c.Add(tracks.NewVideo(base, tracks.VideoDetail{ScanType: strings.TrimSpace(t.ScanType)}))
		case tracks.KindAudio:
			channels, _ := strconv.Atoi(strings.TrimSpace(t.Channels))
			c.Add(tracks.NewAudio(base, tracks.AudioDetail{Channels: channels}))
		case tracks.KindSubtitle:
			c.Add(tracks.NewSubtitle(base, tracks.SubtitleDetail{MuxingMode: strings.TrimSpace(t.MuxingMode)}))
		}
	}

	c.Aggregate(false, duration)
	return c
}

// order returns the 0-based stream order, falling back to the position in
// the report minus the General track.
func (t Track) order(position int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(t.StreamOrder)); err == nil {
		return n
	}
	if position > 0 {
		return position - 1
	}
	return position
}

func yes(value string) bool {
	return strings.EqualFold(strings.TrimSpace(value), "yes")
}

func parseSeconds(value string) time.Duration {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
