// Package mkvmerge wraps mkvmerge's JSON identification output.
package mkvmerge

import (
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"
	"time"

	"trackplan/internal/media/tracks"
	"trackplan/internal/services"
)

// DefaultBinary is used when no mkvmerge path is configured.
const DefaultBinary = "mkvmerge"

// Identification is the subset of `mkvmerge -J` output used for planning.
type Identification struct {
	FileName    string       `json:"file_name"`
	Container   Container    `json:"container"`
	Tracks      []Track      `json:"tracks"`
	Attachments []Attachment `json:"attachments"`
	GlobalTags  []TagEntry   `json:"global_tags"`
	TrackTags   []TrackTag   `json:"track_tags"`
	Errors      []string     `json:"errors"`
	Warnings    []string     `json:"warnings"`
}

// Container describes the probed container.
type Container struct {
	Recognized bool                `json:"recognized"`
	Supported  bool                `json:"supported"`
	Type       string              `json:"type"`
	Properties ContainerProperties `json:"properties"`
}

// ContainerProperties holds container-level metadata.
type ContainerProperties struct {
	// Duration is in nanoseconds.
	Duration           int64  `json:"duration"`
	Title              string `json:"title"`
	MuxingApplication  string `json:"muxing_application"`
	WritingApplication string `json:"writing_application"`
}

// Track is one entry of the tracks array.
type Track struct {
	ID         int             `json:"id"`
	Type       string          `json:"type"`
	Codec      string          `json:"codec"`
	Properties TrackProperties `json:"properties"`
}

// TrackProperties holds per-track metadata.
type TrackProperties struct {
	CodecID       string `json:"codec_id"`
	Language      string `json:"language"`
	LanguageIETF  string `json:"language_ietf"`
	TrackName     string `json:"track_name"`
	DefaultTrack  bool   `json:"default_track"`
	ForcedTrack   bool   `json:"forced_track"`
	AudioChannels int    `json:"audio_channels"`
	TagBPS        string `json:"tag_bps"`
	Number        int    `json:"number"`
}

// Attachment is a file attached to the container, such as cover art or fonts.
type Attachment struct {
	ID          int    `json:"id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// TagEntry counts tag entries on the container.
type TagEntry struct {
	NumEntries int `json:"num_entries"`
}

// TrackTag counts tag entries on one track.
type TrackTag struct {
	NumEntries int `json:"num_entries"`
	TrackID    int `json:"track_id"`
}

// Identify runs `mkvmerge -J` against path.
func Identify(ctx context.Context, binary, path string) (Identification, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = DefaultBinary
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Identification{}, services.InvalidArgument("mkvmerge identify", "path")
	}

	cmd := exec.CommandContext(ctx, binary, "--identification-format", "json", "--identify", path)
	output, err := cmd.Output()
	if err != nil {
		// mkvmerge exits 1 on warnings and still prints the document.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 || len(output) == 0 {
			return Identification{}, services.ToolFailure(ctx, "mkvmerge", "identify", strings.TrimSpace(string(output)), err)
		}
	}
	return Parse(output)
}

// Parse decodes an mkvmerge JSON identification document.
func Parse(data []byte) (Identification, error) {
	var id Identification
	if err := json.Unmarshal(data, &id); err != nil {
		return Identification{}, services.Wrap(services.ErrValidation, "mkvmerge", "parse", "decode json", err)
	}
	return id, nil
}

// Container maps the identification onto the shared track model.
func (id Identification) Container() tracks.Container {
	c := tracks.New(tracks.ParserMkvMerge)
	c.FormatName = id.Container.Type

	tagged := make(map[int]bool, len(id.TrackTags))
	for _, tag := range id.TrackTags {
		if tag.NumEntries > 0 {
			tagged[tag.TrackID] = true
		}
	}

	for _, t := range id.Tracks {
		kind, ok := tracks.ParseKind(t.Type)
		if !ok {
			continue
		}
		lang := t.Properties.Language
		if strings.TrimSpace(lang) == "" {
			lang = t.Properties.LanguageIETF
		}
		base := tracks.Track{
			ID:       t.ID,
			Codec:    strings.TrimSpace(t.Properties.CodecID),
			Format:   strings.TrimSpace(t.Codec),
			Language: lang,
			Title:    strings.TrimSpace(t.Properties.TrackName),
			Default:  t.Properties.DefaultTrack,
			Forced:   t.Properties.ForcedTrack,
			HasTags:  tagged[t.ID],
		}
		if base.Codec == "" {
			base.HasErrors = true
		}
		switch kind {
		case tracks.KindVideo:
			c.Add(tracks.NewVideo(base, tracks.VideoDetail{}))
		case tracks.KindAudio:
			c.Add(tracks.NewAudio(base, tracks.AudioDetail{Channels: t.Properties.AudioChannels}))
		case tracks.KindSubtitle:
			c.Add(tracks.NewSubtitle(base, tracks.SubtitleDetail{}))
		}
	}

	globalTags := false
	for _, tag := range id.GlobalTags {
		if tag.NumEntries > 0 {
			globalTags = true
		}
	}
	c.Aggregate(globalTags, time.Duration(id.Container.Properties.Duration))
	if len(id.Errors) > 0 || !id.Container.Recognized {
		c.HasErrors = true
	}
	return c
}
