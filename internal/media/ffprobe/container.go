package ffprobe

import (
	"math"
	"strings"
	"time"

	"trackplan/internal/language"
	"trackplan/internal/media/tracks"
)

const unknownCodec = "unknown"

// Container maps the probed streams onto the shared track model. Stream
// indexes become track IDs. Cover art is dropped and the container flags are
// aggregated from the tracks and format tags.
func (r Result) Container() tracks.Container {
	c := tracks.New(tracks.ParserFFprobe)
	c.FormatName = r.Format.FormatName

	for _, stream := range r.Streams {
		kind, ok := tracks.ParseKind(stream.CodecType)
		if !ok {
			continue
		}
		base := stream.track()
		switch kind {
		case tracks.KindVideo:
			c.Add(tracks.NewVideo(base, tracks.VideoDetail{
				FieldOrder:  strings.ToLower(strings.TrimSpace(stream.FieldOrder)),
				AttachedPic: stream.flag("attached_pic"),
			}))
		case tracks.KindAudio:
			c.Add(tracks.NewAudio(base, tracks.AudioDetail{
				Channels:      stream.Channels,
				ChannelLayout: stream.ChannelLayout,
			}))
		case tracks.KindSubtitle:
			c.Add(tracks.NewSubtitle(base, tracks.SubtitleDetail{}))
		}
	}

	c.RemoveCoverArt()
	c.Aggregate(hasStatisticsTags(r.Format.Tags), secondsToDuration(r.DurationSeconds()))
	return c
}

func (s Stream) track() tracks.Track {
	codec := strings.TrimSpace(s.CodecName)
	hasErrors := false
	// Some subtitle codecs such as WEBVTT in Matroska are not recognized.
	if codec == "" || strings.TrimSpace(s.CodecLongName) == "" {
		hasErrors = true
	}
	if codec == "" {
		codec = unknownCodec
	}
	return tracks.Track{
		ID:        s.Index,
		Codec:     codec,
		Format:    codec,
		Profile:   strings.TrimSpace(s.Profile),
		Language:  language.ExtractFromTags(s.Tags),
		Title:     tagValue(s.Tags, "title"),
		Default:   s.flag("default"),
		Forced:    s.flag("forced"),
		HasErrors: hasErrors,
		HasTags:   hasStatisticsTags(s.Tags),
	}
}

func (s Stream) flag(name string) bool {
	return s.Disposition[name] != 0
}

func tagValue(tags map[string]string, key string) string {
	for k, v := range tags {
		if strings.EqualFold(k, key) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// hasStatisticsTags reports tags beyond the expected language and title, such
// as the _STATISTICS_* set written by mkvmerge.
func hasStatisticsTags(tags map[string]string) bool {
	for key := range tags {
		if strings.Contains(strings.ToLower(key), "statistics") {
			return true
		}
	}
	return false
}

func secondsToDuration(seconds float64) time.Duration {
	if seconds <= 0 || math.IsNaN(seconds) {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
