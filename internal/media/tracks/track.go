package tracks

import (
	"fmt"
	"strings"

	"trackplan/internal/language"
)

// Kind identifies the elementary stream type of a track.
type Kind int

const (
	KindVideo Kind = iota
	KindAudio
	KindSubtitle
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	case KindSubtitle:
		return "subtitle"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a backend codec type ("video", "audio", "subtitles", "text")
// to a Kind.
func ParseKind(value string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "video":
		return KindVideo, true
	case "audio":
		return KindAudio, true
	case "subtitle", "subtitles", "text":
		return KindSubtitle, true
	default:
		return 0, false
	}
}

// Detail is the kind-specific payload of a Track. The concrete type always
// matches the track Kind: VideoDetail, AudioDetail or SubtitleDetail.
type Detail interface {
	detailKind() Kind
}

// VideoDetail carries video-only attributes.
type VideoDetail struct {
	// ScanType is MediaInfo's scan type ("Progressive", "Interlaced", "MBAFF").
	ScanType string
	// FieldOrder is ffprobe's field order ("progressive", "tt", "bb", ...).
	FieldOrder string
	// AttachedPic marks cover art stored as a video stream.
	AttachedPic bool
}

// AudioDetail carries audio-only attributes.
type AudioDetail struct {
	Channels      int
	ChannelLayout string
}

// SubtitleDetail carries subtitle-only attributes.
type SubtitleDetail struct {
	// MuxingMode is empty when the track was not properly multiplexed.
	MuxingMode string
}

func (VideoDetail) detailKind() Kind    { return KindVideo }
func (AudioDetail) detailKind() Kind    { return KindAudio }
func (SubtitleDetail) detailKind() Kind { return KindSubtitle }

// Track describes one elementary stream inside a container.
type Track struct {
	// ID is the stable ordinal position of the track within the container.
	ID        int
	Kind      Kind
	Codec     string
	Format    string
	Profile   string
	Language  string
	Title     string
	Default   bool
	Forced    bool
	HasErrors bool
	HasTags   bool
	Detail    Detail
}

// NewVideo builds a video track with normalized language.
func NewVideo(base Track, detail VideoDetail) Track {
	base.Kind = KindVideo
	base.Detail = detail
	base.Language = language.Canonical(base.Language)
	return base
}

// NewAudio builds an audio track with normalized language.
func NewAudio(base Track, detail AudioDetail) Track {
	base.Kind = KindAudio
	base.Detail = detail
	base.Language = language.Canonical(base.Language)
	return base
}

// NewSubtitle builds a subtitle track with normalized language.
func NewSubtitle(base Track, detail SubtitleDetail) Track {
	base.Kind = KindSubtitle
	base.Detail = detail
	base.Language = language.Canonical(base.Language)
	return base
}

// IsLanguageUnknown reports whether the track has no usable language tag.
func (t Track) IsLanguageUnknown() bool {
	return language.IsUnknown(t.Language)
}

// TitleContains reports whether the title contains substr, ignoring case.
func (t Track) TitleContains(substr string) bool {
	return strings.Contains(strings.ToLower(t.Title), strings.ToLower(substr))
}

// Video returns the video payload when the track is a video track.
func (t Track) Video() (VideoDetail, bool) {
	v, ok := t.Detail.(VideoDetail)
	return v, ok
}

// Audio returns the audio payload when the track is an audio track.
func (t Track) Audio() (AudioDetail, bool) {
	a, ok := t.Detail.(AudioDetail)
	return a, ok
}

// Subtitle returns the subtitle payload when the track is a subtitle track.
func (t Track) Subtitle() (SubtitleDetail, bool) {
	s, ok := t.Detail.(SubtitleDetail)
	return s, ok
}

// IsInterlaced is the default interlace predicate. It accepts MediaInfo scan
// types and ffprobe field orders; non-video tracks are never interlaced.
func IsInterlaced(t Track) bool {
	v, ok := t.Video()
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(v.ScanType)) {
	case "interlaced", "mbaff", "paff":
		return true
	}
	switch strings.ToLower(strings.TrimSpace(v.FieldOrder)) {
	case "tt", "bb", "tb", "bt":
		return true
	}
	return false
}

// String renders a one-line summary used in logs and tables.
func (t Track) String() string {
	parts := []string{
		fmt.Sprintf("%s:%d", t.Kind, t.ID),
		"codec=" + t.Codec,
		"format=" + t.Format,
		"language=" + t.Language,
	}
	if t.Profile != "" {
		parts = append(parts, "profile="+t.Profile)
	}
	if t.Default {
		parts = append(parts, "default")
	}
	if t.Forced {
		parts = append(parts, "forced")
	}
	switch d := t.Detail.(type) {
	case VideoDetail:
		if d.ScanType != "" {
			parts = append(parts, "scan="+d.ScanType)
		}
	case AudioDetail:
		if d.Channels > 0 {
			parts = append(parts, fmt.Sprintf("channels=%d", d.Channels))
		}
	case SubtitleDetail:
		if d.MuxingMode != "" {
			parts = append(parts, "muxing="+d.MuxingMode)
		}
	}
	if t.Title != "" {
		parts = append(parts, fmt.Sprintf("title=%q", t.Title))
	}
	return strings.Join(parts, " ")
}
