package mkvmerge

import (
	"errors"
	"testing"
	"time"

	"trackplan/internal/media/tracks"
	"trackplan/internal/services"
)

const identifyJSON = `{
  "file_name": "movie.mkv",
  "container": {"recognized": true, "supported": true, "type": "Matroska",
    "properties": {"duration": 5400000000000, "title": "Movie"}},
  "tracks": [
    {"id": 0, "type": "video", "codec": "AVC/H.264/MPEG-4p10",
     "properties": {"codec_id": "V_MPEG4/ISO/AVC", "language": "und", "default_track": true}},
    {"id": 1, "type": "audio", "codec": "TrueHD Atmos",
     "properties": {"codec_id": "A_TRUEHD", "language": "eng", "audio_channels": 8, "default_track": true}},
    {"id": 2, "type": "audio", "codec": "AC-3",
     "properties": {"codec_id": "A_AC3", "language": "eng", "track_name": "Commentary", "audio_channels": 2}},
    {"id": 3, "type": "subtitles", "codec": "SubRip/SRT",
     "properties": {"codec_id": "S_TEXT/UTF8", "language": "", "language_ietf": "fr-CA", "forced_track": true}}
  ],
  "track_tags": [{"num_entries": 0, "track_id": 0}, {"num_entries": 5, "track_id": 1}],
  "global_tags": [],
  "errors": [],
  "warnings": []
}`

func TestContainerMapping(t *testing.T) {
	id, err := Parse([]byte(identifyJSON))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c := id.Container()
	if c.Parser != tracks.ParserMkvMerge || c.FormatName != "Matroska" {
		t.Fatalf("unexpected container: %s %q", c.Parser, c.FormatName)
	}
	if len(c.Video) != 1 || len(c.Audio) != 2 || len(c.Subtitle) != 1 {
		t.Fatalf("unexpected counts: %+v", c.Summary())
	}
	if c.Duration != 90*time.Minute {
		t.Fatalf("unexpected duration %v", c.Duration)
	}

	v := c.Video[0]
	if v.Codec != "V_MPEG4/ISO/AVC" || v.Format != "AVC/H.264/MPEG-4p10" || !v.IsLanguageUnknown() {
		t.Fatalf("unexpected video: %+v", v)
	}
	a := c.Audio[1]
	if a.Title != "Commentary" || a.Default || a.Format != "AC-3" {
		t.Fatalf("unexpected audio: %+v", a)
	}
	if !c.Audio[0].HasTags || !c.HasTags {
		t.Fatal("expected track tags to be reported")
	}
	s := c.Subtitle[0]
	if s.Language != "fra" || !s.Forced {
		t.Fatalf("unexpected subtitle: %+v", s)
	}
	if c.HasErrors {
		t.Fatal("did not expect errors")
	}
}

func TestContainerReportsErrors(t *testing.T) {
	id := Identification{
		Container: Container{Recognized: true},
		Tracks:    []Track{{ID: 0, Type: "video", Codec: "HEVC"}},
		Errors:    []string{"broken cluster"},
	}
	c := id.Container()
	if !c.HasErrors {
		t.Fatal("expected errors from identification")
	}
	if !c.Video[0].HasErrors {
		t.Fatal("expected missing codec id to flag the track")
	}
}

func TestParseAndIdentifyErrors(t *testing.T) {
	if _, err := Parse([]byte("not json")); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := Identify(t.Context(), "", ""); !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}
