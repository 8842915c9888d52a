package mediainfo

import (
	"errors"
	"testing"
	"time"

	"trackplan/internal/media/tracks"
	"trackplan/internal/services"
)

const reportJSON = `{
  "creatingLibrary": {"name": "MediaLib", "version": "24.01"},
  "media": {
    "@ref": "movie.mkv",
    "track": [
      {"@type": "General", "Format": "Matroska", "Duration": "5400.000", "extra": {"IsTruncated": "Yes"}},
      {"@type": "Video", "StreamOrder": "0", "ID": "1", "Format": "MPEG Video", "Format_Profile": "Main",
       "CodecID": "V_MPEG2", "ScanType": "Interlaced", "Language": "en", "Default": "Yes", "Forced": "No"},
      {"@type": "Audio", "StreamOrder": "1", "ID": "2", "Format": "AC-3", "CodecID": "A_AC3",
       "Channels": "6", "Language": "en", "Title": "Surround 5.1", "Default": "Yes", "Forced": "No"},
      {"@type": "Text", "StreamOrder": "2", "ID": "3", "Format": "VobSub", "CodecID": "S_VOBSUB",
       "Language": "fr", "Default": "No", "Forced": "Yes"},
      {"@type": "Text", "StreamOrder": "3", "ID": "4", "Format": "VobSub", "CodecID": "S_VOBSUB",
       "MuxingMode": "zlib", "Language": "de", "Default": "No", "Forced": "No"},
      {"@type": "Menu"}
    ]
  }
}`

func TestContainerMapping(t *testing.T) {
	report, err := Parse([]byte(reportJSON))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c := report.Container()
	if c.Parser != tracks.ParserMediaInfo || c.FormatName != "Matroska" {
		t.Fatalf("unexpected container: %s %q", c.Parser, c.FormatName)
	}
	if len(c.Video) != 1 || len(c.Audio) != 1 || len(c.Subtitle) != 2 {
		t.Fatalf("unexpected counts: %+v", c.Summary())
	}
	if c.Duration != 90*time.Minute {
		t.Fatalf("unexpected duration %v", c.Duration)
	}

	v := c.Video[0]
	if v.ID != 0 || v.Language != "eng" || !v.Default || v.Profile != "Main" {
		t.Fatalf("unexpected video: %+v", v)
	}
	if !tracks.IsInterlaced(v) {
		t.Fatal("expected interlaced scan type")
	}
	if a, _ := c.Audio[0].Audio(); a.Channels != 6 {
		t.Fatalf("unexpected channels %d", a.Channels)
	}
	first, _ := c.Subtitle[0].Subtitle()
	second, _ := c.Subtitle[1].Subtitle()
	if first.MuxingMode != "" || second.MuxingMode != "zlib" {
		t.Fatalf("unexpected muxing modes %q %q", first.MuxingMode, second.MuxingMode)
	}
	if !c.Subtitle[0].Forced || c.Subtitle[0].Language != "fra" || c.Subtitle[1].ID != 3 {
		t.Fatalf("unexpected subtitles: %+v", c.Subtitle)
	}
}

func TestTrackOrderFallback(t *testing.T) {
	report := Report{Media: Media{Tracks: []Track{
		{Type: "General"},
		{Type: "Video", Format: "AVC"},
		{Type: "Audio", Format: "AAC"},
	}}}
	c := report.Container()
	if c.Video[0].ID != 0 || c.Audio[0].ID != 1 {
		t.Fatalf("unexpected ids: video=%d audio=%d", c.Video[0].ID, c.Audio[0].ID)
	}
}

func TestParseAndInspectErrors(t *testing.T) {
	if _, err := Parse([]byte("<xml/>")); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := Inspect(t.Context(), "", ""); !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}
