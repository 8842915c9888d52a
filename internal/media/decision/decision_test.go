package decision

import (
	"errors"
	"testing"

	"trackplan/internal/media/tracks"
	"trackplan/internal/services"
)

func video(id int, lang, format string) tracks.Track {
	return tracks.NewVideo(tracks.Track{ID: id, Format: format, Codec: format, Language: lang}, tracks.VideoDetail{})
}

func audio(id int, lang, format string) tracks.Track {
	return tracks.NewAudio(tracks.Track{ID: id, Format: format, Language: lang}, tracks.AudioDetail{})
}

func subtitle(id int, lang, title string) tracks.Track {
	return tracks.NewSubtitle(tracks.Track{ID: id, Format: "subrip", Language: lang, Title: title}, tracks.SubtitleDetail{})
}

func container(list ...tracks.Track) tracks.Container {
	c := tracks.New(tracks.ParserMkvMerge)
	for _, t := range list {
		c.Add(t)
	}
	return c
}

func ids(list []tracks.Track) []int {
	out := make([]int, 0, len(list))
	for _, t := range list {
		out = append(out, t.ID)
	}
	return out
}

func equalIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// assertPartition checks that keep and action cover the input exactly once and
// that both halves preserve the input order.
func assertPartition(t *testing.T, in tracks.Container, p Partition) {
	t.Helper()
	if p.Keep.Count()+p.Action.Count() != in.Count() {
		t.Fatalf("partition size mismatch: keep=%d action=%d input=%d", p.Keep.Count(), p.Action.Count(), in.Count())
	}
	seen := make(map[int]int)
	for _, tr := range append(p.Keep.Tracks(), p.Action.Tracks()...) {
		seen[tr.ID]++
	}
	for _, tr := range in.Tracks() {
		if seen[tr.ID] != 1 {
			t.Fatalf("track %d appears %d times", tr.ID, seen[tr.ID])
		}
	}
	for _, kind := range []tracks.Kind{tracks.KindVideo, tracks.KindAudio, tracks.KindSubtitle} {
		position := make(map[int]int)
		for i, tr := range in.OfKind(kind) {
			position[tr.ID] = i
		}
		for _, half := range []tracks.Container{p.Keep, p.Action} {
			last := -1
			for _, tr := range half.OfKind(kind) {
				if position[tr.ID] < last {
					t.Fatalf("%s order not preserved: %v", kind, ids(half.OfKind(kind)))
				}
				last = position[tr.ID]
			}
		}
	}
	if len(p.Decisions) > 0 && len(p.Decisions) != in.Count() {
		t.Fatalf("expected %d decisions, got %d", in.Count(), len(p.Decisions))
	}
}

func mixedContainer() tracks.Container {
	interlaced := tracks.NewVideo(tracks.Track{ID: 1, Format: "mpeg2video", Language: "eng"}, tracks.VideoDetail{FieldOrder: "tt"})
	vobsub := tracks.NewSubtitle(tracks.Track{ID: 6, Codec: "S_VOBSUB", Language: "eng"}, tracks.SubtitleDetail{})
	muxed := tracks.NewSubtitle(tracks.Track{ID: 7, Codec: "S_VOBSUB", Language: "fre"}, tracks.SubtitleDetail{MuxingMode: "zlib"})
	return container(
		video(0, "eng", "h264"),
		interlaced,
		audio(2, "eng", "ac3"),
		audio(3, "und", "dts"),
		audio(4, "jpn", "aac"),
		subtitle(5, "eng", ""),
		vobsub,
		muxed,
		subtitle(8, "", "Signs"),
	)
}

func TestEveryPassPartitionsAndIsIdempotent(t *testing.T) {
	passes := map[string]func(tracks.Container) (Partition, error){
		"unknown": func(c tracks.Container) (Partition, error) { return FindUnknownLanguage(c), nil },
		"remux":   func(c tracks.Container) (Partition, error) { return FindNeedReMux(c), nil },
		"deinterlace": func(c tracks.Container) (Partition, error) {
			return FindNeedDeInterlace(c, tracks.IsInterlaced)
		},
		"language": func(c tracks.Container) (Partition, error) {
			return FindUnwantedLanguage(c, NewLanguageSet("en", "fre"))
		},
		"reencode": func(c tracks.Container) (Partition, error) {
			return FindNeedReEncode(c, []VideoSignature{{Format: "mpeg2video"}}, NewFormatSet("dts"))
		},
		"duplicates": func(c tracks.Container) (Partition, error) {
			return FindDuplicateTracks(c, []string{"dts", "ac3"})
		},
	}
	for name, pass := range passes {
		t.Run(name, func(t *testing.T) {
			in := mixedContainer()
			p, err := pass(in)
			if err != nil {
				t.Fatalf("pass failed: %v", err)
			}
			assertPartition(t, in, p)
			again, err := pass(p.Keep)
			if err != nil {
				t.Fatalf("second pass failed: %v", err)
			}
			if again.Changed() {
				t.Fatalf("expected empty action on second run, got %v", ids(again.Action.Tracks()))
			}
		})
	}
}

func TestPassesDoNotMutateInput(t *testing.T) {
	in := mixedContainer()
	before := in.Clone()
	if _, err := FindDuplicateTracks(in, []string{"dts"}); err != nil {
		t.Fatal(err)
	}
	if _, err := FindUnwantedLanguage(in, NewLanguageSet("eng")); err != nil {
		t.Fatal(err)
	}
	if !equalIDs(ids(in.Tracks()), ids(before.Tracks())) {
		t.Fatalf("input changed: %v", ids(in.Tracks()))
	}
}

func TestFindUnknownLanguage(t *testing.T) {
	p := FindUnknownLanguage(mixedContainer())
	if got := ids(p.Action.Tracks()); !equalIDs(got, []int{3, 8}) {
		t.Fatalf("unexpected unknown tracks: %v", got)
	}
	if len(p.Decisions) != 0 {
		t.Fatalf("expected no decisions, got %v", p.Decisions)
	}
}

func TestFindNeedReMux(t *testing.T) {
	p := FindNeedReMux(mixedContainer())
	if got := ids(p.Action.Tracks()); !equalIDs(got, []int{6}) {
		t.Fatalf("unexpected remux tracks: %v", got)
	}
	if d, _ := p.Disposition(6); d != tracks.DispositionReMux {
		t.Fatalf("expected remux disposition, got %s", d)
	}
	if d, _ := p.Disposition(7); d != tracks.DispositionKeep {
		t.Fatalf("expected keep disposition, got %s", d)
	}
}

func TestFindNeedDeInterlace(t *testing.T) {
	p, err := FindNeedDeInterlace(mixedContainer(), tracks.IsInterlaced)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(p.Action.Tracks()); !equalIDs(got, []int{1}) {
		t.Fatalf("unexpected deinterlace tracks: %v", got)
	}
	if d, _ := p.Disposition(1); d != tracks.DispositionReMux {
		t.Fatalf("expected remux disposition, got %s", d)
	}

	if _, err := FindNeedDeInterlace(mixedContainer(), nil); !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestFindUnwantedLanguageFallback(t *testing.T) {
	in := container(video(0, "jpn", "h264"), audio(1, "jpn", "aac"), audio(2, "kor", "aac"), subtitle(3, "jpn", ""))
	p, err := FindUnwantedLanguage(in, NewLanguageSet("eng"))
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(p.Keep.Video); !equalIDs(got, []int{0}) {
		t.Fatalf("expected first video kept, got %v", got)
	}
	if len(p.Action.Video) != 0 {
		t.Fatalf("expected no video removed, got %v", ids(p.Action.Video))
	}
	if got := ids(p.Keep.Audio); !equalIDs(got, []int{1}) {
		t.Fatalf("expected first audio kept, got %v", got)
	}
	if got := ids(p.Action.Audio); !equalIDs(got, []int{2}) {
		t.Fatalf("expected second audio removed, got %v", got)
	}
	if len(p.Keep.Subtitle) != 0 {
		t.Fatalf("subtitles have no fallback, kept %v", ids(p.Keep.Subtitle))
	}
	if d, _ := p.Disposition(3); d != tracks.DispositionRemove {
		t.Fatalf("expected remove disposition, got %s", d)
	}
}

func TestFindUnwantedLanguageMatchesAcrossCodeForms(t *testing.T) {
	in := container(video(0, "en", "h264"), audio(1, "ger", "ac3"), audio(2, "spa", "ac3"))
	p, err := FindUnwantedLanguage(in, NewLanguageSet("eng", "de"))
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(p.Keep.Tracks()); !equalIDs(got, []int{0, 1}) {
		t.Fatalf("unexpected keep set: %v", got)
	}

	if _, err := FindUnwantedLanguage(in, nil); !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestFindNeedReEncode(t *testing.T) {
	tests := []struct {
		name       string
		in         tracks.Container
		signatures []VideoSignature
		audio      FormatSet
		want       []int
	}{
		{
			name:       "signature match",
			in:         container(video(0, "eng", "msmpeg4v3"), video(1, "eng", "h264")),
			signatures: []VideoSignature{{Format: "MSMPEG4V3"}},
			audio:      NewFormatSet(),
			want:       []int{0},
		},
		{
			name:       "all populated fields must match",
			in:         container(tracks.NewVideo(tracks.Track{ID: 0, Codec: "h264", Format: "h264", Profile: "Constrained Baseline"}, tracks.VideoDetail{})),
			signatures: []VideoSignature{{Format: "h264", Profile: "High"}},
			audio:      NewFormatSet(),
			want:       []int{},
		},
		{
			name:       "wildcard profile",
			in:         container(tracks.NewVideo(tracks.Track{ID: 0, Codec: "h264", Format: "h264", Profile: "Constrained Baseline"}, tracks.VideoDetail{})),
			signatures: []VideoSignature{{Format: "h264", Profile: "*"}},
			audio:      NewFormatSet(),
			want:       []int{0},
		},
		{
			name:       "audio forces incompatible video",
			in:         container(video(0, "eng", "mpeg2video"), audio(1, "eng", "pcm_s16le"), subtitle(2, "eng", "")),
			signatures: []VideoSignature{},
			audio:      NewFormatSet("pcm_s16le"),
			want:       []int{0, 1},
		},
		{
			name:       "audio leaves hevc alone",
			in:         container(video(0, "eng", "hevc"), audio(1, "eng", "pcm_s16le")),
			signatures: []VideoSignature{},
			audio:      NewFormatSet("PCM_S16LE"),
			want:       []int{1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := FindNeedReEncode(tt.in, tt.signatures, tt.audio)
			if err != nil {
				t.Fatal(err)
			}
			assertPartition(t, tt.in, p)
			if got := ids(p.Action.Tracks()); !equalIDs(got, tt.want) {
				t.Fatalf("reencode set = %v, want %v", got, tt.want)
			}
			for _, id := range tt.want {
				if d, _ := p.Disposition(id); d != tracks.DispositionReEncode {
					t.Fatalf("track %d: expected reencode, got %s", id, d)
				}
			}
		})
	}

	if _, err := FindNeedReEncode(container(), nil, NewFormatSet()); !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for nil signatures, got %v", err)
	}
	if _, err := FindNeedReEncode(container(), []VideoSignature{}, nil); !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for nil formats, got %v", err)
	}
}

func TestFindDuplicateTracksNoOpWhenUnique(t *testing.T) {
	in := container(video(0, "eng", "h264"), audio(1, "eng", "ac3"), audio(2, "fra", "ac3"), subtitle(3, "eng", ""))
	p, err := FindDuplicateTracks(in, []string{})
	if err != nil {
		t.Fatal(err)
	}
	if p.Changed() {
		t.Fatalf("expected no-op, removed %v", ids(p.Action.Tracks()))
	}
	if got := ids(p.Keep.Tracks()); !equalIDs(got, []int{0, 1, 2, 3}) {
		t.Fatalf("unexpected keep set: %v", got)
	}
	if _, err := FindDuplicateTracks(in, nil); !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestFindDuplicateVideo(t *testing.T) {
	second := video(1, "eng", "h264")
	second.Default = true
	in := container(video(0, "eng", "h264"), second, video(2, "eng", "h264"))
	p, err := FindDuplicateTracks(in, []string{})
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(p.Keep.Video); !equalIDs(got, []int{1}) {
		t.Fatalf("expected default video kept, got %v", got)
	}
}

func TestFindDuplicateAudio(t *testing.T) {
	withFlags := func(tr tracks.Track, def bool, title string) tracks.Track {
		tr.Default = def
		tr.Title = title
		return tr
	}
	tests := []struct {
		name      string
		in        []tracks.Track
		preferred []string
		want      int
	}{
		{
			name: "default commentary wins without preference",
			in: []tracks.Track{
				withFlags(audio(0, "eng", "ac3"), true, "Commentary"),
				withFlags(audio(1, "eng", "ac3"), false, ""),
			},
			preferred: []string{},
			want:      0,
		},
		{
			name: "default non-commentary beats default commentary",
			in: []tracks.Track{
				withFlags(audio(0, "eng", "ac3"), true, "Director Commentary"),
				withFlags(audio(1, "eng", "ac3"), true, "Main"),
			},
			preferred: []string{},
			want:      1,
		},
		{
			name: "preferred format overrides default",
			in: []tracks.Track{
				withFlags(audio(0, "eng", "ac3"), true, ""),
				withFlags(audio(1, "eng", "truehd"), false, ""),
				withFlags(audio(2, "eng", "dts"), false, ""),
			},
			preferred: []string{"flac", "TrueHD", "dts"},
			want:      1,
		},
		{
			name: "default already has preferred format",
			in: []tracks.Track{
				withFlags(audio(0, "eng", "dts"), false, ""),
				withFlags(audio(1, "eng", "dts"), true, ""),
			},
			preferred: []string{"dts"},
			want:      1,
		},
		{
			name: "first track fallback",
			in: []tracks.Track{
				withFlags(audio(0, "eng", "aac"), false, ""),
				withFlags(audio(1, "eng", "ac3"), false, ""),
			},
			preferred: []string{"dts"},
			want:      0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := FindDuplicateTracks(container(tt.in...), tt.preferred)
			if err != nil {
				t.Fatal(err)
			}
			if got := ids(p.Keep.Audio); !equalIDs(got, []int{tt.want}) {
				t.Fatalf("kept %v, want [%d]", got, tt.want)
			}
			if len(p.Action.Audio) != len(tt.in)-1 {
				t.Fatalf("expected %d removed, got %v", len(tt.in)-1, ids(p.Action.Audio))
			}
		})
	}
}

func TestFindDuplicateSubtitles(t *testing.T) {
	flagged := func(id int, title string, def, forced bool) tracks.Track {
		tr := subtitle(id, "eng", title)
		tr.Default = def
		tr.Forced = forced
		return tr
	}
	tests := []struct {
		name string
		in   []tracks.Track
		want int
	}{
		{
			name: "default non-sdh",
			in:   []tracks.Track{flagged(0, "SDH", true, false), flagged(1, "", false, false), flagged(2, "Full", true, false)},
			want: 2,
		},
		{
			name: "forced flag",
			in:   []tracks.Track{flagged(0, "", false, false), flagged(1, "", false, true)},
			want: 1,
		},
		{
			name: "forced title",
			in:   []tracks.Track{flagged(0, "Full", false, false), flagged(1, "Forced Narrative", false, false)},
			want: 1,
		},
		{
			name: "first non-sdh",
			in:   []tracks.Track{flagged(0, "English SDH", false, false), flagged(1, "English", false, false)},
			want: 1,
		},
		{
			name: "default sdh",
			in:   []tracks.Track{flagged(0, "SDH", false, false), flagged(1, "sdh", true, false)},
			want: 1,
		},
		{
			name: "first track",
			in:   []tracks.Track{flagged(0, "SDH", false, false), flagged(1, "SDH", false, false)},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := FindDuplicateTracks(container(tt.in...), []string{})
			if err != nil {
				t.Fatal(err)
			}
			if got := ids(p.Keep.Subtitle); !equalIDs(got, []int{tt.want}) {
				t.Fatalf("kept %v, want [%d]", got, tt.want)
			}
		})
	}
}

func TestFindDuplicateKeepsOnePerLanguageInOrder(t *testing.T) {
	in := container(
		audio(0, "fra", "ac3"),
		audio(1, "eng", "ac3"),
		audio(2, "fra", "dts"),
		audio(3, "eng", "dts"),
	)
	p, err := FindDuplicateTracks(in, []string{"dts"})
	if err != nil {
		t.Fatal(err)
	}
	assertPartition(t, in, p)
	if got := ids(p.Keep.Audio); !equalIDs(got, []int{2, 3}) {
		t.Fatalf("unexpected keep set: %v", got)
	}
	if got := ids(p.Action.Audio); !equalIDs(got, []int{0, 1}) {
		t.Fatalf("unexpected remove set: %v", got)
	}
	for _, id := range []int{0, 1} {
		if d, _ := p.Disposition(id); d != tracks.DispositionRemove {
			t.Fatalf("track %d: expected remove, got %s", id, d)
		}
	}
}

func TestVideoSignatureMatches(t *testing.T) {
	track := tracks.NewVideo(tracks.Track{Codec: "V_MPEG2", Format: "mpeg2video", Profile: "Main"}, tracks.VideoDetail{})
	tests := []struct {
		sig  VideoSignature
		want bool
	}{
		{VideoSignature{}, true},
		{VideoSignature{Format: "MPEG2VIDEO"}, true},
		{VideoSignature{Codec: "*", Format: "mpeg2video", Profile: "main"}, true},
		{VideoSignature{Format: "mpeg2video", Profile: "High"}, false},
		{VideoSignature{Codec: "V_MPEG4/ISO/AVC"}, false},
	}
	for _, tt := range tests {
		if got := tt.sig.Matches(track); got != tt.want {
			t.Fatalf("%+v.Matches = %v, want %v", tt.sig, got, tt.want)
		}
	}
}
