package decision

import (
	"strings"

	"trackplan/internal/media/tracks"
	"trackplan/internal/services"
)

// vobsubCodecs are the codec identifiers each backend reports for DVD
// bitmap subtitles.
var vobsubCodecs = map[string]struct{}{
	"s_vobsub":     {},
	"vobsub":       {},
	"dvd_subtitle": {},
}

// IsVobSub reports whether t carries DVD bitmap subtitles.
func IsVobSub(t tracks.Track) bool {
	_, ok := vobsubCodecs[strings.ToLower(strings.TrimSpace(t.Codec))]
	return ok
}

// FindUnknownLanguage separates tracks with a usable language (Keep) from
// tracks tagged unknown or undetermined (Action). It assigns no dispositions;
// callers decide how to remediate.
func FindUnknownLanguage(c tracks.Container) Partition {
	p := newPartition(c)
	unknown := func(t tracks.Track) bool { return t.IsLanguageUnknown() }
	p.split(c.Video, unknown)
	p.split(c.Audio, unknown)
	p.split(c.Subtitle, unknown)
	return p
}

// FindNeedReMux selects VOBSUB subtitle tracks that are missing a muxing
// mode. Those tracks stall some players until the file is re-muxed.
func FindNeedReMux(c tracks.Container) Partition {
	p := newPartition(c)
	p.keepAll(c.Video)
	p.keepAll(c.Audio)
	p.split(c.Subtitle, func(t tracks.Track) bool {
		if !IsVobSub(t) {
			return false
		}
		detail, _ := t.Subtitle()
		return strings.TrimSpace(detail.MuxingMode) == ""
	})
	p.stamp(tracks.DispositionKeep, tracks.DispositionReMux)
	return p
}

// FindNeedDeInterlace selects video tracks for which interlaced returns true.
// Selected tracks are marked ReMux since they need a processing pass.
func FindNeedDeInterlace(c tracks.Container, interlaced func(tracks.Track) bool) (Partition, error) {
	if interlaced == nil {
		return Partition{}, services.InvalidArgument("find need deinterlace", "interlaced predicate")
	}
	p := newPartition(c)
	p.split(c.Video, interlaced)
	p.keepAll(c.Audio)
	p.keepAll(c.Subtitle)
	p.stamp(tracks.DispositionKeep, tracks.DispositionReMux)
	return p, nil
}

// FindUnwantedLanguage removes tracks whose language is not in wanted. When no
// video track matches, the first video track is kept anyway; audio follows the
// same rule. Subtitles have no fallback.
func FindUnwantedLanguage(c tracks.Container, wanted LanguageSet) (Partition, error) {
	if wanted == nil {
		return Partition{}, services.InvalidArgument("find unwanted language", "wanted languages")
	}
	p := newPartition(c)
	unwanted := func(t tracks.Track) bool { return !wanted.Contains(t.Language) }

	for _, kind := range []tracks.Kind{tracks.KindVideo, tracks.KindAudio} {
		list := c.OfKind(kind)
		anyWanted := false
		for _, t := range list {
			if !unwanted(t) {
				anyWanted = true
				break
			}
		}
		if anyWanted || len(list) == 0 {
			p.split(list, unwanted)
			continue
		}
		firstID := list[0].ID
		p.split(list, func(t tracks.Track) bool { return t.ID != firstID })
	}
	p.split(c.Subtitle, unwanted)
	p.stamp(tracks.DispositionKeep, tracks.DispositionRemove)
	return p, nil
}

// FindNeedReEncode selects video tracks matching any of videoSignatures and
// audio tracks whose format is in audioFormats. Re-encoding audio next to a
// video track that is neither h264 nor hevc produces unset timestamps in
// Matroska output, so such video tracks are re-encoded as well. Subtitles are
// always kept.
func FindNeedReEncode(c tracks.Container, videoSignatures []VideoSignature, audioFormats FormatSet) (Partition, error) {
	if videoSignatures == nil {
		return Partition{}, services.InvalidArgument("find need reencode", "video signatures")
	}
	if audioFormats == nil {
		return Partition{}, services.InvalidArgument("find need reencode", "audio formats")
	}
	p := newPartition(c)

	audioSelected := false
	for _, t := range c.Audio {
		if audioFormats.Contains(t.Format) {
			audioSelected = true
			break
		}
	}

	p.split(c.Video, func(t tracks.Track) bool {
		for _, sig := range videoSignatures {
			if sig.Matches(t) {
				return true
			}
		}
		return audioSelected && !isTimestampSafe(t.Format)
	})
	p.split(c.Audio, func(t tracks.Track) bool { return audioFormats.Contains(t.Format) })
	p.keepAll(c.Subtitle)
	p.stamp(tracks.DispositionKeep, tracks.DispositionReEncode)
	return p, nil
}

func isTimestampSafe(format string) bool {
	format = strings.TrimSpace(format)
	return strings.EqualFold(format, "h264") || strings.EqualFold(format, "hevc")
}
