package decision

import (
	"fmt"
	"strings"

	"trackplan/internal/media/tracks"
	"trackplan/internal/services"
)

const (
	titleCommentary = "Commentary"
	titleSDH        = "SDH"
	titleForced     = "Forced"
)

// chooser picks the track to keep out of one language bucket. It returns
// false when the bucket yields no candidate.
type chooser func(bucket []tracks.Track) (tracks.Track, bool)

// FindDuplicateTracks keeps one track per language for each kind and removes
// the rest. preferredAudio lists audio formats in order of preference; a
// language's best preferred-format track overrides the default-flag choice
// when their formats differ.
func FindDuplicateTracks(c tracks.Container, preferredAudio []string) (Partition, error) {
	if preferredAudio == nil {
		return Partition{}, services.InvalidArgument("find duplicate tracks", "preferred audio formats")
	}
	p := newPartition(c)
	p.dedupe(c.Video, chooseVideo)
	p.dedupe(c.Audio, audioChooser(preferredAudio))
	p.dedupe(c.Subtitle, chooseSubtitle)
	p.stamp(tracks.DispositionKeep, tracks.DispositionRemove)
	return p, nil
}

// dedupe routes list through choose one language bucket at a time. Kept
// tracks stay in their original relative order.
func (p *Partition) dedupe(list []tracks.Track, choose chooser) {
	if len(list) <= 1 {
		p.keepAll(list)
		return
	}
	order, buckets := groupByLanguage(list)
	if len(order) == len(list) {
		p.keepAll(list)
		return
	}

	keep := make(map[int]struct{}, len(order))
	for _, lang := range order {
		chosen, ok := choose(buckets[lang])
		if !ok {
			p.Anomalies = append(p.Anomalies, services.Anomaly{
				Op:     "find duplicate tracks",
				Detail: fmt.Sprintf("no candidate for language %q, keeping bucket", lang),
			})
			for _, t := range buckets[lang] {
				keep[t.ID] = struct{}{}
			}
			continue
		}
		keep[chosen.ID] = struct{}{}
	}
	p.split(list, func(t tracks.Track) bool {
		_, ok := keep[t.ID]
		return !ok
	})
}

func groupByLanguage(list []tracks.Track) ([]string, map[string][]tracks.Track) {
	var order []string
	buckets := make(map[string][]tracks.Track)
	for _, t := range list {
		key := strings.ToLower(t.Language)
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], t)
	}
	return order, buckets
}

func first(bucket []tracks.Track, match func(tracks.Track) bool) (tracks.Track, bool) {
	for _, t := range bucket {
		if match == nil || match(t) {
			return t, true
		}
	}
	return tracks.Track{}, false
}

func chooseVideo(bucket []tracks.Track) (tracks.Track, bool) {
	if t, ok := first(bucket, func(t tracks.Track) bool { return t.Default }); ok {
		return t, true
	}
	return first(bucket, nil)
}

func chooseSubtitle(bucket []tracks.Track) (tracks.Track, bool) {
	isSDH := func(t tracks.Track) bool { return t.TitleContains(titleSDH) }
	rules := []func(tracks.Track) bool{
		func(t tracks.Track) bool { return t.Default && !isSDH(t) },
		func(t tracks.Track) bool { return !isSDH(t) && (t.Forced || t.TitleContains(titleForced)) },
		func(t tracks.Track) bool { return !isSDH(t) },
		func(t tracks.Track) bool { return t.Default },
		nil,
	}
	for _, rule := range rules {
		if t, ok := first(bucket, rule); ok {
			return t, true
		}
	}
	return tracks.Track{}, false
}

func audioChooser(preferred []string) chooser {
	return func(bucket []tracks.Track) (tracks.Track, bool) {
		chosen, ok := first(bucket, func(t tracks.Track) bool {
			return t.Default && !t.TitleContains(titleCommentary)
		})
		if !ok {
			chosen, ok = first(bucket, func(t tracks.Track) bool { return t.Default })
		}
		pref, hasPref := preferredAudioTrack(bucket, preferred)
		if !ok && hasPref {
			chosen, ok = pref, true
		}
		if !ok {
			chosen, ok = first(bucket, nil)
		}
		if ok && hasPref && !strings.EqualFold(chosen.Format, pref.Format) {
			chosen = pref
		}
		return chosen, ok
	}
}

// preferredAudioTrack returns the first track matching the earliest format in
// preferred that has any match.
func preferredAudioTrack(bucket []tracks.Track, preferred []string) (tracks.Track, bool) {
	for _, format := range preferred {
		format = strings.TrimSpace(format)
		if format == "" {
			continue
		}
		if t, ok := first(bucket, func(t tracks.Track) bool { return strings.EqualFold(t.Format, format) }); ok {
			return t, true
		}
	}
	return tracks.Track{}, false
}
