package decision

import (
	"strings"

	"trackplan/internal/language"
	"trackplan/internal/media/tracks"
	"trackplan/internal/services"
)

// Partition is the result of one decision pass.
type Partition struct {
	Keep   tracks.Container
	Action tracks.Container
	// Decisions holds one entry per input track ordered by ID. It is empty for
	// informational passes that do not assign dispositions.
	Decisions []tracks.Decision
	// Anomalies holds non-fatal conditions observed during the pass.
	Anomalies []services.Anomaly
}

// Changed reports whether the pass moved any track into the action set.
func (p Partition) Changed() bool {
	return !p.Action.Empty()
}

// Disposition returns the disposition assigned to track id.
func (p Partition) Disposition(id int) (tracks.Disposition, bool) {
	for _, d := range p.Decisions {
		if d.ID == id {
			return d.Disposition, true
		}
	}
	return tracks.DispositionUnset, false
}

func newPartition(c tracks.Container) Partition {
	return Partition{Keep: c.Derive(), Action: c.Derive()}
}

func (p *Partition) stamp(keep, action tracks.Disposition) {
	p.Decisions = tracks.MergeDecisions(tracks.Stamp(p.Keep, keep), tracks.Stamp(p.Action, action))
}

// split routes each track of list into keep or action according to match.
func (p *Partition) split(list []tracks.Track, match func(tracks.Track) bool) {
	for _, t := range list {
		if match(t) {
			p.Action.Add(t)
		} else {
			p.Keep.Add(t)
		}
	}
}

func (p *Partition) keepAll(list []tracks.Track) {
	for _, t := range list {
		p.Keep.Add(t)
	}
}

// LanguageSet is a set of canonical ISO 639-2 language codes.
type LanguageSet map[string]struct{}

// NewLanguageSet normalizes codes into a LanguageSet. The result is never nil,
// so an empty call yields a valid set that matches nothing.
func NewLanguageSet(codes ...string) LanguageSet {
	set := make(LanguageSet, len(codes))
	for _, code := range language.NormalizeList(codes) {
		set[code] = struct{}{}
	}
	return set
}

// Contains reports whether code is in the set after normalization.
func (s LanguageSet) Contains(code string) bool {
	if _, ok := s[strings.ToLower(code)]; ok {
		return true
	}
	_, ok := s[language.Canonical(code)]
	return ok
}

// FormatSet is a case-insensitive set of format names.
type FormatSet map[string]struct{}

// NewFormatSet builds a FormatSet. The result is never nil.
func NewFormatSet(formats ...string) FormatSet {
	set := make(FormatSet, len(formats))
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			set[f] = struct{}{}
		}
	}
	return set
}

// Contains reports whether format is in the set, ignoring case.
func (s FormatSet) Contains(format string) bool {
	_, ok := s[strings.ToLower(strings.TrimSpace(format))]
	return ok
}

// VideoSignature describes a video track to re-encode. Empty fields and "*"
// match anything.
type VideoSignature struct {
	Codec   string `toml:"codec" json:"codec,omitempty"`
	Format  string `toml:"format" json:"format,omitempty"`
	Profile string `toml:"profile" json:"profile,omitempty"`
}

// Matches reports whether every populated field equals the track's value,
// ignoring case.
func (s VideoSignature) Matches(t tracks.Track) bool {
	return fieldMatches(s.Codec, t.Codec) &&
		fieldMatches(s.Format, t.Format) &&
		fieldMatches(s.Profile, t.Profile)
}

func fieldMatches(want, got string) bool {
	want = strings.TrimSpace(want)
	if want == "" || want == "*" {
		return true
	}
	return strings.EqualFold(want, strings.TrimSpace(got))
}
