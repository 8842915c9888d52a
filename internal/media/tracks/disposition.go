package tracks

import (
	"fmt"
	"sort"
	"strings"
)

// Disposition is the action decided for a track.
type Disposition int

const (
	DispositionUnset Disposition = iota
	DispositionKeep
	DispositionRemove
	DispositionReMux
	DispositionReEncode
)

func (d Disposition) String() string {
	switch d {
	case DispositionUnset:
		return "unset"
	case DispositionKeep:
		return "keep"
	case DispositionRemove:
		return "remove"
	case DispositionReMux:
		return "remux"
	case DispositionReEncode:
		return "reencode"
	default:
		return fmt.Sprintf("disposition(%d)", int(d))
	}
}

// MarshalText encodes the disposition using its lowercase name.
func (d Disposition) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a lowercase disposition name.
func (d *Disposition) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "unset":
		*d = DispositionUnset
	case "keep":
		*d = DispositionKeep
	case "remove":
		*d = DispositionRemove
	case "remux":
		*d = DispositionReMux
	case "reencode":
		*d = DispositionReEncode
	default:
		return fmt.Errorf("unknown disposition %q", string(text))
	}
	return nil
}

// Decision pairs a track identity with the disposition a pass assigned to it.
type Decision struct {
	ID          int         `json:"id"`
	Kind        Kind        `json:"-"`
	KindName    string      `json:"kind"`
	Disposition Disposition `json:"disposition"`
}

// Stamp returns one decision per track of c, ordered by track ID.
func Stamp(c Container, disposition Disposition) []Decision {
	all := c.Tracks()
	out := make([]Decision, 0, len(all))
	for _, t := range all {
		out = append(out, Decision{ID: t.ID, Kind: t.Kind, KindName: t.Kind.String(), Disposition: disposition})
	}
	return out
}

// MergeDecisions combines decision lists and orders the result by track ID.
func MergeDecisions(lists ...[]Decision) []Decision {
	var out []Decision
	for _, list := range lists {
		out = append(out, list...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
