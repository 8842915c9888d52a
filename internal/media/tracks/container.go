package tracks

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Parser identifies the probing backend that produced a container.
type Parser int

const (
	ParserFFprobe Parser = iota
	ParserMkvMerge
	ParserMediaInfo
)

func (p Parser) String() string {
	switch p {
	case ParserFFprobe:
		return "ffprobe"
	case ParserMkvMerge:
		return "mkvmerge"
	case ParserMediaInfo:
		return "mediainfo"
	default:
		return fmt.Sprintf("parser(%d)", int(p))
	}
}

// Container is one backend's view of a media file's tracks.
type Container struct {
	Parser     Parser
	FormatName string
	Video      []Track
	Audio      []Track
	Subtitle   []Track

	HasErrors bool
	HasTags   bool
	Duration  time.Duration
}

// New returns an empty container for the given backend.
func New(parser Parser) Container {
	return Container{Parser: parser}
}

// Derive returns an empty container carrying c's backend and aggregate fields.
func (c Container) Derive() Container {
	return Container{
		Parser:     c.Parser,
		FormatName: c.FormatName,
		HasErrors:  c.HasErrors,
		HasTags:    c.HasTags,
		Duration:   c.Duration,
	}
}

// Add appends t to the sequence matching its kind.
func (c *Container) Add(t Track) {
	switch t.Kind {
	case KindVideo:
		c.Video = append(c.Video, t)
	case KindAudio:
		c.Audio = append(c.Audio, t)
	case KindSubtitle:
		c.Subtitle = append(c.Subtitle, t)
	}
}

// OfKind returns the track sequence for k.
func (c Container) OfKind(k Kind) []Track {
	switch k {
	case KindVideo:
		return c.Video
	case KindAudio:
		return c.Audio
	case KindSubtitle:
		return c.Subtitle
	default:
		return nil
	}
}

// Tracks returns every track ordered by ID.
func (c Container) Tracks() []Track {
	all := make([]Track, 0, c.Count())
	all = append(all, c.Video...)
	all = append(all, c.Audio...)
	all = append(all, c.Subtitle...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

// Count returns the total number of tracks.
func (c Container) Count() int {
	return len(c.Video) + len(c.Audio) + len(c.Subtitle)
}

// Empty reports whether the container has no tracks.
func (c Container) Empty() bool {
	return c.Count() == 0
}

// IDs returns the set of track IDs present in the container.
func (c Container) IDs() map[int]struct{} {
	ids := make(map[int]struct{}, c.Count())
	for _, t := range c.Tracks() {
		ids[t.ID] = struct{}{}
	}
	return ids
}

// Restrict returns a container holding only the tracks whose IDs are in ids,
// preserving their relative order.
func (c Container) Restrict(ids map[int]struct{}) Container {
	out := c.Derive()
	for _, list := range [][]Track{c.Video, c.Audio, c.Subtitle} {
		for _, t := range list {
			if _, ok := ids[t.ID]; ok {
				out.Add(t)
			}
		}
	}
	return out
}

// Clone returns a copy whose track slices do not alias c.
func (c Container) Clone() Container {
	out := c.Derive()
	out.Video = append([]Track(nil), c.Video...)
	out.Audio = append([]Track(nil), c.Audio...)
	out.Subtitle = append([]Track(nil), c.Subtitle...)
	return out
}

// Validate checks the structural invariants: unique IDs and payloads that
// match each sequence's kind.
func (c Container) Validate() error {
	seen := make(map[int]struct{}, c.Count())
	for _, k := range []Kind{KindVideo, KindAudio, KindSubtitle} {
		for _, t := range c.OfKind(k) {
			if t.Kind != k {
				return fmt.Errorf("track %d: kind %s stored in %s list", t.ID, t.Kind, k)
			}
			if t.Detail != nil && t.Detail.detailKind() != k {
				return fmt.Errorf("track %d: %s payload on %s track", t.ID, t.Detail.detailKind(), k)
			}
			if _, dup := seen[t.ID]; dup {
				return fmt.Errorf("track %d: %w", t.ID, ErrDuplicateID)
			}
			seen[t.ID] = struct{}{}
		}
	}
	return nil
}

// ErrDuplicateID reports two tracks sharing an ID within one container.
var ErrDuplicateID = errors.New("duplicate track id")
