package plan

import (
	"fmt"
	"sort"

	"trackplan/internal/language"
	"trackplan/internal/media/decision"
	"trackplan/internal/media/tracks"
	"trackplan/internal/services"
)

// Stage names, also used as the decision reason in logs.
const (
	StageUnknownLanguage  = "unknown_language"
	StageUnwantedLanguage = "unwanted_language"
	StageDuplicates       = "duplicates"
	StageRemuxVobSub      = "remux_vobsub"
	StageDeInterlace      = "deinterlace"
	StageReEncode         = "reencode"
)

// Snapshots holds one file's probe results. FFprobe is required; the other
// backends refine specific stages when present.
type Snapshots struct {
	FFprobe   *tracks.Container
	MkvMerge  *tracks.Container
	MediaInfo *tracks.Container
}

// Relabel proposes a language for a track tagged unknown.
type Relabel struct {
	ID   int    `json:"id"`
	Kind string `json:"kind"`
	From string `json:"from"`
	To   string `json:"to"`
}

// Step records the outcome of one stage.
type Step struct {
	Name    string `json:"name"`
	Source  string `json:"source,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Kept    []int  `json:"kept,omitempty"`
	Action  []int  `json:"action,omitempty"`
}

// Plan is the combined result of every stage for one file.
type Plan struct {
	Decisions []tracks.Decision  `json:"decisions"`
	Relabels  []Relabel          `json:"relabels,omitempty"`
	Steps     []Step             `json:"steps"`
	Anomalies []services.Anomaly `json:"anomalies,omitempty"`
	// Reasons maps a track ID to the stage that set its final disposition.
	Reasons map[int]string `json:"reasons,omitempty"`
}

// Changed reports whether the plan does anything other than keep every track.
func (p *Plan) Changed() bool {
	if p == nil {
		return false
	}
	if len(p.Relabels) > 0 {
		return true
	}
	for _, d := range p.Decisions {
		if d.Disposition != tracks.DispositionKeep {
			return true
		}
	}
	return false
}

// Count returns the number of tracks with disposition d.
func (p *Plan) Count(d tracks.Disposition) int {
	if p == nil {
		return 0
	}
	n := 0
	for _, dec := range p.Decisions {
		if dec.Disposition == d {
			n++
		}
	}
	return n
}

// Reason returns the stage that decided track id, or "" when the track was
// kept by every stage.
func (p *Plan) Reason(id int) string {
	if p == nil {
		return ""
	}
	return p.Reasons[id]
}

// Disposition returns the final disposition of track id.
func (p *Plan) Disposition(id int) (tracks.Disposition, bool) {
	if p == nil {
		return tracks.DispositionUnset, false
	}
	for _, d := range p.Decisions {
		if d.ID == id {
			return d.Disposition, true
		}
	}
	return tracks.DispositionUnset, false
}

// rank orders dispositions by strength.
func rank(d tracks.Disposition) int {
	switch d {
	case tracks.DispositionRemove:
		return 3
	case tracks.DispositionReEncode:
		return 2
	case tracks.DispositionReMux:
		return 1
	default:
		return 0
	}
}

type builder struct {
	opts      Options
	snaps     Snapshots
	survivors map[int]struct{}
	final     map[int]tracks.Disposition
	// relabeled maps track IDs to the language the unknown-language stage
	// proposed for them.
	relabeled map[int]string
	plan      *Plan
}

// Build runs every enabled stage over snaps and returns the combined plan.
func Build(snaps Snapshots, opts Options) (*Plan, error) {
	if snaps.FFprobe == nil {
		return nil, services.InvalidArgument("build plan", "ffprobe snapshot")
	}
	for _, c := range []*tracks.Container{snaps.FFprobe, snaps.MkvMerge, snaps.MediaInfo} {
		if c == nil {
			continue
		}
		if err := c.Validate(); err != nil {
			return nil, services.Wrap(services.ErrValidation, "plan", c.Parser.String(), "invalid snapshot", err)
		}
	}

	b := &builder{
		opts:      opts.normalized(),
		snaps:     snaps,
		survivors: snaps.FFprobe.IDs(),
		final:     make(map[int]tracks.Disposition, snaps.FFprobe.Count()),
		relabeled: map[int]string{},
		plan:      &Plan{Reasons: map[int]string{}},
	}
	b.checkConsistency()

	b.unknownLanguage()
	if err := b.unwantedLanguage(); err != nil {
		return nil, err
	}
	if err := b.duplicates(); err != nil {
		return nil, err
	}
	b.remuxVobSub()
	if err := b.deInterlace(); err != nil {
		return nil, err
	}
	if err := b.reEncode(); err != nil {
		return nil, err
	}

	for _, t := range snaps.FFprobe.Tracks() {
		d, ok := b.final[t.ID]
		if !ok {
			d = tracks.DispositionKeep
		}
		b.plan.Decisions = append(b.plan.Decisions, tracks.Decision{
			ID:          t.ID,
			Kind:        t.Kind,
			KindName:    t.Kind.String(),
			Disposition: d,
		})
	}
	return b.plan, nil
}

// checkConsistency reports backends that disagree on the track layout. Track
// IDs are matched by stream order, so a count mismatch makes the refinement
// stages unreliable.
func (b *builder) checkConsistency() {
	ref := b.snaps.FFprobe
	if ref.HasErrors {
		b.anomaly("ffprobe", "container reports errors")
	}
	for _, c := range []*tracks.Container{b.snaps.MkvMerge, b.snaps.MediaInfo} {
		if c == nil {
			continue
		}
		if c.HasErrors {
			b.anomaly(c.Parser.String(), "container reports errors")
		}
		for _, k := range []tracks.Kind{tracks.KindVideo, tracks.KindAudio, tracks.KindSubtitle} {
			if got, want := len(c.OfKind(k)), len(ref.OfKind(k)); got != want {
				b.anomaly(c.Parser.String(), fmt.Sprintf("%s track count %d differs from ffprobe count %d", k, got, want))
			}
		}
	}
}

func (b *builder) anomaly(op, detail string) {
	b.plan.Anomalies = append(b.plan.Anomalies, services.Anomaly{Op: op, Detail: detail})
}

// languageSource is the snapshot used by the language stages.
func (b *builder) languageSource() *tracks.Container {
	if b.snaps.MkvMerge != nil {
		return b.snaps.MkvMerge
	}
	return b.snaps.FFprobe
}

func (b *builder) view(c *tracks.Container) tracks.Container {
	return c.Restrict(b.survivors)
}

// languageView is view with proposed relabels applied, so the language
// stages judge a relabeled track by its new language.
func (b *builder) languageView(c *tracks.Container) tracks.Container {
	v := b.view(c)
	for _, list := range [][]tracks.Track{v.Video, v.Audio, v.Subtitle} {
		for i := range list {
			if to, ok := b.relabeled[list[i].ID]; ok {
				list[i].Language = to
			}
		}
	}
	return v
}

func (b *builder) skip(name, reason string) {
	b.plan.Steps = append(b.plan.Steps, Step{Name: name, Skipped: true, Reason: reason})
}

// apply records a stage partition, raises final dispositions and drops
// removed tracks from the survivor set.
func (b *builder) apply(name string, source tracks.Parser, p decision.Partition, action tracks.Disposition) {
	step := Step{Name: name, Source: source.String(), Kept: trackIDs(p.Keep), Action: trackIDs(p.Action)}
	b.plan.Steps = append(b.plan.Steps, step)
	b.plan.Anomalies = append(b.plan.Anomalies, p.Anomalies...)

	for _, id := range step.Action {
		if _, known := b.survivors[id]; !known {
			continue
		}
		if rank(action) > rank(b.final[id]) {
			b.final[id] = action
			b.plan.Reasons[id] = name
		}
		if action == tracks.DispositionRemove {
			delete(b.survivors, id)
		}
	}
}

func (b *builder) unknownLanguage() {
	src := b.languageSource()
	p := decision.FindUnknownLanguage(b.view(src))
	b.plan.Steps = append(b.plan.Steps, Step{
		Name:   StageUnknownLanguage,
		Source: src.Parser.String(),
		Kept:   trackIDs(p.Keep),
		Action: trackIDs(p.Action),
	})
	if !b.opts.SetUnknownLanguage {
		return
	}
	target := language.Canonical(b.opts.DefaultLanguage)
	if language.IsUnknown(target) {
		b.anomaly(StageUnknownLanguage, "default language is undetermined; no relabels proposed")
		return
	}
	for _, t := range p.Action.Tracks() {
		b.plan.Relabels = append(b.plan.Relabels, Relabel{
			ID:   t.ID,
			Kind: t.Kind.String(),
			From: t.Language,
			To:   target,
		})
		b.relabeled[t.ID] = target
	}
}

func (b *builder) unwantedLanguage() error {
	if !b.opts.RemoveUnwantedLanguages {
		b.skip(StageUnwantedLanguage, "disabled")
		return nil
	}
	src := b.languageSource()
	p, err := decision.FindUnwantedLanguage(b.languageView(src), b.opts.KeepLanguages)
	if err != nil {
		return err
	}
	b.apply(StageUnwantedLanguage, src.Parser, p, tracks.DispositionRemove)
	return nil
}

func (b *builder) duplicates() error {
	if !b.opts.RemoveDuplicateTracks {
		b.skip(StageDuplicates, "disabled")
		return nil
	}
	src := b.languageSource()
	p, err := decision.FindDuplicateTracks(b.languageView(src), b.opts.PreferredAudio)
	if err != nil {
		return err
	}
	b.apply(StageDuplicates, src.Parser, p, tracks.DispositionRemove)
	return nil
}

func (b *builder) remuxVobSub() {
	if !b.opts.RemuxVobSub {
		b.skip(StageRemuxVobSub, "disabled")
		return
	}
	if b.snaps.MediaInfo == nil {
		b.skip(StageRemuxVobSub, "mediainfo snapshot unavailable")
		return
	}
	p := decision.FindNeedReMux(b.view(b.snaps.MediaInfo))
	b.apply(StageRemuxVobSub, tracks.ParserMediaInfo, p, tracks.DispositionReMux)
}

func (b *builder) deInterlace() error {
	if !b.opts.DeInterlace {
		b.skip(StageDeInterlace, "disabled")
		return nil
	}
	src := b.snaps.MediaInfo
	if src == nil {
		src = b.snaps.FFprobe
	}
	p, err := decision.FindNeedDeInterlace(b.view(src), tracks.IsInterlaced)
	if err != nil {
		return err
	}
	b.apply(StageDeInterlace, src.Parser, p, tracks.DispositionReMux)
	return nil
}

func (b *builder) reEncode() error {
	if !b.opts.ReEncode {
		b.skip(StageReEncode, "disabled")
		return nil
	}
	p, err := decision.FindNeedReEncode(b.view(b.snaps.FFprobe), b.opts.VideoSignatures, b.opts.AudioFormats)
	if err != nil {
		return err
	}
	b.apply(StageReEncode, tracks.ParserFFprobe, p, tracks.DispositionReEncode)
	return nil
}

func trackIDs(c tracks.Container) []int {
	all := c.Tracks()
	if len(all) == 0 {
		return nil
	}
	ids := make([]int, 0, len(all))
	for _, t := range all {
		ids = append(ids, t.ID)
	}
	sort.Ints(ids)
	return ids
}
