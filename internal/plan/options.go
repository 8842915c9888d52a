package plan

import (
	"strings"

	"trackplan/internal/config"
	"trackplan/internal/media/decision"
)

// Options is the immutable rule set a plan is built against.
type Options struct {
	KeepLanguages           decision.LanguageSet
	DefaultLanguage         string
	SetUnknownLanguage      bool
	RemoveUnwantedLanguages bool
	RemoveDuplicateTracks   bool
	PreferredAudio          []string
	RemuxVobSub             bool
	DeInterlace             bool
	ReEncode                bool
	VideoSignatures         []decision.VideoSignature
	AudioFormats            decision.FormatSet
	VerifyBitrate           bool
	// MaximumBitrate is in bits per second.
	MaximumBitrate int64
}

// FromConfig converts the loaded configuration into plan options.
func FromConfig(cfg *config.Config) Options {
	if cfg == nil {
		d := config.Default()
		cfg = &d
	}
	p := cfg.Process
	opts := Options{
		KeepLanguages:           decision.NewLanguageSet(p.KeepLanguages...),
		DefaultLanguage:         strings.TrimSpace(p.DefaultLanguage),
		SetUnknownLanguage:      p.SetUnknownLanguage,
		RemoveUnwantedLanguages: p.RemoveUnwantedLanguages,
		RemoveDuplicateTracks:   p.RemoveDuplicateTracks,
		PreferredAudio:          append([]string{}, p.PreferredAudioFormats...),
		RemuxVobSub:             p.RemuxVobSub,
		DeInterlace:             p.DeInterlace,
		ReEncode:                p.ReEncode,
		VideoSignatures:         make([]decision.VideoSignature, 0, len(p.ReEncodeVideo)),
		AudioFormats:            decision.NewFormatSet(p.ReEncodeAudioFormats...),
		VerifyBitrate:           cfg.Verify.VerifyBitrate,
		MaximumBitrate:          cfg.Verify.MaximumBitrate,
	}
	for _, rule := range p.ReEncodeVideo {
		opts.VideoSignatures = append(opts.VideoSignatures, decision.VideoSignature{
			Codec:   rule.Codec,
			Format:  rule.Format,
			Profile: rule.Profile,
		})
	}
	return opts
}

// ThresholdBytes converts MaximumBitrate to bytes per second.
func (o Options) ThresholdBytes() int64 {
	if o.MaximumBitrate <= 0 {
		return 0
	}
	return o.MaximumBitrate / 8
}

// normalized fills the nil collections the decision passes reject.
func (o Options) normalized() Options {
	if o.KeepLanguages == nil {
		o.KeepLanguages = decision.NewLanguageSet()
	}
	if o.PreferredAudio == nil {
		o.PreferredAudio = []string{}
	}
	if o.VideoSignatures == nil {
		o.VideoSignatures = []decision.VideoSignature{}
	}
	if o.AudioFormats == nil {
		o.AudioFormats = decision.NewFormatSet()
	}
	return o
}
