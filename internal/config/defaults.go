package config

const (
	defaultConfigPath     = "~/.config/trackplan/config.toml"
	defaultStateDir       = "~/.local/share/trackplan"
	defaultLogDir         = "~/.local/share/trackplan/logs"
	historyFileName       = "history.db"
	defaultFFprobe        = "ffprobe"
	defaultMkvMerge       = "mkvmerge"
	defaultMediaInfo      = "mediainfo"
	defaultToolTimeout    = 300
	defaultLanguage       = "eng"
	defaultMaximumBitrate = 100_000_000
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

func defaultPreferredAudioFormats() []string {
	return []string{
		"truehd atmos",
		"truehd",
		"dts-hd master audio",
		"dts-hd high resolution audio",
		"dts",
		"e-ac-3",
		"ac-3",
	}
}

func defaultReEncodeAudioFormats() []string {
	return []string{"flac", "mp2", "vorbis", "wmapro", "pcm_s16le", "opus", "wmav2", "pcm_u8", "adpcm_ms"}
}

func defaultReEncodeVideo() []VideoRule {
	return []VideoRule{
		{Format: "mpeg2video"},
		{Format: "vc1"},
		{Format: "wmv3"},
		{Format: "msrle"},
		{Format: "msmpeg4v3"},
		{Format: "msmpeg4v2"},
		{Format: "mpeg4"},
		{Format: "h264", Profile: "Constrained Baseline"},
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Tools: Tools{
			FFprobe:        defaultFFprobe,
			MkvMerge:       defaultMkvMerge,
			MediaInfo:      defaultMediaInfo,
			TimeoutSeconds: defaultToolTimeout,
		},
		Process: Process{
			KeepLanguages:           []string{defaultLanguage},
			DefaultLanguage:         defaultLanguage,
			SetUnknownLanguage:      true,
			RemoveUnwantedLanguages: true,
			RemoveDuplicateTracks:   true,
			PreferredAudioFormats:   defaultPreferredAudioFormats(),
			RemuxVobSub:             true,
			DeInterlace:             true,
			ReEncode:                true,
			ReEncodeAudioFormats:    defaultReEncodeAudioFormats(),
			ReEncodeVideo:           defaultReEncodeVideo(),
		},
		Verify: Verify{
			VerifyBitrate:  false,
			MaximumBitrate: defaultMaximumBitrate,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
