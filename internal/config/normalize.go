package config

import (
	"fmt"
	"os"
	"strings"

	"trackplan/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeProcess()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFprobe = toolPath(c.Tools.FFprobe, "TRACKPLAN_FFPROBE", defaultFFprobe)
	c.Tools.MkvMerge = toolPath(c.Tools.MkvMerge, "TRACKPLAN_MKVMERGE", defaultMkvMerge)
	c.Tools.MediaInfo = toolPath(c.Tools.MediaInfo, "TRACKPLAN_MEDIAINFO", defaultMediaInfo)
	if c.Tools.TimeoutSeconds == 0 {
		c.Tools.TimeoutSeconds = defaultToolTimeout
	}
}

// toolPath prefers the environment, then the configured value, then the
// bare binary name resolved through PATH.
func toolPath(configured, envKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	if value := strings.TrimSpace(configured); value != "" {
		return value
	}
	return fallback
}

func (c *Config) normalizeProcess() {
	p := &c.Process
	p.DefaultLanguage = language.Canonical(p.DefaultLanguage)
	if p.DefaultLanguage == language.Undetermined {
		p.DefaultLanguage = defaultLanguage
	}

	// No linguistic content and the default language are always kept.
	keep := append([]string{}, p.KeepLanguages...)
	keep = append(keep, p.DefaultLanguage, "zxx")
	p.KeepLanguages = language.NormalizeList(keep)

	p.PreferredAudioFormats = normalizeFormats(p.PreferredAudioFormats)
	p.ReEncodeAudioFormats = normalizeFormats(p.ReEncodeAudioFormats)

	rules := make([]VideoRule, 0, len(p.ReEncodeVideo))
	for _, rule := range p.ReEncodeVideo {
		rule.Codec = strings.TrimSpace(rule.Codec)
		rule.Format = strings.TrimSpace(rule.Format)
		rule.Profile = strings.TrimSpace(rule.Profile)
		rules = append(rules, rule)
	}
	p.ReEncodeVideo = rules
}

// normalizeFormats lowercases, trims, and deduplicates format names while
// keeping their order, which encodes preference.
func normalizeFormats(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := strings.ToLower(strings.TrimSpace(value))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
