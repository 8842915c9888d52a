package config

import (
	"errors"
	"fmt"
	"strings"

	"trackplan/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateProcess(); err != nil {
		return err
	}
	if err := c.validateVerify(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateTools() error {
	for key, value := range map[string]string{
		"tools.ffprobe":   c.Tools.FFprobe,
		"tools.mkvmerge":  c.Tools.MkvMerge,
		"tools.mediainfo": c.Tools.MediaInfo,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s must be set", key)
		}
	}
	if c.Tools.TimeoutSeconds <= 0 {
		return errors.New("tools.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateProcess() error {
	p := c.Process
	if language.IsUnknown(p.DefaultLanguage) {
		return fmt.Errorf("process.default_language %q is not a known language", p.DefaultLanguage)
	}
	if p.RemoveUnwantedLanguages && len(p.KeepLanguages) == 0 {
		return errors.New("process.keep_languages must include at least one language when process.remove_unwanted_languages is true")
	}
	for i, rule := range p.ReEncodeVideo {
		if isWildcard(rule.Codec) && isWildcard(rule.Format) && isWildcard(rule.Profile) {
			return fmt.Errorf("process.reencode_video[%d] must set at least one of codec, format or profile", i)
		}
	}
	return nil
}

func (c *Config) validateVerify() error {
	if c.Verify.VerifyBitrate && c.Verify.MaximumBitrate <= 0 {
		return errors.New("verify.maximum_bitrate must be positive when verify.verify_bitrate is true")
	}
	if c.Verify.MaximumBitrate < 0 {
		return errors.New("verify.maximum_bitrate must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}

func isWildcard(value string) bool {
	value = strings.TrimSpace(value)
	return value == "" || value == "*"
}
