package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"trackplan/internal/config"
	"trackplan/internal/history"
	"trackplan/internal/testsupport"
)

const ffprobeStreams = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_long_name": "H.264 / AVC", "profile": "High", "codec_type": "video",
     "field_order": "progressive", "disposition": {"default": 1, "forced": 0}, "tags": {"language": "eng"}},
    {"index": 1, "codec_name": "ac3", "codec_long_name": "ATSC A/52A (AC-3)", "codec_type": "audio", "channels": 6,
     "disposition": {"default": 1, "forced": 0}, "tags": {"language": "eng", "title": "Surround 5.1"}},
    {"index": 2, "codec_name": "aac", "codec_long_name": "AAC (Advanced Audio Coding)", "codec_type": "audio", "channels": 2,
     "disposition": {"default": 0, "forced": 0}, "tags": {"language": "fre"}},
    {"index": 3, "codec_name": "subrip", "codec_long_name": "SubRip subtitle", "codec_type": "subtitle",
     "disposition": {"default": 0, "forced": 0}, "tags": {"language": "eng"}}
  ],
  "format": {"filename": "movie.mkv", "format_name": "matroska,webm", "duration": "5400.000000", "size": "1000", "bit_rate": "1000"}
}
`

type cliEnv struct {
	cfg        *config.Config
	configPath string
	mediaPath  string
}

func setupCLIEnv(t *testing.T) *cliEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedTool("ffprobe", ffprobeStreams, 0))
	cfg.Tools.MkvMerge = "clearly-not-present-mkvmerge"
	cfg.Tools.MediaInfo = "clearly-not-present-mediainfo"
	cfg.Logging.Level = "error"

	base := testsupport.BaseDir(cfg)
	configPath := filepath.Join(base, "trackplan.toml")
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	mediaPath := filepath.Join(base, "movie.mkv")
	if err := os.WriteFile(mediaPath, []byte("not really matroska"), 0o644); err != nil {
		t.Fatalf("write media: %v", err)
	}
	return &cliEnv{cfg: cfg, configPath: configPath, mediaPath: mediaPath}
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}

func TestAnalyzeRecordsPlan(t *testing.T) {
	env := setupCLIEnv(t)

	out, _, err := runCLI(t, "--config", env.configPath, "analyze", "--json", env.mediaPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	var results []struct {
		RunID  string         `json:"run_id"`
		Status history.Status `json:"status"`
		Tracks []struct {
			ID          int    `json:"id"`
			Disposition string `json:"disposition"`
			Reason      string `json:"reason"`
		} `json:"tracks"`
	}
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode analyze output: %v\n%s", err, out)
	}
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	result := results[0]
	if result.Status != history.StatusPlanned {
		t.Fatalf("expected planned status, got %s", result.Status)
	}
	want := map[int]string{0: "keep", 1: "keep", 2: "remove", 3: "keep"}
	if len(result.Tracks) != len(want) {
		t.Fatalf("expected %d tracks, got %+v", len(want), result.Tracks)
	}
	for _, tr := range result.Tracks {
		if tr.Disposition != want[tr.ID] {
			t.Fatalf("track %d: expected %s, got %s", tr.ID, want[tr.ID], tr.Disposition)
		}
	}
	if result.Tracks[2].Reason != "unwanted_language" {
		t.Fatalf("unexpected reason %q", result.Tracks[2].Reason)
	}

	out, _, err = runCLI(t, "--config", env.configPath, "history", "list", "--json")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	var runs []history.Run
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode history: %v\n%s", err, out)
	}
	if len(runs) != 1 || runs[0].ID != result.RunID || runs[0].Changes != 1 {
		t.Fatalf("unexpected history: %+v", runs)
	}

	out, _, err = runCLI(t, "--config", env.configPath, "history", "show", result.RunID[:8])
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, "unwanted_language")
	requireContains(t, out, env.mediaPath)
}

func TestAnalyzeTableOutput(t *testing.T) {
	env := setupCLIEnv(t)

	out, _, err := runCLI(t, "--config", env.configPath, "analyze", "--no-history", env.mediaPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	requireContains(t, out, "Surround 5.1")
	requireContains(t, out, "remove")
	requireContains(t, out, "[WARN] planned")

	out, _, err = runCLI(t, "--config", env.configPath, "history", "list")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "No runs recorded")
}

func TestAnalyzeRecordsFailedProbe(t *testing.T) {
	env := setupCLIEnv(t)
	env.cfg.Tools.FFprobe = testsupport.WriteStub(t, filepath.Join(testsupport.BaseDir(env.cfg), "failing"), "ffprobe", "", 1)
	data, err := toml.Marshal(env.cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(env.configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, err := runCLI(t, "--config", env.configPath, "analyze", env.mediaPath); err == nil {
		t.Fatal("expected analyze to fail")
	}

	out, _, err := runCLI(t, "--config", env.configPath, "history", "list", "--json")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	var runs []history.Run
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != history.StatusFailed || runs[0].Error == "" {
		t.Fatalf("expected one failed run, got %+v", runs)
	}

	out, _, err = runCLI(t, "--config", env.configPath, "logs", "--run", runs[0].ID[:8])
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "analysis failed")
	requireContains(t, out, "stage=probe")

	out, _, err = runCLI(t, "--config", env.configPath, "logs", "--run", "no-such-run")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "No log entries available")
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLIEnv(t)

	out, _, err := runCLI(t, "--config", env.configPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}

	out, _, err = runCLI(t, "--config", env.configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "keep_languages")
}

func TestCheckReportsMissingRequiredTool(t *testing.T) {
	env := setupCLIEnv(t)

	out, _, err := runCLI(t, "--config", env.configPath, "check")
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "[OK]")
	requireContains(t, out, "[WARN]")

	env.cfg.Tools.FFprobe = "clearly-not-present-ffprobe"
	data, err := toml.Marshal(env.cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(env.configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	out, _, err = runCLI(t, "--config", env.configPath, "check")
	if err == nil {
		t.Fatal("expected check to fail without ffprobe")
	}
	requireContains(t, out, "[ERROR]")
}
