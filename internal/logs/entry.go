package logs

import (
	"encoding/json"
	"log/slog"
	"sort"
	"strings"

	"trackplan/internal/logging"
)

// Entry is one decoded JSON log line. Attrs holds every key not promoted to
// a field.
type Entry struct {
	Time      string
	Level     slog.Level
	Message   string
	Component string
	RunID     string
	File      string
	Stage     string
	Attrs     map[string]any
	Raw       string
}

// ParseEntry decodes a JSON log line. Lines that are not JSON objects report
// false.
func ParseEntry(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return Entry{}, false
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return Entry{}, false
	}

	entry := Entry{Raw: line, Level: slog.LevelInfo}
	take := func(key string) string {
		value, ok := fields[key].(string)
		if ok {
			delete(fields, key)
		}
		return value
	}
	entry.Time = take("ts")
	if level := take(slog.LevelKey); level != "" {
		_ = entry.Level.UnmarshalText([]byte(level))
	}
	entry.Message = take(slog.MessageKey)
	entry.Component = take(logging.FieldComponent)
	entry.RunID = take(logging.FieldRunID)
	entry.File = take(logging.FieldFile)
	entry.Stage = take(logging.FieldStage)
	entry.Attrs = fields
	return entry, true
}

// Filter narrows entries. RunID matches by prefix so short IDs from the
// history table work.
type Filter struct {
	RunID    string
	MinLevel slog.Level
}

// Match reports whether e passes the filter.
func (f Filter) Match(e Entry) bool {
	if e.Level < f.MinLevel {
		return false
	}
	if runID := strings.TrimSpace(f.RunID); runID != "" {
		return strings.HasPrefix(e.RunID, runID)
	}
	return true
}

// Entries decodes lines and keeps those matching f. Non-JSON lines are
// dropped.
func Entries(lines []string, f Filter) []Entry {
	var out []Entry
	for _, line := range lines {
		entry, ok := ParseEntry(line)
		if !ok || !f.Match(entry) {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// Format renders e as a single console line.
func (e Entry) Format() string {
	var b strings.Builder
	if e.Time != "" {
		b.WriteString(e.Time)
		b.WriteByte(' ')
	}
	b.WriteString(e.Level.String())
	b.WriteByte(' ')
	if e.Component != "" {
		b.WriteString(e.Component)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Stage != "" {
		b.WriteString(" stage=")
		b.WriteString(e.Stage)
	}
	keys := make([]string, 0, len(e.Attrs))
	for key := range e.Attrs {
		if key == slog.SourceKey {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(formatValue(e.Attrs[key]))
	}
	return b.String()
}

func formatValue(v any) string {
	switch value := v.(type) {
	case string:
		if strings.ContainsAny(value, " \t\"=") {
			data, _ := json.Marshal(value)
			return string(data)
		}
		return value
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
