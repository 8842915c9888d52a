// Package services defines shared utilities consumed by the analysis pipeline
// and the external probing integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, media file paths, and stage names
//     for logging.
//   - Structured error markers plus the Wrap helper, separating hard
//     per-call failures (invalid arguments, tool errors) from informational
//     data anomalies that never abort a pass.
//   - Tool-backed integrations (mkvmerge, mediainfo) live in subpackages.
//
// Use these helpers when wiring new pipeline logic so error classification and
// observability stay uniform.
package services
