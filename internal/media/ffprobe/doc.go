// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video/subtitle stream properties
//   - Format: container-level metadata (duration, size, bitrate, tags)
//
// Primary entry points:
//   - Inspect: executes ffprobe and returns parsed Result
//   - Packets: executes ffprobe -show_packets and streams packet records
//
// Result.Container maps the streams onto the shared track model used by the
// decision passes.
package ffprobe
