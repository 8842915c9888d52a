// Package bitrate derives per-second bitrate series from packet timestamps.
//
// Packets come from ffprobe's -show_packets output. Each qualifying packet's
// size is accumulated into a one-second bucket of the video, audio and
// combined series; seconds above a byte-rate threshold are counted as excess
// so callers can decide whether a stream needs re-encoding to cap its peak
// bitrate. The package has no dependency on the track model.
package bitrate
