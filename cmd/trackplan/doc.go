// Command trackplan probes media files with ffprobe, mkvmerge and MediaInfo,
// decides per track whether to keep, remove, remux or re-encode it, and
// records each analysis in a local history database.
//
// Usage:
//
//	trackplan analyze [--json] FILE...
//	trackplan bitrate [--json] FILE
//	trackplan history list|show|prune
//	trackplan logs [--run ID] [--follow]
//	trackplan config init|show|validate
//	trackplan check
package main
