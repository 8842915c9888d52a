// Package history persists analysis runs in a SQLite database under the
// configured state directory and guards batch runs with a lock file.
//
// Each run stores the planned decisions and optional bitrate verdict as JSON
// so that earlier results can be listed and inspected without re-probing the
// media file.
package history
