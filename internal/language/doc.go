// Package language provides unified language code normalization and mapping.
//
// Probing backends disagree on language notation: ffprobe and mkvmerge report
// ISO 639-2 (sometimes the bibliographic "fre"/"ger" forms), MediaInfo reports
// ISO 639-1, and unlabeled tracks show up as "und", "unknown" or nothing at
// all. Every conversion used by the track model is consolidated here so the
// decision passes compare one canonical ISO 639-2 form.
package language
