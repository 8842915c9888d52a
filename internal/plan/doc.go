// Package plan runs the track decision passes over the probe snapshots of one
// media file and folds their results into a single per-track plan.
//
// Stages run in a fixed order and each stage only sees the tracks that
// survived the previous ones:
//  1. unknown_language: report tracks without a usable language and propose relabels
//  2. unwanted_language: remove languages outside keep_languages
//  3. duplicates: keep one track per language and kind
//  4. remux_vobsub: flag VOBSUB subtitles without a muxing mode
//  5. deinterlace: flag interlaced video
//  6. reencode: flag video and audio formats configured for re-encoding
//
// The final disposition of a track is the strongest action any stage assigned
// to it: remove, then reencode, then remux, then keep.
package plan
