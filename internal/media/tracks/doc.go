// Package tracks models the audio, video and subtitle tracks of one media
// container as reported by one probing backend.
//
// Backends disagree (ffprobe, mkvmerge and MediaInfo name codecs differently
// and only MediaInfo reports scan type and muxing mode), so a media file is
// represented by one Container per backend. Tracks are values: decision passes
// never mutate them and instead report a Decision per track ID.
//
// Key types:
//   - Track: common attributes plus a kind-specific Detail payload
//   - Container: ordered Video, Audio and Subtitle tracks and aggregate flags
//   - Decision: the disposition assigned to one track ID by a pass
package tracks
