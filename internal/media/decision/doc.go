// Package decision implements the track classification passes that decide
// which tracks of a container to keep, remove, remux or re-encode.
//
// Every pass is a pure function over one tracks.Container snapshot. It returns
// a Partition whose Keep and Action containers together hold every input
// track exactly once, in the original relative order, plus one Decision per
// track. Inputs are never mutated, so passes can run concurrently on
// independent containers and can be chained by feeding one pass's Keep into
// the next.
//
// Passes:
//   - FindUnknownLanguage: tracks without a usable language tag
//   - FindNeedReMux: VOBSUB subtitles missing a muxing mode
//   - FindNeedDeInterlace: interlaced video tracks
//   - FindUnwantedLanguage: tracks outside the wanted language set
//   - FindNeedReEncode: tracks matching re-encode signatures
//   - FindDuplicateTracks: one track per language per kind
package decision
