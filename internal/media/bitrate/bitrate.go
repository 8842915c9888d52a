package bitrate

import (
	"fmt"
	"math"
	"strings"

	"trackplan/internal/services"
)

// MaxDuration bounds the series length in seconds. Packets stamped beyond it
// are treated as corrupt and skipped.
const MaxDuration = 7 * 24 * 60 * 60

// Packet is one demuxed packet record. Unset timestamps are NaN.
type Packet struct {
	StreamIndex  int
	CodecType    string
	PtsTime      float64
	DtsTime      float64
	DurationTime float64
	Size         int64
}

// isSet reports whether a packet time carries a usable value. NaN marks an
// unset field; infinities come from damaged streams.
func isSet(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Series is the per-second byte total of one stream selection plus the
// statistics derived against a threshold.
type Series struct {
	Rate      []int64 `json:"rate"`
	Threshold int64   `json:"threshold"`
	Minimum   int64   `json:"minimum"`
	Maximum   int64   `json:"maximum"`
	Average   float64 `json:"average"`
	// Exceeded counts seconds whose byte total is above Threshold.
	Exceeded int `json:"exceeded"`
}

// ExceededRatio returns the fraction of seconds above the threshold.
func (s Series) ExceededRatio() float64 {
	if len(s.Rate) == 0 {
		return 0
	}
	return float64(s.Exceeded) / float64(len(s.Rate))
}

// ExceededSeconds returns the bucket indexes above the threshold.
func (s Series) ExceededSeconds() []int {
	var out []int
	for i, v := range s.Rate {
		if v > s.Threshold {
			out = append(out, i)
		}
	}
	return out
}

func newSeries(duration int) Series {
	return Series{Rate: make([]int64, duration)}
}

func (s *Series) calculate(threshold int64) {
	s.Threshold = threshold
	s.Minimum, s.Maximum, s.Average, s.Exceeded = 0, 0, 0, 0
	if len(s.Rate) == 0 {
		return
	}
	var total int64
	s.Minimum = math.MaxInt64
	for _, v := range s.Rate {
		total += v
		if v < s.Minimum {
			s.Minimum = v
		}
		if v > s.Maximum {
			s.Maximum = v
		}
		if v > threshold {
			s.Exceeded++
		}
	}
	s.Average = float64(total) / float64(len(s.Rate))
}

// Info is the result of one bitrate calculation.
type Info struct {
	// Duration is the series length in seconds: the highest bucket plus one.
	Duration     int    `json:"duration"`
	Video        Series `json:"video"`
	Audio        Series `json:"audio"`
	Combined     Series `json:"combined"`
	VideoPackets int64  `json:"video_packets"`
	AudioPackets int64  `json:"audio_packets"`
	// Anomalies holds non-fatal conditions such as an empty stream.
	Anomalies []services.Anomaly `json:"anomalies,omitempty"`
}

// ShouldCompute reports whether packet qualifies for accumulation: it belongs
// to the video or audio stream, carries a PTS or DTS, lasts at most one second
// when its duration is known, and has a positive size.
func ShouldCompute(packet Packet, videoStream, audioStream int) bool {
	if packet.StreamIndex != videoStream && packet.StreamIndex != audioStream {
		return false
	}
	if _, ok := timestamp(packet); !ok {
		return false
	}
	if isSet(packet.DurationTime) && packet.DurationTime > 1.0 {
		return false
	}
	return packet.Size > 0
}

// timestamp returns the PTS, or the DTS when the PTS is unusable.
func timestamp(packet Packet) (float64, bool) {
	if isSet(packet.PtsTime) {
		return packet.PtsTime, true
	}
	if isSet(packet.DtsTime) {
		return packet.DtsTime, true
	}
	return 0, false
}

// bucket maps packet to its one-second slot. Negative times clamp to zero;
// times at or past MaxDuration report false.
func bucket(packet Packet) (int, bool) {
	ts, ok := timestamp(packet)
	if !ok {
		return 0, false
	}
	if ts < 0 {
		return 0, true
	}
	if ts >= MaxDuration {
		return 0, false
	}
	return int(math.Floor(ts)), true
}

// Calculate accumulates the qualifying packets into one-second buckets and
// classifies each bucket against threshold (bytes per second). A nil packet
// slice is an invalid argument; an empty video or audio stream and packets
// stamped past MaxDuration are reported as anomalies on the returned Info.
func Calculate(packets []Packet, videoStream, audioStream int, threshold int64) (*Info, error) {
	if packets == nil {
		return nil, services.InvalidArgument("bitrate calculate", "packets")
	}

	maxBucket := 0
	outOfRange := 0
	for _, packet := range packets {
		if !ShouldCompute(packet, videoStream, audioStream) {
			continue
		}
		b, ok := bucket(packet)
		if !ok {
			outOfRange++
			continue
		}
		if b > maxBucket {
			maxBucket = b
		}
	}

	info := &Info{Duration: maxBucket + 1}
	info.Video = newSeries(info.Duration)
	info.Audio = newSeries(info.Duration)
	info.Combined = newSeries(info.Duration)

	mismatched := 0
	for _, packet := range packets {
		if !ShouldCompute(packet, videoStream, audioStream) {
			continue
		}
		index, ok := bucket(packet)
		if !ok {
			continue
		}
		if packet.CodecType != "" && !MatchesCodecType(packet, videoStream, audioStream) {
			mismatched++
		}
		if packet.StreamIndex == videoStream {
			info.VideoPackets++
			info.Video.Rate[index] += packet.Size
			info.Combined.Rate[index] += packet.Size
		}
		if packet.StreamIndex == audioStream {
			info.AudioPackets++
			info.Audio.Rate[index] += packet.Size
			info.Combined.Rate[index] += packet.Size
		}
	}

	if outOfRange > 0 {
		info.Anomalies = append(info.Anomalies, services.Anomaly{
			Op:     "bitrate calculate",
			Detail: fmt.Sprintf("%d packets skipped with timestamps beyond %d seconds", outOfRange, MaxDuration),
		})
	}

	if info.VideoPackets == 0 || info.AudioPackets == 0 {
		info.Anomalies = append(info.Anomalies, services.Anomaly{
			Op:     "bitrate calculate",
			Detail: fmt.Sprintf("empty stream detected: video packets %d, audio packets %d", info.VideoPackets, info.AudioPackets),
		})
	}

	if mismatched > 0 {
		info.Anomalies = append(info.Anomalies, services.Anomaly{
			Op:     "bitrate calculate",
			Detail: fmt.Sprintf("%d packets have a codec type that does not match their stream", mismatched),
		})
	}

	info.Video.calculate(threshold)
	info.Audio.calculate(threshold)
	info.Combined.calculate(threshold)
	return info, nil
}

// MatchesCodecType reports whether the packet codec type agrees with the
// stream it was selected for. Mismatches indicate the caller passed the wrong
// stream indexes.
func MatchesCodecType(packet Packet, videoStream, audioStream int) bool {
	if packet.StreamIndex == videoStream && strings.EqualFold(packet.CodecType, "video") {
		return true
	}
	return packet.StreamIndex == audioStream && strings.EqualFold(packet.CodecType, "audio")
}
