package ffprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"trackplan/internal/media/bitrate"
	"trackplan/internal/services"
)

// rawPacket mirrors one entry of ffprobe's packets array. ffprobe emits
// numeric fields as strings and omits timestamps it does not know.
type rawPacket struct {
	CodecType    string      `json:"codec_type"`
	StreamIndex  int         `json:"stream_index"`
	PtsTime      looseNumber `json:"pts_time"`
	DtsTime      looseNumber `json:"dts_time"`
	DurationTime looseNumber `json:"duration_time"`
	Size         looseNumber `json:"size"`
}

// looseNumber accepts a JSON number or a quoted number.
type looseNumber string

func (n *looseNumber) UnmarshalJSON(data []byte) error {
	*n = looseNumber(strings.Trim(strings.TrimSpace(string(data)), `"`))
	return nil
}

// Packets runs ffprobe -show_packets against path and decodes the packet
// records as they are produced, without buffering the whole document.
func Packets(ctx context.Context, binary, path string) ([]bitrate.Packet, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = DefaultBinary
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.InvalidArgument("ffprobe packets", "path")
	}

	cmd := exec.CommandContext(ctx, binary,
		"-loglevel", "error",
		"-show_packets",
		"-show_entries", "packet=codec_type,stream_index,pts_time,dts_time,duration_time,size",
		"-print_format", "json",
		"--", path,
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "ffprobe", "packets", "open stdout", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "ffprobe", "packets", "start", err)
	}

	packets, decodeErr := DecodePackets(stdout)
	if decodeErr != nil {
		// Drain so the process can exit before Wait.
		_, _ = io.Copy(io.Discard, stdout)
	}
	if err := cmd.Wait(); err != nil {
		return nil, services.ToolFailure(ctx, "ffprobe", "packets", strings.TrimSpace(stderr.String()), err)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return packets, nil
}

// DecodePackets reads an ffprobe packets JSON document from r.
func DecodePackets(r io.Reader) ([]bitrate.Packet, error) {
	dec := json.NewDecoder(r)

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	packets := []bitrate.Packet{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, decodeError(err)
		}
		key, _ := tok.(string)
		if key != "packets" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, decodeError(err)
			}
			continue
		}
		if err := expectDelim(dec, '['); err != nil {
			return nil, err
		}
		for dec.More() {
			var raw rawPacket
			if err := dec.Decode(&raw); err != nil {
				return nil, decodeError(err)
			}
			packets = append(packets, raw.packet())
		}
		if err := expectDelim(dec, ']'); err != nil {
			return nil, err
		}
	}
	return packets, nil
}

func (p rawPacket) packet() bitrate.Packet {
	size, err := strconv.ParseInt(string(p.Size), 10, 64)
	if err != nil {
		size = -1
	}
	return bitrate.Packet{
		StreamIndex:  p.StreamIndex,
		CodecType:    p.CodecType,
		PtsTime:      numberOrUnset(p.PtsTime),
		DtsTime:      numberOrUnset(p.DtsTime),
		DurationTime: numberOrUnset(p.DurationTime),
		Size:         size,
	}
}

func numberOrUnset(n looseNumber) float64 {
	v, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return decodeError(err)
	}
	if got, ok := tok.(json.Delim); !ok || got != want {
		return services.Wrap(services.ErrValidation, "ffprobe", "packets", fmt.Sprintf("expected %q, got %v", want, tok), nil)
	}
	return nil
}

func decodeError(err error) error {
	return services.Wrap(services.ErrValidation, "ffprobe", "packets", "decode json", err)
}
