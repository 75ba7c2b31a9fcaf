// Package wav serializes captured float samples into canonical 16-bit PCM
// WAV containers, and parses them back for verification.
package wav

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"
)

const (
	// HeaderSize is the canonical RIFF/WAVE header length.
	HeaderSize = 44

	// MIMEType tags encoded buffers for upload.
	MIMEType = "audio/wav"

	audioFormatPCM = 1
	bitsPerSample  = 16
)

// Encode serializes ordered interleaved float32 chunks into a single WAV
// buffer. It is a pure function: identical input yields identical bytes.
// An empty chunk list produces a structurally valid 44-byte file with a
// zero-length data section.
func Encode(chunks [][]float32, sampleRate, channels int) []byte {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	dataSize := total * 2

	buf := make([]byte, HeaderSize+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], audioFormatPCM)
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*channels*2))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(channels*2))
	binary.LittleEndian.PutUint16(buf[34:36], bitsPerSample)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	off := HeaderSize
	for _, chunk := range chunks {
		for _, s := range chunk {
			binary.LittleEndian.PutUint16(buf[off:], uint16(pcm16(s)))
			off += 2
		}
	}

	return buf
}

// pcm16 clamps a float sample to [-1, 1] and quantizes it. Negative values
// scale by 32768 and non-negative by 32767 so both ends of the signed
// 16-bit range are reachable without overflow. The asymmetry is a fixed
// policy: changing it would change output bytes for negative full-scale
// samples.
func pcm16(s float32) int16 {
	if s > 1.0 {
		s = 1.0
	} else if s < -1.0 {
		s = -1.0
	}
	if s < 0 {
		return int16(s * 32768)
	}
	return int16(s * 32767)
}

// Info describes a parsed WAV header.
type Info struct {
	SampleRate uint32
	Channels   uint16
	BitDepth   uint16
	DataSize   uint32
	Frames     uint32
}

// Duration returns the audio length in seconds.
func (i Info) Duration() float64 {
	if i.SampleRate == 0 {
		return 0
	}
	return float64(i.Frames) / float64(i.SampleRate)
}

// Decode parses a WAV buffer produced by Encode and extracts its 16-bit
// samples in interleaved order. A zero-length data section is valid and
// yields an empty sample slice.
func Decode(data []byte) ([]int16, Info, error) {
	info, err := Parse(data)
	if err != nil {
		return nil, Info{}, err
	}

	if int(info.DataSize) > len(data)-HeaderSize {
		return nil, Info{}, fmt.Errorf("data size %d exceeds buffer payload %d", info.DataSize, len(data)-HeaderSize)
	}

	samples := make([]int16, info.DataSize/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[HeaderSize+i*2:]))
	}

	return samples, info, nil
}

// Parse validates the header of a WAV buffer without touching the payload.
func Parse(data []byte) (Info, error) {
	if len(data) < HeaderSize {
		return Info{}, fmt.Errorf("WAV data too short: need at least %d bytes, got %d", HeaderSize, len(data))
	}

	if string(data[0:4]) != "RIFF" {
		return Info{}, fmt.Errorf("invalid WAV file: missing RIFF header")
	}
	if string(data[8:12]) != "WAVE" {
		return Info{}, fmt.Errorf("invalid WAV file: missing WAVE format")
	}
	if string(data[12:16]) != "fmt " {
		return Info{}, fmt.Errorf("invalid WAV file: missing fmt chunk")
	}
	if string(data[36:40]) != "data" {
		return Info{}, fmt.Errorf("invalid WAV file: missing data chunk")
	}

	format := binary.LittleEndian.Uint16(data[20:22])
	if format != audioFormatPCM {
		return Info{}, fmt.Errorf("unsupported audio format: %d (only PCM is supported)", format)
	}

	depth := binary.LittleEndian.Uint16(data[34:36])
	if depth != bitsPerSample {
		return Info{}, fmt.Errorf("unsupported bit depth: %d (only 16-bit is supported)", depth)
	}

	channels := binary.LittleEndian.Uint16(data[22:24])
	if channels == 0 {
		return Info{}, fmt.Errorf("invalid channel count: 0")
	}

	dataSize := binary.LittleEndian.Uint32(data[40:44])

	return Info{
		SampleRate: binary.LittleEndian.Uint32(data[24:28]),
		Channels:   channels,
		BitDepth:   depth,
		DataSize:   dataSize,
		Frames:     dataSize / (uint32(channels) * 2),
	}, nil
}

var filenameSanitizer = strings.NewReplacer(":", "-", ".", "-")

// Filename builds the upload filename for a recording finished at t:
// recording_<ISO8601 timestamp with colons and dots replaced by dashes>.wav
func Filename(t time.Time) string {
	stamp := t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	return "recording_" + filenameSanitizer.Replace(stamp) + ".wav"
}
