// Package audio is the thin ingestion collaborator: it sniffs uploaded bytes
// for format, sample rate, and duration and rejects what the pipeline cannot
// process. No DSP happens here.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const MaxUploadBytes = 100 << 20

var supportedExtensions = map[string]bool{
	"wav": true, "flac": true, "mp3": true,
	"ogg": true, "opus": true, "amr": true, "awb": true, "webm": true,
}

var (
	ErrEmptyAudio        = errors.New("audio is empty")
	ErrTooLarge          = errors.New("audio exceeds the upload size limit")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

type Info struct {
	Format          string  // lowercase extension, ex: "wav"
	SampleRateHertz int32
	DurationSeconds float64
	Channels        int
}

// Probe validates the upload and extracts metadata. WAV headers are parsed
// exactly; compressed formats get a bitrate-based duration estimate, which is
// good enough for cost preview (billing uses the provider's reported time).
func Probe(filename string, data []byte) (*Info, error) {
	if len(data) == 0 {
		return nil, ErrEmptyAudio
	}
	if len(data) > MaxUploadBytes {
		return nil, ErrTooLarge
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !supportedExtensions[ext] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if ext == "wav" {
		return probeWAV(data)
	}

	info := &Info{Format: ext, SampleRateHertz: 16000, Channels: 1}
	// rough estimate assuming ~96 kbit/s for lossy codecs, ~700 for flac
	bitrate := 96_000.0
	if ext == "flac" {
		bitrate = 700_000.0
		info.SampleRateHertz = 44100
	}
	info.DurationSeconds = float64(len(data)) * 8 / bitrate
	return info, nil
}

func probeWAV(data []byte) (*Info, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: bad RIFF header", ErrUnsupportedFormat)
	}

	info := &Info{Format: "wav"}
	var byteRate uint32
	var dataSize uint32

	// walk the chunk list for fmt and data
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := binary.LittleEndian.Uint32(data[off+4 : off+8])
		body := off + 8

		switch id {
		case "fmt ":
			if body+16 > len(data) {
				return nil, fmt.Errorf("%w: truncated fmt chunk", ErrUnsupportedFormat)
			}
			info.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			info.SampleRateHertz = int32(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			byteRate = binary.LittleEndian.Uint32(data[body+8 : body+12])
		case "data":
			dataSize = size
		}

		// chunks are word-aligned
		off = body + int(size)
		if size%2 == 1 {
			off++
		}
	}

	if info.SampleRateHertz == 0 {
		return nil, fmt.Errorf("%w: missing fmt chunk", ErrUnsupportedFormat)
	}
	if byteRate > 0 && dataSize > 0 {
		info.DurationSeconds = float64(dataSize) / float64(byteRate)
	}
	return info, nil
}
