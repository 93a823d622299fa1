package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

// wavFile builds a minimal RIFF/WAVE byte stream with a fmt and data chunk.
func wavFile(sampleRate uint32, channels uint16, dataSize int) []byte {
	bitsPerSample := uint16(16)
	byteRate := sampleRate * uint32(channels) * uint32(bitsPerSample/8)

	body := make([]byte, 0, 44+dataSize)
	body = append(body, []byte("RIFF")...)
	body = binary.LittleEndian.AppendUint32(body, uint32(36+dataSize))
	body = append(body, []byte("WAVE")...)

	body = append(body, []byte("fmt ")...)
	body = binary.LittleEndian.AppendUint32(body, 16)
	body = binary.LittleEndian.AppendUint16(body, 1) // PCM
	body = binary.LittleEndian.AppendUint16(body, channels)
	body = binary.LittleEndian.AppendUint32(body, sampleRate)
	body = binary.LittleEndian.AppendUint32(body, byteRate)
	body = binary.LittleEndian.AppendUint16(body, uint16(uint32(channels)*uint32(bitsPerSample/8)))
	body = binary.LittleEndian.AppendUint16(body, bitsPerSample)

	body = append(body, []byte("data")...)
	body = binary.LittleEndian.AppendUint32(body, uint32(dataSize))
	body = append(body, make([]byte, dataSize)...)
	return body
}

func TestProbeWAV(t *testing.T) {
	// 16kHz mono 16-bit: 32000 bytes/s, so 64000 bytes of data is 2 seconds
	info, err := Probe("call.wav", wavFile(16000, 1, 64000))
	if err != nil {
		t.Fatal(err)
	}
	if info.Format != "wav" {
		t.Fatalf("format = %q", info.Format)
	}
	if info.SampleRateHertz != 16000 || info.Channels != 1 {
		t.Fatalf("fmt chunk misread: %+v", info)
	}
	if math.Abs(info.DurationSeconds-2) > 1e-9 {
		t.Fatalf("duration = %v, want 2", info.DurationSeconds)
	}
}

func TestProbeWAVBadHeader(t *testing.T) {
	_, err := Probe("x.wav", []byte("not audio at all"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestProbeEmpty(t *testing.T) {
	_, err := Probe("x.wav", nil)
	if !errors.Is(err, ErrEmptyAudio) {
		t.Fatalf("err = %v, want ErrEmptyAudio", err)
	}
}

func TestProbeUnsupportedExtension(t *testing.T) {
	_, err := Probe("slides.pdf", []byte{1, 2, 3})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestProbeLossyEstimate(t *testing.T) {
	// 120000 bytes at the assumed 96 kbit/s is 10 seconds
	info, err := Probe("call.mp3", make([]byte, 120000))
	if err != nil {
		t.Fatal(err)
	}
	if info.Format != "mp3" {
		t.Fatalf("format = %q", info.Format)
	}
	if math.Abs(info.DurationSeconds-10) > 1e-9 {
		t.Fatalf("duration = %v, want 10", info.DurationSeconds)
	}
}

func TestProbeCaseInsensitiveExtension(t *testing.T) {
	info, err := Probe("CALL.WAV", wavFile(8000, 2, 3200))
	if err != nil {
		t.Fatal(err)
	}
	if info.Format != "wav" || info.Channels != 2 {
		t.Fatalf("info = %+v", info)
	}
}
