package audio_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/Machai17/EG-AI/internal/audio"
)

func TestWrapPCM(t *testing.T) {
	t.Parallel()

	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	wav := audio.WrapPCM(pcm)

	if len(wav) != 44+len(pcm) {
		t.Fatalf("expected %d bytes, got %d", 44+len(pcm), len(wav))
	}

	if !bytes.Equal(wav[0:4], []byte("RIFF")) {
		t.Errorf("missing RIFF marker: %q", wav[0:4])
	}
	if !bytes.Equal(wav[8:12], []byte("WAVE")) {
		t.Errorf("missing WAVE marker: %q", wav[8:12])
	}
	if !bytes.Equal(wav[36:40], []byte("data")) {
		t.Errorf("missing data marker: %q", wav[36:40])
	}

	if got := binary.LittleEndian.Uint32(wav[4:8]); got != uint32(36+len(pcm)) {
		t.Errorf("expected RIFF chunk size %d, got %d", 36+len(pcm), got)
	}
	if got := binary.LittleEndian.Uint16(wav[22:24]); got != audio.NumChannels {
		t.Errorf("expected %d channel(s), got %d", audio.NumChannels, got)
	}
	if got := binary.LittleEndian.Uint32(wav[24:28]); got != audio.SampleRate {
		t.Errorf("expected sample rate %d, got %d", audio.SampleRate, got)
	}
	if got := binary.LittleEndian.Uint16(wav[34:36]); got != audio.BitsPerSample {
		t.Errorf("expected %d bits per sample, got %d", audio.BitsPerSample, got)
	}
	if got := binary.LittleEndian.Uint32(wav[40:44]); got != uint32(len(pcm)) {
		t.Errorf("expected data length %d, got %d", len(pcm), got)
	}

	if !bytes.Equal(wav[44:], pcm) {
		t.Error("payload does not match input PCM")
	}
}

func TestWrapPCMEmptyPayload(t *testing.T) {
	t.Parallel()

	wav := audio.WrapPCM(nil)
	if len(wav) != 44 {
		t.Fatalf("expected bare 44-byte header, got %d bytes", len(wav))
	}
	if got := binary.LittleEndian.Uint32(wav[40:44]); got != 0 {
		t.Errorf("expected zero data length, got %d", got)
	}
}
