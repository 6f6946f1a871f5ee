// Package audio wraps raw PCM audio in a RIFF/WAV envelope so browsers can
// play the speech model's output directly.
package audio

import "encoding/binary"

// Speech model output format: 24 kHz, mono, 16-bit signed little-endian PCM.
const (
	SampleRate    = 24000
	NumChannels   = 1
	BitsPerSample = 16
)

// WrapPCM prefixes pcm with a canonical 44-byte WAV header describing the
// speech model's fixed output format.
func WrapPCM(pcm []byte) []byte {
	const headerSize = 44
	dataLen := uint32(len(pcm))
	byteRate := uint32(SampleRate * NumChannels * BitsPerSample / 8)
	blockAlign := uint16(NumChannels * BitsPerSample / 8)

	buf := make([]byte, headerSize, headerSize+len(pcm))

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], 36+dataLen)
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16) // PCM chunk size
	binary.LittleEndian.PutUint16(buf[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(buf[22:24], NumChannels)
	binary.LittleEndian.PutUint32(buf[24:28], SampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], byteRate)
	binary.LittleEndian.PutUint16(buf[32:34], blockAlign)
	binary.LittleEndian.PutUint16(buf[34:36], BitsPerSample)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], dataLen)

	return append(buf, pcm...)
}
