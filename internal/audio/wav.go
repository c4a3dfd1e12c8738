package audio

import (
	"encoding/binary"
	"fmt"
)

// WAVHeaderSize is the size of the canonical linear-PCM header this package
// reads and writes: RIFF chunk descriptor, fmt block, data chunk prefix.
const WAVHeaderSize = 44

// Format holds the linear-PCM parameters shared between the synthesized
// chunks and the header written around their concatenation.
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// DefaultFormat matches the speech provider's fixed output format.
var DefaultFormat = Format{
	SampleRate:    24000,
	Channels:      1,
	BitsPerSample: 16,
}

func (f Format) blockAlign() int {
	return f.Channels * f.BitsPerSample / 8
}

func (f Format) byteRate() int {
	return f.SampleRate * f.blockAlign()
}

// WAVHeader renders a 44-byte linear-PCM header declaring dataLen sample
// bytes. All multi-byte fields are little-endian per the container's
// on-disk convention.
func WAVHeader(f Format, dataLen int) []byte {
	h := make([]byte, WAVHeaderSize)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], uint32(36+dataLen))
	copy(h[8:12], "WAVE")

	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16) // fmt block size
	binary.LittleEndian.PutUint16(h[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(h[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(h[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(h[28:32], uint32(f.byteRate()))
	binary.LittleEndian.PutUint16(h[32:34], uint16(f.blockAlign()))
	binary.LittleEndian.PutUint16(h[34:36], uint16(f.BitsPerSample))

	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], uint32(dataLen))
	return h
}

// StripWAVHeader returns the sample bytes that follow a chunk's container
// header. Buffers shorter than one header are rejected.
func StripWAVHeader(b []byte) ([]byte, error) {
	if len(b) < WAVHeaderSize {
		return nil, fmt.Errorf("audio chunk too short for wav header: %d bytes", len(b))
	}
	return b[WAVHeaderSize:], nil
}

// WrapWAV prepends a freshly computed header sized for the sample body.
func WrapWAV(f Format, samples []byte) []byte {
	out := make([]byte, 0, WAVHeaderSize+len(samples))
	out = append(out, WAVHeader(f, len(samples))...)
	return append(out, samples...)
}
