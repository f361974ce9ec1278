package tone

import (
	"encoding/binary"
	"math"
)

// Samples renders s as signed 16-bit PCM, interleaved L/R when stereo.
// Looping chunks are trimmed to a whole number of cycles so the loop seam
// stays phase continuous.
func Samples(s Spec, sampleRate int) []int16 {
	secs := s.Chunk.Seconds()
	n := int(secs * float64(sampleRate))
	if s.Loop && s.Frequency > 0 {
		if cycles := math.Floor(secs * s.Frequency); cycles >= 1 {
			n = int(math.Round(cycles * float64(sampleRate) / s.Frequency))
		}
	}

	channels := 1
	if s.Stereo {
		channels = 2
	}
	amp := 32767 * math.Max(0, math.Min(1, s.Volume))
	samples := make([]int16, n*channels)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sampleRate)
		v := int16(math.Sin(2*math.Pi*s.Frequency*t) * amp)
		for c := 0; c < channels; c++ {
			samples[i*channels+c] = v
		}
	}
	return samples
}

// Bytes encodes samples little-endian for byte-oriented backends.
func Bytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}
