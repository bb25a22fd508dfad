// Package pcm defines the canonical audio buffer format the whole
// pipeline converges on before mixing (spec §3 PcmBuffer, §4.7 "canonical
// format").
package pcm

import "fmt"

const (
	// DefaultSampleRate is the canonical sample rate (spec §3).
	DefaultSampleRate = 44100
	// DefaultChannels is the canonical channel count (spec §3).
	DefaultChannels = 2
	// BytesPerSample is fixed by the canonical format: signed 16-bit.
	BytesPerSample = 2
)

// Buffer is interleaved signed 16-bit little-endian PCM at a fixed
// sample rate and channel count, per spec §3.
type Buffer struct {
	Samples     []byte // interleaved int16 LE
	SampleRate  int
	ChannelCount int
}

// NewSilence returns a zero-filled Buffer of the given duration at the
// canonical format, used for the "substitute a zero-filled buffer of the
// segment's estimated duration" non-fatal fallback (spec §4.6, §7).
func NewSilence(durationMs int64, sampleRate, channels int) Buffer {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if channels <= 0 {
		channels = DefaultChannels
	}
	frames := int64(float64(durationMs) / 1000.0 * float64(sampleRate))
	if frames < 0 {
		frames = 0
	}
	return Buffer{
		Samples:      make([]byte, frames*int64(channels)*BytesPerSample),
		SampleRate:   sampleRate,
		ChannelCount: channels,
	}
}

// FrameCount returns the number of interleaved sample frames (one frame
// = one sample per channel).
func (b Buffer) FrameCount() int {
	if b.ChannelCount <= 0 {
		return 0
	}
	return len(b.Samples) / (BytesPerSample * b.ChannelCount)
}

// DurationMs returns the buffer's playback duration in milliseconds.
func (b Buffer) DurationMs() int64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return int64(float64(b.FrameCount()) / float64(b.SampleRate) * 1000.0)
}

// IsCanonical reports whether b is already in the canonical format, i.e.
// it needs no resampling/up-mixing before entering the mixer.
func (b Buffer) IsCanonical() bool {
	return b.SampleRate == DefaultSampleRate && b.ChannelCount == DefaultChannels
}

// Validate reports a non-nil error if the buffer's byte length is not an
// integer number of interleaved frames for its declared channel count.
func (b Buffer) Validate() error {
	if b.ChannelCount <= 0 {
		return fmt.Errorf("pcm: invalid channel count %d", b.ChannelCount)
	}
	frameBytes := BytesPerSample * b.ChannelCount
	if len(b.Samples)%frameBytes != 0 {
		return fmt.Errorf("pcm: %d bytes not aligned to %d-byte frames", len(b.Samples), frameBytes)
	}
	return nil
}

// Concat appends all buffers' sample bytes in order. Callers must ensure
// all inputs share the same sample rate and channel count (the Voice
// Engine guarantees this by canonicalizing each segment before
// concatenation, per spec §9 open question 1).
func Concat(buffers ...Buffer) Buffer {
	if len(buffers) == 0 {
		return Buffer{SampleRate: DefaultSampleRate, ChannelCount: DefaultChannels}
	}
	total := 0
	for _, b := range buffers {
		total += len(b.Samples)
	}
	out := Buffer{
		Samples:      make([]byte, 0, total),
		SampleRate:   buffers[0].SampleRate,
		ChannelCount: buffers[0].ChannelCount,
	}
	for _, b := range buffers {
		out.Samples = append(out.Samples, b.Samples...)
	}
	return out
}
