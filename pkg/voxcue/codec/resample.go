package codec

import (
	"encoding/binary"

	"github.com/voxcue/voxcue/pkg/voxcue/pcm"
)

// Canonicalize converts buf to the canonical 44100Hz/stereo/16-bit
// format (spec §3, §4.7): mono is up-mixed and a differing sample rate
// is resampled, per the open-question resolution recorded in
// SPEC_FULL.md §6.1. The Voice Engine calls it on each segment's PCM
// right after the provider returns it, before the segments are
// concatenated.
func Canonicalize(buf pcm.Buffer) pcm.Buffer {
	out := buf
	if out.ChannelCount == 1 {
		out = upmixMonoToStereo(out)
	}
	if out.SampleRate != pcm.DefaultSampleRate {
		out = Resample(out, pcm.DefaultSampleRate)
	}
	return out
}

// upmixMonoToStereo duplicates each mono sample across both channels,
// per spec §6: "mono inputs are up-mixed by sample duplication."
func upmixMonoToStereo(buf pcm.Buffer) pcm.Buffer {
	frames := buf.FrameCount()
	out := make([]byte, frames*2*pcm.BytesPerSample)
	for i := 0; i < frames; i++ {
		sample := buf.Samples[i*2 : i*2+2]
		copy(out[i*4:i*4+2], sample)
		copy(out[i*4+2:i*4+4], sample)
	}
	return pcm.Buffer{Samples: out, SampleRate: buf.SampleRate, ChannelCount: 2}
}

// Resample linearly interpolates buf to targetRate. Used only for the
// cross-backend sample-rate mismatch case spec §9 flags; the mixer never
// resamples on its own.
func Resample(buf pcm.Buffer, targetRate int) pcm.Buffer {
	if buf.SampleRate == targetRate || buf.SampleRate <= 0 {
		buf.SampleRate = targetRate
		return buf
	}

	channels := buf.ChannelCount
	srcFrames := buf.FrameCount()
	if srcFrames == 0 {
		return pcm.Buffer{SampleRate: targetRate, ChannelCount: channels}
	}

	ratio := float64(buf.SampleRate) / float64(targetRate)
	dstFrames := int(float64(srcFrames) / ratio)
	out := make([]byte, dstFrames*channels*pcm.BytesPerSample)

	for i := 0; i < dstFrames; i++ {
		srcPos := float64(i) * ratio
		i0 := int(srcPos)
		i1 := i0 + 1
		if i1 >= srcFrames {
			i1 = srcFrames - 1
		}
		frac := srcPos - float64(i0)

		for c := 0; c < channels; c++ {
			s0 := readSample(buf.Samples, i0, c, channels)
			s1 := readSample(buf.Samples, i1, c, channels)
			interp := float64(s0) + (float64(s1)-float64(s0))*frac
			writeSample(out, i, c, channels, int16(clampInt16(interp)))
		}
	}

	return pcm.Buffer{Samples: out, SampleRate: targetRate, ChannelCount: channels}
}

func readSample(samples []byte, frame, channel, channels int) int16 {
	offset := (frame*channels + channel) * pcm.BytesPerSample
	if offset+2 > len(samples) {
		return 0
	}
	return int16(binary.LittleEndian.Uint16(samples[offset:]))
}

func writeSample(samples []byte, frame, channel, channels int, v int16) {
	offset := (frame*channels + channel) * pcm.BytesPerSample
	binary.LittleEndian.PutUint16(samples[offset:], uint16(v))
}

func clampInt16(v float64) float64 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return v
}
