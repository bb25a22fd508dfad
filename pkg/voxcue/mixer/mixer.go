// Package mixer implements the sample-accurate 16-bit PCM summation,
// normalization, compression, and crossfade effect chain spec §4.7
// describes. The mixer is a pure function of its inputs (spec §4.7
// "Determinism"): no randomness, no wall-clock reads, no shared mutable
// state (spec §5 "the mixer's scratch buffer is per-request and never
// shared").
package mixer

import (
	"math"

	"github.com/voxcue/voxcue/pkg/voxcue/audio"
	"github.com/voxcue/voxcue/pkg/voxcue/pcm"
)

// Options is the explicit configuration structure spec §9 requires in
// place of a runtime-typed options bag: "MixerOptions{normalize: bool,
// compression_level: f32, crossfade_ms: u32, spatial: bool}". Options has
// no spatial field: the mixer does no spatial panning, and every track is
// summed into both channels as it is.
type Options struct {
	Normalize         bool
	CompressionLevel  float64 // (0,1]; 0 disables compression
	CrossfadeMs       int64
	MasterVolume      float64 // spec §3 GlobalSettings.master_volume, in [0,2]
}

// DefaultOptions matches spec §3 GlobalSettings defaults.
func DefaultOptions() Options {
	return Options{Normalize: true, CompressionLevel: 0, CrossfadeMs: 0, MasterVolume: 1.0}
}

const (
	maxInt16 = 32767
	minInt16 = -32768
)

// Mix sums tracks onto a single master buffer sized from
// timeline.TotalMs, applies attenuation for overlapping segments,
// normalizes, compresses, and crossfades at speaker changes, per spec
// §4.7.
func Mix(tracks []audio.CharacterTrack, tl audio.Timeline, opts Options) pcm.Buffer {
	totalSamples := int(math.Ceil(float64(tl.TotalMs) / 1000.0 * float64(pcm.DefaultSampleRate)))
	if totalSamples < 0 {
		totalSamples = 0
	}
	master := make([]int16, totalSamples*pcm.DefaultChannels)

	for _, track := range tracks {
		placeTrack(master, track, tl)
	}

	if opts.Normalize {
		normalizeInPlace(master)
	}

	if opts.CompressionLevel > 0 {
		compressInPlace(master, opts.CompressionLevel)
	}

	if opts.CrossfadeMs > 0 {
		applyCrossfades(master, tl, opts.CrossfadeMs)
	}

	// Master volume is the final gain stage, applied after normalize ->
	// compress -> crossfade (spec §4.7's chain does not itself mention
	// master volume, so it sits outside that fixed sequence rather than
	// being folded into it, and unlike those three steps it is never
	// optional: MasterVolume 0 is a valid, meaningful setting — it
	// silences the mix — not an "unset" sentinel to skip.
	if opts.MasterVolume != 1.0 {
		scaleInPlace(master, opts.MasterVolume)
	}

	return pcm.Buffer{
		Samples:      int16SliceToBytes(master),
		SampleRate:   pcm.DefaultSampleRate,
		ChannelCount: pcm.DefaultChannels,
	}
}

// placeTrack sums one character track's segments onto master at their
// scheduled positions, per spec §4.7's "Per-track placement". Overlap
// attenuation is resolved per sample frame against that frame's own time
// in the mix, not once per segment: an overlap window frequently starts
// partway through the attenuated character's segment (spec §4.7), so a
// single segment-start lookup would miss it.
func placeTrack(master []int16, track audio.CharacterTrack, tl audio.Timeline) {
	masterFrames := len(master) / pcm.DefaultChannels
	windows := tl.OverlapWindows(track.CharacterID)

	for _, seg := range track.Segments {
		startSample := int(float64(seg.StartMs) / 1000.0 * float64(pcm.DefaultSampleRate))
		segFrames := seg.Buffer.FrameCount()

		limit := segFrames
		if startSample+limit > masterFrames {
			limit = masterFrames - startSample
		}
		if limit <= 0 {
			continue
		}

		for i := 0; i < limit; i++ {
			frameMs := seg.StartMs + int64(float64(i)/float64(pcm.DefaultSampleRate)*1000.0)
			attenuation := attenuationAt(windows, frameMs)
			for c := 0; c < pcm.DefaultChannels; c++ {
				srcIdx := i*pcm.DefaultChannels + c
				if srcIdx*2+1 >= len(seg.Buffer.Samples) {
					continue
				}
				sample := readInt16(seg.Buffer.Samples, srcIdx)
				dstIdx := (startSample+i)*pcm.DefaultChannels + c
				master[dstIdx] = clampAddInt16(master[dstIdx], round(float64(sample)*attenuation))
			}
		}
	}
}

// attenuationAt multiplies in 1-VolumeAttenuation for every window that
// contains atMs; overlapping windows compound rather than override.
func attenuationAt(windows []audio.OverlapWindow, atMs int64) float64 {
	factor := 1.0
	for _, w := range windows {
		if atMs >= w.StartMs && atMs < w.EndMs {
			factor *= 1.0 - w.VolumeAttenuation
		}
	}
	return factor
}

func round(v float64) int {
	if v >= 0 {
		return int(v + 0.5)
	}
	return int(v - 0.5)
}

func clampAddInt16(existing int16, delta int) int16 {
	sum := int(existing) + delta
	return clampInt16(sum)
}

func clampInt16(v int) int16 {
	if v > maxInt16 {
		return maxInt16
	}
	if v < minInt16 {
		return minInt16
	}
	return int16(v)
}

// normalizeInPlace applies spec §4.7's normalization: find the peak
// absolute sample, scale by min(1.0, 32767*0.95/peak) if peak > 0, then
// re-clamp.
func normalizeInPlace(samples []int16) {
	peak := 0
	for _, s := range samples {
		abs := int(s)
		if abs < 0 {
			abs = -abs
		}
		if abs > peak {
			peak = abs
		}
	}
	if peak == 0 {
		return
	}
	scale := math.Min(1.0, float64(maxInt16)*0.95/float64(peak))
	for i, s := range samples {
		samples[i] = clampInt16(round(float64(s) * scale))
	}
}

// compressInPlace applies spec §4.7's compressor: threshold =
// 32767*(1-L), ratio = 1+3L; samples beyond threshold are soft-limited.
func compressInPlace(samples []int16, level float64) {
	if level > 1 {
		level = 1
	}
	threshold := float64(maxInt16) * (1 - level)
	ratio := 1 + 3*level
	for i, s := range samples {
		v := float64(s)
		abs := math.Abs(v)
		if abs > threshold {
			sign := 1.0
			if v < 0 {
				sign = -1.0
			}
			compressed := sign * (threshold + (abs-threshold)/ratio)
			samples[i] = clampInt16(round(compressed))
		}
	}
}

func scaleInPlace(samples []int16, factor float64) {
	for i, s := range samples {
		samples[i] = clampInt16(round(float64(s) * factor))
	}
}

func readInt16(buf []byte, sampleIdx int) int16 {
	off := sampleIdx * 2
	return int16(uint16(buf[off]) | uint16(buf[off+1])<<8)
}

func int16SliceToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[i*2] = byte(uint16(s))
		out[i*2+1] = byte(uint16(s) >> 8)
	}
	return out
}
