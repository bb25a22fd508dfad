package mixer

import (
	"math"

	"github.com/voxcue/voxcue/pkg/voxcue/audio"
	"github.com/voxcue/voxcue/pkg/voxcue/pcm"
)

// applyCrossfades finds adjacent line boundaries where the speaker
// changes and applies a raised-cosine envelope across a
// 2*crossfadeMs window centered on the boundary, on the master buffer
// only (spec §4.7: "Crossfades must not cross track boundaries
// incoherently: they apply to the master only, not to individual
// tracks").
func applyCrossfades(master []int16, tl audio.Timeline, crossfadeMs int64) {
	for _, boundary := range speakerChangeBoundaries(tl) {
		applyCrossfadeWindow(master, boundary, crossfadeMs)
	}
}

// speakerChangeBoundaries scans the sorted event log for adjacent
// line_end -> line_start pairs belonging to different characters and
// returns the midpoint time of each such boundary.
func speakerChangeBoundaries(tl audio.Timeline) []int64 {
	var boundaries []int64
	var lastEndMs int64 = -1
	var lastEndChar string
	haveLastEnd := false

	for _, e := range tl.Events {
		switch e.Kind {
		case audio.EventLineStart:
			if haveLastEnd && e.CharacterID != lastEndChar {
				boundaries = append(boundaries, (lastEndMs+e.TimeMs)/2)
			}
		case audio.EventLineEnd:
			lastEndMs = e.TimeMs
			lastEndChar = e.CharacterID
			haveLastEnd = true
		}
	}
	return boundaries
}

// applyCrossfadeWindow multiplies the samples in [center-crossfadeMs,
// center+crossfadeMs) by the raised-cosine envelope spec §4.7 defines:
// 0.5 + 0.5*cos(pi*progress), where progress rises from 0 at the window's
// start to 1 at the center and falls back to 0 at the window's end
// (symmetric dip-and-recover around the boundary: full level at the
// window edges, silence at the center).
func applyCrossfadeWindow(master []int16, centerMs int64, crossfadeMs int64) {
	centerSample := int(float64(centerMs) / 1000.0 * float64(pcm.DefaultSampleRate))
	windowSamples := int(float64(crossfadeMs) / 1000.0 * float64(pcm.DefaultSampleRate))
	if windowSamples <= 0 {
		return
	}
	masterFrames := len(master) / pcm.DefaultChannels

	start := centerSample - windowSamples
	end := centerSample + windowSamples
	if start < 0 {
		start = 0
	}
	if end > masterFrames {
		end = masterFrames
	}

	for i := start; i < end; i++ {
		progress := 1 - math.Abs(float64(i-centerSample))/float64(windowSamples)
		if progress < 0 {
			progress = 0
		}
		envelope := 0.5 + 0.5*math.Cos(math.Pi*progress)
		for c := 0; c < pcm.DefaultChannels; c++ {
			idx := i*pcm.DefaultChannels + c
			master[idx] = clampInt16(round(float64(master[idx]) * envelope))
		}
	}
}
