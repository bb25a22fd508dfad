// Package audio holds the data model shared between the Conversation
// Scheduler (§4.6), which builds it, and the Audio Mixer (§4.7), which
// consumes it: per-line audio segments, per-character tracks, and the
// time-sorted conversation event log (spec §3's AudioSegment /
// CharacterTrack / ConversationTimeline).
package audio

import (
	"sort"

	"github.com/voxcue/voxcue/pkg/voxcue/pcm"
)

// EventKind is one of the five event kinds spec §3/§5 name.
type EventKind string

const (
	EventLineStart     EventKind = "line_start"
	EventLineEnd       EventKind = "line_end"
	EventEmotionChange EventKind = "emotion_change"
	EventOverlapStart  EventKind = "overlap_start"
	EventOverlapEnd    EventKind = "overlap_end"
)

// eventPriority implements spec §5's ordering: "line_start < overlap_start
// < emotion_change < overlap_end < line_end", used as the tiebreaker when
// two events share a TimeMs.
var eventPriority = map[EventKind]int{
	EventLineStart:     0,
	EventOverlapStart:  1,
	EventEmotionChange: 2,
	EventOverlapEnd:    3,
	EventLineEnd:       4,
}

// OverlapInfo carries the attenuation an overlap_start/overlap_end pair
// applies to the overlapped line's track, for the mixer's per-sample
// attenuation lookup (spec §4.7).
type OverlapInfo struct {
	OverlappedLineID  string // the line being attenuated (the target)
	OverlappingLineID string // the line that overlaps it
	VolumeAttenuation float64
}

// Event is one entry in the ConversationTimeline's sorted event log.
type Event struct {
	TimeMs      int64
	Kind        EventKind
	LineID      string
	CharacterID string
	Overlap     *OverlapInfo
}

// Timeline is spec §3's ConversationTimeline: a time-sorted event log
// plus cumulative per-character speaking time.
type Timeline struct {
	Events               []Event
	SpeakingTimeMsByChar map[string]int64
	TotalMs              int64
}

// Sort orders Events by (time_ms, event_kind_priority), per spec §5.
func (t *Timeline) Sort() {
	sort.SliceStable(t.Events, func(i, j int) bool {
		if t.Events[i].TimeMs != t.Events[j].TimeMs {
			return t.Events[i].TimeMs < t.Events[j].TimeMs
		}
		return eventPriority[t.Events[i].Kind] < eventPriority[t.Events[j].Kind]
	})
}

// OverlapsAt reports the OverlapInfo (and true) for the most recent
// overlap_start event on characterID at or before atMs, unless a matching
// overlap_end at or before atMs has closed it, per spec §4.7's
// per-segment attenuation lookup.
func (t *Timeline) OverlapsAt(characterID string, atMs int64) (OverlapInfo, bool) {
	var active *OverlapInfo
	var activeSince int64
	for _, e := range t.Events {
		if e.CharacterID != characterID || e.Overlap == nil {
			continue
		}
		switch e.Kind {
		case EventOverlapStart:
			if e.TimeMs <= atMs {
				active = e.Overlap
				activeSince = e.TimeMs
			}
		case EventOverlapEnd:
			if e.TimeMs <= atMs && active != nil && e.Overlap.OverlappedLineID == active.OverlappedLineID && e.TimeMs >= activeSince {
				active = nil
			}
		}
	}
	if active != nil {
		return *active, true
	}
	return OverlapInfo{}, false
}

// OverlapWindow is a resolved attenuation span on one character's track,
// paired from a matching overlap_start/overlap_end event, per spec §4.7.
type OverlapWindow struct {
	StartMs, EndMs    int64
	VolumeAttenuation float64
}

// OverlapWindows resolves every overlap_start/overlap_end pair tagged with
// characterID into concrete [StartMs, EndMs) spans, for the mixer's
// span-intersection attenuation lookup: the overlap window on the
// attenuated character's own track does not generally align with that
// character's segment boundaries (spec §4.7's overlap_start sits at the
// overlapping line's start, which is offset into the target line, not at
// the target's own StartMs), so callers must test a frame's time against
// these windows rather than a single point.
func (t *Timeline) OverlapWindows(characterID string) []OverlapWindow {
	var windows []OverlapWindow
	var openStart int64
	var openInfo *OverlapInfo
	for _, e := range t.Events {
		if e.CharacterID != characterID || e.Overlap == nil {
			continue
		}
		switch e.Kind {
		case EventOverlapStart:
			openStart = e.TimeMs
			openInfo = e.Overlap
		case EventOverlapEnd:
			if openInfo != nil && e.Overlap.OverlappedLineID == openInfo.OverlappedLineID {
				windows = append(windows, OverlapWindow{StartMs: openStart, EndMs: e.TimeMs, VolumeAttenuation: openInfo.VolumeAttenuation})
				openInfo = nil
			}
		}
	}
	return windows
}

// Segment owns one line's synthesized PCM and references the Line it
// came from, per spec §3's AudioSegment.
type Segment struct {
	LineID      string
	CharacterID string
	StartMs     int64
	EndMs       int64
	Buffer      pcm.Buffer
	Failed      bool // true when this segment is a non-fatal synthesis fallback (spec §4.6, §7)
}

// CharacterTrack owns one character's sorted segments and their
// contiguous concatenation, per spec §3.
type CharacterTrack struct {
	CharacterID string
	Segments    []Segment
	Buffer      pcm.Buffer
}

// TotalSampleCount sums the frame counts of all segments, matching the
// testable invariant in spec §8: "the track's total sample count equals
// the sum of its segments' sample counts."
func (c CharacterTrack) TotalSampleCount() int {
	total := 0
	for _, s := range c.Segments {
		total += s.Buffer.FrameCount()
	}
	return total
}
