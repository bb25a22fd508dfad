// Package scheduler implements the Conversation Scheduler (spec §4.6):
// it walks a validated RenderPlan, resolves each line's position on the
// timeline, drives the Voice Engine per line, and assembles the
// per-character tracks and event log the Audio Mixer consumes.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/voxcue/voxcue/pkg/voxcue/audio"
	"github.com/voxcue/voxcue/pkg/voxcue/emotion"
	"github.com/voxcue/voxcue/pkg/voxcue/engine"
	"github.com/voxcue/voxcue/pkg/voxcue/errorsx"
	"github.com/voxcue/voxcue/pkg/voxcue/pcm"
	"github.com/voxcue/voxcue/pkg/voxcue/plan"
)

// maxConcurrentLines bounds how many lines the scheduler dispatches to the
// Voice Engine at once. Lines are independent I/O-bound provider calls;
// their results are reassembled into tracks and the event log in plan
// order afterward, so concurrency here is invisible to the rest of
// Schedule's output.
const maxConcurrentLines = 8

// wordsPerSecond is the 180wpm constant spec §9 reserves for
// line-duration estimates, distinct from the 15 chars/sec the emotion
// timeline uses for trigger math.
const wordsPerSecond = 180.0 / 60.0

// Stats is the per-render summary spec §4.6 step 7 names.
type Stats struct {
	TotalDurationMs      int64
	SpeakingTimeMsByChar map[string]int64
	EmotionDistribution  map[emotion.Kind]int // count of lines spoken under each kind, across the plan
	OverlapCount         int
	SilenceDurationMs    int64
	FailedSegments       int
}

// Result is what Schedule returns: the per-character tracks and event
// log the mixer consumes, plus render statistics.
type Result struct {
	Tracks   []audio.CharacterTrack
	Timeline audio.Timeline
	Stats    Stats
}

// Scheduler drives a plan.RenderPlan through an engine.Engine.
type Scheduler struct {
	Engine *engine.Engine
}

func New(e *engine.Engine) *Scheduler {
	return &Scheduler{Engine: e}
}

// resolvedLine carries the computed placement for one line before
// synthesis, so overlap targets (which reference earlier lines by id)
// can be resolved in a single forward pass.
type resolvedLine struct {
	line    plan.Line
	startMs int64
}

// Schedule implements spec §4.6: validate, compute per-line timing,
// synthesize each line through the engine, and assemble tracks plus the
// event log.
func (s *Scheduler) Schedule(ctx context.Context, p *plan.RenderPlan) (Result, error) {
	p.EnsureIDs()
	if err := p.Validate(); err != nil {
		return Result{}, errorsx.Wrap(err, errorsx.KindInvalidPlan)
	}

	registry := plan.NewCharacterRegistry(p.Characters)
	resolved := resolveLineTimings(p.Lines, p.Global)

	// characterByLineID only depends on plan data, not on synthesis
	// results, so it can be built up front and used to resolve overlap
	// targets even while their lines are still being synthesized
	// concurrently below.
	characterByLineID := make(map[string]string, len(p.Lines))
	for _, line := range p.Lines {
		characterByLineID[line.ID] = line.CharacterID
	}

	type lineResult struct {
		seg        audio.Segment
		emoChanges []int64
		failed     bool
	}
	results := make([]lineResult, len(resolved))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLines)
	for i, rl := range resolved {
		i, rl := i, rl
		character, ok := registry.Get(rl.line.CharacterID)
		if !ok {
			return Result{}, errorsx.Wrap(fmt.Errorf("scheduler: line %s references unresolved character %s", rl.line.ID, rl.line.CharacterID), errorsx.KindInvalidPlan)
		}
		g.Go(func() error {
			seg, emoChanges, failed := s.synthesizeLine(gctx, *character, rl)
			results[i] = lineResult{seg: seg, emoChanges: emoChanges, failed: failed}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	tracksByChar := make(map[string]*audio.CharacterTrack)
	tl := audio.Timeline{SpeakingTimeMsByChar: make(map[string]int64)}
	stats := Stats{
		SpeakingTimeMsByChar: make(map[string]int64),
		EmotionDistribution:  make(map[emotion.Kind]int),
	}

	for i, rl := range resolved {
		character, _ := registry.Get(rl.line.CharacterID)
		r := results[i]
		stats.EmotionDistribution[lineEmotionKind(rl.line, *character)]++

		track, ok := tracksByChar[character.ID]
		if !ok {
			track = &audio.CharacterTrack{CharacterID: character.ID}
			tracksByChar[character.ID] = track
		}
		track.Segments = append(track.Segments, r.seg)

		appendLineEvents(&tl, r.seg, r.emoChanges)
		if rl.line.Timing.Overlap != nil {
			targetCharID := characterByLineID[rl.line.Timing.Overlap.TargetLineID]
			appendOverlapEvents(&tl, rl, r.seg, targetCharID)
			stats.OverlapCount++
		}

		tl.SpeakingTimeMsByChar[character.ID] += r.seg.EndMs - r.seg.StartMs
		stats.SpeakingTimeMsByChar[character.ID] += r.seg.EndMs - r.seg.StartMs
		if r.seg.EndMs > tl.TotalMs {
			tl.TotalMs = r.seg.EndMs
		}
		if r.failed {
			stats.FailedSegments++
		}
	}

	tl.Sort()

	var speaking int64
	for _, v := range stats.SpeakingTimeMsByChar {
		speaking += v
	}
	stats.TotalDurationMs = tl.TotalMs
	if tl.TotalMs > speaking {
		stats.SilenceDurationMs = tl.TotalMs - speaking
	}

	tracks := make([]audio.CharacterTrack, 0, len(tracksByChar))
	for _, id := range registry.IDsInOrder() {
		track, ok := tracksByChar[id]
		if !ok {
			continue
		}
		buffers := make([]pcm.Buffer, 0, len(track.Segments))
		for _, sg := range track.Segments {
			buffers = append(buffers, sg.Buffer)
		}
		track.Buffer = pcm.Concat(buffers...)
		tracks = append(tracks, *track)
	}

	return Result{Tracks: tracks, Timeline: tl, Stats: stats}, nil
}

// resolveLineTimings implements spec §4.6 step 2: a single forward pass
// over the plan's lines that walks a cursor and assigns each line a
// start_ms. For each line in order:
//
//   - pause_before_ms defaults to 0 for the first line, global
//     pause_between_lines_ms otherwise, unless the line sets its own.
//   - start_ms defaults to cursor + pause_before_ms, unless the author
//     set an explicit start_ms.
//   - end_ms defaults to start_ms + natural_duration_ms/speed_multiplier,
//     unless the author set an explicit end_ms.
//   - if Timing.Overlap is set, the line's actual start_ms becomes
//     target.start_ms + offset_into_target_ms — overriding the computed
//     start, but the cursor still advances from the non-overlapping end.
//   - the cursor advances to end_ms + pause_after_ms.
//
// global.NaturalTiming gates this estimate-driven walk: when false, a
// line's start/end are whatever the author wrote (defaulting to 0), with
// no cursor advancement and no duration estimate — for plans that want
// literal, author-controlled timing rather than derived sequencing.
func resolveLineTimings(lines []plan.Line, global plan.GlobalSettings) []resolvedLine {
	resolved := make([]resolvedLine, len(lines))
	startByID := make(map[string]int64, len(lines))
	var cursor int64

	for i, line := range lines {
		nonOverlapStart, nonOverlapEnd := lineNonOverlapWindow(line, i, cursor, global)

		startMs := nonOverlapStart
		if line.Timing.Overlap != nil {
			if targetStart, ok := startByID[line.Timing.Overlap.TargetLineID]; ok {
				startMs = targetStart + line.Timing.Overlap.OffsetIntoTargetMs
			}
		}

		startByID[line.ID] = startMs
		resolved[i] = resolvedLine{line: line, startMs: startMs}
		cursor = nonOverlapEnd + line.Timing.PauseAfterMs
	}
	return resolved
}

// lineNonOverlapWindow computes a line's start/end before any overlap
// override is applied, per spec §4.6 step 2.
func lineNonOverlapWindow(line plan.Line, index int, cursor int64, global plan.GlobalSettings) (startMs, endMs int64) {
	if !global.NaturalTiming {
		if line.Timing.StartMs != nil {
			startMs = *line.Timing.StartMs
		}
		endMs = startMs
		if line.Timing.EndMs != nil {
			endMs = *line.Timing.EndMs
		}
		return startMs, endMs
	}

	pauseBefore := int64(0)
	if line.Timing.PauseBeforeMs != nil {
		pauseBefore = *line.Timing.PauseBeforeMs
	} else if index > 0 {
		pauseBefore = global.PauseBetweenLinesMs
	}

	startMs = cursor + pauseBefore
	if line.Timing.StartMs != nil {
		startMs = *line.Timing.StartMs
	}

	endMs = startMs + estimateDurationMs(line.Text, lineSpeedMultiplier(line))
	if line.Timing.EndMs != nil {
		endMs = *line.Timing.EndMs
	}
	return startMs, endMs
}

func lineSpeedMultiplier(line plan.Line) float64 {
	if line.Timing.SpeedMultiplier != nil {
		return *line.Timing.SpeedMultiplier
	}
	return 1.0
}

// lineEmotionKind resolves the emotion kind a line is spoken under, per
// spec §4.6 step 7: a line-level override if set, else the character's
// default emotion.
func lineEmotionKind(line plan.Line, character plan.Character) emotion.Kind {
	if line.Emotion != nil {
		return line.Emotion.Kind
	}
	return character.DefaultEmotion.Kind
}

func (s *Scheduler) synthesizeLine(ctx context.Context, character plan.Character, rl resolvedLine) (audio.Segment, []int64, bool) {
	line := rl.line

	defaultEmotion := character.DefaultEmotion
	if line.Emotion != nil {
		defaultEmotion = *line.Emotion
	}

	speed := lineSpeedMultiplier(line)

	spec := character.VoiceSpec
	req := engine.Request{
		Text:            line.Text,
		VoiceID:         character.ID,
		VoiceSpec:       &spec,
		SpeakingStyle:   character.Personality.SpeakingStyle,
		DefaultEmotion:  defaultEmotion,
		Transitions:     line.Transitions,
		SpeedMultiplier: speed,
		// Natural per-emotion shapes are requested unconditionally: spec
		// §4.2 selects them "by name when the caller requests natural
		// shaping", with no plan-level knob to turn them off, distinct
		// from GlobalSettings.NaturalTiming which only governs this
		// package's own line-timing estimate.
		Natural: true,
	}

	result, err := s.Engine.Synthesize(ctx, req)
	if err != nil {
		slog.WarnContext(ctx, "line synthesis failed outright, substituting estimated silence",
			"line", line.ID, "character", character.ID, "error", err)
		estimatedMs := estimateDurationMs(line.Text, speed)
		seg := audio.Segment{
			LineID:      line.ID,
			CharacterID: character.ID,
			StartMs:     rl.startMs,
			EndMs:       rl.startMs + estimatedMs,
			Buffer:      pcm.NewSilence(estimatedMs, pcm.DefaultSampleRate, pcm.DefaultChannels),
			Failed:      true,
		}
		return seg, nil, true
	}

	seg := audio.Segment{
		LineID:      line.ID,
		CharacterID: character.ID,
		StartMs:     rl.startMs,
		EndMs:       rl.startMs + result.Buffer.DurationMs(),
		Buffer:      result.Buffer,
		Failed:      result.FailedSegments > 0,
	}
	return seg, result.EmotionChangeOffsetsMs, result.FailedSegments > 0
}

// estimateDurationMs is spec §4.6's natural-duration estimate: word_count
// / 3 * 1000ms (equivalently word_count / 180wpm * 60000ms), divided by
// the speed multiplier and floored at 200ms. The cursor walk uses it for
// a line's default end_ms, and synthesizeLine uses it for the silence it
// substitutes when a provider fails outright.
func estimateDurationMs(text string, speedMultiplier float64) int64 {
	words := countWords(text)
	ms := float64(words) / wordsPerSecond * 1000.0
	if speedMultiplier > 0 {
		ms /= speedMultiplier
	}
	if ms < 200 {
		ms = 200
	}
	return int64(ms)
}

func countWords(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		isSpace := r == ' ' || r == '\t' || r == '\n' || r == '\r'
		if isSpace {
			inWord = false
			continue
		}
		if !inWord {
			count++
			inWord = true
		}
	}
	return count
}

func appendLineEvents(tl *audio.Timeline, seg audio.Segment, emoChangeOffsetsMs []int64) {
	tl.Events = append(tl.Events,
		audio.Event{TimeMs: seg.StartMs, Kind: audio.EventLineStart, LineID: seg.LineID, CharacterID: seg.CharacterID},
		audio.Event{TimeMs: seg.EndMs, Kind: audio.EventLineEnd, LineID: seg.LineID, CharacterID: seg.CharacterID},
	)
	for _, offset := range emoChangeOffsetsMs {
		tl.Events = append(tl.Events, audio.Event{
			TimeMs: seg.StartMs + offset, Kind: audio.EventEmotionChange, LineID: seg.LineID, CharacterID: seg.CharacterID,
		})
	}
}

// appendOverlapEvents tags the overlap_start/overlap_end pair with the
// TARGET line's character id, since that is the track the mixer attenuates
// (audio.Timeline.OverlapWindows resolves events by the attenuated track's
// character id, spec §4.7).
func appendOverlapEvents(tl *audio.Timeline, rl resolvedLine, seg audio.Segment, targetCharacterID string) {
	ov := rl.line.Timing.Overlap
	info := &audio.OverlapInfo{
		OverlappedLineID:  ov.TargetLineID,
		OverlappingLineID: rl.line.ID,
		VolumeAttenuation: ov.VolumeAttenuation,
	}
	tl.Events = append(tl.Events,
		audio.Event{TimeMs: seg.StartMs, Kind: audio.EventOverlapStart, LineID: ov.TargetLineID, CharacterID: targetCharacterID, Overlap: info},
		audio.Event{TimeMs: seg.StartMs + ov.OverlapDurationMs, Kind: audio.EventOverlapEnd, LineID: ov.TargetLineID, CharacterID: targetCharacterID, Overlap: info},
	)
}
