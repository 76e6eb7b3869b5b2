package song

import (
	"fmt"
	"strings"
)

// Section describes one block in a convert_session_to_arrangement
// structure.
type Section struct {
	Type       string `json:"type"`
	LengthBars int    `json:"length_bars"`
}

// arrangementEnd returns the end time of the latest arrangement clip.
func (s *Song) arrangementEnd() float64 {
	end := 0.0
	for _, t := range s.Tracks {
		for _, c := range t.ArrangementClips {
			if c.EndTime > end {
				end = c.EndTime
			}
		}
	}
	return end
}

// placeClip copies a session clip onto a track's arrangement timeline.
func placeClip(t *Track, src *Clip, startTime float64) *ArrangementClip {
	ac := &ArrangementClip{
		Name:      src.Name,
		StartTime: startTime,
		EndTime:   startTime + src.Length,
		IsAudio:   !t.HasMIDIInput,
		Notes:     append([]Note(nil), src.Notes...),
	}
	t.ArrangementClips = append(t.ArrangementClips, ac)
	return ac
}

// CreateArrangementSection lays out session clips as a named section on
// the timeline. startBar -1 appends after the current arrangement end.
func (s *Song) CreateArrangementSection(sectionType string, lengthBars, startBar int) (SectionResult, error) {
	if lengthBars <= 0 {
		return SectionResult{}, fmt.Errorf("invalid section length %d bars", lengthBars)
	}
	if startBar == -1 {
		startBar = int(s.arrangementEnd() / beatsPerBar)
	}
	if startBar < 0 {
		return SectionResult{}, fmt.Errorf("invalid start bar %d", startBar)
	}

	startTime := float64(startBar) * beatsPerBar
	sectionLength := float64(lengthBars) * beatsPerBar

	for trackIndex, clipIndices := range s.selectClipsForSection(sectionType) {
		t := s.Tracks[trackIndex]
		for _, clipIndex := range clipIndices {
			slot := t.ClipSlots[clipIndex]
			if !slot.HasClip() {
				continue
			}
			src := slot.Clip

			// Tile the clip until the section is filled.
			for offset := 0.0; offset < sectionLength; offset += src.Length {
				if src.Length <= 0 {
					break
				}
				placeClip(t, src, startTime+offset)
			}
		}
	}

	return SectionResult{
		SectionType:   sectionType,
		StartPosition: startBar,
		LengthBars:    lengthBars,
	}, nil
}

// selectClipsForSection picks session clips per track for a section
// type. Intros pull only foundational tracks (drums, bass); choruses
// favor the last, usually fullest, clip on each track; everything else
// takes the first populated slot per track.
func (s *Song) selectClipsForSection(sectionType string) map[int][]int {
	selected := make(map[int][]int)

	populated := func(t *Track) []int {
		var idx []int
		for i, slot := range t.ClipSlots {
			if slot.HasClip() {
				idx = append(idx, i)
			}
		}
		return idx
	}

	switch strings.ToLower(sectionType) {
	case "intro", "outro":
		drumFound, bassFound := false, false
		for i, t := range s.Tracks {
			lower := strings.ToLower(t.Name)
			if !drumFound && strings.Contains(lower, "drum") {
				if clips := populated(t); len(clips) > 0 {
					selected[i] = clips[:1]
					drumFound = true
				}
			} else if !bassFound && strings.Contains(lower, "bass") {
				if clips := populated(t); len(clips) > 0 {
					selected[i] = clips[:1]
					bassFound = true
				}
			}
		}
		if len(selected) > 0 {
			return selected
		}
		// No recognizable foundation tracks; fall through to generic.
		fallthrough
	default:
		for i, t := range s.Tracks {
			if clips := populated(t); len(clips) > 0 {
				selected[i] = clips[:1]
			}
		}
	case "chorus":
		for i, t := range s.Tracks {
			if clips := populated(t); len(clips) > 0 {
				selected[i] = clips[len(clips)-1:]
			}
		}
	}
	return selected
}

// DuplicateSection copies every arrangement clip overlapping the source
// bar range to the destination, optionally applying MIDI variations.
func (s *Song) DuplicateSection(sourceStartBar, sourceEndBar, destinationBar int, variationLevel float64) (DuplicateResult, error) {
	if sourceEndBar <= sourceStartBar {
		return DuplicateResult{}, fmt.Errorf("source range %d..%d is empty", sourceStartBar, sourceEndBar)
	}

	srcStart := float64(sourceStartBar) * beatsPerBar
	srcEnd := float64(sourceEndBar) * beatsPerBar
	dst := float64(destinationBar) * beatsPerBar

	for _, t := range s.Tracks {
		// Snapshot the slice; we append to it while iterating.
		existing := append([]*ArrangementClip(nil), t.ArrangementClips...)
		for _, c := range existing {
			if c.StartTime >= srcEnd || c.EndTime <= srcStart {
				continue
			}
			relStart := c.StartTime - srcStart
			if relStart < 0 {
				relStart = 0
			}
			dup := &ArrangementClip{
				Name:      c.Name,
				StartTime: dst + relStart,
				EndTime:   dst + relStart + c.Length(),
				IsAudio:   c.IsAudio,
				Notes:     append([]Note(nil), c.Notes...),
			}
			if variationLevel > 0 && !dup.IsAudio {
				s.applyVariations(dup, variationLevel)
			}
			t.ArrangementClips = append(t.ArrangementClips, dup)
		}
	}

	return DuplicateResult{
		SourceStartBar: sourceStartBar,
		SourceEndBar:   sourceEndBar,
		DestinationBar: destinationBar,
		VariationLevel: variationLevel,
	}, nil
}

// applyVariations mutates a MIDI clip's notes in place. Higher levels
// change more: above 0.8 notes are dropped, transposed and added; above
// 0.5 pitches and timings drift; above 0.2 only velocities wobble.
func (s *Song) applyVariations(c *ArrangementClip, level float64) {
	if len(c.Notes) == 0 {
		return
	}
	length := c.Length()

	switch {
	case level > 0.8:
		out := make([]Note, 0, len(c.Notes))
		for _, n := range c.Notes {
			if s.rng.Float64() > 0.3 {
				if s.rng.Float64() < 0.4 {
					n.Pitch = clampInt(n.Pitch+pick(s, -2, -1, 1, 2), 0, 127)
				}
				if s.rng.Float64() < 0.3 {
					n.StartTime = clamp(n.StartTime+s.rng.Float64()*0.25-0.125, 0, length)
				}
				out = append(out, n)
			}
			if s.rng.Float64() < 0.2 {
				extra := n
				extra.Pitch = clampInt(n.Pitch+pick(s, -12, -7, -5, 0, 5, 7, 12), 0, 127)
				extra.StartTime = clamp(n.StartTime+s.rng.Float64()*0.5-0.25, 0, length)
				extra.Mute = false
				out = append(out, extra)
			}
		}
		c.Notes = out
	case level > 0.5:
		for i, n := range c.Notes {
			if s.rng.Float64() < 0.2 {
				n.Pitch = clampInt(n.Pitch+pick(s, -1, 1), 0, 127)
				n.StartTime = clamp(n.StartTime+s.rng.Float64()*0.1-0.05, 0, length)
				c.Notes[i] = n
			}
		}
	case level > 0.2:
		for i, n := range c.Notes {
			if s.rng.Float64() < 0.1 {
				n.Velocity = clampInt(n.Velocity+int(s.rng.Float64()*20-10), 1, 127)
				c.Notes[i] = n
			}
		}
	}
}

func pick(s *Song, choices ...int) int {
	return choices[s.rng.Intn(len(choices))]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// CreateTransition builds a transition into the target bar: a drum fill
// before it, a riser automation ramp, or a hard cut of overlapping
// clips.
func (s *Song) CreateTransition(fromBar, toBar int, transitionType string, lengthBeats int) (TransitionResult, error) {
	if len(s.Tracks) == 0 {
		return TransitionResult{}, fmt.Errorf("no tracks available for creating transition")
	}
	if lengthBeats <= 0 {
		lengthBeats = 4
	}

	toTime := float64(toBar) * beatsPerBar

	// Transitions favor the drum track when one exists.
	drumTrack := s.Tracks[0]
	for _, t := range s.Tracks {
		if strings.Contains(strings.ToLower(t.Name), "drum") {
			drumTrack = t
			break
		}
	}

	switch strings.ToLower(transitionType) {
	case "fill":
		fillLen := float64(lengthBeats) * 0.25
		fillStart := toTime - fillLen

		var template *Clip
		for _, slot := range drumTrack.ClipSlots {
			if slot.HasClip() {
				template = slot.Clip
				break
			}
		}
		if template != nil {
			fill := &ArrangementClip{
				Name:      "Fill",
				StartTime: fillStart,
				EndTime:   toTime,
				IsAudio:   !drumTrack.HasMIDIInput,
			}
			for i, n := range template.Notes {
				fill.Notes = append(fill.Notes, Note{
					Pitch:     n.Pitch,
					StartTime: float64(i%4) * 0.125,
					Duration:  0.125,
					Velocity:  accentVelocity(i),
				})
			}
			// Snare buildup over the last quarter.
			for i := 0; i < 4; i++ {
				fill.Notes = append(fill.Notes, Note{
					Pitch:     38,
					StartTime: fillLen - 0.25 + float64(i)*0.0625,
					Duration:  0.0625,
					Velocity:  100 + i*10,
				})
			}
			drumTrack.ArrangementClips = append(drumTrack.ArrangementClips, fill)
		}

	case "riser", "uplifter", "downlifter":
		effectTrack := drumTrack
		for _, t := range s.Tracks {
			lower := strings.ToLower(t.Name)
			if strings.Contains(lower, "fx") || strings.Contains(lower, "effect") {
				effectTrack = t
				break
			}
		}
		// Ramp the first sweepable parameter found on the track.
		for _, d := range effectTrack.Devices {
			if p := findSweepParameter(d); p != nil {
				if strings.EqualFold(transitionType, "downlifter") {
					p.Value = p.Min
				} else {
					p.Value = p.Max
				}
				break
			}
		}

	case "cut":
		cutTime := toTime - 0.01
		for _, t := range s.Tracks {
			for _, c := range t.ArrangementClips {
				if c.StartTime < toTime && c.EndTime > cutTime {
					c.EndTime = cutTime
				}
			}
		}

	default:
		return TransitionResult{}, fmt.Errorf("unknown transition type %q", transitionType)
	}

	return TransitionResult{
		TransitionType: transitionType,
		FromBar:        fromBar,
		ToBar:          toBar,
		LengthBeats:    lengthBeats,
	}, nil
}

func accentVelocity(i int) int {
	if i%4 == 0 {
		return 100
	}
	return 80
}

func findSweepParameter(d *Device) *Parameter {
	for _, p := range d.Parameters {
		lower := strings.ToLower(p.Name)
		if strings.Contains(lower, "cutoff") || strings.Contains(lower, "freq") {
			return p
		}
	}
	return nil
}

// ConvertSessionToArrangement clears the timeline and rebuilds it from
// the given section structure, inserting transitions between sections.
func (s *Song) ConvertSessionToArrangement(structure []Section) (ArrangementBuildResult, error) {
	for _, t := range s.Tracks {
		t.ArrangementClips = nil
	}

	currentBar := 0
	for i, section := range structure {
		sectionType := section.Type
		if sectionType == "" {
			sectionType = "generic"
		}
		lengthBars := section.LengthBars
		if lengthBars <= 0 {
			lengthBars = 4
		}

		if _, err := s.CreateArrangementSection(sectionType, lengthBars, currentBar); err != nil {
			return ArrangementBuildResult{}, err
		}

		if currentBar > 0 {
			transitionType := "fill"
			prev := structure[i-1].Type
			switch {
			case prev == "verse" && sectionType == "chorus":
				transitionType = "riser"
			case prev == "chorus" && sectionType == "verse":
				transitionType = "downlifter"
			case prev == "chorus" && sectionType == "bridge":
				transitionType = "cut"
			}
			if _, err := s.CreateTransition(currentBar-1, currentBar, transitionType, 4); err != nil {
				return ArrangementBuildResult{}, err
			}
		}

		currentBar += lengthBars
	}

	return ArrangementBuildResult{
		TotalLengthBars: currentBar,
		SectionCount:    len(structure),
	}, nil
}

// SetArrangementLoop sets the loop region and enabled flag.
func (s *Song) SetArrangementLoop(startTime, endTime float64, enabled bool) (LoopResult, error) {
	if endTime < startTime {
		return LoopResult{}, fmt.Errorf("loop end %v before start %v", endTime, startTime)
	}
	s.LoopStart = startTime
	s.LoopLength = endTime - startTime
	s.LoopEnabled = enabled
	return LoopResult{
		LoopStart:   s.LoopStart,
		LoopEnd:     s.LoopStart + s.LoopLength,
		LoopEnabled: s.LoopEnabled,
	}, nil
}

// SetTimeSignature sets the meter at a bar. Bar 1 changes the song's
// signature; later bars upsert a change marker at (bar-1)*4 beats.
func (s *Song) SetTimeSignature(numerator, denominator, barPosition int) (TimeSignatureResult, error) {
	if numerator <= 0 || denominator <= 0 {
		return TimeSignatureResult{}, fmt.Errorf("invalid time signature %d/%d", numerator, denominator)
	}
	if barPosition < 1 {
		return TimeSignatureResult{}, fmt.Errorf("invalid bar position %d", barPosition)
	}

	time := float64(barPosition-1) * 4.0
	if barPosition == 1 {
		s.SignatureNumerator = numerator
		s.SignatureDenominator = denominator
	} else {
		var existing *TimeSignatureChange
		for _, ts := range s.TimeSignatureChanges {
			if ts.Time == time {
				existing = ts
				break
			}
		}
		if existing != nil {
			existing.Numerator = numerator
			existing.Denominator = denominator
		} else {
			s.TimeSignatureChanges = append(s.TimeSignatureChanges, &TimeSignatureChange{
				Numerator:   numerator,
				Denominator: denominator,
				Time:        time,
			})
		}
	}

	return TimeSignatureResult{
		Numerator:   numerator,
		Denominator: denominator,
		BarPosition: barPosition,
		Time:        time,
	}, nil
}

// TimeSignatures lists the song signature followed by every change
// marker on the timeline.
func (s *Song) TimeSignatures() TimeSignaturesResult {
	out := TimeSignaturesResult{TimeSignatures: []TimeSignatureInfo{{
		Numerator:   s.SignatureNumerator,
		Denominator: s.SignatureDenominator,
		Time:        0.0,
		Bar:         1,
	}}}
	for _, ts := range s.TimeSignatureChanges {
		out.TimeSignatures = append(out.TimeSignatures, TimeSignatureInfo{
			Numerator:   ts.Numerator,
			Denominator: ts.Denominator,
			Time:        ts.Time,
			Bar:         1 + int(ts.Time/4.0),
		})
	}
	return out
}

// SetPlayheadPosition moves the arrangement playhead.
func (s *Song) SetPlayheadPosition(time float64) (PlayheadResult, error) {
	if time < 0 {
		return PlayheadResult{}, fmt.Errorf("invalid playhead position %v", time)
	}
	s.SongTime = time
	return PlayheadResult{CurrentSongTime: s.SongTime}, nil
}

// CreateArrangementMarker adds a cue point, reusing a marker within two
// beats of the requested time the way the host does.
func (s *Song) CreateArrangementMarker(name string, time float64) (MarkerResult, error) {
	if time < 0 {
		return MarkerResult{}, fmt.Errorf("invalid marker time %v", time)
	}

	var closest *CuePoint
	closestDist := 2.0
	for _, cp := range s.CuePoints {
		dist := cp.Time - time
		if dist < 0 {
			dist = -dist
		}
		if dist < closestDist {
			closest = cp
			closestDist = dist
		}
	}

	if closest != nil {
		closest.Name = name
		closest.Time = time
		return MarkerResult{Name: closest.Name, Time: closest.Time, Created: true}, nil
	}

	cp := &CuePoint{Name: name, Time: time}
	s.CuePoints = append(s.CuePoints, cp)
	return MarkerResult{Name: cp.Name, Time: cp.Time, Created: true}, nil
}

// ArrangementMarkers lists all cue points.
func (s *Song) ArrangementMarkers() MarkersResult {
	out := MarkersResult{Markers: []MarkerInfo{}}
	for _, cp := range s.CuePoints {
		out.Markers = append(out.Markers, MarkerInfo{Name: cp.Name, Time: cp.Time})
	}
	return out
}

// ArrangementInfo reports the playhead, loop region and cue points.
func (s *Song) ArrangementInfo() ArrangementInfo {
	info := ArrangementInfo{
		CurrentSongTime: s.SongTime,
		TrackCount:      len(s.Tracks),
		LoopStart:       s.LoopStart,
		LoopLength:      s.LoopLength,
		LoopEnd:         s.LoopStart + s.LoopLength,
		LoopEnabled:     s.LoopEnabled,
		CuePoints:       []MarkerInfo{},
	}
	for _, cp := range s.CuePoints {
		info.CuePoints = append(info.CuePoints, MarkerInfo{Name: cp.Name, Time: cp.Time})
	}
	return info
}

// TrackArrangementClips lists one track's clips on the timeline.
func (s *Song) TrackArrangementClips(trackIndex int) (TrackArrangementClips, error) {
	t, err := s.track(trackIndex)
	if err != nil {
		return TrackArrangementClips{}, err
	}

	clips := make([]ArrangementClipInfo, 0, len(t.ArrangementClips))
	for _, c := range t.ArrangementClips {
		info := ArrangementClipInfo{
			Name:        c.Name,
			StartTime:   c.StartTime,
			EndTime:     c.EndTime,
			Length:      c.Length(),
			IsAudioClip: c.IsAudio,
		}
		if !c.IsAudio {
			info.NoteCount = len(c.Notes)
		}
		clips = append(clips, info)
	}

	return TrackArrangementClips{
		TrackIndex: trackIndex,
		TrackName:  t.Name,
		ClipCount:  len(clips),
		Clips:      clips,
	}, nil
}
