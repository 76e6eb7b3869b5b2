package song

import (
	"fmt"
	"strings"
)

// SessionInfo summarizes the session for get_session_info.
func (s *Song) SessionInfo() SessionInfo {
	return SessionInfo{
		Tempo:                s.Tempo,
		SignatureNumerator:   s.SignatureNumerator,
		SignatureDenominator: s.SignatureDenominator,
		TrackCount:           len(s.Tracks),
		ReturnTrackCount:     len(s.ReturnTracks),
		MasterTrack: MasterInfo{
			Name:    "Master",
			Volume:  s.MasterVolume,
			Panning: s.MasterPanning,
		},
	}
}

// TrackInfo describes one track including its clip slots and devices.
func (s *Song) TrackInfo(trackIndex int) (TrackInfo, error) {
	t, err := s.track(trackIndex)
	if err != nil {
		return TrackInfo{}, err
	}

	slots := make([]ClipSlotInfo, len(t.ClipSlots))
	for i, slot := range t.ClipSlots {
		info := ClipSlotInfo{Index: i, HasClip: slot.HasClip()}
		if slot.HasClip() {
			c := slot.Clip
			info.Clip = &ClipInfo{
				Name:        c.Name,
				Length:      c.Length,
				IsPlaying:   c.IsPlaying,
				IsRecording: c.IsRecording,
			}
		}
		slots[i] = info
	}

	devices := make([]DeviceInfo, len(t.Devices))
	for i, d := range t.Devices {
		devices[i] = DeviceInfo{
			Index:     i,
			Name:      d.Name,
			ClassName: d.ClassName,
			Type:      d.Type,
		}
	}

	return TrackInfo{
		Index:        trackIndex,
		Name:         t.Name,
		IsAudioTrack: t.HasAudioInput,
		IsMIDITrack:  t.HasMIDIInput,
		Mute:         t.Mute,
		Solo:         t.Solo,
		Arm:          t.Arm,
		Volume:       t.Volume,
		Panning:      t.Panning,
		ClipSlots:    slots,
		Devices:      devices,
	}, nil
}

// CreateClip creates an empty MIDI clip in a free slot.
func (s *Song) CreateClip(trackIndex, clipIndex int, length float64) (ClipCreated, error) {
	t, slot, err := s.clipSlot(trackIndex, clipIndex)
	if err != nil {
		return ClipCreated{}, err
	}
	if slot.HasClip() {
		return ClipCreated{}, ErrSlotOccupied
	}
	if !t.HasMIDIInput {
		return ClipCreated{}, fmt.Errorf("cannot create MIDI clip on audio track %q", t.Name)
	}
	if length <= 0 {
		return ClipCreated{}, fmt.Errorf("invalid clip length %v", length)
	}

	slot.Clip = &Clip{
		Length:                   length,
		FollowActionAProbability: 1.0,
		FollowActionLinked:       true,
	}
	return ClipCreated{Name: slot.Clip.Name, Length: slot.Clip.Length}, nil
}

// AddNotesToClip writes the clip's notes. Like the host API this is a
// set operation: the given notes replace the clip's previous contents.
func (s *Song) AddNotesToClip(trackIndex, clipIndex int, notes []Note) (NoteCountResult, error) {
	_, c, err := s.clip(trackIndex, clipIndex)
	if err != nil {
		return NoteCountResult{}, err
	}
	for _, n := range notes {
		if n.Pitch < 0 || n.Pitch > 127 {
			return NoteCountResult{}, fmt.Errorf("note pitch %d out of range", n.Pitch)
		}
		if n.Velocity < 0 || n.Velocity > 127 {
			return NoteCountResult{}, fmt.Errorf("note velocity %d out of range", n.Velocity)
		}
	}
	c.Notes = append([]Note(nil), notes...)
	return NoteCountResult{NoteCount: len(notes)}, nil
}

// SetClipName renames a clip.
func (s *Song) SetClipName(trackIndex, clipIndex int, name string) (NameResult, error) {
	_, c, err := s.clip(trackIndex, clipIndex)
	if err != nil {
		return NameResult{}, err
	}
	c.Name = name
	return NameResult{Name: c.Name}, nil
}

// FireClip launches a clip. Only one clip per track plays at a time.
func (s *Song) FireClip(trackIndex, clipIndex int) (FiredResult, error) {
	t, c, err := s.clip(trackIndex, clipIndex)
	if err != nil {
		return FiredResult{}, err
	}
	for _, slot := range t.ClipSlots {
		if slot.HasClip() {
			slot.Clip.IsPlaying = false
		}
	}
	c.IsPlaying = true
	s.Playing = true
	return FiredResult{Fired: true}, nil
}

// StopClip stops whatever is playing in the slot. Stopping an empty
// slot is allowed; it acts as a track stop button.
func (s *Song) StopClip(trackIndex, clipIndex int) (StoppedResult, error) {
	_, slot, err := s.clipSlot(trackIndex, clipIndex)
	if err != nil {
		return StoppedResult{}, err
	}
	if slot.HasClip() {
		slot.Clip.IsPlaying = false
	}
	return StoppedResult{Stopped: true}, nil
}

// SetDeviceParameter sets a device parameter by name, clamped to the
// parameter's range.
func (s *Song) SetDeviceParameter(trackIndex, deviceIndex int, parameterName string, value float64) (DeviceParameterResult, error) {
	t, err := s.track(trackIndex)
	if err != nil {
		return DeviceParameterResult{}, err
	}
	if deviceIndex < 0 || deviceIndex >= len(t.Devices) {
		return DeviceParameterResult{}, ErrDeviceIndex
	}
	d := t.Devices[deviceIndex]

	for _, p := range d.Parameters {
		if strings.EqualFold(p.Name, parameterName) {
			p.Value = clamp(value, p.Min, p.Max)
			return DeviceParameterResult{
				TrackIndex:    trackIndex,
				DeviceIndex:   deviceIndex,
				ParameterName: p.Name,
				Value:         p.Value,
			}, nil
		}
	}
	return DeviceParameterResult{}, fmt.Errorf("parameter %q not found on device %q", parameterName, d.Name)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
