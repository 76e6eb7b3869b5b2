// Package song holds the in-process object graph the control surface
// executes commands against: tempo and transport, tracks with clip slots
// and devices, the arrangement timeline, and cue points. The graph is
// not internally synchronized; the surface serializes all mutations
// through its writer loop and guards reads with its own lock.
package song

import (
	"fmt"
	"math/rand"
)

const (
	DefaultTempo      = 120.0
	DefaultSceneCount = 8

	beatsPerBar = 4.0
)

// Note is one MIDI note within a clip. Times are in beats.
type Note struct {
	Pitch     int     `json:"pitch"`
	StartTime float64 `json:"start_time"`
	Duration  float64 `json:"duration"`
	Velocity  int     `json:"velocity"`
	Mute      bool    `json:"mute"`
}

// Clip is a session-view clip living in a clip slot.
type Clip struct {
	Name        string  `json:"name"`
	Length      float64 `json:"length"`
	IsPlaying   bool    `json:"is_playing"`
	IsRecording bool    `json:"is_recording"`
	Notes       []Note  `json:"notes,omitempty"`

	FollowActionA            int     `json:"follow_action_a"`
	FollowActionAProbability float64 `json:"follow_action_a_probability"`
	FollowActionB            int     `json:"follow_action_b"`
	FollowActionBProbability float64 `json:"follow_action_b_probability"`
	FollowActionTime         float64 `json:"follow_action_time"`
	FollowActionEnabled      bool    `json:"follow_action_enabled"`
	FollowActionLinked       bool    `json:"follow_action_linked"`
}

// ClipSlot holds at most one clip.
type ClipSlot struct {
	Clip *Clip `json:"clip,omitempty"`
}

// HasClip reports whether the slot is occupied.
func (s *ClipSlot) HasClip() bool { return s != nil && s.Clip != nil }

// Parameter is an automatable device parameter.
type Parameter struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Device is an instrument or effect sitting in a track's device chain.
type Device struct {
	Name       string       `json:"name"`
	ClassName  string       `json:"class_name"`
	Type       string       `json:"type"`
	Parameters []*Parameter `json:"parameters,omitempty"`
}

// ArrangementClip is a clip placed on the arrangement timeline.
type ArrangementClip struct {
	Name      string  `json:"name"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	IsAudio   bool    `json:"is_audio"`
	Notes     []Note  `json:"notes,omitempty"`
}

// Length returns the clip's span on the timeline in beats.
func (c *ArrangementClip) Length() float64 { return c.EndTime - c.StartTime }

// Track is a MIDI or audio track with session slots, a device chain and
// arrangement clips.
type Track struct {
	Name          string `json:"name"`
	HasMIDIInput  bool   `json:"has_midi_input"`
	HasAudioInput bool   `json:"has_audio_input"`

	Mute    bool    `json:"mute"`
	Solo    bool    `json:"solo"`
	Arm     bool    `json:"arm"`
	Volume  float64 `json:"volume"`
	Panning float64 `json:"panning"`

	ClipSlots        []*ClipSlot        `json:"clip_slots"`
	Devices          []*Device          `json:"devices,omitempty"`
	ArrangementClips []*ArrangementClip `json:"arrangement_clips,omitempty"`
}

// CuePoint is a named marker on the arrangement timeline.
type CuePoint struct {
	Name string  `json:"name"`
	Time float64 `json:"time"`
}

// TimeSignatureChange is a meter change on the arrangement timeline.
// The song-level signature covers everything before the first change.
type TimeSignatureChange struct {
	Numerator   int     `json:"numerator"`
	Denominator int     `json:"denominator"`
	Time        float64 `json:"time"`
}

// Song is the whole session: transport, tracks, arrangement and markers.
type Song struct {
	Tempo                float64 `json:"tempo"`
	SignatureNumerator   int     `json:"signature_numerator"`
	SignatureDenominator int     `json:"signature_denominator"`

	Tracks       []*Track `json:"tracks"`
	ReturnTracks []*Track `json:"return_tracks"`

	MasterVolume  float64 `json:"master_volume"`
	MasterPanning float64 `json:"master_panning"`

	Playing    bool    `json:"playing"`
	RecordMode bool    `json:"record_mode"`
	SongTime   float64 `json:"song_time"`

	LoopStart   float64 `json:"loop_start"`
	LoopLength  float64 `json:"loop_length"`
	LoopEnabled bool    `json:"loop_enabled"`

	CuePoints []*CuePoint `json:"cue_points,omitempty"`

	TimeSignatureChanges []*TimeSignatureChange `json:"time_signature_changes,omitempty"`

	SceneCount int `json:"scene_count"`

	rng *rand.Rand
}

// New creates a session with host-like defaults: 120 BPM, 4/4, two MIDI
// and two audio tracks, eight scenes, and two return tracks.
func New() *Song {
	s := &Song{
		Tempo:                DefaultTempo,
		SignatureNumerator:   4,
		SignatureDenominator: 4,
		MasterVolume:         0.85,
		MasterPanning:        0.0,
		SceneCount:           DefaultSceneCount,
	}
	s.init()

	s.Tracks = []*Track{
		s.newTrack("1 MIDI", true),
		s.newTrack("2 MIDI", true),
		s.newTrack("3 Audio", false),
		s.newTrack("4 Audio", false),
	}
	s.ReturnTracks = []*Track{
		s.newTrack("A Reverb", false),
		s.newTrack("B Delay", false),
	}
	return s
}

// init sets up unexported runtime state. It must be called again after a
// Song is rebuilt from a snapshot.
func (s *Song) init() {
	s.rng = rand.New(rand.NewSource(rand.Int63()))
	if s.SceneCount <= 0 {
		s.SceneCount = DefaultSceneCount
	}
}

// Restore reinitializes runtime state on a snapshot-decoded song and
// backfills any slots that were omitted from the serialized form.
func (s *Song) Restore() {
	s.init()
	for _, t := range append(append([]*Track{}, s.Tracks...), s.ReturnTracks...) {
		for len(t.ClipSlots) < s.SceneCount {
			t.ClipSlots = append(t.ClipSlots, &ClipSlot{})
		}
	}
}

func (s *Song) newTrack(name string, midi bool) *Track {
	t := &Track{
		Name:          name,
		HasMIDIInput:  midi,
		HasAudioInput: !midi,
		Volume:        0.85,
		Panning:       0.0,
	}
	for i := 0; i < s.SceneCount; i++ {
		t.ClipSlots = append(t.ClipSlots, &ClipSlot{})
	}
	return t
}

func (s *Song) track(index int) (*Track, error) {
	if index < 0 || index >= len(s.Tracks) {
		return nil, ErrTrackIndex
	}
	return s.Tracks[index], nil
}

func (s *Song) clipSlot(trackIndex, clipIndex int) (*Track, *ClipSlot, error) {
	t, err := s.track(trackIndex)
	if err != nil {
		return nil, nil, err
	}
	if clipIndex < 0 || clipIndex >= len(t.ClipSlots) {
		return nil, nil, ErrClipIndex
	}
	return t, t.ClipSlots[clipIndex], nil
}

func (s *Song) clip(trackIndex, clipIndex int) (*Track, *Clip, error) {
	t, slot, err := s.clipSlot(trackIndex, clipIndex)
	if err != nil {
		return nil, nil, err
	}
	if !slot.HasClip() {
		return nil, nil, ErrNoClip
	}
	return t, slot.Clip, nil
}

// insertTrack places t at index, or appends when index is -1, and
// returns the index it ended up at.
func (s *Song) insertTrack(t *Track, index int) (int, error) {
	if index == -1 || index == len(s.Tracks) {
		s.Tracks = append(s.Tracks, t)
		return len(s.Tracks) - 1, nil
	}
	if index < 0 || index > len(s.Tracks) {
		return 0, ErrTrackIndex
	}
	s.Tracks = append(s.Tracks, nil)
	copy(s.Tracks[index+1:], s.Tracks[index:])
	s.Tracks[index] = t
	return index, nil
}

// CreateMIDITrack inserts a new MIDI track. index -1 appends.
func (s *Song) CreateMIDITrack(index int) (TrackHandle, error) {
	name := fmt.Sprintf("%d MIDI", len(s.Tracks)+1)
	at, err := s.insertTrack(s.newTrack(name, true), index)
	if err != nil {
		return TrackHandle{}, err
	}
	return TrackHandle{Index: at, Name: s.Tracks[at].Name}, nil
}

// CreateAudioTrack inserts a new audio track. index -1 appends.
func (s *Song) CreateAudioTrack(index int) (TrackHandle, error) {
	name := fmt.Sprintf("%d Audio", len(s.Tracks)+1)
	at, err := s.insertTrack(s.newTrack(name, false), index)
	if err != nil {
		return TrackHandle{}, err
	}
	return TrackHandle{Index: at, Name: s.Tracks[at].Name}, nil
}

// SetTrackName renames a track and returns the applied name.
func (s *Song) SetTrackName(trackIndex int, name string) (NameResult, error) {
	t, err := s.track(trackIndex)
	if err != nil {
		return NameResult{}, err
	}
	t.Name = name
	return NameResult{Name: t.Name}, nil
}

// SetTempo sets the session tempo and returns the applied value.
func (s *Song) SetTempo(tempo float64) (TempoResult, error) {
	if tempo <= 0 {
		return TempoResult{}, fmt.Errorf("invalid tempo %v", tempo)
	}
	s.Tempo = tempo
	return TempoResult{Tempo: s.Tempo}, nil
}

// StartPlayback starts the transport.
func (s *Song) StartPlayback() PlayingResult {
	s.Playing = true
	return PlayingResult{Playing: s.Playing}
}

// StopPlayback stops the transport and any playing session clips.
func (s *Song) StopPlayback() PlayingResult {
	s.Playing = false
	for _, t := range s.Tracks {
		for _, slot := range t.ClipSlots {
			if slot.HasClip() {
				slot.Clip.IsPlaying = false
			}
		}
	}
	return PlayingResult{Playing: s.Playing}
}
