package song

// Result payloads returned inside success envelopes. Field names follow
// the wire format the original control surface established, so clients
// written against it keep working.

type SessionInfo struct {
	Tempo                float64     `json:"tempo"`
	SignatureNumerator   int         `json:"signature_numerator"`
	SignatureDenominator int         `json:"signature_denominator"`
	TrackCount           int         `json:"track_count"`
	ReturnTrackCount     int         `json:"return_track_count"`
	MasterTrack          MasterInfo  `json:"master_track"`
}

type MasterInfo struct {
	Name    string  `json:"name"`
	Volume  float64 `json:"volume"`
	Panning float64 `json:"panning"`
}

type ClipInfo struct {
	Name        string  `json:"name"`
	Length      float64 `json:"length"`
	IsPlaying   bool    `json:"is_playing"`
	IsRecording bool    `json:"is_recording"`
}

type ClipSlotInfo struct {
	Index   int       `json:"index"`
	HasClip bool      `json:"has_clip"`
	Clip    *ClipInfo `json:"clip"`
}

type DeviceInfo struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	ClassName string `json:"class_name"`
	Type      string `json:"type"`
}

type TrackInfo struct {
	Index        int            `json:"index"`
	Name         string         `json:"name"`
	IsAudioTrack bool           `json:"is_audio_track"`
	IsMIDITrack  bool           `json:"is_midi_track"`
	Mute         bool           `json:"mute"`
	Solo         bool           `json:"solo"`
	Arm          bool           `json:"arm"`
	Volume       float64        `json:"volume"`
	Panning      float64        `json:"panning"`
	ClipSlots    []ClipSlotInfo `json:"clip_slots"`
	Devices      []DeviceInfo   `json:"devices"`
}

type TrackHandle struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

type NameResult struct {
	Name string `json:"name"`
}

type TempoResult struct {
	Tempo float64 `json:"tempo"`
}

type PlayingResult struct {
	Playing bool `json:"playing"`
}

type ClipCreated struct {
	Name   string  `json:"name"`
	Length float64 `json:"length"`
}

type NoteCountResult struct {
	NoteCount int `json:"note_count"`
}

type FiredResult struct {
	Fired bool `json:"fired"`
}

type StoppedResult struct {
	Stopped bool `json:"stopped"`
}

type DeviceParameterResult struct {
	TrackIndex    int     `json:"track_index"`
	DeviceIndex   int     `json:"device_index"`
	ParameterName string  `json:"parameter_name"`
	Value         float64 `json:"value"`
}

type SectionResult struct {
	SectionType   string `json:"section_type"`
	StartPosition int    `json:"start_position"`
	LengthBars    int    `json:"length_bars"`
}

type DuplicateResult struct {
	SourceStartBar int     `json:"source_start_bar"`
	SourceEndBar   int     `json:"source_end_bar"`
	DestinationBar int     `json:"destination_bar"`
	VariationLevel float64 `json:"variation_level"`
}

type TransitionResult struct {
	TransitionType string `json:"transition_type"`
	FromBar        int    `json:"from_bar"`
	ToBar          int    `json:"to_bar"`
	LengthBeats    int    `json:"length_beats"`
}

type ArrangementBuildResult struct {
	TotalLengthBars int `json:"total_length_bars"`
	SectionCount    int `json:"section_count"`
}

type FollowActionTimeResult struct {
	TrackIndex       int     `json:"track_index"`
	ClipIndex        int     `json:"clip_index"`
	FollowActionTime float64 `json:"follow_action_time"`
}

type FollowActionResult struct {
	TrackIndex          int     `json:"track_index"`
	ClipIndex           int     `json:"clip_index"`
	ActionType          string  `json:"action_type"`
	Probability         float64 `json:"probability"`
	FollowActionEnabled bool    `json:"follow_action_enabled"`
}

type FollowActionLinkedResult struct {
	TrackIndex int  `json:"track_index"`
	ClipIndex  int  `json:"clip_index"`
	Linked     bool `json:"linked"`
}

type LoopResult struct {
	LoopStart   float64 `json:"loop_start"`
	LoopEnd     float64 `json:"loop_end"`
	LoopEnabled bool    `json:"loop_enabled"`
}

type PlayheadResult struct {
	CurrentSongTime float64 `json:"current_song_time"`
}

type MarkerResult struct {
	Name    string  `json:"name"`
	Time    float64 `json:"time"`
	Created bool    `json:"created"`
}

type TimeSignatureResult struct {
	Numerator   int     `json:"numerator"`
	Denominator int     `json:"denominator"`
	BarPosition int     `json:"bar_position"`
	Time        float64 `json:"time"`
}

type TimeSignatureInfo struct {
	Numerator   int     `json:"numerator"`
	Denominator int     `json:"denominator"`
	Time        float64 `json:"time"`
	Bar         int     `json:"bar"`
}

type TimeSignaturesResult struct {
	TimeSignatures []TimeSignatureInfo `json:"time_signatures"`
}

type MarkerInfo struct {
	Name string  `json:"name"`
	Time float64 `json:"time"`
}

type MarkersResult struct {
	Markers []MarkerInfo `json:"markers"`
}

type ArrangementInfo struct {
	CurrentSongTime float64      `json:"current_song_time"`
	TrackCount      int          `json:"track_count"`
	LoopStart       float64      `json:"loop_start"`
	LoopLength      float64      `json:"loop_length"`
	LoopEnd         float64      `json:"loop_end"`
	LoopEnabled     bool         `json:"loop_enabled"`
	CuePoints       []MarkerInfo `json:"cue_points"`
}

type ArrangementClipInfo struct {
	Name        string  `json:"name"`
	StartTime   float64 `json:"start_time"`
	EndTime     float64 `json:"end_time"`
	Length      float64 `json:"length"`
	IsAudioClip bool    `json:"is_audio_clip"`
	NoteCount   int     `json:"note_count,omitempty"`
}

type TrackArrangementClips struct {
	TrackIndex int                   `json:"track_index"`
	TrackName  string                `json:"track_name"`
	ClipCount  int                   `json:"clip_count"`
	Clips      []ArrangementClipInfo `json:"clips"`
}

type LoadedItemResult struct {
	Loaded       bool     `json:"loaded"`
	ItemName     string   `json:"item_name"`
	TrackName    string   `json:"track_name"`
	URI          string   `json:"uri"`
	NewDevices   []string `json:"new_devices"`
	DevicesAfter []string `json:"devices_after"`
}
