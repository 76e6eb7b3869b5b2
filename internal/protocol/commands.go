package protocol

// Command type names understood by the control surface.
const (
	CmdGetSessionInfo           = "get_session_info"
	CmdGetTrackInfo             = "get_track_info"
	CmdGetBrowserTree           = "get_browser_tree"
	CmdGetBrowserItemsAtPath    = "get_browser_items_at_path"
	CmdGetArrangementInfo       = "get_arrangement_info"
	CmdGetArrangementMarkers    = "get_arrangement_markers"
	CmdGetTrackArrangementClips = "get_track_arrangement_clips"
	CmdGetTimeSignatures        = "get_time_signatures"
	CmdGetCapabilities          = "get_capabilities"

	CmdCreateMIDITrack             = "create_midi_track"
	CmdCreateAudioTrack            = "create_audio_track"
	CmdSetTrackName                = "set_track_name"
	CmdCreateClip                  = "create_clip"
	CmdAddNotesToClip              = "add_notes_to_clip"
	CmdSetClipName                 = "set_clip_name"
	CmdSetTempo                    = "set_tempo"
	CmdSetDeviceParameter          = "set_device_parameter"
	CmdFireClip                    = "fire_clip"
	CmdStopClip                    = "stop_clip"
	CmdStartPlayback               = "start_playback"
	CmdStopPlayback                = "stop_playback"
	CmdLoadBrowserItem             = "load_browser_item"
	CmdCreateArrangementSection    = "create_arrangement_section"
	CmdDuplicateSection            = "duplicate_section"
	CmdCreateTransition            = "create_transition"
	CmdConvertSessionToArrangement = "convert_session_to_arrangement"
	CmdSetClipFollowActionTime     = "set_clip_follow_action_time"
	CmdSetClipFollowAction         = "set_clip_follow_action"
	CmdSetClipFollowActionLinked   = "set_clip_follow_action_linked"
	CmdSetArrangementLoop          = "set_arrangement_loop"
	CmdSetTimeSignature            = "set_time_signature"
	CmdSetPlayheadPosition         = "set_playhead_position"
	CmdCreateArrangementMarker     = "create_arrangement_marker"
)

// modifying lists every command that mutates song state. Mutating
// commands run on the surface writer loop and get the longer bridge
// timeout.
var modifying = map[string]struct{}{
	CmdCreateMIDITrack:             {},
	CmdCreateAudioTrack:            {},
	CmdSetTrackName:                {},
	CmdCreateClip:                  {},
	CmdAddNotesToClip:              {},
	CmdSetClipName:                 {},
	CmdSetTempo:                    {},
	CmdSetDeviceParameter:          {},
	CmdFireClip:                    {},
	CmdStopClip:                    {},
	CmdStartPlayback:               {},
	CmdStopPlayback:                {},
	CmdLoadBrowserItem:             {},
	CmdCreateArrangementSection:    {},
	CmdDuplicateSection:            {},
	CmdCreateTransition:            {},
	CmdConvertSessionToArrangement: {},
	CmdSetClipFollowActionTime:     {},
	CmdSetClipFollowAction:         {},
	CmdSetClipFollowActionLinked:   {},
	CmdSetArrangementLoop:          {},
	CmdSetTimeSignature:            {},
	CmdSetPlayheadPosition:         {},
	CmdCreateArrangementMarker:     {},
}

// IsModifying reports whether a command type mutates song state.
func IsModifying(commandType string) bool {
	_, ok := modifying[commandType]
	return ok
}

// ReadOnlyCommands returns the read-only command names in catalogue order.
func ReadOnlyCommands() []string {
	return []string{
		CmdGetSessionInfo,
		CmdGetTrackInfo,
		CmdGetBrowserTree,
		CmdGetBrowserItemsAtPath,
		CmdGetArrangementInfo,
		CmdGetArrangementMarkers,
		CmdGetTrackArrangementClips,
		CmdGetTimeSignatures,
		CmdGetCapabilities,
	}
}

// ModifyingCommands returns the mutating command names in catalogue order.
func ModifyingCommands() []string {
	return []string{
		CmdCreateMIDITrack,
		CmdCreateAudioTrack,
		CmdSetTrackName,
		CmdCreateClip,
		CmdAddNotesToClip,
		CmdSetClipName,
		CmdSetTempo,
		CmdSetDeviceParameter,
		CmdFireClip,
		CmdStopClip,
		CmdStartPlayback,
		CmdStopPlayback,
		CmdLoadBrowserItem,
		CmdCreateArrangementSection,
		CmdDuplicateSection,
		CmdCreateTransition,
		CmdConvertSessionToArrangement,
		CmdSetClipFollowActionTime,
		CmdSetClipFollowAction,
		CmdSetClipFollowActionLinked,
		CmdSetArrangementLoop,
		CmdSetTimeSignature,
		CmdSetPlayheadPosition,
		CmdCreateArrangementMarker,
	}
}

// AllCommands returns every supported command name, read-only first.
func AllCommands() []string {
	return append(ReadOnlyCommands(), ModifyingCommands()...)
}
