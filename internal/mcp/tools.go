package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"live2mcp/internal/browser"
	"live2mcp/internal/protocol"
	"live2mcp/internal/song"
)

// Tool handlers mirror the surface command catalogue. Results come back
// as readable text or indented JSON, and failures are reported as text
// so the calling model can react to them.

func textResult(text string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}},
	}
}

func jsonResult(v any) (*mcpsdk.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return textResult(string(data)), nil
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_session_info",
		Description: "Get detailed information about the current session: tempo, time signature, track counts and the master track.",
	}, s.handleGetSessionInfo)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_track_info",
		Description: "Get detailed information about a specific track: clip slots, clips and devices.",
	}, s.handleGetTrackInfo)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_browser_tree",
		Description: "Get a hierarchical tree of browser categories. category_type is one of 'all', 'instruments', 'sounds', 'drums', 'audio_effects', 'midi_effects'.",
	}, s.handleGetBrowserTree)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_browser_items_at_path",
		Description: "List browser items at a path like 'drums/Acoustic'. The first path element is a category name.",
	}, s.handleGetBrowserItemsAtPath)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_arrangement_info",
		Description: "Get the arrangement state: playhead position, loop region and cue point markers.",
	}, s.handleGetArrangementInfo)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_arrangement_markers",
		Description: "List all cue point markers in the arrangement.",
	}, s.handleGetArrangementMarkers)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_track_arrangement_clips",
		Description: "List a track's clips on the arrangement timeline with their positions and lengths.",
	}, s.handleGetTrackArrangementClips)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_time_signatures",
		Description: "List the song time signature and every meter change on the arrangement timeline.",
	}, s.handleGetTimeSignatures)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_capabilities",
		Description: "Report the control surface protocol version and the commands it supports.",
	}, s.handleGetCapabilities)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "create_midi_track",
		Description: "Create a new MIDI track at the given index, or append it when index is -1.",
	}, s.handleCreateMIDITrack)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "create_audio_track",
		Description: "Create a new audio track at the given index, or append it when index is -1.",
	}, s.handleCreateAudioTrack)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_track_name",
		Description: "Rename a track.",
	}, s.handleSetTrackName)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "create_clip",
		Description: "Create a new MIDI clip in the given track and slot. Length is in beats and defaults to 4.",
	}, s.handleCreateClip)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "add_notes_to_clip",
		Description: "Write MIDI notes into a clip, replacing its previous contents. Each note has pitch, start_time, duration, velocity and mute.",
	}, s.handleAddNotesToClip)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_clip_name",
		Description: "Rename a clip.",
	}, s.handleSetClipName)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_tempo",
		Description: "Set the session tempo in BPM.",
	}, s.handleSetTempo)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_device_parameter",
		Description: "Set a device parameter by name. The value is clamped to the parameter's range.",
	}, s.handleSetDeviceParameter)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "fire_clip",
		Description: "Start playing a clip.",
	}, s.handleFireClip)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "stop_clip",
		Description: "Stop playing a clip.",
	}, s.handleStopClip)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "start_playback",
		Description: "Start playing the session.",
	}, s.handleStartPlayback)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "stop_playback",
		Description: "Stop playing the session.",
	}, s.handleStopPlayback)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "load_browser_item",
		Description: "Load an instrument or effect from the browser onto a track by its URI. Use get_browser_items_at_path to find URIs.",
	}, s.handleLoadBrowserItem)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "create_arrangement_section",
		Description: "Create an arrangement section like intro, verse or chorus by laying out session clips on the timeline. start_bar -1 appends at the end.",
	}, s.handleCreateArrangementSection)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "duplicate_section",
		Description: "Duplicate a bar range of the arrangement to another position, optionally applying variations (0.0 exact copy, 1.0 heavy variation).",
	}, s.handleDuplicateSection)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "create_transition",
		Description: "Create a transition between arrangement positions: fill, riser, uplifter, downlifter or cut.",
	}, s.handleCreateTransition)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "convert_session_to_arrangement",
		Description: "Rebuild the arrangement from session clips following a structure of sections, e.g. [{\"type\": \"intro\", \"length_bars\": 8}, ...].",
	}, s.handleConvertSessionToArrangement)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_clip_follow_action_time",
		Description: "Set how many beats a clip plays before its follow action triggers.",
	}, s.handleSetClipFollowActionTime)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_clip_follow_action",
		Description: "Set a clip's follow action: none, next, prev, first, last, any or other, with a trigger probability.",
	}, s.handleSetClipFollowAction)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_clip_follow_action_linked",
		Description: "Link or unlink a clip's follow action timing to the clip length.",
	}, s.handleSetClipFollowActionLinked)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_arrangement_loop",
		Description: "Set the arrangement loop region in beats and enable or disable it.",
	}, s.handleSetArrangementLoop)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_time_signature",
		Description: "Set the time signature at a bar. Bar 1 changes the song signature; later bars add a meter change.",
	}, s.handleSetTimeSignature)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_playhead_position",
		Description: "Move the arrangement playhead to a time in beats.",
	}, s.handleSetPlayheadPosition)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "create_arrangement_marker",
		Description: "Create a named cue point marker at a time in beats. A marker within two beats is moved instead.",
	}, s.handleCreateArrangementMarker)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "load_drum_kit",
		Description: "Load a drum rack and then a specific drum kit into it: loads the rack by URI, browses the kit path and loads the first loadable kit found.",
	}, s.handleLoadDrumKit)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "setup_clip_sequence",
		Description: "Set up follow actions so a range of clips on one track plays in order, looping back to the first clip.",
	}, s.handleSetupClipSequence)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "setup_project_follow_actions",
		Description: "Set up follow actions on every populated track so clips play top to bottom, optionally looping back to the first clip.",
	}, s.handleSetupProjectFollowActions)
}

type TrackIndexInput struct {
	TrackIndex int `json:"track_index" jsonschema:"Index of the track"`
}

type ClipRefInput struct {
	TrackIndex int `json:"track_index" jsonschema:"Index of the track containing the clip"`
	ClipIndex  int `json:"clip_index" jsonschema:"Index of the clip slot"`
}

func (s *Server) handleGetSessionInfo(ctx context.Context, _ *mcpsdk.CallToolRequest, _ struct{}) (*mcpsdk.CallToolResult, any, error) {
	var info song.SessionInfo
	if err := s.session.SendCommand(ctx, protocol.CmdGetSessionInfo, nil, &info); err != nil {
		return textResult(fmt.Sprintf("Error getting session info: %v", err)), nil, nil
	}
	res, err := jsonResult(info)
	return res, nil, err
}

func (s *Server) handleGetTrackInfo(ctx context.Context, _ *mcpsdk.CallToolRequest, args TrackIndexInput) (*mcpsdk.CallToolResult, any, error) {
	var info song.TrackInfo
	if err := s.session.SendCommand(ctx, protocol.CmdGetTrackInfo, args, &info); err != nil {
		return textResult(fmt.Sprintf("Error getting track info: %v", err)), nil, nil
	}
	res, err := jsonResult(info)
	return res, nil, err
}

type BrowserTreeInput struct {
	CategoryType string `json:"category_type,omitempty" jsonschema:"Category to show: all, instruments, sounds, drums, audio_effects or midi_effects. Defaults to all."`
}

func (s *Server) handleGetBrowserTree(ctx context.Context, _ *mcpsdk.CallToolRequest, args BrowserTreeInput) (*mcpsdk.CallToolResult, any, error) {
	if args.CategoryType == "" {
		args.CategoryType = "all"
	}
	var tree browser.Tree
	if err := s.session.SendCommand(ctx, protocol.CmdGetBrowserTree, args, &tree); err != nil {
		return textResult(fmt.Sprintf("Error getting browser tree: %v", err)), nil, nil
	}

	if len(tree.Categories) == 0 {
		return textResult(fmt.Sprintf("No categories found for '%s'. Available browser categories: %s",
			args.CategoryType, strings.Join(tree.AvailableCategories, ", "))), nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Browser tree for '%s' (showing %d folders):\n\n", args.CategoryType, tree.TotalFolders)
	for _, category := range tree.Categories {
		formatTreeNode(&b, category, 0)
		b.WriteString("\n")
	}
	return textResult(b.String()), nil, nil
}

func formatTreeNode(b *strings.Builder, node browser.TreeNode, indent int) {
	fmt.Fprintf(b, "%s• %s\n", strings.Repeat("  ", indent), node.Name)
	for _, child := range node.Children {
		formatTreeNode(b, child, indent+1)
	}
}

type BrowserPathInput struct {
	Path string `json:"path" jsonschema:"Path in the browser, e.g. 'drums/Acoustic'"`
}

func (s *Server) handleGetBrowserItemsAtPath(ctx context.Context, _ *mcpsdk.CallToolRequest, args BrowserPathInput) (*mcpsdk.CallToolResult, any, error) {
	var listing browser.PathListing
	if err := s.session.SendCommand(ctx, protocol.CmdGetBrowserItemsAtPath, args, &listing); err != nil {
		return textResult(fmt.Sprintf("Error getting browser items at path: %v", err)), nil, nil
	}
	if listing.Error != "" {
		return textResult(fmt.Sprintf("Error: %s\nAvailable categories: %s",
			listing.Error, strings.Join(listing.AvailableCategories, ", "))), nil, nil
	}
	res, err := jsonResult(listing)
	return res, nil, err
}

func (s *Server) handleGetArrangementInfo(ctx context.Context, _ *mcpsdk.CallToolRequest, _ struct{}) (*mcpsdk.CallToolResult, any, error) {
	var info song.ArrangementInfo
	if err := s.session.SendCommand(ctx, protocol.CmdGetArrangementInfo, nil, &info); err != nil {
		return textResult(fmt.Sprintf("Error getting arrangement info: %v", err)), nil, nil
	}
	res, err := jsonResult(info)
	return res, nil, err
}

func (s *Server) handleGetArrangementMarkers(ctx context.Context, _ *mcpsdk.CallToolRequest, _ struct{}) (*mcpsdk.CallToolResult, any, error) {
	var markers song.MarkersResult
	if err := s.session.SendCommand(ctx, protocol.CmdGetArrangementMarkers, nil, &markers); err != nil {
		return textResult(fmt.Sprintf("Error getting arrangement markers: %v", err)), nil, nil
	}
	res, err := jsonResult(markers)
	return res, nil, err
}

func (s *Server) handleGetTrackArrangementClips(ctx context.Context, _ *mcpsdk.CallToolRequest, args TrackIndexInput) (*mcpsdk.CallToolResult, any, error) {
	var clips song.TrackArrangementClips
	if err := s.session.SendCommand(ctx, protocol.CmdGetTrackArrangementClips, args, &clips); err != nil {
		return textResult(fmt.Sprintf("Error getting track arrangement clips: %v", err)), nil, nil
	}
	res, err := jsonResult(clips)
	return res, nil, err
}

func (s *Server) handleGetTimeSignatures(ctx context.Context, _ *mcpsdk.CallToolRequest, _ struct{}) (*mcpsdk.CallToolResult, any, error) {
	var sigs song.TimeSignaturesResult
	if err := s.session.SendCommand(ctx, protocol.CmdGetTimeSignatures, nil, &sigs); err != nil {
		return textResult(fmt.Sprintf("Error getting time signatures: %v", err)), nil, nil
	}
	res, err := jsonResult(sigs)
	return res, nil, err
}

func (s *Server) handleGetCapabilities(ctx context.Context, _ *mcpsdk.CallToolRequest, _ struct{}) (*mcpsdk.CallToolResult, any, error) {
	var caps map[string]any
	if err := s.session.SendCommand(ctx, protocol.CmdGetCapabilities, nil, &caps); err != nil {
		return textResult(fmt.Sprintf("Error getting capabilities: %v", err)), nil, nil
	}
	res, err := jsonResult(caps)
	return res, nil, err
}

type CreateTrackInput struct {
	Index *int `json:"index,omitempty" jsonschema:"Position for the new track. -1 or omitted appends at the end."`
}

func (s *Server) handleCreateMIDITrack(ctx context.Context, _ *mcpsdk.CallToolRequest, args CreateTrackInput) (*mcpsdk.CallToolResult, any, error) {
	index := -1
	if args.Index != nil {
		index = *args.Index
	}
	var handle song.TrackHandle
	if err := s.session.SendCommand(ctx, protocol.CmdCreateMIDITrack, map[string]any{"index": index}, &handle); err != nil {
		return textResult(fmt.Sprintf("Error creating MIDI track: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("Created new MIDI track: %s", handle.Name)), nil, nil
}

func (s *Server) handleCreateAudioTrack(ctx context.Context, _ *mcpsdk.CallToolRequest, args CreateTrackInput) (*mcpsdk.CallToolResult, any, error) {
	index := -1
	if args.Index != nil {
		index = *args.Index
	}
	var handle song.TrackHandle
	if err := s.session.SendCommand(ctx, protocol.CmdCreateAudioTrack, map[string]any{"index": index}, &handle); err != nil {
		return textResult(fmt.Sprintf("Error creating audio track: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("Created new audio track: %s", handle.Name)), nil, nil
}

type SetTrackNameInput struct {
	TrackIndex int    `json:"track_index" jsonschema:"Index of the track to rename"`
	Name       string `json:"name" jsonschema:"New name for the track"`
}

func (s *Server) handleSetTrackName(ctx context.Context, _ *mcpsdk.CallToolRequest, args SetTrackNameInput) (*mcpsdk.CallToolResult, any, error) {
	var result song.NameResult
	if err := s.session.SendCommand(ctx, protocol.CmdSetTrackName, args, &result); err != nil {
		return textResult(fmt.Sprintf("Error setting track name: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("Renamed track to: %s", result.Name)), nil, nil
}

type CreateClipInput struct {
	TrackIndex int      `json:"track_index" jsonschema:"Index of the track to create the clip in"`
	ClipIndex  int      `json:"clip_index" jsonschema:"Index of the clip slot"`
	Length     *float64 `json:"length,omitempty" jsonschema:"Clip length in beats. Defaults to 4."`
}

func (s *Server) handleCreateClip(ctx context.Context, _ *mcpsdk.CallToolRequest, args CreateClipInput) (*mcpsdk.CallToolResult, any, error) {
	length := 4.0
	if args.Length != nil {
		length = *args.Length
	}
	params := map[string]any{
		"track_index": args.TrackIndex,
		"clip_index":  args.ClipIndex,
		"length":      length,
	}
	if err := s.session.SendCommand(ctx, protocol.CmdCreateClip, params, nil); err != nil {
		return textResult(fmt.Sprintf("Error creating clip: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("Created new clip at track %d, slot %d with length %v beats",
		args.TrackIndex, args.ClipIndex, length)), nil, nil
}

type AddNotesInput struct {
	TrackIndex int         `json:"track_index" jsonschema:"Index of the track containing the clip"`
	ClipIndex  int         `json:"clip_index" jsonschema:"Index of the clip slot"`
	Notes      []song.Note `json:"notes" jsonschema:"Notes to write. Pitch and velocity are 0-127; times are in beats."`
}

func (s *Server) handleAddNotesToClip(ctx context.Context, _ *mcpsdk.CallToolRequest, args AddNotesInput) (*mcpsdk.CallToolResult, any, error) {
	if err := s.session.SendCommand(ctx, protocol.CmdAddNotesToClip, args, nil); err != nil {
		return textResult(fmt.Sprintf("Error adding notes to clip: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("Added %d notes to clip at track %d, slot %d",
		len(args.Notes), args.TrackIndex, args.ClipIndex)), nil, nil
}

type SetClipNameInput struct {
	TrackIndex int    `json:"track_index" jsonschema:"Index of the track containing the clip"`
	ClipIndex  int    `json:"clip_index" jsonschema:"Index of the clip slot"`
	Name       string `json:"name" jsonschema:"New name for the clip"`
}

func (s *Server) handleSetClipName(ctx context.Context, _ *mcpsdk.CallToolRequest, args SetClipNameInput) (*mcpsdk.CallToolResult, any, error) {
	if err := s.session.SendCommand(ctx, protocol.CmdSetClipName, args, nil); err != nil {
		return textResult(fmt.Sprintf("Error setting clip name: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("Renamed clip at track %d, slot %d to '%s'",
		args.TrackIndex, args.ClipIndex, args.Name)), nil, nil
}

type SetTempoInput struct {
	Tempo float64 `json:"tempo" jsonschema:"New tempo in BPM"`
}

func (s *Server) handleSetTempo(ctx context.Context, _ *mcpsdk.CallToolRequest, args SetTempoInput) (*mcpsdk.CallToolResult, any, error) {
	if err := s.session.SendCommand(ctx, protocol.CmdSetTempo, args, nil); err != nil {
		return textResult(fmt.Sprintf("Error setting tempo: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("Set tempo to %v BPM", args.Tempo)), nil, nil
}

type SetDeviceParameterInput struct {
	TrackIndex    int     `json:"track_index" jsonschema:"Index of the track holding the device"`
	DeviceIndex   int     `json:"device_index" jsonschema:"Index of the device on the track"`
	ParameterName string  `json:"parameter_name" jsonschema:"Name of the parameter to set"`
	Value         float64 `json:"value" jsonschema:"New value; clamped to the parameter's range"`
}

func (s *Server) handleSetDeviceParameter(ctx context.Context, _ *mcpsdk.CallToolRequest, args SetDeviceParameterInput) (*mcpsdk.CallToolResult, any, error) {
	var result song.DeviceParameterResult
	if err := s.session.SendCommand(ctx, protocol.CmdSetDeviceParameter, args, &result); err != nil {
		return textResult(fmt.Sprintf("Error setting device parameter: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("Set parameter '%s' to %v on device %d of track %d",
		result.ParameterName, result.Value, result.DeviceIndex, result.TrackIndex)), nil, nil
}

func (s *Server) handleFireClip(ctx context.Context, _ *mcpsdk.CallToolRequest, args ClipRefInput) (*mcpsdk.CallToolResult, any, error) {
	if err := s.session.SendCommand(ctx, protocol.CmdFireClip, args, nil); err != nil {
		return textResult(fmt.Sprintf("Error firing clip: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("Started playing clip at track %d, slot %d",
		args.TrackIndex, args.ClipIndex)), nil, nil
}

func (s *Server) handleStopClip(ctx context.Context, _ *mcpsdk.CallToolRequest, args ClipRefInput) (*mcpsdk.CallToolResult, any, error) {
	if err := s.session.SendCommand(ctx, protocol.CmdStopClip, args, nil); err != nil {
		return textResult(fmt.Sprintf("Error stopping clip: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("Stopped clip at track %d, slot %d",
		args.TrackIndex, args.ClipIndex)), nil, nil
}

func (s *Server) handleStartPlayback(ctx context.Context, _ *mcpsdk.CallToolRequest, _ struct{}) (*mcpsdk.CallToolResult, any, error) {
	if err := s.session.SendCommand(ctx, protocol.CmdStartPlayback, nil, nil); err != nil {
		return textResult(fmt.Sprintf("Error starting playback: %v", err)), nil, nil
	}
	return textResult("Started playback"), nil, nil
}

func (s *Server) handleStopPlayback(ctx context.Context, _ *mcpsdk.CallToolRequest, _ struct{}) (*mcpsdk.CallToolResult, any, error) {
	if err := s.session.SendCommand(ctx, protocol.CmdStopPlayback, nil, nil); err != nil {
		return textResult(fmt.Sprintf("Error stopping playback: %v", err)), nil, nil
	}
	return textResult("Stopped playback"), nil, nil
}

type LoadBrowserItemInput struct {
	TrackIndex int    `json:"track_index" jsonschema:"Index of the track to load the item onto"`
	ItemURI    string `json:"item_uri" jsonschema:"URI of the browser item to load"`
}

func (s *Server) handleLoadBrowserItem(ctx context.Context, _ *mcpsdk.CallToolRequest, args LoadBrowserItemInput) (*mcpsdk.CallToolResult, any, error) {
	var result song.LoadedItemResult
	if err := s.session.SendCommand(ctx, protocol.CmdLoadBrowserItem, args, &result); err != nil {
		return textResult(fmt.Sprintf("Error loading instrument by URI: %v", err)), nil, nil
	}
	switch {
	case result.Loaded && len(result.NewDevices) > 0:
		return textResult(fmt.Sprintf("Loaded instrument with URI '%s' on track %d. New devices: %s",
			args.ItemURI, args.TrackIndex, strings.Join(result.NewDevices, ", "))), nil, nil
	case result.Loaded:
		return textResult(fmt.Sprintf("Loaded instrument with URI '%s' on track %d. Devices on track: %s",
			args.ItemURI, args.TrackIndex, strings.Join(result.DevicesAfter, ", "))), nil, nil
	default:
		return textResult(fmt.Sprintf("Failed to load instrument with URI '%s'", args.ItemURI)), nil, nil
	}
}

type CreateSectionInput struct {
	SectionType string `json:"section_type" jsonschema:"Section type, e.g. intro, verse, chorus, bridge, outro"`
	LengthBars  int    `json:"length_bars" jsonschema:"Section length in bars"`
	StartBar    *int   `json:"start_bar,omitempty" jsonschema:"Bar to start at. -1 or omitted appends at the arrangement end."`
}

func (s *Server) handleCreateArrangementSection(ctx context.Context, _ *mcpsdk.CallToolRequest, args CreateSectionInput) (*mcpsdk.CallToolResult, any, error) {
	startBar := -1
	if args.StartBar != nil {
		startBar = *args.StartBar
	}
	params := map[string]any{
		"section_type": args.SectionType,
		"length_bars":  args.LengthBars,
		"start_bar":    startBar,
	}
	var result song.SectionResult
	if err := s.session.SendCommand(ctx, protocol.CmdCreateArrangementSection, params, &result); err != nil {
		return textResult(fmt.Sprintf("Error creating arrangement section: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("Created %s section with length %d bars at position %d",
		args.SectionType, args.LengthBars, result.StartPosition)), nil, nil
}

type DuplicateSectionInput struct {
	SourceStartBar int     `json:"source_start_bar" jsonschema:"First bar of the source range"`
	SourceEndBar   int     `json:"source_end_bar" jsonschema:"Bar after the last bar of the source range"`
	DestinationBar int     `json:"destination_bar" jsonschema:"Bar to copy the section to"`
	VariationLevel float64 `json:"variation_level,omitempty" jsonschema:"How much to vary the copy: 0.0 exact, 1.0 heavy"`
}

func (s *Server) handleDuplicateSection(ctx context.Context, _ *mcpsdk.CallToolRequest, args DuplicateSectionInput) (*mcpsdk.CallToolResult, any, error) {
	if err := s.session.SendCommand(ctx, protocol.CmdDuplicateSection, args, nil); err != nil {
		return textResult(fmt.Sprintf("Error duplicating section: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("Duplicated section from bar %d to %d, inserted at bar %d",
		args.SourceStartBar, args.SourceEndBar, args.DestinationBar)), nil, nil
}

type CreateTransitionInput struct {
	FromBar        int    `json:"from_bar" jsonschema:"Bar the transition leads out of"`
	ToBar          int    `json:"to_bar" jsonschema:"Bar the transition leads into"`
	TransitionType string `json:"transition_type" jsonschema:"fill, riser, uplifter, downlifter or cut"`
	LengthBeats    int    `json:"length_beats,omitempty" jsonschema:"Transition length in beats. Defaults to 4."`
}

func (s *Server) handleCreateTransition(ctx context.Context, _ *mcpsdk.CallToolRequest, args CreateTransitionInput) (*mcpsdk.CallToolResult, any, error) {
	if args.LengthBeats == 0 {
		args.LengthBeats = 4
	}
	if err := s.session.SendCommand(ctx, protocol.CmdCreateTransition, args, nil); err != nil {
		return textResult(fmt.Sprintf("Error creating transition: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("Created %s transition from bar %d to %d",
		args.TransitionType, args.FromBar, args.ToBar)), nil, nil
}

type ConvertToArrangementInput struct {
	Structure []song.Section `json:"structure" jsonschema:"Ordered sections, each with type and length_bars"`
}

func (s *Server) handleConvertSessionToArrangement(ctx context.Context, _ *mcpsdk.CallToolRequest, args ConvertToArrangementInput) (*mcpsdk.CallToolResult, any, error) {
	var result song.ArrangementBuildResult
	if err := s.session.SendCommand(ctx, protocol.CmdConvertSessionToArrangement, args, &result); err != nil {
		return textResult(fmt.Sprintf("Error converting session to arrangement: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("Created arrangement with %d sections. Total length: %d bars",
		len(args.Structure), result.TotalLengthBars)), nil, nil
}

type FollowActionTimeInput struct {
	TrackIndex int     `json:"track_index" jsonschema:"Index of the track containing the clip"`
	ClipIndex  int     `json:"clip_index" jsonschema:"Index of the clip slot"`
	TimeBeats  float64 `json:"time_beats" jsonschema:"Beats before the follow action triggers"`
}

func (s *Server) handleSetClipFollowActionTime(ctx context.Context, _ *mcpsdk.CallToolRequest, args FollowActionTimeInput) (*mcpsdk.CallToolResult, any, error) {
	if err := s.session.SendCommand(ctx, protocol.CmdSetClipFollowActionTime, args, nil); err != nil {
		return textResult(fmt.Sprintf("Error setting clip follow action time: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("Set follow action time to %v beats for clip at track %d, slot %d",
		args.TimeBeats, args.TrackIndex, args.ClipIndex)), nil, nil
}

type FollowActionInput struct {
	TrackIndex  int      `json:"track_index" jsonschema:"Index of the track containing the clip"`
	ClipIndex   int      `json:"clip_index" jsonschema:"Index of the clip slot"`
	ActionType  string   `json:"action_type" jsonschema:"none, next, prev, first, last, any or other"`
	Probability *float64 `json:"probability,omitempty" jsonschema:"Chance the action triggers, 0.0 to 1.0. Defaults to 1.0."`
}

func (s *Server) handleSetClipFollowAction(ctx context.Context, _ *mcpsdk.CallToolRequest, args FollowActionInput) (*mcpsdk.CallToolResult, any, error) {
	probability := 1.0
	if args.Probability != nil {
		probability = *args.Probability
	}
	params := map[string]any{
		"track_index": args.TrackIndex,
		"clip_index":  args.ClipIndex,
		"action_type": args.ActionType,
		"probability": probability,
	}
	if err := s.session.SendCommand(ctx, protocol.CmdSetClipFollowAction, params, nil); err != nil {
		return textResult(fmt.Sprintf("Error setting clip follow action: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("Set follow action to '%s' with probability %v for clip at track %d, slot %d",
		args.ActionType, probability, args.TrackIndex, args.ClipIndex)), nil, nil
}

type FollowActionLinkedInput struct {
	TrackIndex int   `json:"track_index" jsonschema:"Index of the track containing the clip"`
	ClipIndex  int   `json:"clip_index" jsonschema:"Index of the clip slot"`
	Linked     *bool `json:"linked,omitempty" jsonschema:"Whether timing follows the clip length. Defaults to true."`
}

func (s *Server) handleSetClipFollowActionLinked(ctx context.Context, _ *mcpsdk.CallToolRequest, args FollowActionLinkedInput) (*mcpsdk.CallToolResult, any, error) {
	linked := true
	if args.Linked != nil {
		linked = *args.Linked
	}
	params := map[string]any{
		"track_index": args.TrackIndex,
		"clip_index":  args.ClipIndex,
		"linked":      linked,
	}
	if err := s.session.SendCommand(ctx, protocol.CmdSetClipFollowActionLinked, params, nil); err != nil {
		return textResult(fmt.Sprintf("Error setting clip follow action linked status: %v", err)), nil, nil
	}
	status := "linked to clip length"
	if !linked {
		status = "unlinked"
	}
	return textResult(fmt.Sprintf("Set follow action timing to be %s for clip at track %d, slot %d",
		status, args.TrackIndex, args.ClipIndex)), nil, nil
}

type ArrangementLoopInput struct {
	StartTime float64 `json:"start_time" jsonschema:"Loop start in beats"`
	EndTime   float64 `json:"end_time" jsonschema:"Loop end in beats"`
	Enabled   *bool   `json:"enabled,omitempty" jsonschema:"Whether the loop is active. Defaults to true."`
}

func (s *Server) handleSetArrangementLoop(ctx context.Context, _ *mcpsdk.CallToolRequest, args ArrangementLoopInput) (*mcpsdk.CallToolResult, any, error) {
	enabled := true
	if args.Enabled != nil {
		enabled = *args.Enabled
	}
	params := map[string]any{
		"start_time": args.StartTime,
		"end_time":   args.EndTime,
		"enabled":    enabled,
	}
	var result song.LoopResult
	if err := s.session.SendCommand(ctx, protocol.CmdSetArrangementLoop, params, &result); err != nil {
		return textResult(fmt.Sprintf("Error setting arrangement loop: %v", err)), nil, nil
	}
	state := "enabled"
	if !result.LoopEnabled {
		state = "disabled"
	}
	return textResult(fmt.Sprintf("Set arrangement loop from %v to %v beats (%s)",
		result.LoopStart, result.LoopEnd, state)), nil, nil
}

type SetTimeSignatureInput struct {
	Numerator   int  `json:"numerator" jsonschema:"Beats per bar, e.g. 3 for 3/4"`
	Denominator int  `json:"denominator" jsonschema:"Beat unit, e.g. 4 for 3/4"`
	BarPosition *int `json:"bar_position,omitempty" jsonschema:"Bar the signature takes effect at. Defaults to 1, the song signature."`
}

func (s *Server) handleSetTimeSignature(ctx context.Context, _ *mcpsdk.CallToolRequest, args SetTimeSignatureInput) (*mcpsdk.CallToolResult, any, error) {
	barPosition := 1
	if args.BarPosition != nil {
		barPosition = *args.BarPosition
	}
	params := map[string]any{
		"numerator":    args.Numerator,
		"denominator":  args.Denominator,
		"bar_position": barPosition,
	}
	var result song.TimeSignatureResult
	if err := s.session.SendCommand(ctx, protocol.CmdSetTimeSignature, params, &result); err != nil {
		return textResult(fmt.Sprintf("Error setting time signature: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("Set time signature to %d/%d at bar %d",
		result.Numerator, result.Denominator, result.BarPosition)), nil, nil
}

type PlayheadInput struct {
	Time float64 `json:"time" jsonschema:"Playhead position in beats"`
}

func (s *Server) handleSetPlayheadPosition(ctx context.Context, _ *mcpsdk.CallToolRequest, args PlayheadInput) (*mcpsdk.CallToolResult, any, error) {
	var result song.PlayheadResult
	if err := s.session.SendCommand(ctx, protocol.CmdSetPlayheadPosition, args, &result); err != nil {
		return textResult(fmt.Sprintf("Error setting playhead position: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("Moved playhead to %v beats", result.CurrentSongTime)), nil, nil
}

type CreateMarkerInput struct {
	Name string  `json:"name" jsonschema:"Marker name"`
	Time float64 `json:"time" jsonschema:"Marker position in beats"`
}

func (s *Server) handleCreateArrangementMarker(ctx context.Context, _ *mcpsdk.CallToolRequest, args CreateMarkerInput) (*mcpsdk.CallToolResult, any, error) {
	var result song.MarkerResult
	if err := s.session.SendCommand(ctx, protocol.CmdCreateArrangementMarker, args, &result); err != nil {
		return textResult(fmt.Sprintf("Error creating arrangement marker: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("Created marker '%s' at %v beats", result.Name, result.Time)), nil, nil
}

type LoadDrumKitInput struct {
	TrackIndex int    `json:"track_index" jsonschema:"Index of the track to load the kit onto"`
	RackURI    string `json:"rack_uri" jsonschema:"URI of the drum rack to load first"`
	KitPath    string `json:"kit_path" jsonschema:"Browser path to search for drum kits, e.g. 'drums/Acoustic'"`
}

func (s *Server) handleLoadDrumKit(ctx context.Context, _ *mcpsdk.CallToolRequest, args LoadDrumKitInput) (*mcpsdk.CallToolResult, any, error) {
	var rack song.LoadedItemResult
	err := s.session.SendCommand(ctx, protocol.CmdLoadBrowserItem, map[string]any{
		"track_index": args.TrackIndex,
		"item_uri":    args.RackURI,
	}, &rack)
	if err != nil {
		return textResult(fmt.Sprintf("Error loading drum kit: %v", err)), nil, nil
	}
	if !rack.Loaded {
		return textResult(fmt.Sprintf("Failed to load drum rack with URI '%s'", args.RackURI)), nil, nil
	}

	var listing browser.PathListing
	err = s.session.SendCommand(ctx, protocol.CmdGetBrowserItemsAtPath, map[string]any{"path": args.KitPath}, &listing)
	if err != nil {
		return textResult(fmt.Sprintf("Error loading drum kit: %v", err)), nil, nil
	}
	if listing.Error != "" {
		return textResult(fmt.Sprintf("Loaded drum rack but failed to find drum kit: %s", listing.Error)), nil, nil
	}

	var kit *browser.ItemInfo
	for i := range listing.Items {
		if listing.Items[i].IsLoadable {
			kit = &listing.Items[i]
			break
		}
	}
	if kit == nil {
		return textResult(fmt.Sprintf("Loaded drum rack but no loadable drum kits found at '%s'", args.KitPath)), nil, nil
	}

	err = s.session.SendCommand(ctx, protocol.CmdLoadBrowserItem, map[string]any{
		"track_index": args.TrackIndex,
		"item_uri":    kit.URI,
	}, nil)
	if err != nil {
		return textResult(fmt.Sprintf("Error loading drum kit: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("Loaded drum rack and kit '%s' on track %d", kit.Name, args.TrackIndex)), nil, nil
}

type ClipSequenceInput struct {
	TrackIndex     int `json:"track_index" jsonschema:"Index of the track containing the clips"`
	StartClipIndex int `json:"start_clip_index" jsonschema:"Index of the first clip in the sequence"`
	EndClipIndex   int `json:"end_clip_index" jsonschema:"Index of the last clip in the sequence"`
}

func (s *Server) handleSetupClipSequence(ctx context.Context, _ *mcpsdk.CallToolRequest, args ClipSequenceInput) (*mcpsdk.CallToolResult, any, error) {
	var info song.TrackInfo
	if err := s.session.SendCommand(ctx, protocol.CmdGetTrackInfo, map[string]any{"track_index": args.TrackIndex}, &info); err != nil {
		return textResult(fmt.Sprintf("Error accessing track %d: %v", args.TrackIndex, err)), nil, nil
	}

	clipsProcessed := 0
	for clipIndex := args.StartClipIndex; clipIndex <= args.EndClipIndex; clipIndex++ {
		if clipIndex < 0 || clipIndex >= len(info.ClipSlots) || !info.ClipSlots[clipIndex].HasClip {
			s.logger.Warn("no clip in slot, skipping", "track", args.TrackIndex, "slot", clipIndex)
			continue
		}
		length := 4.0
		if clip := info.ClipSlots[clipIndex].Clip; clip != nil {
			length = clip.Length
		}

		if err := s.chainClip(ctx, args.TrackIndex, clipIndex, "next", length*4.0); err != nil {
			s.logger.Warn("follow action setup failed", "track", args.TrackIndex, "slot", clipIndex, "error", err)
			continue
		}
		clipsProcessed++
	}

	// Loop the last clip back to the first.
	if clipsProcessed > 0 && args.EndClipIndex < len(info.ClipSlots) && info.ClipSlots[args.EndClipIndex].HasClip {
		action := "other"
		if args.StartClipIndex == 0 {
			action = "first"
		}
		err := s.session.SendCommand(ctx, protocol.CmdSetClipFollowAction, map[string]any{
			"track_index": args.TrackIndex,
			"clip_index":  args.EndClipIndex,
			"action_type": action,
			"probability": 1.0,
		}, nil)
		if err != nil {
			s.logger.Warn("loop back action failed", "track", args.TrackIndex, "error", err)
		}
	}

	return textResult(fmt.Sprintf("Set up follow actions for %d clips in track %d from clip %d to %d",
		clipsProcessed, args.TrackIndex, args.StartClipIndex, args.EndClipIndex)), nil, nil
}

type ProjectFollowActionsInput struct {
	LoopBack *bool `json:"loop_back,omitempty" jsonschema:"Whether each track's last clip loops back to its first. Defaults to true."`
}

func (s *Server) handleSetupProjectFollowActions(ctx context.Context, _ *mcpsdk.CallToolRequest, args ProjectFollowActionsInput) (*mcpsdk.CallToolResult, any, error) {
	loopBack := true
	if args.LoopBack != nil {
		loopBack = *args.LoopBack
	}

	var session song.SessionInfo
	if err := s.session.SendCommand(ctx, protocol.CmdGetSessionInfo, nil, &session); err != nil {
		return textResult(fmt.Sprintf("Error setting up project follow actions: %v", err)), nil, nil
	}
	if session.TrackCount == 0 {
		return textResult("No tracks found in the project"), nil, nil
	}

	totalClips := 0
	tracksProcessed := 0
	for trackIndex := 0; trackIndex < session.TrackCount; trackIndex++ {
		var info song.TrackInfo
		if err := s.session.SendCommand(ctx, protocol.CmdGetTrackInfo, map[string]any{"track_index": trackIndex}, &info); err != nil {
			s.logger.Warn("skipping track", "track", trackIndex, "error", err)
			continue
		}

		var populated []int
		for i, slot := range info.ClipSlots {
			if slot.HasClip {
				populated = append(populated, i)
			}
		}
		if len(populated) == 0 {
			continue
		}

		clipsProcessed := 0
		for i, clipIndex := range populated {
			action := "next"
			if i == len(populated)-1 && loopBack {
				action = "other"
				if populated[0] == 0 {
					action = "first"
				}
			}
			length := 4.0
			if clip := info.ClipSlots[clipIndex].Clip; clip != nil {
				length = clip.Length
			}
			if err := s.chainClip(ctx, trackIndex, clipIndex, action, length); err != nil {
				s.logger.Warn("follow action setup failed", "track", trackIndex, "slot", clipIndex, "error", err)
				continue
			}
			clipsProcessed++
		}
		if clipsProcessed > 0 {
			tracksProcessed++
			totalClips += clipsProcessed
		}
	}

	return textResult(fmt.Sprintf("Set up follow actions for %d clips across %d tracks",
		totalClips, tracksProcessed)), nil, nil
}

// chainClip points one clip's follow action and timing at the next step
// of a sequence.
func (s *Server) chainClip(ctx context.Context, trackIndex, clipIndex int, action string, timeBeats float64) error {
	err := s.session.SendCommand(ctx, protocol.CmdSetClipFollowAction, map[string]any{
		"track_index": trackIndex,
		"clip_index":  clipIndex,
		"action_type": action,
		"probability": 1.0,
	}, nil)
	if err != nil {
		return err
	}
	err = s.session.SendCommand(ctx, protocol.CmdSetClipFollowActionTime, map[string]any{
		"track_index": trackIndex,
		"clip_index":  clipIndex,
		"time_beats":  timeBeats,
	}, nil)
	if err != nil {
		return err
	}
	return s.session.SendCommand(ctx, protocol.CmdSetClipFollowActionLinked, map[string]any{
		"track_index": trackIndex,
		"clip_index":  clipIndex,
		"linked":      true,
	}, nil)
}
