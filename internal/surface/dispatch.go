package surface

import (
	"context"
	"encoding/json"
	"fmt"

	"live2mcp/internal/protocol"
	"live2mcp/internal/song"
)

type handler struct {
	modifying bool
	fn        func(params json.RawMessage) (any, error)
}

// capabilities is the get_capabilities result.
type capabilities struct {
	Version           string   `json:"version"`
	Commands          []string `json:"commands"`
	ModifyingCommands []string `json:"modifying_commands"`
}

// dispatch routes one command to its handler. Queries run on the
// calling goroutine under a read lock; mutations go through the writer
// loop and persist a snapshot on success.
func (s *Server) dispatch(ctx context.Context, cmd protocol.Command) protocol.Response {
	h, ok := s.handlers[cmd.Type]
	if !ok {
		s.logger.Warn("unknown command", "type", cmd.Type)
		return protocol.Error(fmt.Sprintf("Unknown command: %s", cmd.Type))
	}
	s.logger.Debug("command received", "type", cmd.Type)

	var (
		value any
		err   error
	)
	if h.modifying {
		value, err = s.schedule(ctx, func() (any, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			v, err := h.fn(cmd.Params)
			if err == nil {
				s.saveSnapshot(ctx)
			}
			return v, err
		})
	} else {
		value, err = s.runProtected(func() (any, error) {
			s.mu.RLock()
			defer s.mu.RUnlock()
			return h.fn(cmd.Params)
		})
	}
	if err != nil {
		s.logger.Warn("command failed", "type", cmd.Type, "error", err)
		return protocol.Error(err.Error())
	}

	resp, err := protocol.Success(value)
	if err != nil {
		s.logger.Error("encode result", "type", cmd.Type, "error", err)
		return protocol.Error(err.Error())
	}
	return resp
}

func decodeParams(params json.RawMessage, dst any) error {
	if len(params) == 0 {
		return nil
	}
	return json.Unmarshal(params, dst)
}

func (s *Server) commandTable() map[string]handler {
	query := func(fn func(params json.RawMessage) (any, error)) handler {
		return handler{fn: fn}
	}
	mutate := func(fn func(params json.RawMessage) (any, error)) handler {
		return handler{modifying: true, fn: fn}
	}

	return map[string]handler{
		protocol.CmdGetSessionInfo: query(func(json.RawMessage) (any, error) {
			return s.song.SessionInfo(), nil
		}),

		protocol.CmdGetTrackInfo: query(func(params json.RawMessage) (any, error) {
			var p struct {
				TrackIndex int `json:"track_index"`
			}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			return s.song.TrackInfo(p.TrackIndex)
		}),

		protocol.CmdGetBrowserTree: query(func(params json.RawMessage) (any, error) {
			p := struct {
				CategoryType string `json:"category_type"`
			}{CategoryType: "all"}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			return s.library.CategoryTree(p.CategoryType), nil
		}),

		protocol.CmdGetBrowserItemsAtPath: query(func(params json.RawMessage) (any, error) {
			var p struct {
				Path string `json:"path"`
			}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			return s.library.ItemsAtPath(p.Path), nil
		}),

		protocol.CmdGetArrangementInfo: query(func(json.RawMessage) (any, error) {
			return s.song.ArrangementInfo(), nil
		}),

		protocol.CmdGetArrangementMarkers: query(func(json.RawMessage) (any, error) {
			return s.song.ArrangementMarkers(), nil
		}),

		protocol.CmdGetTrackArrangementClips: query(func(params json.RawMessage) (any, error) {
			var p struct {
				TrackIndex int `json:"track_index"`
			}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			return s.song.TrackArrangementClips(p.TrackIndex)
		}),

		protocol.CmdGetTimeSignatures: query(func(json.RawMessage) (any, error) {
			return s.song.TimeSignatures(), nil
		}),

		protocol.CmdGetCapabilities: query(func(json.RawMessage) (any, error) {
			return capabilities{
				Version:           protocol.Version,
				Commands:          protocol.AllCommands(),
				ModifyingCommands: protocol.ModifyingCommands(),
			}, nil
		}),

		protocol.CmdCreateMIDITrack: mutate(func(params json.RawMessage) (any, error) {
			p := struct {
				Index int `json:"index"`
			}{Index: -1}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			return s.song.CreateMIDITrack(p.Index)
		}),

		protocol.CmdCreateAudioTrack: mutate(func(params json.RawMessage) (any, error) {
			p := struct {
				Index int `json:"index"`
			}{Index: -1}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			return s.song.CreateAudioTrack(p.Index)
		}),

		protocol.CmdSetTrackName: mutate(func(params json.RawMessage) (any, error) {
			var p struct {
				TrackIndex int    `json:"track_index"`
				Name       string `json:"name"`
			}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			return s.song.SetTrackName(p.TrackIndex, p.Name)
		}),

		protocol.CmdCreateClip: mutate(func(params json.RawMessage) (any, error) {
			p := struct {
				TrackIndex int     `json:"track_index"`
				ClipIndex  int     `json:"clip_index"`
				Length     float64 `json:"length"`
			}{Length: 4.0}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			return s.song.CreateClip(p.TrackIndex, p.ClipIndex, p.Length)
		}),

		protocol.CmdAddNotesToClip: mutate(func(params json.RawMessage) (any, error) {
			var p struct {
				TrackIndex int         `json:"track_index"`
				ClipIndex  int         `json:"clip_index"`
				Notes      []song.Note `json:"notes"`
			}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			return s.song.AddNotesToClip(p.TrackIndex, p.ClipIndex, p.Notes)
		}),

		protocol.CmdSetClipName: mutate(func(params json.RawMessage) (any, error) {
			var p struct {
				TrackIndex int    `json:"track_index"`
				ClipIndex  int    `json:"clip_index"`
				Name       string `json:"name"`
			}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			return s.song.SetClipName(p.TrackIndex, p.ClipIndex, p.Name)
		}),

		protocol.CmdSetTempo: mutate(func(params json.RawMessage) (any, error) {
			var p struct {
				Tempo float64 `json:"tempo"`
			}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			return s.song.SetTempo(p.Tempo)
		}),

		protocol.CmdSetDeviceParameter: mutate(func(params json.RawMessage) (any, error) {
			var p struct {
				TrackIndex    int     `json:"track_index"`
				DeviceIndex   int     `json:"device_index"`
				ParameterName string  `json:"parameter_name"`
				Value         float64 `json:"value"`
			}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			return s.song.SetDeviceParameter(p.TrackIndex, p.DeviceIndex, p.ParameterName, p.Value)
		}),

		protocol.CmdFireClip: mutate(func(params json.RawMessage) (any, error) {
			var p struct {
				TrackIndex int `json:"track_index"`
				ClipIndex  int `json:"clip_index"`
			}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			return s.song.FireClip(p.TrackIndex, p.ClipIndex)
		}),

		protocol.CmdStopClip: mutate(func(params json.RawMessage) (any, error) {
			var p struct {
				TrackIndex int `json:"track_index"`
				ClipIndex  int `json:"clip_index"`
			}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			return s.song.StopClip(p.TrackIndex, p.ClipIndex)
		}),

		protocol.CmdStartPlayback: mutate(func(json.RawMessage) (any, error) {
			return s.song.StartPlayback(), nil
		}),

		protocol.CmdStopPlayback: mutate(func(json.RawMessage) (any, error) {
			return s.song.StopPlayback(), nil
		}),

		protocol.CmdLoadBrowserItem: mutate(func(params json.RawMessage) (any, error) {
			var p struct {
				TrackIndex int    `json:"track_index"`
				ItemURI    string `json:"item_uri"`
			}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			return s.loadBrowserItem(p.TrackIndex, p.ItemURI)
		}),

		protocol.CmdCreateArrangementSection: mutate(func(params json.RawMessage) (any, error) {
			p := struct {
				SectionType string `json:"section_type"`
				LengthBars  int    `json:"length_bars"`
				StartBar    int    `json:"start_bar"`
			}{LengthBars: 4, StartBar: -1}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			return s.song.CreateArrangementSection(p.SectionType, p.LengthBars, p.StartBar)
		}),

		protocol.CmdDuplicateSection: mutate(func(params json.RawMessage) (any, error) {
			var p struct {
				SourceStartBar int     `json:"source_start_bar"`
				SourceEndBar   int     `json:"source_end_bar"`
				DestinationBar int     `json:"destination_bar"`
				VariationLevel float64 `json:"variation_level"`
			}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			return s.song.DuplicateSection(p.SourceStartBar, p.SourceEndBar, p.DestinationBar, p.VariationLevel)
		}),

		protocol.CmdCreateTransition: mutate(func(params json.RawMessage) (any, error) {
			p := struct {
				FromBar        int    `json:"from_bar"`
				ToBar          int    `json:"to_bar"`
				TransitionType string `json:"transition_type"`
				LengthBeats    int    `json:"length_beats"`
			}{TransitionType: "fill", LengthBeats: 4}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			return s.song.CreateTransition(p.FromBar, p.ToBar, p.TransitionType, p.LengthBeats)
		}),

		protocol.CmdConvertSessionToArrangement: mutate(func(params json.RawMessage) (any, error) {
			var p struct {
				Structure []song.Section `json:"structure"`
			}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			return s.song.ConvertSessionToArrangement(p.Structure)
		}),

		protocol.CmdSetClipFollowActionTime: mutate(func(params json.RawMessage) (any, error) {
			var p struct {
				TrackIndex int     `json:"track_index"`
				ClipIndex  int     `json:"clip_index"`
				TimeBeats  float64 `json:"time_beats"`
			}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			return s.song.SetClipFollowActionTime(p.TrackIndex, p.ClipIndex, p.TimeBeats)
		}),

		protocol.CmdSetClipFollowAction: mutate(func(params json.RawMessage) (any, error) {
			p := struct {
				TrackIndex  int     `json:"track_index"`
				ClipIndex   int     `json:"clip_index"`
				ActionType  string  `json:"action_type"`
				Probability float64 `json:"probability"`
			}{ActionType: "next", Probability: 1.0}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			return s.song.SetClipFollowAction(p.TrackIndex, p.ClipIndex, p.ActionType, p.Probability)
		}),

		protocol.CmdSetClipFollowActionLinked: mutate(func(params json.RawMessage) (any, error) {
			p := struct {
				TrackIndex int  `json:"track_index"`
				ClipIndex  int  `json:"clip_index"`
				Linked     bool `json:"linked"`
			}{Linked: true}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			return s.song.SetClipFollowActionLinked(p.TrackIndex, p.ClipIndex, p.Linked)
		}),

		protocol.CmdSetArrangementLoop: mutate(func(params json.RawMessage) (any, error) {
			p := struct {
				StartTime float64 `json:"start_time"`
				EndTime   float64 `json:"end_time"`
				Enabled   bool    `json:"enabled"`
			}{Enabled: true}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			return s.song.SetArrangementLoop(p.StartTime, p.EndTime, p.Enabled)
		}),

		protocol.CmdSetTimeSignature: mutate(func(params json.RawMessage) (any, error) {
			p := struct {
				Numerator   int `json:"numerator"`
				Denominator int `json:"denominator"`
				BarPosition int `json:"bar_position"`
			}{Numerator: 4, Denominator: 4, BarPosition: 1}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			return s.song.SetTimeSignature(p.Numerator, p.Denominator, p.BarPosition)
		}),

		protocol.CmdSetPlayheadPosition: mutate(func(params json.RawMessage) (any, error) {
			var p struct {
				Time float64 `json:"time"`
			}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			return s.song.SetPlayheadPosition(p.Time)
		}),

		protocol.CmdCreateArrangementMarker: mutate(func(params json.RawMessage) (any, error) {
			p := struct {
				Name string  `json:"name"`
				Time float64 `json:"time"`
			}{Name: "Marker"}
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			return s.song.CreateArrangementMarker(p.Name, p.Time)
		}),
	}
}

// loadBrowserItem resolves a library URI and instantiates the device.
func (s *Server) loadBrowserItem(trackIndex int, uri string) (any, error) {
	item, ok := s.library.FindByURI(uri)
	if !ok {
		return nil, fmt.Errorf("Browser item with URI '%s' not found", uri)
	}
	if !item.IsLoadable {
		return nil, fmt.Errorf("Browser item '%s' is not loadable", item.Name)
	}
	return s.song.LoadDevice(trackIndex, item.Name, item.URI, item.Kind)
}
