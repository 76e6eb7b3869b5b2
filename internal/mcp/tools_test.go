package mcp

import (
	"context"
	"encoding/json"
	"net"
	"strings"
	"sync"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"live2mcp/internal/bridge"
	"live2mcp/internal/browser"
	"live2mcp/internal/protocol"
)

// scriptedSurface is a TCP endpoint that answers commands from a
// caller-supplied function, recording everything it receives.
type scriptedSurface struct {
	ln      net.Listener
	respond func(cmd protocol.Command) protocol.Response

	mu       sync.Mutex
	received []protocol.Command
}

func newScriptedSurface(t *testing.T, respond func(cmd protocol.Command) protocol.Response) *scriptedSurface {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &scriptedSurface{ln: ln, respond: respond}
	go s.serve()
	t.Cleanup(func() { _ = ln.Close() })
	return s
}

func (s *scriptedSurface) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.serveConn(conn)
	}
}

func (s *scriptedSurface) serveConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	var acc protocol.Accumulator
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		acc.Append(buf[:n])
		for {
			var cmd protocol.Command
			ok, err := acc.Next(&cmd)
			if err != nil || !ok {
				break
			}

			var resp protocol.Response
			if cmd.Type == protocol.CmdGetCapabilities {
				resp, _ = protocol.Success(map[string]any{"version": protocol.Version})
			} else {
				s.mu.Lock()
				s.received = append(s.received, cmd)
				s.mu.Unlock()
				resp = s.respond(cmd)
			}
			data, _ := json.Marshal(resp)
			if _, err := conn.Write(data); err != nil {
				return
			}
		}
	}
}

func (s *scriptedSurface) commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]string, len(s.received))
	for i, cmd := range s.received {
		types[i] = cmd.Type
	}
	return types
}

func newToolServer(t *testing.T, respond func(cmd protocol.Command) protocol.Response) (*Server, *scriptedSurface) {
	t.Helper()
	stub := newScriptedSurface(t, respond)
	session := bridge.New(stub.ln.Addr().String(), nil)
	srv := NewServer(session, nil)
	t.Cleanup(func() { _ = srv.Close() })
	return srv, stub
}

func resultText(t *testing.T, res *mcpsdk.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestSetTempoTool(t *testing.T) {
	srv, _ := newToolServer(t, func(cmd protocol.Command) protocol.Response {
		return successResp(map[string]any{"tempo": 128.0})
	})

	res, _, err := srv.handleSetTempo(context.Background(), nil, SetTempoInput{Tempo: 128})
	require.NoError(t, err)
	require.Equal(t, "Set tempo to 128 BPM", resultText(t, res))
}

func TestCreateMIDITrackTool(t *testing.T) {
	srv, stub := newToolServer(t, func(cmd protocol.Command) protocol.Response {
		return successResp(map[string]any{"index": 4, "name": "5 MIDI"})
	})

	res, _, err := srv.handleCreateMIDITrack(context.Background(), nil, CreateTrackInput{})
	require.NoError(t, err)
	require.Equal(t, "Created new MIDI track: 5 MIDI", resultText(t, res))
	require.Equal(t, []string{protocol.CmdCreateMIDITrack}, stub.commands())
}

func TestSurfaceErrorsComeBackAsText(t *testing.T) {
	srv, _ := newToolServer(t, func(cmd protocol.Command) protocol.Response {
		return protocol.Error("Track index out of range")
	})

	res, _, err := srv.handleGetTrackInfo(context.Background(), nil, TrackIndexInput{TrackIndex: 99})
	require.NoError(t, err)
	require.Equal(t, "Error getting track info: Track index out of range", resultText(t, res))
}

func TestLoadBrowserItemTool(t *testing.T) {
	loaded := true
	srv, _ := newToolServer(t, func(cmd protocol.Command) protocol.Response {
		return successResp(map[string]any{
			"loaded":        loaded,
			"item_name":     "Operator",
			"new_devices":   []string{"Operator"},
			"devices_after": []string{"Operator"},
		})
	})

	res, _, err := srv.handleLoadBrowserItem(context.Background(), nil, LoadBrowserItemInput{
		TrackIndex: 1,
		ItemURI:    "device:midi#Operator",
	})
	require.NoError(t, err)
	require.Equal(t, "Loaded instrument with URI 'device:midi#Operator' on track 1. New devices: Operator",
		resultText(t, res))

	loaded = false
	res, _, err = srv.handleLoadBrowserItem(context.Background(), nil, LoadBrowserItemInput{
		TrackIndex: 1,
		ItemURI:    "device:midi#Operator",
	})
	require.NoError(t, err)
	require.Equal(t, "Failed to load instrument with URI 'device:midi#Operator'", resultText(t, res))
}

func TestBrowserTreeToolRendersBullets(t *testing.T) {
	srv, _ := newToolServer(t, func(cmd protocol.Command) protocol.Response {
		return successResp(browser.Tree{
			Type: "drums",
			Categories: []browser.TreeNode{
				{Name: "Drums", IsFolder: true, Children: []browser.TreeNode{
					{Name: "Acoustic", IsFolder: true},
				}},
			},
			TotalFolders: 2,
		})
	})

	res, _, err := srv.handleGetBrowserTree(context.Background(), nil, BrowserTreeInput{CategoryType: "drums"})
	require.NoError(t, err)
	text := resultText(t, res)
	require.True(t, strings.HasPrefix(text, "Browser tree for 'drums' (showing 2 folders):\n\n"))
	require.Contains(t, text, "• Drums\n  • Acoustic\n")
}

func TestBrowserTreeToolNoCategories(t *testing.T) {
	srv, _ := newToolServer(t, func(cmd protocol.Command) protocol.Response {
		return successResp(browser.Tree{
			Type:                "bogus",
			AvailableCategories: []string{"instruments", "drums"},
		})
	})

	res, _, err := srv.handleGetBrowserTree(context.Background(), nil, BrowserTreeInput{CategoryType: "bogus"})
	require.NoError(t, err)
	require.Equal(t, "No categories found for 'bogus'. Available browser categories: instruments, drums",
		resultText(t, res))
}

func TestBrowserItemsAtPathToolEmbeddedError(t *testing.T) {
	srv, _ := newToolServer(t, func(cmd protocol.Command) protocol.Response {
		return successResp(browser.PathListing{
			Path:                "nope",
			Error:               "Unknown or unavailable category: nope",
			AvailableCategories: []string{"instruments", "drums"},
		})
	})

	res, _, err := srv.handleGetBrowserItemsAtPath(context.Background(), nil, BrowserPathInput{Path: "nope"})
	require.NoError(t, err)
	require.Equal(t, "Error: Unknown or unavailable category: nope\nAvailable categories: instruments, drums",
		resultText(t, res))
}

func TestLoadDrumKitTool(t *testing.T) {
	srv, stub := newToolServer(t, func(cmd protocol.Command) protocol.Response {
		switch cmd.Type {
		case protocol.CmdLoadBrowserItem:
			return successResp(map[string]any{"loaded": true, "item_name": "Drum Rack"})
		case protocol.CmdGetBrowserItemsAtPath:
			return successResp(browser.PathListing{
				Path: "drums/Acoustic",
				Items: []browser.ItemInfo{
					{Name: "Acoustic", IsFolder: true},
					{Name: "Brooklyn Kit", IsLoadable: true, URI: "query:Drums#Brooklyn%20Kit"},
				},
			})
		default:
			return protocol.Error("Unknown command: " + cmd.Type)
		}
	})

	res, _, err := srv.handleLoadDrumKit(context.Background(), nil, LoadDrumKitInput{
		TrackIndex: 2,
		RackURI:    "query:Drums#Drum%20Rack",
		KitPath:    "drums/Acoustic",
	})
	require.NoError(t, err)
	require.Equal(t, "Loaded drum rack and kit 'Brooklyn Kit' on track 2", resultText(t, res))
	require.Equal(t, []string{
		protocol.CmdLoadBrowserItem,
		protocol.CmdGetBrowserItemsAtPath,
		protocol.CmdLoadBrowserItem,
	}, stub.commands())
}

func TestSetupClipSequenceTool(t *testing.T) {
	srv, stub := newToolServer(t, func(cmd protocol.Command) protocol.Response {
		if cmd.Type == protocol.CmdGetTrackInfo {
			return successResp(map[string]any{
				"index": 0,
				"name":  "Drums",
				"clip_slots": []map[string]any{
					{"index": 0, "has_clip": true, "clip": map[string]any{"name": "A", "length": 4.0}},
					{"index": 1, "has_clip": false},
					{"index": 2, "has_clip": true, "clip": map[string]any{"name": "B", "length": 8.0}},
				},
			})
		}
		return successResp(map[string]any{})
	})

	res, _, err := srv.handleSetupClipSequence(context.Background(), nil, ClipSequenceInput{
		TrackIndex:     0,
		StartClipIndex: 0,
		EndClipIndex:   2,
	})
	require.NoError(t, err)
	require.Equal(t, "Set up follow actions for 2 clips in track 0 from clip 0 to 2", resultText(t, res))

	// Two clips wired with three commands each, plus the track query
	// and the final loop back action.
	types := stub.commands()
	require.Equal(t, protocol.CmdGetTrackInfo, types[0])
	require.Len(t, types, 8)
	require.Equal(t, protocol.CmdSetClipFollowAction, types[len(types)-1])
}

func TestSetTimeSignatureTool(t *testing.T) {
	srv, stub := newToolServer(t, func(cmd protocol.Command) protocol.Response {
		var p struct {
			Numerator   int `json:"numerator"`
			Denominator int `json:"denominator"`
			BarPosition int `json:"bar_position"`
		}
		if err := json.Unmarshal(cmd.Params, &p); err != nil {
			return protocol.Error(err.Error())
		}
		return successResp(map[string]any{
			"numerator":    p.Numerator,
			"denominator":  p.Denominator,
			"bar_position": p.BarPosition,
			"time":         float64(p.BarPosition-1) * 4.0,
		})
	})

	// Omitted bar_position defaults to bar 1.
	res, _, err := srv.handleSetTimeSignature(context.Background(), nil, SetTimeSignatureInput{
		Numerator:   3,
		Denominator: 4,
	})
	require.NoError(t, err)
	require.Equal(t, "Set time signature to 3/4 at bar 1", resultText(t, res))
	require.Equal(t, []string{protocol.CmdSetTimeSignature}, stub.commands())
}

func TestSetupProjectFollowActionsNoTracks(t *testing.T) {
	srv, _ := newToolServer(t, func(cmd protocol.Command) protocol.Response {
		return successResp(map[string]any{"track_count": 0})
	})

	res, _, err := srv.handleSetupProjectFollowActions(context.Background(), nil, ProjectFollowActionsInput{})
	require.NoError(t, err)
	require.Equal(t, "No tracks found in the project", resultText(t, res))
}

func successResp(v any) protocol.Response {
	resp, err := protocol.Success(v)
	if err != nil {
		return protocol.Error(err.Error())
	}
	return resp
}
