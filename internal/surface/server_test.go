package surface

import (
	"context"
	"encoding/json"
	"net"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"live2mcp/internal/protocol"
)

// newTestServer returns a server with its writer loop running.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	s := New(Config{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go s.writerLoop(ctx)
	return s
}

func command(t *testing.T, cmdType string, params any) protocol.Command {
	t.Helper()
	cmd := protocol.Command{Type: cmdType}
	if params != nil {
		raw, err := json.Marshal(params)
		require.NoError(t, err)
		cmd.Params = raw
	}
	return cmd
}

func TestDispatchUnknownCommand(t *testing.T) {
	s := newTestServer(t)

	resp := s.dispatch(context.Background(), command(t, "explode", nil))
	require.Equal(t, protocol.StatusError, resp.Status)
	require.Equal(t, "Unknown command: explode", resp.Message)
}

func TestDispatchSetTempoRoundTrip(t *testing.T) {
	s := newTestServer(t)

	resp := s.dispatch(context.Background(), command(t, protocol.CmdSetTempo, map[string]any{"tempo": 128.5}))
	require.Equal(t, protocol.StatusSuccess, resp.Status)

	var result struct {
		Tempo float64 `json:"tempo"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.Equal(t, 128.5, result.Tempo)

	resp = s.dispatch(context.Background(), command(t, protocol.CmdGetSessionInfo, nil))
	require.Equal(t, protocol.StatusSuccess, resp.Status)
	var info struct {
		Tempo      float64 `json:"tempo"`
		TrackCount int     `json:"track_count"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &info))
	require.Equal(t, 128.5, info.Tempo)
	require.Equal(t, 4, info.TrackCount)
}

func TestDispatchErrorCarriesHostMessage(t *testing.T) {
	s := newTestServer(t)

	resp := s.dispatch(context.Background(), command(t, protocol.CmdGetTrackInfo, map[string]any{"track_index": 99}))
	require.Equal(t, protocol.StatusError, resp.Status)
	require.Equal(t, "Track index out of range", resp.Message)
}

func TestDispatchCapabilities(t *testing.T) {
	s := newTestServer(t)

	resp := s.dispatch(context.Background(), command(t, protocol.CmdGetCapabilities, nil))
	require.Equal(t, protocol.StatusSuccess, resp.Status)

	var caps capabilities
	require.NoError(t, json.Unmarshal(resp.Result, &caps))
	require.Equal(t, protocol.Version, caps.Version)
	require.ElementsMatch(t, protocol.AllCommands(), caps.Commands)
	for _, name := range caps.ModifyingCommands {
		require.True(t, protocol.IsModifying(name), "command %s listed as modifying", name)
	}
}

func TestDispatchDefaultsApplied(t *testing.T) {
	s := newTestServer(t)

	// create_clip without a length uses the 4 beat default.
	resp := s.dispatch(context.Background(), command(t, protocol.CmdCreateClip, map[string]any{
		"track_index": 0,
		"clip_index":  0,
	}))
	require.Equal(t, protocol.StatusSuccess, resp.Status)

	var created struct {
		Length float64 `json:"length"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &created))
	require.Equal(t, 4.0, created.Length)

	// create_midi_track without an index appends.
	resp = s.dispatch(context.Background(), command(t, protocol.CmdCreateMIDITrack, nil))
	require.Equal(t, protocol.StatusSuccess, resp.Status)
	var handle struct {
		Index int `json:"index"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &handle))
	require.Equal(t, 4, handle.Index)
}

func TestDispatchLoadBrowserItem(t *testing.T) {
	s := newTestServer(t)

	resp := s.dispatch(context.Background(), command(t, protocol.CmdLoadBrowserItem, map[string]any{
		"track_index": 0,
		"item_uri":    "query:Synths#Operator",
	}))
	require.Equal(t, protocol.StatusSuccess, resp.Status)

	var loaded struct {
		Loaded   bool   `json:"loaded"`
		ItemName string `json:"item_name"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &loaded))
	require.True(t, loaded.Loaded)
	require.Equal(t, "Operator", loaded.ItemName)

	resp = s.dispatch(context.Background(), command(t, protocol.CmdLoadBrowserItem, map[string]any{
		"track_index": 0,
		"item_uri":    "query:Nope",
	}))
	require.Equal(t, protocol.StatusError, resp.Status)
	require.Equal(t, "Browser item with URI 'query:Nope' not found", resp.Message)
}

func TestHandleConnOverPipe(t *testing.T) {
	s := newTestServer(t)

	client, server := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.handleConn(ctx, server)
	}()

	// Send the command split across two writes to exercise frame
	// accumulation.
	payload := []byte(`{"type": "set_tempo", "params": {"tempo": 95}}`)
	_, err := client.Write(payload[:12])
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	_, err = client.Write(payload[12:])
	require.NoError(t, err)

	require.NoError(t, client.SetReadDeadline(time.Now().Add(5*time.Second)))
	buf := make([]byte, 4096)
	n, err := client.Read(buf)
	require.NoError(t, err)

	var resp protocol.Response
	require.NoError(t, json.Unmarshal(buf[:n], &resp))
	require.Equal(t, protocol.StatusSuccess, resp.Status)

	require.NoError(t, client.Close())
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("connection handler did not exit")
	}
}

func TestHandleConnReleasesWatcher(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	before := runtime.NumGoroutine()
	for i := 0; i < 50; i++ {
		client, server := net.Pipe()
		done := make(chan struct{})
		go func() {
			defer close(done)
			s.handleConn(ctx, server)
		}()
		require.NoError(t, client.Close())
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("connection handler did not exit")
		}
	}

	// Watchers exit with their connection, so the count settles back
	// near the baseline instead of growing by one per disconnect.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && runtime.NumGoroutine() > before+5 {
		time.Sleep(10 * time.Millisecond)
	}
	require.LessOrEqual(t, runtime.NumGoroutine(), before+5)
}

func TestDispatchRecoversHandlerPanic(t *testing.T) {
	s := newTestServer(t)
	s.handlers["broken_query"] = handler{fn: func(json.RawMessage) (any, error) {
		panic("broken handler")
	}}
	s.handlers["broken_mutation"] = handler{modifying: true, fn: func(json.RawMessage) (any, error) {
		panic("broken handler")
	}}

	resp := s.dispatch(context.Background(), command(t, "broken_query", nil))
	require.Equal(t, protocol.StatusError, resp.Status)
	require.Contains(t, resp.Message, "internal error")

	resp = s.dispatch(context.Background(), command(t, "broken_mutation", nil))
	require.Equal(t, protocol.StatusError, resp.Status)
	require.Contains(t, resp.Message, "internal error")

	// Locks were released and the writer loop survived: queries and
	// mutations still work.
	resp = s.dispatch(context.Background(), command(t, protocol.CmdGetSessionInfo, nil))
	require.Equal(t, protocol.StatusSuccess, resp.Status)
	resp = s.dispatch(context.Background(), command(t, protocol.CmdSetTempo, map[string]any{"tempo": 101}))
	require.Equal(t, protocol.StatusSuccess, resp.Status)
}

func TestDispatchTimeSignatureDefaults(t *testing.T) {
	s := newTestServer(t)

	// No params means 4/4 at bar 1, applied to the song signature.
	resp := s.dispatch(context.Background(), command(t, protocol.CmdSetTimeSignature, map[string]any{
		"numerator": 3, "denominator": 4,
	}))
	require.Equal(t, protocol.StatusSuccess, resp.Status)

	resp = s.dispatch(context.Background(), command(t, protocol.CmdGetTimeSignatures, nil))
	require.Equal(t, protocol.StatusSuccess, resp.Status)
	var sigs struct {
		TimeSignatures []struct {
			Numerator   int     `json:"numerator"`
			Denominator int     `json:"denominator"`
			Bar         int     `json:"bar"`
			Time        float64 `json:"time"`
		} `json:"time_signatures"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &sigs))
	require.Len(t, sigs.TimeSignatures, 1)
	require.Equal(t, 3, sigs.TimeSignatures[0].Numerator)
	require.Equal(t, 1, sigs.TimeSignatures[0].Bar)
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/snapshots.sqlite"

	s := New(Config{SnapshotPath: path}, nil)
	cancelCtx, cancel := context.WithCancel(ctx)
	go s.writerLoop(cancelCtx)
	require.NoError(t, s.restoreSnapshot(ctx))

	resp := s.dispatch(ctx, command(t, protocol.CmdSetTempo, map[string]any{"tempo": 133}))
	require.Equal(t, protocol.StatusSuccess, resp.Status)
	cancel()
	require.NoError(t, s.store.Close())

	// A fresh server over the same store comes back at the saved tempo.
	restored := New(Config{SnapshotPath: path}, nil)
	require.NoError(t, restored.restoreSnapshot(ctx))
	require.Equal(t, 133.0, restored.song.Tempo)
	require.NoError(t, restored.store.Close())
}
