package bridge

import (
	"context"
	"encoding/json"
	"net"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"live2mcp/internal/protocol"
)

// stubSurface speaks just enough of the command protocol for the
// session tests: capabilities and tempo answers, an error for anything
// else, and an optional kill switch that drops the connection.
type stubSurface struct {
	ln       net.Listener
	accepted atomic.Int64
	dropNext atomic.Bool
}

func newStubSurface(t *testing.T) *stubSurface {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &stubSurface{ln: ln}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			s.accepted.Add(1)
			go s.serve(conn)
		}
	}()
	return s
}

func (s *stubSurface) addr() string { return s.ln.Addr().String() }

func (s *stubSurface) serve(conn net.Conn) {
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
			if s.dropNext.CompareAndSwap(true, false) {
				return
			}

			var resp protocol.Response
			switch cmd.Type {
			case protocol.CmdGetCapabilities:
				resp, _ = protocol.Success(map[string]any{"version": protocol.Version})
			case protocol.CmdSetTempo:
				var p struct {
					Tempo float64 `json:"tempo"`
				}
				_ = json.Unmarshal(cmd.Params, &p)
				resp, _ = protocol.Success(map[string]any{"tempo": p.Tempo})
			default:
				resp = protocol.Error("Unknown command: " + cmd.Type)
			}
			data, _ := json.Marshal(resp)
			if _, err := conn.Write(data); err != nil {
				return
			}
		}
	}
}

func TestSessionSendCommand(t *testing.T) {
	stub := newStubSurface(t)
	sess := New(stub.addr(), nil)
	defer func() { _ = sess.Close() }()

	var result struct {
		Tempo float64 `json:"tempo"`
	}
	err := sess.SendCommand(context.Background(), protocol.CmdSetTempo, map[string]any{"tempo": 128}, &result)
	require.NoError(t, err)
	require.Equal(t, 128.0, result.Tempo)
	require.Equal(t, int64(1), stub.accepted.Load())
}

func TestSessionSemanticErrorKeepsConnection(t *testing.T) {
	stub := newStubSurface(t)
	sess := New(stub.addr(), nil)
	defer func() { _ = sess.Close() }()

	err := sess.SendCommand(context.Background(), "bogus_command", nil, nil)
	require.Error(t, err)
	require.Equal(t, "Unknown command: bogus_command", err.Error())

	// The error came in a well-formed envelope, so the connection is
	// still good and no reconnect happens.
	err = sess.SendCommand(context.Background(), protocol.CmdSetTempo, map[string]any{"tempo": 100}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), stub.accepted.Load())
}

func TestSessionReconnectsAfterDrop(t *testing.T) {
	stub := newStubSurface(t)
	sess := New(stub.addr(), nil)
	defer func() { _ = sess.Close() }()

	require.NoError(t, sess.Connect(context.Background()))
	require.Equal(t, int64(1), stub.accepted.Load())

	// The stub hangs up mid-request; the session surfaces the failure
	// and reconnects on the next call.
	stub.dropNext.Store(true)
	err := sess.SendCommand(context.Background(), protocol.CmdSetTempo, map[string]any{"tempo": 120}, nil)
	require.Error(t, err)

	err = sess.SendCommand(context.Background(), protocol.CmdSetTempo, map[string]any{"tempo": 120}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(2), stub.accepted.Load())
}

func TestSessionConnectFailureExhaustsRetries(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	sess := New(addr, nil)
	err = sess.Connect(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "connect to control surface")
}
