// Package bridge maintains the TCP session between the MCP server and
// the control surface daemon.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"live2mcp/internal/protocol"
)

const (
	connectAttempts = 3
	connectBackoff  = time.Second

	// Queries answer quickly; mutations may wait on the surface writer
	// loop, so they get extra headroom.
	queryTimeout  = 10 * time.Second
	mutateTimeout = 15 * time.Second
)

// Session is a lazily connected client for the surface protocol. One
// request is in flight at a time; any transport failure drops the
// cached connection so the next call reconnects.
type Session struct {
	addr   string
	logger *slog.Logger

	mu   sync.Mutex
	conn net.Conn
}

// New builds a session against addr, e.g. "localhost:9877". The logger
// may be nil.
func New(addr string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{addr: addr, logger: logger}
}

// Connect establishes and validates the connection if there is none.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.ensureConn(ctx)
	return err
}

// Close drops the cached connection.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// SendCommand sends one command and decodes the result into out, which
// may be nil when the caller only cares about success. Error envelopes
// from the surface come back as errors without dropping the connection.
func (s *Session) SendCommand(ctx context.Context, cmdType string, params any, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := s.ensureConn(ctx)
	if err != nil {
		return err
	}

	resp, err := s.roundTrip(ctx, conn, cmdType, params)
	if err != nil {
		// Transport failure: poison the cached connection.
		_ = conn.Close()
		s.conn = nil
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(resp.Result, out)
}

func (s *Session) roundTrip(ctx context.Context, conn net.Conn, cmdType string, params any) (protocol.Response, error) {
	cmd := protocol.Command{Type: cmdType}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return protocol.Response{}, err
		}
		cmd.Params = raw
	}
	data, err := json.Marshal(cmd)
	if err != nil {
		return protocol.Response{}, err
	}

	timeout := queryTimeout
	if protocol.IsModifying(cmdType) {
		timeout = mutateTimeout
	}
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return protocol.Response{}, err
	}

	s.logger.Debug("sending command", "type", cmdType)
	if _, err := conn.Write(data); err != nil {
		return protocol.Response{}, fmt.Errorf("send %s: %w", cmdType, err)
	}

	var acc protocol.Accumulator
	buf := make([]byte, 8192)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return protocol.Response{}, fmt.Errorf("receive %s response: %w", cmdType, err)
		}
		acc.Append(buf[:n])

		var resp protocol.Response
		ok, err := acc.Next(&resp)
		if err != nil {
			return protocol.Response{}, fmt.Errorf("decode %s response: %w", cmdType, err)
		}
		if ok {
			return resp, nil
		}
	}
}

// ensureConn returns the cached connection, dialing and validating a
// new one when needed. Callers hold s.mu.
func (s *Session) ensureConn(ctx context.Context) (net.Conn, error) {
	if s.conn != nil {
		return s.conn, nil
	}

	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(connectBackoff):
			}
		}

		conn, err := s.dial(ctx)
		if err != nil {
			lastErr = err
			s.logger.Warn("connect attempt failed", "attempt", attempt, "addr", s.addr, "error", err)
			continue
		}

		// Validate with a round trip before trusting the connection.
		if _, err := s.roundTrip(ctx, conn, protocol.CmdGetCapabilities, nil); err != nil {
			lastErr = err
			_ = conn.Close()
			s.logger.Warn("connection validation failed", "attempt", attempt, "error", err)
			continue
		}

		s.logger.Info("connected to control surface", "addr", s.addr)
		s.conn = conn
		return conn, nil
	}
	return nil, fmt.Errorf("connect to control surface at %s: %w", s.addr, lastErr)
}

func (s *Session) dial(ctx context.Context) (net.Conn, error) {
	var d net.Dialer
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return d.DialContext(dialCtx, "tcp", s.addr)
}
