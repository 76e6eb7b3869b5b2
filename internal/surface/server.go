// Package surface runs the host-side control daemon: a TCP server that
// accepts JSON commands, applies them to the song graph and answers
// with success or error envelopes.
package surface

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"live2mcp/internal/browser"
	"live2mcp/internal/protocol"
	"live2mcp/internal/song"
	"live2mcp/internal/store"
)

const readBufferSize = 8192

// Config holds the daemon's listen address and snapshot settings.
type Config struct {
	Host string
	Port int

	// SnapshotPath enables persistence when non-empty.
	SnapshotPath string
	SnapshotKeep int
}

// Server owns the song graph and serves the command protocol over TCP.
type Server struct {
	cfg    Config
	logger *slog.Logger

	// mu guards the song graph: RLock for queries on connection
	// goroutines, Lock for mutations on the writer loop.
	mu      sync.RWMutex
	song    *song.Song
	library *browser.Browser
	store   *store.SQLiteStore

	tasks    chan task
	handlers map[string]handler
}

// New builds a server around a fresh song. The logger may be nil.
func New(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Host == "" {
		cfg.Host = protocol.DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = protocol.DefaultPort
	}
	if cfg.SnapshotKeep <= 0 {
		cfg.SnapshotKeep = 10
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		song:    song.New(),
		library: browser.New(),
		tasks:   make(chan task),
	}
	if cfg.SnapshotPath != "" {
		s.store = store.NewSQLiteStore(cfg.SnapshotPath)
	}
	s.handlers = s.commandTable()
	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
}

// Run serves until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.restoreSnapshot(ctx); err != nil {
		return err
	}
	defer func() {
		if s.store != nil {
			_ = s.store.Close()
		}
	}()

	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.Addr(), err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.writerLoop(ctx)
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	s.logger.Info("control surface listening", "addr", s.Addr())

	var wg sync.WaitGroup
	for {
		conn, err := ln.Accept()
		if err != nil {
			wg.Wait()
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()

	remote := conn.RemoteAddr().String()
	s.logger.Info("client connected", "remote", remote)

	// The watcher must not outlive the connection, or every disconnect
	// leaks a goroutine until shutdown.
	connDone := make(chan struct{})
	defer close(connDone)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-connDone:
		}
	}()

	var acc protocol.Accumulator
	buf := make([]byte, readBufferSize)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Warn("read error", "remote", remote, "error", err)
			}
			s.logger.Info("client disconnected", "remote", remote)
			return
		}
		acc.Append(buf[:n])

		for {
			var cmd protocol.Command
			ok, err := acc.Next(&cmd)
			if err != nil {
				s.logger.Warn("malformed command", "remote", remote, "error", err)
				s.writeResponse(conn, protocol.Error(err.Error()))
				break
			}
			if !ok {
				break
			}

			resp := s.dispatch(ctx, cmd)
			if !s.writeResponse(conn, resp) {
				return
			}
		}
	}
}

func (s *Server) writeResponse(conn net.Conn, resp protocol.Response) bool {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("marshal response", "error", err)
		return false
	}
	if _, err := conn.Write(data); err != nil {
		s.logger.Warn("write response", "error", err)
		return false
	}
	return true
}

// restoreSnapshot rebuilds the song from the latest persisted state.
func (s *Server) restoreSnapshot(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Init(ctx); err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}

	snap, err := s.store.LatestSnapshot(ctx)
	if errors.Is(err, store.ErrNoSnapshot) {
		return nil
	}
	if err != nil {
		return err
	}

	restored := &song.Song{}
	if err := json.Unmarshal(snap.Payload, restored); err != nil {
		s.logger.Warn("discarding unreadable snapshot", "id", snap.ID, "error", err)
		return nil
	}
	restored.Restore()
	s.song = restored
	s.logger.Info("song restored from snapshot", "id", snap.ID, "created_at", snap.CreatedAt)
	return nil
}

// saveSnapshot persists the song after a successful mutation. Failures
// are logged, not surfaced; the mutation itself already succeeded.
func (s *Server) saveSnapshot(ctx context.Context) {
	if s.store == nil {
		return
	}
	payload, err := json.Marshal(s.song)
	if err != nil {
		s.logger.Error("marshal snapshot", "error", err)
		return
	}
	id, err := s.store.SaveSnapshot(ctx, payload)
	if err != nil {
		s.logger.Error("save snapshot", "error", err)
		return
	}
	if err := s.store.Prune(ctx, s.cfg.SnapshotKeep); err != nil {
		s.logger.Warn("prune snapshots", "error", err)
	}
	s.logger.Debug("snapshot saved", "id", id)
}
