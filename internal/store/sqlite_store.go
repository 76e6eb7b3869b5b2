// Package store persists song snapshots so a restarted control surface
// can pick up where it left off.
package store

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNoSnapshot is returned when the store holds no snapshots yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

// Snapshot is one persisted song state.
type Snapshot struct {
	ID        string
	CreatedAt time.Time
	Payload   []byte
}

type SQLiteStore struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return err
	}

	schema := `
CREATE TABLE IF NOT EXISTS snapshots (
  snapshot_id TEXT PRIMARY KEY,
  created_at_unix INTEGER NOT NULL,
  payload TEXT NOT NULL
);

-- LatestSnapshot and Prune both order by creation time.
CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at_unix);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// SaveSnapshot stores a serialized song state and returns its id.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, payload []byte) (string, error) {
	db, err := s.ensureDB(ctx)
	if err != nil {
		return "", err
	}
	if len(payload) == 0 {
		return "", errors.New("empty snapshot payload")
	}

	id := uuid.NewString()
	_, err = db.ExecContext(
		ctx,
		`INSERT INTO snapshots(snapshot_id, created_at_unix, payload) VALUES(?, ?, ?)`,
		id,
		time.Now().Unix(),
		string(payload),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// LatestSnapshot returns the most recently saved snapshot.
func (s *SQLiteStore) LatestSnapshot(ctx context.Context) (Snapshot, error) {
	db, err := s.ensureDB(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	var (
		snap      Snapshot
		createdAt int64
		payload   string
	)
	row := db.QueryRowContext(
		ctx,
		`SELECT snapshot_id, created_at_unix, payload
		 FROM snapshots
		 ORDER BY created_at_unix DESC, rowid DESC LIMIT 1`,
	)
	if err := row.Scan(&snap.ID, &createdAt, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, ErrNoSnapshot
		}
		return Snapshot{}, err
	}
	snap.CreatedAt = time.Unix(createdAt, 0)
	snap.Payload = []byte(payload)
	return snap, nil
}

// Prune deletes all but the newest keep snapshots.
func (s *SQLiteStore) Prune(ctx context.Context, keep int) error {
	db, err := s.ensureDB(ctx)
	if err != nil {
		return err
	}
	if keep < 0 {
		keep = 0
	}

	_, err = db.ExecContext(
		ctx,
		`DELETE FROM snapshots WHERE snapshot_id NOT IN (
		   SELECT snapshot_id FROM snapshots
		   ORDER BY created_at_unix DESC, rowid DESC LIMIT ?
		 )`,
		keep,
	)
	return err
}

// Count reports how many snapshots are stored.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	db, err := s.ensureDB(ctx)
	if err != nil {
		return 0, err
	}

	var n int64
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n)
	return n, err
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) ensureDB(ctx context.Context) (*sql.DB, error) {
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, errors.New("sqlite db not initialized")
	}
	return s.db, nil
}
