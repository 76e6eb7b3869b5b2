package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
)

func TestSQLiteStore_SnapshotLifecycle(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "snapshots.sqlite")
	st := NewSQLiteStore(dbPath)
	defer func() { _ = st.Close() }()

	if err := st.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if _, err := st.LatestSnapshot(ctx); err != ErrNoSnapshot {
		t.Fatalf("expected ErrNoSnapshot on empty store, got %v", err)
	}

	id1, err := st.SaveSnapshot(ctx, []byte(`{"tempo":120}`))
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if id1 == "" {
		t.Fatal("expected non-empty snapshot id")
	}

	id2, err := st.SaveSnapshot(ctx, []byte(`{"tempo":140}`))
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if id2 == id1 {
		t.Fatalf("expected distinct snapshot ids, got %q twice", id1)
	}

	snap, err := st.LatestSnapshot(ctx)
	if err != nil {
		t.Fatalf("LatestSnapshot failed: %v", err)
	}
	if snap.ID != id2 {
		t.Fatalf("expected latest snapshot %q, got %q", id2, snap.ID)
	}
	if string(snap.Payload) != `{"tempo":140}` {
		t.Fatalf("unexpected payload: %s", snap.Payload)
	}
	if snap.CreatedAt.IsZero() {
		t.Fatal("expected creation time to be set")
	}
}

func TestSQLiteStore_SaveSnapshot_RejectsEmptyPayload(t *testing.T) {
	ctx := context.Background()
	st := NewSQLiteStore(filepath.Join(t.TempDir(), "snapshots.sqlite"))
	defer func() { _ = st.Close() }()

	if err := st.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if _, err := st.SaveSnapshot(ctx, nil); err == nil {
		t.Fatal("expected error for empty payload, got nil")
	}
}

func TestSQLiteStore_Prune(t *testing.T) {
	ctx := context.Background()
	st := NewSQLiteStore(filepath.Join(t.TempDir(), "snapshots.sqlite"))
	defer func() { _ = st.Close() }()

	if err := st.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	var lastID string
	for i := 0; i < 5; i++ {
		id, err := st.SaveSnapshot(ctx, []byte(fmt.Sprintf(`{"tempo":%d}`, 100+i)))
		if err != nil {
			t.Fatalf("SaveSnapshot failed: %v", err)
		}
		lastID = id
	}

	if err := st.Prune(ctx, 2); err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	n, err := st.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 snapshots after prune, got %d", n)
	}

	// pruning keeps the newest snapshots
	snap, err := st.LatestSnapshot(ctx)
	if err != nil {
		t.Fatalf("LatestSnapshot failed: %v", err)
	}
	if snap.ID != lastID {
		t.Fatalf("expected latest snapshot %q to survive prune, got %q", lastID, snap.ID)
	}

	if err := st.Prune(ctx, 0); err != nil {
		t.Fatalf("Prune to zero failed: %v", err)
	}
	if _, err := st.LatestSnapshot(ctx); err != ErrNoSnapshot {
		t.Fatalf("expected ErrNoSnapshot after pruning all, got %v", err)
	}
}

func TestSQLiteStore_ConcurrentInitClose(t *testing.T) {
	ctx := context.Background()
	st := NewSQLiteStore(filepath.Join(t.TempDir(), "snapshots.sqlite"))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = st.ensureDB(ctx)
	}()
	go func() {
		defer wg.Done()
		_ = st.Close()
	}()
	wg.Wait()

	// store should be safely closed now; further Close is no-op
	if err := st.Close(); err != nil {
		t.Fatalf("unexpected error on second Close: %v", err)
	}
}
