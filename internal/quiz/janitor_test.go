package quiz

import (
	"context"
	"testing"
	"time"
)

func TestJanitorPurgesOnlyStaleStamps(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	now := time.Now().Unix()
	if err := store.StartSession(ctx, "T1", "old", now-7200); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := store.StartSession(ctx, "T1", "fresh", now); err != nil {
		t.Fatalf("start: %v", err)
	}

	j := NewJanitor(store, time.Hour)
	j.runOnce()

	if _, err := store.SessionStart(ctx, "T1", "old"); err != ErrSessionNotFound {
		t.Fatalf("stale stamp survived: %v", err)
	}
	if _, err := store.SessionStart(ctx, "T1", "fresh"); err != nil {
		t.Fatalf("fresh stamp purged: %v", err)
	}
}
