package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"marketing-quiz-service/internal/app"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)
	session := app.NewSession("s-1", app.SessionConfig{Bank: sampleBank()})
	defer session.Close()

	store.Add(session)
	if !mr.Exists("quiz:session:s-1") {
		t.Fatalf("expected redis key to be set")
	}
	if got, ok := store.Get("s-1"); !ok || got != session {
		t.Fatalf("expected session in local map")
	}
	live, err := store.Live(context.Background())
	if err != nil || live != 1 {
		t.Fatalf("expected 1 live session, got %d (%v)", live, err)
	}

	mr.FastForward(30 * time.Second)
	if err := store.Touch(context.Background(), "s-1"); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if ttl := mr.TTL("quiz:session:s-1"); ttl != time.Minute {
		t.Fatalf("expected ttl refreshed, got %v", ttl)
	}

	store.Remove("s-1")
	if mr.Exists("quiz:session:s-1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("s-1"); ok {
		t.Fatalf("expected session removed")
	}
}
