package memory

import (
	"context"
	"testing"

	"marketing-quiz-service/internal/app"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	session := app.NewSession("s-1", app.SessionConfig{Bank: sampleBank()})
	defer session.Close()

	store.Add(session)
	got, ok := store.Get("s-1")
	if !ok || got != session {
		t.Fatalf("expected session present")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", store.Len())
	}
	if err := store.Touch(context.Background(), "s-1"); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if live, err := store.Live(context.Background()); err != nil || live != 1 {
		t.Fatalf("expected 1 live session, got %d (%v)", live, err)
	}

	store.Remove("s-1")
	if _, ok := store.Get("s-1"); ok {
		t.Fatalf("expected session removed")
	}
	store.Remove("s-1")
}
