package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"marketing-quiz-service/internal/domain"
)

func TestBankRepositoryCaches(t *testing.T) {
	loader := &countingLoader{BankLoader: NewStaticBankLoader(sampleBank())}
	repo := NewBankRepository(loader, time.Minute)

	if _, err := repo.GetBank(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get bank: %v", err)
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls.Load())
	}

	if _, err := repo.GetBank(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get bank 2: %v", err)
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls.Load())
	}
}

func TestBankRepositoryExpires(t *testing.T) {
	loader := &countingLoader{BankLoader: NewStaticBankLoader(sampleBank())}
	repo := NewBankRepository(loader, time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	if _, err := repo.GetBank(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get bank: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := repo.GetBank(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get bank after expiry: %v", err)
	}
	if loader.calls.Load() != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls.Load())
	}
}

func TestBankRepositoryZeroTTLCachesForever(t *testing.T) {
	loader := &countingLoader{BankLoader: NewStaticBankLoader(sampleBank())}
	repo := NewBankRepository(loader, 0)
	now := time.Now()
	repo.clock = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		now = now.Add(24 * time.Hour)
		if _, err := repo.GetBank(context.Background(), "quiz-1"); err != nil {
			t.Fatalf("get bank: %v", err)
		}
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected a single load, got %d", loader.calls.Load())
	}

	repo.Invalidate("quiz-1")
	if _, err := repo.GetBank(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get bank after invalidate: %v", err)
	}
	if loader.calls.Load() != 2 {
		t.Fatalf("expected reload after invalidate, got %d", loader.calls.Load())
	}
}

func TestBankRepositorySharesConcurrentLoads(t *testing.T) {
	release := make(chan struct{})
	loader := &countingLoader{BankLoader: NewStaticBankLoader(sampleBank()), gate: release}
	repo := NewBankRepository(loader, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.GetBank(context.Background(), "quiz-1"); err != nil {
				t.Errorf("get bank: %v", err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if loader.calls.Load() != 1 {
		t.Fatalf("expected one shared load, got %d", loader.calls.Load())
	}
}

func TestBankRepositoryUnknownQuiz(t *testing.T) {
	repo := NewBankRepository(NewStaticBankLoader(sampleBank()), time.Minute)
	if _, err := repo.GetBank(context.Background(), "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

type countingLoader struct {
	BankLoader
	gate  chan struct{}
	calls atomic.Int32
}

func (l *countingLoader) LoadBank(ctx context.Context, quizID string) (domain.QuestionBank, error) {
	l.calls.Add(1)
	if l.gate != nil {
		<-l.gate
	}
	return l.BankLoader.LoadBank(ctx, quizID)
}

func sampleBank() domain.QuestionBank {
	return domain.QuestionBank{
		ID:    "quiz-1",
		Title: "Sample",
		Questions: []domain.Question{
			{ID: 1, Text: "What is 2 + 2?", Options: []string{"3", "4", "5", "6"}, Answer: "4"},
			{ID: 2, Text: "What is 3 + 3?", Options: []string{"5", "6", "7", "8"}, Answer: "6"},
		},
	}
}
