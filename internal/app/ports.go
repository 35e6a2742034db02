package app

import (
	"context"

	"marketing-quiz-service/internal/domain"
)

// BankRepository loads question banks (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context, quizID string) (domain.QuestionBank, error)
}

// ResultStore is the remote results table.
type ResultStore interface {
	Exists(ctx context.Context, rollNumber string) (bool, error)
	// Insert appends one row and fills its ID and CreatedAt. It returns
	// domain.ErrDuplicateRollNumber if the roll number already has a row.
	Insert(ctx context.Context, record *domain.ResultRecord) error
	// Top returns at most n rows ordered by score descending; tie order is unspecified.
	Top(ctx context.Context, n int) ([]domain.ResultRecord, error)
	ByRoll(ctx context.Context, rollNumber string) (domain.ResultRecord, error)
	All(ctx context.Context) ([]domain.ResultRecord, error)
}

// InsertFeed is the push channel announcing new result rows.
// The caller must invoke the returned cancel function to release the subscription.
type InsertFeed interface {
	Subscribe(ctx context.Context) (<-chan domain.InsertEvent, func(), error)
}

// InsertPublisher announces an insert on feeds that are not driven by the store itself.
type InsertPublisher interface {
	Publish(ctx context.Context, event domain.InsertEvent) error
}

// SessionRepository tracks live sessions (in-memory, Redis, etc).
type SessionRepository interface {
	Add(session *Session)
	Get(sessionID string) (*Session, bool)
	Remove(sessionID string)
}

// SessionActivity is implemented by session repositories that track
// liveness. Touch is called on every inbound client frame.
type SessionActivity interface {
	Touch(ctx context.Context, sessionID string) error
	Live(ctx context.Context) (int, error)
}

// Metrics receives flow counters. Implementations must be safe for concurrent use.
type Metrics interface {
	AttemptStarted()
	PrecheckResult(outcome string)
	SubmissionResult(outcome string)
	LeaderboardRefreshed(ok bool)
}

// Pre-check outcomes reported to Metrics.
const (
	PrecheckAllowed  = "allowed"
	PrecheckBlocked  = "blocked"
	PrecheckFailOpen = "fail_open"
)

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) AttemptStarted()           {}
func (NopMetrics) PrecheckResult(string)     {}
func (NopMetrics) SubmissionResult(string)   {}
func (NopMetrics) LeaderboardRefreshed(bool) {}
