package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"marketing-quiz-service/internal/domain"
)

// ResultGateway turns a finished attempt into one row in the results store.
type ResultGateway struct {
	store     ResultStore
	publisher InsertPublisher
	clock     Clock
	metrics   Metrics
	log       *zap.Logger
}

// NewResultGateway wires the gateway. publisher may be nil when the store's
// own feed announces inserts (Postgres NOTIFY trigger, in-memory hub).
func NewResultGateway(store ResultStore, publisher InsertPublisher, metrics Metrics, log *zap.Logger) *ResultGateway {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ResultGateway{
		store:     store,
		publisher: publisher,
		clock:     SystemClock(),
		metrics:   metrics,
		log:       log,
	}
}

// CanAttempt reports whether rollNumber may start the quiz. An existing row
// blocks; a missing row or a failed lookup allows (fail-open).
func (g *ResultGateway) CanAttempt(ctx context.Context, rollNumber string) bool {
	exists, err := g.store.Exists(ctx, rollNumber)
	if err != nil {
		g.log.Warn("roll number check failed, allowing attempt",
			zap.String("roll_number", rollNumber), zap.Error(err))
		g.metrics.PrecheckResult(PrecheckFailOpen)
		return true
	}
	if exists {
		g.metrics.PrecheckResult(PrecheckBlocked)
		return false
	}
	g.metrics.PrecheckResult(PrecheckAllowed)
	return true
}

// Submit scores answers against bank and inserts exactly one row. There is no
// retry; the caller shows the error and keeps the locally computed score.
func (g *ResultGateway) Submit(ctx context.Context, identity domain.Identity, answers domain.AnswerSet, bank domain.QuestionBank) (domain.ResultRecord, error) {
	record := domain.NewResultRecord(identity, domain.Evaluate(answers, bank))
	record.CreatedAt = g.clock.Now().UTC()

	if err := g.store.Insert(ctx, &record); err != nil {
		g.metrics.SubmissionResult("error")
		if errors.Is(err, domain.ErrDuplicateRollNumber) {
			g.log.Warn("duplicate result rejected by store", zap.String("roll_number", identity.RollNumber))
		} else {
			g.log.Error("result submission failed", zap.String("roll_number", identity.RollNumber), zap.Error(err))
		}
		return record, fmt.Errorf("submit result: %w", err)
	}
	g.metrics.SubmissionResult("success")
	g.log.Info("result saved",
		zap.String("roll_number", record.RollNumber),
		zap.Int("score", record.Score),
		zap.Int("percentage", record.Percentage),
		zap.String("badge", string(record.Badge)))

	if g.publisher != nil {
		if err := g.publisher.Publish(ctx, domain.InsertEvent{RollNumber: record.RollNumber}); err != nil {
			// The row is stored; viewers just miss this refresh.
			g.log.Warn("insert notification failed", zap.Error(err))
		}
	}
	return record, nil
}

// Result returns the stored row for rollNumber.
func (g *ResultGateway) Result(ctx context.Context, rollNumber string) (domain.ResultRecord, error) {
	record, err := g.store.ByRoll(ctx, rollNumber)
	if err != nil {
		return domain.ResultRecord{}, fmt.Errorf("load result %q: %w", rollNumber, err)
	}
	return record, nil
}

// Results returns every stored row.
func (g *ResultGateway) Results(ctx context.Context) ([]domain.ResultRecord, error) {
	records, err := g.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return records, nil
}
