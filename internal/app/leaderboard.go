package app

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"marketing-quiz-service/internal/domain"
)

// DefaultLeaderboardLimit is how many rows the rankings show.
const DefaultLeaderboardLimit = 5

// LeaderboardView is the read model over the results store. Every insert
// notification triggers a full top-N re-query that replaces the previous
// projection; nothing is merged incrementally.
type LeaderboardView struct {
	results ResultStore
	feed    InsertFeed
	limit   int
	clock   Clock
	metrics Metrics
	log     *zap.Logger
}

func NewLeaderboardView(results ResultStore, feed InsertFeed, limit int, metrics Metrics, log *zap.Logger) *LeaderboardView {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LeaderboardView{
		results: results,
		feed:    feed,
		limit:   limit,
		clock:   SystemClock(),
		metrics: metrics,
		log:     log,
	}
}

// Limit is the N of the top-N query.
func (v *LeaderboardView) Limit() int {
	return v.limit
}

// Top runs the top-N query once.
func (v *LeaderboardView) Top(ctx context.Context) (domain.Leaderboard, error) {
	records, err := v.results.Top(ctx, v.limit)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("fetch leaderboard: %w", err)
	}
	return domain.NewLeaderboard(records, v.clock.Now()), nil
}

// Subscribe opens the insert feed, then emits a loading snapshot followed by
// every successful refresh. A failed query is logged and the previous snapshot
// stays current. The caller must invoke cancel to release the feed; cancel
// blocks until the subscription is torn down and is safe to call twice.
func (v *LeaderboardView) Subscribe(ctx context.Context) (<-chan domain.Leaderboard, func(), error) {
	ctx, stop := context.WithCancel(ctx)
	events, release, err := v.feed.Subscribe(ctx)
	if err != nil {
		stop()
		return nil, nil, fmt.Errorf("subscribe to result inserts: %w", err)
	}

	out := make(chan domain.Leaderboard, 1)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer close(out)
		defer release()

		if !send(ctx, out, domain.Leaderboard{Loading: true, UpdatedAt: v.clock.Now()}) {
			return
		}
		if lb, ok := v.refresh(ctx); ok && !send(ctx, out, lb) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				if lb, ok := v.refresh(ctx); ok && !send(ctx, out, lb) {
					return
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			stop()
			<-done
		})
	}
	return out, cancel, nil
}

func (v *LeaderboardView) refresh(ctx context.Context) (domain.Leaderboard, bool) {
	lb, err := v.Top(ctx)
	if err != nil {
		if ctx.Err() == nil {
			v.log.Error("leaderboard refresh failed", zap.Error(err))
			v.metrics.LeaderboardRefreshed(false)
		}
		return domain.Leaderboard{}, false
	}
	v.metrics.LeaderboardRefreshed(true)
	return lb, true
}

func send(ctx context.Context, out chan<- domain.Leaderboard, lb domain.Leaderboard) bool {
	select {
	case out <- lb:
		return true
	case <-ctx.Done():
		return false
	}
}
