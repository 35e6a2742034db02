package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"

	"marketing-quiz-service/internal/domain"
)

// InsertChannel is the NOTIFY channel raised by the quiz_results insert trigger.
const InsertChannel = "quiz_results_insert"

// Listener turns Postgres LISTEN/NOTIFY into an app.InsertFeed. Each
// subscription holds one pooled connection until it is cancelled.
type Listener struct {
	pool    *pgxpool.Pool
	channel string
	log     *zap.Logger
}

func NewListener(pool *pgxpool.Pool, log *zap.Logger) *Listener {
	if log == nil {
		log = zap.NewNop()
	}
	return &Listener{pool: pool, channel: InsertChannel, log: log}
}

// Subscribe returns after LISTEN has been acknowledged. The caller must
// invoke cancel to give the connection back.
func (l *Listener) Subscribe(ctx context.Context) (<-chan domain.InsertEvent, func(), error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquire listen connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		conn.Release()
		return nil, nil, fmt.Errorf("listen %s: %w", l.channel, err)
	}

	ctx, stop := context.WithCancel(ctx)
	out := make(chan domain.InsertEvent, 8)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer close(out)
		defer l.release(conn)

		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					l.log.Warn("insert listener stopped", zap.Error(err))
				}
				return
			}
			var event domain.InsertEvent
			if err := json.Unmarshal([]byte(n.Payload), &event); err != nil {
				l.log.Warn("malformed insert notification", zap.String("payload", n.Payload), zap.Error(err))
				continue
			}
			select {
			case out <- event:
			default:
				select {
				case <-out:
				default:
				}
				out <- event
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

func (l *Listener) release(conn *pgxpool.Conn) {
	if !conn.Conn().IsClosed() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if _, err := conn.Exec(ctx, "UNLISTEN *"); err != nil {
			l.log.Debug("unlisten failed", zap.Error(err))
		}
		cancel()
	}
	conn.Release()
}
