package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"marketing-quiz-service/internal/domain"
)

// DefaultFeedChannel is the pub/sub channel carrying insert notifications.
const DefaultFeedChannel = "quiz:results:inserted"

// Feed announces result inserts over Redis pub/sub so every instance's
// leaderboard viewers refresh. It implements app.InsertFeed and
// app.InsertPublisher.
type Feed struct {
	client  *redis.Client
	channel string
	log     *zap.Logger
}

func NewFeed(client *redis.Client, channel string, log *zap.Logger) *Feed {
	if channel == "" {
		channel = DefaultFeedChannel
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Feed{client: client, channel: channel, log: log}
}

func (f *Feed) Publish(ctx context.Context, event domain.InsertEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := f.client.Publish(ctx, f.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", f.channel, err)
	}
	return nil
}

// Subscribe returns once Redis has confirmed the subscription, so no insert
// published afterwards is missed. The caller must invoke cancel.
func (f *Feed) Subscribe(ctx context.Context) (<-chan domain.InsertEvent, func(), error) {
	pubsub := f.client.Subscribe(ctx, f.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", f.channel, err)
	}

	out := make(chan domain.InsertEvent, 8)
	done := make(chan struct{})
	messages := pubsub.Channel()

	go func() {
		defer close(done)
		defer close(out)
		for msg := range messages {
			var event domain.InsertEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				f.log.Warn("malformed insert notification", zap.String("payload", msg.Payload), zap.Error(err))
				continue
			}
			select {
			case out <- event:
			default:
				// Any event triggers the same re-query; keep the newest.
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
			_ = pubsub.Close()
			<-done
		})
	}
	return out, cancel, nil
}
