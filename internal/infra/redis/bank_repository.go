package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"marketing-quiz-service/internal/domain"
	"marketing-quiz-service/internal/infra/memory"
)

// BankRepository caches whole question banks in Redis as JSON under
// quiz:{quizID}:bank and falls back to a loader on a miss. A Redis outage
// degrades to loading from the source on every call.
type BankRepository struct {
	client *redis.Client
	loader memory.BankLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewBankRepository(client *redis.Client, loader memory.BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *BankRepository) GetBank(ctx context.Context, quizID string) (domain.QuestionBank, error) {
	if bank, ok := r.cached(ctx, quizID); ok {
		return bank, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check in case another caller filled it.
		if bank, ok := r.cached(ctx, quizID); ok {
			return bank, nil
		}
		bank, err := r.loader.LoadBank(ctx, quizID)
		if err != nil {
			return domain.QuestionBank{}, err
		}
		if raw, err := json.Marshal(bank); err == nil {
			_ = r.client.Set(ctx, bankKey(quizID), raw, r.ttlWithJitter()).Err()
		}
		return bank, nil
	})
	if err != nil {
		return domain.QuestionBank{}, err
	}
	return result.(domain.QuestionBank), nil
}

// Invalidate removes the cached bank so the next read reloads it.
func (r *BankRepository) Invalidate(ctx context.Context, quizID string) error {
	return r.client.Del(ctx, bankKey(quizID)).Err()
}

func (r *BankRepository) cached(ctx context.Context, quizID string) (domain.QuestionBank, bool) {
	raw, err := r.client.Get(ctx, bankKey(quizID)).Bytes()
	if err != nil {
		return domain.QuestionBank{}, false
	}
	var bank domain.QuestionBank
	if err := json.Unmarshal(raw, &bank); err != nil || bank.Len() == 0 {
		return domain.QuestionBank{}, false
	}
	return bank, true
}

func bankKey(quizID string) string {
	return "quiz:" + quizID + ":bank"
}

// ttlWithJitter returns 0 (no expiry) for a non-positive TTL.
func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
