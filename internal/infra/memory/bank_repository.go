package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"marketing-quiz-service/internal/domain"
)

// BankLoader fetches a question bank from its source of truth (file, Postgres).
type BankLoader interface {
	LoadBank(ctx context.Context, quizID string) (domain.QuestionBank, error)
}

// BankRepository caches banks in process. Concurrent misses for the same id
// share one load. A non-positive TTL caches forever.
type BankRepository struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedBank
}

type cachedBank struct {
	bank      domain.QuestionBank
	expiresAt time.Time
}

func (c cachedBank) fresh(now time.Time) bool {
	return c.expiresAt.IsZero() || c.expiresAt.After(now)
}

func NewBankRepository(loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedBank),
	}
}

func (r *BankRepository) GetBank(ctx context.Context, quizID string) (domain.QuestionBank, error) {
	if bank, ok := r.cached(quizID); ok {
		return bank, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		if bank, ok := r.cached(quizID); ok {
			return bank, nil
		}
		bank, err := r.loader.LoadBank(ctx, quizID)
		if err != nil {
			return domain.QuestionBank{}, err
		}

		r.mu.Lock()
		entry := cachedBank{bank: bank}
		if r.ttl > 0 {
			entry.expiresAt = r.clock().Add(r.ttlWithJitter())
		}
		r.cache[quizID] = entry
		r.mu.Unlock()
		return bank, nil
	})
	if err != nil {
		return domain.QuestionBank{}, err
	}
	return result.(domain.QuestionBank), nil
}

// Invalidate drops the cached copy of quizID.
func (r *BankRepository) Invalidate(quizID string) {
	r.mu.Lock()
	delete(r.cache, quizID)
	r.mu.Unlock()
}

func (r *BankRepository) cached(quizID string) (domain.QuestionBank, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[quizID]
	if !ok || !entry.fresh(now) {
		return domain.QuestionBank{}, false
	}
	return entry.bank, true
}

// ttlWithJitter adds up to 10% so entries loaded together expire apart.
// Called with r.mu held.
func (r *BankRepository) ttlWithJitter() time.Duration {
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticBankLoader serves banks from a fixed map (bundled bank, tests, demos).
type StaticBankLoader struct {
	banks map[string]domain.QuestionBank
}

func NewStaticBankLoader(banks ...domain.QuestionBank) *StaticBankLoader {
	m := make(map[string]domain.QuestionBank, len(banks))
	for _, b := range banks {
		m[b.ID] = b
	}
	return &StaticBankLoader{banks: m}
}

func (l *StaticBankLoader) LoadBank(_ context.Context, quizID string) (domain.QuestionBank, error) {
	if bank, ok := l.banks[quizID]; ok {
		return bank, nil
	}
	return domain.QuestionBank{}, domain.ErrQuizNotFound
}
