package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"marketing-quiz-service/internal/domain"
)

// ResultStore keeps result rows in process. Roll numbers are unique. When a
// hub is attached every insert is announced on it.
type ResultStore struct {
	hub   *Hub
	clock func() time.Time

	mu     sync.RWMutex
	rows   []domain.ResultRecord
	byRoll map[string]int
	nextID int64
}

func NewResultStore(hub *Hub) *ResultStore {
	return &ResultStore{
		hub:    hub,
		clock:  time.Now,
		byRoll: make(map[string]int),
		nextID: 1,
	}
}

func (s *ResultStore) Exists(_ context.Context, rollNumber string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byRoll[rollNumber]
	return ok, nil
}

func (s *ResultStore) Insert(ctx context.Context, record *domain.ResultRecord) error {
	s.mu.Lock()
	if _, ok := s.byRoll[record.RollNumber]; ok {
		s.mu.Unlock()
		return domain.ErrDuplicateRollNumber
	}
	record.ID = s.nextID
	s.nextID++
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.clock().UTC()
	}
	s.byRoll[record.RollNumber] = len(s.rows)
	s.rows = append(s.rows, *record)
	s.mu.Unlock()

	if s.hub != nil {
		return s.hub.Publish(ctx, domain.InsertEvent{RollNumber: record.RollNumber})
	}
	return nil
}

// Top orders by score descending; rows with equal scores keep insertion order.
func (s *ResultStore) Top(_ context.Context, n int) ([]domain.ResultRecord, error) {
	s.mu.RLock()
	rows := make([]domain.ResultRecord, len(s.rows))
	copy(rows, s.rows)
	s.mu.RUnlock()

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Score > rows[j].Score })
	if n >= 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows, nil
}

func (s *ResultStore) ByRoll(_ context.Context, rollNumber string) (domain.ResultRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byRoll[rollNumber]
	if !ok {
		return domain.ResultRecord{}, domain.ErrResultNotFound
	}
	return s.rows[i], nil
}

// All returns every row in insertion order.
func (s *ResultStore) All(_ context.Context) ([]domain.ResultRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]domain.ResultRecord, len(s.rows))
	copy(rows, s.rows)
	return rows, nil
}
