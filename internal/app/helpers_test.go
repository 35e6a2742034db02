package app_test

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"marketing-quiz-service/internal/app"
	"marketing-quiz-service/internal/bank"
	"marketing-quiz-service/internal/domain"
	"marketing-quiz-service/internal/infra/memory"
)

var testDelays = app.Delays{Feedback: 1200 * time.Millisecond, Result: 1500 * time.Millisecond}

// fakeClock fires timers synchronously from Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *fakeClock
	at    time.Time
	f     func()
	done  bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) app.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// Advance moves time forward and runs every timer that came due, in order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	pending := c.timers[:0]
	for _, t := range c.timers {
		switch {
		case t.done:
		case !t.at.After(c.now):
			t.done = true
			due = append(due, t)
		default:
			pending = append(pending, t)
		}
	}
	c.timers = pending
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.f()
	}
}

// stubStore wraps the in-memory store with failure and latency hooks.
type stubStore struct {
	*memory.ResultStore

	mu         sync.Mutex
	existsErr  error
	insertErr  error
	topErr     error
	existsGate chan struct{}
	insertGate chan struct{}

	topCalls atomic.Int32
}

func (s *stubStore) Exists(ctx context.Context, rollNumber string) (bool, error) {
	s.mu.Lock()
	gate, err := s.existsGate, s.existsErr
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	if err != nil {
		return false, err
	}
	return s.ResultStore.Exists(ctx, rollNumber)
}

func (s *stubStore) Insert(ctx context.Context, record *domain.ResultRecord) error {
	s.mu.Lock()
	gate, err := s.insertGate, s.insertErr
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err != nil {
		return err
	}
	return s.ResultStore.Insert(ctx, record)
}

func (s *stubStore) Top(ctx context.Context, n int) ([]domain.ResultRecord, error) {
	s.topCalls.Add(1)
	s.mu.Lock()
	err := s.topErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.ResultStore.Top(ctx, n)
}

func (s *stubStore) set(f func(s *stubStore)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s)
}

// recordingMetrics counts every call.
type recordingMetrics struct {
	mu          sync.Mutex
	started     int
	prechecks   map[string]int
	submissions map[string]int
	refreshes   map[bool]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		prechecks:   map[string]int{},
		submissions: map[string]int{},
		refreshes:   map[bool]int{},
	}
}

func (m *recordingMetrics) AttemptStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started++
}

func (m *recordingMetrics) PrecheckResult(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prechecks[outcome]++
}

func (m *recordingMetrics) SubmissionResult(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions[outcome]++
}

func (m *recordingMetrics) LeaderboardRefreshed(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshes[ok]++
}

func (m *recordingMetrics) precheck(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prechecks[outcome]
}

func (m *recordingMetrics) submission(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submissions[outcome]
}

type harness struct {
	clock   *fakeClock
	store   *stubStore
	hub     *memory.Hub
	bank    domain.QuestionBank
	metrics *recordingMetrics
	service *app.QuizService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	hub := memory.NewHub()
	store := &stubStore{ResultStore: memory.NewResultStore(hub)}
	clock := newFakeClock()
	metrics := newRecordingMetrics()
	b := bank.Marketing()

	banks := memory.NewBankRepository(memory.NewStaticBankLoader(b), 0)
	gateway := app.NewResultGateway(store, nil, metrics, zap.NewNop())
	board := app.NewLeaderboardView(store, hub, app.DefaultLeaderboardLimit, metrics, zap.NewNop())
	service := app.NewQuizService(memory.NewSessionStore(), banks, gateway, board, app.Options{
		QuizID:  b.ID,
		Clock:   clock,
		Delays:  testDelays,
		Metrics: metrics,
		Log:     zap.NewNop(),
	})
	return &harness{clock: clock, store: store, hub: hub, bank: b, metrics: metrics, service: service}
}

func (h *harness) open(t *testing.T) *app.Session {
	t.Helper()
	session, err := h.service.NewSession(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { h.service.EndSession(session.ID()) })
	return session
}

// register moves a fresh session to the quiz screen.
func (h *harness) register(t *testing.T, s *app.Session, identity domain.Identity) {
	t.Helper()
	require.NoError(t, s.Start())
	require.NoError(t, s.Register(identity))
	waitScreen(t, s, domain.ScreenQuiz)
}

// answerAll answers every question, the first correct of them right.
func (h *harness) answerAll(t *testing.T, s *app.Session, correct int) {
	t.Helper()
	for i, q := range h.bank.Questions {
		option := q.Answer
		if i >= correct {
			option = wrongOption(q)
		}
		require.NoError(t, s.Answer(q.ID, option), "question %d", q.ID)
		h.clock.Advance(testDelays.Feedback)
	}
}

func waitScreen(t *testing.T, s *app.Session, want domain.Screen) {
	t.Helper()
	require.Eventually(t, func() bool { return s.Snapshot().Screen == want },
		time.Second, 5*time.Millisecond, "screen never became %s (now %s)", want, s.Snapshot().Screen)
}

func waitSaved(t *testing.T, s *app.Session) {
	t.Helper()
	require.Eventually(t, func() bool {
		status := s.Snapshot().SaveStatus
		return status == domain.SaveSuccess || status == domain.SaveError
	}, time.Second, 5*time.Millisecond)
}

func wrongOption(q domain.Question) string {
	for _, o := range q.Options {
		if o != q.Answer {
			return o
		}
	}
	return ""
}

func identity(roll string) domain.Identity {
	return domain.Identity{FullName: "Ada Lovelace", EmailID: "ada@example.com", RollNumber: roll}
}
