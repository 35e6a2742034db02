package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"marketing-quiz-service/internal/domain"
)

// submitTimeout bounds a result insert that outlives its session.
const submitTimeout = 30 * time.Second

// LeaderboardSource feeds live rankings into the leaderboard screen.
type LeaderboardSource interface {
	Subscribe(ctx context.Context) (<-chan domain.Leaderboard, func(), error)
}

// View is the snapshot a client renders for the current screen.
type View struct {
	SessionID   string               `json:"sessionId"`
	Screen      domain.Screen        `json:"screen"`
	Checking    bool                 `json:"checking"`
	Identity    *domain.Identity     `json:"identity,omitempty"`
	Question    *domain.QuestionView `json:"question,omitempty"`
	Answered    int                  `json:"answered"`
	Feedback    *Feedback            `json:"feedback,omitempty"`
	Score       *domain.Score        `json:"score,omitempty"`
	Message     string               `json:"message,omitempty"`
	SaveStatus  domain.SaveStatus    `json:"saveStatus"`
	Leaderboard *domain.Leaderboard  `json:"leaderboard,omitempty"`
}

// Feedback is shown after an option is picked, until the question advances.
type Feedback struct {
	QuestionID int    `json:"questionId"`
	Option     string `json:"option"`
	Correct    bool   `json:"correct"`
	Answer     string `json:"answer"`
}

// attempt is one run through the quiz. Start always creates a fresh one, so
// nothing carries over from a previous run.
type attempt struct {
	identity domain.Identity
	index    int
	answers  domain.AnswerSet
	feedback *Feedback
	save     domain.SaveStatus
	result   *domain.Score
}

// SessionConfig carries a session's collaborators.
type SessionConfig struct {
	Bank        domain.QuestionBank
	Gateway     *ResultGateway
	Leaderboard LeaderboardSource
	Clock       Clock
	Delays      Delays
	Metrics     Metrics
	Log         *zap.Logger
}

// Session is the screen state machine for one connected participant:
//
//	landing -> info -> quiz -> processing -> result -> landing
//	info -> blocked -> landing
//	landing -> leaderboard -> landing
//
// Remote calls run as tasks whose completion is fed back in. Every screen
// change bumps gen, so a completion that arrives after the user moved on is
// dropped.
type Session struct {
	id          string
	bank        domain.QuestionBank
	gateway     *ResultGateway
	leaderboard LeaderboardSource
	clock       Clock
	delays      Delays
	metrics     Metrics
	log         *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	tasks  sync.WaitGroup

	mu           sync.Mutex
	screen       domain.Screen
	gen          uint64
	checking     bool
	attempt      *attempt
	board        *domain.Leaderboard
	releaseBoard func()
	timer        Timer
	closed       bool
	subscribers  map[chan View]struct{}
}

// NewSession creates a session on the landing screen.
func NewSession(id string, cfg SessionConfig) *Session {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NopMetrics{}
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:          id,
		bank:        cfg.Bank,
		gateway:     cfg.Gateway,
		leaderboard: cfg.Leaderboard,
		clock:       cfg.Clock,
		delays:      cfg.Delays,
		metrics:     cfg.Metrics,
		log:         cfg.Log.With(zap.String("session_id", id)),
		ctx:         ctx,
		cancel:      cancel,
		screen:      domain.ScreenLanding,
		subscribers: make(map[chan View]struct{}),
	}
}

func (s *Session) ID() string {
	return s.id
}

// Start begins a new attempt: landing -> info.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLocked(domain.ScreenInfo, domain.ScreenLanding); err != nil {
		return err
	}
	s.attempt = &attempt{answers: domain.AnswerSet{}, save: domain.SaveIdle}
	s.metrics.AttemptStarted()
	s.moveLocked(domain.ScreenInfo)
	return nil
}

// Register records the participant and launches the roll number check. The
// screen changes to quiz or blocked once the check completes.
func (s *Session) Register(identity domain.Identity) error {
	identity = identity.Normalize()
	if err := identity.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLocked(domain.ScreenQuiz, domain.ScreenInfo); err != nil {
		return err
	}
	if s.checking {
		return domain.ErrCheckInFlight
	}
	s.attempt.identity = identity
	s.checking = true
	s.broadcastLocked()

	gen := s.gen
	s.goLocked(func(ctx context.Context) {
		allowed := s.gateway.CanAttempt(ctx, identity.RollNumber)
		s.finishCheck(gen, allowed)
	})
	return nil
}

func (s *Session) finishCheck(gen uint64, allowed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		return
	}
	s.checking = false
	if !allowed {
		s.log.Info("roll number already used", zap.String("roll_number", s.attempt.identity.RollNumber))
		s.moveLocked(domain.ScreenBlocked)
		return
	}
	s.attempt.index = 0
	s.moveLocked(domain.ScreenQuiz)
}

// Answer locks option in for the current question. Feedback is shown for the
// feedback delay, then the quiz advances; after the last question the result
// is submitted. Neither step can be cancelled once started.
func (s *Session) Answer(questionID int, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	if s.screen != domain.ScreenQuiz {
		return &domain.TransitionError{From: s.screen, To: domain.ScreenQuiz}
	}
	a := s.attempt
	if a.feedback != nil {
		return domain.ErrFeedbackPending
	}
	q := s.bank.Questions[a.index]
	if q.ID != questionID {
		return fmt.Errorf("%w: current question is %d, got %d", domain.ErrQuestionNotFound, q.ID, questionID)
	}
	if !q.HasOption(option) {
		return domain.ErrOptionNotFound
	}

	a.answers[q.ID] = option
	a.feedback = &Feedback{
		QuestionID: q.ID,
		Option:     option,
		Correct:    option == q.Answer,
		Answer:     q.Answer,
	}
	gen := s.gen
	s.timer = s.clock.AfterFunc(s.delays.Feedback, func() { s.advance(gen) })
	s.broadcastLocked()
	return nil
}

func (s *Session) advance(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		return
	}
	s.timer = nil
	a := s.attempt
	a.feedback = nil
	if a.index < s.bank.Len()-1 {
		a.index++
		s.broadcastLocked()
		return
	}

	score := domain.Evaluate(a.answers, s.bank)
	a.result = &score
	a.save = domain.SaveSaving
	s.moveLocked(domain.ScreenProcessing)

	gen = s.gen
	identity, answers := a.identity, a.answers.Clone()
	s.goLocked(func(ctx context.Context) {
		// Closing the session drops the view, not the insert.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), submitTimeout)
		defer cancel()
		_, err := s.gateway.Submit(ctx, identity, answers, s.bank)
		s.finishSubmit(gen, err)
	})
}

func (s *Session) finishSubmit(gen uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		return
	}
	if err != nil {
		s.attempt.save = domain.SaveError
	} else {
		s.attempt.save = domain.SaveSuccess
	}
	s.timer = s.clock.AfterFunc(s.delays.Result, func() { s.showResult(gen) })
	s.broadcastLocked()
}

func (s *Session) showResult(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		return
	}
	s.timer = nil
	s.moveLocked(domain.ScreenResult)
}

// Home returns to landing, discarding the attempt and releasing the
// leaderboard subscription if one is held.
func (s *Session) Home() error {
	s.mu.Lock()
	err := s.requireLocked(domain.ScreenLanding,
		domain.ScreenInfo, domain.ScreenBlocked, domain.ScreenResult, domain.ScreenLeaderboard)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	release := s.releaseBoard
	s.releaseBoard = nil
	s.board = nil
	s.checking = false
	s.attempt = nil
	s.moveLocked(domain.ScreenLanding)
	s.mu.Unlock()

	// Outside the lock: the forwarder may be waiting on s.mu.
	if release != nil {
		release()
	}
	return nil
}

// OpenLeaderboard switches to the rankings and holds a live subscription
// until the screen is left. The feed is subscribed outside the lock; if the
// screen changed meanwhile the subscription is released at once.
func (s *Session) OpenLeaderboard() error {
	s.mu.Lock()
	if err := s.requireLocked(domain.ScreenLeaderboard, domain.ScreenLanding); err != nil {
		s.mu.Unlock()
		return err
	}
	s.board = &domain.Leaderboard{Loading: true, UpdatedAt: s.clock.Now()}
	s.moveLocked(domain.ScreenLeaderboard)
	gen, source := s.gen, s.leaderboard
	s.mu.Unlock()
	if source == nil {
		return nil
	}

	updates, release, err := source.Subscribe(s.ctx)
	if err != nil {
		s.log.Error("leaderboard subscription failed", zap.Error(err))
		return nil
	}

	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		release()
		return nil
	}
	s.releaseBoard = release
	s.goLocked(func(context.Context) {
		for lb := range updates {
			s.applyBoard(gen, lb)
		}
	})
	s.mu.Unlock()
	return nil
}

func (s *Session) applyBoard(gen uint64, lb domain.Leaderboard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		return
	}
	s.board = &lb
	s.broadcastLocked()
}

// Certificate returns the data for the certificate image; only valid on the
// result screen.
func (s *Session) Certificate() (domain.Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.screen != domain.ScreenResult || s.attempt == nil || s.attempt.result == nil {
		return domain.Certificate{}, domain.ErrNoResult
	}
	return domain.Certificate{
		Title:      s.bank.Title,
		FullName:   s.attempt.identity.FullName,
		RollNumber: s.attempt.identity.RollNumber,
		Score:      *s.attempt.result,
		IssuedAt:   s.clock.Now(),
	}, nil
}

// Snapshot returns the current view.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Subscribe returns a channel that receives a view after every change,
// starting with the current one. The caller must invoke the returned cancel
// function to avoid leaks.
func (s *Session) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 16)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	ch <- s.viewLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Close ends the session: pending timers are stopped, the leaderboard
// subscription is released, subscribers are closed and in-flight tasks are
// waited for.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	release := s.releaseBoard
	s.releaseBoard = nil
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
	s.mu.Unlock()

	s.cancel()
	if release != nil {
		release()
	}
	s.tasks.Wait()
}

func (s *Session) requireLocked(to domain.Screen, from ...domain.Screen) error {
	if s.closed {
		return domain.ErrSessionClosed
	}
	for _, f := range from {
		if s.screen == f {
			return nil
		}
	}
	return &domain.TransitionError{From: s.screen, To: to}
}

func (s *Session) moveLocked(screen domain.Screen) {
	s.log.Debug("screen change", zap.String("from", string(s.screen)), zap.String("to", string(screen)))
	s.screen = screen
	s.gen++
	s.broadcastLocked()
}

func (s *Session) goLocked(task func(ctx context.Context)) {
	if s.closed {
		return
	}
	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		task(s.ctx)
	}()
}

func (s *Session) broadcastLocked() {
	view := s.viewLocked()
	for ch := range s.subscribers {
		select {
		case ch <- view:
		default:
			// Slow reader: drop the oldest view, the newest one supersedes it.
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
}

func (s *Session) viewLocked() View {
	v := View{
		SessionID:  s.id,
		Screen:     s.screen,
		Checking:   s.checking,
		SaveStatus: domain.SaveIdle,
	}
	if a := s.attempt; a != nil {
		if a.identity != (domain.Identity{}) {
			identity := a.identity
			v.Identity = &identity
		}
		v.SaveStatus = a.save
		v.Answered = len(a.answers)
		switch s.screen {
		case domain.ScreenQuiz:
			if q, ok := s.bank.ViewAt(a.index); ok {
				v.Question = &q
			}
			live := domain.Evaluate(a.answers, s.bank)
			v.Score = &live
			if a.feedback != nil {
				fb := *a.feedback
				v.Feedback = &fb
			}
		case domain.ScreenProcessing, domain.ScreenResult:
			if a.result != nil {
				score := *a.result
				v.Score = &score
				v.Message = score.Badge.Message()
			}
		}
	}
	if s.board != nil {
		lb := *s.board
		v.Leaderboard = &lb
	}
	return v
}
