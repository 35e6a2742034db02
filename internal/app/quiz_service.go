package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"marketing-quiz-service/internal/domain"
)

// Options tune a QuizService. Zero values fall back to defaults.
type Options struct {
	QuizID  string
	Clock   Clock
	Delays  Delays
	Metrics Metrics
	Log     *zap.Logger
}

// QuizService contains the core quiz use cases.
type QuizService struct {
	sessions SessionRepository
	banks    BankRepository
	gateway  *ResultGateway
	board    *LeaderboardView
	quizID   string
	clock    Clock
	delays   Delays
	metrics  Metrics
	log      *zap.Logger
}

func NewQuizService(sessions SessionRepository, banks BankRepository, gateway *ResultGateway, board *LeaderboardView, opts Options) *QuizService {
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Delays == (Delays{}) {
		opts.Delays = DefaultDelays()
	}
	if opts.Metrics == nil {
		opts.Metrics = NopMetrics{}
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &QuizService{
		sessions: sessions,
		banks:    banks,
		gateway:  gateway,
		board:    board,
		quizID:   opts.QuizID,
		clock:    opts.Clock,
		delays:   opts.Delays,
		metrics:  opts.Metrics,
		log:      opts.Log,
	}
}

// Bank returns the configured question bank.
func (s *QuizService) Bank(ctx context.Context) (domain.QuestionBank, error) {
	return s.banks.GetBank(ctx, s.quizID)
}

// NewSession opens a session on the landing screen. The bank is captured once
// and stays fixed for the session's lifetime.
func (s *QuizService) NewSession(ctx context.Context) (*Session, error) {
	bank, err := s.Bank(ctx)
	if err != nil {
		return nil, err
	}
	if bank.Len() == 0 {
		return nil, fmt.Errorf("%w: %s has no questions", domain.ErrQuizNotFound, s.quizID)
	}

	var source LeaderboardSource
	if s.board != nil {
		source = s.board
	}
	session := NewSession(uuid.NewString(), SessionConfig{
		Bank:        bank,
		Gateway:     s.gateway,
		Leaderboard: source,
		Clock:       s.clock,
		Delays:      s.delays,
		Metrics:     s.metrics,
		Log:         s.log,
	})
	s.sessions.Add(session)
	s.log.Debug("session opened", zap.String("session_id", session.ID()))
	return session, nil
}

// Session looks up a live session.
func (s *QuizService) Session(sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// EndSession closes and forgets a session. Unknown ids are ignored.
func (s *QuizService) EndSession(sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.Close()
	s.sessions.Remove(sessionID)
	s.log.Debug("session closed", zap.String("session_id", sessionID))
}

// TouchSession records client activity on a session.
func (s *QuizService) TouchSession(ctx context.Context, sessionID string) error {
	if a, ok := s.sessions.(SessionActivity); ok {
		return a.Touch(ctx, sessionID)
	}
	return nil
}

// LiveSessions counts open sessions. Repositories backed by Redis count
// every instance sharing it.
func (s *QuizService) LiveSessions(ctx context.Context) (int, error) {
	if a, ok := s.sessions.(SessionActivity); ok {
		return a.Live(ctx)
	}
	return 0, nil
}

// Leaderboard runs the top-N query once.
func (s *QuizService) Leaderboard(ctx context.Context) (domain.Leaderboard, error) {
	return s.board.Top(ctx)
}

// SubscribeLeaderboard streams live rankings; see LeaderboardView.Subscribe.
func (s *QuizService) SubscribeLeaderboard(ctx context.Context) (<-chan domain.Leaderboard, func(), error) {
	return s.board.Subscribe(ctx)
}

// StoredCertificate rebuilds certificate data from a stored result.
func (s *QuizService) StoredCertificate(ctx context.Context, rollNumber string) (domain.Certificate, error) {
	record, err := s.gateway.Result(ctx, rollNumber)
	if err != nil {
		return domain.Certificate{}, err
	}
	bank, err := s.Bank(ctx)
	if err != nil {
		return domain.Certificate{}, err
	}
	return domain.Certificate{
		Title:      bank.Title,
		FullName:   record.FullName,
		RollNumber: record.RollNumber,
		Score: domain.Score{
			Correct:    record.Score,
			Total:      bank.Len(),
			Percentage: record.Percentage,
			Badge:      record.Badge,
		},
		IssuedAt: record.CreatedAt,
	}, nil
}

// Results returns every stored row, for export.
func (s *QuizService) Results(ctx context.Context) ([]domain.ResultRecord, error) {
	return s.gateway.Results(ctx)
}
