package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"

	"marketing-quiz-service/internal/app"
	"marketing-quiz-service/internal/bank"
	"marketing-quiz-service/internal/config"
	"marketing-quiz-service/internal/domain"
	"marketing-quiz-service/internal/infra/memory"
	"marketing-quiz-service/internal/infra/postgres"
	redisinfra "marketing-quiz-service/internal/infra/redis"
	"marketing-quiz-service/internal/logging"
)

// errNoPostgres is returned by commands that read or write stored data.
var errNoPostgres = errors.New("postgres url not configured")

// backends holds the connections selected by config. Postgres and Redis are
// optional; without them everything stays in process.
type backends struct {
	cfg config.Config
	log *zap.Logger

	pool  *pgxpool.Pool
	db    *bun.DB
	redis *redis.Client
	hub   *memory.Hub
}

func loadConfig(path string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	log, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

func openBackends(ctx context.Context, cfg config.Config, log *zap.Logger) (*backends, error) {
	b := &backends{cfg: cfg, log: log, hub: memory.NewHub()}

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.pool = pool
		b.db = openBun(cfg.Postgres.URL)
	}

	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return b, nil
}

func openBun(url string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(url)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func (b *backends) close() {
	if b.db != nil {
		_ = b.db.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
	if b.redis != nil {
		_ = b.redis.Close()
	}
}

func (b *backends) quizID() string {
	if b.cfg.Quiz.ID != "" {
		return b.cfg.Quiz.ID
	}
	return bank.Marketing().ID
}

// results picks the results table: Postgres when configured, else in process.
// The in-process store announces inserts on the hub itself.
func (b *backends) results() app.ResultStore {
	if b.db != nil {
		return postgres.NewResultStore(b.db)
	}
	if b.cfg.Results.Feed == config.FeedMemory {
		return memory.NewResultStore(b.hub)
	}
	return memory.NewResultStore(nil)
}

// feed returns the insert feed the leaderboard listens on and, when the store
// does not announce inserts on it, the publisher the gateway must call.
func (b *backends) feed() (app.InsertFeed, app.InsertPublisher) {
	switch b.cfg.Results.Feed {
	case config.FeedRedis:
		f := redisinfra.NewFeed(b.redis, redisinfra.DefaultFeedChannel, b.log)
		return f, f
	case config.FeedPostgres:
		return postgres.NewListener(b.pool, b.log), nil
	default:
		if b.db != nil {
			return b.hub, b.hub
		}
		return b.hub, nil
	}
}

// bankLoader prefers a bank file, then the quizzes table, then the bundled bank.
func (b *backends) bankLoader() (memory.BankLoader, error) {
	if b.cfg.Quiz.BankFile != "" {
		qb, err := bank.LoadFile(b.cfg.Quiz.BankFile)
		if err != nil {
			return nil, err
		}
		return memory.NewStaticBankLoader(qb), nil
	}
	if b.pool != nil {
		return postgres.NewBankLoader(b.pool), nil
	}
	return memory.NewStaticBankLoader(bank.Marketing()), nil
}

func (b *backends) banks(loader memory.BankLoader) app.BankRepository {
	ttl := config.TTLDuration(b.cfg.Quiz.TTL, 0)
	if b.redis != nil {
		return redisinfra.NewBankRepository(b.redis, loader, ttl)
	}
	return memory.NewBankRepository(loader, ttl)
}

func (b *backends) sessions() app.SessionRepository {
	if b.redis != nil {
		return redisinfra.NewSessionStore(b.redis, config.TTLDuration(b.cfg.Redis.TTL, 10*time.Minute))
	}
	return memory.NewSessionStore()
}

// seedIfMissing stores the bundled bank when the quizzes table has no row for
// the configured quiz.
func (b *backends) seedIfMissing(ctx context.Context) error {
	if b.pool == nil || b.cfg.Quiz.BankFile != "" {
		return nil
	}
	loader := postgres.NewBankLoader(b.pool)
	_, err := loader.LoadBank(ctx, b.quizID())
	if !errors.Is(err, domain.ErrQuizNotFound) {
		return err
	}
	qb := bank.Marketing()
	if qb.ID != b.quizID() {
		return err
	}
	if err := loader.SaveBank(ctx, qb); err != nil {
		return err
	}
	b.log.Info("seeded bundled question bank", zap.String("quiz_id", qb.ID))
	return nil
}

// service assembles the quiz use cases over the selected backends.
func (b *backends) service(metrics app.Metrics) (*app.QuizService, error) {
	loader, err := b.bankLoader()
	if err != nil {
		return nil, err
	}
	results := b.results()
	feed, publisher := b.feed()

	gateway := app.NewResultGateway(results, publisher, metrics, b.log)
	board := app.NewLeaderboardView(results, feed, b.cfg.Leaderboard.Limit, metrics, b.log)
	return app.NewQuizService(b.sessions(), b.banks(loader), gateway, board, app.Options{
		QuizID: b.quizID(),
		Delays: app.Delays{
			Feedback: config.TTLDuration(b.cfg.Quiz.FeedbackDelay, app.DefaultDelays().Feedback),
			Result:   config.TTLDuration(b.cfg.Quiz.ResultDelay, app.DefaultDelays().Result),
		},
		Metrics: metrics,
		Log:     b.log,
	}), nil
}
