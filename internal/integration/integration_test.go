package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	"marketing-quiz-service/internal/app"
	"marketing-quiz-service/internal/bank"
	"marketing-quiz-service/internal/domain"
	"marketing-quiz-service/internal/infra/postgres"
	pgmigrations "marketing-quiz-service/internal/infra/postgres/migrations"
	infraredis "marketing-quiz-service/internal/infra/redis"
)

func TestQuizEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := migrateDB(t, ctx, pgURL)
	defer db.Close()

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	marketing := bank.Marketing()
	loader := postgres.NewBankLoader(pool)
	if err := loader.SaveBank(ctx, marketing); err != nil {
		t.Fatalf("save bank: %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	results := postgres.NewResultStore(db)
	listener := postgres.NewListener(pool, zap.NewNop())
	gateway := app.NewResultGateway(results, nil, nil, zap.NewNop())
	board := app.NewLeaderboardView(results, listener, 5, nil, zap.NewNop())
	service := app.NewQuizService(
		infraredis.NewSessionStore(redisClient, 5*time.Minute),
		infraredis.NewBankRepository(redisClient, loader, 5*time.Minute),
		gateway, board,
		app.Options{
			QuizID: marketing.ID,
			Delays: app.Delays{Feedback: time.Millisecond, Result: time.Millisecond},
			Log:    zap.NewNop(),
		},
	)

	updates, cancel, err := service.SubscribeLeaderboard(ctx)
	if err != nil {
		t.Fatalf("subscribe leaderboard: %v", err)
	}
	defer cancel()
	if lb := readBoard(t, updates); !lb.Loading {
		t.Fatalf("expected loading snapshot first, got %+v", lb)
	}
	if lb := readBoard(t, updates); len(lb.Entries) != 0 {
		t.Fatalf("expected empty board, got %+v", lb.Entries)
	}

	session, err := service.NewSession(ctx)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	defer service.EndSession(session.ID())

	if err := session.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := session.Register(domain.Identity{FullName: "Ada Lovelace", EmailID: "ada@example.com", RollNumber: "R-1"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	waitFor(t, func() bool { return session.Snapshot().Screen == domain.ScreenQuiz })

	for _, q := range marketing.Questions {
		if err := session.Answer(q.ID, q.Answer); err != nil {
			t.Fatalf("answer %d: %v", q.ID, err)
		}
		id := q.ID
		waitFor(t, func() bool {
			v := session.Snapshot()
			return v.Screen != domain.ScreenQuiz || (v.Question != nil && v.Question.ID != id)
		})
	}
	waitFor(t, func() bool {
		v := session.Snapshot()
		return v.Screen == domain.ScreenResult && v.SaveStatus == domain.SaveSuccess
	})

	// The trigger announces the insert; the board re-queries.
	lb := readBoard(t, updates)
	if len(lb.Entries) != 1 || lb.Entries[0].RollNumber != "R-1" || lb.Entries[0].Percentage != 100 {
		t.Fatalf("expected R-1 at 100%%, got %+v", lb.Entries)
	}

	dup := domain.ResultRecord{FullName: "Impostor", EmailID: "x@example.com", RollNumber: "R-1", Score: 1, Percentage: 4, Badge: domain.BadgeParticipation}
	if err := results.Insert(ctx, &dup); !errors.Is(err, domain.ErrDuplicateRollNumber) {
		t.Fatalf("expected duplicate roll error, got %v", err)
	}

	cert, err := service.StoredCertificate(ctx, "R-1")
	if err != nil {
		t.Fatalf("stored certificate: %v", err)
	}
	if cert.Score.Total != marketing.Len() || cert.Score.Badge != domain.BadgeGold {
		t.Fatalf("unexpected certificate %+v", cert)
	}

	// A second attempt with the same roll number is blocked by the pre-check.
	second, err := service.NewSession(ctx)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	defer service.EndSession(second.ID())
	if err := second.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := second.Register(domain.Identity{FullName: "Ada", EmailID: "ada@example.com", RollNumber: "R-1"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	waitFor(t, func() bool { return second.Snapshot().Screen == domain.ScreenBlocked })
}

func TestPostgresResultStore(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	db := migrateDB(t, ctx, pgURL)
	defer db.Close()

	store := postgres.NewResultStore(db)
	for i, pct := range []int{40, 96, 72} {
		rec := domain.ResultRecord{
			FullName:   fmt.Sprintf("Player %d", i),
			EmailID:    fmt.Sprintf("p%d@example.com", i),
			RollNumber: fmt.Sprintf("R-%d", i),
			Score:      pct / 4,
			Percentage: pct,
			Badge:      domain.BadgeFor(pct),
		}
		if err := store.Insert(ctx, &rec); err != nil {
			t.Fatalf("insert: %v", err)
		}
		if rec.ID == 0 || rec.CreatedAt.IsZero() {
			t.Fatalf("expected id and created_at to be filled, got %+v", rec)
		}
	}

	exists, err := store.Exists(ctx, "R-1")
	if err != nil || !exists {
		t.Fatalf("expected R-1 to exist, got %v %v", exists, err)
	}
	exists, err = store.Exists(ctx, "R-9")
	if err != nil || exists {
		t.Fatalf("expected R-9 to be missing, got %v %v", exists, err)
	}

	top, err := store.Top(ctx, 2)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 || top[0].RollNumber != "R-1" || top[1].RollNumber != "R-2" {
		t.Fatalf("unexpected top order %+v", top)
	}

	if _, err := store.ByRoll(ctx, "R-9"); !errors.Is(err, domain.ErrResultNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	all, err := store.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 3 || all[0].RollNumber != "R-0" {
		t.Fatalf("expected insertion order, got %+v", all)
	}
}

func TestPostgresBankLoaderAndListener(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	db := migrateDB(t, ctx, pgURL)
	defer db.Close()

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := postgres.NewBankLoader(pool)
	if _, err := loader.LoadBank(ctx, "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
	want := bank.Marketing()
	if err := loader.SaveBank(ctx, want); err != nil {
		t.Fatalf("save bank: %v", err)
	}
	got, err := loader.LoadBank(ctx, want.ID)
	if err != nil {
		t.Fatalf("load bank: %v", err)
	}
	if got.Title != want.Title || got.Len() != want.Len() {
		t.Fatalf("bank round trip mismatch: %s/%d", got.Title, got.Len())
	}

	listener := postgres.NewListener(pool, zap.NewNop())
	events, cancel, err := listener.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if _, err := pool.Exec(ctx, `SELECT pg_notify($1, $2)`, postgres.InsertChannel, `{"rollNumber":"R-7"}`); err != nil {
		t.Fatalf("notify: %v", err)
	}
	select {
	case ev := <-events:
		if ev.RollNumber != "R-7" {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
	cancel()
	if _, ok := <-events; ok {
		t.Fatal("expected events channel to close after cancel")
	}
}

func TestRedisFeed(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, cleanup := startRedis(t, ctx)
	defer cleanup()
	client, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer client.Close()

	feed := infraredis.NewFeed(client, infraredis.DefaultFeedChannel, zap.NewNop())
	events, cancel, err := feed.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if err := feed.Publish(ctx, domain.InsertEvent{RollNumber: "R-3"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case ev := <-events:
		if ev.RollNumber != "R-3" {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for published insert")
	}
}

func readBoard(t *testing.T, updates <-chan domain.Leaderboard) domain.Leaderboard {
	t.Helper()
	select {
	case lb, ok := <-updates:
		if !ok {
			t.Fatal("leaderboard stream closed")
		}
		return lb
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for leaderboard")
	}
	return domain.Leaderboard{}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
