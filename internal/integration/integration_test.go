package integration

import (
	"context"
	"database/sql"
	"encoding/json"
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
	"quizzalo-service/internal/app"
	"quizzalo-service/internal/domain"
	pgstore "quizzalo-service/internal/infra/postgres"
	pgmigrations "quizzalo-service/internal/infra/postgres/migrations"
	infraredis "quizzalo-service/internal/infra/redis"
)

func TestRunSubmitAndRankEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuestions(t, ctx, pgURL, samplePool())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	bank := infraredis.NewTopicRepository(redisClient, pgstore.NewQuestionBank(pool), 5*time.Minute)
	store := pgstore.NewScoreStore(pool)
	games := app.NewGameService(bank, app.RunConfig{CountdownSeconds: 1, RunSeconds: 60})
	submitter := app.NewScoreSubmitter(store)
	leaderboard := app.NewLeaderboardService(store)

	// Play a full run through the engine against the cached bank.
	run, err := games.StartRun(ctx, "topic-1")
	if err != nil {
		t.Fatalf("start run: %v", err)
	}
	run.Tick()
	for i := range run.Questions {
		if _, ok := run.SubmitAnswer(i, run.Questions[i].Answer); !ok {
			t.Fatalf("answer %d rejected", i)
		}
		run.Advance()
	}
	if run.Phase != domain.PhaseFinished {
		t.Fatalf("expected FINISHED, got %s", run.Phase)
	}

	total := games.Config().QuestionsPerRun
	if err := submitter.Submit(ctx, "alice", run.Topic, run.Score, run.TimeRemaining, total); err != nil {
		t.Fatalf("submit alice: %v", err)
	}
	// A later, lower score by another player ranks below.
	if err := submitter.Submit(ctx, "bob", "topic-1", run.Score-1, 30, total); err != nil {
		t.Fatalf("submit bob: %v", err)
	}

	top, err := leaderboard.Top(ctx)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 || top[0].PlayerName != "alice" {
		t.Fatalf("expected alice leading, got %+v", top)
	}
	if top[0].TotalPoints != run.Score {
		t.Fatalf("expected alice at %d points, got %d", run.Score, top[0].TotalPoints)
	}

	best, rank, err := leaderboard.PlayerRank(ctx, "bob")
	if err != nil {
		t.Fatalf("rank bob: %v", err)
	}
	if rank != 2 || best.BestByTopic["topic-1"] != run.Score-1 {
		t.Fatalf("expected bob rank 2, got rank=%d best=%+v", rank, best)
	}

	// A non-improving resubmission must not move alice's updated_at.
	before, _, err := store.GetPlayerBest(ctx, "alice")
	if err != nil {
		t.Fatalf("get alice: %v", err)
	}
	if err := submitter.Submit(ctx, "alice", "topic-1", 0, 5, total); err != nil {
		t.Fatalf("resubmit alice: %v", err)
	}
	after, _, err := store.GetPlayerBest(ctx, "alice")
	if err != nil {
		t.Fatalf("get alice again: %v", err)
	}
	if !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Fatalf("non-improving run touched updated_at: %v -> %v", before.UpdatedAt, after.UpdatedAt)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
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

func seedQuestions(t *testing.T, ctx context.Context, dsn string, pool []domain.Question) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	for _, q := range pool {
		options, err := json.Marshal(q.Options)
		if err != nil {
			t.Fatalf("marshal options: %v", err)
		}
		_, err = db.ExecContext(ctx,
			`INSERT INTO questions (topic, prompt, options, answer) VALUES (?, ?, ?::jsonb, ?)`,
			q.Topic, q.Prompt, string(options), string(q.Answer))
		if err != nil {
			t.Fatalf("insert question: %v", err)
		}
	}
}

func samplePool() []domain.Question {
	options := map[domain.OptionKey]string{
		domain.OptionA: "3",
		domain.OptionB: "4",
		domain.OptionC: "5",
		domain.OptionD: "22",
	}
	return []domain.Question{
		{Topic: "topic-1", Prompt: "What is 2 + 2?", Options: options, Answer: domain.OptionB},
		{Topic: "topic-1", Prompt: "Pick B again", Options: options, Answer: domain.OptionB},
		{Topic: "topic-1", Prompt: "And once more", Options: options, Answer: domain.OptionB},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
