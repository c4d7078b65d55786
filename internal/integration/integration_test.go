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

	"quiz-analytics-service/internal/app"
	"quiz-analytics-service/internal/domain"
	pginfra "quiz-analytics-service/internal/infra/postgres"
	pgmigrations "quiz-analytics-service/internal/infra/postgres/migrations"
	redisinfra "quiz-analytics-service/internal/infra/redis"
)

func TestSubmitAndAnalyzeEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuiz(t, ctx, pgURL, sampleQuiz())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	quizRepo := redisinfra.NewQuizRepository(redisClient, pginfra.NewQuizLoader(pool), 5*time.Minute)
	results := pginfra.NewResultStore(pool)
	statsCache := redisinfra.NewStatsCache(redisClient, time.Minute)
	service := app.NewAnalyticsService(quizRepo, results, statsCache)

	start := time.Now().Add(-5 * time.Minute)
	submit := func(name string, optionID string, offset time.Duration) domain.QuizResult {
		t.Helper()
		result, err := service.SubmitAttempt(ctx, app.Submission{
			QuizID:      "quiz-1",
			Participant: domain.Participant{Name: name},
			Answers: map[string]domain.SubmittedAnswer{
				"q1": domain.Selection(optionID),
			},
			StartTime: start.Add(offset),
			EndTime:   start.Add(offset + time.Minute),
		})
		if err != nil {
			t.Fatalf("submit for %s: %v", name, err)
		}
		return result
	}

	submit("Alice", "o1", 0)           // wrong: 0/2
	submit("Alice", "o2", time.Minute) // right: 2/2
	submit("Bob", "o2", 2*time.Minute) // right: 2/2

	aliceStats, err := service.ParticipantStats(ctx, "Alice")
	if err != nil {
		t.Fatalf("alice stats: %v", err)
	}
	if aliceStats == nil || aliceStats.Attempts != 2 {
		t.Fatalf("expected 2 attempts for Alice, got %+v", aliceStats)
	}
	if aliceStats.MeanScore != 10.0 {
		t.Fatalf("expected mean 10.0, got %v", aliceStats.MeanScore)
	}
	// Bob's 20 is not below Alice's mean of 10.
	if aliceStats.Comparison.ScorePercentile != 0 {
		t.Fatalf("expected percentile 0 against Bob, got %d", aliceStats.Comparison.ScorePercentile)
	}

	// Second read should be served by the redis stats cache.
	if exists, _ := redisClient.Exists(ctx, "stats:participant:Alice").Result(); exists != 1 {
		t.Fatalf("expected cached stats key for Alice")
	}
	again, err := service.ParticipantStats(ctx, "Alice")
	if err != nil || again == nil || again.MeanScore != aliceStats.MeanScore {
		t.Fatalf("cached read mismatch: %+v err=%v", again, err)
	}

	bobStats, err := service.ParticipantStats(ctx, "Bob")
	if err != nil {
		t.Fatalf("bob stats: %v", err)
	}
	// Both of Alice's attempts sit below Bob's 20... except her perfect one.
	if bobStats.Comparison.ScorePercentile != 50 {
		t.Fatalf("expected Bob at 50 against Alice's 0 and 20, got %d", bobStats.Comparison.ScorePercentile)
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

func seedQuiz(t *testing.T, ctx context.Context, dsn string, quiz domain.Quiz) {
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

	data, err := json.Marshal(quiz)
	if err != nil {
		t.Fatalf("marshal quiz: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO quizzes (id, data) VALUES (? , ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, quiz.ID, string(data)); err != nil {
		t.Fatalf("insert quiz: %v", err)
	}
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "quiz-1",
		Title: "Integration quiz",
		Questions: []domain.Question{
			{
				ID:     "q1",
				Type:   domain.SingleChoice,
				Prompt: "What is 2 + 2?",
				Options: []domain.AnswerOption{
					{ID: "o1", Text: "3"},
					{ID: "o2", Text: "4", Correct: true, Points: 2},
					{ID: "o3", Text: "5"},
				},
			},
		},
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
