package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-analytics-service/internal/app"
	"quiz-analytics-service/internal/config"
	"quiz-analytics-service/internal/domain"
	"quiz-analytics-service/internal/infra/memory"
	pginfra "quiz-analytics-service/internal/infra/postgres"
	redisinfra "quiz-analytics-service/internal/infra/redis"
	transport "quiz-analytics-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the analytics server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pginfra.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var results app.ResultStore = memory.NewResultStore()
	if pool != nil {
		results = pginfra.NewResultStore(pool)
	}

	var statsCache app.StatsCache
	if redisClient != nil {
		statsCache = redisinfra.NewStatsCache(redisClient, config.TTLDuration(cfg.Stats.CacheTTL, time.Minute))
	}

	service := app.NewAnalyticsService(quizRepo, results, statsCache)
	handler := transport.NewHandler(service)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler.Register(mux)
	mux.HandleFunc("/feed", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting analytics service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes seeds a demo quiz covering every question type; swap the
// loader for the Postgres-backed one in production.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Geography warm-up",
			Questions: []domain.Question{
				{
					ID:     "q1",
					Type:   domain.SingleChoice,
					Prompt: "Which river crosses Paris?",
					Points: 2,
					Options: []domain.AnswerOption{
						{ID: "o1", Text: "The Loire"},
						{ID: "o2", Text: "The Seine", Correct: true, Points: 2},
						{ID: "o3", Text: "The Rhone"},
					},
				},
				{
					ID:     "q2",
					Type:   domain.MultiChoice,
					Prompt: "Which of these are EU capitals?",
					Points: 2,
					Options: []domain.AnswerOption{
						{ID: "o1", Text: "Vienna", Correct: true, Points: 1},
						{ID: "o2", Text: "Zurich"},
						{ID: "o3", Text: "Lisbon", Correct: true, Points: 1},
					},
				},
				{
					ID:              "q3",
					Type:            domain.OpenEnded,
					Prompt:          "Capital of France?",
					Points:          2,
					ReferenceAnswer: "Paris",
				},
				{
					ID:     "q4",
					Type:   domain.SatisfactionScale,
					Prompt: "How confident do you feel about this topic?",
					Options: []domain.AnswerOption{
						{ID: "s1", Text: "Not at all", Points: 0},
						{ID: "s2", Text: "Slightly", Points: 1},
						{ID: "s3", Text: "Somewhat", Points: 2},
						{ID: "s4", Text: "Quite", Points: 3},
						{ID: "s5", Text: "Very", Correct: true, Points: 4},
					},
				},
			},
		},
	}
}
