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
	"quizzalo-service/internal/app"
	"quizzalo-service/internal/config"
	"quizzalo-service/internal/domain"
	"quizzalo-service/internal/infra/memory"
	pgstore "quizzalo-service/internal/infra/postgres"
	redisbank "quizzalo-service/internal/infra/redis"
	transport "quizzalo-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
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

	var loader memory.BankLoader = memory.NewStaticBank(sampleBank())
	if pool != nil {
		loader = pgstore.NewQuestionBank(pool)
	}

	bankTTL := config.TTLDuration(cfg.Bank.TTL, 10*time.Minute)
	var bank app.TopicRepository
	if redisClient != nil {
		bank = redisbank.NewTopicRepository(redisClient, loader, bankTTL)
	} else {
		bank = memory.NewTopicRepository(loader, bankTTL)
	}

	// Without Postgres, play still works on the static bank but scores are
	// not persisted: submissions no-op and the leaderboard reports itself
	// unavailable.
	var store *pgstore.ScoreStore
	var submitter *app.ScoreSubmitter
	var leaderboard *app.LeaderboardService
	if pool != nil {
		store = pgstore.NewScoreStore(pool)
		submitter = app.NewScoreSubmitter(store)
		leaderboard = app.NewLeaderboardService(store)
	} else {
		submitter = app.NewScoreSubmitter(nil)
		leaderboard = app.NewLeaderboardService(nil)
	}

	games := app.NewGameService(bank, app.RunConfig{
		CountdownSeconds: cfg.Game.CountdownSeconds,
		RunSeconds:       cfg.Game.RunSeconds,
		QuestionsPerRun:  cfg.Game.QuestionsPerRun,
	})
	wsHandler := transport.NewWSHandler(games, submitter, transport.RunnerConfig{
		FeedbackDelay: config.TTLDuration(cfg.Game.FeedbackDelay, 400*time.Millisecond),
	})
	lbHandler := transport.NewLeaderboardHandler(leaderboard)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/leaderboard", lbHandler.ServeTop)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quizzalo service on :%s", finalPort)
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

// sampleBank provides a minimal topic pool for running without a database.
func sampleBank() map[string][]domain.Question {
	return map[string][]domain.Question{
		"general": {
			{
				ID:     1,
				Topic:  "general",
				Prompt: "What is 2 + 2?",
				Options: map[domain.OptionKey]string{
					domain.OptionA: "3",
					domain.OptionB: "4",
					domain.OptionC: "5",
					domain.OptionD: "22",
				},
				Answer: domain.OptionB,
			},
			{
				ID:     2,
				Topic:  "general",
				Prompt: "Which planet is known as the Red Planet?",
				Options: map[domain.OptionKey]string{
					domain.OptionA: "Venus",
					domain.OptionB: "Jupiter",
					domain.OptionC: "Mars",
					domain.OptionD: "Saturn",
				},
				Answer: domain.OptionC,
			},
		},
	}
}
