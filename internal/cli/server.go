package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chakravyuh-round/internal/app"
	"chakravyuh-round/internal/auth"
	"chakravyuh-round/internal/config"
	"chakravyuh-round/internal/infra/memory"
	"chakravyuh-round/internal/infra/postgres"
	redisinfra "chakravyuh-round/internal/infra/redis"
	transport "chakravyuh-round/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the round server",
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
	if err := cfg.Validate(); err != nil {
		return err
	}
	httpLogger := newLogger(cfg)

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := runMigrations(ctx, db); err != nil {
		return err
	}
	store := postgres.NewStore(db)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	var loader memory.BankLoader = postgres.NewQuestionLoader(pool)
	var presence transport.Presence = memory.NewPresence()
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
		loader = redisinfra.NewBankCache(redisClient, loader, redisTTL)
		presence = redisinfra.NewPresence(redisClient, 2*time.Minute)
		logger.Info("redis enabled", "addr", cfg.Redis.Addr)
	}
	bank := memory.NewQuestionBank(loader, config.TTLDuration(cfg.Bank.TTL, 5*time.Minute))

	svc := app.New(store, bank, app.WithLogger(logger))
	authSvc := auth.NewService(store, cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
	api := transport.NewServer(svc, authSvc, presence, transport.Options{
		Logger:         httpLogger,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      api.Handler(),
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	go func() {
		logger.Info("starting round server", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
