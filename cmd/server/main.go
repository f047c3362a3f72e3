package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VitaminP8/alumni-forum/internal/api"
	"github.com/VitaminP8/alumni-forum/internal/category"
	"github.com/VitaminP8/alumni-forum/internal/config"
	"github.com/VitaminP8/alumni-forum/internal/metrics"
	"github.com/VitaminP8/alumni-forum/internal/post"
	"github.com/VitaminP8/alumni-forum/internal/reply"
	"github.com/VitaminP8/alumni-forum/internal/storage/memory"
	"github.com/VitaminP8/alumni-forum/internal/storage/postgres"
	"github.com/VitaminP8/alumni-forum/internal/subscription"
	"github.com/VitaminP8/alumni-forum/internal/user"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

func main() {
	// загружаем .env до чтения флагов, чтобы EnvVars его увидели
	config.LoadEnv()

	app := cli.App{
		Name:   "forum-server",
		Usage:  "alumni forum REST API with threaded replies",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				EnvVars: []string{"HTTP_ADDR"},
				Value:   ":8080",
			},
			&cli.StringFlag{
				Name:    "storage",
				Usage:   "storage backend: memory or postgres",
				EnvVars: []string{"STORAGE"},
				Value:   "memory",
			},
			&cli.BoolFlag{
				Name:    "metrics",
				Usage:   "serve prometheus metrics on /metrics",
				EnvVars: []string{"METRICS_ENABLED"},
				Value:   true,
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "info",
			},
		},
		ErrWriter: os.Stderr,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type stores struct {
	posts      post.PostStorage
	replies    reply.ReplyStorage
	users      user.UserStorage
	categories category.CategoryStorage
	close      func() error
}

func run(cmd *cli.Context) error {
	logger := newLogger(cmd.String("log-level"))
	slog.SetDefault(logger)

	cfg := config.Load()
	cfg.HTTPAddr = cmd.String("addr")
	cfg.Storage = cmd.String("storage")
	cfg.MetricsEnabled = cmd.Bool("metrics")

	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}

	subs := subscription.NewSubscriptionManager()

	st, err := openStorage(cfg, subs, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}()

	args := api.Args{
		Posts:          st.posts,
		Replies:        st.replies,
		Users:          st.users,
		Categories:     st.categories,
		Subs:           subs,
		Logger:         logger,
		JWTSecret:      cfg.JWTSecret,
		WSWriteTimeout: cfg.WSWriteTimeout,
	}
	if cfg.MetricsEnabled {
		args.Metrics = metrics.New(prometheus.DefaultRegisterer)
		args.MetricsHandler = promhttp.Handler()
	}

	// отменяется при завершении, закрывает websocket-потоки
	baseCtx, cancel := context.WithCancel(cmd.Context)
	defer cancel()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.New(args).Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", "addr", cfg.HTTPAddr, "storage", cfg.Storage, "metrics", cfg.MetricsEnabled)
		// блокирует до Shutdown или фатальной ошибки
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Ожидание SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received os exit signal", "signal", sig)
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	cancel()

	ctx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown http server: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func openStorage(cfg *config.Config, subs subscription.Manager, logger *slog.Logger) (*stores, error) {
	switch cfg.Storage {
	case "postgres":
		if err := postgres.InitDB(cfg.DB); err != nil {
			return nil, err
		}
		if err := postgres.Migrate(); err != nil {
			postgres.CloseDB()
			return nil, err
		}

		logger.Info("using postgres storage", "host", cfg.DB.Host, "db", cfg.DB.Name)
		return &stores{
			posts:      postgres.NewPostPostgresStorage(),
			replies:    postgres.NewReplyPostgresStorage(subs),
			users:      postgres.NewUserPostgresStorage(cfg.JWTSecret, cfg.TokenTTL),
			categories: postgres.NewCategoryPostgresStorage(),
			close:      postgres.CloseDB,
		}, nil

	case "memory":
		logger.Info("using in-memory storage")
		posts := memory.NewPostMemoryStorage()
		return &stores{
			posts:      posts,
			replies:    memory.NewReplyMemoryStorage(posts, subs),
			users:      memory.NewUserMemoryStorage(cfg.JWTSecret, cfg.TokenTTL),
			categories: memory.NewCategoryMemoryStorage(),
			close:      func() error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Storage)
	}
}

func newLogger(levelName string) *slog.Logger {
	var level slog.Level
	switch levelName {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}
