package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	_ "go.uber.org/automaxprocs"

	"autostream-dashboard/internal/adapters/httpapi"
	"autostream-dashboard/internal/adapters/realtime"
	"autostream-dashboard/internal/adapters/repo"
	"autostream-dashboard/internal/adapters/worker"
	"autostream-dashboard/internal/domain"
	"autostream-dashboard/internal/infra/cache"
	"autostream-dashboard/internal/infra/config"
	"autostream-dashboard/internal/infra/db"
	httpinfra "autostream-dashboard/internal/infra/http"
	applog "autostream-dashboard/internal/infra/log"
	"autostream-dashboard/internal/infra/metrics"
	"autostream-dashboard/internal/usecase/activity"
	"autostream-dashboard/internal/usecase/botconfig"
	"autostream-dashboard/internal/usecase/health"
	"autostream-dashboard/internal/usecase/queue"
	"autostream-dashboard/internal/usecase/schedule"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		metrics.StartServer(ctx, applog.Component(logger, "metrics"), cfg.MetricsAddr)
	}

	if cfg.PGDSN == "" {
		logger.Fatal().Msg("dashboard: не указан адрес БД (PG_DSN)")
	}
	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("dashboard: нет подключения к БД")
	}
	defer pool.Close()
	if err := db.Migrate(pool); err != nil {
		logger.Fatal().Err(err).Msg("dashboard: миграции не применены")
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
	}

	repoAdapter := repo.NewPostgres(pool)
	journal := activity.NewJournal(applog.Component(logger, "journal"), cfg.Journal.Capacity)

	workerClient, err := worker.New(cfg.Worker.BaseURL, worker.WithTimeout(cfg.Worker.Timeout))
	if err != nil {
		logger.Fatal().Err(err).Msg("dashboard: некорректный адрес воркера")
	}
	var analytics httpapi.Analytics = workerClient
	if redisClient != nil {
		analytics = worker.NewCachedAnalytics(workerClient, cache.NewRedis(redisClient), cfg.Worker.AnalyticsCacheTTL, applog.Component(logger, "worker"))
	}

	feed, err := newFeed(cfg, pool, redisClient, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("dashboard: канал уведомлений недоступен")
	}

	var contentRepo domain.ContentRepo = repoAdapter
	if redisFeed, ok := feed.(*realtime.RedisFeed); ok {
		contentRepo = realtime.NewNotifyingRepo(repoAdapter, redisFeed, applog.Component(logger, "realtime"))
	}

	queueService := queue.NewService(contentRepo, queue.NewStore(), journal, applog.Component(logger, "queue"))
	reconciler := queue.NewReconciler(feed, queueService, cfg.Realtime.RetryDelay, applog.Component(logger, "reconciler"))
	scheduleService, err := schedule.NewService(repoAdapter, queueService.Store(), cfg.TZ, applog.Component(logger, "schedule"))
	if err != nil {
		logger.Fatal().Err(err).Str("tz", cfg.TZ).Msg("dashboard: некорректный часовой пояс")
	}
	botConfigService := botconfig.NewService(repoAdapter, repoAdapter, workerClient)
	monitor := health.NewMonitor(workerClient, cfg.Worker.HealthInterval, applog.Component(logger, "health"))

	if cfg.Session.PasswordHash == "" || cfg.Session.Secret == "" {
		logger.Warn().Msg("dashboard: DASHBOARD_PASSWORD_HASH или SESSION_SECRET не заданы, вход невозможен")
	}
	sessions := httpinfra.NewSessionGate(cfg.Session.PasswordHash, cfg.Session.Secret, cfg.Session.TTL)

	server := httpinfra.NewServer(applog.Component(logger, "http"), fmt.Sprintf(":%d", cfg.Port))
	httpapi.NewHandler(httpapi.Deps{
		Queue:     queueService,
		Schedule:  scheduleService,
		BotConfig: botConfigService,
		Analytics: analytics,
		Health:    monitor,
		Logs:      journal,
		Sessions:  sessions,
	}, applog.Component(logger, "api")).Mount(server.Router)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := reconciler.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("dashboard: реконсилер остановлен")
		}
	}()
	go func() {
		defer wg.Done()
		monitor.Run(ctx)
	}()

	journal.Info("System", "Dashboard started")

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("dashboard: сервер остановлен")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("dashboard: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("dashboard: ошибка остановки сервера")
	}
	wg.Wait()
}

func newFeed(cfg config.AppConfig, pool *pgxpool.Pool, redisClient *redis.Client, logger zerolog.Logger) (domain.ChangeFeed, error) {
	feedLogger := applog.Component(logger, "realtime")
	switch cfg.Realtime.Backend {
	case "", "postgres":
		return realtime.NewPGFeed(pool, cfg.Realtime.Channel, feedLogger), nil
	case "redis":
		if redisClient == nil {
			return nil, errors.New("REALTIME_BACKEND=redis требует REDIS_ADDR")
		}
		return realtime.NewRedisFeed(redisClient, cfg.Realtime.Channel, feedLogger), nil
	default:
		return nil, fmt.Errorf("неизвестный REALTIME_BACKEND %q", cfg.Realtime.Backend)
	}
}
