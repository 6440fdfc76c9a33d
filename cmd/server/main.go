// Package main - точка входа для API сервера Emma Hub.
//
// Сервер обслуживает REST API подбора пар:
// - Регистрация участников и приём анкет
// - Запуск подбора (админский эндпоинт)
// - Выдача результата участнику по email
//
// Философия: "Совместимость важнее случайности" - сервер превращает
// ответы анкеты в пары и группы, в которых участникам действительно
// есть о чём поговорить.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/emma-hub/emma-backend/config"
	"github.com/emma-hub/emma-backend/internal/application/command"
	"github.com/emma-hub/emma-backend/internal/application/eventhandler"
	"github.com/emma-hub/emma-backend/internal/application/query"
	"github.com/emma-hub/emma-backend/internal/domain/matchmaking"
	"github.com/emma-hub/emma-backend/internal/domain/shared"
	"github.com/emma-hub/emma-backend/internal/infrastructure/messaging"
	"github.com/emma-hub/emma-backend/internal/infrastructure/metrics"
	"github.com/emma-hub/emma-backend/internal/infrastructure/persistence/postgres"
	"github.com/emma-hub/emma-backend/internal/infrastructure/persistence/redis"
	"github.com/emma-hub/emma-backend/internal/infrastructure/scheduler"
	"github.com/emma-hub/emma-backend/internal/infrastructure/scheduler/jobs"
	httpapi "github.com/emma-hub/emma-backend/internal/interface/http"
	"github.com/emma-hub/emma-backend/internal/interface/http/handlers"
	"github.com/emma-hub/emma-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	// Создаём корневой контекст с возможностью отмены
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запускаем приложение
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting Emma Hub API server",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL/Supabase)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("checking database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var matchCache *redis.MatchCache
	var submissionGuard *redis.SubmissionGuard

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCache, err = redis.NewCache(buildRedisConfig(cfg.Redis))
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", "error", err)
			redisCache = nil
		} else {
			defer func() { _ = redisCache.Close() }()
			matchCache = redis.NewMatchCache(redisCache)
			submissionGuard = redis.NewSubmissionGuard(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	participantRepo := postgres.NewParticipantRepository(dbConn)
	matchRepo := postgres.NewMatchRunRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ EVENT BUS И ПОДПИСОК
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	eventBusConfig := messaging.DefaultInMemoryEventBusConfig()
	eventBusConfig.Logger = log
	eventBusConfig.AsyncMode = true
	eventBus := messaging.NewInMemoryEventBus(eventBusConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	if matchCache != nil {
		warmHandler := eventhandler.NewOnMatchRunCompletedHandler(matchRepo, matchCache, log)
		if err := eventBus.Subscribe(shared.EventMatchRunCompleted, warmHandler.Handle); err != nil {
			return fmt.Errorf("failed to subscribe cache warmer: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ИНИЦИАЛИЗАЦИЯ ДВИЖКА И ОБРАБОТЧИКОВ (CQRS)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing matchmaking engine and handlers...")
	engine := matchmaking.NewEngine()
	runMetrics := metrics.NewRecorder()

	registerHandler := command.NewRegisterParticipantHandler(participantRepo, eventBus)

	// Интерфейсные значения с nil указателем внутри ломают nil-проверки,
	// поэтому при выключенном Redis передаём честный nil
	var guard command.SubmissionGuard
	if submissionGuard != nil {
		guard = submissionGuard
	}
	submitHandler := command.NewSubmitAnswersHandler(participantRepo, guard, eventBus)
	runHandler := command.NewRunMatchmakingHandler(participantRepo, matchRepo, engine, eventBus, runMetrics)

	checkEmailHandler := query.NewCheckEmailHandler(participantRepo)
	getParticipantHandler := query.NewGetParticipantHandler(participantRepo)

	var viewCache query.MatchViewCache
	if matchCache != nil {
		viewCache = matchCache
	}
	getMyMatchHandler := query.NewGetMyMatchHandler(participantRepo, matchRepo, viewCache)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	healthChecker.AddCheck("database", handlers.NewPingCheck(dbConn))
	if redisCache != nil {
		healthChecker.AddCheck("redis", handlers.NewPingCheck(redisCache))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. HTTP СЕРВЕР
	// ─────────────────────────────────────────────────────────────────────────
	serverConfig := httpapi.DefaultConfig()
	serverConfig.Host = cfg.HTTP.Host
	serverConfig.Port = cfg.HTTP.Port
	serverConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	serverConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	serverConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	serverConfig.EnableCORS = cfg.HTTP.EnableCORS
	serverConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	serverConfig.EnableMetrics = cfg.Observability.MetricsEnabled
	serverConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	serverConfig.MaxBodyBytes = cfg.HTTP.MaxBodyBytes
	serverConfig.AdminTokenHeader = cfg.HTTP.AdminTokenHeader
	serverConfig.AdminTokenHash = cfg.HTTP.AdminTokenHash
	serverConfig.DefaultBaseline = cfg.Matchmaking.DefaultBaseline

	server := httpapi.NewServer(serverConfig, httpapi.Dependencies{
		RegisterParticipantHandler: registerHandler,
		SubmitAnswersHandler:       submitHandler,
		RunMatchmakingHandler:      runHandler,
		CheckEmailHandler:          checkEmailHandler,
		GetParticipantHandler:      getParticipantHandler,
		GetMyMatchHandler:          getMyMatchHandler,
		Logger:                     logger.New(logger.Options{Output: os.Stdout, Level: logger.ParseLevel(cfg.Observability.LogLevel), AddCaller: true}),
		HealthChecker:              healthChecker,
	})

	serverErrCh := server.StartAsync()
	log.Info("HTTP server started", "host", cfg.HTTP.Host, "port", cfg.HTTP.Port)

	// ─────────────────────────────────────────────────────────────────────────
	// 11. ПЛАНИРОВЩИК (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled && cfg.Scheduler.MatchRunEnabled {
		log.Info("initializing scheduler...",
			"match_run_interval", cfg.Scheduler.MatchRunInterval.String(),
		)

		schedConfig := scheduler.DefaultSchedulerConfig()
		schedConfig.Logger = log
		schedConfig.Timezone = cfg.App.Location
		sched = scheduler.NewScheduler(schedConfig)

		jobConfig := jobs.DefaultScheduledMatchmakingConfig()
		jobConfig.Baseline = cfg.Matchmaking.DefaultBaseline
		jobConfig.Timeout = cfg.Scheduler.JobTimeout
		matchJob := jobs.NewScheduledMatchmakingJob(runHandler, log, jobConfig)

		// Cron-выражение имеет приоритет над фиксированным интервалом.
		var schedule scheduler.Schedule = scheduler.NewIntervalSchedule(cfg.Scheduler.MatchRunInterval)
		if cfg.Scheduler.MatchRunCron != "" {
			cronSchedule, err := scheduler.ParseCronSchedule(cfg.Scheduler.MatchRunCron)
			if err != nil {
				return fmt.Errorf("invalid SCHEDULER_MATCH_RUN_CRON: %w", err)
			}
			schedule = cronSchedule
		}

		if err := sched.Register(matchJob, schedule); err != nil {
			return fmt.Errorf("failed to register matchmaking job: %w", err)
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			log.Info("stopping scheduler...")
			_ = sched.Stop()
		}()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 12. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("Emma Hub API server is running",
		"redis", redisCache != nil,
		"scheduler", sched != nil,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-serverErrCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	// Начинаем graceful shutdown
	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", "error", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	if cfg.IsProduction() || cfg.Observability.LogFormat == "json" {
		// JSON формат для production (лучше для агрегаторов логов)
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		// Текстовый формат для development (лучше читается)
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

// buildRedisConfig собирает конфигурацию Redis клиента из настроек приложения.
// REDIS_URL имеет приоритет над индивидуальными полями.
func buildRedisConfig(rc config.RedisConfig) redis.Config {
	cfg := redis.DefaultConfig()
	cfg.Host = rc.Host
	cfg.Port = rc.Port
	cfg.Password = rc.Password
	cfg.DB = rc.DB
	cfg.PoolSize = rc.PoolSize
	cfg.MinIdleConns = rc.MinIdleConns
	cfg.DialTimeout = rc.DialTimeout
	cfg.ReadTimeout = rc.ReadTimeout
	cfg.WriteTimeout = rc.WriteTimeout

	if rc.URL != "" {
		if u, err := url.Parse(rc.URL); err == nil && u.Host != "" {
			cfg.Host = u.Hostname()
			if p, err := strconv.Atoi(u.Port()); err == nil {
				cfg.Port = p
			}
			if pass, ok := u.User.Password(); ok {
				cfg.Password = pass
			}
			if db, err := strconv.Atoi(strings.TrimPrefix(u.Path, "/")); err == nil {
				cfg.DB = db
			}
		}
	}

	return cfg
}
