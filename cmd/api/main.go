package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	httptransport "github.com/deskflow/helpdesk/internal/api/http"
	"github.com/deskflow/helpdesk/internal/api/http/handlers"
	"github.com/deskflow/helpdesk/internal/auth"
	"github.com/deskflow/helpdesk/internal/config"
	"github.com/deskflow/helpdesk/internal/events"
	"github.com/deskflow/helpdesk/internal/notify"
	"github.com/deskflow/helpdesk/internal/observability"
	"github.com/deskflow/helpdesk/internal/persistence"
	"github.com/deskflow/helpdesk/internal/report"
	"github.com/deskflow/helpdesk/internal/repository"
	"github.com/deskflow/helpdesk/internal/repository/memory"
	"github.com/deskflow/helpdesk/internal/service"
	"github.com/deskflow/helpdesk/internal/worker"
)

const webhookTimeout = 10 * time.Second

var errRedisRequired = errors.New("NOTIFY_BACKEND=redis requires REDIS_ADDR")

type repositories struct {
	departments repository.DepartmentRepository
	reasons     repository.ReasonRepository
	users       repository.UserRepository
	tickets     repository.TicketRepository
	history     repository.TicketHistoryRepository
	reports     repository.ReportRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	repos := buildRepositories(pg)
	repos.departments = repository.NewCachedDepartments(repos.departments, cfg.Cache.Size, cfg.Cache.TTL(), metrics)
	repos.reasons = repository.NewCachedReasons(repos.reasons, cfg.Cache.Size, cfg.Cache.TTL(), metrics)

	var sessions auth.SessionStore = auth.NewMemorySessionStore()
	var reportCache report.Cache
	if redis.Enabled() {
		sessions = auth.NewRedisSessionStore(redis.Client, "")
		reportCache = report.NewRedisCache(redis.Client, "")
	}

	dispatcher, err := buildDispatcher(cfg.Notification, redis, logger, metrics)
	if err != nil {
		logger.Fatal("failed to build dispatcher", zap.Error(err))
	}

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:       repos.users,
		DepartmentRepo: repos.departments,
		Sessions:       sessions,
		Logger:         logger,
	})
	catalogService := service.NewCatalogService(repos.departments, repos.reasons)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     repos.tickets,
		DepartmentRepo: repos.departments,
		ReasonRepo:     repos.reasons,
		HistoryRepo:    repos.history,
		Dispatcher:     dispatcher,
		Logger:         logger,
		Metrics:        metrics,
	})
	reportService := service.NewReportService(cfg.Report, service.ReportDependencies{
		ReportRepo:    repos.reports,
		TicketService: ticketService,
		Cache:         reportCache,
		Logger:        logger,
		Metrics:       metrics,
	})

	renderer, err := notify.NewRenderer()
	if err != nil {
		logger.Fatal("failed to parse notification templates", zap.Error(err))
	}
	mailers := []notify.Mailer{notify.NewLogMailer(logger)}
	if cfg.Notification.WebhookURL != "" {
		mailers = append(mailers, notify.NewWebhookMailer(cfg.Notification.WebhookURL, webhookTimeout))
	}
	notificationService := service.NewNotificationService(cfg.Notification, service.NotificationDependencies{
		Dispatcher: dispatcher,
		UserRepo:   repos.users,
		Renderer:   renderer,
		Mailers:    mailers,
		Logger:     logger,
		Metrics:    metrics,
	})
	workerDone := worker.StartNotificationWorker(ctx, notificationService, dispatcher, logger)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), sessions, repos.users)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService, catalogService),
		Catalog:        handlers.NewCatalogHandler(catalogService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Reports:        handlers.NewReportsHandler(reportService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	<-workerDone
}

func buildRepositories(pg *persistence.Postgres) repositories {
	if !pg.Enabled() {
		store := memory.NewStore()
		return repositories{
			departments: store.Departments(),
			reasons:     store.Reasons(),
			users:       store.Users(),
			tickets:     store.Tickets(),
			history:     store.History(),
			reports:     store.Reports(),
		}
	}
	pool := pg.PoolHandle()
	return repositories{
		departments: repository.NewDepartmentRepository(pool),
		reasons:     repository.NewReasonRepository(pool),
		users:       repository.NewUserRepository(pool),
		tickets:     repository.NewTicketRepository(pool),
		history:     repository.NewTicketHistoryRepository(pool),
		reports:     repository.NewReportRepository(pool),
	}
}

func buildDispatcher(cfg config.NotificationConfig, redis *persistence.Redis, logger *zap.Logger, metrics *observability.Metrics) (events.Dispatcher, error) {
	retry := events.RetryPolicy{MaxAttempts: cfg.MaxAttempts, BaseBackoff: cfg.BaseBackoff()}
	if cfg.Backend != config.NotifyBackendRedis {
		return events.NewMemoryDispatcher(cfg.QueueSize, cfg.Workers, retry, logger, metrics), nil
	}
	if !redis.Enabled() {
		return nil, errRedisRequired
	}
	return events.NewRedisDispatcher(redis.Client, events.RedisOptions{
		QueueKey:    cfg.RedisQueueKey,
		DeadKey:     cfg.RedisDeadKey,
		PollTimeout: time.Duration(cfg.PollTimeoutSec) * time.Second,
		Workers:     cfg.Workers,
		Retry:       retry,
	}, logger, metrics), nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
