package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/core/port"
	"github.com/hiveiam/hive/internal/infra/audit"
	"github.com/hiveiam/hive/internal/infra/config"
	"github.com/hiveiam/hive/internal/infra/database"
	kafkainfra "github.com/hiveiam/hive/internal/infra/kafka"
	"github.com/hiveiam/hive/internal/infra/logger"
	redisinfra "github.com/hiveiam/hive/internal/infra/redis"
	"github.com/hiveiam/hive/internal/infra/telemetry"
	"github.com/hiveiam/hive/internal/integrations"
	postgresrepo "github.com/hiveiam/hive/internal/repository/postgres"
	redisrepo "github.com/hiveiam/hive/internal/repository/redis"
	"github.com/hiveiam/hive/internal/resolver"
	"github.com/hiveiam/hive/internal/transport/http/middleware"
	"github.com/hiveiam/hive/internal/transport/http/routes"
	"github.com/hiveiam/hive/internal/usecase"
)

// WriteServices groups the write-path usecases. New hands them to
// routes.Register as ServiceSet.Write; the admin routes that call them
// are mounted only when a SessionGuard is supplied, and New supplies none.
type WriteServices struct {
	Groups      *usecase.GroupUsecase
	Permissions *usecase.PermissionUsecase
	Tags        *usecase.TagUsecase
	Tokens      *usecase.TokenUsecase
	Systems     *usecase.SystemUsecase
}

// Application owns the process's top-level dependencies and HTTP
// lifecycle.
type Application struct {
	cfg        *config.AppConfig
	engine     *gin.Engine
	logger     *zap.Logger
	pool       *pgxpool.Pool
	redis      *redisinfra.Client
	runner     *integrations.Runner
	touchQueue *redisinfra.TouchQueue
	tokens     port.APITokenRepository
	Write      WriteServices
}

// touchDrainInterval is how often pending API token touches are flushed
// from the Redis coalescing queue into PostgreSQL (§4.4 step 5).
const touchDrainInterval = 10 * time.Second

// touchDrainBatch caps how many tokens are flushed per drain tick.
const touchDrainBatch = 500

// New builds and wires every collaborator the service needs and
// registers the HTTP engine; it does not start listening.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	if _, err := telemetry.Attach(ctx, cfg); err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)

	touchQueue := redisinfra.NewTouchQueue(redisClient, cfg.Redis.TouchPrefix)

	var mirrors []port.AuditSink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, audit mirror disabled", zap.Error(err))
			mirrors = append(mirrors, kafkainfra.NewStubAuditSink(log))
		} else {
			mirrors = append(mirrors, kafkainfra.NewAuditSink(kafkaProducer, cfg.App, log))
			log.Info("kafka audit mirror initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub audit mirror")
		mirrors = append(mirrors, kafkainfra.NewStubAuditSink(log))
	}
	auditSink := audit.NewCompositeSink(repos.Audit, log, mirrors...)

	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: "hive:rate-limit",
		TTL:       cfg.LegacyAPI.RateLimitWindow * 2,
	})
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	membershipResolver := resolver.NewMembershipResolver(repos.Groups, repos.Memberships)
	permissionResolver := resolver.NewPermissionResolver(membershipResolver, repos.Permissions)
	tagResolver := resolver.NewTagResolver(repos.Tags)

	touchMode := domain.ParseTokenTouchMode(cfg.Tokens.TouchMode)
	gate := usecase.NewAuthGate(repos.Tokens, touchQueue, permissionResolver, touchMode, log)
	queries := usecase.NewQueryService(repos.Groups, repos.Tags, repos.Systems, permissionResolver, tagResolver, membershipResolver)

	write := WriteServices{
		Groups:      usecase.NewGroupUsecase(repos.Groups, repos.Memberships, auditSink),
		Permissions: usecase.NewPermissionUsecase(repos.Permissions, auditSink),
		Tags:        usecase.NewTagUsecase(repos.Tags, auditSink),
		Tokens:      usecase.NewTokenUsecase(repos.Tokens, repos.Systems, auditSink),
		Systems:     usecase.NewSystemUsecase(repos.Systems, auditSink),
	}

	runner := integrations.NewRunner(repos.Integrations, log)
	if cfg.Integration.ReconcileOnStartup {
		if err := runner.ReconcileOnStartup(ctx); err != nil {
			log.Warn("failed to reconcile orphaned integration runs", zap.Error(err))
		}
	}
	if cfg.Integration.GoogleWorkspaceEnabled {
		log.Warn("google workspace integration enabled but no directory client configured, skipping registration")
	}

	// The admin write API is gated behind an OIDC session guard (C.3);
	// no concrete guard is wired here, so Dependencies.SessionGuard is nil
	// and routes.Register leaves /api/admin unmounted even though the
	// write usecases are passed on ServiceSet.Write.
	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Gate:    gate,
			Queries: queries,
			Write: routes.WriteServiceSet{
				Groups:      write.Groups,
				Permissions: write.Permissions,
				Tags:        write.Tags,
				Tokens:      write.Tokens,
				Systems:     write.Systems,
			},
		},
	})

	return &Application{
		cfg:        cfg,
		engine:     engine,
		logger:     log,
		pool:       pool,
		redis:      redisClient,
		runner:     runner,
		touchQueue: touchQueue,
		tokens:     repos.Tokens,
		Write:      write,
	}, nil
}

// drainTouchQueue periodically flushes pending API token touches into
// PostgreSQL until ctx is cancelled.
func (a *Application) drainTouchQueue(ctx context.Context) {
	ticker := time.NewTicker(touchDrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			due, err := a.touchQueue.DrainDue(ctx, touchDrainBatch)
			if err != nil {
				a.logger.Warn("drain token touch queue failed", zap.Error(err))
				continue
			}
			for tokenID, at := range due {
				if err := a.tokens.Touch(ctx, tokenID, at); err != nil {
					a.logger.Warn("flush queued token touch failed", zap.String("api_token_id", tokenID), zap.Error(err))
				}
			}
		}
	}
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// server fails.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting hive API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	drainCtx, cancelDrain := context.WithCancel(context.Background())
	defer cancelDrain()
	go a.drainTouchQueue(drainCtx)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
