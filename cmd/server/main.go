package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"relieflink/internal/attestation"
	"relieflink/internal/audit"
	"relieflink/internal/auth"
	"relieflink/internal/auth/token"
	"relieflink/internal/distribution"
	distributionmetrics "relieflink/internal/distribution/metrics"
	"relieflink/internal/eligibility"
	eligibilitymetrics "relieflink/internal/eligibility/metrics"
	eligibilitytracer "relieflink/internal/eligibility/tracer"
	ledgerstore "relieflink/internal/ledger/store/distribution"
	"relieflink/internal/platform/config"
	"relieflink/internal/platform/database"
	"relieflink/internal/platform/httpserver"
	"relieflink/internal/platform/kafka"
	"relieflink/internal/platform/kafka/producer"
	"relieflink/internal/platform/logger"
	"relieflink/internal/platform/redis"
	registrymetrics "relieflink/internal/registry/metrics"
	registryservice "relieflink/internal/registry/service"
	familystore "relieflink/internal/registry/store/family"
	httptransport "relieflink/internal/transport/http"
	"relieflink/migrations"
)

// dependencyCheck adapts a backing-store probe to the /healthz contract.
type dependencyCheck struct {
	name  string
	check func(ctx context.Context) error
}

func (d dependencyCheck) Name() string                     { return d.name }
func (d dependencyCheck) Health(ctx context.Context) error { return d.check(ctx) }

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing relieflink",
		"addr", cfg.Addr,
		"storage", cfg.StorageBackend,
		"attestation", cfg.AttestationMode,
	)

	ctx := context.Background()

	registryMetrics := registrymetrics.New()

	var (
		families familystore.Store
		ledger   ledgerstore.Store
		checkers []httptransport.HealthChecker
		pool     *database.Pool
	)

	switch cfg.StorageBackend {
	case config.BackendPostgres:
		dbCfg := database.DefaultConfig()
		dbCfg.URL = cfg.DatabaseURL
		var err error
		pool, err = database.New(dbCfg)
		if err != nil {
			log.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		if pool == nil {
			log.Error("postgres backend selected but DATABASE_URL is empty")
			os.Exit(1)
		}
		if err := migrations.Apply(ctx, pool.DB()); err != nil {
			log.Error("apply migrations", "error", err)
			os.Exit(1)
		}
		families = familystore.NewPostgres(pool.DB())
		ledger = ledgerstore.NewPostgres(pool.DB())
		checkers = append(checkers, dependencyCheck{name: "postgres", check: pool.Health})
	case config.BackendMemory:
		families = familystore.NewMemory()
		ledger = ledgerstore.NewMemory()
	default:
		log.Error("unknown storage backend", "backend", cfg.StorageBackend)
		os.Exit(1)
	}

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		families = familystore.NewCached(families, redisClient.Client, config.FamilyCacheTTL, registryMetrics)
		checkers = append(checkers, dependencyCheck{name: "redis", check: redisClient.Health})
		log.Info("family cache enabled", "ttl", config.FamilyCacheTTL)
	}

	// Audit trail: Kafka when brokers are configured, in-memory otherwise.
	var auditStore audit.Store = audit.NewInMemoryStore()
	var kafkaProducer *producer.Producer
	if cfg.KafkaBrokers != "" {
		kcfg := kafka.DefaultProducerConfig()
		kcfg.Brokers = cfg.KafkaBrokers
		kafkaProducer, err = producer.New(kcfg, log)
		if err != nil {
			log.Error("create kafka producer", "error", err)
			os.Exit(1)
		}
		if err := kafkaProducer.EnsureTopic(ctx, cfg.AuditTopic, 3); err != nil {
			log.Error("ensure audit topic", "topic", cfg.AuditTopic, "error", err)
			os.Exit(1)
		}
		auditStore = audit.NewKafkaSink(kafkaProducer, cfg.AuditTopic)
		checkers = append(checkers, dependencyCheck{
			name:  "kafka",
			check: kafka.NewHealthChecker(cfg.KafkaBrokers).Check,
		})
	}

	publisher := audit.NewPublisher(auditStore,
		audit.WithAsyncBuffer(256),
		audit.WithPublisherLogger(log),
	)

	attestor := attestation.New(cfg.AttestationMode)
	tokens := token.NewService(cfg.JWTSigningKey, "relieflink", "relieflink-field", token.DefaultTTL)

	authSvc, err := auth.New(attestor, tokens,
		auth.WithLogger(log),
		auth.WithAuditPublisher(publisher),
		auth.WithOperatorKeyHash(cfg.OperatorKeyHash),
	)
	if err != nil {
		log.Error("build auth service", "error", err)
		os.Exit(1)
	}

	registry, err := registryservice.New(families,
		registryservice.WithLogger(log),
		registryservice.WithAuditPublisher(publisher),
		registryservice.WithMetrics(registryMetrics),
	)
	if err != nil {
		log.Error("build registry service", "error", err)
		os.Exit(1)
	}

	engine, err := eligibility.New(families, ledger,
		eligibility.WithLogger(log),
		eligibility.WithMetrics(eligibilitymetrics.New()),
		eligibility.WithTracer(eligibilitytracer.NewOTel()),
	)
	if err != nil {
		log.Error("build eligibility engine", "error", err)
		os.Exit(1)
	}

	distributions, err := distribution.New(engine, ledger,
		distribution.WithLogger(log),
		distribution.WithAuditPublisher(publisher),
		distribution.WithMetrics(distributionmetrics.New()),
		distribution.WithMaxQuantity(int64(cfg.MaxQuantity)),
	)
	if err != nil {
		log.Error("build distribution service", "error", err)
		os.Exit(1)
	}

	handler := httptransport.NewHandler(attestor, authSvc, registry, engine, distributions, log,
		httptransport.WithHealthCheckers(checkers...),
	)
	router := httptransport.NewRouter(handler)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}

	// Drain buffered audit events before releasing backing stores.
	publisher.Close()
	if kafkaProducer != nil {
		kafkaProducer.Close() //nolint:errcheck // flushes internally, nothing to recover
	}
	if redisClient != nil {
		redisClient.Close() //nolint:errcheck // best-effort cleanup on exit
	}
	if pool != nil {
		pool.Close() //nolint:errcheck // best-effort cleanup on exit
	}

	log.Info("server stopped")
}
