package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"kidsearch/internal/audit"
	authhandler "kidsearch/internal/auth/handler"
	authservice "kidsearch/internal/auth/service"
	authstore "kidsearch/internal/auth/store"
	geohandler "kidsearch/internal/geo/handler"
	geometrics "kidsearch/internal/geo/metrics"
	"kidsearch/internal/geo/normalize"
	geoservice "kidsearch/internal/geo/service"
	geostore "kidsearch/internal/geo/store"
	jwttoken "kidsearch/internal/jwt_token"
	"kidsearch/internal/platform/config"
	"kidsearch/internal/platform/httpserver"
	"kidsearch/internal/platform/kafka"
	"kidsearch/internal/platform/logger"
	"kidsearch/internal/platform/middleware"
	"kidsearch/internal/platform/postgres"
	platformredis "kidsearch/internal/platform/redis"
	providerhandler "kidsearch/internal/provider/handler"
	providerservice "kidsearch/internal/provider/service"
	providerstore "kidsearch/internal/provider/store"
	txcontext "kidsearch/pkg/platform/tx"
)

const outboxPollInterval = 5 * time.Second

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Error("failed to ensure schema", "error", err.Error())
		os.Exit(1)
	}

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err.Error())
		os.Exit(1)
	}
	if redisClient == nil {
		log.Info("redis not configured, geocoder cache disabled")
	}

	kafkaClient, err := kafka.New(ctx, cfg.KafkaBrokers)
	if err != nil {
		log.Error("failed to connect to kafka", "error", err.Error())
		os.Exit(1)
	}
	if kafkaClient == nil {
		log.Info("kafka not configured, audit publishing disabled")
	} else {
		defer kafkaClient.Close()
		if err := kafka.EnsureTopic(ctx, kafkaClient, cfg.AuditTopic); err != nil {
			log.Error("failed to ensure audit topic", "error", err.Error())
			os.Exit(1)
		}
	}

	geoStore := geostore.NewPostgres(db)
	if err := geostore.SeedCountries(ctx, geoStore); err != nil {
		log.Error("failed to seed countries", "error", err.Error())
		os.Exit(1)
	}

	var russiaNormalizer normalize.Normalizer = normalize.NewYandex(cfg.YandexAPIKey)
	if redisClient != nil {
		russiaNormalizer = normalize.NewCached(russiaNormalizer, redisClient.Client, cfg.GeocoderCacheTTL, log)
	}
	registry := normalize.NewRegistry()
	registry.Register("Russia", russiaNormalizer)

	outbox := audit.NewPostgres(db)
	metrics := geometrics.New()

	geoSvc := geoservice.New(geoStore, registry,
		geoservice.WithLogger(log),
		geoservice.WithMetrics(metrics),
	)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)
	authSvc := authservice.New(authstore.NewPostgres(db), jwtService, cfg.AccessTokenTTL,
		authservice.WithLogger(log),
		authservice.WithAudit(outbox),
	)

	providerSvc := providerservice.New(providerstore.NewPostgres(db), geoSvc, txcontext.NewSQLRunner(db),
		providerservice.WithLogger(log),
		providerservice.WithAudit(outbox),
	)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())

	geohandler.New(geoSvc, log).Register(router)
	authhandler.New(authSvc, log).Register(router)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwttoken.NewJWTServiceAdapter(jwtService), log))
		providerhandler.New(providerSvc, log).Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting kidsearch server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if kafkaClient != nil {
		worker := audit.NewWorker(outbox, kafkaClient, cfg.AuditTopic, outboxPollInterval, log)
		group.Go(func() error {
			err := worker.Run(groupCtx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited with error", "error", err.Error())
		os.Exit(1)
	}
	log.Info("server stopped")
}
