// Command server runs the reminder API, the snooze worker and, when a
// broker is configured, the transition consumer group. Business logic
// lives in the internal service packages; main only wires dependencies.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	"github.com/trivedidharmik/pinder/internal/deviceauth"
	deviceauthhandler "github.com/trivedidharmik/pinder/internal/deviceauth/handler"
	"github.com/trivedidharmik/pinder/internal/geofence"
	"github.com/trivedidharmik/pinder/internal/notify"
	"github.com/trivedidharmik/pinder/internal/platform/config"
	"github.com/trivedidharmik/pinder/internal/platform/httpserver"
	"github.com/trivedidharmik/pinder/internal/platform/kafka"
	"github.com/trivedidharmik/pinder/internal/platform/logger"
	"github.com/trivedidharmik/pinder/internal/platform/postgres"
	platformredis "github.com/trivedidharmik/pinder/internal/platform/redis"
	"github.com/trivedidharmik/pinder/internal/prefs"
	prefshandler "github.com/trivedidharmik/pinder/internal/prefs/handler"
	"github.com/trivedidharmik/pinder/internal/reconcile"
	reconcilehandler "github.com/trivedidharmik/pinder/internal/reconcile/handler"
	reminderhandler "github.com/trivedidharmik/pinder/internal/reminder/handler"
	"github.com/trivedidharmik/pinder/internal/reminder/metrics"
	"github.com/trivedidharmik/pinder/internal/reminder/service"
	"github.com/trivedidharmik/pinder/internal/reminder/store"
	"github.com/trivedidharmik/pinder/internal/snooze"
	httptransport "github.com/trivedidharmik/pinder/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Storage. Postgres when configured, in-memory otherwise.
	var reminderStore store.Store
	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if _, err := db.ExecContext(ctx, store.Schema); err != nil {
			return err
		}
		reminderStore = store.NewPostgres(db)
		log.Info("using postgres store")
	} else {
		reminderStore = store.NewMemory()
		log.Warn("no postgres DSN configured, using in-memory store")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var (
		prefStore prefs.Store
		queue     snooze.Queue
		tokens    *notify.RedisTokens
	)
	if redisClient != nil {
		prefStore = prefs.NewRedis(redisClient.Client)
		queue = snooze.NewRedisQueue(redisClient.Client)
		tokens = notify.NewRedisTokens(redisClient.Client)
	} else {
		prefStore = prefs.NewMemory()
		queue = snooze.NewMemoryQueue()
	}

	// Geofencing. An external service when configured, in-process
	// bookkeeping otherwise.
	permissions := geofence.NewStaticPermissions()
	var regions geofence.Regions
	if cfg.Geofence.ServiceURL != "" {
		regions = geofence.NewHTTPRegions(cfg.Geofence.ServiceURL, &http.Client{Timeout: 10 * time.Second})
	} else {
		regions = geofence.NewMemoryRegions()
	}
	registry := geofence.NewRegistry(regions, permissions, log)

	// Notifications. FCM push when credentials are present.
	var presenter notify.Presenter
	if cfg.FCM.CredentialsFile != "" {
		if tokens == nil {
			return errors.New("FCM push requires redis for device token storage")
		}
		app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(cfg.FCM.CredentialsFile))
		if err != nil {
			return err
		}
		presenter, err = notify.NewFCMPresenter(ctx, app, tokens)
		if err != nil {
			return err
		}
		log.Info("using FCM notification transport")
	} else {
		presenter = notify.NewMemoryPresenter()
		log.Warn("no FCM credentials configured, notifications stay in-process")
	}
	gateway := notify.NewGateway(presenter, permissions, log)

	scheduler := snooze.NewScheduler(queue, prefStore, log)
	worker := snooze.NewWorker(queue, reminderStore, gateway, log, cfg.SnoozeTickInterval)
	reconciler := reconcile.New(reminderStore, gateway, log, m)
	svc := service.New(reminderStore, registry, gateway, scheduler, prefStore, log, m)

	// Transition ingest. Through the broker when configured so
	// reconciliation happens off the request path.
	var (
		ingestor reconcile.Ingestor
		consumer *kafka.Consumer
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers)
		if err != nil {
			return err
		}
		defer producer.Close()
		ingestor = reconcile.NewKafkaIngestor(producer)

		consumer, err = kafka.NewConsumer(cfg.Kafka.Brokers, kafka.ConsumerGroup,
			kafka.TransitionsTopic, reconcile.ConsumerHandler(reconciler, log), log)
		if err != nil {
			return err
		}
		log.Info("transition ingest via kafka", "brokers", cfg.Kafka.Brokers)
	} else {
		ingestor = reconcile.NewDirectIngestor(reconciler)
		log.Warn("no kafka brokers configured, reconciling transitions inline")
	}

	auth := deviceauth.NewService(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	var registrar deviceauthhandler.TokenRegistrar
	if tokens != nil {
		registrar = tokens
	}
	deviceHandler := deviceauthhandler.New(auth, registrar, cfg.Auth.TokenTTL, log)

	health := make(map[string]httptransport.HealthCheck)
	if db != nil {
		health["postgres"] = db.PingContext
	}
	if redisClient != nil {
		health["redis"] = redisClient.Health
	}

	router := httptransport.New(httptransport.Config{
		Logger:    log,
		Validator: auth,
		Health:    health,
		Handlers: []httptransport.Registrar{
			reminderhandler.New(svc, log),
			prefshandler.New(prefStore, log),
			reconcilehandler.New(ingestor, log),
			deviceHandler,
		},
		Public: []httptransport.PublicRegistrar{deviceHandler},
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return worker.Run(ctx)
	})
	if consumer != nil {
		g.Go(func() error {
			return consumer.Run(ctx)
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
