package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sms-dispatch/internal/adapters/db/postgres"
	"sms-dispatch/internal/adapters/provider/orange"
	natsq "sms-dispatch/internal/adapters/queue/nats"
	"sms-dispatch/internal/adapters/queue/rabbitmq"
	"sms-dispatch/internal/adapters/tokencache/memory"
	rediscache "sms-dispatch/internal/adapters/tokencache/redis"
	"sms-dispatch/internal/app"
	"sms-dispatch/internal/auth"
	"sms-dispatch/internal/config"
	"sms-dispatch/internal/logger"
	"sms-dispatch/internal/middleware"
	"sms-dispatch/internal/ports"
	"sms-dispatch/internal/transport"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	conf := config.FromEnv()
	log := logger.New(conf.LogLevel)
	if err := run(conf, log); err != nil {
		log.Error("application failed", "err", err)
		os.Exit(1)
	}
}

func run(conf config.Config, log *slog.Logger) error {
	if err := conf.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	store, err := postgres.Open(conf.DatabaseDriver, conf.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()
	if conf.DatabaseDriver == "sqlite" {
		if err := store.Migrate(); err != nil {
			return err
		}
	}

	tokens, closeTokens, err := tokenCache(conf, log)
	if err != nil {
		return err
	}
	defer closeTokens()

	events, closeEvents, err := eventPublisher(conf, log)
	if err != nil {
		return err
	}
	defer closeEvents()

	if conf.OrangeClientID == "" || conf.OrangeClientSecret == "" {
		log.Warn("gateway credentials not configured; sends will fail with auth_config")
	}
	gateway := orange.New(orange.Config{
		ClientID:     conf.OrangeClientID,
		ClientSecret: conf.OrangeClientSecret,
		AuthURL:      conf.OrangeAuthURL,
		SMSURL:       conf.OrangeSMSURL,
		SenderName:   conf.OrangeSenderName,
		Timeout:      conf.OrangeTimeout,
	}, tokens, nil, log)

	dispatcher := app.NewDispatcher(store, gateway, events, log)
	accounts := app.NewAccountService(store, auth.NewIssuer(conf.JWTSecret, conf.JWTExpiry), log)
	contacts := app.NewContactService(store)

	fiberApp := fiber.New(fiber.Config{
		AppName:               "sms-api",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// Sends wait on the gateway.
		WriteTimeout: conf.OrangeTimeout*3 + 5*time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
	})

	fiberApp.Use(recover.New(recover.Config{EnableStackTrace: true}))
	fiberApp.Use(middleware.RequestID())
	fiberApp.Use(middleware.AccessLog(os.Stdout))
	fiberApp.Use(middleware.SecurityHeaders())
	fiberApp.Use(middleware.CORS(conf.CORSOrigins))
	fiberApp.Use(middleware.IPRateLimit(conf.RateLimitPerMinute))

	fiberApp.Get("/health", transport.Health)
	fiberApp.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	sendLimiter := middleware.NewRateLimiter(conf.RateLimitPerMinute, time.Minute, transport.AccountKey)
	handler := transport.NewHandler(dispatcher, accounts, contacts, log)
	handler.Register(fiberApp.Group("/api/v1"), sendLimiter.Middleware())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sendLimiter.Cleanup()
			}
		}
	}()

	errChan := make(chan error, 1)
	go func() {
		log.Info("sms-api started", "addr", conf.HTTPAddr, "events_broker", conf.EventsBroker)
		if err := fiberApp.Listen(conf.HTTPAddr); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := fiberApp.ShutdownWithContext(shutdownCtx); err != nil {
		return errors.New("failed to shutdown gracefully: " + err.Error())
	}

	log.Info("sms-api stopped gracefully")
	return nil
}

// tokenCache shares the gateway token through redis when REDIS_ADDR is set.
func tokenCache(conf config.Config, log *slog.Logger) (ports.TokenCache, func(), error) {
	if conf.RedisAddr == "" {
		return memory.New(), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.RedisAddr,
		Password: conf.RedisPassword,
		DB:       conf.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info("gateway token cache", "backend", "redis", "addr", conf.RedisAddr)
	return rediscache.New(rdb, rediscache.DefaultKey), func() { rdb.Close() }, nil
}

func eventPublisher(conf config.Config, log *slog.Logger) (ports.EventPublisher, func(), error) {
	switch conf.EventsBroker {
	case "amqp":
		p, err := rabbitmq.NewPublisher(conf.AMQPURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		return p, p.Close, nil
	case "nats":
		c, err := natsq.Connect(conf.NATSURL, "sms-api", log)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	default:
		return nil, func() {}, nil
	}
}
