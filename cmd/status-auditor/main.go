package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"sms-dispatch/internal/adapters/db/postgres"
	natsq "sms-dispatch/internal/adapters/queue/nats"
	"sms-dispatch/internal/adapters/queue/rabbitmq"
	"sms-dispatch/internal/app"
	"sms-dispatch/internal/config"
	"sms-dispatch/internal/logger"
	"sms-dispatch/internal/ports"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	conf := config.FromEnv()
	log := logger.New(conf.LogLevel)
	if err := run(conf, log); err != nil {
		log.Error("status-auditor failed", "err", err)
		os.Exit(1)
	}
}

func run(conf config.Config, log *slog.Logger) error {
	store, err := postgres.Open(conf.DatabaseDriver, conf.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	consumer, closeConsumer, err := eventConsumer(conf, log)
	if err != nil {
		return err
	}
	defer closeConsumer()

	auditor := app.NewAuditor(store, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("status-auditor started", "events_broker", conf.EventsBroker)

	if err := consumer.Consume(ctx, auditor.Handle); err != nil && ctx.Err() == nil {
		return fmt.Errorf("consume events: %w", err)
	}

	log.Info("shutting down status-auditor")
	return nil
}

func eventConsumer(conf config.Config, log *slog.Logger) (ports.EventConsumer, func(), error) {
	switch conf.EventsBroker {
	case "amqp":
		c, err := rabbitmq.NewConsumer(conf.AMQPURL, log)
		if err != nil {
			return nil, nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		return c, c.Close, nil
	case "nats":
		c, err := natsq.Connect(conf.NATSURL, "sms-status-auditor", log)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	default:
		return nil, nil, fmt.Errorf("EVENTS_BROKER must be amqp or nats, got %q", conf.EventsBroker)
	}
}
