package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/unclebandit/customer-publisher/internal/config"
	"github.com/unclebandit/customer-publisher/internal/db"
	"github.com/unclebandit/customer-publisher/internal/logging"
	"github.com/unclebandit/customer-publisher/internal/queue"
	"github.com/unclebandit/customer-publisher/internal/repository"
	"github.com/unclebandit/customer-publisher/internal/service"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "worker:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return errors.New("worker needs DATABASE_URL")
	}

	log, logCloser, err := logging.New(cfg.Log, "worker")
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to DB
	conn, err := db.Open(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := db.Migrate(ctx, conn); err != nil {
		return err
	}

	// Connect to RabbitMQ
	q, err := queue.DialAMQP(cfg.Publish.AMQPURL, log, cfg.Publish.MaxRetries)
	if err != nil {
		return err
	}
	defer q.Close()

	worker := service.NewWorker(&repository.CustomerRepository{DB: conn}, log)
	if err := q.Subscribe(ctx, cfg.Publish.Topic, worker.Handle); err != nil {
		return err
	}

	log.Info("worker running, waiting for messages", "topic", cfg.Publish.Topic)
	select {
	case <-ctx.Done():
		log.Info("shutting down")
		return nil
	case amqpErr := <-q.NotifyClose():
		if amqpErr == nil {
			return nil
		}
		return fmt.Errorf("rabbitmq connection closed: %w", amqpErr)
	}
}
