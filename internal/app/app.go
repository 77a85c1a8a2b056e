// internal/app/app.go
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/unclebandit/customer-publisher/internal/config"
	"github.com/unclebandit/customer-publisher/internal/db"
	"github.com/unclebandit/customer-publisher/internal/handler"
	"github.com/unclebandit/customer-publisher/internal/queue"
	"github.com/unclebandit/customer-publisher/internal/repository"
	"github.com/unclebandit/customer-publisher/internal/service"
)

// App is the router plus whatever its forwarding pipeline holds open.
type App struct {
	Router *handler.Router

	queue queue.Queue
	db    *sql.DB
}

// New builds the router described by cfg. With the none backend nothing is opened and
// the router answers /publish without forwarding.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	limit, err := cfg.BodyLimit()
	if err != nil {
		return nil, err
	}
	a := &App{Router: &handler.Router{MaxBodySize: limit}}

	switch cfg.Publish.Backend {
	case config.BackendNone:
		return a, nil

	case config.BackendMemory:
		q := queue.NewInMemoryQueue(log, cfg.Publish.MaxRetries)
		a.queue = q

		var store service.CustomerStore
		if cfg.Database.URL != "" {
			conn, err := db.Open(ctx, cfg.Database.URL)
			if err != nil {
				a.Close()
				return nil, err
			}
			a.db = conn
			if err := db.Migrate(ctx, conn); err != nil {
				a.Close()
				return nil, err
			}
			store = &repository.CustomerRepository{DB: conn}
		}
		worker := service.NewWorker(store, log)
		if err := q.Subscribe(ctx, cfg.Publish.Topic, worker.Handle); err != nil {
			a.Close()
			return nil, err
		}

	case config.BackendAMQP:
		q, err := queue.DialAMQP(cfg.Publish.AMQPURL, log, cfg.Publish.MaxRetries)
		if err != nil {
			return nil, err
		}
		a.queue = q

	default:
		return nil, fmt.Errorf("unknown publish backend %q", cfg.Publish.Backend)
	}

	a.Router.Forwarder = &service.PublishService{
		Queue: a.queue,
		Topic: cfg.Publish.Topic,
		Log:   log,
	}
	return a, nil
}

// Close drains the queue before closing the database its worker writes to.
func (a *App) Close() error {
	var errs []error
	if a.queue != nil {
		errs = append(errs, a.queue.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
