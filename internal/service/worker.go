package service

import (
	"context"
	"log/slog"

	"github.com/unclebandit/customer-publisher/internal/model"
	"github.com/unclebandit/customer-publisher/internal/observe"
)

// CustomerStore defines the methods the worker needs
type CustomerStore interface {
	Save(ctx context.Context, c *model.CustomerDetails) error
}

// Worker stores customer records taken off the publish queue. Without a store it only
// logs them.
type Worker struct {
	Store CustomerStore
	Log   *slog.Logger
}

// Constructor
func NewWorker(store CustomerStore, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Worker{
		Store: store,
		Log:   log,
	}
}

// Handle processes one queued payload. Malformed payloads are dropped rather than
// retried; store failures are returned so the queue retries them.
func (w *Worker) Handle(ctx context.Context, payload []byte) error {
	c, err := model.UnmarshalCustomerDetails(payload)
	if err != nil {
		w.Log.WarnContext(ctx, "invalid job", "error", err)
		observe.CountStored(observe.OutcomeRejected)
		return nil
	}

	if w.Store == nil {
		w.Log.InfoContext(ctx, "received customer", "customer_id", c.ID, "name", c.Name)
		return nil
	}

	if err := w.Store.Save(ctx, c); err != nil {
		observe.CountStored(observe.OutcomeError)
		return err
	}

	observe.CountStored(observe.OutcomeOK)
	w.Log.InfoContext(ctx, "stored customer", "customer_id", c.ID)
	return nil
}
