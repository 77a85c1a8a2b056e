// internal/service/publish_service.go
package service

import (
	"context"
	"encoding/json"
	"log/slog"

	appErrors "github.com/unclebandit/customer-publisher/internal/errors"
	"github.com/unclebandit/customer-publisher/internal/model"
	"github.com/unclebandit/customer-publisher/internal/observe"
	"github.com/unclebandit/customer-publisher/internal/queue"
)

// PublishService forwards accepted customer records to a queue topic.
type PublishService struct {
	Queue queue.Publisher
	Topic string
	Log   *slog.Logger
}

func (s *PublishService) Forward(ctx context.Context, c *model.CustomerDetails) error {
	body, err := json.Marshal(c)
	if err != nil {
		observe.CountForwarded(observe.OutcomeError)
		return appErrors.NewForward(s.Topic, err)
	}

	if err := s.Queue.Publish(ctx, s.Topic, body); err != nil {
		observe.CountForwarded(observe.OutcomeError)
		return appErrors.NewForward(s.Topic, err)
	}

	observe.CountForwarded(observe.OutcomeOK)
	if s.Log != nil {
		s.Log.DebugContext(ctx, "customer forwarded", "topic", s.Topic, "customer_id", c.ID)
	}
	return nil
}
