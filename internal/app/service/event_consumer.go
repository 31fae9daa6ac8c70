package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/symph-co/shorturl/internal/app/model"
	apprepository "github.com/symph-co/shorturl/internal/app/repository"
	metrics "github.com/symph-co/shorturl/internal/infra/prometheus"
	"go.uber.org/zap"
)

const (
	consumerBatchSize = 10
	consumerMaxWait   = 5 * time.Second
)

// LinkEventConsumer drains the link event stream into the audit table.
type LinkEventConsumer struct {
	js     nats.JetStreamContext
	logger *zap.Logger
	repo   apprepository.LinkEventRepository
	done   chan struct{}
}

// NewLinkEventConsumer creates a new link event consumer
func NewLinkEventConsumer(js nats.JetStreamContext, logger *zap.Logger, repo apprepository.LinkEventRepository) *LinkEventConsumer {
	return &LinkEventConsumer{
		js:     js,
		logger: logger.Named("link_auditor"),
		repo:   repo,
		done:   make(chan struct{}),
	}
}

// Start binds the durable pull consumer and consumes until ctx is cancelled.
// The stream must already exist.
func (c *LinkEventConsumer) Start(ctx context.Context) error {
	_, err := c.js.ConsumerInfo(model.LinkStreamName, model.LinkConsumerName)
	if errors.Is(err, nats.ErrConsumerNotFound) {
		_, err = c.js.AddConsumer(model.LinkStreamName, &nats.ConsumerConfig{
			Durable:       model.LinkConsumerName,
			AckPolicy:     nats.AckExplicitPolicy,
			FilterSubject: model.LinkStreamSubjects,
		})
	}
	if err != nil {
		return fmt.Errorf("ensure consumer %s: %w", model.LinkConsumerName, err)
	}

	sub, err := c.js.PullSubscribe(model.LinkStreamSubjects, model.LinkConsumerName,
		nats.Bind(model.LinkStreamName, model.LinkConsumerName),
	)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", model.LinkConsumerName, err)
	}

	go c.consume(ctx, sub)
	return nil
}

// Done is closed once the consume loop has returned.
func (c *LinkEventConsumer) Done() <-chan struct{} {
	return c.done
}

func (c *LinkEventConsumer) consume(ctx context.Context, sub *nats.Subscription) {
	defer close(c.done)
	defer func() {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			c.logger.Warn("failed to unsubscribe", zap.Error(err))
		}
	}()

	for {
		if ctx.Err() != nil {
			c.logger.Info("link event consumer stopped")
			return
		}

		msgs, err := sub.Fetch(consumerBatchSize, nats.MaxWait(consumerMaxWait))
		switch {
		case errors.Is(err, nats.ErrTimeout):
			continue
		case errors.Is(err, nats.ErrConnectionClosed), errors.Is(err, nats.ErrBadSubscription):
			c.logger.Info("link event consumer stopped", zap.Error(err))
			return
		case err != nil:
			c.logger.Error("failed to fetch messages", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			if err := c.handle(ctx, msg.Data); err != nil {
				c.logger.Error("failed to store link event", zap.Error(err))
				_ = msg.Nak()
				continue
			}
			_ = msg.Ack()
		}
	}
}

func (c *LinkEventConsumer) handle(ctx context.Context, data []byte) error {
	var event model.LinkEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("decode link event: %w", err)
	}

	if err := c.repo.Create(ctx, &event); err != nil {
		metrics.LinkEvents.WithLabelValues(string(event.Type), "store_failed").Inc()
		return fmt.Errorf("store link event %s: %w", event.ID, err)
	}

	metrics.LinkEvents.WithLabelValues(string(event.Type), "stored").Inc()
	c.logger.Debug("link event stored",
		zap.String("id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("link_id", event.LinkID),
		zap.Time("occurred_at", event.OccurredAt),
	)
	return nil
}
