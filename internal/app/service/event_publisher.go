package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/symph-co/shorturl/internal/app/model"
	metrics "github.com/symph-co/shorturl/internal/infra/prometheus"
)

// EventPublisher emits link lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, event model.LinkEvent) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, model.LinkEvent) error { return nil }

// streamPublisher is the part of nats.JetStreamContext the publisher needs.
type streamPublisher interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// LinkEventPublisher publishes link events to NATS JetStream
type LinkEventPublisher struct {
	js streamPublisher
}

// NewLinkEventPublisher creates a new link event publisher
func NewLinkEventPublisher(js streamPublisher) *LinkEventPublisher {
	return &LinkEventPublisher{js: js}
}

// Publish sends event on its type subject. The event id doubles as the
// JetStream message id so retried publishes are deduplicated by the server.
func (p *LinkEventPublisher) Publish(ctx context.Context, event model.LinkEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode link event: %w", err)
	}

	_, err = p.js.Publish(model.LinkEventSubject(event.Type), data,
		nats.Context(ctx),
		nats.MsgId(event.ID),
	)
	if err != nil {
		metrics.LinkEvents.WithLabelValues(string(event.Type), "failed").Inc()
		return fmt.Errorf("publish link event: %w", err)
	}

	metrics.LinkEvents.WithLabelValues(string(event.Type), "published").Inc()
	return nil
}

// LinkStreamConfig describes the stream link events are stored on.
func LinkStreamConfig() *nats.StreamConfig {
	return &nats.StreamConfig{
		Name:     model.LinkStreamName,
		Subjects: []string{model.LinkStreamSubjects},
		MaxBytes: model.LinkStreamMaxBytes,
	}
}
