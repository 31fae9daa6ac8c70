package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/symph-co/shorturl/internal/app/model"
	"go.uber.org/zap"
)

type fakeStream struct {
	subject string
	data    []byte
	err     error
}

func (f *fakeStream) Publish(subj string, data []byte, _ ...nats.PubOpt) (*nats.PubAck, error) {
	f.subject = subj
	f.data = data
	if f.err != nil {
		return nil, f.err
	}
	return &nats.PubAck{Stream: model.LinkStreamName}, nil
}

type fakeEventRepo struct {
	stored []model.LinkEvent
	err    error
}

func (r *fakeEventRepo) Create(_ context.Context, event *model.LinkEvent) error {
	if r.err != nil {
		return r.err
	}
	r.stored = append(r.stored, *event)
	return nil
}

func sampleEvent() model.LinkEvent {
	return model.LinkEvent{
		ID:         "0d6f6a3e-9a3b-4b0c-9c4f-1d2e3f4a5b6c",
		Type:       model.LinkUpdated,
		LinkID:     "8a2d3c6e-3a51-4c55-b0a4-91c1e1b0f001",
		Slug:       "abcd1234",
		OccurredAt: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestLinkEventPublisher_Publish(t *testing.T) {
	stream := &fakeStream{}
	pub := NewLinkEventPublisher(stream)

	require.NoError(t, pub.Publish(context.Background(), sampleEvent()))
	assert.Equal(t, "links.events.updated", stream.subject)

	var decoded model.LinkEvent
	require.NoError(t, json.Unmarshal(stream.data, &decoded))
	assert.Equal(t, sampleEvent().LinkID, decoded.LinkID)
}

func TestLinkEventPublisher_PublishError(t *testing.T) {
	pub := NewLinkEventPublisher(&fakeStream{err: nats.ErrNoResponders})

	err := pub.Publish(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, nats.ErrNoResponders)
}

func TestLinkStreamConfig(t *testing.T) {
	sc := LinkStreamConfig()
	assert.Equal(t, "LINKS", sc.Name)
	assert.Equal(t, []string{"links.events.>"}, sc.Subjects)
}

func TestLinkEventConsumer_Handle(t *testing.T) {
	repo := &fakeEventRepo{}
	c := NewLinkEventConsumer(nil, zap.NewNop(), repo)

	data, err := json.Marshal(sampleEvent())
	require.NoError(t, err)

	require.NoError(t, c.handle(context.Background(), data))
	require.Len(t, repo.stored, 1)
	assert.Equal(t, model.LinkUpdated, repo.stored[0].Type)
	assert.True(t, repo.stored[0].OccurredAt.Equal(sampleEvent().OccurredAt))
}

func TestLinkEventConsumer_HandleRejectsGarbage(t *testing.T) {
	repo := &fakeEventRepo{}
	c := NewLinkEventConsumer(nil, zap.NewNop(), repo)

	assert.Error(t, c.handle(context.Background(), []byte("{not json")))
	assert.Empty(t, repo.stored)
}

func TestLinkEventConsumer_HandleStoreFailure(t *testing.T) {
	boom := errors.New("deadlock detected")
	c := NewLinkEventConsumer(nil, zap.NewNop(), &fakeEventRepo{err: boom})

	data, err := json.Marshal(sampleEvent())
	require.NoError(t, err)
	assert.ErrorIs(t, c.handle(context.Background(), data), boom)
}
