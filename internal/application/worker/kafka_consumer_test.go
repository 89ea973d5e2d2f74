package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dating-api/internal/domain/entity"
	"dating-api/internal/domain/event"
)

var now = time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)

type recordingCache struct {
	dropped [][]entity.UserID
	err     error
}

func (c *recordingCache) Invalidate(ctx context.Context, ids ...entity.UserID) error {
	if c.err != nil {
		return c.err
	}
	c.dropped = append(c.dropped, ids)
	return nil
}

type sliceSource struct {
	events []event.Event
	errs   []error
}

func (s *sliceSource) ConsumeEvents(ctx context.Context, handler event.Handler) error {
	for _, e := range s.events {
		s.errs = append(s.errs, handler.Handle(ctx, e))
	}
	return nil
}

func TestCacheInvalidator_DropsBothEnds(t *testing.T) {
	cache := &recordingCache{}
	h := NewCacheInvalidator(cache)

	require.NoError(t, h.Handle(context.Background(), event.NewLikeAdded(entity.Like{LikerID: 2, LikeeID: 5}, now)))
	assert.Equal(t, [][]entity.UserID{{2, 5}}, cache.dropped)
}

func TestCacheInvalidator_IgnoresUnrelatedEvents(t *testing.T) {
	cache := &recordingCache{}
	h := NewCacheInvalidator(cache)

	require.NoError(t, h.Handle(context.Background(), event.NewUserRegistered(1, now)))
	require.NoError(t, h.Handle(context.Background(), event.NewMessageSent(entity.Message{SenderID: 1, RecipientID: 2}, now)))
	assert.Empty(t, cache.dropped)
}

func TestCacheInvalidator_PropagatesError(t *testing.T) {
	h := NewCacheInvalidator(&recordingCache{err: errors.New("redis down")})
	assert.Error(t, h.Handle(context.Background(), event.NewUserRemoved(3, now)))
}

func TestKafkaWorker_Run(t *testing.T) {
	cache := &recordingCache{}
	source := &sliceSource{events: []event.Event{
		event.NewLikeRemoved(entity.Like{LikerID: 1, LikeeID: 2}, now),
		event.NewUserRemoved(7, now),
	}}

	w := NewKafkaWorker(source, NewCacheInvalidator(cache))
	require.NoError(t, w.Run(context.Background()))
	assert.Equal(t, [][]entity.UserID{{1, 2}, {7}}, cache.dropped)
	assert.Equal(t, []error{nil, nil}, source.errs)
}
