package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dating-api/internal/domain/entity"
)

var now = time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)

func TestNewLikeAdded(t *testing.T) {
	e := NewLikeAdded(entity.Like{LikerID: 3, LikeeID: 7}, now)

	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, LikeAdded, e.Type)
	assert.Equal(t, []entity.UserID{3, 7}, e.Subjects)
	assert.Equal(t, []byte("3"), e.Key())
	assert.True(t, e.TouchesRelationships())
}

func TestEncodeDecode(t *testing.T) {
	e := NewLikeRemoved(entity.Like{LikerID: 1, LikeeID: 2}, now)
	data, err := e.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"like.removed"`)
	assert.Contains(t, string(data), `"likerId":1`)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, e.Subjects, got.Subjects)
	require.NotNil(t, got.Like)
	assert.Equal(t, entity.Like{LikerID: 1, LikeeID: 2}, *got.Like)
	assert.True(t, got.OccurredAt.Equal(now))
}

func TestDecode_Rejects(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"type":"like.added"}`))
	assert.Error(t, err)
}

func TestTouchesRelationships(t *testing.T) {
	assert.True(t, NewUserRemoved(1, now).TouchesRelationships())
	assert.False(t, NewUserRegistered(1, now).TouchesRelationships())
	assert.False(t, NewMessageSent(entity.Message{SenderID: 1, RecipientID: 2}, now).TouchesRelationships())
	assert.False(t, NewPhotoChanged(1, now).TouchesRelationships())
}

func TestLocalPublisher(t *testing.T) {
	var seen []Type
	p := NewLocalPublisher(HandlerFunc(func(ctx context.Context, e Event) error {
		seen = append(seen, e.Type)
		return nil
	}))

	err := p.Publish(context.Background(), NewUserRegistered(1, now), NewLikeAdded(entity.Like{LikerID: 1, LikeeID: 2}, now))
	require.NoError(t, err)
	assert.Equal(t, []Type{UserRegistered, LikeAdded}, seen)

	failing := NewLocalPublisher(HandlerFunc(func(ctx context.Context, e Event) error {
		return errors.New("down")
	}))
	assert.Error(t, failing.Publish(context.Background(), NewUserRegistered(1, now)))
}
