package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dating-api/internal/domain/entity"
	"dating-api/internal/domain/event"
)

func TestRecords(t *testing.T) {
	now := time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)
	events := []event.Event{
		event.NewLikeAdded(entity.Like{LikerID: 4, LikeeID: 9}, now),
		event.NewUserRemoved(12, now),
	}

	records, err := Records("dating.events", events...)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "dating.events", records[0].Topic)
	assert.Equal(t, []byte("4"), records[0].Key)
	assert.Equal(t, []byte("12"), records[1].Key)
	assert.Equal(t, "event-type", records[0].Headers[0].Key)
	assert.Equal(t, []byte("like.added"), records[0].Headers[0].Value)

	decoded, err := event.Decode(records[1].Value)
	require.NoError(t, err)
	assert.Equal(t, events[1].ID, decoded.ID)
	assert.Equal(t, event.UserRemoved, decoded.Type)
}
