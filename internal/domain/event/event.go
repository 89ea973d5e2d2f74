// Package event describes changes that other processes react to, such as
// dropping cached like edges.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dating-api/internal/domain/entity"
)

// Type names a kind of change
type Type string

const (
	UserRegistered Type = "user.registered"
	UserRemoved    Type = "user.removed"
	LikeAdded      Type = "like.added"
	LikeRemoved    Type = "like.removed"
	MessageSent    Type = "message.sent"
	PhotoChanged   Type = "photo.changed"
)

// Event is published after a unit of work commits. Subjects lists every user
// whose relationships or profile changed.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Type       Type            `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Subjects   []entity.UserID `json:"subjects"`
	Like       *entity.Like    `json:"like,omitempty"`
}

func newEvent(t Type, now time.Time, subjects ...entity.UserID) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		OccurredAt: now.UTC(),
		Subjects:   subjects,
	}
}

func NewUserRegistered(id entity.UserID, now time.Time) Event {
	return newEvent(UserRegistered, now, id)
}

func NewUserRemoved(id entity.UserID, now time.Time) Event {
	return newEvent(UserRemoved, now, id)
}

func NewLikeAdded(like entity.Like, now time.Time) Event {
	e := newEvent(LikeAdded, now, like.LikerID, like.LikeeID)
	e.Like = &like
	return e
}

func NewLikeRemoved(like entity.Like, now time.Time) Event {
	e := newEvent(LikeRemoved, now, like.LikerID, like.LikeeID)
	e.Like = &like
	return e
}

func NewMessageSent(m entity.Message, now time.Time) Event {
	return newEvent(MessageSent, now, m.SenderID, m.RecipientID)
}

func NewPhotoChanged(userID entity.UserID, now time.Time) Event {
	return newEvent(PhotoChanged, now, userID)
}

// TouchesRelationships reports whether the event changes like edges
func (e Event) TouchesRelationships() bool {
	switch e.Type {
	case LikeAdded, LikeRemoved, UserRemoved:
		return true
	default:
		return false
	}
}

// Key is the partition key; events about the same first subject stay ordered
func (e Event) Key() []byte {
	if len(e.Subjects) == 0 {
		return nil
	}
	return []byte(e.Subjects[0].String())
}

// Encode serialises the event as JSON
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses an encoded event
func Decode(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("failed to decode event: %w", err)
	}
	if e.ID == uuid.Nil || e.Type == "" {
		return Event{}, fmt.Errorf("event is missing id or type")
	}
	return e, nil
}

// Publisher delivers committed events
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// Handler reacts to a single event
type Handler interface {
	Handle(ctx context.Context, e Event) error
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, e Event) error

func (f HandlerFunc) Handle(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// LocalPublisher hands events straight to in-process handlers. It is used
// when no broker is configured.
type LocalPublisher struct {
	handlers []Handler
}

func NewLocalPublisher(handlers ...Handler) *LocalPublisher {
	return &LocalPublisher{handlers: handlers}
}

// Publish calls every handler for every event and stops at the first error
func (p *LocalPublisher) Publish(ctx context.Context, events ...Event) error {
	for _, e := range events {
		for _, h := range p.handlers {
			if err := h.Handle(ctx, e); err != nil {
				return fmt.Errorf("handler failed for %s event %s: %w", e.Type, e.ID, err)
			}
		}
	}
	return nil
}
