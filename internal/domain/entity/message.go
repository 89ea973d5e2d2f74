package entity

import (
	"strings"
	"time"

	"dating-api/internal/domain/errors"
)

// MessageID identifies a message
type MessageID int

// Message references its sender and recipient without owning them
type Message struct {
	ID          MessageID
	SenderID    UserID
	RecipientID UserID
	Content     string
	SentAt      time.Time
	ReadAt      *time.Time
}

// NewMessage validates and creates a message
func NewMessage(senderID, recipientID UserID, content string, now time.Time) (*Message, error) {
	if !senderID.IsValid() {
		return nil, errors.InvalidArgument("senderId", "sender must be a valid user id")
	}
	if !recipientID.IsValid() {
		return nil, errors.InvalidArgument("recipientId", "recipient must be a valid user id")
	}
	if strings.TrimSpace(content) == "" {
		return nil, errors.NewDomainError(errors.ErrCodeValidationFailed, "message content cannot be empty")
	}
	return &Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		SentAt:      now,
	}, nil
}

// Involves reports whether id is the sender or the recipient
func (m Message) Involves(id UserID) bool {
	return m.SenderID == id || m.RecipientID == id
}
