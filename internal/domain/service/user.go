package service

import (
	"context"

	"dating-api/internal/application/dto"
)

// UserService defines the user operations exposed over HTTP. Ids arrive as
// raw path or header values and are validated by the implementation.
type UserService interface {
	RegisterUser(ctx context.Context, req dto.RegisterUserRequest) (*dto.UserDetailResponse, error)
	GetUser(ctx context.Context, id string) (*dto.UserDetailResponse, error)
	DeleteUser(ctx context.Context, id string) error
	UpdateLastActive(ctx context.Context, id string) error

	// DiscoverUsers returns one page of candidates for requesterID
	DiscoverUsers(ctx context.Context, requesterID string, req dto.DiscoverUsersRequest) (*dto.UserPageResponse, error)

	AddPhoto(ctx context.Context, userID string, req dto.AddPhotoRequest) (*dto.PhotoResponse, error)
	SetMainPhoto(ctx context.Context, userID, photoID string) error
	DeletePhoto(ctx context.Context, userID, photoID string) error

	LikeUser(ctx context.Context, id, recipientID string) (*dto.LikeResponse, error)
	UnlikeUser(ctx context.Context, id, recipientID string) error

	SendMessage(ctx context.Context, senderID, recipientID string, req dto.SendMessageRequest) (*dto.MessageResponse, error)
}
