package repository

import (
	"context"

	"dating-api/internal/domain/entity"
	"dating-api/internal/domain/errors"
)

// UserReader defines the read side of user data
type UserReader interface {
	// ListUsers returns every user with photos attached, ordered by id, in one batched read
	ListUsers(ctx context.Context) ([]*entity.User, error)

	// GetUser retrieves a user with photos by ID
	GetUser(ctx context.Context, id entity.UserID) (*entity.User, error)

	// ExistsByUsername checks if a user with the given username exists
	ExistsByUsername(ctx context.Context, username entity.Username) (bool, error)
}

// LikeReader defines the read side of like edges
type LikeReader interface {
	// ListLikes returns all edges where id is the liker or the likee.
	// An unknown user yields an empty slice.
	ListLikes(ctx context.Context, id entity.UserID) ([]entity.Like, error)

	// GetLike retrieves a single edge
	GetLike(ctx context.Context, likerID, likeeID entity.UserID) (*entity.Like, error)
}

// PhotoReader defines the read side of photos
type PhotoReader interface {
	GetPhoto(ctx context.Context, id entity.PhotoID) (*entity.Photo, error)

	// GetMainPhotoForUser returns the main photo of a user, ErrPhotoNotFound when there is none
	GetMainPhotoForUser(ctx context.Context, userID entity.UserID) (*entity.Photo, error)
}

// UnitOfWork stages changes and commits them atomically. It is not safe for
// concurrent use; create one per operation.
type UnitOfWork interface {
	AddUser(user *entity.User)
	UpdateUser(user *entity.User)
	RemoveUser(id entity.UserID)

	AddPhoto(photo *entity.Photo)
	UpdatePhoto(photo *entity.Photo)
	RemovePhoto(id entity.PhotoID)

	AddLike(like entity.Like)
	RemoveLike(like entity.Like)

	AddMessage(message *entity.Message)

	// SaveAll commits every staged change or none. It reports whether at
	// least one change was persisted. Generated ids are written back to the
	// staged entities.
	SaveAll(ctx context.Context) (bool, error)
}

// DatingRepository is the full store contract
type DatingRepository interface {
	UserReader
	LikeReader
	PhotoReader

	// Begin starts a new unit of work
	Begin() UnitOfWork
}

// Repository errors - these wrap the domain errors for repository-specific context
var (
	ErrUserNotFound      = errors.ErrUserNotFound
	ErrPhotoNotFound     = errors.ErrPhotoNotFound
	ErrLikeNotFound      = errors.ErrLikeNotFound
	ErrUserAlreadyExists = errors.ErrUserAlreadyExists
	ErrLikeAlreadyExists = errors.ErrLikeAlreadyExists
	ErrRestrictedDelete  = errors.ErrRestrictedDelete
)
