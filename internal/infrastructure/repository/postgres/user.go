package postgres

import (
	"context"
	stdErrors "errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"dating-api/internal/domain/entity"
	"dating-api/internal/domain/errors"
	"dating-api/internal/domain/repository"
	db "dating-api/internal/infrastructure/postgres"
)

// UserRepository implements repository.DatingRepository on GORM. It needs the
// tables from Models(); Migrate creates them.
type UserRepository struct {
	client *db.Client
}

var _ repository.DatingRepository = (*UserRepository)(nil)

// NewUserRepository creates a new GORM backed repository
func NewUserRepository(client *db.Client) *UserRepository {
	return &UserRepository{client: client}
}

// Migrate creates or updates the schema
func (r *UserRepository) Migrate(ctx context.Context) error {
	return r.client.AutoMigrate(ctx, Models()...)
}

func (r *UserRepository) startSpan(ctx context.Context, name, operation, table string) (context.Context, trace.Span) {
	ctx, span := r.client.Tracer().Start(ctx, "UserRepository."+name)
	span.SetAttributes(
		attribute.String("db.system", r.client.System()),
		attribute.String("db.operation", operation),
		attribute.String("db.sql.table", table),
	)
	return ctx, span
}

func photosByID(tx *gorm.DB) *gorm.DB {
	return tx.Order("id")
}

// ListUsers returns every user with photos attached, ordered by id
func (r *UserRepository) ListUsers(ctx context.Context) ([]*entity.User, error) {
	ctx, span := r.startSpan(ctx, "ListUsers", "SELECT", "users")
	defer span.End()

	var models []UserModel
	if err := r.client.WithContext(ctx).Preload("Photos", photosByID).Order("id").Find(&models).Error; err != nil {
		return nil, errors.StoreFailure("failed to list users", err)
	}

	users := make([]*entity.User, 0, len(models))
	for i := range models {
		users = append(users, models[i].ToEntity())
	}
	span.SetAttributes(attribute.Int("users.count", len(users)))
	return users, nil
}

// GetUser retrieves a user with photos by ID
func (r *UserRepository) GetUser(ctx context.Context, id entity.UserID) (*entity.User, error) {
	ctx, span := r.startSpan(ctx, "GetUser", "SELECT", "users")
	span.SetAttributes(attribute.Int("user.id", int(id)))
	defer span.End()

	var model UserModel
	err := r.client.WithContext(ctx).Preload("Photos", photosByID).Where("id = ?", int(id)).Take(&model).Error
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ErrUserNotFound.WithContext("id", int(id))
	}
	if err != nil {
		return nil, errors.StoreFailure("failed to get user by id", err)
	}
	return model.ToEntity(), nil
}

// ExistsByUsername checks if a user with the given username exists
func (r *UserRepository) ExistsByUsername(ctx context.Context, username entity.Username) (bool, error) {
	ctx, span := r.startSpan(ctx, "ExistsByUsername", "SELECT", "users")
	defer span.End()

	var count int64
	if err := r.client.WithContext(ctx).Model(&UserModel{}).Where("username = ?", username.String()).Count(&count).Error; err != nil {
		return false, errors.StoreFailure("failed to check if user exists by username", err)
	}
	return count > 0, nil
}

// ListLikes returns every edge touching id in one query
func (r *UserRepository) ListLikes(ctx context.Context, id entity.UserID) ([]entity.Like, error) {
	ctx, span := r.startSpan(ctx, "ListLikes", "SELECT", "likes")
	span.SetAttributes(attribute.Int("user.id", int(id)))
	defer span.End()

	var models []LikeModel
	err := r.client.WithContext(ctx).
		Where("liker_id = ? OR likee_id = ?", int(id), int(id)).
		Order("liker_id").Order("likee_id").
		Find(&models).Error
	if err != nil {
		return nil, errors.StoreFailure("failed to list likes", err)
	}

	likes := make([]entity.Like, 0, len(models))
	for i := range models {
		likes = append(likes, models[i].ToEntity())
	}
	span.SetAttributes(attribute.Int("likes.count", len(likes)))
	return likes, nil
}

// GetLike retrieves a single edge
func (r *UserRepository) GetLike(ctx context.Context, likerID, likeeID entity.UserID) (*entity.Like, error) {
	ctx, span := r.startSpan(ctx, "GetLike", "SELECT", "likes")
	defer span.End()

	var model LikeModel
	err := r.client.WithContext(ctx).Where("liker_id = ? AND likee_id = ?", int(likerID), int(likeeID)).Take(&model).Error
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ErrLikeNotFound.
			WithContext("likerId", int(likerID)).
			WithContext("likeeId", int(likeeID))
	}
	if err != nil {
		return nil, errors.StoreFailure("failed to get like", err)
	}
	like := model.ToEntity()
	return &like, nil
}

// GetPhoto retrieves a photo by id
func (r *UserRepository) GetPhoto(ctx context.Context, id entity.PhotoID) (*entity.Photo, error) {
	ctx, span := r.startSpan(ctx, "GetPhoto", "SELECT", "photos")
	span.SetAttributes(attribute.Int("photo.id", int(id)))
	defer span.End()

	var model PhotoModel
	err := r.client.WithContext(ctx).Where("id = ?", int(id)).Take(&model).Error
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ErrPhotoNotFound.WithContext("id", int(id))
	}
	if err != nil {
		return nil, errors.StoreFailure("failed to get photo", err)
	}
	photo := model.ToEntity()
	return &photo, nil
}

// GetMainPhotoForUser returns the photo flagged as main for userID
func (r *UserRepository) GetMainPhotoForUser(ctx context.Context, userID entity.UserID) (*entity.Photo, error) {
	ctx, span := r.startSpan(ctx, "GetMainPhotoForUser", "SELECT", "photos")
	span.SetAttributes(attribute.Int("user.id", int(userID)))
	defer span.End()

	var model PhotoModel
	err := r.client.WithContext(ctx).
		Where("user_id = ? AND is_main = ?", int(userID), true).
		Order("id").
		Take(&model).Error
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ErrPhotoNotFound.WithContext("userId", int(userID))
	}
	if err != nil {
		return nil, errors.StoreFailure("failed to get main photo", err)
	}
	photo := model.ToEntity()
	return &photo, nil
}

// Begin starts a new unit of work
func (r *UserRepository) Begin() repository.UnitOfWork {
	return &unitOfWork{repo: r}
}
