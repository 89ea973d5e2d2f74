package postgres

import (
	"context"
	stdErrors "errors"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dating-api/internal/domain/entity"
	"dating-api/internal/domain/errors"
	"dating-api/internal/infrastructure/telemetry"
)

// op runs one staged change inside the transaction. The returned hook runs
// only after commit.
type op func(tx *gorm.DB) (func(), error)

type unitOfWork struct {
	repo *UserRepository
	ops  []op
}

func (u *unitOfWork) stage(o op) {
	u.ops = append(u.ops, o)
}

func (u *unitOfWork) AddUser(user *entity.User) {
	u.stage(func(tx *gorm.DB) (func(), error) {
		model := NewUserModelFromEntity(user)
		model.ID = 0
		if err := ensureUsernameFree(tx, model.Username, 0); err != nil {
			return nil, err
		}
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return nil, errors.StoreFailure("failed to create user", err)
		}
		id := entity.UserID(model.ID)
		return func() { user.SetID(id) }, nil
	})
}

func (u *unitOfWork) UpdateUser(user *entity.User) {
	u.stage(func(tx *gorm.DB) (func(), error) {
		model := NewUserModelFromEntity(user)
		if err := ensureUserExists(tx, user.ID()); err != nil {
			return nil, err
		}
		if err := ensureUsernameFree(tx, model.Username, model.ID); err != nil {
			return nil, err
		}
		err := tx.Model(&UserModel{}).Where("id = ?", model.ID).Updates(map[string]interface{}{
			"username":      model.Username,
			"password_hash": model.PasswordHash,
			"gender":        model.Gender,
			"date_of_birth": model.DateOfBirth,
			"created":       model.Created,
			"last_active":   model.LastActive,
		}).Error
		if err != nil {
			return nil, errors.StoreFailure("failed to update user", err)
		}
		return nil, nil
	})
}

// RemoveUser deletes a user and the photos it owns. The removal is refused
// while likes or messages still reference the user.
func (u *unitOfWork) RemoveUser(id entity.UserID) {
	u.stage(func(tx *gorm.DB) (func(), error) {
		if err := ensureUserExists(tx, id); err != nil {
			return nil, err
		}
		refs := []struct {
			model interface{}
			where string
			name  string
		}{
			{&LikeModel{}, "liker_id = ? OR likee_id = ?", "like"},
			{&MessageModel{}, "sender_id = ? OR recipient_id = ?", "message"},
		}
		for _, ref := range refs {
			var count int64
			if err := tx.Model(ref.model).Where(ref.where, int(id), int(id)).Count(&count).Error; err != nil {
				return nil, errors.StoreFailure("failed to count references", err)
			}
			if count > 0 {
				return nil, errors.ErrRestrictedDelete.
					WithContext("userId", int(id)).
					WithContext("reference", ref.name)
			}
		}
		if err := tx.Where("user_id = ?", int(id)).Delete(&PhotoModel{}).Error; err != nil {
			return nil, errors.StoreFailure("failed to delete photos", err)
		}
		if err := tx.Where("id = ?", int(id)).Delete(&UserModel{}).Error; err != nil {
			return nil, errors.StoreFailure("failed to delete user", err)
		}
		return nil, nil
	})
}

func (u *unitOfWork) AddPhoto(photo *entity.Photo) {
	u.stage(func(tx *gorm.DB) (func(), error) {
		if err := ensureUserExists(tx, photo.UserID); err != nil {
			return nil, err
		}
		model := newPhotoModel(photo)
		model.ID = 0
		if err := tx.Create(model).Error; err != nil {
			return nil, errors.StoreFailure("failed to create photo", err)
		}
		id := entity.PhotoID(model.ID)
		return func() { photo.ID = id }, nil
	})
}

func (u *unitOfWork) UpdatePhoto(photo *entity.Photo) {
	u.stage(func(tx *gorm.DB) (func(), error) {
		res := tx.Model(&PhotoModel{}).Where("id = ?", int(photo.ID)).Updates(map[string]interface{}{
			"url":         photo.URL,
			"description": photo.Description,
			"date_added":  photo.DateAdded,
			"is_main":     photo.IsMain,
			"public_id":   photo.PublicID,
		})
		if res.Error != nil {
			return nil, errors.StoreFailure("failed to update photo", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, errors.ErrPhotoNotFound.WithContext("id", int(photo.ID))
		}
		return nil, nil
	})
}

func (u *unitOfWork) RemovePhoto(id entity.PhotoID) {
	u.stage(func(tx *gorm.DB) (func(), error) {
		res := tx.Where("id = ?", int(id)).Delete(&PhotoModel{})
		if res.Error != nil {
			return nil, errors.StoreFailure("failed to delete photo", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, errors.ErrPhotoNotFound.WithContext("id", int(id))
		}
		return nil, nil
	})
}

func (u *unitOfWork) AddLike(like entity.Like) {
	u.stage(func(tx *gorm.DB) (func(), error) {
		for _, id := range []entity.UserID{like.LikerID, like.LikeeID} {
			if err := ensureUserExists(tx, id); err != nil {
				return nil, err
			}
		}
		var count int64
		err := tx.Model(&LikeModel{}).
			Where("liker_id = ? AND likee_id = ?", int(like.LikerID), int(like.LikeeID)).
			Count(&count).Error
		if err != nil {
			return nil, errors.StoreFailure("failed to look up like", err)
		}
		if count > 0 {
			return nil, errors.ErrLikeAlreadyExists.
				WithContext("likerId", int(like.LikerID)).
				WithContext("likeeId", int(like.LikeeID))
		}
		model := &LikeModel{LikerID: uint(like.LikerID), LikeeID: uint(like.LikeeID)}
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return nil, errors.StoreFailure("failed to create like", err)
		}
		return nil, nil
	})
}

func (u *unitOfWork) RemoveLike(like entity.Like) {
	u.stage(func(tx *gorm.DB) (func(), error) {
		res := tx.Where("liker_id = ? AND likee_id = ?", int(like.LikerID), int(like.LikeeID)).Delete(&LikeModel{})
		if res.Error != nil {
			return nil, errors.StoreFailure("failed to delete like", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, errors.ErrLikeNotFound.
				WithContext("likerId", int(like.LikerID)).
				WithContext("likeeId", int(like.LikeeID))
		}
		return nil, nil
	})
}

func (u *unitOfWork) AddMessage(message *entity.Message) {
	u.stage(func(tx *gorm.DB) (func(), error) {
		for _, id := range []entity.UserID{message.SenderID, message.RecipientID} {
			if err := ensureUserExists(tx, id); err != nil {
				return nil, err
			}
		}
		model := &MessageModel{
			SenderID:    uint(message.SenderID),
			RecipientID: uint(message.RecipientID),
			Content:     message.Content,
			SentAt:      message.SentAt,
			ReadAt:      message.ReadAt,
		}
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return nil, errors.StoreFailure("failed to create message", err)
		}
		id := entity.MessageID(model.ID)
		return func() { message.ID = id }, nil
	})
}

// SaveAll runs every staged change in one transaction
func (u *unitOfWork) SaveAll(ctx context.Context) (bool, error) {
	ctx, span := u.repo.startSpan(ctx, "SaveAll", "COMMIT", "*")
	span.SetAttributes(attribute.Int("uow.changes", len(u.ops)))
	defer span.End()

	if len(u.ops) == 0 {
		return false, nil
	}

	var hooks []func()
	err := u.repo.client.Transaction(ctx, func(tx *gorm.DB) error {
		hooks = hooks[:0]
		for _, o := range u.ops {
			hook, err := o(tx)
			if err != nil {
				return err
			}
			if hook != nil {
				hooks = append(hooks, hook)
			}
		}
		return nil
	})
	if err != nil {
		telemetry.Log(ctx, telemetry.LevelWarn, "Unit of work rolled back", err,
			attribute.String("db.system", u.repo.client.System()),
			attribute.Int("uow.changes", len(u.ops)),
		)
		var domainErr *errors.DomainError
		if stdErrors.As(err, &domainErr) {
			return false, domainErr
		}
		return false, errors.StoreFailure("failed to commit unit of work", err)
	}

	for _, hook := range hooks {
		hook()
	}
	u.ops = nil
	return true, nil
}

func ensureUserExists(tx *gorm.DB, id entity.UserID) error {
	var count int64
	if err := tx.Model(&UserModel{}).Where("id = ?", int(id)).Count(&count).Error; err != nil {
		return errors.StoreFailure("failed to look up user", err)
	}
	if count == 0 {
		return errors.ErrUserNotFound.WithContext("id", int(id))
	}
	return nil
}

func ensureUsernameFree(tx *gorm.DB, username string, except uint) error {
	var count int64
	err := tx.Model(&UserModel{}).Where("username = ? AND id <> ?", username, except).Count(&count).Error
	if err != nil {
		return errors.StoreFailure("failed to check username", err)
	}
	if count > 0 {
		return errors.ErrUserAlreadyExists.WithContext("username", username)
	}
	return nil
}
