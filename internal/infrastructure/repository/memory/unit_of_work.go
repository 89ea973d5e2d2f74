package memory

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"dating-api/internal/domain/entity"
	"dating-api/internal/domain/errors"
	"dating-api/internal/infrastructure/telemetry"
)

// op applies one staged change to a working copy. The returned hook runs only
// after the whole unit of work has been committed.
type op func(s *state) (func(), error)

type unitOfWork struct {
	repo *UserRepository
	ops  []op
}

func (u *unitOfWork) stage(o op) {
	u.ops = append(u.ops, o)
}

func (u *unitOfWork) AddUser(user *entity.User) {
	u.stage(func(s *state) (func(), error) {
		st := user.State()
		if usernameTaken(s, st.Username, 0) {
			return nil, errors.ErrUserAlreadyExists.WithContext("username", st.Username.String())
		}
		id := s.nextUserID
		s.nextUserID++
		st.ID = id
		st.Photos, st.Likers, st.Likees = nil, nil, nil
		s.users[id] = st
		return func() { user.SetID(id) }, nil
	})
}

func (u *unitOfWork) UpdateUser(user *entity.User) {
	u.stage(func(s *state) (func(), error) {
		st := user.State()
		if _, ok := s.users[st.ID]; !ok {
			return nil, errors.ErrUserNotFound.WithContext("id", int(st.ID))
		}
		if usernameTaken(s, st.Username, st.ID) {
			return nil, errors.ErrUserAlreadyExists.WithContext("username", st.Username.String())
		}
		st.Photos, st.Likers, st.Likees = nil, nil, nil
		s.users[st.ID] = st
		return nil, nil
	})
}

// RemoveUser deletes a user and the photos it owns. Likes and messages are
// not cascaded; the removal fails while any of them still reference the user.
func (u *unitOfWork) RemoveUser(id entity.UserID) {
	u.stage(func(s *state) (func(), error) {
		if _, ok := s.users[id]; !ok {
			return nil, errors.ErrUserNotFound.WithContext("id", int(id))
		}
		for l := range s.likes {
			if l.Touches(id) {
				return nil, errors.ErrRestrictedDelete.
					WithContext("userId", int(id)).
					WithContext("reference", "like")
			}
		}
		for _, m := range s.messages {
			if m.Involves(id) {
				return nil, errors.ErrRestrictedDelete.
					WithContext("userId", int(id)).
					WithContext("reference", "message")
			}
		}
		for pid, p := range s.photos {
			if p.UserID == id {
				delete(s.photos, pid)
			}
		}
		delete(s.users, id)
		return nil, nil
	})
}

func (u *unitOfWork) AddPhoto(photo *entity.Photo) {
	u.stage(func(s *state) (func(), error) {
		if _, ok := s.users[photo.UserID]; !ok {
			return nil, errors.ErrUserNotFound.WithContext("id", int(photo.UserID))
		}
		p := *photo
		p.ID = s.nextPhotoID
		s.nextPhotoID++
		s.photos[p.ID] = p
		return func() { photo.ID = p.ID }, nil
	})
}

func (u *unitOfWork) UpdatePhoto(photo *entity.Photo) {
	u.stage(func(s *state) (func(), error) {
		existing, ok := s.photos[photo.ID]
		if !ok {
			return nil, errors.ErrPhotoNotFound.WithContext("id", int(photo.ID))
		}
		p := *photo
		p.UserID = existing.UserID
		s.photos[p.ID] = p
		return nil, nil
	})
}

func (u *unitOfWork) RemovePhoto(id entity.PhotoID) {
	u.stage(func(s *state) (func(), error) {
		if _, ok := s.photos[id]; !ok {
			return nil, errors.ErrPhotoNotFound.WithContext("id", int(id))
		}
		delete(s.photos, id)
		return nil, nil
	})
}

func (u *unitOfWork) AddLike(like entity.Like) {
	u.stage(func(s *state) (func(), error) {
		for _, id := range []entity.UserID{like.LikerID, like.LikeeID} {
			if _, ok := s.users[id]; !ok {
				return nil, errors.ErrUserNotFound.WithContext("id", int(id))
			}
		}
		if _, ok := s.likes[like]; ok {
			return nil, errors.ErrLikeAlreadyExists.
				WithContext("likerId", int(like.LikerID)).
				WithContext("likeeId", int(like.LikeeID))
		}
		s.likes[like] = struct{}{}
		return nil, nil
	})
}

func (u *unitOfWork) RemoveLike(like entity.Like) {
	u.stage(func(s *state) (func(), error) {
		if _, ok := s.likes[like]; !ok {
			return nil, errors.ErrLikeNotFound.
				WithContext("likerId", int(like.LikerID)).
				WithContext("likeeId", int(like.LikeeID))
		}
		delete(s.likes, like)
		return nil, nil
	})
}

func (u *unitOfWork) AddMessage(message *entity.Message) {
	u.stage(func(s *state) (func(), error) {
		for _, id := range []entity.UserID{message.SenderID, message.RecipientID} {
			if _, ok := s.users[id]; !ok {
				return nil, errors.ErrUserNotFound.WithContext("id", int(id))
			}
		}
		m := *message
		m.ID = s.nextMessageID
		s.nextMessageID++
		s.messages[m.ID] = m
		return func() { message.ID = m.ID }, nil
	})
}

// SaveAll applies every staged change to a copy of the store and swaps it in.
// Nothing is visible to readers until all changes succeeded.
func (u *unitOfWork) SaveAll(ctx context.Context) (bool, error) {
	ctx, span := u.repo.startSpan(ctx, "SaveAll", "COMMIT", "*")
	span.SetAttributes(attribute.Int("uow.changes", len(u.ops)))
	defer span.End()

	if len(u.ops) == 0 {
		return false, nil
	}

	u.repo.mu.Lock()
	working := u.repo.state.clone()
	hooks := make([]func(), 0, len(u.ops))
	for _, o := range u.ops {
		hook, err := o(working)
		if err != nil {
			u.repo.mu.Unlock()
			telemetry.Log(ctx, telemetry.LevelWarn, "Unit of work rolled back", err,
				attribute.String("db.system", "memory"),
				attribute.Int("uow.changes", len(u.ops)),
			)
			return false, err
		}
		if hook != nil {
			hooks = append(hooks, hook)
		}
	}
	u.repo.state = working
	u.repo.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}
	u.ops = nil
	return true, nil
}

func usernameTaken(s *state, name entity.Username, except entity.UserID) bool {
	for id, u := range s.users {
		if id != except && u.Username == name {
			return true
		}
	}
	return false
}
