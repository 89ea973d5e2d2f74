package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"dating-api/internal/domain/entity"
	"dating-api/internal/domain/errors"
	"dating-api/internal/domain/repository"
)

// state is one immutable snapshot of the store. Writers clone it, apply a
// unit of work to the clone and swap it in.
type state struct {
	users         map[entity.UserID]entity.UserState
	photos        map[entity.PhotoID]entity.Photo
	likes         map[entity.Like]struct{}
	messages      map[entity.MessageID]entity.Message
	nextUserID    entity.UserID
	nextPhotoID   entity.PhotoID
	nextMessageID entity.MessageID
}

func newState() *state {
	return &state{
		users:         make(map[entity.UserID]entity.UserState),
		photos:        make(map[entity.PhotoID]entity.Photo),
		likes:         make(map[entity.Like]struct{}),
		messages:      make(map[entity.MessageID]entity.Message),
		nextUserID:    1,
		nextPhotoID:   1,
		nextMessageID: 1,
	}
}

func (s *state) clone() *state {
	return &state{
		users:         maps.Clone(s.users),
		photos:        maps.Clone(s.photos),
		likes:         maps.Clone(s.likes),
		messages:      maps.Clone(s.messages),
		nextUserID:    s.nextUserID,
		nextPhotoID:   s.nextPhotoID,
		nextMessageID: s.nextMessageID,
	}
}

// photosOf returns the photos of a user ordered by id
func (s *state) photosOf(id entity.UserID) []entity.Photo {
	var photos []entity.Photo
	for _, p := range s.photos {
		if p.UserID == id {
			photos = append(photos, p)
		}
	}
	slices.SortFunc(photos, func(a, b entity.Photo) int { return cmp.Compare(a.ID, b.ID) })
	return photos
}

func (s *state) user(id entity.UserID) *entity.User {
	st := s.users[id]
	st.Photos = s.photosOf(id)
	return entity.RestoreUser(st)
}

// UserRepository implements repository.DatingRepository using in-memory storage
type UserRepository struct {
	mu     sync.RWMutex
	state  *state
	tracer trace.Tracer
}

var _ repository.DatingRepository = (*UserRepository)(nil)

// NewUserRepository creates a new in-memory repository
func NewUserRepository() *UserRepository {
	return &UserRepository{
		state:  newState(),
		tracer: noop.NewTracerProvider().Tracer("memory-repository"),
	}
}

// WithTracer sets the tracer for the repository
func (r *UserRepository) WithTracer(tracer trace.Tracer) *UserRepository {
	r.tracer = tracer
	return r
}

func (r *UserRepository) snapshot() *state {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *UserRepository) startSpan(ctx context.Context, name, operation, collection string) (context.Context, trace.Span) {
	ctx, span := r.tracer.Start(ctx, "UserRepository."+name)
	span.SetAttributes(
		attribute.String("db.system", "memory"),
		attribute.String("db.operation", operation),
		attribute.String("db.collection", collection),
	)
	return ctx, span
}

// ListUsers returns every user with photos attached, ordered by id
func (r *UserRepository) ListUsers(ctx context.Context) ([]*entity.User, error) {
	_, span := r.startSpan(ctx, "ListUsers", "SELECT", "users")
	defer span.End()

	s := r.snapshot()
	ids := slices.Sorted(maps.Keys(s.users))
	users := make([]*entity.User, 0, len(ids))
	for _, id := range ids {
		users = append(users, s.user(id))
	}

	span.SetAttributes(attribute.Int("users.count", len(users)))
	return users, nil
}

// GetUser retrieves a user with photos by ID
func (r *UserRepository) GetUser(ctx context.Context, id entity.UserID) (*entity.User, error) {
	_, span := r.startSpan(ctx, "GetUser", "SELECT", "users")
	span.SetAttributes(attribute.Int("user.id", int(id)))
	defer span.End()

	s := r.snapshot()
	if _, ok := s.users[id]; !ok {
		return nil, errors.ErrUserNotFound.WithContext("id", int(id))
	}
	return s.user(id), nil
}

// ExistsByUsername checks if a user with the given username exists
func (r *UserRepository) ExistsByUsername(ctx context.Context, username entity.Username) (bool, error) {
	_, span := r.startSpan(ctx, "ExistsByUsername", "SELECT", "users")
	defer span.End()

	for _, u := range r.snapshot().users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

// ListLikes returns every edge touching id
func (r *UserRepository) ListLikes(ctx context.Context, id entity.UserID) ([]entity.Like, error) {
	_, span := r.startSpan(ctx, "ListLikes", "SELECT", "likes")
	span.SetAttributes(attribute.Int("user.id", int(id)))
	defer span.End()

	likes := []entity.Like{}
	for l := range r.snapshot().likes {
		if l.Touches(id) {
			likes = append(likes, l)
		}
	}
	slices.SortFunc(likes, func(a, b entity.Like) int {
		return cmp.Or(cmp.Compare(a.LikerID, b.LikerID), cmp.Compare(a.LikeeID, b.LikeeID))
	})

	span.SetAttributes(attribute.Int("likes.count", len(likes)))
	return likes, nil
}

// GetLike retrieves a single edge
func (r *UserRepository) GetLike(ctx context.Context, likerID, likeeID entity.UserID) (*entity.Like, error) {
	_, span := r.startSpan(ctx, "GetLike", "SELECT", "likes")
	defer span.End()

	like := entity.Like{LikerID: likerID, LikeeID: likeeID}
	if _, ok := r.snapshot().likes[like]; !ok {
		return nil, errors.ErrLikeNotFound.
			WithContext("likerId", int(likerID)).
			WithContext("likeeId", int(likeeID))
	}
	return &like, nil
}

// GetPhoto retrieves a photo by id
func (r *UserRepository) GetPhoto(ctx context.Context, id entity.PhotoID) (*entity.Photo, error) {
	_, span := r.startSpan(ctx, "GetPhoto", "SELECT", "photos")
	span.SetAttributes(attribute.Int("photo.id", int(id)))
	defer span.End()

	p, ok := r.snapshot().photos[id]
	if !ok {
		return nil, errors.ErrPhotoNotFound.WithContext("id", int(id))
	}
	return &p, nil
}

// GetMainPhotoForUser returns the photo flagged as main for userID
func (r *UserRepository) GetMainPhotoForUser(ctx context.Context, userID entity.UserID) (*entity.Photo, error) {
	_, span := r.startSpan(ctx, "GetMainPhotoForUser", "SELECT", "photos")
	span.SetAttributes(attribute.Int("user.id", int(userID)))
	defer span.End()

	for _, p := range r.snapshot().photosOf(userID) {
		if p.IsMain {
			return &p, nil
		}
	}
	return nil, errors.ErrPhotoNotFound.WithContext("userId", int(userID))
}

// Begin starts a new unit of work
func (r *UserRepository) Begin() repository.UnitOfWork {
	return &unitOfWork{repo: r}
}
