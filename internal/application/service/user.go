package service

import (
	"context"
	stdErrors "errors"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"dating-api/internal/application/dto"
	"dating-api/internal/domain/discovery"
	"dating-api/internal/domain/entity"
	"dating-api/internal/domain/errors"
	"dating-api/internal/domain/event"
	"dating-api/internal/domain/repository"
	domainService "dating-api/internal/domain/service"
	"dating-api/internal/infrastructure/telemetry"
)

// PasswordHasher turns a plain password into a storable hash
type PasswordHasher interface {
	Hash(password string) ([]byte, error)
}

// Option configures a UserService
type Option func(*UserService)

// WithClock replaces the source of the current time
func WithClock(now func() time.Time) Option {
	return func(s *UserService) {
		s.now = now
	}
}

// WithPageSizes sets the discovery page size used when none is given and the
// largest one accepted
func WithPageSizes(defaultSize, maxSize int) Option {
	return func(s *UserService) {
		if defaultSize > 0 {
			s.defaultPageSize = defaultSize
		}
		if maxSize > 0 {
			s.maxPageSize = maxSize
		}
	}
}

// UserService handles user-related business operations
type UserService struct {
	repo            repository.DatingRepository
	discovery       *discovery.Service
	hasher          PasswordHasher
	events          event.Publisher
	telemetry       *telemetry.Telemetry
	tracer          trace.Tracer
	now             func() time.Time
	defaultPageSize int
	maxPageSize     int
}

var _ domainService.UserService = (*UserService)(nil)

// NewUserService creates a new UserService
func NewUserService(repo repository.DatingRepository, hasher PasswordHasher, events event.Publisher, tel *telemetry.Telemetry, opts ...Option) *UserService {
	s := &UserService{
		repo:            repo,
		hasher:          hasher,
		events:          events,
		telemetry:       tel,
		tracer:          tel.Tracer,
		now:             time.Now,
		defaultPageSize: 10,
		maxPageSize:     50,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.discovery = discovery.NewService(repo, repo, discovery.WithClock(s.now))
	return s
}

// RegisterUser creates a new user
func (s *UserService) RegisterUser(ctx context.Context, req dto.RegisterUserRequest) (*dto.UserDetailResponse, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.RegisterUser")
	defer span.End()

	span.SetAttributes(
		attribute.String("operation", "register_user"),
		attribute.String("user.username", req.Username),
	)

	telemetry.Log(ctx, telemetry.LevelInfo, "Registering user", nil,
		semconv.HTTPRoute("/users"),
		attribute.String("handler", "register_user"),
		attribute.String("operation", "create"),
		attribute.String("username", req.Username),
	)

	if err := req.Validate(); err != nil {
		return nil, s.fail(ctx, span, "register",
			errors.NewDomainErrorWithCause(errors.ErrCodeValidationFailed, "request validation failed", err))
	}
	dob, _ := req.ParsedDateOfBirth()

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, s.fail(ctx, span, "register",
			errors.NewDomainErrorWithCause(errors.ErrCodeInternalError, "failed to hash password", err))
	}

	user, err := entity.NewUser(req.Username, hash, req.Gender, dob, s.now())
	if err != nil {
		return nil, s.fail(ctx, span, "register", err)
	}

	exists, err := s.repo.ExistsByUsername(ctx, user.Username())
	if err != nil {
		return nil, s.fail(ctx, span, "register", err)
	}
	if exists {
		return nil, s.fail(ctx, span, "register",
			errors.ErrUserAlreadyExists.WithContext("username", user.Username().String()))
	}

	uow := s.repo.Begin()
	uow.AddUser(user)
	if _, err := uow.SaveAll(ctx); err != nil {
		return nil, s.fail(ctx, span, "register", err)
	}
	s.publish(ctx, event.NewUserRegistered(user.ID(), s.now()))

	telemetry.Log(ctx, telemetry.LevelInfo, "User registered successfully", nil,
		semconv.HTTPRoute("/users"),
		attribute.String("handler", "register_user"),
		attribute.String("operation", "create"),
		attribute.String("user.id", user.ID().String()),
	)

	s.recordMetric(ctx, "register", "success")
	return dto.NewUserDetailResponse(user, s.now()), nil
}

// GetUser retrieves a user with photos by ID
func (s *UserService) GetUser(ctx context.Context, idStr string) (*dto.UserDetailResponse, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.GetUser")
	defer span.End()

	span.SetAttributes(
		attribute.String("operation", "get_user"),
		attribute.String("user.id", idStr),
	)

	id, err := parseUserID("id", idStr)
	if err != nil {
		return nil, s.fail(ctx, span, "get_user", err)
	}

	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, span, "get_user", err)
	}

	s.recordMetric(ctx, "get_user", "success")
	return dto.NewUserDetailResponse(user, s.now()), nil
}

// DiscoverUsers returns one page of candidates for the requesting user.
// Without a gender the requester's opposite gender is used.
func (s *UserService) DiscoverUsers(ctx context.Context, requesterIDStr string, req dto.DiscoverUsersRequest) (*dto.UserPageResponse, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.DiscoverUsers")
	defer span.End()

	span.SetAttributes(
		attribute.String("operation", "discover_users"),
		attribute.String("user.id", requesterIDStr),
		attribute.Bool("discovery.likers", req.Likers),
		attribute.Bool("discovery.likees", req.Likees),
	)

	q, err := s.buildQuery(ctx, requesterIDStr, req)
	if err != nil {
		s.recordDiscovery(ctx, err)
		return nil, s.fail(ctx, span, "discover", err)
	}

	span.SetAttributes(
		attribute.String("discovery.gender", q.Gender.String()),
		attribute.Int("discovery.min_age", q.MinAge),
		attribute.Int("discovery.max_age", q.MaxAge),
		attribute.Int("discovery.page_number", q.PageNumber),
		attribute.Int("discovery.page_size", q.PageSize),
	)

	page, err := s.discovery.Discover(ctx, q)
	if err != nil {
		s.recordDiscovery(ctx, err)
		return nil, s.fail(ctx, span, "discover", err)
	}

	if s.telemetry != nil && s.telemetry.CandidateHistogram != nil {
		s.telemetry.CandidateHistogram.Record(ctx, int64(page.TotalItems()))
	}
	s.recordDiscovery(ctx, nil)

	telemetry.Log(ctx, telemetry.LevelInfo, "Discovery served", nil,
		semconv.HTTPRoute("/users"),
		attribute.String("handler", "discover_users"),
		attribute.String("user.id", q.RequesterID.String()),
		attribute.Int("discovery.total_items", page.TotalItems()),
		attribute.Int("discovery.returned", page.Len()),
	)

	s.recordMetric(ctx, "discover", "success")
	return dto.NewUserPageResponse(page, s.now()), nil
}

func (s *UserService) buildQuery(ctx context.Context, requesterIDStr string, req dto.DiscoverUsersRequest) (discovery.Query, error) {
	id, err := parseUserID("userId", requesterIDStr)
	if err != nil {
		return discovery.Query{}, err
	}

	// Oversized pages are capped; zero or negative sizes fail validation.
	pageSize := s.defaultPageSize
	if req.PageSize != nil {
		pageSize = min(*req.PageSize, s.maxPageSize)
	}

	var gender entity.Gender
	if req.Gender == "" {
		requester, err := s.repo.GetUser(ctx, id)
		if err != nil {
			return discovery.Query{}, err
		}
		gender = requester.Gender().Opposite()
	} else {
		gender, err = entity.ParseGender(req.Gender)
		if err != nil {
			return discovery.Query{}, err
		}
	}

	q := discovery.NewQuery(id, gender, pageSize)
	q.Likers = req.Likers
	q.Likees = req.Likees
	if req.PageNumber != nil {
		q.PageNumber = *req.PageNumber
	}
	if req.MinAge != nil {
		q.MinAge = *req.MinAge
	}
	if req.MaxAge != nil {
		q.MaxAge = *req.MaxAge
	}
	return q, nil
}

// UpdateLastActive records activity for a user
func (s *UserService) UpdateLastActive(ctx context.Context, idStr string) error {
	ctx, span := s.tracer.Start(ctx, "UserService.UpdateLastActive")
	defer span.End()

	span.SetAttributes(
		attribute.String("operation", "update_last_active"),
		attribute.String("user.id", idStr),
	)

	id, err := parseUserID("id", idStr)
	if err != nil {
		return s.fail(ctx, span, "update_last_active", err)
	}

	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return s.fail(ctx, span, "update_last_active", err)
	}

	user.Touch(s.now())
	uow := s.repo.Begin()
	uow.UpdateUser(user)
	if _, err := uow.SaveAll(ctx); err != nil {
		return s.fail(ctx, span, "update_last_active", err)
	}

	s.recordMetric(ctx, "update_last_active", "success")
	return nil
}

// DeleteUser removes a user and its photos. It is refused while likes or
// messages still reference the user.
func (s *UserService) DeleteUser(ctx context.Context, idStr string) error {
	ctx, span := s.tracer.Start(ctx, "UserService.DeleteUser")
	defer span.End()

	span.SetAttributes(
		attribute.String("operation", "delete_user"),
		attribute.String("user.id", idStr),
	)

	telemetry.Log(ctx, telemetry.LevelInfo, "Deleting user", nil,
		semconv.HTTPRoute("/users/{id}"),
		attribute.String("handler", "delete_user"),
		attribute.String("operation", "delete"),
		attribute.String("user.id", idStr),
	)

	id, err := parseUserID("id", idStr)
	if err != nil {
		return s.fail(ctx, span, "delete", err)
	}

	uow := s.repo.Begin()
	uow.RemoveUser(id)
	if _, err := uow.SaveAll(ctx); err != nil {
		return s.fail(ctx, span, "delete", err)
	}
	s.publish(ctx, event.NewUserRemoved(id, s.now()))

	telemetry.Log(ctx, telemetry.LevelInfo, "User deleted successfully", nil,
		semconv.HTTPRoute("/users/{id}"),
		attribute.String("handler", "delete_user"),
		attribute.String("operation", "delete"),
		attribute.String("user.id", idStr),
	)

	s.recordMetric(ctx, "delete", "success")
	return nil
}

// AddPhoto attaches a photo to a user. The first photo becomes the main one.
func (s *UserService) AddPhoto(ctx context.Context, userIDStr string, req dto.AddPhotoRequest) (*dto.PhotoResponse, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.AddPhoto")
	defer span.End()

	span.SetAttributes(
		attribute.String("operation", "add_photo"),
		attribute.String("user.id", userIDStr),
	)

	id, err := parseUserID("id", userIDStr)
	if err != nil {
		return nil, s.fail(ctx, span, "add_photo", err)
	}

	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, span, "add_photo", err)
	}

	photo, err := entity.NewPhoto(id, req.URL, req.Description, req.PublicID, s.now())
	if err != nil {
		return nil, s.fail(ctx, span, "add_photo", err)
	}
	if _, ok := user.MainPhoto(); !ok {
		photo.IsMain = true
	}

	uow := s.repo.Begin()
	uow.AddPhoto(photo)
	if _, err := uow.SaveAll(ctx); err != nil {
		return nil, s.fail(ctx, span, "add_photo", err)
	}
	s.publish(ctx, event.NewPhotoChanged(id, s.now()))

	span.SetAttributes(attribute.Int("photo.id", int(photo.ID)), attribute.Bool("photo.is_main", photo.IsMain))
	s.recordMetric(ctx, "add_photo", "success")
	resp := dto.NewPhotoResponse(*photo)
	return &resp, nil
}

// SetMainPhoto makes photoID the main photo of the user, clearing the
// previous one in the same unit of work
func (s *UserService) SetMainPhoto(ctx context.Context, userIDStr, photoIDStr string) error {
	ctx, span := s.tracer.Start(ctx, "UserService.SetMainPhoto")
	defer span.End()

	span.SetAttributes(
		attribute.String("operation", "set_main_photo"),
		attribute.String("user.id", userIDStr),
		attribute.String("photo.id", photoIDStr),
	)

	photo, err := s.ownedPhoto(ctx, userIDStr, photoIDStr)
	if err != nil {
		return s.fail(ctx, span, "set_main_photo", err)
	}
	if photo.IsMain {
		return s.fail(ctx, span, "set_main_photo",
			errors.NewDomainError(errors.ErrCodeValidationFailed, "this is already the main photo").
				WithContext("photoId", int(photo.ID)))
	}

	uow := s.repo.Begin()
	current, err := s.repo.GetMainPhotoForUser(ctx, photo.UserID)
	switch {
	case err == nil:
		current.IsMain = false
		uow.UpdatePhoto(current)
	case !stdErrors.Is(err, errors.ErrPhotoNotFound):
		return s.fail(ctx, span, "set_main_photo", err)
	}
	photo.IsMain = true
	uow.UpdatePhoto(photo)

	if _, err := uow.SaveAll(ctx); err != nil {
		return s.fail(ctx, span, "set_main_photo", err)
	}
	s.publish(ctx, event.NewPhotoChanged(photo.UserID, s.now()))

	s.recordMetric(ctx, "set_main_photo", "success")
	return nil
}

// DeletePhoto removes a photo that is not the user's main photo
func (s *UserService) DeletePhoto(ctx context.Context, userIDStr, photoIDStr string) error {
	ctx, span := s.tracer.Start(ctx, "UserService.DeletePhoto")
	defer span.End()

	span.SetAttributes(
		attribute.String("operation", "delete_photo"),
		attribute.String("user.id", userIDStr),
		attribute.String("photo.id", photoIDStr),
	)

	photo, err := s.ownedPhoto(ctx, userIDStr, photoIDStr)
	if err != nil {
		return s.fail(ctx, span, "delete_photo", err)
	}
	if photo.IsMain {
		return s.fail(ctx, span, "delete_photo", errors.ErrMainPhoto.WithContext("photoId", int(photo.ID)))
	}

	uow := s.repo.Begin()
	uow.RemovePhoto(photo.ID)
	if _, err := uow.SaveAll(ctx); err != nil {
		return s.fail(ctx, span, "delete_photo", err)
	}
	s.publish(ctx, event.NewPhotoChanged(photo.UserID, s.now()))

	s.recordMetric(ctx, "delete_photo", "success")
	return nil
}

// ownedPhoto loads a photo and checks it belongs to the user. A photo of
// another user is reported as not found.
func (s *UserService) ownedPhoto(ctx context.Context, userIDStr, photoIDStr string) (*entity.Photo, error) {
	userID, err := parseUserID("id", userIDStr)
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(photoIDStr)
	if err != nil || n <= 0 {
		return nil, errors.InvalidArgument("photoId", "photo id must be a positive integer").WithContext("photoId", photoIDStr)
	}

	photo, err := s.repo.GetPhoto(ctx, entity.PhotoID(n))
	if err != nil {
		return nil, err
	}
	if photo.UserID != userID {
		return nil, errors.ErrPhotoNotFound.WithContext("id", n).WithContext("userId", int(userID))
	}
	return photo, nil
}

// LikeUser records that the user likes recipient
func (s *UserService) LikeUser(ctx context.Context, idStr, recipientIDStr string) (*dto.LikeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.LikeUser")
	defer span.End()

	span.SetAttributes(
		attribute.String("operation", "like_user"),
		attribute.String("user.id", idStr),
		attribute.String("recipient.id", recipientIDStr),
	)

	like, err := parseLike(idStr, recipientIDStr)
	if err != nil {
		return nil, s.fail(ctx, span, "like", err)
	}

	if _, err := s.repo.GetLike(ctx, like.LikerID, like.LikeeID); err == nil {
		return nil, s.fail(ctx, span, "like", errors.ErrLikeAlreadyExists.
			WithContext("likerId", int(like.LikerID)).
			WithContext("likeeId", int(like.LikeeID)))
	} else if !stdErrors.Is(err, errors.ErrLikeNotFound) {
		return nil, s.fail(ctx, span, "like", err)
	}

	if _, err := s.repo.GetUser(ctx, like.LikeeID); err != nil {
		return nil, s.fail(ctx, span, "like", err)
	}

	uow := s.repo.Begin()
	uow.AddLike(like)
	if _, err := uow.SaveAll(ctx); err != nil {
		return nil, s.fail(ctx, span, "like", err)
	}
	s.publish(ctx, event.NewLikeAdded(like, s.now()))

	telemetry.Log(ctx, telemetry.LevelInfo, "User liked", nil,
		semconv.HTTPRoute("/users/{id}/like/{recipientId}"),
		attribute.Int("like.liker_id", int(like.LikerID)),
		attribute.Int("like.likee_id", int(like.LikeeID)),
	)

	s.recordMetric(ctx, "like", "success")
	return &dto.LikeResponse{LikerID: int(like.LikerID), LikeeID: int(like.LikeeID)}, nil
}

// UnlikeUser removes an existing like
func (s *UserService) UnlikeUser(ctx context.Context, idStr, recipientIDStr string) error {
	ctx, span := s.tracer.Start(ctx, "UserService.UnlikeUser")
	defer span.End()

	span.SetAttributes(
		attribute.String("operation", "unlike_user"),
		attribute.String("user.id", idStr),
		attribute.String("recipient.id", recipientIDStr),
	)

	like, err := parseLike(idStr, recipientIDStr)
	if err != nil {
		return s.fail(ctx, span, "unlike", err)
	}

	if _, err := s.repo.GetLike(ctx, like.LikerID, like.LikeeID); err != nil {
		return s.fail(ctx, span, "unlike", err)
	}

	uow := s.repo.Begin()
	uow.RemoveLike(like)
	if _, err := uow.SaveAll(ctx); err != nil {
		return s.fail(ctx, span, "unlike", err)
	}
	s.publish(ctx, event.NewLikeRemoved(like, s.now()))

	s.recordMetric(ctx, "unlike", "success")
	return nil
}

// SendMessage stores a message from the user to recipient
func (s *UserService) SendMessage(ctx context.Context, senderIDStr, recipientIDStr string, req dto.SendMessageRequest) (*dto.MessageResponse, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.SendMessage")
	defer span.End()

	span.SetAttributes(
		attribute.String("operation", "send_message"),
		attribute.String("user.id", senderIDStr),
	)

	senderID, err := parseUserID("id", senderIDStr)
	if err != nil {
		return nil, s.fail(ctx, span, "send_message", err)
	}
	recipientID, err := parseUserID("recipientId", recipientIDStr)
	if err != nil {
		return nil, s.fail(ctx, span, "send_message", err)
	}

	msg, err := entity.NewMessage(senderID, recipientID, req.Content, s.now())
	if err != nil {
		return nil, s.fail(ctx, span, "send_message", err)
	}

	uow := s.repo.Begin()
	uow.AddMessage(msg)
	if _, err := uow.SaveAll(ctx); err != nil {
		return nil, s.fail(ctx, span, "send_message", err)
	}
	s.publish(ctx, event.NewMessageSent(*msg, s.now()))

	s.recordMetric(ctx, "send_message", "success")
	return dto.NewMessageResponse(msg), nil
}

// publish delivers committed events. The change is already stored, so a
// failure is logged and not returned.
func (s *UserService) publish(ctx context.Context, events ...event.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		telemetry.Log(ctx, telemetry.LevelWarn, "Failed to publish events", err,
			attribute.Int("events.count", len(events)),
			attribute.String("event.type", string(events[0].Type)),
		)
	}
}

// fail annotates the span, counts the failure and returns err
func (s *UserService) fail(ctx context.Context, span trace.Span, operation string, err error) error {
	status := statusOf(err)
	span.SetAttributes(attribute.String("error", status))
	s.recordMetric(ctx, operation, status)

	level := telemetry.LevelWarn
	if status == "error" {
		level = telemetry.LevelError
	}
	telemetry.Log(ctx, level, "Operation failed", err,
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
	return err
}

// recordMetric records operation metrics
func (s *UserService) recordMetric(ctx context.Context, operation, status string) {
	s.telemetry.RecordOperation(ctx, operation, status)
}

func (s *UserService) recordDiscovery(ctx context.Context, err error) {
	if s.telemetry == nil || s.telemetry.DiscoveryCounter == nil {
		return
	}
	status := "success"
	if err != nil {
		status = statusOf(err)
	}
	s.telemetry.DiscoveryCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func statusOf(err error) string {
	var domainErr *errors.DomainError
	if !stdErrors.As(err, &domainErr) {
		return "error"
	}
	switch domainErr.Code {
	case errors.ErrCodeValidationFailed, errors.ErrCodeInvalidArgument:
		return "validation_error"
	case errors.ErrCodeUserNotFound, errors.ErrCodePhotoNotFound, errors.ErrCodeLikeNotFound:
		return "not_found"
	case errors.ErrCodeUserAlreadyExists, errors.ErrCodeLikeAlreadyExists,
		errors.ErrCodeRestrictedDelete, errors.ErrCodeMainPhoto:
		return "conflict"
	default:
		return "error"
	}
}

func parseUserID(name, s string) (entity.UserID, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.InvalidArgument(name, "user id must be a positive integer").WithContext(name, s)
	}
	return entity.UserID(n), nil
}

func parseLike(likerStr, likeeStr string) (entity.Like, error) {
	liker, err := parseUserID("id", likerStr)
	if err != nil {
		return entity.Like{}, err
	}
	likee, err := parseUserID("recipientId", likeeStr)
	if err != nil {
		return entity.Like{}, err
	}
	return entity.NewLike(liker, likee)
}
