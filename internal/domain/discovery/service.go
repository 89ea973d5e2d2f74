package discovery

import (
	"cmp"
	"context"
	"slices"
	"time"

	"dating-api/internal/domain/entity"
	"dating-api/internal/domain/errors"
)

// UserLister reads every user with photos attached in one batched read
type UserLister interface {
	ListUsers(ctx context.Context) ([]*entity.User, error)
}

// Query describes one discovery request
type Query struct {
	RequesterID entity.UserID
	Gender      entity.Gender
	MinAge      int
	MaxAge      int
	Likers      bool
	Likees      bool
	PageNumber  int
	PageSize    int
}

// NewQuery returns a query for requesterID with default age bounds on the first page
func NewQuery(requesterID entity.UserID, gender entity.Gender, pageSize int) Query {
	return Query{
		RequesterID: requesterID,
		Gender:      gender,
		MinAge:      DefaultMinAge,
		MaxAge:      DefaultMaxAge,
		PageNumber:  1,
		PageSize:    pageSize,
	}
}

// Validate checks the arguments that do not depend on the current date
func (q Query) Validate() error {
	if !q.RequesterID.IsValid() {
		return errors.InvalidArgument("userId", "requesting user id must be positive").WithContext("userId", int(q.RequesterID))
	}
	if q.Gender == "" {
		return errors.InvalidArgument("gender", "gender is required")
	}
	if q.PageSize <= 0 {
		return errors.InvalidArgument("pageSize", "page size must be positive").WithContext("pageSize", q.PageSize)
	}
	if q.PageNumber < 1 {
		return errors.InvalidArgument("pageNumber", "page number must be at least 1").WithContext("pageNumber", q.PageNumber)
	}
	return nil
}

// Option configures a Service
type Option func(*Service)

// WithClock replaces the source of "today"
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service answers discovery queries. It keeps no mutable state and is safe for concurrent use.
type Service struct {
	users UserLister
	likes LikeLister
	now   func() time.Time
}

// NewService creates a discovery service over the given readers
func NewService(users UserLister, likes LikeLister, opts ...Option) *Service {
	s := &Service{
		users: users,
		likes: likes,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Discover returns one page of candidates for the query. Relationship sets
// are only loaded for the flags that are set. Store failures are returned unchanged.
func (s *Service) Discover(ctx context.Context, q Query) (entity.Page[*entity.User], error) {
	if err := q.Validate(); err != nil {
		return entity.Page[*entity.User]{}, err
	}

	window, err := NewAgeWindow(q.MinAge, q.MaxAge, s.now())
	if err != nil {
		return entity.Page[*entity.User]{}, err
	}

	filter, err := s.BuildFilter(ctx, q, window)
	if err != nil {
		return entity.Page[*entity.User]{}, err
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return entity.Page[*entity.User]{}, err
	}

	candidates := filter.Apply(users)
	slices.SortStableFunc(candidates, func(a, b *entity.User) int {
		return cmp.Compare(a.ID(), b.ID())
	})

	return Paginate(candidates, q.PageNumber, q.PageSize)
}

// BuildFilter assembles the candidate filter for q, resolving relationship sets lazily
func (s *Service) BuildFilter(ctx context.Context, q Query, window AgeWindow) (CandidateFilter, error) {
	filter := CandidateFilter{
		RequesterID: q.RequesterID,
		Gender:      q.Gender,
		Age:         window,
	}

	if q.Likers {
		set, err := ResolveRelationships(ctx, s.likes, q.RequesterID, Likers)
		if err != nil {
			return CandidateFilter{}, err
		}
		filter.Likers = set
	}
	if q.Likees {
		set, err := ResolveRelationships(ctx, s.likes, q.RequesterID, Likees)
		if err != nil {
			return CandidateFilter{}, err
		}
		filter.Likees = set
	}
	return filter, nil
}
