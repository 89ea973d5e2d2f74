package redis

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"dating-api/internal/domain/entity"
	"dating-api/internal/domain/repository"
	"dating-api/internal/infrastructure/telemetry"
)

// Store is the key/value backend of the like cache
type Store interface {
	Fetch(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Drop(ctx context.Context, keys ...string) error
}

// LikesKey is the cache key holding the like edges of id
func LikesKey(id entity.UserID) string {
	return "dating:likes:" + id.String()
}

// CachedRepository serves ListLikes from Redis and delegates everything else.
// Entries expire after ttl and are dropped early by Invalidate. A failing
// cache never fails a read; the store answers instead.
type CachedRepository struct {
	repository.DatingRepository
	store  Store
	ttl    time.Duration
	tracer trace.Tracer
}

var _ repository.DatingRepository = (*CachedRepository)(nil)

func NewCachedRepository(repo repository.DatingRepository, store Store, ttl time.Duration, tracer trace.Tracer) *CachedRepository {
	return &CachedRepository{
		DatingRepository: repo,
		store:            store,
		ttl:              ttl,
		tracer:           tracer,
	}
}

// ListLikes returns every edge touching id
func (r *CachedRepository) ListLikes(ctx context.Context, id entity.UserID) ([]entity.Like, error) {
	ctx, span := r.tracer.Start(ctx, "CachedRepository.ListLikes")
	defer span.End()
	span.SetAttributes(attribute.Int("user.id", int(id)))

	key := LikesKey(id)
	raw, found, err := r.store.Fetch(ctx, key)
	switch {
	case err != nil:
		telemetry.Log(ctx, telemetry.LevelWarn, "Like cache unavailable, reading store", err,
			attribute.String("cache.key", key))
	case found:
		var likes []entity.Like
		if err := json.Unmarshal(raw, &likes); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return likes, nil
		}
		telemetry.Log(ctx, telemetry.LevelWarn, "Discarding unreadable cached likes", err,
			attribute.String("cache.key", key))
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	likes, err := r.DatingRepository.ListLikes(ctx, id)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(likes); err == nil {
		if err := r.store.Put(ctx, key, encoded, r.ttl); err != nil {
			telemetry.Log(ctx, telemetry.LevelWarn, "Failed to cache likes", err,
				attribute.String("cache.key", key))
		}
	}
	return likes, nil
}

// Invalidate drops the cached edges of ids
func (r *CachedRepository) Invalidate(ctx context.Context, ids ...entity.UserID) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, LikesKey(id))
	}
	return r.store.Drop(ctx, keys...)
}
