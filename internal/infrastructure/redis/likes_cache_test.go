package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"dating-api/internal/domain/entity"
	"dating-api/internal/domain/repository/repositorytest"
	"dating-api/internal/infrastructure/repository/memory"
)

// fakeStore keeps values in a map and can be switched to fail
type fakeStore struct {
	values map[string]string
	ttls   map[string]time.Duration
	down   bool
	gets   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) Fetch(ctx context.Context, key string) ([]byte, bool, error) {
	f.gets++
	if f.down {
		return nil, false, errors.New("connection refused")
	}
	v, ok := f.values[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

func (f *fakeStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if f.down {
		return errors.New("connection refused")
	}
	f.values[key] = string(value)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) Drop(ctx context.Context, keys ...string) error {
	if f.down {
		return errors.New("connection refused")
	}
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func setup(t *testing.T) (*CachedRepository, *memory.UserRepository, *fakeStore, entity.UserID, entity.UserID) {
	t.Helper()
	repo := memory.NewUserRepository()
	dob := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	a := repositorytest.SeedUser(t, repo, "a", entity.GenderFemale, dob)
	b := repositorytest.SeedUser(t, repo, "b", entity.GenderMale, dob)
	store := newFakeStore()
	cached := NewCachedRepository(repo, store, 5*time.Minute, noop.NewTracerProvider().Tracer("test"))
	return cached, repo, store, a.ID(), b.ID()
}

func TestCachedRepository_MissThenHit(t *testing.T) {
	cached, repo, store, a, b := setup(t)
	ctx := context.Background()
	repositorytest.SeedLike(t, repo, a, b)

	likes, err := cached.ListLikes(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []entity.Like{{LikerID: a, LikeeID: b}}, likes)
	assert.Contains(t, store.values, LikesKey(a))
	assert.Equal(t, 5*time.Minute, store.ttls[LikesKey(a)])

	// a later write is not visible until the entry is invalidated
	repositorytest.SeedLike(t, repo, b, a)
	likes, err = cached.ListLikes(ctx, a)
	require.NoError(t, err)
	assert.Len(t, likes, 1)

	require.NoError(t, cached.Invalidate(ctx, a, b))
	likes, err = cached.ListLikes(ctx, a)
	require.NoError(t, err)
	assert.Len(t, likes, 2)
}

func TestCachedRepository_EmptyListIsCached(t *testing.T) {
	cached, _, store, a, _ := setup(t)

	likes, err := cached.ListLikes(context.Background(), a)
	require.NoError(t, err)
	assert.Empty(t, likes)
	assert.Equal(t, "[]", store.values[LikesKey(a)])
}

func TestCachedRepository_FallsBackWhenCacheDown(t *testing.T) {
	cached, repo, store, a, b := setup(t)
	repositorytest.SeedLike(t, repo, a, b)
	store.down = true

	likes, err := cached.ListLikes(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, []entity.Like{{LikerID: a, LikeeID: b}}, likes)
	assert.Equal(t, 1, store.gets)
}

func TestCachedRepository_DiscardsCorruptEntry(t *testing.T) {
	cached, repo, store, a, b := setup(t)
	repositorytest.SeedLike(t, repo, a, b)
	store.values[LikesKey(a)] = "{broken"

	likes, err := cached.ListLikes(context.Background(), a)
	require.NoError(t, err)
	assert.Len(t, likes, 1)
	assert.NotEqual(t, "{broken", store.values[LikesKey(a)])
}

func TestCachedRepository_DelegatesOtherReads(t *testing.T) {
	cached, _, _, a, _ := setup(t)

	u, err := cached.GetUser(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, a, u.ID())
}

func TestLikesKey(t *testing.T) {
	assert.Equal(t, "dating:likes:42", LikesKey(42))
}
