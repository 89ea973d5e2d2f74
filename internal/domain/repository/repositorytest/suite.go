// Package repositorytest holds behaviour checks shared by every
// repository.DatingRepository implementation.
package repositorytest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dating-api/internal/domain/entity"
	domainErrors "dating-api/internal/domain/errors"
	"dating-api/internal/domain/repository"
)

var now = time.Date(2025, time.June, 15, 9, 0, 0, 0, time.UTC)

// Factory returns an empty repository for a single subtest
type Factory func(t *testing.T) repository.DatingRepository

// Run exercises repo against the shared contract
func Run(t *testing.T, newRepo Factory) {
	t.Run("AddUserAssignsID", func(t *testing.T) { testAddUserAssignsID(t, newRepo(t)) })
	t.Run("DuplicateUsername", func(t *testing.T) { testDuplicateUsername(t, newRepo(t)) })
	t.Run("ListUsersOrderedWithPhotos", func(t *testing.T) { testListUsersOrderedWithPhotos(t, newRepo(t)) })
	t.Run("GetUnknownUser", func(t *testing.T) { testGetUnknownUser(t, newRepo(t)) })
	t.Run("SaveAllNothingStaged", func(t *testing.T) { testSaveAllNothingStaged(t, newRepo(t)) })
	t.Run("LikesBothDirections", func(t *testing.T) { testLikesBothDirections(t, newRepo(t)) })
	t.Run("DuplicateLike", func(t *testing.T) { testDuplicateLike(t, newRepo(t)) })
	t.Run("UnitOfWorkIsAtomic", func(t *testing.T) { testUnitOfWorkIsAtomic(t, newRepo(t)) })
	t.Run("RemoveUserRestricted", func(t *testing.T) { testRemoveUserRestricted(t, newRepo(t)) })
	t.Run("RemoveUserCascadesPhotos", func(t *testing.T) { testRemoveUserCascadesPhotos(t, newRepo(t)) })
	t.Run("MainPhoto", func(t *testing.T) { testMainPhoto(t, newRepo(t)) })
	t.Run("MessagesRestrictDelete", func(t *testing.T) { testMessagesRestrictDelete(t, newRepo(t)) })
}

// SeedUser commits one user and returns it with its generated id
func SeedUser(t *testing.T, repo repository.DatingRepository, name string, gender entity.Gender, dob time.Time) *entity.User {
	t.Helper()
	u, err := entity.NewUser(name, []byte("hash"), string(gender), dob, now)
	require.NoError(t, err)

	uow := repo.Begin()
	uow.AddUser(u)
	saved, err := uow.SaveAll(context.Background())
	require.NoError(t, err)
	require.True(t, saved)
	require.True(t, u.ID().IsValid())
	return u
}

// SeedLike commits one like edge
func SeedLike(t *testing.T, repo repository.DatingRepository, liker, likee entity.UserID) {
	t.Helper()
	uow := repo.Begin()
	uow.AddLike(entity.Like{LikerID: liker, LikeeID: likee})
	_, err := uow.SaveAll(context.Background())
	require.NoError(t, err)
}

// SeedPhoto commits one photo and returns it with its generated id
func SeedPhoto(t *testing.T, repo repository.DatingRepository, owner entity.UserID, url string, main bool) *entity.Photo {
	t.Helper()
	p, err := entity.NewPhoto(owner, url, "", "", now)
	require.NoError(t, err)
	p.IsMain = main

	uow := repo.Begin()
	uow.AddPhoto(p)
	_, err = uow.SaveAll(context.Background())
	require.NoError(t, err)
	require.True(t, p.ID.IsValid())
	return p
}

func dob(y int) time.Time {
	return time.Date(y, time.March, 1, 0, 0, 0, 0, time.UTC)
}

func testAddUserAssignsID(t *testing.T, repo repository.DatingRepository) {
	ctx := context.Background()
	u := SeedUser(t, repo, "Alice", entity.GenderFemale, dob(1995))

	got, err := repo.GetUser(ctx, u.ID())
	require.NoError(t, err)
	assert.Equal(t, entity.Username("alice"), got.Username())
	assert.Equal(t, entity.GenderFemale, got.Gender())
	assert.True(t, got.DateOfBirth().Equal(dob(1995)))

	exists, err := repo.ExistsByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, exists)
}

func testDuplicateUsername(t *testing.T, repo repository.DatingRepository) {
	SeedUser(t, repo, "alice", entity.GenderFemale, dob(1995))

	dup, err := entity.NewUser("ALICE", []byte("hash"), "female", dob(1990), now)
	require.NoError(t, err)
	uow := repo.Begin()
	uow.AddUser(dup)
	saved, err := uow.SaveAll(context.Background())
	assert.False(t, saved)
	assert.ErrorIs(t, err, domainErrors.ErrUserAlreadyExists)
}

func testListUsersOrderedWithPhotos(t *testing.T, repo repository.DatingRepository) {
	a := SeedUser(t, repo, "a", entity.GenderFemale, dob(1990))
	b := SeedUser(t, repo, "b", entity.GenderMale, dob(1991))
	c := SeedUser(t, repo, "c", entity.GenderFemale, dob(1992))
	SeedPhoto(t, repo, b.ID(), "http://img/b1", true)
	SeedPhoto(t, repo, b.ID(), "http://img/b2", false)

	users, err := repo.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, []entity.UserID{a.ID(), b.ID(), c.ID()},
		[]entity.UserID{users[0].ID(), users[1].ID(), users[2].ID()})

	assert.Empty(t, users[0].Photos())
	require.Len(t, users[1].Photos(), 2)
	url, ok := entity.MainPhotoURLOf(users[1].Photos())
	assert.True(t, ok)
	assert.Equal(t, "http://img/b1", url)
}

func testGetUnknownUser(t *testing.T, repo repository.DatingRepository) {
	_, err := repo.GetUser(context.Background(), 4242)
	assert.ErrorIs(t, err, domainErrors.ErrUserNotFound)
	assert.True(t, domainErrors.IsNotFound(err))
}

func testSaveAllNothingStaged(t *testing.T, repo repository.DatingRepository) {
	saved, err := repo.Begin().SaveAll(context.Background())
	require.NoError(t, err)
	assert.False(t, saved)
}

func testLikesBothDirections(t *testing.T, repo repository.DatingRepository) {
	ctx := context.Background()
	a := SeedUser(t, repo, "a", entity.GenderFemale, dob(1990))
	b := SeedUser(t, repo, "b", entity.GenderMale, dob(1990))
	c := SeedUser(t, repo, "c", entity.GenderMale, dob(1990))
	SeedLike(t, repo, a.ID(), b.ID())
	SeedLike(t, repo, c.ID(), a.ID())
	SeedLike(t, repo, b.ID(), c.ID())

	likes, err := repo.ListLikes(ctx, a.ID())
	require.NoError(t, err)
	assert.ElementsMatch(t, []entity.Like{
		{LikerID: a.ID(), LikeeID: b.ID()},
		{LikerID: c.ID(), LikeeID: a.ID()},
	}, likes)

	likes, err = repo.ListLikes(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, likes)

	like, err := repo.GetLike(ctx, a.ID(), b.ID())
	require.NoError(t, err)
	assert.Equal(t, entity.Like{LikerID: a.ID(), LikeeID: b.ID()}, *like)

	_, err = repo.GetLike(ctx, b.ID(), a.ID())
	assert.ErrorIs(t, err, domainErrors.ErrLikeNotFound)
}

func testDuplicateLike(t *testing.T, repo repository.DatingRepository) {
	a := SeedUser(t, repo, "a", entity.GenderFemale, dob(1990))
	b := SeedUser(t, repo, "b", entity.GenderMale, dob(1990))
	SeedLike(t, repo, a.ID(), b.ID())

	uow := repo.Begin()
	uow.AddLike(entity.Like{LikerID: a.ID(), LikeeID: b.ID()})
	saved, err := uow.SaveAll(context.Background())
	assert.False(t, saved)
	assert.ErrorIs(t, err, domainErrors.ErrLikeAlreadyExists)
}

func testUnitOfWorkIsAtomic(t *testing.T, repo repository.DatingRepository) {
	ctx := context.Background()
	a := SeedUser(t, repo, "a", entity.GenderFemale, dob(1990))
	b := SeedUser(t, repo, "b", entity.GenderMale, dob(1990))

	fresh, err := entity.NewUser("c", []byte("hash"), "male", dob(1990), now)
	require.NoError(t, err)

	uow := repo.Begin()
	uow.AddLike(entity.Like{LikerID: a.ID(), LikeeID: b.ID()})
	uow.AddUser(fresh)
	uow.AddLike(entity.Like{LikerID: a.ID(), LikeeID: 9999})
	saved, err := uow.SaveAll(ctx)
	require.Error(t, err)
	assert.False(t, saved)

	likes, err := repo.ListLikes(ctx, a.ID())
	require.NoError(t, err)
	assert.Empty(t, likes)

	exists, err := repo.ExistsByUsername(ctx, "c")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.False(t, fresh.ID().IsValid())
}

func testRemoveUserRestricted(t *testing.T, repo repository.DatingRepository) {
	ctx := context.Background()
	a := SeedUser(t, repo, "a", entity.GenderFemale, dob(1990))
	b := SeedUser(t, repo, "b", entity.GenderMale, dob(1990))
	SeedLike(t, repo, b.ID(), a.ID())

	uow := repo.Begin()
	uow.RemoveUser(a.ID())
	_, err := uow.SaveAll(ctx)
	assert.ErrorIs(t, err, domainErrors.ErrRestrictedDelete)

	_, err = repo.GetUser(ctx, a.ID())
	require.NoError(t, err)

	uow = repo.Begin()
	uow.RemoveLike(entity.Like{LikerID: b.ID(), LikeeID: a.ID()})
	uow.RemoveUser(a.ID())
	saved, err := uow.SaveAll(ctx)
	require.NoError(t, err)
	assert.True(t, saved)

	_, err = repo.GetUser(ctx, a.ID())
	assert.ErrorIs(t, err, domainErrors.ErrUserNotFound)
}

func testRemoveUserCascadesPhotos(t *testing.T, repo repository.DatingRepository) {
	ctx := context.Background()
	a := SeedUser(t, repo, "a", entity.GenderFemale, dob(1990))
	p := SeedPhoto(t, repo, a.ID(), "http://img/a", true)

	uow := repo.Begin()
	uow.RemoveUser(a.ID())
	_, err := uow.SaveAll(ctx)
	require.NoError(t, err)

	_, err = repo.GetPhoto(ctx, p.ID)
	assert.ErrorIs(t, err, domainErrors.ErrPhotoNotFound)
}

func testMainPhoto(t *testing.T, repo repository.DatingRepository) {
	ctx := context.Background()
	a := SeedUser(t, repo, "a", entity.GenderFemale, dob(1990))

	_, err := repo.GetMainPhotoForUser(ctx, a.ID())
	assert.ErrorIs(t, err, domainErrors.ErrPhotoNotFound)

	first := SeedPhoto(t, repo, a.ID(), "http://img/1", true)
	second := SeedPhoto(t, repo, a.ID(), "http://img/2", false)

	main, err := repo.GetMainPhotoForUser(ctx, a.ID())
	require.NoError(t, err)
	assert.Equal(t, first.ID, main.ID)

	first.IsMain = false
	second.IsMain = true
	uow := repo.Begin()
	uow.UpdatePhoto(first)
	uow.UpdatePhoto(second)
	_, err = uow.SaveAll(ctx)
	require.NoError(t, err)

	main, err = repo.GetMainPhotoForUser(ctx, a.ID())
	require.NoError(t, err)
	assert.Equal(t, second.ID, main.ID)
	assert.Equal(t, "http://img/2", main.URL)
}

func testMessagesRestrictDelete(t *testing.T, repo repository.DatingRepository) {
	ctx := context.Background()
	a := SeedUser(t, repo, "a", entity.GenderFemale, dob(1990))
	b := SeedUser(t, repo, "b", entity.GenderMale, dob(1990))

	msg, err := entity.NewMessage(a.ID(), b.ID(), "hi", now)
	require.NoError(t, err)
	uow := repo.Begin()
	uow.AddMessage(msg)
	_, err = uow.SaveAll(ctx)
	require.NoError(t, err)
	assert.Positive(t, int(msg.ID))

	uow = repo.Begin()
	uow.RemoveUser(b.ID())
	_, err = uow.SaveAll(ctx)
	assert.ErrorIs(t, err, domainErrors.ErrRestrictedDelete)
}
