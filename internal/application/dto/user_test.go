package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dating-api/internal/domain/entity"
)

var today = time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

func TestRegisterUserRequest_Validate(t *testing.T) {
	valid := RegisterUserRequest{Username: "bob", Password: "pa55", Gender: "male", DateOfBirth: "1990-05-01"}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name string
		mod  func(r *RegisterUserRequest)
	}{
		{"missing username", func(r *RegisterUserRequest) { r.Username = "  " }},
		{"short password", func(r *RegisterUserRequest) { r.Password = "abc" }},
		{"long password", func(r *RegisterUserRequest) { r.Password = "abcdefghi" }},
		{"missing gender", func(r *RegisterUserRequest) { r.Gender = "" }},
		{"bad date", func(r *RegisterUserRequest) { r.DateOfBirth = "01/05/1990" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mod(&r)
			assert.Error(t, r.Validate())
		})
	}
}

func TestNewUserDetailResponse(t *testing.T) {
	u := entity.RestoreUser(entity.UserState{
		ID:          5,
		Username:    "ann",
		Gender:      entity.GenderFemale,
		DateOfBirth: time.Date(2000, time.June, 16, 0, 0, 0, 0, time.UTC),
		Photos: []entity.Photo{
			{ID: 1, UserID: 5, URL: "http://img/1"},
			{ID: 2, UserID: 5, URL: "http://img/2", IsMain: true},
		},
	})

	resp := NewUserDetailResponse(u, today)
	assert.Equal(t, 5, resp.ID)
	assert.Equal(t, 24, resp.Age)
	assert.Equal(t, "http://img/2", resp.PhotoURL)
	assert.Equal(t, "2000-06-16", resp.DateOfBirth)
	require.Len(t, resp.Photos, 2)
	assert.True(t, resp.Photos[1].IsMain)
}

func TestNewUserPageResponse(t *testing.T) {
	users := []*entity.User{
		entity.RestoreUser(entity.UserState{ID: 1, Username: "a", Gender: entity.GenderMale, DateOfBirth: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)}),
	}
	page := entity.NewPage(users, 2, 1, 3)

	resp := NewUserPageResponse(page, today)
	require.Len(t, resp.Users, 1)
	assert.Empty(t, resp.Users[0].PhotoURL)
	assert.Equal(t, PaginationHeader{CurrentPage: 2, ItemsPerPage: 1, TotalItems: 3, TotalPages: 3}, resp.Pagination)
}
