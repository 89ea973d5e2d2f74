package entity

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dating-api/internal/domain/errors"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAgeOf(t *testing.T) {
	tests := []struct {
		name  string
		dob   time.Time
		today time.Time
		want  int
	}{
		{"birthday today", date(2000, time.June, 15), date(2025, time.June, 15), 25},
		{"day before birthday", date(2000, time.June, 15), date(2025, time.June, 14), 24},
		{"day after birthday", date(2000, time.June, 15), date(2025, time.June, 16), 25},
		{"leap day in common year", date(2000, time.February, 29), date(2025, time.February, 28), 25},
		{"leap day before feb 28", date(2000, time.February, 29), date(2025, time.February, 27), 24},
		{"time of day ignored", date(2000, time.June, 15), time.Date(2025, time.June, 15, 23, 59, 0, 0, time.UTC), 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AgeOf(tt.dob, tt.today))
		})
	}
}

func TestAddYears_LeapDayClamps(t *testing.T) {
	assert.Equal(t, date(1999, time.February, 28), AddYears(date(2024, time.February, 29), -25))
	assert.Equal(t, date(2000, time.February, 29), AddYears(date(2024, time.February, 29), -24))
	assert.Equal(t, date(2004, time.March, 1), AddYears(date(2024, time.March, 1), -20))
}

func TestMainPhotoURLOf(t *testing.T) {
	url, ok := MainPhotoURLOf(nil)
	assert.False(t, ok)
	assert.Empty(t, url)

	photos := []Photo{
		{ID: 1, URL: "https://img/1.jpg"},
		{ID: 2, URL: "https://img/2.jpg", IsMain: true},
	}
	url, ok = MainPhotoURLOf(photos)
	assert.True(t, ok)
	assert.Equal(t, "https://img/2.jpg", url)
}

func TestNewUser(t *testing.T) {
	now := date(2025, time.January, 10)

	u, err := NewUser("  Alice ", []byte("hash"), "Female", date(1995, time.May, 1), now)
	require.NoError(t, err)
	assert.Equal(t, Username("alice"), u.Username())
	assert.Equal(t, GenderFemale, u.Gender())
	assert.Equal(t, now, u.Created())
	assert.Equal(t, now, u.LastActive())

	_, err = NewUser("bob", []byte("hash"), "robot", date(1995, time.May, 1), now)
	assert.True(t, errors.IsValidationError(err))

	_, err = NewUser("bob", []byte("hash"), "male", date(2030, time.May, 1), now)
	assert.True(t, errors.IsValidationError(err))

	_, err = NewUser("", []byte("hash"), "male", date(1990, time.May, 1), now)
	assert.True(t, errors.IsValidationError(err))
}

func TestRestoreUser_CopiesSlices(t *testing.T) {
	photos := []Photo{{ID: 1, URL: "a", IsMain: true}}
	u := RestoreUser(UserState{ID: 3, Photos: photos})
	photos[0].URL = "changed"

	main, ok := u.MainPhoto()
	require.True(t, ok)
	assert.Equal(t, "a", main.URL)
}

func TestNewLike(t *testing.T) {
	like, err := NewLike(1, 2)
	require.NoError(t, err)
	assert.True(t, like.Touches(1))
	assert.True(t, like.Touches(2))
	assert.False(t, like.Touches(3))

	_, err = NewLike(1, 1)
	assert.True(t, errors.IsValidationError(err))

	_, err = NewLike(0, 2)
	assert.True(t, errors.IsValidationError(err))
}

func TestNewPage(t *testing.T) {
	p := NewPage([]int{21, 22, 23}, 3, 10, 23)
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, 3, p.TotalPages())
	assert.Equal(t, 23, p.TotalItems())

	items := p.Items()
	items[0] = 0
	assert.Equal(t, []int{21, 22, 23}, p.Items())

	doubled := MapPage(p, func(i int) int { return i * 2 })
	assert.Equal(t, []int{42, 44, 46}, doubled.Items())
	assert.Equal(t, p.TotalPages(), doubled.TotalPages())
	assert.Equal(t, p.CurrentPage(), doubled.CurrentPage())

	empty := NewPage[int](nil, 1, 10, 0)
	assert.Equal(t, 0, empty.TotalPages())
	assert.NotNil(t, empty.Items())
}

func TestNewPage_HugePageSize(t *testing.T) {
	p := NewPage([]int{1, 2, 3, 4, 5}, 1, math.MaxInt, 5)
	assert.Equal(t, 1, p.TotalPages())
	assert.Equal(t, 5, p.Len())
}
