package discovery

import (
	"time"

	"dating-api/internal/domain/entity"
	"dating-api/internal/domain/errors"
)

// Default age bounds. A query carrying exactly these bounds has no age constraint.
const (
	DefaultMinAge = 18
	DefaultMaxAge = 99
)

// AgeWindow is an inclusive date-of-birth range derived from an age range
type AgeWindow struct {
	MinDateOfBirth time.Time
	MaxDateOfBirth time.Time
	Active         bool
}

// NewAgeWindow converts the inclusive age range [minAge, maxAge] into the
// date-of-birth window relative to today. Someone stays maxAge years old until
// the day before their (maxAge+1)th birthday, hence the extra year on the lower bound.
func NewAgeWindow(minAge, maxAge int, today time.Time) (AgeWindow, error) {
	if minAge < 0 {
		return AgeWindow{}, errors.InvalidArgument("minAge", "minimum age cannot be negative").WithContext("minAge", minAge)
	}
	if maxAge < 0 {
		return AgeWindow{}, errors.InvalidArgument("maxAge", "maximum age cannot be negative").WithContext("maxAge", maxAge)
	}
	if minAge > maxAge {
		return AgeWindow{}, errors.InvalidArgument("minAge", "minimum age cannot exceed maximum age").
			WithContext("minAge", minAge).
			WithContext("maxAge", maxAge)
	}
	if minAge == DefaultMinAge && maxAge == DefaultMaxAge {
		return AgeWindow{}, nil
	}

	return AgeWindow{
		MinDateOfBirth: entity.AddYears(today, -(maxAge + 1)),
		MaxDateOfBirth: entity.AddYears(today, -minAge),
		Active:         true,
	}, nil
}

// Contains reports whether dateOfBirth falls inside the window. An inactive window contains every date.
func (w AgeWindow) Contains(dateOfBirth time.Time) bool {
	if !w.Active {
		return true
	}
	dob := entity.DateOf(dateOfBirth)
	return !dob.Before(w.MinDateOfBirth) && !dob.After(w.MaxDateOfBirth)
}
