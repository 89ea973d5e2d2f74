package entity

import (
	"fmt"
	"strings"
	"time"

	"dating-api/internal/domain/errors"
)

// UserID represents a unique identifier for a user
type UserID int

// IsValid checks if the UserID is valid
func (id UserID) IsValid() bool {
	return id > 0
}

// String returns string representation of UserID
func (id UserID) String() string {
	return fmt.Sprintf("%d", int(id))
}

// Gender is one of the fixed set of genders a profile can declare
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ParseGender normalizes and validates a gender value
func ParseGender(s string) (Gender, error) {
	g := Gender(strings.ToLower(strings.TrimSpace(s)))
	if !g.IsValid() {
		return "", errors.NewDomainError(errors.ErrCodeValidationFailed, "gender must be male or female").
			WithContext("gender", s)
	}
	return g, nil
}

// IsValid reports whether g is a known gender
func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale:
		return true
	default:
		return false
	}
}

// Opposite returns the other gender of the fixed set
func (g Gender) Opposite() Gender {
	if g == GenderMale {
		return GenderFemale
	}
	return GenderMale
}

// String returns the string representation of the gender
func (g Gender) String() string {
	return string(g)
}

// Username represents a validated, lower-cased login name
type Username string

// NewUsername creates a new Username after validation
func NewUsername(name string) (Username, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", errors.NewDomainError(errors.ErrCodeValidationFailed, "username cannot be empty")
	}
	if len(name) > 50 {
		return "", errors.NewDomainError(errors.ErrCodeValidationFailed, "username cannot exceed 50 characters")
	}
	return Username(name), nil
}

// String returns the string representation of the username
func (u Username) String() string {
	return string(u)
}

// UserState is the flat form of a User used by repositories to rebuild it
type UserState struct {
	ID           UserID
	Username     Username
	PasswordHash []byte
	Gender       Gender
	DateOfBirth  time.Time
	Created      time.Time
	LastActive   time.Time
	Photos       []Photo
	Likers       []Like
	Likees       []Like
}

// User represents a dating profile
type User struct {
	id           UserID
	username     Username
	passwordHash []byte
	gender       Gender
	dateOfBirth  time.Time
	created      time.Time
	lastActive   time.Time
	photos       []Photo
	likers       []Like
	likees       []Like
}

// NewUser creates a new User with validation. The password must already be hashed.
func NewUser(username string, passwordHash []byte, gender string, dateOfBirth, now time.Time) (*User, error) {
	name, err := NewUsername(username)
	if err != nil {
		return nil, errors.NewDomainErrorWithCause(errors.ErrCodeValidationFailed, "invalid username for new user", err)
	}
	g, err := ParseGender(gender)
	if err != nil {
		return nil, errors.NewDomainErrorWithCause(errors.ErrCodeValidationFailed, "invalid gender for new user", err)
	}
	if len(passwordHash) == 0 {
		return nil, errors.NewDomainError(errors.ErrCodeValidationFailed, "password hash is required")
	}
	dob := DateOf(dateOfBirth)
	if dateOfBirth.IsZero() || dob.After(DateOf(now)) {
		return nil, errors.NewDomainError(errors.ErrCodeValidationFailed, "date of birth must be in the past")
	}

	return &User{
		username:     name,
		passwordHash: passwordHash,
		gender:       g,
		dateOfBirth:  dob,
		created:      now,
		lastActive:   now,
	}, nil
}

// RestoreUser rebuilds a User from stored state without validation
func RestoreUser(s UserState) *User {
	return &User{
		id:           s.ID,
		username:     s.Username,
		passwordHash: s.PasswordHash,
		gender:       s.Gender,
		dateOfBirth:  DateOf(s.DateOfBirth),
		created:      s.Created,
		lastActive:   s.LastActive,
		photos:       append([]Photo(nil), s.Photos...),
		likers:       append([]Like(nil), s.Likers...),
		likees:       append([]Like(nil), s.Likees...),
	}
}

// State returns a copy of the user's stored state
func (u *User) State() UserState {
	return UserState{
		ID:           u.id,
		Username:     u.username,
		PasswordHash: u.passwordHash,
		Gender:       u.gender,
		DateOfBirth:  u.dateOfBirth,
		Created:      u.created,
		LastActive:   u.lastActive,
		Photos:       u.Photos(),
		Likers:       u.Likers(),
		Likees:       u.Likees(),
	}
}

// ID returns the user's ID
func (u *User) ID() UserID {
	return u.id
}

// SetID sets the user's ID (used by repository layer)
func (u *User) SetID(id UserID) {
	u.id = id
}

func (u *User) Username() Username {
	return u.username
}

func (u *User) PasswordHash() []byte {
	return u.passwordHash
}

func (u *User) Gender() Gender {
	return u.gender
}

// DateOfBirth returns the calendar date of birth at UTC midnight
func (u *User) DateOfBirth() time.Time {
	return u.dateOfBirth
}

func (u *User) Created() time.Time {
	return u.created
}

func (u *User) LastActive() time.Time {
	return u.lastActive
}

// Photos returns the user's photos in upload order
func (u *User) Photos() []Photo {
	return append([]Photo(nil), u.photos...)
}

// Likers returns incoming like edges, only populated when loaded with relationships
func (u *User) Likers() []Like {
	return append([]Like(nil), u.likers...)
}

// Likees returns outgoing like edges, only populated when loaded with relationships
func (u *User) Likees() []Like {
	return append([]Like(nil), u.likees...)
}

// MainPhoto returns the photo flagged as main, if any
func (u *User) MainPhoto() (Photo, bool) {
	for _, p := range u.photos {
		if p.IsMain {
			return p, true
		}
	}
	return Photo{}, false
}

// Touch records activity at now
func (u *User) Touch(now time.Time) {
	u.lastActive = now
}

// Equals checks if two users are equal based on their ID
func (u *User) Equals(other *User) bool {
	if other == nil {
		return false
	}
	return u.id == other.id && u.id.IsValid()
}
