package entity

import (
	"fmt"
	"strings"
	"time"

	"dating-api/internal/domain/errors"
)

// PhotoID identifies a photo
type PhotoID int

func (id PhotoID) IsValid() bool {
	return id > 0
}

func (id PhotoID) String() string {
	return fmt.Sprintf("%d", int(id))
}

// Photo belongs to exactly one user and is removed together with it.
// PublicID references the photo in external storage when it was uploaded there.
type Photo struct {
	ID          PhotoID
	UserID      UserID
	URL         string
	Description string
	DateAdded   time.Time
	IsMain      bool
	PublicID    string
}

// NewPhoto creates a photo for userID
func NewPhoto(userID UserID, url, description, publicID string, now time.Time) (*Photo, error) {
	if !userID.IsValid() {
		return nil, errors.InvalidArgument("userId", "photo owner must be a valid user id")
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.NewDomainError(errors.ErrCodeValidationFailed, "photo url is required")
	}
	return &Photo{
		UserID:      userID,
		URL:         url,
		Description: strings.TrimSpace(description),
		DateAdded:   now,
		PublicID:    strings.TrimSpace(publicID),
	}, nil
}

// MainPhotoURLOf returns the URL of the first photo flagged as main
func MainPhotoURLOf(photos []Photo) (string, bool) {
	for _, p := range photos {
		if p.IsMain {
			return p.URL, true
		}
	}
	return "", false
}
