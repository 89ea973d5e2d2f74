package dto

import (
	"errors"
	"strings"
	"time"

	"dating-api/internal/domain/entity"
)

// DateLayout is the wire format of a date of birth
const DateLayout = "2006-01-02"

// RegisterUserRequest represents the request to register a user
type RegisterUserRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Gender      string `json:"gender"`
	DateOfBirth string `json:"dateOfBirth"`
}

// Validate validates the RegisterUserRequest
func (r *RegisterUserRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return errors.New("username is required")
	}
	if n := len(r.Password); n < 4 || n > 8 {
		return errors.New("you must specify a password between 4 and 8 characters")
	}
	if strings.TrimSpace(r.Gender) == "" {
		return errors.New("gender is required")
	}
	if _, err := r.ParsedDateOfBirth(); err != nil {
		return err
	}
	return nil
}

// ParsedDateOfBirth parses DateOfBirth as a calendar date
func (r *RegisterUserRequest) ParsedDateOfBirth() (time.Time, error) {
	dob, err := time.Parse(DateLayout, strings.TrimSpace(r.DateOfBirth))
	if err != nil {
		return time.Time{}, errors.New("dateOfBirth must be formatted as YYYY-MM-DD")
	}
	return dob, nil
}

// DiscoverUsersRequest carries the optional discovery parameters. A nil
// numeric field was not supplied and takes the default; supplied values are
// validated as given.
type DiscoverUsersRequest struct {
	PageNumber *int   `json:"pageNumber,omitempty"`
	PageSize   *int   `json:"pageSize,omitempty"`
	Gender     string `json:"gender"`
	MinAge     *int   `json:"minAge,omitempty"`
	MaxAge     *int   `json:"maxAge,omitempty"`
	Likers     bool   `json:"likers"`
	Likees     bool   `json:"likees"`
}

// AddPhotoRequest represents the request to attach a photo
type AddPhotoRequest struct {
	URL         string `json:"url"`
	Description string `json:"description"`
	PublicID    string `json:"publicId"`
}

// SendMessageRequest represents the request to send a message
type SendMessageRequest struct {
	RecipientID int    `json:"recipientId"`
	Content     string `json:"content"`
}

// PhotoResponse represents a photo
type PhotoResponse struct {
	ID          int       `json:"id"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	DateAdded   time.Time `json:"dateAdded"`
	IsMain      bool      `json:"isMain"`
	PublicID    string    `json:"publicId,omitempty"`
}

// NewPhotoResponse creates a PhotoResponse from a domain entity
func NewPhotoResponse(p entity.Photo) PhotoResponse {
	return PhotoResponse{
		ID:          int(p.ID),
		URL:         p.URL,
		Description: p.Description,
		DateAdded:   p.DateAdded,
		IsMain:      p.IsMain,
		PublicID:    p.PublicID,
	}
}

// UserListResponse is the summary of a user shown in discovery results
type UserListResponse struct {
	ID         int       `json:"id"`
	Username   string    `json:"username"`
	Gender     string    `json:"gender"`
	Age        int       `json:"age"`
	Created    time.Time `json:"created"`
	LastActive time.Time `json:"lastActive"`
	PhotoURL   string    `json:"photoUrl,omitempty"`
}

// NewUserListResponse maps a user, computing the age on today
func NewUserListResponse(user *entity.User, today time.Time) *UserListResponse {
	url, _ := entity.MainPhotoURLOf(user.Photos())
	return &UserListResponse{
		ID:         int(user.ID()),
		Username:   user.Username().String(),
		Gender:     user.Gender().String(),
		Age:        entity.AgeOf(user.DateOfBirth(), today),
		Created:    user.Created(),
		LastActive: user.LastActive(),
		PhotoURL:   url,
	}
}

// UserDetailResponse is a user together with all photos
type UserDetailResponse struct {
	UserListResponse
	DateOfBirth string          `json:"dateOfBirth"`
	Photos      []PhotoResponse `json:"photos"`
}

// NewUserDetailResponse maps a user with photos
func NewUserDetailResponse(user *entity.User, today time.Time) *UserDetailResponse {
	photos := user.Photos()
	out := make([]PhotoResponse, 0, len(photos))
	for _, p := range photos {
		out = append(out, NewPhotoResponse(p))
	}
	return &UserDetailResponse{
		UserListResponse: *NewUserListResponse(user, today),
		DateOfBirth:      user.DateOfBirth().Format(DateLayout),
		Photos:           out,
	}
}

// PaginationHeader is the paging metadata, also sent in the Pagination header
type PaginationHeader struct {
	CurrentPage  int `json:"currentPage"`
	ItemsPerPage int `json:"itemsPerPage"`
	TotalItems   int `json:"totalItems"`
	TotalPages   int `json:"totalPages"`
}

// UserPageResponse is one page of discovery results
type UserPageResponse struct {
	Users      []*UserListResponse `json:"users"`
	Pagination PaginationHeader    `json:"pagination"`
}

// NewUserPageResponse maps a page of users
func NewUserPageResponse(page entity.Page[*entity.User], today time.Time) *UserPageResponse {
	mapped := entity.MapPage(page, func(u *entity.User) *UserListResponse {
		return NewUserListResponse(u, today)
	})
	return &UserPageResponse{
		Users: mapped.Items(),
		Pagination: PaginationHeader{
			CurrentPage:  page.CurrentPage(),
			ItemsPerPage: page.ItemsPerPage(),
			TotalItems:   page.TotalItems(),
			TotalPages:   page.TotalPages(),
		},
	}
}

// LikeResponse represents a like edge
type LikeResponse struct {
	LikerID int `json:"likerId"`
	LikeeID int `json:"likeeId"`
}

// MessageResponse represents a sent message
type MessageResponse struct {
	ID          int       `json:"id"`
	SenderID    int       `json:"senderId"`
	RecipientID int       `json:"recipientId"`
	Content     string    `json:"content"`
	SentAt      time.Time `json:"sentAt"`
}

// NewMessageResponse creates a MessageResponse from a domain entity
func NewMessageResponse(m *entity.Message) *MessageResponse {
	return &MessageResponse{
		ID:          int(m.ID),
		SenderID:    int(m.SenderID),
		RecipientID: int(m.RecipientID),
		Content:     m.Content,
		SentAt:      m.SentAt,
	}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
