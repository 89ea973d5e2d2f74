package postgres

import (
	"time"

	"dating-api/internal/domain/entity"
)

// UserModel represents the GORM model for users table
type UserModel struct {
	ID           uint         `gorm:"primaryKey;autoIncrement"`
	Username     string       `gorm:"size:50;not null;uniqueIndex"`
	PasswordHash []byte       `gorm:"not null"`
	Gender       string       `gorm:"size:10;not null;index"`
	DateOfBirth  time.Time    `gorm:"not null"`
	Created      time.Time    `gorm:"not null"`
	LastActive   time.Time    `gorm:"not null"`
	Photos       []PhotoModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToEntity converts GORM model to domain entity
func (u *UserModel) ToEntity() *entity.User {
	photos := make([]entity.Photo, 0, len(u.Photos))
	for i := range u.Photos {
		photos = append(photos, u.Photos[i].ToEntity())
	}
	return entity.RestoreUser(entity.UserState{
		ID:           entity.UserID(u.ID),
		Username:     entity.Username(u.Username),
		PasswordHash: u.PasswordHash,
		Gender:       entity.Gender(u.Gender),
		DateOfBirth:  u.DateOfBirth,
		Created:      u.Created,
		LastActive:   u.LastActive,
		Photos:       photos,
	})
}

// NewUserModelFromEntity creates a new UserModel from domain entity.
// Photos are persisted separately and never copied here.
func NewUserModelFromEntity(user *entity.User) *UserModel {
	s := user.State()
	m := &UserModel{
		Username:     s.Username.String(),
		PasswordHash: s.PasswordHash,
		Gender:       s.Gender.String(),
		DateOfBirth:  s.DateOfBirth,
		Created:      s.Created,
		LastActive:   s.LastActive,
	}
	if s.ID.IsValid() {
		m.ID = uint(s.ID)
	}
	return m
}

// PhotoModel represents the GORM model for photos table
type PhotoModel struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	UserID      uint      `gorm:"not null;index"`
	URL         string    `gorm:"not null"`
	Description string
	DateAdded   time.Time `gorm:"not null"`
	IsMain      bool      `gorm:"not null;default:false"`
	PublicID    string
}

func (PhotoModel) TableName() string {
	return "photos"
}

func (p *PhotoModel) ToEntity() entity.Photo {
	return entity.Photo{
		ID:          entity.PhotoID(p.ID),
		UserID:      entity.UserID(p.UserID),
		URL:         p.URL,
		Description: p.Description,
		DateAdded:   p.DateAdded,
		IsMain:      p.IsMain,
		PublicID:    p.PublicID,
	}
}

func newPhotoModel(p *entity.Photo) *PhotoModel {
	return &PhotoModel{
		ID:          uint(max(p.ID, 0)),
		UserID:      uint(p.UserID),
		URL:         p.URL,
		Description: p.Description,
		DateAdded:   p.DateAdded,
		IsMain:      p.IsMain,
		PublicID:    p.PublicID,
	}
}

// LikeModel is keyed by the ordered (liker, likee) pair. Deleting either user
// is refused while the edge exists.
type LikeModel struct {
	LikerID uint      `gorm:"primaryKey;autoIncrement:false"`
	LikeeID uint      `gorm:"primaryKey;autoIncrement:false;index"`
	Liker   UserModel `gorm:"foreignKey:LikerID;constraint:OnDelete:RESTRICT"`
	Likee   UserModel `gorm:"foreignKey:LikeeID;constraint:OnDelete:RESTRICT"`
}

func (LikeModel) TableName() string {
	return "likes"
}

func (l *LikeModel) ToEntity() entity.Like {
	return entity.Like{LikerID: entity.UserID(l.LikerID), LikeeID: entity.UserID(l.LikeeID)}
}

// MessageModel references sender and recipient with restrict semantics
type MessageModel struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	SenderID    uint      `gorm:"not null;index"`
	RecipientID uint      `gorm:"not null;index"`
	Content     string    `gorm:"not null"`
	SentAt      time.Time `gorm:"not null"`
	ReadAt      *time.Time
	Sender      UserModel `gorm:"foreignKey:SenderID;constraint:OnDelete:RESTRICT"`
	Recipient   UserModel `gorm:"foreignKey:RecipientID;constraint:OnDelete:RESTRICT"`
}

func (MessageModel) TableName() string {
	return "messages"
}

// Models lists every table for AutoMigrate in dependency order
func Models() []interface{} {
	return []interface{}{&UserModel{}, &PhotoModel{}, &LikeModel{}, &MessageModel{}}
}
