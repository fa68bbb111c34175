package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	FirstName  string    `gorm:"not null" json:"first_name"`
	LastName   string    `gorm:"not null" json:"last_name"`
	Email      string    `gorm:"uniqueIndex;not null" json:"email"` // stored lower-cased
	Password   string    `gorm:"column:password_hash;not null" json:"-"`
	FaveGenres []string  `gorm:"type:text;serializer:json" json:"fave_genres"`
	Joined     time.Time `gorm:"not null" json:"joined"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Books []Book `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"-"`
}

// BeforeCreate sets the UUID and join date before creating a User
func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Joined.IsZero() {
		user.Joined = time.Now().UTC()
	}
	return
}

func (User) TableName() string {
	return "users"
}
