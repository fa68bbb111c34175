package models

import "time"

// Shelves a book can be stored on.
const (
	ShelfRead       = "Read"
	ShelfReading    = "Currently reading"
	ShelfWantToRead = "Want to read"
)

// Views over the user's books that are not stored shelves.
const (
	ShelfOwned = "Owned"
	ShelfRated = "Rated"
)

// DefaultShelves are the shelves every user has.
var DefaultShelves = []string{ShelfRead, ShelfReading, ShelfWantToRead}

// IsStoredShelf reports whether name is a shelf a book can be placed on.
func IsStoredShelf(name string) bool {
	for _, s := range DefaultShelves {
		if s == name {
			return true
		}
	}
	return false
}

// Book is one user's copy of a catalog volume.
type Book struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     string     `gorm:"type:uuid;not null;uniqueIndex:idx_books_user_volume,priority:1" json:"user_id"`
	VolumeID   string     `gorm:"not null;uniqueIndex:idx_books_user_volume,priority:2;index" json:"volume_id"`
	Title      string     `gorm:"not null" json:"title"`
	Author     string     `json:"author"`
	Bookshelf  string     `gorm:"not null;index" json:"bookshelf"`
	Owned      bool       `gorm:"not null;default:false" json:"owned"`
	DateRead   *time.Time `gorm:"index" json:"date_read,omitempty"`
	Rating     *int       `gorm:"check:chk_books_rating,rating >= 1 AND rating <= 5" json:"rating,omitempty"`
	ReviewText *string    `gorm:"type:text" json:"review_text,omitempty"`
	ReviewDate *time.Time `json:"review_date,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Associations
	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (Book) TableName() string {
	return "books"
}
