package dto

import "time"

// AddBookRequest: payload for putting a catalog volume on a shelf.
// Title and author are looked up in the catalog when omitted.
type AddBookRequest struct {
	VolumeID   string     `json:"volume_id" binding:"required,max=64"`
	Title      string     `json:"title" binding:"max=500"`
	Author     string     `json:"author" binding:"max=200"`
	Bookshelf  string     `json:"bookshelf" binding:"required,shelf"`
	Owned      bool       `json:"owned"`
	DateRead   *time.Time `json:"date_read"`
	Rating     *int       `json:"rating" binding:"omitempty,min=1,max=5"`
	ReviewText *string    `json:"review_text" binding:"omitempty,max=5000"`
}

// UpdateBookRequest: partial book update. A rating of 0 or an empty review removes it.
type UpdateBookRequest struct {
	Bookshelf  *string    `json:"bookshelf" binding:"omitempty,shelf"`
	Owned      *bool      `json:"owned"`
	DateRead   *time.Time `json:"date_read"`
	Rating     *int       `json:"rating" binding:"omitempty,min=0,max=5"`
	ReviewText *string    `json:"review_text" binding:"omitempty,max=5000"`
}

// BookshelfQuery: query string of the bookshelf listing
type BookshelfQuery struct {
	Bookshelf  string `form:"bookshelf"`
	SearchText string `form:"searchText" binding:"max=200"`
}

// CatalogSearchQuery: query string of the catalog search proxy
type CatalogSearchQuery struct {
	SearchText string `form:"searchText" binding:"required,max=200"`
	Page       int    `form:"page" binding:"min=0"`
}
