package repository

import (
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/v-prt/bookish-backend/internal/apperror"
	"github.com/v-prt/bookish-backend/internal/microservices/http-api/models"
)

// BookshelfPageSize is the fixed number of books per bookshelf page.
const BookshelfPageSize = 20

var (
	ErrInvalidPage    = apperror.Validation("page must be 1 or greater")
	ErrPageOutOfRange = apperror.Validation("page is out of range")
)

// ValidatePage checks a 1-indexed page. The page times limit must fit in an
// int32 so offsets never wrap.
func ValidatePage(page, limit int) error {
	if page < 1 {
		return ErrInvalidPage
	}
	if limit > 0 && page > math.MaxInt32/limit {
		return ErrPageOutOfRange
	}
	return nil
}

// BookFilter describes which of a user's books a query matches.
type BookFilter struct {
	UserID string
	// Shelf is a stored shelf name; empty matches every shelf.
	Shelf     string
	OwnedOnly bool
	RatedOnly bool
	// Search is matched case-insensitively as a substring of title or author.
	Search string
	// ReadSince keeps books finished on or after this instant.
	ReadSince *time.Time
}

// NewBookFilter maps a shelf selector to a filter. "Owned" and "Rated" are
// views over every shelf rather than shelf names.
func NewBookFilter(userID, shelf, search string) BookFilter {
	f := BookFilter{UserID: userID, Search: strings.TrimSpace(search)}
	switch shelf = strings.TrimSpace(shelf); shelf {
	case models.ShelfOwned:
		f.OwnedOnly = true
	case models.ShelfRated:
		f.RatedOnly = true
	default:
		f.Shelf = shelf
	}
	return f
}

// Scope applies the filter as WHERE clauses.
func (f BookFilter) Scope(db *gorm.DB) *gorm.DB {
	db = db.Where("user_id = ?", f.UserID)
	if f.Shelf != "" {
		db = db.Where("bookshelf = ?", f.Shelf)
	}
	if f.OwnedOnly {
		db = db.Where("owned = ?", true)
	}
	if f.RatedOnly {
		db = db.Where("rating > ?", 0)
	}
	if f.Search != "" {
		p := "%" + escapeLike(f.Search) + "%"
		db = db.Where("(title ILIKE ? OR COALESCE(author,'') ILIKE ?)", p, p)
	}
	if f.ReadSince != nil {
		db = db.Where("date_read >= ?", *f.ReadSince)
	}
	return db
}

// BookshelfOrder sorts most recently finished first; unfinished books go last
// and the id keeps the order total so pages never overlap.
const BookshelfOrder = "date_read DESC NULLS LAST, id DESC"

// BookshelfQuery is one page of a filtered bookshelf.
type BookshelfQuery struct {
	Filter BookFilter
	Page   int
	Limit  int
}

// NewBookshelfQuery builds the query for a 1-indexed page. Pages below 1 or
// above the offset bound are rejected.
func NewBookshelfQuery(userID, shelf, search string, page int) (BookshelfQuery, error) {
	return NewBookshelfQueryWithLimit(userID, shelf, search, page, BookshelfPageSize)
}

// NewBookshelfQueryWithLimit is NewBookshelfQuery with a custom page size.
func NewBookshelfQueryWithLimit(userID, shelf, search string, page, limit int) (BookshelfQuery, error) {
	if limit < 1 {
		limit = BookshelfPageSize
	}
	if err := ValidatePage(page, limit); err != nil {
		return BookshelfQuery{}, err
	}
	return BookshelfQuery{
		Filter: NewBookFilter(userID, shelf, search),
		Page:   page,
		Limit:  limit,
	}, nil
}

// Offset is the number of matching records skipped before this page.
func (q BookshelfQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// HasNextPage reports whether records remain after this page.
func (q BookshelfQuery) HasNextPage(total int64) bool {
	return total > int64(q.Limit)*int64(q.Page)
}

// Scope applies filter, order and paging.
func (q BookshelfQuery) Scope(db *gorm.DB) *gorm.DB {
	return q.Filter.Scope(db).
		Order(BookshelfOrder).
		Limit(q.Limit).
		Offset(q.Offset())
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes user input match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
