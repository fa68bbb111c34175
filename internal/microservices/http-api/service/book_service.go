package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/v-prt/bookish-backend/internal/apperror"
	"github.com/v-prt/bookish-backend/internal/catalog"
	"github.com/v-prt/bookish-backend/internal/microservices/http-api/models"
	"github.com/v-prt/bookish-backend/internal/microservices/http-api/repository"
)

var (
	ErrBookExists     = apperror.Conflict("Book already in your library")
	ErrBookNotFound   = apperror.NotFound("Book not found")
	ErrInvalidShelf   = apperror.Validation("Unknown bookshelf")
	ErrInvalidRating  = apperror.Validation("Rating must be between 1 and 5")
	ErrUnknownVolume  = apperror.Validation("Unknown volume")
	ErrVolumeRequired = apperror.Validation("volume_id is required")
	ErrSearchRequired = apperror.Validation("searchText is required")
	ErrInvalidCursor  = apperror.Validation("page must be 0 or greater")
	ErrCatalogDown    = apperror.Upstream("Book catalog unavailable", nil)
)

// BookInput is a new book for a user's shelves.
type BookInput struct {
	VolumeID   string
	Title      string
	Author     string
	Bookshelf  string
	Owned      bool
	DateRead   *time.Time
	Rating     *int
	ReviewText *string
}

// BookChanges is a partial book update; nil fields are left untouched.
// A zero Rating or an empty ReviewText clears the stored value.
type BookChanges struct {
	Bookshelf  *string
	Owned      *bool
	DateRead   *time.Time
	Rating     *int
	ReviewText *string
}

type BookService interface {
	Add(ctx context.Context, userID string, in BookInput) (*models.Book, error)
	Get(ctx context.Context, userID, volumeID string) (*models.Book, error)
	Update(ctx context.Context, userID string, bookID int64, changes BookChanges) (*models.Book, error)
	Delete(ctx context.Context, userID string, bookID int64) error

	Bookshelf(ctx context.Context, userID, shelf, search string, page int) (*BookshelfPage, error)
	Summaries(ctx context.Context, userID string) ([]ShelfSummary, error)
	Reviews(ctx context.Context, volumeID string, page int) (*ReviewPage, error)
	SearchCatalog(ctx context.Context, userID, searchText string, page int) (*CatalogSearchPage, error)
}

type bookService struct {
	books    repository.BookRepository
	catalog  Catalog
	enricher *Enricher
	now      func() time.Time
}

func NewBookService(books repository.BookRepository, cat Catalog, enricher *Enricher) BookService {
	return &bookService{
		books:    books,
		catalog:  cat,
		enricher: enricher,
		now:      time.Now,
	}
}

func validRating(r *int) bool {
	return r == nil || (*r >= 1 && *r <= 5)
}

func (s *bookService) Add(ctx context.Context, userID string, in BookInput) (*models.Book, error) {
	in.VolumeID = strings.TrimSpace(in.VolumeID)
	if in.VolumeID == "" {
		return nil, ErrVolumeRequired
	}
	if !models.IsStoredShelf(in.Bookshelf) {
		return nil, ErrInvalidShelf
	}
	if !validRating(in.Rating) {
		return nil, ErrInvalidRating
	}

	// Check if already on a shelf
	if _, err := s.books.FindByUserAndVolume(ctx, userID, in.VolumeID); err == nil {
		return nil, ErrBookExists
	} else if !repository.IsNotFound(err) {
		return nil, apperror.Internal(err)
	}

	// title and author are kept locally so bookshelf search works without the catalog
	if strings.TrimSpace(in.Title) == "" {
		vol, err := s.catalog.GetVolume(ctx, in.VolumeID)
		if err != nil {
			if errors.Is(err, catalog.ErrVolumeNotFound) {
				return nil, ErrUnknownVolume
			}
			return nil, ErrCatalogDown.Wrap(err)
		}
		in.Title = vol.Title
		if in.Author == "" {
			in.Author = vol.Author
		}
	}

	now := s.now().UTC()
	book := &models.Book{
		UserID:    userID,
		VolumeID:  in.VolumeID,
		Title:     strings.TrimSpace(in.Title),
		Author:    strings.TrimSpace(in.Author),
		Bookshelf: in.Bookshelf,
		Owned:     in.Owned,
		DateRead:  in.DateRead,
		Rating:    in.Rating,
	}
	if book.Bookshelf == models.ShelfRead && book.DateRead == nil {
		book.DateRead = &now
	}
	if in.ReviewText != nil && strings.TrimSpace(*in.ReviewText) != "" {
		text := strings.TrimSpace(*in.ReviewText)
		book.ReviewText = &text
		book.ReviewDate = &now
	}

	if err := s.books.Create(ctx, book); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrBookExists
		}
		return nil, apperror.Internal(err)
	}
	return book, nil
}

func (s *bookService) Get(ctx context.Context, userID, volumeID string) (*models.Book, error) {
	book, err := s.books.FindByUserAndVolume(ctx, userID, volumeID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrBookNotFound
		}
		return nil, apperror.Internal(err)
	}
	return book, nil
}

// owned loads a book and hides books of other users behind a not found.
func (s *bookService) owned(ctx context.Context, userID string, bookID int64) (*models.Book, error) {
	book, err := s.books.FindByID(ctx, bookID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrBookNotFound
		}
		return nil, apperror.Internal(err)
	}
	if book.UserID != userID {
		return nil, ErrBookNotFound
	}
	return book, nil
}

func (s *bookService) Update(ctx context.Context, userID string, bookID int64, changes BookChanges) (*models.Book, error) {
	book, err := s.owned(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	fields := map[string]any{}

	if changes.Bookshelf != nil {
		if !models.IsStoredShelf(*changes.Bookshelf) {
			return nil, ErrInvalidShelf
		}
		fields["bookshelf"] = *changes.Bookshelf
		// finishing a book without a date stamps it now
		if *changes.Bookshelf == models.ShelfRead && book.DateRead == nil && changes.DateRead == nil {
			fields["date_read"] = now
		}
	}
	if changes.Owned != nil {
		fields["owned"] = *changes.Owned
	}
	if changes.DateRead != nil {
		fields["date_read"] = changes.DateRead.UTC()
	}
	if changes.Rating != nil {
		switch r := *changes.Rating; {
		case r == 0:
			fields["rating"] = nil
		case r >= 1 && r <= 5:
			fields["rating"] = r
		default:
			return nil, ErrInvalidRating
		}
	}
	if changes.ReviewText != nil {
		if text := strings.TrimSpace(*changes.ReviewText); text == "" {
			fields["review_text"] = nil
			fields["review_date"] = nil
		} else {
			fields["review_text"] = text
			fields["review_date"] = now
		}
	}

	if len(fields) == 0 {
		return book, nil
	}

	if err := s.books.Update(ctx, book.ID, fields); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrBookNotFound
		}
		return nil, apperror.Internal(err)
	}

	updated, err := s.books.FindByID(ctx, book.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return updated, nil
}

func (s *bookService) Delete(ctx context.Context, userID string, bookID int64) error {
	book, err := s.owned(ctx, userID, bookID)
	if err != nil {
		return err
	}
	if err := s.books.Delete(ctx, book.ID); err != nil {
		if repository.IsNotFound(err) {
			return ErrBookNotFound
		}
		return apperror.Internal(err)
	}
	return nil
}
