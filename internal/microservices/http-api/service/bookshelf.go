package service

import (
	"context"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/v-prt/bookish-backend/internal/apperror"
	"github.com/v-prt/bookish-backend/internal/catalog"
	"github.com/v-prt/bookish-backend/internal/microservices/http-api/models"
	"github.com/v-prt/bookish-backend/internal/microservices/http-api/repository"
)

const (
	summaryPreviewSize = 3
	reviewsPageSize    = 20
	catalogPageSize    = 20
)

// SummaryShelves are the shelves summarized for a user, in display order.
var SummaryShelves = []string{
	models.ShelfRead,
	models.ShelfReading,
	models.ShelfWantToRead,
	models.ShelfOwned,
	models.ShelfRated,
}

// BookshelfPage is one page of a user's bookshelf.
type BookshelfPage struct {
	Books       []EnrichedBook `json:"books"`
	Page        int            `json:"page"`
	TotalBooks  int64          `json:"total_books"`
	HasNextPage bool           `json:"has_next_page"`
}

// ShelfSummary is a shelf's size and first few books.
type ShelfSummary struct {
	Name  string         `json:"name"`
	Count int64          `json:"count"`
	Books []EnrichedBook `json:"books"`
}

// Review is one user's review of a volume.
type Review struct {
	BookID     int64      `json:"book_id"`
	UserID     string     `json:"user_id"`
	Reviewer   string     `json:"reviewer"`
	Rating     *int       `json:"rating,omitempty"`
	Text       string     `json:"review_text"`
	ReviewDate *time.Time `json:"review_date,omitempty"`
}

// ReviewPage is one page of a volume's reviews.
type ReviewPage struct {
	Reviews      []Review `json:"reviews"`
	Page         int      `json:"page"`
	TotalReviews int64    `json:"total_reviews"`
	HasNextPage  bool     `json:"has_next_page"`
}

// CatalogBook is a catalog volume with the caller's copy, if they have one.
type CatalogBook struct {
	catalog.Volume
	UserBook *models.Book `json:"user_book,omitempty"`
}

// CatalogSearchPage is one page of catalog search results. NextCursor is
// nil on the last page.
type CatalogSearchPage struct {
	Items      []CatalogBook `json:"items"`
	TotalItems int           `json:"total_items"`
	NextCursor *int          `json:"next_cursor"`
}

// validSelector accepts stored shelves, the Owned and Rated views, and "" for everything.
func validSelector(shelf string) bool {
	switch shelf {
	case "", models.ShelfOwned, models.ShelfRated:
		return true
	}
	return models.IsStoredShelf(shelf)
}

func (s *bookService) Bookshelf(ctx context.Context, userID, shelf, search string, page int) (*BookshelfPage, error) {
	shelf = strings.TrimSpace(shelf)
	if !validSelector(shelf) {
		return nil, ErrInvalidShelf
	}

	q, err := repository.NewBookshelfQuery(userID, shelf, search, page)
	if err != nil {
		return nil, err
	}

	books, total, err := s.books.List(ctx, q)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	enriched, err := s.enricher.Enrich(ctx, books)
	if err != nil {
		return nil, ErrCatalogDown.Wrap(err)
	}

	return &BookshelfPage{
		Books:       enriched,
		Page:        q.Page,
		TotalBooks:  total,
		HasNextPage: q.HasNextPage(total),
	}, nil
}

func (s *bookService) Summaries(ctx context.Context, userID string) ([]ShelfSummary, error) {
	summaries := make([]ShelfSummary, 0, len(SummaryShelves))
	sizes := make([]int, 0, len(SummaryShelves))
	var previews []models.Book

	for _, shelf := range SummaryShelves {
		q, err := repository.NewBookshelfQueryWithLimit(userID, shelf, "", 1, summaryPreviewSize)
		if err != nil {
			return nil, err
		}
		books, total, err := s.books.List(ctx, q)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		summaries = append(summaries, ShelfSummary{Name: shelf, Count: total})
		sizes = append(sizes, len(books))
		previews = append(previews, books...)
	}

	// one fan-out for every preview so the whole response shares a deadline
	enriched, err := s.enricher.Enrich(ctx, previews)
	if err != nil {
		return nil, ErrCatalogDown.Wrap(err)
	}

	next := 0
	for i := range summaries {
		summaries[i].Books = enriched[next : next+sizes[i]]
		next += sizes[i]
	}
	return summaries, nil
}

func (s *bookService) Reviews(ctx context.Context, volumeID string, page int) (*ReviewPage, error) {
	if err := repository.ValidatePage(page, reviewsPageSize); err != nil {
		return nil, err
	}

	books, total, err := s.books.ListReviews(ctx, volumeID, page, reviewsPageSize)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	reviews := make([]Review, 0, len(books))
	for _, b := range books {
		r := Review{
			BookID:     b.ID,
			UserID:     b.UserID,
			Rating:     b.Rating,
			ReviewDate: b.ReviewDate,
		}
		if b.ReviewText != nil {
			r.Text = *b.ReviewText
		}
		if b.User != nil {
			r.Reviewer = ReviewerName(b.User.FirstName, b.User.LastName)
		}
		reviews = append(reviews, r)
	}

	return &ReviewPage{
		Reviews:      reviews,
		Page:         page,
		TotalReviews: total,
		HasNextPage:  total > int64(reviewsPageSize)*int64(page),
	}, nil
}

// ReviewerName shortens a name to first name and last initial, "Ada L.".
func ReviewerName(first, last string) string {
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)
	if last == "" {
		return first
	}
	initial, _ := utf8.DecodeRuneInString(last)
	return strings.TrimSpace(first + " " + string(initial) + ".")
}

func (s *bookService) SearchCatalog(ctx context.Context, userID, searchText string, page int) (*CatalogSearchPage, error) {
	searchText = strings.TrimSpace(searchText)
	if searchText == "" {
		return nil, ErrSearchRequired
	}
	if page < 0 {
		return nil, ErrInvalidCursor
	}
	// the catalog takes a 32-bit startIndex
	if page >= math.MaxInt32/catalogPageSize {
		return nil, repository.ErrPageOutOfRange
	}

	result, err := s.catalog.Search(ctx, searchText, page*catalogPageSize, catalogPageSize)
	if err != nil {
		return nil, ErrCatalogDown.Wrap(err)
	}

	ids := make([]string, 0, len(result.Items))
	for _, v := range result.Items {
		ids = append(ids, v.ID)
	}
	stored, err := s.books.FindByVolumeIDs(ctx, userID, ids)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	byVolume := make(map[string]*models.Book, len(stored))
	for i := range stored {
		byVolume[stored[i].VolumeID] = &stored[i]
	}

	items := make([]CatalogBook, 0, len(result.Items))
	for _, v := range result.Items {
		items = append(items, CatalogBook{Volume: v, UserBook: byVolume[v.ID]})
	}

	out := &CatalogSearchPage{Items: items, TotalItems: result.TotalItems}
	if result.TotalItems > catalogPageSize*(page+1) {
		next := page + 1
		out.NextCursor = &next
	}
	return out, nil
}
