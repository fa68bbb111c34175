package service

import (
	"context"
	"strings"
	"time"

	"github.com/v-prt/bookish-backend/internal/apperror"
	"github.com/v-prt/bookish-backend/internal/microservices/http-api/models"
	"github.com/v-prt/bookish-backend/internal/microservices/http-api/repository"
)

// Date ranges accepted by the reading activity summary.
const (
	DateRangeAllTime  = "all-time"
	DateRangeThisYear = "this-year"
)

const (
	recentlyReadLimit = 5
	uncategorized     = "Uncategorized"
	categorySeparator = " / "
)

var ErrInvalidDateRange = apperror.Validation("dateRange must be all-time or this-year")

// genericCategories are too broad to say anything about a reader's taste.
var genericCategories = map[string]bool{
	"Fiction":    true,
	"Nonfiction": true,
	"General":    true,
}

// ReadingActivity summarizes the books a user finished within a date range.
type ReadingActivity struct {
	TotalBooks   int            `json:"total_books"`
	TotalPages   int            `json:"total_pages"`
	TopCategory  string         `json:"top_category"`
	TopAuthor    string         `json:"top_author"`
	RecentlyRead []EnrichedBook `json:"recently_read"`
}

type ActivityService interface {
	ReadingActivity(ctx context.Context, userID, dateRange string) (*ReadingActivity, error)
}

type activityService struct {
	books    repository.BookRepository
	enricher *Enricher
	now      func() time.Time
}

func NewActivityService(books repository.BookRepository, enricher *Enricher) ActivityService {
	return &activityService{
		books:    books,
		enricher: enricher,
		now:      time.Now,
	}
}

func (s *activityService) ReadingActivity(ctx context.Context, userID, dateRange string) (*ReadingActivity, error) {
	since, err := rangeStart(dateRange, s.now())
	if err != nil {
		return nil, err
	}

	filter := repository.NewBookFilter(userID, models.ShelfRead, "")
	filter.ReadSince = since

	books, err := s.books.ListAll(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	enriched, err := s.enricher.Enrich(ctx, books)
	if err != nil {
		return nil, apperror.Upstream("Could not load book details", err)
	}

	activity := SummarizeReading(enriched)
	return &activity, nil
}

// rangeStart returns the earliest completion date a range covers, nil for no bound.
func rangeStart(dateRange string, now time.Time) (*time.Time, error) {
	switch strings.TrimSpace(dateRange) {
	case "", DateRangeAllTime:
		return nil, nil
	case DateRangeThisYear:
		start := time.Date(now.UTC().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return &start, nil
	default:
		return nil, ErrInvalidDateRange
	}
}

// SummarizeReading tallies books already sorted most recently read first.
func SummarizeReading(books []EnrichedBook) ReadingActivity {
	activity := ReadingActivity{
		TotalBooks:   len(books),
		TopCategory:  TopCategory(books),
		TopAuthor:    TopAuthor(books),
		RecentlyRead: books[:min(recentlyReadLimit, len(books))],
	}
	for _, b := range books {
		activity.TotalPages += b.PageCount
	}
	return activity
}

// TopCategory returns the most frequent non-generic category. Hierarchical
// categories count once per level. Ties go to the category seen first.
func TopCategory(books []EnrichedBook) string {
	var leaves []string
	for _, b := range books {
		if len(b.Categories) == 0 {
			leaves = append(leaves, uncategorized)
			continue
		}
		for _, c := range b.Categories {
			for _, leaf := range strings.Split(c, categorySeparator) {
				leaf = strings.TrimSpace(leaf)
				if leaf == "" || genericCategories[leaf] {
					continue
				}
				leaves = append(leaves, leaf)
			}
		}
	}
	top, _ := mostFrequent(leaves)
	return top
}

// TopAuthor returns the most frequent author, or "" when no author repeats.
// Ties go to the author seen first.
func TopAuthor(books []EnrichedBook) string {
	var authors []string
	for _, b := range books {
		if a := strings.TrimSpace(b.Author); a != "" {
			authors = append(authors, a)
		}
	}
	top, count := mostFrequent(authors)
	if count < 2 {
		return ""
	}
	return top
}

// mostFrequent returns the value with the highest count, first-seen on ties.
func mostFrequent(values []string) (string, int) {
	counts := make(map[string]int, len(values))
	var order []string
	for _, v := range values {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}

	var top string
	best := 0
	for _, v := range order {
		if counts[v] > best {
			top, best = v, counts[v]
		}
	}
	return top, best
}
