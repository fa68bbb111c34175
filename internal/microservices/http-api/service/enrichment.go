package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/v-prt/bookish-backend/internal/catalog"
	"github.com/v-prt/bookish-backend/internal/microservices/http-api/models"
)

// Catalog is the part of the catalog client the services depend on.
type Catalog interface {
	GetVolume(ctx context.Context, volumeID string) (*catalog.Volume, error)
	Search(ctx context.Context, query string, startIndex, maxResults int) (*catalog.SearchResult, error)
}

// EnrichedBook is a stored book merged with its catalog metadata.
type EnrichedBook struct {
	models.Book
	Thumbnail       string   `json:"thumbnail,omitempty"`
	AverageRating   float64  `json:"average_rating,omitempty"`
	RatingsCount    int      `json:"ratings_count,omitempty"`
	PageCount       int      `json:"page_count,omitempty"`
	Categories      []string `json:"categories,omitempty"`
	MetadataMissing bool     `json:"metadata_missing,omitempty"`
}

// Merge combines a stored book with catalog metadata. Catalog values are
// defaults; non-empty stored title and author win. A nil volume marks the
// metadata as missing.
func Merge(stored models.Book, vol *catalog.Volume) EnrichedBook {
	out := EnrichedBook{Book: stored}
	if vol == nil {
		out.MetadataMissing = true
		return out
	}

	if out.Title == "" {
		out.Title = vol.Title
	}
	if out.Author == "" {
		out.Author = vol.Author
	}
	out.Thumbnail = vol.Thumbnail
	out.AverageRating = vol.AverageRating
	out.RatingsCount = vol.RatingsCount
	out.PageCount = vol.PageCount
	out.Categories = vol.Categories
	return out
}

const (
	defaultEnrichConcurrency   = 5
	defaultEnrichDeadline      = 10 * time.Second
	defaultEnrichLookupTimeout = 5 * time.Second
)

// Enricher fetches catalog metadata for pages of stored books.
type Enricher struct {
	catalog       Catalog
	concurrency   int
	deadline      time.Duration
	lookupTimeout time.Duration
	strict        bool
	logger        *slog.Logger
}

// EnricherOption customizes an Enricher.
type EnricherOption func(*Enricher)

// WithConcurrency bounds the number of lookups in flight.
func WithConcurrency(n int) EnricherOption {
	return func(e *Enricher) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithDeadline sets the budget shared by every lookup of one Enrich call.
func WithDeadline(d time.Duration) EnricherOption {
	return func(e *Enricher) {
		if d > 0 {
			e.deadline = d
		}
	}
}

// WithLookupTimeout sets the budget of a single lookup.
func WithLookupTimeout(d time.Duration) EnricherOption {
	return func(e *Enricher) {
		if d > 0 {
			e.lookupTimeout = d
		}
	}
}

// Strict makes Enrich fail on the first lookup error instead of degrading the record.
func Strict() EnricherOption {
	return func(e *Enricher) {
		e.strict = true
	}
}

// WithEnricherLogger sets the logger used for degraded lookups.
func WithEnricherLogger(logger *slog.Logger) EnricherOption {
	return func(e *Enricher) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewEnricher(cat Catalog, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		catalog:       cat,
		concurrency:   defaultEnrichConcurrency,
		deadline:      defaultEnrichDeadline,
		lookupTimeout: defaultEnrichLookupTimeout,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich looks up every book's volume concurrently and returns the merged
// records in input order. A failed lookup yields a record with
// MetadataMissing set unless the enricher is strict.
func (e *Enricher) Enrich(ctx context.Context, books []models.Book) ([]EnrichedBook, error) {
	out := make([]EnrichedBook, len(books))
	if len(books) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.deadline)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i := range books {
		i := i
		g.Go(func() error {
			// each goroutine owns out[i]
			vol, err := e.lookup(gctx, books[i].VolumeID)
			if err != nil {
				if e.strict {
					return fmt.Errorf("enrich volume %s: %w", books[i].VolumeID, err)
				}
				e.logger.Warn("catalog lookup failed, returning stored fields only",
					"volume_id", books[i].VolumeID,
					"book_id", books[i].ID,
					"error", err)
				out[i] = Merge(books[i], nil)
				return nil
			}
			out[i] = Merge(books[i], vol)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Enricher) lookup(ctx context.Context, volumeID string) (*catalog.Volume, error) {
	ctx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()
	return e.catalog.GetVolume(ctx, volumeID)
}
