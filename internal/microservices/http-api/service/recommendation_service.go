package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/v-prt/bookish-backend/internal/apperror"
	"github.com/v-prt/bookish-backend/internal/catalog"
	"github.com/v-prt/bookish-backend/internal/microservices/http-api/repository"
)

const (
	RecommendationCount           = 6
	defaultRecommendationMaxPages = 5
)

var ErrGenreRequired = apperror.Validation("genre is required")

type RecommendationService interface {
	// Recommend returns up to RecommendationCount catalog volumes for a genre
	// that the user has no book record for.
	Recommend(ctx context.Context, userID, genre string) ([]catalog.Volume, error)
}

type recommendationService struct {
	books    repository.BookRepository
	catalog  Catalog
	maxPages int
}

func NewRecommendationService(books repository.BookRepository, cat Catalog, maxPages int) RecommendationService {
	if maxPages < 1 {
		maxPages = defaultRecommendationMaxPages
	}
	return &recommendationService{
		books:    books,
		catalog:  cat,
		maxPages: maxPages,
	}
}

func recommendationQuery(genre string) string {
	return fmt.Sprintf("highly rated %s books", genre)
}

func (s *recommendationService) Recommend(ctx context.Context, userID, genre string) ([]catalog.Volume, error) {
	genre = strings.TrimSpace(genre)
	if genre == "" {
		return nil, ErrGenreRequired
	}

	ids, err := s.books.VolumeIDs(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	// volumes the user has plus volumes already picked
	skip := make(map[string]bool, len(ids)+RecommendationCount)
	for _, id := range ids {
		skip[id] = true
	}

	recs := make([]catalog.Volume, 0, RecommendationCount)
	query := recommendationQuery(genre)

	// the catalog may keep returning known volumes, so the page count is capped
	for page := 0; page < s.maxPages && len(recs) < RecommendationCount; page++ {
		result, err := s.catalog.Search(ctx, query, page*RecommendationCount, RecommendationCount)
		if err != nil {
			return nil, apperror.Upstream("Could not load recommendations", err)
		}
		if len(result.Items) == 0 {
			break
		}

		for _, vol := range result.Items {
			if skip[vol.ID] {
				continue
			}
			skip[vol.ID] = true
			recs = append(recs, vol)
			if len(recs) == RecommendationCount {
				break
			}
		}
	}

	return recs, nil
}
