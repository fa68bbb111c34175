package repository

import (
	"context"
	"fmt"

	"github.com/v-prt/bookish-backend/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	FindByID(ctx context.Context, id int64) (*models.Book, error)
	FindByUserAndVolume(ctx context.Context, userID, volumeID string) (*models.Book, error)
	FindByVolumeIDs(ctx context.Context, userID string, volumeIDs []string) ([]models.Book, error)
	VolumeIDs(ctx context.Context, userID string) ([]string, error)
	Update(ctx context.Context, id int64, fields map[string]any) error
	Delete(ctx context.Context, id int64) error

	// List returns one page of a bookshelf and the total number of matches.
	List(ctx context.Context, q BookshelfQuery) ([]models.Book, int64, error)
	// ListAll returns every match of a filter in bookshelf order.
	ListAll(ctx context.Context, f BookFilter) ([]models.Book, error)
	// ListReviews returns reviewed books of a volume with their reviewers, newest review first.
	ListReviews(ctx context.Context, volumeID string, page, limit int) ([]models.Book, int64, error)
}

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(ctx context.Context, book *models.Book) error {
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

func (r *bookRepository) FindByID(ctx context.Context, id int64) (*models.Book, error) {
	var b models.Book
	if err := r.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookRepository) FindByUserAndVolume(ctx context.Context, userID, volumeID string) (*models.Book, error) {
	var b models.Book
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND volume_id = ?", userID, volumeID).
		First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookRepository) FindByVolumeIDs(ctx context.Context, userID string, volumeIDs []string) ([]models.Book, error) {
	var books []models.Book
	if len(volumeIDs) == 0 {
		return books, nil
	}
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND volume_id IN ?", userID, volumeIDs).
		Find(&books).Error; err != nil {
		return nil, fmt.Errorf("find books by volume: %w", err)
	}
	return books, nil
}

func (r *bookRepository) VolumeIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("user_id = ?", userID).
		Pluck("volume_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list volume ids: %w", err)
	}
	return ids, nil
}

func (r *bookRepository) Update(ctx context.Context, id int64, fields map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("update book: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *bookRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Book{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete book: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *bookRepository) List(ctx context.Context, q BookshelfQuery) ([]models.Book, int64, error) {
	var books []models.Book
	var total int64

	// Count total matches
	if err := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Scopes(q.Filter.Scope).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count bookshelf: %w", err)
	}

	// Pages past the end are empty, skip the round trip
	if int64(q.Offset()) >= total {
		return []models.Book{}, total, nil
	}

	if err := r.db.WithContext(ctx).
		Scopes(q.Scope).
		Find(&books).Error; err != nil {
		return nil, 0, fmt.Errorf("list bookshelf: %w", err)
	}

	return books, total, nil
}

func (r *bookRepository) ListAll(ctx context.Context, f BookFilter) ([]models.Book, error) {
	var books []models.Book
	if err := r.db.WithContext(ctx).
		Scopes(f.Scope).
		Order(BookshelfOrder).
		Find(&books).Error; err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

func (r *bookRepository) ListReviews(ctx context.Context, volumeID string, page, limit int) ([]models.Book, int64, error) {
	if err := ValidatePage(page, limit); err != nil {
		return nil, 0, err
	}

	var books []models.Book
	var total int64

	reviewed := func(db *gorm.DB) *gorm.DB {
		return db.Where("volume_id = ? AND review_text IS NOT NULL AND review_text <> ''", volumeID)
	}

	if err := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Scopes(reviewed).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	if err := r.db.WithContext(ctx).
		Preload("User").
		Scopes(reviewed).
		Order("review_date DESC NULLS LAST, id DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&books).Error; err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}

	return books, total, nil
}
