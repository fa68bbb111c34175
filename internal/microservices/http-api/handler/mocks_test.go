package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/v-prt/bookish-backend/internal/catalog"
	"github.com/v-prt/bookish-backend/internal/microservices/http-api/models"
	"github.com/v-prt/bookish-backend/internal/microservices/http-api/service"
)

// MockAuthService mocks the AuthService interface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, in service.RegisterInput) (*models.User, string, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*models.User), args.String(1), args.Error(2)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(1) == nil {
		return "", nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*models.User), args.Error(2)
}

func (m *MockAuthService) ValidateToken(tokenString string) (*service.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Claims), args.Error(1)
}

func (m *MockAuthService) VerifyToken(ctx context.Context, tokenString string) (*models.User, error) {
	args := m.Called(ctx, tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockUserService mocks the UserService interface
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Get(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, id string, changes service.UserChanges) (*models.User, error) {
	args := m.Called(ctx, id, changes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockActivityService mocks the ActivityService interface
type MockActivityService struct {
	mock.Mock
}

func (m *MockActivityService) ReadingActivity(ctx context.Context, userID, dateRange string) (*service.ReadingActivity, error) {
	args := m.Called(ctx, userID, dateRange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReadingActivity), args.Error(1)
}

// MockRecommendationService mocks the RecommendationService interface
type MockRecommendationService struct {
	mock.Mock
}

func (m *MockRecommendationService) Recommend(ctx context.Context, userID, genre string) ([]catalog.Volume, error) {
	args := m.Called(ctx, userID, genre)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Volume), args.Error(1)
}

// MockBookService mocks the BookService interface
type MockBookService struct {
	mock.Mock
}

func (m *MockBookService) Add(ctx context.Context, userID string, in service.BookInput) (*models.Book, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Book), args.Error(1)
}

func (m *MockBookService) Get(ctx context.Context, userID, volumeID string) (*models.Book, error) {
	args := m.Called(ctx, userID, volumeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Book), args.Error(1)
}

func (m *MockBookService) Update(ctx context.Context, userID string, bookID int64, changes service.BookChanges) (*models.Book, error) {
	args := m.Called(ctx, userID, bookID, changes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Book), args.Error(1)
}

func (m *MockBookService) Delete(ctx context.Context, userID string, bookID int64) error {
	args := m.Called(ctx, userID, bookID)
	return args.Error(0)
}

func (m *MockBookService) Bookshelf(ctx context.Context, userID, shelf, search string, page int) (*service.BookshelfPage, error) {
	args := m.Called(ctx, userID, shelf, search, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BookshelfPage), args.Error(1)
}

func (m *MockBookService) Summaries(ctx context.Context, userID string) ([]service.ShelfSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.ShelfSummary), args.Error(1)
}

func (m *MockBookService) Reviews(ctx context.Context, volumeID string, page int) (*service.ReviewPage, error) {
	args := m.Called(ctx, volumeID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReviewPage), args.Error(1)
}

func (m *MockBookService) SearchCatalog(ctx context.Context, userID, searchText string, page int) (*service.CatalogSearchPage, error) {
	args := m.Called(ctx, userID, searchText, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CatalogSearchPage), args.Error(1)
}
