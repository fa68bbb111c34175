package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/v-prt/bookish-backend/internal/apperror"
	"github.com/v-prt/bookish-backend/internal/config"
	"github.com/v-prt/bookish-backend/internal/microservices/http-api/models"
	"github.com/v-prt/bookish-backend/internal/middleware/auth"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret: "test-secret-that-is-long-enough-for-hs256",
		JWTExpiry: time.Hour,
	}
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := auth.HashPasswordWithCost(password, bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestRegister_Success(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	authService := NewAuthService(mockUserRepo, testConfig())

	mockUserRepo.On("FindByEmail", mock.Anything, "ada@example.com").Return(nil, gorm.ErrRecordNotFound)
	mockUserRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.User).ID = "user-1"
	})

	user, token, err := authService.Register(context.Background(), RegisterInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "  Ada@Example.com ",
		Password:  "password123",
	})

	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEqual(t, "password123", user.Password)
	assert.NoError(t, auth.VerifyPassword(user.Password, "password123"))
	assert.NotEmpty(t, token)

	claims, err := authService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	mockUserRepo.AssertExpectations(t)
}

func TestRegister_DuplicateEmailCreatesNothing(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	authService := NewAuthService(mockUserRepo, testConfig())

	mockUserRepo.On("FindByEmail", mock.Anything, "ada@example.com").Return(&models.User{ID: "existing"}, nil)

	user, token, err := authService.Register(context.Background(), RegisterInput{Email: "ADA@example.com", Password: "x"})

	assert.ErrorIs(t, err, ErrEmailInUse)
	assert.Nil(t, user)
	assert.Empty(t, token)
	mockUserRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_UniqueViolationIsConflict(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	authService := NewAuthService(mockUserRepo, testConfig())

	mockUserRepo.On("FindByEmail", mock.Anything, "ada@example.com").Return(nil, gorm.ErrRecordNotFound)
	mockUserRepo.On("Create", mock.Anything, mock.Anything).Return(gorm.ErrDuplicatedKey)

	_, _, err := authService.Register(context.Background(), RegisterInput{Email: "ada@example.com", Password: "x"})

	assert.ErrorIs(t, err, ErrEmailInUse)
}

func TestLogin_Success(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	authService := NewAuthService(mockUserRepo, testConfig())

	stored := &models.User{ID: "user-1", Email: "ada@example.com", Password: hashed(t, "password123")}
	mockUserRepo.On("FindByEmail", mock.Anything, "ada@example.com").Return(stored, nil)

	token, user, err := authService.Login(context.Background(), "Ada@example.com", "password123")

	require.NoError(t, err)
	assert.Equal(t, stored, user)
	claims, err := authService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestLogin_UnknownEmail(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	authService := NewAuthService(mockUserRepo, testConfig())

	mockUserRepo.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, gorm.ErrRecordNotFound)

	_, _, err := authService.Login(context.Background(), "nobody@example.com", "password123")

	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRegister_PasswordOverByteLimit(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	authService := NewAuthService(mockUserRepo, testConfig())
	mockUserRepo.On("FindByEmail", mock.Anything, "ada@example.com").Return(nil, gorm.ErrRecordNotFound)

	_, _, err := authService.Register(context.Background(), RegisterInput{
		Email:    "ada@example.com",
		Password: strings.Repeat("日本", 20),
	})

	assert.ErrorIs(t, err, ErrPasswordTooLong)
	assert.Equal(t, http.StatusBadRequest, apperror.From(err).HTTPStatus())
	mockUserRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLogin_WrongPassword(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	authService := NewAuthService(mockUserRepo, testConfig())

	stored := &models.User{ID: "user-1", Password: hashed(t, "password123")}
	mockUserRepo.On("FindByEmail", mock.Anything, "ada@example.com").Return(stored, nil)

	_, _, err := authService.Login(context.Background(), "ada@example.com", "nope")

	assert.ErrorIs(t, err, ErrIncorrectPassword)
}

func TestLogin_StoreFailure(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	authService := NewAuthService(mockUserRepo, testConfig())

	mockUserRepo.On("FindByEmail", mock.Anything, "ada@example.com").Return(nil, errors.New("connection refused"))

	_, _, err := authService.Login(context.Background(), "ada@example.com", "password123")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserNotFound)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := NewAuthService(new(MockUserRepository), testConfig()).(*authService)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := svc.generateToken(&models.User{ID: "user-1"})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	other := NewAuthService(new(MockUserRepository), &config.Config{JWTSecret: "another-secret", JWTExpiry: time.Hour}).(*authService)
	token, err := other.generateToken(&models.User{ID: "user-1"})
	require.NoError(t, err)

	_, err = NewAuthService(new(MockUserRepository), testConfig()).ValidateToken(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{
		UserID:           "user-1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewAuthService(new(MockUserRepository), testConfig()).ValidateToken(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	_, err := NewAuthService(new(MockUserRepository), testConfig()).ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_MissingUser(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	svc := NewAuthService(mockUserRepo, testConfig()).(*authService)
	token, err := svc.generateToken(&models.User{ID: "gone"})
	require.NoError(t, err)

	mockUserRepo.On("FindByID", mock.Anything, "gone").Return(nil, gorm.ErrRecordNotFound)

	_, err = svc.VerifyToken(context.Background(), token)

	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestVerifyToken_Success(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	svc := NewAuthService(mockUserRepo, testConfig()).(*authService)
	token, err := svc.generateToken(&models.User{ID: "user-1"})
	require.NoError(t, err)

	mockUserRepo.On("FindByID", mock.Anything, "user-1").Return(&models.User{ID: "user-1", FirstName: "Ada"}, nil)

	user, err := svc.VerifyToken(context.Background(), token)

	require.NoError(t, err)
	assert.Equal(t, "Ada", user.FirstName)
}
