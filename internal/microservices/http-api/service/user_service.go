package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/v-prt/bookish-backend/internal/apperror"
	"github.com/v-prt/bookish-backend/internal/microservices/http-api/models"
	"github.com/v-prt/bookish-backend/internal/microservices/http-api/repository"
	"github.com/v-prt/bookish-backend/internal/middleware/auth"
)

var (
	ErrCurrentPasswordRequired = apperror.Validation("Current password is required to set a new password")
	ErrWrongCurrentPassword    = apperror.Validation("Incorrect password")
)

// UserChanges is a partial account update; nil fields are left untouched.
type UserChanges struct {
	FirstName       *string
	LastName        *string
	Email           *string
	FaveGenres      *[]string
	CurrentPassword *string
	NewPassword     *string
}

type UserService interface {
	Get(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, id string, changes UserChanges) (*models.User, error)
	// Delete removes the account and all of its books.
	Delete(ctx context.Context, id string) error
}

type userService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, apperror.Internal(err)
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, id string, changes UserChanges) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if changes.FirstName != nil {
		fields["first_name"] = strings.TrimSpace(*changes.FirstName)
	}
	if changes.LastName != nil {
		fields["last_name"] = strings.TrimSpace(*changes.LastName)
	}
	if changes.FaveGenres != nil {
		// map updates skip the model serializer, so encode the column here
		genres := *changes.FaveGenres
		if genres == nil {
			genres = []string{}
		}
		encoded, err := json.Marshal(genres)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		fields["fave_genres"] = string(encoded)
	}

	if changes.Email != nil {
		email := normalizeEmail(*changes.Email)
		if email != user.Email {
			existing, err := s.users.FindByEmail(ctx, email)
			switch {
			case err == nil && existing.ID != user.ID:
				return nil, ErrEmailInUse
			case err != nil && !repository.IsNotFound(err):
				return nil, apperror.Internal(err)
			}
			fields["email"] = email
		}
	}

	if changes.NewPassword != nil {
		if changes.CurrentPassword == nil || *changes.CurrentPassword == "" {
			return nil, ErrCurrentPasswordRequired
		}
		if err := auth.VerifyPassword(user.Password, *changes.CurrentPassword); err != nil {
			return nil, ErrWrongCurrentPassword
		}
		hashed, err := hashPassword(*changes.NewPassword)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hashed
	}

	if len(fields) == 0 {
		return user, nil
	}

	if err := s.users.Update(ctx, id, fields); err != nil {
		switch {
		case repository.IsUniqueViolation(err):
			return nil, ErrEmailInUse
		case repository.IsNotFound(err):
			return nil, ErrUserNotFound
		}
		return nil, apperror.Internal(err)
	}

	return s.Get(ctx, id)
}

func (s *userService) Delete(ctx context.Context, id string) error {
	if err := s.users.DeleteWithBooks(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return ErrUserNotFound
		}
		return apperror.Internal(err)
	}
	return nil
}
