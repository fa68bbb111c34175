package dto

import (
	"time"

	"github.com/v-prt/bookish-backend/internal/microservices/http-api/models"
)

// UserResponse is the public view of an account.
type UserResponse struct {
	ID         string    `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	FaveGenres []string  `json:"fave_genres"`
	Joined     time.Time `json:"joined"`
}

func NewUserResponse(u *models.User) UserResponse {
	genres := u.FaveGenres
	if genres == nil {
		genres = []string{}
	}
	return UserResponse{
		ID:         u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		FaveGenres: genres,
		Joined:     u.Joined,
	}
}

// UpdateUserRequest: partial account update, absent fields are kept
type UpdateUserRequest struct {
	FirstName       *string   `json:"first_name" binding:"omitempty,min=1,max=100"`
	LastName        *string   `json:"last_name" binding:"omitempty,min=1,max=100"`
	Email           *string   `json:"email" binding:"omitempty,email"`
	FaveGenres      *[]string `json:"fave_genres" binding:"omitempty,max=20,dive,max=50"`
	CurrentPassword *string   `json:"current_password"`
	NewPassword     *string   `json:"new_password" binding:"omitempty,min=8,max=72"`
}

// ActivityQuery: query string of the reading activity summary
type ActivityQuery struct {
	DateRange string `form:"dateRange" binding:"omitempty,oneof=all-time this-year"`
}

// RecommendationQuery: query string of genre recommendations
type RecommendationQuery struct {
	Genre string `form:"genre" binding:"required,max=100"`
}
