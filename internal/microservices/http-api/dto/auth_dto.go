package dto

// Data Transfer Objects for authentication requests and responses

// RegisterRequest: payload for account creation
type RegisterRequest struct {
	FirstName  string   `json:"first_name" binding:"required,max=100"`
	LastName   string   `json:"last_name" binding:"required,max=100"`
	Email      string   `json:"email" binding:"required,email"`
	Password   string   `json:"password" binding:"required,min=8,max=72"`
	FaveGenres []string `json:"fave_genres" binding:"omitempty,max=20,dive,max=50"`
}

// LoginRequest: payload for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenRequest: payload for checking a previously issued token
type TokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// AuthResponse: response payload after signup or login
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}
