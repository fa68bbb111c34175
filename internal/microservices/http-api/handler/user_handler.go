package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/v-prt/bookish-backend/internal/microservices/http-api/dto"
	"github.com/v-prt/bookish-backend/internal/microservices/http-api/middleware"
	"github.com/v-prt/bookish-backend/internal/microservices/http-api/service"
)

type UserHandler struct {
	users           service.UserService
	activity        service.ActivityService
	recommendations service.RecommendationService
}

func NewUserHandler(users service.UserService, activity service.ActivityService, recommendations service.RecommendationService) *UserHandler {
	return &UserHandler{
		users:           users,
		activity:        activity,
		recommendations: recommendations,
	}
}

// RegisterRoutes mounts the account routes. rg must already run AuthMiddleware.
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	self := rg.Group("/users/:id", middleware.RequireSelf("id"))
	self.GET("", h.Get)
	self.PUT("", h.Update)
	self.DELETE("", h.Delete)
	self.GET("/reading-activity", h.ReadingActivity)
	self.GET("/recommended-books", h.RecommendedBooks)
}

func (h *UserHandler) Get(c *gin.Context) {
	ctx, cancel := withTimeout(c, storeTimeout)
	defer cancel()

	user, err := h.users.Get(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}

func (h *UserHandler) Update(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := withTimeout(c, storeTimeout)
	defer cancel()

	user, err := h.users.Update(ctx, c.Param("id"), service.UserChanges{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		FaveGenres:      req.FaveGenres,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}

// Delete removes the account and every book on its shelves.
func (h *UserHandler) Delete(c *gin.Context) {
	ctx, cancel := withTimeout(c, storeTimeout)
	defer cancel()

	if err := h.users.Delete(ctx, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}

func (h *UserHandler) ReadingActivity(c *gin.Context) {
	var q dto.ActivityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := withTimeout(c, catalogTimeout)
	defer cancel()

	activity, err := h.activity.ReadingActivity(ctx, c.Param("id"), q.DateRange)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, activity)
}

func (h *UserHandler) RecommendedBooks(c *gin.Context) {
	var q dto.RecommendationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := withTimeout(c, catalogTimeout)
	defer cancel()

	books, err := h.recommendations.Recommend(ctx, c.Param("id"), q.Genre)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"books": books})
}
