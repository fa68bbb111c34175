package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/v-prt/bookish-backend/internal/microservices/http-api/middleware"
	"github.com/v-prt/bookish-backend/internal/microservices/http-api/service"
)

// Services bundles what the router needs.
type Services struct {
	Auth            service.AuthService
	Users           service.UserService
	Books           service.BookService
	Activity        service.ActivityService
	Recommendations service.RecommendationService
}

// RegisterRoutes mounts the public and authenticated API under rg.
func RegisterRoutes(rg *gin.RouterGroup, svc Services) {
	NewAuthHandler(svc.Auth).RegisterRoutes(rg)

	protected := rg.Group("", middleware.AuthMiddleware(svc.Auth))
	NewUserHandler(svc.Users, svc.Activity, svc.Recommendations).RegisterRoutes(protected)
	NewBookHandler(svc.Books).RegisterRoutes(protected)
}

// Health reports liveness.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
