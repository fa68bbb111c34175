package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/v-prt/bookish-backend/internal/apperror"
	"github.com/v-prt/bookish-backend/internal/microservices/http-api/dto"
	"github.com/v-prt/bookish-backend/internal/microservices/http-api/middleware"
	"github.com/v-prt/bookish-backend/internal/microservices/http-api/service"
)

var (
	errInvalidBookID = apperror.Validation("bookId must be a positive integer")
	errInvalidPage   = apperror.Validation("page must be a number")
	errNoUser        = apperror.Unauthorized("user not authenticated")
)

type BookHandler struct {
	books service.BookService
}

func NewBookHandler(books service.BookService) *BookHandler {
	return &BookHandler{books: books}
}

// RegisterRoutes mounts the book routes. rg must already run AuthMiddleware.
func (h *BookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/books", h.Add)
	rg.PUT("/books/:bookId", h.Update)
	rg.DELETE("/books/:bookId", h.Delete)

	self := middleware.RequireSelf("userId")
	rg.GET("/books/:userId/:volumeId", self, h.Get)
	rg.GET("/bookshelf/:userId/:page", self, h.Bookshelf)
	rg.GET("/bookshelf-summaries/:userId", self, h.Summaries)
	rg.GET("/google-books/:userId", self, h.SearchCatalog)

	rg.GET("/reviews/:volumeId/:page", h.Reviews)
}

func (h *BookHandler) Add(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, errNoUser)
		return
	}

	var req dto.AddBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := withTimeout(c, storeTimeout)
	defer cancel()

	book, err := h.books.Add(ctx, userID, service.BookInput{
		VolumeID:   req.VolumeID,
		Title:      req.Title,
		Author:     req.Author,
		Bookshelf:  req.Bookshelf,
		Owned:      req.Owned,
		DateRead:   req.DateRead,
		Rating:     req.Rating,
		ReviewText: req.ReviewText,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, book)
}

func (h *BookHandler) Get(c *gin.Context) {
	ctx, cancel := withTimeout(c, storeTimeout)
	defer cancel()

	book, err := h.books.Get(ctx, c.Param("userId"), c.Param("volumeId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, book)
}

func parseBookID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("bookId"), 10, 64)
	if err != nil || id < 1 {
		return 0, errInvalidBookID
	}
	return id, nil
}

func parsePage(c *gin.Context) (int, error) {
	page, err := strconv.Atoi(c.Param("page"))
	if err != nil {
		return 0, errInvalidPage
	}
	return page, nil
}

func (h *BookHandler) Update(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, errNoUser)
		return
	}
	bookID, err := parseBookID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req dto.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := withTimeout(c, storeTimeout)
	defer cancel()

	book, err := h.books.Update(ctx, userID, bookID, service.BookChanges{
		Bookshelf:  req.Bookshelf,
		Owned:      req.Owned,
		DateRead:   req.DateRead,
		Rating:     req.Rating,
		ReviewText: req.ReviewText,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, book)
}

func (h *BookHandler) Delete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, errNoUser)
		return
	}
	bookID, err := parseBookID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := withTimeout(c, storeTimeout)
	defer cancel()

	if err := h.books.Delete(ctx, userID, bookID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Book removed"})
}

// Bookshelf lists one page of a shelf, or of every shelf when none is given.
func (h *BookHandler) Bookshelf(c *gin.Context) {
	page, err := parsePage(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var q dto.BookshelfQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := withTimeout(c, catalogTimeout)
	defer cancel()

	result, err := h.books.Bookshelf(ctx, c.Param("userId"), q.Bookshelf, q.SearchText, page)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *BookHandler) Summaries(c *gin.Context) {
	ctx, cancel := withTimeout(c, catalogTimeout)
	defer cancel()

	summaries, err := h.books.Summaries(ctx, c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookshelves": summaries})
}

func (h *BookHandler) Reviews(c *gin.Context) {
	page, err := parsePage(c)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := withTimeout(c, storeTimeout)
	defer cancel()

	result, err := h.books.Reviews(ctx, c.Param("volumeId"), page)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SearchCatalog proxies a catalog search and marks the books the user already has.
func (h *BookHandler) SearchCatalog(c *gin.Context) {
	var q dto.CatalogSearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := withTimeout(c, catalogTimeout)
	defer cancel()

	result, err := h.books.SearchCatalog(ctx, c.Param("userId"), q.SearchText, q.Page)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
