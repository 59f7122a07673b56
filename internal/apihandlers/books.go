package apihandlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bookgenre/internal/models"
	"bookgenre/internal/services"
)

// AddBookRequest is the body of POST /books.
type AddBookRequest struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	UsrCategory string `json:"usrCategory"`
	Description string `json:"description"`
}

// SetCategoryRequest is the body of PATCH /books/:id/category.
type SetCategoryRequest struct {
	Category string `json:"category"`
}

// BookResponse adds the effective category to a stored book.
type BookResponse struct {
	*models.Book
	Category string `json:"category"`
}

func newBookResponse(b *models.Book) BookResponse {
	return BookResponse{Book: b, Category: b.Category()}
}

func (h *APIHandler) ListBooksHandler(c *gin.Context) {
	filter, err := parseBookFilter(c)
	if err != nil {
		BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}
	books, err := h.Books.ListBooks(c.Request.Context(), filter)
	if err != nil {
		WriteError(c, fmt.Errorf("list books: %w", err))
		return
	}
	out := make([]BookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, newBookResponse(b))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (h *APIHandler) GetBookHandler(c *gin.Context) {
	book, err := h.Books.GetBook(c.Request.Context(), c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newBookResponse(book)})
}

func (h *APIHandler) AddBookHandler(c *gin.Context) {
	var req AddBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	book, err := h.Books.AddBook(c.Request.Context(), services.AddBookParams{
		ID:          req.ID,
		Title:       req.Title,
		Author:      req.Author,
		UsrCategory: req.UsrCategory,
		Description: req.Description,
	})
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": newBookResponse(book)})
}

func (h *APIHandler) SetCategoryHandler(c *gin.Context) {
	var req SetCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	book, err := h.Books.SetCategory(c.Request.Context(), c.Param("id"), req.Category)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newBookResponse(book)})
}

// ReclassifyHandler queues a reclassification when a worker is configured and
// runs it inline otherwise.
func (h *APIHandler) ReclassifyHandler(c *gin.Context) {
	id := c.Param("id")
	taskID, err := h.Books.EnqueueReclassify(c.Request.Context(), id)
	if err == nil {
		c.JSON(http.StatusAccepted, gin.H{"data": gin.H{"task_id": taskID}})
		return
	}
	if !errors.Is(err, services.ErrJobsDisabled) {
		WriteError(c, err)
		return
	}

	book, err := h.Books.Reclassify(c.Request.Context(), id)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newBookResponse(book)})
}

func parseBookFilter(c *gin.Context) (models.BookFilter, error) {
	f := models.BookFilter{
		Title:    c.Query("title"),
		Author:   c.Query("author"),
		Category: c.Query("category"),
	}
	var err error
	if v := c.Query("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil || f.Limit < 0 {
			return f, fmt.Errorf("limit must be a non-negative integer")
		}
	}
	if v := c.Query("offset"); v != "" {
		if f.Offset, err = strconv.Atoi(v); err != nil || f.Offset < 0 {
			return f, fmt.Errorf("offset must be a non-negative integer")
		}
	}
	return f, nil
}
