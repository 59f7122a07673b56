package apihandlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"bookgenre/internal/models"
	"bookgenre/internal/store"
	"bookgenre/pkg/genre"
)

// Error codes carried in the "error" envelope.
const (
	CodeBadRequest       = "bad_request"
	CodeNotFound         = "not_found"
	CodeConflict         = "conflict"
	CodeModelUnavailable = "model_unavailable"
	CodeInternal         = "internal_error"
)

// APIError is the body of every error response, wrapped as
// { "error": { "code": "not_found", "message": "Book not found" } }.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error APIError `json:"error"`
}

// degradedResponse is the fallback prediction plus the reason it was returned.
type degradedResponse struct {
	Genre  string   `json:"genre"`
	Scores []any    `json:"scores"`
	Error  APIError `json:"error"`
}

func JSONError(ctx *gin.Context, status int, code, msg string) {
	ctx.AbortWithStatusJSON(status, errorResponse{Error: APIError{Code: code, Message: msg}})
}

// Convenience wrappers
func BadRequest(ctx *gin.Context, msg string) {
	JSONError(ctx, http.StatusBadRequest, CodeBadRequest, msg)
}

func NotFound(ctx *gin.Context, msg string) {
	JSONError(ctx, http.StatusNotFound, CodeNotFound, msg)
}

func Conflict(ctx *gin.Context, msg string) {
	JSONError(ctx, http.StatusConflict, CodeConflict, msg)
}

// Unavailable reports that the model backend could not serve the request.
func Unavailable(ctx *gin.Context, msg string) {
	JSONError(ctx, http.StatusServiceUnavailable, CodeModelUnavailable, msg)
}

func Internal(ctx *gin.Context, msg string) {
	JSONError(ctx, http.StatusInternalServerError, CodeInternal, msg)
}

// WriteError maps a service error onto its status and code. Unmapped errors
// are logged and answered with 500.
func WriteError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		BadRequest(ctx, err.Error())
	case errors.Is(err, store.ErrNotFound):
		NotFound(ctx, "Book not found")
	case errors.Is(err, store.ErrDuplicate):
		Conflict(ctx, err.Error())
	case errors.Is(err, genre.ErrModelUnavailable):
		Unavailable(ctx, err.Error())
	default:
		log.WithError(err).WithField("path", ctx.FullPath()).Error("Request failed")
		Internal(ctx, err.Error())
	}
}

// writeDegraded answers a prediction request that could not reach the model
// with the Unknown fallback and a 503.
func writeDegraded(ctx *gin.Context, err error) {
	ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, degradedResponse{
		Genre:  genre.Unknown,
		Scores: []any{},
		Error:  APIError{Code: CodeModelUnavailable, Message: err.Error()},
	})
}
