package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/konorlevich/dealership_api/internal/rest-service/records"
)

const (
	codeValidation  = "validation_error"
	codeNotFound    = "not_found"
	codeTooLarge    = "payload_too_large"
	codeStorage     = "storage_error"
	codePersistence = "persistence_error"
	codeInternal    = "internal_error"
)

// envelope is the body of every API response.
type envelope struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Data    any       `json:"data,omitempty"`
	Error   string    `json:"error,omitempty"`
	Meta    *pageMeta `json:"meta,omitempty"`
}

type pageMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func newPageMeta(page, limit int, total int64) *pageMeta {
	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	return &pageMeta{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

func success(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

// failure writes the error response for err. Only validation messages are
// passed through to the client.
func failure(c *gin.Context, noun string, err error) {
	status, code, message := classify(noun, err)
	c.AbortWithStatusJSON(status, envelope{Success: false, Message: message, Error: code})
}

func classify(noun string, err error) (int, string, string) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge, codeTooLarge, errBodyTooLarge.Error()
	case errors.Is(err, records.ErrValidation):
		return http.StatusBadRequest, codeValidation, err.Error()
	case errors.Is(err, records.ErrNotFound):
		return http.StatusNotFound, codeNotFound, noun + " not found"
	case errors.Is(err, records.ErrStorage):
		return http.StatusInternalServerError, codeStorage, records.ErrStorage.Error()
	case errors.Is(err, records.ErrPersistence):
		return http.StatusInternalServerError, codePersistence, records.ErrPersistence.Error()
	default:
		return http.StatusInternalServerError, codeInternal, "internal server error"
	}
}
