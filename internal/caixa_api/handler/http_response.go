package handler

import (
	"errors"
	"net/http"

	"github.com/caixa-installment-ledger/internal/caixa_api/middleware"
	"github.com/caixa-installment-ledger/internal/domain/directory"
	"github.com/caixa-installment-ledger/internal/domain/payment"
	"github.com/gin-gonic/gin"
)

// Error codes returned in ErrorInfo.Code
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodePersistenceFailure = "PERSISTENCE_FAILURE"
	CodeConsistency        = "CONSISTENCY_VIOLATION"
	CodeInternal           = "INTERNAL_SERVER_ERROR"
)

// Response represents a standard API response
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Meta          *MetaInfo   `json:"meta,omitempty"`
}

// ErrorInfo represents error information in a response
type ErrorInfo struct {
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	Details   []string `json:"details,omitempty"`
	Retryable bool     `json:"retryable,omitempty"`
}

// MetaInfo represents metadata in a response
type MetaInfo struct {
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	TotalPages int `json:"total_pages"`
	TotalItems int `json:"total_items"`
}

// NewPaginatedResponse creates a new paginated response
func NewPaginatedResponse(data interface{}, page, perPage, totalItems int) *Response {
	totalPages := 0
	if perPage > 0 {
		totalPages = totalItems / perPage
		if totalItems%perPage > 0 {
			totalPages++
		}
	}

	return &Response{
		Data: data,
		Meta: &MetaInfo{
			Page:       page,
			PerPage:    perPage,
			TotalPages: totalPages,
			TotalItems: totalItems,
		},
	}
}

// RespondWithData sends a JSON response with data
func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, &Response{
		Data:          data,
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

func respondWithErrorInfo(c *gin.Context, statusCode int, info *ErrorInfo) {
	c.JSON(statusCode, &Response{
		Error:         info,
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

// RespondWithError sends a JSON response with an error
func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	respondWithErrorInfo(c, statusCode, &ErrorInfo{Code: code, Message: message})
}

// RespondWithPaginatedData sends a JSON response with paginated data
func RespondWithPaginatedData(c *gin.Context, statusCode int, data interface{}, page, perPage, totalItems int) {
	response := NewPaginatedResponse(data, page, perPage, totalItems)
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

// RespondOK sends a 200 OK response with data
func RespondOK(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusOK, data)
}

// RespondCreated sends a 201 Created response with data
func RespondCreated(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusCreated, data)
}

// RespondNoContent sends a 204 No Content response
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// RespondValidationError sends a 400 with every problem found in the request
func RespondValidationError(c *gin.Context, problems ...string) {
	respondWithErrorInfo(c, http.StatusBadRequest, &ErrorInfo{
		Code:    CodeValidation,
		Message: "The request is invalid",
		Details: problems,
	})
}

// RespondNotFound sends a 404 Not Found response with an error
func RespondNotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, CodeNotFound, message)
}

// RespondConflict sends a 409 Conflict response with an error
func RespondConflict(c *gin.Context, message string) {
	RespondWithError(c, http.StatusConflict, CodeConflict, message)
}

// RespondInternalError sends a 500 Internal Server Error response with an error
func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, CodeInternal, "An internal server error occurred")
}

// RespondServiceError maps a ledger error to its HTTP status
func RespondServiceError(c *gin.Context, err error) {
	var (
		validation  payment.ValidationError
		concurrent  payment.ErrConcurrentModification
		consistency payment.ConsistencyViolation
		persistence payment.PersistenceFailure
	)

	switch {
	case errors.As(err, &validation):
		RespondValidationError(c, validation.Problems...)
	case errors.Is(err, payment.ErrNotFound), errors.Is(err, directory.ErrReferenceNotFound{}):
		RespondNotFound(c, err.Error())
	case errors.As(err, &concurrent):
		RespondConflict(c, "The installment was modified by another request, retry")
	case errors.As(err, &consistency):
		RespondWithError(c, http.StatusInternalServerError, CodeConsistency, "The ledger refused an inconsistent payment")
	case errors.As(err, &persistence):
		respondWithErrorInfo(c, http.StatusServiceUnavailable, &ErrorInfo{
			Code:      CodePersistenceFailure,
			Message:   "The ledger is temporarily unavailable, nothing was written",
			Retryable: persistence.Retryable(),
		})
	default:
		RespondInternalError(c)
	}
}
