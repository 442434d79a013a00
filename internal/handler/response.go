package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"weddingplan/internal/domain"
	"weddingplan/internal/middleware"
	"weddingplan/internal/parser"
	"weddingplan/internal/session"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	var rateErr *parser.RateLimitError
	switch {
	case errors.As(err, &rateErr):
		return http.StatusTooManyRequests, "EXTRACTION_RATE_LIMITED", "the extraction service is busy; try again shortly"
	case errors.Is(err, domain.ErrUnresolvedClarifications):
		return http.StatusConflict, "UNRESOLVED_CLARIFICATIONS", err.Error()
	case errors.Is(err, domain.ErrConfirmationRequired):
		return http.StatusConflict, "CONFIRMATION_REQUIRED", "optional clarifications are unanswered; execute with proceed=true to continue"
	case errors.Is(err, domain.ErrIncompleteOperation):
		return http.StatusUnprocessableEntity, "INCOMPLETE_OPERATION", err.Error()
	case errors.Is(err, domain.ErrNothingToExecute):
		return http.StatusUnprocessableEntity, "NOTHING_TO_EXECUTE", "import has no operations to execute"
	case errors.Is(err, domain.ErrExtractionInFlight):
		return http.StatusConflict, "EXTRACTION_IN_FLIGHT", "an extraction is already running for this import"
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "IMPORT_NOT_FOUND", "import not found or expired"
	case errors.Is(err, domain.ErrSessionClosed):
		return http.StatusConflict, "IMPORT_CLOSED", "import is no longer open"
	case errors.Is(err, domain.ErrClarificationNotFound):
		return http.StatusNotFound, "CLARIFICATION_NOT_FOUND", "clarification not found"
	case errors.Is(err, domain.ErrOperationNotFound):
		return http.StatusNotFound, "OPERATION_NOT_FOUND", "operation not found"
	case errors.Is(err, domain.ErrInvalidChoice):
		return http.StatusBadRequest, "INVALID_CHOICE", "answer is not one of the offered choices"
	case errors.Is(err, domain.ErrEmptyInput):
		return http.StatusBadRequest, "EMPTY_INPUT", "provide text or a PDF file"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type; allowed: pdf"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrExtractionFailed):
		return http.StatusBadGateway, "EXTRACTION_FAILED", "could not read vendors from the input; try rephrasing or another file"
	case errors.Is(err, domain.ErrVendorNotFound):
		return http.StatusNotFound, "VENDOR_NOT_FOUND", "vendor not found"
	case errors.Is(err, domain.ErrPaymentNotFound):
		return http.StatusNotFound, "PAYMENT_NOT_FOUND", "payment not found"
	case errors.Is(err, domain.ErrInvalidVendorType):
		return http.StatusBadRequest, "INVALID_VENDOR_TYPE", "vendor_type is missing or not a known vendor type"
	case errors.Is(err, domain.ErrInvalidPaymentType):
		return http.StatusBadRequest, "INVALID_PAYMENT_TYPE", "payment_type must be cash or bank_transfer"
	case errors.Is(err, domain.ErrInvalidCurrency):
		return http.StatusBadRequest, "INVALID_CURRENCY", "currencies must be 3-letter ISO 4217 codes"
	case errors.Is(err, domain.ErrIncompletePayment):
		return http.StatusUnprocessableEntity, "INCOMPLETE_PAYMENT", "new payments need a description, an amount and a payment type"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", "forbidden"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, log *zap.Logger, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 && log != nil {
		log.Error("handler: internal error",
			zap.String("request_id", c.GetString(middleware.ContextKeyRequestID)),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}

	apiErr := &APIError{Code: code, Message: msg}
	var blocked *session.BlockedError
	if errors.As(err, &blocked) {
		apiErr.Details = gin.H{"clarifications": blocked.Clarifications}
	}
	var rateErr *parser.RateLimitError
	if errors.As(err, &rateErr) && rateErr.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(rateErr.RetryAfter.Round(time.Second)/time.Second)))
	}
	c.JSON(status, APIResponse{Success: false, Error: apiErr})
}

// weddingContext extracts the wedding ID from the request context.
// Returns false if auth context is missing (error response already written).
func weddingContext(c *gin.Context) (uuid.UUID, bool) {
	weddingID, err := middleware.GetWeddingID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing wedding context")
		return uuid.Nil, false
	}
	return weddingID, true
}

// pathUUID parses a UUID path parameter, writing a 400 when malformed.
func pathUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid "+param+" format")
		return uuid.Nil, false
	}
	return id, true
}
