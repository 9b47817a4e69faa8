package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeValidation        = "VALIDATION_FAILURE"
	ErrCodeInvalidQuantity   = "INVALID_QUANTITY"
	ErrCodeStorageCorruption = "STORAGE_CORRUPTION"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"
	ErrCodeNetworkFailure    = "NETWORK_FAILURE"
	ErrCodeRemoteRejected    = "REMOTE_REJECTED"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeNotAuthenticated  = "NOT_AUTHENTICATED"
	ErrCodeEmptyCart         = "EMPTY_CART"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrValidation        = NewDomainError(ErrCodeValidation, "Request is invalid")
	ErrInvalidQuantity   = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrStorageCorruption = NewDomainError(ErrCodeStorageCorruption, "Persisted cart is malformed")
	ErrNotFound          = NewDomainError(ErrCodeNotFound, "Resource not found")
	ErrInsufficientStock = NewDomainError(ErrCodeInsufficientStock, "Insufficient stock for this product")
	ErrNetworkFailure    = NewDomainError(ErrCodeNetworkFailure, "Remote API is unreachable")
	ErrRemoteRejected    = NewDomainError(ErrCodeRemoteRejected, "Remote API rejected the request")
	ErrUnauthorised      = NewDomainError(ErrCodeUnauthorised, "Remote API refused the credentials")
	ErrNotAuthenticated  = NewDomainError(ErrCodeNotAuthenticated, "Login is required for this action")
	ErrEmptyCart         = NewDomainError(ErrCodeEmptyCart, "Cart is empty")
)
