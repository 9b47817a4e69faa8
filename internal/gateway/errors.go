package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"beauty-kart/internal/model"
)

// Error is a failed remote call. Err is one of the model sentinel errors so
// callers classify failures with errors.Is.
type Error struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: remote returned %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// networkError wraps a transport failure.
func networkError(op string, err error) *Error {
	return &Error{
		Op:      op,
		Message: err.Error(),
		Err:     model.ErrNetworkFailure,
	}
}

// statusError classifies a non-2xx answer.
func statusError(op string, status int, body []byte) *Error {
	message := extractMessage(body)
	if message == "" {
		message = http.StatusText(status)
	}

	return &Error{
		Op:      op,
		Status:  status,
		Message: message,
		Err:     classify(status, message),
	}
}

func classify(status int, message string) error {
	switch {
	case status == http.StatusNotFound:
		return model.ErrNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return model.ErrUnauthorised
	case status == http.StatusConflict:
		return model.ErrInsufficientStock
	case status >= 500:
		return model.ErrNetworkFailure
	case mentionsStock(message):
		return model.ErrInsufficientStock
	default:
		return model.ErrRemoteRejected
	}
}

func mentionsStock(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "stock")
}

// isServerFault reports whether err should count against the circuit breaker.
func isServerFault(err error) bool {
	gwErr, ok := err.(*Error)
	if !ok {
		return true
	}
	return gwErr.Status == 0 || gwErr.Status >= 500
}

// extractMessage pulls a human readable message from an error body.
func extractMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}

	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
