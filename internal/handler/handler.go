package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"beauty-kart/internal/gateway"
	"beauty-kart/internal/middleware"
	"beauty-kart/internal/model"
	"beauty-kart/internal/service"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Views resolves the cart view of a session.
type Views interface {
	Get(ctx context.Context, sessionID string) *service.CartView
}

func viewFor(views Views, r *http.Request) *service.CartView {
	return views.Get(r.Context(), middleware.SessionID(r.Context()))
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already out; a failed encode only truncates the body.
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps err to a status code and writes the standard error body.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	status, code, message := describeError(err)
	requestID := chimiddleware.GetReqID(r.Context())

	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).
		Str("code", code).
		Int("status", status).
		Str("request_id", requestID).
		Msg("handler error")

	writeJSON(w, status, model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: requestID,
	})
}

// describeError returns the HTTP status, error code and client-facing message for err.
func describeError(err error) (int, string, string) {
	var domainErr *model.DomainError
	if !errors.As(err, &domainErr) {
		return http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error"
	}

	status := statusFor(domainErr.Code)
	message := domainErr.Message

	switch domainErr.Code {
	case model.ErrCodeValidation, model.ErrCodeInvalidQuantity, model.ErrCodeEmptyCart:
		// Raised locally with user-readable detail.
		message = err.Error()
	}

	// Remote rejections carry the API's own explanation.
	var remoteErr *gateway.Error
	if errors.As(err, &remoteErr) && remoteErr.Status >= 400 && remoteErr.Status < 500 && remoteErr.Message != "" {
		message = remoteErr.Message
	}

	return status, domainErr.Code, message
}

func statusFor(code string) int {
	switch code {
	case model.ErrCodeInvalidJSON, model.ErrCodeValidation, model.ErrCodeInvalidQuantity, model.ErrCodeEmptyCart:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorised, model.ErrCodeNotAuthenticated:
		return http.StatusUnauthorized
	case model.ErrCodeNotFound:
		return http.StatusNotFound
	case model.ErrCodeInsufficientStock:
		return http.StatusConflict
	case model.ErrCodeRemoteRejected:
		return http.StatusUnprocessableEntity
	case model.ErrCodeNetworkFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

var errInvalidJSON = model.NewDomainError(model.ErrCodeInvalidJSON, "Request body is not valid JSON")

// decodeJSON decodes a request body of at most 64 KiB into v.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<16)).Decode(v); err != nil {
		return errInvalidJSON
	}
	return nil
}

func migrationResponse(result *service.MigrationResult) *model.MigrationResponse {
	if result == nil {
		return nil
	}

	skipped := make([]model.SkippedLineResponse, 0, len(result.Skipped))
	for _, s := range result.Skipped {
		reason := model.ErrCodeInternalError
		var domainErr *model.DomainError
		if errors.As(s.Reason, &domainErr) {
			reason = domainErr.Code
		}
		skipped = append(skipped, model.SkippedLineResponse{
			ProductID: s.Line.ProductID,
			Name:      s.Line.Name,
			Quantity:  s.Line.Quantity,
			Reason:    reason,
		})
	}

	return &model.MigrationResponse{
		CartID:   result.CartID,
		Migrated: result.Migrated,
		Skipped:  skipped,
		Message:  result.Summary(),
	}
}
