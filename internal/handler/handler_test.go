package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"beauty-kart/internal/gateway"
	"beauty-kart/internal/model"
	"beauty-kart/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		data         any
		expectedBody string
	}{
		{
			name:         "Object body",
			status:       http.StatusCreated,
			data:         map[string]string{"orderId": "order-1"},
			expectedBody: `{"orderId":"order-1"}`,
		},
		{
			name:         "Unencodable body keeps the status",
			status:       http.StatusOK,
			data:         map[string]any{"bad": make(chan int)},
			expectedBody: ``,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			writeJSON(w, tt.status, tt.data)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			if tt.expectedBody == "" {
				assert.Empty(t, w.Body.String())
			} else {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedCode    string
		expectedMessage string
	}{
		{
			name:            "Validation keeps its detail",
			err:             fmt.Errorf("%w: productId is required", model.ErrValidation),
			expectedStatus:  http.StatusBadRequest,
			expectedCode:    model.ErrCodeValidation,
			expectedMessage: "Request is invalid: productId is required",
		},
		{
			name:            "Empty cart carries the migration summary",
			err:             fmt.Errorf("%w: 1 item(s) could not be added (insufficient stock)", model.ErrEmptyCart),
			expectedStatus:  http.StatusBadRequest,
			expectedCode:    model.ErrCodeEmptyCart,
			expectedMessage: "Cart is empty: 1 item(s) could not be added (insufficient stock)",
		},
		{
			name: "Remote stock rejection uses the remote message",
			err: fmt.Errorf("failed to add line: %w", &gateway.Error{
				Op: "add line", Status: http.StatusBadRequest, Message: "Stock insuffisant", Err: model.ErrInsufficientStock,
			}),
			expectedStatus:  http.StatusConflict,
			expectedCode:    model.ErrCodeInsufficientStock,
			expectedMessage: "Stock insuffisant",
		},
		{
			name: "Remote server fault hides its detail",
			err: &gateway.Error{
				Op: "get product", Status: http.StatusInternalServerError, Message: "stack trace", Err: model.ErrNetworkFailure,
			},
			expectedStatus:  http.StatusBadGateway,
			expectedCode:    model.ErrCodeNetworkFailure,
			expectedMessage: model.ErrNetworkFailure.Message,
		},
		{
			name:            "Not found",
			err:             fmt.Errorf("failed to get product: %w", model.ErrNotFound),
			expectedStatus:  http.StatusNotFound,
			expectedCode:    model.ErrCodeNotFound,
			expectedMessage: model.ErrNotFound.Message,
		},
		{
			name:            "Not authenticated",
			err:             model.ErrNotAuthenticated,
			expectedStatus:  http.StatusUnauthorized,
			expectedCode:    model.ErrCodeNotAuthenticated,
			expectedMessage: model.ErrNotAuthenticated.Message,
		},
		{
			name:            "Remote rejection",
			err:             model.ErrRemoteRejected,
			expectedStatus:  http.StatusUnprocessableEntity,
			expectedCode:    model.ErrCodeRemoteRejected,
			expectedMessage: model.ErrRemoteRejected.Message,
		},
		{
			name:            "Unclassified error",
			err:             errors.New("boom"),
			expectedStatus:  http.StatusInternalServerError,
			expectedCode:    model.ErrCodeInternalError,
			expectedMessage: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, message := describeError(tt.err)

			assert.Equal(t, tt.expectedStatus, status)
			assert.Equal(t, tt.expectedCode, code)
			assert.Equal(t, tt.expectedMessage, message)
		})
	}
}

func TestMigrationResponse(t *testing.T) {
	assert.Nil(t, migrationResponse(nil))

	resp := migrationResponse(&service.MigrationResult{
		CartID:   "cart-1",
		Migrated: 1,
		Skipped: []service.SkippedLine{
			{Line: model.CartLine{ProductID: "P001", Name: "Sérum éclat", Quantity: 4}, Reason: model.ErrInsufficientStock},
			{Line: model.CartLine{ProductID: "P002", Name: "Crème de nuit", Quantity: 1}, Reason: errors.New("boom")},
		},
	})

	require.NotNil(t, resp)
	assert.Equal(t, "cart-1", resp.CartID)
	assert.Equal(t, 1, resp.Migrated)
	require.Len(t, resp.Skipped, 2)
	assert.Equal(t, model.ErrCodeInsufficientStock, resp.Skipped[0].Reason)
	assert.Equal(t, 4, resp.Skipped[0].Quantity)
	assert.Equal(t, model.ErrCodeInternalError, resp.Skipped[1].Reason)
	assert.Equal(t, "2 item(s) could not be added to your cart", resp.Message)
}
