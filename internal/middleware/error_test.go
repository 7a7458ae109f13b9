package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pamazon/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var catalogErrors = []error{
	domain.ErrMissingField,
	domain.ErrInvalidPrice,
	domain.ErrInvalidImageURL,
	domain.ErrNotAuthenticated,
	domain.ErrUnauthorized,
	domain.ErrNotFound,
	domain.ErrStoreUnavailable,
}

func decodeErrorResponse(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestRespondWithDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		kind   domain.ErrorKind
	}{
		{domain.ErrMissingField, http.StatusBadRequest, domain.KindMissingField},
		{domain.ErrInvalidPrice, http.StatusBadRequest, domain.KindInvalidPrice},
		{domain.ErrInvalidImageURL, http.StatusBadRequest, domain.KindInvalidImageURL},
		{domain.ErrNotAuthenticated, http.StatusUnauthorized, domain.KindNotAuthenticated},
		{domain.ErrUnauthorized, http.StatusForbidden, domain.KindUnauthorized},
		{domain.ErrNotFound, http.StatusNotFound, domain.KindNotFound},
		{fmt.Errorf("%w: connection refused", domain.ErrStoreUnavailable), http.StatusServiceUnavailable, domain.KindStoreUnavailable},
		{errors.New("boom"), http.StatusInternalServerError, domain.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			w := httptest.NewRecorder()
			RespondWithDomainError(w, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			response := decodeErrorResponse(t, w)
			assert.Equal(t, http.StatusText(tt.status), response.Error.Code)
			assert.Equal(t, string(tt.kind), response.Error.Details["kind"])
			assert.NotContains(t, response.Error.Message, "connection refused")
			assert.NotContains(t, response.Error.Message, "boom")

			_, err := time.Parse(time.RFC3339, response.Error.Timestamp)
			assert.NoError(t, err)
		})
	}
}

// Feature: storefront, Property 17: Catalog errors render their kind without leaking causes
func TestProperty_CatalogErrorsRenderKindWithoutCause(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("wrapped catalog errors keep their status and hide the cause", prop.ForAll(
		func(idx int, cause string) bool {
			sentinel := catalogErrors[idx]
			err := fmt.Errorf("failed to handle product: %w: %s", sentinel, cause)

			w := httptest.NewRecorder()
			RespondWithDomainError(w, err)

			kind := domain.KindOf(sentinel)
			if w.Code != StatusForKind(kind) {
				return false
			}

			var response ErrorResponse
			if json.Unmarshal(w.Body.Bytes(), &response) != nil {
				return false
			}
			return response.Error.Details["kind"] == string(kind) &&
				response.Error.Message == sentinel.Error()
		},
		gen.IntRange(0, len(catalogErrors)-1),
		gen.RegexMatch(`driver: [a-z]{8,16}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestStatusForKind_UnknownKindIsInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusForKind(domain.KindUnknown))
	assert.Equal(t, http.StatusInternalServerError, StatusForKind("SomethingElse"))
}

func TestRespondWithValidationErrors(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithValidationErrors(w, []ValidationError{{Field: "name", Message: "name is required"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := decodeErrorResponse(t, w)
	assert.Equal(t, "validation failed", response.Error.Message)

	fields, ok := response.Error.Details["validation_errors"].([]interface{})
	require.True(t, ok)
	require.Len(t, fields, 1)
	assert.Equal(t, "name", fields[0].(map[string]interface{})["field"])
}

func TestErrorHandlingMiddleware_RecoversPanics(t *testing.T) {
	handler := ErrorHandlingMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil snapshot")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decodeErrorResponse(t, w).Error.Message)
}
