package errors

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	err := New(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	assert.Equal(t, "Resource not found", err.Error())
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "NOT_FOUND", err.ErrorCode)
}

func TestRenderSetsStatus(t *testing.T) {
	apiErr := InsufficientDataError(fmt.Errorf("3 matching observations, need at least 10"))

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/forecast", nil)
	w := httptest.NewRecorder()
	require.NoError(t, apiErr.Render(w, req))

	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "INSUFFICIENT_DATA", apiErr.ErrorCode)
	assert.Contains(t, apiErr.Details, "need at least 10")
}

func TestNotFoundError(t *testing.T) {
	err := NotFoundError("analyzer")
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "analyzer not found", err.Message)
	assert.Equal(t, "analyzer", err.Details)
}
