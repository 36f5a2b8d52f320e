package response_test

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kiranshivaraju/brandguard/internal/api/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestJSON_BareBodyNotCached(t *testing.T) {
	w := httptest.NewRecorder()
	response.JSON(w, map[string]string{"taskId": "a1b2c3d4", "status": "downloading"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	body := decode(t, w)
	assert.Equal(t, "downloading", body["status"])
	assert.NotContains(t, body, "data")
}

func TestAccepted(t *testing.T) {
	w := httptest.NewRecorder()
	response.Accepted(w, map[string]string{"taskId": "a1b2c3d4", "status": "pending"})

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "pending", decode(t, w)["status"])
}

func TestError_Envelope(t *testing.T) {
	w := httptest.NewRecorder()
	response.Error(w, http.StatusBadRequest, response.CodeInvalidRequest, "youtubeUrl is required", []string{
		"Field 'youtubeUrl' failed on the 'required' tag",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	errObj := decode(t, w)["error"].(map[string]any)
	assert.Equal(t, "INVALID_REQUEST", errObj["code"])
	assert.Equal(t, "youtubeUrl is required", errObj["message"])
	assert.Len(t, errObj["details"], 1)
}

func TestError_OmitsEmptyDetails(t *testing.T) {
	w := httptest.NewRecorder()
	response.Error(w, http.StatusNotFound, response.CodeTaskNotFound, "No audit task", nil)

	errObj := decode(t, w)["error"].(map[string]any)
	assert.Equal(t, "TASK_NOT_FOUND", errObj["code"])
	assert.NotContains(t, errObj, "details")
}

func TestTooManyRequests_RetryAfter(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{30 * time.Second, "30"},
		{1500 * time.Millisecond, "2"},
		{0, "1"},
	}
	for _, tc := range tests {
		w := httptest.NewRecorder()
		response.TooManyRequests(w, tc.in, response.CodeCapacityExhausted, "busy")

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, tc.want, w.Header().Get("Retry-After"), tc.in.String())
		assert.Equal(t, "CAPACITY_EXHAUSTED", decode(t, w)["error"].(map[string]any)["code"])
	}
}

func TestInternal(t *testing.T) {
	w := httptest.NewRecorder()
	response.Internal(w)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", decode(t, w)["error"].(map[string]any)["code"])
}

func TestJSON_UnencodableValue(t *testing.T) {
	w := httptest.NewRecorder()
	response.JSON(w, map[string]float64{"confidence": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", decode(t, w)["error"].(map[string]any)["code"])
}
