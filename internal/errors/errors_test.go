package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIErrorInterface(t *testing.T) {
	err := New(http.StatusBadRequest, "INVALID_REQUEST", "bad input")
	assert.Equal(t, "bad input", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", err.ErrorCode)
}

func TestNewWithDetails(t *testing.T) {
	err := NewWithDetails(http.StatusNotFound, "NOT_FOUND", "missing", "conversation")
	assert.Equal(t, "conversation", err.Details)
}

func TestErrValidation(t *testing.T) {
	err := ErrValidation("businessId", "is required")
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)

	detail, ok := err.Details.(ValidationError)
	require.True(t, ok)
	assert.Equal(t, "businessId", detail.Field)
	assert.Equal(t, "is required", detail.Message)
}

func TestStorageError(t *testing.T) {
	err := StorageError("insert", errors.New("connection refused"))
	assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
	assert.Equal(t, "STORAGE_ERROR", err.ErrorCode)
	assert.Contains(t, err.Message, "insert")
	assert.Equal(t, "connection refused", err.Details)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrConversationNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "CONVERSATION_NOT_FOUND", resp.Error.ErrorCode)
}
