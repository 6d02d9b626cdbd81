package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryOfUnwrapsChains(t *testing.T) {
	base := NewNotFound("portfolio", "p-1")
	wrapped := fmt.Errorf("loading portfolio: %w", base)

	assert.Equal(t, CategoryNotFound, CategoryOf(wrapped))
	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, CategorySystem, CategoryOf(stderrors.New("plain")))
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewSyncFailure("AAPL", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "AAPL")
}

func TestRetryability(t *testing.T) {
	assert.True(t, IsRetryable(NewSyncFailure("X", nil)))
	assert.True(t, IsRetryable(NewPersistence("insert rankings", nil)))
	assert.False(t, IsRetryable(NewNotFound("session", "s-1")))
	assert.False(t, IsRetryable(NewValidation("from", "not a date")))
}

func TestHTTPStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NewNotFound("session", "s")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(NewValidation("to", "bad")))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(NewSyncFailure("X", nil)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(stderrors.New("boom")))
}
