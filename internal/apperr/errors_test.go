package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	cases := map[*Error]int{
		Validation("V", "bad"):       http.StatusBadRequest,
		Unauthorized("U", "who"):     http.StatusUnauthorized,
		Forbidden("F", "no"):         http.StatusForbidden,
		NotFound("N", "gone"):        http.StatusNotFound,
		Conflict("C", "dup"):         http.StatusConflict,
		RateLimited("R", "slow"):     http.StatusTooManyRequests,
		Unavailable("D", "down"):     http.StatusServiceUnavailable,
		Internal(errors.New("boom")): http.StatusInternalServerError,
	}
	for err, status := range cases {
		assert.Equal(t, status, err.Status(), err.Code)
	}
}

func TestFromUnwrapsWrappedErrors(t *testing.T) {
	base := NotFound("EVENT_NOT_FOUND", "event %d not found", 7)
	wrapped := fmt.Errorf("loading detail: %w", base)

	got := From(wrapped)
	assert.Same(t, base, got)
	assert.Equal(t, "event 7 not found", got.Message)
	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(wrapped, KindForbidden))
}

func TestFromWrapsPlainErrorsAsInternal(t *testing.T) {
	cause := errors.New("connection reset")
	got := From(cause)

	assert.Equal(t, KindInternal, got.Kind)
	assert.ErrorIs(t, got, cause)
	assert.NotContains(t, got.Message, "connection reset")
}
