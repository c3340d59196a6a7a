package apperr_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"orderlyflow/internal/apperr"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := apperr.Validation("position is required")

	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.False(t, errors.Is(err, apperr.ErrNotFound))
	assert.Equal(t, "position is required", err.Error())
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := apperr.Wrap(apperr.CodeUnavailable, "request failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
	assert.Equal(t, "request failed: dial tcp: refused", err.Error())
}

func TestFromStatusRoundTrip(t *testing.T) {
	for _, code := range []apperr.Code{
		apperr.CodeValidation,
		apperr.CodeUnauthorized,
		apperr.CodeForbidden,
		apperr.CodeNotFound,
		apperr.CodeUnavailable,
		apperr.CodeTimeout,
		apperr.CodeInternal,
	} {
		assert.Equal(t, code, apperr.FromStatus(code.HTTPStatus()), code)
	}
	assert.Equal(t, apperr.CodeInternal, apperr.FromStatus(http.StatusTeapot))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, apperr.Code(""), apperr.CodeOf(nil))
	assert.Equal(t, apperr.CodeTimeout, apperr.CodeOf(fmt.Errorf("call: %w", context.DeadlineExceeded)))
	assert.Equal(t, apperr.CodeUnavailable, apperr.CodeOf(errors.New("boom")))
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(fmt.Errorf("delete: %w", apperr.Forbidden("not yours"))))
}

func TestNotice(t *testing.T) {
	assert.Contains(t, apperr.Notice(apperr.NotFound("item gone")), "Not found")
	assert.Equal(t, "Failed to save changes", apperr.Notice(errors.New("network down")))
}
