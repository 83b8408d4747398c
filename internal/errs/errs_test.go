package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := fmt.Errorf("follow: %w", New(KindConflict, "request already pending"))

	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "request already pending", Message(err))
}

func TestKindOf_PlainError(t *testing.T) {
	err := errors.New("boom")

	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "internal error", Message(err))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(KindUnavailable, nil, "redis"))

	cause := errors.New("dial tcp: refused")
	err := Wrap(KindUnavailable, cause, "presence store unavailable")

	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsTransient(err))
	assert.Contains(t, err.Error(), "dial tcp")
}

func TestHTTPStatusRoundTrip(t *testing.T) {
	kinds := []Kind{KindNotFound, KindValidation, KindConflict, KindForbidden,
		KindUnauthorized, KindRateLimited, KindUnavailable, KindInternal}

	for _, k := range kinds {
		t.Run(string(k), func(t *testing.T) {
			assert.Equal(t, k, FromHTTPStatus(HTTPStatus(k)))
		})
	}
	assert.Equal(t, KindUnavailable, FromHTTPStatus(http.StatusBadGateway))
}
