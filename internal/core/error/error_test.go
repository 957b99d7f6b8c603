package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSentinel = errors.New("sentinel")

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusOf(NotFound(errSentinel, "")))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusOf(Validation(errSentinel)))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errSentinel))

	wrapped := fmt.Errorf("lookup: %w", NotFound(errSentinel, "user not found"))
	assert.Equal(t, http.StatusNotFound, StatusOf(wrapped))
}

func TestAppError_IsAndUnwrap(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(errSentinel, http.StatusTeapot, "brew"))
	assert.True(t, errors.Is(err, errSentinel))

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusTeapot, appErr.Status)
	assert.Equal(t, "brew: sentinel", appErr.Error())
}

func TestWrapRedis(t *testing.T) {
	assert.Nil(t, WrapRedis(nil))
	assert.Equal(t, http.StatusNotFound, StatusOf(WrapRedis(redis.Nil)))
	assert.Equal(t, http.StatusBadGateway, StatusOf(WrapRedis(errSentinel)))
	assert.True(t, errors.Is(WrapRedis(redis.Nil), redis.Nil))
}
