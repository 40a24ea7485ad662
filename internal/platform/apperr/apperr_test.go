package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCodes(t *testing.T) {
	cases := []struct {
		err  *AppError
		want int
	}{
		{BadRequest("c", "m", nil), http.StatusBadRequest},
		{NotFound("c", "m", nil), http.StatusNotFound},
		{Unauthorized("c", "m", nil), http.StatusUnauthorized},
		{Forbidden("c", "m", nil), http.StatusForbidden},
		{TooManyRequests("c", "m", nil), http.StatusTooManyRequests},
		{Internal("c", "m", nil), http.StatusInternalServerError},
		{&AppError{}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.err.StatusCode())
	}
}

func TestFromErrorUnwrapsWrappedAppError(t *testing.T) {
	inner := NotFound("not_found", "Invoice not found", nil)
	wrapped := fmt.Errorf("handler: %w", inner)

	got := FromError(wrapped)
	require.Same(t, inner, got)

	cause := errors.New("boom")
	internal := FromError(cause)
	assert.Equal(t, http.StatusInternalServerError, internal.StatusCode())
	assert.ErrorIs(t, internal, cause)
	assert.Nil(t, FromError(nil))
}

func TestJSONShape(t *testing.T) {
	body, err := json.Marshal(Unauthorized("invalid_credentials", "Invalid email or password", errors.New("secret detail")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"invalid_credentials","error":"Invalid email or password"}`, string(body))
}
