package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation(CodeInvalidQuantity, "bad"), http.StatusBadRequest},
		{"auth", Auth(CodeInvalidCredentials, "no"), http.StatusUnauthorized},
		{"forbidden", Forbidden(CodeForbidden, "no"), http.StatusForbidden},
		{"not found", NotFound(CodeRequestNotFound, "gone"), http.StatusNotFound},
		{"conflict", Conflict(CodeUserExists, "dup"), http.StatusConflict},
		{"state conflict", StateConflict(CodeRequestNotPending, "done"), http.StatusBadRequest},
		{"unavailable", Unavailable(CodeUploadsDisabled, "off"), http.StatusServiceUnavailable},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("ctx: %w", NotFound(CodeOrderNotFound, "x")), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestStateConflictKeepsKind(t *testing.T) {
	err := StateConflict(CodeRequestNotPending, "already decided")
	assert.True(t, Is(err, KindConflict))
	assert.True(t, HasCode(err, CodeRequestNotPending))
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New("mongo: socket closed")
	e := From(cause)
	assert.Equal(t, "internal server error", e.Message)
	assert.ErrorIs(t, e, cause)
}
