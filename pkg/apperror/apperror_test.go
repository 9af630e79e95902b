package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindAuthorization, KindOf(Authorization("nope")))
	assert.Equal(t, KindValidation, KindOf(Validation("bad")))
	assert.Equal(t, KindConflict, KindOf(Conflict("dup")))
	assert.Equal(t, KindInvalidTransition, KindOf(InvalidTransition("PENDING", "DELIVERED")))
	assert.Equal(t, KindNotFound, KindOf(NotFound("gone")))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))

	// a typed error stays recognizable through fmt wrapping
	wrapped := fmt.Errorf("transition failed: %w", Conflict("dup"))
	assert.True(t, IsConflict(wrapped))
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := errors.New("parse failure")
	err := Validation("invalid worker id").Wrap(cause)

	assert.True(t, IsValidation(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "invalid worker id: parse failure", err.Error())
}

func TestRemainingOf(t *testing.T) {
	remaining, ok := RemainingOf(ValidationRemaining(5, "only %d left", 5))
	assert.True(t, ok)
	assert.Equal(t, 5, remaining)

	// negative headroom survives untouched
	remaining, ok = RemainingOf(ValidationRemaining(-3, "over cap"))
	assert.True(t, ok)
	assert.Equal(t, -3, remaining)

	_, ok = RemainingOf(Validation("no headroom attached"))
	assert.False(t, ok)
	_, ok = RemainingOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, HTTPStatus(Authorization("nope")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Validation("bad")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(Conflict("dup")))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(InvalidTransition("APPROVED", "PENDING")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("gone")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}
