package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusByKind(t *testing.T) {
	cases := map[error]int{
		InvalidInput("bad"):         http.StatusBadRequest,
		Unauthorized("no token"):    http.StatusUnauthorized,
		Forbidden("nope"):           http.StatusForbidden,
		NotFound("missing"):         http.StatusNotFound,
		Conflict("dup", nil):        http.StatusConflict,
		TooLarge("big"):             http.StatusRequestEntityTooLarge,
		Internal("boom", nil):       http.StatusInternalServerError,
		errors.New("plain failure"): http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, Status(err), err.Error())
	}
}

func TestStatusSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", NotFound("Order not found"))
	assert.Equal(t, http.StatusNotFound, Status(err))
	assert.True(t, Is(err, KindNotFound))
	assert.False(t, Is(err, KindConflict))
}

func TestErrorMessageFallsBackToCause(t *testing.T) {
	cause := errors.New("connection reset")
	e := Internal("", cause)
	assert.Equal(t, "connection reset", e.Error())
	assert.ErrorIs(t, e, cause)

	assert.Equal(t, "Forbidden", (&Error{Kind: KindForbidden}).Error())
}

func TestWithErrors(t *testing.T) {
	e := InvalidInput("out of stock").WithErrors([]string{"Pen"})
	assert.Equal(t, []string{"Pen"}, e.Errors)
}
