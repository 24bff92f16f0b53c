package apperr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImmutable(t *testing.T) {
	e := New(400, CodeInvalidRequest, "invalid request: some or all request parameters are invalid")

	changed := e.Msg("%s", "changed")
	assert.Equal(t, "invalid request: some or all request parameters are invalid", e.Message)
	assert.Equal(t, "changed", changed.Message)

	extended := changed.WithExtras(Extras{"a": 1}).WithExtras(Extras{"b": 2})
	assert.Nil(t, e.Extras)
	assert.Nil(t, changed.Extras)
	assert.Equal(t, Extras{"a": 1, "b": 2}, extended.Extras)
}

func TestNewInvalidViolations(t *testing.T) {
	e := NewInvalidViolations([]string{"title is required"})
	assert.Equal(t, CodeInvalidRequest, e.ErrorCode)
	assert.Equal(t, []string{"title is required"}, e.Extras["violations"])
	assert.Nil(t, ErrInvalidReq.Extras)
	assert.Equal(t, "INVALID_REQUEST: invalid request: some or all request parameters are invalid", e.Error())
}
