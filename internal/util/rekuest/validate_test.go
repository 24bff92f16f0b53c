package rekuest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"

	"onegov.dev/electionday/internal/pkg/apperr"
)

type pageRequest struct {
	Title  string      `json:"title" validate:"required"`
	Name   string      `json:"name" validate:"urlname"`
	Type   null.String `json:"type" validate:"omitempty,max=16"`
	Domain string      `json:"domain" validate:"caseinsensitiveoneof=canton municipality"`
}

func TestValidStruct(t *testing.T) {
	assert.NoError(t, ValidStruct(&pageRequest{Title: "Wahlen", Name: "wahlen", Domain: "Canton"}))

	err := ValidStruct(&pageRequest{Name: "Not Normalized", Type: null.StringFrom("a-very-long-page-type"), Domain: "federation"})
	require.Error(t, err)

	var e *apperr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, apperr.CodeInvalidRequest, e.ErrorCode)

	got := e.Extras["violations"].([]*ErrorResponse)
	fields := make([]string, len(got))
	for i, v := range got {
		fields[i] = v.Field
	}
	assert.Equal(t, []string{"pageRequest.title", "pageRequest.name", "pageRequest.type", "pageRequest.domain"}, fields)
	assert.Equal(t, "title is a required field", got[0].Message)
	assert.Equal(t, "domain must be one of [canton municipality]", got[3].Message)
}

func TestValidVar(t *testing.T) {
	assert.NoError(t, ValidVar("abc123", "alphanum"))
	assert.Error(t, ValidVar("abc-123", "alphanum"))
}
