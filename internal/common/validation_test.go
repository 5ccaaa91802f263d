package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type form struct {
	Title string `json:"title" validate:"required"`
	Year  int    `json:"year" validate:"gte=1900,lte=2100"`
	URL   string `json:"paper_url" validate:"omitempty,url"`
}

func TestValidatorStruct(t *testing.T) {
	v := NewValidator()

	require.NoError(t, v.Struct(form{Title: "Paper I", Year: 2023}))
	require.NoError(t, v.Struct(form{Title: "Paper I", Year: 2023, URL: "https://example.com/p1.pdf"}))

	err := v.Struct(form{Year: 1800, URL: "not a url"})
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "this field is required", vErr.Fields["title"])
	assert.Contains(t, vErr.Fields, "year")
	assert.Contains(t, vErr.Fields, "paper_url")
	assert.Len(t, vErr.Fields, 3)
}
