package repository

import (
	"fmt"
	"testing"

	"paperarchive/internal/common"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "calculus", want: "calculus"},
		{in: "100%", want: `100\%`},
		{in: "paper_1", want: `paper\_1`},
		{in: `a\b`, want: `a\\b`},
		{in: `%_\`, want: `\%\_\\`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeLike(tt.in), "escapeLike(%q)", tt.in)
	}
}

func TestNullIfEmpty(t *testing.T) {
	assert.Nil(t, nullIfEmpty(""))
	if got := nullIfEmpty("x"); assert.NotNil(t, got) {
		assert.Equal(t, "x", *got)
	}
}

func TestMapWriteError(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", Detail: "Key (slug)=(maths) already exists."}
	assert.ErrorIs(t, mapWriteError("create", unique), common.ErrConflict)

	fk := &pgconn.PgError{Code: "23503"}
	err := mapWriteError("create", fk)
	assert.ErrorIs(t, err, common.ErrBadRequest)
	assert.Contains(t, err.Error(), "referenced category does not exist")

	other := fmt.Errorf("connection reset")
	err = mapWriteError("create", other)
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, common.ErrConflict)
}
