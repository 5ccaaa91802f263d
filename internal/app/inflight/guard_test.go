package inflight

import (
	"context"
	"testing"

	"paperarchive/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGuard(t *testing.T) {
	g := NewMemoryGuard()
	ctx := context.Background()

	release, err := g.Acquire(ctx, "papers", "p-1")
	require.NoError(t, err)

	_, err = g.Acquire(ctx, "papers", "p-1")
	assert.ErrorIs(t, err, common.ErrOperationInProgress)

	// Other rows and other entities are independent.
	releaseOther, err := g.Acquire(ctx, "papers", "p-2")
	require.NoError(t, err)
	releaseCat, err := g.Acquire(ctx, "categories", "p-1")
	require.NoError(t, err)

	release()
	release() // idempotent

	again, err := g.Acquire(ctx, "papers", "p-1")
	require.NoError(t, err)

	again()
	releaseOther()
	releaseCat()
}
