package common

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestEnsureRequestID(t *testing.T) {
	ctx, id := EnsureRequestID(context.Background(), "abc")
	assert.Equal(t, "abc", id)
	assert.Equal(t, "abc", RequestIDFromContext(ctx))

	ctx, id = EnsureRequestID(context.Background(), "")
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.Equal(t, id, RequestIDFromContext(ctx))

	assert.Empty(t, RequestIDFromContext(context.Background()))
}
