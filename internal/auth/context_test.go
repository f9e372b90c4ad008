package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	identity := Identity{ID: "id-1", Email: "a@x.com", Role: "admin"}
	ctx := ContextWithIdentity(context.Background(), identity)
	got, ok := IdentityFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, identity, got)

	// plain string keys cannot collide with the identity key
	ctx = context.WithValue(context.Background(), "identity", identity) //nolint:staticcheck
	_, ok = IdentityFromContext(ctx)
	assert.False(t, ok)
}
