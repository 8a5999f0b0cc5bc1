package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityContext(t *testing.T) {
	t.Run("set and get identity successfully", func(t *testing.T) {
		want := &Identity{UID: "user-42", Email: "user@example.com"}

		ctx := WithIdentity(context.Background(), want)
		got, err := GetIdentity(ctx)

		require.NoError(t, err)
		assert.Same(t, want, got)
		assert.True(t, got.HasEmail())
	})

	t.Run("get identity from empty context returns error", func(t *testing.T) {
		_, err := GetIdentity(context.Background())

		assert.ErrorIs(t, err, ErrIdentityNotFound)
	})

	t.Run("a nil identity counts as absent", func(t *testing.T) {
		ctx := WithIdentity(context.Background(), nil)

		assert.False(t, HasIdentity(ctx))
	})

	t.Run("has identity returns true when identity exists", func(t *testing.T) {
		ctx := WithIdentity(context.Background(), &Identity{UID: "user-42"})

		assert.True(t, HasIdentity(ctx))
	})

	t.Run("identity without email", func(t *testing.T) {
		id := &Identity{UID: "user-42"}

		assert.False(t, id.HasEmail())
	})
}
