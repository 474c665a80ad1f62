package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/homecare/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTokenStoreContract runs a suite of tests to verify that a TokenStore implementation
// adheres to the defined interface contract.
func RunTokenStoreContract(t *testing.T, store TokenStore) {
	ctx := context.Background()
	clientID := "contract-client-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		tok := Token{UserID: "user-1", SavedAt: time.Now().UTC().Truncate(time.Second)}
		require.NoError(t, store.Save(ctx, clientID, tok), "Save should not return error")

		loaded, err := store.Load(ctx, clientID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "user-1", loaded.UserID)
		assert.True(t, tok.SavedAt.Equal(loaded.SavedAt))
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, clientID, Token{UserID: "user-2"}))

		loaded, err := store.Load(ctx, clientID)
		require.NoError(t, err)
		assert.Equal(t, "user-2", loaded.UserID)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+clientID)
		assert.ErrorIs(t, err, domain.ErrTokenNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, clientID, Token{UserID: "user-1"}))
		require.NoError(t, store.Delete(ctx, clientID), "Delete should not return error")

		_, err := store.Load(ctx, clientID)
		assert.ErrorIs(t, err, domain.ErrTokenNotFound, "Load after Delete should return ErrTokenNotFound")

		assert.NoError(t, store.Delete(ctx, clientID), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := clientID + "-1"
		id2 := clientID + "-2"
		require.NoError(t, store.Save(ctx, id1, Token{UserID: "a"}))
		require.NoError(t, store.Save(ctx, id2, Token{UserID: "b"}))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		clients, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, clients, id1)
		assert.Contains(t, clients, id2)
	})
}
