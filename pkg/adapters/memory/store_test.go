package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/homecare/pkg/adapters/memory"
	"github.com/aretw0/homecare/pkg/domain"
	"github.com/aretw0/homecare/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunTokenStoreContract(t, memory.NewStore())
}

func TestMemoryStore_ConcurrentClients(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			client := fmt.Sprintf("tab-%02d", i)
			assert.NoError(t, store.Save(ctx, client, ports.Token{UserID: "u" + client}))
		}(i)
	}
	wg.Wait()

	clients, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 20)
	assert.Equal(t, "tab-00", clients[0])

	tok, err := store.Load(ctx, "tab-07")
	require.NoError(t, err)
	assert.Equal(t, "utab-07", tok.UserID)

	require.NoError(t, store.Delete(ctx, "tab-07"))
	_, err = store.Load(ctx, "tab-07")
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}
