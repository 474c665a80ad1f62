package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/homecare/pkg/adapters/memory"
	"github.com/aretw0/homecare/pkg/auth"
	"github.com/aretw0/homecare/pkg/domain"
	"github.com/aretw0/homecare/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetcher map[string]*domain.User

func (f fetcher) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, errors.New("user not found")
}

func TestSession_LoginLogout(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	s := auth.NewSession(store, fetcher{}, auth.WithClientID("cli"))

	assert.Nil(t, s.Current())
	require.NoError(t, s.Login(ctx, &domain.User{ID: "u-1", Name: "Alex"}))
	assert.Equal(t, "Alex", s.Current().Name)

	tok, err := store.Load(ctx, "cli")
	require.NoError(t, err)
	assert.Equal(t, "u-1", tok.UserID)

	require.NoError(t, s.Logout(ctx))
	assert.Nil(t, s.Current())
	_, err = store.Load(ctx, "cli")
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestSession_LoginRequiresID(t *testing.T) {
	s := auth.NewSession(memory.NewStore(), fetcher{})
	assert.Error(t, s.Login(context.Background(), &domain.User{Name: "x"}))
	assert.Error(t, s.Login(context.Background(), nil))
}

func TestSession_Rehydrate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Save(ctx, auth.DefaultClientID, ports.Token{UserID: "u-1"}))

	s := auth.NewSession(store, fetcher{"u-1": {ID: "u-1", Name: "Alex", Phone: "+919876543210"}})
	u, err := s.Rehydrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Alex", u.Name)
	assert.Equal(t, "9876543210", s.Current().LocalPhone())
}

func TestSession_RehydrateNothingStored(t *testing.T) {
	s := auth.NewSession(memory.NewStore(), fetcher{})
	u, err := s.Rehydrate(context.Background())
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.Nil(t, s.Current())
}

func TestSession_RehydrateFailureClearsToken(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Save(ctx, auth.DefaultClientID, ports.Token{UserID: "gone"}))

	s := auth.NewSession(store, fetcher{})
	_, err := s.Rehydrate(ctx)
	assert.Error(t, err)
	assert.Nil(t, s.Current())

	_, err = store.Load(ctx, auth.DefaultClientID)
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestSession_CurrentIsACopy(t *testing.T) {
	s := auth.NewSession(memory.NewStore(), fetcher{})
	require.NoError(t, s.Login(context.Background(), &domain.User{ID: "u-1", Name: "Alex"}))

	s.Current().Name = "Mallory"
	assert.Equal(t, "Alex", s.Current().Name)
}
