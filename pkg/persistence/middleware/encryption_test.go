package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/homecare/pkg/adapters/memory"
	"github.com/aretw0/homecare/pkg/persistence/middleware"
	"github.com/aretw0/homecare/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func encrypted(t *testing.T, store ports.TokenStore, cfg middleware.EncryptionConfig) ports.TokenStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return middleware.Chain(store, mw)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunTokenStoreContract(t, encrypted(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()
	saved := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

	require.NoError(t, secure.Save(ctx, "cli", ports.Token{UserID: "user-42", SavedAt: saved}))

	raw, err := underlying.Load(ctx, "cli")
	require.NoError(t, err)
	assert.NotContains(t, raw.UserID, "user-42")
	assert.True(t, strings.HasPrefix(raw.UserID, "enc:v1:"))
	assert.True(t, saved.Equal(raw.SavedAt))

	tok, err := secure.Load(ctx, "cli")
	require.NoError(t, err)
	assert.Equal(t, "user-42", tok.UserID)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	old := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, old.Save(ctx, "cli", ports.Token{UserID: "user-1"}))

	rotated := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}})
	tok, err := rotated.Load(ctx, "cli")
	require.NoError(t, err)
	assert.Equal(t, "user-1", tok.UserID)

	strict := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey})
	_, err = strict.Load(ctx, "cli")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_BoundToClient(t *testing.T) {
	underlying := memory.NewStore()
	secure := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()

	require.NoError(t, secure.Save(ctx, "alice", ports.Token{UserID: "u-alice"}))
	raw, err := underlying.Load(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, underlying.Save(ctx, "mallory", raw))

	_, err = secure.Load(ctx, "mallory")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_RejectsPlainToken(t *testing.T) {
	underlying := memory.NewStore()
	require.NoError(t, underlying.Save(context.Background(), "cli", ports.Token{UserID: "plain"}))

	secure := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	_, err := secure.Load(context.Background(), "cli")
	assert.ErrorContains(t, err, "envelope")
}

func TestNewEncryptionMiddleware_KeySize(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	assert.Error(t, err)
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)
	got, err := middleware.ParseKey(base64.StdEncoding.EncodeToString(key) + "\n")
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = middleware.ParseKey("not base64!")
	assert.Error(t, err)
	_, err = middleware.ParseKey(base64.StdEncoding.EncodeToString([]byte("16-bytes-only!!!")))
	assert.Error(t, err)
}
