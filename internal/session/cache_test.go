package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func mintToken(t *testing.T, id, name, photo string, expireAt time.Time) string {
	t.Helper()

	claims := jwt.MapClaims{
		"id":    id,
		"name":  name,
		"photo": photo,
		"exp":   expireAt.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func newTestCache(t *testing.T) (*Cache, *FileStore) {
	t.Helper()

	store := NewFileStore(filepath.Join(t.TempDir(), "session"))
	return NewCache(store, zap.NewNop()), store
}

func TestCacheSetTokenThenUser(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	token := mintToken(t, "u1", "Rahim", "https://photos.test/u1.jpg", time.Now().Add(time.Hour))
	require.NoError(t, cache.SetToken(ctx, token))

	user, err := cache.User(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "Rahim", user.Name)
	assert.Equal(t, "https://photos.test/u1.jpg", user.Photo)
}

func TestCacheExpiredCredentialTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	token := mintToken(t, "u1", "Rahim", "p", time.Now().Add(-time.Minute))
	require.NoError(t, cache.SetToken(ctx, token))

	// The raw credential is still readable.
	cred, err := cache.Credential(ctx)
	require.NoError(t, err)
	require.NotNil(t, cred)

	// But the user view is gone.
	user, err := cache.User(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestCacheExpiryIsEvaluatedPerCall(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	expireAt := time.Now().Add(time.Hour)
	require.NoError(t, cache.SetToken(ctx, mintToken(t, "u1", "n", "p", expireAt)))

	user, err := cache.User(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)

	// Move the clock past exp; the same cached credential now reads absent.
	cache.now = func() time.Time { return expireAt.Add(time.Second) }

	user, err = cache.User(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)

	// exp == now also counts as expired.
	cache.now = func() time.Time { return time.Unix(expireAt.Unix(), 0) }

	user, err = cache.User(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestCacheClear(t *testing.T) {
	ctx := context.Background()
	cache, store := newTestCache(t)

	require.NoError(t, cache.SetToken(ctx, mintToken(t, "u1", "n", "p", time.Now().Add(time.Hour))))
	require.NoError(t, cache.Clear(ctx))

	cred, err := cache.Credential(ctx)
	require.NoError(t, err)
	assert.Nil(t, cred)

	raw, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, raw)

	// Clearing an already-empty cache stays idempotent.
	require.NoError(t, cache.Clear(ctx))
}

func TestCachePopulatesFromStoredToken(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "session"))
	token := mintToken(t, "u2", "Karim", "p2", time.Now().Add(time.Hour))
	require.NoError(t, store.Write(ctx, token))

	// A fresh cache over the same store decodes lazily on first read.
	cache := NewCache(store, zap.NewNop())
	cred, err := cache.Credential(ctx)
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, token, cred.Token)
	assert.Equal(t, "u2", cred.ID)
}

func TestCacheUndecodableTokenReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "session"))
	require.NoError(t, store.Write(ctx, "not-a-jwt"))

	cache := NewCache(store, zap.NewNop())
	cred, err := cache.Credential(ctx)
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestDecodeTokenIsPure(t *testing.T) {
	token := mintToken(t, "u1", "n", "p", time.Now().Add(time.Hour))

	first, err := DecodeToken(token)
	require.NoError(t, err)
	second, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

type failingStore struct {
	TokenStore
}

func (failingStore) Write(context.Context, string) error {
	return errors.New("disk full")
}

func TestCacheSetTokenWriteFailureLeavesCacheEmpty(t *testing.T) {
	ctx := context.Background()
	inner := NewFileStore(filepath.Join(t.TempDir(), "session"))
	cache := NewCache(failingStore{inner}, zap.NewNop())

	err := cache.SetToken(ctx, mintToken(t, "u1", "n", "p", time.Now().Add(time.Hour)))
	require.Error(t, err)

	cred, err := cache.Credential(ctx)
	require.NoError(t, err)
	assert.Nil(t, cred)
}
