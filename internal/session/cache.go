package session

import (
	"context"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/movement-pass/passctl/internal/domain"
)

// Cache memoizes the decoded credential for the process lifetime. It is the
// single source of truth for "is a user logged in". The memory copy never
// disagrees with the store on absence: a store without a token means an
// empty cache.
type Cache struct {
	store  TokenStore
	logger *zap.Logger

	mu   sync.Mutex
	cred *domain.Credential

	// now is swapped in tests; expiry is re-evaluated on every read.
	now func() time.Time
}

// NewCache builds a cache over the given token store.
func NewCache(store TokenStore, logger *zap.Logger) *Cache {
	return &Cache{store: store, logger: logger, now: time.Now}
}

type tokenClaims struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Photo string `json:"photo"`
	jwt.RegisteredClaims
}

// DecodeToken extracts the credential claims from a raw token without
// verifying its signature; the client never holds the signing key. Decoding
// is pure: the same token always yields the same credential.
func DecodeToken(token string) (*domain.Credential, error) {
	claims := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}

	cred := &domain.Credential{
		Token: token,
		ID:    claims.ID,
		Name:  claims.Name,
		Photo: claims.Photo,
	}
	if claims.ExpiresAt != nil {
		cred.ExpireAt = claims.ExpiresAt.Unix()
	}
	return cred, nil
}

// Credential returns the cached credential, reading and decoding the
// persisted token on first use. It returns nil without error when no token
// is stored or the stored token cannot be decoded. No expiry check happens
// here and no network I/O is performed (the file backend is local; the
// redis backend is the caller's chosen trade-off).
func (c *Cache) Credential(ctx context.Context) (*domain.Credential, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.credentialLocked(ctx)
}

func (c *Cache) credentialLocked(ctx context.Context) (*domain.Credential, error) {
	if c.cred != nil {
		return c.cred, nil
	}

	token, err := c.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, nil
	}

	cred, err := DecodeToken(token)
	if err != nil {
		c.logger.Warn("undecodable session token", zap.Error(err))
		return nil, nil
	}

	c.cred = cred
	return cred, nil
}

// User returns the identity claims only while the credential is unexpired
// at call time. Expired credentials are treated as absent but are not
// proactively removed from storage.
func (c *Cache) User(ctx context.Context) (*domain.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cred, err := c.credentialLocked(ctx)
	if err != nil {
		return nil, err
	}
	if cred == nil || domain.IsExpired(cred, c.now()) {
		return nil, nil
	}

	user := cred.User()
	return &user, nil
}

// SetToken persists the raw token and eagerly rebuilds the memory cache
// from it. A store write failure leaves the cache empty so memory never
// claims a login the store cannot back.
func (c *Cache) SetToken(ctx context.Context, token string) error {
	cred, err := DecodeToken(token)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cred = nil
	if err := c.store.Write(ctx, token); err != nil {
		return err
	}
	c.cred = cred
	return nil
}

// Clear removes the persisted token and the memory copy. Subsequent reads
// report logged out until a new token is set.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Clear(ctx); err != nil {
		return err
	}
	c.cred = nil
	return nil
}
