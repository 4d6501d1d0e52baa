// Package session holds the client-side credential state: one raw session
// token in persisted storage and its decoded claims cached in memory.
package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// StorageKey is the fixed key the raw session token lives under, regardless
// of backend. Absence of a value means logged out.
const StorageKey = "mp:auth"

// TokenStore persists exactly one string value, the raw session token.
type TokenStore interface {
	// Read returns the stored token, or "" with a nil error when no token
	// is stored.
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// FileStore keeps the token in a local file, the CLI analogue of browser
// session storage.
type FileStore struct {
	path string
}

// NewFileStore builds a store rooted at the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Read returns the stored token, if any.
func (s *FileStore) Read(_ context.Context) (string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

// Write persists the token, creating the parent directory when missing.
func (s *FileStore) Write(_ context.Context, token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(token), 0o600)
}

// Clear removes the token file. A missing file is not an error.
func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
