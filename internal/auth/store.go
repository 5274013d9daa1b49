package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Credentials is what survives between runs: both tokens and the last known
// user snapshot.
type Credentials struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    *User  `json:"user,omitempty"`
}

// FileStore persists credentials to a JSON file. It satisfies api.TokenSource.
type FileStore struct {
	path string

	mu    sync.Mutex
	creds Credentials
}

// NewFileStore opens the token file at path, loading existing credentials if
// present. A missing file is a logged-out state, not an error.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	if err := json.Unmarshal(data, &s.creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}

	return s, nil
}

func (s *FileStore) Access() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.creds.Access
}

func (s *FileStore) Refresh() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.creds.Refresh
}

func (s *FileStore) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.creds.User
}

// Save replaces the stored credentials, as happens on login and register.
func (s *FileStore) Save(creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = creds

	return s.write()
}

// StoreAccess swaps in a refreshed access token, keeping the refresh token
// and user untouched.
func (s *FileStore) StoreAccess(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds.Access = token

	return s.write()
}

// StoreUser updates the cached user snapshot.
func (s *FileStore) StoreUser(u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds.User = u

	return s.write()
}

// Clear wipes credentials in memory and on disk. Used on logout and on
// unrecoverable refresh failure.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = Credentials{}

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing credentials: %w", err)
	}

	return nil
}

func (s *FileStore) write() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating credentials dir: %w", err)
	}

	data, err := json.MarshalIndent(s.creds, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}

	return nil
}
