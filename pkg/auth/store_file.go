package auth

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// FileStore persists credentials as a JSON file, the CLI analog of the
// browser's cookie-backed token storage.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a file-backed credential store.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load() (Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

func (f *FileStore) StoreAccess(token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	creds, err := f.read()
	if err != nil {
		return err
	}
	creds.AccessToken = token
	creds.ExpiresAt = expiresAt
	return f.write(creds)
}

func (f *FileStore) StoreRefresh(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	creds, err := f.read()
	if err != nil {
		return err
	}
	creds.RefreshToken = token
	return f.write(creds)
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (f *FileStore) read() (Credentials, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Credentials{}, nil
		}
		return Credentials{}, err
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		// A corrupt credential file is treated as logged out.
		return Credentials{}, nil
	}
	return creds, nil
}

func (f *FileStore) write(creds Credentials) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o600)
}
