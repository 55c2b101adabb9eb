// Package keys manages the credentials the scanner presents to the remote
// service: the user's personal API key and, when present, an
// organization-issued credential that takes precedence.
package keys

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const apiKeySecret = "api-key"

// SecretStore gets and sets a secret string by name. The scanner treats
// secure storage as an external collaborator; this is its seam.
type SecretStore interface {
	Get(name string) (string, error) // returns "" when the secret is absent
	Set(name, value string) error
	Delete(name string) error
}

// FileStore keeps secrets in a JSON file readable only by the owner. It is
// the default store; platforms with a real keychain can swap in their own.
type FileStore struct {
	path string
}

// NewFileStore creates a store at path. An empty path defaults to
// ~/.extrisk/credentials.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		path = filepath.Join(home, ".extrisk", "credentials")
	}
	return &FileStore{path: path}, nil
}

func (f *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	secrets := map[string]string{}
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	return secrets, nil
}

func (f *FileStore) save(secrets map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}
	data, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

func (f *FileStore) Get(name string) (string, error) {
	secrets, err := f.load()
	if err != nil {
		return "", err
	}
	return secrets[name], nil
}

func (f *FileStore) Set(name, value string) error {
	secrets, err := f.load()
	if err != nil {
		return err
	}
	secrets[name] = value
	return f.save(secrets)
}

func (f *FileStore) Delete(name string) error {
	secrets, err := f.load()
	if err != nil {
		return err
	}
	delete(secrets, name)
	return f.save(secrets)
}

// APIKeyManager resolves the credential for a scan. The org credential,
// when one is provisioned, wins over the personal key.
type APIKeyManager struct {
	store SecretStore
	org   *Org
}

// NewAPIKeyManager builds a manager over the given secret store. org may be
// nil when not operating in org mode.
func NewAPIKeyManager(store SecretStore, org *Org) *APIKeyManager {
	return &APIKeyManager{store: store, org: org}
}

// Get returns the credential to present: the org credential in org mode,
// the stored personal key otherwise. An empty result means no network
// activity is allowed.
func (m *APIKeyManager) Get() (string, error) {
	if m.org != nil && m.org.Credential != "" {
		return m.org.Credential, nil
	}
	return m.store.Get(apiKeySecret)
}

// Set stores a new personal API key.
func (m *APIKeyManager) Set(key string) error {
	if key == "" {
		return fmt.Errorf("API key must not be empty")
	}
	return m.store.Set(apiKeySecret, key)
}

// Clear removes the stored personal API key.
func (m *APIKeyManager) Clear() error {
	return m.store.Delete(apiKeySecret)
}

// OrgMode reports whether an org credential is in effect.
func (m *APIKeyManager) OrgMode() bool {
	return m.org != nil && m.org.Credential != ""
}
