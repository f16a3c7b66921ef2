package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
	"golang.org/x/oauth2"
	"sigs.k8s.io/yaml"
)

// CredentialStore persists the token pair obtained by Authorize.
type CredentialStore interface {
	// Load returns ErrNoCredentials when nothing is stored.
	Load() (*oauth2.Token, error)
	Save(tok *oauth2.Token) error
	Delete() error
}

// KeyringStore keeps credentials in the OS keyring, one entry per client ID.
type KeyringStore struct {
	Service string
	User    string
}

func NewKeyringStore(clientID string) *KeyringStore {
	return &KeyringStore{
		Service: keyringServiceName(clientID),
		User:    "",
	}
}

func (s *KeyringStore) Load() (*oauth2.Token, error) {
	v, err := keyring.Get(s.Service, s.User)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNoCredentials
		}
		return nil, err
	}

	var tok oauth2.Token
	if err := json.Unmarshal([]byte(v), &tok); err != nil {
		return nil, fmt.Errorf("decoding stored credentials: %w", err)
	}

	return &tok, nil
}

func (s *KeyringStore) Save(tok *oauth2.Token) error {
	b, err := json.Marshal(tok)
	if err != nil {
		return err
	}

	return keyring.Set(s.Service, s.User, string(b))
}

func (s *KeyringStore) Delete() error {
	if err := keyring.Delete(s.Service, s.User); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNoCredentials
		}
		return err
	}

	return nil
}

func keyringServiceName(clientID string) string {
	return fmt.Sprintf("admob:%s", clientID)
}

// FileStore keeps credentials in a YAML file readable only by the owner.
type FileStore struct {
	Path string
}

func (s *FileStore) Load() (*oauth2.Token, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoCredentials
		}
		return nil, err
	}

	var tok oauth2.Token
	if err := yaml.Unmarshal(b, &tok); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", s.Path, err)
	}

	return &tok, nil
}

func (s *FileStore) Save(tok *oauth2.Token) error {
	b, err := yaml.Marshal(tok)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return err
	}

	return os.WriteFile(s.Path, b, 0600)
}

func (s *FileStore) Delete() error {
	if err := os.Remove(s.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNoCredentials
		}
		return err
	}

	return nil
}
