// Package credential resolves secrets from the environment first and the OS
// keyring second.
package credential

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/99designs/keyring"

	"github.com/hal9000y/gmail-scheduler/internal/types"
)

const serviceName = "gmail-scheduler"

// Known credential keys.
const (
	GeminiAPIKey      = "gemini_api_key"
	OAuthClientSecret = "oauth_client_secret"
)

// envNames maps a key to the environment variable that overrides it.
var envNames = map[string]string{
	GeminiAPIKey:      "GEMINI_API_KEY",
	OAuthClientSecret: "OAUTH_GOOGLE_CLIENT_SECRET",
}

// Keys lists the keys accepted by Set and Delete.
func Keys() []string {
	return []string{GeminiAPIKey, OAuthClientSecret}
}

// EnvName returns the environment variable consulted before the keyring.
func EnvName(key string) string {
	return envNames[key]
}

// New creates a store backed by the system keyring. File-backend secrets
// live under dir; the keyring is opened on first use.
func New(dir string) *Store {
	open := func() (keyring.Keyring, error) {
		ring, err := keyring.Open(keyring.Config{
			ServiceName: serviceName,
			AllowedBackends: []keyring.BackendType{
				keyring.KeychainBackend,
				keyring.SecretServiceBackend,
				keyring.WinCredBackend,
				keyring.PassBackend,
				keyring.FileBackend,
			},
			FileDir:                  filepath.Join(dir, "credentials"),
			FilePasswordFunc:         keyring.FixedStringPrompt(serviceName + "-file-key"),
			KeychainTrustApplication: true,
		})
		if err != nil {
			return nil, fmt.Errorf("opening keyring: %w", err)
		}
		return ring, nil
	}
	return &Store{open: open, getenv: os.Getenv}
}

// NewWithKeyring creates a store over an already opened keyring.
func NewWithKeyring(ring keyring.Keyring, getenv func(string) string) *Store {
	if getenv == nil {
		getenv = os.Getenv
	}
	return &Store{
		open:   func() (keyring.Keyring, error) { return ring, nil },
		getenv: getenv,
	}
}

// Store reads and writes credentials.
type Store struct {
	open   func() (keyring.Keyring, error)
	getenv func(string) string

	once    sync.Once
	ring    keyring.Keyring
	openErr error
}

func (s *Store) openRing() (keyring.Keyring, error) {
	s.once.Do(func() {
		s.ring, s.openErr = s.open()
	})
	return s.ring, s.openErr
}

// Get returns the value of key. A key set nowhere is ErrConfiguration.
func (s *Store) Get(key string) (string, error) {
	if name, ok := envNames[key]; ok {
		if v := s.getenv(name); v != "" {
			return v, nil
		}
	}

	ring, err := s.openRing()
	if err != nil {
		return "", err
	}
	item, err := ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("%w: credential %q not set (export %s or run `credential set %s`)",
			types.ErrConfiguration, key, envNames[key], key)
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores value under key in the keyring.
func (s *Store) Set(key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("%w: empty value for %q", types.ErrValidation, key)
	}

	ring, err := s.openRing()
	if err != nil {
		return err
	}
	if err := ring.Set(keyring.Item{Key: key, Data: []byte(value)}); err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes key from the keyring.
func (s *Store) Delete(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	ring, err := s.openRing()
	if err != nil {
		return err
	}
	if err := ring.Remove(key); err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

func checkKey(key string) error {
	if _, ok := envNames[key]; !ok {
		return fmt.Errorf("%w: unknown credential %q", types.ErrValidation, key)
	}
	return nil
}
