// Package credential stores deploy target passwords in the system keyring.
package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "icnpush"

// ErrNotFound is returned when no password is stored for a target.
var ErrNotFound = errors.New("credential not found")

// Store reads and writes target passwords.
type Store struct {
	ring keyring.Keyring
}

// New wraps an opened keyring.
func New(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Open opens the platform keyring. fileDir is used by the encrypted file
// backend on hosts without a keychain or secret service (CI agents).
func Open(fileDir string) (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt("icnpush-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return New(ring), nil
}

func key(target string) string {
	return "target/" + target
}

// Get returns the password stored for target.
func (s *Store) Get(target string) (string, error) {
	item, err := s.ring.Get(key(target))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("%w for target %q", ErrNotFound, target)
	}
	if err != nil {
		return "", fmt.Errorf("getting credential for target %q: %w", target, err)
	}
	return string(item.Data), nil
}

// Set stores the password for target.
func (s *Store) Set(target, password string) error {
	err := s.ring.Set(keyring.Item{
		Key:         key(target),
		Data:        []byte(password),
		Label:       "icnpush " + target,
		Description: "ICN admin password",
	})
	if err != nil {
		return fmt.Errorf("setting credential for target %q: %w", target, err)
	}
	return nil
}

// Delete removes the password stored for target.
func (s *Store) Delete(target string) error {
	err := s.ring.Remove(key(target))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("%w for target %q", ErrNotFound, target)
	}
	if err != nil {
		return fmt.Errorf("deleting credential for target %q: %w", target, err)
	}
	return nil
}
