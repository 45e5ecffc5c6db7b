package auth

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "comcastbot"
	keyringPrefix  = "portal_"
	keyringIndex   = "comcastbot_account_index"
)

// KeyringStore uses the system keychain for credential storage
type KeyringStore struct{}

// NewKeyringStore creates a new keyring-based credential store
func NewKeyringStore() (*KeyringStore, error) {
	// Test if keyring is available by attempting a read
	_, err := keyring.Get(keyringService, "test_availability")
	if err != nil && err != keyring.ErrNotFound {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}

	return &KeyringStore{}, nil
}

// Store saves credentials to the system keyring
func (k *KeyringStore) Store(account *Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	key := keyringPrefix + account.Username
	if err := keyring.Set(keyringService, key, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}

	return k.addToIndex(account.Username)
}

// Retrieve gets credentials from the system keyring
func (k *KeyringStore) Retrieve(username string) (*Account, error) {
	key := keyringPrefix + username
	data, err := keyring.Get(keyringService, key)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var account Account
	if err := json.Unmarshal([]byte(data), &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}

	return &account, nil
}

// List returns all accounts stored in the keyring
func (k *KeyringStore) List() ([]*Account, error) {
	usernames, err := k.readIndex()
	if err != nil {
		return nil, nil
	}

	var accounts []*Account
	for _, username := range usernames {
		if account, err := k.Retrieve(username); err == nil {
			accounts = append(accounts, account)
		}
	}

	return accounts, nil
}

// Delete removes credentials from the system keyring
func (k *KeyringStore) Delete(username string) error {
	key := keyringPrefix + username
	if err := keyring.Delete(keyringService, key); err != nil {
		if err == keyring.ErrNotFound {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}

	return k.removeFromIndex(username)
}

// Exists checks if credentials exist in the keyring
func (k *KeyringStore) Exists(username string) bool {
	_, err := k.Retrieve(username)
	return err == nil
}

// The keyring API has no enumeration, so an index entry tracks stored usernames.

func (k *KeyringStore) readIndex() ([]string, error) {
	data, err := keyring.Get(keyringService, keyringIndex)
	if err != nil {
		return nil, err
	}
	if data == "" {
		return nil, nil
	}
	return strings.Split(data, "\n"), nil
}

func (k *KeyringStore) addToIndex(username string) error {
	usernames, _ := k.readIndex()
	for _, u := range usernames {
		if u == username {
			return nil
		}
	}
	usernames = append(usernames, username)
	return keyring.Set(keyringService, keyringIndex, strings.Join(usernames, "\n"))
}

func (k *KeyringStore) removeFromIndex(username string) error {
	usernames, err := k.readIndex()
	if err != nil {
		return nil
	}
	var kept []string
	for _, u := range usernames {
		if u != username {
			kept = append(kept, u)
		}
	}
	return keyring.Set(keyringService, keyringIndex, strings.Join(kept, "\n"))
}
