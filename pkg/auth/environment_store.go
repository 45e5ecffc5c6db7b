package auth

import (
	"fmt"
	"os"
	"time"
)

// EnvironmentStore reads credentials from environment variables.
// This is read-only and used as a last-resort fallback.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment variable store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return fmt.Errorf("environment store is read-only: %w", ErrStoreUnavailable)
}

// Retrieve gets credentials from environment variables.
// The username argument is ignored; the environment holds at most one account.
func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	envUser := os.Getenv("COMCAST_USERNAME")
	envPass := os.Getenv("COMCAST_PASSWORD")

	if envUser == "" || envPass == "" {
		return nil, ErrCredentialsNotFound
	}
	if username != "" && username != envUser {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Username:     envUser,
		Password:     envPass,
		LastModified: time.Now(),
	}, nil
}

// List returns the account from environment variables if present
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return nil, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(username string) error {
	return fmt.Errorf("environment store is read-only: %w", ErrStoreUnavailable)
}

// Exists checks if credentials exist in environment variables
func (e *EnvironmentStore) Exists(username string) bool {
	_, err := e.Retrieve(username)
	return err == nil
}
