package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 32
	keySize    = 32
	iterations = 100000
)

// EncryptedFileStore stores credentials in an encrypted file
type EncryptedFileStore struct {
	filePath string
	salt     []byte
}

type encryptedData struct {
	Accounts map[string]*Account `json:"accounts"`
}

// NewEncryptedFileStore creates a new encrypted file-based credential store
func NewEncryptedFileStore(filePath string) (*EncryptedFileStore, error) {
	store := &EncryptedFileStore{
		filePath: filePath,
	}

	// Load or generate salt
	saltPath := filePath + ".salt"
	salt, err := os.ReadFile(saltPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read salt: %w", err)
		}
		salt = make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}
		if err := os.WriteFile(saltPath, salt, 0600); err != nil {
			return nil, fmt.Errorf("failed to write salt: %w", err)
		}
	}
	store.salt = salt

	return store, nil
}

// Store saves credentials to the encrypted file
func (e *EncryptedFileStore) Store(account *Account) error {
	data, err := e.loadData()
	if err != nil {
		return err
	}

	data.Accounts[account.Username] = account

	return e.saveData(data)
}

// Retrieve gets credentials from the encrypted file
func (e *EncryptedFileStore) Retrieve(username string) (*Account, error) {
	data, err := e.loadData()
	if err != nil {
		return nil, err
	}

	account, ok := data.Accounts[username]
	if !ok {
		return nil, ErrCredentialsNotFound
	}

	return account, nil
}

// List returns all accounts from the encrypted file
func (e *EncryptedFileStore) List() ([]*Account, error) {
	data, err := e.loadData()
	if err != nil {
		return nil, err
	}

	var accounts []*Account
	for _, account := range data.Accounts {
		accounts = append(accounts, account)
	}

	return accounts, nil
}

// Delete removes credentials from the encrypted file
func (e *EncryptedFileStore) Delete(username string) error {
	data, err := e.loadData()
	if err != nil {
		return err
	}

	if _, ok := data.Accounts[username]; !ok {
		return ErrCredentialsNotFound
	}

	delete(data.Accounts, username)

	return e.saveData(data)
}

// Exists checks if credentials exist in the encrypted file
func (e *EncryptedFileStore) Exists(username string) bool {
	data, err := e.loadData()
	if err != nil {
		return false
	}

	_, ok := data.Accounts[username]
	return ok
}

func (e *EncryptedFileStore) loadData() (*encryptedData, error) {
	ciphertext, err := os.ReadFile(e.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &encryptedData{Accounts: make(map[string]*Account)}, nil
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	passphrase, err := e.getPassphrase()
	if err != nil {
		return nil, err
	}

	plaintext, err := e.decrypt(ciphertext, passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	var data encryptedData
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	if data.Accounts == nil {
		data.Accounts = make(map[string]*Account)
	}

	return &data, nil
}

func (e *EncryptedFileStore) saveData(data *encryptedData) error {
	plaintext, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	passphrase, err := e.getPassphrase()
	if err != nil {
		return err
	}

	ciphertext, err := e.encrypt(plaintext, passphrase)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	if err := os.WriteFile(e.filePath, ciphertext, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	return nil
}

// getPassphrase resolves the encryption passphrase: environment variable
// first, then a passphrase file next to the store, generated on first use.
func (e *EncryptedFileStore) getPassphrase() (string, error) {
	if passphrase := os.Getenv("COMCASTBOT_PASSPHRASE"); passphrase != "" {
		return passphrase, nil
	}

	passphrasePath := filepath.Join(filepath.Dir(e.filePath), ".passphrase")
	if data, err := os.ReadFile(passphrasePath); err == nil {
		return strings.TrimSpace(string(data)), nil
	}

	passphrase, err := generatePassphrase()
	if err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}

	if err := os.WriteFile(passphrasePath, []byte(passphrase), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}

	return passphrase, nil
}

func generatePassphrase() (string, error) {
	bytes := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, bytes); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(bytes), nil
}

func (e *EncryptedFileStore) deriveKey(passphrase string) []byte {
	return pbkdf2.Key([]byte(passphrase), e.salt, iterations, keySize, sha256.New)
}

func (e *EncryptedFileStore) encrypt(plaintext []byte, passphrase string) ([]byte, error) {
	key := e.deriveKey(passphrase)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (e *EncryptedFileStore) decrypt(ciphertext []byte, passphrase string) ([]byte, error) {
	key := e.deriveKey(passphrase)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
