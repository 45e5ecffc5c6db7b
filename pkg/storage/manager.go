package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrAlreadyExists is returned by SaveBill when the target file exists
// and the manager was created with overwrite disabled.
var ErrAlreadyExists = fmt.Errorf("bill file already exists")

// Manager handles bill file storage and duplicate detection
type Manager struct {
	outputDir string
	overwrite bool
	saved     map[string]bool
	mu        sync.RWMutex
}

// NewManager creates a new storage manager rooted at outputDir
func NewManager(outputDir string, overwrite bool) (*Manager, error) {
	// Create output directory if it doesn't exist
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manager := &Manager{
		outputDir: outputDir,
		overwrite: overwrite,
		saved:     make(map[string]bool),
	}

	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}

	return manager, nil
}

// scanExistingFiles scans the output directory for already downloaded bills
func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".pdf" {
			name := strings.TrimSuffix(entry.Name(), ".pdf")
			m.saved[name] = true
		}
	}

	return nil
}

// Filename returns the deterministic file name for one account's bill
func Filename(accountNumber, billID string) string {
	if billID == "" {
		return fmt.Sprintf("bill_%s.pdf", accountNumber)
	}
	return fmt.Sprintf("bill_%s_%s.pdf", accountNumber, billID)
}

// IsDownloaded checks if a bill for the given account and bill ID has
// already been saved
func (m *Manager) IsDownloaded(accountNumber, billID string) bool {
	key := strings.TrimSuffix(Filename(accountNumber, billID), ".pdf")

	m.mu.RLock()
	if m.saved[key] {
		m.mu.RUnlock()
		return true
	}
	m.mu.RUnlock()

	// Double-check file existence
	path := filepath.Join(m.outputDir, Filename(accountNumber, billID))
	if _, err := os.Stat(path); err == nil {
		m.mu.Lock()
		m.saved[key] = true
		m.mu.Unlock()
		return true
	}

	return false
}

// SaveBill writes one bill PDF from the given reader. The write goes
// through a temporary file and an atomic rename so a partial download
// never corrupts an existing bill. Returns ErrAlreadyExists when the
// target file exists and overwrite is disabled.
func (m *Manager) SaveBill(r io.Reader, accountNumber, billID string) (string, error) {
	filename := filepath.Join(m.outputDir, Filename(accountNumber, billID))

	if !m.overwrite {
		if _, err := os.Stat(filename); err == nil {
			return filename, ErrAlreadyExists
		}
	}

	tempFile := filename + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to save bill data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	// Atomic rename
	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.saved[strings.TrimSuffix(Filename(accountNumber, billID), ".pdf")] = true
	m.mu.Unlock()

	return filename, nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// GetSavedCount returns the number of saved bills
func (m *Manager) GetSavedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.saved)
}
