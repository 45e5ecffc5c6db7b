package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilename(t *testing.T) {
	assert.Equal(t, "bill_8765001234_B123.pdf", Filename("8765001234", "B123"))
	assert.Equal(t, "bill_8765001234.pdf", Filename("8765001234", ""))
}

func TestNewManagerCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bills")

	m, err := NewManager(dir, false)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, dir, m.GetOutputDir())
}

func TestSaveBill(t *testing.T) {
	m, err := NewManager(t.TempDir(), false)
	require.NoError(t, err)

	pdf := []byte("%PDF-1.4 fake bill content")
	path, err := m.SaveBill(bytes.NewReader(pdf), "8765001234", "B123")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, pdf, data)
	assert.True(t, strings.HasSuffix(path, "bill_8765001234_B123.pdf"))
	assert.Equal(t, 1, m.GetSavedCount())
}

func TestSaveBillSkipsExistingWithoutOverwrite(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, false)
	require.NoError(t, err)

	_, err = m.SaveBill(bytes.NewReader([]byte("first")), "111", "B1")
	require.NoError(t, err)

	path, err := m.SaveBill(bytes.NewReader([]byte("second")), "111", "B1")
	assert.ErrorIs(t, err, ErrAlreadyExists)

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "first", string(data), "existing file must be untouched")
}

func TestSaveBillOverwrites(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, true)
	require.NoError(t, err)

	_, err = m.SaveBill(bytes.NewReader([]byte("first")), "111", "B1")
	require.NoError(t, err)

	path, err := m.SaveBill(bytes.NewReader([]byte("second")), "111", "B1")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestSaveBillLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, false)
	require.NoError(t, err)

	_, err = m.SaveBill(bytes.NewReader([]byte("data")), "222", "B2")
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasSuffix(entry.Name(), ".tmp"))
	}
}

func TestIsDownloaded(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, false)
	require.NoError(t, err)

	assert.False(t, m.IsDownloaded("333", "B3"))

	_, err = m.SaveBill(bytes.NewReader([]byte("data")), "333", "B3")
	require.NoError(t, err)

	assert.True(t, m.IsDownloaded("333", "B3"))
	assert.False(t, m.IsDownloaded("333", "other"))
}

func TestScanExistingFiles(t *testing.T) {
	dir := t.TempDir()

	// Pre-seed the directory as a previous run would have left it.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bill_444_B4.pdf"), []byte("old"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore"), 0644))

	m, err := NewManager(dir, false)
	require.NoError(t, err)

	assert.True(t, m.IsDownloaded("444", "B4"))
	assert.Equal(t, 1, m.GetSavedCount(), "non-pdf files are not counted")
}
