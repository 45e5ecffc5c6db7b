// Package storage provides file management for downloaded bill PDFs.
//
// The Manager type is the primary interface for storage operations. It
// maintains an in-memory cache of saved files for fast duplicate
// detection and writes bills atomically to prevent corruption.
//
// Features:
//   - Atomic file writes using temporary files and rename
//   - Deterministic file naming from account number and bill id
//   - Explicit overwrite policy (skip or replace existing bills)
//   - Automatic scanning of existing files on initialization
//
// Usage:
//
//	manager, err := storage.NewManager("bills", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if !manager.IsDownloaded("8771234567", "B-2024-07") {
//	    _, err = manager.SaveBill(pdfReader, "8771234567", "B-2024-07")
//	}
package storage
