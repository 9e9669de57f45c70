package storage

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Manager handles the flat-file record layout and duplicate detection.
// Records live at <base>/<set>/<identifier>.xml.
type Manager struct {
	baseDir   string
	overwrite bool
	saved     map[string]bool
	mu        sync.RWMutex
}

// NewManager creates a new storage manager rooted at baseDir
func NewManager(baseDir string, overwrite bool) (*Manager, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create save directory: %w", err)
	}

	manager := &Manager{
		baseDir:   baseDir,
		overwrite: overwrite,
		saved:     make(map[string]bool),
	}

	// Seed the duplicate map so re-runs skip work already on disk
	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}

	return manager, nil
}

// scanExistingFiles records every .xml file already under the save directory
func (m *Manager) scanExistingFiles() error {
	return filepath.WalkDir(m.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(d.Name()) != ".xml" {
			return nil
		}
		rel, err := filepath.Rel(m.baseDir, path)
		if err != nil {
			return err
		}
		m.saved[rel] = true
		return nil
	})
}

// sanitize turns an identifier or setSpec into a safe path component.
// OAI identifiers are URIs; anything outside a conservative character set
// is mapped to an underscore.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

// recordKey is the map key and relative path for a record file
func recordKey(set, identifier string) string {
	return filepath.Join(sanitize(set), sanitize(identifier)+".xml")
}

// RecordPath returns the absolute path a record is (or would be) stored at
func (m *Manager) RecordPath(set, identifier string) string {
	return filepath.Join(m.baseDir, recordKey(set, identifier))
}

// IsSaved checks if a record has already been written
func (m *Manager) IsSaved(set, identifier string) bool {
	if m.overwrite {
		return false
	}

	key := recordKey(set, identifier)

	m.mu.RLock()
	known := m.saved[key]
	m.mu.RUnlock()
	if known {
		return true
	}

	// Double-check file existence
	if _, err := os.Stat(filepath.Join(m.baseDir, key)); err == nil {
		m.mu.Lock()
		m.saved[key] = true
		m.mu.Unlock()
		return true
	}

	return false
}

// SaveRecord writes a record payload atomically
func (m *Manager) SaveRecord(r io.Reader, set, identifier string) error {
	key := recordKey(set, identifier)
	filename := filepath.Join(m.baseDir, key)

	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create set directory: %w", err)
	}

	// Write to a temporary file first, then rename
	tempFile := filename + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write record data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.saved[key] = true
	m.mu.Unlock()

	return nil
}

// BaseDir returns the save directory path
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// SavedCount returns the number of records known to be on disk
func (m *Manager) SavedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.saved)
}
