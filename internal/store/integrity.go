package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
)

// indexMetaFile is written by bleve when an index is created.
const indexMetaFile = "index_meta.json"

// validateIndexIntegrity checks a bleve index directory before opening.
// A missing directory is valid (it will be created). A directory that
// holds nothing but our own write.lock is also valid.
func validateIndexIntegrity(path string) error {
	entries, err := os.ReadDir(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot read index directory: %w", err)
	}
	if len(entries) == 0 || (len(entries) == 1 && entries[0].Name() == LockFileName) {
		return nil
	}

	metaPath := filepath.Join(path, indexMetaFile)
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s missing (corrupted index)", indexMetaFile)
	}
	if err != nil {
		return fmt.Errorf("cannot stat %s: %w", indexMetaFile, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s is empty (corrupted)", indexMetaFile)
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", indexMetaFile, err)
	}
	var meta map[string]any
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("%s is corrupt: %w", indexMetaFile, err)
	}

	return nil
}

// isCorruptionError checks if an error from bleve.Open indicates a damaged index.
func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, bleve.ErrorIndexMetaCorrupt) || errors.Is(err, bleve.ErrorIndexMetaMissing) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "unexpected end of JSON") ||
		strings.Contains(msg, "error parsing mapping JSON") ||
		strings.Contains(msg, "failed to load segment") ||
		strings.Contains(msg, "error opening bolt")
}

// dirHasEntries reports whether path is a directory with at least one entry.
func dirHasEntries(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	names, err := f.Readdirnames(1)
	return err == nil && len(names) > 0
}
