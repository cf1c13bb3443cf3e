// Package source reads canonical artifact records for index rebuilds.
//
// The index never owns artifacts; a source is whatever the host treats as
// the record of truth: a JSON or YAML export, or a SQLite table.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/artifactindex/internal/artifact"
	apperrors "github.com/Aman-CERP/artifactindex/internal/errors"
)

// Source yields artifact records.
type Source interface {
	// Name describes the source for logs and CLI output.
	Name() string
	// Read returns every record in source order.
	Read(ctx context.Context) ([]artifact.Artifact, error)
}

// Open picks a source for path by extension. SQLite databases read table.
func Open(path, table string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return NewJSONFile(path), nil
	case ".yaml", ".yml":
		return NewYAMLFile(path), nil
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLite(path, table)
	default:
		return nil, apperrors.New(apperrors.ErrCodeSourceInvalid,
			fmt.Sprintf("unsupported source file type %q", filepath.Ext(path)), nil).
			WithDetail("path", path).
			WithSuggestion("use a .json, .yaml or .db file")
	}
}

// FileSource reads a list of artifacts from a JSON or YAML file.
type FileSource struct {
	path      string
	format    string
	unmarshal func([]byte, any) error
}

// NewJSONFile reads a JSON array of artifacts.
func NewJSONFile(path string) *FileSource {
	return &FileSource{path: path, format: "json", unmarshal: json.Unmarshal}
}

// NewYAMLFile reads a YAML sequence of artifacts.
func NewYAMLFile(path string) *FileSource {
	return &FileSource{path: path, format: "yaml", unmarshal: yaml.Unmarshal}
}

// Name implements Source.
func (s *FileSource) Name() string {
	return s.format + ":" + s.path
}

// Path returns the file read.
func (s *FileSource) Path() string {
	return s.path
}

// Read implements Source.
func (s *FileSource) Read(ctx context.Context) ([]artifact.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeSourceInvalid, "failed to read source file", err).
			WithDetail("path", s.path)
	}

	var records []artifact.Artifact
	if err := s.unmarshal(data, &records); err != nil {
		return nil, apperrors.New(apperrors.ErrCodeSourceInvalid,
			fmt.Sprintf("invalid %s artifact list", s.format), err).
			WithDetail("path", s.path)
	}
	if err := validate(records); err != nil {
		return nil, apperrors.New(apperrors.ErrCodeSourceInvalid, err.Error(), nil).
			WithDetail("path", s.path)
	}
	return records, nil
}

// validate rejects records without an ID and duplicate IDs.
func validate(records []artifact.Artifact) error {
	seen := make(map[int]int, len(records))
	for i := range records {
		if err := records[i].Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if prev, dup := seen[records[i].ID]; dup {
			return fmt.Errorf("record %d: duplicate id %d (first at record %d)", i, records[i].ID, prev)
		}
		seen[records[i].ID] = i
	}
	return nil
}
