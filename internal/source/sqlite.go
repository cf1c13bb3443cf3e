package source

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, registers "sqlite"

	"github.com/Aman-CERP/artifactindex/internal/artifact"
	apperrors "github.com/Aman-CERP/artifactindex/internal/errors"
)

// DefaultTable is the artifact table read when none is configured.
const DefaultTable = "artifacts"

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLite reads artifacts from a table whose columns are named after the
// indexed fields. Missing columns are not allowed; NULL leaves the zero value.
type SQLite struct {
	path  string
	table string
}

// NewSQLite creates a source for table in the database at path.
func NewSQLite(path, table string) (*SQLite, error) {
	if table == "" {
		table = DefaultTable
	}
	if !identPattern.MatchString(table) {
		return nil, apperrors.New(apperrors.ErrCodeSourceInvalid,
			fmt.Sprintf("invalid table name %q", table), nil)
	}
	return &SQLite{path: path, table: table}, nil
}

// Name implements Source.
func (s *SQLite) Name() string {
	return "sqlite:" + s.path + "#" + s.table
}

// Read implements Source.
func (s *SQLite) Read(ctx context.Context) ([]artifact.Artifact, error) {
	db, err := sql.Open("sqlite", "file:"+s.path+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeSourceInvalid, "failed to open sqlite source", err).
			WithDetail("path", s.path)
	}
	defer func() { _ = db.Close() }()

	columns := artifact.FieldNames()
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = `"` + c + `"`
	}
	stmt := fmt.Sprintf(`SELECT %s FROM "%s" ORDER BY "id"`, strings.Join(quoted, ", "), s.table)

	rows, err := db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeSourceInvalid, "failed to query sqlite source", err).
			WithDetail("path", s.path).
			WithDetail("table", s.table)
	}
	defer func() { _ = rows.Close() }()

	var records []artifact.Artifact
	cells := make([]sql.NullString, len(columns))
	dest := make([]any, len(columns))
	for i := range cells {
		dest[i] = &cells[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, apperrors.New(apperrors.ErrCodeSourceInvalid, "failed to scan artifact row", err).
				WithDetail("table", s.table)
		}
		values := make(map[string]string, len(columns))
		for i, c := range cells {
			if c.Valid {
				values[columns[i]] = c.String
			}
		}
		a, err := artifact.FromValues(values)
		if err != nil {
			return nil, err
		}
		records = append(records, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.New(apperrors.ErrCodeSourceInvalid, "failed to read artifact rows", err).
			WithDetail("table", s.table)
	}

	if err := validate(records); err != nil {
		return nil, apperrors.New(apperrors.ErrCodeSourceInvalid, err.Error(), nil).
			WithDetail("table", s.table)
	}
	return records, nil
}
