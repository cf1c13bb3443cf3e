// Package errors provides structured error handling for artifactindex.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Index directory and lock errors
//   - 4XX: Input and mapping errors
//   - 5XX: Engine and internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates index directory and lock errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates bad input or undecodable stored values.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates engine or unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates the index cannot be used until repaired.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the operation failed but the index is usable.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates a transient condition.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Index directory errors (200-299)
	ErrCodeDirectory    = "ERR_201_INDEX_DIRECTORY"
	ErrCodeCorruptIndex = "ERR_205_CORRUPT_INDEX"
	ErrCodeIndexLocked  = "ERR_207_INDEX_LOCKED"
	ErrCodeIndexClosed  = "ERR_208_INDEX_CLOSED"

	// Input errors (400-499)
	ErrCodeInvalidInput  = "ERR_401_INVALID_INPUT"
	ErrCodeSourceInvalid = "ERR_406_SOURCE_INVALID"
	ErrCodeMapping       = "ERR_407_MAPPING_FAILED"

	// Engine errors (500-599)
	ErrCodeInternal      = "ERR_501_INTERNAL"
	ErrCodeSearchFailed  = "ERR_503_SEARCH_FAILED"
	ErrCodeIndexFailed   = "ERR_505_INDEX_FAILED"
	ErrCodeCompactFailed = "ERR_506_COMPACT_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// "ERR_" is four bytes; the hundreds digit follows.
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCorruptIndex:
		return SeverityFatal
	case ErrCodeIndexLocked:
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	return code == ErrCodeIndexLocked
}
