package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingColumn is returned when a canonical column is absent after normalization.
	ErrMissingColumn = errors.New("ingest: missing column")
	// ErrMissingTimestamp is returned when no timestamp synonym is present.
	ErrMissingTimestamp = errors.New("ingest: missing timestamp column")
	// ErrNegativeValue is returned when a measure must be non-negative.
	ErrNegativeValue = errors.New("ingest: negative value")
	// ErrNonFinite is returned for NaN or infinite measures.
	ErrNonFinite = errors.New("ingest: non-finite value")
	// ErrNotIncreasing is returned when timestamps are not strictly increasing.
	ErrNotIncreasing = errors.New("ingest: timestamps not strictly increasing")
	// ErrDuplicateTechnology is returned when a technology name repeats.
	ErrDuplicateTechnology = errors.New("ingest: duplicate technology")
	// ErrEmptyTechnology is returned for a blank technology name.
	ErrEmptyTechnology = errors.New("ingest: empty technology name")
	// ErrNonPositiveLifetime is returned when lifetime_years <= 0.
	ErrNonPositiveLifetime = errors.New("ingest: lifetime must be positive")
	// ErrRaggedRow is returned when a row does not match the header width.
	ErrRaggedRow = errors.New("ingest: row width does not match header")
	// ErrEmptyFile is returned when a file has no header row.
	ErrEmptyFile = errors.New("ingest: empty file")
	// ErrUnsupportedFormat is returned for file extensions without a reader.
	ErrUnsupportedFormat = errors.New("ingest: unsupported file format")
)

// FileNotFoundError reports a missing input path.
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("ingest: file not found: %s", e.Path)
}

// DateParseError reports a timestamp cell that matches no accepted format.
// Row is the zero-based data row index.
type DateParseError struct {
	Row   int
	Value any
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("ingest: cannot parse timestamp %q at row %d", fmt.Sprint(e.Value), e.Row)
}

// TypeCoercionError reports a cell that cannot be converted to its canonical type.
type TypeCoercionError struct {
	Column string
	Row    int
	Value  any
}

func (e *TypeCoercionError) Error() string {
	return fmt.Sprintf("ingest: column %s row %d: cannot convert %q", e.Column, e.Row, fmt.Sprint(e.Value))
}

// ValidationError reports a broken table invariant. Row is -1 when the
// violation concerns the column as a whole.
type ValidationError struct {
	Column string
	Row    int
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("%v: %s", e.Err, e.Column)
	}
	return fmt.Sprintf("%v: %s row %d", e.Err, e.Column, e.Row)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// LoadError is the single error kind returned by every load operation.
type LoadError struct {
	Kind Kind
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s from %s: %v", e.Kind, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// WrapLoad wraps err into a LoadError unless it already is one.
func WrapLoad(kind Kind, path string, err error) error {
	if err == nil {
		return nil
	}
	var le *LoadError
	if errors.As(err, &le) {
		return err
	}
	return &LoadError{Kind: kind, Path: path, Err: err}
}
