package streamcsv

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnterminatedQuote is returned when input ends inside a quoted field.
	ErrUnterminatedQuote = errors.New("streamcsv: unterminated quoted field")
	// ErrMissingEndOfRow is returned in strict mode when input ends before any configured line ending matched.
	ErrMissingEndOfRow = errors.New("streamcsv: bad or missing end of row")
	// ErrAfterEndOfRow is returned when the row state machine is fed after it reached the end of a row.
	ErrAfterEndOfRow = errors.New("streamcsv: characters after end of row")
	// ErrorFieldCount is returned when a record contains an unexpected number of fields.
	ErrorFieldCount = errors.New("streamcsv: wrong number of fields")

	// ErrCommaIsQuote is reported when the separator and the quote byte are the same.
	ErrCommaIsQuote = errors.New("separator and quote must differ")
	errZeroByte     = errors.New("byte must not be zero")
	errNoEndings    = errors.New("at least one line ending is required")
	errEmptyEnding  = errors.New("line ending must not be empty")
	errEndingClash  = errors.New("line ending must not contain the separator or the quote")
)

// ParseError contains location information for CSV parsing errors.
type ParseError struct {
	Line   int
	Column int
	Err    error
}

// Error formats the parse error message with the stored line, column, and Err values.
func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("streamcsv: parse error on line %d, column %d: %v", e.Line, e.Column, e.Err)
}

// Unwrap returns the underlying Err so ParseError participates in errors.Unwrap.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ConfigError reports a dialect setting rejected at configuration time.
type ConfigError struct {
	Setting string
	Err     error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("streamcsv: invalid %s: %v", e.Setting, e.Err)
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IOError wraps a failure of the underlying byte stream.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("streamcsv: %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func configError(setting string, err error) error {
	return &ConfigError{Setting: setting, Err: err}
}

func ioError(op string, err error) error {
	return &IOError{Op: op, Err: errors.WithStack(err)}
}
