package streamcsv

import "strings"

// Dialect describes the punctuation of one CSV stream.
type Dialect struct {
	// Comma is the field delimiter. Default is ','.
	Comma byte
	// Quote is the quote character. Default is '"'.
	Quote byte
	// LineEndings lists the candidate row terminators in order of preference.
	// The writer emits the first one. Default is "\r\n".
	LineEndings []string
	// StrictLineEnding disables the bare "\n" fallback and makes a missing
	// terminator at end of input an error.
	StrictLineEnding bool
	// TrimSpace strips leading and trailing white space from every field read.
	TrimSpace bool
	// KeepQuotes leaves the surrounding quote characters in quoted fields.
	KeepQuotes bool
}

// DefaultDialect returns the comma separated, double quoted dialect terminated by "\r\n"
// with a bare "\n" fallback.
func DefaultDialect() Dialect {
	return Dialect{
		Comma:       ',',
		Quote:       '"',
		LineEndings: []string{"\r\n"},
	}
}

// Validate reports the first setting that makes d unusable as a *ConfigError.
func (d Dialect) Validate() error {
	if d.Comma == 0 {
		return configError("separator", errZeroByte)
	}
	if d.Quote == 0 {
		return configError("quote", errZeroByte)
	}
	if d.Comma == d.Quote {
		return configError("separator", ErrCommaIsQuote)
	}
	if len(d.LineEndings) == 0 {
		return configError("line endings", errNoEndings)
	}
	for _, eol := range d.LineEndings {
		if eol == "" {
			return configError("line endings", errEmptyEnding)
		}
		if strings.IndexByte(eol, d.Comma) >= 0 || strings.IndexByte(eol, d.Quote) >= 0 {
			return configError("line endings", errEndingClash)
		}
	}
	return nil
}

// candidates returns the line endings the reader watches for, adding the bare "\n"
// fallback in loose mode.
func (d Dialect) candidates() []string {
	out := make([]string, 0, len(d.LineEndings)+1)
	hasLF := false
	for _, eol := range d.LineEndings {
		if eol == "\n" {
			hasLF = true
		}
		out = append(out, eol)
	}
	if !d.StrictLineEnding && !hasLF {
		out = append(out, "\n")
	}
	return out
}
