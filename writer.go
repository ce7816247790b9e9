package streamcsv

import (
	"bufio"
	"io"
	"regexp"

	"github.com/pkg/errors"
)

var (
	errNilWriter      = errors.New("streamcsv: writer is nil")
	errWriterNoTarget = errors.New("streamcsv: writer destination cannot be nil")
	errWriterClosed   = errors.New("streamcsv: writer is closed")
)

// Writer emits CSV rows field by field, deciding per field whether it has to be quoted.
type Writer struct {
	dst *bufio.Writer

	// AlwaysQuote forces quoting for all fields when enabled.
	AlwaysQuote bool
	// QuoteTerminator quotes fields containing any byte of a candidate line ending,
	// on top of the separator, the quote, '\r' and '\n'. NewWriter enables it.
	QuoteTerminator bool

	comma   byte
	quote   byte
	// endings are the candidate line endings a reader of the output will split on.
	// Rows are terminated with endings[0].
	endings []string

	// special marks the bytes that force quoting: comma, quote, '\r' and '\n'.
	special [256]bool
	// termBytes marks the bytes of every candidate line ending.
	termBytes [256]bool
	columns   map[int]struct{}
	pattern   *regexp.Regexp

	column int
	err    error
}

// NewWriter creates a Writer emitting comma separated, double quoted rows terminated by "\n".
func NewWriter(w io.Writer) *Writer {
	if w == nil {
		panic(errWriterNoTarget.Error())
	}
	wr := &Writer{
		dst:             bufio.NewWriterSize(w, defaultBufferSize),
		QuoteTerminator: true,
	}
	wr.setDefaults()
	return wr
}

// NewWriterDialect creates a Writer for d, terminating rows with d's first line ending.
// Fields containing a byte of any of d's line endings are quoted.
func NewWriterDialect(w io.Writer, d Dialect) (*Writer, error) {
	wr := NewWriter(w)
	if err := wr.SetDialect(d); err != nil {
		return nil, err
	}
	return wr, nil
}

func (w *Writer) setDefaults() {
	if w.comma == 0 {
		w.comma = ','
	}
	if w.quote == 0 {
		w.quote = '"'
	}
	if len(w.endings) == 0 {
		w.endings = []string{"\n"}
	}
	w.rebuild()
}

// rebuild recomputes the byte sets used for quoting detection.
func (w *Writer) rebuild() {
	w.special = [256]bool{}
	w.special[w.comma] = true
	w.special[w.quote] = true
	w.special['\r'] = true
	w.special['\n'] = true

	w.termBytes = [256]bool{}
	for _, eol := range w.endings {
		for i := 0; i < len(eol); i++ {
			w.termBytes[eol[i]] = true
		}
	}
}

// configure validates the combination of separator, quote and line endings and
// installs it.
func (w *Writer) configure(comma, quote byte, endings []string) error {
	d := Dialect{Comma: comma, Quote: quote, LineEndings: endings}
	if err := d.Validate(); err != nil {
		return err
	}
	w.comma = comma
	w.quote = quote
	w.endings = append([]string(nil), endings...)
	w.rebuild()
	return nil
}

// SetDialect adopts the separator, quote and line endings of d. Rows end with the
// first line ending.
func (w *Writer) SetDialect(d Dialect) error {
	return w.configure(d.Comma, d.Quote, d.LineEndings)
}

// SetComma changes the field delimiter. It must differ from the quote byte.
func (w *Writer) SetComma(c byte) error {
	w.setDefaults()
	return w.configure(c, w.quote, w.endings)
}

// SetQuote changes the quote byte. It must differ from the field delimiter.
func (w *Writer) SetQuote(q byte) error {
	w.setDefaults()
	return w.configure(w.comma, q, w.endings)
}

// SetTerminator changes the bytes emitted at the end of every row. It replaces the
// line endings adopted from a dialect.
func (w *Writer) SetTerminator(eol string) error {
	w.setDefaults()
	return w.configure(w.comma, w.quote, []string{eol})
}

// QuoteColumns makes the given zero-based columns always quoted.
func (w *Writer) QuoteColumns(cols ...int) {
	if w.columns == nil {
		w.columns = make(map[int]struct{}, len(cols))
	}
	for _, c := range cols {
		w.columns[c] = struct{}{}
	}
}

// SetQuotePattern quotes every field matching expr. An empty expr removes the pattern.
func (w *Writer) SetQuotePattern(expr string) error {
	if expr == "" {
		w.pattern = nil
		return nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return configError("quote pattern", err)
	}
	w.pattern = re
	return nil
}

// Reset updates the underlying writer while preserving the configuration.
func (w *Writer) Reset(dst io.Writer) {
	if w == nil {
		panic(errNilWriter.Error())
	}
	if dst == nil {
		panic(errWriterNoTarget.Error())
	}
	if w.dst == nil {
		w.dst = bufio.NewWriterSize(dst, defaultBufferSize)
	} else {
		w.dst.Reset(dst)
	}
	w.setDefaults()
	w.column = 0
	w.err = nil
}

// WriteField appends one field to the current row.
func (w *Writer) WriteField(field string) error {
	if err := w.ready(); err != nil {
		return err
	}
	if w.column > 0 {
		if err := w.dst.WriteByte(w.comma); err != nil {
			return w.fail(err)
		}
	}
	if err := w.writeField(field, w.column); err != nil {
		return w.fail(err)
	}
	w.column++
	return nil
}

// EndRow terminates the current row.
func (w *Writer) EndRow() error {
	if err := w.ready(); err != nil {
		return err
	}
	if _, err := w.dst.WriteString(w.endings[0]); err != nil {
		return w.fail(err)
	}
	w.column = 0
	return nil
}

// Write emits the fields of record and terminates the row.
func (w *Writer) Write(record []string) error {
	if err := w.ready(); err != nil {
		return err
	}
	for i := range record {
		if err := w.WriteField(record[i]); err != nil {
			return err
		}
	}
	return w.EndRow()
}

// WriteAll writes multiple records, stopping at the first error.
func (w *Writer) WriteAll(records [][]string) error {
	if w == nil {
		return errNilWriter
	}
	for _, record := range records {
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes pending buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if err := w.ready(); err != nil {
		return err
	}
	if err := w.dst.Flush(); err != nil {
		return w.fail(err)
	}
	return nil
}

// Close terminates a started row, flushes, and rejects further writes. It does not
// close the underlying writer.
func (w *Writer) Close() error {
	if err := w.ready(); err != nil {
		return err
	}
	if w.column != 0 {
		if err := w.EndRow(); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	w.err = errWriterClosed
	return nil
}

// Error reports the first error encountered by the writer.
func (w *Writer) Error() error {
	if w == nil {
		return errNilWriter
	}
	if w.err == errWriterClosed {
		return nil
	}
	return w.err
}

// Column returns the zero-based index of the next field in the current row.
func (w *Writer) Column() int {
	return w.column
}

func (w *Writer) ready() error {
	if w == nil {
		return errNilWriter
	}
	if w.dst == nil {
		return errWriterNoTarget
	}
	return w.err
}

func (w *Writer) fail(err error) error {
	w.err = ioError("write", err)
	return w.err
}

// NeedsQuote reports whether field would be quoted at the given zero-based column.
func (w *Writer) NeedsQuote(field string, column int) bool {
	if w.AlwaysQuote {
		return true
	}
	if _, ok := w.columns[column]; ok {
		return true
	}
	if w.pattern != nil && w.pattern.MatchString(field) {
		return true
	}
	for i := 0; i < len(field); i++ {
		c := field[i]
		if w.special[c] || (w.QuoteTerminator && w.termBytes[c]) {
			return true
		}
	}
	return false
}

func (w *Writer) writeField(field string, column int) error {
	if !w.NeedsQuote(field, column) {
		_, err := w.dst.WriteString(field)
		return err
	}
	quote := w.quote
	if err := w.dst.WriteByte(quote); err != nil {
		return err
	}

	start := 0
	for i := 0; i < len(field); i++ {
		if field[i] == quote {
			if start < i {
				if _, err := w.dst.WriteString(field[start:i]); err != nil {
					return err
				}
			}
			if _, err := w.dst.Write([]byte{quote, quote}); err != nil {
				return err
			}
			start = i + 1
		}
	}
	if start < len(field) {
		if _, err := w.dst.WriteString(field[start:]); err != nil {
			return err
		}
	}
	return w.dst.WriteByte(quote)
}
