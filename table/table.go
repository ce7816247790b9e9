// Package table writes CSV records through named, typed columns.
//
// A Builder owns its column descriptors. Adding a column returns a typed handle bound
// to that builder, values are set through the handle, and Commit writes the row and
// clears every value for the next record. A handle used with another builder, or
// converted to a handle of another kind, is rejected.
package table

import (
	"fmt"
	"io"
	"strconv"

	"github.com/oleg578/streamcsv"
	"github.com/oleg578/streamcsv/zstream"
	"github.com/pkg/errors"
)

var (
	// ErrValueNotSet is returned when a column value is read before it was set.
	ErrValueNotSet = errors.New("table: column value not set")
	// ErrNoColumn is returned for a handle that does not belong to the builder.
	ErrNoColumn = errors.New("table: no such column")
	// ErrColumnKind is returned when a handle is used with a column of another kind.
	ErrColumnKind = errors.New("table: column kind mismatch")
)

type kind uint8

const (
	kindInt kind = iota
	kindFloat
	kindString
	kindBool
	kindEnum
)

var kindNames = [...]string{
	kindInt:    "int",
	kindFloat:  "float",
	kindString: "string",
	kindBool:   "bool",
	kindEnum:   "enum",
}

func (k kind) String() string { return kindNames[k] }

// Column is implemented by every column handle.
type Column interface {
	ref() (handle, kind)
}

// handle locates a column inside the builder that created it.
type handle struct {
	owner *Builder
	i     int
}

// IntCol is the handle of a column added with AddInt.
type IntCol struct{ handle }

// FloatCol is the handle of a column added with AddFloat.
type FloatCol struct{ handle }

// StringCol is the handle of a column added with AddString.
type StringCol struct{ handle }

// BoolCol is the handle of a column added with AddBool.
type BoolCol struct{ handle }

// EnumCol is the handle of a column added with AddEnum.
type EnumCol struct{ handle }

func (c IntCol) ref() (handle, kind)    { return c.handle, kindInt }
func (c FloatCol) ref() (handle, kind)  { return c.handle, kindFloat }
func (c StringCol) ref() (handle, kind) { return c.handle, kindString }
func (c BoolCol) ref() (handle, kind)   { return c.handle, kindBool }
func (c EnumCol) ref() (handle, kind)   { return c.handle, kindEnum }

type column struct {
	name string
	kind kind

	format    string
	trueText  string
	falseText string
	labels    map[int]string
	fallback  string

	set bool
	i   int64
	f   float64
	s   string
	b   bool
}

func (c *column) text() string {
	switch c.kind {
	case kindInt:
		return strconv.FormatInt(c.i, 10)
	case kindFloat:
		if c.format == "" {
			return strconv.FormatFloat(c.f, 'g', -1, 64)
		}
		return fmt.Sprintf(c.format, c.f)
	case kindBool:
		if c.b {
			return c.trueText
		}
		return c.falseText
	case kindEnum:
		if label, ok := c.labels[int(c.i)]; ok {
			return label
		}
		return c.fallback
	default:
		return c.s
	}
}

func (c *column) clear() {
	c.set = false
	c.i, c.f, c.s, c.b = 0, 0, "", false
}

// Builder accumulates the values of one row at a time.
type Builder struct {
	w    *streamcsv.Writer
	enc  *zstream.Encoder
	cols []column
	rows int
}

// New creates a Builder writing through w.
func New(w *streamcsv.Writer) *Builder {
	return &Builder{w: w}
}

// Create opens an encoder over dst using cfg and a writer for d on top of it. Close
// finalizes both.
func Create(dst io.Writer, cfg zstream.Config, d streamcsv.Dialect) (*Builder, error) {
	enc, err := cfg.NewEncoder(dst)
	if err != nil {
		return nil, err
	}
	w, err := streamcsv.NewWriterDialect(enc, d)
	if err != nil {
		enc.Close()
		return nil, err
	}
	b := New(w)
	b.enc = enc
	return b, nil
}

func (b *Builder) add(c column) handle {
	b.cols = append(b.cols, c)
	return handle{owner: b, i: len(b.cols) - 1}
}

// AddInt appends an integer column.
func (b *Builder) AddInt(name string) IntCol {
	return IntCol{b.add(column{name: name, kind: kindInt})}
}

// AddFloat appends a floating point column. A non-empty format is a printf verb such
// as "%.2f"; otherwise the shortest exact representation is written.
func (b *Builder) AddFloat(name, format string) FloatCol {
	return FloatCol{b.add(column{name: name, kind: kindFloat, format: format})}
}

// AddString appends a text column.
func (b *Builder) AddString(name string) StringCol {
	return StringCol{b.add(column{name: name, kind: kindString})}
}

// AddBool appends a boolean column written as trueText or falseText.
func (b *Builder) AddBool(name, trueText, falseText string) BoolCol {
	return BoolCol{b.add(column{name: name, kind: kindBool, trueText: trueText, falseText: falseText})}
}

// AddEnum appends a column translating codes to labels. Codes without a label are
// written as fallback.
func (b *Builder) AddEnum(name string, labels map[int]string, fallback string) EnumCol {
	owned := make(map[int]string, len(labels))
	for k, v := range labels {
		owned[k] = v
	}
	return EnumCol{b.add(column{name: name, kind: kindEnum, labels: owned, fallback: fallback})}
}

// col resolves c to its descriptor, checking that c was issued by b for a column
// of the same kind.
func (b *Builder) col(c Column) (*column, error) {
	if c == nil {
		return nil, ErrNoColumn
	}
	h, k := c.ref()
	if h.owner != b || h.i < 0 || h.i >= len(b.cols) {
		return nil, errors.Wrapf(ErrNoColumn, "%s handle %d", k, h.i)
	}
	col := &b.cols[h.i]
	if col.kind != k {
		return nil, errors.Wrapf(ErrColumnKind, "column %q is %s, handle is %s", col.name, col.kind, k)
	}
	return col, nil
}

// SetInt sets the value of an integer column for the current row.
func (b *Builder) SetInt(c IntCol, v int64) error {
	col, err := b.col(c)
	if err != nil {
		return err
	}
	col.i, col.set = v, true
	return nil
}

// SetFloat sets the value of a floating point column for the current row.
func (b *Builder) SetFloat(c FloatCol, v float64) error {
	col, err := b.col(c)
	if err != nil {
		return err
	}
	col.f, col.set = v, true
	return nil
}

// SetString sets the value of a text column for the current row.
func (b *Builder) SetString(c StringCol, v string) error {
	col, err := b.col(c)
	if err != nil {
		return err
	}
	col.s, col.set = v, true
	return nil
}

// SetBool sets the value of a boolean column for the current row.
func (b *Builder) SetBool(c BoolCol, v bool) error {
	col, err := b.col(c)
	if err != nil {
		return err
	}
	col.b, col.set = v, true
	return nil
}

// SetEnum sets the code of an enum column for the current row. Codes without a
// label are accepted and written as the fallback.
func (b *Builder) SetEnum(c EnumCol, code int) error {
	col, err := b.col(c)
	if err != nil {
		return err
	}
	col.i, col.set = int64(code), true
	return nil
}

// Text returns the field text of c for the current row.
func (b *Builder) Text(c Column) (string, error) {
	col, err := b.col(c)
	if err != nil {
		return "", err
	}
	if !col.set {
		return "", errors.Wrapf(ErrValueNotSet, "column %q", col.name)
	}
	return col.text(), nil
}

// Names returns the column names in order.
func (b *Builder) Names() []string {
	names := make([]string, len(b.cols))
	for i := range b.cols {
		names[i] = b.cols[i].name
	}
	return names
}

// WriteHeader writes the column names as a row.
func (b *Builder) WriteHeader() error {
	return b.w.Write(b.Names())
}

// Commit writes the current values as one row, leaving unset columns empty, and
// clears every value.
func (b *Builder) Commit() error {
	for i := range b.cols {
		col := &b.cols[i]
		field := ""
		if col.set {
			field = col.text()
		}
		if err := b.w.WriteField(field); err != nil {
			return err
		}
	}
	if err := b.w.EndRow(); err != nil {
		return err
	}
	for i := range b.cols {
		b.cols[i].clear()
	}
	b.rows++
	return nil
}

// Rows is the number of rows committed so far.
func (b *Builder) Rows() int {
	return b.rows
}

// Close flushes the writer and, for builders made by Create, finalizes the encoder.
func (b *Builder) Close() error {
	err := b.w.Close()
	if b.enc != nil {
		if cerr := b.enc.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
