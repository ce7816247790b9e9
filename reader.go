package streamcsv

import (
	"io"
	"strings"
	"unsafe"
)

const defaultBufferSize = 1 << 10 // 1024 bytes

var utf8BOM = [3]byte{0xEF, 0xBB, 0xBF}

// Reader decodes CSV records from a byte stream using a configurable Dialect.
type Reader struct {
	src io.Reader

	// ReuseRecord indicates whether Read should reuse the backing array of the returned slice.
	ReuseRecord bool
	// FieldsPerRecord expects each record to contain this many fields. Zero captures
	// the width of the first record, a negative value disables the check.
	FieldsPerRecord int
	// KeepBOM leaves a leading UTF-8 byte order mark in the first field.
	KeepBOM bool

	dialect Dialect
	m       rowMachine

	buf    []byte
	bufPos int
	bufLen int
	bufErr error

	// unread holds bytes handed back after a deferred line ending was resolved.
	unread []byte

	record     []string
	finished   bool
	bomChecked bool

	line       int
	column     int
	recordLine int
	markLine   int
	markColumn int
}

// NewReader creates a Reader that consumes CSV data from r using DefaultDialect,
// panicking if r is nil.
func NewReader(r io.Reader) *Reader {
	if r == nil {
		panic("streamcsv: reader source cannot be nil")
	}

	d := DefaultDialect()
	return &Reader{
		src:     r,
		dialect: d,
		m:       newRowMachine(d),
		buf:     make([]byte, defaultBufferSize),
		record:  make([]string, 0, 16),
		line:    1,
	}
}

// NewReaderDialect creates a Reader for d, rejecting an invalid dialect before any
// input is touched.
func NewReaderDialect(r io.Reader, d Dialect) (*Reader, error) {
	rd := NewReader(r)
	if err := rd.SetDialect(d); err != nil {
		return nil, err
	}
	return rd, nil
}

// SetDialect validates d and installs it for the following records.
func (r *Reader) SetDialect(d Dialect) error {
	if err := d.Validate(); err != nil {
		return err
	}
	d.LineEndings = append([]string(nil), d.LineEndings...)
	r.dialect = d
	r.m.configure(d)
	return nil
}

// Dialect returns the dialect currently in use.
func (r *Reader) Dialect() Dialect {
	d := r.dialect
	d.LineEndings = append([]string(nil), d.LineEndings...)
	return d
}

// Read parses the next CSV record from the underlying stream. It returns dst containing
// the field values (which may reuse internal storage when ReuseRecord is true) and an err
// indicating success or failure; io.EOF signals that no more records remain.
func (r *Reader) Read() (dst []string, err error) {
	if r == nil || r.src == nil {
		return nil, io.EOF
	}
	if r.finished {
		return nil, io.EOF
	}
	if !r.bomChecked {
		if err := r.skipBOM(); err != nil {
			return nil, err
		}
	}

	r.m.resetRow()
	r.recordLine = r.line
	for {
		c, err := r.readByte()
		if err == io.EOF {
			ok, perr := r.m.eof(r.dialect.StrictLineEnding)
			if perr != nil {
				r.finished = true
				return nil, r.wrapError(r.column+1, perr)
			}
			if !ok {
				r.finished = true
				return nil, io.EOF
			}
			r.replay()
			return r.buildRecord()
		}
		if err != nil {
			return nil, ioError("read", err)
		}

		st, perr := r.m.feed(c)
		if perr != nil {
			r.finished = true
			return nil, r.wrapError(r.column, perr)
		}
		switch st {
		case stepDefer:
			// Remember where the pending line ending finished in case the
			// bytes after it have to be replayed.
			if r.m.pastPending() == 0 {
				r.markLine, r.markColumn = r.line, r.column
			}
		case stepRow:
			r.replay()
			return r.buildRecord()
		}
	}
}

// ReadAll exhausts the reader, repeatedly calling Read to collect records until io.EOF
// and returning the accumulated records slice plus the first non-EOF error encountered.
func (r *Reader) ReadAll() (records [][]string, err error) {
	for {
		record, err := r.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
}

// Line returns the 1-based line number of the next byte to be read.
func (r *Reader) Line() int {
	return r.line
}

// replay queues the bytes the state machine consumed past the end of the row.
func (r *Reader) replay() {
	pb := r.m.pushback
	if len(pb) == 0 {
		return
	}
	queued := make([]byte, 0, len(pb)+len(r.unread))
	queued = append(queued, pb...)
	r.unread = append(queued, r.unread...)
	r.line, r.column = r.markLine, r.markColumn
}

// buildRecord maps the completed field bounds onto the row data, respecting ReuseRecord,
// and returns the materialised []string representing the current record.
func (r *Reader) buildRecord() ([]string, error) {
	fieldCount := r.m.fieldCount()
	data := r.m.data

	var recordStr string
	if r.ReuseRecord {
		if len(data) == 0 {
			recordStr = ""
		} else {
			// Zero-copy string construction so fields can share a single backing buffer.
			recordStr = unsafe.String(unsafe.SliceData(data), len(data))
		}
		if cap(r.record) < fieldCount {
			r.record = make([]string, fieldCount)
		}
		r.record = r.record[:fieldCount]
	} else {
		recordStr = string(data)
		r.record = make([]string, fieldCount)
	}

	for i := 0; i < fieldCount; i++ {
		field := recordStr[r.m.bounds[2*i]:r.m.bounds[2*i+1]]
		if r.dialect.TrimSpace {
			field = strings.TrimSpace(field)
		}
		r.record[i] = field
	}

	switch {
	case r.FieldsPerRecord == 0:
		r.FieldsPerRecord = len(r.record)
	case r.FieldsPerRecord > 0 && len(r.record) != r.FieldsPerRecord:
		return r.record, r.wrapLineError(r.recordLine, 1, ErrorFieldCount)
	}
	return r.record, nil
}

// wrapError attaches the current line and supplied column to err, producing a *ParseError.
func (r *Reader) wrapError(column int, err error) error {
	return r.wrapLineError(r.line, column, err)
}

// wrapLineError is wrapError for a position other than the current one, such as
// the first line of the record just read.
func (r *Reader) wrapLineError(line, column int, err error) error {
	return &ParseError{Line: line, Column: column, Err: err}
}

// skipBOM drops a leading UTF-8 byte order mark unless KeepBOM is set.
func (r *Reader) skipBOM() error {
	r.bomChecked = true
	if r.KeepBOM {
		return nil
	}

	var head [3]byte
	n := 0
	for n < len(head) {
		c, err := r.readByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			r.unread = append(append([]byte(nil), head[:n]...), r.unread...)
			r.line, r.column = 1, 0
			r.bomChecked = false
			return ioError("read", err)
		}
		head[n] = c
		n++
		if c != utf8BOM[n-1] {
			break
		}
	}
	if n < len(head) || head != utf8BOM {
		r.unread = append(append([]byte(nil), head[:n]...), r.unread...)
	}
	r.line, r.column = 1, 0
	return nil
}

// readByte returns the next byte, replaying pushed back bytes first and refilling the
// chunk buffer from src as needed. Errors from src are sticky.
func (r *Reader) readByte() (byte, error) {
	var c byte
	if len(r.unread) > 0 {
		c = r.unread[0]
		r.unread = r.unread[1:]
	} else {
		for r.bufPos >= r.bufLen {
			if r.bufErr != nil {
				return 0, r.bufErr
			}
			n, err := r.src.Read(r.buf)
			r.bufPos = 0
			r.bufLen = n
			r.bufErr = err
		}
		c = r.buf[r.bufPos]
		r.bufPos++
	}

	if c == '\n' {
		r.line++
		r.column = 0
	} else {
		r.column++
	}
	return c, nil
}
