package zstream

import (
	"io"
	"log/slog"

	"github.com/pkg/errors"
)

// maxEmptyReads bounds how often a codec may return no data and no error in a row.
const maxEmptyReads = 100

// Decoder exposes a compressed transport as a plain sequential byte stream. It is not
// safe for concurrent use.
type Decoder struct {
	cfg Config
	eng engine
	log *slog.Logger

	src io.Reader
	tr  *countingReader
	zr  io.Reader

	// buf[head:tail] is decompressed data not yet handed to the caller.
	buf  []byte
	head int
	tail int

	drained bool
	total   int64
	err     error
	closed  bool
}

// NewDecoder opens a decompressing stream over src and primes its look-ahead buffer
// with the first decompressed chunk, so EOF is accurate right away.
func (c Config) NewDecoder(src io.Reader) (*Decoder, error) {
	if src == nil {
		return nil, ErrNilTransport
	}
	cfg := c.withDefaults()
	eng, err := cfg.engine()
	if err != nil {
		return nil, err
	}

	d := &Decoder{
		cfg: cfg,
		eng: eng,
		log: cfg.Logger.With("algorithm", cfg.Algorithm.String(), "direction", "decode"),
		src: src,
		buf: make([]byte, cfg.BufferSize),
	}
	if err := d.open(); err != nil {
		return nil, err
	}
	d.log.Debug("stream opened", "buffered", d.Buffered())
	return d, nil
}

func (d *Decoder) open() error {
	d.tr = &countingReader{r: d.src}
	d.head, d.tail = 0, 0
	d.drained = false
	d.total = 0
	d.err = nil

	zr, err := d.eng.open(d.tr)
	if err != nil {
		return classify(d.cfg.Algorithm, "open", err, d.tr.err)
	}
	d.zr = zr
	if err := d.fill(); err != nil {
		closeCodec(d.zr)
		d.zr = nil
		return err
	}
	return nil
}

// fill moves buffered data to the front and pulls one more chunk from the codec.
func (d *Decoder) fill() error {
	if d.zr == nil {
		return d.err
	}
	if d.head > 0 {
		d.tail = copy(d.buf, d.buf[d.head:d.tail])
		d.head = 0
	}
	for empty := 0; d.tail < len(d.buf) && !d.drained; empty++ {
		n, err := d.zr.Read(d.buf[d.tail:])
		d.tail += n
		d.total += int64(n)
		if err == io.EOF {
			d.drained = true
			return nil
		}
		if err != nil {
			d.err = classify(d.cfg.Algorithm, "read", err, d.tr.err)
			return d.err
		}
		if n > 0 {
			return nil
		}
		if empty >= maxEmptyReads {
			d.err = &CodecError{Algorithm: d.cfg.Algorithm, Op: "read", Err: io.ErrNoProgress}
			return d.err
		}
	}
	return nil
}

// Read copies decompressed bytes into p. The look-ahead buffer is topped up until it
// holds len(p) bytes, is full, or the transport is exhausted.
func (d *Decoder) Read(p []byte) (int, error) {
	if d.closed {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}

	want := min(len(p), len(d.buf))
	for d.tail-d.head < want && !d.drained && d.err == nil {
		if err := d.fill(); err != nil {
			break
		}
	}
	if d.head == d.tail {
		if d.err != nil {
			return 0, d.err
		}
		return 0, io.EOF
	}
	n := copy(p, d.buf[d.head:d.tail])
	d.head += n
	return n, nil
}

// EOF reports whether every decompressed byte has been read. It may pull from the
// transport to find out; a failure doing so is reported by the next Read.
func (d *Decoder) EOF() bool {
	if d.closed {
		return true
	}
	if d.head == d.tail && !d.drained && d.err == nil {
		d.fill()
	}
	return d.head == d.tail && d.drained
}

// Position is the number of decompressed bytes handed to the caller so far.
func (d *Decoder) Position() int64 {
	return d.total - int64(d.tail-d.head)
}

// Buffered is the number of decompressed bytes waiting in the look-ahead buffer.
func (d *Decoder) Buffered() int {
	return d.tail - d.head
}

// CompressedBytes is the number of bytes pulled from the transport so far.
func (d *Decoder) CompressedBytes() int64 {
	if d.tr == nil {
		return 0
	}
	return d.tr.n
}

// Rewind restarts decoding from the beginning of the transport, which must be an
// io.Seeker. Codec state, buffer and position are reinitialized. When the stream
// cannot be reopened the failure sticks until a later Rewind succeeds.
func (d *Decoder) Rewind() error {
	if d.closed {
		return ErrClosed
	}
	if err := rewindTransport(d.src, false); err != nil {
		return err
	}
	if err := closeCodec(d.zr); err != nil {
		d.log.Debug("discarding codec failed", "error", err)
	}
	d.zr = nil
	if err := d.open(); err != nil {
		d.err = err
		return err
	}
	d.log.Debug("stream rewound", "buffered", d.Buffered())
	return nil
}

// Close releases the codec, and the transport when Config.CloseTransport is set.
func (d *Decoder) Close() error {
	if d.closed {
		return ErrClosed
	}
	d.closed = true

	var err error
	if cerr := closeCodec(d.zr); cerr != nil {
		err = &CodecError{Algorithm: d.cfg.Algorithm, Op: "close", Err: cerr}
	}
	if d.cfg.CloseTransport {
		if c, ok := d.src.(io.Closer); ok {
			if cerr := c.Close(); cerr != nil && err == nil {
				err = &IOError{Op: "close", Err: errors.WithStack(cerr)}
			}
		}
	}
	d.log.Debug("stream closed",
		"plain_bytes", d.Position(),
		"compressed_bytes", d.CompressedBytes(),
	)
	d.buf = nil
	d.head, d.tail = 0, 0
	return err
}
