package zstream

import (
	"io"
	"log/slog"

	"github.com/pkg/errors"
)

// Encoder compresses everything written to it onto a transport. It is not safe for
// concurrent use.
type Encoder struct {
	cfg Config
	eng engine
	log *slog.Logger

	dst io.Writer
	tw  *countingWriter
	zw  io.WriteCloser

	total  int64
	err    error
	closed bool
}

// NewEncoder opens a compressing stream over dst.
func (c Config) NewEncoder(dst io.Writer) (*Encoder, error) {
	if dst == nil {
		return nil, ErrNilTransport
	}
	cfg := c.withDefaults()
	eng, err := cfg.engine()
	if err != nil {
		return nil, err
	}
	if eng.create == nil {
		return nil, errors.Wrapf(ErrUnsupportedDirection, "%s encoding", cfg.Algorithm)
	}

	e := &Encoder{
		cfg: cfg,
		eng: eng,
		log: cfg.Logger.With("algorithm", cfg.Algorithm.String(), "direction", "encode"),
		dst: dst,
	}
	if err := e.open(); err != nil {
		return nil, err
	}
	e.log.Debug("stream opened", "level", cfg.Level)
	return e, nil
}

func (e *Encoder) open() error {
	e.tw = &countingWriter{w: e.dst}
	e.total = 0
	e.err = nil

	zw, err := e.eng.create(e.tw, e.cfg.Level)
	if err != nil {
		return &CodecError{Algorithm: e.cfg.Algorithm, Op: "open", Err: err}
	}
	e.zw = zw
	return nil
}

// Write compresses p in pieces of at most Config.ChunkSize bytes. Compressed output
// goes to the transport as soon as the codec produces it; nothing is flushed.
func (e *Encoder) Write(p []byte) (int, error) {
	if e.closed {
		return 0, ErrClosed
	}
	if e.err != nil {
		return 0, e.err
	}

	written := 0
	for len(p) > 0 {
		chunk := p
		if len(chunk) > e.cfg.ChunkSize {
			chunk = chunk[:e.cfg.ChunkSize]
		}
		n, err := e.zw.Write(chunk)
		written += n
		e.total += int64(n)
		if err == nil && n < len(chunk) {
			err = io.ErrShortWrite
		}
		if err != nil {
			e.err = classify(e.cfg.Algorithm, "write", err, e.tw.err)
			return written, e.err
		}
		p = p[n:]
	}
	return written, nil
}

// Flush forces the codec to emit everything written so far without ending the
// stream. Algorithms without a flush operation ignore it.
func (e *Encoder) Flush() error {
	if e.closed {
		return ErrClosed
	}
	if e.err != nil {
		return e.err
	}
	f, ok := e.zw.(flusher)
	if !ok {
		return nil
	}
	if err := f.Flush(); err != nil {
		e.err = classify(e.cfg.Algorithm, "flush", err, e.tw.err)
		return e.err
	}
	return nil
}

// Position is the number of plaintext bytes accepted so far.
func (e *Encoder) Position() int64 {
	return e.total
}

// CompressedBytes is the number of bytes pushed to the transport so far.
func (e *Encoder) CompressedBytes() int64 {
	if e.tw == nil {
		return 0
	}
	return e.tw.n
}

// Rewind discards the stream written so far and starts a fresh one at the beginning
// of the transport, which must be an io.Seeker. Storage offering Truncate is emptied.
func (e *Encoder) Rewind() error {
	if e.closed {
		return ErrClosed
	}
	if _, ok := e.dst.(io.Seeker); !ok {
		return ErrNotSeekable
	}
	// The trailer written here is cut off by the truncation below.
	if err := e.zw.Close(); err != nil {
		e.log.Debug("discarding codec failed", "error", err)
	}
	if err := rewindTransport(e.dst, true); err != nil {
		e.err = err
		return err
	}
	if err := e.open(); err != nil {
		e.err = err
		return err
	}
	e.log.Debug("stream rewound")
	return nil
}

// Close finalizes the compressed stream, draining everything the codec still holds,
// then releases the transport when Config.CloseTransport is set.
func (e *Encoder) Close() error {
	if e.closed {
		return ErrClosed
	}
	e.closed = true

	err := e.err
	if cerr := e.zw.Close(); cerr != nil && err == nil {
		err = classify(e.cfg.Algorithm, "close", cerr, e.tw.err)
	}
	if e.cfg.CloseTransport {
		if c, ok := e.dst.(io.Closer); ok {
			if cerr := c.Close(); cerr != nil && err == nil {
				err = &IOError{Op: "close", Err: errors.WithStack(cerr)}
			}
		}
	}
	e.log.Debug("stream closed",
		"plain_bytes", e.total,
		"compressed_bytes", e.CompressedBytes(),
	)
	return err
}
