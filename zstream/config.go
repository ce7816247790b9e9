package zstream

import (
	"io"
	"log/slog"

	"github.com/pkg/errors"
)

const (
	// DefaultChunkSize bounds the plaintext handed to the codec in one call.
	DefaultChunkSize = 64 << 10
	// DefaultBufferSize is the capacity of the Decoder look-ahead buffer.
	DefaultBufferSize = 64 << 10
)

// Config is shared by both stream directions. The zero value decodes and encodes
// uncompressed data.
type Config struct {
	Algorithm Algorithm
	// Level is the algorithm specific compression level, zero picks its default.
	Level int
	// ChunkSize caps the plaintext passed to the codec per call on the write path.
	ChunkSize int
	// BufferSize is the plaintext look-ahead held by a Decoder.
	BufferSize int
	// CloseTransport makes Close also close the transport when it is an io.Closer.
	CloseTransport bool
	// Logger receives debug records about session lifecycle. Nil uses slog.Default().
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

func (c Config) engine() (engine, error) {
	eng, ok := engines[c.Algorithm]
	if !ok {
		return engine{}, errors.Wrapf(ErrUnknownAlgorithm, "algorithm %d", c.Algorithm)
	}
	return eng, nil
}

// countingReader tracks the compressed bytes pulled from the transport and keeps the
// last transport failure so it can be told apart from codec failures.
type countingReader struct {
	r   io.Reader
	n   int64
	err error
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	if err != nil && err != io.EOF {
		c.err = err
	}
	return n, err
}

// countingWriter tracks the compressed bytes pushed to the transport.
type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	if err != nil {
		c.err = err
	}
	return n, err
}

// classify attributes err to the transport when it carries the transport's own
// failure, and to the codec otherwise.
func classify(alg Algorithm, op string, err, transportErr error) error {
	if transportErr != nil && errors.Is(err, transportErr) {
		return &IOError{Op: op, Err: errors.WithStack(err)}
	}
	return &CodecError{Algorithm: alg, Op: op, Err: err}
}

// rewindTransport seeks t back to its start, truncating it when it is writable storage.
func rewindTransport(t any, truncate bool) error {
	s, ok := t.(io.Seeker)
	if !ok {
		return ErrNotSeekable
	}
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		return &IOError{Op: "seek", Err: errors.WithStack(err)}
	}
	if !truncate {
		return nil
	}
	if tr, ok := t.(interface{ Truncate(int64) error }); ok {
		if err := tr.Truncate(0); err != nil {
			return &IOError{Op: "truncate", Err: errors.WithStack(err)}
		}
	}
	return nil
}
