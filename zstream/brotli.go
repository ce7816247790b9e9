package zstream

import (
	"bytes"
	"io"

	"github.com/andybalholm/brotli"
)

// errBrotliTrailing is the error the brotli reader gives for input following a
// finished stream.
var errBrotliTrailing = func() error {
	var packed bytes.Buffer
	zw := brotli.NewWriter(&packed)
	zw.Close()
	packed.WriteByte(0)
	_, err := io.ReadAll(brotli.NewReader(&packed))
	return err
}()

// brotliReader reports a stream cut before its last meta-block as truncated. The
// brotli reader passes the transport's io.EOF through whether or not the stream is
// finished, so once the transport is exhausted one marker byte is offered instead: a
// finished decoder rejects it as trailing input, an unfinished one consumes it.
type brotliReader struct {
	zr  *brotli.Reader
	src *markedSource
}

func newBrotliReader(src io.Reader) *brotliReader {
	ms := &markedSource{r: src}
	return &brotliReader{zr: brotli.NewReader(ms), src: ms}
}

func (b *brotliReader) Read(p []byte) (int, error) {
	n, err := b.zr.Read(p)
	if err == nil || !b.src.marked {
		return n, err
	}
	switch err {
	case errBrotliTrailing:
		err = io.EOF
	case io.EOF:
		// The decoder took the marker byte as stream data.
		err = io.ErrUnexpectedEOF
	}
	return n, err
}

// markedSource yields a single marker byte where the wrapped reader first reports
// io.EOF, then io.EOF.
type markedSource struct {
	r      io.Reader
	marked bool
}

func (s *markedSource) Read(p []byte) (int, error) {
	if s.marked {
		return 0, io.EOF
	}
	n, err := s.r.Read(p)
	if n == 0 && err == io.EOF && len(p) > 0 {
		s.marked = true
		p[0] = 0
		return 1, nil
	}
	return n, err
}
