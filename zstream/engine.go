package zstream

import (
	"io"

	"github.com/andybalholm/brotli"
	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// engine builds codec contexts for one algorithm. A nil create means the algorithm
// can only be decoded.
type engine struct {
	open   func(src io.Reader) (io.Reader, error)
	create func(dst io.Writer, level int) (io.WriteCloser, error)
}

// flusher is implemented by codec writers able to emit everything written so far.
type flusher interface {
	Flush() error
}

var engines = map[Algorithm]engine{
	None: {
		// The wrapper hides a Close method of the transport from closeCodec.
		open: func(src io.Reader) (io.Reader, error) { return struct{ io.Reader }{src}, nil },
		create: func(dst io.Writer, _ int) (io.WriteCloser, error) {
			return nopWriteCloser{dst}, nil
		},
	},
	Gzip: {
		open: func(src io.Reader) (io.Reader, error) { return gzip.NewReader(src) },
		create: func(dst io.Writer, level int) (io.WriteCloser, error) {
			if level == 0 {
				level = gzip.DefaultCompression
			}
			return gzip.NewWriterLevel(dst, level)
		},
	},
	Zlib: {
		open: func(src io.Reader) (io.Reader, error) { return zlib.NewReader(src) },
		create: func(dst io.Writer, level int) (io.WriteCloser, error) {
			if level == 0 {
				level = zlib.DefaultCompression
			}
			return zlib.NewWriterLevel(dst, level)
		},
	},
	Zstd: {
		open: func(src io.Reader) (io.Reader, error) {
			dec, err := zstd.NewReader(src, zstd.WithDecoderConcurrency(1))
			if err != nil {
				return nil, err
			}
			return dec.IOReadCloser(), nil
		},
		create: func(dst io.Writer, level int) (io.WriteCloser, error) {
			opts := []zstd.EOption{zstd.WithEncoderConcurrency(1)}
			if level != 0 {
				opts = append(opts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
			}
			return zstd.NewWriter(dst, opts...)
		},
	},
	Snappy: {
		open: func(src io.Reader) (io.Reader, error) { return s2.NewReader(src), nil },
		create: func(dst io.Writer, level int) (io.WriteCloser, error) {
			opts := []s2.WriterOption{s2.WriterSnappyCompat(), s2.WriterConcurrency(1)}
			switch {
			case level >= 7:
				opts = append(opts, s2.WriterBestCompression())
			case level >= 4:
				opts = append(opts, s2.WriterBetterCompression())
			}
			return s2.NewWriter(dst, opts...), nil
		},
	},
	LZ4: {
		open: func(src io.Reader) (io.Reader, error) {
			zr := lz4.NewReader(src)
			if err := zr.Apply(lz4.ConcurrencyOption(1)); err != nil {
				return nil, err
			}
			return zr, nil
		},
		create: func(dst io.Writer, level int) (io.WriteCloser, error) {
			zw := lz4.NewWriter(dst)
			opts := []lz4.Option{lz4.ConcurrencyOption(1)}
			if level > 0 {
				opts = append(opts, lz4.CompressionLevelOption(lz4Level(level)))
			}
			if err := zw.Apply(opts...); err != nil {
				return nil, err
			}
			return zw, nil
		},
	},
	XZ: {
		open: func(src io.Reader) (io.Reader, error) { return xz.NewReader(src) },
		create: func(dst io.Writer, _ int) (io.WriteCloser, error) {
			return xz.NewWriter(dst)
		},
	},
	Brotli: {
		open: func(src io.Reader) (io.Reader, error) { return newBrotliReader(src), nil },
		create: func(dst io.Writer, level int) (io.WriteCloser, error) {
			if level == 0 {
				level = brotli.DefaultCompression
			}
			return brotli.NewWriterLevel(dst, level), nil
		},
	},
	Bzip2: {
		open: func(src io.Reader) (io.Reader, error) { return bzip2.NewReader(src, nil) },
		create: func(dst io.Writer, level int) (io.WriteCloser, error) {
			return bzip2.NewWriter(dst, &bzip2.WriterConfig{Level: min(level, bzip2.BestCompression)})
		},
	},
}

var lz4Levels = [...]lz4.CompressionLevel{
	lz4.Fast,
	lz4.Level1, lz4.Level2, lz4.Level3,
	lz4.Level4, lz4.Level5, lz4.Level6,
	lz4.Level7, lz4.Level8, lz4.Level9,
}

func lz4Level(level int) lz4.CompressionLevel {
	if level >= len(lz4Levels) {
		level = len(lz4Levels) - 1
	}
	return lz4Levels[level]
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// closeCodec releases a codec context when it holds resources.
func closeCodec(c any) error {
	if cl, ok := c.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}
