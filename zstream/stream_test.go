package zstream

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oleg578/streamcsv/internal/logging"
)

var encodable = []Algorithm{None, Gzip, Zlib, Zstd, Snappy, LZ4, XZ, Brotli, Bzip2}

func sample(n int) []byte {
	var b strings.Builder
	for i := 0; b.Len() < n; i++ {
		b.WriteString("id,name,comment\r\n")
		b.WriteString(strings.Repeat("x", i%31))
		b.WriteString(",\"quoted, field\"\r\n")
	}
	return []byte(b.String()[:n])
}

func encode(t *testing.T, cfg Config, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	enc, err := cfg.NewEncoder(&buf)
	if err != nil {
		t.Fatalf("NewEncoder(%s) error = %v", cfg.Algorithm, err)
	}
	if n, err := enc.Write(data); err != nil || n != len(data) {
		t.Fatalf("Write() = %d, %v, want %d", n, err, len(data))
	}
	if enc.Position() != int64(len(data)) {
		t.Fatalf("Encoder.Position() = %d, want %d", enc.Position(), len(data))
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Encoder.Close() error = %v", err)
	}
	if enc.CompressedBytes() != int64(buf.Len()) {
		t.Fatalf("CompressedBytes() = %d, transport holds %d", enc.CompressedBytes(), buf.Len())
	}
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	data := sample(200 << 10)
	for _, alg := range encodable {
		alg := alg
		t.Run(alg.String(), func(t *testing.T) {
			t.Parallel()

			packed := encode(t, Config{Algorithm: alg, ChunkSize: 4096}, data)

			dec, err := Config{Algorithm: alg, BufferSize: 1000}.NewDecoder(bytes.NewReader(packed))
			if err != nil {
				t.Fatalf("NewDecoder() error = %v", err)
			}
			defer dec.Close()

			got, err := io.ReadAll(dec)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if !bytes.Equal(got, data) {
				t.Fatalf("decoded %d bytes, want %d identical bytes", len(got), len(data))
			}
			if dec.Position() != int64(len(data)) {
				t.Fatalf("Decoder.Position() = %d, want %d", dec.Position(), len(data))
			}
			if !dec.EOF() {
				t.Fatalf("EOF() = false after draining the stream")
			}
			if dec.CompressedBytes() == 0 {
				t.Fatalf("CompressedBytes() = 0")
			}
		})
	}
}

func TestRoundTripLevels(t *testing.T) {
	t.Parallel()

	data := sample(64 << 10)
	levels := map[Algorithm]int{
		Gzip:   9,
		Zlib:   1,
		Zstd:   19,
		Snappy: 9,
		LZ4:    12,
		Brotli: 11,
		Bzip2:  12,
	}
	for alg, level := range levels {
		alg, level := alg, level
		t.Run(alg.String(), func(t *testing.T) {
			t.Parallel()

			packed := encode(t, Config{Algorithm: alg, Level: level}, data)
			dec, err := Config{Algorithm: alg}.NewDecoder(bytes.NewReader(packed))
			if err != nil {
				t.Fatalf("NewDecoder() error = %v", err)
			}
			got, err := io.ReadAll(dec)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if !bytes.Equal(got, data) {
				t.Fatalf("level %d round trip mismatch", level)
			}
		})
	}
}

func TestEmptyStream(t *testing.T) {
	t.Parallel()

	for _, alg := range encodable {
		alg := alg
		t.Run(alg.String(), func(t *testing.T) {
			t.Parallel()

			packed := encode(t, Config{Algorithm: alg}, nil)
			dec, err := Config{Algorithm: alg}.NewDecoder(bytes.NewReader(packed))
			if err != nil {
				t.Fatalf("NewDecoder() error = %v", err)
			}
			if !dec.EOF() {
				t.Fatalf("EOF() = false for an empty stream")
			}
			if n, err := dec.Read(make([]byte, 8)); n != 0 || err != io.EOF {
				t.Fatalf("Read() = %d, %v, want 0, io.EOF", n, err)
			}
		})
	}
}

func TestBzip2Decode(t *testing.T) {
	t.Parallel()

	want, err := os.ReadFile(filepath.Join("testdata", "rows.csv"))
	if err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(filepath.Join("testdata", "rows.csv.bz2"))
	if err != nil {
		t.Fatal(err)
	}

	dec, err := Config{Algorithm: Bzip2, CloseTransport: true}.NewDecoder(f)
	if err != nil {
		t.Fatalf("NewDecoder() error = %v", err)
	}
	got, err := io.ReadAll(dec)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("bzip2 output mismatch: got %q", got)
	}
	if err := dec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := f.Close(); err == nil {
		t.Fatalf("transport should be closed with CloseTransport set")
	}
}

// recorder keeps the size of every write it receives.
type recorder struct {
	bytes.Buffer
	sizes []int
}

func (r *recorder) Write(p []byte) (int, error) {
	r.sizes = append(r.sizes, len(p))
	return r.Buffer.Write(p)
}

func TestEncoderChunkSize(t *testing.T) {
	t.Parallel()

	var rec recorder
	enc, err := Config{ChunkSize: 1000}.NewEncoder(&rec)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	if _, err := enc.Write(make([]byte, 2500)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	want := []int{1000, 1000, 500}
	if len(rec.sizes) != len(want) {
		t.Fatalf("codec writes = %v, want %v", rec.sizes, want)
	}
	for i := range want {
		if rec.sizes[i] != want[i] {
			t.Fatalf("codec writes = %v, want %v", rec.sizes, want)
		}
	}
}

func TestEncoderFlush(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	enc, err := Config{Algorithm: Gzip}.NewEncoder(&buf)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	defer enc.Close()

	if _, err := enc.Write([]byte("a,b\r\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	before := enc.CompressedBytes()
	if err := enc.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if enc.CompressedBytes() <= before {
		t.Fatalf("Flush() did not emit data: %d -> %d", before, enc.CompressedBytes())
	}
}

func TestDecoderPosition(t *testing.T) {
	t.Parallel()

	data := sample(10 << 10)
	packed := encode(t, Config{Algorithm: Zstd}, data)

	dec, err := Config{Algorithm: Zstd, BufferSize: 512}.NewDecoder(bytes.NewReader(packed))
	if err != nil {
		t.Fatalf("NewDecoder() error = %v", err)
	}
	defer dec.Close()

	if dec.Position() != 0 {
		t.Fatalf("Position() = %d before reading, want 0", dec.Position())
	}
	if dec.Buffered() == 0 {
		t.Fatalf("Buffered() = 0, the first chunk should be primed")
	}

	p := make([]byte, 100)
	if _, err := io.ReadFull(dec, p); err != nil {
		t.Fatalf("ReadFull() error = %v", err)
	}
	if !bytes.Equal(p, data[:100]) {
		t.Fatalf("first bytes mismatch")
	}
	if dec.Position() != 100 {
		t.Fatalf("Position() = %d, want 100", dec.Position())
	}
	if dec.EOF() {
		t.Fatalf("EOF() = true with data left")
	}
}

func TestRewind(t *testing.T) {
	t.Parallel()

	for _, alg := range []Algorithm{None, Gzip, Zstd, LZ4, Brotli} {
		alg := alg
		t.Run(alg.String(), func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "rows"+alg.Extension())
			f, err := os.Create(path)
			if err != nil {
				t.Fatal(err)
			}
			enc, err := Config{Algorithm: alg, CloseTransport: true}.NewEncoder(f)
			if err != nil {
				t.Fatalf("NewEncoder() error = %v", err)
			}
			if _, err := enc.Write(sample(5000)); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if err := enc.Rewind(); err != nil {
				t.Fatalf("Encoder.Rewind() error = %v", err)
			}
			if enc.Position() != 0 {
				t.Fatalf("Position() after Rewind = %d, want 0", enc.Position())
			}
			want := []byte("fresh,start\r\n")
			if _, err := enc.Write(want); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if err := enc.Close(); err != nil {
				t.Fatalf("Encoder.Close() error = %v", err)
			}

			in, err := os.Open(path)
			if err != nil {
				t.Fatal(err)
			}
			dec, err := Config{Algorithm: alg, CloseTransport: true}.NewDecoder(in)
			if err != nil {
				t.Fatalf("NewDecoder() error = %v", err)
			}
			defer dec.Close()

			first := make([]byte, 5)
			if _, err := io.ReadFull(dec, first); err != nil {
				t.Fatalf("ReadFull() error = %v", err)
			}
			if err := dec.Rewind(); err != nil {
				t.Fatalf("Decoder.Rewind() error = %v", err)
			}
			if dec.Position() != 0 {
				t.Fatalf("Position() after Rewind = %d, want 0", dec.Position())
			}
			got, err := io.ReadAll(dec)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if !bytes.Equal(got, want) {
				t.Fatalf("after rewind got %q, want %q", got, want)
			}
		})
	}
}

func TestRewindNotSeekable(t *testing.T) {
	t.Parallel()

	enc, err := Config{Algorithm: Gzip}.NewEncoder(&bytes.Buffer{})
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	if err := enc.Rewind(); !errors.Is(err, ErrNotSeekable) {
		t.Fatalf("Encoder.Rewind() error = %v, want ErrNotSeekable", err)
	}

	dec, err := Config{}.NewDecoder(strings.NewReader("abc"))
	if err != nil {
		t.Fatalf("NewDecoder() error = %v", err)
	}
	if err := dec.Rewind(); err != nil {
		t.Fatalf("strings.Reader is seekable, Rewind() error = %v", err)
	}
	dec2, err := Config{}.NewDecoder(io.MultiReader(strings.NewReader("abc")))
	if err != nil {
		t.Fatalf("NewDecoder() error = %v", err)
	}
	if err := dec2.Rewind(); !errors.Is(err, ErrNotSeekable) {
		t.Fatalf("Decoder.Rewind() error = %v, want ErrNotSeekable", err)
	}
}

func TestCodecError(t *testing.T) {
	t.Parallel()

	_, err := Config{Algorithm: Gzip}.NewDecoder(strings.NewReader("definitely not gzip"))
	var cerr *CodecError
	if !errors.As(err, &cerr) {
		t.Fatalf("NewDecoder() error = %v (%T), want *CodecError", err, err)
	}
	if cerr.Algorithm != Gzip {
		t.Fatalf("CodecError.Algorithm = %s, want gzip", cerr.Algorithm)
	}

}

func TestTruncatedStream(t *testing.T) {
	t.Parallel()

	data := sample(90000)
	cuts := map[string]func([]byte) []byte{
		"half":      func(p []byte) []byte { return p[:len(p)/2] },
		"lastBytes": func(p []byte) []byte { return p[:len(p)-3] },
	}
	for _, alg := range encodable[1:] {
		alg := alg
		packed := encode(t, Config{Algorithm: alg}, data)
		for name, cut := range cuts {
			name, cut := name, cut
			t.Run(alg.String()+"/"+name, func(t *testing.T) {
				t.Parallel()

				dec, err := Config{Algorithm: alg, BufferSize: 1024}.NewDecoder(bytes.NewReader(cut(packed)))
				var got []byte
				if err == nil {
					defer dec.Close()
					got, err = io.ReadAll(dec)
				}
				var cerr *CodecError
				if !errors.As(err, &cerr) {
					t.Fatalf("decoded %d of %d bytes, error = %v (%T), want *CodecError", len(got), len(data), err, err)
				}
				if cerr.Algorithm != alg {
					t.Fatalf("CodecError.Algorithm = %s, want %s", cerr.Algorithm, alg)
				}
			})
		}
	}
}

func TestBrotliStreamEnd(t *testing.T) {
	t.Parallel()

	data := []byte("id,name\r\n1,x\r\n")
	packed := encode(t, Config{Algorithm: Brotli}, data)

	tests := []struct {
		name   string
		input  []byte
		wantOK bool
	}{
		{name: "complete", input: packed, wantOK: true},
		{name: "trailingBytes", input: append(append([]byte(nil), packed...), "junk"...)},
		{name: "emptyTransport", input: nil},
		{name: "lastByteMissing", input: packed[:len(packed)-1]},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			dec, err := Config{Algorithm: Brotli}.NewDecoder(bytes.NewReader(tc.input))
			var got []byte
			if err == nil {
				got, err = io.ReadAll(dec)
			}
			if tc.wantOK {
				if err != nil || !bytes.Equal(got, data) {
					t.Fatalf("ReadAll() = %q, %v, want %q", got, err, data)
				}
				if !dec.EOF() {
					t.Fatalf("EOF() = false after a complete stream")
				}
				return
			}
			var cerr *CodecError
			if !errors.As(err, &cerr) {
				t.Fatalf("ReadAll() = %q, %v (%T), want *CodecError", got, err, err)
			}
		})
	}
}

// swappable is a seekable transport whose content can be replaced between passes.
type swappable struct {
	*bytes.Reader
}

func TestRewindReopenFailure(t *testing.T) {
	t.Parallel()

	data := sample(4000)
	tr := &swappable{bytes.NewReader(encode(t, Config{Algorithm: Gzip}, data))}
	dec, err := Config{Algorithm: Gzip, BufferSize: 512}.NewDecoder(tr)
	if err != nil {
		t.Fatalf("NewDecoder() error = %v", err)
	}
	defer dec.Close()
	if _, err := io.ReadFull(dec, make([]byte, 100)); err != nil {
		t.Fatalf("ReadFull() error = %v", err)
	}

	tr.Reader = bytes.NewReader([]byte("no longer gzip"))
	rerr := dec.Rewind()
	var cerr *CodecError
	if !errors.As(rerr, &cerr) {
		t.Fatalf("Rewind() error = %v (%T), want *CodecError", rerr, rerr)
	}
	// The released codec is not used again; the failure sticks.
	for i := 0; i < 2; i++ {
		if n, err := dec.Read(make([]byte, 10)); n != 0 || err != rerr {
			t.Fatalf("Read() after a failed Rewind = %d, %v, want 0, %v", n, err, rerr)
		}
	}
	if dec.EOF() {
		t.Fatalf("EOF() = true after a failed Rewind")
	}

	tr.Reader = bytes.NewReader(encode(t, Config{Algorithm: Gzip}, data))
	if err := dec.Rewind(); err != nil {
		t.Fatalf("Rewind() over a valid stream error = %v", err)
	}
	got, err := io.ReadAll(dec)
	if err != nil || !bytes.Equal(got, data) {
		t.Fatalf("ReadAll() after recovery = %d bytes, %v, want %d bytes", len(got), err, len(data))
	}
}

// brokenPipe delivers data and then fails.
type brokenPipe struct {
	data []byte
	err  error
}

func (b *brokenPipe) Read(p []byte) (int, error) {
	if len(b.data) == 0 {
		return 0, b.err
	}
	n := copy(p, b.data)
	b.data = b.data[n:]
	return n, nil
}

func (b *brokenPipe) Write([]byte) (int, error) {
	return 0, b.err
}

func TestTransportError(t *testing.T) {
	t.Parallel()

	exp := errors.New("connection reset")

	for _, alg := range []Algorithm{None, Gzip} {
		alg := alg
		t.Run(alg.String(), func(t *testing.T) {
			t.Parallel()

			var ioErr *IOError
			dec, err := Config{Algorithm: alg}.NewDecoder(&brokenPipe{err: exp})
			if err == nil {
				_, err = io.ReadAll(dec)
			}
			if !errors.As(err, &ioErr) || !errors.Is(err, exp) {
				t.Fatalf("decode error = %v (%T), want *IOError wrapping %v", err, err, exp)
			}

			enc, err := Config{Algorithm: alg}.NewEncoder(&brokenPipe{err: exp})
			if err != nil {
				t.Fatalf("NewEncoder() error = %v", err)
			}
			if _, err := enc.Write([]byte("a,b\n")); err == nil {
				err = enc.Close()
				if !errors.As(err, &ioErr) || !errors.Is(err, exp) {
					t.Fatalf("Close() error = %v (%T), want *IOError wrapping %v", err, err, exp)
				}
				return
			}
			if _, err := enc.Write([]byte("more")); !errors.As(err, &ioErr) || !errors.Is(err, exp) {
				t.Fatalf("Write() error = %v (%T), want sticky *IOError wrapping %v", err, err, exp)
			}
		})
	}
}

func TestClosedStream(t *testing.T) {
	t.Parallel()

	dec, err := Config{}.NewDecoder(strings.NewReader("abc"))
	if err != nil {
		t.Fatalf("NewDecoder() error = %v", err)
	}
	if err := dec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := dec.Read(make([]byte, 1)); !errors.Is(err, ErrClosed) {
		t.Fatalf("Read() after Close error = %v, want ErrClosed", err)
	}
	if err := dec.Close(); !errors.Is(err, ErrClosed) {
		t.Fatalf("second Close() error = %v, want ErrClosed", err)
	}
	if err := dec.Rewind(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Rewind() after Close error = %v, want ErrClosed", err)
	}

	enc, err := Config{Algorithm: Snappy}.NewEncoder(io.Discard)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := enc.Write([]byte("x")); !errors.Is(err, ErrClosed) {
		t.Fatalf("Write() after Close error = %v, want ErrClosed", err)
	}
	if err := enc.Flush(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Flush() after Close error = %v, want ErrClosed", err)
	}
}

func TestConfigErrors(t *testing.T) {
	t.Parallel()

	if _, err := (Config{}).NewDecoder(nil); !errors.Is(err, ErrNilTransport) {
		t.Fatalf("NewDecoder(nil) error = %v, want ErrNilTransport", err)
	}
	if _, err := (Config{}).NewEncoder(nil); !errors.Is(err, ErrNilTransport) {
		t.Fatalf("NewEncoder(nil) error = %v, want ErrNilTransport", err)
	}
	if _, err := (Config{Algorithm: Algorithm(200)}).NewDecoder(strings.NewReader("")); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Fatalf("NewDecoder(unknown) error = %v, want ErrUnknownAlgorithm", err)
	}
}

func TestCloseLeavesTransportOpen(t *testing.T) {
	t.Parallel()

	f, err := os.Create(filepath.Join(t.TempDir(), "plain.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc, err := Config{Algorithm: XZ}.NewEncoder(f)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := f.Write([]byte("still open")); err != nil {
		t.Fatalf("transport closed without CloseTransport: %v", err)
	}
}

func TestLifecycleLogging(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	cfg := Config{Algorithm: Gzip, Logger: logging.New(&logs, "debug", "json")}
	packed := encode(t, cfg, []byte("a,b\n"))

	dec, err := cfg.NewDecoder(bytes.NewReader(packed))
	if err != nil {
		t.Fatalf("NewDecoder() error = %v", err)
	}
	if _, err := io.ReadAll(dec); err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if err := dec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	out := logs.String()
	for _, want := range []string{`"msg":"stream opened"`, `"msg":"stream closed"`, `"direction":"decode"`, `"direction":"encode"`, `"plain_bytes":4`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}
