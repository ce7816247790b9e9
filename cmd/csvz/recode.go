package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/oleg578/streamcsv"
	"github.com/oleg578/streamcsv/internal/config"
	"github.com/oleg578/streamcsv/zstream"
	"github.com/pkg/errors"
)

// job recodes one CSV stream into another dialect and compression format.
type job struct {
	in      string
	out     string
	inAlg   zstream.Algorithm
	outAlg  zstream.Algorithm
	stream  config.StreamConfig
	profile *config.Profile
	log     *slog.Logger
}

type stats struct {
	rows          int
	plainIn       int64
	compressedIn  int64
	plainOut      int64
	compressedOut int64
}

func openInput(path string) (io.Reader, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdin, func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "unable to open %s", path)
	}
	return f, f.Close, nil
}

func createOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "unable to create %s", path)
	}
	return f, f.Close, nil
}

func (j *job) run() (st stats, err error) {
	src, closeSrc, err := openInput(j.in)
	if err != nil {
		return st, err
	}
	defer closeSrc()

	dec, err := zstream.Config{
		Algorithm:  j.inAlg,
		BufferSize: j.stream.BufferSize,
		Logger:     j.log,
	}.NewDecoder(src)
	if err != nil {
		return st, errors.Wrapf(err, "unable to open %s", j.in)
	}
	defer dec.Close()

	dialect, err := j.profile.Input.Dialect()
	if err != nil {
		return st, err
	}
	r, err := streamcsv.NewReaderDialect(dec, dialect)
	if err != nil {
		return st, err
	}
	r.KeepBOM = j.stream.KeepBOM
	r.ReuseRecord = true
	r.FieldsPerRecord = -1

	dst, closeDst, err := createOutput(j.out)
	if err != nil {
		return st, err
	}
	enc, err := zstream.Config{
		Algorithm: j.outAlg,
		Level:     j.stream.Level,
		ChunkSize: j.stream.ChunkSize,
		Logger:    j.log,
	}.NewEncoder(dst)
	if err != nil {
		closeDst()
		return st, errors.Wrapf(err, "unable to create %s", j.out)
	}
	w := streamcsv.NewWriter(enc)
	if err := j.profile.Output.Apply(w); err != nil {
		enc.Close()
		closeDst()
		return st, err
	}

	if err := copyRows(r, w, &st); err != nil {
		w.Close()
		enc.Close()
		closeDst()
		return st, errors.Wrapf(err, "recoding stopped after %d rows", st.rows)
	}

	if err := w.Close(); err != nil {
		enc.Close()
		closeDst()
		return st, err
	}
	if err := enc.Close(); err != nil {
		closeDst()
		return st, err
	}
	if err := closeDst(); err != nil {
		return st, errors.Wrapf(err, "unable to close %s", j.out)
	}

	st.plainIn = dec.Position()
	st.compressedIn = dec.CompressedBytes()
	st.plainOut = enc.Position()
	st.compressedOut = enc.CompressedBytes()
	return st, nil
}

func copyRows(r *streamcsv.Reader, w *streamcsv.Writer, st *stats) error {
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := w.Write(rec); err != nil {
			return err
		}
		st.rows++
	}
}
