// Command csvz recodes CSV files between dialects and compression formats.
//
//	csvz -in orders.csv.gz -out orders.csv.zst -profile semicolon.yaml
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/oleg578/streamcsv/internal/config"
	"github.com/oleg578/streamcsv/internal/logging"
	"github.com/oleg578/streamcsv/zstream"
)

var (
	inPath   = flag.String("in", "-", "Input CSV file, - for stdin.")
	outPath  = flag.String("out", "-", "Output CSV file, - for stdout.")
	inCodec  = flag.String("in-codec", "", "Input compression (none, gzip, zlib, zstd, snappy, lz4, xz, brotli, bzip2). Defaults to the input file extension.")
	outCodec = flag.String("out-codec", "", "Output compression. Defaults to the output file extension.")
	profile  = flag.String("profile", "", "YAML dialect profile. Overrides CSVZ_PROFILE.")
	level    = flag.Int("level", -1, "Compression level. Overrides CSVZ_LEVEL when not negative.")
)

var errc = color.New(color.BgRed, color.FgWhite).FprintfFunc()

func oerr(msg string) {
	errc(os.Stderr, "\tERROR: %s ", msg)
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Flags available:")
	flag.CommandLine.SetOutput(os.Stderr)
	flag.PrintDefaults()
	fmt.Fprintln(os.Stderr)
}

func fatalf(format string, args ...any) {
	errc(os.Stderr, "\tERROR: "+format+" ", args...)
	fmt.Fprintln(os.Stderr)
	os.Exit(1)
}

func algorithm(name, path string) (zstream.Algorithm, error) {
	if name != "" {
		return zstream.ParseAlgorithm(name)
	}
	return zstream.AlgorithmForPath(path), nil
}

func main() {
	flag.Parse()

	envLoaded := godotenv.Load() == nil

	cfg, err := config.Load()
	if err != nil {
		fatalf("%v", err)
	}
	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger.Debug("configuration loaded",
		"env_file", envLoaded,
		"level", cfg.Stream.Level,
		"chunk_size", cfg.Stream.ChunkSize,
		"buffer_size", cfg.Stream.BufferSize,
	)

	if *level >= 0 {
		cfg.Stream.Level = *level
	}
	if *profile != "" {
		cfg.Stream.Profile = *profile
	}

	inAlg, err := algorithm(*inCodec, *inPath)
	if err != nil {
		oerr(err.Error())
		os.Exit(2)
	}
	outAlg, err := algorithm(*outCodec, *outPath)
	if err != nil {
		oerr(err.Error())
		os.Exit(2)
	}
	prof, err := config.LoadProfile(cfg.Stream.Profile)
	if err != nil {
		fatalf("%v", err)
	}

	j := &job{
		in:      *inPath,
		out:     *outPath,
		inAlg:   inAlg,
		outAlg:  outAlg,
		stream:  cfg.Stream,
		profile: prof,
		log:     logger,
	}
	st, err := j.run()
	if err != nil {
		slog.Error("recode failed", "in", j.in, "out", j.out, "error", err)
		fatalf("%v", err)
	}
	slog.Info("recode finished",
		"rows", st.rows,
		"in_codec", inAlg.String(),
		"out_codec", outAlg.String(),
		"plain_in", st.plainIn,
		"compressed_in", st.compressedIn,
		"plain_out", st.plainOut,
		"compressed_out", st.compressedOut,
	)
}
