package zstream

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Algorithm identifies a compression format.
type Algorithm uint8

const (
	None Algorithm = iota
	Gzip
	Zlib
	Zstd
	Snappy
	LZ4
	XZ
	Brotli
	Bzip2
)

var algorithmNames = [...]string{
	None:   "none",
	Gzip:   "gzip",
	Zlib:   "zlib",
	Zstd:   "zstd",
	Snappy: "snappy",
	LZ4:    "lz4",
	XZ:     "xz",
	Brotli: "brotli",
	Bzip2:  "bzip2",
}

var algorithmExts = [...]string{
	None:   "",
	Gzip:   ".gz",
	Zlib:   ".zz",
	Zstd:   ".zst",
	Snappy: ".sz",
	LZ4:    ".lz4",
	XZ:     ".xz",
	Brotli: ".br",
	Bzip2:  ".bz2",
}

// String returns the lower case name of the algorithm.
func (a Algorithm) String() string {
	if int(a) < len(algorithmNames) {
		return algorithmNames[a]
	}
	return "unknown"
}

// Extension returns the conventional file suffix, empty for None.
func (a Algorithm) Extension() string {
	if int(a) < len(algorithmExts) {
		return algorithmExts[a]
	}
	return ""
}

// ParseAlgorithm resolves a name such as "zstd" or "gz".
func ParseAlgorithm(name string) (Algorithm, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "", "none", "plain":
		return None, nil
	case "gz":
		return Gzip, nil
	case "zst":
		return Zstd, nil
	case "sz", "s2":
		return Snappy, nil
	case "br":
		return Brotli, nil
	case "bz2":
		return Bzip2, nil
	}
	for i, n := range algorithmNames {
		if n == name {
			return Algorithm(i), nil
		}
	}
	return None, errors.Errorf("zstream: unknown algorithm %q", name)
}

// AlgorithmForPath picks the algorithm matching the file suffix of path, None when
// the suffix is not a known compression extension.
func AlgorithmForPath(path string) Algorithm {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return None
	}
	for i, e := range algorithmExts {
		if e == ext {
			return Algorithm(i)
		}
	}
	return None
}
