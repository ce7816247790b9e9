// Package zstream turns compression engines into plain sequential byte streams.
//
// One Config builds two kinds of handle: a Decoder, which decompresses while
// reading, and an Encoder, which compresses while writing. Each handle owns exactly
// one codec context and tracks the number of plaintext bytes it has moved, so reading
// a Decoder to exhaustion yields the uncompressed size even though it is never
// stored in the compressed format.
//
//	enc, err := zstream.Config{Algorithm: zstream.Zstd}.NewEncoder(f)
//	if err != nil {
//		return err
//	}
//	w := streamcsv.NewWriter(enc)
//	// ... write rows ...
//	if err := w.Close(); err != nil {
//		return err
//	}
//	return enc.Close()
//
// Supported algorithms are gzip, zlib, zstd, snappy (framed), lz4, xz, brotli and
// bzip2, in both directions. A stream cut before its end marker fails with a
// *CodecError.
package zstream
