// # StreamCSV: A Streaming CSV Codec for Go
//
// StreamCSV reads and writes CSV records one byte at a time through a strict field/row state machine. It is built to sit on top of compressed byte streams (see the zstream subpackage) without ever holding a whole file in memory.
//
// # Features
//
// - Configurable dialect: field separator, quote byte, and an ordered list of candidate line endings.
// - Ambiguous end-of-line recognition: every candidate ending is tracked at once and a row only ends once no longer candidate can still match.
// - Strict mode that rejects rows missing the configured line ending, plus optional field trimming and quote retention.
// - Writer quoting by byte set, by column index, or by regular expression, with quote doubling.
// - Structured errors: `ParseError`, `ConfigError`, `IOError`, and the `ErrUnterminatedQuote`, `ErrMissingEndOfRow`, `ErrAfterEndOfRow`, `ErrorFieldCount` sentinels.
// - Optional record reuse (`Reader.ReuseRecord`) and width enforcement (`Reader.FieldsPerRecord`).
//
// # Getting Started
//
// The module path is `github.com/oleg578/streamcsv`. Wrap a `zstream.Decoder` with `NewReader` to parse compressed input, or hand a `zstream.Encoder` to `NewWriter` to produce it.
package streamcsv
