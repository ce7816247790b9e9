// Package config loads csvz settings from environment variables with defaults and
// validates them on startup to fail fast on misconfiguration.
package config

// Config holds all csvz configuration.
type Config struct {
	Logging LoggingConfig
	Stream  StreamConfig
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"CSVZ_LOG_LEVEL" envAlt:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"CSVZ_LOG_FORMAT" envAlt:"LOG_FORMAT" default:"text"`
}

// StreamConfig holds compression stream settings.
type StreamConfig struct {
	// Level is the compression level, 0 picks the algorithm default (default: 0)
	Level int `env:"CSVZ_LEVEL" default:"0"`

	// ChunkSize is the largest plaintext write handed to a codec (default: 64KiB)
	ChunkSize int `env:"CSVZ_CHUNK_SIZE" default:"65536"`

	// BufferSize is the decompression look-ahead (default: 64KiB)
	BufferSize int `env:"CSVZ_BUFFER_SIZE" default:"65536"`

	// KeepBOM leaves a leading UTF-8 byte order mark in the input (default: false)
	KeepBOM bool `env:"CSVZ_KEEP_BOM" default:"false"`

	// Profile is the path of a YAML dialect profile (optional)
	Profile string `env:"CSVZ_PROFILE"`
}
