package zstream

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrClosed is returned by operations on a closed Decoder or Encoder.
	ErrClosed = errors.New("zstream: use of closed stream")
	// ErrNilTransport is returned when a Decoder or Encoder is opened without a transport.
	ErrNilTransport = errors.New("zstream: transport cannot be nil")
	// ErrUnsupportedDirection is returned when the algorithm cannot work in the requested direction.
	ErrUnsupportedDirection = errors.New("zstream: direction not supported by algorithm")
	// ErrNotSeekable is returned by Rewind when the transport cannot seek.
	ErrNotSeekable = errors.New("zstream: transport does not support rewinding")
	// ErrUnknownAlgorithm is returned for an Algorithm value without an engine.
	ErrUnknownAlgorithm = errors.New("zstream: unknown algorithm")
)

// CodecError carries a failure reported by the compression engine itself.
type CodecError struct {
	Algorithm Algorithm
	Op        string
	Err       error
}

func (e *CodecError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("zstream: %s %s: %v", e.Algorithm, e.Op, e.Err)
}

func (e *CodecError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IOError wraps a failure of the transport beneath the codec.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("zstream: transport %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
