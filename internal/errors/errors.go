package errors

import (
	stdErrors "errors"
	"fmt"
)

// generatorMarker is implemented by every generator-layer error type so
// callers can classify failures without knowing the concrete type.
type generatorMarker interface {
	error
	fatal() bool
}

// ConfigError reports a seed or configuration problem detected while
// installing generators (wrong seed kind, empty value pool, unknown argument
// type, unparseable file). The generator must not be used afterwards.
type ConfigError struct {
	Op  string // high-level operation (e.g. "seed.integer", "config.run.load")
	Err error  // underlying cause (may be nil)
}

func (e *ConfigError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("config error: %s", e.Op)
	}
	return fmt.Sprintf("config error: %s: %v", e.Op, e.Err)
}
func (e *ConfigError) Unwrap() error { return e.Err }
func (e *ConfigError) fatal() bool   { return true }

// StateError indicates a precondition violation by the caller, such as
// selecting an EVR from an unseeded generator.
type StateError struct {
	Op  string
	Err error
}

func (e *StateError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("state error: %s", e.Op)
	}
	return fmt.Sprintf("state error: %s: %v", e.Op, e.Err)
}
func (e *StateError) Unwrap() error { return e.Err }
func (e *StateError) fatal() bool   { return true }

// CodecError indicates the binary encoder met something it cannot encode.
// It always signals a codec/dictionary mismatch.
type CodecError struct {
	Op  string
	Err error
}

func (e *CodecError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("codec error: %s", e.Op)
	}
	return fmt.Sprintf("codec error: %s: %v", e.Op, e.Err)
}
func (e *CodecError) Unwrap() error { return e.Err }
func (e *CodecError) fatal() bool   { return true }

// DictionaryError reports a gap between the dictionary and the configured
// mission (e.g. an EVR level that is not configured). The affected unit of
// work is skipped and the run continues.
type DictionaryError struct {
	Op  string
	Err error
}

func (e *DictionaryError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("dictionary error: %s", e.Op)
	}
	return fmt.Sprintf("dictionary error: %s: %v", e.Op, e.Err)
}
func (e *DictionaryError) Unwrap() error { return e.Err }
func (e *DictionaryError) fatal() bool   { return false }

// SinkError indicates an output sink (truth file, data file, stats store)
// failed to accept a write.
type SinkError struct {
	Op  string
	Err error
}

func (e *SinkError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("sink error: %s", e.Op)
	}
	return fmt.Sprintf("sink error: %s: %v", e.Op, e.Err)
}
func (e *SinkError) Unwrap() error { return e.Err }
func (e *SinkError) fatal() bool   { return true }

// IsConfigError returns true if the error chain contains a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return err != nil && stdErrors.As(err, &ce)
}

// IsStateError returns true if the error chain contains a StateError.
func IsStateError(err error) bool {
	var se *StateError
	return err != nil && stdErrors.As(err, &se)
}

// IsCodecError returns true if the error chain contains a CodecError.
func IsCodecError(err error) bool {
	var ce *CodecError
	return err != nil && stdErrors.As(err, &ce)
}

// IsDictionaryGap returns true if the error chain contains a DictionaryError.
func IsDictionaryGap(err error) bool {
	var de *DictionaryError
	return err != nil && stdErrors.As(err, &de)
}

// IsFatal reports whether err must abort the run. Errors outside the
// generator taxonomy are treated as fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var gm generatorMarker
	if stdErrors.As(err, &gm) {
		return gm.fatal()
	}
	return true
}

// Constructors (encourage contextual wrapping with %w when used by callers).
func NewConfigError(op string, cause error) error     { return &ConfigError{Op: op, Err: cause} }
func NewStateError(op string, cause error) error      { return &StateError{Op: op, Err: cause} }
func NewCodecError(op string, cause error) error      { return &CodecError{Op: op, Err: cause} }
func NewDictionaryError(op string, cause error) error { return &DictionaryError{Op: op, Err: cause} }
func NewSinkError(op string, cause error) error       { return &SinkError{Op: op, Err: cause} }
