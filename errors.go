package rtsa

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidState        = errors.New("invalid session state")
	ErrNoDefaultConfigured = errors.New("no default video frame info configured")
	ErrAlreadyInitialized  = errors.New("native library already initialized by another session")
	ErrLibraryUnavailable  = errors.New("agora rtc library not available")

	ErrEmbeddedNUL      = errors.New("embedded NUL byte")
	ErrInvalidText      = errors.New("invalid UTF-8 text")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrUnknownValue     = errors.New("unknown enumeration value")
)

// EncodingError reports a value that could not be converted to or from its
// native representation. Err is one of ErrEmbeddedNUL, ErrInvalidText,
// ErrCapacityExceeded or ErrUnknownValue.
type EncodingError struct {
	Field string
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Field, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// NativeError carries a nonzero status returned by the vendor library.
type NativeError struct {
	Op   string
	Code ErrorCode
}

func (e *NativeError) Error() string {
	if msg := KnownErrorMessage(e.Code); msg != "" {
		return fmt.Sprintf("%s failed: code %d (%s)", e.Op, e.Code, msg)
	}
	return fmt.Sprintf("%s failed: code %d", e.Op, e.Code)
}

// StateError is returned when an operation is attempted from a state that
// forbids it. No native call has been made.
type StateError struct {
	Op    string
	State State
	Err   error
}

func (e *StateError) Error() string {
	if e.Err != nil && e.Err != ErrInvalidState {
		return fmt.Sprintf("%s: %v (state %s)", e.Op, e.Err, e.State)
	}
	return fmt.Sprintf("%s: not allowed in state %s", e.Op, e.State)
}

func (e *StateError) Unwrap() error {
	if e.Err == nil {
		return ErrInvalidState
	}
	return e.Err
}

// Is makes every StateError match ErrInvalidState regardless of cause.
func (e *StateError) Is(target error) bool { return target == ErrInvalidState }

// ErrorCodeOf extracts the vendor code from err, if it carries one.
func ErrorCodeOf(err error) (ErrorCode, bool) {
	var nerr *NativeError
	if errors.As(err, &nerr) {
		return nerr.Code, true
	}
	return 0, false
}
