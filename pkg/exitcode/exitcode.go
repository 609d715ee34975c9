// Package exitcode provides the process exit codes of the preprint CLI
package exitcode

import "errors"

// Exit codes for the preprint CLI
const (
	Success         = 0
	GeneralError    = 1
	ConfigError     = 2
	ValidationError = 3 // include cycle or depth limit
	FileSystemError = 4 // manuscript file missing or unreadable
	ToolFailed      = 5 // external tool exited non-zero
	ToolNotFound    = 9
	Interrupted     = 130
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case ValidationError:
		return "Validation error"
	case FileSystemError:
		return "File system error"
	case ToolFailed:
		return "External tool failed"
	case ToolNotFound:
		return "Tool not found"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}

// Error attaches an exit code to an error.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return String(e.Code)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap returns err carrying code. A nil err stays nil.
func Wrap(code int, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Err: err}
}

// Code extracts the exit code from err: Success for nil, the outermost
// attached code when present, GeneralError otherwise.
func Code(err error) int {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return GeneralError
}
