/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package exitcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitCodeValues(t *testing.T) {
	codes := map[string]struct{ got, want int }{
		"Success":         {Success, 0},
		"GeneralError":    {GeneralError, 1},
		"ConfigError":     {ConfigError, 2},
		"ValidationError": {ValidationError, 3},
		"FileSystemError": {FileSystemError, 4},
		"ToolFailed":      {ToolFailed, 5},
		"ToolNotFound":    {ToolNotFound, 9},
		"Interrupted":     {Interrupted, 130},
	}
	for name, c := range codes {
		if c.got != c.want {
			t.Errorf("%s = %d, expected %d", name, c.got, c.want)
		}
	}
}

func TestString(t *testing.T) {
	tests := map[int]string{
		Success:         "Success",
		ConfigError:     "Configuration error",
		FileSystemError: "File system error",
		ToolFailed:      "External tool failed",
		ToolNotFound:    "Tool not found",
		42:              "Unknown error",
	}
	for code, want := range tests {
		if got := String(code); got != want {
			t.Errorf("String(%d) = %q, expected %q", code, got, want)
		}
	}
}

func TestCode(t *testing.T) {
	base := errors.New("paper.tex: file not found")

	if got := Code(nil); got != Success {
		t.Errorf("Code(nil) = %d", got)
	}
	if got := Code(base); got != GeneralError {
		t.Errorf("Code(plain) = %d", got)
	}

	wrapped := fmt.Errorf("flatten: %w", Wrap(FileSystemError, base))
	if got := Code(wrapped); got != FileSystemError {
		t.Errorf("Code(wrapped) = %d, expected %d", got, FileSystemError)
	}
	if !errors.Is(wrapped, base) {
		t.Error("Wrap must keep the cause reachable")
	}
	if wrapped.Error() != "flatten: paper.tex: file not found" {
		t.Errorf("unexpected message %q", wrapped.Error())
	}

	if Wrap(ConfigError, nil) != nil {
		t.Error("Wrap(nil) should be nil")
	}
	if (&Error{Code: ToolNotFound}).Error() != "Tool not found" {
		t.Error("bare Error should describe its code")
	}
}
