// Package runner executes the external tools preprint drives (the build
// command, latexdiff, latexmk, ImageMagick, vc) as POSIX shell scripts
// interpreted in-process.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// ErrCommandFailed is matched by errors from scripts that exit non-zero.
var ErrCommandFailed = errors.New("command failed")

// ErrToolNotFound is matched when the shell could not find a program.
var ErrToolNotFound = errors.New("tool not found")

// exitNotFound is the status POSIX shells use for an unknown command.
const exitNotFound = 127

// Command is one script invocation.
type Command struct {
	Script string
	// Dir is the working directory; empty means the current one.
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
	// Env entries (KEY=VALUE) are layered over the process environment.
	Env []string
}

// Runner runs commands. Shell is the production implementation; tests swap
// in recorders.
type Runner interface {
	Run(ctx context.Context, c Command) error
}

// ExitError reports a script that finished with a non-zero status.
type ExitError struct {
	Script string
	Code   int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%q exited with status %d", e.Script, e.Code)
}

func (e *ExitError) Unwrap() error {
	if e.Code == exitNotFound {
		return ErrToolNotFound
	}
	return ErrCommandFailed
}

// Shell interprets scripts with mvdan.cc/sh. Output defaults to the process
// stdout and stderr.
type Shell struct{}

// Run implements Runner. It blocks until the script exits.
func (Shell) Run(ctx context.Context, c Command) error {
	prog, err := syntax.NewParser().Parse(strings.NewReader(c.Script), "")
	if err != nil {
		return fmt.Errorf("parse %q: %w", c.Script, err)
	}

	stdout, stderr := c.Stdout, c.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	env := append(os.Environ(), c.Env...)
	opts := []interp.RunnerOption{
		interp.StdIO(nil, stdout, stderr),
		interp.Env(expand.ListEnviron(env...)),
	}
	if c.Dir != "" {
		dir, err := filepath.Abs(c.Dir)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", c.Dir, err)
		}
		opts = append(opts, interp.Dir(dir))
	}

	r, err := interp.New(opts...)
	if err != nil {
		return fmt.Errorf("create shell: %w", err)
	}
	if err := r.Run(ctx, prog); err != nil {
		if status, ok := interp.IsExitStatus(err); ok {
			return &ExitError{Script: c.Script, Code: int(status)}
		}
		return fmt.Errorf("run %q: %w", c.Script, err)
	}
	return nil
}

// Quote returns s quoted for safe use as a single shell word.
func Quote(s string) string {
	q, err := syntax.Quote(s, syntax.LangPOSIX)
	if err != nil {
		// Only NUL bytes are unquotable; paths never contain them.
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	return q
}

// Expand substitutes {name} placeholders in a command template.
func Expand(template string, vars map[string]string) string {
	pairs := make([]string, 0, 2*len(vars))
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
