// Package tex flattens LaTeX manuscripts: it expands \input and
// \InputIfFileExists recursively, strips comments and injects compiled
// bibliographies.
package tex

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fulmenhq/preprint/pkg/source"
)

// Ext is the extension assumed for included files that name none.
const Ext = ".tex"

// DefaultMaxDepth bounds include nesting. Real manuscripts nest a handful of
// levels; hitting the bound means a file includes itself.
const DefaultMaxDepth = 64

// ErrCyclicInclude is matched by errors raised when the nesting bound is hit.
var ErrCyclicInclude = errors.New("cyclic include")

// IncludeDepthError reports the include chain that exceeded the bound.
type IncludeDepthError struct {
	Chain []string
	Limit int
}

func (e *IncludeDepthError) Error() string {
	chain := e.Chain
	prefix := ""
	if len(chain) > 6 {
		chain = chain[len(chain)-6:]
		prefix = "... -> "
	}
	return fmt.Sprintf("include depth %d exceeded: %s%s", e.Limit, prefix, strings.Join(chain, " -> "))
}

func (e *IncludeDepthError) Unwrap() error {
	return ErrCyclicInclude
}

// Inliner expands inclusion directives against a source.Provider.
type Inliner struct {
	maxDepth int
	fallback source.Provider
	input    directive
	inputIf  directive
}

// Option configures an Inliner.
type Option func(*Inliner)

// WithMaxDepth sets the include nesting bound. n <= 0 removes the bound, in
// which case a cyclic include recurses until the stack is exhausted.
func WithMaxDepth(n int) Option {
	return func(in *Inliner) {
		in.maxDepth = n
	}
}

// WithFallback names a provider consulted when a bare \input target is
// missing from the primary provider. Snapshot flattening uses the live
// filesystem here so that files never committed, or committed under another
// name since, still resolve.
func WithFallback(p source.Provider) Option {
	return func(in *Inliner) {
		in.fallback = p
	}
}

// NewInliner returns an Inliner with the default depth bound and no fallback.
func NewInliner(opts ...Option) *Inliner {
	in := &Inliner{
		maxDepth: DefaultMaxDepth,
		input:    directive{name: "input", arity: 1},
		inputIf:  directive{name: "InputIfFileExists", arity: 3},
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// TexPath appends Ext to name unless it already ends with it.
func TexPath(name string) string {
	if strings.HasSuffix(name, Ext) {
		return name
	}
	return name + Ext
}

// Inline returns text with every \input{f} replaced by the inlined contents
// of f, then every \InputIfFileExists{f}{then}{else} replaced by the
// contents of f followed by then, or by else when f is missing.
func (in *Inliner) Inline(text string, p source.Provider) (string, error) {
	return in.inline(text, p, nil)
}

func (in *Inliner) inline(text string, p source.Provider, chain []string) (string, error) {
	out, err := in.input.replace(text, func(args []string) (string, error) {
		return in.expandInput(args[0], p, chain)
	})
	if err != nil {
		return "", err
	}
	return in.inputIf.replace(out, func(args []string) (string, error) {
		return in.expandInputIf(args, p, chain)
	})
}

func (in *Inliner) expandInput(name string, p source.Provider, chain []string) (string, error) {
	path := TexPath(strings.TrimSpace(name))
	next, err := in.descend(chain, path)
	if err != nil {
		return "", err
	}

	body, err := p.Resolve(path)
	if err != nil && in.fallback != nil && source.IsNotFound(err) {
		var ferr error
		body, ferr = in.fallback.Resolve(path)
		if ferr == nil {
			err = nil
		}
	}
	if err != nil {
		return "", fmt.Errorf(`\input{%s}: %w`, name, err)
	}
	return in.inline(body, p, next)
}

func (in *Inliner) expandInputIf(args []string, p source.Provider, chain []string) (string, error) {
	path := TexPath(strings.TrimSpace(args[0]))
	body, err := p.Resolve(path)
	switch {
	case err == nil:
		next, err := in.descend(chain, path)
		if err != nil {
			return "", err
		}
		return in.inline(body+"\n"+args[1], p, next)
	case source.IsNotFound(err):
		return in.inline(args[2], p, chain)
	default:
		return "", fmt.Errorf(`\InputIfFileExists{%s}: %w`, args[0], err)
	}
}

// descend returns chain extended by path, or an error once the bound is hit.
func (in *Inliner) descend(chain []string, path string) ([]string, error) {
	next := append(chain[:len(chain):len(chain)], path)
	if in.maxDepth > 0 && len(next) > in.maxDepth {
		return nil, &IncludeDepthError{Chain: next, Limit: in.maxDepth}
	}
	return next, nil
}
