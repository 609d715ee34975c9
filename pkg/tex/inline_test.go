package tex

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fulmenhq/preprint/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapProvider serves files from memory and counts lookups.
type mapProvider struct {
	origin string
	files  map[string]string
	calls  []string
}

func (m *mapProvider) Origin() string { return m.origin }

func (m *mapProvider) Resolve(path string) (string, error) {
	m.calls = append(m.calls, path)
	if text, ok := m.files[path]; ok {
		return text, nil
	}
	return "", &source.NotFoundError{Path: path, Origin: m.origin}
}

func provider(files map[string]string) *mapProvider {
	return &mapProvider{origin: "memory", files: files}
}

func TestTexPath(t *testing.T) {
	assert.Equal(t, "a.tex", TexPath("a"))
	assert.Equal(t, "a.tex", TexPath("a.tex"))
	assert.Equal(t, "dir/a.b.tex", TexPath("dir/a.b"))
}

func TestInline_IdentityWithoutDirectives(t *testing.T) {
	inputs := []string{
		"",
		"plain text\nwith lines\n",
		`\section{Intro} \includegraphics{fig} \inputencoding{utf8}`,
		`\input`,
		`\input{unterminated`,
		`\InputIfFileExists{a}{b}`,
		`% \bibliography{refs}`,
	}
	for _, in := range inputs {
		p := provider(nil)
		out, err := NewInliner().Inline(in, p)
		require.NoError(t, err)
		assert.Equal(t, in, out)
		assert.Empty(t, p.calls, "no lookups expected for %q", in)
	}
}

func TestInline_Input(t *testing.T) {
	p := provider(map[string]string{"a.tex": "body"})
	out, err := NewInliner().Inline("before\n\\input{a}\nafter", p)
	require.NoError(t, err)
	assert.Equal(t, "before\nbody\nafter", out)
}

func TestInline_ExplicitExtension(t *testing.T) {
	p := provider(map[string]string{"sections/a.tex": "body"})
	out, err := NewInliner().Inline(`\input{sections/a.tex}`, p)
	require.NoError(t, err)
	assert.Equal(t, "body", out)
}

func TestInline_ParentRelativeInput(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "paper"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "shared"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "shared", "macros.tex"), []byte(`\newcommand{\R}{\mathbb{R}}`), 0o644))

	out, err := NewInliner().Inline("pre \\input{../shared/macros} post", source.NewLive(filepath.Join(root, "paper")))
	require.NoError(t, err)
	assert.Equal(t, `pre \newcommand{\R}{\mathbb{R}} post`, out)
}

func TestInline_Recursive(t *testing.T) {
	p := provider(map[string]string{
		"a.tex": "A[\\input{b}]",
		"b.tex": "B[\\input{c}]",
		"c.tex": "C",
	})
	out, err := NewInliner().Inline(`root \input{a} end`, p)
	require.NoError(t, err)
	assert.Equal(t, "root A[B[C]] end", out)
}

func TestInline_SeveralOnOneLine(t *testing.T) {
	p := provider(map[string]string{"a.tex": "1", "b.tex": "2"})
	out, err := NewInliner().Inline(`\input{a}\input{b} \input{a}`, p)
	require.NoError(t, err)
	assert.Equal(t, "12 1", out)
}

func TestInline_SubstitutedTextIsNotRescanned(t *testing.T) {
	// a.tex expands to text that looks like a directive once joined with
	// its neighbour; the pass works on the original positions only.
	p := provider(map[string]string{"a.tex": `\inp`, "b.tex": "B"})
	out, err := NewInliner().Inline(`\input{a}ut{b}`, p)
	require.NoError(t, err)
	assert.Equal(t, `\input{b}`, out)
}

func TestInline_MissingInputIsFatal(t *testing.T) {
	p := provider(map[string]string{"a.tex": `\input{gone}`})
	_, err := NewInliner().Inline(`\input{a}`, p)
	require.Error(t, err)
	assert.True(t, source.IsNotFound(err))
	assert.Contains(t, err.Error(), "gone.tex")
}

func TestInline_InputIfFileExists(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		p := provider(map[string]string{"opt.tex": "OPT", "x.tex": "X"})
		out, err := NewInliner().Inline(`\InputIfFileExists{opt}{\input{x}}{fallback}`, p)
		require.NoError(t, err)
		assert.Equal(t, "OPT\nX", out)
	})

	t.Run("missing uses fallback", func(t *testing.T) {
		p := provider(map[string]string{"x.tex": "X"})
		out, err := NewInliner().Inline(`[\InputIfFileExists{missing}{APPEND}{else \input{x}}]`, p)
		require.NoError(t, err)
		assert.Equal(t, "[else X]", out)
	})

	t.Run("nested braces in blocks", func(t *testing.T) {
		p := provider(nil)
		out, err := NewInliner().Inline(`\InputIfFileExists{m}{\relax}{\textbf{none}}`, p)
		require.NoError(t, err)
		assert.Equal(t, `\textbf{none}`, out)
	})
}

func TestInline_OrderOfFamilies(t *testing.T) {
	// \input is expanded across the whole text before any
	// \InputIfFileExists, so the optional file sees the inlined content.
	p := provider(map[string]string{"a.tex": "A", "opt.tex": "O"})
	out, err := NewInliner().Inline(`\InputIfFileExists{opt}{}{} \input{a}`, p)
	require.NoError(t, err)
	assert.Equal(t, "O\n A", out)
	assert.Equal(t, []string{"a.tex", "opt.tex"}, p.calls)
}

func TestInline_CyclicInclude(t *testing.T) {
	p := provider(map[string]string{
		"a.tex": `\input{b}`,
		"b.tex": `\input{a}`,
	})
	_, err := NewInliner(WithMaxDepth(10)).Inline(`\input{a}`, p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCyclicInclude))

	var depthErr *IncludeDepthError
	require.True(t, errors.As(err, &depthErr))
	assert.Equal(t, 10, depthErr.Limit)
	assert.Len(t, depthErr.Chain, 11)
	assert.Contains(t, err.Error(), "... -> ")
}

func TestInline_DepthBoundAllowsExactDepth(t *testing.T) {
	p := provider(map[string]string{
		"a.tex": `\input{b}`,
		"b.tex": `leaf`,
	})
	out, err := NewInliner(WithMaxDepth(2)).Inline(`\input{a}`, p)
	require.NoError(t, err)
	assert.Equal(t, "leaf", out)

	_, err = NewInliner(WithMaxDepth(1)).Inline(`\input{a}`, p)
	assert.ErrorIs(t, err, ErrCyclicInclude)
}

func TestInline_Fallback(t *testing.T) {
	snapshot := &mapProvider{origin: "snapshot v1", files: map[string]string{
		"paper.tex": `\input{old}`,
		"old.tex":   `\input{added}`,
	}}
	live := provider(map[string]string{"added.tex": `\input{nested}`, "nested.tex": "N"})

	_, err := NewInliner().Inline(`\input{old}`, snapshot)
	require.Error(t, err, "no fallback configured")

	// The fallback supplies added.tex, but nested.tex is still looked up in
	// the snapshot first.
	snapshot.files["nested.tex"] = "SNAP"
	out, err := NewInliner(WithFallback(live)).Inline(`\input{old}`, snapshot)
	require.NoError(t, err)
	assert.Equal(t, "SNAP", out)

	_, err = NewInliner(WithFallback(live)).Inline(`\input{nowhere}`, snapshot)
	require.Error(t, err)
	assert.True(t, source.IsNotFound(err))
	assert.Contains(t, err.Error(), "snapshot v1")
}

func TestInline_FallbackNotUsedForOptionalInput(t *testing.T) {
	snapshot := &mapProvider{origin: "snapshot", files: map[string]string{}}
	live := provider(map[string]string{"opt.tex": "LIVE"})
	out, err := NewInliner(WithFallback(live)).Inline(`\InputIfFileExists{opt}{}{none}`, snapshot)
	require.NoError(t, err)
	assert.Equal(t, "none", out)
}

type brokenProvider struct{}

func (brokenProvider) Origin() string { return "broken" }
func (brokenProvider) Resolve(string) (string, error) {
	return "", errors.New("disk on fire")
}

func TestInline_OptionalInputPropagatesOtherErrors(t *testing.T) {
	_, err := NewInliner().Inline(`\InputIfFileExists{a}{}{}`, brokenProvider{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}
