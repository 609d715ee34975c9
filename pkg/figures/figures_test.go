package figures

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulmenhq/preprint/pkg/source"
)

func writeFiles(t *testing.T, fs billy.Filesystem, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, util.WriteFile(fs, name, []byte(content), 0o644))
	}
}

func readFile(t *testing.T, fs billy.Filesystem, name string) string {
	t.Helper()
	data, err := util.ReadFile(fs, name)
	require.NoError(t, err)
	return string(data)
}

func TestDiscover_PriorityOrder(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, map[string]string{
		"figs/name.eps": "eps!",
		"figs/name.png": "png",
	})

	records := Discover(fs, `\includegraphics[width=\columnwidth]{figs/name}`, []string{"pdf", "eps", "png"})
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "name", rec.Name)
	assert.Equal(t, "[width=\\columnwidth]", rec.Options)
	assert.Equal(t, 1, rec.Number)
	assert.Equal(t, []string{"eps", "png"}, rec.Formats)
	assert.Equal(t, []int64{4, 3}, rec.Sizes)

	ext, size, ok := rec.Winner([]string{"pdf", "eps", "png"})
	require.True(t, ok)
	assert.Equal(t, "eps", ext)
	assert.Equal(t, int64(4), size)
}

func TestDiscover_SequenceAndBasenameIdentity(t *testing.T) {
	fs := memfs.New()
	text := `\includegraphics{a/plot.pdf}
\includegraphics*[scale=0.5]{b/other}
\includegraphics[angle=90]{c/plot}`

	records := Discover(fs, text, nil)
	require.Len(t, records, 2)

	assert.Equal(t, "plot", records[0].Name)
	assert.Equal(t, 3, records[0].Number, "last directive wins")
	assert.Equal(t, "c/plot", records[0].Path)
	assert.Equal(t, "[angle=90]", records[0].Options)
	assert.Len(t, records[0].Occurrences, 2)

	assert.Equal(t, "other", records[1].Name)
	assert.Equal(t, 2, records[1].Number)
	assert.Equal(t, "*[scale=0.5]", records[1].Options)
	assert.False(t, records[1].Resolved())
}

func TestDiscover_IgnoresDirectories(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("figs/plot.pdf", 0o755))
	writeFiles(t, fs, map[string]string{"figs/plot.png": "png"})

	records := Discover(fs, `\includegraphics{figs/plot}`, []string{"pdf", "png"})
	require.Len(t, records, 1)
	assert.Equal(t, []string{"png"}, records[0].Formats)
}

func TestParseStyle(t *testing.T) {
	for _, name := range Styles() {
		s, err := ParseStyle(name)
		require.NoError(t, err)
		assert.Equal(t, name, s.String())
	}

	s, err := ParseStyle("")
	require.NoError(t, err)
	assert.Equal(t, StyleDefault, s)

	s, err = ParseStyle(" AASTeX ")
	require.NoError(t, err)
	assert.Equal(t, StyleAASTeX, s)

	_, err = ParseStyle("nature")
	assert.ErrorIs(t, err, ErrUnknownStyle)
}

func TestStyleNaming(t *testing.T) {
	rec := &Record{Name: "density-map", Number: 4}

	tests := []struct {
		style     Style
		figure    string
		document  string
		rasterize bool
	}{
		{StyleDefault, "density-map.pdf", "paper.tex", false},
		{StyleArXiv, "figure4.pdf", "paper.tex", false},
		{StyleAASTeX, "f4.pdf", "ms.tex", true},
	}
	for _, tt := range tests {
		t.Run(tt.style.String(), func(t *testing.T) {
			assert.Equal(t, tt.figure, tt.style.FigureName(rec, "pdf"))
			assert.Equal(t, tt.document, tt.style.DocumentName("drafts/paper.tex"))
			assert.Equal(t, tt.rasterize, tt.style.Rasterizes())
		})
	}
}

func TestInstall_NumberedNamesNeverCollide(t *testing.T) {
	src, out := memfs.New(), memfs.New()
	writeFiles(t, src, map[string]string{
		"a/plot.pdf": "first",
		"b/plot2.pdf": "second",
	})
	text := `\includegraphics{a/plot} and \includegraphics[width=3in]{b/plot2.pdf}`

	records := Discover(src, text, nil)
	got, report, err := NewInstaller(src, out, StyleArXiv).Install(context.Background(), text, records)
	require.NoError(t, err)

	assert.Equal(t, `\includegraphics{figure1} and \includegraphics[width=3in]{figure2}`, got)
	assert.Equal(t, "first", readFile(t, out, "figure1.pdf"))
	assert.Equal(t, "second", readFile(t, out, "figure2.pdf"))
	assert.Len(t, report.Installed, 2)
	assert.Empty(t, report.Warnings)
	assert.Equal(t, "figure1.pdf", records[0].Installed)
}

func TestInstall_RenamesAreSinglePass(t *testing.T) {
	src, out := memfs.New(), memfs.New()
	writeFiles(t, src, map[string]string{
		"figure2.pdf": "two",
		"figure1.pdf": "one",
	})
	text := `\includegraphics{figure2} \includegraphics{figure1}`

	got, _, err := NewInstaller(src, out, StyleArXiv).Install(context.Background(), text, Discover(src, text, nil))
	require.NoError(t, err)
	assert.Equal(t, `\includegraphics{figure1} \includegraphics{figure2}`, got)
	assert.Equal(t, "two", readFile(t, out, "figure1.pdf"))
	assert.Equal(t, "one", readFile(t, out, "figure2.pdf"))
}

func TestInstall_DefaultStyleKeepsBasename(t *testing.T) {
	src, out := memfs.New(), memfs.New()
	writeFiles(t, src, map[string]string{"figs/name.eps": "eps", "figs/name.png": "png"})
	text := `\includegraphics[width=\textwidth]{figs/name}`

	got, _, err := NewInstaller(src, out, StyleDefault, WithFormats([]string{"pdf", "eps", "png"})).
		Install(context.Background(), text, Discover(src, text, []string{"pdf", "eps", "png"}))
	require.NoError(t, err)
	assert.Equal(t, `\includegraphics[width=\textwidth]{name}`, got)
	assert.Equal(t, "eps", readFile(t, out, "name.eps"))
	_, err = out.Stat("name.png")
	assert.Error(t, err)
}

func TestInstall_UnresolvedFigureSkipped(t *testing.T) {
	src, out := memfs.New(), memfs.New()
	writeFiles(t, src, map[string]string{"ok.pdf": "pdf", "missing.svg": "svg"})
	text := `\includegraphics{missing} \includegraphics{ok}`

	got, report, err := NewInstaller(src, out, StyleAASTeX).Install(context.Background(), text, Discover(src, text, nil))
	require.NoError(t, err)

	assert.Equal(t, `\includegraphics{missing} \includegraphics{f2}`, got)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "missing", report.Skipped[0].Name)
	require.Len(t, report.Warnings, 1)
	assert.ErrorIs(t, report.Warnings[0], ErrUnresolvedFigure)

	entries, err := out.ReadDir("/")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "f2.pdf", entries[0].Name())
}

func TestInstall_LiteralRewrite(t *testing.T) {
	src, out := memfs.New(), memfs.New()
	writeFiles(t, src, map[string]string{"figs/a+b (1).pdf": "pdf"})
	text := `\includegraphics[trim={0 0 1cm 0}]{figs/a+b (1)}`

	records := Discover(src, text, nil)
	require.Len(t, records, 1)
	got, _, err := NewInstaller(src, out, StyleDefault).Install(context.Background(), text, records)
	require.NoError(t, err)
	assert.Contains(t, got, "{a+b (1)}")
	assert.NotContains(t, got, "figs/")
}

type fakeRasterizer struct {
	fail  bool
	calls []string
}

func (f *fakeRasterizer) Format() string { return "jpg" }

func (f *fakeRasterizer) Rasterize(_ context.Context, fs billy.Filesystem, src, dst string) error {
	f.calls = append(f.calls, src+"->"+dst)
	if f.fail {
		return errors.New("exit status 1")
	}
	return util.WriteFile(fs, dst, []byte("jpeg"), 0o644)
}

func TestInstall_RasterizesOversizedFigures(t *testing.T) {
	src, out := memfs.New(), memfs.New()
	writeFiles(t, src, map[string]string{
		"big.pdf":   string(bytes.Repeat([]byte("x"), 2*bytesPerMB)),
		"small.pdf": "tiny",
	})
	text := `\includegraphics{big} \includegraphics{small}`
	raster := &fakeRasterizer{}

	got, report, err := NewInstaller(src, out, StyleAASTeX, WithMaxSize(1), WithRasterizer(raster)).
		Install(context.Background(), text, Discover(src, text, nil))
	require.NoError(t, err)

	assert.Equal(t, []string{"f1.pdf->f1.jpg"}, raster.calls)
	assert.Equal(t, `\includegraphics{f1} \includegraphics{f2}`, got)
	assert.Equal(t, "jpeg", readFile(t, out, "f1.jpg"))
	_, err = out.Stat("f1.pdf")
	assert.Error(t, err, "pre-raster file must be removed")
	assert.Equal(t, "tiny", readFile(t, out, "f2.pdf"))
	assert.True(t, report.Installed[0].Rasterized)
	assert.Equal(t, "f1.jpg", report.Installed[0].Installed)
}

func TestInstall_RasterizationFailureKeepsOriginal(t *testing.T) {
	src, out := memfs.New(), memfs.New()
	writeFiles(t, src, map[string]string{"big.pdf": string(bytes.Repeat([]byte("x"), bytesPerMB+1))})
	text := `\includegraphics{big}`

	_, report, err := NewInstaller(src, out, StyleAASTeX, WithMaxSize(1), WithRasterizer(&fakeRasterizer{fail: true})).
		Install(context.Background(), text, Discover(src, text, nil))
	require.NoError(t, err)

	require.Len(t, report.Warnings, 1)
	assert.ErrorIs(t, report.Warnings[0], ErrRasterizationFailed)
	_, err = out.Stat("f1.pdf")
	assert.NoError(t, err)
	assert.False(t, report.Installed[0].Rasterized)
	assert.Equal(t, "f1.pdf", report.Installed[0].Installed)
}

func TestInstall_MaxSizeIgnoredForNonRasterizingStyle(t *testing.T) {
	src, out := memfs.New(), memfs.New()
	writeFiles(t, src, map[string]string{"big.pdf": string(bytes.Repeat([]byte("x"), bytesPerMB+1))})
	text := `\includegraphics{big}`
	raster := &fakeRasterizer{}

	_, _, err := NewInstaller(src, out, StyleArXiv, WithMaxSize(1), WithRasterizer(raster)).
		Install(context.Background(), text, Discover(src, text, nil))
	require.NoError(t, err)
	assert.Empty(t, raster.calls)
}

func TestInstall_Cancelled(t *testing.T) {
	src, out := memfs.New(), memfs.New()
	writeFiles(t, src, map[string]string{"a.pdf": "pdf"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewInstaller(src, out, StyleDefault).Install(ctx, `\includegraphics{a}`, Discover(src, `\includegraphics{a}`, nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiscover_ParentRelativeFigure(t *testing.T) {
	root := t.TempDir()
	paper := filepath.Join(root, "paper")
	require.NoError(t, os.MkdirAll(paper, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "figs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "figs", "plot.pdf"), []byte("%PDF"), 0o644))

	src, out := source.Dir(paper), memfs.New()
	text := `\includegraphics{../figs/plot}`
	records := Discover(src, text, nil)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"pdf"}, records[0].Formats)

	got, _, err := NewInstaller(src, out, StyleDefault).Install(context.Background(), text, records)
	require.NoError(t, err)
	assert.Equal(t, `\includegraphics{plot}`, got)
	assert.Equal(t, "%PDF", readFile(t, out, "plot.pdf"))
}
