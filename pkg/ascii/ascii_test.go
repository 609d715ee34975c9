package ascii

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBox(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{
			name:  "single line",
			lines: []string{"Hello"},
			want:  "┌───────┐\n│ Hello │\n└───────┘\n",
		},
		{
			name:  "multiple lines",
			lines: []string{"Line 1", "Longer line here", "Short"},
			want: "┌──────────────────┐\n" +
				"│ Line 1           │\n" +
				"│ Longer line here │\n" +
				"│ Short            │\n" +
				"└──────────────────┘\n",
		},
		{
			name:  "wide runes",
			lines: []string{"図1.pdf", "fig1.pdf"},
			want: "┌──────────┐\n" +
				"│ 図1.pdf  │\n" +
				"│ fig1.pdf │\n" +
				"└──────────┘\n",
		},
		{
			name:  "empty",
			lines: nil,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Box(tt.lines); got != tt.want {
				t.Errorf("Box() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestTable(t *testing.T) {
	got := Table([][]string{
		{"FIGURE", "INSTALLED", "NOTE"},
		{"figs/map.pdf", "f1.jpg", "rasterized"},
		{"図.eps", "f2.eps"},
	}, 0)
	want := "FIGURE        INSTALLED  NOTE\n" +
		"------------  ---------  ----------\n" +
		"figs/map.pdf  f1.jpg     rasterized\n" +
		"図.eps        f2.eps\n"
	assert.Equal(t, want, got)
}

func TestTable_Truncates(t *testing.T) {
	got := Table([][]string{{"NAME"}, {"a-very-long-figure-name.pdf"}}, 10)
	assert.Equal(t, "NAME\n----------\na-very-...\n", got)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		value string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"longer than ten", 10, "longer ..."},
		{"abcdef", 3, "abc"},
		{"図図図図", 5, "図..."},
		{"anything", 0, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Truncate(tt.value, tt.width), "Truncate(%q, %d)", tt.value, tt.width)
	}
}

func TestPad(t *testing.T) {
	assert.Equal(t, "ab  ", Pad("ab", 4))
	assert.Equal(t, "図 ", Pad("図", 3))
	assert.Equal(t, "abc", Pad("abc", 2))
}
