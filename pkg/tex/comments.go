package tex

import "strings"

// StripComments removes every unescaped % and the rest of its line. A %
// directly preceded by a backslash is kept. Line terminators are kept, so the
// line count is unchanged. Verbatim environments get no special treatment.
func StripComments(text string) string {
	if !strings.Contains(text, "%") {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, line := range strings.SplitAfter(text, "\n") {
		b.WriteString(stripLine(line))
	}
	return b.String()
}

func stripLine(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] != '%' || (i > 0 && line[i-1] == '\\') {
			continue
		}
		switch {
		case strings.HasSuffix(line, "\r\n"):
			return line[:i] + "\r\n"
		case strings.HasSuffix(line, "\n"):
			return line[:i] + "\n"
		}
		return line[:i]
	}
	return line
}

// commented reports whether pos sits after an unescaped % on its line.
func commented(text string, pos int) bool {
	seg := text[strings.LastIndexByte(text[:pos], '\n')+1 : pos]
	return len(stripLine(seg)) < len(seg)
}
