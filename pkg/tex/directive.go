package tex

import "strings"

// directive is a control sequence taking a fixed number of mandatory,
// brace-delimited arguments written directly after it, as in \input{file}.
type directive struct {
	name  string
	arity int
}

// occurrence is one match of a directive in a text.
type occurrence struct {
	start, end int
	args       []string
}

// find returns the non-overlapping occurrences of d in text, left to right.
// Arguments may contain balanced braces; \{ and \} do not count.
func (d directive) find(text string) []occurrence {
	token := `\` + d.name
	var found []occurrence
	for i := 0; i < len(text); {
		j := strings.Index(text[i:], token)
		if j < 0 {
			break
		}
		start := i + j
		args, end, ok := readArgs(text, start+len(token), d.arity)
		if !ok {
			i = start + len(token)
			continue
		}
		found = append(found, occurrence{start: start, end: end, args: args})
		i = end
	}
	return found
}

// replace substitutes every occurrence of d found in the original text in a
// single pass. fn sees the arguments of each occurrence; the first error
// aborts the pass.
func (d directive) replace(text string, fn func(args []string) (string, error)) (string, error) {
	found := d.find(text)
	if len(found) == 0 {
		return text, nil
	}
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, occ := range found {
		repl, err := fn(occ.args)
		if err != nil {
			return "", err
		}
		b.WriteString(text[last:occ.start])
		b.WriteString(repl)
		last = occ.end
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

func readArgs(text string, pos, n int) ([]string, int, bool) {
	args := make([]string, 0, n)
	for k := 0; k < n; k++ {
		if pos >= len(text) || text[pos] != '{' {
			return nil, 0, false
		}
		depth := 0
		closed := false
		i := pos
		for i < len(text) {
			switch text[i] {
			case '\\':
				i += 2
				continue
			case '{':
				depth++
			case '}':
				depth--
			}
			if depth == 0 {
				closed = true
				break
			}
			i++
		}
		if !closed {
			return nil, 0, false
		}
		args = append(args, text[pos+1:i])
		pos = i + 1
	}
	return args, pos, true
}
