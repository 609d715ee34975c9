package tex

// bibliography matches \bibliography{names}; \bibliographystyle is not
// matched because its name continues past "bibliography".
var bibliography = directive{name: "bibliography", arity: 1}

// HasBibliography reports whether text contains a \bibliography directive
// outside a comment.
func HasBibliography(text string) bool {
	_, ok := liveBibliography(text)
	return ok
}

// InjectBibliography replaces the first uncommented \bibliography directive
// in text with the compiled bibliography bbl. Commented directives and any
// later ones are left alone. The substitution is literal: backslashes and
// other characters in bbl reach the output unchanged.
func InjectBibliography(text, bbl string) string {
	occ, ok := liveBibliography(text)
	if !ok {
		return text
	}
	return text[:occ.start] + bbl + text[occ.end:]
}

func liveBibliography(text string) (occurrence, bool) {
	for _, occ := range bibliography.find(text) {
		if !commented(text, occ.start) {
			return occ, true
		}
	}
	return occurrence{}, false
}
