package figures

import (
	"path"
	"regexp"

	"github.com/go-git/go-billy/v5"
)

// includeGraphics captures the options fragment (starred form and any
// bracket groups) and the path of a \includegraphics directive.
var includeGraphics = regexp.MustCompile(`\\includegraphics(\*?(?:\[[^\]]*\])*)\{([^}]*)\}`)

// Discover scans text for \includegraphics directives and checks fsys for
// the format variants of each figure. Records come back in order of first
// appearance. When a basename is referenced more than once, the last
// directive sets its number, path and options.
func Discover(fsys billy.Filesystem, text string, formats []string) []*Record {
	if len(formats) == 0 {
		formats = DefaultFormats
	}

	byName := make(map[string]*Record)
	var records []*Record
	for i, m := range includeGraphics.FindAllStringSubmatch(text, -1) {
		occ := Occurrence{Options: m[1], Path: m[2]}
		name := trimExt(path.Base(occ.Path))

		rec, seen := byName[name]
		if !seen {
			rec = &Record{Name: name}
			byName[name] = rec
			records = append(records, rec)
		}
		rec.Number = i + 1
		rec.Path = occ.Path
		rec.Options = occ.Options
		if !containsOccurrence(rec.Occurrences, occ) {
			rec.Occurrences = append(rec.Occurrences, occ)
		}
	}

	for _, rec := range records {
		findVariants(fsys, rec, formats)
	}
	return records
}

func findVariants(fsys billy.Filesystem, rec *Record, formats []string) {
	rec.Formats, rec.Sizes = nil, nil
	for _, ext := range formats {
		ext = normalizeExt(ext)
		if ext == "" {
			continue
		}
		fi, err := fsys.Stat(path.Clean(rec.SourcePath(ext)))
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		rec.Formats = append(rec.Formats, ext)
		rec.Sizes = append(rec.Sizes, fi.Size())
	}
}

func containsOccurrence(list []Occurrence, o Occurrence) bool {
	for _, have := range list {
		if have == o {
			return true
		}
	}
	return false
}
