package ir

import "strings"

// Placeholders mark parameter references in a compiled path. Reserved
// expansion ("{+name}") keeps "/" in the substituted value.
const (
	Placeholder         = "{}"
	ReservedPlaceholder = "{+}"
)

// PathVar is one parameter reference of a path template.
type PathVar struct {
	Name     string
	Reserved bool
}

// CompilePath replaces each "{name}" in a path template with Placeholder and
// each "{+name}" with ReservedPlaceholder, and returns the references in
// template order. An unterminated brace is copied through literally.
//
//	CompilePath("a/{x}/b/{+y}") == "a/{}/b/{+}", [{x false} {y true}]
func CompilePath(path string) (string, []PathVar) {
	var (
		b    strings.Builder
		vars []PathVar
	)
	b.Grow(len(path))
	for {
		open := strings.IndexByte(path, '{')
		if open < 0 {
			b.WriteString(path)
			break
		}
		closing := strings.IndexByte(path[open+1:], '}')
		if closing < 0 {
			b.WriteString(path)
			break
		}
		b.WriteString(path[:open])
		name, reserved := strings.CutPrefix(path[open+1:open+1+closing], "+")
		if reserved {
			b.WriteString(ReservedPlaceholder)
		} else {
			b.WriteString(Placeholder)
		}
		vars = append(vars, PathVar{Name: name, Reserved: reserved})
		path = path[open+closing+2:]
	}
	return b.String(), vars
}

// NextPlaceholder returns the index and length of the first placeholder in
// format, or -1 when there is none.
func NextPlaceholder(format string) (int, int) {
	i := strings.Index(format, Placeholder)
	j := strings.Index(format, ReservedPlaceholder)
	switch {
	case j >= 0 && (i < 0 || j < i):
		return j, len(ReservedPlaceholder)
	case i >= 0:
		return i, len(Placeholder)
	}
	return -1, 0
}
