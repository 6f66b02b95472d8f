// Package naming turns wire names from a discovery document into Go
// identifiers. Every function here is pure and total.
package naming

import (
	"go/token"
	"strconv"
	"strings"
	"unicode"

	"github.com/iancoleman/strcase"
)

// overrides maps wire names to replacements that read better than a suffixed
// keyword.
var overrides = map[string]string{
	"select":  "selectFields",
	"type":    "kind",
	"default": "defaultValue",
	"range":   "valueRange",
	"func":    "function",
}

// predeclared identifiers of the universe scope.
var predeclared = map[string]struct{}{
	"any": {}, "append": {}, "bool": {}, "byte": {}, "cap": {}, "clear": {},
	"close": {}, "comparable": {}, "complex": {}, "complex128": {}, "complex64": {},
	"copy": {}, "delete": {}, "error": {}, "false": {}, "float32": {}, "float64": {},
	"imag": {}, "int": {}, "int16": {}, "int32": {}, "int64": {}, "int8": {},
	"iota": {}, "len": {}, "make": {}, "max": {}, "min": {}, "new": {}, "nil": {},
	"panic": {}, "print": {}, "println": {}, "real": {}, "recover": {}, "rune": {},
	"string": {}, "true": {}, "uint": {}, "uint16": {}, "uint32": {}, "uint64": {},
	"uint8": {}, "uintptr": {},
}

// locals are names the generated code uses for its own variables, receivers,
// and imported packages.
var locals = map[string]struct{}{
	"a": {}, "body": {}, "c": {}, "client": {}, "context": {}, "ctx": {},
	"discoveryrt": {}, "err": {}, "out": {}, "query": {}, "r": {}, "target": {},
}

// initialisms are upper-cased whole when they form a lowercase segment.
var initialisms = map[string]string{
	"api":  "API",
	"html": "HTML",
	"http": "HTTP",
	"id":   "ID",
	"ip":   "IP",
	"json": "JSON",
	"uri":  "URI",
	"url":  "URL",
	"uuid": "UUID",
}

// Reserved reports whether name cannot be used verbatim as a local
// identifier in generated code.
func Reserved(name string) bool {
	if token.IsKeyword(name) {
		return true
	}
	if _, ok := predeclared[name]; ok {
		return true
	}
	_, ok := locals[name]
	return ok
}

// Sanitize maps a name onto one that is safe in identifier position: an
// override when one is registered, the name with a trailing underscore when
// it is reserved, the name itself otherwise.
func Sanitize(name string) string {
	if v, ok := overrides[name]; ok {
		return v
	}
	if Reserved(name) {
		return name + "_"
	}
	return name
}

// LocalName returns the unexported lowerCamel identifier for a wire name, as
// used for arguments and unexported struct fields.
func LocalName(wire string) string {
	if v, ok := overrides[wire]; ok {
		return v
	}
	id := strcase.ToLowerCamel(strings.Trim(clean(wire), "_"))
	if id == "" {
		return "x"
	}
	if unicode.IsDigit(rune(id[0])) {
		id = "x" + id
	}
	return Sanitize(id)
}

// Camelize returns the exported identifier for a wire name: segments split on
// any non-alphanumeric character, each with its first letter upper-cased, and
// known initialisms upper-cased whole.
//
//	keep_services  -> KeepServices
//	owner_uuid     -> OwnerUUID
//	KeepService    -> KeepService
//	3d_model       -> X3dModel
//
// A result whose first rune has no upper case form is prefixed with "X" so it
// stays exported.
func Camelize(name string) string {
	segs := strings.FieldsFunc(name, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r))
	})
	var b strings.Builder
	for _, seg := range segs {
		if up, ok := initialisms[seg]; ok {
			b.WriteString(up)
			continue
		}
		r := []rune(seg)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	out := b.String()
	if out == "" {
		return "X"
	}
	if !unicode.IsUpper([]rune(out)[0]) {
		out = "X" + out
	}
	return out
}

// clean replaces characters strcase does not treat as separators.
func clean(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, s)
}

// Uniquer hands out names that are unique within one scope, appending a
// numeric suffix to repeats.
type Uniquer struct {
	used map[string]struct{}
}

// NewUniquer returns a Uniquer with taken already reserved.
func NewUniquer(taken ...string) *Uniquer {
	u := &Uniquer{used: make(map[string]struct{}, len(taken))}
	for _, t := range taken {
		u.used[t] = struct{}{}
	}
	return u
}

// Take returns name, or name followed by the smallest suffix from 2 up that
// has not been handed out yet.
func (u *Uniquer) Take(name string) string {
	candidate := name
	for i := 2; ; i++ {
		if _, ok := u.used[candidate]; !ok {
			u.used[candidate] = struct{}{}
			return candidate
		}
		candidate = name + strconv.Itoa(i)
	}
}
