package goemitter

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"golang.org/x/tools/imports"

	"github.com/mark3labs/discovery2go/internal/discovery"
	"github.com/mark3labs/discovery2go/internal/fsutil"
	"github.com/mark3labs/discovery2go/internal/ir"
)

// DefaultRuntimeImport is the transport package generated code depends on.
const DefaultRuntimeImport = "github.com/mark3labs/discovery2go/pkg/discoveryrt"

// Options controls how the Go emitter renders a client.
type Options struct {
	Output        string // file to write; empty renders only
	PackageName   string // defaults to the API name
	RuntimeImport string // defaults to DefaultRuntimeImport
	DryRun        bool   // render and plan, don't write
	Logger        *slog.Logger
}

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	Path string
	Size int
}

// Result returns the rendered source and the planned writes.
type Result struct {
	PackageName string
	Source      []byte
	Planned     []PlannedFile
}

//go:embed client.go.tmpl
var clientTemplate string

var tmpl = template.Must(template.New("client").Funcs(template.FuncMap{
	"goType":   goType,
	"isPtr":    isPtr,
	"deref":    deref,
	"comment":  comment,
	"tag":      structTag,
	"queryAdd": queryAdd,
}).Parse(clientTemplate))

// Emit renders api as a single Go source file and, unless DryRun is set or
// Output is empty, commits it atomically to Output.
func Emit(ctx context.Context, api *ir.API, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	src, pkg, err := render(api, opts)
	if err != nil {
		return nil, err
	}
	res := &Result{PackageName: pkg, Source: src}
	if opts.Output == "" {
		return res, nil
	}
	res.Planned = []PlannedFile{{Path: opts.Output, Size: len(src)}}
	if opts.DryRun {
		return res, nil
	}
	if err := fsutil.WriteFileAtomic(opts.Output, src, 0o644); err != nil {
		return nil, discovery.IOError(discovery.OpCreate, opts.Output, err)
	}
	logger.Debug("wrote go client", "path", opts.Output, "bytes", len(src), "package", pkg)
	return res, nil
}

// Render returns the formatted Go source for api.
func Render(api *ir.API, opts Options) ([]byte, error) {
	src, _, err := render(api, opts)
	return src, err
}

type fileData struct {
	Package       string
	RuntimeImport string
	Title         string
	NeedsContext  bool
	API           *ir.API
	Resources     []resourceData
}

type resourceData struct {
	*ir.Resource
	Label string
}

func render(api *ir.API, opts Options) ([]byte, string, error) {
	if api == nil {
		return nil, "", fmt.Errorf("goemitter: nil API")
	}
	pkg := strings.TrimSpace(opts.PackageName)
	if pkg == "" {
		pkg = PackageName(api.Name)
	}
	runtimeImport := strings.TrimSpace(opts.RuntimeImport)
	if runtimeImport == "" {
		runtimeImport = DefaultRuntimeImport
	}
	title := api.Title
	if title == "" {
		title = "the " + api.Name + " API"
		if api.Name == "" {
			title = "its API"
		}
	}

	data := fileData{
		Package:       pkg,
		RuntimeImport: runtimeImport,
		Title:         title,
		NeedsContext:  api.MethodCount() > 0,
		API:           api,
	}
	api.Walk(func(r *ir.Resource) {
		data.Resources = append(data.Resources, resourceData{Resource: r, Label: strings.Join(r.Path, ".")})
	})

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, "", fmt.Errorf("goemitter: render: %w", err)
	}
	out, err := imports.Process(pkg+".go", buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("goemitter: format generated source: %w", err)
	}
	return out, pkg, nil
}

// PackageName derives a Go package name from an API name: lowercase letters
// and digits only, never starting with a digit.
func PackageName(apiName string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(apiName) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if name == "" {
		return "client"
	}
	if unicode.IsDigit(rune(name[0])) {
		name = "api" + name
	}
	return name
}

func bareType(t ir.TypeExpr) string {
	switch t.Kind {
	case ir.KindString:
		return "string"
	case ir.KindInt:
		return "int64"
	case ir.KindFloat:
		return "float64"
	case ir.KindBool:
		return "bool"
	case ir.KindUnit:
		return "struct{}"
	case ir.KindRef:
		return t.Name
	case ir.KindSlice:
		return "[]" + elemType(t.Elem)
	case ir.KindMap:
		return "map[string]" + elemType(t.Elem)
	default:
		return "any"
	}
}

func elemType(t *ir.TypeExpr) string {
	if t == nil {
		return "any"
	}
	return bareType(t.Bare())
}

// isPtr reports whether an optional value is rendered as a pointer. Slices
// and maps are pointers too, so an empty one is still sent. Dynamic values
// stay bare.
func isPtr(t ir.TypeExpr) bool {
	return t.Optional && t.Kind != ir.KindAny
}

func goType(t ir.TypeExpr) string {
	if isPtr(t) {
		return "*" + bareType(t)
	}
	return bareType(t)
}

func deref(f *ir.Field) string {
	if isPtr(f.Type) {
		return "*c." + f.Local
	}
	return "c." + f.Local
}

func queryAdd(f *ir.Field, expr string) string {
	if f.Repeated && f.Type.Kind == ir.KindSlice {
		return fmt.Sprintf("discoveryrt.AddRepeated(&query, %q, %s)", f.WireName, expr)
	}
	return fmt.Sprintf("query.Add(%q, %s)", f.WireName, expr)
}

func structTag(f *ir.Field) string {
	value := f.WireName
	if f.Type.Optional {
		value += ",omitempty"
	}
	tag := "json:" + strconv.Quote(value)
	if strings.ContainsRune(tag, '`') {
		return strconv.Quote(tag)
	}
	return "`" + tag + "`"
}

// comment renders free text as // lines.
func comment(text string) string {
	lines := strings.Split(strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n")), "\n")
	for i, l := range lines {
		l = strings.TrimRightFunc(l, unicode.IsSpace)
		if l == "" {
			lines[i] = "//"
			continue
		}
		lines[i] = "// " + l
	}
	return strings.Join(lines, "\n")
}
