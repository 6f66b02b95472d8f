// Package oasemitter renders the IR as an OpenAPI 3.0 document. It is the
// second backend next to goemitter and exists mainly so that the resolved
// model can be inspected and validated with standard OpenAPI tooling.
package oasemitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/discovery2go/internal/discovery"
	"github.com/mark3labs/discovery2go/internal/fsutil"
	"github.com/mark3labs/discovery2go/internal/ir"
)

// Format selects the serialization.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// Options controls rendering.
type Options struct {
	Output string // file to write; empty renders only
	Format Format // defaults to JSON
	DryRun bool
	Logger *slog.Logger
}

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	Path string
	Size int
}

// Result carries the built document and its serialized form.
type Result struct {
	Doc     *openapi3.T
	Source  []byte
	Planned []PlannedFile
}

const componentPrefix = "#/components/schemas/"

// Formats OpenAPI defines per primitive kind. Other discovery formats are
// dropped.
var knownFormats = map[ir.Kind][]string{
	ir.KindInt:    {"int32", "int64"},
	ir.KindFloat:  {"float", "double"},
	ir.KindString: {"byte", "binary", "date", "date-time", "password"},
}

// Emit builds, validates, and serializes the OpenAPI document for api and,
// unless DryRun is set or Output is empty, writes it atomically.
func Emit(ctx context.Context, api *ir.API, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	doc, err := Build(ctx, api)
	if err != nil {
		return nil, err
	}
	src, err := Marshal(doc, opts.Format)
	if err != nil {
		return nil, err
	}
	res := &Result{Doc: doc, Source: src}
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
	logger.Debug("wrote openapi document", "path", opts.Output, "bytes", len(src), "paths", len(doc.Paths))
	return res, nil
}

// Build converts api into a validated OpenAPI document.
func Build(ctx context.Context, api *ir.API) (*openapi3.T, error) {
	if api == nil {
		return nil, fmt.Errorf("oasemitter: nil API")
	}
	b := &builder{components: make(map[string]*openapi3.Schema, len(api.Types))}

	title := api.Title
	if title == "" {
		title = api.Name
	}
	if title == "" {
		title = "API"
	}
	version := api.Version
	if version == "" {
		version = "0"
	}
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       title,
			Version:     version,
			Description: api.Description,
		},
		Paths: openapi3.Paths{},
	}
	components := openapi3.NewComponents()
	doc.Components = &components
	if api.BaseURL != "" {
		doc.Servers = openapi3.Servers{{URL: api.BaseURL}}
	}

	// Declare every component first so references can point at them.
	for _, st := range api.Types {
		b.components[st.WireName] = openapi3.NewObjectSchema()
	}
	doc.Components.Schemas = make(openapi3.Schemas, len(api.Types))
	for _, st := range api.Types {
		s := b.components[st.WireName]
		s.Description = st.Description
		s.Properties = make(openapi3.Schemas, len(st.Fields))
		for _, f := range st.Fields {
			s.Properties[f.WireName] = b.fieldSchema(f)
			if f.Required {
				s.Required = append(s.Required, f.WireName)
			}
		}
		doc.Components.Schemas[st.WireName] = openapi3.NewSchemaRef("", s)
	}

	var err error
	api.Walk(func(r *ir.Resource) {
		if err != nil {
			return
		}
		tag := strings.Join(r.Path, ".")
		for _, m := range r.Methods {
			if err = b.addOperation(doc, tag, m); err != nil {
				return
			}
		}
	})
	if err != nil {
		return nil, err
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("oasemitter: generated document is invalid: %w", err)
	}
	return doc, nil
}

// Marshal serializes doc. YAML output keeps the key order of the JSON form.
func Marshal(doc *openapi3.T, format Format) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("oasemitter: marshal json: %w", err)
	}
	switch format {
	case "", JSON:
		return append(data, '\n'), nil
	case YAML:
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, fmt.Errorf("oasemitter: convert to yaml: %w", err)
		}
		blockStyle(&node)
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(&node); err != nil {
			return nil, fmt.Errorf("oasemitter: marshal yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("oasemitter: marshal yaml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("oasemitter: unknown format %q", format)
	}
}

// blockStyle resets the flow and quoting styles the JSON source leaves on
// every node. The encoder still quotes strings that would not read back as
// strings.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

type builder struct {
	components map[string]*openapi3.Schema
}

func (b *builder) addOperation(doc *openapi3.T, tag string, m *ir.Method) error {
	op := openapi3.NewOperation()
	op.OperationID = m.ID
	if op.OperationID == "" {
		op.OperationID = tag + "." + m.WireName
	}
	op.Description = m.Description
	op.Tags = []string{tag}

	for _, f := range m.PathArgs {
		if op.Parameters.GetByInAndName(openapi3.ParameterInPath, f.WireName) != nil {
			continue
		}
		p := openapi3.NewPathParameter(f.WireName).WithDescription(f.Description)
		p.Schema = b.schemaRef(f.Type)
		op.AddParameter(p)
	}
	for _, f := range m.Query {
		p := openapi3.NewQueryParameter(f.WireName).
			WithDescription(f.Description).
			WithRequired(f.Required)
		p.Schema = b.fieldSchema(f)
		op.AddParameter(p)
	}

	switch {
	case m.RawBody != nil:
		op.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().
			WithRequired(m.RawBody.Required).
			WithJSONSchemaRef(b.schemaRef(m.RawBody.Type))}
	case len(m.Body) > 0:
		body := openapi3.NewObjectSchema()
		body.Properties = make(openapi3.Schemas, len(m.Body))
		required := false
		for _, f := range m.Body {
			body.Properties[f.WireName] = b.schemaRef(f.Type)
			if f.Required {
				body.Required = append(body.Required, f.WireName)
				required = true
			}
		}
		op.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().
			WithRequired(required).
			WithJSONSchema(body)}
	}

	resp := openapi3.NewResponse().
		WithDescription("Successful response").
		WithJSONSchemaRef(b.schemaRef(m.Response))
	op.Responses = openapi3.Responses{"200": &openapi3.ResponseRef{Value: resp}}

	path := "/" + expandPath(m.PathFormat, m.PathArgs)
	if item := doc.Paths[path]; item != nil && item.GetOperation(m.HTTPMethod) != nil {
		return discovery.Errorf(discovery.UnsupportedSchemaShape, "",
			"methods %q and %q both map to %s %s", item.GetOperation(m.HTTPMethod).OperationID, op.OperationID, m.HTTPMethod, path)
	}
	doc.AddOperation(path, m.HTTPMethod, op)
	return nil
}

// expandPath restores named placeholders in an ir path format.
func expandPath(format string, args []*ir.Field) string {
	var b strings.Builder
	for _, a := range args {
		i, n := ir.NextPlaceholder(format)
		if i < 0 {
			break
		}
		b.WriteString(format[:i])
		b.WriteString("{" + a.WireName + "}")
		format = format[i+n:]
	}
	b.WriteString(format)
	return b.String()
}

func (b *builder) fieldSchema(f *ir.Field) *openapi3.SchemaRef {
	ref := b.schemaRef(f.Type)
	if ref.Ref != "" || (f.Description == "" && len(f.Enum) == 0) {
		return ref
	}
	s := ref.Value
	s.Description = f.Description
	if f.Type.Kind == ir.KindString {
		for _, e := range f.Enum {
			s.Enum = append(s.Enum, e)
		}
	}
	return ref
}

func (b *builder) schemaRef(t ir.TypeExpr) *openapi3.SchemaRef {
	if t.Kind == ir.KindRef {
		return openapi3.NewSchemaRef(componentPrefix+t.Ref, b.components[t.Ref])
	}
	return openapi3.NewSchemaRef("", b.schema(t))
}

func (b *builder) schema(t ir.TypeExpr) *openapi3.Schema {
	var s *openapi3.Schema
	switch t.Kind {
	case ir.KindString:
		s = openapi3.NewStringSchema()
	case ir.KindInt:
		s = openapi3.NewInt64Schema()
	case ir.KindFloat:
		s = openapi3.NewFloat64Schema()
	case ir.KindBool:
		s = openapi3.NewBoolSchema()
	case ir.KindUnit:
		s = openapi3.NewObjectSchema()
	case ir.KindSlice:
		s = openapi3.NewArraySchema()
		s.Items = b.elemRef(t.Elem)
	case ir.KindMap:
		s = openapi3.NewObjectSchema()
		s.AdditionalProperties = openapi3.AdditionalProperties{Schema: b.elemRef(t.Elem)}
	default:
		return &openapi3.Schema{}
	}
	if slices.Contains(knownFormats[t.Kind], t.Format) {
		s.Format = t.Format
	}
	return s
}

func (b *builder) elemRef(t *ir.TypeExpr) *openapi3.SchemaRef {
	if t == nil {
		return openapi3.NewSchemaRef("", &openapi3.Schema{})
	}
	return b.schemaRef(*t)
}
