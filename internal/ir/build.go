package ir

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mark3labs/discovery2go/internal/discovery"
	"github.com/mark3labs/discovery2go/internal/naming"
)

// MaxResourceDepth is the deepest sub-resource level accepted. Top-level
// resources are depth 0.
const MaxResourceDepth = 1

// Identifiers the generated package defines besides schema, resource, and call
// types.
var packageNames = []string{"API", "New", "DefaultBaseURL"}

// BuildOption configures Build.
type BuildOption func(*buildConfig)

type buildConfig struct {
	prune  bool
	logger *slog.Logger
}

// WithPruneSchemas drops named schemas no surviving method reaches.
func WithPruneSchemas(on bool) BuildOption {
	return func(c *buildConfig) { c.prune = on }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) BuildOption {
	return func(c *buildConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

type builder struct {
	doc *discovery.Document
	cfg buildConfig
}

// Build resolves a (filtered) discovery document into the IR. Every
// collection is sorted by wire name except path parameters, which keep
// template order.
func Build(doc *discovery.Document, opts ...BuildOption) (*API, error) {
	if doc == nil {
		return nil, discovery.Errorf(discovery.DocumentParseError, "#", "no document")
	}
	cfg := buildConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}
	b := &builder{doc: doc, cfg: cfg}

	api := &API{
		Name:        doc.Name,
		Version:     doc.Version,
		Title:       doc.Title,
		Description: doc.Description,
		BaseURL:     baseURL(doc),
	}

	for _, id := range discovery.SortedKeys(doc.Schemas) {
		st, err := b.buildStruct(id, doc.Schemas[id])
		if err != nil {
			return nil, err
		}
		api.Types = append(api.Types, st)
	}

	accessors := naming.NewUniquer()
	for _, name := range discovery.SortedKeys(doc.Resources) {
		r, err := b.buildResource(name, doc.Resources[name], nil, accessors, discovery.Pointer("", "resources", name))
		if err != nil {
			return nil, err
		}
		api.Resources = append(api.Resources, r)
	}

	if err := checkTypeNames(api); err != nil {
		return nil, err
	}
	if cfg.prune {
		before := len(api.Types)
		api.Types = prune(api)
		cfg.logger.Debug("pruned unreachable schemas", "removed", before-len(api.Types), "kept", len(api.Types))
	}
	cfg.logger.Debug("built client model",
		"types", len(api.Types), "resources", len(api.Resources), "methods", api.MethodCount())
	return api, nil
}

func baseURL(doc *discovery.Document) string {
	if doc.BaseURL != "" {
		return doc.BaseURL
	}
	if doc.RootURL == "" {
		return ""
	}
	root := strings.TrimSuffix(doc.RootURL, "/") + "/"
	suffix := doc.ServicePath
	if suffix == "" {
		suffix = doc.BasePath
	}
	return root + strings.TrimPrefix(suffix, "/")
}

// resolve fails with UnresolvedReference when t names a schema the document
// does not declare.
func (b *builder) resolve(t TypeExpr, ptr string) error {
	for _, ref := range t.Refs() {
		if _, ok := b.doc.Schemas[ref]; !ok {
			return discovery.Errorf(discovery.UnresolvedReference, ptr, "reference to undeclared schema %q", ref)
		}
	}
	return nil
}

func (b *builder) buildStruct(id string, s *discovery.Schema) (*Struct, error) {
	ptr := discovery.Pointer("", "schemas", id)
	st := &Struct{Name: naming.Camelize(id), WireName: id, Description: s.Description}
	names := naming.NewUniquer()
	for _, prop := range discovery.SortedKeys(s.Properties) {
		ps := s.Properties[prop]
		pptr := discovery.Pointer(ptr, "properties", prop)
		t, err := MapType(ps, pptr)
		if err != nil {
			return nil, err
		}
		if err := b.resolve(t, pptr); err != nil {
			return nil, err
		}
		st.Fields = append(st.Fields, &Field{
			Name:        names.Take(naming.Camelize(prop)),
			Local:       naming.LocalName(prop),
			WireName:    prop,
			Description: ps.Description,
			Default:     ps.DefaultText(),
			Enum:        ps.Enum,
			Type:        t,
			Required:    ps.Required,
			Location:    InBody,
		})
	}
	return st, nil
}

func (b *builder) buildResource(name string, r *discovery.Resource, parents []string, accessors *naming.Uniquer, ptr string) (*Resource, error) {
	if len(parents) > MaxResourceDepth {
		return nil, discovery.Errorf(discovery.UnsupportedSchemaShape, ptr,
			"resource %q is nested %d levels deep; at most %d is supported", name, len(parents), MaxResourceDepth)
	}
	path := append(append([]string(nil), parents...), name)
	res := &Resource{
		WireName: name,
		Path:     path,
		TypeName: naming.Camelize(strings.Join(path, "_")) + "Resource",
		Accessor: accessors.Take(naming.Camelize(name)),
	}
	members := naming.NewUniquer()

	// Sub-resource accessors are named before methods so a method never takes
	// the plain name away from a child handle.
	children := discovery.SortedKeys(r.Resources)
	for _, child := range children {
		sub, err := b.buildResource(child, r.Resources[child], path, members, discovery.Pointer(ptr, "resources", child))
		if err != nil {
			return nil, err
		}
		res.Children = append(res.Children, sub)
	}
	for _, mname := range discovery.SortedKeys(r.Methods) {
		m, err := b.buildMethod(path, mname, r.Methods[mname], members, discovery.Pointer(ptr, "methods", mname))
		if err != nil {
			return nil, err
		}
		res.Methods = append(res.Methods, m)
	}
	b.cfg.logger.Debug("resource", "path", strings.Join(path, "."), "methods", len(res.Methods), "children", len(res.Children))
	return res, nil
}

func (b *builder) buildMethod(resPath []string, name string, m *discovery.Method, members *naming.Uniquer, ptr string) (*Method, error) {
	if m.Response == nil || m.Response.Ref == "" {
		return nil, discovery.Errorf(discovery.MissingRequiredField, discovery.Pointer(ptr, "response"),
			"method %q declares no response schema", name)
	}
	resp := RefType(m.Response.Ref)
	if err := b.resolve(resp, discovery.Pointer(ptr, "response")); err != nil {
		return nil, err
	}

	format, placeholders := CompilePath(m.Path)
	inPath := make(map[string]struct{}, len(placeholders))
	for _, p := range placeholders {
		inPath[p.Name] = struct{}{}
	}

	id := m.ID
	if id == "" {
		id = strings.Join(append(append([]string(nil), resPath...), name), ".")
	}
	out := &Method{
		WireName:    name,
		ID:          id,
		Name:        members.Take(naming.Camelize(name)),
		CallType:    naming.Camelize(strings.Join(append(append([]string(nil), resPath...), name), "_")) + "Call",
		HTTPMethod:  m.Verb(),
		Path:        m.Path,
		PathFormat:  format,
		Description: m.Description,
		Scopes:      m.Scopes,
		Response:    resp,
	}

	setters := naming.NewUniquer("Fetch")
	locals := naming.NewUniquer("client")
	newField := func(wire string, s *discovery.Schema, t TypeExpr, loc Location) *Field {
		return &Field{
			Name:        setters.Take(naming.Camelize(wire)),
			Local:       locals.Take(naming.LocalName(wire)),
			WireName:    wire,
			Description: s.Description,
			Default:     s.DefaultText(),
			Enum:        s.Enum,
			Type:        t,
			Required:    !t.Optional,
			Repeated:    s.Repeated,
			Location:    loc,
		}
	}

	params := make(map[string]*Field, len(m.Parameters))
	var required, optional []*Field
	for _, pname := range discovery.SortedKeys(m.Parameters) {
		ps := m.Parameters[pname]
		pptr := discovery.Pointer(ptr, "parameters", pname)
		_, templated := inPath[pname]
		if ps.Location == "path" && !templated {
			return nil, discovery.Errorf(discovery.UnsupportedSchemaShape, pptr,
				"path parameter %q does not appear in path %q", pname, m.Path)
		}
		t, err := MapType(ps, pptr)
		if err != nil {
			return nil, err
		}
		if err := b.resolve(t, pptr); err != nil {
			return nil, err
		}
		loc := InQuery
		if templated {
			loc = InPath
			t.Optional = false
			if ps.Repeated {
				return nil, discovery.Errorf(discovery.UnsupportedSchemaShape, pptr, "path parameter %q cannot be repeated", pname)
			}
		}
		if ps.Repeated && t.Kind != KindSlice {
			elem := t.Bare()
			t = TypeExpr{Kind: KindSlice, Elem: &elem, Optional: t.Optional}
		}
		f := newField(pname, ps, t, loc)
		params[pname] = f
		switch {
		case loc == InPath:
		case f.Required:
			required = append(required, f)
			out.Query = append(out.Query, f)
		default:
			optional = append(optional, f)
			out.Query = append(out.Query, f)
		}
	}

	seen := make(map[string]struct{}, len(placeholders))
	for _, p := range placeholders {
		f, ok := params[p.Name]
		if !ok {
			return nil, discovery.Errorf(discovery.UnsupportedSchemaShape, ptr,
				"path %q references undeclared parameter %q", m.Path, p.Name)
		}
		f.Reserved = f.Reserved || p.Reserved
		out.PathArgs = append(out.PathArgs, f)
		if _, dup := seen[p.Name]; !dup {
			seen[p.Name] = struct{}{}
			out.Args = append(out.Args, f)
		}
	}
	out.Args = append(out.Args, required...)

	if req := m.Request; req != nil {
		rptr := discovery.Pointer(ptr, "request")
		if req.Ref != "" {
			t := RefType(req.Ref)
			t.Optional = !req.Required
			if err := b.resolve(t, rptr); err != nil {
				return nil, err
			}
			wire := req.ParameterName
			if wire == "" {
				wire = naming.LocalName(req.Ref)
			}
			out.RawBody = newField(wire, &discovery.Schema{}, t, InBody)
			if out.RawBody.Required {
				out.Args = append(out.Args, out.RawBody)
			} else {
				optional = append(optional, out.RawBody)
			}
		}
		for _, fname := range discovery.SortedKeys(req.Properties) {
			fs := req.Properties[fname]
			fptr := discovery.Pointer(rptr, "properties", fname)
			if fs.Ref == "" {
				return nil, discovery.Errorf(discovery.UnsupportedSchemaShape, fptr,
					"request body field %q must reference a named schema", fname)
			}
			t := RefType(fs.Ref)
			t.Optional = !(req.Required || fs.Required)
			if err := b.resolve(t, fptr); err != nil {
				return nil, err
			}
			f := newField(fname, fs, t, InBody)
			out.Body = append(out.Body, f)
			if f.Required {
				out.Args = append(out.Args, f)
			} else {
				optional = append(optional, f)
			}
		}
	}
	out.Optional = optional
	return out, nil
}

// checkTypeNames rejects output in which two declarations would share a name.
func checkTypeNames(api *API) error {
	owners := make(map[string]string)
	for _, n := range packageNames {
		owners[n] = "generated package"
	}
	claim := func(name, owner, ptr string) error {
		if prev, ok := owners[name]; ok {
			return discovery.Errorf(discovery.UnsupportedSchemaShape, ptr,
				"generated name %s is used by both %s and %s", name, prev, owner)
		}
		owners[name] = owner
		return nil
	}
	for _, st := range api.Types {
		if err := claim(st.Name, fmt.Sprintf("schema %q", st.WireName), discovery.Pointer("", "schemas", st.WireName)); err != nil {
			return err
		}
	}
	var err error
	api.Walk(func(r *Resource) {
		if err != nil {
			return
		}
		rptr := resourcePointer(r.Path)
		if err = claim(r.TypeName, fmt.Sprintf("resource %q", strings.Join(r.Path, ".")), rptr); err != nil {
			return
		}
		for _, m := range r.Methods {
			if err = claim(m.CallType, fmt.Sprintf("method %q", m.ID), discovery.Pointer(rptr, "methods", m.WireName)); err != nil {
				return
			}
		}
	})
	return err
}

func resourcePointer(path []string) string {
	ptr := "#"
	for _, p := range path {
		ptr = discovery.Pointer(ptr, "resources", p)
	}
	return ptr
}
