// Package ir holds the resolved, backend-neutral representation of a client
// library: every name already sanitized, every type already mapped, every
// collection already sorted. Backends only render it.
package ir

// API is the root of the IR.
type API struct {
	Name        string
	Version     string
	Title       string
	Description string
	BaseURL     string

	Types     []*Struct
	Resources []*Resource
}

// Struct is a named schema.
type Struct struct {
	Name        string // exported identifier
	WireName    string // schema id in the document
	Description string
	Fields      []*Field
}

// Location says where a method field travels on the wire.
type Location int

const (
	InQuery Location = iota
	InPath
	InBody
)

func (l Location) String() string {
	switch l {
	case InPath:
		return "path"
	case InBody:
		return "body"
	default:
		return "query"
	}
}

// Field is a struct property, a method parameter, or a body field.
type Field struct {
	Name        string // exported identifier, used for struct fields and setters
	Local       string // unexported identifier, used for call fields and arguments
	WireName    string
	Description string
	Default     string
	Enum        []string
	Type        TypeExpr
	Required    bool
	Repeated    bool
	Location    Location
	// Reserved is set on path parameters referenced as "{+name}".
	Reserved bool
}

// Resource is a resource handle.
type Resource struct {
	WireName string
	Path     []string // wire names from the root, inclusive
	TypeName string   // e.g. KeepServicesResource
	Accessor string   // method name on the parent, e.g. KeepServices
	Methods  []*Method
	Children []*Resource
}

// Method is a call type plus the constructor that builds it.
type Method struct {
	WireName    string
	ID          string
	Name        string // constructor name on the resource
	CallType    string // e.g. KeepServicesGetCall
	HTTPMethod  string
	Path        string // raw template from the document
	PathFormat  string // template with placeholders replaced by "{}" or "{+}"
	Description string
	Scopes      []string

	// PathArgs holds the path parameters in template order.
	PathArgs []*Field
	// Args are the constructor arguments: path parameters in template order,
	// then the other required parameters, then required body fields.
	Args []*Field
	// Optional fields each get a setter.
	Optional []*Field
	// Query holds every query parameter sorted by wire name.
	Query []*Field
	// Body holds the request body fields sorted by wire name.
	Body []*Field
	// RawBody is set when the whole request body is one referenced schema.
	RawBody *Field

	Response TypeExpr
}

// Fields returns every field of the call type: Args then Optional.
func (m *Method) Fields() []*Field {
	out := make([]*Field, 0, len(m.Args)+len(m.Optional))
	out = append(out, m.Args...)
	return append(out, m.Optional...)
}

// HasBody reports whether the method sends a request body.
func (m *Method) HasBody() bool { return len(m.Body) > 0 || m.RawBody != nil }

// Walk calls fn for every resource in depth-first, sorted order.
func (a *API) Walk(fn func(*Resource)) {
	var walk func([]*Resource)
	walk = func(rs []*Resource) {
		for _, r := range rs {
			fn(r)
			walk(r.Children)
		}
	}
	walk(a.Resources)
}

// MethodCount returns the number of methods across all resources.
func (a *API) MethodCount() int {
	n := 0
	a.Walk(func(r *Resource) { n += len(r.Methods) })
	return n
}
