package discovery

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// Document is the parsed root of a discovery document. It is never mutated
// after Parse returns; Filter produces a new Document.
type Document struct {
	Kind        string               `json:"kind,omitempty"`
	ID          string               `json:"id,omitempty"`
	Name        string               `json:"name,omitempty"`
	Version     string               `json:"version,omitempty"`
	Revision    string               `json:"revision,omitempty"`
	Title       string               `json:"title,omitempty"`
	Description string               `json:"description,omitempty"`
	RootURL     string               `json:"rootUrl,omitempty"`
	ServicePath string               `json:"servicePath,omitempty"`
	BasePath    string               `json:"basePath,omitempty"`
	BaseURL     string               `json:"baseUrl,omitempty"`
	Resources   map[string]*Resource `json:"resources,omitempty"`
	Schemas     map[string]*Schema   `json:"schemas,omitempty"`
}

// Resource groups methods and, at most one level deep, sub-resources.
type Resource struct {
	Methods   map[string]*Method   `json:"methods,omitempty"`
	Resources map[string]*Resource `json:"resources,omitempty"`
}

// Method describes a single remote call.
type Method struct {
	ID             string             `json:"id,omitempty"`
	Path           string             `json:"path"`
	HTTPMethod     string             `json:"httpMethod,omitempty"`
	Description    string             `json:"description,omitempty"`
	Parameters     map[string]*Schema `json:"parameters,omitempty"`
	ParameterOrder []string           `json:"parameterOrder,omitempty"`
	Request        *Request           `json:"request,omitempty"`
	Response       *Response          `json:"response,omitempty"`
	Scopes         []string           `json:"scopes,omitempty"`
}

// Verb returns the upper-cased HTTP verb, GET when absent.
func (m *Method) Verb() string {
	v := strings.ToUpper(strings.TrimSpace(m.HTTPMethod))
	if v == "" {
		return "GET"
	}
	return v
}

// Request describes the request body. Either Properties maps body field names
// to referenced schemas, or Ref names a single schema sent as the whole body.
type Request struct {
	Ref           string             `json:"$ref,omitempty"`
	ParameterName string             `json:"parameterName,omitempty"`
	Required      bool               `json:"required,omitempty"`
	Properties    map[string]*Schema `json:"properties,omitempty"`
}

// Response names the schema the method returns.
type Response struct {
	Ref string `json:"$ref,omitempty"`
}

// Schema is a parameter, property, or named schema. Exactly one of Ref and
// Type is meaningful; Parse rejects schemas carrying both.
type Schema struct {
	ID                   string             `json:"id,omitempty"`
	Ref                  string             `json:"$ref,omitempty"`
	Type                 string             `json:"type,omitempty"`
	Format               string             `json:"format,omitempty"`
	Description          string             `json:"description,omitempty"`
	Location             string             `json:"location,omitempty"`
	Default              json.RawMessage    `json:"default,omitempty"`
	Enum                 []string           `json:"enum,omitempty"`
	Required             bool               `json:"required,omitempty"`
	Repeated             bool               `json:"repeated,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Items                Nested             `json:"items,omitzero"`
	AdditionalProperties Nested             `json:"additionalProperties,omitzero"`
}

// DefaultText renders the default value for documentation. String defaults
// are returned unquoted.
func (s *Schema) DefaultText() string {
	raw := bytes.TrimSpace(s.Default)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return string(raw)
}

// Presence records whether a nested schema key was present in the input.
type Presence int

const (
	// Absent means the key did not appear.
	Absent Presence = iota
	// Empty means the key appeared without a usable schema (null or a boolean).
	Empty
	// Present means the key carried a schema object.
	Present
)

func (p Presence) String() string {
	switch p {
	case Empty:
		return "empty"
	case Present:
		return "present"
	default:
		return "absent"
	}
}

// Nested is the three-state value of "items" and "additionalProperties".
type Nested struct {
	State  Presence
	Schema *Schema
}

// UnmarshalJSON is only invoked when the key is present, so any input moves
// the value out of Absent.
func (n *Nested) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(raw, []byte("null")), bytes.Equal(raw, []byte("true")), bytes.Equal(raw, []byte("false")):
		n.State, n.Schema = Empty, nil
		return nil
	}
	var s Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return err
	}
	n.State, n.Schema = Present, &s
	return nil
}

// MarshalJSON encodes Empty as null. Absent values are dropped by omitzero.
func (n Nested) MarshalJSON() ([]byte, error) {
	if n.State == Present && n.Schema != nil {
		return json.Marshal(n.Schema)
	}
	return []byte("null"), nil
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
