package discovery

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Parse decodes a discovery document and checks the parts of its grammar that
// JSON decoding alone does not enforce. It never returns a partial document.
func Parse(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, decodeError(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &Error{Code: DocumentParseError, Pointer: "#", Message: "unexpected data after the top-level object"}
	}
	if err := check(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func decodeError(err error) error {
	var (
		syn *json.SyntaxError
		typ *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &syn):
		return &Error{Code: DocumentParseError, Message: fmt.Sprintf("malformed JSON at offset %d: %v", syn.Offset, syn), Cause: err}
	case errors.As(err, &typ):
		ptr := "#"
		if typ.Field != "" {
			ptr = Pointer("", strings.Split(typ.Field, ".")...)
		}
		return &Error{Code: DocumentParseError, Pointer: ptr, Message: fmt.Sprintf("expected %s, got JSON %s", typ.Type, typ.Value), Cause: err}
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return &Error{Code: DocumentParseError, Message: "document is empty or truncated", Cause: err}
	default:
		return &Error{Code: DocumentParseError, Message: err.Error(), Cause: err}
	}
}

// check walks the document in sorted key order so the first reported
// violation does not depend on map iteration.
func check(doc *Document) error {
	for _, name := range SortedKeys(doc.Schemas) {
		if err := checkSchema(doc.Schemas[name], Pointer("", "schemas", name)); err != nil {
			return err
		}
	}
	for _, name := range SortedKeys(doc.Resources) {
		if err := checkResource(doc.Resources[name], Pointer("", "resources", name)); err != nil {
			return err
		}
	}
	return nil
}

func checkResource(r *Resource, ptr string) error {
	if r == nil {
		return Errorf(DocumentParseError, ptr, "resource is null")
	}
	for _, name := range SortedKeys(r.Methods) {
		if err := checkMethod(r.Methods[name], Pointer(ptr, "methods", name)); err != nil {
			return err
		}
	}
	for _, name := range SortedKeys(r.Resources) {
		if err := checkResource(r.Resources[name], Pointer(ptr, "resources", name)); err != nil {
			return err
		}
	}
	return nil
}

func checkMethod(m *Method, ptr string) error {
	if m == nil {
		return Errorf(DocumentParseError, ptr, "method is null")
	}
	if strings.TrimSpace(m.Path) == "" {
		return Errorf(MissingRequiredField, ptr, "method has no path")
	}
	for _, name := range SortedKeys(m.Parameters) {
		p := m.Parameters[name]
		pp := Pointer(ptr, "parameters", name)
		if err := checkSchema(p, pp); err != nil {
			return err
		}
		switch p.Location {
		case "", "query", "path":
		default:
			return Errorf(DocumentParseError, pp, "unknown parameter location %q", p.Location)
		}
	}
	if m.Request != nil {
		if m.Request.Ref != "" && len(m.Request.Properties) > 0 {
			return Errorf(UnsupportedSchemaShape, Pointer(ptr, "request"),
				"request has both $ref %q and properties", m.Request.Ref)
		}
		for _, name := range SortedKeys(m.Request.Properties) {
			if err := checkSchema(m.Request.Properties[name], Pointer(ptr, "request", "properties", name)); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkSchema(s *Schema, ptr string) error {
	if s == nil {
		return Errorf(DocumentParseError, ptr, "schema is null")
	}
	if s.Ref != "" && s.Type != "" {
		return Errorf(DocumentParseError, ptr, "schema has both $ref %q and type %q", s.Ref, s.Type)
	}
	for _, name := range SortedKeys(s.Properties) {
		if err := checkSchema(s.Properties[name], Pointer(ptr, "properties", name)); err != nil {
			return err
		}
	}
	if s.Items.State == Present {
		if err := checkSchema(s.Items.Schema, Pointer(ptr, "items")); err != nil {
			return err
		}
	}
	if s.AdditionalProperties.State == Present {
		if err := checkSchema(s.AdditionalProperties.Schema, Pointer(ptr, "additionalProperties")); err != nil {
			return err
		}
	}
	return nil
}
