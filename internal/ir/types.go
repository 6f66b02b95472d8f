package ir

import (
	"github.com/mark3labs/discovery2go/internal/discovery"
	"github.com/mark3labs/discovery2go/internal/naming"
)

// Kind is the shape of a TypeExpr.
type Kind int

const (
	KindAny Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindUnit
	KindSlice
	KindMap
	KindRef
)

// TypeExpr is a mapped type. Elem is set for KindSlice and KindMap; Ref and
// Name are set for KindRef.
type TypeExpr struct {
	Kind     Kind
	Ref      string
	Name     string
	Elem     *TypeExpr
	Format   string
	Optional bool
}

// Bare returns t without the Optional wrapper.
func (t TypeExpr) Bare() TypeExpr {
	t.Optional = false
	return t
}

// Refs returns the wire names of every schema t mentions.
func (t TypeExpr) Refs() []string {
	switch t.Kind {
	case KindRef:
		return []string{t.Ref}
	case KindSlice, KindMap:
		if t.Elem != nil {
			return t.Elem.Refs()
		}
	}
	return nil
}

// MapType maps a schema to a TypeExpr, optional unless the schema is marked
// required. Element types of arrays and maps are never optional. ptr locates
// s in the document for error reports.
func MapType(s *discovery.Schema, ptr string) (TypeExpr, error) {
	t, err := mapBare(s, ptr)
	if err != nil {
		return TypeExpr{}, err
	}
	t.Optional = !s.Required
	return t, nil
}

func mapBare(s *discovery.Schema, ptr string) (TypeExpr, error) {
	if s == nil {
		return TypeExpr{Kind: KindAny}, nil
	}
	if s.Ref != "" {
		return RefType(s.Ref), nil
	}
	if len(s.Properties) > 0 {
		return TypeExpr{}, discovery.Errorf(discovery.UnsupportedInlineObject, ptr,
			"inline object schemas are not supported here; declare a named schema and reference it")
	}
	switch s.Type {
	case "string", "datetime", "text":
		return TypeExpr{Kind: KindString, Format: s.Format}, nil
	case "number", "float":
		return TypeExpr{Kind: KindFloat, Format: s.Format}, nil
	case "integer":
		return TypeExpr{Kind: KindInt, Format: s.Format}, nil
	case "boolean":
		return TypeExpr{Kind: KindBool}, nil
	case "null":
		return TypeExpr{Kind: KindUnit}, nil
	case "object", "Hash":
		elem, err := mapNested(s.AdditionalProperties, discovery.Pointer(ptr, "additionalProperties"))
		if err != nil {
			return TypeExpr{}, err
		}
		return TypeExpr{Kind: KindMap, Elem: &elem}, nil
	case "array", "Array":
		elem, err := mapNested(s.Items, discovery.Pointer(ptr, "items"))
		if err != nil {
			return TypeExpr{}, err
		}
		return TypeExpr{Kind: KindSlice, Elem: &elem}, nil
	default:
		// "any" and anything unrecognized
		return TypeExpr{Kind: KindAny}, nil
	}
}

func mapNested(n discovery.Nested, ptr string) (TypeExpr, error) {
	if n.State != discovery.Present || n.Schema == nil {
		return TypeExpr{Kind: KindAny}, nil
	}
	return mapBare(n.Schema, ptr)
}

// RefType is the TypeExpr naming the schema with the given wire name.
func RefType(ref string) TypeExpr {
	return TypeExpr{Kind: KindRef, Ref: ref, Name: naming.Camelize(ref)}
}
