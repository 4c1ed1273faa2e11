package schema

import (
	"fmt"

	"github.com/syssam/nexusgen/schema/field"
)

// Kind discriminates TypeDef variants.
type Kind uint8

// TypeDef kinds.
const (
	KindInvalid Kind = iota
	KindRecord
	KindEnum
	KindAlias
	KindScalar
	KindTemporal
)

var kindNames = [...]string{
	KindInvalid:  "invalid",
	KindRecord:   "record",
	KindEnum:     "enum",
	KindAlias:    "alias",
	KindScalar:   "scalar",
	KindTemporal: "temporal",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("schema.Kind(%d)", uint8(k))
}

// Schema is the root of a definition.
type Schema struct {
	Version  string
	Services []*ServiceDef
	Types    []*TypeDef
}

// ServiceDef is a named group of operations.
type ServiceDef struct {
	Name       string
	Doc        string
	Operations []*OperationDef
}

// OperationDef is one RPC entry point. A nil Input or Output means the
// operation takes or returns no value.
type OperationDef struct {
	Name   string
	Doc    string
	Input  *TypeRef
	Output *TypeRef
}

// InputInline reports if the input is a record or enum defined only for
// this operation. Embedded scalars are not inline types.
func (o *OperationDef) InputInline() bool { return o.Input.DefinesType() }

// OutputInline reports if the output is a record or enum defined only for
// this operation.
func (o *OperationDef) OutputInline() bool { return o.Output.DefinesType() }

// TypeDef is a named or embedded type.
type TypeDef struct {
	Name string
	Doc  string
	Kind Kind
	// Fields and Nested are set for records.
	Fields []*FieldDef
	Nested []*TypeDef
	// Values is set for enums.
	Values []EnumValue
	// Type is the underlying kind of aliases, scalars and temporals.
	Type field.Type
}

// EnumValue is one member of an enum. Value is the wire value.
type EnumValue struct {
	Value string
	Doc   string
}

// FieldDef is a record member. Name is the wire key.
type FieldDef struct {
	Name     string
	Doc      string
	Type     *TypeRef
	Optional bool
}

// TypeRef points at the type of a field or an operation value. Exactly one
// of Name, Def, Elem or Value is set, except that Existing may be combined
// with a Name or Def fallback.
type TypeRef struct {
	// Name references a named TypeDef.
	Name string
	// Def embeds a TypeDef.
	Def *TypeDef
	// Elem is the element type of a list.
	Elem *TypeRef
	// Value is the value type of a map with string keys.
	Value *TypeRef
	// Existing maps a language name to a type that already exists in that
	// language. Only valid on operation inputs and outputs.
	Existing map[string]string
}

// Ref returns a named reference.
func Ref(name string) *TypeRef { return &TypeRef{Name: name} }

// Inline returns a reference embedding def.
func Inline(def *TypeDef) *TypeRef { return &TypeRef{Def: def} }

// ListOf returns a list reference.
func ListOf(elem *TypeRef) *TypeRef { return &TypeRef{Elem: elem} }

// MapOf returns a map reference with string keys.
func MapOf(value *TypeRef) *TypeRef { return &TypeRef{Value: value} }

// Scalar returns an embedded scalar or temporal type.
func Scalar(t field.Type) *TypeRef {
	k := KindScalar
	if t.IsTemporal() {
		k = KindTemporal
	}
	return &TypeRef{Def: &TypeDef{Kind: k, Type: t}}
}

// Existing returns a reference to per-language existing types with an
// optional fallback used by languages missing from types.
func Existing(types map[string]string, fallback *TypeRef) *TypeRef {
	r := &TypeRef{Existing: types}
	if fallback != nil {
		r.Name, r.Def, r.Elem, r.Value = fallback.Name, fallback.Def, fallback.Elem, fallback.Value
	}
	return r
}

// IsInline reports if the reference embeds its type.
func (r *TypeRef) IsInline() bool {
	return r != nil && r.Def != nil && len(r.Existing) == 0
}

// DefinesType reports if the reference embeds a record or enum, which
// generates a type of its own. An Existing fallback counts as well.
func (r *TypeRef) DefinesType() bool {
	return r != nil && r.Def != nil && (r.Def.Kind == KindRecord || r.Def.Kind == KindEnum)
}

// forms counts the alternative forms set on r.
func (r *TypeRef) forms() int {
	n := 0
	for _, set := range []bool{r.Name != "", r.Def != nil, r.Elem != nil, r.Value != nil} {
		if set {
			n++
		}
	}
	return n
}

// String returns a short description of the reference for diagnostics.
func (r *TypeRef) String() string {
	switch {
	case r == nil:
		return "<none>"
	case len(r.Existing) > 0:
		return "existing"
	case r.Name != "":
		return r.Name
	case r.Def != nil && r.Def.Name != "":
		return r.Def.Name
	case r.Def != nil && (r.Def.Kind == KindScalar || r.Def.Kind == KindTemporal):
		return r.Def.Type.String()
	case r.Def != nil:
		return "inline " + r.Def.Kind.String()
	case r.Elem != nil:
		return "[]" + r.Elem.String()
	case r.Value != nil:
		return "map[string]" + r.Value.String()
	}
	return "<empty>"
}
