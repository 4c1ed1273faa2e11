package gen

import (
	"fmt"
	"maps"
	"strings"

	"github.com/syssam/nexusgen/schema/field"
)

// Nullable is how a language represents an absent optional value.
type Nullable uint8

// Nullability representations.
const (
	// NullableZero omits the zero value on the wire (Go omitempty).
	NullableZero Nullable = iota
	// NullablePointer uses a pointer.
	NullablePointer
	// NullableBoxed uses a boxed reference type (Java Long).
	NullableBoxed
	// NullableOptional uses an optional wrapper (Python Optional[T]).
	NullableOptional
	// NullableUndefined uses an optional property (TypeScript a?: T).
	NullableUndefined
)

// TypeMapping is the concrete representation of an abstract kind.
type TypeMapping struct {
	// Name is the type as written in source, e.g. "time.Time" or "int".
	Name string
	// Boxed is the type used where a reference type is required, if it
	// differs from Name (Java "Long" for "long").
	Boxed string
	// Import is the package or module that provides Name.
	Import   string
	Nullable Nullable
	// NeedsAdapter marks representations that need serialization metadata
	// beyond the wire key, such as an explicit temporal format.
	NeedsAdapter bool
	// Offset marks representations carrying an explicit UTC offset.
	Offset bool
}

// BoxedName returns Boxed, or Name if the kind needs no boxing.
func (m TypeMapping) BoxedName() string {
	if m.Boxed != "" {
		return m.Boxed
	}
	return m.Name
}

// TypeTable maps abstract kinds to their representation in one language.
type TypeTable map[field.Type]TypeMapping

// Lookup returns the mapping of k.
func (t TypeTable) Lookup(k field.Type) (TypeMapping, bool) {
	m, ok := t[k]
	return m, ok
}

// With returns a copy of t with overrides applied.
func (t TypeTable) With(overrides map[field.Type]TypeMapping) TypeTable {
	out := maps.Clone(t)
	if out == nil {
		out = make(TypeTable)
	}
	maps.Copy(out, overrides)
	return out
}

// ParseTypeMapping parses an override of the form "kind=Name" or
// "kind=Name@import", e.g. "date=civil.Date@cloud.google.com/go/civil".
func ParseTypeMapping(s string) (field.Type, TypeMapping, error) {
	kind, spec, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(spec) == "" {
		return field.TypeInvalid, TypeMapping{}, NewConfigError("TypeOverride", s, "expected kind=Name[@import]")
	}
	k, err := field.ParseType(kind)
	if err != nil {
		return field.TypeInvalid, TypeMapping{}, NewConfigError("TypeOverride", s, err.Error())
	}
	name, imp, _ := strings.Cut(strings.TrimSpace(spec), "@")
	return k, TypeMapping{Name: name, Import: imp}, nil
}

// CheckTypes verifies that every kind used by g has a mapping in table.
// It reports every problem at once and runs before anything is rendered,
// so a failing language produces no output.
func CheckTypes(g *Graph, lang Language, table TypeTable) error {
	var errs ErrorList
	check := func(element string, r *Ref) {
		r.Walk(func(r *Ref) {
			if r.Kind != RefScalar {
				return
			}
			if _, ok := table.Lookup(r.Scalar); !ok {
				errs.Add(NewUnsupportedTypeError(lang, r.Scalar, element, fmt.Sprintf("%s has no %s representation", r.Scalar, lang)))
			}
		})
	}
	for _, n := range g.Nodes {
		switch {
		case n.IsAlias():
			if _, ok := table.Lookup(n.Type); !ok {
				errs.Add(NewUnsupportedTypeError(lang, n.Type, n.Path, fmt.Sprintf("%s has no %s representation", n.Type, lang)))
			}
		case n.IsRecord():
			for _, f := range n.Fields {
				check(n.Path+"."+f.Name, f.Type)
			}
		}
	}
	for _, svc := range g.Services {
		for _, op := range svc.Operations {
			checkOperation := func(which string, r *Ref) {
				if r == nil {
					return
				}
				element := svc.Name + "." + op.Name + "." + which
				resolved := r.For(lang)
				if resolved == nil {
					errs.Add(NewUnsupportedTypeError(lang, field.TypeInvalid, element, "no existing type for this language and no fallback type"))
					return
				}
				if resolved.Kind == RefExisting {
					return
				}
				check(element, resolved)
			}
			checkOperation("input", op.Input)
			checkOperation("output", op.Output)
		}
	}
	return errs.Err()
}
