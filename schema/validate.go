package schema

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// IssueKind classifies a problem found by Check.
type IssueKind uint8

// Issue kinds.
const (
	// IssueInvalid is a malformed definition.
	IssueInvalid IssueKind = iota + 1
	// IssueDuplicate is a name declared twice in one scope.
	IssueDuplicate
)

// Issue is a single problem found in a schema.
type Issue struct {
	Kind IssueKind
	// Path is the dotted location of the offending element,
	// e.g. "KitchenSinkService.scalarArgScalarResult.input".
	Path string
	// Name is the offending name for duplicates.
	Name    string
	Message string
}

func (i Issue) Error() string {
	if i.Path == "" {
		return "schema: " + i.Message
	}
	return fmt.Sprintf("schema: %s: %s", i.Path, i.Message)
}

// Validate runs the local checks of Check and joins every issue into one
// error. Reference resolution and cycle detection happen in the type graph.
func (s *Schema) Validate() error {
	issues := s.Check()
	if len(issues) == 0 {
		return nil
	}
	errs := make([]error, len(issues))
	for i := range issues {
		errs[i] = issues[i]
	}
	return errors.Join(errs...)
}

// Check returns all local problems of the schema in a stable order.
func (s *Schema) Check() []Issue {
	c := &checker{}
	services := c.scope("", "service")
	for _, svc := range s.Services {
		if svc == nil {
			c.invalid("", "nil service")
			continue
		}
		services.add(svc.Name)
		ops := c.scope(svc.Name, "operation")
		for _, op := range svc.Operations {
			if op == nil {
				c.invalid(svc.Name, "nil operation")
				continue
			}
			ops.add(op.Name)
			path := join(svc.Name, op.Name)
			if op.Input != nil {
				c.ref(join(path, "input"), op.Input, true)
			}
			if op.Output != nil {
				c.ref(join(path, "output"), op.Output, true)
			}
		}
	}
	types := c.scope("", "type")
	for _, t := range s.Types {
		if t == nil {
			c.invalid("", "nil type")
			continue
		}
		types.add(t.Name)
		switch t.Kind {
		case KindRecord, KindEnum, KindAlias:
		default:
			c.invalid(t.Name, fmt.Sprintf("top-level type must be a record, enum or alias, got %s", t.Kind))
			continue
		}
		c.def(t.Name, t)
	}
	return c.issues
}

type checker struct {
	issues []Issue
}

func (c *checker) invalid(path, msg string) {
	c.issues = append(c.issues, Issue{Kind: IssueInvalid, Path: path, Message: msg})
}

// nameScope reports empty and duplicate names within one scope.
type nameScope struct {
	c    *checker
	path string
	what string
	seen map[string]bool
}

func (c *checker) scope(path, what string) *nameScope {
	return &nameScope{c: c, path: path, what: what, seen: make(map[string]bool)}
}

func (n *nameScope) add(name string) {
	switch {
	case strings.TrimSpace(name) == "":
		n.c.invalid(n.path, n.what+" name is empty")
	case n.seen[name]:
		n.c.issues = append(n.c.issues, Issue{
			Kind:    IssueDuplicate,
			Path:    join(n.path, name),
			Name:    name,
			Message: fmt.Sprintf("duplicate %s name %q", n.what, name),
		})
	default:
		n.seen[name] = true
	}
}

func (c *checker) def(path string, t *TypeDef) {
	switch t.Kind {
	case KindRecord:
		fields := c.scope(path, "field")
		for _, f := range t.Fields {
			if f == nil {
				c.invalid(path, "nil field")
				continue
			}
			fields.add(f.Name)
			if f.Type == nil {
				c.invalid(join(path, f.Name), "field has no type")
				continue
			}
			c.ref(join(path, f.Name), f.Type, false)
		}
		nested := c.scope(path, "nested type")
		for _, n := range t.Nested {
			if n == nil {
				c.invalid(path, "nil nested type")
				continue
			}
			nested.add(n.Name)
			if n.Kind != KindRecord && n.Kind != KindEnum && n.Kind != KindAlias {
				c.invalid(join(path, n.Name), fmt.Sprintf("nested type must be a record, enum or alias, got %s", n.Kind))
				continue
			}
			c.def(join(path, n.Name), n)
		}
	case KindEnum:
		if len(t.Values) == 0 {
			c.invalid(path, "enum has no values")
		}
		values := c.scope(path, "enum value")
		for _, v := range t.Values {
			values.add(v.Value)
		}
	case KindAlias:
		if !t.Type.Valid() {
			c.invalid(path, fmt.Sprintf("alias target %s is not a scalar or temporal kind", t.Type))
		}
	case KindScalar:
		if !t.Type.Valid() || t.Type.IsTemporal() {
			c.invalid(path, fmt.Sprintf("%s is not a scalar kind", t.Type))
		}
	case KindTemporal:
		if !t.Type.IsTemporal() {
			c.invalid(path, fmt.Sprintf("%s is not a temporal kind", t.Type))
		}
	default:
		c.invalid(path, fmt.Sprintf("unknown type kind %s", t.Kind))
	}
}

func (c *checker) ref(path string, r *TypeRef, operation bool) {
	n := r.forms()
	if len(r.Existing) > 0 {
		if !operation {
			c.invalid(path, "existing types are only allowed on operation inputs and outputs")
		}
		for _, lang := range slices.Sorted(maps.Keys(r.Existing)) {
			if strings.TrimSpace(r.Existing[lang]) == "" {
				c.invalid(path, fmt.Sprintf("existing type for %s is empty", lang))
			}
		}
		if r.Elem != nil || r.Value != nil || n > 1 {
			c.invalid(path, "existing type fallback must be a named or inline type")
			return
		}
	} else if n != 1 {
		c.invalid(path, fmt.Sprintf("type reference must have exactly one form, has %d", n))
		return
	}
	switch {
	case r.Def != nil:
		c.def(path, r.Def)
	case r.Elem != nil:
		c.ref(path+"[]", r.Elem, false)
	case r.Value != nil:
		c.ref(path+"{}", r.Value, false)
	}
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
