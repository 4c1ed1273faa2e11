// Package load reads service definitions written in YAML.
//
// A definition has a version, named types described with a subset of JSON
// Schema and services whose operations reference those types or embed
// their own:
//
//	nexusrpc: 1.0.0
//	services:
//	  Greeter:
//	    operations:
//	      greet:
//	        input: {type: string}
//	        output: {$ref: "#/types/Greeting"}
//	types:
//	  Greeting:
//	    type: object
//	    properties:
//	      text: {type: string}
//	    required: [text]
//
// Key order is preserved, so the order of types, fields and operations in
// the generated code follows the document.
package load

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/syssam/nexusgen/compiler/gen"
	"github.com/syssam/nexusgen/schema"
	"github.com/syssam/nexusgen/schema/field"
)

// Load reads and converts the definition file at path.
func Load(path string) (*schema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: read definition: %w", err)
	}
	return Parse(data)
}

// Parse converts a YAML definition. Every problem found is reported, each
// with the line it occurs on.
func Parse(data []byte) (*schema.Schema, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, gen.NewSchemaValidationError("", "invalid YAML", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, gen.NewSchemaValidationError("", "empty definition", nil)
	}
	l := &loader{}
	s := l.document(root.Content[0])
	if err := l.errs.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

type loader struct {
	errs gen.ErrorList
}

func (l *loader) fail(node *yaml.Node, path, format string, args ...any) {
	l.errs.Add(gen.NewSchemaValidationError(path, fmt.Sprintf("line %d: %s", node.Line, fmt.Sprintf(format, args...)), nil))
}

// decode decodes node into v and validates it. It reports if v is usable.
func (l *loader) decode(node *yaml.Node, path string, v any) bool {
	if node.Kind != yaml.MappingNode {
		l.fail(node, path, "expected a mapping")
		return false
	}
	if err := node.Decode(v); err != nil {
		l.fail(node, path, "%v", err)
		return false
	}
	err := validate.Struct(v)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			l.fail(valueOf(node, fe.Field()), path, "%s", describe(fe))
		}
		return false
	}
	if err != nil {
		l.fail(node, path, "%v", err)
		return false
	}
	return true
}

// valueOf returns the value node of key in a mapping, or the mapping.
func valueOf(node *yaml.Node, key string) *yaml.Node {
	key, _, _ = strings.Cut(key, "[")
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return node
}

// pairs calls fn for every entry of an optional mapping, in order.
func (l *loader) pairs(node *yaml.Node, path string, fn func(key string, value *yaml.Node)) {
	if node == nil || node.Kind == 0 {
		return
	}
	if node.Kind != yaml.MappingNode {
		l.fail(node, path, "expected a mapping")
		return
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		fn(node.Content[i].Value, node.Content[i+1])
	}
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func (l *loader) document(node *yaml.Node) *schema.Schema {
	var doc document
	if !l.decode(node, "", &doc) {
		return nil
	}
	s := &schema.Schema{Version: doc.Nexusrpc}
	l.pairs(&doc.Types, "types", func(name string, value *yaml.Node) {
		if def := l.typeDef(name, value, name); def != nil {
			s.Types = append(s.Types, def)
		}
	})
	l.pairs(&doc.Services, "services", func(name string, value *yaml.Node) {
		var raw service
		if !l.decode(value, name, &raw) {
			return
		}
		svc := &schema.ServiceDef{Name: name, Doc: raw.Description}
		l.pairs(&raw.Operations, name, func(opName string, value *yaml.Node) {
			path := name + "." + opName
			var raw operation
			if !l.decode(value, path, &raw) {
				return
			}
			op := &schema.OperationDef{Name: opName, Doc: raw.Description}
			if present(&raw.Input) {
				op.Input = l.operationRef(&raw.Input, path+".input")
			}
			if present(&raw.Output) {
				op.Output = l.operationRef(&raw.Output, path+".output")
			}
			svc.Operations = append(svc.Operations, op)
		})
		s.Services = append(s.Services, svc)
	})
	return s
}

// typeNode decodes a JSON Schema node.
func (l *loader) typeNode(node *yaml.Node, path string) *typeNode {
	var t typeNode
	if !l.decode(node, path, &t) {
		return nil
	}
	if !t.hasForm() && len(t.existing()) == 0 {
		l.fail(node, path, "one of type, $ref or enum is required")
		return nil
	}
	return &t
}

// typeDef converts a declared or nested type.
func (l *loader) typeDef(name string, node *yaml.Node, path string) *schema.TypeDef {
	t := l.typeNode(node, path)
	if t == nil {
		return nil
	}
	if !l.noExisting(t, node, path) {
		return nil
	}
	switch {
	case len(t.Enum) > 0:
		return enumDef(name, t)
	case t.Ref != "":
		l.fail(node, path, "a declared type cannot be a bare $ref")
	case t.Type == "array":
		l.fail(node, path, "a declared type cannot be an array; wrap it in an object")
	case t.Type == "object":
		if !isRecord(t) {
			l.fail(node, path, "a declared type cannot be a map; wrap it in an object")
			return nil
		}
		return l.record(name, t, node, path)
	default:
		k, ok := l.kind(t, node, path)
		if !ok {
			return nil
		}
		return &schema.TypeDef{Name: name, Doc: t.Description, Kind: schema.KindAlias, Type: k}
	}
	return nil
}

func (l *loader) noExisting(t *typeNode, node *yaml.Node, path string) bool {
	if len(t.existing()) == 0 {
		return true
	}
	l.fail(node, path, "existing type refs are only allowed on operation input and output")
	return false
}

func enumDef(name string, t *typeNode) *schema.TypeDef {
	def := &schema.TypeDef{Name: name, Doc: t.Description, Kind: schema.KindEnum}
	for _, v := range t.Enum {
		def.Values = append(def.Values, schema.EnumValue{Value: v})
	}
	return def
}

// isRecord reports if an object node has properties or forbids extra
// ones. Otherwise it is a map.
func isRecord(t *typeNode) bool {
	if len(t.Properties.Content) > 0 || !present(&t.AdditionalProperties) {
		return true
	}
	return t.AdditionalProperties.Kind == yaml.ScalarNode && t.AdditionalProperties.Value == "false"
}

func (l *loader) record(name string, t *typeNode, node *yaml.Node, path string) *schema.TypeDef {
	def := &schema.TypeDef{Name: name, Doc: t.Description, Kind: schema.KindRecord}
	required := make(map[string]bool, len(t.Required))
	for _, r := range t.Required {
		required[r] = true
	}
	l.pairs(&t.Properties, path, func(key string, value *yaml.Node) {
		delete(required, key)
		fpath := join(path, key)
		ref, doc := l.typeRef(value, fpath)
		if ref == nil {
			return
		}
		def.Fields = append(def.Fields, &schema.FieldDef{
			Name:     key,
			Doc:      doc,
			Type:     ref,
			Optional: !slices.Contains(t.Required, key),
		})
	})
	for _, r := range t.Required {
		if required[r] {
			l.fail(valueOf(node, "required"), path, "required property %q is not defined", r)
		}
	}
	l.pairs(&t.Defs, path, func(nested string, value *yaml.Node) {
		if nd := l.typeDef(nested, value, join(path, nested)); nd != nil {
			def.Nested = append(def.Nested, nd)
		}
	})
	return def
}

// typeRef converts the type of a field, list element or map value. It
// returns the node description as well.
func (l *loader) typeRef(node *yaml.Node, path string) (*schema.TypeRef, string) {
	t := l.typeNode(node, path)
	if t == nil || !l.noExisting(t, node, path) {
		return nil, ""
	}
	return l.ref(t, node, path), t.Description
}

func (l *loader) ref(t *typeNode, node *yaml.Node, path string) *schema.TypeRef {
	switch {
	case t.Ref != "":
		name, ok := refName(t.Ref)
		if !ok {
			l.fail(valueOf(node, "$ref"), path, "unsupported $ref %q; only local references are supported", t.Ref)
			return nil
		}
		return schema.Ref(name)
	case len(t.Enum) > 0:
		return schema.Inline(enumDef("", t))
	case t.Type == "array":
		elem, _ := l.typeRef(&t.Items, path+"[]")
		if elem == nil {
			return nil
		}
		return schema.ListOf(elem)
	case t.Type == "object":
		if isRecord(t) {
			def := l.record("", t, node, path)
			def.Doc = ""
			return schema.Inline(def)
		}
		if t.AdditionalProperties.Kind != yaml.MappingNode {
			l.fail(&t.AdditionalProperties, path, "additionalProperties must be a schema")
			return nil
		}
		value, _ := l.typeRef(&t.AdditionalProperties, path+"{}")
		if value == nil {
			return nil
		}
		return schema.MapOf(value)
	}
	k, ok := l.kind(t, node, path)
	if !ok {
		return nil
	}
	return schema.Scalar(k)
}

// operationRef converts an operation input or output, which may name
// existing types per language.
func (l *loader) operationRef(node *yaml.Node, path string) *schema.TypeRef {
	t := l.typeNode(node, path)
	if t == nil {
		return nil
	}
	var fallback *schema.TypeRef
	if t.hasForm() {
		if fallback = l.ref(t, node, path); fallback == nil {
			return nil
		}
	}
	if existing := t.existing(); len(existing) > 0 {
		return schema.Existing(existing, fallback)
	}
	return fallback
}

// refName returns the type name of a local reference: "#/types/Name",
// "#/$defs/Name" or a bare name.
func refName(ref string) (string, bool) {
	if strings.Contains(ref, "://") {
		return "", false
	}
	if rest, ok := strings.CutPrefix(ref, "#/"); ok {
		i := strings.LastIndex(rest, "/")
		if i < 0 {
			return "", false
		}
		switch parent := rest[:i]; {
		case parent == "types", parent == "$defs", strings.HasSuffix(parent, "/$defs"):
			return rest[i+1:], rest[i+1:] != ""
		}
		return "", false
	}
	if strings.ContainsAny(ref, "/#") || ref == "" {
		return "", false
	}
	return ref, true
}

// kind maps a JSON Schema type and format to an abstract kind.
func (l *loader) kind(t *typeNode, node *yaml.Node, path string) (field.Type, bool) {
	bad := func() (field.Type, bool) {
		l.fail(valueOf(node, "format"), path, "format %q is not valid for type %s", t.Format, t.Type)
		return field.TypeInvalid, false
	}
	switch t.Type {
	case "string":
		switch t.Format {
		case "":
			return field.TypeString, true
		case "date":
			return field.TypeDate, true
		case "date-time":
			return field.TypeDateTime, true
		case "time":
			return field.TypeTime, true
		}
		return bad()
	case "integer":
		switch t.Format {
		case "int32":
			return field.TypeInt32, true
		case "", "int64":
			return field.TypeInt64, true
		}
		return bad()
	case "number":
		switch t.Format {
		case "", "float", "double":
			return field.TypeFloat64, true
		}
		return bad()
	case "boolean":
		if t.Format != "" {
			return bad()
		}
		return field.TypeBool, true
	}
	l.fail(node, path, "type %q cannot describe a value here", t.Type)
	return field.TypeInvalid, false
}
