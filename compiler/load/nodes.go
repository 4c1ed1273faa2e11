package load

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Raw forms of the definition document. Mappings whose key order matters
// stay yaml.Node values and are walked by the loader.
type (
	document struct {
		Nexusrpc string    `yaml:"nexusrpc" validate:"required,semver"`
		Services yaml.Node `yaml:"services"`
		Types    yaml.Node `yaml:"types"`
	}

	service struct {
		Description string    `yaml:"description"`
		Operations  yaml.Node `yaml:"operations"`
	}

	operation struct {
		Description string    `yaml:"description"`
		Input       yaml.Node `yaml:"input"`
		Output      yaml.Node `yaml:"output"`
	}

	// typeNode is the supported subset of JSON Schema.
	typeNode struct {
		Type                 string    `yaml:"type" validate:"omitempty,oneof=object string integer number boolean array"`
		Format               string    `yaml:"format" validate:"omitempty,oneof=date date-time time int32 int64 float double"`
		Title                string    `yaml:"title"`
		Description          string    `yaml:"description"`
		Ref                  string    `yaml:"$ref" validate:"excluded_with=Type Enum"`
		Properties           yaml.Node `yaml:"properties"`
		Required             []string  `yaml:"required" validate:"unique,dive,required"`
		Items                yaml.Node `yaml:"items" validate:"required_if=Type array"`
		AdditionalProperties yaml.Node `yaml:"additionalProperties"`
		Enum                 []string  `yaml:"enum" validate:"omitempty,unique,dive,required"`
		Defs                 yaml.Node `yaml:"$defs"`
		GoRef                string    `yaml:"$goRef"`
		JavaRef              string    `yaml:"$javaRef"`
		PythonRef            string    `yaml:"$pythonRef"`
		TypescriptRef        string    `yaml:"$typescriptRef"`
	}
)

// existing returns the existing type names of the node, keyed by language.
func (t *typeNode) existing() map[string]string {
	refs := make(map[string]string)
	for lang, ref := range map[string]string{
		"go":         t.GoRef,
		"java":       t.JavaRef,
		"python":     t.PythonRef,
		"typescript": t.TypescriptRef,
	} {
		if ref != "" {
			refs[lang] = ref
		}
	}
	return refs
}

// present reports if a node field was set in the document. Absent
// fields decode to the zero Node.
func present(n *yaml.Node) bool {
	return n.Kind != 0
}

// hasForm reports if the node describes a type besides existing refs.
func (t *typeNode) hasForm() bool {
	return t.Type != "" || t.Ref != "" || len(t.Enum) > 0
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// describe converts a validation failure to a message naming the YAML key.
func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "required_if":
		other, value, _ := strings.Cut(fe.Param(), " ")
		return fmt.Sprintf("%s is required when %s is %s", fe.Field(), strings.ToLower(other), value)
	case "excluded_with":
		return fmt.Sprintf("%s cannot be combined with type or enum", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "unique":
		return fmt.Sprintf("%s contains duplicates", fe.Field())
	case "semver":
		return fmt.Sprintf("%s must be a semantic version, got %q", fe.Field(), fe.Value())
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("%s failed %s=%s validation", fe.Field(), fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
