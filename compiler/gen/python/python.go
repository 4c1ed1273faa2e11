// Package python renders a Python package for a resolved schema graph.
//
// Records are pydantic models whose field aliases carry the wire keys,
// enums derive from str and Enum and services use the nexusrpc package.
// Modules import each other lazily as modules and the package __init__
// rebuilds every model once all of them are defined, so types may refer
// to each other across files.
package python

import (
	"slices"

	"github.com/syssam/nexusgen/compiler/gen"
	"github.com/syssam/nexusgen/schema/field"
)

// InitFile is the package initializer written next to the modules.
const InitFile = "__init__.py"

// Types maps abstract kinds to Python.
var Types = gen.TypeTable{
	field.TypeString:   {Name: "str", Nullable: gen.NullableOptional},
	field.TypeBool:     {Name: "bool", Nullable: gen.NullableOptional},
	field.TypeInt32:    {Name: "int", Nullable: gen.NullableOptional},
	field.TypeInt64:    {Name: "int", Nullable: gen.NullableOptional},
	field.TypeFloat64:  {Name: "float", Nullable: gen.NullableOptional},
	field.TypeDate:     {Name: "_datetime.date", Import: "datetime", Nullable: gen.NullableOptional},
	field.TypeDateTime: {Name: "_datetime.datetime", Import: "datetime", Nullable: gen.NullableOptional, Offset: true},
	field.TypeTime:     {Name: "_datetime.time", Import: "datetime", Nullable: gen.NullableOptional},
}

var keywords = []string{
	"False", "None", "True", "and", "as", "assert", "async", "await", "break",
	"class", "continue", "def", "del", "elif", "else", "except", "finally",
	"for", "from", "global", "if", "import", "in", "is", "lambda", "nonlocal",
	"not", "or", "pass", "raise", "return", "try", "while", "with", "yield",
	"match", "case", "type",
	// Names the generated modules use unqualified.
	"BaseModel", "ConfigDict", "Enum", "Field", "Optional", "Protocol",
	"annotations", "nexusrpc",
}

// reservedFields shadow builtins used in annotations or collide with
// pydantic model attributes.
var reservedFields = []string{
	"bool", "dict", "float", "int", "list", "str",
	"model_config", "model_fields", "model_computed_fields", "model_extra",
	"model_fields_set", "model_construct", "model_copy", "model_dump",
	"model_dump_json", "model_json_schema", "model_post_init", "model_rebuild",
	"model_validate", "model_validate_json", "copy", "json", "schema",
	"validate", "construct",
}

// Convention is the Python identifier convention.
var Convention = gen.Convention{
	Types:          gen.CasePascal,
	Fields:         gen.CaseSnake,
	Operations:     gen.CaseSnake,
	Services:       gen.CasePascal,
	Members:        gen.CaseScreamingSnake,
	Keywords:       keywords,
	ReservedFields: reservedFields,
	ReservedOperations: []string{
		"input", "self",
	},
	// datetime.py would be imported as _datetime, the alias of the
	// standard module.
	ReservedFiles: []string{InitFile, "datetime.py"},
	InlineAliases: true,
	FileName:      fileName,
}

// fileName returns the module file of a unit. Module names are imported,
// so they may not be keywords.
func fileName(ident, _ string) string {
	name := gen.Snake(ident)
	if slices.Contains(keywords, name) {
		name += "_"
	}
	return name + ".py"
}

// Backend returns the Python backend.
func Backend() gen.Backend {
	return gen.Backend{
		Language:   gen.LangPython,
		Convention: Convention,
		Types:      Types,
		Render:     Render,
	}
}
