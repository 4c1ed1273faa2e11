// Package typescript renders TypeScript modules for a resolved schema
// graph.
//
// Records are interfaces keyed by wire names, nested types live in a
// namespace merged with their parent, enums are string unions and each
// service is a nexus-rpc service definition plus a handler interface.
package typescript

import (
	"github.com/syssam/nexusgen/compiler/gen"
	"github.com/syssam/nexusgen/schema/field"
)

// IndexFile re-exports every module.
const IndexFile = "index.ts"

// NexusModule is the npm package of the Nexus TypeScript SDK.
const NexusModule = "nexus-rpc"

// Types maps abstract kinds to TypeScript. Temporal kinds travel as ISO
// 8601 strings.
var Types = gen.TypeTable{
	field.TypeString:   {Name: "string", Nullable: gen.NullableUndefined},
	field.TypeBool:     {Name: "boolean", Nullable: gen.NullableUndefined},
	field.TypeInt32:    {Name: "number", Nullable: gen.NullableUndefined},
	field.TypeInt64:    {Name: "number", Nullable: gen.NullableUndefined},
	field.TypeFloat64:  {Name: "number", Nullable: gen.NullableUndefined},
	field.TypeDate:     {Name: "string", Nullable: gen.NullableUndefined},
	field.TypeDateTime: {Name: "string", Nullable: gen.NullableUndefined, Offset: true},
	field.TypeTime:     {Name: "string", Nullable: gen.NullableUndefined},
}

var keywords = []string{
	"break", "case", "catch", "class", "const", "continue", "debugger",
	"default", "delete", "do", "else", "enum", "export", "extends", "false",
	"finally", "for", "function", "if", "import", "in", "instanceof", "new",
	"null", "return", "super", "switch", "this", "throw", "true", "try",
	"typeof", "var", "void", "while", "with", "as", "implements", "interface",
	"let", "package", "private", "protected", "public", "static", "yield",
	"any", "boolean", "number", "string", "symbol", "type", "undefined",
	"unknown", "never", "object", "bigint",
	"Array", "Date", "Error", "Function", "Object", "Promise", "Record",
	"String", "Number", "Boolean", "Symbol", "Map", "Set", "nexus",
}

// Convention is the TypeScript identifier convention. Field names are the
// wire keys.
var Convention = gen.Convention{
	Types:             gen.CasePascal,
	Fields:            gen.CasePreserve,
	Operations:        gen.CaseCamel,
	Services:          gen.CasePascal,
	Members:           gen.CasePreserve,
	Keywords:          keywords,
	ReservedFiles:     []string{IndexFile},
	NestedTypes:       true,
	ServiceCompanions: []string{"Handler"},
	FileName: func(ident, _ string) string {
		return gen.ToCase(ident, gen.CaseKebab, false) + ".ts"
	},
}

// Backend returns the TypeScript backend.
func Backend() gen.Backend {
	return gen.Backend{
		Language:   gen.LangTypeScript,
		Convention: Convention,
		Types:      Types,
		Render:     Render,
	}
}
