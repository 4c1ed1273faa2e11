// Package java renders Java sources for a resolved schema graph.
//
// Records are Jackson-annotated classes with getters and setters, nested
// types are static members of their parent and services are interfaces
// annotated for the Nexus Java SDK.
package java

import (
	"github.com/syssam/nexusgen/compiler/gen"
	"github.com/syssam/nexusgen/schema/field"
)

// DefaultPackage is the package used when a target sets none.
const DefaultPackage = "com.example.nexusservices"

const (
	jsonProperty = "com.fasterxml.jackson.annotation.JsonProperty"
	jsonFormat   = "com.fasterxml.jackson.annotation.JsonFormat"
	nexusService = "io.nexusrpc.Service"
	nexusOp      = "io.nexusrpc.Operation"
)

// Types maps abstract kinds to Java.
var Types = gen.TypeTable{
	field.TypeString:   {Name: "String", Nullable: gen.NullableBoxed},
	field.TypeBool:     {Name: "boolean", Boxed: "Boolean", Nullable: gen.NullableBoxed},
	field.TypeInt32:    {Name: "int", Boxed: "Integer", Nullable: gen.NullableBoxed},
	field.TypeInt64:    {Name: "long", Boxed: "Long", Nullable: gen.NullableBoxed},
	field.TypeFloat64:  {Name: "double", Boxed: "Double", Nullable: gen.NullableBoxed},
	field.TypeDate:     {Name: "LocalDate", Import: "java.time.LocalDate", Nullable: gen.NullableBoxed, NeedsAdapter: true},
	field.TypeDateTime: {Name: "OffsetDateTime", Import: "java.time.OffsetDateTime", Nullable: gen.NullableBoxed, NeedsAdapter: true, Offset: true},
	field.TypeTime:     {Name: "OffsetTime", Import: "java.time.OffsetTime", Nullable: gen.NullableBoxed, NeedsAdapter: true, Offset: true},
}

var keywords = []string{
	"abstract", "assert", "boolean", "break", "byte", "case", "catch", "char",
	"class", "const", "continue", "default", "do", "double", "else", "enum",
	"extends", "final", "finally", "float", "for", "goto", "if", "implements",
	"import", "instanceof", "int", "interface", "long", "native", "new",
	"package", "private", "protected", "public", "return", "short", "static",
	"strictfp", "super", "switch", "synchronized", "this", "throw", "throws",
	"transient", "try", "void", "volatile", "while", "true", "false", "null",
	"record", "var", "yield", "sealed", "permits",
	"Object", "String", "Integer", "Long", "Double", "Boolean", "List", "Map",
}

// objectMethods may not name operations of a service interface.
var objectMethods = []string{
	"clone", "equals", "finalize", "getClass", "hashCode", "notify",
	"notifyAll", "toString", "wait",
}

// Convention is the Java identifier convention.
var Convention = gen.Convention{
	Types:              gen.CasePascal,
	Fields:             gen.CaseCamel,
	Operations:         gen.CaseCamel,
	Services:           gen.CasePascal,
	Members:            gen.CaseScreamingSnake,
	Acronyms:           true,
	Keywords:           keywords,
	ReservedOperations: objectMethods,
	NestedTypes:        true,
	InlineAliases:      true,
	FileName: func(ident, _ string) string {
		return ident + ".java"
	},
}

// Backend returns the Java backend.
func Backend() gen.Backend {
	return gen.Backend{
		Language:       gen.LangJava,
		Convention:     Convention,
		Types:          Types,
		DefaultPackage: DefaultPackage,
		Render:         Render,
	}
}
