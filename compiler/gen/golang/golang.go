// Package golang renders Go source for a resolved schema graph.
//
// Every top-level type and every service becomes one file. Records are
// structs with json tags carrying the wire keys, nested types are
// flattened to ParentChild in their parent's file and services become a
// handler interface plus a descriptor variable.
package golang

import (
	"strings"

	"github.com/syssam/nexusgen/compiler/gen"
	"github.com/syssam/nexusgen/schema/field"
)

// NexusPackage is the import path of the Nexus Go SDK.
const NexusPackage = "github.com/nexus-rpc/sdk-go/nexus"

// DefaultPackage is the package name used when a target sets none.
const DefaultPackage = "services"

// Types maps abstract kinds to Go. Date and time-of-day have no standard
// library type that round-trips through encoding/json, so they need an
// override.
var Types = gen.TypeTable{
	field.TypeString:   {Name: "string"},
	field.TypeBool:     {Name: "bool"},
	field.TypeInt32:    {Name: "int32"},
	field.TypeInt64:    {Name: "int64"},
	field.TypeFloat64:  {Name: "float64"},
	field.TypeDateTime: {Name: "time.Time", Import: "time", Nullable: gen.NullablePointer, Offset: true},
}

// keywords are Go keywords and predeclared identifiers.
var keywords = []string{
	"break", "case", "chan", "const", "continue", "default", "defer", "else",
	"fallthrough", "for", "func", "go", "goto", "if", "import", "interface",
	"map", "package", "range", "return", "select", "struct", "switch", "type",
	"var", "any", "bool", "byte", "comparable", "complex64", "complex128",
	"error", "float32", "float64", "int", "int8", "int16", "int32", "int64",
	"rune", "string", "uint", "uint8", "uint16", "uint32", "uint64", "uintptr",
	"true", "false", "iota", "nil",
}

// buildSuffixes are file name suffixes the go tool treats as build
// constraints or tests.
var buildSuffixes = map[string]bool{
	"test": true, "aix": true, "android": true, "darwin": true, "dragonfly": true,
	"freebsd": true, "illumos": true, "ios": true, "js": true, "linux": true,
	"netbsd": true, "openbsd": true, "plan9": true, "solaris": true, "wasip1": true,
	"windows": true, "386": true, "amd64": true, "arm": true, "arm64": true,
	"loong64": true, "mips": true, "mipsle": true, "mips64": true, "mips64le": true,
	"ppc64": true, "ppc64le": true, "riscv64": true, "s390x": true, "wasm": true,
}

// Convention is the Go identifier convention.
var Convention = gen.Convention{
	Types:              gen.CasePascal,
	Fields:             gen.CasePascal,
	Operations:         gen.CasePascal,
	Services:           gen.CasePascal,
	Members:            gen.CasePascal,
	Acronyms:           true,
	Keywords:           keywords,
	ReservedOperations: []string{"ServiceName"},
	GlobalMembers:      true,
	ServiceCompanions:  []string{"Handler"},
	FileName:           fileName,
}

// fileName returns the snake case file of a unit. A suffix the go tool
// would read as a build constraint gets "_gen" appended.
func fileName(ident, _ string) string {
	name := gen.Snake(ident)
	if i := strings.LastIndex(name, "_"); i >= 0 && buildSuffixes[name[i+1:]] {
		name += "_gen"
	}
	return name + ".go"
}

// Backend returns the Go backend.
func Backend() gen.Backend {
	return gen.Backend{
		Language:       gen.LangGo,
		Convention:     Convention,
		Types:          Types,
		DefaultPackage: DefaultPackage,
		Render:         Render,
	}
}
