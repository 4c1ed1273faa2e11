package gen

import (
	"fmt"
	"strings"
)

// Language is a supported target language. The set is closed; backends
// are selected by switching over it.
type Language uint8

// Target languages.
const (
	LangGo Language = iota + 1
	LangJava
	LangPython
	LangTypeScript
)

var langNames = map[Language]string{
	LangGo:         "go",
	LangJava:       "java",
	LangPython:     "python",
	LangTypeScript: "typescript",
}

// Languages returns all supported languages in a stable order.
func Languages() []Language {
	return []Language{LangGo, LangJava, LangPython, LangTypeScript}
}

// String returns the canonical language name.
func (l Language) String() string {
	if n, ok := langNames[l]; ok {
		return n
	}
	return fmt.Sprintf("gen.Language(%d)", uint8(l))
}

// Valid reports if l is a supported language.
func (l Language) Valid() bool {
	_, ok := langNames[l]
	return ok
}

// ParseLanguage parses a language name or one of its aliases.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "go", "golang":
		return LangGo, nil
	case "java":
		return LangJava, nil
	case "python", "py":
		return LangPython, nil
	case "typescript", "ts":
		return LangTypeScript, nil
	}
	return 0, NewConfigError("Language", s, "unsupported language; use go, java, python, or typescript")
}

// MarshalText implements encoding.TextMarshaler.
func (l Language) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Language) UnmarshalText(b []byte) error {
	v, err := ParseLanguage(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Runtime selects the service contract emitted for a language.
type Runtime uint8

// Runtimes.
const (
	// RuntimeNexus emits service descriptors for the Nexus SDK of the language.
	RuntimeNexus Runtime = iota
	// RuntimeNone emits a plain handler contract with no SDK dependency.
	RuntimeNone
)

// String returns the runtime name.
func (r Runtime) String() string {
	if r == RuntimeNone {
		return "none"
	}
	return "nexus"
}

// ParseRuntime parses "nexus" or "none".
func ParseRuntime(s string) (Runtime, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nexus":
		return RuntimeNexus, nil
	case "none":
		return RuntimeNone, nil
	}
	return 0, NewConfigError("Runtime", s, "unsupported runtime; use nexus or none")
}
