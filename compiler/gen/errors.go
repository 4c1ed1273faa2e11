package gen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/syssam/nexusgen/schema/field"
)

// Sentinel errors for common failure cases.
var (
	// ErrInvalidSchema indicates a schema definition error.
	ErrInvalidSchema = errors.New("nexusgen: invalid schema")
	// ErrUnsupportedType indicates a kind a target language cannot represent.
	ErrUnsupportedType = errors.New("nexusgen: unsupported type")
	// ErrIdentifierCollision indicates an identifier that could not be disambiguated.
	ErrIdentifierCollision = errors.New("nexusgen: identifier collision")
	// ErrOutput indicates a failure writing generated files.
	ErrOutput = errors.New("nexusgen: output failed")
	// ErrInternal indicates a broken internal invariant.
	ErrInternal = errors.New("nexusgen: internal error")
	// ErrInvalidConfig indicates a configuration error.
	ErrInvalidConfig = errors.New("nexusgen: invalid configuration")
)

// SchemaValidationError is a malformed schema element.
type SchemaValidationError struct {
	Path    string // dotted schema path, e.g. "User.address"
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *SchemaValidationError) Error() string {
	var b strings.Builder
	b.WriteString("nexusgen: schema error")
	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *SchemaValidationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for SchemaValidationError.
func (e *SchemaValidationError) Is(target error) bool {
	return target == ErrInvalidSchema
}

// NewSchemaValidationError creates a new SchemaValidationError.
func NewSchemaValidationError(path, message string, cause error) *SchemaValidationError {
	return &SchemaValidationError{
		Path:    path,
		Message: message,
		Cause:   cause,
	}
}

// UnresolvedReferenceError is a named reference with no matching type.
type UnresolvedReferenceError struct {
	Type  string // referencing type, or "Service.operation"
	Field string // referencing field, or "input"/"output"
	Ref   string // the name that was not found
}

// Error implements the error interface.
func (e *UnresolvedReferenceError) Error() string {
	var b strings.Builder
	b.WriteString("nexusgen: unresolved reference")
	if e.Type != "" {
		b.WriteString(" on type ")
		b.WriteString(e.Type)
	}
	if e.Field != "" {
		b.WriteString(" field ")
		b.WriteString(e.Field)
	}
	fmt.Fprintf(&b, ": type %q is not defined", e.Ref)
	return b.String()
}

// Is reports whether the target matches the sentinel error for UnresolvedReferenceError.
func (e *UnresolvedReferenceError) Is(target error) bool {
	return target == ErrInvalidSchema
}

// NewUnresolvedReferenceError creates a new UnresolvedReferenceError.
func NewUnresolvedReferenceError(typeName, fieldName, ref string) *UnresolvedReferenceError {
	return &UnresolvedReferenceError{
		Type:  typeName,
		Field: fieldName,
		Ref:   ref,
	}
}

// StructuralCycleError is a record that contains itself by value through
// required fields only.
type StructuralCycleError struct {
	// Path lists the cycle as "Type.field" steps; the last step points back
	// at the first type.
	Path []string
}

// Error implements the error interface.
func (e *StructuralCycleError) Error() string {
	return "nexusgen: structural cycle: " + strings.Join(e.Path, " -> ") +
		": a record cannot contain itself by value; make one of the fields optional"
}

// Is reports whether the target matches the sentinel error for StructuralCycleError.
func (e *StructuralCycleError) Is(target error) bool {
	return target == ErrInvalidSchema
}

// NewStructuralCycleError creates a new StructuralCycleError.
func NewStructuralCycleError(path []string) *StructuralCycleError {
	return &StructuralCycleError{Path: path}
}

// DuplicateNameError is a name declared twice in one scope.
type DuplicateNameError struct {
	Path string
	Name string
}

// Error implements the error interface.
func (e *DuplicateNameError) Error() string {
	if e.Path == "" || e.Path == e.Name {
		return fmt.Sprintf("nexusgen: duplicate name %q", e.Name)
	}
	return fmt.Sprintf("nexusgen: duplicate name %q at %s", e.Name, e.Path)
}

// Is reports whether the target matches the sentinel error for DuplicateNameError.
func (e *DuplicateNameError) Is(target error) bool {
	return target == ErrInvalidSchema
}

// NewDuplicateNameError creates a new DuplicateNameError.
func NewDuplicateNameError(path, name string) *DuplicateNameError {
	return &DuplicateNameError{Path: path, Name: name}
}

// UnsupportedTypeError is a kind with no mapping in a target language.
type UnsupportedTypeError struct {
	Language Language
	Kind     field.Type
	Element  string // schema path of the field, alias or operation value
	Message  string
}

// Error implements the error interface.
func (e *UnsupportedTypeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "nexusgen: unsupported type for %s", e.Language)
	if e.Kind != field.TypeInvalid {
		fmt.Fprintf(&b, ": kind %s", e.Kind)
	}
	if e.Element != "" {
		b.WriteString(" at ")
		b.WriteString(e.Element)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for UnsupportedTypeError.
func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedType
}

// NewUnsupportedTypeError creates a new UnsupportedTypeError.
func NewUnsupportedTypeError(lang Language, kind field.Type, element, message string) *UnsupportedTypeError {
	return &UnsupportedTypeError{
		Language: lang,
		Kind:     kind,
		Element:  element,
		Message:  message,
	}
}

// IdentifierCollisionError is an identifier that could not be made unique
// within the identifier length limit.
type IdentifierCollisionError struct {
	Language     Language
	Scope        string
	Name         string // requested identifier
	CollidesWith string // identifier already claimed, if any
	Limit        int
}

// Error implements the error interface.
func (e *IdentifierCollisionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "nexusgen: identifier collision for %s", e.Language)
	if e.Scope != "" {
		b.WriteString(" in ")
		b.WriteString(e.Scope)
	}
	fmt.Fprintf(&b, ": %q", e.Name)
	if e.CollidesWith != "" {
		fmt.Fprintf(&b, " collides with %q", e.CollidesWith)
	}
	if e.Limit > 0 {
		fmt.Fprintf(&b, " and cannot be disambiguated within %d characters", e.Limit)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for IdentifierCollisionError.
func (e *IdentifierCollisionError) Is(target error) bool {
	return target == ErrIdentifierCollision
}

// NewIdentifierCollisionError creates a new IdentifierCollisionError.
func NewIdentifierCollisionError(lang Language, scope, name, collidesWith string, limit int) *IdentifierCollisionError {
	return &IdentifierCollisionError{
		Language:     lang,
		Scope:        scope,
		Name:         name,
		CollidesWith: collidesWith,
		Limit:        limit,
	}
}

// OutputError is a failed file system operation while writing output.
type OutputError struct {
	Op    string // "stage", "promote", "remove", "manifest"
	Path  string
	Cause error
}

// Error implements the error interface.
func (e *OutputError) Error() string {
	var b strings.Builder
	b.WriteString("nexusgen: output error")
	if e.Op != "" {
		b.WriteString(" during ")
		b.WriteString(e.Op)
	}
	if e.Path != "" {
		b.WriteString(" of ")
		b.WriteString(e.Path)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *OutputError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for OutputError.
func (e *OutputError) Is(target error) bool {
	return target == ErrOutput
}

// NewOutputError creates a new OutputError.
func NewOutputError(op, path string, cause error) *OutputError {
	return &OutputError{Op: op, Path: path, Cause: cause}
}

// InternalError reports a broken internal invariant, such as two units
// claiming the same output path.
type InternalError struct {
	Message string
}

// Error implements the error interface.
func (e *InternalError) Error() string {
	return "nexusgen: internal error: " + e.Message
}

// Is reports whether the target matches the sentinel error for InternalError.
func (e *InternalError) Is(target error) bool {
	return target == ErrInternal
}

// NewInternalError creates a new InternalError.
func NewInternalError(format string, args ...any) *InternalError {
	return &InternalError{Message: fmt.Sprintf(format, args...)}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("nexusgen: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("nexusgen: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// LanguageError attributes an error to a target language.
type LanguageError struct {
	Language Language
	Err      error
}

// Error implements the error interface.
func (e *LanguageError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Language, e.Err)
}

// Unwrap returns the underlying error.
func (e *LanguageError) Unwrap() error {
	return e.Err
}

// ErrorList collects every error found by a validation pass.
type ErrorList []error

// Error implements the error interface.
func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "nexusgen: no errors"
	case 1:
		return l[0].Error()
	}
	msgs := make([]string, len(l))
	for i, err := range l {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d errors:\n%s", len(l), strings.Join(msgs, "\n"))
}

// Unwrap returns the collected errors.
func (l ErrorList) Unwrap() []error {
	return l
}

// Add appends err, flattening nested lists. Nil errors are ignored.
func (l *ErrorList) Add(err error) {
	if err == nil {
		return
	}
	if nested, ok := err.(ErrorList); ok {
		*l = append(*l, nested...)
		return
	}
	*l = append(*l, err)
}

// Err returns the list as an error, or nil if it is empty.
func (l ErrorList) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// Flatten expands lists, also when wrapped in a LanguageError, into
// individual errors. Each leaf keeps its language attribution.
func Flatten(err error) []error {
	if err == nil {
		return nil
	}
	var out []error
	switch e := err.(type) {
	case ErrorList:
		for _, inner := range e {
			out = append(out, Flatten(inner)...)
		}
	case *LanguageError:
		for _, inner := range Flatten(e.Err) {
			if _, ok := inner.(*LanguageError); ok {
				out = append(out, inner)
				continue
			}
			out = append(out, &LanguageError{Language: e.Language, Err: inner})
		}
	default:
		out = append(out, err)
	}
	return out
}

// IsSchemaValidationError reports whether err is any schema validation error.
func IsSchemaValidationError(err error) bool {
	return errors.Is(err, ErrInvalidSchema)
}

// IsUnresolvedReferenceError reports whether err is an UnresolvedReferenceError.
func IsUnresolvedReferenceError(err error) bool {
	var e *UnresolvedReferenceError
	return errors.As(err, &e)
}

// IsStructuralCycleError reports whether err is a StructuralCycleError.
func IsStructuralCycleError(err error) bool {
	var e *StructuralCycleError
	return errors.As(err, &e)
}

// IsDuplicateNameError reports whether err is a DuplicateNameError.
func IsDuplicateNameError(err error) bool {
	var e *DuplicateNameError
	return errors.As(err, &e)
}

// IsUnsupportedTypeError reports whether err is an UnsupportedTypeError.
func IsUnsupportedTypeError(err error) bool {
	var e *UnsupportedTypeError
	return errors.As(err, &e)
}

// IsIdentifierCollisionError reports whether err is an IdentifierCollisionError.
func IsIdentifierCollisionError(err error) bool {
	var e *IdentifierCollisionError
	return errors.As(err, &e)
}

// IsOutputError reports whether err is an OutputError.
func IsOutputError(err error) bool {
	var e *OutputError
	return errors.As(err, &e)
}

// IsInternalError reports whether err is an InternalError.
func IsInternalError(err error) bool {
	var e *InternalError
	return errors.As(err, &e)
}

// IsConfigError reports whether err is a ConfigError.
func IsConfigError(err error) bool {
	var e *ConfigError
	return errors.As(err, &e)
}
