// Package field defines the abstract value kinds a schema can carry.
//
// Kinds are language neutral. Each target language maps them onto concrete
// types through its type table:
//
//	field.String   // "hello"
//	field.Int64    // 42
//	field.DateTime // "2024-05-01T10:00:00+02:00"
//
// Temporal kinds always carry their wire representation as an ISO-8601
// string. DateTime and Time include an explicit UTC offset.
package field

import (
	"fmt"
	"strings"
)

// Type is an abstract scalar or temporal kind.
type Type uint8

// Abstract kinds.
const (
	TypeInvalid Type = iota
	TypeString
	TypeBool
	TypeInt32
	TypeInt64
	TypeFloat64
	TypeDate
	TypeDateTime
	TypeTime
	endTypes
)

var typeNames = [...]string{
	TypeInvalid:  "invalid",
	TypeString:   "string",
	TypeBool:     "bool",
	TypeInt32:    "int32",
	TypeInt64:    "int64",
	TypeFloat64:  "float64",
	TypeDate:     "date",
	TypeDateTime: "datetime",
	TypeTime:     "time",
}

// String returns the kind name.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return fmt.Sprintf("field.Type(%d)", uint8(t))
}

// Valid reports if the kind is one of the known kinds.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// IsTemporal reports if the kind is a date or time kind.
func (t Type) IsTemporal() bool {
	return t == TypeDate || t == TypeDateTime || t == TypeTime
}

// Numeric reports if the kind is a number.
func (t Type) Numeric() bool {
	return t == TypeInt32 || t == TypeInt64 || t == TypeFloat64
}

// Types returns all valid kinds in declaration order.
func Types() []Type {
	ts := make([]Type, 0, int(endTypes)-1)
	for t := TypeString; t < endTypes; t++ {
		ts = append(ts, t)
	}
	return ts
}

// ParseType parses a kind name. Besides the canonical names it accepts
// "boolean", "integer", "number", "double" and "date-time".
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string":
		return TypeString, nil
	case "bool", "boolean":
		return TypeBool, nil
	case "int32":
		return TypeInt32, nil
	case "int64", "integer":
		return TypeInt64, nil
	case "float64", "number", "double":
		return TypeFloat64, nil
	case "date":
		return TypeDate, nil
	case "datetime", "date-time":
		return TypeDateTime, nil
	case "time":
		return TypeTime, nil
	}
	return TypeInvalid, fmt.Errorf("field: unknown type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("field: cannot marshal %s", t)
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(b []byte) error {
	v, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
