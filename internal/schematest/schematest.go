// Package schematest provides schemas shared by the generator tests.
package schematest

import (
	"github.com/syssam/nexusgen/schema"
	"github.com/syssam/nexusgen/schema/field"
)

// KitchenSink returns a schema exercising every kind, container and
// operation shape the generators support. Every call returns a fresh
// copy that tests may mutate.
func KitchenSink() *schema.Schema {
	return &schema.Schema{
		Version: "1.0.0",
		Types: []*schema.TypeDef{
			{
				Name: "ComplexInput",
				Doc:  "ComplexInput carries every field shape.",
				Kind: schema.KindRecord,
				Fields: []*schema.FieldDef{
					{Name: "selfRef", Type: schema.Ref("ComplexInput"), Optional: true},
					{Name: "someSharedObj", Type: schema.Ref("SharedObject"), Optional: true},
					{Name: "status", Type: schema.Ref("Status")},
					{Name: "tags", Type: schema.ListOf(schema.Scalar(field.TypeString))},
					{Name: "counts", Type: schema.MapOf(schema.Scalar(field.TypeInt64)), Optional: true},
					{Name: "createdAt", Type: schema.Scalar(field.TypeDateTime), Optional: true},
					{Name: "contact", Type: schema.Ref("Email"), Optional: true},
					{Name: "lines", Doc: "Order lines.", Type: schema.ListOf(schema.Ref("Line")), Optional: true},
				},
				Nested: []*schema.TypeDef{{
					Name: "Line",
					Kind: schema.KindRecord,
					Fields: []*schema.FieldDef{
						{Name: "sku", Type: schema.Scalar(field.TypeString)},
						{Name: "qty", Type: schema.Scalar(field.TypeInt32)},
						{Name: "price", Type: schema.Scalar(field.TypeFloat64), Optional: true},
					},
				}},
			},
			{
				Name: "SharedObject",
				Kind: schema.KindRecord,
				Fields: []*schema.FieldDef{
					{Name: "name", Type: schema.Scalar(field.TypeString)},
					{Name: "enabled", Type: schema.Scalar(field.TypeBool), Optional: true},
				},
			},
			{
				Name: "Status",
				Doc:  "Status of an order.",
				Kind: schema.KindEnum,
				Values: []schema.EnumValue{
					{Value: "active"},
					{Value: "inactive", Doc: "No longer processed."},
					{Value: "on-hold"},
				},
			},
			{Name: "Email", Kind: schema.KindAlias, Type: field.TypeString},
			{Name: "Instant", Kind: schema.KindAlias, Type: field.TypeDateTime},
		},
		Services: []*schema.ServiceDef{{
			Name: "KitchenSinkService",
			Doc:  "A service using every operation shape.",
			Operations: []*schema.OperationDef{
				{
					Name:   "scalarArgScalarResult",
					Doc:    "Returns the length of the input.",
					Input:  schema.Scalar(field.TypeString),
					Output: schema.Scalar(field.TypeInt64),
				},
				{
					Name:   "complexArgComplexResult",
					Input:  schema.Ref("ComplexInput"),
					Output: schema.Ref("ComplexInput"),
				},
				{
					Name: "inlineArgEnumResult",
					Input: schema.Inline(&schema.TypeDef{
						Kind: schema.KindRecord,
						Fields: []*schema.FieldDef{
							{Name: "id", Type: schema.Scalar(field.TypeString)},
							{Name: "limit", Type: schema.Scalar(field.TypeInt32), Optional: true},
						},
					}),
					Output: schema.Ref("Status"),
				},
				{
					Name:   "existingArg",
					Input:  schema.Existing(map[string]string{"go": "time.Duration"}, schema.Scalar(field.TypeInt64)),
					Output: schema.ListOf(schema.Ref("SharedObject")),
				},
				{Name: "noValue"},
			},
		}},
	}
}

// WithTime returns KitchenSink with a time-of-day field, a kind some
// languages have no default representation for.
func WithTime() *schema.Schema {
	s := KitchenSink()
	shared := s.Types[1]
	shared.Fields = append(shared.Fields, &schema.FieldDef{Name: "opensAt", Type: schema.Scalar(field.TypeTime), Optional: true})
	return s
}
