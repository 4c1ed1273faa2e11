package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/nexusgen/schema"
	"github.com/syssam/nexusgen/schema/field"
)

func kitchenSink() *schema.Schema {
	return &schema.Schema{
		Version: "1.0.0",
		Types: []*schema.TypeDef{
			{
				Name: "ComplexInput",
				Kind: schema.KindRecord,
				Fields: []*schema.FieldDef{
					{Name: "selfRef", Type: schema.Ref("ComplexInput"), Optional: true},
					{Name: "someSharedObj", Type: schema.Ref("SharedObject"), Optional: true},
				},
			},
			{
				Name: "SharedObject",
				Kind: schema.KindRecord,
				Fields: []*schema.FieldDef{
					{Name: "name", Type: schema.Scalar(field.TypeString)},
				},
			},
		},
		Services: []*schema.ServiceDef{{
			Name: "KitchenSinkService",
			Operations: []*schema.OperationDef{
				{
					Name:   "scalarArgScalarResult",
					Input:  schema.Scalar(field.TypeString),
					Output: schema.Scalar(field.TypeInt64),
				},
				{
					Name:   "complexArgComplexResult",
					Input:  schema.Ref("ComplexInput"),
					Output: schema.Ref("ComplexInput"),
				},
				{Name: "noValue"},
			},
		}},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, kitchenSink().Validate())
}

func TestOperationInline(t *testing.T) {
	ops := kitchenSink().Services[0].Operations
	assert.False(t, ops[0].InputInline(), "embedded scalars define no type")
	assert.False(t, ops[1].InputInline())
	assert.False(t, ops[2].InputInline())
	assert.False(t, ops[2].OutputInline())
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*schema.Schema)
		kind   schema.IssueKind
		path   string
	}{
		{
			name: "duplicate type",
			mutate: func(s *schema.Schema) {
				s.Types = append(s.Types, &schema.TypeDef{Name: "SharedObject", Kind: schema.KindAlias, Type: field.TypeString})
			},
			kind: schema.IssueDuplicate,
			path: "SharedObject",
		},
		{
			name: "duplicate operation",
			mutate: func(s *schema.Schema) {
				svc := s.Services[0]
				svc.Operations = append(svc.Operations, &schema.OperationDef{Name: "noValue"})
			},
			kind: schema.IssueDuplicate,
			path: "KitchenSinkService.noValue",
		},
		{
			name: "duplicate field",
			mutate: func(s *schema.Schema) {
				rec := s.Types[1]
				rec.Fields = append(rec.Fields, &schema.FieldDef{Name: "name", Type: schema.Scalar(field.TypeBool)})
			},
			kind: schema.IssueDuplicate,
			path: "SharedObject.name",
		},
		{
			name: "field without type",
			mutate: func(s *schema.Schema) {
				s.Types[1].Fields[0].Type = nil
			},
			kind: schema.IssueInvalid,
			path: "SharedObject.name",
		},
		{
			name: "existing on field",
			mutate: func(s *schema.Schema) {
				s.Types[1].Fields[0].Type = schema.Existing(map[string]string{"go": "time.Duration"}, nil)
			},
			kind: schema.IssueInvalid,
			path: "SharedObject.name",
		},
		{
			name: "two forms",
			mutate: func(s *schema.Schema) {
				s.Types[1].Fields[0].Type = &schema.TypeRef{Name: "A", Elem: schema.Ref("B")}
			},
			kind: schema.IssueInvalid,
			path: "SharedObject.name",
		},
		{
			name: "empty enum",
			mutate: func(s *schema.Schema) {
				s.Types = append(s.Types, &schema.TypeDef{Name: "Color", Kind: schema.KindEnum})
			},
			kind: schema.IssueInvalid,
			path: "Color",
		},
		{
			name: "temporal kind mismatch",
			mutate: func(s *schema.Schema) {
				s.Types[1].Fields[0].Type = schema.Inline(&schema.TypeDef{Kind: schema.KindTemporal, Type: field.TypeString})
			},
			kind: schema.IssueInvalid,
			path: "SharedObject.name",
		},
		{
			name: "top-level scalar",
			mutate: func(s *schema.Schema) {
				s.Types = append(s.Types, &schema.TypeDef{Name: "Name", Kind: schema.KindScalar, Type: field.TypeString})
			},
			kind: schema.IssueInvalid,
			path: "Name",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := kitchenSink()
			tt.mutate(s)
			issues := s.Check()
			require.Len(t, issues, 1, "%v", issues)
			assert.Equal(t, tt.kind, issues[0].Kind)
			assert.Equal(t, tt.path, issues[0].Path)
			assert.Error(t, s.Validate())
		})
	}
}

func TestCheckCollectsAll(t *testing.T) {
	s := kitchenSink()
	s.Types = append(s.Types,
		&schema.TypeDef{Name: "", Kind: schema.KindRecord},
		&schema.TypeDef{Name: "Color", Kind: schema.KindEnum, Values: []schema.EnumValue{{Value: "red"}, {Value: "red"}}},
	)
	s.Services[0].Operations[0].Name = ""
	issues := s.Check()
	assert.Len(t, issues, 3)
}

func TestExistingFallback(t *testing.T) {
	r := schema.Existing(map[string]string{"java": "com.example.Thing"}, schema.Ref("ComplexInput"))
	assert.Equal(t, "ComplexInput", r.Name)
	assert.False(t, r.IsInline())

	s := kitchenSink()
	s.Services[0].Operations[1].Input = r
	assert.NoError(t, s.Validate())
}

func TestTypeRefString(t *testing.T) {
	assert.Equal(t, "int64", schema.Scalar(field.TypeInt64).String())
	assert.Equal(t, "[]Item", schema.ListOf(schema.Ref("Item")).String())
	assert.Equal(t, "map[string]date", schema.MapOf(schema.Scalar(field.TypeDate)).String())
	assert.Equal(t, "record", schema.KindRecord.String())
}

func TestDefinesType(t *testing.T) {
	tests := []struct {
		name string
		ref  *schema.TypeRef
		want bool
	}{
		{"nil", nil, false},
		{"named", schema.Ref("A"), false},
		{"scalar", schema.Scalar(field.TypeString), false},
		{"temporal", schema.Scalar(field.TypeDate), false},
		{"list", schema.ListOf(schema.Inline(&schema.TypeDef{Kind: schema.KindRecord})), false},
		{"record", schema.Inline(&schema.TypeDef{Kind: schema.KindRecord}), true},
		{"enum", schema.Inline(&schema.TypeDef{Kind: schema.KindEnum, Values: []schema.EnumValue{{Value: "A"}}}), true},
		{"existing fallback", schema.Existing(map[string]string{"go": "time.Duration"}, schema.Inline(&schema.TypeDef{Kind: schema.KindRecord})), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ref.DefinesType())
			assert.Equal(t, tt.want, (&schema.OperationDef{Input: tt.ref, Output: tt.ref}).OutputInline())
		})
	}
}
