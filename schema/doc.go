// Package schema holds the language-neutral model of services, operations
// and types that nexusgen generates code from.
//
// A Schema is plain data. It is usually produced by the YAML loader in
// compiler/load, but it can also be built directly:
//
//	s := &schema.Schema{
//	    Types: []*schema.TypeDef{{
//	        Name: "ComplexInput",
//	        Kind: schema.KindRecord,
//	        Fields: []*schema.FieldDef{
//	            {Name: "selfRef", Type: schema.Ref("ComplexInput"), Optional: true},
//	        },
//	    }},
//	    Services: []*schema.ServiceDef{{
//	        Name: "KitchenSinkService",
//	        Operations: []*schema.OperationDef{{
//	            Name:   "scalarArgScalarResult",
//	            Input:  schema.Scalar(field.TypeString),
//	            Output: schema.Scalar(field.TypeInt64),
//	        }},
//	    }},
//	}
//
// # References
//
// A TypeRef names a type (Ref), embeds one (Inline), wraps another
// reference (ListOf, MapOf) or points at a type that already exists in a
// target language (Existing). Named references are resolved by the type
// graph in compiler/gen, which also rejects records that contain
// themselves by value.
//
// # Wire keys
//
// FieldDef.Name is the serialized property name. Generators never
// rewrite it; only the source identifier changes per language.
package schema
