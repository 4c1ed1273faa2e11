package golang

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dave/jennifer/jen"
	"golang.org/x/tools/imports"

	"github.com/syssam/nexusgen/compiler/gen"
	"github.com/syssam/nexusgen/schema/field"
)

// Render produces one file per top-level type and per service.
func Render(ctx *gen.Context) ([]gen.File, error) {
	r := &renderer{ctx: ctx}
	var files []gen.File
	for _, n := range ctx.Graph.TopLevel() {
		path := ctx.Names.File(n.Handle)
		if path == "" {
			continue
		}
		f := r.newFile()
		r.unit(f, n)
		file, err := r.format(path, f)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	for i, svc := range ctx.Graph.Services {
		sn := ctx.Names.Service(i)
		f := r.newFile()
		r.service(f, svc, sn)
		file, err := r.format(sn.File, f)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

type renderer struct {
	ctx *gen.Context
}

func (r *renderer) newFile() *jen.File {
	f := jen.NewFile(r.ctx.Target.Package)
	f.HeaderComment(r.ctx.Header)
	f.ImportName(NexusPackage, "nexus")
	return f
}

// format renders f and runs it through goimports so the output matches
// what gofmt would produce.
func (r *renderer) format(path string, f *jen.File) (gen.File, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return gen.File{}, gen.NewInternalError("render %s: %v", path, err)
	}
	src, err := imports.Process(path, buf.Bytes(), &imports.Options{
		FormatOnly: true,
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
	})
	if err != nil {
		return gen.File{}, gen.NewInternalError("format %s: %v", path, err)
	}
	return gen.File{Path: path, Content: src}, nil
}

// unit renders a top-level node followed by its nested types, flattened.
func (r *renderer) unit(f *jen.File, n *gen.Node) {
	switch {
	case n.IsRecord():
		r.record(f, n)
	case n.IsEnum():
		r.enum(f, n)
	case n.IsAlias():
		r.alias(f, n)
	}
	for _, h := range n.Nested {
		f.Line()
		r.unit(f, r.ctx.Graph.Node(h))
	}
}

func doc(f *jen.File, text string) {
	for _, l := range gen.WrapDoc(text, gen.DocWidth-3) {
		f.Comment(l)
	}
}

func groupDoc(g *jen.Group, text string, indent int) {
	for _, l := range gen.WrapDoc(text, gen.DocWidth-3-indent) {
		g.Comment(l)
	}
}

func (r *renderer) record(f *jen.File, n *gen.Node) {
	ident := r.ctx.Names.Type(n.Handle)
	doc(f, n.Doc)
	f.Type().Id(ident).StructFunc(func(g *jen.Group) {
		for i, fd := range n.Fields {
			groupDoc(g, fd.Doc, 8)
			tag := fd.Name
			if fd.Optional {
				tag += ",omitempty"
			}
			g.Id(r.ctx.Names.Field(n.Handle, i)).Add(r.typ(fd.Type, fd.Optional)).Tag(map[string]string{"json": tag})
		}
	})
}

func (r *renderer) enum(f *jen.File, n *gen.Node) {
	ident := r.ctx.Names.Type(n.Handle)
	doc(f, n.Doc)
	f.Type().Id(ident).String()
	f.Line()
	f.Commentf("Values of %s.", ident)
	f.Const().DefsFunc(func(g *jen.Group) {
		for i, v := range n.Values {
			groupDoc(g, v.Doc, 8)
			g.Id(r.ctx.Names.Member(n.Handle, i)).Id(ident).Op("=").Lit(v.Value)
		}
	})
}

// alias renders a defined type over a builtin, or a type alias over an
// imported type so its methods and JSON encoding are kept.
func (r *renderer) alias(f *jen.File, n *gen.Node) {
	ident := r.ctx.Names.Type(n.Handle)
	m, _ := r.ctx.Types.Lookup(n.Type)
	doc(f, n.Doc)
	if m.Import != "" {
		f.Type().Id(ident).Op("=").Add(mapped(m))
		return
	}
	f.Type().Id(ident).Add(mapped(m))
}

func (r *renderer) service(f *jen.File, svc *gen.Service, sn gen.ServiceNames) {
	handler := sn.Ident + "Handler"
	if svc.Doc != "" {
		doc(f, handler+" implements "+svc.Name+". "+svc.Doc)
	} else {
		f.Commentf("%s implements %s.", handler, svc.Name)
	}
	f.Type().Id(handler).InterfaceFunc(func(g *jen.Group) {
		for i, op := range svc.Operations {
			groupDoc(g, op.Doc, 8)
			params := []jen.Code{jen.Id("ctx").Qual("context", "Context")}
			if in := op.Input.For(gen.LangGo); in != nil {
				params = append(params, jen.Id("input").Add(r.typ(in, false)))
			}
			results := []jen.Code{jen.Error()}
			if out := op.Output.For(gen.LangGo); out != nil {
				results = []jen.Code{r.typ(out, false), jen.Error()}
			}
			g.Id(sn.Operations[i]).Params(params...).Params(results...)
		}
	})
	f.Line()
	f.Commentf("%s describes the %s service and its operations.", sn.Ident, svc.Name)
	nexus := r.ctx.Target.Runtime == gen.RuntimeNexus
	f.Var().Id(sn.Ident).Op("=").StructFunc(func(g *jen.Group) {
		g.Id("ServiceName").String()
		for i, op := range svc.Operations {
			if nexus {
				g.Id(sn.Operations[i]).Qual(NexusPackage, "OperationReference").Types(r.operationTypes(op)...)
			} else {
				g.Id(sn.Operations[i]).String()
			}
		}
	}).Values(jen.DictFunc(func(d jen.Dict) {
		d[jen.Id("ServiceName")] = jen.Lit(svc.Name)
		for i, op := range svc.Operations {
			if nexus {
				d[jen.Id(sn.Operations[i])] = jen.Qual(NexusPackage, "NewOperationReference").Types(r.operationTypes(op)...).Call(jen.Lit(op.Name))
			} else {
				d[jen.Id(sn.Operations[i])] = jen.Lit(op.Name)
			}
		}
	}))
}

// operationTypes returns the input and output type arguments of op, using
// nexus.NoValue for an absent side.
func (r *renderer) operationTypes(op *gen.Operation) []jen.Code {
	side := func(ref *gen.Ref) jen.Code {
		if ref = ref.For(gen.LangGo); ref == nil {
			return jen.Qual(NexusPackage, "NoValue")
		}
		return r.typ(ref, false)
	}
	return []jen.Code{side(op.Input), side(op.Output)}
}

// typ returns the Go type of ref. Optional records are pointers so a
// record may refer to itself; optional scalars are pointers when their
// zero value is meaningful on the wire or the target asks for it.
func (r *renderer) typ(ref *gen.Ref, optional bool) jen.Code {
	switch ref.Kind {
	case gen.RefNode:
		n := r.ctx.Graph.Node(ref.Node)
		id := jen.Id(r.ctx.Names.Type(ref.Node))
		if optional && (n.IsRecord() || (n.IsAlias() && r.pointer(n.Type))) {
			return jen.Op("*").Add(id)
		}
		return id
	case gen.RefScalar:
		m, _ := r.ctx.Types.Lookup(ref.Scalar)
		if optional && r.pointer(ref.Scalar) {
			return jen.Op("*").Add(mapped(m))
		}
		return mapped(m)
	case gen.RefList:
		return jen.Index().Add(r.typ(ref.Elem, false))
	case gen.RefMap:
		return jen.Map(jen.String()).Add(r.typ(ref.Elem, false))
	case gen.RefExisting:
		if name, ok := ref.Existing[gen.LangGo.String()]; ok {
			return qualified(name)
		}
		if ref.Fallback != nil {
			return r.typ(ref.Fallback, optional)
		}
	}
	panic(fmt.Sprintf("golang: unexpected reference kind %d", ref.Kind))
}

func (r *renderer) pointer(k field.Type) bool {
	if r.ctx.Target.PrimitivePointers {
		return true
	}
	m, _ := r.ctx.Types.Lookup(k)
	return m.Nullable == gen.NullablePointer
}

// mapped returns the type of a kind mapping. Imported names are written
// as "pkg.Name" with the package path in Import.
func mapped(m gen.TypeMapping) jen.Code {
	if m.Import == "" {
		return jen.Id(m.Name)
	}
	name := m.Name
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return jen.Qual(m.Import, name)
}

// qualified parses an existing type of the form "path/to/pkg.Type".
func qualified(s string) jen.Code {
	i := strings.LastIndex(s, ".")
	if i <= 0 || strings.LastIndex(s, "/") > i {
		return jen.Id(s)
	}
	return jen.Qual(s[:i], s[i+1:])
}
