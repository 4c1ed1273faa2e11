package java

import (
	"fmt"
	"maps"
	"path"
	"slices"
	"strings"

	"github.com/syssam/nexusgen/compiler/gen"
	"github.com/syssam/nexusgen/schema/field"
)

const indent = "  "

// Render produces one file per top-level type and per service, under the
// directory of the target package.
func Render(ctx *gen.Context) ([]gen.File, error) {
	dir := strings.ReplaceAll(ctx.Target.Package, ".", "/")
	var files []gen.File
	for _, n := range ctx.Graph.TopLevel() {
		name := ctx.Names.File(n.Handle)
		if name == "" {
			continue
		}
		u := newUnit(ctx)
		u.node(n, false)
		files = append(files, gen.File{Path: path.Join(dir, name), Content: u.bytes()})
	}
	for i, svc := range ctx.Graph.Services {
		sn := ctx.Names.Service(i)
		u := newUnit(ctx)
		u.service(svc, sn)
		files = append(files, gen.File{Path: path.Join(dir, sn.File), Content: u.bytes()})
	}
	return files, nil
}

// unit is one compilation unit. Imports are collected while the body is
// written.
type unit struct {
	ctx     *gen.Context
	p       *gen.Printer
	imports map[string]bool
}

func newUnit(ctx *gen.Context) *unit {
	return &unit{ctx: ctx, p: gen.NewPrinter(indent), imports: make(map[string]bool)}
}

func (u *unit) bytes() []byte {
	out := gen.NewPrinter(indent)
	out.Line("// %s", u.ctx.Header)
	out.Blank()
	out.Line("package %s;", u.ctx.Target.Package)
	if len(u.imports) > 0 {
		out.Blank()
		for _, imp := range slices.Sorted(maps.Keys(u.imports)) {
			out.Line("import %s;", imp)
		}
	}
	out.Blank()
	return append(out.Bytes(), u.p.Bytes()...)
}

// simple imports a qualified class and returns its simple name.
func (u *unit) simple(qualified string) string {
	u.imports[qualified] = true
	return qualified[strings.LastIndex(qualified, ".")+1:]
}

func (u *unit) javadoc(doc string) {
	if strings.TrimSpace(doc) == "" {
		return
	}
	u.p.Line("/**")
	u.p.Comment(" * ", doc)
	u.p.Line(" */")
}

func (u *unit) node(n *gen.Node, nested bool) {
	switch {
	case n.IsRecord():
		u.record(n, nested)
	case n.IsEnum():
		u.enum(n)
	}
}

func (u *unit) record(n *gen.Node, nested bool) {
	ident := u.ctx.Names.Type(n.Handle)
	u.javadoc(n.Doc)
	if nested {
		u.p.Line("public static class %s {", ident)
	} else {
		u.p.Line("public class %s {", ident)
	}
	u.p.Indent(func() {
		names := make([]string, len(n.Fields))
		types := make([]string, len(n.Fields))
		for i, f := range n.Fields {
			names[i] = u.ctx.Names.Field(n.Handle, i)
			types[i] = u.typ(f.Type, f.Optional)
			u.p.Blank()
			u.javadoc(f.Doc)
			u.p.Line("@%s(%q)", u.simple(jsonProperty), f.Name)
			if u.needsFormat(f.Type) {
				format := u.simple(jsonFormat)
				u.p.Line("@%s(shape = %s.Shape.STRING)", format, format)
			}
			u.p.Line("private %s %s;", types[i], names[i])
		}
		u.p.Blank()
		u.p.Line("public %s() {}", ident)
		for i := range n.Fields {
			accessor := accessorName(names[i])
			u.p.Blank()
			u.p.Line("public %s get%s() {", types[i], accessor)
			u.p.Indent(func() { u.p.Line("return %s;", names[i]) })
			u.p.Line("}")
			u.p.Blank()
			u.p.Line("public void set%s(%s %s) {", accessor, types[i], names[i])
			u.p.Indent(func() { u.p.Line("this.%s = %s;", names[i], names[i]) })
			u.p.Line("}")
		}
		for _, h := range n.Nested {
			nn := u.ctx.Graph.Node(h)
			if nn.IsAlias() {
				continue
			}
			u.p.Blank()
			u.node(nn, true)
		}
	})
	u.p.Line("}")
}

func (u *unit) enum(n *gen.Node) {
	ident := u.ctx.Names.Type(n.Handle)
	u.javadoc(n.Doc)
	u.p.Line("public enum %s {", ident)
	u.p.Indent(func() {
		for i, v := range n.Values {
			u.javadoc(v.Doc)
			u.p.Line("@%s(%q)", u.simple(jsonProperty), v.Value)
			sep := ","
			if i == len(n.Values)-1 {
				sep = ";"
			}
			u.p.Line("%s%s", u.ctx.Names.Member(n.Handle, i), sep)
		}
	})
	u.p.Line("}")
}

func (u *unit) service(svc *gen.Service, sn gen.ServiceNames) {
	nexus := u.ctx.Target.Runtime == gen.RuntimeNexus
	u.javadoc(svc.Doc)
	if nexus {
		u.p.Line("@%s(name = %q)", u.simple(nexusService), svc.Name)
	}
	u.p.Line("public interface %s {", sn.Ident)
	u.p.Indent(func() {
		for i, op := range svc.Operations {
			if i > 0 {
				u.p.Blank()
			}
			u.javadoc(op.Doc)
			if nexus {
				u.p.Line("@%s(name = %q)", u.simple(nexusOp), op.Name)
			}
			result := "void"
			if out := op.Output.For(gen.LangJava); out != nil {
				result = u.typ(out, true)
			}
			param := ""
			if in := op.Input.For(gen.LangJava); in != nil {
				param = u.typ(in, true) + " input"
			}
			u.p.Line("%s %s(%s);", result, sn.Operations[i], param)
		}
	})
	u.p.Line("}")
}

// typ returns the Java type of ref. Boxed types are used for optional
// values and type arguments.
func (u *unit) typ(ref *gen.Ref, boxed bool) string {
	switch ref.Kind {
	case gen.RefNode:
		n := u.ctx.Graph.Node(ref.Node)
		if n.IsAlias() {
			return u.scalar(n.Type, boxed)
		}
		return u.ctx.Names.Qualified(u.ctx.Graph, ref.Node, ".")
	case gen.RefScalar:
		return u.scalar(ref.Scalar, boxed)
	case gen.RefList:
		return fmt.Sprintf("%s<%s>", u.simple("java.util.List"), u.typ(ref.Elem, true))
	case gen.RefMap:
		return fmt.Sprintf("%s<String, %s>", u.simple("java.util.Map"), u.typ(ref.Elem, true))
	case gen.RefExisting:
		if name, ok := ref.Existing[gen.LangJava.String()]; ok {
			return name
		}
		if ref.Fallback != nil {
			return u.typ(ref.Fallback, boxed)
		}
	}
	panic(fmt.Sprintf("java: unexpected reference kind %d", ref.Kind))
}

func (u *unit) scalar(k field.Type, boxed bool) string {
	m, _ := u.ctx.Types.Lookup(k)
	name := m.Name
	if boxed {
		name = m.BoxedName()
	}
	if m.Import != "" {
		u.imports[m.Import] = true
	}
	return name
}

// needsFormat reports if ref is a temporal value that Jackson must write
// as a string.
func (u *unit) needsFormat(ref *gen.Ref) bool {
	k := field.TypeInvalid
	switch ref.Kind {
	case gen.RefScalar:
		k = ref.Scalar
	case gen.RefNode:
		if n := u.ctx.Graph.Node(ref.Node); n.IsAlias() {
			k = n.Type
		}
	}
	m, ok := u.ctx.Types.Lookup(k)
	return ok && m.NeedsAdapter
}

// accessorName returns the getter and setter suffix of a field. A field
// renamed away from a keyword keeps its trailing underscore, so "class_"
// gets getClass_ instead of the final Object.getClass.
func accessorName(field string) string {
	name := gen.ToCase(field, gen.CasePascal, true)
	if strings.HasSuffix(field, "_") {
		name += "_"
	}
	return name
}
