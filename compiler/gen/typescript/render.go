package typescript

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/syssam/nexusgen/compiler/gen"
)

const indent = "  "

var identifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Render produces one module per top-level type and per service, plus an
// index re-exporting all of them.
func Render(ctx *gen.Context) ([]gen.File, error) {
	var files []gen.File
	for _, n := range ctx.Graph.TopLevel() {
		path := ctx.Names.File(n.Handle)
		if path == "" {
			continue
		}
		m := newModule(ctx, n.Handle)
		m.unit(n)
		files = append(files, gen.File{Path: path, Content: m.bytes()})
	}
	for i, svc := range ctx.Graph.Services {
		sn := ctx.Names.Service(i)
		m := newModule(ctx, gen.NoHandle)
		m.service(svc, sn)
		files = append(files, gen.File{Path: sn.File, Content: m.bytes()})
	}
	index := gen.NewPrinter(indent)
	index.Line("// %s", ctx.Header)
	index.Blank()
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	slices.Sort(paths)
	for _, p := range paths {
		index.Line("export * from %s;", strconv.Quote(specifier(p)))
	}
	files = append(files, gen.File{Path: IndexFile, Content: index.Bytes()})
	return files, nil
}

// specifier returns the relative ESM import path of a module file.
func specifier(path string) string {
	return "./" + strings.TrimSuffix(path, ".ts") + ".js"
}

type module struct {
	ctx   *gen.Context
	unitH gen.Handle
	p     *gen.Printer
	nexus bool
	// imports maps module specifiers to the names imported from them.
	imports map[string]map[string]bool
}

func newModule(ctx *gen.Context, unit gen.Handle) *module {
	return &module{
		ctx:     ctx,
		unitH:   unit,
		p:       gen.NewPrinter(indent),
		imports: make(map[string]map[string]bool),
	}
}

func (m *module) bytes() []byte {
	out := gen.NewPrinter(indent)
	out.Line("// %s", m.ctx.Header)
	out.Blank()
	if m.nexus {
		out.Line("import * as nexus from %s;", strconv.Quote(NexusModule))
		out.Blank()
	}
	if len(m.imports) > 0 {
		for _, spec := range slices.Sorted(maps.Keys(m.imports)) {
			names := slices.Sorted(maps.Keys(m.imports[spec]))
			out.Line("import type { %s } from %s;", strings.Join(names, ", "), strconv.Quote(spec))
		}
		out.Blank()
	}
	return append(out.Bytes(), m.p.Bytes()...)
}

func (m *module) doc(text string) {
	lines := gen.WrapDoc(text, gen.DocWidth-7)
	for i, l := range lines {
		lines[i] = strings.ReplaceAll(l, "*/", "*\\/")
	}
	switch len(lines) {
	case 0:
	case 1:
		m.p.Line("/** %s */", lines[0])
	default:
		m.p.Line("/**")
		for _, l := range lines {
			m.p.Line("%s", strings.TrimRight(" * "+l, " "))
		}
		m.p.Line(" */")
	}
}

// unit writes a node and its nested types in a namespace merged with it.
func (m *module) unit(n *gen.Node) {
	ident := m.ctx.Names.Type(n.Handle)
	m.doc(n.Doc)
	switch {
	case n.IsRecord():
		m.p.Line("export interface %s {", ident)
		m.p.Indent(func() {
			for i, f := range n.Fields {
				m.doc(f.Doc)
				key := m.ctx.Names.Field(n.Handle, i)
				if !identifier.MatchString(key) {
					key = strconv.Quote(key)
				}
				opt := ""
				if f.Optional {
					opt = "?"
				}
				m.p.Line("%s%s: %s;", key, opt, m.typ(f.Type))
			}
		})
		m.p.Line("}")
	case n.IsEnum():
		values := make([]string, len(n.Values))
		for i, v := range n.Values {
			values[i] = strconv.Quote(v.Value)
		}
		m.p.Line("export type %s = %s;", ident, strings.Join(values, " | "))
	case n.IsAlias():
		m.p.Line("export type %s = %s;", ident, m.scalar(n))
	}
	if len(n.Nested) == 0 {
		return
	}
	m.p.Blank()
	m.p.Line("export namespace %s {", ident)
	m.p.Indent(func() {
		for i, h := range n.Nested {
			if i > 0 {
				m.p.Blank()
			}
			m.unit(m.ctx.Graph.Node(h))
		}
	})
	m.p.Line("}")
}

func (m *module) scalar(n *gen.Node) string {
	mapping, _ := m.ctx.Types.Lookup(n.Type)
	return mapping.Name
}

func (m *module) service(svc *gen.Service, sn gen.ServiceNames) {
	type signature struct{ in, out string }
	sigs := make([]signature, len(svc.Operations))
	for i, op := range svc.Operations {
		sigs[i] = signature{in: m.operationType(op.Input), out: m.operationType(op.Output)}
	}
	if m.ctx.Target.Runtime == gen.RuntimeNexus {
		m.nexus = true
		m.doc(svc.Doc)
		m.p.Line("export const %s = nexus.service(%s, {", sn.Ident, strconv.Quote(svc.Name))
		m.p.Indent(func() {
			for i, op := range svc.Operations {
				m.doc(op.Doc)
				m.p.Line("%s: nexus.operation<%s, %s>({ name: %s }),", sn.Operations[i], sigs[i].in, sigs[i].out, strconv.Quote(op.Name))
			}
		})
		m.p.Line("});")
		m.p.Blank()
		m.p.Line("/** Implements the %s service. */", svc.Name)
	} else {
		m.doc(svc.Doc)
	}
	m.p.Line("export interface %sHandler {", sn.Ident)
	m.p.Indent(func() {
		for i, op := range svc.Operations {
			m.doc(op.Doc)
			param := ""
			if op.Input.For(gen.LangTypeScript) != nil {
				param = "input: " + sigs[i].in
			}
			m.p.Line("%s(%s): Promise<%s>;", sn.Operations[i], param, sigs[i].out)
		}
	})
	m.p.Line("}")
}

func (m *module) operationType(ref *gen.Ref) string {
	if ref = ref.For(gen.LangTypeScript); ref == nil {
		return "void"
	}
	return m.typ(ref)
}

// typ returns the type of ref, importing the unit that declares it.
func (m *module) typ(ref *gen.Ref) string {
	switch ref.Kind {
	case gen.RefNode:
		unit := m.ctx.Graph.Unit(ref.Node)
		if unit != m.unitH {
			spec := specifier(m.ctx.Names.File(unit))
			if m.imports[spec] == nil {
				m.imports[spec] = make(map[string]bool)
			}
			m.imports[spec][m.ctx.Names.Type(unit)] = true
		}
		return m.ctx.Names.Qualified(m.ctx.Graph, ref.Node, ".")
	case gen.RefScalar:
		mapping, _ := m.ctx.Types.Lookup(ref.Scalar)
		return mapping.Name
	case gen.RefList:
		elem := m.typ(ref.Elem)
		if strings.ContainsAny(elem, " |") {
			return "Array<" + elem + ">"
		}
		return elem + "[]"
	case gen.RefMap:
		return "Record<string, " + m.typ(ref.Elem) + ">"
	case gen.RefExisting:
		if name, ok := ref.Existing[gen.LangTypeScript.String()]; ok {
			return name
		}
		if ref.Fallback != nil {
			return m.typ(ref.Fallback)
		}
	}
	panic(fmt.Sprintf("typescript: unexpected reference kind %d", ref.Kind))
}
