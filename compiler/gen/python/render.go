package python

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/syssam/nexusgen/compiler/gen"
	"github.com/syssam/nexusgen/schema/field"
)

const indent = "    "

// Render produces one module per top-level type and per service, plus
// the package initializer.
func Render(ctx *gen.Context) ([]gen.File, error) {
	var (
		files   []gen.File
		exports []export
	)
	for _, n := range ctx.Graph.TopLevel() {
		path := ctx.Names.File(n.Handle)
		if path == "" {
			continue
		}
		m := newModule(ctx, n.Handle)
		m.unit(n)
		files = append(files, gen.File{Path: path, Content: m.bytes()})
		exports = append(exports, export{module: moduleName(path), names: m.defined, models: m.models})
	}
	for i, svc := range ctx.Graph.Services {
		sn := ctx.Names.Service(i)
		m := newModule(ctx, gen.NoHandle)
		m.service(svc, sn)
		files = append(files, gen.File{Path: sn.File, Content: m.bytes()})
		exports = append(exports, export{module: moduleName(sn.File), names: []string{sn.Ident}})
	}
	files = append(files, gen.File{Path: InitFile, Content: initFile(ctx, exports)})
	return files, nil
}

type export struct {
	module string
	names  []string
	models []string
}

func moduleName(path string) string {
	return strings.TrimSuffix(path, ".py")
}

// initFile re-exports every generated name and rebuilds the models once
// all modules are loaded.
func initFile(ctx *gen.Context, exports []export) []byte {
	p := gen.NewPrinter(indent)
	p.Line("# %s", ctx.Header)
	p.Blank()
	var all, models []string
	for _, e := range exports {
		p.Line("from .%s import %s", e.module, strings.Join(e.names, ", "))
		all = append(all, e.names...)
		models = append(models, e.models...)
	}
	p.Blank()
	p.Line("__all__ = [")
	p.Indent(func() {
		for _, name := range slices.Sorted(slices.Values(all)) {
			p.Line("%s,", strconv.Quote(name))
		}
	})
	p.Line("]")
	if len(models) > 0 {
		p.Blank()
		for _, name := range models {
			p.Line("%s.model_rebuild()", name)
		}
	}
	return p.Bytes()
}

// module is one generated Python module. Imports are collected while the
// body is written.
type module struct {
	ctx     *gen.Context
	unitH   gen.Handle
	p       *gen.Printer
	typing  map[string]bool
	std     map[string]bool
	pydant  map[string]bool
	enum    bool
	nexus   bool
	locals  map[string]bool
	defined []string
	models  []string
}

func newModule(ctx *gen.Context, unit gen.Handle) *module {
	return &module{
		ctx:    ctx,
		unitH:  unit,
		p:      gen.NewPrinter(indent),
		typing: make(map[string]bool),
		std:    make(map[string]bool),
		pydant: make(map[string]bool),
		locals: make(map[string]bool),
	}
}

func (m *module) bytes() []byte {
	var std, third, local []string
	for _, imp := range slices.Sorted(maps.Keys(m.std)) {
		std = append(std, fmt.Sprintf("import %s as _%s", imp, imp))
	}
	if m.enum {
		std = append(std, "from enum import Enum")
	}
	if len(m.typing) > 0 {
		std = append(std, "from typing import "+strings.Join(slices.Sorted(maps.Keys(m.typing)), ", "))
	}
	if m.nexus {
		third = append(third, "import nexusrpc")
	}
	if len(m.pydant) > 0 {
		third = append(third, "from pydantic import "+strings.Join(slices.Sorted(maps.Keys(m.pydant)), ", "))
	}
	for _, mod := range slices.Sorted(maps.Keys(m.locals)) {
		local = append(local, fmt.Sprintf("from . import %s as _%s", mod, mod))
	}
	out := gen.NewPrinter(indent)
	out.Line("# %s", m.ctx.Header)
	out.Blank()
	out.Line("from __future__ import annotations")
	for _, group := range [][]string{std, third, local} {
		if len(group) == 0 {
			continue
		}
		out.Blank()
		for _, l := range group {
			out.Line("%s", l)
		}
	}
	// Two blank lines separate the imports from the first definition.
	return append(out.Bytes(), append([]byte("\n\n"), m.p.Bytes()...)...)
}

func docstring(p *gen.Printer, doc string) {
	lines := gen.WrapDoc(doc, gen.DocWidth-6-len(indent))
	if len(lines) == 0 {
		return
	}
	for i, l := range lines {
		lines[i] = strings.ReplaceAll(strings.ReplaceAll(l, `\`, `\\`), `"""`, `\"\"\"`)
	}
	if len(lines) == 1 {
		p.Line(`"""%s"""`, lines[0])
		return
	}
	p.Line(`"""%s`, lines[0])
	for _, l := range lines[1:] {
		p.Line("%s", l)
	}
	p.Line(`"""`)
}

func comment(p *gen.Printer, doc string) {
	p.Comment("# ", doc)
}

// unit writes a top-level node and its nested types, flattened.
func (m *module) unit(n *gen.Node) {
	switch {
	case n.IsRecord():
		m.record(n)
	case n.IsEnum():
		m.enumeration(n)
	default:
		return
	}
	m.defined = append(m.defined, m.ctx.Names.Type(n.Handle))
	for _, h := range n.Nested {
		if nn := m.ctx.Graph.Node(h); !nn.IsAlias() {
			m.p.Blank()
			m.p.Line("")
			m.unit(nn)
		}
	}
}

func (m *module) record(n *gen.Node) {
	ident := m.ctx.Names.Type(n.Handle)
	m.pydant["BaseModel"] = true
	m.pydant["ConfigDict"] = true
	m.models = append(m.models, ident)
	m.p.Line("class %s(BaseModel):", ident)
	m.p.Indent(func() {
		if n.Doc != "" {
			docstring(m.p, n.Doc)
			m.p.Blank()
		}
		m.p.Line("model_config = ConfigDict(populate_by_name=True)")
		if len(n.Fields) > 0 {
			m.p.Blank()
		}
		for i, f := range n.Fields {
			m.pydant["Field"] = true
			comment(m.p, f.Doc)
			typ := m.typ(f.Type)
			if f.Optional {
				m.typing["Optional"] = true
				m.p.Line("%s: Optional[%s] = Field(default=None, alias=%s)", m.ctx.Names.Field(n.Handle, i), typ, strconv.Quote(f.Name))
				continue
			}
			m.p.Line("%s: %s = Field(alias=%s)", m.ctx.Names.Field(n.Handle, i), typ, strconv.Quote(f.Name))
		}
	})
}

func (m *module) enumeration(n *gen.Node) {
	m.enum = true
	m.p.Line("class %s(str, Enum):", m.ctx.Names.Type(n.Handle))
	m.p.Indent(func() {
		if n.Doc != "" {
			docstring(m.p, n.Doc)
			m.p.Blank()
		}
		for i, v := range n.Values {
			comment(m.p, v.Doc)
			m.p.Line("%s = %s", m.ctx.Names.Member(n.Handle, i), strconv.Quote(v.Value))
		}
	})
}

func (m *module) service(svc *gen.Service, sn gen.ServiceNames) {
	if m.ctx.Target.Runtime == gen.RuntimeNexus {
		m.nexus = true
		m.p.Line("@nexusrpc.service(name=%s)", strconv.Quote(svc.Name))
		m.p.Line("class %s:", sn.Ident)
	} else {
		m.typing["Protocol"] = true
		m.p.Line("class %s(Protocol):", sn.Ident)
	}
	m.p.Indent(func() {
		docstring(m.p, svc.Doc)
		if svc.Doc != "" {
			m.p.Blank()
		}
		for i, op := range svc.Operations {
			in, out := m.operationType(op.Input), m.operationType(op.Output)
			if m.nexus {
				comment(m.p, op.Doc)
				m.p.Line("%s: nexusrpc.Operation[%s, %s] = nexusrpc.Operation(name=%s)", sn.Operations[i], in, out, strconv.Quote(op.Name))
				continue
			}
			if i > 0 {
				m.p.Blank()
			}
			params := "self"
			if op.Input.For(gen.LangPython) != nil {
				params += ", input: " + in
			}
			m.p.Line("async def %s(%s) -> %s:", sn.Operations[i], params, out)
			m.p.Indent(func() {
				docstring(m.p, op.Doc)
				m.p.Line("...")
			})
		}
		if len(svc.Operations) == 0 {
			m.p.Line("pass")
		}
	})
}

func (m *module) operationType(ref *gen.Ref) string {
	if ref = ref.For(gen.LangPython); ref == nil {
		return "None"
	}
	return m.typ(ref)
}

// typ returns the annotation of ref. Types of other modules are referred
// to through their module so circular references resolve lazily.
func (m *module) typ(ref *gen.Ref) string {
	switch ref.Kind {
	case gen.RefNode:
		n := m.ctx.Graph.Node(ref.Node)
		if n.IsAlias() {
			return m.scalar(n.Type)
		}
		ident := m.ctx.Names.Type(ref.Node)
		unit := m.ctx.Graph.Unit(ref.Node)
		if unit == m.unitH {
			return ident
		}
		mod := moduleName(m.ctx.Names.File(unit))
		m.locals[mod] = true
		return "_" + mod + "." + ident
	case gen.RefScalar:
		return m.scalar(ref.Scalar)
	case gen.RefList:
		return "list[" + m.typ(ref.Elem) + "]"
	case gen.RefMap:
		return "dict[str, " + m.typ(ref.Elem) + "]"
	case gen.RefExisting:
		if name, ok := ref.Existing[gen.LangPython.String()]; ok {
			return name
		}
		if ref.Fallback != nil {
			return m.typ(ref.Fallback)
		}
	}
	panic(fmt.Sprintf("python: unexpected reference kind %d", ref.Kind))
}

func (m *module) scalar(k field.Type) string {
	mapping, _ := m.ctx.Types.Lookup(k)
	if mapping.Import != "" {
		m.std[mapping.Import] = true
	}
	return mapping.Name
}
