package gen

import (
	"maps"
	"slices"
	"strconv"

	"github.com/syssam/nexusgen/schema"
	"github.com/syssam/nexusgen/schema/field"
)

// Handle addresses a node in the graph arena.
type Handle int

// NoHandle is the parent of top-level nodes.
const NoHandle Handle = -1

// Placement is where a type is emitted. It is a property of the graph and
// is the same for every language.
type Placement uint8

// Placements.
const (
	// PlacementPrivate is a top-level type used by at most one consumer.
	PlacementPrivate Placement = iota + 1
	// PlacementShared is a top-level type used by two or more consumers.
	PlacementShared
	// PlacementNested is a type owned by its parent record.
	PlacementNested
)

// String returns the placement name.
func (p Placement) String() string {
	switch p {
	case PlacementPrivate:
		return "top-level-private"
	case PlacementShared:
		return "top-level-shared"
	case PlacementNested:
		return "nested-in"
	}
	return "unknown"
}

// Origin records how a node entered the graph.
type Origin uint8

// Origins.
const (
	// OriginDeclared is a named type from the schema.
	OriginDeclared Origin = iota + 1
	// OriginAnonymous is an unnamed record or enum embedded in a field.
	OriginAnonymous
	// OriginInput is an inline operation input.
	OriginInput
	// OriginOutput is an inline operation output.
	OriginOutput
)

// RefKind discriminates resolved references.
type RefKind uint8

// Reference kinds.
const (
	RefNode RefKind = iota + 1
	RefScalar
	RefList
	RefMap
	RefExisting
)

// The following types are the resolved, read-only form of a schema used
// by every backend.
type (
	// Graph is an arena of type nodes plus the services that use them.
	Graph struct {
		// Nodes holds every type; a node's Handle is its index.
		Nodes []*Node
		// Services holds the resolved services in schema order.
		Services []*Service
		global   map[string]Handle
	}

	// Node is one record, enum or alias.
	Node struct {
		Handle Handle
		// Name is the schema name, unique among its siblings.
		Name string
		// Path is the dotted schema path, e.g. "Order.Line".
		Path string
		Doc  string
		// Kind is KindRecord, KindEnum or KindAlias.
		Kind schema.Kind
		// Fields holds the members of a record.
		Fields []*Field
		// Values holds the members of an enum.
		Values []schema.EnumValue
		// Type is the underlying kind of an alias.
		Type      field.Type
		Parent    Handle
		Nested    []Handle
		Placement Placement
		// Consumers lists the distinct units and operations referencing a
		// top-level node, sorted.
		Consumers []string
		Origin    Origin
		src       *schema.TypeDef
		scope     map[string]Handle
	}

	// Field is a resolved record member. Name is the wire key.
	Field struct {
		Name     string
		Doc      string
		Optional bool
		Type     *Ref
	}

	// Ref is a resolved type reference.
	Ref struct {
		Kind RefKind
		// Node is set for RefNode.
		Node Handle
		// Scalar is set for RefScalar.
		Scalar field.Type
		// Elem is the element of RefList and the value of RefMap.
		Elem *Ref
		// Existing maps language names to existing types for RefExisting,
		// with an optional Fallback for the other languages.
		Existing map[string]string
		Fallback *Ref
	}

	// Service is a resolved service.
	Service struct {
		Name       string
		Doc        string
		Operations []*Operation
	}

	// Operation is a resolved operation. A nil Input or Output is no value.
	Operation struct {
		Name   string
		Doc    string
		Input  *Ref
		Output *Ref
		// InlineInput and InlineOutput are set when the value is a record
		// or enum owned by the operation. Embedded scalars stay scalars.
		InlineInput  bool
		InlineOutput bool
	}
)

// Node returns the node for h.
func (g *Graph) Node(h Handle) *Node {
	return g.Nodes[h]
}

// Lookup returns the top-level node with the given schema name.
func (g *Graph) Lookup(name string) (*Node, bool) {
	h, ok := g.global[name]
	if !ok {
		return nil, false
	}
	return g.Nodes[h], true
}

// TopLevel returns the top-level nodes in handle order.
func (g *Graph) TopLevel() []*Node {
	var nodes []*Node
	for _, n := range g.Nodes {
		if n.Parent == NoHandle {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// Unit returns the top-level ancestor of h, or h itself.
func (g *Graph) Unit(h Handle) Handle {
	for g.Nodes[h].Parent != NoHandle {
		h = g.Nodes[h].Parent
	}
	return h
}

// Ancestors returns the chain from the top-level ancestor down to h.
func (g *Graph) Ancestors(h Handle) []*Node {
	var chain []*Node
	for ; h != NoHandle; h = g.Nodes[h].Parent {
		chain = append(chain, g.Nodes[h])
	}
	slices.Reverse(chain)
	return chain
}

// IsRecord reports if the node is a record.
func (n *Node) IsRecord() bool { return n.Kind == schema.KindRecord }

// IsEnum reports if the node is an enum.
func (n *Node) IsEnum() bool { return n.Kind == schema.KindEnum }

// IsAlias reports if the node is an alias.
func (n *Node) IsAlias() bool { return n.Kind == schema.KindAlias }

// IsTopLevel reports if the node has no parent.
func (n *Node) IsTopLevel() bool { return n.Parent == NoHandle }

// Walk calls fn for r and every reference inside it, depth first.
func (r *Ref) Walk(fn func(*Ref)) {
	if r == nil {
		return
	}
	fn(r)
	r.Elem.Walk(fn)
	r.Fallback.Walk(fn)
}

// For returns the reference a language should use: the existing type entry
// is kept as is, otherwise the fallback replaces an existing reference. It
// returns nil if there is neither.
func (r *Ref) For(lang Language) *Ref {
	if r == nil || r.Kind != RefExisting {
		return r
	}
	if _, ok := r.Existing[lang.String()]; ok {
		return r
	}
	return r.Fallback
}

// NewGraph resolves a schema into a graph. It runs every check before
// returning, so the error is an ErrorList holding all problems found.
func NewGraph(s *schema.Schema) (*Graph, error) {
	var errs ErrorList
	for _, is := range s.Check() {
		errs.Add(issueError(is))
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	b := &builder{
		g:      &Graph{global: make(map[string]Handle)},
		errs:   &errs,
		inline: make(map[*schema.TypeRef]Handle),
	}
	for _, t := range s.Types {
		b.declare(t, NoHandle, OriginDeclared, t.Name)
	}
	for _, svc := range s.Services {
		for _, op := range svc.Operations {
			b.declareOperation(svc, op, op.Input, "Input", OriginInput)
			b.declareOperation(svc, op, op.Output, "Output", OriginOutput)
		}
	}
	// Anonymous nested nodes are appended while resolving; the loop picks
	// them up as well.
	for i := 0; i < len(b.g.Nodes); i++ {
		b.resolveFields(Handle(i))
	}
	for _, svc := range s.Services {
		rs := &Service{Name: svc.Name, Doc: svc.Doc}
		for _, op := range svc.Operations {
			rs.Operations = append(rs.Operations, &Operation{
				Name:         op.Name,
				Doc:          op.Doc,
				Input:        b.operationRef(svc, op, op.Input, "input"),
				Output:       b.operationRef(svc, op, op.Output, "output"),
				InlineInput:  op.InputInline(),
				InlineOutput: op.OutputInline(),
			})
		}
		b.g.Services = append(b.g.Services, rs)
	}
	b.detectCycles()
	if err := errs.Err(); err != nil {
		return nil, err
	}
	b.place()
	return b.g, nil
}

func issueError(is schema.Issue) error {
	if is.Kind == schema.IssueDuplicate {
		return NewDuplicateNameError(is.Path, is.Name)
	}
	return NewSchemaValidationError(is.Path, is.Message, nil)
}

type builder struct {
	g    *Graph
	errs *ErrorList
	// inline maps inline operation refs to their declared node.
	inline map[*schema.TypeRef]Handle
}

// declare adds def and its declared nested types to the arena.
func (b *builder) declare(def *schema.TypeDef, parent Handle, origin Origin, name string) Handle {
	h := Handle(len(b.g.Nodes))
	n := &Node{
		Handle: h,
		Name:   name,
		Path:   name,
		Doc:    def.Doc,
		Kind:   def.Kind,
		Values: def.Values,
		Type:   def.Type,
		Parent: parent,
		Origin: origin,
		src:    def,
		scope:  make(map[string]Handle),
	}
	if n.Kind == schema.KindScalar || n.Kind == schema.KindTemporal {
		n.Kind = schema.KindAlias
	}
	if parent == NoHandle {
		if _, ok := b.g.global[name]; ok {
			b.errs.Add(NewDuplicateNameError(name, name))
		} else {
			b.g.global[name] = h
		}
	} else {
		p := b.g.Nodes[parent]
		n.Path = p.Path + "." + name
		p.scope[name] = h
		p.Nested = append(p.Nested, h)
	}
	b.g.Nodes = append(b.g.Nodes, n)
	for _, nested := range def.Nested {
		b.declare(nested, h, OriginDeclared, nested.Name)
	}
	return h
}

// declareOperation adds the inline record or enum of an operation input or
// output as a top-level node named <Service><Operation><suffix>. Inline
// scalars stay scalars.
func (b *builder) declareOperation(svc *schema.ServiceDef, op *schema.OperationDef, r *schema.TypeRef, suffix string, origin Origin) {
	if !r.DefinesType() {
		return
	}
	b.inline[r] = b.declare(r.Def, NoHandle, origin, operationTypeName(svc.Name, op.Name, suffix))
}

func operationTypeName(svc, op, suffix string) string {
	return ToCase(svc, CasePascal, false) + ToCase(op, CasePascal, false) + suffix
}

func (b *builder) resolveFields(h Handle) {
	n := b.g.Nodes[h]
	if n.Kind != schema.KindRecord || n.Fields != nil {
		return
	}
	n.Fields = make([]*Field, 0, len(n.src.Fields))
	for _, f := range n.src.Fields {
		n.Fields = append(n.Fields, &Field{
			Name:     f.Name,
			Doc:      f.Doc,
			Optional: f.Optional,
			Type:     b.resolve(h, f.Name, f.Type, f.Name),
		})
	}
}

// resolve turns a field reference of the record h into a Ref. hint names
// anonymous embedded types. It returns nil after recording an error.
func (b *builder) resolve(h Handle, fieldName string, r *schema.TypeRef, hint string) *Ref {
	n := b.g.Nodes[h]
	switch {
	case r.Name != "":
		target, ok := b.lookup(h, r.Name)
		if !ok {
			b.errs.Add(NewUnresolvedReferenceError(n.Path, fieldName, r.Name))
			return nil
		}
		return &Ref{Kind: RefNode, Node: target}
	case r.Def != nil:
		switch r.Def.Kind {
		case schema.KindScalar, schema.KindTemporal:
			return &Ref{Kind: RefScalar, Scalar: r.Def.Type}
		case schema.KindAlias:
			if r.Def.Name == "" {
				return &Ref{Kind: RefScalar, Scalar: r.Def.Type}
			}
		}
		name := r.Def.Name
		if name == "" {
			name = ToCase(hint, CasePascal, false)
		}
		return &Ref{Kind: RefNode, Node: b.declare(r.Def, h, OriginAnonymous, b.freeName(n, name))}
	case r.Elem != nil:
		elem := b.resolve(h, fieldName, r.Elem, Singular(hint))
		if elem == nil {
			return nil
		}
		return &Ref{Kind: RefList, Elem: elem}
	case r.Value != nil:
		elem := b.resolve(h, fieldName, r.Value, Singular(hint))
		if elem == nil {
			return nil
		}
		return &Ref{Kind: RefMap, Elem: elem}
	}
	return nil
}

// freeName returns name, or name with the smallest numeric suffix from 2
// that is not declared in the scope of n.
func (b *builder) freeName(n *Node, name string) string {
	if _, ok := n.scope[name]; !ok && name != n.Name {
		return name
	}
	for i := 2; ; i++ {
		candidate := name + strconv.Itoa(i)
		if _, ok := n.scope[candidate]; !ok {
			return candidate
		}
	}
}

// lookup resolves name through the nested scopes of h and its ancestors,
// then the global table.
func (b *builder) lookup(h Handle, name string) (Handle, bool) {
	for ; h != NoHandle; h = b.g.Nodes[h].Parent {
		if target, ok := b.g.Nodes[h].scope[name]; ok {
			return target, true
		}
	}
	target, ok := b.g.global[name]
	return target, ok
}

// operationRef resolves an operation input or output. Named references see
// only top-level types.
func (b *builder) operationRef(svc *schema.ServiceDef, op *schema.OperationDef, r *schema.TypeRef, which string) *Ref {
	if r == nil {
		return nil
	}
	path := svc.Name + "." + op.Name
	var resolved *Ref
	switch {
	case r.Def != nil:
		if h, ok := b.inline[r]; ok {
			resolved = &Ref{Kind: RefNode, Node: h}
		} else {
			resolved = &Ref{Kind: RefScalar, Scalar: r.Def.Type}
		}
	case r.Name != "":
		h, ok := b.g.global[r.Name]
		if !ok {
			b.errs.Add(NewUnresolvedReferenceError(path, which, r.Name))
			return nil
		}
		resolved = &Ref{Kind: RefNode, Node: h}
	case r.Elem != nil, r.Value != nil:
		resolved = b.operationContainer(path, which, r, operationTypeName(svc.Name, op.Name, ToCase(which, CasePascal, false)))
		if resolved == nil {
			return nil
		}
	}
	if len(r.Existing) == 0 {
		return resolved
	}
	return &Ref{Kind: RefExisting, Existing: maps.Clone(r.Existing), Fallback: resolved}
}

// operationContainer resolves a list or map used directly as an operation
// value. Embedded records become top-level types named after the operation.
func (b *builder) operationContainer(path, which string, r *schema.TypeRef, base string) *Ref {
	switch {
	case r.Name != "":
		h, ok := b.g.global[r.Name]
		if !ok {
			b.errs.Add(NewUnresolvedReferenceError(path, which, r.Name))
			return nil
		}
		return &Ref{Kind: RefNode, Node: h}
	case r.Def != nil:
		switch r.Def.Kind {
		case schema.KindScalar, schema.KindTemporal, schema.KindAlias:
			return &Ref{Kind: RefScalar, Scalar: r.Def.Type}
		}
		h := b.declare(r.Def, NoHandle, OriginAnonymous, base)
		b.resolveFieldsFrom(h)
		return &Ref{Kind: RefNode, Node: h}
	case r.Elem != nil, r.Value != nil:
		inner, kind, suffix := r.Elem, RefList, "Item"
		if r.Value != nil {
			inner, kind, suffix = r.Value, RefMap, "Value"
		}
		elem := b.operationContainer(path, which, inner, base+suffix)
		if elem == nil {
			return nil
		}
		return &Ref{Kind: kind, Elem: elem}
	}
	return nil
}

// resolveFieldsFrom resolves the fields of nodes declared after the main
// resolution loop.
func (b *builder) resolveFieldsFrom(h Handle) {
	for i := int(h); i < len(b.g.Nodes); i++ {
		b.resolveFields(Handle(i))
	}
}

type visitState uint8

const (
	unvisited visitState = iota
	inProgress
	resolved
)

// byValue reports if f embeds a record by value. Optional fields, lists
// and maps are indirections and may close reference cycles.
func (b *builder) byValue(f *Field) (Handle, bool) {
	if f.Optional || f.Type == nil || f.Type.Kind != RefNode {
		return NoHandle, false
	}
	return f.Type.Node, b.g.Nodes[f.Type.Node].IsRecord()
}

// detectCycles reports every cycle made only of by-value edges. The
// traversal covers only those edges, so any in-progress hit is illegal.
func (b *builder) detectCycles() {
	type step struct {
		node  Handle
		field string
	}
	var (
		state = make([]visitState, len(b.g.Nodes))
		stack []step
		visit func(h Handle)
	)
	visit = func(h Handle) {
		state[h] = inProgress
		for _, f := range b.g.Nodes[h].Fields {
			target, ok := b.byValue(f)
			if !ok {
				continue
			}
			stack = append(stack, step{node: h, field: f.Name})
			switch state[target] {
			case unvisited:
				visit(target)
			case inProgress:
				var path []string
				for i := range stack {
					if stack[i].node != target && len(path) == 0 {
						continue
					}
					path = append(path, b.g.Nodes[stack[i].node].Path+"."+stack[i].field)
				}
				path = append(path, b.g.Nodes[target].Path)
				b.errs.Add(NewStructuralCycleError(path))
			}
			stack = stack[:len(stack)-1]
		}
		state[h] = resolved
	}
	for h := range b.g.Nodes {
		if state[h] == unvisited {
			visit(Handle(h))
		}
	}
}

// place counts the distinct consumers of every top-level node and assigns
// placements.
func (b *builder) place() {
	g := b.g
	consumers := make([]map[string]bool, len(g.Nodes))
	use := func(target Handle, consumer string) {
		if consumers[target] == nil {
			consumers[target] = make(map[string]bool)
		}
		consumers[target][consumer] = true
	}
	for _, n := range g.Nodes {
		unit := g.Unit(n.Handle)
		for _, f := range n.Fields {
			f.Type.Walk(func(r *Ref) {
				if r.Kind == RefNode && g.Nodes[r.Node].IsTopLevel() && r.Node != unit {
					use(r.Node, "type:"+g.Nodes[unit].Path)
				}
			})
		}
	}
	for _, svc := range g.Services {
		for _, op := range svc.Operations {
			for _, r := range []*Ref{op.Input, op.Output} {
				r.Walk(func(r *Ref) {
					if r.Kind == RefNode {
						use(r.Node, "operation:"+svc.Name+"."+op.Name)
					}
				})
			}
		}
	}
	for _, n := range g.Nodes {
		n.Consumers = slices.Sorted(maps.Keys(consumers[n.Handle]))
		switch {
		case !n.IsTopLevel():
			n.Placement = PlacementNested
		case len(n.Consumers) >= 2:
			n.Placement = PlacementShared
		default:
			n.Placement = PlacementPrivate
		}
	}
}
