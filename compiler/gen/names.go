package gen

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// Convention holds the identifier rules of a target language.
type Convention struct {
	Types      Casing
	Fields     Casing
	Operations Casing
	Services   Casing
	Members    Casing
	// Acronyms renders known acronyms upper case in Pascal and camel casing.
	Acronyms bool
	// Keywords may not be used as identifiers. They do not apply to
	// preserved identifiers, which backends quote when needed.
	Keywords []string
	// ReservedFields and ReservedOperations are additional names that
	// fields and operations may not use.
	ReservedFields     []string
	ReservedOperations []string
	// ReservedFiles are output paths a backend writes besides the units.
	ReservedFiles []string
	// NestedTypes declares nested types inside their parent. Without it,
	// nested types are flattened to ParentChild in the global scope.
	NestedTypes bool
	// InlineAliases skips naming aliases; the backend renders the
	// underlying type instead.
	InlineAliases bool
	// GlobalMembers puts enum members in the global scope, prefixed with
	// the enum identifier.
	GlobalMembers bool
	// ServiceCompanions are suffixes of extra global identifiers derived
	// from each service identifier, e.g. "Handler".
	ServiceCompanions []string
	// FileName returns the output path of a unit, relative to the root.
	FileName func(ident, name string) string
}

// Suffixes appended to reserved identifiers before numeric disambiguation.
const (
	typeSuffix      = "Type"
	fieldSuffix     = "_"
	operationSuffix = "Operation"
	serviceSuffix   = "Service"
)

// ServiceNames are the identifiers of one service.
type ServiceNames struct {
	Ident      string
	File       string
	Operations []string
}

// Names holds every identifier of a language, resolved once per run.
type Names struct {
	lang     Language
	types    []string
	files    map[Handle]string
	fields   [][]string
	members  [][]string
	services []ServiceNames
}

// Language returns the language the names were resolved for.
func (n *Names) Language() Language { return n.lang }

// Type returns the identifier of a node. For flattened nested types it
// includes the parent identifiers.
func (n *Names) Type(h Handle) string { return n.types[h] }

// File returns the output path of a top-level node, or "" if it has none.
func (n *Names) File(h Handle) string { return n.files[h] }

// Field returns the identifier of the i-th field of record h.
func (n *Names) Field(h Handle, i int) string { return n.fields[h][i] }

// Member returns the identifier of the i-th value of enum h.
func (n *Names) Member(h Handle, i int) string { return n.members[h][i] }

// Service returns the identifiers of the i-th service.
func (n *Names) Service(i int) ServiceNames { return n.services[i] }

// Qualified returns the identifier of h qualified by its enclosing types,
// joined by sep. It is meant for conventions with NestedTypes.
func (n *Names) Qualified(g *Graph, h Handle, sep string) string {
	chain := g.Ancestors(h)
	parts := make([]string, len(chain))
	for i, a := range chain {
		parts[i] = n.types[a.Handle]
	}
	return strings.Join(parts, sep)
}

// scope claims identifiers and disambiguates collisions.
type scope struct {
	name     string
	lang     Language
	limit    int
	fold     bool
	reserved map[string]bool
	taken    map[string]string
}

func newScope(name string, lang Language, limit int, reserved ...[]string) *scope {
	s := &scope{
		name:     name,
		lang:     lang,
		limit:    limit,
		reserved: make(map[string]bool),
		taken:    make(map[string]string),
	}
	for _, words := range reserved {
		for _, w := range words {
			s.reserved[w] = true
		}
	}
	return s
}

func (s *scope) key(id string) string {
	if s.fold {
		return strings.ToLower(id)
	}
	return id
}

func (s *scope) isTaken(id string, companions []string) (string, bool) {
	if other, ok := s.taken[s.key(id)]; ok {
		return other, true
	}
	for _, c := range companions {
		if other, ok := s.taken[s.key(id+c)]; ok {
			return other, true
		}
	}
	return "", false
}

func (s *scope) free(id string, companions []string) bool {
	_, taken := s.isTaken(id, companions)
	return !taken && !s.reserved[id]
}

// reserve marks id as taken without disambiguation.
func (s *scope) reserve(id string) {
	s.taken[s.key(id)] = id
}

// claim returns a unique identifier for ideal. A reserved ideal gets
// suffix; with suffixOnTaken a taken ideal gets it too. Remaining
// collisions get the smallest numeric suffix starting at 2. companions
// are claimed along with the result.
func (s *scope) claim(ideal, suffix string, suffixOnTaken bool, companions ...string) (string, error) {
	collided, taken := s.isTaken(ideal, companions)
	base := ideal
	if s.reserved[ideal] || (suffixOnTaken && taken) {
		base = ideal + suffix
	}
	result := base
	if !s.free(base, companions) {
		if other, ok := s.isTaken(base, companions); ok && collided == "" {
			collided = other
		}
		for i := 2; ; i++ {
			candidate := base + strconv.Itoa(i)
			if s.free(candidate, companions) {
				result = candidate
				break
			}
		}
	}
	if s.limit > 0 && len(result) > s.limit {
		return "", NewIdentifierCollisionError(s.lang, s.name, ideal, collided, s.limit)
	}
	s.reserve(result)
	for _, c := range companions {
		s.reserve(result + c)
	}
	return result, nil
}

// ResolveNames assigns identifiers and output paths for every node,
// service, operation, field and enum member of g. maxLen limits the
// length of identifiers; 0 means no limit.
func ResolveNames(g *Graph, lang Language, conv Convention, maxLen int) (*Names, error) {
	r := &namer{
		g:    g,
		conv: conv,
		lang: lang,
		max:  maxLen,
		names: &Names{
			lang:    lang,
			types:   make([]string, len(g.Nodes)),
			files:   make(map[Handle]string),
			fields:  make([][]string, len(g.Nodes)),
			members: make([][]string, len(g.Nodes)),
		},
	}
	r.global = newScope("package", lang, maxLen, conv.Keywords)
	// Top-level identifiers become file names in some languages.
	r.global.fold = true
	for _, n := range g.TopLevel() {
		if r.skip(n) {
			continue
		}
		r.set(&r.names.types[n.Handle])(r.global.claim(r.typeIdent(n.Name), typeSuffix, false))
	}
	for _, n := range g.TopLevel() {
		r.nested(n)
	}
	for _, svc := range g.Services {
		var sn ServiceNames
		r.set(&sn.Ident)(r.global.claim(ToCase(svc.Name, conv.Services, conv.Acronyms), serviceSuffix, true, conv.ServiceCompanions...))
		ops := newScope(svc.Name, lang, maxLen, r.keywords(conv.Operations), conv.ReservedOperations)
		sn.Operations = make([]string, len(svc.Operations))
		for i, op := range svc.Operations {
			r.set(&sn.Operations[i])(ops.claim(ToCase(op.Name, conv.Operations, conv.Acronyms), operationSuffix, false))
		}
		r.names.services = append(r.names.services, sn)
	}
	for _, n := range g.Nodes {
		switch {
		case n.IsRecord():
			r.fields(n)
		case n.IsEnum():
			r.members(n)
		}
	}
	r.files()
	if err := r.errs.Err(); err != nil {
		return nil, err
	}
	return r.names, nil
}

type namer struct {
	g      *Graph
	conv   Convention
	lang   Language
	max    int
	global *scope
	names  *Names
	errs   ErrorList
}

// set returns a sink storing an identifier or recording its error.
func (r *namer) set(dst *string) func(string, error) {
	return func(id string, err error) {
		if err != nil {
			r.errs.Add(err)
			return
		}
		*dst = id
	}
}

func (r *namer) skip(n *Node) bool {
	return r.conv.InlineAliases && n.IsAlias()
}

func (r *namer) typeIdent(name string) string {
	return ToCase(name, r.conv.Types, r.conv.Acronyms)
}

// keywords returns the keywords that apply to identifiers of casing c.
func (r *namer) keywords(c Casing) []string {
	if c == CasePreserve {
		return nil
	}
	return r.conv.Keywords
}

func (r *namer) nested(parent *Node) {
	if len(parent.Nested) == 0 {
		return
	}
	var local *scope
	if r.conv.NestedTypes {
		local = newScope(parent.Path, r.lang, r.max, r.conv.Keywords)
		local.reserve(r.names.types[parent.Handle])
		for _, a := range r.g.Ancestors(parent.Handle) {
			local.reserve(r.names.types[a.Handle])
		}
	}
	for _, h := range parent.Nested {
		n := r.g.Node(h)
		if r.skip(n) {
			continue
		}
		if local != nil {
			r.set(&r.names.types[h])(local.claim(r.typeIdent(n.Name), typeSuffix, false))
		} else {
			r.set(&r.names.types[h])(r.global.claim(r.names.types[parent.Handle]+r.typeIdent(n.Name), typeSuffix, false))
		}
	}
	for _, h := range parent.Nested {
		r.nested(r.g.Node(h))
	}
}

func (r *namer) fields(n *Node) {
	local := newScope(n.Path, r.lang, r.max, r.keywords(r.conv.Fields), r.conv.ReservedFields)
	ids := make([]string, len(n.Fields))
	for i, f := range n.Fields {
		if r.conv.Fields == CasePreserve {
			ids[i] = f.Name
			continue
		}
		r.set(&ids[i])(local.claim(ToCase(f.Name, r.conv.Fields, r.conv.Acronyms), fieldSuffix, false))
	}
	r.names.fields[n.Handle] = ids
}

func (r *namer) members(n *Node) {
	if r.skip(n) {
		return
	}
	ids := make([]string, len(n.Values))
	local := r.global
	if !r.conv.GlobalMembers {
		local = newScope(n.Path, r.lang, r.max, r.keywords(r.conv.Members), r.conv.ReservedFields)
	}
	for i, v := range n.Values {
		if r.conv.Members == CasePreserve {
			ids[i] = v.Value
			continue
		}
		ideal := ToCase(v.Value, r.conv.Members, r.conv.Acronyms)
		if r.conv.GlobalMembers {
			ideal = r.names.types[n.Handle] + ToCase(v.Value, CasePascal, r.conv.Acronyms)
		}
		r.set(&ids[i])(local.claim(ideal, fieldSuffix, false))
	}
	r.names.members[n.Handle] = ids
}

// files assigns unit paths. Paths are compared case-insensitively so the
// output set is valid on case-insensitive file systems.
func (r *namer) files() {
	if r.conv.FileName == nil {
		r.errs.Add(NewInternalError("%s backend has no file name rule", r.lang))
		return
	}
	files := newScope("files", r.lang, 0)
	files.fold = true
	for _, f := range r.conv.ReservedFiles {
		files.reserve(f)
	}
	claim := func(ident, name string) string {
		p := r.conv.FileName(ident, name)
		ext := path.Ext(p)
		stem := strings.TrimSuffix(p, ext)
		if _, taken := files.isTaken(p, nil); !taken {
			files.reserve(p)
			return p
		}
		for i := 2; ; i++ {
			candidate := fmt.Sprintf("%s%d%s", stem, i, ext)
			if _, taken := files.isTaken(candidate, nil); !taken {
				files.reserve(candidate)
				return candidate
			}
		}
	}
	for _, n := range r.g.TopLevel() {
		if r.skip(n) || r.names.types[n.Handle] == "" {
			continue
		}
		r.names.files[n.Handle] = claim(r.names.types[n.Handle], n.Name)
	}
	for i, svc := range r.g.Services {
		if r.names.services[i].Ident == "" {
			continue
		}
		r.names.services[i].File = claim(r.names.services[i].Ident, svc.Name)
	}
}
