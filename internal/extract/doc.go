package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/phobologic/docextract/internal/diag"
	"github.com/phobologic/docextract/internal/model"
	"github.com/phobologic/docextract/internal/syntax"
	"github.com/phobologic/docextract/internal/typesig"
)

// commonTags are the tags every record kind maps to a field.
var commonTags = tagSet(
	"@kind", "@variation", "@name", "@memberof", "@member", "@content",
	"@generator", "@async", "@static", "@longname", "@access", "@public",
	"@protected", "@private", "@package", "@export", "@importPath",
	"@importStyle", "@desc", "@example", "@see", "@lineNumber", "@deprecated",
	"@experimental", "@since", "@version", "@todo", "@ignore", "@pseudoExport",
	"@undocument", "@unknown", "@param", "@property", "@return", "@returns",
	"@type", "@abstract", "@override", "@throws", "@emits", "@listens",
	"@decorator",
)

var kindTags = map[docKind]map[string]bool{
	kindClass:    tagSet("@interface", "@extends", "@extend", "@implements", "@implement"),
	kindTypedef:  tagSet("@typedef"),
	kindExternal: tagSet("@external"),
}

func tagSet(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// builder derives one record. Steps run in a fixed order; later steps may
// read fields set by earlier ones.
type builder struct {
	f      *fileState
	kind   docKind
	node   syntax.Node
	parent syntax.Node
	tags   []model.Tag
	rec    *model.Record
}

func (f *fileState) build(kind docKind, n, parent syntax.Node, tags []model.Tag) (*model.Record, error) {
	b := &builder{f: f, kind: kind, node: n, parent: parent, tags: tags, rec: &model.Record{}}

	steps := []func() error{
		b.setKind, b.setName, b.setMemberOf, b.setCallable, b.setStatic,
		b.setLongname, b.setAccess, b.setExport, b.setText, b.setFlags,
		b.setParams, b.setReturn, b.setType, b.setSignals, b.setDecorators,
	}
	switch kind {
	case kindClass:
		steps = append(steps, b.setClass)
	case kindTypedef:
		steps = append(steps, b.setTypedef)
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}

	b.rec.ID = f.run.add(n)
	return b.rec, nil
}

// fileRecord describes the file itself and carries its source text.
func (f *fileState) fileRecord() *model.Record {
	line := f.prog.Loc.Line
	if line == 0 {
		line = 1
	}
	return &model.Record{
		ID:         f.run.add(f.prog),
		Kind:       model.File,
		Name:       f.path,
		Longname:   f.res.FullPath(),
		Content:    f.source,
		Static:     true,
		LineNumber: line,
	}
}

func (b *builder) all(names ...string) []model.Tag {
	var out []model.Tag
	for _, t := range b.tags {
		for _, n := range names {
			if t.Name == n {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

func (b *builder) last(names ...string) (model.Tag, bool) {
	ts := b.all(names...)
	if len(ts) == 0 {
		return model.Tag{}, false
	}
	return ts[len(ts)-1], true
}

func (b *builder) has(name string) bool {
	return model.HasTag(b.tags, name)
}

func (b *builder) values(name string) []string {
	var out []string
	for _, t := range b.all(name) {
		out = append(out, t.Value)
	}
	return out
}

func (b *builder) malformed(t model.Tag, err error) {
	b.f.report(b.node, fmt.Sprintf("%s %q: %v", t.Name, t.Value, err))
}

func (b *builder) setKind() error {
	switch b.kind {
	case kindClass:
		b.rec.Kind = model.Class
	case kindMethod:
		b.rec.Kind = model.Kind(b.node.(*syntax.MethodDefinition).Kind)
	case kindField, kindMember:
		b.rec.Kind = model.Member
	case kindFunction:
		b.rec.Kind = model.Function
	case kindVariable:
		b.rec.Kind = model.Variable
	case kindAssignment:
		b.rec.Kind = model.Assignment
	case kindTypedef:
		b.rec.Kind = model.Typedef
	case kindExternal:
		b.rec.Kind = model.External
	}
	return nil
}

func (b *builder) setName() error {
	name, err := b.name()
	if err != nil {
		return err
	}
	b.rec.Name = name
	return nil
}

func (b *builder) name() (string, error) {
	f := b.f
	switch b.kind {
	case kindClass:
		cls := b.node.(*syntax.ClassDeclaration)
		if id, ok := f.names[cls].(*syntax.Identifier); ok {
			return id.Name, nil
		}
		if cls.ID != nil {
			return cls.ID.Name, nil
		}
		return f.anonymousName(), nil
	case kindMethod:
		m := b.node.(*syntax.MethodDefinition)
		return keyName(m.Key, m.Computed), nil
	case kindField:
		fd := b.node.(*syntax.FieldDefinition)
		return keyName(fd.Key, fd.Computed), nil
	case kindMember:
		left := b.node.(*syntax.AssignmentExpression).Left.(*syntax.MemberExpression)
		if left.Computed {
			return "[" + strings.TrimPrefix(syntax.Source(left.Property), "this") + "]", nil
		}
		return strings.TrimPrefix(flatten(left), "this."), nil
	case kindFunction:
		fn := b.node.(*syntax.Function)
		switch v := f.names[fn].(type) {
		case *syntax.Identifier:
			return v.Name, nil
		case *syntax.MemberExpression:
			return "[" + syntax.Source(v) + "]", nil
		}
		if fn.ID != nil {
			return fn.ID.Name, nil
		}
		return f.anonymousName(), nil
	case kindVariable:
		return variableName(b.node.(*syntax.VariableDeclaration))
	case kindAssignment:
		return strings.TrimPrefix(flatten(b.node.(*syntax.AssignmentExpression).Left), "this."), nil
	case kindTypedef:
		t, _ := b.last("@typedef")
		p, err := typesig.Split(t.Value, typesig.Typedef)
		if err != nil {
			b.malformed(t, err)
		}
		return p.Name, nil
	case kindExternal:
		t, _ := b.last("@external")
		p, err := typesig.Split(t.Value, typesig.Return)
		if err != nil {
			b.malformed(t, err)
		}
		b.rec.ExternalLink = p.Desc
		return p.Type, nil
	}
	return "", nil
}

func keyName(key syntax.Node, computed bool) string {
	if computed {
		return "[" + syntax.Source(key) + "]"
	}
	if id, ok := key.(*syntax.Identifier); ok {
		return id.Name
	}
	return syntax.Source(key)
}

func variableName(v *syntax.VariableDeclaration) (string, error) {
	if len(v.Declarations) > 0 {
		switch id := v.Declarations[0].ID.(type) {
		case *syntax.Identifier:
			return id.Name, nil
		case *syntax.ObjectPattern:
			if len(id.Keys) > 0 {
				return id.Keys[0], nil
			}
		case *syntax.ArrayPattern:
			for _, e := range id.Elements {
				if syntax.IsNil(e) {
					continue
				}
				if ident, ok := e.(*syntax.Identifier); ok {
					return ident.Name, nil
				}
				break
			}
		}
	}
	shape := "none"
	if len(v.Declarations) > 0 {
		shape = fmt.Sprintf("%T", v.Declarations[0].ID)
	}
	return "", fmt.Errorf("%w: unknown declarations type %s", diag.ErrUnsupportedSyntax, shape)
}

func (b *builder) setMemberOf() error {
	f := b.f
	switch b.kind {
	case kindMethod, kindField, kindMember:
		cls := f.enclosingClass(f.parent[b.node], true)
		b.rec.MemberOf = f.classDocs[cls].Longname
	case kindTypedef:
		b.rec.MemberOf = f.path
		if cls := f.enclosingClass(f.up(b.node, b.parent), false); cls != nil {
			name := ""
			if cls.ID != nil {
				name = cls.ID.Name
			} else if rec, ok := f.classDocs[cls]; ok {
				name = rec.Name
			}
			b.rec.MemberOf = f.path + "~" + name
		}
	default:
		b.rec.MemberOf = f.path
	}
	return nil
}

func (b *builder) setCallable() error {
	switch v := b.node.(type) {
	case *syntax.MethodDefinition:
		b.rec.Generator, b.rec.Async = v.Generator, v.Async
	case *syntax.Function:
		b.rec.Generator, b.rec.Async = v.Generator, v.Async
	}
	return nil
}

func (b *builder) setStatic() error {
	b.rec.Static = true
	switch b.kind {
	case kindMethod:
		b.rec.Static = b.node.(*syntax.MethodDefinition).Static
	case kindField:
		b.rec.Static = b.node.(*syntax.FieldDefinition).Static
	case kindMember:
		b.rec.Static = false
		for p := b.f.parent[b.node]; !syntax.IsNil(p); p = b.f.parent[p] {
			if m, ok := p.(*syntax.MethodDefinition); ok {
				b.rec.Static = m.Static
				break
			}
		}
	}
	return nil
}

func (b *builder) setLongname() error {
	r := b.rec
	if b.kind == kindExternal {
		r.Longname = r.Name
		return nil
	}
	r.Longname = longname(r.MemberOf, r.Name, r.Static)
	return nil
}

// longname joins an owner and a name. Owners already scoped to a file get
// "." for static and "#" for instance members; anything else is file scoped.
func longname(memberOf, name string, static bool) string {
	if strings.Contains(memberOf, "~") {
		if static {
			return memberOf + "." + name
		}
		return memberOf + "#" + name
	}
	return memberOf + "~" + name
}

func (b *builder) setAccess() error {
	t, ok := b.last("@access", "@public", "@protected", "@package", "@private")
	if !ok {
		return nil
	}
	if t.Name == "@access" {
		b.rec.Access = t.Value
	} else {
		b.rec.Access = strings.TrimPrefix(t.Name, "@")
	}
	return nil
}

func (b *builder) setExport() error {
	switch b.kind {
	case kindClass, kindFunction, kindVariable, kindAssignment:
	default:
		return nil
	}
	f, r := b.f, b.rec

	exported := false
	style := ""
	for p := f.parent[b.node]; !syntax.IsNil(p); p = f.parent[p] {
		if _, ok := p.(*syntax.ExportDefault); ok {
			exported, style = true, r.Name
			break
		}
		if _, ok := p.(*syntax.ExportNamed); ok {
			exported, style = true, "{"+r.Name+"}"
			break
		}
	}
	if f.pseudo[b.node] {
		style = ""
	}
	r.Export = &exported
	r.ImportPath = f.res.ImportPath()
	r.ImportStyle = style
	return nil
}

func (b *builder) setText() error {
	r := b.rec
	if t, ok := b.last("@desc"); ok {
		r.Description = t.Value
	}
	r.Examples = b.values("@example")
	r.See = b.values("@see")

	if t, ok := b.last("@lineNumber"); ok {
		r.LineNumber = leadingInt(t.Value)
	} else if !syntax.IsNil(b.node) {
		r.LineNumber = b.node.Common().Loc.Line
	}

	if t, ok := b.last("@deprecated"); ok {
		m := model.Marker(t.Value)
		r.Deprecated = &m
	}
	if t, ok := b.last("@experimental"); ok {
		m := model.Marker(t.Value)
		r.Experimental = &m
	}
	if t, ok := b.last("@since"); ok {
		r.Since = t.Value
	}
	if t, ok := b.last("@version"); ok {
		r.Version = t.Value
	}
	r.Todo = b.values("@todo")
	return nil
}

// leadingInt reads the leading decimal digits of s, or 0.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, _ := strconv.Atoi(s[:end])
	return n
}

func (b *builder) setFlags() error {
	r := b.rec
	r.Ignore = b.has("@ignore")
	r.PseudoExport = b.f.pseudo[b.node]
	r.Undocument = b.has("@undocument")
	r.Abstract = b.has("@abstract")
	r.Override = b.has("@override")

	extra := kindTags[b.kind]
	for _, t := range b.tags {
		if !commonTags[t.Name] && !extra[t.Name] {
			r.Unknown = append(r.Unknown, t)
		}
	}
	return nil
}

func (b *builder) setParams() error {
	b.rec.Params = b.descriptors("@param")
	b.rec.Properties = b.descriptors("@property")
	return nil
}

func (b *builder) descriptors(name string) []model.TypeDescriptor {
	var out []model.TypeDescriptor
	for _, t := range b.all(name) {
		p, err := typesig.Split(t.Value, typesig.Param)
		if err == nil && p.Name == "" {
			err = fmt.Errorf("%w: missing name", diag.ErrMalformedParam)
		}
		if err != nil {
			b.malformed(t, err)
			continue
		}
		d, err := typesig.Parse(p)
		if err != nil {
			b.malformed(t, err)
			continue
		}
		out = append(out, *d)
	}
	return out
}

func (b *builder) setReturn() error {
	t, ok := b.last("@return", "@returns")
	if !ok || t.Value == "" {
		return nil
	}
	d, err := typesig.ParseValue(t.Value, typesig.Return)
	if err != nil {
		b.malformed(t, err)
		return nil
	}
	b.rec.Return = d
	return nil
}

func (b *builder) setType() error {
	t, ok := b.last("@type")
	if !ok {
		return nil
	}
	d, err := typesig.ParseValue(t.Value, typesig.TypeOnly)
	if err != nil {
		b.malformed(t, err)
		return nil
	}
	b.rec.Type = d
	return nil
}

func (b *builder) setSignals() error {
	b.rec.Throws = b.signals("@throws")
	b.rec.Emits = b.signals("@emits")
	b.rec.Listens = b.signals("@listens")
	return nil
}

func (b *builder) signals(name string) []model.SignalRef {
	var out []model.SignalRef
	for _, t := range b.all(name) {
		d, err := typesig.ParseValue(t.Value, typesig.Return)
		if err != nil {
			b.malformed(t, err)
			continue
		}
		out = append(out, model.SignalRef{Types: d.Types, Description: d.Description})
	}
	return out
}

func (b *builder) setDecorators() error {
	for _, d := range decoratorsOf(b.node) {
		var dec model.Decorator
		switch e := d.Expression.(type) {
		case *syntax.Identifier:
			dec.Name = e.Name
		case *syntax.CallExpression:
			src := syntax.Source(e)
			dec.Name = src
			if i := strings.Index(src, "("); i >= 0 {
				args := src[i:]
				dec.Name, dec.Arguments = src[:i], &args
			}
		case *syntax.MemberExpression:
			dec.Name = syntax.Source(e)
		default:
			return fmt.Errorf("%w: unknown decorator expression %q", diag.ErrUnsupportedSyntax, syntax.Source(d.Expression))
		}
		b.rec.Decorators = append(b.rec.Decorators, dec)
	}
	return nil
}

func (b *builder) setTypedef() error {
	t, _ := b.last("@typedef")
	p, err := typesig.Split(t.Value, typesig.Typedef)
	if err != nil {
		return nil
	}
	d, err := typesig.Parse(p)
	if err != nil {
		b.malformed(t, err)
		return nil
	}
	d.Description = ""
	d.Nullable = nil
	d.Spread = false
	b.rec.Type = d
	return nil
}
