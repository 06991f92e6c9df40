package extract

import (
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/docextract/internal/syntax"
	"github.com/phobologic/docextract/internal/typesig"
)

var (
	nonNameRe   = regexp.MustCompile(`[^a-zA-Z0-9_$]`)
	scopeRe     = regexp.MustCompile(`~.*`)
	classNameRe = regexp.MustCompile(`^[A-Z]|^[$_][A-Z]`)
)

func (b *builder) setClass() error {
	r := b.rec
	if t, ok := b.last("@interface"); ok {
		r.Interface = t.Value == "" || t.Value == "true"
	}
	r.Implements = b.typeNames("@implements", "@implement")

	if ext := b.typeNames("@extends", "@extend"); len(ext) > 0 {
		r.Extends = ext
		return nil
	}

	f := b.f
	switch sc := b.node.(*syntax.ClassDeclaration).SuperClass.(type) {
	case *syntax.Identifier:
		r.Extends = []string{f.resolveLongname(sc.Name)}
	case *syntax.MemberExpression:
		r.Extends = []string{f.memberLongname(flatten(sc))}
	case *syntax.CallExpression:
		candidates := []syntax.Node{sc.Callee}
		candidates = append(candidates, sc.Arguments...)
		for _, c := range candidates {
			var name string
			switch c.(type) {
			case *syntax.Identifier:
				name = f.resolveLongname(flatten(c))
			case *syntax.MemberExpression:
				name = f.memberLongname(flatten(c))
			default:
				continue
			}
			short := name[strings.LastIndex(name, "~")+1:]
			if classNameRe.MatchString(short) {
				r.Extends = append(r.Extends, name)
			}
		}
		r.ExpressionExtends = syntax.Source(sc)
	}
	return nil
}

// typeNames returns the type text of every tag with one of names.
func (b *builder) typeNames(names ...string) []string {
	var out []string
	for _, t := range b.all(names...) {
		p, err := typesig.Split(t.Value, typesig.TypeOnly)
		if err != nil {
			b.malformed(t, err)
			continue
		}
		out = append(out, p.Type)
	}
	return out
}

// resolveLongname maps an imported binding to the longname of what it
// names. Local names are returned unchanged.
func (f *fileState) resolveLongname(name string) string {
	src, ok := f.imports[name]
	if !ok {
		return name
	}
	if strings.HasPrefix(src, ".") || strings.HasPrefix(src, "/") {
		if path.Ext(src) == "" {
			src += ".js"
		}
		return f.res.Resolve(src) + "~" + name
	}
	return src + "~" + name
}

// memberLongname scopes a dotted name to the file its root is imported from.
func (f *fileState) memberLongname(full string) string {
	root, _, _ := strings.Cut(full, ".")
	filePath := scopeRe.ReplaceAllString(f.resolveLongname(root), "")
	return filePath + "~" + full
}

// anonymousName names an unnamed class or function after its file. Repeats
// within a file get a counter suffix starting at 1.
func (f *fileState) anonymousName() string {
	base := path.Base(f.path)
	base, _, _ = strings.Cut(base, ".")
	base = nonNameRe.ReplaceAllString(base, "")
	if f.anonymous > 0 {
		base += strconv.Itoa(f.anonymous)
	}
	f.anonymous++
	return base
}

// flatten renders a member chain as a dotted name.
func flatten(n syntax.Node) string {
	var parts []string
	for target := n; ; {
		switch v := target.(type) {
		case *syntax.ThisExpression:
			parts = append(parts, "this")
		case *syntax.Identifier:
			parts = append(parts, v.Name)
		case *syntax.CallExpression:
			parts = append(parts, flatten(v.Callee))
		case *syntax.MemberExpression:
			parts = append(parts, flatten(v.Property))
			target = v.Object
			continue
		default:
			parts = append(parts, syntax.Source(v))
		}
		break
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}
