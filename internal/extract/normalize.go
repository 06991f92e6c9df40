package extract

import (
	"unicode"
	"unicode/utf8"

	"github.com/phobologic/docextract/internal/syntax"
)

// normalizeExports makes implicit exports explicit. Declarations exported
// by a separate statement are cloned under a copy of that statement and the
// originals are sanitized, so the classifier sees each entity once, in its
// exported form. Instances exported through `new` also get a pseudo variable.
// The synthesized statements are appended to the working body.
func (f *fileState) normalizeExports() {
	f.normalizeDefaultExports()
	f.normalizeNamedExports()
}

func (f *fileState) normalizeDefaultExports() {
	var pseudo []syntax.Node
	for _, n := range f.root.Body {
		exp, ok := n.(*syntax.ExportDefault)
		if !ok || f.sanitized[n] {
			continue
		}

		var className, varName string
		pseudoExport := false
		switch d := exp.Declaration.(type) {
		case *syntax.NewExpression:
			className = calleeName(d.Callee)
			varName = lowerFirst(className)
			pseudoExport = true
		case *syntax.Identifier:
			if v := f.findInstanceVariable(d.Name); v != nil {
				className = identName(v.Declarations[0].Init.(*syntax.NewExpression).Callee)
				varName = d.Name
				pseudoExport = true
				f.sanitize(v)
			} else {
				className = d.Name
			}
		}

		if cls, exported := f.findClass(className); cls != nil {
			if !exported {
				w := cloneDefault(exp, syntax.Clone(cls))
				w.Leading = nil
				if pseudoExport {
					f.pseudo[w.Declaration] = true
				}
				pseudo = append(pseudo, w)
				f.sanitize(cls)
			}
			if varName != "" {
				pseudo = append(pseudo, cloneDefault(exp, instanceVariable(varName, className, exp.Loc)))
			}
			f.sanitize(exp)
		}

		name := identName(exp.Declaration)
		if fn := f.findFunction(name); fn != nil {
			pseudo = append(pseudo, cloneDefault(exp, syntax.Clone(fn)))
			f.sanitize(exp)
			f.sanitize(fn)
		}
		if v := f.findVariable(name); v != nil {
			pseudo = append(pseudo, cloneDefault(exp, syntax.Clone(v)))
			f.sanitize(exp)
			f.sanitize(v)
		}
	}
	f.root.Body = append(f.root.Body, pseudo...)
}

func (f *fileState) normalizeNamedExports() {
	var pseudo []syntax.Node
	for _, n := range f.root.Body {
		exp, ok := n.(*syntax.ExportNamed)
		if !ok || f.sanitized[n] || exp.Source != "" {
			continue
		}

		if vd, ok := exp.Declaration.(*syntax.VariableDeclaration); ok {
			for _, d := range vd.Declarations {
				ne, ok := d.Init.(*syntax.NewExpression)
				if !ok {
					continue
				}
				if cls, exported := f.findClass(identName(ne.Callee)); cls != nil && !exported {
					w := cloneNamed(exp, syntax.Clone(cls))
					w.Leading = nil
					f.pseudo[w.Declaration] = true
					pseudo = append(pseudo, w)
					f.sanitize(cls)
				}
			}
			continue
		}

		for _, spec := range exp.Specifiers {
			name := spec.Local
			className := name
			pseudoExport := false
			if v := f.findInstanceVariable(name); v != nil {
				className = identName(v.Declarations[0].Init.(*syntax.NewExpression).Callee)
				pseudoExport = true
				pseudo = append(pseudo, cloneNamed(exp, syntax.Clone(v)))
				f.sanitize(v)
			}

			if cls, exported := f.findClass(className); cls != nil && !exported {
				w := cloneNamed(exp, syntax.Clone(cls))
				w.Leading = nil
				if pseudoExport {
					f.pseudo[w.Declaration] = true
				}
				pseudo = append(pseudo, w)
				f.sanitize(cls)
			}
			if fn := f.findFunction(name); fn != nil {
				w := cloneNamed(exp, syntax.Clone(fn))
				w.Leading = nil
				pseudo = append(pseudo, w)
				f.sanitize(fn)
			}
			if v := f.findVariable(name); v != nil {
				w := cloneNamed(exp, syntax.Clone(v))
				w.Leading = nil
				pseudo = append(pseudo, w)
				f.sanitize(v)
			}
		}
	}
	f.root.Body = append(f.root.Body, pseudo...)
}

// sanitize removes n from classification. Its subtree is skipped entirely.
func (f *fileState) sanitize(n syntax.Node) {
	f.sanitized[n] = true
}

// findClass finds a top-level class declaration by name. exported reports
// whether it is declared inside an export statement.
func (f *fileState) findClass(name string) (cls *syntax.ClassDeclaration, exported bool) {
	if name == "" {
		return nil, false
	}
	for _, n := range f.root.Body {
		if f.sanitized[n] {
			continue
		}
		switch v := n.(type) {
		case *syntax.ClassDeclaration:
			if !v.Expression && v.ID != nil && v.ID.Name == name {
				return v, false
			}
		case *syntax.ExportDefault, *syntax.ExportNamed:
			decl, _ := exportedDeclaration(v)
			if c, ok := decl.(*syntax.ClassDeclaration); ok && c.ID != nil && c.ID.Name == name {
				return c, true
			}
		}
	}
	return nil, false
}

func (f *fileState) findFunction(name string) *syntax.Function {
	if name == "" {
		return nil
	}
	for _, n := range f.root.Body {
		if fn, ok := n.(*syntax.Function); ok && !f.sanitized[n] && fn.Form == syntax.FunctionDeclaration &&
			fn.ID != nil && fn.ID.Name == name {
			return fn
		}
	}
	return nil
}

func (f *fileState) findVariable(name string) *syntax.VariableDeclaration {
	if name == "" {
		return nil
	}
	for _, n := range f.root.Body {
		if v, ok := n.(*syntax.VariableDeclaration); ok && !f.sanitized[n] && len(v.Declarations) > 0 &&
			identName(v.Declarations[0].ID) == name {
			return v
		}
	}
	return nil
}

// findInstanceVariable finds `var name = new X()` at the top level.
func (f *fileState) findInstanceVariable(name string) *syntax.VariableDeclaration {
	v := f.findVariable(name)
	if v == nil {
		return nil
	}
	if _, ok := v.Declarations[0].Init.(*syntax.NewExpression); !ok {
		return nil
	}
	return v
}

func cloneDefault(exp *syntax.ExportDefault, decl syntax.Node) *syntax.ExportDefault {
	w := syntax.Clone(exp).(*syntax.ExportDefault)
	w.Declaration = decl
	return w
}

func cloneNamed(exp *syntax.ExportNamed, decl syntax.Node) *syntax.ExportNamed {
	w := syntax.Clone(exp).(*syntax.ExportNamed)
	w.Declaration = decl
	w.Specifiers = nil
	return w
}

// instanceVariable synthesizes `let varName = new className();`.
func instanceVariable(varName, className string, loc syntax.Loc) *syntax.VariableDeclaration {
	return &syntax.VariableDeclaration{
		Base: syntax.Base{Loc: loc},
		Kind: "let",
		Declarations: []*syntax.VariableDeclarator{{
			Base: syntax.Base{Loc: loc},
			ID:   &syntax.Identifier{Base: syntax.Base{Loc: loc}, Name: varName},
			Init: &syntax.NewExpression{
				Base:   syntax.Base{Loc: loc},
				Callee: &syntax.Identifier{Base: syntax.Base{Loc: loc}, Name: className},
			},
		}},
	}
}

// calleeName names the class of a new expression: the identifier, or the
// last property of a member expression.
func calleeName(n syntax.Node) string {
	switch v := n.(type) {
	case *syntax.Identifier:
		return v.Name
	case *syntax.MemberExpression:
		return identName(v.Property)
	}
	return ""
}

func identName(n syntax.Node) string {
	if id, ok := n.(*syntax.Identifier); ok && id != nil {
		return id.Name
	}
	return ""
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
