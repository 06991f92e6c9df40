package extract

import (
	"github.com/phobologic/docextract/internal/model"
	"github.com/phobologic/docextract/internal/syntax"
)

type docKind int

const (
	kindNone docKind = iota
	kindClass
	kindMethod
	kindField
	kindMember
	kindFunction
	kindVariable
	kindAssignment
	kindTypedef
	kindExternal
)

// decide picks the record kind for a doc comment attached to n, and the
// node the record describes. n is nil for a free-standing comment.
func (f *fileState) decide(tags []model.Tag, n syntax.Node) (docKind, syntax.Node) {
	kind := kindNone
	for _, t := range tags {
		switch t.Name {
		case "@typedef":
			kind = kindTypedef
		case "@external":
			kind = kindExternal
		}
	}
	if kind != kindNone {
		return kind, n
	}
	if syntax.IsNil(n) {
		return kindNone, nil
	}

	switch v := n.(type) {
	case *syntax.ClassDeclaration:
		if !v.Expression && f.isTop(v) {
			return kindClass, v
		}
	case *syntax.MethodDefinition:
		if f.inProcessedClass(v) {
			return kindMethod, v
		}
		f.report(v, "this method is not in class")
	case *syntax.FieldDefinition:
		if f.inProcessedClass(v) {
			return kindField, v
		}
		f.report(v, "this class property is not in class")
	case *syntax.ExpressionStatement:
		return f.decideStatement(v)
	case *syntax.Function:
		if v.Form == syntax.FunctionExpression && !v.Async {
			return kindNone, nil
		}
		if f.isTop(v) {
			return kindFunction, v
		}
	case *syntax.VariableDeclaration:
		return f.decideVariable(v)
	case *syntax.AssignmentExpression:
		if f.isTop(v) {
			return f.decideAssignment(v)
		}
	}
	return kindNone, nil
}

func (f *fileState) decideStatement(stmt *syntax.ExpressionStatement) (docKind, syntax.Node) {
	top := f.isTop(stmt)
	expr := stmt.Expression
	if syntax.IsNil(expr) {
		return kindNone, nil
	}
	f.parent[expr] = stmt
	f.visited[expr] = true

	assign, ok := expr.(*syntax.AssignmentExpression)
	if !ok || syntax.IsNil(assign.Right) {
		return kindNone, nil
	}

	if innerKind(assign.Right) != kindNone {
		if !top {
			return kindNone, nil
		}
		return f.decideAssignment(assign)
	}

	if m, ok := assign.Left.(*syntax.MemberExpression); ok {
		if _, this := m.Object.(*syntax.ThisExpression); this {
			if f.inProcessedClass(assign) {
				return kindMember, assign
			}
			f.report(assign, "this member is not in class.")
			return kindNone, nil
		}
	}

	if top {
		return f.decideAssignment(assign)
	}
	return kindNone, nil
}

func (f *fileState) decideVariable(v *syntax.VariableDeclaration) (docKind, syntax.Node) {
	if !f.isTop(v) || len(v.Declarations) == 0 {
		return kindNone, nil
	}
	d := v.Declarations[0]
	if syntax.IsNil(d.Init) {
		return kindNone, nil
	}
	kind := innerKind(d.Init)
	if kind == kindNone {
		return kindVariable, v
	}
	f.adopt(d.Init, v, d.ID)
	return kind, d.Init
}

// decideAssignment classifies a top-level assignment. A function or class
// on the right is documented in its own right, named after the target.
func (f *fileState) decideAssignment(a *syntax.AssignmentExpression) (docKind, syntax.Node) {
	kind := innerKind(a.Right)
	if kind == kindNone {
		return kindAssignment, a
	}
	name := a.Left
	if m, ok := a.Left.(*syntax.MemberExpression); ok {
		name = m.Property
	}
	f.adopt(a.Right, a, name)
	return kind, a.Right
}

// adopt records inner as the documented child of owner, carrying name.
func (f *fileState) adopt(inner, owner, name syntax.Node) {
	f.names[inner] = name
	f.parent[inner] = owner
	f.visited[inner] = true
}

// innerKind reports which kind a function or class used as a value takes.
func innerKind(n syntax.Node) docKind {
	switch v := n.(type) {
	case *syntax.Function:
		if v.Form != syntax.FunctionDeclaration {
			return kindFunction
		}
	case *syntax.ClassDeclaration:
		if v.Expression {
			return kindClass
		}
	}
	return kindNone
}

// isTop reports whether n, or the export statement wrapping it, is a
// statement of the program body.
func (f *fileState) isTop(n syntax.Node) bool {
	target := n
	switch p := f.parent[n].(type) {
	case *syntax.ExportDefault, *syntax.ExportNamed:
		target = p
	}
	for _, s := range f.root.Body {
		if s == target {
			return true
		}
	}
	return false
}

func (f *fileState) inProcessedClass(n syntax.Node) bool {
	cls := f.enclosingClass(f.parent[n], true)
	if cls == nil {
		return false
	}
	_, ok := f.classDocs[cls]
	return ok
}
