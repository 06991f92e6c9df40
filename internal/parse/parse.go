// Package parse converts tree-sitter JavaScript trees into syntax trees.
package parse

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/docextract/internal/diag"
	"github.com/phobologic/docextract/internal/lang"
	"github.com/phobologic/docextract/internal/syntax"
)

// File parses source and returns its syntax tree.
// The parser must be created for JavaScript and is not safe for concurrent use.
// A file containing any syntax error yields a *diag.ParseError locating the
// first one; no partial tree is returned.
func File(ctx context.Context, parser *sitter.Parser, source []byte, path string) (*syntax.Program, error) {
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(root, source, path)
	}

	c := &converter{src: string(source)}
	prog := &syntax.Program{Base: c.base(root), Source: c.src}
	body, comments := c.statements(root, c.convert)
	prog.Body = body
	if len(body) == 0 {
		prog.InnerComments = comments
	}
	return prog, nil
}

func syntaxError(root *sitter.Node, source []byte, path string) *diag.ParseError {
	perr := &diag.ParseError{FilePath: path, Message: "syntax error"}
	bad := firstError(root)
	if bad == nil {
		return perr
	}
	p := bad.StartPoint()
	perr.Line = int(p.Row) + 1
	perr.Column = int(p.Column)
	if bad.IsMissing() {
		perr.Message = fmt.Sprintf("missing %s", bad.Type())
		return perr
	}
	text := lang.CollapseWhitespace(lang.NodeText(bad, source))
	if len(text) > 20 {
		text = text[:20] + "..."
	}
	perr.Message = fmt.Sprintf("unexpected %q", text)
	return perr
}

// firstError returns the first ERROR or MISSING node in document order.
func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if e := firstError(n.Child(i)); e != nil {
			return e
		}
	}
	return nil
}

type converter struct {
	src string
}

// statements converts the statement list held by n. Each comment becomes a
// leading comment of the next statement and a trailing comment of the
// previous one. All comments of the list are returned as well.
func (c *converter) statements(n *sitter.Node, conv func(*sitter.Node) syntax.Node) (body []syntax.Node, comments []*syntax.Comment) {
	var pending []*syntax.Comment
	var prev syntax.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "comment":
			cm := c.comment(child)
			comments = append(comments, cm)
			pending = append(pending, cm)
			if prev != nil {
				b := prev.Common()
				b.Trailing = append(b.Trailing, cm)
			}
			continue
		case "empty_statement", "hash_bang_line":
			continue
		}

		node := conv(child)
		if syntax.IsNil(node) {
			continue
		}
		if len(pending) > 0 {
			b := node.Common()
			b.Leading = append(pending, b.Leading...)
			pending = nil
		}
		body = append(body, node)
		prev = node
	}
	return body, comments
}

func (c *converter) convert(n *sitter.Node) syntax.Node {
	if n == nil {
		return nil
	}

	switch n.Type() {
	case "import_statement":
		return c.importDecl(n)
	case "export_statement":
		return c.export(n)
	case "class_declaration":
		return c.class(n, false)
	case "class":
		return c.class(n, true)
	case "function_declaration", "generator_function_declaration":
		return c.function(n, syntax.FunctionDeclaration)
	case "function_expression", "function", "generator_function":
		return c.function(n, syntax.FunctionExpression)
	case "arrow_function":
		return c.function(n, syntax.ArrowFunction)
	case "lexical_declaration", "variable_declaration":
		return c.variables(n)
	case "expression_statement":
		return &syntax.ExpressionStatement{Base: c.base(n), Expression: c.convert(firstNamed(n))}
	case "assignment_expression":
		return &syntax.AssignmentExpression{
			Base:     c.base(n),
			Operator: "=",
			Left:     c.convert(n.ChildByFieldName("left")),
			Right:    c.convert(n.ChildByFieldName("right")),
		}
	case "augmented_assignment_expression":
		a := &syntax.AssignmentExpression{
			Base:  c.base(n),
			Left:  c.convert(n.ChildByFieldName("left")),
			Right: c.convert(n.ChildByFieldName("right")),
		}
		if op := n.ChildByFieldName("operator"); op != nil {
			a.Operator = c.text(op)
		}
		return a
	case "identifier", "property_identifier", "private_property_identifier",
		"shorthand_property_identifier", "statement_identifier":
		return c.ident(n)
	case "this":
		return &syntax.ThisExpression{Base: c.base(n)}
	case "member_expression":
		return &syntax.MemberExpression{
			Base:     c.base(n),
			Object:   c.convert(n.ChildByFieldName("object")),
			Property: c.convert(n.ChildByFieldName("property")),
		}
	case "subscript_expression":
		return &syntax.MemberExpression{
			Base:     c.base(n),
			Object:   c.convert(n.ChildByFieldName("object")),
			Property: c.convert(n.ChildByFieldName("index")),
			Computed: true,
		}
	case "call_expression":
		return &syntax.CallExpression{
			Base:      c.base(n),
			Callee:    c.convert(n.ChildByFieldName("function")),
			Arguments: c.arguments(n.ChildByFieldName("arguments")),
		}
	case "new_expression":
		return &syntax.NewExpression{
			Base:      c.base(n),
			Callee:    c.convert(n.ChildByFieldName("constructor")),
			Arguments: c.arguments(n.ChildByFieldName("arguments")),
		}
	case "decorator":
		return c.decorator(n)
	case "statement_block":
		return c.block(n)
	case "parenthesized_expression":
		if inner := firstNamed(n); inner != nil {
			return c.convert(inner)
		}
	case "object_pattern", "array_pattern":
		return c.pattern(n)
	}
	return c.unsupported(n)
}

func (c *converter) importDecl(n *sitter.Node) *syntax.ImportDeclaration {
	imp := &syntax.ImportDeclaration{Base: c.base(n)}
	if s := n.ChildByFieldName("source"); s != nil {
		imp.Source = unquote(c.text(s))
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		clause := n.NamedChild(i)
		if clause.Type() != "import_clause" {
			continue
		}
		for j := 0; j < int(clause.NamedChildCount()); j++ {
			switch part := clause.NamedChild(j); part.Type() {
			case "identifier":
				imp.Locals = append(imp.Locals, c.text(part))
			case "namespace_import":
				if id := firstNamed(part); id != nil {
					imp.Locals = append(imp.Locals, c.text(id))
				}
			case "named_imports":
				for k := 0; k < int(part.NamedChildCount()); k++ {
					spec := part.NamedChild(k)
					if spec.Type() != "import_specifier" {
						continue
					}
					local := spec.ChildByFieldName("alias")
					if local == nil {
						local = spec.ChildByFieldName("name")
					}
					if local != nil {
						imp.Locals = append(imp.Locals, unquote(c.text(local)))
					}
				}
			}
		}
	}
	return imp
}

func (c *converter) export(n *sitter.Node) syntax.Node {
	var decorators []*syntax.Decorator
	var clause *sitter.Node
	isDefault := false
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "decorator":
			decorators = append(decorators, c.decorator(child))
		case "default":
			isDefault = !child.IsNamed()
		case "export_clause":
			clause = child
		}
	}

	if isDefault {
		e := &syntax.ExportDefault{Base: c.base(n)}
		if d := n.ChildByFieldName("declaration"); d != nil {
			e.Declaration = c.convert(d)
		} else if v := n.ChildByFieldName("value"); v != nil {
			e.Declaration = c.defaultValue(v)
		}
		decorate(e.Declaration, decorators)
		return e
	}

	e := &syntax.ExportNamed{Base: c.base(n)}
	if s := n.ChildByFieldName("source"); s != nil {
		e.Source = unquote(c.text(s))
	}
	if d := n.ChildByFieldName("declaration"); d != nil {
		e.Declaration = c.convert(d)
		decorate(e.Declaration, decorators)
	}
	if clause != nil {
		for i := 0; i < int(clause.NamedChildCount()); i++ {
			spec := clause.NamedChild(i)
			if spec.Type() != "export_specifier" {
				continue
			}
			name := spec.ChildByFieldName("name")
			if name == nil {
				continue
			}
			s := syntax.ExportSpecifier{Local: unquote(c.text(name))}
			s.Exported = s.Local
			if alias := spec.ChildByFieldName("alias"); alias != nil {
				s.Exported = unquote(c.text(alias))
			}
			e.Specifiers = append(e.Specifiers, s)
		}
	}
	return e
}

// defaultValue converts the expression of `export default <expr>`. Anonymous
// classes and functions there are declarations without a name.
func (c *converter) defaultValue(n *sitter.Node) syntax.Node {
	switch n.Type() {
	case "class":
		return c.class(n, false)
	case "function_expression", "function", "generator_function":
		return c.function(n, syntax.FunctionDeclaration)
	}
	return c.convert(n)
}

func decorate(n syntax.Node, ds []*syntax.Decorator) {
	if cls, ok := n.(*syntax.ClassDeclaration); ok && len(ds) > 0 {
		cls.Decorators = append(ds, cls.Decorators...)
	}
}

func (c *converter) class(n *sitter.Node, expression bool) *syntax.ClassDeclaration {
	cls := &syntax.ClassDeclaration{Base: c.base(n), Expression: expression}
	if name := n.ChildByFieldName("name"); name != nil {
		cls.ID = c.ident(name)
	}

	var early []*syntax.Comment
	keyword := false
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "decorator":
			cls.Decorators = append(cls.Decorators, c.decorator(child))
		case "comment":
			if !keyword {
				early = append(early, c.comment(child))
			}
		case "class":
			keyword = keyword || !child.IsNamed()
		case "class_heritage":
			cls.SuperClass = c.convert(firstNamed(child))
		case "class_body":
			cls.Body, _ = c.statements(child, c.member)
		}
	}
	attachEarly(cls.Decorators, early)
	return cls
}

func (c *converter) member(n *sitter.Node) syntax.Node {
	switch n.Type() {
	case "method_definition":
		return c.method(n)
	case "field_definition", "public_field_definition":
		return c.field(n)
	}
	return c.convert(n)
}

func (c *converter) method(n *sitter.Node) *syntax.MethodDefinition {
	m := &syntax.MethodDefinition{Base: c.base(n), Kind: syntax.MethodPlain}
	name := n.ChildByFieldName("name")

	var early []*syntax.Comment
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if name != nil && child.StartByte() >= name.StartByte() {
			break
		}
		switch child.Type() {
		case "decorator":
			m.Decorators = append(m.Decorators, c.decorator(child))
		case "comment":
			early = append(early, c.comment(child))
		case "static":
			m.Static = true
		case "static get":
			m.Static = true
			m.Kind = syntax.MethodGet
		case "async":
			m.Async = true
		case "get":
			m.Kind = syntax.MethodGet
		case "set":
			m.Kind = syntax.MethodSet
		case "*":
			m.Generator = true
		}
	}
	attachEarly(m.Decorators, early)

	m.Key, m.Computed = c.propertyKey(name)
	if id, ok := m.Key.(*syntax.Identifier); ok && !m.Computed && !m.Static && id.Name == "constructor" {
		m.Kind = syntax.MethodConstructor
	}
	if body := n.ChildByFieldName("body"); body != nil {
		m.Body = c.block(body)
	}
	return m
}

func (c *converter) field(n *sitter.Node) *syntax.FieldDefinition {
	f := &syntax.FieldDefinition{Base: c.base(n)}
	prop := n.ChildByFieldName("property")

	var early []*syntax.Comment
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if prop != nil && child.StartByte() >= prop.StartByte() {
			break
		}
		switch child.Type() {
		case "decorator":
			f.Decorators = append(f.Decorators, c.decorator(child))
		case "comment":
			early = append(early, c.comment(child))
		case "static":
			f.Static = true
		}
	}
	attachEarly(f.Decorators, early)

	f.Key, f.Computed = c.propertyKey(prop)
	f.Value = c.convert(n.ChildByFieldName("value"))
	return f
}

// propertyKey converts a class member name. Computed keys yield the inner
// expression.
func (c *converter) propertyKey(n *sitter.Node) (syntax.Node, bool) {
	if n == nil {
		return nil, false
	}
	switch n.Type() {
	case "computed_property_name":
		return c.convert(firstNamed(n)), true
	case "string":
		return &syntax.Identifier{Base: c.base(n), Name: unquote(c.text(n))}, false
	}
	return c.ident(n), false
}

// attachEarly hands comments found between a declaration's decorators and
// its keyword to the first decorator.
func attachEarly(ds []*syntax.Decorator, comments []*syntax.Comment) {
	if len(ds) == 0 || len(comments) == 0 {
		return
	}
	ds[0].Leading = append(ds[0].Leading, comments...)
}

func (c *converter) function(n *sitter.Node, form syntax.FunctionForm) *syntax.Function {
	fn := &syntax.Function{Base: c.base(n), Form: form}
	switch n.Type() {
	case "generator_function_declaration", "generator_function":
		fn.Generator = true
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.IsNamed() {
			continue
		}
		switch child.Type() {
		case "async":
			fn.Async = true
		case "*":
			fn.Generator = true
		}
	}
	if name := n.ChildByFieldName("name"); name != nil {
		fn.ID = c.ident(name)
	}
	fn.Body = c.convert(n.ChildByFieldName("body"))
	return fn
}

func (c *converter) variables(n *sitter.Node) *syntax.VariableDeclaration {
	v := &syntax.VariableDeclaration{Base: c.base(n), Kind: "var"}
	if n.Type() == "lexical_declaration" {
		if k := n.ChildByFieldName("kind"); k != nil {
			v.Kind = c.text(k)
		} else if n.ChildCount() > 0 {
			v.Kind = n.Child(0).Type()
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "variable_declarator" {
			continue
		}
		v.Declarations = append(v.Declarations, &syntax.VariableDeclarator{
			Base: c.base(child),
			ID:   c.pattern(child.ChildByFieldName("name")),
			Init: c.convert(child.ChildByFieldName("value")),
		})
	}
	return v
}

// pattern converts a binding target.
func (c *converter) pattern(n *sitter.Node) syntax.Node {
	if n == nil {
		return nil
	}

	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		return c.ident(n)
	case "assignment_pattern", "object_assignment_pattern":
		return c.pattern(n.ChildByFieldName("left"))
	case "rest_pattern":
		return c.pattern(firstNamed(n))
	case "object_pattern":
		p := &syntax.ObjectPattern{Base: c.base(n)}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			switch child.Type() {
			case "shorthand_property_identifier_pattern":
				p.Keys = append(p.Keys, c.text(child))
			case "pair_pattern":
				if key := child.ChildByFieldName("key"); key != nil {
					p.Keys = append(p.Keys, unquote(c.text(key)))
				}
			case "object_assignment_pattern":
				if left := child.ChildByFieldName("left"); left != nil {
					p.Keys = append(p.Keys, c.text(left))
				}
			case "rest_pattern":
				if id := firstNamed(child); id != nil {
					p.Keys = append(p.Keys, c.text(id))
				}
			}
		}
		return p
	case "array_pattern":
		p := &syntax.ArrayPattern{Base: c.base(n)}
		expect := true
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			switch {
			case child.Type() == "comment":
			case child.IsNamed():
				p.Elements = append(p.Elements, c.pattern(child))
				expect = false
			case child.Type() == ",":
				if expect {
					p.Elements = append(p.Elements, nil)
				}
				expect = true
			}
		}
		return p
	}
	return c.unsupported(n)
}

func (c *converter) arguments(n *sitter.Node) []syntax.Node {
	if n == nil || n.Type() != "arguments" {
		return nil
	}
	var args []syntax.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		args = append(args, c.convert(child))
	}
	return args
}

func (c *converter) decorator(n *sitter.Node) *syntax.Decorator {
	return &syntax.Decorator{Base: c.base(n), Expression: c.convert(firstNamed(n))}
}

func (c *converter) block(n *sitter.Node) *syntax.Block {
	b := &syntax.Block{Base: c.base(n)}
	b.Body, _ = c.statements(n, c.convert)
	return b
}

func (c *converter) unsupported(n *sitter.Node) *syntax.Unsupported {
	u := &syntax.Unsupported{Base: c.base(n), Type: n.Type()}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		if conv := c.convert(child); !syntax.IsNil(conv) {
			u.Children = append(u.Children, conv)
		}
	}
	return u
}

func (c *converter) ident(n *sitter.Node) *syntax.Identifier {
	return &syntax.Identifier{Base: c.base(n), Name: c.text(n)}
}

func (c *converter) comment(n *sitter.Node) *syntax.Comment {
	text := c.text(n)
	cm := &syntax.Comment{Loc: loc(n)}
	switch {
	case strings.HasPrefix(text, "/*"):
		cm.Block = true
		cm.Value = strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
	case strings.HasPrefix(text, "//"):
		cm.Value = text[2:]
	default:
		cm.Value = text
	}
	return cm
}

func (c *converter) base(n *sitter.Node) syntax.Base {
	return syntax.Base{Loc: loc(n), Raw: c.text(n)}
}

func (c *converter) text(n *sitter.Node) string {
	return c.src[n.StartByte():n.EndByte()]
}

func loc(n *sitter.Node) syntax.Loc {
	start, end := n.StartPoint(), n.EndPoint()
	return syntax.Loc{
		Line:      int(start.Row) + 1,
		Column:    int(start.Column),
		EndLine:   int(end.Row) + 1,
		EndColumn: int(end.Column),
	}
}

// firstNamed returns the first named child of n that is not a comment.
func firstNamed(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child.Type() != "comment" {
			return child
		}
	}
	return nil
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'' || s[0] == '`') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
