package syntax

// Children returns the structural children of n in document order.
// Nil children are omitted.
func Children(n Node) []Node {
	var out []Node
	add := func(c Node) {
		if !IsNil(c) {
			out = append(out, c)
		}
	}

	switch v := n.(type) {
	case *Program:
		out = append(out, v.Body...)
	case *ImportDeclaration, *Identifier, *ThisExpression, *ObjectPattern:
	case *ExportDefault:
		add(v.Declaration)
	case *ExportNamed:
		add(v.Declaration)
	case *ClassDeclaration:
		for _, d := range v.Decorators {
			add(d)
		}
		add(v.ID)
		add(v.SuperClass)
		out = append(out, v.Body...)
	case *MethodDefinition:
		for _, d := range v.Decorators {
			add(d)
		}
		add(v.Key)
		add(v.Body)
	case *FieldDefinition:
		for _, d := range v.Decorators {
			add(d)
		}
		add(v.Key)
		add(v.Value)
	case *Function:
		add(v.ID)
		add(v.Body)
	case *VariableDeclaration:
		for _, d := range v.Declarations {
			add(d)
		}
	case *VariableDeclarator:
		add(v.ID)
		add(v.Init)
	case *ExpressionStatement:
		add(v.Expression)
	case *AssignmentExpression:
		add(v.Left)
		add(v.Right)
	case *MemberExpression:
		add(v.Object)
		add(v.Property)
	case *CallExpression:
		add(v.Callee)
		for _, a := range v.Arguments {
			add(a)
		}
	case *NewExpression:
		add(v.Callee)
		for _, a := range v.Arguments {
			add(a)
		}
	case *Decorator:
		add(v.Expression)
	case *ArrayPattern:
		for _, e := range v.Elements {
			add(e)
		}
	case *Block:
		out = append(out, v.Body...)
	case *Unsupported:
		out = append(out, v.Children...)
	}
	return out
}

// Body returns the statement list owned by n, if any. The last element of
// this list is what "last node in parent" refers to.
func Body(n Node) []Node {
	switch v := n.(type) {
	case *Program:
		return v.Body
	case *ClassDeclaration:
		return v.Body
	case *Block:
		return v.Body
	}
	return nil
}

// Walk visits root and its descendants in pre-order, document order.
// fn receives each node with its structural parent (nil for root). When fn
// returns false the node's children are skipped.
func Walk(root Node, fn func(n, parent Node) bool) {
	walk(root, nil, fn)
}

func walk(n, parent Node, fn func(n, parent Node) bool) {
	if !fn(n, parent) {
		return
	}
	for _, c := range Children(n) {
		walk(c, n, fn)
	}
}

// IsNil reports whether n is nil, including typed nil pointers held in a Node.
func IsNil(n Node) bool {
	if n == nil {
		return true
	}
	switch v := n.(type) {
	case *Identifier:
		return v == nil
	case *Block:
		return v == nil
	case *Decorator:
		return v == nil
	case *VariableDeclarator:
		return v == nil
	}
	return false
}
