package syntax

// Clone returns a deep structural copy of n. Comments are copied too, so the
// clone shares no pointers with the original.
func Clone(n Node) Node {
	if IsNil(n) {
		return nil
	}

	switch v := n.(type) {
	case *Program:
		c := *v
		c.Base = cloneBase(v.Base)
		c.Body = cloneList(v.Body)
		c.InnerComments = cloneComments(v.InnerComments)
		return &c
	case *ImportDeclaration:
		c := *v
		c.Base = cloneBase(v.Base)
		c.Locals = append([]string(nil), v.Locals...)
		return &c
	case *ExportDefault:
		c := *v
		c.Base = cloneBase(v.Base)
		c.Declaration = Clone(v.Declaration)
		return &c
	case *ExportNamed:
		c := *v
		c.Base = cloneBase(v.Base)
		c.Declaration = Clone(v.Declaration)
		c.Specifiers = append([]ExportSpecifier(nil), v.Specifiers...)
		return &c
	case *ClassDeclaration:
		c := *v
		c.Base = cloneBase(v.Base)
		c.ID = cloneIdent(v.ID)
		c.SuperClass = Clone(v.SuperClass)
		c.Body = cloneList(v.Body)
		c.Decorators = cloneDecorators(v.Decorators)
		return &c
	case *MethodDefinition:
		c := *v
		c.Base = cloneBase(v.Base)
		c.Key = Clone(v.Key)
		c.Decorators = cloneDecorators(v.Decorators)
		if v.Body != nil {
			c.Body = Clone(v.Body).(*Block)
		}
		return &c
	case *FieldDefinition:
		c := *v
		c.Base = cloneBase(v.Base)
		c.Key = Clone(v.Key)
		c.Value = Clone(v.Value)
		c.Decorators = cloneDecorators(v.Decorators)
		return &c
	case *Function:
		c := *v
		c.Base = cloneBase(v.Base)
		c.ID = cloneIdent(v.ID)
		c.Body = Clone(v.Body)
		return &c
	case *VariableDeclaration:
		c := *v
		c.Base = cloneBase(v.Base)
		c.Declarations = make([]*VariableDeclarator, len(v.Declarations))
		for i, d := range v.Declarations {
			c.Declarations[i] = Clone(d).(*VariableDeclarator)
		}
		return &c
	case *VariableDeclarator:
		c := *v
		c.Base = cloneBase(v.Base)
		c.ID = Clone(v.ID)
		c.Init = Clone(v.Init)
		return &c
	case *ExpressionStatement:
		c := *v
		c.Base = cloneBase(v.Base)
		c.Expression = Clone(v.Expression)
		return &c
	case *AssignmentExpression:
		c := *v
		c.Base = cloneBase(v.Base)
		c.Left = Clone(v.Left)
		c.Right = Clone(v.Right)
		return &c
	case *Identifier:
		return cloneIdent(v)
	case *MemberExpression:
		c := *v
		c.Base = cloneBase(v.Base)
		c.Object = Clone(v.Object)
		c.Property = Clone(v.Property)
		return &c
	case *ThisExpression:
		c := *v
		c.Base = cloneBase(v.Base)
		return &c
	case *CallExpression:
		c := *v
		c.Base = cloneBase(v.Base)
		c.Callee = Clone(v.Callee)
		c.Arguments = cloneList(v.Arguments)
		return &c
	case *NewExpression:
		c := *v
		c.Base = cloneBase(v.Base)
		c.Callee = Clone(v.Callee)
		c.Arguments = cloneList(v.Arguments)
		return &c
	case *Decorator:
		c := *v
		c.Base = cloneBase(v.Base)
		c.Expression = Clone(v.Expression)
		return &c
	case *ObjectPattern:
		c := *v
		c.Base = cloneBase(v.Base)
		c.Keys = append([]string(nil), v.Keys...)
		return &c
	case *ArrayPattern:
		c := *v
		c.Base = cloneBase(v.Base)
		c.Elements = cloneList(v.Elements)
		return &c
	case *Block:
		c := *v
		c.Base = cloneBase(v.Base)
		c.Body = cloneList(v.Body)
		return &c
	case *Unsupported:
		c := *v
		c.Base = cloneBase(v.Base)
		c.Children = cloneList(v.Children)
		return &c
	}
	panic("syntax: Clone of unknown node variant")
}

func cloneBase(b Base) Base {
	b.Leading = cloneComments(b.Leading)
	b.Trailing = cloneComments(b.Trailing)
	return b
}

func cloneComments(cs []*Comment) []*Comment {
	if cs == nil {
		return nil
	}
	out := make([]*Comment, len(cs))
	for i, c := range cs {
		cc := *c
		out[i] = &cc
	}
	return out
}

func cloneList(ns []Node) []Node {
	if ns == nil {
		return nil
	}
	out := make([]Node, len(ns))
	for i, n := range ns {
		out[i] = Clone(n)
	}
	return out
}

func cloneIdent(id *Identifier) *Identifier {
	if id == nil {
		return nil
	}
	c := *id
	c.Base = cloneBase(id.Base)
	return &c
}

func cloneDecorators(ds []*Decorator) []*Decorator {
	if ds == nil {
		return nil
	}
	out := make([]*Decorator, len(ds))
	for i, d := range ds {
		out[i] = Clone(d).(*Decorator)
	}
	return out
}
