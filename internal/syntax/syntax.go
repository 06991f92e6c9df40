// Package syntax is docextract's view of a parsed JavaScript file: a closed set
// of node variants with their comments and source locations.
//
// Trees are built once by the parser adapter and treated as read-only
// afterwards. Anything the extraction engine learns about a node is kept in
// side tables keyed by node identity.
package syntax

// Loc is a source span. Line is 1-based, Column is 0-based.
type Loc struct {
	Line      int `json:"line"`
	Column    int `json:"column"`
	EndLine   int `json:"endLine"`
	EndColumn int `json:"endColumn"`
}

// Comment is a source comment. Value excludes the comment delimiters, so
// `/** foo */` has the value "* foo ".
type Comment struct {
	Block bool   `json:"block"`
	Value string `json:"value"`
	Loc   Loc    `json:"loc"`
}

// Base holds the fields shared by every node variant.
type Base struct {
	Loc      Loc
	Leading  []*Comment
	Trailing []*Comment
	// Raw is the node's source text. It is empty for synthesized nodes.
	Raw string
}

// Common returns the shared node fields.
func (b *Base) Common() *Base { return b }

func (b *Base) sealed() {}

// Node is implemented by every variant in this package and nothing else.
type Node interface {
	Common() *Base
	sealed()
}

// Program is the root of a file.
type Program struct {
	Base
	Body []Node
	// InnerComments holds the comments of a file without statements.
	InnerComments []*Comment
	Source        string
}

// ImportDeclaration is an import statement. Locals lists the bound names.
type ImportDeclaration struct {
	Base
	Source string
	Locals []string
}

// ExportDefault is `export default <declaration or expression>`.
type ExportDefault struct {
	Base
	Declaration Node
}

// ExportSpecifier is one entry of `export { local as exported }`.
type ExportSpecifier struct {
	Local    string
	Exported string
}

// ExportNamed is `export <declaration>` or `export { ... }`.
type ExportNamed struct {
	Base
	Declaration Node
	Specifiers  []ExportSpecifier
	Source      string
}

// ClassDeclaration covers class declarations and class expressions.
type ClassDeclaration struct {
	Base
	ID         *Identifier
	SuperClass Node
	Body       []Node
	Decorators []*Decorator
	Expression bool
}

// MethodKind is the sub-kind of a class method.
type MethodKind string

const (
	MethodConstructor MethodKind = "constructor"
	MethodPlain       MethodKind = "method"
	MethodGet         MethodKind = "get"
	MethodSet         MethodKind = "set"
)

// MethodDefinition is a class method.
type MethodDefinition struct {
	Base
	Key        Node
	Computed   bool
	Kind       MethodKind
	Static     bool
	Async      bool
	Generator  bool
	Decorators []*Decorator
	Body       *Block
}

// FieldDefinition is a class field.
type FieldDefinition struct {
	Base
	Key        Node
	Computed   bool
	Static     bool
	Value      Node
	Decorators []*Decorator
}

// FunctionForm distinguishes the syntactic forms of a function.
type FunctionForm int

const (
	FunctionDeclaration FunctionForm = iota
	FunctionExpression
	ArrowFunction
)

// Function is a function declaration, function expression or arrow function.
// Body is a *Block, or the expression of a concise arrow body.
type Function struct {
	Base
	ID        *Identifier
	Form      FunctionForm
	Async     bool
	Generator bool
	Body      Node
}

// VariableDeclaration is a var, let or const statement.
type VariableDeclaration struct {
	Base
	Kind         string
	Declarations []*VariableDeclarator
}

// VariableDeclarator is one binding of a VariableDeclaration.
// ID is an *Identifier, *ObjectPattern, *ArrayPattern or *Unsupported.
type VariableDeclarator struct {
	Base
	ID   Node
	Init Node
}

// ExpressionStatement is an expression used as a statement.
type ExpressionStatement struct {
	Base
	Expression Node
}

// AssignmentExpression is `left <op> right`.
type AssignmentExpression struct {
	Base
	Operator string
	Left     Node
	Right    Node
}

// Identifier is a name. Property and private names are identifiers too.
type Identifier struct {
	Base
	Name string
}

// MemberExpression is `object.property` or `object[property]`.
type MemberExpression struct {
	Base
	Object   Node
	Property Node
	Computed bool
}

// ThisExpression is `this`.
type ThisExpression struct {
	Base
}

// CallExpression is `callee(arguments)`.
type CallExpression struct {
	Base
	Callee    Node
	Arguments []Node
}

// NewExpression is `new callee(arguments)`.
type NewExpression struct {
	Base
	Callee    Node
	Arguments []Node
}

// Decorator is `@expression`.
type Decorator struct {
	Base
	Expression Node
}

// ObjectPattern is a destructuring object pattern. Keys holds the property
// key names in order.
type ObjectPattern struct {
	Base
	Keys []string
}

// ArrayPattern is a destructuring array pattern. Holes are nil.
type ArrayPattern struct {
	Base
	Elements []Node
}

// Block is a statement list such as a function body.
type Block struct {
	Base
	Body []Node
}

// Unsupported is any construct the engine has no dedicated variant for.
// Its children are still walked.
type Unsupported struct {
	Base
	Type     string
	Children []Node
}
