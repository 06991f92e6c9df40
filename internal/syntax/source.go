package syntax

import "strings"

// Source re-serializes n. Parsed nodes return their original text; nodes
// synthesized by the engine are rendered from their structure.
func Source(n Node) string {
	if IsNil(n) {
		return ""
	}
	if raw := n.Common().Raw; raw != "" {
		return raw
	}

	switch v := n.(type) {
	case *Identifier:
		return v.Name
	case *ThisExpression:
		return "this"
	case *MemberExpression:
		if v.Computed {
			return Source(v.Object) + "[" + Source(v.Property) + "]"
		}
		return Source(v.Object) + "." + Source(v.Property)
	case *CallExpression:
		return Source(v.Callee) + "(" + joinSource(v.Arguments) + ")"
	case *NewExpression:
		return "new " + Source(v.Callee) + "(" + joinSource(v.Arguments) + ")"
	case *Decorator:
		return "@" + Source(v.Expression)
	case *VariableDeclarator:
		if IsNil(v.Init) {
			return Source(v.ID)
		}
		return Source(v.ID) + " = " + Source(v.Init)
	case *VariableDeclaration:
		parts := make([]string, len(v.Declarations))
		for i, d := range v.Declarations {
			parts[i] = Source(d)
		}
		return v.Kind + " " + strings.Join(parts, ", ") + ";"
	case *ExpressionStatement:
		return Source(v.Expression) + ";"
	case *AssignmentExpression:
		op := v.Operator
		if op == "" {
			op = "="
		}
		return Source(v.Left) + " " + op + " " + Source(v.Right)
	case *ExportDefault:
		return "export default " + Source(v.Declaration)
	case *ExportNamed:
		if !IsNil(v.Declaration) {
			return "export " + Source(v.Declaration)
		}
		names := make([]string, len(v.Specifiers))
		for i, s := range v.Specifiers {
			names[i] = s.Local
			if s.Exported != "" && s.Exported != s.Local {
				names[i] += " as " + s.Exported
			}
		}
		return "export { " + strings.Join(names, ", ") + " };"
	}
	return ""
}

func joinSource(ns []Node) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = Source(n)
	}
	return strings.Join(parts, ", ")
}
