package syntax

import (
	"encoding/json"
	"reflect"
	"unicode"
)

// MarshalIndent renders the tree rooted at n as indented JSON. Every node
// is an object whose "type" key names its variant; the remaining keys are
// its location, its comments and its fields. Raw source text is left out.
func MarshalIndent(n Node) ([]byte, error) {
	return json.MarshalIndent(tree(n), "", "  ")
}

func tree(n Node) any {
	if IsNil(n) {
		return nil
	}
	v := reflect.ValueOf(n).Elem()
	t := v.Type()
	out := map[string]any{"type": t.Name()}
	for i := range t.NumField() {
		f := t.Field(i)
		if f.Anonymous {
			b := v.Field(i).Interface().(Base)
			out["loc"] = b.Loc
			if len(b.Leading) > 0 {
				out["leadingComments"] = b.Leading
			}
			if len(b.Trailing) > 0 {
				out["trailingComments"] = b.Trailing
			}
			continue
		}
		if _, ok := n.(*Program); ok && f.Name == "Source" {
			continue
		}
		key := lowerFirst(f.Name)
		if key == "type" {
			key = "rawType"
		}
		out[key] = value(v.Field(i))
	}
	return out
}

func value(v reflect.Value) any {
	if n, ok := v.Interface().(Node); ok {
		return tree(n)
	}
	if v.Kind() == reflect.Slice && !v.IsNil() {
		items := make([]any, v.Len())
		for i := range items {
			items[i] = value(v.Index(i))
		}
		return items
	}
	return v.Interface()
}

// lowerFirst lowers a field name's leading capitals: ID -> id,
// SuperClass -> superClass.
func lowerFirst(s string) string {
	rs := []rune(s)
	n := 0
	for n < len(rs) && unicode.IsUpper(rs[n]) {
		n++
	}
	if n > 1 && n < len(rs) {
		n--
	}
	for i := range n {
		rs[i] = unicode.ToLower(rs[i])
	}
	return string(rs)
}
