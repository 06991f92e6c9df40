package lang

import (
	"github.com/smacker/go-tree-sitter/javascript"
)

// JavaScript is the name the JavaScript grammar is registered under.
const JavaScript = "javascript"

func init() {
	Languages[JavaScript] = &Language{
		Name:       JavaScript,
		Extensions: []string{".js", ".mjs", ".cjs", ".jsx"},
		lang:       javascript.GetLanguage(),
	}
}
