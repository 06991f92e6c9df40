// Package plugin runs extension hooks at fixed points of a generate run.
//
// A plugin is any value implementing one or more of the handler interfaces.
// Handlers run in chain order; each receives what the previous one returned.
package plugin

import (
	"fmt"
	"sort"

	"github.com/phobologic/docextract/internal/config"
	"github.com/phobologic/docextract/internal/model"
	"github.com/phobologic/docextract/internal/syntax"
)

// Plugin is implemented by every plugin.
type Plugin interface {
	Name() string
}

// ConfigHandler may rewrite the configuration before it is validated.
type ConfigHandler interface {
	HandleConfig(cfg *config.Config) (*config.Config, error)
}

// CodeHandler may rewrite a file's source before it is parsed.
type CodeHandler interface {
	HandleCode(path, code string) string
}

// ASTHandler observes a parsed file. It must not modify the tree.
type ASTHandler interface {
	HandleAST(path string, prog *syntax.Program)
}

// DocsHandler may filter or rewrite the final record list.
type DocsHandler interface {
	HandleDocs(recs []*model.Record) []*model.Record
}

// CompleteHandler is told when a run has finished.
type CompleteHandler interface {
	HandleComplete(recs []*model.Record)
}

// Chain is an ordered list of plugins. The zero value is an empty chain,
// whose handlers return their input unchanged.
type Chain []Plugin

// HandleConfig runs every ConfigHandler.
func (c Chain) HandleConfig(cfg *config.Config) (*config.Config, error) {
	for _, p := range c {
		h, ok := p.(ConfigHandler)
		if !ok {
			continue
		}
		next, err := h.HandleConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("plugin %s: %w", p.Name(), err)
		}
		cfg = next
	}
	return cfg, nil
}

// HandleCode runs every CodeHandler.
func (c Chain) HandleCode(path, code string) string {
	for _, p := range c {
		if h, ok := p.(CodeHandler); ok {
			code = h.HandleCode(path, code)
		}
	}
	return code
}

// HandleAST runs every ASTHandler.
func (c Chain) HandleAST(path string, prog *syntax.Program) {
	for _, p := range c {
		if h, ok := p.(ASTHandler); ok {
			h.HandleAST(path, prog)
		}
	}
}

// HandleDocs runs every DocsHandler.
func (c Chain) HandleDocs(recs []*model.Record) []*model.Record {
	for _, p := range c {
		if h, ok := p.(DocsHandler); ok {
			recs = h.HandleDocs(recs)
		}
	}
	return recs
}

// HandleComplete runs every CompleteHandler.
func (c Chain) HandleComplete(recs []*model.Record) {
	for _, p := range c {
		if h, ok := p.(CompleteHandler); ok {
			h.HandleComplete(recs)
		}
	}
}

// Factory builds a plugin from its config options.
type Factory func(option map[string]any) (Plugin, error)

var builtins = map[string]Factory{
	"drop-undocumented": func(map[string]any) (Plugin, error) { return DropUndocumented{}, nil },
	"access-filter":     newAccessFilter,
}

// Names returns the names of the built-in plugins, sorted.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FromConfig builds the chain named by the plugins section of a config.
func FromConfig(specs []config.PluginConfig) (Chain, error) {
	var chain Chain
	for _, s := range specs {
		f, ok := builtins[s.Name]
		if !ok {
			return nil, fmt.Errorf("unknown plugin %q", s.Name)
		}
		p, err := f(s.Option)
		if err != nil {
			return nil, fmt.Errorf("plugin %s: %w", s.Name, err)
		}
		chain = append(chain, p)
	}
	return chain, nil
}
