package plugin

import (
	"fmt"

	"github.com/phobologic/docextract/internal/model"
)

// DropUndocumented removes records built without a doc comment.
type DropUndocumented struct{}

// Name implements Plugin.
func (DropUndocumented) Name() string { return "drop-undocumented" }

// HandleDocs implements DocsHandler.
func (DropUndocumented) HandleDocs(recs []*model.Record) []*model.Record {
	out := recs[:0:0]
	for _, r := range recs {
		if !r.Undocument {
			out = append(out, r)
		}
	}
	return out
}

// AccessFilter keeps records whose access level is listed. Records without
// an access level count as public. File, index and packageJSON records are
// always kept.
type AccessFilter struct {
	allowed map[string]bool
}

func newAccessFilter(option map[string]any) (Plugin, error) {
	f := AccessFilter{allowed: make(map[string]bool)}
	raw, ok := option["access"]
	if !ok {
		for _, a := range []string{model.Public, model.Protected} {
			f.allowed[a] = true
		}
		return f, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("option access: want a list, got %T", raw)
	}
	for _, v := range list {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("option access: want strings, got %T", v)
		}
		f.allowed[s] = true
	}
	return f, nil
}

// Name implements Plugin.
func (AccessFilter) Name() string { return "access-filter" }

// HandleDocs implements DocsHandler.
func (f AccessFilter) HandleDocs(recs []*model.Record) []*model.Record {
	out := recs[:0:0]
	for _, r := range recs {
		switch r.Kind {
		case model.File, model.Index, model.PackageJSON:
			out = append(out, r)
			continue
		}
		access := r.Access
		if access == "" {
			access = model.Public
		}
		if f.allowed[access] {
			out = append(out, r)
		}
	}
	return out
}
