// Package ranking narrows a record set for summaries: the top-ranked
// classes, or the records matching a name or file.
package ranking

import (
	"sort"
	"strings"

	"github.com/phobologic/docextract/internal/model"
)

// SelectClasses keeps the maxClasses highest-ranked class records and drops
// the other classes along with their members. Records that are neither
// classes nor class members are kept. Ties are broken by longname.
// If maxClasses is <= 0 or covers every class, recs is returned as is.
func SelectClasses(recs []*model.Record, ranks map[string]float64, maxClasses int) []*model.Record {
	var classes []string
	for _, r := range recs {
		if r.Kind == model.Class {
			classes = append(classes, r.Longname)
		}
	}
	if maxClasses <= 0 || maxClasses >= len(classes) {
		return recs
	}

	sort.SliceStable(classes, func(i, j int) bool {
		ri, rj := ranks[classes[i]], ranks[classes[j]]
		if ri != rj {
			return ri > rj
		}
		return classes[i] < classes[j]
	})

	dropped := make(map[string]struct{}, len(classes)-maxClasses)
	for _, c := range classes[maxClasses:] {
		dropped[c] = struct{}{}
	}

	var out []*model.Record
	for _, r := range recs {
		if r.Kind == model.Class {
			if _, ok := dropped[r.Longname]; ok {
				continue
			}
		}
		if _, ok := dropped[r.MemberOf]; ok {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterByName returns the records whose name contains substr
// (case-insensitive). Members are not matched directly.
//
// When withMembers is true the members of every matched class are included
// too. If no other record matches, withMembers falls back to matching
// member names, so `--symbol count` still finds `this.count`.
func FilterByName(recs []*model.Record, substr string, withMembers bool) []*model.Record {
	lower := strings.ToLower(substr)

	matched := make(map[*model.Record]struct{})
	owners := make(map[string]struct{})
	for _, r := range recs {
		if isMember(r) || !isSymbol(r) {
			continue
		}
		if strings.Contains(strings.ToLower(r.Name), lower) {
			matched[r] = struct{}{}
			if r.Kind == model.Class {
				owners[r.Longname] = struct{}{}
			}
		}
	}

	if withMembers {
		for _, r := range recs {
			if !isMember(r) {
				continue
			}
			if _, ok := owners[r.MemberOf]; ok {
				matched[r] = struct{}{}
			}
		}
		if len(matched) == 0 {
			for _, r := range recs {
				if isMember(r) && strings.Contains(strings.ToLower(r.Name), lower) {
					matched[r] = struct{}{}
				}
			}
		}
	}

	var out []*model.Record
	for _, r := range recs {
		if _, ok := matched[r]; ok {
			out = append(out, r)
		}
	}
	return out
}

// FilterByFile returns the records declared in files whose path contains
// substr (case-insensitive), file records included.
func FilterByFile(recs []*model.Record, substr string) []*model.Record {
	lower := strings.ToLower(substr)

	var out []*model.Record
	for _, r := range recs {
		if strings.Contains(strings.ToLower(FileOf(r)), lower) {
			out = append(out, r)
		}
	}
	return out
}

// FileOf returns the path of the file a record was declared in. Index and
// packageJSON records answer with their absolute path.
func FileOf(r *model.Record) string {
	switch r.Kind {
	case model.File:
		return r.Name
	case model.Index, model.PackageJSON:
		return r.Longname
	}
	file, _, _ := strings.Cut(r.MemberOf, "~")
	return file
}

func isMember(r *model.Record) bool {
	return r.Kind == model.Member || r.Kind.IsMethod()
}

func isSymbol(r *model.Record) bool {
	switch r.Kind {
	case model.File, model.Index, model.PackageJSON:
		return false
	}
	return true
}
