// Package dedupe removes redundant member records from a run's output.
package dedupe

import "github.com/phobologic/docextract/internal/model"

// Resolve drops member records that collide with another record's longname.
// A member loses to any non-member record with the same longname; among
// members sharing a longname only the one with the lowest id survives.
// The order of the surviving records is preserved.
func Resolve(recs []*model.Record) []*model.Record {
	owned := make(map[string]bool)
	first := make(map[string]int64)
	for _, r := range recs {
		if r.Kind != model.Member {
			owned[r.Longname] = true
			continue
		}
		if id, ok := first[r.Longname]; !ok || r.ID < id {
			first[r.Longname] = r.ID
		}
	}

	out := make([]*model.Record, 0, len(recs))
	for _, r := range recs {
		if r.Kind == model.Member && (owned[r.Longname] || first[r.Longname] != r.ID) {
			continue
		}
		out = append(out, r)
	}
	return out
}
