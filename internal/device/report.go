package device

import (
	"context"
	"strings"
)

// Report describes the outcome of the catalogue load.
type Report struct {
	Source  string          `json:"source"`
	Total   int             `json:"total"`
	Valid   int             `json:"valid"`
	Invalid []InvalidRecord `json:"invalid"`
}

// InvalidRecord is a record excluded from the valid subset, with every rule
// it failed.
type InvalidRecord struct {
	// Index is the record's position in the source array.
	Index      int         `json:"index"`
	FullName   string      `json:"full_name,omitempty"`
	Violations []Violation `json:"violations"`
}

// Report returns the load report for the cached snapshot.
func (s *Store) Report(ctx context.Context) (Report, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return Report{}, err
	}

	rep := Report{
		Source:  s.source.Name(),
		Total:   len(snap.all),
		Valid:   len(snap.valid),
		Invalid: make([]InvalidRecord, 0, len(snap.all)-len(snap.valid)),
	}
	for i, d := range snap.all {
		violations := d.Violations(snap.names)
		if len(violations) == 0 {
			continue
		}
		name, _ := d.FullName()
		rep.Invalid = append(rep.Invalid, InvalidRecord{
			Index:      i,
			FullName:   name,
			Violations: violations,
		})
	}
	return rep, nil
}

// ViolationCounts counts violations per field across all invalid records.
// Attribute fields are folded to "attributes.name" and "attributes.value"
// so the key set stays small.
func (r Report) ViolationCounts() map[string]int {
	counts := make(map[string]int)
	for _, rec := range r.Invalid {
		for _, v := range rec.Violations {
			counts[fieldKind(v.Field)]++
		}
	}
	return counts
}

// fieldKind strips element indexes: "attributes[3].name" -> "attributes.name".
func fieldKind(field string) string {
	open := strings.IndexByte(field, '[')
	if open < 0 {
		return field
	}
	end := strings.IndexByte(field[open:], ']')
	if end < 0 {
		return field
	}
	return field[:open] + field[open+end+1:]
}
