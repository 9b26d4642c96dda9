package device

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Validation constants.
const (
	maxBrandLength          = 50
	maxModelLength          = 50
	maxAttributeNameLength  = 20
	maxAttributeValueLength = 100
)

// Pre-computed validation set for O(1) lookups instead of O(n) linear search.
var validFormFactors map[FormFactor]struct{}

func init() {
	validFormFactors = make(map[FormFactor]struct{}, len(AllFormFactors()))
	for _, f := range AllFormFactors() {
		validFormFactors[f] = struct{}{}
	}
}

// Violation describes one failed validation rule.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return v.Field + " " + v.Message
}

// NameIndex counts how many records of a load share each full name.
// Records without a full name are not counted.
type NameIndex map[string]int

// IndexFullNames builds the full name index for a complete raw load.
// Uniqueness is always judged against every loaded record, valid or not.
func IndexFullNames(devices []Device) NameIndex {
	idx := make(NameIndex, len(devices))
	for _, d := range devices {
		if name, ok := d.FullName(); ok {
			idx[name]++
		}
	}
	return idx
}

// Violations evaluates every rule against the device and returns all
// failures. Rules do not short-circuit: a device with a long brand and an
// unknown form factor reports both.
func (d Device) Violations(names NameIndex) []Violation {
	var out []Violation

	out = append(out, checkRequired("brand", d.Brand, maxBrandLength)...)
	out = append(out, checkRequired("model", d.Model, maxModelLength)...)

	if _, ok := validFormFactors[d.FormFactor]; !ok {
		out = append(out, Violation{
			Field:   "formFactor",
			Message: fmt.Sprintf("%q is not included in the list", d.FormFactor),
		})
	}

	for i, attr := range d.Attributes {
		prefix := fmt.Sprintf("attributes[%d].", i)
		out = append(out, checkRequired(prefix+"name", attr.Name, maxAttributeNameLength)...)
		out = append(out, checkRequired(prefix+"value", attr.Value, maxAttributeValueLength)...)
	}

	if name, ok := d.FullName(); ok && names[name] > 1 {
		out = append(out, Violation{
			Field:   "fullName",
			Message: fmt.Sprintf("%q should be unique (%d records share it)", name, names[name]),
		})
	}

	return out
}

// IsValid reports whether the device passes every rule.
func (d Device) IsValid(names NameIndex) bool {
	return len(d.Violations(names)) == 0
}

// checkRequired checks a required string field with a maximum length.
// Length is measured in characters, not bytes.
func checkRequired(field, value string, maxLen int) []Violation {
	var out []Violation
	if strings.TrimSpace(value) == "" {
		out = append(out, Violation{Field: field, Message: "should be present"})
	}
	if n := utf8.RuneCountInString(value); n > maxLen {
		out = append(out, Violation{
			Field:   field,
			Message: fmt.Sprintf("should not be greater than %d characters (got %d)", maxLen, n),
		})
	}
	return out
}
