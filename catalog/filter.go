// Package catalog holds the in-memory transformations applied to a fetched
// medication list: constraint filtering, tri-state price sorting and page
// windowing. Every function here is pure and never mutates its input.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/giygas/medications-catalog/catalog/entities"
	"golang.org/x/text/cases"
)

// ErrUnknownField is returned when a constraint names a field that cannot be filtered.
var ErrUnknownField = errors.New("unknown filter field")

// Field is a filterable text field of a medication
type Field string

const (
	FieldName         Field = "name"
	FieldDescription  Field = "description"
	FieldManufacturer Field = "manufacturer"
)

// Fields lists the filterable fields in display order
var Fields = []Field{FieldName, FieldDescription, FieldManufacturer}

// ParseField converts user input into a Field
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FieldName, FieldDescription, FieldManufacturer:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// value returns the text of the field on m.
func (f Field) value(m entities.Medication) string {
	switch f {
	case FieldName:
		return m.Name
	case FieldDescription:
		return m.Description
	case FieldManufacturer:
		return m.Manufacturer
	}
	return ""
}

// Constraints maps each filterable field to a free-text substring.
// An empty string means no constraint on that field.
type Constraints struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Manufacturer string `json:"manufacturer"`
}

// Get returns the constraint for field
func (c Constraints) Get(field Field) string {
	switch field {
	case FieldName:
		return c.Name
	case FieldDescription:
		return c.Description
	case FieldManufacturer:
		return c.Manufacturer
	}
	return ""
}

// With returns a copy of c with field set to value
func (c Constraints) With(field Field, value string) (Constraints, error) {
	switch field {
	case FieldName:
		c.Name = value
	case FieldDescription:
		c.Description = value
	case FieldManufacturer:
		c.Manufacturer = value
	default:
		return c, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return c, nil
}

// IsEmpty reports whether no field is constrained
func (c Constraints) IsEmpty() bool {
	return c.Name == "" && c.Description == "" && c.Manufacturer == ""
}

// Filter returns the records whose fields contain every non-empty constraint,
// compared under Unicode case folding. The result is always a new slice.
func Filter(records []entities.Medication, constraints Constraints) []entities.Medication {
	if constraints.IsEmpty() {
		return clone(records)
	}

	// A Caser keeps state between calls and must not be shared, so each
	// Filter call gets its own.
	folder := cases.Fold()

	type needle struct {
		field Field
		text  string
	}
	needles := make([]needle, 0, len(Fields))
	for _, f := range Fields {
		if v := constraints.Get(f); v != "" {
			needles = append(needles, needle{field: f, text: folder.String(v)})
		}
	}

	results := make([]entities.Medication, 0, len(records))
	for _, med := range records {
		matched := true
		for _, n := range needles {
			if !strings.Contains(folder.String(n.field.value(med)), n.text) {
				matched = false
				break
			}
		}
		if matched {
			results = append(results, med)
		}
	}

	return results
}

func clone(records []entities.Medication) []entities.Medication {
	out := make([]entities.Medication, len(records))
	copy(out, records)
	return out
}
