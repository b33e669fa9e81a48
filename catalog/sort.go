package catalog

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/giygas/medications-catalog/catalog/entities"
)

// SortOrder is the tri-state price ordering
type SortOrder int

const (
	Unordered SortOrder = iota
	Ascending
	Descending
)

func (o SortOrder) String() string {
	switch o {
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	default:
		return "none"
	}
}

// MarshalText encodes the order as none, asc or desc
func (o SortOrder) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText accepts the values produced by MarshalText
func (o *SortOrder) UnmarshalText(text []byte) error {
	parsed, err := ParseSortOrder(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// ParseSortOrder converts none/asc/desc (and an empty string) into a SortOrder
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return Unordered, nil
	case "asc":
		return Ascending, nil
	case "desc":
		return Descending, nil
	}
	return Unordered, fmt.Errorf("invalid sort order %q, expected none, asc or desc", s)
}

// Toggle returns the next order in the cycle none -> asc -> desc -> none
func Toggle(order SortOrder) SortOrder {
	switch order {
	case Unordered:
		return Ascending
	case Ascending:
		return Descending
	default:
		return Unordered
	}
}

// Sort returns a copy of records ordered by price. Equal prices keep their
// relative order, and Unordered returns the records as given.
func Sort(records []entities.Medication, order SortOrder) []entities.Medication {
	out := clone(records)

	switch order {
	case Ascending:
		slices.SortStableFunc(out, func(a, b entities.Medication) int {
			return cmp.Compare(a.Price, b.Price)
		})
	case Descending:
		slices.SortStableFunc(out, func(a, b entities.Medication) int {
			return cmp.Compare(b.Price, a.Price)
		})
	}

	return out
}
