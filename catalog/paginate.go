package catalog

import (
	"errors"
	"fmt"
	"slices"

	"github.com/giygas/medications-catalog/catalog/entities"
)

// ErrInvalidPageSize is returned for a page size outside PageSizes
var ErrInvalidPageSize = errors.New("invalid page size")

// PageSizes are the allowed page sizes
var PageSizes = []int{3, 5, 10}

// DefaultPageSize is used until the user picks another size
const DefaultPageSize = 5

// ValidPageSize reports whether size is one of PageSizes
func ValidPageSize(size int) bool {
	return slices.Contains(PageSizes, size)
}

// CheckPageSize returns ErrInvalidPageSize when size is not allowed
func CheckPageSize(size int) error {
	if !ValidPageSize(size) {
		return fmt.Errorf("%w: %d (allowed: %v)", ErrInvalidPageSize, size, PageSizes)
	}
	return nil
}

// Paginate returns a copy of the window records[index*size : index*size+size].
// Out of range windows are empty, there is no wraparound.
func Paginate(records []entities.Medication, index, size int) []entities.Medication {
	if index < 0 || size <= 0 {
		return []entities.Medication{}
	}

	start := index * size
	if start >= len(records) {
		return []entities.Medication{}
	}
	end := min(start+size, len(records))

	return clone(records[start:end])
}

// Window describes where a page sits in the full result
type Window struct {
	Index     int  `json:"index"`
	Size      int  `json:"size"`
	Total     int  `json:"total"`
	PageCount int  `json:"pageCount"`
	HasNext   bool `json:"hasNext"`
	HasPrev   bool `json:"hasPrev"`
}

// NewWindow computes page metadata for total records
func NewWindow(total, index, size int) Window {
	pageCount := 0
	if size > 0 {
		pageCount = (total + size - 1) / size
	}

	return Window{
		Index:     index,
		Size:      size,
		Total:     total,
		PageCount: pageCount,
		HasNext:   index+1 < pageCount,
		HasPrev:   index > 0,
	}
}
