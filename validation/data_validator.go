// Package validation provides data validation functionality for the medications catalog.
package validation

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/giygas/medications-catalog/catalog"
	"github.com/giygas/medications-catalog/catalog/entities"
	"github.com/giygas/medications-catalog/interfaces"
)

// MaxInputLength is the longest accepted filter value, in runes
const MaxInputLength = 100

// MaxPageIndex bounds page indexes coming from URLs
const MaxPageIndex = 100000

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateRecords rejects catalogs that break the record invariants:
// ids must be unique and prices must be finite and non-negative.
func (v *DataValidatorImpl) ValidateRecords(records []entities.Medication) error {
	seen := make(map[int]struct{}, len(records))
	var duplicates []int
	var errs []error

	for _, rec := range records {
		if _, ok := seen[rec.ID]; ok {
			duplicates = append(duplicates, rec.ID)
		}
		seen[rec.ID] = struct{}{}

		if math.IsNaN(rec.Price) || math.IsInf(rec.Price, 0) || rec.Price < 0 {
			errs = append(errs, fmt.Errorf("invalid price %v for id %d", rec.Price, rec.ID))
		}
	}

	if len(duplicates) > 0 {
		errs = append([]error{fmt.Errorf("duplicate ids: %v", duplicates)}, errs...)
	}

	return errors.Join(errs...)
}

// ReportDataQuality counts records with missing text fields or zero prices.
// These are accepted but worth a warning in the logs.
func (v *DataValidatorImpl) ReportDataQuality(records []entities.Medication) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		Total:                len(records),
		EmptyNameIDs:         []int{},
		EmptyManufacturerIDs: []int{},
	}

	for _, rec := range records {
		if strings.TrimSpace(rec.Name) == "" {
			report.EmptyNames++
			report.EmptyNameIDs = append(report.EmptyNameIDs, rec.ID)
		}
		if strings.TrimSpace(rec.Description) == "" {
			report.EmptyDescriptions++
		}
		if strings.TrimSpace(rec.Manufacturer) == "" {
			report.EmptyManufacturers++
			report.EmptyManufacturerIDs = append(report.EmptyManufacturerIDs, rec.ID)
		}
		if rec.Price == 0 {
			report.ZeroPrices++
		}
	}

	return report
}

// ValidateInput validates a free-text filter value. An empty value is valid
// and means "no constraint". Values are only matched as substrings in
// memory, so any printable text is accepted.
func (v *DataValidatorImpl) ValidateInput(input string) error {
	if input == "" {
		return nil
	}

	if !utf8.ValidString(input) {
		return fmt.Errorf("input is not valid UTF-8")
	}

	if n := utf8.RuneCountInString(input); n > MaxInputLength {
		return fmt.Errorf("input too long: %d characters (max %d)", n, MaxInputLength)
	}

	for _, r := range input {
		if unicode.IsControl(r) {
			return fmt.Errorf("input contains control characters")
		}
	}

	return nil
}

// ValidatePageIndex parses a zero based page index
func (v *DataValidatorImpl) ValidatePageIndex(input string) (int, error) {
	index, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("page index must be a number: %s", input)
	}
	if index < 0 {
		return 0, fmt.Errorf("page index cannot be negative, got: %d", index)
	}
	if index > MaxPageIndex {
		return 0, fmt.Errorf("page index too large (max %d), got: %d", MaxPageIndex, index)
	}
	return index, nil
}

// ValidatePageSize parses a page size and checks it is one of catalog.PageSizes
func (v *DataValidatorImpl) ValidatePageSize(input string) (int, error) {
	size, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("page size must be a number: %s", input)
	}
	if err := catalog.CheckPageSize(size); err != nil {
		return 0, err
	}
	return size, nil
}
