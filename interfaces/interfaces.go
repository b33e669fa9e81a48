// Package interfaces defines core abstractions for the medications catalog
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/medications-catalog/catalog/entities"
)

// DataQualityReport summarises non fatal issues in a fetched catalog
type DataQualityReport struct {
	Total                int
	EmptyNames           int
	EmptyDescriptions    int
	EmptyManufacturers   int
	ZeroPrices           int
	EmptyNameIDs         []int
	EmptyManufacturerIDs []int
}

// FetchStats aggregates the outcome of every catalog fetch
type FetchStats struct {
	Successes   int64
	Failures    int64
	LastSuccess time.Time
	LastFailure time.Time
	LastError   string
}

// Fetcher defines the contract for loading the medication catalog.
// Each call performs one upstream request; there is no retry or caching.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]entities.Medication, error)
}

// RecordValidator checks a fetched catalog before it is accepted
type RecordValidator interface {
	// ValidateRecords rejects catalogs with duplicate ids or negative prices
	ValidateRecords(records []entities.Medication) error
}

// InputValidator validates user supplied values
type InputValidator interface {
	// ValidateInput validates free-text filter values
	ValidateInput(input string) error

	// ValidatePageIndex parses a zero based page index
	ValidatePageIndex(input string) (int, error)

	// ValidatePageSize parses a page size and checks it is allowed
	ValidatePageSize(input string) (int, error)
}

// DataValidator defines the contract for data validation operations.
type DataValidator interface {
	RecordValidator
	InputValidator

	// ReportDataQuality generates a data quality report with all issues found
	ReportDataQuality(records []entities.Medication) *DataQualityReport
}

// SessionRegistry exposes the session bookkeeping used by the scheduler and
// the health checker.
type SessionRegistry interface {
	// Len returns the number of live sessions
	Len() int

	// CountByStatus returns the number of sessions per status name
	CountByStatus() map[string]int

	// Sweep closes and removes sessions idle for longer than ttl
	Sweep(ttl time.Duration) int

	// FetchStats returns the aggregated fetch outcomes
	FetchStats() FetchStats
}

// Scheduler defines the contract for periodic maintenance jobs.
type Scheduler interface {
	Start() error
	Stop()
}

// HTTPHandler defines the contract for the session HTTP endpoints.
type HTTPHandler interface {
	CreateSession(w http.ResponseWriter, r *http.Request)
	GetSession(w http.ResponseWriter, r *http.Request)
	DeleteSession(w http.ResponseWriter, r *http.Request)
	EditConstraint(w http.ResponseWriter, r *http.Request)
	ApplyFilters(w http.ResponseWriter, r *http.Request)
	ResetFilters(w http.ResponseWriter, r *http.Request)
	ToggleSort(w http.ResponseWriter, r *http.Request)
	SetPage(w http.ResponseWriter, r *http.Request)
	SetPageSize(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns the status, details and HTTP status code
	HealthCheck() (status string, details map[string]any, httpStatus int)
}
