// Package tabledata fetches the medication catalog from the upstream
// /table-data endpoint.
package tabledata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/giygas/medications-catalog/catalog/entities"
	"github.com/giygas/medications-catalog/interfaces"
	"github.com/giygas/medications-catalog/logging"
	"github.com/giygas/medications-catalog/validation"
	"golang.org/x/text/encoding/charmap"
)

// Compile-time check to ensure Client implements Fetcher
var _ interfaces.Fetcher = (*Client)(nil)

// Path is appended to the configured base URL
const Path = "/table-data"

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxBodySize = 10 * 1024 * 1024 // 10MB
)

// qualityReporter is implemented by validators that can summarise data quality
type qualityReporter interface {
	ReportDataQuality(records []entities.Medication) *interfaces.DataQualityReport
}

// Client performs the single catalog request of a session
type Client struct {
	baseURL     string
	httpClient  *http.Client
	maxBodySize int64
	timeout     time.Duration
	validator   interfaces.RecordValidator
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithTimeout sets the request timeout. A client given with WithHTTPClient
// is copied, never modified.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.timeout = d
	}
}

// WithMaxBodySize caps the number of bytes read from the response
func WithMaxBodySize(n int64) Option {
	return func(cl *Client) {
		cl.maxBodySize = n
	}
}

// WithValidator replaces the record validator
func WithValidator(v interfaces.RecordValidator) Option {
	return func(cl *Client) {
		cl.validator = v
	}
}

// NewClient creates a client for baseURL. A trailing slash on baseURL is ignored.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: defaultTimeout},
		maxBodySize: defaultMaxBodySize,
		validator:   validation.NewDataValidator(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

// URL returns the endpoint the client requests
func (c *Client) URL() string {
	return c.baseURL + Path
}

// FetchAll downloads and decodes every medication record. Any failure is
// returned as a *FetchError.
func (c *Client) FetchAll(ctx context.Context) ([]entities.Medication, error) {
	url := c.URL()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Message: fmt.Sprintf("Error fetching medications: %v", err), Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	response, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Message: fmt.Sprintf("Error fetching medications: %v", err), Err: err}
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, newStatusError(response)
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(response.Body, c.maxBodySize+1))
	if err != nil {
		return nil, &FetchError{StatusCode: response.StatusCode, Message: fmt.Sprintf("Error fetching medications: %v", err), Err: err}
	}
	if int64(len(bodyBytes)) > c.maxBodySize {
		err := fmt.Errorf("response body exceeds %d bytes", c.maxBodySize)
		return nil, &FetchError{StatusCode: response.StatusCode, Message: fmt.Sprintf("Error fetching medications: %v", err), Err: err}
	}

	records, err := decode(bodyBytes)
	if err != nil {
		return nil, &FetchError{StatusCode: response.StatusCode, Message: fmt.Sprintf("Error parsing medications: %v", err), Err: err}
	}

	if err := c.validator.ValidateRecords(records); err != nil {
		return nil, &FetchError{StatusCode: response.StatusCode, Message: fmt.Sprintf("Error validating medications: %v", err), Err: err}
	}

	if reporter, ok := c.validator.(qualityReporter); ok {
		report := reporter.ReportDataQuality(records)
		if report.EmptyNames > 0 || report.EmptyManufacturers > 0 {
			logging.Warn("Catalog has incomplete records",
				"total", report.Total,
				"empty_names", report.EmptyNames,
				"empty_descriptions", report.EmptyDescriptions,
				"empty_manufacturers", report.EmptyManufacturers,
				"zero_prices", report.ZeroPrices,
				"empty_name_ids", report.EmptyNameIDs,
				"empty_manufacturer_ids", report.EmptyManufacturerIDs,
			)
		}
	}

	logging.Debug("Medications fetched",
		"url", url,
		"count", len(records),
		"bytes", len(bodyBytes),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return records, nil
}

// decode parses the payload, reading it as ISO-8859-1 when it is not UTF-8.
// The whole body must be a single JSON array.
func decode(body []byte) ([]entities.Medication, error) {
	if !utf8.Valid(body) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(body)
		if err != nil {
			return nil, err
		}
		body = decoded
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty response body")
	}

	var records []entities.Medication
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []entities.Medication{}
	}

	return records, nil
}
