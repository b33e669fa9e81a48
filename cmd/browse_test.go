package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/giygas/medications-catalog/catalog"
	"github.com/giygas/medications-catalog/catalog/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tableData = `[
	{"id": 1, "name": "Aspirin", "description": "Pain reliever", "manufacturer": "Pharma Inc", "price": 5.0},
	{"id": 2, "name": "Ibuprofen", "description": "Anti-inflammatory", "manufacturer": "HealthCo", "price": 8.0},
	{"id": 3, "name": "Paracetamol", "description": "Pain reliever and fever reducer", "manufacturer": "PharmaCorp", "price": 5.5},
	{"id": 4, "name": "Amoxicillin", "description": "Antibiotic", "manufacturer": "MediLabs", "price": 12.0},
	{"id": 5, "name": "Cetirizine", "description": "Antihistamine", "manufacturer": "AllergyCo", "price": 7.25}
]`

func newUpstream(t *testing.T, status int, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func defaultOptions(baseURL string) browseOptions {
	return browseOptions{
		baseURL:  baseURL,
		timeout:  5 * time.Second,
		sort:     "none",
		page:     1,
		pageSize: catalog.DefaultPageSize,
	}
}

func TestRunBrowseFilterAndSort(t *testing.T) {
	opts := defaultOptions(newUpstream(t, http.StatusOK, tableData))
	opts.manufacturer = "pharma"
	opts.sort = "desc"

	var out bytes.Buffer
	require.NoError(t, runBrowse(context.Background(), &out, opts))

	text := out.String()
	assert.Contains(t, text, "page 1/1 (2 records)")
	assert.Contains(t, text, "5.50")
	assert.NotContains(t, text, "Ibuprofen")

	paracetamol := strings.Index(text, "Paracetamol")
	aspirin := strings.Index(text, "Aspirin")
	require.True(t, paracetamol >= 0 && aspirin >= 0, "both matches should be listed")
	assert.Less(t, paracetamol, aspirin, "descending price puts Paracetamol first")
}

func TestRunBrowsePaging(t *testing.T) {
	opts := defaultOptions(newUpstream(t, http.StatusOK, tableData))
	opts.pageSize = 3
	opts.page = 2

	var out bytes.Buffer
	require.NoError(t, runBrowse(context.Background(), &out, opts))

	text := out.String()
	assert.Contains(t, text, "page 2/2 (5 records)")
	assert.Contains(t, text, "Amoxicillin")
	assert.Contains(t, text, "Cetirizine")
	assert.NotContains(t, text, "Aspirin")
}

func TestRunBrowseUpstreamFailure(t *testing.T) {
	opts := defaultOptions(newUpstream(t, http.StatusInternalServerError, "boom"))

	var out bytes.Buffer
	err := runBrowse(context.Background(), &out, opts)

	require.Error(t, err)
	assert.Equal(t, "Error fetching medications: Internal Server Error", err.Error())
	assert.Empty(t, out.String())
}

func TestRunBrowseInvalidOptions(t *testing.T) {
	t.Setenv("API_BASE_URL", "")

	tests := []struct {
		name   string
		modify func(*browseOptions)
		errMsg string
	}{
		{"bad sort", func(o *browseOptions) { o.sort = "up" }, "invalid sort order"},
		{"bad page size", func(o *browseOptions) { o.pageSize = 4 }, "invalid page size"},
		{"page zero", func(o *browseOptions) { o.page = 0 }, "page must be at least 1"},
		{"missing base url", func(o *browseOptions) { o.baseURL = "" }, "API_BASE_URL is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := defaultOptions("http://127.0.0.1:1")
			tt.modify(&opts)

			err := runBrowse(context.Background(), &bytes.Buffer{}, opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestRenderPageEmpty(t *testing.T) {
	st := catalog.NewState([]entities.Medication{}, 5)

	var out bytes.Buffer
	renderPage(&out, st)

	assert.Contains(t, out.String(), "MANUFACTURER")
	assert.Contains(t, out.String(), "page 0/0 (0 records)")
}

func TestFooter(t *testing.T) {
	tests := []struct {
		window   catalog.Window
		expected string
	}{
		{catalog.NewWindow(0, 0, 5), "page 0/0 (0 records)"},
		{catalog.NewWindow(6, 0, 5), "page 1/2 (6 records)"},
		{catalog.NewWindow(10, 3, 3), "page 4/4 (10 records)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, footer(tt.window))
	}
}
