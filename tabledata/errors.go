package tabledata

import (
	"net/http"
	"strings"
)

// UnknownErrorMessage is shown when a failure carries no message
const UnknownErrorMessage = "An unknown error occurred."

// FetchError covers every way the catalog request can fail: transport
// errors, non-2xx responses and payloads that cannot be decoded or validated.
type FetchError struct {
	StatusCode int // 0 when no response was received
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	if e.Message == "" {
		return UnknownErrorMessage
	}
	return e.Message
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func newStatusError(response *http.Response) *FetchError {
	statusText := http.StatusText(response.StatusCode)
	if statusText == "" {
		// Non standard code, use the reason phrase from the status line
		if _, reason, ok := strings.Cut(response.Status, " "); ok {
			statusText = strings.TrimSpace(reason)
		}
	}
	if statusText == "" {
		statusText = UnknownErrorMessage
	}

	return &FetchError{
		StatusCode: response.StatusCode,
		Message:    "Error fetching medications: " + statusText,
	}
}
