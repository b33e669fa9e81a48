package handlers

import (
	"time"

	"github.com/giygas/medications-catalog/catalog"
	"github.com/giygas/medications-catalog/catalog/entities"
	"github.com/giygas/medications-catalog/session"
)

// SessionResponse is the JSON view of a session. The embedded view is nil,
// and its fields absent, unless the session is ready.
type SessionResponse struct {
	ID         string         `json:"id"`
	Status     session.Status `json:"status"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	LastAccess time.Time      `json:"lastAccess"`
	*ViewResponse
}

// ViewResponse is the table of a ready session
type ViewResponse struct {
	Draft   catalog.Constraints   `json:"draft"`
	Applied catalog.Constraints   `json:"applied"`
	Sort    catalog.SortOrder     `json:"sort"`
	Page    catalog.Window        `json:"page"`
	Items   []entities.Medication `json:"items"`
}

// ConstraintRequest is the body of a filter edit
type ConstraintRequest struct {
	Value string `json:"value"`
}

func newSessionResponse(snap session.Snapshot) SessionResponse {
	resp := SessionResponse{
		ID:         snap.ID,
		Status:     snap.Status,
		Error:      snap.Error,
		CreatedAt:  snap.CreatedAt.UTC(),
		LastAccess: snap.LastAccess.UTC(),
	}

	if snap.State != nil {
		resp.ViewResponse = &ViewResponse{
			Draft:   snap.State.Draft,
			Applied: snap.State.Applied,
			Sort:    snap.State.Sort,
			Page:    snap.State.Window(),
			Items:   snap.State.Visible(),
		}
	}

	return resp
}
