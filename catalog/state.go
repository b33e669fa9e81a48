package catalog

import "github.com/giygas/medications-catalog/catalog/entities"

// PageState is the current page index and size
type PageState struct {
	Index int `json:"index"`
	Size  int `json:"size"`
}

// State is the complete view state of one catalog session. Transitions
// return a new State and leave the receiver untouched, so a State can be
// shared freely once built.
//
// Filtered holds the filter result in fetch order; sorting is applied on
// top of it when the view is read, which is what lets Unordered restore the
// pre-sort order exactly.
type State struct {
	Records  []entities.Medication
	Filtered []entities.Medication
	Draft    Constraints
	Applied  Constraints
	Sort     SortOrder
	Page     PageState
}

// NewState builds the initial state for a freshly fetched record set
func NewState(records []entities.Medication, pageSize int) State {
	if !ValidPageSize(pageSize) {
		pageSize = DefaultPageSize
	}
	full := clone(records)
	return State{
		Records:  full,
		Filtered: clone(full),
		Sort:     Unordered,
		Page:     PageState{Index: 0, Size: pageSize},
	}
}

// EditConstraint changes the pending constraint for field. The view is not
// affected until ApplyFilters.
func (s State) EditConstraint(field Field, value string) (State, error) {
	draft, err := s.Draft.With(field, value)
	if err != nil {
		return s, err
	}
	s.Draft = draft
	return s, nil
}

// ApplyFilters filters the full record set with the pending constraints
// and returns to the first page.
func (s State) ApplyFilters() State {
	s.Applied = s.Draft
	s.Filtered = Filter(s.Records, s.Applied)
	s.Page.Index = 0
	return s
}

// Reset clears every constraint and the sort order. The page size is kept.
func (s State) Reset() State {
	s.Draft = Constraints{}
	s.Applied = Constraints{}
	s.Filtered = clone(s.Records)
	s.Sort = Unordered
	s.Page.Index = 0
	return s
}

// ToggleSort advances the price order by one step
func (s State) ToggleSort() State {
	s.Sort = Toggle(s.Sort)
	return s
}

// WithPage moves to page index; negative indexes clamp to 0
func (s State) WithPage(index int) State {
	s.Page.Index = max(index, 0)
	return s
}

// WithPageSize changes the page size and returns to the first page
func (s State) WithPageSize(size int) (State, error) {
	if err := CheckPageSize(size); err != nil {
		return s, err
	}
	s.Page = PageState{Index: 0, Size: size}
	return s, nil
}

// Ordered returns the filtered records in the current sort order
func (s State) Ordered() []entities.Medication {
	return Sort(s.Filtered, s.Sort)
}

// Visible returns the records on the current page
func (s State) Visible() []entities.Medication {
	return Paginate(s.Ordered(), s.Page.Index, s.Page.Size)
}

// Window returns the pagination metadata for the current page
func (s State) Window() Window {
	return NewWindow(len(s.Filtered), s.Page.Index, s.Page.Size)
}
