package entities

// Medication is one record of the /table-data payload.
type Medication struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Manufacturer string  `json:"manufacturer"`
	Price        float64 `json:"price"`
}
