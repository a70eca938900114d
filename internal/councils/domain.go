package councils

import "time"

// Council represents a municipal legislative body.
type Council struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CouncilInput carries the writable fields of a council.
type CouncilInput struct {
	Name  string
	City  string
	State string
}
