package models

import "time"

// ActiveFilter is the three-way active-state filter used by management pages.
type ActiveFilter string

const (
	ActiveFilterAll      ActiveFilter = "All"
	ActiveFilterActive   ActiveFilter = "Active"
	ActiveFilterDeactive ActiveFilter = "Deactive"
)

// Valid reports whether the filter is one of the supported values.
func (f ActiveFilter) Valid() bool {
	switch f {
	case ActiveFilterAll, ActiveFilterActive, ActiveFilterDeactive:
		return true
	default:
		return false
	}
}

// Reference is the common shape of the managed lookup entities: color,
// clarity, shape, status, payment status and employee.
type Reference struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ReferenceFilter captures list-query parameters shared by every reference page.
type ReferenceFilter struct {
	Search   string
	Status   ActiveFilter
	Page     int
	PageSize int
}

// Option is a generic value/label pair used to populate selects.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}
