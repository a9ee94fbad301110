package models

import (
	"time"

	"github.com/lib/pq"
)

// Party represents a trading party. A party owns the kapan numbers it has
// issued lots under; the list is de-duplicated and insertion ordered.
type Party struct {
	ID           string         `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	Active       bool           `db:"active" json:"active"`
	KapanNumbers pq.StringArray `db:"kapan_numbers" json:"kapanNumbers"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updatedAt"`
}
