package models

import "time"

// RateItem is one dated entry in a tier's rate history.
type RateItem struct {
	ID        string    `db:"id" json:"id"`
	TierID    string    `db:"tier_id" json:"-"`
	Rate      float64   `db:"rate" json:"rate"`
	Date      time.Time `db:"date" json:"date"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// RateTier is a party-scoped value range [startingValue, endingValue) with an
// ordered rate history.
type RateTier struct {
	ID            string     `db:"id" json:"id"`
	PartyID       string     `db:"party_id" json:"partyId"`
	StartingValue float64    `db:"starting_value" json:"startingValue"`
	EndingValue   float64    `db:"ending_value" json:"endingValue"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
	Items         []RateItem `json:"items"`
}
