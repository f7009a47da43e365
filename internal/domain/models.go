package domain

import "time"

// User is an account holder. PasswordHash is a bcrypt hash; the raw
// credential is never stored. HeldSpots lists the ids of the spots the
// user currently has reserved and must mirror Spot.Occupant at all times.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	BalanceCents int64     `json:"balance_cents"`
	HeldSpots    []int64   `json:"held_spots"`
	CreatedAt    time.Time `json:"created_at"`
}

// Spot is a numbered parking spot. Occupant is empty exactly when the
// spot is available.
type Spot struct {
	ID         int64  `json:"spot_id"`
	Available  bool   `json:"available"`
	Occupant   string `json:"occupant,omitempty"`
	PriceCents int64  `json:"price_cents"`
}
