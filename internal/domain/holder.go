package domain

import "time"

// PriorityTier is an ordered class of holders. Lower Prio means higher
// priority in the renting queue. New accounts start at the lowest tier and
// move up once verified.
type PriorityTier struct {
	ID          int64  `json:"id"`
	Prio        int    `json:"prio"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// DurationPolicy caps the loan duration for a (tier, type) pair.
type DurationPolicy struct {
	ID             int64 `json:"id"`
	TierID         int64 `json:"tier_id"`
	TierPrio       int   `json:"tier_prio"`
	ResourceTypeID int64 `json:"resource_type_id"`
	DurationDays   int   `json:"duration_days"`
}

// Holder is an account that can place reservations.
type Holder struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	PasswordHash string `json:"-"`
	TierID       int64  `json:"tier_id"`
	TierPrio     int    `json:"tier_prio"`
	// Staff accounts run the lending desk: they may cancel foreign
	// reservations and use the wider extension window.
	Staff     bool      `json:"staff"`
	Verified  bool      `json:"verified"`
	CreatedOn time.Time `json:"created_on"`
}
