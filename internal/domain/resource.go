package domain

import (
	"strconv"
	"time"
)

// Category groups resource types on the rental page.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ResourceType is a bookable category of interchangeable units. Reservations
// are placed against the type; concrete units are attached at handout time.
type ResourceType struct {
	ID               int64  `json:"id"`
	CategoryID       int64  `json:"category_id"`
	Name             string `json:"name"`
	ShortDescription string `json:"short_description"`
	Description      string `json:"description"`
	Manufacturer     string `json:"manufacturer"`
	// PrefixIdentifier together with a unit's internal identifier forms the
	// label on the physical item, e.g. "LZ12".
	PrefixIdentifier string `json:"prefix_identifier"`
	// Visible hides the type from the rental page without deleting it.
	Visible   bool      `json:"visible"`
	CreatedOn time.Time `json:"created_on"`
}

// Unit is one physical, individually tracked instance of a ResourceType.
type Unit struct {
	ID                 int64  `json:"id"`
	ResourceTypeID     int64  `json:"resource_type_id"`
	InternalIdentifier int    `json:"internal_identifier"`
	// InventoryNumber carries an external asset number when the owning
	// department tracks the item in its own inventory.
	InventoryNumber string `json:"inventory_number,omitempty"`
	Rentable        bool   `json:"rentable"`
}

// Label returns the printed identifier of the unit.
func (u Unit) Label(prefix string) string {
	return prefix + strconv.Itoa(u.InternalIdentifier)
}

// StatusWindow blocks a unit from being rented for a date range, e.g. for
// planned maintenance. Invariant: FromDate <= UntilDate.
type StatusWindow struct {
	ID        int64     `json:"id"`
	UnitID    int64     `json:"unit_id"`
	Reason    string    `json:"reason"`
	FromDate  time.Time `json:"from_date"`
	UntilDate time.Time `json:"until_date"`
	Rentable  bool      `json:"rentable"`
}

// Overlaps reports whether the window intersects [from, until] (inclusive,
// date granularity).
func (w StatusWindow) Overlaps(from, until time.Time) bool {
	return !w.FromDate.After(until) && !w.UntilDate.Before(from)
}
