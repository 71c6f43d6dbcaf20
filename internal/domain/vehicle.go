package domain

import "time"

type VehicleStatus string

const (
	StatusAvailable VehicleStatus = "available"
	StatusHeld      VehicleStatus = "held"
	StatusMatched   VehicleStatus = "matched"
)

// ValidStatus reports whether s is one of the known vehicle statuses.
func ValidStatus(s VehicleStatus) bool {
	switch s {
	case StatusAvailable, StatusHeld, StatusMatched:
		return true
	}
	return false
}

// Vehicle is a single unit of dealership stock, keyed by VIN.
// Holder and HoldExpiresAt are set if and only if Status is held;
// MatchedOrderID is set if and only if Status is matched.
type Vehicle struct {
	VIN            string        `json:"vin"`
	Model          string        `json:"model"`
	Version        string        `json:"version"`
	ExteriorColor  string        `json:"exterior_color"`
	InteriorColor  string        `json:"interior_color"`
	Status         VehicleStatus `json:"status"`
	Holder         *string       `json:"holder,omitempty"`
	HoldExpiresAt  *time.Time    `json:"hold_expires_at,omitempty"`
	MatchedOrderID *string       `json:"matched_order_id,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// HeldBy reports whether the vehicle is currently held by the named consultant.
func (v Vehicle) HeldBy(name string) bool {
	return v.Status == StatusHeld && v.Holder != nil && *v.Holder == name
}

// HoldLapsed reports whether the vehicle carries a hold whose deadline has
// passed but has not yet been swept by the expiry scheduler.
func (v Vehicle) HoldLapsed(now time.Time) bool {
	return v.Status == StatusHeld && v.HoldExpiresAt != nil && !v.HoldExpiresAt.After(now)
}
