package domain

import "time"

type ChangeType string

const (
	ChangeHeld     ChangeType = "held"
	ChangeReleased ChangeType = "released"
	ChangeExpired  ChangeType = "expired"
	ChangeMatched  ChangeType = "matched"
	ChangeStocked  ChangeType = "stocked"
)

// ChangeEvent records a single reservation-state transition. Subscribers
// (dashboards, the reconciliation layer) receive one event per successful
// engine transition.
type ChangeEvent struct {
	ID         string     `json:"id"`
	Type       ChangeType `json:"type"`
	VIN        string     `json:"vin"`
	Actor      string     `json:"actor"`
	Vehicle    Vehicle    `json:"vehicle"`
	OccurredAt time.Time  `json:"occurred_at"`
}
