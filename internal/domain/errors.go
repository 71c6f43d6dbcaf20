package domain

import "errors"

var (
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrVehicleHeld     = errors.New("vehicle already held")
	ErrVehicleMatched  = errors.New("vehicle already matched")
	ErrVehicleNotHeld  = errors.New("vehicle not held")
	ErrNotHolder       = errors.New("requester is not the holder")
	ErrHoldNotExpired  = errors.New("hold has not expired")
	ErrVINRequired     = errors.New("vin required")
	ErrOrderIDRequired = errors.New("order id required")
	ErrActorRequired   = errors.New("actor required")
	ErrInvalidStatus   = errors.New("invalid vehicle status")
)
