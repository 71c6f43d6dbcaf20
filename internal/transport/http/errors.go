package http

import (
	"encoding/json"
	"net/http"

	"github.com/srthuanan/stockhold/internal/domain"
)

const (
	codeMethodNotAllowed   = "method_not_allowed"
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeVINRequired        = "vin_required"
	codeOrderIDRequired    = "order_id_required"
	codeInvalidStatus      = "invalid_status"
	codeVehicleNotFound    = "vehicle_not_found"
	codeVehicleHeld        = "vehicle_held"
	codeVehicleMatched     = "vehicle_matched"
	codeVehicleNotHeld     = "vehicle_not_held"
	codeHoldNotExpired     = "hold_not_expired"
	codeNotHolder          = "not_holder"
	codeUnauthorized       = "unauthorized"
	codeForbidden          = "forbidden"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps engine errors onto the HTTP error taxonomy:
// unknown VIN is 404, losing a reservation race is 409, acting on someone
// else's hold is 403.
func writeDomainError(w http.ResponseWriter, err error) {
	switch err {
	case domain.ErrVINRequired:
		writeError(w, http.StatusBadRequest, codeVINRequired, err.Error())
	case domain.ErrOrderIDRequired:
		writeError(w, http.StatusBadRequest, codeOrderIDRequired, err.Error())
	case domain.ErrInvalidStatus:
		writeError(w, http.StatusBadRequest, codeInvalidStatus, err.Error())
	case domain.ErrVehicleNotFound:
		writeError(w, http.StatusNotFound, codeVehicleNotFound, err.Error())
	case domain.ErrVehicleHeld:
		writeError(w, http.StatusConflict, codeVehicleHeld, err.Error())
	case domain.ErrVehicleMatched:
		writeError(w, http.StatusConflict, codeVehicleMatched, err.Error())
	case domain.ErrVehicleNotHeld:
		writeError(w, http.StatusConflict, codeVehicleNotHeld, err.Error())
	case domain.ErrHoldNotExpired:
		writeError(w, http.StatusConflict, codeHoldNotExpired, err.Error())
	case domain.ErrNotHolder:
		writeError(w, http.StatusForbidden, codeNotHolder, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
