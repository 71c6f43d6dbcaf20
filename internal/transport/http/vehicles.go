package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/srthuanan/stockhold/internal/app"
	"github.com/srthuanan/stockhold/internal/domain"
)

// VehicleLister is the registry read path used by the list endpoint.
type VehicleLister interface {
	ListVehicles(ctx context.Context, status *domain.VehicleStatus) ([]domain.Vehicle, error)
}

// StockUpserter ingests vehicles from the inventory feed.
type StockUpserter interface {
	UpsertStock(ctx context.Context, in app.UpsertStockInput) (domain.Vehicle, error)
}

// HandleVehicles serves GET /vehicles (any consultant) and POST /vehicles
// (stock ingestion, admin only).
func HandleVehicles(lister VehicleLister, upserter StockUpserter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			listVehicles(w, r, lister)
		case http.MethodPost:
			upsertStock(w, r, upserter)
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

func listVehicles(w http.ResponseWriter, r *http.Request, lister VehicleLister) {
	var status *domain.VehicleStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.VehicleStatus(raw)
		if !domain.ValidStatus(s) {
			writeError(w, http.StatusBadRequest, codeInvalidStatus, "invalid status filter")
			return
		}
		status = &s
	}

	vehicles, err := lister.ListVehicles(r.Context(), status)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]vehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		out = append(out, toVehicleResponse(v))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(listVehiclesResponse{Vehicles: out})
}

func upsertStock(w http.ResponseWriter, r *http.Request, upserter StockUpserter) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing identity")
		return
	}
	if !actor.Admin {
		writeError(w, http.StatusForbidden, codeForbidden, "admin capability required")
		return
	}

	var req upsertStockRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}
	if req.VIN == "" {
		writeError(w, http.StatusBadRequest, codeVINRequired, "vin is required")
		return
	}

	v, err := upserter.UpsertStock(r.Context(), app.UpsertStockInput{
		VIN:           req.VIN,
		Model:         req.Model,
		Version:       req.Version,
		ExteriorColor: req.ExteriorColor,
		InteriorColor: req.InteriorColor,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(toVehicleResponse(v))
}

type upsertStockRequest struct {
	VIN           string `json:"vin"`
	Model         string `json:"model"`
	Version       string `json:"version"`
	ExteriorColor string `json:"exterior_color"`
	InteriorColor string `json:"interior_color"`
}

type listVehiclesResponse struct {
	Vehicles []vehicleResponse `json:"vehicles"`
}

type vehicleResponse struct {
	VIN            string     `json:"vin"`
	Model          string     `json:"model"`
	Version        string     `json:"version"`
	ExteriorColor  string     `json:"exterior_color"`
	InteriorColor  string     `json:"interior_color"`
	Status         string     `json:"status"`
	Holder         *string    `json:"holder,omitempty"`
	HoldExpiresAt  *time.Time `json:"hold_expires_at,omitempty"`
	MatchedOrderID *string    `json:"matched_order_id,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toVehicleResponse(v domain.Vehicle) vehicleResponse {
	return vehicleResponse{
		VIN:            v.VIN,
		Model:          v.Model,
		Version:        v.Version,
		ExteriorColor:  v.ExteriorColor,
		InteriorColor:  v.InteriorColor,
		Status:         string(v.Status),
		Holder:         v.Holder,
		HoldExpiresAt:  v.HoldExpiresAt,
		MatchedOrderID: v.MatchedOrderID,
		UpdatedAt:      v.UpdatedAt,
	}
}
