package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/srthuanan/stockhold/internal/domain"
)

// Reserver is the engine surface the per-vehicle routes need.
type Reserver interface {
	GetVehicle(ctx context.Context, vin string) (domain.Vehicle, error)
	Hold(ctx context.Context, vin string, actor domain.Actor) (domain.Vehicle, error)
	Release(ctx context.Context, vin string, actor domain.Actor) (domain.Vehicle, error)
	Match(ctx context.Context, vin, orderID string, actor domain.Actor) (domain.Vehicle, error)
}

// HandleVehicleByVIN serves GET /vehicles/{vin} and the reservation commands
// POST /vehicles/{vin}/hold, /release and /match.
func HandleVehicleByVIN(svc Reserver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vin, action, ok := parseVehiclePath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		if action == "" {
			if r.Method != http.MethodGet {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			v, err := svc.GetVehicle(r.Context(), vin)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeVehicle(w, v)
			return
		}

		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		actor, ok := actorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing identity")
			return
		}

		switch action {
		case "hold":
			v, err := svc.Hold(r.Context(), vin, actor)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeVehicle(w, v)
		case "release":
			var req releaseRequest
			if err := decodeOptionalBody(r.Body, &req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			if req.AsAdmin && !actor.Admin {
				writeError(w, http.StatusForbidden, codeForbidden, "admin capability required")
				return
			}
			// A plain release by an admin still goes through the holder
			// check; the override must be asked for explicitly.
			actor.Admin = actor.Admin && req.AsAdmin
			v, err := svc.Release(r.Context(), vin, actor)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeVehicle(w, v)
		case "match":
			var req matchRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			if req.OrderID == "" {
				writeError(w, http.StatusBadRequest, codeOrderIDRequired, "order_id is required")
				return
			}
			v, err := svc.Match(r.Context(), vin, req.OrderID, actor)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeVehicle(w, v)
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

// parseVehiclePath splits /vehicles/{vin} or /vehicles/{vin}/{action}.
func parseVehiclePath(path string) (vin, action string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] != "vehicles" || parts[1] == "" {
		return "", "", false
	}
	vin = parts[1]
	if len(parts) == 3 {
		if parts[2] == "" {
			return "", "", false
		}
		action = parts[2]
	}
	return vin, action, true
}

// decodeOptionalBody accepts an empty body as the zero request.
func decodeOptionalBody(body io.Reader, dst any) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func writeVehicle(w http.ResponseWriter, v domain.Vehicle) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(toVehicleResponse(v))
}

type releaseRequest struct {
	AsAdmin bool `json:"as_admin"`
}

type matchRequest struct {
	OrderID string `json:"order_id"`
}
