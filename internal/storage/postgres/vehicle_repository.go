package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/srthuanan/stockhold/internal/domain"
)

// VehicleRepository persists the registry. Reservation transitions rely on
// GetVehicleForUpdate's row lock to serialize per VIN; rows for different
// VINs lock independently.
type VehicleRepository struct {
	pool *pgxpool.Pool
}

func NewVehicleRepository(pool *pgxpool.Pool) *VehicleRepository {
	return &VehicleRepository{pool: pool}
}

func (r *VehicleRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

const vehicleColumns = `vin, model, version, exterior_color, interior_color, status, holder, hold_expires_at, matched_order_id, created_at, updated_at`

func (r *VehicleRepository) GetVehicleForUpdate(ctx context.Context, vin string) (domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE vin = $1 FOR UPDATE`
	return r.scanVehicle(r.queryRow(ctx, query, vin))
}

func (r *VehicleRepository) GetVehicle(ctx context.Context, vin string) (domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE vin = $1`
	return r.scanVehicle(r.queryRow(ctx, query, vin))
}

func (r *VehicleRepository) ListVehicles(ctx context.Context, status *domain.VehicleStatus) ([]domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles ORDER BY vin`
	args := []any{}
	if status != nil {
		query = `SELECT ` + vehicleColumns + ` FROM vehicles WHERE status = $1 ORDER BY vin`
		args = append(args, string(*status))
	}

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	var out []domain.Vehicle
	for rows.Next() {
		v, err := r.scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	return out, nil
}

func (r *VehicleRepository) ListDueVINs(ctx context.Context, now time.Time) ([]string, error) {
	const query = `SELECT vin FROM vehicles WHERE status = 'held' AND hold_expires_at <= $1 ORDER BY hold_expires_at`

	rows, err := r.query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list due vins: %w", err)
	}
	defer rows.Close()

	var vins []string
	for rows.Next() {
		var vin string
		if err := rows.Scan(&vin); err != nil {
			return nil, fmt.Errorf("scan due vin: %w", err)
		}
		vins = append(vins, vin)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list due vins: %w", err)
	}
	return vins, nil
}

func (r *VehicleRepository) UpdateReservation(ctx context.Context, v domain.Vehicle) error {
	const stmt = `
UPDATE vehicles
SET status = $2, holder = $3, hold_expires_at = $4, matched_order_id = $5, updated_at = $6
WHERE vin = $1`

	tag, err := r.exec(ctx, stmt,
		v.VIN,
		string(v.Status),
		v.Holder,
		v.HoldExpiresAt,
		v.MatchedOrderID,
		v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVehicleNotFound
	}
	return nil
}

// UpsertStock inserts a new vehicle as available or refreshes descriptive
// attributes of an existing VIN, leaving reservation fields alone.
func (r *VehicleRepository) UpsertStock(ctx context.Context, v domain.Vehicle) (domain.Vehicle, bool, error) {
	const stmt = `
INSERT INTO vehicles (vin, model, version, exterior_color, interior_color, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (vin) DO UPDATE
SET model = EXCLUDED.model,
    version = EXCLUDED.version,
    exterior_color = EXCLUDED.exterior_color,
    interior_color = EXCLUDED.interior_color,
    updated_at = EXCLUDED.updated_at
RETURNING ` + vehicleColumns + `, (xmax = 0) AS inserted`

	row := r.queryRow(ctx, stmt,
		v.VIN,
		v.Model,
		v.Version,
		v.ExteriorColor,
		v.InteriorColor,
		string(v.Status),
		v.CreatedAt,
		v.UpdatedAt,
	)

	var out domain.Vehicle
	var status string
	var inserted bool
	err := row.Scan(
		&out.VIN,
		&out.Model,
		&out.Version,
		&out.ExteriorColor,
		&out.InteriorColor,
		&status,
		&out.Holder,
		&out.HoldExpiresAt,
		&out.MatchedOrderID,
		&out.CreatedAt,
		&out.UpdatedAt,
		&inserted,
	)
	if err != nil {
		return domain.Vehicle{}, false, fmt.Errorf("upsert stock: %w", err)
	}
	out.Status = domain.VehicleStatus(status)
	return out, inserted, nil
}

func (r *VehicleRepository) scanVehicle(row pgx.Row) (domain.Vehicle, error) {
	var v domain.Vehicle
	var status string
	err := row.Scan(
		&v.VIN,
		&v.Model,
		&v.Version,
		&v.ExteriorColor,
		&v.InteriorColor,
		&status,
		&v.Holder,
		&v.HoldExpiresAt,
		&v.MatchedOrderID,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Vehicle{}, domain.ErrVehicleNotFound
		}
		return domain.Vehicle{}, fmt.Errorf("get vehicle: %w", err)
	}
	v.Status = domain.VehicleStatus(status)
	return v, nil
}

func (r *VehicleRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *VehicleRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *VehicleRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
