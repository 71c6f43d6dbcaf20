package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/srthuanan/stockhold/internal/auth"
	"github.com/srthuanan/stockhold/internal/domain"
)

type ConsultantRepository struct {
	pool *pgxpool.Pool
}

func NewConsultantRepository(pool *pgxpool.Pool) *ConsultantRepository {
	return &ConsultantRepository{pool: pool}
}

func (r *ConsultantRepository) GetConsultant(ctx context.Context, username string) (domain.Consultant, error) {
	const query = `SELECT username, password_hash, role FROM consultants WHERE username = $1`

	var c domain.Consultant
	var role string
	err := r.pool.QueryRow(ctx, query, username).Scan(&c.Username, &c.PasswordHash, &role)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Consultant{}, auth.ErrConsultantNotFound
		}
		return domain.Consultant{}, fmt.Errorf("get consultant: %w", err)
	}
	c.Role = domain.Role(role)
	return c, nil
}

// CreateConsultant provisions a login. Duplicate usernames are rejected.
func (r *ConsultantRepository) CreateConsultant(ctx context.Context, c domain.Consultant) error {
	const stmt = `INSERT INTO consultants (username, password_hash, role) VALUES ($1, $2, $3)`

	_, err := r.pool.Exec(ctx, stmt, c.Username, c.PasswordHash, string(c.Role))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("consultant %s already exists", c.Username)
		}
		return fmt.Errorf("create consultant: %w", err)
	}
	return nil
}
