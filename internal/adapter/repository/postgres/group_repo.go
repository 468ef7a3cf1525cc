package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chamahub/vsla-backend/internal/domain"
)

// groupRepository implements domain.GroupRepository
type groupRepository struct {
	db *DB
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *DB) domain.GroupRepository {
	return &groupRepository{db: db}
}

// Create creates a new group
func (r *groupRepository) Create(ctx context.Context, group *domain.Group) error {
	query := `
		INSERT INTO vsla_groups (id, name, seed_capital, initial_maintenance_fund, maintenance_fund)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		group.ID,
		group.Name,
		group.SeedCapital.String(),
		group.InitialMaintenanceFund.String(),
		group.MaintenanceFund.String(),
	).Scan(&group.CreatedAt)
	if err != nil {
		return &domain.PersistenceError{Op: "create group", Err: err}
	}

	return nil
}

// GetByID retrieves a group by its ID
func (r *groupRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	query := `
		SELECT id, name, seed_capital, initial_maintenance_fund, maintenance_fund, created_at
		FROM vsla_groups
		WHERE id = $1
	`

	group, err := scanGroup(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "group", Ref: id.String()}
		}
		return nil, &domain.PersistenceError{Op: "get group", Err: err}
	}

	return group, nil
}

// List retrieves all groups
func (r *groupRepository) List(ctx context.Context) ([]*domain.Group, error) {
	query := `
		SELECT id, name, seed_capital, initial_maintenance_fund, maintenance_fund, created_at
		FROM vsla_groups
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list groups", Err: err}
	}
	defer rows.Close()

	groups := make([]*domain.Group, 0)
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, &domain.PersistenceError{Op: "scan group", Err: err}
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "iterate groups", Err: err}
	}

	return groups, nil
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGroup(row rowScanner) (*domain.Group, error) {
	var group domain.Group
	var seedStr, initialStr, fundStr string

	if err := row.Scan(
		&group.ID,
		&group.Name,
		&seedStr,
		&initialStr,
		&fundStr,
		&group.CreatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if group.SeedCapital, err = decimal.NewFromString(seedStr); err != nil {
		return nil, fmt.Errorf("failed to parse seed_capital: %w", err)
	}
	if group.InitialMaintenanceFund, err = decimal.NewFromString(initialStr); err != nil {
		return nil, fmt.Errorf("failed to parse initial_maintenance_fund: %w", err)
	}
	if group.MaintenanceFund, err = decimal.NewFromString(fundStr); err != nil {
		return nil, fmt.Errorf("failed to parse maintenance_fund: %w", err)
	}

	return &group, nil
}
