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

// memberRepository implements domain.MemberRepository
type memberRepository struct {
	db *DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *DB) domain.MemberRepository {
	return &memberRepository{db: db}
}

// Create enrolls a new member into a group
func (r *memberRepository) Create(ctx context.Context, member *domain.Member) error {
	query := `
		INSERT INTO members (id, group_id, name, role, opening_balance, current_balance)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		member.ID,
		member.GroupID,
		member.Name,
		string(member.Role),
		member.OpeningBalance.String(),
		member.CurrentBalance.String(),
	).Scan(&member.CreatedAt)
	if err != nil {
		return &domain.PersistenceError{Op: "create member", Err: err}
	}

	return nil
}

// GetByID retrieves a member by its ID
func (r *memberRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Member, error) {
	query := `
		SELECT id, group_id, name, role, opening_balance, current_balance, created_at
		FROM members
		WHERE id = $1
	`

	member, err := scanMember(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "member", Ref: id.String()}
		}
		return nil, &domain.PersistenceError{Op: "get member", Err: err}
	}

	return member, nil
}

// ListByGroup retrieves all members of a group
func (r *memberRepository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*domain.Member, error) {
	query := `
		SELECT id, group_id, name, role, opening_balance, current_balance, created_at
		FROM members
		WHERE group_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list members", Err: err}
	}
	defer rows.Close()

	members := make([]*domain.Member, 0)
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, &domain.PersistenceError{Op: "scan member", Err: err}
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "iterate members", Err: err}
	}

	return members, nil
}

// AssignRole sets the member's role. For officer roles the previous holder in
// the same group is demoted in the same database transaction, so the
// single-holder-per-role rule cannot be violated by concurrent assignments.
func (r *memberRepository) AssignRole(ctx context.Context, memberID uuid.UUID, role domain.Role) (*domain.Member, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "begin role assignment", Err: err}
	}
	defer tx.Rollback()

	var groupID uuid.UUID
	err = tx.QueryRowContext(ctx, `SELECT group_id FROM members WHERE id = $1 FOR UPDATE`, memberID).Scan(&groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "member", Ref: memberID.String()}
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "lock member for role assignment", Err: err}
	}

	if role.Officer() {
		// Evict the current holder, if any.
		_, err = tx.ExecContext(ctx,
			`UPDATE members SET role = $1 WHERE group_id = $2 AND role = $3 AND id <> $4`,
			string(domain.RoleMember), groupID, string(role), memberID,
		)
		if err != nil {
			return nil, &domain.PersistenceError{Op: "evict previous role holder", Err: err}
		}
	}

	member, err := scanMember(tx.QueryRowContext(ctx, `
		UPDATE members SET role = $1 WHERE id = $2
		RETURNING id, group_id, name, role, opening_balance, current_balance, created_at
	`, string(role), memberID))
	if err != nil {
		return nil, &domain.PersistenceError{Op: "assign role", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return nil, &domain.PersistenceError{Op: "commit role assignment", Err: err}
	}

	return member, nil
}

// SetCurrentBalance overwrites the cached balance. Reserved for drift
// recovery; ordinary writes go through the transaction repository.
func (r *memberRepository) SetCurrentBalance(ctx context.Context, memberID uuid.UUID, balance decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE members SET current_balance = $1 WHERE id = $2`,
		balance.String(), memberID,
	)
	if err != nil {
		return &domain.PersistenceError{Op: "set current balance", Err: err}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return &domain.PersistenceError{Op: "set current balance", Err: err}
	}
	if affected == 0 {
		return &domain.NotFoundError{Entity: "member", Ref: memberID.String()}
	}

	return nil
}

func scanMember(row rowScanner) (*domain.Member, error) {
	var member domain.Member
	var role string
	var openingStr, currentStr string

	if err := row.Scan(
		&member.ID,
		&member.GroupID,
		&member.Name,
		&role,
		&openingStr,
		&currentStr,
		&member.CreatedAt,
	); err != nil {
		return nil, err
	}

	member.Role = domain.Role(role)

	var err error
	if member.OpeningBalance, err = decimal.NewFromString(openingStr); err != nil {
		return nil, fmt.Errorf("failed to parse opening_balance: %w", err)
	}
	if member.CurrentBalance, err = decimal.NewFromString(currentStr); err != nil {
		return nil, fmt.Errorf("failed to parse current_balance: %w", err)
	}

	return &member, nil
}
